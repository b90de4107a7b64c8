// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package fits

import (
	"fmt"
	"os"
	"sort"

	"github.com/astrogo/fitsio"
	"github.com/valyala/fastrand"

	"github.com/mlnoga/pixelqc/internal/mask"
)

// Writes the mask as a 0/1 16-bit integer FITS primary HDU. FITS carries no
// boolean pixel type, so rejected pixels become 1, valid pixels 0.
// Provenance goes into header cards: MASKTYPE names the rule that produced
// the mask, N_MASKED counts rejected pixels, REF_FILE names the data file
// the mask derives from, and every entry of params becomes one card.
func WriteMask(fileName, maskType, refFile string, m *mask.Mask, params map[string]interface{}) error {
	w, err:=os.Create(fileName)
	if err!=nil { return err }
	defer w.Close()

	f, err:=fitsio.Create(w)
	if err!=nil { return err }
	defer f.Close()

	axes:=make([]int, len(m.Naxisn))
	for i,naxis:=range(m.Naxisn) {
		axes[i]=int(naxis)
	}
	img:=fitsio.NewImage(16, axes)
	defer img.Close()

	cards:=[]fitsio.Card{
		{Name: "MASKTYPE", Value: maskType,           Comment: "The mask or filter rule this is"},
		{Name: "N_MASKED", Value: m.CountRejected(),  Comment: "The number of pixels masked"},
		{Name: "REF_FILE", Value: refFile,            Comment: "The data file this mask derives from"},
	}
	for _,name:=range(sortedKeys(params)) {
		cards=append(cards, fitsio.Card{
			Name: cardName(name), Value: params[name], Comment: "A parameter used for this mask",
		})
	}
	if err:=img.Header().Append(cards...); err!=nil { return err }

	data:=make([]int16, len(m.Data))
	for i,d:=range(m.Data) {
		if d { data[i]=1 }
	}
	if err:=img.Write(&data); err!=nil { return err }
	return f.Write(img)
}

// FITS card names are at most 8 characters of uppercase
func cardName(name string) string {
	upper:=make([]byte, 0, 8)
	for i:=0; i<len(name) && len(upper)<8; i++ {
		c:=name[i]
		if c>='a' && c<='z' { c-='a'-'A' }
		if (c>='A' && c<='Z') || (c>='0' && c<='9') || c=='-' || c=='_' {
			upper=append(upper, c)
		}
	}
	return string(upper)
}

func sortedKeys(m map[string]interface{}) []string {
	keys:=make([]string, 0, len(m))
	for k:=range(m) {
		keys=append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fallback mask file name for callers that provide none: a random
// lowercase tag with the mask extension
func RandomMaskName() string {
	const letters="abcdefghijklmnopqrstuvwxyz"
	name:=make([]byte, 8)
	for i:=range(name) {
		name[i]=letters[fastrand.Uint32n(uint32(len(letters)))]
	}
	return fmt.Sprintf("%s.mask.fits", string(name))
}
