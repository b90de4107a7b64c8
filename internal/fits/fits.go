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
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/astrogo/fitsio"

	"github.com/mlnoga/pixelqc/internal/mask"
)

// A detector pixel array loaded from the primary HDU of a FITS file.
// Data is flat row-major with axis dimensions in Naxisn, most quickly
// varying first (i.e. X,Y). The QC core treats the data as read-only.
type Image struct {
	FileName string
	Naxisn   []int32
	Pixels   int32
	Data     []float32
}

// Loads the primary HDU of a FITS file into an Image, applying BZERO and
// BSCALE where present
func Load(fileName string) (img *Image, err error) {
	r, err:=os.Open(fileName)
	if err!=nil { return nil, err }
	defer r.Close()

	f, err:=fitsio.Open(r)
	if err!=nil { return nil, err }
	defer f.Close()

	hdu, ok:=f.HDU(0).(fitsio.Image)
	if !ok { return nil, fmt.Errorf("%s: primary HDU is not an image", fileName) }

	hdr:=hdu.Header()
	axes:=hdr.Axes()
	if len(axes)<2 {
		return nil, fmt.Errorf("%s: pixel data needs at least 2 axes, have %v", fileName, axes)
	}
	naxisn:=make([]int32, len(axes))
	pixels:=int32(1)
	for i,axis:=range(axes) {
		naxisn[i]=int32(axis)
		pixels*=int32(axis)
	}

	bzero, bscale:=float64(0), float64(1)
	if card:=hdr.Get("BZERO");  card!=nil { bzero =cardFloat(card.Value) }
	if card:=hdr.Get("BSCALE"); card!=nil {
		if s:=cardFloat(card.Value); s!=0 { bscale=s }
	}

	data, err:=decodeRaw(hdu.Raw(), hdr.Bitpix(), int(pixels), bzero, bscale)
	if err!=nil { return nil, fmt.Errorf("%s: %s", fileName, err.Error()) }

	return &Image{
		FileName: fileName,
		Naxisn:   naxisn,
		Pixels:   pixels,
		Data:     data,
	}, nil
}

// Loads a previously written 0/1 mask FITS file as a boolean mask; any
// nonzero pixel is rejected
func LoadMask(fileName string) (m *mask.Mask, err error) {
	img, err:=Load(fileName)
	if err!=nil { return nil, err }
	m=mask.New(img.Naxisn)
	for i,d:=range(img.Data) {
		if d!=0 { m.Data[i]=true }
	}
	return m, nil
}

func cardFloat(v interface{}) float64 {
	switch x:=v.(type) {
	case float64: return x
	case float32: return float64(x)
	case int:     return float64(x)
	case int64:   return float64(x)
	}
	return 0
}

// Decodes big-endian FITS pixel data for the given BITPIX into float32
func decodeRaw(raw []byte, bitpix, pixels int, bzero, bscale float64) ([]float32, error) {
	bytesPerPixel:=abs(bitpix)/8
	if len(raw)<pixels*bytesPerPixel {
		return nil, fmt.Errorf("raw data holds %d bytes, want %d for %d pixels at BITPIX %d",
			len(raw), pixels*bytesPerPixel, pixels, bitpix)
	}

	data:=make([]float32, pixels)
	for i:=0; i<pixels; i++ {
		b:=raw[i*bytesPerPixel:]
		var v float64
		switch bitpix {
		case 8:
			v=float64(b[0])
		case 16:
			v=float64(int16(binary.BigEndian.Uint16(b)))
		case 32:
			v=float64(int32(binary.BigEndian.Uint32(b)))
		case 64:
			v=float64(int64(binary.BigEndian.Uint64(b)))
		case -32:
			v=float64(math.Float32frombits(binary.BigEndian.Uint32(b)))
		case -64:
			v=math.Float64frombits(binary.BigEndian.Uint64(b))
		default:
			return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
		}
		data[i]=float32(bzero+bscale*v)
	}
	return data, nil
}

func abs(x int) int {
	if x<0 { return -x }
	return x
}
