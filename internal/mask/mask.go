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


package mask

import (
	"errors"
	"fmt"
)

// A boolean bad-pixel mask. True marks a rejected pixel, false a valid one.
// Data is stored row-major in a flat array, with axis dimensions in Naxisn
// ordered most quickly varying first (i.e. X,Y), FITS style. For arrays of
// more than two dimensions the first two axes are the spatial ones; masks
// repeat per 2D plane.
type Mask struct {
	Naxisn []int32   // Axis dimensions, X first
	Data   []bool    // The mask values, true=rejected
}

// Creates an all-false mask of the given dimensions. naxisn is deep copied
func New(naxisn []int32) *Mask {
	numPixels:=int32(1)
	for _,naxis:=range(naxisn) {
		numPixels*=naxis
	}
	return &Mask{
		Naxisn: append([]int32(nil), naxisn...),
		Data:   make([]bool, numPixels),
	}
}

// Number of pixels in the mask, product of Naxisn
func (m *Mask) Pixels() int32 {
	numPixels:=int32(1)
	for _,naxis:=range(m.Naxisn) {
		numPixels*=naxis
	}
	return numPixels
}

// Deep copy of the mask
func (m *Mask) Clone() *Mask {
	return &Mask{
		Naxisn: append([]int32(nil), m.Naxisn...),
		Data:   append([]bool(nil),  m.Data...),
	}
}

// Number of rejected pixels
func (m *Mask) CountRejected() (count int) {
	for _,d:=range(m.Data) {
		if d { count++ }
	}
	return count
}

// Returns true if both slices hold identical dimensions
func EqualInt32Slice(a, b []int32) bool {
	if len(a)!=len(b) { return false }
	for i:=range(a) {
		if a[i]!=b[i] { return false }
	}
	return true
}

// A shape or size mismatch between masks, or between a mask and the data
// array it is applied to. Unrecoverable.
type ShapeError struct {
	Index int      // index of the offending mask in the synthesis arguments
	Want  []int32
	Got   []int32
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("mask %d has shape %v, want %v", e.Index, e.Got, e.Want)
}

// Combines any number of same-shaped masks into one via logical OR.
// Zero inputs is an error. One input returns a copy, not an alias.
// All further inputs must match the first input's shape and element count
// exactly, else a ShapeError naming the offending index is returned.
func Synthesize(masks ...*Mask) (*Mask, error) {
	if len(masks)==0 { return nil, errors.New("no input masks to synthesize") }

	res:=masks[0].Clone()
	for i,m:=range(masks[1:]) {
		if !EqualInt32Slice(m.Naxisn, res.Naxisn) || len(m.Data)!=len(res.Data) {
			return nil, &ShapeError{Index: i+1, Want: res.Naxisn, Got: m.Naxisn}
		}
		for j,d:=range(m.Data) {
			if d { res.Data[j]=true }
		}
	}
	return res, nil
}
