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
	"fmt"
)

// Geometric masks reject pixels by coordinate alone; the pixel values are
// irrelevant. All constructors take the array dimensions and return a mask
// of that exact shape. Column and row indices are 0-based; ranges are
// inclusive on both ends, which is the documented contract, not an
// off-by-one. A mask rejecting zero pixels is legal here; the operator
// layer reports it as a data-quality note.

// Checks that the dimensions describe at least a 2D array with the spatial
// axes first, and returns width, height and the number of 2D planes
func spatialDims(naxisn []int32) (width, height, planes int32, err error) {
	if len(naxisn)<2 {
		return 0,0,0, fmt.Errorf("geometric mask needs at least 2 axes, have %v", naxisn)
	}
	width, height=naxisn[0], naxisn[1]
	if width<=0 || height<=0 {
		return 0,0,0, fmt.Errorf("geometric mask needs positive spatial axes, have %v", naxisn)
	}
	planes=int32(1)
	for _,naxis:=range(naxisn[2:]) {
		planes*=naxis
	}
	return width, height, planes, nil
}

// An all-false mask: every pixel valid. Empty by construction, which is
// the one case the operator layer does not flag as a data-quality note.
func Nothing(naxisn []int32) *Mask {
	return New(naxisn)
}

// An all-true mask: every pixel rejected
func Everything(naxisn []int32) *Mask {
	m:=New(naxisn)
	for i:=range(m.Data) {
		m.Data[i]=true
	}
	return m
}

// Rejects the rectangle spanned by the given column and row ranges,
// both bounds inclusive
func Rectangle(naxisn []int32, colRange, rowRange [2]int32) (*Mask, error) {
	width, height, planes, err:=spatialDims(naxisn)
	if err!=nil { return nil, err }
	if colRange[0]>colRange[1] || rowRange[0]>rowRange[1] {
		return nil, fmt.Errorf("rectangle ranges must be ordered low,high: columns %v rows %v", colRange, rowRange)
	}

	m:=New(naxisn)
	planeSize:=width*height
	for p:=int32(0); p<planes; p++ {
		for row:=rowRange[0]; row<=rowRange[1] && row<height; row++ {
			if row<0 { continue }
			for col:=colRange[0]; col<=colRange[1] && col<width; col++ {
				if col<0 { continue }
				m.Data[p*planeSize+row*width+col]=true
			}
		}
	}
	return m, nil
}

// Rejects everything outside the inclusive sub-rectangle: the complement
// of Rectangle
func Subarray(naxisn []int32, colRange, rowRange [2]int32) (*Mask, error) {
	rect, err:=Rectangle(naxisn, colRange, rowRange)
	if err!=nil { return nil, err }
	for i,d:=range(rect.Data) {
		rect.Data[i]=!d
	}
	return rect, nil
}

// Rejects exactly the listed (column,row) pixels. The two index lists must
// have equal length and pair up element-wise
func SinglePixels(naxisn []int32, cols, rows []int32) (*Mask, error) {
	width, height, planes, err:=spatialDims(naxisn)
	if err!=nil { return nil, err }
	if len(cols)!=len(rows) {
		return nil, fmt.Errorf("single pixel lists must pair up: %d columns vs %d rows", len(cols), len(rows))
	}

	m:=New(naxisn)
	planeSize:=width*height
	for i:=range(cols) {
		col, row:=cols[i], rows[i]
		if col<0 || col>=width || row<0 || row>=height {
			return nil, fmt.Errorf("pixel (%d,%d) outside %dx%d array", col, row, width, height)
		}
		for p:=int32(0); p<planes; p++ {
			m.Data[p*planeSize+row*width+col]=true
		}
	}
	return m, nil
}

// Rejects the listed columns in full
func Columns(naxisn []int32, cols []int32) (*Mask, error) {
	width, height, planes, err:=spatialDims(naxisn)
	if err!=nil { return nil, err }

	m:=New(naxisn)
	planeSize:=width*height
	for _,col:=range(cols) {
		if col<0 || col>=width {
			return nil, fmt.Errorf("column %d outside width %d", col, width)
		}
		for p:=int32(0); p<planes; p++ {
			for row:=int32(0); row<height; row++ {
				m.Data[p*planeSize+row*width+col]=true
			}
		}
	}
	return m, nil
}

// Rejects the listed rows in full
func Rows(naxisn []int32, rows []int32) (*Mask, error) {
	width, height, planes, err:=spatialDims(naxisn)
	if err!=nil { return nil, err }

	m:=New(naxisn)
	planeSize:=width*height
	for _,row:=range(rows) {
		if row<0 || row>=height {
			return nil, fmt.Errorf("row %d outside height %d", row, height)
		}
		for p:=int32(0); p<planes; p++ {
			start:=p*planeSize+row*width
			for col:=int32(0); col<width; col++ {
				m.Data[start+col]=true
			}
		}
	}
	return m, nil
}
