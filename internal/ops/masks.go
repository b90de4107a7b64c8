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


package ops

import (
	"github.com/mlnoga/pixelqc/internal/fits"
	"github.com/mlnoga/pixelqc/internal/mask"
)

// Geometric mask operators. These only consume the image dimensions; the
// pixel values are irrelevant.

type OpMaskRectangle struct {
	OpBase
	ColRange [2]int32 `json:"colRange"`
	RowRange [2]int32 `json:"rowRange"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpMaskRectangle([2]int32{}, [2]int32{}) }) }

func NewOpMaskRectangle(colRange, rowRange [2]int32) *OpMaskRectangle {
	return &OpMaskRectangle{
		OpBase:   OpBase{Type: "maskRectangle", Active: true},
		ColRange: colRange,
		RowRange: rowRange,
	}
}

func (op *OpMaskRectangle) Apply(f *fits.Image, coll *mask.Collection, c *Context) error {
	m, err:=mask.Rectangle(f.Naxisn, op.ColRange, op.RowRange)
	if err!=nil { return err }
	return addToCollection(coll, op.Type, m, c)
}

type OpMaskSubarray struct {
	OpBase
	ColRange [2]int32 `json:"colRange"`
	RowRange [2]int32 `json:"rowRange"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpMaskSubarray([2]int32{}, [2]int32{}) }) }

func NewOpMaskSubarray(colRange, rowRange [2]int32) *OpMaskSubarray {
	return &OpMaskSubarray{
		OpBase:   OpBase{Type: "maskSubarray", Active: true},
		ColRange: colRange,
		RowRange: rowRange,
	}
}

func (op *OpMaskSubarray) Apply(f *fits.Image, coll *mask.Collection, c *Context) error {
	m, err:=mask.Subarray(f.Naxisn, op.ColRange, op.RowRange)
	if err!=nil { return err }
	return addToCollection(coll, op.Type, m, c)
}

type OpMaskSinglePixels struct {
	OpBase
	Cols []int32 `json:"cols"`
	Rows []int32 `json:"rows"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpMaskSinglePixels(nil, nil) }) }

func NewOpMaskSinglePixels(cols, rows []int32) *OpMaskSinglePixels {
	return &OpMaskSinglePixels{
		OpBase: OpBase{Type: "maskSinglePixels", Active: true},
		Cols:   cols,
		Rows:   rows,
	}
}

func (op *OpMaskSinglePixels) Apply(f *fits.Image, coll *mask.Collection, c *Context) error {
	m, err:=mask.SinglePixels(f.Naxisn, op.Cols, op.Rows)
	if err!=nil { return err }
	return addToCollection(coll, op.Type, m, c)
}

type OpMaskColumns struct {
	OpBase
	Cols []int32 `json:"cols"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpMaskColumns(nil) }) }

func NewOpMaskColumns(cols []int32) *OpMaskColumns {
	return &OpMaskColumns{
		OpBase: OpBase{Type: "maskColumns", Active: true},
		Cols:   cols,
	}
}

func (op *OpMaskColumns) Apply(f *fits.Image, coll *mask.Collection, c *Context) error {
	m, err:=mask.Columns(f.Naxisn, op.Cols)
	if err!=nil { return err }
	return addToCollection(coll, op.Type, m, c)
}

type OpMaskRows struct {
	OpBase
	Rows []int32 `json:"rows"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpMaskRows(nil) }) }

func NewOpMaskRows(rows []int32) *OpMaskRows {
	return &OpMaskRows{
		OpBase: OpBase{Type: "maskRows", Active: true},
		Rows:   rows,
	}
}

func (op *OpMaskRows) Apply(f *fits.Image, coll *mask.Collection, c *Context) error {
	m, err:=mask.Rows(f.Naxisn, op.Rows)
	if err!=nil { return err }
	return addToCollection(coll, op.Type, m, c)
}

type OpMaskNothing struct {
	OpBase
}

func init() { SetOperatorFactory(func() Operator { return NewOpMaskNothing() }) }

func NewOpMaskNothing() *OpMaskNothing {
	return &OpMaskNothing{OpBase{Type: "maskNothing", Active: true}}
}

func (op *OpMaskNothing) Apply(f *fits.Image, coll *mask.Collection, c *Context) error {
	return addToCollection(coll, op.Type, mask.Nothing(f.Naxisn), c)
}

type OpMaskEverything struct {
	OpBase
}

func init() { SetOperatorFactory(func() Operator { return NewOpMaskEverything() }) }

func NewOpMaskEverything() *OpMaskEverything {
	return &OpMaskEverything{OpBase{Type: "maskEverything", Active: true}}
}

func (op *OpMaskEverything) Apply(f *fits.Image, coll *mask.Collection, c *Context) error {
	return addToCollection(coll, op.Type, mask.Everything(f.Naxisn), c)
}
