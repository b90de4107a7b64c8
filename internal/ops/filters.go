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
	"fmt"

	"github.com/mlnoga/pixelqc/internal/filter"
	"github.com/mlnoga/pixelqc/internal/fits"
	"github.com/mlnoga/pixelqc/internal/hist"
	"github.com/mlnoga/pixelqc/internal/mask"
)

// Value filter operators. Each wraps one filter rule with its JSON
// parameters and records the outcome in the collection.

// Records a rule's mask in the collection and logs its yield. Repeated uses
// of one rule type get ordinal suffixes to keep provenance names unique.
// Any rule rejecting zero pixels is reported as a data-quality note, since
// that usually signals a misconfiguration; maskNothing is empty by
// construction and exempt.
func addToCollection(coll *mask.Collection, opType string, m *mask.Mask, c *Context) error {
	name:=opType
	for i:=2; coll.Get(name)!=nil; i++ {
		name=fmt.Sprintf("%s%d", opType, i)
	}
	if err:=coll.Add(name, m); err!=nil { return err }
	fmt.Fprintf(c.Log, "%s: rejected %d of %d pixels\n", name, m.CountRejected(), m.Pixels())
	if m.CountRejected()==0 && opType!="maskNothing" {
		fmt.Fprintf(c.Log, "note: %s rejects zero pixels, check its parameters\n", name)
	}
	return nil
}

type OpFilterMinimum struct {
	OpBase
	Minimum float32 `json:"minimum"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpFilterMinimum(0) }) }

func NewOpFilterMinimum(minimum float32) *OpFilterMinimum {
	return &OpFilterMinimum{
		OpBase:  OpBase{Type: "filterMinimum", Active: true},
		Minimum: minimum,
	}
}

func (op *OpFilterMinimum) Apply(f *fits.Image, coll *mask.Collection, c *Context) error {
	return addToCollection(coll, op.Type, filter.MinimumValue(f.Data, f.Naxisn, op.Minimum), c)
}

type OpFilterMaximum struct {
	OpBase
	Maximum float32 `json:"maximum"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpFilterMaximum(0) }) }

func NewOpFilterMaximum(maximum float32) *OpFilterMaximum {
	return &OpFilterMaximum{
		OpBase:  OpBase{Type: "filterMaximum", Active: true},
		Maximum: maximum,
	}
}

func (op *OpFilterMaximum) Apply(f *fits.Image, coll *mask.Collection, c *Context) error {
	return addToCollection(coll, op.Type, filter.MaximumValue(f.Data, f.Naxisn, op.Maximum), c)
}

type OpFilterExact struct {
	OpBase
	Value     float32 `json:"value"`
	Tolerance float64 `json:"tolerance"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpFilterExact(0, 0) }) }

func NewOpFilterExact(value float32, tolerance float64) *OpFilterExact {
	return &OpFilterExact{
		OpBase:    OpBase{Type: "filterExact", Active: true},
		Value:     value,
		Tolerance: tolerance,
	}
}

func (op *OpFilterExact) Apply(f *fits.Image, coll *mask.Collection, c *Context) error {
	m, err:=filter.ExactValue(f.Data, f.Naxisn, op.Value, op.Tolerance)
	if err!=nil { return err }
	return addToCollection(coll, op.Type, m, c)
}

type OpFilterInvalid struct {
	OpBase
}

func init() { SetOperatorFactory(func() Operator { return NewOpFilterInvalid() }) }

func NewOpFilterInvalid() *OpFilterInvalid {
	return &OpFilterInvalid{OpBase{Type: "filterInvalid", Active: true}}
}

func (op *OpFilterInvalid) Apply(f *fits.Image, coll *mask.Collection, c *Context) error {
	return addToCollection(coll, op.Type, filter.InvalidValue(f.Data, f.Naxisn), c)
}

type OpFilterSigma struct {
	OpBase
	Limits filter.SigmaLimits `json:"limits"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpFilterSigma(filter.Symmetric(0)) }) }

func NewOpFilterSigma(limits filter.SigmaLimits) *OpFilterSigma {
	return &OpFilterSigma{
		OpBase: OpBase{Type: "filterSigma", Active: true},
		Limits: limits,
	}
}

func (op *OpFilterSigma) Apply(f *fits.Image, coll *mask.Collection, c *Context) error {
	m, err:=filter.SigmaValue(f.Data, f.Naxisn, op.Limits)
	if err!=nil { return err }
	return addToCollection(coll, op.Type, m, c)
}

// Sigma filter with mean and stddev estimated from a Gaussian fit to the
// pixel value histogram instead of the robust estimators
type OpFilterGaussianSigma struct {
	OpBase
	Limits   filter.SigmaLimits `json:"limits"`
	BinWidth float64            `json:"binWidth"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpFilterGaussianSigma(filter.Symmetric(0), 1) }) }

func NewOpFilterGaussianSigma(limits filter.SigmaLimits, binWidth float64) *OpFilterGaussianSigma {
	return &OpFilterGaussianSigma{
		OpBase:   OpBase{Type: "filterGaussianSigma", Active: true},
		Limits:   limits,
		BinWidth: binWidth,
	}
}

func (op *OpFilterGaussianSigma) Apply(f *fits.Image, coll *mask.Collection, c *Context) error {
	mean, stdDev, err:=hist.EstimateMeanStdDev(f.Data, nil, op.BinWidth, c.Log)
	if err!=nil {
		fmt.Fprintf(c.Log, "warning: %s fit did not converge cleanly: %s\n", op.Type, err.Error())
	}
	minFilter:=filter.MinimumValue(f.Data, f.Naxisn, float32(mean-stdDev*float64(op.Limits.Low)))
	maxFilter:=filter.MaximumValue(f.Data, f.Naxisn, float32(mean+stdDev*float64(op.Limits.High)))
	m, err:=mask.Synthesize(minFilter, maxFilter)
	if err!=nil { return err }
	return addToCollection(coll, op.Type, m, c)
}

type OpFilterPixelTrunc struct {
	OpBase
	TopCount    int `json:"topCount"`
	BottomCount int `json:"bottomCount"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpFilterPixelTrunc(0, 0) }) }

func NewOpFilterPixelTrunc(topCount, bottomCount int) *OpFilterPixelTrunc {
	return &OpFilterPixelTrunc{
		OpBase:      OpBase{Type: "filterPixelTruncation", Active: true},
		TopCount:    topCount,
		BottomCount: bottomCount,
	}
}

func (op *OpFilterPixelTrunc) Apply(f *fits.Image, coll *mask.Collection, c *Context) error {
	m, err:=filter.PixelTruncation(f.Data, f.Naxisn, op.TopCount, op.BottomCount)
	if err!=nil { return err }
	return addToCollection(coll, op.Type, m, c)
}

type OpFilterPercentTrunc struct {
	OpBase
	TopPercent    float64 `json:"topPercent"`
	BottomPercent float64 `json:"bottomPercent"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpFilterPercentTrunc(0, 0) }) }

func NewOpFilterPercentTrunc(topPercent, bottomPercent float64) *OpFilterPercentTrunc {
	return &OpFilterPercentTrunc{
		OpBase:        OpBase{Type: "filterPercentTruncation", Active: true},
		TopPercent:    topPercent,
		BottomPercent: bottomPercent,
	}
}

func (op *OpFilterPercentTrunc) Apply(f *fits.Image, coll *mask.Collection, c *Context) error {
	m, err:=filter.PercentTruncation(f.Data, f.Naxisn, op.TopPercent, op.BottomPercent, c.Log)
	if err!=nil { return err }
	return addToCollection(coll, op.Type, m, c)
}
