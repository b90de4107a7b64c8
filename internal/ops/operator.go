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
	"encoding/json"
	"fmt"
	"io"

	"github.com/pbnjay/memory"

	"github.com/mlnoga/pixelqc/internal/fits"
	"github.com/mlnoga/pixelqc/internal/mask"
)

// An execution context for operators
type Context struct {
	Log      io.Writer
	MemoryMB int          // memory.TotalMemory()/1024/1024
}

func NewContext(log io.Writer) *Context {
	return &Context{
		Log:      log,
		MemoryMB: int(memory.TotalMemory()/1024/1024),
	}
}

// Checks that the working set for processing the given image fits into
// physical memory. A job holds the float32 pixel array plus per-rule boolean
// masks; 8 bytes per pixel bounds that for any sane rule count. Errors out
// when the bound exceeds physical memory, warns when it passes 70% of it
func (c *Context) checkMemory(f *fits.Image) error {
	needMB:=int(int64(f.Pixels)*8/1024/1024)
	if needMB>c.MemoryMB {
		return fmt.Errorf("%s: needs about %d MB but only %d MB of memory present", f.FileName, needMB, c.MemoryMB)
	}
	if needMB>(c.MemoryMB*7)/10 {
		fmt.Fprintf(c.Log, "warning: %s needs about %d MB of the %d MB present\n", f.FileName, needMB, c.MemoryMB)
	}
	return nil
}

// A masking operator: applies one filter or geometric mask rule to a pixel
// array and records the resulting mask in the collection under its type
// name, keeping provenance of which rule flagged which pixel
type Operator interface {
	GetType() string
	IsActive() bool
	Apply(f *fits.Image, coll *mask.Collection, c *Context) error
}

// Base type for operators, including type information for JSON
// serializing/deserializing
type OpBase struct {
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

func (op *OpBase) GetType() string { return op.Type }
func (op *OpBase) IsActive() bool  { return op.Active }

// Factory method for operators, for JSON deserializing
type OperatorFactory func() Operator

// Mapping from operator type strings to factory methods. This explicit
// registry, populated at init time, is the complete set of operators; there
// is no runtime discovery by function name.
var operatorFactories=map[string]OperatorFactory{}

// Returns the operator factory for a given type string, or nil
func GetOperatorFactory(t string) OperatorFactory {
	return operatorFactories[t]
}

// Registers a factory under the type string of its exemplar operator
func SetOperatorFactory(f OperatorFactory) {
	op:=f()
	t:=op.GetType()
	if GetOperatorFactory(t)!=nil { panic(fmt.Sprintf("error: re-registering operator key %s\n", t)) }
	operatorFactories[t]=f
}

// Registered operator type strings, for usage output
func OperatorTypes() []string {
	types:=make([]string, 0, len(operatorFactories))
	for t:=range(operatorFactories) {
		types=append(types, t)
	}
	return types
}

// An ordered list of operators that deserializes each element through the
// factory registry based on its "type" field
type OperatorList []Operator

func (l *OperatorList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err:=json.Unmarshal(data, &raws); err!=nil { return err }

	*l=make([]Operator, 0, len(raws))
	for _,raw:=range(raws) {
		var base OpBase
		if err:=json.Unmarshal(raw, &base); err!=nil { return err }
		factory:=GetOperatorFactory(base.Type)
		if factory==nil { return fmt.Errorf("unknown operator type %q", base.Type) }
		op:=factory()
		if err:=json.Unmarshal(raw, op); err!=nil { return err }
		*l=append(*l, op)
	}
	return nil
}

// Applies all active operators in order to the image, growing a fresh
// collection, and synthesizes the final mask
func (l OperatorList) Run(f *fits.Image, c *Context) (final *mask.Mask, coll *mask.Collection, err error) {
	coll=mask.NewCollection()
	for _,op:=range(l) {
		if !op.IsActive() { continue }
		if err:=op.Apply(f, coll, c); err!=nil { return nil, nil, err }
	}
	if coll.Len()==0 {
		return nil, nil, fmt.Errorf("no active operators produced a mask")
	}
	final, err=coll.Synthesize()
	if err!=nil { return nil, nil, err }
	return final, coll, nil
}
