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

// An ordered mapping from filter/mask names to masks, keeping provenance of
// which rule flagged which pixel. All members share one shape. Callers
// construct a fresh collection per invocation; there is no shared default.
type Collection struct {
	names []string
	masks map[string]*Mask
}

func NewCollection() *Collection {
	return &Collection{
		names: nil,
		masks: map[string]*Mask{},
	}
}

// Number of masks in the collection
func (c *Collection) Len() int {
	return len(c.names)
}

// Mask names in insertion order
func (c *Collection) Names() []string {
	return append([]string(nil), c.names...)
}

// Returns the named mask, or nil
func (c *Collection) Get(name string) *Mask {
	return c.masks[name]
}

// Adds a mask under the given name. The first mask added fixes the shape;
// later additions must match it. Re-using a name is an error to keep
// provenance unambiguous.
func (c *Collection) Add(name string, m *Mask) error {
	if m==nil { return errors.New("cannot add nil mask to collection") }
	if _,ok:=c.masks[name]; ok {
		return fmt.Errorf("mask %q already in collection", name)
	}
	if len(c.names)>0 {
		first:=c.masks[c.names[0]]
		if !EqualInt32Slice(m.Naxisn, first.Naxisn) || len(m.Data)!=len(first.Data) {
			return &ShapeError{Index: len(c.names), Want: first.Naxisn, Got: m.Naxisn}
		}
	}
	c.names=append(c.names, name)
	c.masks[name]=m
	return nil
}

// Combines all members into one final mask via Synthesize
func (c *Collection) Synthesize() (*Mask, error) {
	all:=make([]*Mask, 0, len(c.names))
	for _,name:=range(c.names) {
		all=append(all, c.masks[name])
	}
	return Synthesize(all...)
}
