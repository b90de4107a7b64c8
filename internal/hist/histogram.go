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


package hist

import (
	"fmt"
	"math"
	"sort"

	"github.com/mlnoga/pixelqc/internal/mask"
)

// A fixed-bin-width histogram of pixel values. Bins are left-closed with
// the last bin closed on both ends; the last bin absorbs the remainder when
// the value range is not a multiple of the bin width.
type Histogram struct {
	BinWidth float64
	Edges    []float64  // bin edges, len(Counts)+1, last edge is the data maximum
	Centers  []float64  // midpoints of adjacent edges
	Counts   []float64  // pixels per bin
}

// Builds the histogram of the data at the given bin width, skipping pixels
// rejected by the optional mask as well as NaN and infinite values.
// Edges run from the minimum in steps of binWidth, with the maximum
// appended as the final edge.
func NewHistogram(data []float32, m *mask.Mask, binWidth float64) (*Histogram, error) {
	if binWidth<=0 {
		return nil, fmt.Errorf("bin width must be a positive non-zero number, have %g", binWidth)
	}
	if m!=nil && len(m.Data)!=len(data) {
		return nil, &mask.ShapeError{Index: 0, Want: []int32{int32(len(data))}, Got: m.Naxisn}
	}

	flat:=make([]float64, 0, len(data))
	for i,d:=range(data) {
		if m!=nil && m.Data[i] { continue }
		d64:=float64(d)
		if math.IsNaN(d64) || math.IsInf(d64, 0) { continue }
		flat=append(flat, d64)
	}
	if len(flat)==0 {
		return nil, fmt.Errorf("no valid pixels left to histogram")
	}

	min, max:=flat[0], flat[0]
	for _,v:=range(flat) {
		if v<min { min=v }
		if v>max { max=v }
	}
	if max<=min {
		return nil, fmt.Errorf("histogram needs a value range, all %d pixels equal %g", len(flat), min)
	}

	edges:=[]float64{}
	for e:=min; e<max; e+=binWidth {
		edges=append(edges, e)
	}
	edges=append(edges, max)
	numBins:=len(edges)-1

	h:=&Histogram{
		BinWidth: binWidth,
		Edges:    edges,
		Centers:  make([]float64, numBins),
		Counts:   make([]float64, numBins),
	}
	for i:=0; i<numBins; i++ {
		h.Centers[i]=0.5*(edges[i]+edges[i+1])
	}
	for _,v:=range(flat) {
		h.Counts[h.binIndex(v)]++
	}
	return h, nil
}

// Bin index for a value within [Edges[0], Edges[len-1]]
func (h *Histogram) binIndex(v float64) int {
	i:=sort.SearchFloat64s(h.Edges, v)
	if i<len(h.Edges) && h.Edges[i]==v {
		// on an edge: belongs to the bin it opens, except the final edge
		// which closes the last bin
		if i>len(h.Counts)-1 { return len(h.Counts)-1 }
		return i
	}
	i--
	if i<0 { return 0 }
	if i>len(h.Counts)-1 { return len(h.Counts)-1 }
	return i
}
