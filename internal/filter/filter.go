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


package filter

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/mlnoga/pixelqc/internal/mask"
	"github.com/mlnoga/pixelqc/internal/stats"
)

// Value filters reject pixels by value alone. Each takes the flat data
// array with its dimensions and returns a mask of that shape with true
// marking the rejected pixels. The input data is never modified.

// Absolute tolerance for exact-value comparisons when the caller does not
// configure one
const DefaultTolerance=1e-8

// Relative tolerance component of the closeness test
const relTolerance=1e-5

// Rejects pixels strictly below the given minimum value
func MinimumValue(data []float32, naxisn []int32, minimum float32) *mask.Mask {
	m:=mask.New(naxisn)
	for i,d:=range(data) {
		if d<minimum { m.Data[i]=true }
	}
	return m
}

// Rejects pixels strictly above the given maximum value
func MaximumValue(data []float32, naxisn []int32, maximum float32) *mask.Mask {
	m:=mask.New(naxisn)
	for i,d:=range(data) {
		if d>maximum { m.Data[i]=true }
	}
	return m
}

// Rejects pixels close to the given value, within |d-v| <= tolerance +
// relTolerance*|v|. A non-positive tolerance selects DefaultTolerance.
// NaNs are never close to anything.
func ExactValue(data []float32, naxisn []int32, value float32, tolerance float64) (*mask.Mask, error) {
	if tolerance<0 {
		return nil, fmt.Errorf("exact value tolerance must not be negative, have %g", tolerance)
	}
	if tolerance==0 { tolerance=DefaultTolerance }

	limit:=tolerance+relTolerance*math.Abs(float64(value))
	m:=mask.New(naxisn)
	for i,d:=range(data) {
		diff:=math.Abs(float64(d)-float64(value))
		if diff<=limit { m.Data[i]=true } // NaN diff compares false
	}
	return m, nil
}

// Rejects NaN and infinite pixels, the values that poison every statistic
// downstream
func InvalidValue(data []float32, naxisn []int32) *mask.Mask {
	m:=mask.New(naxisn)
	for i,d:=range(data) {
		d64:=float64(d)
		if math.IsNaN(d64) || math.IsInf(d64, 0) { m.Data[i]=true }
	}
	return m
}

// Sigma bounds for SigmaValue: a multiple of the standard deviation below
// and above the mean. Construct via Symmetric or Asymmetric; the explicit
// pair replaces the scalar-or-array duck typing of older tooling.
type SigmaLimits struct {
	Low  float32 `json:"low"`
	High float32 `json:"high"`
}

// Equal bounds on both sides
func Symmetric(multiple float32) SigmaLimits {
	return SigmaLimits{Low: multiple, High: multiple}
}

// Different bottom and top bounds
func Asymmetric(low, high float32) SigmaLimits {
	return SigmaLimits{Low: low, High: high}
}

// Rejects pixels below mean - low*stddev or above mean + high*stddev, with
// mean and stddev computed robustly over the IQR-fenced samples. The two
// one-sided filters are combined via mask synthesis.
func SigmaValue(data []float32, naxisn []int32, limits SigmaLimits) (*mask.Mask, error) {
	if limits.Low<0 || limits.High<0 {
		return nil, fmt.Errorf("sigma multiples must not be negative, have low %g high %g", limits.Low, limits.High)
	}
	mean, stdDev, err:=stats.RobustMeanStdDev(data)
	if err!=nil { return nil, err }

	minFilter:=MinimumValue(data, naxisn, mean-stdDev*limits.Low)
	maxFilter:=MaximumValue(data, naxisn, mean+stdDev*limits.High)
	return mask.Synthesize(minFilter, maxFilter)
}

// Rejects the topCount highest-valued and bottomCount lowest-valued pixels.
// A count of zero means no truncation on that side; it never empties the
// array. Duplicate boundary values are rejected together, as cuts happen
// by value, not by rank.
func PixelTruncation(data []float32, naxisn []int32, topCount, bottomCount int) (*mask.Mask, error) {
	n:=len(data)
	if topCount<0 || bottomCount<0 {
		return nil, fmt.Errorf("truncation counts must not be negative, have top %d bottom %d", topCount, bottomCount)
	}
	if topCount>=n || bottomCount>=n || topCount+bottomCount>=n {
		return nil, fmt.Errorf("truncating top %d and bottom %d of %d pixels leaves nothing", topCount, bottomCount, n)
	}

	sorted:=append([]float32(nil), data...)
	sort.Slice(sorted, func(i,j int) bool { return sorted[i]<sorted[j] })

	minFilter:=mask.Nothing(naxisn)
	maxFilter:=mask.Nothing(naxisn)
	if topCount>0 {
		upperValue:=sorted[n-1-topCount] // highest surviving value
		maxFilter=MaximumValue(data, naxisn, upperValue)
	}
	if bottomCount>0 {
		bottomValue:=sorted[bottomCount] // lowest surviving value
		minFilter=MinimumValue(data, naxisn, bottomValue)
	}
	return mask.Synthesize(minFilter, maxFilter)
}

// Order of magnitude at which float multiplication stops resolving single
// pixels, matching a decimal resolution of 1e-15
const precisionLimit=15.0

// Margin before the limit at which truncation counts start losing accuracy
const precisionMargin=precisionLimit-5.0

// Rejects the top and bottom percentages of pixels by value, by converting
// the percentages to pixel counts and delegating to PixelTruncation.
// Counts derive from floating point products of the total pixel count, so
// the filter warns when that count approaches the floating point decimal
// resolution and fails once it exceeds it.
func PercentTruncation(data []float32, naxisn []int32, topPercent, bottomPercent float64, logWriter io.Writer) (*mask.Mask, error) {
	if topPercent<0 || topPercent>=1 || bottomPercent<0 || bottomPercent>=1 {
		return nil, fmt.Errorf("truncation percentages must be in [0,1), have top %g bottom %g", topPercent, bottomPercent)
	}

	total:=len(data)
	if total==0 { return nil, fmt.Errorf("cannot truncate an empty array") }
	magnitude:=math.Log10(float64(total))
	if magnitude>precisionLimit {
		return nil, fmt.Errorf("%d pixels exceed the resolution of float multiplication; percent truncation would be wildly inaccurate", total)
	}
	if magnitude>precisionMargin && logWriter!=nil {
		fmt.Fprintf(logWriter, "warning: %d pixels approach the float resolution for truncation count multiplication\n", total)
	}

	topPixel   :=total-int(math.Floor(float64(total)*(1.0-topPercent)))
	bottomPixel:=int(math.Floor(float64(total)*bottomPercent))

	return PixelTruncation(data, naxisn, topPixel, bottomPixel)
}
