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


package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Basic statistics on a data array
type Basic struct {
	Min    float32  // Minimum
	Max    float32  // Maximum
	Mean   float32  // Mean (average)
	StdDev float32  // Standard deviation (norm 2, sigma)
}

// Pretty print basic stats to string
func (s *Basic) String() string {
	return fmt.Sprintf("Min %.6g Max %.6g Mean %.6g StdDev %.6g", s.Min, s.Max, s.Mean, s.StdDev)
}

// Calculate basic statistics for a data array
func CalcBasic(data []float32) (s *Basic) {
	s=&Basic{}
	s.Min, s.Mean, s.Max=MinMeanMax(data)
	variance:=calcVariance(data, s.Mean)
	s.StdDev=float32(math.Sqrt(float64(variance)))
	return s
}

// Calculate minimum, mean and maximum of the data in one pass
func MinMeanMax(data []float32) (min, mean, max float32) {
	if len(data)==0 { return float32(math.NaN()), float32(math.NaN()), float32(math.NaN()) }
	mmin, mmax, sum:=float64(data[0]), float64(data[0]), float64(0)
	for _,d:=range(data) {
		dd:=float64(d)
		if dd<mmin { mmin=dd }
		if dd>mmax { mmax=dd }
		sum+=dd
	}
	return float32(mmin), float32(sum/float64(len(data))), float32(mmax)
}

// Calculate the population variance of the data around the given mean
func calcVariance(data []float32, mean float32) float32 {
	sumSq:=float64(0)
	for _,d:=range(data) {
		diff:=float64(d-mean)
		sumSq+=diff*diff
	}
	return float32(sumSq/float64(len(data)))
}

// Calculate mean and population standard deviation of the data
func MeanStdDev(data []float32) (mean, stdDev float32) {
	_, mean, _=MinMeanMax(data)
	return mean, float32(math.Sqrt(float64(calcVariance(data, mean))))
}

// Returns the samples strictly inside the interquartile range fences
// [Q1-1.5*IQR, Q3+1.5*IQR]. The quartile indices are round((n+1)/4)
// and round((n+1)*3/4) into the sorted samples. Errors when no sample
// survives the fences.
func fencedSubset(data []float32) (fenced []float32, err error) {
	if len(data)==0 { return nil, errors.New("cannot compute fenced subset of empty array") }
	y:=append([]float32(nil), data...) // do not mutate caller data
	sort.Slice(y, func(i,j int) bool { return y[i]<y[j] })

	n:=len(y)
	indQt1:=int(math.Round(float64(n+1)/4.0))
	indQt3:=int(math.Round(float64(n+1)*3.0/4.0))
	if indQt1>n-1 { indQt1=n-1 }
	if indQt3>n-1 { indQt3=n-1 }

	iqr      :=y[indQt3]-y[indQt1]
	lowFence :=y[indQt1]-1.5*iqr
	highFence:=y[indQt3]+1.5*iqr

	fenced=make([]float32, 0, n)
	for _,v:=range(y) {
		if v>lowFence && v<highFence {
			fenced=append(fenced, v)
		}
	}
	if len(fenced)==0 {
		return nil, fmt.Errorf("all %d samples fall outside the IQR fences [%g, %g]", n, lowFence, highFence)
	}
	return fenced, nil
}

// Robust mean: the mean of the samples strictly inside the IQR fences.
// Outliers beyond 1.5 IQR of the quartiles do not contribute.
func RobustMean(data []float32) (mean float32, err error) {
	fenced, err:=fencedSubset(data)
	if err!=nil { return 0, err }
	_, mean, _=MinMeanMax(fenced)
	return mean, nil
}

// Robust standard deviation: the population standard deviation of the
// samples strictly inside the IQR fences.
func RobustStdDev(data []float32) (stdDev float32, err error) {
	fenced, err:=fencedSubset(data)
	if err!=nil { return 0, err }
	_, stdDev=MeanStdDev(fenced)
	return stdDev, nil
}

// Robust mean and standard deviation in one pass over the fences
func RobustMeanStdDev(data []float32) (mean, stdDev float32, err error) {
	fenced, err:=fencedSubset(data)
	if err!=nil { return 0, 0, err }
	mean, stdDev=MeanStdDev(fenced)
	return mean, stdDev, nil
}
