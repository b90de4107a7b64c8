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
	"io"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/mlnoga/pixelqc/internal/mask"
)

// Full width at half maximum of a unit-sigma Gaussian, 2*sqrt(2*ln 2)
const fwhmPerSigma=2.3548200450309493

// A fitted 1D Gaussian amplitude*exp(-((x-mean)/stddev)^2/2) over a
// pixel-value histogram. Max is the fitted curve's evaluated maximum over a
// 100x oversampled range spanning one unit beyond the bin centers on either
// side; after fitting it can differ from the Amplitude parameter, and
// callers wanting the parameter itself should read Amplitude.
type FitResult struct {
	Mean      float64
	StdDev    float64
	Amplitude float64
	Max       float64
	Eval      func(x float64) float64
}

func (r *FitResult) String() string {
	return fmt.Sprintf("Mean %.6g StdDev %.6g Amplitude %.6g Max %.6g", r.Mean, r.StdDev, r.Amplitude, r.Max)
}

// Initial parameter guesses derived from the histogram by the staged
// peak-width heuristic
type guess struct {
	mean, stdDev, amplitude float64
}

// Builds the histogram of the optionally masked data at the given bin
// width, derives initial parameter guesses and fits the Gaussian.
// The returned histogram feeds plotting; the fit may carry a non-nil error
// when the optimizer failed to converge, in which case the parameters are
// whatever it last produced and the caller is responsible for sanity
// checking them.
func FitGaussian(data []float32, m *mask.Mask, binWidth float64, logWriter io.Writer) (result *FitResult, h *Histogram, err error) {
	h, err=NewHistogram(data, m, binWidth)
	if err!=nil { return nil, nil, err }

	g:=initialGuess(h.Centers, h.Counts, logWriter)
	result, err=fitGaussianXY(h.Centers, h.Counts, g)
	return result, h, err
}

// Convenience for sigma-style filters that prefer the fitted distribution
// over the robust estimators: mean and standard deviation of the Gaussian
// fitted to the histogram of the data.
func EstimateMeanStdDev(data []float32, m *mask.Mask, binWidth float64, logWriter io.Writer) (mean, stdDev float64, err error) {
	result, _, err:=FitGaussian(data, m, binWidth, logWriter)
	if result==nil { return 0, 0, err }
	return result.Mean, math.Abs(result.StdDev), err
}

// The staged initial-guess heuristic. Bins with counts below the
// coefficient of variation of all counts are discarded as noise. Peaks are
// sought at minimum width 5, then 2, then 1, each time taking the largest
// full-width-half-max found, or the second largest when the largest exceeds
// the standard deviation of the kept counts (a single spuriously wide peak
// is assumed to be an artifact). When no tier yields a usable width the
// guess falls back to a unit-sigma width with a data-quality warning.
// This stage always produces a guess; it cannot fail.
func initialGuess(centers, counts []float64, logWriter io.Writer) guess {
	// noise cut on low-information bins
	variation:=0.0
	if mean:=stat.Mean(counts, nil); mean!=0 {
		variation=popStdDev(counts)/mean
	}
	cutX:=make([]float64, 0, len(counts))
	cutY:=make([]float64, 0, len(counts))
	for i,c:=range(counts) {
		if c>=variation {
			cutX=append(cutX, centers[i])
			cutY=append(cutY, c)
		}
	}
	if len(cutY)==0 { // all bins cut; keep everything rather than guessing blind
		cutX, cutY=centers, counts
	}

	tiers:=[]struct{ minWidth, widthRelHeight float64 }{
		{5, 0.5},
		{2, 0.5},
		{1, 1.0},
	}
	var lastPeaks []int
	fwhm, found:=0.0, false
	for _,tier:=range(tiers) {
		peaks, fwhms:=findPeaks(cutY, tier.minWidth, tier.widthRelHeight)
		lastPeaks=peaks
		if f, ok:=extractFWHM(fwhms, cutY); ok {
			fwhm, found=f, true
			break
		}
	}
	if !found {
		fwhm=fwhmPerSigma // unit standard deviation
		if logWriter!=nil {
			fmt.Fprintf(logWriter, "warning: no detectable peak in the histogram, suggesting a very flat or sparse profile; Gaussian parameter estimates are likely unreliable\n")
		}
	}

	g:=guess{stdDev: fwhm/fwhmPerSigma}
	if len(lastPeaks)>0 {
		best:=lastPeaks[0]
		for _,p:=range(lastPeaks) {
			if cutY[p]>cutY[best] { best=p }
		}
		g.mean, g.amplitude=cutX[best], cutY[best]
	} else {
		best:=0
		for i,c:=range(cutY) {
			if c>cutY[best] { best=i }
		}
		g.mean, g.amplitude=cutX[best], cutY[best]
	}
	return g
}

// Picks the usable FWHM estimate from the candidates: normally the largest,
// but when the largest exceeds the standard deviation of the kept counts it
// is assumed spurious and the second largest is taken instead. Reports
// false when no usable candidate exists, escalating the caller to a looser
// peak-width tier.
func extractFWHM(fwhms []float64, cutY []float64) (fwhm float64, ok bool) {
	if len(fwhms)==0 { return 0, false }
	largest, second:=math.Inf(-1), math.Inf(-1)
	for _,f:=range(fwhms) {
		if f>largest {
			largest, second=f, largest
		} else if f>second {
			second=f
		}
	}
	if largest>popStdDev(cutY) {
		if len(fwhms)<2 { return 0, false }
		return second, true
	}
	return largest, true
}

func popStdDev(xs []float64) float64 {
	mean:=stat.Mean(xs, nil)
	sumSq:=0.0
	for _,x:=range(xs) {
		diff:=x-mean
		sumSq+=diff*diff
	}
	return math.Sqrt(sumSq/float64(len(xs)))
}

// Fits the Gaussian to the (center,count) pairs by minimizing the RMS
// residual with Nelder-Mead, starting from the given guesses. When the
// optimizer reports failure the parameters it last produced are returned
// together with the error; nothing is silently substituted.
func fitGaussianXY(xs, ys []float64, g guess) (*FitResult, error) {
	problem:=optimize.Problem{
		Func: func(p []float64) float64 {
			amplitude, mean, stdDev:=p[0], p[1], math.Abs(p[2])
			if stdDev==0 { stdDev=1e-12 }
			sumSqDiff:=0.0
			for i,x:=range(xs) {
				z:=(x-mean)/stdDev
				diff:=ys[i]-amplitude*math.Exp(-0.5*z*z)
				sumSqDiff+=diff*diff
			}
			return math.Sqrt(sumSqDiff/float64(len(xs)))
		},
	}
	x0:=[]float64{g.amplitude, g.mean, g.stdDev}
	solution, err:=optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})

	p:=x0
	if solution!=nil { p=solution.X }
	amplitude, mean, stdDev:=p[0], p[1], math.Abs(p[2])
	eval:=func(x float64) float64 {
		if stdDev==0 { return 0 }
		z:=(x-mean)/stdDev
		return amplitude*math.Exp(-0.5*z*z)
	}

	// evaluated maximum over an oversampled range one unit beyond the data
	lo, hi:=xs[0]-1, xs[len(xs)-1]+1
	samples:=len(xs)*100
	max:=math.Inf(-1)
	for i:=0; i<samples; i++ {
		y:=eval(lo+(hi-lo)*float64(i)/float64(samples-1))
		if y>max { max=y }
	}

	return &FitResult{
		Mean:      mean,
		StdDev:    stdDev,
		Amplitude: amplitude,
		Max:       max,
		Eval:      eval,
	}, err
}
