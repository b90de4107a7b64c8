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
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mlnoga/pixelqc/internal/mask"
)

func TestNewHistogramBinsAndEdges(t *testing.T) {
	h, err:=NewHistogram([]float32{0,1,2,3}, nil, 1)
	if err!=nil { t.Fatalf("histogram: %s", err.Error()) }

	if diff:=cmp.Diff([]float64{0,1,2,3}, h.Edges); diff!="" { t.Errorf("edges mismatch:\n%s", diff) }
	if diff:=cmp.Diff([]float64{0.5,1.5,2.5}, h.Centers); diff!="" { t.Errorf("centers mismatch:\n%s", diff) }
	// the last bin is closed on both ends and absorbs the maximum
	if diff:=cmp.Diff([]float64{1,1,2}, h.Counts); diff!="" { t.Errorf("counts mismatch:\n%s", diff) }
}

func TestNewHistogramSkipsMaskedAndInvalid(t *testing.T) {
	nan:=float32(math.NaN())
	data:=[]float32{0,1,2,3, nan, float32(math.Inf(1))}
	m:=mask.New([]int32{6,1})
	m.Data[3]=true

	h, err:=NewHistogram(data, m, 1)
	if err!=nil { t.Fatalf("histogram: %s", err.Error()) }
	sum:=0.0
	for _,c:=range(h.Counts) { sum+=c }
	if sum!=3 { t.Errorf("histogrammed %g pixels, expect 3 after mask and invalid skips", sum) }
}

func TestNewHistogramErrors(t *testing.T) {
	if _, err:=NewHistogram([]float32{1,2,3}, nil, 0); err==nil {
		t.Errorf("expect error for zero bin width, got none")
	}
	if _, err:=NewHistogram([]float32{5,5,5}, nil, 1); err==nil {
		t.Errorf("expect error for flat data, got none")
	}
	if _, err:=NewHistogram([]float32{float32(math.NaN())}, nil, 1); err==nil {
		t.Errorf("expect error when no valid pixels remain, got none")
	}
	m:=mask.New([]int32{2,1})
	if _, err:=NewHistogram([]float32{1,2,3}, m, 1); err==nil {
		t.Errorf("expect shape error for short mask, got none")
	}
}

func TestLocalMaximaHandlesPlateaus(t *testing.T) {
	if diff:=cmp.Diff([]int(nil), localMaxima([]float64{1,2,3,4})); diff!="" {
		t.Errorf("monotone series has maxima:\n%s", diff)
	}
	if diff:=cmp.Diff([]int{2}, localMaxima([]float64{0,1,5,1,0})); diff!="" {
		t.Errorf("single peak mismatch:\n%s", diff)
	}
	// plateau of equal values counts once at its midpoint
	if diff:=cmp.Diff([]int{2}, localMaxima([]float64{0,5,5,5,0})); diff!="" {
		t.Errorf("plateau peak mismatch:\n%s", diff)
	}
}

func TestFindPeaksWidthTiers(t *testing.T) {
	y:=[]float64{0,1,3,7,10,7,3,1,0}

	// FWHM of this peak is 3 bins, so the strict 5-bin tier finds nothing
	peaks, _:=findPeaks(y, 5, 0.5)
	if len(peaks)!=0 { t.Errorf("strict tier found %d peaks, expect 0", len(peaks)) }

	peaks, fwhms:=findPeaks(y, 2, 0.5)
	if len(peaks)!=1 || peaks[0]!=4 { t.Fatalf("loose tier peaks got %v expect [4]", peaks) }
	if math.Abs(fwhms[0]-3)>1e-9 { t.Errorf("fwhm got %f expect 3", fwhms[0]) }
}

func TestFitGaussianRecoversParameters(t *testing.T) {
	// pixel data whose histogram is a gaussian with mean 50, sigma 5 and
	// amplitude 100, plus deterministic low-amplitude uniform noise. Bin
	// centers sit 0.5 above the integer sample values.
	mean, sigma, amplitude:=50.0, 5.0, 100.0
	data:=[]float32{}
	for v:=30; v<=70; v++ {
		z:=(float64(v)-mean)/sigma
		count:=int(math.Round(amplitude*math.Exp(-0.5*z*z)))+(v*7)%3
		for i:=0; i<count; i++ {
			data=append(data, float32(v))
		}
	}

	result, h, err:=FitGaussian(data, nil, 1, nil)
	if err!=nil { t.Fatalf("fit: %s", err.Error()) }
	if h==nil { t.Fatalf("fit returned no histogram") }

	if math.Abs(result.Mean-(mean+0.5))>1.0 {
		t.Errorf("fitted mean got %f expect near %f", result.Mean, mean+0.5)
	}
	if math.Abs(result.StdDev-sigma)>0.5 {
		t.Errorf("fitted stdDev got %f expect near %f", result.StdDev, sigma)
	}
	if math.Abs(result.Amplitude-amplitude)>10 {
		t.Errorf("fitted amplitude got %f expect near %f", result.Amplitude, amplitude)
	}
	// the fitted mean lies inside the evaluated range, so the evaluated
	// maximum must track the amplitude closely
	if math.Abs(result.Max-result.Amplitude)>0.01*result.Amplitude {
		t.Errorf("evaluated max %f deviates from amplitude %f", result.Max, result.Amplitude)
	}
	if result.Eval==nil {
		t.Fatalf("fit returned no eval function")
	}
	if peak:=result.Eval(result.Mean); math.Abs(peak-result.Amplitude)>1e-9 {
		t.Errorf("eval at mean got %f expect amplitude %f", peak, result.Amplitude)
	}
}

func TestEstimateMeanStdDevIsNonNegative(t *testing.T) {
	data:=[]float32{}
	for v:=0; v<=20; v++ {
		z:=(float64(v)-10.0)/2.0
		count:=int(math.Round(50*math.Exp(-0.5*z*z)))
		for i:=0; i<count; i++ {
			data=append(data, float32(v))
		}
	}
	mean, stdDev, err:=EstimateMeanStdDev(data, nil, 1, nil)
	if err!=nil { t.Fatalf("estimate: %s", err.Error()) }
	if stdDev<0 { t.Errorf("stdDev got %f, expect non-negative", stdDev) }
	if math.Abs(mean-10.5)>1.0 { t.Errorf("mean got %f expect near 10.5", mean) }
	if math.Abs(stdDev-2.0)>0.5 { t.Errorf("stdDev got %f expect near 2", stdDev) }
}

func TestExtractFWHMPrefersSecondOnSpuriousWidth(t *testing.T) {
	cutY:=[]float64{1,2,3,4,5} // population stddev sqrt(2)
	if _, ok:=extractFWHM([]float64{}, cutY); ok {
		t.Errorf("expect no fwhm from empty candidates")
	}
	// single candidate wider than the count spread is spurious, escalate
	if _, ok:=extractFWHM([]float64{10}, cutY); ok {
		t.Errorf("expect escalation for single spuriously wide candidate")
	}
	// otherwise the largest candidate wins
	if f, ok:=extractFWHM([]float64{0.5, 1.2}, cutY); !ok || f!=1.2 {
		t.Errorf("fwhm got %f/%v expect 1.2/true", f, ok)
	}
	// with a spurious largest, the second largest wins
	if f, ok:=extractFWHM([]float64{10, 1.2}, cutY); !ok || f!=1.2 {
		t.Errorf("fwhm got %f/%v expect second largest 1.2/true", f, ok)
	}
}

func TestInitialGuessFallsBackOnFlatProfile(t *testing.T) {
	// a monotone profile has no peaks at any tier; the guess falls back to
	// unit sigma at the highest count
	centers:=[]float64{0.5,1.5,2.5,3.5}
	counts :=[]float64{1,2,3,4}
	g:=initialGuess(centers, counts, nil)
	if g.stdDev!=1 { t.Errorf("fallback stdDev got %f expect 1", g.stdDev) }
	if g.mean!=3.5 || g.amplitude!=4 {
		t.Errorf("fallback location got mean %f amplitude %f expect 3.5 and 4", g.mean, g.amplitude)
	}
}
