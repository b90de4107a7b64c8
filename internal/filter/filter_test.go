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
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mlnoga/pixelqc/internal/mask"
)

var naxisn2x2=[]int32{2,2}

func rejected(m *mask.Mask) []bool { return m.Data }

func TestMinimumValue(t *testing.T) {
	m:=MinimumValue([]float32{10,20,30,40}, naxisn2x2, 25)
	if diff:=cmp.Diff([]bool{true,true,false,false}, rejected(m)); diff!="" {
		t.Errorf("minimum filter mismatch:\n%s", diff)
	}
	// boundary value is not below the minimum
	m=MinimumValue([]float32{10,20,30,40}, naxisn2x2, 20)
	if diff:=cmp.Diff([]bool{true,false,false,false}, rejected(m)); diff!="" {
		t.Errorf("minimum boundary mismatch:\n%s", diff)
	}
}

func TestMaximumValue(t *testing.T) {
	m:=MaximumValue([]float32{10,20,30,40}, naxisn2x2, 25)
	if diff:=cmp.Diff([]bool{false,false,true,true}, rejected(m)); diff!="" {
		t.Errorf("maximum filter mismatch:\n%s", diff)
	}
	m=MaximumValue([]float32{10,20,30,40}, naxisn2x2, 30)
	if diff:=cmp.Diff([]bool{false,false,false,true}, rejected(m)); diff!="" {
		t.Errorf("maximum boundary mismatch:\n%s", diff)
	}
}

func TestExactValue(t *testing.T) {
	m, err:=ExactValue([]float32{1, 1.5, 2, float32(math.NaN())}, naxisn2x2, 1.5, 0)
	if err!=nil { t.Fatalf("exact value: %s", err.Error()) }
	if diff:=cmp.Diff([]bool{false,true,false,false}, rejected(m)); diff!="" {
		t.Errorf("exact filter mismatch:\n%s", diff)
	}

	// a wide tolerance pulls in neighbors, NaN is never close
	m, err=ExactValue([]float32{1, 1.5, 2, float32(math.NaN())}, naxisn2x2, 1.5, 0.6)
	if err!=nil { t.Fatalf("exact value: %s", err.Error()) }
	if diff:=cmp.Diff([]bool{true,true,true,false}, rejected(m)); diff!="" {
		t.Errorf("wide tolerance mismatch:\n%s", diff)
	}
}

func TestExactValueNegativeToleranceErrors(t *testing.T) {
	if _, err:=ExactValue([]float32{1}, []int32{1,1}, 1, -0.1); err==nil {
		t.Errorf("expect error for negative tolerance, got none")
	}
}

func TestInvalidValue(t *testing.T) {
	nan:=float32(math.NaN())
	posInf:=float32(math.Inf(1))
	negInf:=float32(math.Inf(-1))
	m:=InvalidValue([]float32{1, nan, posInf, negInf}, naxisn2x2)
	if diff:=cmp.Diff([]bool{false,true,true,true}, rejected(m)); diff!="" {
		t.Errorf("invalid filter mismatch:\n%s", diff)
	}
}

func TestSigmaValueSymmetric(t *testing.T) {
	// robust mean 10, robust stddev sqrt(8.2); one sigma keeps the 8s and 12s
	data:=[]float32{5,8,8,8,8,12,12,12,12,15}
	m, err:=SigmaValue(data, []int32{10,1}, Symmetric(1))
	if err!=nil { t.Fatalf("sigma value: %s", err.Error()) }
	expect:=[]bool{true,false,false,false,false,false,false,false,false,true}
	if diff:=cmp.Diff(expect, rejected(m)); diff!="" {
		t.Errorf("sigma filter mismatch:\n%s", diff)
	}
}

func TestSigmaValueAsymmetric(t *testing.T) {
	// a loose lower bound keeps the low outlier, a tight upper bound cuts high
	data:=[]float32{5,8,8,8,8,12,12,12,12,15}
	m, err:=SigmaValue(data, []int32{10,1}, Asymmetric(10, 1))
	if err!=nil { t.Fatalf("sigma value: %s", err.Error()) }
	expect:=[]bool{false,false,false,false,false,false,false,false,false,true}
	if diff:=cmp.Diff(expect, rejected(m)); diff!="" {
		t.Errorf("asymmetric sigma mismatch:\n%s", diff)
	}
}

func TestSigmaValueNegativeMultipleErrors(t *testing.T) {
	if _, err:=SigmaValue([]float32{1,2,3,4}, naxisn2x2, Asymmetric(-1, 1)); err==nil {
		t.Errorf("expect error for negative sigma multiple, got none")
	}
}

func TestPixelTruncation(t *testing.T) {
	data:=make([]float32, 100)
	for i:=range(data) { data[i]=float32(i) }

	m, err:=PixelTruncation(data, []int32{10,10}, 10, 5)
	if err!=nil { t.Fatalf("pixel truncation: %s", err.Error()) }
	for i,d:=range(data) {
		expect:=d<5 || d>89
		if m.Data[i]!=expect { t.Errorf("pixel %d value %f got %v expect %v", i, d, m.Data[i], expect) }
	}
	if n:=m.CountRejected(); n!=15 { t.Errorf("rejected %d pixels, expect 15", n) }
}

func TestPixelTruncationZeroCountsRejectNothing(t *testing.T) {
	m, err:=PixelTruncation([]float32{3,1,4,1}, naxisn2x2, 0, 0)
	if err!=nil { t.Fatalf("pixel truncation: %s", err.Error()) }
	if n:=m.CountRejected(); n!=0 { t.Errorf("rejected %d pixels, expect 0", n) }
}

func TestPixelTruncationErrors(t *testing.T) {
	data:=[]float32{1,2,3,4}
	if _, err:=PixelTruncation(data, naxisn2x2, -1, 0); err==nil {
		t.Errorf("expect error for negative count, got none")
	}
	if _, err:=PixelTruncation(data, naxisn2x2, 2, 2); err==nil {
		t.Errorf("expect error when truncation leaves nothing, got none")
	}
}

func TestPercentTruncationMatchesPixelCounts(t *testing.T) {
	data:=make([]float32, 100)
	for i:=range(data) { data[i]=float32(i) }

	// 10% of 100 pixels is exactly 10 pixels top, 5% is 5 pixels bottom
	byPercent, err:=PercentTruncation(data, []int32{10,10}, 0.1, 0.05, nil)
	if err!=nil { t.Fatalf("percent truncation: %s", err.Error()) }
	byCount, err:=PixelTruncation(data, []int32{10,10}, 10, 5)
	if err!=nil { t.Fatalf("pixel truncation: %s", err.Error()) }
	if diff:=cmp.Diff(byCount, byPercent); diff!="" {
		t.Errorf("percent and count truncation disagree:\n%s", diff)
	}
}

func TestPercentTruncationRoundsLikeTheCountFormula(t *testing.T) {
	// 7 pixels at 35%: top count is 7-floor(7*0.65)=3
	data:=[]float32{0,1,2,3,4,5,6}
	m, err:=PercentTruncation(data, []int32{7,1}, 0.35, 0, nil)
	if err!=nil { t.Fatalf("percent truncation: %s", err.Error()) }
	if n:=m.CountRejected(); n!=3 { t.Errorf("rejected %d pixels, expect 3", n) }
	if !m.Data[4] || !m.Data[5] || !m.Data[6] { t.Errorf("expect the three highest pixels rejected") }
}

func TestPercentTruncationRangeErrors(t *testing.T) {
	data:=[]float32{1,2,3,4}
	if _, err:=PercentTruncation(data, naxisn2x2, 1.0, 0, nil); err==nil {
		t.Errorf("expect error for percentage 1.0, got none")
	}
	if _, err:=PercentTruncation(data, naxisn2x2, 0, -0.1, nil); err==nil {
		t.Errorf("expect error for negative percentage, got none")
	}
}
