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
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mlnoga/pixelqc/internal/filter"
	"github.com/mlnoga/pixelqc/internal/fits"
)

func testImage() *fits.Image {
	return &fits.Image{
		FileName: "synthetic",
		Naxisn:   []int32{2,2},
		Pixels:   4,
		Data:     []float32{10,20,30,40},
	}
}

func TestOperatorRegistryHoldsAllTypes(t *testing.T) {
	expect:=[]string{
		"filterMinimum", "filterMaximum", "filterExact", "filterInvalid",
		"filterSigma", "filterGaussianSigma",
		"filterPixelTruncation", "filterPercentTruncation",
		"maskRectangle", "maskSubarray", "maskSinglePixels",
		"maskColumns", "maskRows", "maskNothing", "maskEverything",
	}
	for _,typ:=range(expect) {
		if GetOperatorFactory(typ)==nil { t.Errorf("no factory registered for %q", typ) }
	}
	if got:=len(OperatorTypes()); got!=len(expect) {
		t.Errorf("registry holds %d types, expect %d: %v", got, len(expect), OperatorTypes())
	}
}

func TestOperatorListJSONRoundTrip(t *testing.T) {
	in:=OperatorList{
		NewOpFilterMinimum(5),
		NewOpFilterSigma(filter.Asymmetric(2, 3)),
		NewOpMaskColumns([]int32{0, 7}),
		NewOpFilterPercentTrunc(0.1, 0.05),
	}
	data, err:=json.Marshal(in)
	if err!=nil { t.Fatalf("marshal: %s", err.Error()) }

	var out OperatorList
	if err:=json.Unmarshal(data, &out); err!=nil { t.Fatalf("unmarshal: %s", err.Error()) }
	if diff:=cmp.Diff(in, out); diff!="" { t.Errorf("round trip mismatch (-in +out):\n%s", diff) }
}

func TestOperatorListUnknownTypeErrors(t *testing.T) {
	var out OperatorList
	err:=json.Unmarshal([]byte(`[{"type":"filterBogus","active":true}]`), &out)
	if err==nil { t.Errorf("expect error for unknown operator type, got none") }
}

func TestOperatorListRunSynthesizesMasks(t *testing.T) {
	l:=OperatorList{
		NewOpFilterMinimum(15),   // rejects the 10
		NewOpMaskColumns([]int32{1}), // rejects 20 and 40
	}
	final, coll, err:=l.Run(testImage(), NewContext(io.Discard))
	if err!=nil { t.Fatalf("run: %s", err.Error()) }

	if coll.Len()!=2 { t.Errorf("collection holds %d masks, expect 2", coll.Len()) }
	if diff:=cmp.Diff([]string{"filterMinimum","maskColumns"}, coll.Names()); diff!="" {
		t.Errorf("provenance mismatch:\n%s", diff)
	}
	if diff:=cmp.Diff([]bool{true,true,false,true}, final.Data); diff!="" {
		t.Errorf("final mask mismatch:\n%s", diff)
	}
}

func TestOperatorListRunSkipsInactive(t *testing.T) {
	inactive:=NewOpFilterMinimum(15)
	inactive.Active=false
	l:=OperatorList{inactive, NewOpFilterMaximum(35)}

	final, coll, err:=l.Run(testImage(), NewContext(io.Discard))
	if err!=nil { t.Fatalf("run: %s", err.Error()) }
	if coll.Len()!=1 { t.Errorf("collection holds %d masks, expect 1", coll.Len()) }
	if diff:=cmp.Diff([]bool{false,false,false,true}, final.Data); diff!="" {
		t.Errorf("final mask mismatch:\n%s", diff)
	}
}

func TestOperatorListRunWithoutActiveOperatorsErrors(t *testing.T) {
	inactive:=NewOpFilterMinimum(15)
	inactive.Active=false
	if _, _, err:=(OperatorList{inactive}).Run(testImage(), NewContext(io.Discard)); err==nil {
		t.Errorf("expect error when no operator produces a mask, got none")
	}
}

func TestGeometricOperators(t *testing.T) {
	l:=OperatorList{NewOpMaskRectangle([2]int32{0,0}, [2]int32{0,1})}
	final, _, err:=l.Run(testImage(), NewContext(io.Discard))
	if err!=nil { t.Fatalf("run: %s", err.Error()) }
	if diff:=cmp.Diff([]bool{true,false,true,false}, final.Data); diff!="" {
		t.Errorf("rectangle mask mismatch:\n%s", diff)
	}

	l=OperatorList{NewOpMaskEverything()}
	final, _, err=l.Run(testImage(), NewContext(io.Discard))
	if err!=nil { t.Fatalf("run: %s", err.Error()) }
	if n:=final.CountRejected(); n!=4 { t.Errorf("everything rejected %d pixels, expect 4", n) }
}

func TestZeroRejectionLogsNote(t *testing.T) {
	log:=&bytes.Buffer{}
	c:=NewContext(log)

	l:=OperatorList{NewOpFilterMinimum(-1e30)}  // rejects nothing on any real data
	if _, _, err:=l.Run(testImage(), c); err!=nil { t.Fatalf("run: %s", err.Error()) }
	if !strings.Contains(log.String(), "rejected 0 of 4") {
		t.Errorf("expect zero-rejection yield line, log holds:\n%s", log.String())
	}
	if !strings.Contains(log.String(), "note:") {
		t.Errorf("expect data-quality note for a filter rejecting nothing, log holds:\n%s", log.String())
	}

	log.Reset()
	l=OperatorList{NewOpMaskNothing()}
	if _, _, err:=l.Run(testImage(), c); err!=nil { t.Fatalf("run: %s", err.Error()) }
	if strings.Contains(log.String(), "note:") {
		t.Errorf("maskNothing is empty by construction, expect no note, log holds:\n%s", log.String())
	}
}

func TestRepeatedOperatorTypesGetOrdinalNames(t *testing.T) {
	l:=OperatorList{NewOpFilterMinimum(15), NewOpFilterMinimum(25)}
	final, coll, err:=l.Run(testImage(), NewContext(io.Discard))
	if err!=nil { t.Fatalf("run: %s", err.Error()) }

	if diff:=cmp.Diff([]string{"filterMinimum","filterMinimum2"}, coll.Names()); diff!="" {
		t.Errorf("provenance mismatch:\n%s", diff)
	}
	if diff:=cmp.Diff([]bool{true,true,false,false}, final.Data); diff!="" {
		t.Errorf("final mask mismatch:\n%s", diff)
	}
}

func TestCheckMemory(t *testing.T) {
	c:=&Context{Log: io.Discard, MemoryMB: 1}
	huge:=&fits.Image{FileName: "huge", Naxisn: []int32{32768,32768}, Pixels: 32768*32768}
	if err:=c.checkMemory(huge); err==nil {
		t.Errorf("expect error when the working set exceeds physical memory, got none")
	}
	if err:=c.checkMemory(testImage()); err!=nil {
		t.Errorf("small image rejected: %s", err.Error())
	}
}

func TestParseJobFile(t *testing.T) {
	jf, err:=ParseJobFile([]byte(`{
		"mask": {
			"fileName": "in.fits",
			"maskFileName": "out.mask.fits",
			"operators": [
				{"type":"filterMinimum","active":true,"minimum":3},
				{"type":"maskRows","active":true,"rows":[0,2]}
			]
		},
		"histogram": {"fileName":"in.fits","binWidth":0.5}
	}`))
	if err!=nil { t.Fatalf("parse: %s", err.Error()) }

	if jf.Mask==nil || jf.Histogram==nil { t.Fatalf("expect both jobs parsed") }
	if len(jf.Mask.Operators)!=2 { t.Fatalf("parsed %d operators, expect 2", len(jf.Mask.Operators)) }
	min, ok:=jf.Mask.Operators[0].(*OpFilterMinimum)
	if !ok || min.Minimum!=3 { t.Errorf("first operator got %+v, expect minimum filter at 3", jf.Mask.Operators[0]) }
	rows, ok:=jf.Mask.Operators[1].(*OpMaskRows)
	if !ok || len(rows.Rows)!=2 { t.Errorf("second operator got %+v, expect row mask with 2 rows", jf.Mask.Operators[1]) }
	if jf.Histogram.BinWidth!=0.5 { t.Errorf("bin width got %f expect 0.5", jf.Histogram.BinWidth) }
}

func TestParseJobFileWithoutJobsErrors(t *testing.T) {
	if _, err:=ParseJobFile([]byte(`{}`)); err==nil {
		t.Errorf("expect error for empty job file, got none")
	}
}
