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

	"github.com/mlnoga/pixelqc/internal/fits"
	"github.com/mlnoga/pixelqc/internal/hist"
	"github.com/mlnoga/pixelqc/internal/mask"
)

// A mask job: one data file, an operator list and a destination for the
// synthesized bad-pixel mask. When MaskFileName is empty a random name is
// chosen and logged.
type MaskJob struct {
	FileName     string       `json:"fileName"`
	MaskFileName string       `json:"maskFileName"`
	Operators    OperatorList `json:"operators"`
}

func (j *MaskJob) Run(c *Context) (final *mask.Mask, err error) {
	f, err:=fits.Load(j.FileName)
	if err!=nil { return nil, err }
	fmt.Fprintf(c.Log, "Loaded %dx%d pixels from %s\n", f.Naxisn[0], f.Naxisn[1], f.FileName)
	if err:=c.checkMemory(f); err!=nil { return nil, err }

	final, coll, err:=j.Operators.Run(f, c)
	if err!=nil { return nil, err }
	fmt.Fprintf(c.Log, "Synthesized %d masks: %d of %d pixels rejected\n",
		coll.Len(), final.CountRejected(), final.Pixels())

	maskFileName:=j.MaskFileName
	if maskFileName=="" {
		maskFileName=fits.RandomMaskName()
		fmt.Fprintf(c.Log, "warning: no mask file name given, using random name %s\n", maskFileName)
	}
	params:=map[string]interface{}{}
	for i,name:=range(coll.Names()) {
		params[fmt.Sprintf("RULE%d", i)]=name
	}
	if err:=fits.WriteMask(maskFileName, "synthesized", j.FileName, final, params); err!=nil {
		return nil, err
	}
	fmt.Fprintf(c.Log, "Mask written to %s\n", maskFileName)
	return final, nil
}

// A histogram job: one data file, an optional previously written mask file
// to exclude pixels, and the histogram bin width for the Gaussian fit
type HistogramJob struct {
	FileName     string  `json:"fileName"`
	MaskFileName string  `json:"maskFileName"`
	BinWidth     float64 `json:"binWidth"`
}

func (j *HistogramJob) Run(c *Context) (result *hist.FitResult, h *hist.Histogram, err error) {
	f, err:=fits.Load(j.FileName)
	if err!=nil { return nil, nil, err }
	fmt.Fprintf(c.Log, "Loaded %dx%d pixels from %s\n", f.Naxisn[0], f.Naxisn[1], f.FileName)
	if err:=c.checkMemory(f); err!=nil { return nil, nil, err }

	var m *mask.Mask
	if j.MaskFileName!="" {
		m, err=fits.LoadMask(j.MaskFileName)
		if err!=nil { return nil, nil, err }
		if int32(len(m.Data))!=f.Pixels {
			return nil, nil, &mask.ShapeError{Index: 0, Want: f.Naxisn, Got: m.Naxisn}
		}
	}

	result, h, err=hist.FitGaussian(f.Data, m, j.BinWidth, c.Log)
	if result!=nil {
		if err!=nil {
			fmt.Fprintf(c.Log, "warning: fit did not converge cleanly: %s\n", err.Error())
			err=nil
		}
		fmt.Fprintf(c.Log, "Gaussian fit: %v over %d bins\n", result, len(h.Counts))
	}
	return result, h, err
}

// Parses a JSON job file holding either {"mask":{...}} or
// {"histogram":{...}} or both
type JobFile struct {
	Mask      *MaskJob      `json:"mask"`
	Histogram *HistogramJob `json:"histogram"`
}

func ParseJobFile(data []byte) (*JobFile, error) {
	var jf JobFile
	if err:=json.Unmarshal(data, &jf); err!=nil { return nil, err }
	if jf.Mask==nil && jf.Histogram==nil {
		return nil, fmt.Errorf("job file holds neither a mask nor a histogram job")
	}
	return &jf, nil
}
