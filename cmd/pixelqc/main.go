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

package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mlnoga/pixelqc/internal/filter"
	"github.com/mlnoga/pixelqc/internal/fits"
	"github.com/mlnoga/pixelqc/internal/logf"
	"github.com/mlnoga/pixelqc/internal/ops"
	"github.com/mlnoga/pixelqc/internal/preview"
	"github.com/mlnoga/pixelqc/internal/rest"
)

const version = "0.1.0"

var out     = flag.String("out", "out.mask.fits", "save pixel mask to `file`")
var log     = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log")
var png     = flag.String("png", "", "save heatmap preview of the input with rejected pixels tinted as PNG to `file`")
var maskPng = flag.String("maskPng", "", "save black and white mask preview as PNG to `file`")
var histPng = flag.String("histPng", "", "save histogram and fitted curve as PNG to `file`")

var minVal  = flag.Float64("min", math.NaN(), "reject pixels below `value`, NaN=off")
var maxVal  = flag.Float64("max", math.NaN(), "reject pixels above `value`, NaN=off")
var exact   = flag.Float64("exact", math.NaN(), "reject pixels equal to `value` within tolerance, NaN=off")
var exactTol= flag.Float64("exactTol", 0, "absolute tolerance for -exact, 0=default")
var invalid = flag.Bool("invalid", false, "reject NaN and infinite pixels")

var sigma   = flag.Float64("sigma", 0, "reject pixels further than `n` robust standard deviations from the robust mean, 0=off")
var sigLow  = flag.Float64("sigLow", 0, "low sigma multiple for asymmetric rejection, 0=use -sigma")
var sigHigh = flag.Float64("sigHigh", 0, "high sigma multiple for asymmetric rejection, 0=use -sigma")
var gaussSig= flag.Float64("gaussSigma", 0, "reject pixels further than `n` fitted gaussian sigmas from the fitted mean, 0=off")
var binWidth= flag.Float64("binWidth", 1, "histogram bin width for -gaussSigma and the histogram command")

var truncTop   = flag.Int("truncTop", -1, "reject the `k` highest pixels, -1=off")
var truncBottom= flag.Int("truncBottom", -1, "reject the `k` lowest pixels, -1=off")
var truncTopPct   = flag.Float64("truncTopPct", -1, "reject the top `fraction` of pixels in [0,1), -1=off")
var truncBottomPct= flag.Float64("truncBottomPct", -1, "reject the bottom `fraction` of pixels in [0,1), -1=off")

var rect    = flag.String("rect", "", "reject rectangle `c0,c1,r0,r1`, bounds inclusive")
var subarray= flag.String("subarray", "", "keep only rectangle `c0,c1,r0,r1`, rejecting everything outside")
var cols    = flag.String("cols", "", "reject listed columns, e.g. `0,3,17`")
var rows    = flag.String("rows", "", "reject listed rows, e.g. `0,3,17`")
var pixels  = flag.String("pixels", "", "reject listed pixels as col:row pairs, e.g. `3:7,12:0`")

var chroot  = flag.String("chroot", "", "serve: change filesystem root to `dir` before serving (requires root)")
var setuid  = flag.Int("setuid", -1, "serve: switch to this numerical user id before serving, -1=off")

func main() {
	logWriter:=logf.Writer()
	start:=time.Now()
	flag.Usage=func(){
		fmt.Fprintf(os.Stderr, `Pixelqc Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (mask|histogram|job|serve|legal|version) (img.fits ...)

Commands:
  mask      Build a pixel mask for the input image from the filter and mask flags
  histogram Fit a gaussian to the pixel value histogram of the input image,
            optionally restricted by a mask image given as second argument
  job       Run mask and histogram jobs from a JSON job file
  serve     Start the REST server
  legal     Show license and attribution information
  version   Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Initialize logging to file in addition to stdout, if selected
	if *log=="%auto" {
		if *out!="" {
			*log=strings.TrimSuffix(*out, filepath.Ext(*out))+".log"
		} else {
			*log=""
		}
	}
	if *log!="" {
		err:=logf.AlsoToFile(*log)
		if err!=nil { logf.Fatalf("Unable to open logfile '%s'\n", *log) }
	}

	args:=flag.Args()
	if len(args)<1 {
		flag.Usage()
		return
	}

	var err error
	switch args[0] {
	case "mask":
		err=cmdMask(args[1:], logWriter)

	case "histogram":
		err=cmdHistogram(args[1:], logWriter)

	case "job":
		err=cmdJob(args[1:], logWriter)

	case "serve":
		if err:=rest.MakeSandbox(*chroot, *setuid); err!=nil {
			logf.Fatalf("Unable to sandbox: %s\n", err.Error())
		}
		rest.Serve()

	case "legal":
		cmdLegal()

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)

	case "help", "?":
		flag.Usage()
		return

	default:
		fmt.Fprintf(os.Stderr, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	elapsed:=time.Now().Sub(start)
	fmt.Fprintf(logWriter, "\nDone after %v\n", elapsed)

	if err!=nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
		logf.Sync()
		os.Exit(-1)
	}
	logf.Sync()
}

// Build the operator list from the filter and mask flags
func operatorsFromFlags() (ops.OperatorList, error) {
	l:=ops.OperatorList{}
	if *invalid                { l=append(l, ops.NewOpFilterInvalid()) }
	if !math.IsNaN(*minVal)    { l=append(l, ops.NewOpFilterMinimum(float32(*minVal))) }
	if !math.IsNaN(*maxVal)    { l=append(l, ops.NewOpFilterMaximum(float32(*maxVal))) }
	if !math.IsNaN(*exact)     { l=append(l, ops.NewOpFilterExact(float32(*exact), *exactTol)) }

	if *sigLow>0 || *sigHigh>0 {
		lo, hi:=*sigLow, *sigHigh
		if lo<=0 { lo=*sigma }
		if hi<=0 { hi=*sigma }
		if lo<=0 || hi<=0 { return nil, fmt.Errorf("asymmetric sigma rejection needs both -sigLow %g and -sigHigh %g, or a -sigma fallback", *sigLow, *sigHigh) }
		l=append(l, ops.NewOpFilterSigma(filter.Asymmetric(float32(lo), float32(hi))))
	} else if *sigma>0 {
		l=append(l, ops.NewOpFilterSigma(filter.Symmetric(float32(*sigma))))
	}
	if *gaussSig>0 {
		l=append(l, ops.NewOpFilterGaussianSigma(filter.Symmetric(float32(*gaussSig)), *binWidth))
	}

	if *truncTop>=0 || *truncBottom>=0 {
		top, bottom:=*truncTop, *truncBottom
		if top<0    { top=0 }
		if bottom<0 { bottom=0 }
		l=append(l, ops.NewOpFilterPixelTrunc(top, bottom))
	}
	if *truncTopPct>=0 || *truncBottomPct>=0 {
		top, bottom:=*truncTopPct, *truncBottomPct
		if top<0    { top=0 }
		if bottom<0 { bottom=0 }
		l=append(l, ops.NewOpFilterPercentTrunc(top, bottom))
	}

	if *rect!="" {
		c, r, err:=parseRect(*rect)
		if err!=nil { return nil, fmt.Errorf("-rect: %s", err.Error()) }
		l=append(l, ops.NewOpMaskRectangle(c, r))
	}
	if *subarray!="" {
		c, r, err:=parseRect(*subarray)
		if err!=nil { return nil, fmt.Errorf("-subarray: %s", err.Error()) }
		l=append(l, ops.NewOpMaskSubarray(c, r))
	}
	if *cols!="" {
		cs, err:=parseInt32List(*cols)
		if err!=nil { return nil, fmt.Errorf("-cols: %s", err.Error()) }
		l=append(l, ops.NewOpMaskColumns(cs))
	}
	if *rows!="" {
		rs, err:=parseInt32List(*rows)
		if err!=nil { return nil, fmt.Errorf("-rows: %s", err.Error()) }
		l=append(l, ops.NewOpMaskRows(rs))
	}
	if *pixels!="" {
		cs, rs, err:=parsePixelList(*pixels)
		if err!=nil { return nil, fmt.Errorf("-pixels: %s", err.Error()) }
		l=append(l, ops.NewOpMaskSinglePixels(cs, rs))
	}
	return l, nil
}

// Build and save a pixel mask for a single input image
func cmdMask(args []string, logWriter io.Writer) error {
	if len(args)!=1 {
		return fmt.Errorf("mask needs exactly one input image, got %d", len(args))
	}
	operators, err:=operatorsFromFlags()
	if err!=nil { return err }
	if len(operators)==0 {
		return fmt.Errorf("no filter or mask flags given, mask would reject nothing")
	}

	job:=ops.MaskJob{FileName: args[0], MaskFileName: *out, Operators: operators}
	final, err:=job.Run(ops.NewContext(logWriter))
	if err!=nil { return err }

	if *png!="" {
		f, err:=fits.Load(args[0])
		if err!=nil { return err }
		fmt.Fprintf(logWriter, "Writing heatmap preview to %s\n", *png)
		if err:=preview.WriteHeatmapPNG(*png, f, final); err!=nil { return err }
	}
	if *maskPng!="" {
		fmt.Fprintf(logWriter, "Writing mask preview to %s\n", *maskPng)
		if err:=preview.WriteMaskPNG(*maskPng, final); err!=nil { return err }
	}
	return nil
}

// Fit a gaussian to the pixel value histogram of a single input image,
// optionally restricted by a mask image given as second argument
func cmdHistogram(args []string, logWriter io.Writer) error {
	if len(args)<1 || len(args)>2 {
		return fmt.Errorf("histogram needs an input image and an optional mask image, got %d arguments", len(args))
	}
	job:=ops.HistogramJob{FileName: args[0], BinWidth: *binWidth}
	if len(args)==2 { job.MaskFileName=args[1] }

	result, h, err:=job.Run(ops.NewContext(logWriter))
	if err!=nil { return err }

	if *histPng!="" && h!=nil {
		fmt.Fprintf(logWriter, "Writing histogram plot to %s\n", *histPng)
		if err:=preview.WriteHistogramPNG(*histPng, h, result); err!=nil { return err }
	}
	return nil
}

// Run mask and histogram jobs from a JSON job file
func cmdJob(args []string, logWriter io.Writer) error {
	if len(args)!=1 {
		return fmt.Errorf("job needs exactly one JSON job file, got %d arguments", len(args))
	}
	data, err:=os.ReadFile(args[0])
	if err!=nil { return err }
	jf, err:=ops.ParseJobFile(data)
	if err!=nil { return err }

	c:=ops.NewContext(logWriter)
	if jf.Mask!=nil {
		final, err:=jf.Mask.Run(c)
		if err!=nil { return err }
		if *png!="" {
			f, err:=fits.Load(jf.Mask.FileName)
			if err!=nil { return err }
			if err:=preview.WriteHeatmapPNG(*png, f, final); err!=nil { return err }
		}
		if *maskPng!="" {
			if err:=preview.WriteMaskPNG(*maskPng, final); err!=nil { return err }
		}
	}
	if jf.Histogram!=nil {
		result, h, err:=jf.Histogram.Run(c)
		if err!=nil { return err }
		if *histPng!="" && h!=nil {
			if err:=preview.WriteHistogramPNG(*histPng, h, result); err!=nil { return err }
		}
	}
	return nil
}

// Helper: parse a comma-separated list of int32
func parseInt32List(s string) ([]int32, error) {
	parts:=strings.Split(s, ",")
	res:=make([]int32, len(parts))
	for i, p:=range parts {
		v, err:=strconv.ParseInt(strings.TrimSpace(p), 10, 32)
		if err!=nil { return nil, fmt.Errorf("invalid integer '%s'", p) }
		res[i]=int32(v)
	}
	return res, nil
}

// Helper: parse "c0,c1,r0,r1" into column and row ranges
func parseRect(s string) (colRange, rowRange [2]int32, err error) {
	vs, err:=parseInt32List(s)
	if err!=nil { return colRange, rowRange, err }
	if len(vs)!=4 {
		return colRange, rowRange, fmt.Errorf("need four integers c0,c1,r0,r1, got %d", len(vs))
	}
	return [2]int32{vs[0], vs[1]}, [2]int32{vs[2], vs[3]}, nil
}

// Helper: parse "c:r,c:r" into parallel column and row lists
func parsePixelList(s string) (cols, rows []int32, err error) {
	parts:=strings.Split(s, ",")
	cols=make([]int32, len(parts))
	rows=make([]int32, len(parts))
	for i, p:=range parts {
		cr:=strings.Split(strings.TrimSpace(p), ":")
		if len(cr)!=2 { return nil, nil, fmt.Errorf("invalid pixel '%s', want col:row", p) }
		c, err:=strconv.ParseInt(cr[0], 10, 32)
		if err!=nil { return nil, nil, fmt.Errorf("invalid column '%s'", cr[0]) }
		r, err:=strconv.ParseInt(cr[1], 10, 32)
		if err!=nil { return nil, nil, fmt.Errorf("invalid row '%s'", cr[1]) }
		cols[i]=int32(c)
		rows[i]=int32(r)
	}
	return cols, rows, nil
}

// Show licensing information
func cmdLegal() {
	logf.Printf(`Pixelqc is Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.
The binary version of this program uses several open source libraries and components, which come with their own licensing terms. See below for a list of attributions.

ATTRIBUTIONS

A1. https://github.com/gonum/gonum is Copyright (c) 2013 The Gonum Authors. All rights reserved.
Licensed under the BSD 3-clause license.

A2. https://github.com/astrogo/fitsio is Copyright (c) 2015, The astrogo Authors. All rights reserved.
Licensed under the BSD 3-clause license.

A3. https://github.com/gin-gonic/gin is Copyright (c) 2014 Manuel Martinez-Almeida.
Licensed under the MIT license.

A4. https://github.com/pbnjay/memory is Copyright (c) 2017, Jeremy Jay. All rights reserved.
Licensed under the BSD 3-clause license.

A5. https://github.com/valyala/fastrand is Copyright (c) 2017 Aliaksandr Valialkin.
Licensed under the MIT license.

A6. https://github.com/lucasb-eyer/go-colorful is Copyright (c) 2013 Lucas Beyer.
Licensed under the MIT license.

A7. https://github.com/google/go-cmp is Copyright (c) 2017 The Go Authors. All rights reserved.
Licensed under the BSD 3-clause license.
`)
}
