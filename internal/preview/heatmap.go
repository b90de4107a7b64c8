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


package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/mlnoga/pixelqc/internal/fits"
	"github.com/mlnoga/pixelqc/internal/hist"
	"github.com/mlnoga/pixelqc/internal/mask"
	"github.com/mlnoga/pixelqc/internal/stats"
)

// Render-only previews of QC results. Nothing here feeds back into the
// masks or the fit.

var (
	rampCold  =colorful.Color{R: 0.10, G: 0.15, B: 0.50}
	rampHot   =colorful.Color{R: 0.95, G: 0.85, B: 0.20}
	rejectTint=colorful.Color{R: 0.90, G: 0.10, B: 0.10}
)

// Writes a heat map of the first 2D plane of the pixel array, tinting
// pixels rejected by the optional mask. Values map onto a perceptual
// cold-to-hot ramp between the 2-sigma robust bounds, so a few hot pixels
// do not flatten the rest of the image.
func WriteHeatmapPNG(fileName string, f *fits.Image, m *mask.Mask) error {
	if len(f.Naxisn)<2 { return fmt.Errorf("heat map needs at least 2 axes, have %v", f.Naxisn) }
	if m!=nil && len(m.Data)!=len(f.Data) {
		return &mask.ShapeError{Index: 0, Want: f.Naxisn, Got: m.Naxisn}
	}
	width, height:=int(f.Naxisn[0]), int(f.Naxisn[1])

	lo, hi:=float32(0), float32(1)
	if mean, stdDev, err:=stats.RobustMeanStdDev(f.Data); err==nil {
		lo, hi=mean-2*stdDev, mean+2*stdDev
	} else {
		lo, _, hi=stats.MinMeanMax(f.Data)
	}
	if hi<=lo { hi=lo+1 }

	img:=image.NewRGBA(image.Rect(0, 0, width, height))
	for y:=0; y<height; y++ {
		for x:=0; x<width; x++ {
			i:=y*width+x
			t:=float64((f.Data[i]-lo)/(hi-lo))
			if t<0 { t=0 }
			if t>1 { t=1 }
			c:=rampCold.BlendLuv(rampHot, t).Clamped()
			if m!=nil && m.Data[i] {
				c=c.BlendLuv(rejectTint, 0.75).Clamped()
			}
			img.Set(x, y, c)
		}
	}
	return writePNG(fileName, img)
}

// Writes the mask alone: rejected pixels in the reject tint on black
func WriteMaskPNG(fileName string, m *mask.Mask) error {
	if len(m.Naxisn)<2 { return fmt.Errorf("mask preview needs at least 2 axes, have %v", m.Naxisn) }
	width, height:=int(m.Naxisn[0]), int(m.Naxisn[1])

	img:=image.NewRGBA(image.Rect(0, 0, width, height))
	for y:=0; y<height; y++ {
		for x:=0; x<width; x++ {
			if m.Data[y*width+x] {
				img.Set(x, y, rejectTint.Clamped())
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return writePNG(fileName, img)
}

// Writes the histogram as bars with the fitted Gaussian drawn on top
func WriteHistogramPNG(fileName string, h *hist.Histogram, result *hist.FitResult) error {
	const width, height=640, 400
	img:=image.NewRGBA(image.Rect(0, 0, width, height))
	for y:=0; y<height; y++ {
		for x:=0; x<width; x++ {
			img.Set(x, y, color.White)
		}
	}

	maxCount:=0.0
	for _,c:=range(h.Counts) {
		if c>maxCount { maxCount=c }
	}
	if result!=nil && result.Max>maxCount { maxCount=result.Max }
	if maxCount==0 { maxCount=1 }

	barColor:=rampCold.Clamped()
	lo, hi:=h.Edges[0], h.Edges[len(h.Edges)-1]
	for x:=0; x<width; x++ {
		v:=lo+(hi-lo)*float64(x)/float64(width-1)
		bin:=int(float64(len(h.Counts))*float64(x)/float64(width))
		if bin>len(h.Counts)-1 { bin=len(h.Counts)-1 }
		barTop:=height-1-int(h.Counts[bin]/maxCount*float64(height-1))
		for y:=barTop; y<height; y++ {
			img.Set(x, y, barColor)
		}
		if result!=nil {
			fitY:=height-1-int(result.Eval(v)/maxCount*float64(height-1))
			if fitY>=0 && fitY<height {
				img.Set(x, fitY, rejectTint.Clamped())
			}
		}
	}
	return writePNG(fileName, img)
}

func writePNG(fileName string, img image.Image) error {
	w, err:=os.Create(fileName)
	if err!=nil { return err }
	defer w.Close()
	return png.Encode(w, img)
}
