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

// Peak detection over a count series: plateau-aware local maxima, peak
// prominences against the higher surrounding terrain, and interpolated
// widths at a fractional height of the prominence. These reproduce the
// peak semantics the initial-guess heuristic was tuned against.

// Indices of all local maxima. A plateau of equal values bounded by lower
// neighbors on both sides counts once, at its midpoint. Endpoints cannot
// be maxima.
func localMaxima(y []float64) (peaks []int) {
	i:=1
	for i<len(y)-1 {
		if y[i-1]>=y[i] { i++; continue }
		// rising edge; skip across any plateau
		j:=i
		for j<len(y)-1 && y[j+1]==y[i] { j++ }
		if j<len(y)-1 && y[j+1]<y[i] {
			peaks=append(peaks, (i+j)/2)
		}
		i=j+1
	}
	return peaks
}

// Prominence of the peak at index p: its height above the higher of the two
// valley floors separating it from larger terrain or the series edge
func prominence(y []float64, p int) float64 {
	leftMin:=y[p]
	for i:=p-1; i>=0; i-- {
		if y[i]>y[p] { break }
		if y[i]<leftMin { leftMin=y[i] }
	}
	rightMin:=y[p]
	for i:=p+1; i<len(y); i++ {
		if y[i]>y[p] { break }
		if y[i]<rightMin { rightMin=y[i] }
	}
	base:=leftMin
	if rightMin>base { base=rightMin }
	return y[p]-base
}

// Width of the peak at index p, measured at height y[p] - relHeight *
// prominence, with linear interpolation at the crossings. relHeight 0.5
// yields the full width at half maximum of the peak above its base.
func peakWidth(y []float64, p int, relHeight float64) float64 {
	h:=y[p]-relHeight*prominence(y, p)

	left:=float64(p)
	for i:=p; i>0; i-- {
		if y[i-1]<h {
			left=float64(i-1)+(h-y[i-1])/(y[i]-y[i-1])
			break
		}
		left=float64(i-1)
	}

	right:=float64(p)
	for i:=p; i<len(y)-1; i++ {
		if y[i+1]<h {
			right=float64(i)+(y[i]-h)/(y[i]-y[i+1])
			break
		}
		right=float64(i+1)
	}
	return right-left
}

// Peaks whose width at widthRelHeight meets the minimum width, plus each
// surviving peak's full width at half maximum
func findPeaks(y []float64, minWidth float64, widthRelHeight float64) (peaks []int, fwhms []float64) {
	for _,p:=range(localMaxima(y)) {
		if peakWidth(y, p, widthRelHeight)>=minWidth {
			peaks=append(peaks, p)
			fwhms=append(fwhms, peakWidth(y, p, 0.5))
		}
	}
	return peaks, fwhms
}
