package analyzer

import (
	"image"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/anime-shed/visual-pipeline-go/internal/imaging"
)

// LowFreqRadiusFactor sizes the central low-frequency disk relative to
// the smaller image dimension.
const LowFreqRadiusFactor = 0.3

// FrequencyResult carries the centered log-magnitude spectrum.
type FrequencyResult struct {
	SpectrumMap *image.Gray
	Stats       FrequencyStats
}

// AnalyzeFrequency computes the 2-D Fourier magnitude of the luma
// channel, centers it, and sums the energy outside a disk of radius
// 0.3×min(w,h) around the DC component.
func AnalyzeFrequency(buf *imaging.Buffer) FrequencyResult {
	luma := lumaPlane(buf)
	w, h := luma.w, luma.h
	if w == 0 || h == 0 {
		return FrequencyResult{SpectrumMap: image.NewGray(image.Rect(0, 0, w, h))}
	}

	spectrum := fft2(luma)

	// Centered log-magnitude with DC in the middle.
	logMag := newPlane(w, h)
	energy := newPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cx := (x + w/2) % w
			cy := (y + h/2) % h
			c := spectrum[y*w+x]
			mag := math.Hypot(real(c), imag(c))
			logMag.set(cx, cy, math.Log1p(mag))
			energy.set(cx, cy, mag*mag)
		}
	}

	radius := LowFreqRadiusFactor * float64(minInt(w, h))
	r2 := radius * radius
	centerX := float64(w / 2)
	centerY := float64(h / 2)

	var total, high float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			e := energy.at(x, y)
			total += e
			dx := float64(x) - centerX
			dy := float64(y) - centerY
			if dx*dx+dy*dy > r2 {
				high += e
			}
		}
	}

	stats := FrequencyStats{HighFreqEnergy: high}
	if total > 0 {
		stats.HighFreqRatio = high / total
	}

	_, maxLog := logMag.minMax()
	return FrequencyResult{
		SpectrumMap: logMag.toGray(0, maxLog),
		Stats:       stats,
	}
}

// fft2 runs the row-column decomposition of the 2-D DFT.
func fft2(p *plane) []complex128 {
	w, h := p.w, p.h
	data := make([]complex128, w*h)
	for i, v := range p.data {
		data[i] = complex(v, 0)
	}

	rowFFT := fourier.NewCmplxFFT(w)
	row := make([]complex128, w)
	for y := 0; y < h; y++ {
		copy(row, data[y*w:(y+1)*w])
		rowFFT.Coefficients(data[y*w:(y+1)*w], row)
	}

	colFFT := fourier.NewCmplxFFT(h)
	col := make([]complex128, h)
	out := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = data[y*w+x]
		}
		colFFT.Coefficients(out, col)
		for y := 0; y < h; y++ {
			data[y*w+x] = out[y]
		}
	}
	return data
}
