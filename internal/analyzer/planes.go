// Package analyzer holds the channel analyzers: independent, stateless
// functions that each derive one visualization plus scalar statistics
// from a normalized RGB buffer. Analyzers never mutate their input and
// have no ordering dependencies, so callers may run them in any order
// or in parallel.
package analyzer

import (
	"image"
	"image/color"
	"runtime"
	"sync"

	"github.com/anime-shed/visual-pipeline-go/internal/colorspace"
	"github.com/anime-shed/visual-pipeline-go/internal/imaging"
)

// plane is a dense float64 raster used for intermediate maps.
type plane struct {
	w, h int
	data []float64
}

func newPlane(w, h int) *plane {
	return &plane{w: w, h: h, data: make([]float64, w*h)}
}

func (p *plane) at(x, y int) float64     { return p.data[y*p.w+x] }
func (p *plane) set(x, y int, v float64) { p.data[y*p.w+x] = v }

// parallelRows runs fn over horizontal strips, one per worker, matching
// image cache layout.
func parallelRows(h int, fn func(y0, y1 int)) {
	workers := runtime.NumCPU()
	if h < workers {
		workers = h
	}
	if workers <= 1 {
		fn(0, h)
		return
	}
	rowsPer := (h + workers - 1) / workers

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		y0 := i * rowsPer
		y1 := y0 + rowsPer
		if y1 > h {
			y1 = h
		}
		if y0 >= y1 {
			break
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			fn(y0, y1)
		}(y0, y1)
	}
	wg.Wait()
}

// lightnessPlane computes the CIELAB L channel (0-100) for every pixel.
func lightnessPlane(buf *imaging.Buffer) *plane {
	p := newPlane(buf.W, buf.H)
	parallelRows(buf.H, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < buf.W; x++ {
				r, g, b := buf.RGB(x, y)
				p.set(x, y, colorspace.Lightness(r, g, b))
			}
		}
	})
	return p
}

// lumaPlane computes Rec.601 luma (0-255) for every pixel.
func lumaPlane(buf *imaging.Buffer) *plane {
	p := newPlane(buf.W, buf.H)
	parallelRows(buf.H, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < buf.W; x++ {
				r, g, b := buf.RGB(x, y)
				p.set(x, y, colorspace.Luma(r, g, b))
			}
		}
	})
	return p
}

// toGray renders a plane as an 8-bit grayscale image, mapping [lo,hi]
// onto [0,255]. A degenerate range renders black.
func (p *plane) toGray(lo, hi float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, p.w, p.h))
	span := hi - lo
	if span <= 0 {
		return img
	}
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			v := (p.at(x, y) - lo) / span * 255.0
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			img.SetGray(x, y, color.Gray{Y: uint8(v + 0.5)})
		}
	}
	return img
}

// minMax returns the smallest and largest values in the plane.
func (p *plane) minMax() (float64, float64) {
	if len(p.data) == 0 {
		return 0, 0
	}
	lo, hi := p.data[0], p.data[0]
	for _, v := range p.data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
