package colorspace

import (
	"math"
	"testing"
)

func TestRGBToLabKnownValues(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		wantL   float64
	}{
		{"black", 0, 0, 0, 0},
		{"white", 255, 255, 255, 100},
		{"mid gray", 119, 119, 119, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _, _ := RGBToLab(tt.r, tt.g, tt.b)
			if math.Abs(l-tt.wantL) > 1.0 {
				t.Errorf("L = %f, want ~%f", l, tt.wantL)
			}
		})
	}
}

func TestLabNeutralAxis(t *testing.T) {
	// Gray pixels sit on the neutral axis: a and b near zero.
	for _, v := range []uint8{0, 64, 128, 192, 255} {
		_, a, b := RGBToLab(v, v, v)
		if math.Abs(a) > 0.5 || math.Abs(b) > 0.5 {
			t.Errorf("gray %d: a=%f b=%f, want near 0", v, a, b)
		}
	}
}

func TestLabRoundTrip(t *testing.T) {
	// RGB -> Lab -> RGB reproduces the original within 2/255 per channel.
	colors := [][3]uint8{
		{255, 0, 0}, {0, 255, 0}, {0, 0, 255},
		{255, 255, 0}, {0, 255, 255}, {255, 0, 255},
		{128, 64, 200}, {17, 93, 241}, {250, 250, 5},
		{0, 0, 0}, {255, 255, 255}, {1, 2, 3},
	}
	for _, c := range colors {
		l, a, b := RGBToLab(c[0], c[1], c[2])
		r2, g2, b2 := LabToRGB(l, a, b)
		if absDiff(c[0], r2) > 2 || absDiff(c[1], g2) > 2 || absDiff(c[2], b2) > 2 {
			t.Errorf("round trip %v -> (%d,%d,%d)", c, r2, g2, b2)
		}
	}
}

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

func TestRGBToHSV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		h, s, v float64
	}{
		{"red", 255, 0, 0, 0, 1, 1},
		{"green", 0, 255, 0, 120, 1, 1},
		{"blue", 0, 0, 255, 240, 1, 1},
		{"white", 255, 255, 255, 0, 0, 1},
		{"black", 0, 0, 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s, v := RGBToHSV(tt.r, tt.g, tt.b)
			if math.Abs(h-tt.h) > 0.01 || math.Abs(s-tt.s) > 0.01 || math.Abs(v-tt.v) > 0.01 {
				t.Errorf("got h=%f s=%f v=%f, want h=%f s=%f v=%f", h, s, v, tt.h, tt.s, tt.v)
			}
		})
	}
}

func TestRGBToHLS(t *testing.T) {
	h, l, s := RGBToHLS(255, 0, 0)
	if math.Abs(h) > 0.01 {
		t.Errorf("red hue = %f, want 0", h)
	}
	if math.Abs(l-0.5) > 0.01 {
		t.Errorf("red lightness = %f, want 0.5", l)
	}
	if math.Abs(s-1.0) > 0.01 {
		t.Errorf("red saturation = %f, want 1", s)
	}
}

func TestLuma(t *testing.T) {
	if got := Luma(255, 255, 255); math.Abs(got-255) > 0.01 {
		t.Errorf("white luma = %f, want 255", got)
	}
	if got := Luma(255, 0, 0); math.Abs(got-0.299*255) > 0.01 {
		t.Errorf("red luma = %f, want %f", got, 0.299*255)
	}
}
