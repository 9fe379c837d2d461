package models

// HueHistogramBins is the fixed hue histogram resolution (10° per bin).
const HueHistogramBins = 36

// LuminanceStats summarizes the lightness and local-contrast analysis.
type LuminanceStats struct {
	MeanLightness    float64 `json:"mean_lightness"`
	MaxLocalVariance float64 `json:"max_local_variance"`
}

// CentroidStats is the lightness-weighted center of mass of the image.
type CentroidStats struct {
	X     int     `json:"x"`
	Y     int     `json:"y"`
	NormX float64 `json:"norm_x"` // fraction of width in [0,1]
	NormY float64 `json:"norm_y"` // fraction of height in [0,1]
}

// HueSatStats summarizes hue distribution and gamut extremes.
type HueSatStats struct {
	Histogram          [HueHistogramBins]int `json:"hue_histogram"`
	MeanSaturation     float64               `json:"mean_saturation"`
	OverexposedRatio   float64               `json:"overexposed_ratio"`
	UnderexposedRatio  float64               `json:"underexposed_ratio"`
	OversaturatedRatio float64               `json:"oversaturated_ratio"`
}

// EdgeStats summarizes edge and corner content.
type EdgeStats struct {
	EdgeDensity   float64 `json:"edge_density"`
	MeanGradient  float64 `json:"mean_gradient"`
	CornerCount   int     `json:"corner_count"`
	CornerDensity float64 `json:"corner_density"`
}

// FrequencyStats splits spectral energy into the central low-frequency
// disk and the high-frequency remainder.
type FrequencyStats struct {
	HighFreqEnergy float64 `json:"high_freq_energy"`
	HighFreqRatio  float64 `json:"high_freq_ratio"`
}

// TextureStats summarizes texture orientation consistency.
type TextureStats struct {
	MeanCoherence float64 `json:"mean_coherence"`
}

// PaletteEntry is one dominant color with its full-resolution
// population ratio.
type PaletteEntry struct {
	RGB   [3]uint8 `json:"rgb"`
	Ratio float64  `json:"ratio"`
}
