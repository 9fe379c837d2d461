// Package colormax extracts a compact, perceptually ranked color palette
// from an image. Pixels are pre-aggregated into perceptual bins, the bin
// centroids are clustered (Ward hierarchical linkage, with a partitional
// fallback at scale), trivially small clusters are absorbed, and every
// full-resolution pixel is then reassigned so the reported centroids and
// ratios always reflect 100% of the original pixels regardless of any
// sampling used during clustering.
package colormax

// Perceptual bin grid. The identity of a bin is the composite key
// (L band, hue band, chroma band); see BinKey.
const (
	LBands      = 35   // equal bands over L in [0,100]
	HueBands    = 1224 // equal bands over hue angle [0,360)
	ChromaBands = 3

	chromaThresholdLow  = 60.0
	chromaThresholdHigh = 120.0
)

// Params bounds the clustering run. The guard values exist to cap peak
// memory and wall-clock time and are configuration, not magic numbers.
type Params struct {
	// TargetClusters is the requested palette size. The result may hold
	// fewer clusters if absorption removes trivial ones.
	TargetClusters int

	// SampleDivisor sets the pixel sampling stride for the clustering
	// phase: stride = max(1, sqrt(pixelCount)/SampleDivisor). Final
	// averages are always recomputed from the unsampled pixel set.
	SampleDivisor float64

	// AbsorbThreshold is the population ratio below which a cluster is
	// merged into its nearest non-small neighbor.
	AbsorbThreshold float64

	// MaxWardBins is the bin count above which hierarchical clustering
	// is skipped entirely in favor of the partitional strategy.
	MaxWardBins int

	// SubsampleAbove and SubsampleTo bound the hierarchical input: when
	// the populated bin count exceeds SubsampleAbove, bins are randomly
	// subsampled down to SubsampleTo before Ward clustering.
	SubsampleAbove int
	SubsampleTo    int

	// Seed drives the bin subsample and the partitional fallback so
	// repeated runs are reproducible.
	Seed int64
}

// DefaultParams returns the production configuration.
func DefaultParams() Params {
	return Params{
		TargetClusters:  8,
		SampleDivisor:   800,
		AbsorbThreshold: 0.005,
		MaxWardBins:     5000,
		SubsampleAbove:  2000,
		SubsampleTo:     3000,
		Seed:            1,
	}
}
