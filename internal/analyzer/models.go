package analyzer

import "github.com/anime-shed/visual-pipeline-go/pkg/models"

// The stat structs live in the shared models package so transport and
// service layers reuse them; these aliases keep analyzer signatures
// local.
type (
	LuminanceStats = models.LuminanceStats
	CentroidStats  = models.CentroidStats
	HueSatStats    = models.HueSatStats
	EdgeStats      = models.EdgeStats
	FrequencyStats = models.FrequencyStats
	TextureStats   = models.TextureStats
)

// HueHistogramBins is the fixed hue histogram resolution (10° per bin).
const HueHistogramBins = models.HueHistogramBins
