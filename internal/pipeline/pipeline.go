// Package pipeline runs the fixed five-step analysis sequence over a
// normalized buffer and assembles the artifacts and statistics into one
// immutable report. Steps share only the read-only input buffer, so
// order matters solely for progress reporting.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/visual-pipeline-go/internal/analyzer"
	"github.com/anime-shed/visual-pipeline-go/internal/codec"
	"github.com/anime-shed/visual-pipeline-go/internal/colormax"
	apperrors "github.com/anime-shed/visual-pipeline-go/internal/errors"
	"github.com/anime-shed/visual-pipeline-go/internal/imaging"
	"github.com/anime-shed/visual-pipeline-go/internal/logger"
	"github.com/anime-shed/visual-pipeline-go/pkg/models"
)

// Options are the per-submission pipeline parameters.
type Options struct {
	BinarizeThreshold int
	MaxSide           int
	ClusterTarget     int
	Detailed          bool // also run the full channel-analyzer battery
	ColorMax          colormax.Params
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		BinarizeThreshold: 140,
		MaxSide:           imaging.DefaultMaxSide,
		ClusterTarget:     8,
		ColorMax:          colormax.DefaultParams(),
	}
}

// ProgressFunc receives coarse progress as an integer percentage.
type ProgressFunc func(percent int, state models.SubmissionState)

// RunContext threads per-submission identity and the progress sink
// through the run, replacing any process-wide state.
type RunContext struct {
	SubmissionID string
	OnProgress   ProgressFunc
}

func (rc RunContext) progress(percent int, state models.SubmissionState) {
	if rc.OnProgress != nil {
		rc.OnProgress(percent, state)
	}
}

// Orchestrator owns the components shared across submissions: all of
// them are stateless, so submissions are isolated by construction.
type Orchestrator struct {
	normalizer *imaging.Normalizer
	encoder    *codec.Encoder
}

// New creates an Orchestrator.
func New(normalizer *imaging.Normalizer, encoder *codec.Encoder) *Orchestrator {
	return &Orchestrator{normalizer: normalizer, encoder: encoder}
}

// Run processes one submission end to end. Cancellation is checked
// between steps; a failed or cancelled run yields a report in the
// failed state with the causing step recorded and no artifacts.
func (o *Orchestrator) Run(ctx context.Context, rc RunContext, data []byte, opts Options) (*models.AnalysisReport, error) {
	start := time.Now()
	report := &models.AnalysisReport{
		ID:        rc.SubmissionID,
		State:     models.StatePending,
		Timestamp: start,
	}

	fail := func(state models.SubmissionState, err error) (*models.AnalysisReport, error) {
		report.State = models.StateFailed
		report.FailedStep = state
		report.Artifacts = nil
		report.ProcessingTimeSec = time.Since(start).Seconds()
		logger.WithSubmission(rc.SubmissionID).WithError(err).WithFields(logrus.Fields{
			"failed_step": state,
		}).Error("Pipeline run failed")
		return report, err
	}

	step := func(state models.SubmissionState, percent int) error {
		if err := ctx.Err(); err != nil {
			return apperrors.NewTimeoutError("submission cancelled", err)
		}
		report.State = state
		rc.progress(percent, state)
		return nil
	}

	// Decode and normalize.
	if err := step(models.StateDecoding, 5); err != nil {
		return fail(models.StateDecoding, err)
	}
	buf, err := o.normalizer.Normalize(data, opts.MaxSide)
	if err != nil {
		return fail(models.StateDecoding, err)
	}
	report.Width = buf.W
	report.Height = buf.H

	// Step 1: binarization and tiered grayscale quantization.
	if err := step(models.StateStep1, 20); err != nil {
		return fail(models.StateStep1, err)
	}
	o.addArtifact(report, "binarization", binarize(buf, opts.BinarizeThreshold))
	o.addArtifact(report, "grayscale_3tier", quantizeGray(buf, 3))
	o.addArtifact(report, "grayscale_4tier", quantizeGray(buf, 4))

	// Step 2: luma and perceptual lightness.
	if err := step(models.StateStep2, 35); err != nil {
		return fail(models.StateStep2, err)
	}
	lum := analyzer.AnalyzeLuminance(buf)
	report.Stats.Luminance = lum.Stats
	o.addArtifact(report, "luma", lumaMap(buf))
	o.addArtifact(report, "lightness", lum.LightnessMap)

	// Step 3: saturation channel and its inverse.
	if err := step(models.StateStep3, 50); err != nil {
		return fail(models.StateStep3, err)
	}
	hs := analyzer.AnalyzeHueSaturation(buf)
	report.Stats.HueSat = hs.Stats
	o.addArtifact(report, "saturation", hs.SaturationMap)
	o.addArtifact(report, "saturation_inverse", hs.InverseSatMap)

	// Step 4: hue map and histogram (histogram captured in step 3's
	// shared analysis; the map is emitted here for the fixed order).
	if err := step(models.StateStep4, 65); err != nil {
		return fail(models.StateStep4, err)
	}
	o.addArtifact(report, "hue", hs.HueMap)

	// Step 5: ColorMax segmentation and ranked palette.
	if err := step(models.StateStep5, 75); err != nil {
		return fail(models.StateStep5, err)
	}
	cmParams := opts.ColorMax
	cmParams.TargetClusters = opts.ClusterTarget
	seg, err := colormax.Run(buf, cmParams)
	if err != nil {
		return fail(models.StateStep5, err)
	}
	report.ClusterStrategy = seg.StrategyUsed
	report.Stats.Palette = rankedPalette(seg.Clusters)
	o.addArtifact(report, "segmentation", seg.Segmentation)
	rc.progress(90, models.StateStep5)

	if opts.Detailed {
		o.runBattery(report, buf, hs.ExtremesMap)
	}

	// Assemble.
	if err := step(models.StateAssembling, 95); err != nil {
		return fail(models.StateAssembling, err)
	}
	report.State = models.StateComplete
	report.ProcessingTimeSec = time.Since(start).Seconds()
	rc.progress(100, models.StateComplete)
	return report, nil
}

// runBattery executes the remaining channel analyzers. They are
// independent pure functions over the shared read-only buffer, so they
// fan out across goroutines.
func (o *Orchestrator) runBattery(report *models.AnalysisReport, buf *imaging.Buffer, extremes image.Image) {
	var centroid analyzer.CentroidResult
	var edges analyzer.EdgeResult
	var freq analyzer.FrequencyResult
	var texture analyzer.TextureResult

	done := make(chan struct{}, 4)
	go func() { centroid = analyzer.AnalyzeCentroid(buf); done <- struct{}{} }()
	go func() { edges = analyzer.AnalyzeEdges(buf); done <- struct{}{} }()
	go func() { freq = analyzer.AnalyzeFrequency(buf); done <- struct{}{} }()
	go func() { texture = analyzer.AnalyzeTexture(buf); done <- struct{}{} }()
	for i := 0; i < 4; i++ {
		<-done
	}

	report.Stats.Centroid = centroid.Stats
	report.Stats.Edges = edges.Stats
	report.Stats.Frequency = freq.Stats
	report.Stats.Texture = texture.Stats

	// Gamut extremes ride on the step-3 analysis but the map is a
	// detailed-only artifact.
	o.addArtifact(report, "gamut_extremes", extremes)
	o.addArtifact(report, "centroid", centroid.MarkerMap)
	o.addArtifact(report, "edges", edges.EdgeMap)
	o.addArtifact(report, "gradient", edges.GradientMap)
	o.addArtifact(report, "corners", edges.CornerMap)
	o.addArtifact(report, "spectrum", freq.SpectrumMap)
	o.addArtifact(report, "orientation", texture.OrientationMap)
	o.addArtifact(report, "coherence", texture.CoherenceMap)
}

// addArtifact encodes img under the byte budget and appends it to the
// report, recording a warning when the budget could not be met.
func (o *Orchestrator) addArtifact(report *models.AnalysisReport, name string, img image.Image) {
	art := o.encoder.Encode(name, img)
	if art.BudgetExceeded {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("artifact %q exceeds the byte budget at %d bytes", name, art.Size))
	}
	report.Artifacts = append(report.Artifacts, art)
}

// rankedPalette orders the cluster palette by descending pixel share.
func rankedPalette(clusters []colormax.Cluster) []models.PaletteEntry {
	entries := make([]models.PaletteEntry, len(clusters))
	for i, c := range clusters {
		entries[i] = models.PaletteEntry{
			RGB:   [3]uint8{c.Red, c.Green, c.Blue},
			Ratio: c.Ratio,
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Ratio > entries[j].Ratio })
	return entries
}
