package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/anime-shed/visual-pipeline-go/internal/codec"
	"github.com/anime-shed/visual-pipeline-go/internal/imaging"
	"github.com/anime-shed/visual-pipeline-go/pkg/models"
)

func encodePNG(t *testing.T, c color.RGBA, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func newTestOrchestrator() *Orchestrator {
	return New(imaging.NewNormalizer(imaging.DefaultMaxRawSide), codec.NewEncoder(codec.DefaultBudget))
}

func artifactNames(report *models.AnalysisReport) map[string]bool {
	names := make(map[string]bool, len(report.Artifacts))
	for _, a := range report.Artifacts {
		names[a.Name] = true
	}
	return names
}

func TestRunUniformImage(t *testing.T) {
	o := newTestOrchestrator()
	data := encodePNG(t, color.RGBA{R: 255, A: 255}, 100, 80)

	var lastPercent int
	var states []models.SubmissionState
	rc := RunContext{
		SubmissionID: "sub-1",
		OnProgress: func(percent int, state models.SubmissionState) {
			if percent < lastPercent {
				t.Errorf("progress went backwards: %d after %d", percent, lastPercent)
			}
			lastPercent = percent
			states = append(states, state)
		},
	}

	report, err := o.Run(context.Background(), rc, data, DefaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.State != models.StateComplete {
		t.Fatalf("state = %q, want %q", report.State, models.StateComplete)
	}
	if report.Width != 100 || report.Height != 80 {
		t.Errorf("dimensions = %dx%d, want 100x80", report.Width, report.Height)
	}
	if lastPercent != 100 {
		t.Errorf("final progress = %d, want 100", lastPercent)
	}

	names := artifactNames(report)
	for _, want := range []string{
		"binarization", "grayscale_3tier", "grayscale_4tier",
		"luma", "lightness", "saturation", "saturation_inverse",
		"hue", "segmentation",
	} {
		if !names[want] {
			t.Errorf("missing artifact %q", want)
		}
	}

	if len(report.Stats.Palette) != 1 {
		t.Fatalf("palette size = %d, want 1", len(report.Stats.Palette))
	}
	if r := report.Stats.Palette[0].Ratio; r < 0.999 {
		t.Errorf("dominant ratio = %f, want ~1.0", r)
	}
	if report.ClusterStrategy == "" {
		t.Error("cluster strategy not recorded")
	}
}

func TestRunStateOrder(t *testing.T) {
	o := newTestOrchestrator()
	data := encodePNG(t, color.RGBA{R: 30, G: 200, B: 90, A: 255}, 40, 40)

	var states []models.SubmissionState
	rc := RunContext{
		SubmissionID: "sub-order",
		OnProgress: func(_ int, state models.SubmissionState) {
			if len(states) == 0 || states[len(states)-1] != state {
				states = append(states, state)
			}
		},
	}
	if _, err := o.Run(context.Background(), rc, data, DefaultOptions()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []models.SubmissionState{
		models.StateDecoding,
		models.StateStep1, models.StateStep2, models.StateStep3,
		models.StateStep4, models.StateStep5,
		models.StateAssembling, models.StateComplete,
	}
	if len(states) != len(want) {
		t.Fatalf("state sequence = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("state[%d] = %q, want %q", i, states[i], want[i])
		}
	}
}

func TestRunCancelled(t *testing.T) {
	o := newTestOrchestrator()
	data := encodePNG(t, color.RGBA{B: 255, A: 255}, 32, 32)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := o.Run(ctx, RunContext{SubmissionID: "sub-cancel"}, data, DefaultOptions())
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if report.State != models.StateFailed {
		t.Errorf("state = %q, want %q", report.State, models.StateFailed)
	}
	if report.FailedStep != models.StateDecoding {
		t.Errorf("failed step = %q, want %q", report.FailedStep, models.StateDecoding)
	}
	if len(report.Artifacts) != 0 {
		t.Errorf("failed run kept %d artifacts", len(report.Artifacts))
	}
}

func TestRunInvalidData(t *testing.T) {
	o := newTestOrchestrator()
	report, err := o.Run(context.Background(),
		RunContext{SubmissionID: "sub-bad"}, []byte("not an image"), DefaultOptions())
	if err == nil {
		t.Fatal("expected decode error")
	}
	if report.FailedStep != models.StateDecoding {
		t.Errorf("failed step = %q, want %q", report.FailedStep, models.StateDecoding)
	}
}

func TestRunDetailedBattery(t *testing.T) {
	o := newTestOrchestrator()
	data := encodePNG(t, color.RGBA{R: 120, G: 120, B: 120, A: 255}, 64, 64)

	opts := DefaultOptions()
	opts.Detailed = true
	report, err := o.Run(context.Background(), RunContext{SubmissionID: "sub-detail"}, data, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	names := artifactNames(report)
	for _, want := range []string{
		"gamut_extremes", "centroid", "edges", "gradient",
		"corners", "spectrum", "orientation", "coherence",
	} {
		if !names[want] {
			t.Errorf("missing detailed artifact %q", want)
		}
	}
	if report.Stats.Edges.EdgeDensity != 0 {
		t.Errorf("uniform image edge density = %f, want 0", report.Stats.Edges.EdgeDensity)
	}
}

func TestBinarize(t *testing.T) {
	buf := imaging.NewBuffer(2, 1)
	buf.SetRGB(0, 0, 200, 200, 200)
	buf.SetRGB(1, 0, 40, 40, 40)

	out := binarize(buf, 140)
	if got := out.GrayAt(0, 0).Y; got != 255 {
		t.Errorf("bright pixel = %d, want 255", got)
	}
	if got := out.GrayAt(1, 0).Y; got != 0 {
		t.Errorf("dark pixel = %d, want 0", got)
	}
}

func TestQuantizeGrayTiers(t *testing.T) {
	buf := imaging.NewBuffer(3, 1)
	buf.SetRGB(0, 0, 0, 0, 0)
	buf.SetRGB(1, 0, 128, 128, 128)
	buf.SetRGB(2, 0, 255, 255, 255)

	out := quantizeGray(buf, 3)
	if got := out.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("black quantized to %d, want 0", got)
	}
	if got := out.GrayAt(1, 0).Y; got != 127 {
		t.Errorf("mid gray quantized to %d, want 127", got)
	}
	if got := out.GrayAt(2, 0).Y; got != 255 {
		t.Errorf("white quantized to %d, want 255", got)
	}
}
