package colormax

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/anime-shed/visual-pipeline-go/internal/imaging"
)

func uniformBuffer(w, h int, r, g, b uint8) *imaging.Buffer {
	buf := imaging.NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.SetRGB(x, y, r, g, b)
		}
	}
	return buf
}

func ratioSum(clusters []Cluster) float64 {
	sum := 0.0
	for _, c := range clusters {
		sum += c.Ratio
	}
	return sum
}

func TestUniformRedImage(t *testing.T) {
	// A 1000x1000 uniform red image with target 8 yields exactly one
	// cluster at ratio 1.0 whose display color is red.
	buf := uniformBuffer(1000, 1000, 255, 0, 0)

	res, err := Run(buf, DefaultParams())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(res.Clusters))
	}
	c := res.Clusters[0]
	if c.Ratio != 1.0 {
		t.Errorf("ratio = %f, want 1.0", c.Ratio)
	}
	if absDiff(c.Red, 255) > 2 || absDiff(c.Green, 0) > 2 || absDiff(c.Blue, 0) > 2 {
		t.Errorf("centroid color = (%d,%d,%d), want ~(255,0,0)", c.Red, c.Green, c.Blue)
	}
	if c.Pixels != 1000*1000 {
		t.Errorf("pixel count = %d, want %d", c.Pixels, 1000*1000)
	}
}

func TestCheckerboardTwoColors(t *testing.T) {
	const size = 128
	buf := imaging.NewBuffer(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x+y)%2 == 0 {
				buf.SetRGB(x, y, 255, 0, 0)
			} else {
				buf.SetRGB(x, y, 0, 0, 255)
			}
		}
	}

	res, err := Run(buf, DefaultParams())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(res.Clusters))
	}
	for _, c := range res.Clusters {
		if math.Abs(c.Ratio-0.5) > 0.01 {
			t.Errorf("cluster ratio = %f, want ~0.5", c.Ratio)
		}
	}
}

func TestInvariantsOnGradient(t *testing.T) {
	const w, h = 160, 120
	buf := imaging.NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.SetRGB(x, y, uint8(x*255/w), uint8(y*255/h), 128)
		}
	}

	res, err := Run(buf, DefaultParams())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if s := ratioSum(res.Clusters); math.Abs(s-1.0) > 1e-6 {
		t.Errorf("ratios sum to %f, want 1.0", s)
	}

	total := 0
	for _, c := range res.Clusters {
		total += c.Pixels
	}
	if total != w*h {
		t.Errorf("assigned pixels = %d, want %d", total, w*h)
	}

	if len(res.Assignments) != w*h {
		t.Fatalf("assignment length = %d, want %d", len(res.Assignments), w*h)
	}
	for i, a := range res.Assignments {
		if a < 0 || a >= len(res.Clusters) {
			t.Fatalf("assignment[%d] = %d out of range", i, a)
		}
	}
}

func TestWardPathExactTarget(t *testing.T) {
	// 16 equal-area distinct colors: more bins than the target but well
	// under the scale guards, so Ward linkage runs and cuts at 8.
	colors := [][3]uint8{
		{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {255, 255, 0},
		{0, 255, 255}, {255, 0, 255}, {255, 128, 0}, {128, 0, 255},
		{10, 10, 10}, {245, 245, 245}, {90, 160, 40}, {40, 90, 160},
		{160, 40, 90}, {200, 200, 100}, {100, 200, 200}, {60, 60, 140},
	}
	const cell = 32
	buf := imaging.NewBuffer(cell*4, cell*4)
	for y := 0; y < cell*4; y++ {
		for x := 0; x < cell*4; x++ {
			c := colors[(y/cell)*4+(x/cell)]
			buf.SetRGB(x, y, c[0], c[1], c[2])
		}
	}

	res, err := Run(buf, DefaultParams())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.StrategyUsed != "ward" {
		t.Errorf("strategy = %q, want ward", res.StrategyUsed)
	}
	if len(res.Clusters) != 8 {
		t.Errorf("cluster count = %d, want 8", len(res.Clusters))
	}
	if s := ratioSum(res.Clusters); math.Abs(s-1.0) > 1e-6 {
		t.Errorf("ratios sum to %f, want 1.0", s)
	}
}

func TestFewBinsDirectPath(t *testing.T) {
	const size = 90
	buf := imaging.NewBuffer(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			switch x % 3 {
			case 0:
				buf.SetRGB(x, y, 255, 0, 0)
			case 1:
				buf.SetRGB(x, y, 0, 255, 0)
			default:
				buf.SetRGB(x, y, 0, 0, 255)
			}
		}
	}

	res, err := Run(buf, DefaultParams())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.StrategyUsed != "direct" {
		t.Errorf("strategy = %q, want direct", res.StrategyUsed)
	}
	if len(res.Clusters) != 3 {
		t.Errorf("cluster count = %d, want 3", len(res.Clusters))
	}
}

func TestHighEntropyNoiseUsesPartitionalFallback(t *testing.T) {
	// Synthetic noise populates far more bins than the hierarchical
	// guard allows; the run must complete via the partitional strategy
	// instead of failing.
	const size = 220
	rng := rand.New(rand.NewSource(42))
	buf := imaging.NewBuffer(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			buf.SetRGB(x, y, uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)))
		}
	}

	res, err := Run(buf, DefaultParams())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.StrategyUsed != "kmeans" {
		t.Errorf("strategy = %q, want kmeans", res.StrategyUsed)
	}
	if s := ratioSum(res.Clusters); math.Abs(s-1.0) > 1e-6 {
		t.Errorf("ratios sum to %f, want 1.0", s)
	}
}

func TestDeterministicReruns(t *testing.T) {
	const w, h = 96, 96
	buf := imaging.NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.SetRGB(x, y, uint8((x*7)%256), uint8((y*11)%256), uint8((x+y)%256))
		}
	}

	first, err := Run(buf, DefaultParams())
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := Run(buf, DefaultParams())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if diff := cmp.Diff(first.Assignments, second.Assignments); diff != "" {
		t.Errorf("assignments differ between runs:\n%s", diff)
	}
	if diff := cmp.Diff(first.Clusters, second.Clusters); diff != "" {
		t.Errorf("clusters differ between runs:\n%s", diff)
	}
}

func TestBinKeyOrdering(t *testing.T) {
	a := BinKey{LBand: 1, HueBand: 5, ChromaBand: 0}
	b := BinKey{LBand: 1, HueBand: 5, ChromaBand: 1}
	c := BinKey{LBand: 2, HueBand: 0, ChromaBand: 0}
	if !a.Less(b) || !b.Less(c) || c.Less(a) {
		t.Error("BinKey ordering is not lexicographic")
	}
}

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}
