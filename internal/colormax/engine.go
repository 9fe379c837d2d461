package colormax

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"sort"

	apperrors "github.com/anime-shed/visual-pipeline-go/internal/errors"
	"github.com/anime-shed/visual-pipeline-go/internal/colorspace"
	"github.com/anime-shed/visual-pipeline-go/internal/imaging"
	"github.com/anime-shed/visual-pipeline-go/internal/logger"
)

// Cluster is one dominant color: a perceptual centroid with its
// full-resolution population.
type Cluster struct {
	L, A, B float64
	Red     uint8
	Green   uint8
	Blue    uint8
	Pixels  int
	Ratio   float64
}

// Result is a completed clustering run. Assignments holds one cluster
// index per pixel in row-major order; Clusters ratios always sum to 1
// over the full-resolution image.
type Result struct {
	Clusters     []Cluster
	Assignments  []int
	Segmentation *image.RGBA
	StrategyUsed string
}

// Run executes the full engine on a normalized buffer.
func Run(buf *imaging.Buffer, p Params) (*Result, error) {
	n := buf.W * buf.H
	if n == 0 {
		return nil, apperrors.NewProcessingError("empty buffer", nil)
	}
	if p.TargetClusters < 1 {
		p.TargetClusters = 1
	}

	// Step 1: every pixel in perceptual space.
	labL := make([]float64, n)
	labA := make([]float64, n)
	labB := make([]float64, n)
	for i := 0; i < n; i++ {
		r, g, b := buf.Pix[i*3], buf.Pix[i*3+1], buf.Pix[i*3+2]
		labL[i], labA[i], labB[i] = colorspace.RGBToLab(r, g, b)
	}

	// Step 2: sub-sample for the clustering phase only.
	stride := int(math.Sqrt(float64(n)) / p.SampleDivisor)
	if stride < 1 {
		stride = 1
	}

	// Step 3-4: discretize samples into bins with running means.
	table := newBinTable()
	for i := 0; i < n; i += stride {
		table.add(labL[i], labA[i], labB[i])
	}
	bins := table.sorted()
	sampled := 0
	for _, cell := range bins {
		sampled += cell.count
	}

	// Step 5: cluster the bin centroids.
	binAssign, strategy := clusterBins(bins, p)

	// Step 6: weighted centroids per cluster over member bins.
	clusters := centroidsFromBins(bins, binAssign)

	// Step 7: absorb small clusters into their nearest non-small peer.
	clusters, binAssign = absorbSmall(clusters, binAssign, float64(sampled)*p.AbsorbThreshold)

	// Step 8: reassign every full-resolution pixel. Matched bins map
	// directly; unmatched bins resolve once by nearest centroid and the
	// lookup is shared by all pixels in that bin.
	binToCluster := make(map[BinKey]int, len(bins))
	for i, cell := range bins {
		binToCluster[cell.key] = binAssign[i]
	}
	assignments := make([]int, n)
	for i := 0; i < n; i++ {
		key := keyFor(labL[i], labA[i], labB[i])
		id, ok := binToCluster[key]
		if !ok {
			id = nearestCluster(clusters, labL[i], labA[i], labB[i])
			binToCluster[key] = id
		}
		assignments[i] = id
	}

	// Step 9: final centroids and ratios strictly from the full-
	// resolution assignment.
	sumL := make([]float64, len(clusters))
	sumA := make([]float64, len(clusters))
	sumB := make([]float64, len(clusters))
	counts := make([]int, len(clusters))
	for i := 0; i < n; i++ {
		c := assignments[i]
		sumL[c] += labL[i]
		sumA[c] += labA[i]
		sumB[c] += labB[i]
		counts[c]++
	}

	// Clusters that won no full-resolution pixels are dropped and the
	// assignment indices renumbered.
	remap := make([]int, len(clusters))
	final := make([]Cluster, 0, len(clusters))
	for c := range clusters {
		if counts[c] == 0 {
			remap[c] = -1
			continue
		}
		remap[c] = len(final)
		cnt := float64(counts[c])
		cl := Cluster{
			L:      sumL[c] / cnt,
			A:      sumA[c] / cnt,
			B:      sumB[c] / cnt,
			Pixels: counts[c],
			Ratio:  cnt / float64(n),
		}
		cl.Red, cl.Green, cl.Blue = colorspace.LabToRGB(cl.L, cl.A, cl.B)
		final = append(final, cl)
	}
	for i := range assignments {
		assignments[i] = remap[assignments[i]]
	}

	// Step 10: segmentation render.
	seg := image.NewRGBA(image.Rect(0, 0, buf.W, buf.H))
	i := 0
	for y := 0; y < buf.H; y++ {
		for x := 0; x < buf.W; x++ {
			cl := final[assignments[i]]
			seg.SetRGBA(x, y, color.RGBA{cl.Red, cl.Green, cl.Blue, 255})
			i++
		}
	}

	return &Result{
		Clusters:     final,
		Assignments:  assignments,
		Segmentation: seg,
		StrategyUsed: strategy,
	}, nil
}

// clusterBins picks and runs the clustering strategy chain according to
// the scale guards. It never fails outward: the partitional strategy is
// the terminal fallback and each-bin-as-cluster the degenerate case.
func clusterBins(bins []*bin, p Params) ([]int, string) {
	if len(bins) <= p.TargetClusters {
		assign := make([]int, len(bins))
		for i := range assign {
			assign[i] = i
		}
		return assign, "direct"
	}

	if len(bins) > p.MaxWardBins {
		// Hierarchical clustering at this scale would blow the
		// time/memory budget; go straight to partitional.
		assign, err := newKMeansStrategy(p.Seed).cluster(bins, p.TargetClusters)
		if err != nil {
			return singleCluster(len(bins)), "kmeans"
		}
		return assign, "kmeans"
	}

	wardBins := bins
	var sampleIdx []int
	if len(bins) > p.SubsampleAbove && len(bins) > p.SubsampleTo {
		sampleIdx = subsampleIndices(len(bins), p.SubsampleTo, p.Seed)
		wardBins = make([]*bin, len(sampleIdx))
		for i, idx := range sampleIdx {
			wardBins[i] = bins[idx]
		}
	}

	strategies := []clusterStrategy{wardStrategy{}, newKMeansStrategy(p.Seed)}
	for _, s := range strategies {
		assign, err := s.cluster(wardBins, p.TargetClusters)
		if err != nil {
			logger.WithError(err).WithField("strategy", s.name()).Warn("cluster strategy failed, falling back")
			continue
		}
		if sampleIdx != nil && s.name() == "ward" {
			return spreadToAllBins(bins, wardBins, sampleIdx, assign), s.name()
		}
		if sampleIdx != nil {
			// Partitional fallback runs on the full bin set.
			full, err := s.cluster(bins, p.TargetClusters)
			if err != nil {
				continue
			}
			return full, s.name()
		}
		return assign, s.name()
	}
	return singleCluster(len(bins)), "kmeans"
}

func singleCluster(n int) []int {
	return make([]int, n)
}

// subsampleIndices draws a deterministic random subset of size to,
// returned in ascending order.
func subsampleIndices(n, to int, seed int64) []int {
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)[:to]
	sort.Ints(perm)
	return perm
}

// spreadToAllBins extends a clustering of the subsampled bins to the
// full bin set: sampled bins keep their assignment, the rest join the
// nearest cluster centroid.
func spreadToAllBins(all, sampledBins []*bin, sampleIdx, sampleAssign []int) []int {
	clusters := centroidsFromBins(sampledBins, sampleAssign)

	assign := make([]int, len(all))
	for i := range assign {
		assign[i] = -1
	}
	for i, idx := range sampleIdx {
		assign[idx] = sampleAssign[i]
	}
	for i := range all {
		if assign[i] < 0 {
			assign[i] = nearestCluster(clusters, all[i].l, all[i].a, all[i].b)
		}
	}
	return assign
}

// centroidsFromBins computes per-cluster weighted-mean centroids (bin
// means weighted by bin pixel counts).
func centroidsFromBins(bins []*bin, assign []int) []Cluster {
	k := 0
	for _, a := range assign {
		if a+1 > k {
			k = a + 1
		}
	}
	sumL := make([]float64, k)
	sumA := make([]float64, k)
	sumB := make([]float64, k)
	weights := make([]float64, k)
	counts := make([]int, k)
	for i, cell := range bins {
		c := assign[i]
		w := float64(cell.count)
		sumL[c] += cell.l * w
		sumA[c] += cell.a * w
		sumB[c] += cell.b * w
		weights[c] += w
		counts[c] += cell.count
	}

	out := make([]Cluster, k)
	for c := 0; c < k; c++ {
		if weights[c] > 0 {
			out[c] = Cluster{
				L:      sumL[c] / weights[c],
				A:      sumA[c] / weights[c],
				B:      sumB[c] / weights[c],
				Pixels: counts[c],
			}
		}
	}
	return out
}

// absorbSmall merges clusters below the population threshold into their
// nearest non-small cluster by perceptual distance, then recomputes the
// merged centroids. If every cluster is small, merging is skipped.
func absorbSmall(clusters []Cluster, binAssign []int, threshold float64) ([]Cluster, []int) {
	large := make([]int, 0, len(clusters))
	for c := range clusters {
		if float64(clusters[c].Pixels) >= threshold {
			large = append(large, c)
		}
	}
	if len(large) == 0 || len(large) == len(clusters) {
		return clusters, binAssign
	}

	// Old index -> compacted new index for surviving clusters; small
	// clusters route to their nearest survivor.
	remap := make([]int, len(clusters))
	for i := range remap {
		remap[i] = -1
	}
	for newID, c := range large {
		remap[c] = newID
	}
	for c := range clusters {
		if remap[c] >= 0 {
			continue
		}
		best := large[0]
		bestD := math.Inf(1)
		for _, lc := range large {
			dl := clusters[c].L - clusters[lc].L
			da := clusters[c].A - clusters[lc].A
			db := clusters[c].B - clusters[lc].B
			d := dl*dl + da*da + db*db
			if d < bestD {
				bestD = d
				best = lc
			}
		}
		remap[c] = remap[best]
	}

	merged := make([]int, len(binAssign))
	for i, a := range binAssign {
		merged[i] = remap[a]
	}

	// Recompute merged centroids from the underlying weights.
	out := make([]Cluster, len(large))
	sumL := make([]float64, len(large))
	sumA := make([]float64, len(large))
	sumB := make([]float64, len(large))
	weights := make([]float64, len(large))
	counts := make([]int, len(large))
	for c := range clusters {
		nc := remap[c]
		w := float64(clusters[c].Pixels)
		sumL[nc] += clusters[c].L * w
		sumA[nc] += clusters[c].A * w
		sumB[nc] += clusters[c].B * w
		weights[nc] += w
		counts[nc] += clusters[c].Pixels
	}
	for c := range out {
		if weights[c] > 0 {
			out[c] = Cluster{
				L:      sumL[c] / weights[c],
				A:      sumA[c] / weights[c],
				B:      sumB[c] / weights[c],
				Pixels: counts[c],
			}
		}
	}
	return out, merged
}

// nearestCluster returns the index of the closest centroid in Lab
// space, breaking ties toward the lowest index.
func nearestCluster(clusters []Cluster, l, a, b float64) int {
	best := 0
	bestD := math.Inf(1)
	for c := range clusters {
		dl := l - clusters[c].L
		da := a - clusters[c].A
		db := b - clusters[c].B
		d := dl*dl + da*da + db*db
		if d < bestD {
			bestD = d
			best = c
		}
	}
	return best
}
