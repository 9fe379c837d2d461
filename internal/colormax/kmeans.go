package colormax

import (
	"math"
	"math/rand"
)

// kmeansStrategy is the partitional fallback used when the bin count
// makes hierarchical clustering infeasible, or when it fails. It runs
// weighted k-means on bin centroids with seeded k-means++ initialization
// so results are reproducible.
type kmeansStrategy struct {
	seed          int64
	maxIterations int
}

func newKMeansStrategy(seed int64) kmeansStrategy {
	return kmeansStrategy{seed: seed, maxIterations: 30}
}

func (kmeansStrategy) name() string { return "kmeans" }

func (s kmeansStrategy) cluster(bins []*bin, target int) ([]int, error) {
	n := len(bins)
	if n == 0 {
		return nil, errSizeMismatch
	}
	if target > n {
		target = n
	}
	if target < 1 {
		target = 1
	}

	rng := rand.New(rand.NewSource(s.seed))

	type point struct{ l, a, b, w float64 }
	pts := make([]point, n)
	for i, cell := range bins {
		pts[i] = point{cell.l, cell.a, cell.b, float64(cell.count)}
	}

	sq := func(p point, cl, ca, cb float64) float64 {
		dl := p.l - cl
		da := p.a - ca
		db := p.b - cb
		return dl*dl + da*da + db*db
	}

	// k-means++ seeding over weighted points.
	centL := make([]float64, 0, target)
	centA := make([]float64, 0, target)
	centB := make([]float64, 0, target)
	first := rng.Intn(n)
	centL = append(centL, pts[first].l)
	centA = append(centA, pts[first].a)
	centB = append(centB, pts[first].b)

	minDist := make([]float64, n)
	for len(centL) < target {
		total := 0.0
		for i, p := range pts {
			d := math.Inf(1)
			for c := range centL {
				if dd := sq(p, centL[c], centA[c], centB[c]); dd < d {
					d = dd
				}
			}
			minDist[i] = d * p.w
			total += minDist[i]
		}
		if total <= 0 {
			// All remaining points coincide with a center.
			centL = append(centL, pts[0].l)
			centA = append(centA, pts[0].a)
			centB = append(centB, pts[0].b)
			continue
		}
		pick := rng.Float64() * total
		idx := n - 1
		acc := 0.0
		for i, d := range minDist {
			acc += d
			if acc >= pick {
				idx = i
				break
			}
		}
		centL = append(centL, pts[idx].l)
		centA = append(centA, pts[idx].a)
		centB = append(centB, pts[idx].b)
	}

	assign := make([]int, n)
	for iter := 0; iter < s.maxIterations; iter++ {
		changed := false
		for i, p := range pts {
			best := 0
			bestD := sq(p, centL[0], centA[0], centB[0])
			for c := 1; c < len(centL); c++ {
				if d := sq(p, centL[c], centA[c], centB[c]); d < bestD {
					bestD = d
					best = c
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		sumL := make([]float64, len(centL))
		sumA := make([]float64, len(centL))
		sumB := make([]float64, len(centL))
		sumW := make([]float64, len(centL))
		for i, p := range pts {
			c := assign[i]
			sumL[c] += p.l * p.w
			sumA[c] += p.a * p.w
			sumB[c] += p.b * p.w
			sumW[c] += p.w
		}
		for c := range centL {
			if sumW[c] > 0 {
				centL[c] = sumL[c] / sumW[c]
				centA[c] = sumA[c] / sumW[c]
				centB[c] = sumB[c] / sumW[c]
			} else {
				// Re-seed an empty cluster on the heaviest point.
				heavy := 0
				for i := range pts {
					if pts[i].w > pts[heavy].w {
						heavy = i
					}
				}
				centL[c] = pts[heavy].l
				centA[c] = pts[heavy].a
				centB[c] = pts[heavy].b
			}
		}
	}

	return compactAssignments(assign), nil
}

// compactAssignments renumbers cluster ids to a dense 0..k-1 range in
// order of first appearance by ascending bin index.
func compactAssignments(assign []int) []int {
	remap := make(map[int]int)
	next := 0
	out := make([]int, len(assign))
	for i, a := range assign {
		id, ok := remap[a]
		if !ok {
			id = next
			remap[a] = id
			next++
		}
		out[i] = id
	}
	return out
}
