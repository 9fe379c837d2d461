package colormax

import (
	"errors"
	"math"
)

var errSizeMismatch = errors.New("colormax: bin/cluster index size mismatch")

// clusterStrategy groups bins into at most target clusters and returns
// the bin→cluster assignment. Strategies share this contract so the
// engine can try them in order and fall through on failure.
type clusterStrategy interface {
	name() string
	cluster(bins []*bin, target int) ([]int, error)
}

// wardStrategy is agglomerative hierarchical clustering with Ward
// linkage on bin centroids, cut at the target cluster count. Bins are
// weighted by their pixel counts, so the merge criterion minimizes the
// increase in within-cluster variance over the sampled pixels.
type wardStrategy struct{}

func (wardStrategy) name() string { return "ward" }

// wardDist is the Ward merge cost between two weighted centroids.
func wardDist(wa float64, la, aa, ba float64, wb float64, lb, ab, bb float64) float64 {
	dl := la - lb
	da := aa - ab
	db := ba - bb
	return wa * wb / (wa + wb) * (dl*dl + da*da + db*db)
}

func (wardStrategy) cluster(bins []*bin, target int) ([]int, error) {
	n := len(bins)
	if n == 0 {
		return nil, errSizeMismatch
	}
	if target < 1 {
		target = 1
	}

	// Active agglomeration state. Each node carries its weighted
	// centroid and the indices of its member bins.
	type node struct {
		l, a, b float64
		weight  float64
		members []int
		active  bool
	}
	nodes := make([]node, n)
	for i, cell := range bins {
		nodes[i] = node{
			l: cell.l, a: cell.a, b: cell.b,
			weight:  float64(cell.count),
			members: []int{i},
			active:  true,
		}
	}

	remaining := n
	// Nearest-neighbor chain agglomeration. Ward linkage is reducible,
	// so merging the ends of a reciprocal-nearest-neighbor pair never
	// invalidates the rest of the chain.
	chain := make([]int, 0, n)

	nearest := func(c int) (int, float64) {
		best := -1
		bestD := math.Inf(1)
		nc := nodes[c]
		for j := range nodes {
			if j == c || !nodes[j].active {
				continue
			}
			d := wardDist(nc.weight, nc.l, nc.a, nc.b, nodes[j].weight, nodes[j].l, nodes[j].a, nodes[j].b)
			if d < bestD || (d == bestD && j < best) {
				bestD = d
				best = j
			}
		}
		return best, bestD
	}

	firstActive := func() int {
		for i := range nodes {
			if nodes[i].active {
				return i
			}
		}
		return -1
	}

	for remaining > target {
		if len(chain) == 0 {
			c := firstActive()
			if c < 0 {
				return nil, errSizeMismatch
			}
			chain = append(chain, c)
		}
		c := chain[len(chain)-1]
		nn, _ := nearest(c)
		if nn < 0 {
			return nil, errSizeMismatch
		}
		if len(chain) >= 2 && nn == chain[len(chain)-2] {
			// Reciprocal nearest neighbors: merge into the lower
			// index for deterministic cluster identity.
			i, j := nn, c
			if j < i {
				i, j = j, i
			}
			wi, wj := nodes[i].weight, nodes[j].weight
			wt := wi + wj
			nodes[i].l = (nodes[i].l*wi + nodes[j].l*wj) / wt
			nodes[i].a = (nodes[i].a*wi + nodes[j].a*wj) / wt
			nodes[i].b = (nodes[i].b*wi + nodes[j].b*wj) / wt
			nodes[i].weight = wt
			nodes[i].members = append(nodes[i].members, nodes[j].members...)
			nodes[j].active = false
			nodes[j].members = nil
			chain = chain[:len(chain)-2]
			remaining--
		} else {
			chain = append(chain, nn)
		}
	}

	// Emit assignments; cluster ids follow ascending node index.
	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	id := 0
	for i := range nodes {
		if !nodes[i].active {
			continue
		}
		for _, m := range nodes[i].members {
			if m < 0 || m >= n {
				return nil, errSizeMismatch
			}
			assign[m] = id
		}
		id++
	}
	for _, a := range assign {
		if a < 0 {
			return nil, errSizeMismatch
		}
	}
	return assign, nil
}
