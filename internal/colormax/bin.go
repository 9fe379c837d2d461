package colormax

import (
	"math"
	"sort"
)

// BinKey identifies a perceptual-space cell. The explicit struct key
// (rather than a packed integer) keeps equality and ordering well
// defined even if band counts change.
type BinKey struct {
	LBand      int
	HueBand    int
	ChromaBand int
}

// Less orders keys lexicographically by (L, hue, chroma).
func (k BinKey) Less(o BinKey) bool {
	if k.LBand != o.LBand {
		return k.LBand < o.LBand
	}
	if k.HueBand != o.HueBand {
		return k.HueBand < o.HueBand
	}
	return k.ChromaBand < o.ChromaBand
}

// keyFor discretizes a Lab sample into its bin.
func keyFor(l, a, b float64) BinKey {
	lBand := int(l / 100.0 * LBands)
	if lBand >= LBands {
		lBand = LBands - 1
	}
	if lBand < 0 {
		lBand = 0
	}

	hue := math.Atan2(b, a) * 180.0 / math.Pi
	if hue < 0 {
		hue += 360.0
	}
	hueBand := int(hue / 360.0 * HueBands)
	if hueBand >= HueBands {
		hueBand = HueBands - 1
	}

	chroma := math.Hypot(a, b)
	chromaBand := 0
	if chroma >= chromaThresholdHigh {
		chromaBand = 2
	} else if chroma >= chromaThresholdLow {
		chromaBand = 1
	}

	return BinKey{LBand: lBand, HueBand: hueBand, ChromaBand: chromaBand}
}

// bin accumulates the sampled pixels of one perceptual cell.
type bin struct {
	key     BinKey
	l, a, b float64 // running mean
	count   int
}

// binTable aggregates samples into bins keyed by BinKey.
type binTable struct {
	cells map[BinKey]*bin
}

func newBinTable() *binTable {
	return &binTable{cells: make(map[BinKey]*bin)}
}

func (t *binTable) add(l, a, b float64) {
	key := keyFor(l, a, b)
	cell, ok := t.cells[key]
	if !ok {
		cell = &bin{key: key}
		t.cells[key] = cell
	}
	cell.count++
	inv := 1.0 / float64(cell.count)
	cell.l += (l - cell.l) * inv
	cell.a += (a - cell.a) * inv
	cell.b += (b - cell.b) * inv
}

// sorted returns the bins in deterministic key order.
func (t *binTable) sorted() []*bin {
	out := make([]*bin, 0, len(t.cells))
	for _, cell := range t.cells {
		out = append(out, cell)
	}
	sortBins(out)
	return out
}

func sortBins(bins []*bin) {
	sort.Slice(bins, func(i, j int) bool { return bins[i].key.Less(bins[j].key) })
}
