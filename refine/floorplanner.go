package refine

import "math"

// GreedyFloorplanner is a reference Floorplanner: it assigns every
// partition a unit aspect ratio and tiles partitions left-to-right along
// the x axis in proportion to their summed vertex weight, stacking a new
// row once the running width exceeds a target span. It never fails (it
// always reports Success=true), since it has no external geometry
// constraints to violate; RunFloorplanner's seed and iters parameters are
// accepted for interface compatibility but do not affect this
// deterministic placement.
type GreedyFloorplanner struct {
	// TargetAspectRatio biases the row-wrap width; defaults to 1 when
	// zero (via RunFloorplanner, not the zero value itself).
	TargetAspectRatio float64
}

func (g GreedyFloorplanner) RunFloorplanner(partition []int, h *Hypergraph, iters int, seed int64) FloorplanResult {
	k := netlistNumPartitions(partition)
	weights := make([]float64, k)
	for v, p := range partition {
		if p >= 0 && p < k && v < len(h.VertexWeights) {
			weights[p] += h.VertexWeights[v]
		}
	}
	target := g.TargetAspectRatio
	if target <= 0 {
		target = 1
	}

	var totalWeight float64
	for _, w := range weights {
		totalWeight += w
	}
	rowWidth := math.Sqrt(totalWeight * target)
	if rowWidth <= 0 {
		rowWidth = 1
	}

	aspect := make([]float64, k)
	xs := make([]float64, k)
	ys := make([]float64, k)
	var curX, curY, rowHeight float64
	for p := 0; p < k; p++ {
		side := math.Sqrt(weights[p])
		if side <= 0 {
			side = 0.01
		}
		if curX+side > rowWidth && curX > 0 {
			curX = 0
			curY += rowHeight
			rowHeight = 0
		}
		aspect[p] = 1
		xs[p] = curX
		ys[p] = curY
		curX += side
		if side > rowHeight {
			rowHeight = side
		}
	}
	return FloorplanResult{AspectRatios: aspect, X: xs, Y: ys, Success: true}
}

func netlistNumPartitions(partition []int) int {
	max := -1
	for _, p := range partition {
		if p > max {
			max = p
		}
	}
	return max + 1
}
