package refine

// FMLiteRefiner is a reference Refiner: a single pass of Fiduccia-Mattheyses
// style gain-based vertex moves. For each vertex, in index order, it
// computes the hyperedge-weight gain of moving to every other partition
// (weight of edges to that partition minus weight of edges to its current
// one) and moves it to the best-gaining partition that would not violate
// upper[p] (upper[p] <= 0 means unbounded); a vertex with no strictly
// positive gain stays where it is. This is "one pass" per §4.6 (no repeated sweeps to a local optimum),
// matching the spec's "run one pass of the external refiner" contract.
type FMLiteRefiner struct{}

func (FMLiteRefiner) Refine(h *Hypergraph, upper, lower []float64, partition []int) {
	k := len(upper)
	if k == 0 {
		return
	}
	load := make([]float64, k)
	for v, p := range partition {
		if p >= 0 && p < k {
			load[p] += h.VertexWeights[v]
		}
	}

	for v := 0; v < h.NumVertices; v++ {
		cur := partition[v]
		gain := make([]float64, k)
		var internal float64
		for _, e := range h.Edges[v] {
			if e.To >= len(partition) {
				continue
			}
			np := partition[e.To]
			if np == cur {
				internal += e.Weight
				continue
			}
			gain[np] += e.Weight
		}
		best := cur
		bestGain := 0.0
		for p := 0; p < k; p++ {
			if p == cur {
				continue
			}
			w := h.VertexWeights[v]
			if upper[p] > 0 && load[p]+w > upper[p] {
				continue
			}
			if gain[p]-internal > bestGain {
				bestGain = gain[p] - internal
				best = p
			}
		}
		if best != cur {
			load[cur] -= h.VertexWeights[v]
			load[best] += h.VertexWeights[v]
			partition[v] = best
		}
	}
}
