package refine

import "sort"

// RoundRobinPartitioner is a reference Partitioner whose METISPart
// implementation assigns vertices to partitions round-robin in index
// order — a deterministic, balanced (within one vertex) stand-in for the
// real METIS multilevel partitioner.
type RoundRobinPartitioner struct{}

func (RoundRobinPartitioner) METISPart(h *Hypergraph, k int) []int {
	return roundRobinPartition(h.NumVertices, k)
}

// SpectralPartition here is a degree-based approximation: vertices are
// sorted by descending total incident edge weight (a one-dimensional
// stand-in for a Fiedler-vector ordering) and then striped round-robin
// across partitions, so well-connected vertices are spread rather than
// clustered — approximating what a real spectral cut tends to produce
// without computing the graph Laplacian's eigenvectors.
func (RoundRobinPartitioner) SpectralPartition(h *Hypergraph, k int) []int {
	degree := make([]float64, h.NumVertices)
	for v, edges := range h.Edges {
		for _, e := range edges {
			degree[v] += e.Weight
		}
	}
	order := make([]int, h.NumVertices)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return degree[order[i]] > degree[order[j]] })

	partition := make([]int, h.NumVertices)
	if k <= 0 {
		return partition
	}
	for rank, v := range order {
		partition[v] = rank % k
	}
	return partition
}

func (RoundRobinPartitioner) GetNumVertices(h *Hypergraph) int {
	return h.NumVertices
}

func roundRobinPartition(n, k int) []int {
	out := make([]int, n)
	if k <= 0 {
		return out
	}
	for i := range out {
		out[i] = i % k
	}
	return out
}
