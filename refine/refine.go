// Package refine defines §6.3's external-collaborator contract (the
// hypergraph refiner, floorplanner, and METIS/spectral partitioners the
// Hybrid GA's fitness evaluation calls between mutation and scoring) and
// ships modest reference implementations behind it.
//
// The real ChipletPart/ChipletRefiner C++ libraries are out of scope per
// §1; the reference implementations here are intentionally simple (a
// greedy row-tiling floorplanner, a single-pass FM-lite refiner,
// a round-robin METIS-style partitioner, a degree-based spectral-style
// partitioner) so ga.HybridGA can run end-to-end without an external
// binary.
package refine

import "github.com/ABKGroup/chipletpart/netlist"

// Hypergraph is the vertex-weighted, hyperedge-weighted graph the
// refiner and partitioners operate over: one vertex per netlist block,
// one hyperedge per distinct connectivity entry (summed across IO types).
type Hypergraph struct {
	NumVertices   int
	VertexWeights []float64 // total area+power proxy per vertex
	// Edges[i] lists, for vertex i, the (neighbor, weight) pairs derived
	// from the connectivity graph's adjacency matrices (summed over IO
	// types). Edges[i] takes its weights from row i only, so a pair appears
	// from both ends only when the adjacency has both (i,j) and (j,i) set.
	Edges [][]Edge
}

// Edge is one weighted neighbor relation in a Hypergraph.
type Edge struct {
	To     int
	Weight float64
}

// BuildHypergraph flattens a netlist ConnectivityGraph + per-block
// area/power into the Hypergraph the refiner/floorplanner/partitioner
// collaborators consume.
func BuildHypergraph(blocks []netlist.Block, graph *netlist.ConnectivityGraph) *Hypergraph {
	n := len(blocks)
	h := &Hypergraph{NumVertices: n, VertexWeights: make([]float64, n), Edges: make([][]Edge, n)}
	for i, b := range blocks {
		h.VertexWeights[i] = b.Area + b.Power
	}
	weight := make([][]float64, n)
	for i := range weight {
		weight[i] = make([]float64, n)
	}
	for _, adj := range graph.Adjacency {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				weight[i][j] += adj.At(i, j)
			}
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if weight[i][j] > 0 {
				h.Edges[i] = append(h.Edges[i], Edge{To: j, Weight: weight[i][j]})
			}
		}
	}
	return h
}

// FloorplanResult is what RunFloorplanner returns: per-partition aspect
// ratios and (x,y) locations, plus a success flag. Per §4.6, a
// success=false result marks the candidate invalid.
type FloorplanResult struct {
	AspectRatios []float64
	X, Y         []float64
	Success      bool
}

// Floorplanner is §6.3's RunFloorplanner collaborator.
type Floorplanner interface {
	RunFloorplanner(partition []int, h *Hypergraph, iters int, seed int64) FloorplanResult
}

// Refiner is §6.3's Refine collaborator: one FM-style improvement pass
// over partition, in place, subject to per-partition upper/lower balance
// bounds.
type Refiner interface {
	Refine(h *Hypergraph, upper, lower []float64, partition []int)
}

// Partitioner exposes the METISPart/SpectralPartition/GetNumVertices
// collaborators §6.3 requires of the refinement library.
type Partitioner interface {
	METISPart(h *Hypergraph, k int) []int
	SpectralPartition(h *Hypergraph, k int) []int
	GetNumVertices(h *Hypergraph) int
}
