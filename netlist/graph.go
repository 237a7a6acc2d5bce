package netlist

import (
	"fmt"

	"github.com/ABKGroup/chipletpart/cherr"
	"gonum.org/v1/gonum/mat"
)

// ConnectivityGraph holds, per IO type, an N x N adjacency matrix (wire
// counts) and an N x N utilization matrix (bandwidth fractions), both
// indexed consistently against BlockNames. Both maps must share exactly
// the same key set, and every matrix must be square with dimension
// len(BlockNames).
type ConnectivityGraph struct {
	BlockNames   []string
	Adjacency    map[string]*mat.Dense
	Utilization  map[string]*mat.Dense
}

// NewConnectivityGraph allocates a ConnectivityGraph over blockNames with
// zeroed matrices for each ioType in ioTypes.
func NewConnectivityGraph(blockNames []string, ioTypes []string) *ConnectivityGraph {
	n := len(blockNames)
	g := &ConnectivityGraph{
		BlockNames:  append([]string(nil), blockNames...),
		Adjacency:   make(map[string]*mat.Dense, len(ioTypes)),
		Utilization: make(map[string]*mat.Dense, len(ioTypes)),
	}
	for _, io := range ioTypes {
		g.Adjacency[io] = mat.NewDense(n, n, nil)
		g.Utilization[io] = mat.NewDense(n, n, nil)
	}
	return g
}

// Validate checks the shared-key-set and square-matrix invariants.
func (g *ConnectivityGraph) Validate() error {
	n := len(g.BlockNames)
	if len(g.Adjacency) != len(g.Utilization) {
		return &cherr.InvalidPartition{Reason: "adjacency and utilization IO-type key sets differ in size"}
	}
	for ioType, adj := range g.Adjacency {
		util, ok := g.Utilization[ioType]
		if !ok {
			return &cherr.InvalidPartition{Reason: fmt.Sprintf("io type %q present in adjacency but not utilization", ioType)}
		}
		ra, ca := adj.Dims()
		ru, cu := util.Dims()
		if ra != n || ca != n || ru != n || cu != n {
			return &cherr.SizeMismatch{Context: "connectivity matrix for io type " + ioType, Expected: n, Got: ra}
		}
	}
	return nil
}

// IoTypes returns the set of IO type keys, unsorted (map iteration order).
func (g *ConnectivityGraph) IoTypes() []string {
	out := make([]string, 0, len(g.Adjacency))
	for io := range g.Adjacency {
		out = append(out, io)
	}
	return out
}

// indexOf returns the index of name in BlockNames, or -1.
func (g *ConnectivityGraph) indexOf(name string) int {
	for i, n := range g.BlockNames {
		if n == name {
			return i
		}
	}
	return -1
}

// Combine produces a k x k ConnectivityGraph over partition IDs 0..k-1 by
// summing every block-pair entry whose blocks fall in partitions (p, q)
// into cell (p, q) of the result, for both adjacency and utilization, for
// every IO type. This is the "combine the connectivity graph by
// partition" step the cost evaluator uses to build the Chip Tree's
// inter-partition wiring.
func (g *ConnectivityGraph) Combine(partitionIDs []int, numPartitions int) (*ConnectivityGraph, error) {
	if len(partitionIDs) != len(g.BlockNames) {
		return nil, &cherr.SizeMismatch{Context: "partitionIDs vs blocks", Expected: len(g.BlockNames), Got: len(partitionIDs)}
	}
	partNames := make([]string, numPartitions)
	for p := range partNames {
		partNames[p] = fmt.Sprintf("partition_%d", p)
	}
	out := NewConnectivityGraph(partNames, g.IoTypes())
	n := len(g.BlockNames)
	for ioType, adj := range g.Adjacency {
		util := g.Utilization[ioType]
		outAdj := out.Adjacency[ioType]
		outUtil := out.Utilization[ioType]
		for i := 0; i < n; i++ {
			pi := partitionIDs[i]
			for j := 0; j < n; j++ {
				pj := partitionIDs[j]
				if a := adj.At(i, j); a != 0 {
					outAdj.Set(pi, pj, outAdj.At(pi, pj)+a)
				}
				if u := util.At(i, j); u != 0 {
					outUtil.Set(pi, pj, outUtil.At(pi, pj)+u)
				}
			}
		}
	}
	return out, nil
}

// PerturbPartitionUtilization returns a deep copy of g with every
// utilization entry incident to a block in partition p (i.e. either its
// row or column block belongs to p) scaled by (1+delta), for every IO
// type. Used by the cost evaluator's bandwidth-slope estimation.
func (g *ConnectivityGraph) PerturbPartitionUtilization(partitionIDs []int, p int, delta float64) *ConnectivityGraph {
	n := len(g.BlockNames)
	out := &ConnectivityGraph{
		BlockNames:  append([]string(nil), g.BlockNames...),
		Adjacency:   make(map[string]*mat.Dense, len(g.Adjacency)),
		Utilization: make(map[string]*mat.Dense, len(g.Utilization)),
	}
	for ioType, adj := range g.Adjacency {
		out.Adjacency[ioType] = mat.DenseCopyOf(adj)
	}
	for ioType, util := range g.Utilization {
		cp := mat.DenseCopyOf(util)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i < len(partitionIDs) && partitionIDs[i] == p {
					cp.Set(i, j, cp.At(i, j)*(1+delta))
					continue
				}
				if j < len(partitionIDs) && partitionIDs[j] == p {
					cp.Set(i, j, cp.At(i, j)*(1+delta))
				}
			}
		}
		out.Utilization[ioType] = cp
	}
	return out
}

// TotalAdjacency returns the total adjacency count, summed over all IO
// types and both directions (i,j) and (j,i), between blockName and every
// other block. Self-entries are excluded.
func (g *ConnectivityGraph) TotalAdjacency(blockName string) (float64, error) {
	i := g.indexOf(blockName)
	if i == -1 {
		return 0, &cherr.InvalidPartition{Reason: "unknown block " + blockName}
	}
	var total float64
	for _, adj := range g.Adjacency {
		n, _ := adj.Dims()
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			total += adj.At(i, j) + adj.At(j, i)
		}
	}
	return total, nil
}
