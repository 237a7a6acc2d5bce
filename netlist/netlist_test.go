package netlist

import (
	"errors"
	"testing"

	"github.com/ABKGroup/chipletpart/cherr"
	"github.com/stretchr/testify/require"
)

func TestNewBlockRejectsNegativeArea(t *testing.T) {
	_, err := NewBlock("b", -1, 1, "10nm", false)
	var rv *cherr.RangeViolation
	require.True(t, errors.As(err, &rv))
}

func TestNewBlockRejectsNegativePower(t *testing.T) {
	_, err := NewBlock("b", 1, -1, "10nm", false)
	var rv *cherr.RangeViolation
	require.True(t, errors.As(err, &rv))
}

func TestNewBlockAccepts(t *testing.T) {
	b, err := NewBlock("b", 1, 2, "10nm", true)
	require.NoError(t, err)
	require.Equal(t, "b", b.Name)
	require.True(t, b.IsMemory)
}

func TestConnectivityGraphValidate(t *testing.T) {
	g := NewConnectivityGraph([]string{"a", "b", "c"}, []string{"signal"})
	require.NoError(t, g.Validate())

	delete(g.Utilization, "signal")
	require.Error(t, g.Validate())
}

func TestCombineSumsBlockPairsIntoPartitionCells(t *testing.T) {
	g := NewConnectivityGraph([]string{"a", "b", "c", "d"}, []string{"signal"})
	// a,b -> partition 0; c,d -> partition 1
	g.Adjacency["signal"].Set(0, 2, 3) // a-c
	g.Adjacency["signal"].Set(1, 2, 4) // b-c
	g.Adjacency["signal"].Set(0, 1, 9) // a-b, same partition, stays within partition 0 cell

	combined, err := g.Combine([]int{0, 0, 1, 1}, 2)
	require.NoError(t, err)

	require.Equal(t, 7.0, combined.Adjacency["signal"].At(0, 1), "a-c and b-c both cross from partition 0 to partition 1")
	require.Equal(t, 9.0, combined.Adjacency["signal"].At(0, 0), "a-b is an intra-partition-0 edge")
	require.Equal(t, 0.0, combined.Adjacency["signal"].At(1, 1))
}

func TestCombineRejectsSizeMismatch(t *testing.T) {
	g := NewConnectivityGraph([]string{"a", "b"}, []string{"signal"})
	_, err := g.Combine([]int{0, 0, 1}, 2)
	var sm *cherr.SizeMismatch
	require.True(t, errors.As(err, &sm))
}

func TestPerturbPartitionUtilizationOnlyScalesIncidentEntries(t *testing.T) {
	g := NewConnectivityGraph([]string{"a", "b", "c"}, []string{"signal"})
	g.Utilization["signal"].Set(0, 1, 1) // a-b, incident to partition 0 (a)
	g.Utilization["signal"].Set(1, 2, 2) // b-c, not incident to partition 0

	perturbed := g.PerturbPartitionUtilization([]int{0, 1, 1}, 0, 0.5)
	require.InDelta(t, 1.5, perturbed.Utilization["signal"].At(0, 1), 1e-9)
	require.InDelta(t, 2.0, perturbed.Utilization["signal"].At(1, 2), 1e-9, "entries with neither endpoint in partition 0 must be left untouched")

	// original graph must not be mutated
	require.Equal(t, 1.0, g.Utilization["signal"].At(0, 1))
}

func TestTotalAdjacencySumsBothDirections(t *testing.T) {
	g := NewConnectivityGraph([]string{"a", "b", "c"}, []string{"signal"})
	g.Adjacency["signal"].Set(0, 1, 2)
	g.Adjacency["signal"].Set(1, 0, 3)
	g.Adjacency["signal"].Set(0, 2, 1)

	total, err := g.TotalAdjacency("a")
	require.NoError(t, err)
	require.Equal(t, 6.0, total)
}

func TestTotalAdjacencyUnknownBlock(t *testing.T) {
	g := NewConnectivityGraph([]string{"a"}, []string{"signal"})
	_, err := g.TotalAdjacency("nope")
	require.Error(t, err)
}

func TestNumPartitions(t *testing.T) {
	require.Equal(t, 3, NumPartitions([]int{0, 2, 1, 0}))
	require.Equal(t, 0, NumPartitions(nil))
}

func TestValidateDetectsGapsAndNegatives(t *testing.T) {
	require.NoError(t, Validate([]int{0, 1, 1, 2}))

	_, errGap := Validate([]int{0, 2}), Validate([]int{0, 2})
	require.Error(t, errGap)

	require.Error(t, Validate([]int{-1, 0}))
	require.Error(t, Validate(nil))
}

func TestCompactRemapsPreservingFirstSeenOrder(t *testing.T) {
	out, k := Compact([]int{5, 5, 9, 2, 9})
	require.Equal(t, []int{0, 0, 1, 2, 1}, out)
	require.Equal(t, 3, k)
}

func TestPartitionVectorGroupsByID(t *testing.T) {
	groups := PartitionVector([]int{0, 1, 0, 2}, 3)
	require.Equal(t, [][]int{{0, 2}, {1}, {3}}, groups)
}
