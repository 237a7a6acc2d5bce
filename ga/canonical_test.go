package ga

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamSplitterDeterministicAndDistinct(t *testing.T) {
	s := NewStreamSplitter(42)
	a := s.For(3, 1).Int63()
	b := s.For(3, 1).Int63()
	require.Equal(t, a, b, "same (generation, index) must reproduce the same stream")

	c := s.For(3, 2).Int63()
	require.NotEqual(t, a, c, "different index must (almost certainly) derive a different stream")
}

func TestFitnessCacheGetOrComputeCachesByKey(t *testing.T) {
	c := newFitnessCache()
	calls := 0
	compute := func() cacheEntry {
		calls++
		return cacheEntry{cost: 7, partition: []int{0, 1}}
	}
	e1 := c.getOrCompute("k", compute)
	e2 := c.getOrCompute("k", compute)
	require.Equal(t, 1, calls, "a second getOrCompute on the same key must not recompute")
	require.Equal(t, e1, e2)
	require.Equal(t, 1, c.size())
}

func TestCanonicalizeIsPermutationInvariant(t *testing.T) {
	g := NewCanonicalGA(CanonicalGAConfig{
		AvailableTechNodes: []string{"10nm", "7nm", "14nm"},
	}, func(tech []string) (float64, []int) { return 0, nil })

	a := []string{"10nm", "7nm", "10nm", "14nm", "7nm", "7nm"}
	b := []string{"7nm", "7nm", "14nm", "10nm", "7nm", "10nm"}

	require.Equal(t, g.Canonicalize(a), g.Canonicalize(b))
}

func TestCanonicalizeOrdersByFrequencyThenID(t *testing.T) {
	g := NewCanonicalGA(CanonicalGAConfig{
		AvailableTechNodes: []string{"10nm", "7nm", "14nm"},
	}, func(tech []string) (float64, []int) { return 0, nil })

	got := g.Canonicalize([]string{"14nm", "10nm", "7nm", "7nm"})
	require.Equal(t, []string{"7nm", "7nm", "10nm", "14nm"}, got, "7nm has highest frequency (2); 10nm/14nm tie at 1 and break by ascending tech id (10nm=0, 14nm=2)")
}

func TestCanonicalKeySameForPermutedVectors(t *testing.T) {
	g := NewCanonicalGA(CanonicalGAConfig{
		AvailableTechNodes: []string{"10nm", "7nm"},
	}, func(tech []string) (float64, []int) { return 0, nil })

	k1 := g.canonicalKey(g.Canonicalize([]string{"10nm", "7nm"}))
	k2 := g.canonicalKey(g.Canonicalize([]string{"7nm", "10nm"}))
	require.Equal(t, k1, k2)
}

func TestCanonicalGAEvaluateUsesSharedCache(t *testing.T) {
	calls := 0
	g := NewCanonicalGA(CanonicalGAConfig{
		AvailableTechNodes: []string{"10nm", "7nm"},
	}, func(tech []string) (float64, []int) {
		calls++
		return 5, []int{0, 1}
	})

	cost1, _ := g.evaluate([]string{"10nm", "7nm"})
	cost2, _ := g.evaluate([]string{"7nm", "10nm"}) // same multiset, permuted
	require.Equal(t, 1, calls, "permuted-but-equivalent tech vectors must hit the shared cache rather than re-invoke the oracle")
	require.Equal(t, cost1, cost2)
}

func TestCanonicalGARunConvergesToFiniteCost(t *testing.T) {
	g := NewCanonicalGA(CanonicalGAConfig{
		AvailableTechNodes: []string{"10nm", "7nm"},
		Population:         6,
		Generations:        4,
		MinPartitions:      2,
		MaxPartitions:      3,
		Seed:               1,
	}, func(tech []string) (float64, []int) {
		// prefer more 7nm tags: cost = count of 10nm tags
		cost := 0.0
		for _, t := range tech {
			if t == "10nm" {
				cost++
			}
		}
		return cost, make([]int, len(tech))
	})

	sol := g.Run()
	require.False(t, math.IsInf(sol.Cost, 1))
	require.NotEmpty(t, sol.TechNodes)
}

func TestValidateTechVectorRejectsUnknownNode(t *testing.T) {
	g := NewCanonicalGA(CanonicalGAConfig{
		AvailableTechNodes: []string{"10nm"},
	}, func(tech []string) (float64, []int) { return 0, nil })

	err := g.validateTechVector([]string{"10nm", "not-a-node"})
	require.Error(t, err)
}
