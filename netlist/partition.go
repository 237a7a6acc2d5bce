package netlist

import (
	"strconv"

	"github.com/ABKGroup/chipletpart/cherr"
)

// NumPartitions returns max(partitionIDs)+1, the canonical partition
// count for a dense (gap-free) partition vector.
func NumPartitions(partitionIDs []int) int {
	max := -1
	for _, p := range partitionIDs {
		if p > max {
			max = p
		}
	}
	return max + 1
}

// Validate checks that partitionIDs is non-empty, holds only non-negative
// IDs, and is dense (every ID in [0, max] appears at least once).
func Validate(partitionIDs []int) error {
	if len(partitionIDs) == 0 {
		return &cherr.InvalidPartition{Reason: "empty partition vector"}
	}
	k := NumPartitions(partitionIDs)
	seen := make([]bool, k)
	for _, p := range partitionIDs {
		if p < 0 {
			return &cherr.InvalidPartition{Reason: "negative partition id"}
		}
		seen[p] = true
	}
	for id, ok := range seen {
		if !ok {
			return &cherr.InvalidPartition{Reason: "gap at partition id " + strconv.Itoa(id)}
		}
	}
	return nil
}

// Compact remaps an arbitrary (possibly gapped, non-negative) partition
// vector to dense 0..k-1 IDs, preserving the relative order in which new
// IDs were first encountered, and returns the remapped vector plus the
// resulting partition count.
func Compact(partitionIDs []int) ([]int, int) {
	remap := make(map[int]int)
	out := make([]int, len(partitionIDs))
	next := 0
	for i, p := range partitionIDs {
		id, ok := remap[p]
		if !ok {
			id = next
			remap[p] = id
			next++
		}
		out[i] = id
	}
	return out, next
}

// PartitionVector groups block indices by partition ID, for partition IDs
// 0..numPartitions-1.
func PartitionVector(partitionIDs []int, numPartitions int) [][]int {
	groups := make([][]int, numPartitions)
	for blockID, p := range partitionIDs {
		groups[p] = append(groups[p], blockID)
	}
	return groups
}
