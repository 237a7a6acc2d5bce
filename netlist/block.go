// Package netlist holds the block-level netlist model: a flat list of
// Blocks and a ConnectivityGraph describing bandwidth and wire-count
// adjacency between them, plus partition-vector utilities shared by the
// cost evaluator and both GA variants.
package netlist

import "github.com/ABKGroup/chipletpart/cherr"

// Block is one leaf cell of the netlist: a named piece of silicon with an
// area, power draw, characterized tech node, and memory/logic flag.
// Immutable after construction.
type Block struct {
	Name     string
	Area     float64
	Power    float64
	Tech     string
	IsMemory bool
}

// NewBlock validates and returns a Block. Area and Power must be
// non-negative.
func NewBlock(name string, area, power float64, tech string, isMemory bool) (Block, error) {
	if area < 0 {
		return Block{}, &cherr.RangeViolation{Field: "area", Value: area, Bound: ">= 0"}
	}
	if power < 0 {
		return Block{}, &cherr.RangeViolation{Field: "power", Value: power, Bound: ">= 0"}
	}
	return Block{Name: name, Area: area, Power: power, Tech: tech, IsMemory: isMemory}, nil
}
