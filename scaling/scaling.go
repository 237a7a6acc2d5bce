// Package scaling implements the fixed area/power scaling tables used to
// carry a block's silicon area and power from the technology node it was
// characterized at to the technology node its owning chiplet is actually
// fabricated in.
//
// Tables and node ordering are literal constants taken from "Scaling
// Equations for the Accurate Prediction of CMOS Device Performance from
// 180nm to 7nm"; they are not derived or curve-fit at runtime.
package scaling

import (
	"fmt"

	"github.com/ABKGroup/chipletpart/cherr"
)

// UnknownTechNodeError reports a lookup against a tech node name outside the
// node set of the table consulted: the 9-node area set for
// AreaScalingFactor, the 11-node power set for PowerScalingFactor.
type UnknownTechNodeError struct {
	Name string
}

func (e *UnknownTechNodeError) Error() string {
	return fmt.Sprintf("scaling: unknown tech node %q", e.Name)
}

// Unwrap exposes the failure as a cherr.UnknownTechNode, so errors.As
// matches it against either type.
func (e *UnknownTechNodeError) Unwrap() error {
	return &cherr.UnknownTechNode{Name: e.Name}
}

// areaNodes is the 9-node subset (90nm..7nm) over which the area scaling
// tables are indexed. Both the logic/analog and memory tables share this
// index convention.
var areaNodes = []string{
	"90nm", "65nm", "45nm", "32nm", "20nm", "16nm", "14nm", "10nm", "7nm",
}

// powerNodes is the full 11-node set the power scaling table is indexed
// over.
var powerNodes = []string{
	"180nm", "130nm", "90nm", "65nm", "45nm", "32nm", "20nm", "16nm", "14nm", "10nm", "7nm",
}

// areaScalingFactors[i][j] scales a logic/analog block's area from
// areaNodes[i] to areaNodes[j].
var areaScalingFactors = [][]float64{
	{1, 0.53, 0.35, 0.16, 0.075, 0.067, 0.061, 0.036, 0.021},
	{1.9, 1, 0.66, 0.31, 0.14, 0.13, 0.12, 0.068, 0.039},
	{2.8, 1.5, 1, 0.46, 0.21, 0.19, 0.17, 0.1, 0.059},
	{6.1, 3.3, 2.2, 1, 0.46, 0.41, 0.38, 0.22, 0.13},
	{13, 7.1, 4.7, 2.2, 1, 0.89, 0.82, 0.48, 0.28},
	{15, 7.9, 5.3, 2.4, 1.1, 1, 0.91, 0.54, 0.31},
	{16, 8.7, 5.8, 2.7, 1.2, 1.1, 1, 0.59, 0.34},
	{28, 15, 9.8, 4.5, 2.1, 1.9, 1.7, 1, 0.58},
	{48, 25, 17, 7.8, 3.6, 3.2, 2.9, 1.7, 1},
}

// memoryAreaScalingFactors is the equivalent table for memory blocks. A few
// cells diverge from the logic/analog table's source-paper rounding; the
// literal values are preserved as published rather than reconciled.
var memoryAreaScalingFactors = [][]float64{
	{1, 0.53, 0.43, 0.19, 0.1, 0.12, 0.1, 0.096, 0.077},
	{1.9, 1, 0.836, 0.372, 0.187, 0.238, 0.2, 0.18, 0.143},
	{2.2, 1.18, 1, 0.44, 0.22, 0.275, 0.22, 0.21, 0.17},
	{5.1, 2.75, 2.3, 1, 0.51, 0.63, 0.53, 0.49, 0.40},
	{9.75, 5.3, 4.47, 1.98, 1, 1.22, 1.03, 0.96, 0.77},
	{8.2, 4.3, 3.7, 1.6, 0.8, 1, 0.82, 0.79, 0.62},
	{9.6, 5.22, 4.4, 1.9, 0.96, 1.2, 1, 0.94, 0.75},
	{10.5, 5.6, 4.6, 2.02, 1.05, 1.3, 1.06, 1, 0.798},
	{13, 6.8, 5.9, 2.5, 1.3, 1.6, 1.3, 1.2, 1},
}

// powerScalingFactors is per-inverter dynamic power at each of powerNodes,
// in arbitrary (self-consistent) units; only ratios between entries are
// meaningful.
var powerScalingFactors = []float64{105, 26.1, 13.0, 8.58, 5.19, 2.47, 1.51, 1.28, 0.995, 0.866, 0.789}

func indexOf(nodes []string, name string) int {
	for i, n := range nodes {
		if n == name {
			return i
		}
	}
	return -1
}

// AreaScalingFactor returns the multiplicative factor that converts an area
// characterized at initialTechNode into the equivalent area at
// actualTechNode. isMemory selects the memory-specific table.
func AreaScalingFactor(initialTechNode, actualTechNode string, isMemory bool) (float64, error) {
	i := indexOf(areaNodes, initialTechNode)
	if i == -1 {
		return 0, &UnknownTechNodeError{Name: initialTechNode}
	}
	j := indexOf(areaNodes, actualTechNode)
	if j == -1 {
		return 0, &UnknownTechNodeError{Name: actualTechNode}
	}
	if isMemory {
		return memoryAreaScalingFactors[i][j], nil
	}
	return areaScalingFactors[i][j], nil
}

// PowerScalingFactor returns the multiplicative factor that converts power
// drawn at initialTechNode into the equivalent power at actualTechNode:
// powerScalingFactors[actual] / powerScalingFactors[initial].
func PowerScalingFactor(initialTechNode, actualTechNode string) (float64, error) {
	i := indexOf(powerNodes, initialTechNode)
	if i == -1 {
		return 0, &UnknownTechNodeError{Name: initialTechNode}
	}
	j := indexOf(powerNodes, actualTechNode)
	if j == -1 {
		return 0, &UnknownTechNodeError{Name: actualTechNode}
	}
	return powerScalingFactors[j] / powerScalingFactors[i], nil
}

// KnownTechNodes returns a copy of the full 11-node set (the power table's
// index).
func KnownTechNodes() []string {
	out := make([]string, len(powerNodes))
	copy(out, powerNodes)
	return out
}

// IsKnownTechNode reports whether name is one of the 11 recognized nodes.
func IsKnownTechNode(name string) bool {
	return indexOf(powerNodes, name) != -1
}
