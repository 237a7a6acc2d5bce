// Package cost implements the C5 cost evaluator: given a partition
// vector, per-partition tech nodes, floorplan geometry, and a process
// library, it builds a two-level Chip Tree (a root chiplet owning one
// child per partition) and reduces it to the scalar fitness the GA
// variants in package ga search against.
package cost

import (
	"fmt"

	"github.com/ABKGroup/chipletpart/chip"
	"github.com/ABKGroup/chipletpart/cherr"
	"github.com/ABKGroup/chipletpart/netlist"
	"github.com/ABKGroup/chipletpart/scaling"
)

// Geometry is the floorplan geometry the external floorplanner supplies
// for one partition.
type Geometry struct {
	AspectRatio float64
	X, Y        float64
}

// Request bundles every input evaluate needs. TechPerPartition must hold
// exactly NumPartitions entries (derived from PartitionIDs).
// AspectRatioPerPartition and XYPerPartition are trimmed to NumPartitions
// before use, and padded (aspect ratio 1, zero geometry) when shorter.
type Request struct {
	PartitionIDs            []int
	TechPerPartition        []string
	AspectRatioPerPartition []float64
	XYPerPartition          []Geometry

	Blocks  []netlist.Block
	Graph   *netlist.ConnectivityGraph
	Library *chip.Library

	// RootName names the synthesized root chip; RootWafer/RootAssembly/
	// RootTest name the library records used for it. Leaf chiplets (one
	// per partition) resolve their own wafer/assembly/test records by tech
	// node name via techRecordName.
	RootName     string
	RootWafer    string
	RootAssembly string
	RootTest     string

	CostCoeff  float64
	PowerCoeff float64

	// Approx is not read by BuildModel: whether dies-per-wafer uses the
	// approximate formula is decided by each process.Layer's own approx
	// flag.
	Approx bool
}

// techRecordName derives the per-tech library record name the leaf
// chiplets resolve wafer/assembly/test/stackup references against: one
// record set per tech node, named identically to the tech tag itself.
// Library loaders are expected to populate the Wafers/Assemblies/Tests/
// Layers maps under these same keys for every tech node the netlist or
// GA may ever propose.
func techRecordName(tech string) string { return tech }

// numPartitions returns max(PartitionIDs)+1.
func numPartitions(partitionIDs []int) int {
	return netlist.NumPartitions(partitionIDs)
}

// Evaluate computes the scalar fitness cost_coeff*chip.Cost +
// power_coeff*chip.TotalPower for the given partition/tech/geometry
// assignment. Any invariant violation (size mismatch, unknown tech node,
// library lookup failure, frozen mutation, etc.) is caught and mapped to
// MaxFiniteCost rather than propagated, per §7's fitness-oracle contract.
func Evaluate(req Request) float64 {
	cost, err := EvaluateErr(req)
	if err != nil {
		return cherr.MaxFiniteCost
	}
	return cost
}

// EvaluateErr is Evaluate's error-propagating twin, used directly by
// callers (such as get_cost_from_scratch) that want to observe failures
// instead of the fitness-oracle sentinel.
func EvaluateErr(req Request) (float64, error) {
	c, err := BuildModel(req)
	if err != nil {
		return 0, err
	}
	return req.CostCoeff*c.Cost + req.PowerCoeff*c.TotalPower, nil
}

// BuildModel is §6.3's build_model: it materializes the Chip Tree for the
// given partition/tech/geometry assignment without reducing it to a
// scalar, so callers can inspect the full derived-field set.
func BuildModel(req Request) (*chip.Chip, error) {
	if len(req.PartitionIDs) != len(req.Blocks) {
		return nil, &cherr.SizeMismatch{Context: "partition_ids vs blocks", Expected: len(req.Blocks), Got: len(req.PartitionIDs)}
	}
	if err := netlist.Validate(req.PartitionIDs); err != nil {
		return nil, err
	}
	k := numPartitions(req.PartitionIDs)
	if len(req.TechPerPartition) != k {
		return nil, &cherr.SizeMismatch{Context: "tech_per_partition", Expected: k, Got: len(req.TechPerPartition)}
	}
	aspect := trimOrDefault(req.AspectRatioPerPartition, k, 1.0)
	geom := trimGeometry(req.XYPerPartition, k)

	groups := netlist.PartitionVector(req.PartitionIDs, k)

	partAreas := make([]float64, k)
	partPowers := make([]float64, k)
	partIsMemory := make([]bool, k) // majority vote, picks the child's memory vs logic fraction; area scaling uses each block's own IsMemory

	for p, blockIDs := range groups {
		memCount := 0
		for _, bid := range blockIDs {
			b := req.Blocks[bid]
			areaFactor, err := scaling.AreaScalingFactor(b.Tech, req.TechPerPartition[p], b.IsMemory)
			if err != nil {
				return nil, err
			}
			powerFactor, err := scaling.PowerScalingFactor(b.Tech, req.TechPerPartition[p])
			if err != nil {
				return nil, err
			}
			partAreas[p] += b.Area * areaFactor
			partPowers[p] += b.Power * powerFactor
			if b.IsMemory {
				memCount++
			}
		}
		partIsMemory[p] = memCount*2 >= len(blockIDs)
	}

	combined, err := req.Graph.Combine(req.PartitionIDs, k)
	if err != nil {
		return nil, err
	}

	root := &chip.Spec{
		Name:         req.RootName,
		WaferProcess: req.RootWafer,
		Assembly:     req.RootAssembly,
		Test:         req.RootTest,
		AspectRatio:  1,
		ReticleShare: 1,
		Quantity:     1,
	}
	for p := 0; p < k; p++ {
		tech := req.TechPerPartition[p]
		child := &chip.Spec{
			Name:         fmt.Sprintf("partition_%d", p),
			WaferProcess: techRecordName(tech),
			Assembly:     techRecordName(tech),
			Test:         techRecordName(tech),
			Stackup:      fmt.Sprintf("1:%s", techRecordName(tech)),
			CoreArea:     partAreas[p],
			AspectRatio:  aspect[p],
			X:            geom[p].X,
			Y:            geom[p].Y,
			Power:        partPowers[p],
			Quantity:     1,
			ReticleShare: 1,
		}
		if partIsMemory[p] {
			child.FractionMemory = 1
		} else {
			child.FractionLogic = 1
		}
		root.Children = append(root.Children, child)
	}

	return chip.Build(root, req.Library, req.Library.IOList(), combined)
}

func trimOrDefault(v []float64, k int, def float64) []float64 {
	out := make([]float64, k)
	for i := range out {
		if i < len(v) {
			out[i] = v[i]
		} else {
			out[i] = def
		}
		if out[i] <= 0 {
			out[i] = def
		}
	}
	return out
}

func trimGeometry(v []Geometry, k int) []Geometry {
	out := make([]Geometry, k)
	for i := range out {
		if i < len(v) {
			out[i] = v[i]
		}
	}
	return out
}

// EvaluateIncremental is §6.3's get_cost_incremental: matrix[b][p] is the
// cost delta of moving block b to partition p, relative to base. The
// diagonal (block already in partition p) is always exactly 0.
func EvaluateIncremental(base Request) ([][]float64, error) {
	baseCost, err := EvaluateErr(base)
	if err != nil {
		return nil, err
	}
	k := numPartitions(base.PartitionIDs)
	n := len(base.PartitionIDs)
	out := make([][]float64, n)
	for b := 0; b < n; b++ {
		out[b] = make([]float64, k)
		for p := 0; p < k; p++ {
			if base.PartitionIDs[b] == p {
				continue
			}
			moved := cloneRequest(base)
			moved.PartitionIDs[b] = p
			cost := Evaluate(moved)
			out[b][p] = cost - baseCost
		}
	}
	return out, nil
}

// EvaluateSingleMove is §6.3's get_single_move_cost: it returns the cost
// delta of moving exactly one block, with a precondition check that the
// block is currently assigned to from.
func EvaluateSingleMove(base Request, block, from, to int) (float64, error) {
	if base.PartitionIDs[block] != from {
		return 0, &cherr.InvalidPartition{Reason: "evaluate_single_move: block not in claimed source partition"}
	}
	baseCost, err := EvaluateErr(base)
	if err != nil {
		return 0, err
	}
	moved := cloneRequest(base)
	moved.PartitionIDs[block] = to
	movedCost := Evaluate(moved)
	return movedCost - baseCost, nil
}

func cloneRequest(r Request) Request {
	out := r
	out.PartitionIDs = append([]int(nil), r.PartitionIDs...)
	out.TechPerPartition = append([]string(nil), r.TechPerPartition...)
	out.AspectRatioPerPartition = append([]float64(nil), r.AspectRatioPerPartition...)
	out.XYPerPartition = append([]Geometry(nil), r.XYPerPartition...)
	return out
}

// ConfidenceInterval is a symmetric +/-5%-of-base interval, as §4.4's
// slopes operation reports for both cost and power.
type ConfidenceInterval struct {
	Low, High float64
}

// Slopes is §6.3's get_cost_and_slopes: numerical gradient estimates of
// cost and power with respect to each block's area (perturbed by +1%) and
// each partition's bandwidth (perturbed by +1% on every utilization entry
// incident to that partition), plus a +/-5% confidence interval around the
// unperturbed base cost/power.
type Slopes struct {
	CostAreaSlopes  []float64
	PowerAreaSlopes []float64
	CostBWSlopes    []float64
	PowerBWSlopes   []float64
	CostCI          ConfidenceInterval
	PowerCI         ConfidenceInterval
}

const slopeDelta = 0.01

// EvaluateWithSlopes computes the base cost/power and the slope/CI bundle
// in one pass.
func EvaluateWithSlopes(req Request) (cost float64, power float64, slopes Slopes, err error) {
	baseModel, err := BuildModel(req)
	if err != nil {
		return 0, 0, Slopes{}, err
	}
	cost = req.CostCoeff*baseModel.Cost + req.PowerCoeff*baseModel.TotalPower
	power = baseModel.TotalPower

	n := len(req.Blocks)
	slopes.CostAreaSlopes = make([]float64, n)
	slopes.PowerAreaSlopes = make([]float64, n)
	for i := 0; i < n; i++ {
		perturbed := req
		perturbed.Blocks = append([]netlist.Block(nil), req.Blocks...)
		b := perturbed.Blocks[i]
		origArea := b.Area
		b.Area = origArea * (1 + slopeDelta)
		perturbed.Blocks[i] = b
		pm, perr := BuildModel(perturbed)
		if perr != nil || origArea == 0 {
			continue
		}
		pCost := req.CostCoeff*pm.Cost + req.PowerCoeff*pm.TotalPower
		slopes.CostAreaSlopes[i] = (pCost - cost) / (slopeDelta * origArea)
		slopes.PowerAreaSlopes[i] = (pm.TotalPower - power) / (slopeDelta * origArea)
	}

	k := numPartitions(req.PartitionIDs)
	slopes.CostBWSlopes = make([]float64, k)
	slopes.PowerBWSlopes = make([]float64, k)
	for p := 0; p < k; p++ {
		perturbedGraph := perturbPartitionBandwidth(req.Graph, req.PartitionIDs, p, slopeDelta)
		perturbed := req
		perturbed.Graph = perturbedGraph
		pm, perr := BuildModel(perturbed)
		if perr != nil {
			continue
		}
		pCost := req.CostCoeff*pm.Cost + req.PowerCoeff*pm.TotalPower
		slopes.CostBWSlopes[p] = (pCost - cost) / slopeDelta
		slopes.PowerBWSlopes[p] = (pm.TotalPower - power) / slopeDelta
	}

	slopes.CostCI = ConfidenceInterval{Low: cost * 0.95, High: cost * 1.05}
	slopes.PowerCI = ConfidenceInterval{Low: power * 0.95, High: power * 1.05}
	return cost, power, slopes, nil
}

// perturbPartitionBandwidth returns a copy of g with every utilization
// entry incident to any block in partition p scaled by (1+delta).
func perturbPartitionBandwidth(g *netlist.ConnectivityGraph, partitionIDs []int, p int, delta float64) *netlist.ConnectivityGraph {
	return g.PerturbPartitionUtilization(partitionIDs, p, delta)
}
