package cost

import (
	"errors"
	"math"
	"testing"

	"github.com/ABKGroup/chipletpart/cherr"
	"github.com/ABKGroup/chipletpart/chip"
	"github.com/ABKGroup/chipletpart/netlist"
	"github.com/ABKGroup/chipletpart/process"
	"github.com/stretchr/testify/require"
)

func frozenWafer(t *testing.T, name string) *process.WaferProcess {
	t.Helper()
	w := process.NewWaferProcess()
	require.NoError(t, w.SetName(name))
	require.NoError(t, w.SetWaferDiameter(300))
	require.NoError(t, w.SetEdgeExclusion(1))
	require.NoError(t, w.SetWaferYield(0.95))
	require.NoError(t, w.SetDicingDistance(0.1))
	require.NoError(t, w.SetReticleX(26))
	require.NoError(t, w.SetReticleY(33))
	require.NoError(t, w.SetGridFill(true))
	for _, kind := range []string{"memory", "logic", "analog"} {
		require.NoError(t, w.SetNreFrontEndCostPerMM2(kind, 0.1))
		require.NoError(t, w.SetNreBackEndCostPerMM2(kind, 0.05))
	}
	require.NoError(t, w.Freeze())
	return w
}

func frozenAssembly(t *testing.T, name string) *process.Assembly {
	t.Helper()
	a := process.NewAssembly()
	require.NoError(t, a.SetName(name))
	require.NoError(t, a.SetMaterialsCostPerMM2(0.01))
	require.NoError(t, a.SetPicknplaceTime(0.5))
	require.NoError(t, a.SetPicknplaceGroup(1))
	require.NoError(t, a.SetPicknplaceMachineCost(1000))
	require.NoError(t, a.SetPicknplaceMachineLifetime(10))
	require.NoError(t, a.SetPicknplaceMachineUptime(0.9))
	require.NoError(t, a.SetPicknplaceTechnicianCostPerYear(50000))
	require.NoError(t, a.SetBondingTime(0.5))
	require.NoError(t, a.SetBondingGroup(1))
	require.NoError(t, a.SetBondingMachineCost(1000))
	require.NoError(t, a.SetBondingMachineLifetime(10))
	require.NoError(t, a.SetBondingMachineUptime(0.9))
	require.NoError(t, a.SetBondingTechnicianCostPerYear(50000))
	require.NoError(t, a.SetDieSeparation(0.1))
	require.NoError(t, a.SetEdgeExclusion(0.2))
	require.NoError(t, a.SetMaxPadCurrentDensity(0.4))
	require.NoError(t, a.SetBondingPitch(0.5))
	require.NoError(t, a.SetAlignmentYield(0.99))
	require.NoError(t, a.SetBondingYield(0.999))
	require.NoError(t, a.SetDielectricBondDefectDensity(0.0001))
	require.NoError(t, a.Freeze())
	return a
}

func frozenTest(t *testing.T, name string) *process.Test {
	t.Helper()
	ts := process.NewTest()
	require.NoError(t, ts.SetName(name))
	require.NoError(t, ts.SetTimePerTestCycle(1e-8))
	require.NoError(t, ts.SetCostPerSecond(0.01))
	require.NoError(t, ts.SetSamplesPerInput(1))
	require.NoError(t, ts.SetSelfTest(false))
	require.NoError(t, ts.SetAssemblyTest(false))
	require.NoError(t, ts.SetGateFlopRatio(1))
	require.NoError(t, ts.Freeze())
	return ts
}

func frozenLayer(t *testing.T, name string) *process.Layer {
	t.Helper()
	l := process.NewLayer()
	require.NoError(t, l.SetName(name))
	require.NoError(t, l.SetActive(true))
	require.NoError(t, l.SetCostPerMM2(0.05))
	require.NoError(t, l.SetTransistorDensity(1))
	require.NoError(t, l.SetDefectDensity(0.001))
	require.NoError(t, l.SetCriticalAreaRatio(0.5))
	require.NoError(t, l.SetClusteringFactor(2))
	require.NoError(t, l.SetLithoPercent(0.2))
	require.NoError(t, l.SetMaskCost(1))
	require.NoError(t, l.SetStitchingYield(1))
	require.NoError(t, l.Freeze())
	return l
}

// twoTechLibrary returns a Library with frozen wafer/assembly/test/layer
// records keyed under each of "10nm" and "7nm" (both recognized scaling
// tech nodes), plus the root's own "root" record set.
func twoTechLibrary(t *testing.T) *chip.Library {
	t.Helper()
	lib := chip.NewLibrary()
	for _, name := range []string{"10nm", "7nm", "root"} {
		lib.Wafers[name] = frozenWafer(t, name)
		lib.Assemblies[name] = frozenAssembly(t, name)
		lib.Tests[name] = frozenTest(t, name)
		lib.Layers[name] = frozenLayer(t, name)
	}
	return lib
}

func baseRequest(t *testing.T) Request {
	t.Helper()
	blocks := []netlist.Block{
		mustBlock(t, "b0", 1, 1, "10nm", false),
		mustBlock(t, "b1", 2, 2, "10nm", false),
	}
	graph := netlist.NewConnectivityGraph([]string{"b0", "b1"}, []string{"dummy"})
	return Request{
		PartitionIDs:     []int{0, 1},
		TechPerPartition: []string{"10nm", "7nm"},
		Blocks:           blocks,
		Graph:            graph,
		Library:          twoTechLibrary(t),
		RootName:         "root",
		RootWafer:        "root",
		RootAssembly:     "root",
		RootTest:         "root",
		CostCoeff:        1,
		PowerCoeff:       1,
	}
}

func mustBlock(t *testing.T, name string, area, power float64, tech string, isMemory bool) netlist.Block {
	t.Helper()
	b, err := netlist.NewBlock(name, area, power, tech, isMemory)
	require.NoError(t, err)
	return b
}

func TestEvaluateProducesFiniteCost(t *testing.T) {
	req := baseRequest(t)
	got := Evaluate(req)
	require.Less(t, got, cherr.MaxFiniteCost)
	require.False(t, math.IsInf(got, 0))
}

func TestEvaluateCostInvariantUnderPartitionRelabeling(t *testing.T) {
	req := baseRequest(t)
	original := Evaluate(req)

	relabeled := req
	relabeled.PartitionIDs = []int{1, 0}
	relabeled.TechPerPartition = []string{"7nm", "10nm"}
	swapped := Evaluate(relabeled)

	require.InDelta(t, original, swapped, 1e-9, "relabeling partition ids (and correspondingly the tech vector) must not change total cost")
}

func TestEvaluateErrSizeMismatch(t *testing.T) {
	req := baseRequest(t)
	req.PartitionIDs = []int{0, 1, 2}
	_, err := EvaluateErr(req)
	var sm *cherr.SizeMismatch
	require.True(t, errors.As(err, &sm))
}

func TestEvaluateErrUnknownTechNode(t *testing.T) {
	req := baseRequest(t)
	req.TechPerPartition = []string{"10nm", "not-a-node"}
	_, err := EvaluateErr(req)
	var un *cherr.UnknownTechNode
	require.True(t, errors.As(err, &un))

	require.Equal(t, cherr.MaxFiniteCost, Evaluate(req), "Evaluate must map evaluator errors to the fitness-oracle sentinel rather than propagate them")
}

func TestEvaluateIncrementalDiagonalIsZero(t *testing.T) {
	req := baseRequest(t)
	matrix, err := EvaluateIncremental(req)
	require.NoError(t, err)
	for b, row := range matrix {
		require.Equal(t, 0.0, row[req.PartitionIDs[b]])
	}
}

func TestEvaluateSingleMoveRejectsWrongSourcePartition(t *testing.T) {
	req := baseRequest(t)
	_, err := EvaluateSingleMove(req, 0, 1 /* block 0 is actually in partition 0 */, 1)
	var ip *cherr.InvalidPartition
	require.True(t, errors.As(err, &ip))
}

func TestEvaluateSingleMoveMatchesIncremental(t *testing.T) {
	req := baseRequest(t)
	matrix, err := EvaluateIncremental(req)
	require.NoError(t, err)

	delta, err := EvaluateSingleMove(req, 0, req.PartitionIDs[0], 1)
	require.NoError(t, err)
	require.InDelta(t, matrix[0][1], delta, 1e-9)
}

func TestEvaluateWithSlopesReturnsConfidenceIntervalAroundBase(t *testing.T) {
	req := baseRequest(t)
	cost, _, slopes, err := EvaluateWithSlopes(req)
	require.NoError(t, err)
	require.InDelta(t, cost*0.95, slopes.CostCI.Low, 1e-9)
	require.InDelta(t, cost*1.05, slopes.CostCI.High, 1e-9)
	require.Len(t, slopes.CostAreaSlopes, len(req.Blocks))
}
