package chip

import (
	"errors"
	"testing"

	"github.com/ABKGroup/chipletpart/cherr"
	"github.com/ABKGroup/chipletpart/process"
	"github.com/stretchr/testify/require"
)

func newFrozenWafer(t *testing.T, name string) *process.WaferProcess {
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

func newFrozenTestChipAssembly(t *testing.T, name string) *process.Assembly {
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

func newFrozenTest(t *testing.T, name string) *process.Test {
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

func newFrozenTestLayer(t *testing.T, name string) *process.Layer {
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

// newTestLibrary returns a Library with one wafer/assembly/test/layer
// record, all keyed under name.
func newTestLibrary(t *testing.T, name string) *Library {
	t.Helper()
	lib := NewLibrary()
	lib.Wafers[name] = newFrozenWafer(t, name)
	lib.Assemblies[name] = newFrozenTestChipAssembly(t, name)
	lib.Tests[name] = newFrozenTest(t, name)
	lib.Layers[name] = newFrozenTestLayer(t, name)
	return lib
}

func TestBuildSimpleTreeSmoke(t *testing.T) {
	lib := newTestLibrary(t, "techA")
	root := &Spec{
		Name:         "root",
		WaferProcess: "techA",
		Assembly:     "techA",
		Test:         "techA",
		AspectRatio:  1,
		ReticleShare: 1,
		Quantity:     1,
		Children: []*Spec{
			{
				Name:          "leaf",
				WaferProcess:  "techA",
				Assembly:      "techA",
				Test:          "techA",
				Stackup:       "1:techA",
				CoreArea:      10,
				AspectRatio:   1,
				ReticleShare:  1,
				Quantity:      1,
				Power:         1,
				FractionLogic: 1,
			},
		},
	}
	c, err := Build(root, lib, lib.IOList(), nil)
	require.NoError(t, err)
	require.Len(t, c.Children(), 1)

	leaf := c.Children()[0]
	require.Same(t, c, leaf.Parent())
	require.Greater(t, leaf.SelfTrueYield, 0.0)
	require.LessOrEqual(t, leaf.SelfTrueYield, 1.0)
	require.Greater(t, leaf.Cost, 0.0)
	require.Greater(t, c.Cost, leaf.Cost, "parent cost must fold in the child's cost plus assembly/test overhead")
	require.Greater(t, c.TotalPower, 0.0)
}

func TestBuildUnknownWaferProcess(t *testing.T) {
	lib := newTestLibrary(t, "techA")
	root := &Spec{Name: "root", WaferProcess: "doesNotExist", AspectRatio: 1, Quantity: 1}
	_, err := Build(root, lib, lib.IOList(), nil)
	var un *cherr.UnknownTechNode
	require.True(t, errors.As(err, &un))
}

func TestBuildMalformedStackup(t *testing.T) {
	lib := newTestLibrary(t, "techA")
	root := &Spec{Name: "leaf", WaferProcess: "techA", Stackup: "not-a-valid-term", AspectRatio: 1, Quantity: 1}
	_, err := Build(root, lib, lib.IOList(), nil)
	require.Error(t, err)
}

func TestRebuildRecomputesBottomUp(t *testing.T) {
	lib := newTestLibrary(t, "techA")
	leafSpec := &Spec{
		Name: "leaf", WaferProcess: "techA", Assembly: "techA", Test: "techA",
		Stackup: "1:techA", CoreArea: 10, AspectRatio: 1, ReticleShare: 1, Quantity: 1, Power: 1,
	}
	root := &Spec{Name: "root", WaferProcess: "techA", Assembly: "techA", Test: "techA", AspectRatio: 1, ReticleShare: 1, Quantity: 1, Children: []*Spec{leafSpec}}
	c, err := Build(root, lib, lib.IOList(), nil)
	require.NoError(t, err)

	before := c.Cost
	c.Children()[0].CoreArea *= 10
	c.Rebuild()
	require.NotEqual(t, before, c.Cost, "growing a child's core area must change the recomputed parent cost")
}

func TestNumberOfReticles(t *testing.T) {
	r, s := NumberOfReticles(0, 1, 1)
	require.Equal(t, 0, r)
	require.Equal(t, 0, s)

	r, _ = NumberOfReticles(1, 1, 1)
	require.Equal(t, 1, r)

	r, _ = NumberOfReticles(4, 1, 1)
	require.Equal(t, 4, r)
}

func TestExpandedAreaZeroForNonPositiveArea(t *testing.T) {
	require.Equal(t, 0.0, expandedArea(0, 1, 1))
	require.Equal(t, 0.0, expandedArea(-5, 1, 1))
}

// TestScenario5ChipSmoke reproduces §8 scenario 5's reference chip fixture
// (originally cost_model/test/test_chip_class.cpp's single-chip, no-children
// build) bit-for-bit in its inputs: a lone chip carrying its own core area,
// one layer, one wafer process, one assembly process, and one test process,
// with no children and no connectivity-graph traffic.
func TestScenario5ChipSmoke(t *testing.T) {
	lib := NewLibrary()

	w := process.NewWaferProcess()
	require.NoError(t, w.SetName("test_wafer_process"))
	require.NoError(t, w.SetWaferDiameter(234))
	require.NoError(t, w.SetEdgeExclusion(1.2))
	require.NoError(t, w.SetWaferYield(0.98))
	require.NoError(t, w.SetDicingDistance(0.87))
	require.NoError(t, w.SetReticleX(32))
	require.NoError(t, w.SetReticleY(23))
	require.NoError(t, w.SetGridFill(false))
	require.NoError(t, w.SetNreFrontEndCostPerMM2("memory", 0.1))
	require.NoError(t, w.SetNreBackEndCostPerMM2("memory", 0.2))
	require.NoError(t, w.SetNreFrontEndCostPerMM2("logic", 0.3))
	require.NoError(t, w.SetNreBackEndCostPerMM2("logic", 0.4))
	require.NoError(t, w.SetNreFrontEndCostPerMM2("analog", 0.5))
	require.NoError(t, w.SetNreBackEndCostPerMM2("analog", 0.6))
	require.NoError(t, w.Freeze())
	lib.Wafers["test_wafer_process"] = w

	a := process.NewAssembly()
	require.NoError(t, a.SetName("test_assembly_process"))
	require.NoError(t, a.SetMaterialsCostPerMM2(0.1))
	require.NoError(t, a.SetPicknplaceMachineCost(1000000))
	require.NoError(t, a.SetPicknplaceMachineLifetime(5))
	require.NoError(t, a.SetPicknplaceMachineUptime(0.9))
	require.NoError(t, a.SetPicknplaceTechnicianCostPerYear(200000))
	require.NoError(t, a.SetPicknplaceTime(10))
	require.NoError(t, a.SetPicknplaceGroup(1))
	require.NoError(t, a.SetBondingMachineCost(2000000))
	require.NoError(t, a.SetBondingMachineLifetime(5))
	require.NoError(t, a.SetBondingMachineUptime(0.8))
	require.NoError(t, a.SetBondingTechnicianCostPerYear(210000))
	require.NoError(t, a.SetBondingTime(20))
	require.NoError(t, a.SetBondingGroup(2))
	require.NoError(t, a.SetDieSeparation(0.2))
	require.NoError(t, a.SetEdgeExclusion(0.3))
	require.NoError(t, a.SetMaxPadCurrentDensity(0.4))
	require.NoError(t, a.SetBondingPitch(0.5))
	require.NoError(t, a.SetAlignmentYield(0.987))
	require.NoError(t, a.SetBondingYield(0.999))
	require.NoError(t, a.SetDielectricBondDefectDensity(0.0003))
	require.NoError(t, a.Freeze())
	lib.Assemblies["test_assembly_process"] = a

	ts := process.NewTest()
	require.NoError(t, ts.SetName("test_test_process"))
	require.NoError(t, ts.SetTimePerTestCycle(0.000001))
	require.NoError(t, ts.SetCostPerSecond(0.01))
	require.NoError(t, ts.SetSamplesPerInput(1))
	require.NoError(t, ts.SetSelfTest(false))
	require.NoError(t, ts.SetSelfTestParams(0.9, 1, 7, 2, 1, "normal"))
	require.NoError(t, ts.SetAssemblyTest(false))
	require.NoError(t, ts.SetAssemblyTestParams(0.5, 1, 3, 4, 2, "normal"))
	require.NoError(t, ts.SetGateFlopRatio(1))
	require.NoError(t, ts.Freeze())
	lib.Tests["test_test_process"] = ts

	ly := process.NewLayer()
	require.NoError(t, ly.SetName("test_layer_process"))
	require.NoError(t, ly.SetActive(true))
	require.NoError(t, ly.SetCostPerMM2(0.1234))
	require.NoError(t, ly.SetTransistorDensity(0.0321))
	require.NoError(t, ly.SetDefectDensity(0.00543))
	require.NoError(t, ly.SetCriticalAreaRatio(0.5))
	require.NoError(t, ly.SetClusteringFactor(2))
	require.NoError(t, ly.SetLithoPercent(0.3))
	require.NoError(t, ly.SetMaskCost(100000))
	require.NoError(t, ly.SetStitchingYield(0.98))
	require.NoError(t, ly.Freeze())
	lib.Layers["test_layer_process"] = ly

	root := &Spec{
		Name:           "test_chip",
		WaferProcess:   "test_wafer_process",
		Assembly:       "test_assembly_process",
		Test:           "test_test_process",
		Stackup:        "1:test_layer_process",
		CoreArea:       10,
		AspectRatio:    1,
		FractionMemory: 0.2,
		FractionLogic:  0.5,
		FractionAnalog: 0.3,
		GateFlopRatio:  1,
		ReticleShare:   1,
		CoreVoltage:    1,
		Power:          3,
		Quantity:       1000000,
	}

	c, err := Build(root, lib, nil, nil)
	require.NoError(t, err)

	require.InDelta(t, 0.9733930025109545, c.SelfTrueYield, 1e-9)
	require.InDelta(t, 0.9733930025109545, c.SelfQuality, 1e-9)
	require.InDelta(t, 81.0, c.computePadArea(), 1e-9)
	require.InDelta(t, 13.206294120778358, c.Cost, 1e-3)
	require.InDelta(t, 13.30630152, c.Cost+c.NreDesignCost, 1e-3)
}
