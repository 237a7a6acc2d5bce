package process

import (
	"errors"
	"testing"

	"github.com/ABKGroup/chipletpart/cherr"
	"github.com/stretchr/testify/require"
)

func newFrozenAssembly(t *testing.T) *Assembly {
	t.Helper()
	a := NewAssembly()
	require.NoError(t, a.SetName("a"))
	require.NoError(t, a.SetMaterialsCostPerMM2(0))
	require.NoError(t, a.SetPicknplaceTime(0))
	require.NoError(t, a.SetPicknplaceGroup(1))
	require.NoError(t, a.SetPicknplaceMachineCost(0))
	require.NoError(t, a.SetPicknplaceMachineLifetime(1))
	require.NoError(t, a.SetPicknplaceMachineUptime(1))
	require.NoError(t, a.SetPicknplaceTechnicianCostPerYear(0))
	require.NoError(t, a.SetBondingTime(0))
	require.NoError(t, a.SetBondingGroup(1))
	require.NoError(t, a.SetBondingMachineCost(0))
	require.NoError(t, a.SetBondingMachineLifetime(1))
	require.NoError(t, a.SetBondingMachineUptime(1))
	require.NoError(t, a.SetBondingTechnicianCostPerYear(0))
	require.NoError(t, a.SetDieSeparation(0))
	require.NoError(t, a.SetEdgeExclusion(0))
	require.NoError(t, a.SetMaxPadCurrentDensity(0.4))
	require.NoError(t, a.SetBondingPitch(0.5))
	require.NoError(t, a.SetAlignmentYield(0.987))
	require.NoError(t, a.SetBondingYield(0.999))
	require.NoError(t, a.SetDielectricBondDefectDensity(0.0003))
	require.NoError(t, a.Freeze())
	return a
}

func TestAssemblyYieldReferenceFixtures(t *testing.T) {
	a := newFrozenAssembly(t)

	cases := []struct {
		nChips, nBonds int
		area           float64
		want           float64
	}{
		{1, 1, 10, 0.9830638085742773},
		{100, 1000, 10, 0.0990609662748996},
		{10, 1, 15, 0.8725434723594329},
	}
	for _, c := range cases {
		got := a.Yield(c.nChips, c.nBonds, c.area)
		require.InDelta(t, c.want, got, 1e-9)
	}
}

func TestAssemblyYieldBoundary(t *testing.T) {
	a := newFrozenAssembly(t)
	got := a.Yield(1, 0, 0)
	require.InDelta(t, 0.987, got, 1e-12)
}

func TestPowerPerPad(t *testing.T) {
	a := NewAssembly()
	require.NoError(t, a.SetBondingPitch(0.5))
	require.NoError(t, a.SetMaxPadCurrentDensity(0.4))
	got := a.PowerPerPad(1.0)
	require.InDelta(t, 0.019634954084936207, got, 1e-12)
}

func TestAssemblySetterRejectsAfterFreeze(t *testing.T) {
	a := newFrozenAssembly(t)
	err := a.SetBondingPitch(1.0)
	var fm *cherr.FrozenMutation
	require.True(t, errors.As(err, &fm))
}

func newFrozenLayer(t *testing.T, defectDensity, criticalAreaRatio, clusteringFactor, stitchingYield float64) *Layer {
	t.Helper()
	l := NewLayer()
	require.NoError(t, l.SetName("l"))
	require.NoError(t, l.SetActive(true))
	require.NoError(t, l.SetCostPerMM2(0.1234))
	require.NoError(t, l.SetTransistorDensity(1))
	require.NoError(t, l.SetDefectDensity(defectDensity))
	require.NoError(t, l.SetCriticalAreaRatio(criticalAreaRatio))
	require.NoError(t, l.SetClusteringFactor(clusteringFactor))
	require.NoError(t, l.SetLithoPercent(0.2))
	require.NoError(t, l.SetMaskCost(1))
	require.NoError(t, l.SetStitchingYield(stitchingYield))
	require.NoError(t, l.Freeze())
	return l
}

func TestLayerYieldFixtures(t *testing.T) {
	l := newFrozenLayer(t, 0.00543, 0.5, 2, 0.98)
	require.InDelta(t, 0.9733930025109545, l.Yield(10), 1e-12)
	require.InDelta(t, 0.17992710703076417, l.Yield(1000), 1e-12)
}

func TestLayerSetterRejectsAfterFreeze(t *testing.T) {
	l := newFrozenLayer(t, 0.00543, 0.5, 2, 0.98)
	err := l.SetMaskCost(5)
	var fm *cherr.FrozenMutation
	require.True(t, errors.As(err, &fm))
}

func TestDiesPerWaferGridFixtures(t *testing.T) {
	cases := []struct {
		x, y float64
		want int
	}{
		{10, 10, 540},
		{1, 1, 17470},
		{100, 100, 4},
	}
	for _, c := range cases {
		got := GridDiesPerWafer(c.x, c.y, 300, 1, false)
		require.Equal(t, c.want, got, "x=%v y=%v", c.x, c.y)
	}
}

func TestDiesPerWaferOversizeReturnsZero(t *testing.T) {
	got := GridDiesPerWafer(1000, 1000, 300, 1, false)
	require.Equal(t, 0, got)
}

func TestDiesPerWaferMonotoneNonIncreasing(t *testing.T) {
	small := GridDiesPerWafer(5, 5, 300, 1, false)
	large := GridDiesPerWafer(10, 10, 300, 1, false)
	require.GreaterOrEqual(t, small, large)
}

func TestWaferProcessBounds(t *testing.T) {
	w := NewWaferProcess()
	require.NoError(t, w.SetWaferDiameter(234))
	err := w.SetEdgeExclusion(200)
	require.Error(t, err)
	require.NoError(t, w.SetEdgeExclusion(1.2))
}

func TestWaferProcessUnderspecifiedFreeze(t *testing.T) {
	w := NewWaferProcess()
	require.NoError(t, w.SetName("p"))
	err := w.Freeze()
	var u *cherr.Underspecified
	require.True(t, errors.As(err, &u))
	require.False(t, w.Frozen())
}

func TestQualityZeroWhenTestYieldZero(t *testing.T) {
	require.Equal(t, 0.0, Quality(0.9, 0))
}
