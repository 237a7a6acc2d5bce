package ioformat

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ABKGroup/chipletpart/cherr"
	"github.com/stretchr/testify/require"
)

const waferFixture = `
name 10nm
wafer_diameter 300
edge_exclusion 1
wafer_yield 0.95
dicing_distance 0.1
reticle_x 26
reticle_y 33
grid_fill true
nre_front_end_cost_per_mm2 memory=0.1 logic=0.2 analog=0.15
nre_back_end_cost_per_mm2 memory=0.05 logic=0.1 analog=0.08
`

const assemblyFixture = `
name 10nm
materials_cost_per_mm2 0.01
picknplace_time 0.5
picknplace_group 1
picknplace_machine_cost 1000
picknplace_machine_lifetime 10
picknplace_machine_uptime 0.9
picknplace_technician_cost_per_year 50000
bonding_time 0.5
bonding_group 1
bonding_machine_cost 1000
bonding_machine_lifetime 10
bonding_machine_uptime 0.9
bonding_technician_cost_per_year 50000
die_separation 0.1
edge_exclusion 0.2
max_pad_current_density 0.4
bonding_pitch 0.5
alignment_yield 0.99
bonding_yield 0.999
dielectric_bond_defect_density 0.0001
`

const testFixture = `
name 10nm
time_per_test_cycle 1e-8
cost_per_second 0.01
samples_per_input 1
self_test false
assembly_test false
gate_flop_ratio 1
`

const layerFixture = `
name 10nm
active true
cost_per_mm2 0.05
transistor_density 1
defect_density 0.001
critical_area_ratio 0.5
clustering_factor 2
litho_percent 0.2
mask_cost 1
stitching_yield 1
`

const ioFixture = `
type standard
rx_area 0.001
tx_area 0.001
shoreline 0.01
bandwidth 1
wire_count 1
energy_per_bit 0.1
reach 1
bidirectional true
`

func TestLoadWaferProcesses(t *testing.T) {
	out, err := LoadWaferProcesses(bytes.NewBufferString(waferFixture))
	require.NoError(t, err)
	require.Contains(t, out, "10nm")
	require.True(t, out["10nm"].Frozen())
}

func TestLoadWaferProcessesMissingFieldSurfacesUnderspecified(t *testing.T) {
	broken := `
name 10nm
wafer_diameter 300
`
	_, err := LoadWaferProcesses(bytes.NewBufferString(broken))
	var u *cherr.Underspecified
	require.True(t, errors.As(err, &u))
}

func TestLoadAssemblies(t *testing.T) {
	out, err := LoadAssemblies(bytes.NewBufferString(assemblyFixture))
	require.NoError(t, err)
	require.Contains(t, out, "10nm")
	require.True(t, out["10nm"].Frozen())
}

func TestLoadTests(t *testing.T) {
	out, err := LoadTests(bytes.NewBufferString(testFixture))
	require.NoError(t, err)
	require.Contains(t, out, "10nm")
	require.True(t, out["10nm"].Frozen())
}

func TestLoadLayers(t *testing.T) {
	out, err := LoadLayers(bytes.NewBufferString(layerFixture))
	require.NoError(t, err)
	require.Contains(t, out, "10nm")
	require.True(t, out["10nm"].Frozen())
}

func TestLoadIOs(t *testing.T) {
	out, err := LoadIOs(bytes.NewBufferString(ioFixture))
	require.NoError(t, err)
	require.Contains(t, out, "standard")
}

func TestLoadLibraryAssemblesAllFive(t *testing.T) {
	lib, err := LoadLibrary(LoadLibrarySources{
		IO:       bytes.NewBufferString(ioFixture),
		Layer:    bytes.NewBufferString(layerFixture),
		Wafer:    bytes.NewBufferString(waferFixture),
		Assembly: bytes.NewBufferString(assemblyFixture),
		Test:     bytes.NewBufferString(testFixture),
	})
	require.NoError(t, err)
	require.Contains(t, lib.Wafers, "10nm")
	require.Contains(t, lib.Assemblies, "10nm")
	require.Contains(t, lib.Tests, "10nm")
	require.Contains(t, lib.Layers, "10nm")
	require.Contains(t, lib.IOs, "standard")
	require.Len(t, lib.IOList(), 1)
}
