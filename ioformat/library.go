package ioformat

import (
	"io"

	"github.com/ABKGroup/chipletpart/chip"
	"github.com/ABKGroup/chipletpart/process"
)

// LoadWaferProcesses parses one WaferProcess record per blank-line-
// separated block of r, freezing each before returning it keyed by name.
func LoadWaferProcesses(r io.Reader) (map[string]*process.WaferProcess, error) {
	recs, err := parseRecords(r)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*process.WaferProcess, len(recs))
	for _, rec := range recs {
		w := process.NewWaferProcess()
		name, err := rec.requireStr("name")
		if err != nil {
			return nil, err
		}
		if err := w.SetName(name); err != nil {
			return nil, err
		}
		floatSetters := []struct {
			field string
			set   func(float64) error
		}{
			{"wafer_diameter", w.SetWaferDiameter},
			{"edge_exclusion", w.SetEdgeExclusion},
			{"wafer_yield", w.SetWaferYield},
			{"dicing_distance", w.SetDicingDistance},
			{"reticle_x", w.SetReticleX},
			{"reticle_y", w.SetReticleY},
		}
		for _, fs := range floatSetters {
			v, err := rec.requireFloat(fs.field)
			if err != nil {
				return nil, err
			}
			if err := fs.set(v); err != nil {
				return nil, err
			}
		}
		gridFill, err := rec.requireBool("grid_fill")
		if err != nil {
			return nil, err
		}
		if err := w.SetGridFill(gridFill); err != nil {
			return nil, err
		}
		frontEnd, err := rec.kv("nre_front_end_cost_per_mm2")
		if err != nil {
			return nil, err
		}
		backEnd, err := rec.kv("nre_back_end_cost_per_mm2")
		if err != nil {
			return nil, err
		}
		for _, kind := range []string{"memory", "logic", "analog"} {
			if err := w.SetNreFrontEndCostPerMM2(kind, frontEnd[kind]); err != nil {
				return nil, err
			}
			if err := w.SetNreBackEndCostPerMM2(kind, backEnd[kind]); err != nil {
				return nil, err
			}
		}
		if err := w.Freeze(); err != nil {
			return nil, err
		}
		out[name] = w
	}
	return out, nil
}

// LoadAssemblies mirrors LoadWaferProcesses for Assembly records.
func LoadAssemblies(r io.Reader) (map[string]*process.Assembly, error) {
	recs, err := parseRecords(r)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*process.Assembly, len(recs))
	for _, rec := range recs {
		a := process.NewAssembly()
		name, err := rec.requireStr("name")
		if err != nil {
			return nil, err
		}
		if err := a.SetName(name); err != nil {
			return nil, err
		}
		if err := setAssemblyFields(a, rec); err != nil {
			return nil, err
		}
		if err := a.Freeze(); err != nil {
			return nil, err
		}
		out[name] = a
	}
	return out, nil
}

func setAssemblyFields(a *process.Assembly, rec record) error {
	floatSetters := []struct {
		field string
		set   func(float64) error
	}{
		{"materials_cost_per_mm2", a.SetMaterialsCostPerMM2},
		{"picknplace_time", a.SetPicknplaceTime},
		{"picknplace_machine_cost", a.SetPicknplaceMachineCost},
		{"picknplace_machine_lifetime", a.SetPicknplaceMachineLifetime},
		{"picknplace_machine_uptime", a.SetPicknplaceMachineUptime},
		{"picknplace_technician_cost_per_year", a.SetPicknplaceTechnicianCostPerYear},
		{"bonding_time", a.SetBondingTime},
		{"bonding_machine_cost", a.SetBondingMachineCost},
		{"bonding_machine_lifetime", a.SetBondingMachineLifetime},
		{"bonding_machine_uptime", a.SetBondingMachineUptime},
		{"bonding_technician_cost_per_year", a.SetBondingTechnicianCostPerYear},
		{"die_separation", a.SetDieSeparation},
		{"edge_exclusion", a.SetEdgeExclusion},
		{"max_pad_current_density", a.SetMaxPadCurrentDensity},
		{"bonding_pitch", a.SetBondingPitch},
		{"alignment_yield", a.SetAlignmentYield},
		{"bonding_yield", a.SetBondingYield},
		{"dielectric_bond_defect_density", a.SetDielectricBondDefectDensity},
	}
	for _, fs := range floatSetters {
		v, err := rec.requireFloat(fs.field)
		if err != nil {
			return err
		}
		if err := fs.set(v); err != nil {
			return err
		}
	}
	pnpGroup, err := rec.requireInt("picknplace_group")
	if err != nil {
		return err
	}
	if err := a.SetPicknplaceGroup(pnpGroup); err != nil {
		return err
	}
	bondGroup, err := rec.requireInt("bonding_group")
	if err != nil {
		return err
	}
	if err := a.SetBondingGroup(bondGroup); err != nil {
		return err
	}
	if v, ok := rec.str("bb_cost_per_second"); ok {
		f, err := parseFloatStr(v)
		if err != nil {
			return err
		}
		if err := a.SetBBCostPerSecond(f); err != nil {
			return err
		}
	}
	return nil
}

// LoadTests mirrors LoadWaferProcesses for Test records.
func LoadTests(r io.Reader) (map[string]*process.Test, error) {
	recs, err := parseRecords(r)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*process.Test, len(recs))
	for _, rec := range recs {
		t := process.NewTest()
		name, err := rec.requireStr("name")
		if err != nil {
			return nil, err
		}
		if err := t.SetName(name); err != nil {
			return nil, err
		}
		for _, fs := range []struct {
			field string
			set   func(float64) error
		}{
			{"time_per_test_cycle", t.SetTimePerTestCycle},
			{"cost_per_second", t.SetCostPerSecond},
			{"samples_per_input", t.SetSamplesPerInput},
			{"gate_flop_ratio", t.SetGateFlopRatio},
		} {
			v, err := rec.requireFloat(fs.field)
			if err != nil {
				return nil, err
			}
			if err := fs.set(v); err != nil {
				return nil, err
			}
		}
		selfTest, err := rec.requireBool("self_test")
		if err != nil {
			return nil, err
		}
		if err := t.SetSelfTest(selfTest); err != nil {
			return nil, err
		}
		assemblyTest, err := rec.requireBool("assembly_test")
		if err != nil {
			return nil, err
		}
		if err := t.SetAssemblyTest(assemblyTest); err != nil {
			return nil, err
		}
		if selfTest {
			coverage, reuse, chains, ioPerChain, offset, dist, err := testParams(rec, "self")
			if err != nil {
				return nil, err
			}
			if err := t.SetSelfTestParams(coverage, reuse, chains, ioPerChain, offset, dist); err != nil {
				return nil, err
			}
		}
		if assemblyTest {
			coverage, reuse, chains, ioPerChain, offset, dist, err := testParams(rec, "assembly")
			if err != nil {
				return nil, err
			}
			if err := t.SetAssemblyTestParams(coverage, reuse, chains, ioPerChain, offset, dist); err != nil {
				return nil, err
			}
		}
		if v, ok := rec.str("override_self_pattern_count"); ok {
			n, err := parseIntStr(v)
			if err != nil {
				return nil, err
			}
			if err := t.SetOverrideSelfPatternCount(n); err != nil {
				return nil, err
			}
		}
		if v, ok := rec.str("override_self_scan_chain_length"); ok {
			n, err := parseIntStr(v)
			if err != nil {
				return nil, err
			}
			if err := t.SetOverrideSelfScanChainLength(n); err != nil {
				return nil, err
			}
		}
		if err := t.Freeze(); err != nil {
			return nil, err
		}
		out[name] = t
	}
	return out, nil
}

func testParams(rec record, prefix string) (coverage, reuse float64, chains, ioPerChain, offset int, dist string, err error) {
	coverage, err = rec.requireFloat(prefix + "_defect_coverage")
	if err != nil {
		return
	}
	reuse, err = rec.requireFloat(prefix + "_test_reuse")
	if err != nil {
		return
	}
	chains, err = rec.requireInt(prefix + "_num_scan_chains")
	if err != nil {
		return
	}
	ioPerChain, err = rec.requireInt(prefix + "_num_io_per_chain")
	if err != nil {
		return
	}
	offset, err = rec.requireInt(prefix + "_test_io_offset")
	if err != nil {
		return
	}
	dist, _ = rec.str(prefix + "_test_failure_dist")
	return
}

// LoadLayers mirrors LoadWaferProcesses for Layer records.
func LoadLayers(r io.Reader) (map[string]*process.Layer, error) {
	recs, err := parseRecords(r)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*process.Layer, len(recs))
	for _, rec := range recs {
		l := process.NewLayer()
		name, err := rec.requireStr("name")
		if err != nil {
			return nil, err
		}
		if err := l.SetName(name); err != nil {
			return nil, err
		}
		active, err := rec.requireBool("active")
		if err != nil {
			return nil, err
		}
		if err := l.SetActive(active); err != nil {
			return nil, err
		}
		for _, fs := range []struct {
			field string
			set   func(float64) error
		}{
			{"cost_per_mm2", l.SetCostPerMM2},
			{"transistor_density", l.SetTransistorDensity},
			{"defect_density", l.SetDefectDensity},
			{"critical_area_ratio", l.SetCriticalAreaRatio},
			{"clustering_factor", l.SetClusteringFactor},
			{"litho_percent", l.SetLithoPercent},
			{"mask_cost", l.SetMaskCost},
			{"stitching_yield", l.SetStitchingYield},
		} {
			v, err := rec.requireFloat(fs.field)
			if err != nil {
				return nil, err
			}
			if err := fs.set(v); err != nil {
				return nil, err
			}
		}
		if v, ok := rec.str("approx"); ok {
			b, err := parseBoolStr(v)
			if err != nil {
				return nil, err
			}
			if err := l.SetApprox(b); err != nil {
				return nil, err
			}
		}
		if err := l.Freeze(); err != nil {
			return nil, err
		}
		out[name] = l
	}
	return out, nil
}

// LoadIOs mirrors LoadWaferProcesses for IO records, keyed by the record's
// own "type" field rather than a separate "name".
func LoadIOs(r io.Reader) (map[string]*process.IO, error) {
	recs, err := parseRecords(r)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*process.IO, len(recs))
	for _, rec := range recs {
		ioRec := process.NewIO()
		ioType, err := rec.requireStr("type")
		if err != nil {
			return nil, err
		}
		if err := ioRec.SetType(ioType); err != nil {
			return nil, err
		}
		for _, fs := range []struct {
			field string
			set   func(float64) error
		}{
			{"rx_area", ioRec.SetRxArea},
			{"tx_area", ioRec.SetTxArea},
			{"shoreline", ioRec.SetShoreline},
			{"bandwidth", ioRec.SetBandwidth},
			{"wire_count", ioRec.SetWireCount},
			{"energy_per_bit", ioRec.SetEnergyPerBit},
			{"reach", ioRec.SetReach},
		} {
			v, err := rec.requireFloat(fs.field)
			if err != nil {
				return nil, err
			}
			if err := fs.set(v); err != nil {
				return nil, err
			}
		}
		bidir, err := rec.requireBool("bidirectional")
		if err != nil {
			return nil, err
		}
		if err := ioRec.SetBidirectional(bidir); err != nil {
			return nil, err
		}
		if err := ioRec.Freeze(); err != nil {
			return nil, err
		}
		out[ioType] = ioRec
	}
	return out, nil
}

// LoadLibrarySources bundles the five already-opened library readers
// (§6.3's init signature is io_file, layer_file, wafer_file,
// assembly_file, test_file) into one Library.
type LoadLibrarySources struct {
	IO       io.Reader
	Layer    io.Reader
	Wafer    io.Reader
	Assembly io.Reader
	Test     io.Reader
}

// LoadLibrary is §6.3's init: it parses all five library files and
// returns the assembled, frozen chip.Library.
func LoadLibrary(src LoadLibrarySources) (*chip.Library, error) {
	lib := chip.NewLibrary()
	var err error
	if lib.IOs, err = LoadIOs(src.IO); err != nil {
		return nil, err
	}
	if lib.Layers, err = LoadLayers(src.Layer); err != nil {
		return nil, err
	}
	if lib.Wafers, err = LoadWaferProcesses(src.Wafer); err != nil {
		return nil, err
	}
	if lib.Assemblies, err = LoadAssemblies(src.Assembly); err != nil {
		return nil, err
	}
	if lib.Tests, err = LoadTests(src.Test); err != nil {
		return nil, err
	}
	return lib, nil
}
