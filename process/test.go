package process

import "math"

// Test describes the test process applied to a chiplet both as a bare die
// (self-test) and after assembly into its parent (assembly-test): cycle
// timing, cost, sampling rate, and the scan-chain/self-test-pattern model
// used to derive test coverage and required test IO when no black-box
// override is supplied.
type Test struct {
	lc lifecycle

	name string

	timePerTestCycle float64
	costPerSecond    float64
	samplesPerInput  float64

	selfTest             bool
	selfDefectCoverage   float64
	selfTestReuse        float64
	selfNumScanChains    int
	selfNumIOPerChain    int
	selfTestIOOffset     int
	selfTestFailureDist  string

	assemblyTest            bool
	assemblyDefectCoverage  float64
	assemblyTestReuse       float64
	assemblyNumScanChains   int
	assemblyNumIOPerChain   int
	assemblyTestIOOffset    int
	assemblyTestFailureDist string

	gateFlopRatio float64

	// Black-box overrides, keyed by the same "self"/"assembly" split as
	// above: when set, these replace the core_area/gates-per-mm^2 derived
	// pattern count and scan-chain length.
	overrideSelfPatternCount        *int
	overrideSelfScanChainLength     *int
	overrideAssemblyPatternCount    *int
	overrideAssemblyScanChainLength *int
}

var testRequired = []string{
	"name", "time_per_test_cycle", "cost_per_second", "samples_per_input",
	"self_test", "assembly_test", "gate_flop_ratio",
}

// NewTest returns an unset, unfrozen Test record.
func NewTest() *Test {
	return &Test{lc: newLifecycle()}
}

func (t *Test) SetName(v string) error {
	if err := t.lc.checkMutable("name"); err != nil {
		return err
	}
	t.name = v
	t.lc.mark("name")
	return nil
}

func (t *Test) Name() string { return t.name }

func (t *Test) SetTimePerTestCycle(v float64) error {
	return simpleSetter(&t.lc, "time_per_test_cycle", &t.timePerTestCycle, v, nonNegative)
}

func (t *Test) SetCostPerSecond(v float64) error {
	return simpleSetter(&t.lc, "cost_per_second", &t.costPerSecond, v, nonNegative)
}

func (t *Test) SetSamplesPerInput(v float64) error {
	return simpleSetter(&t.lc, "samples_per_input", &t.samplesPerInput, v, nonNegative)
}

func (t *Test) SetSelfTest(v bool) error {
	if err := t.lc.checkMutable("self_test"); err != nil {
		return err
	}
	t.selfTest = v
	t.lc.mark("self_test")
	return nil
}

func (t *Test) SetSelfTestParams(defectCoverage, reuse float64, numScanChains, numIOPerChain, ioOffset int, failureDist string) error {
	if err := t.lc.checkMutable("self_test_params"); err != nil {
		return err
	}
	if err := unitInterval("self_defect_coverage", defectCoverage); err != nil {
		return err
	}
	if numScanChains < 0 {
		return rangeErr("self_num_scan_chains", float64(numScanChains), ">= 0")
	}
	if numIOPerChain < 0 {
		return rangeErr("self_num_io_per_chain", float64(numIOPerChain), ">= 0")
	}
	t.selfDefectCoverage = defectCoverage
	t.selfTestReuse = reuse
	t.selfNumScanChains = numScanChains
	t.selfNumIOPerChain = numIOPerChain
	t.selfTestIOOffset = ioOffset
	t.selfTestFailureDist = failureDist
	return nil
}

func (t *Test) SetAssemblyTest(v bool) error {
	if err := t.lc.checkMutable("assembly_test"); err != nil {
		return err
	}
	t.assemblyTest = v
	t.lc.mark("assembly_test")
	return nil
}

func (t *Test) SetAssemblyTestParams(defectCoverage, reuse float64, numScanChains, numIOPerChain, ioOffset int, failureDist string) error {
	if err := t.lc.checkMutable("assembly_test_params"); err != nil {
		return err
	}
	if err := unitInterval("assembly_defect_coverage", defectCoverage); err != nil {
		return err
	}
	t.assemblyDefectCoverage = defectCoverage
	t.assemblyTestReuse = reuse
	t.assemblyNumScanChains = numScanChains
	t.assemblyNumIOPerChain = numIOPerChain
	t.assemblyTestIOOffset = ioOffset
	t.assemblyTestFailureDist = failureDist
	return nil
}

func (t *Test) SetGateFlopRatio(v float64) error {
	return simpleSetter(&t.lc, "gate_flop_ratio", &t.gateFlopRatio, v, nonNegative)
}

// SetOverrideSelfPatternCount installs a black-box self-test pattern count,
// bypassing the core_area/gates-per-mm^2 derivation.
func (t *Test) SetOverrideSelfPatternCount(v int) error {
	if v < 0 {
		return rangeErr("override_self_pattern_count", float64(v), ">= 0")
	}
	t.overrideSelfPatternCount = &v
	return nil
}

// SetOverrideSelfScanChainLength installs a black-box self-test scan-chain
// length.
func (t *Test) SetOverrideSelfScanChainLength(v int) error {
	if v < 0 {
		return rangeErr("override_self_scan_chain_length", float64(v), ">= 0")
	}
	t.overrideSelfScanChainLength = &v
	return nil
}

// SetOverrideAssemblyPatternCount installs a black-box assembly-test
// pattern count.
func (t *Test) SetOverrideAssemblyPatternCount(v int) error {
	if v < 0 {
		return rangeErr("override_assembly_pattern_count", float64(v), ">= 0")
	}
	t.overrideAssemblyPatternCount = &v
	return nil
}

// SetOverrideAssemblyScanChainLength installs a black-box assembly-test
// scan-chain length.
func (t *Test) SetOverrideAssemblyScanChainLength(v int) error {
	if v < 0 {
		return rangeErr("override_assembly_scan_chain_length", float64(v), ">= 0")
	}
	t.overrideAssemblyScanChainLength = &v
	return nil
}

// IsFullyDefined reports whether every required field has been set.
func (t *Test) IsFullyDefined() bool {
	return len(t.lc.missing(testRequired)) == 0
}

// Freeze locks the record against further mutation.
func (t *Test) Freeze() error {
	return t.lc.freeze(testRequired)
}

func (t *Test) Frozen() bool { return t.lc.Frozen() }

// patternCount derives (or returns the override for) the number of test
// patterns needed, from the die's core area and gates-per-mm^2 implied by
// transistorDensity and gateFlopRatio.
func patternCount(override *int, coreArea, gatesPerMM2 float64) float64 {
	if override != nil {
		return float64(*override)
	}
	return coreArea * gatesPerMM2
}

func scanChainLength(override *int, fallback float64) float64 {
	if override != nil {
		return float64(*override)
	}
	return fallback
}

// cyclesPerPattern = gates * coverage / (pattern_count * scan_chain_length).
func cyclesPerPattern(gates, coverage, patterns, scanChain float64) float64 {
	if patterns <= 0 || scanChain <= 0 {
		return 0
	}
	return gates * coverage / (patterns * scanChain)
}

// SelfTestTime returns the self-test time for a die with the given core
// area and effective gate count (gates = coreArea * gatesPerMM2 *
// gateFlopRatio, matching how Chip derives it from transistor density).
func (t *Test) SelfTestTime(coreArea, gatesPerMM2, scanChainLen float64) float64 {
	patterns := patternCount(t.overrideSelfPatternCount, coreArea, gatesPerMM2)
	chain := scanChainLength(t.overrideSelfScanChainLength, scanChainLen)
	gates := coreArea * gatesPerMM2
	cycles := cyclesPerPattern(gates, t.selfDefectCoverage, patterns, chain)
	reuse := t.selfTestReuse
	if reuse <= 0 {
		reuse = 1
	}
	return cycles * t.timePerTestCycle / reuse
}

// AssemblyTestTime mirrors SelfTestTime for the post-assembly test pass.
func (t *Test) AssemblyTestTime(coreArea, gatesPerMM2, scanChainLen float64) float64 {
	patterns := patternCount(t.overrideAssemblyPatternCount, coreArea, gatesPerMM2)
	chain := scanChainLength(t.overrideAssemblyScanChainLength, scanChainLen)
	gates := coreArea * gatesPerMM2
	cycles := cyclesPerPattern(gates, t.assemblyDefectCoverage, patterns, chain)
	reuse := t.assemblyTestReuse
	if reuse <= 0 {
		reuse = 1
	}
	return cycles * t.timePerTestCycle / reuse
}

// SelfTestCost/AssemblyTestCost convert time into currency via
// cost_per_second.
func (t *Test) SelfTestCost(coreArea, gatesPerMM2, scanChainLen float64) float64 {
	return t.SelfTestTime(coreArea, gatesPerMM2, scanChainLen) * t.costPerSecond
}

func (t *Test) AssemblyTestCost(coreArea, gatesPerMM2, scanChainLen float64) float64 {
	return t.AssemblyTestTime(coreArea, gatesPerMM2, scanChainLen) * t.costPerSecond
}

// RequiredSelfIO returns the number of test IO pins required by the
// self-test scan architecture: num_scan_chains * num_io_per_chain +
// test_io_offset.
func (t *Test) RequiredSelfIO() int {
	return t.selfNumScanChains*t.selfNumIOPerChain + t.selfTestIOOffset
}

// RequiredAssemblyIO mirrors RequiredSelfIO for the assembly-test
// architecture.
func (t *Test) RequiredAssemblyIO() int {
	return t.assemblyNumScanChains*t.assemblyNumIOPerChain + t.assemblyTestIOOffset
}

// SelfTestYield returns 1 - (1-trueYield)*defectCoverage when self-test is
// enabled; when disabled no test-escape loss is modeled and this returns 1
// unconditionally (so Quality degenerates to trueYield/1 = trueYield).
func (t *Test) SelfTestYield(trueYield float64) float64 {
	if !t.selfTest {
		return 1
	}
	return 1 - (1-trueYield)*t.selfDefectCoverage
}

// AssemblyTestYield mirrors SelfTestYield for the post-assembly pass.
func (t *Test) AssemblyTestYield(trueYield float64) float64 {
	if !t.assemblyTest {
		return 1
	}
	return 1 - (1-trueYield)*t.assemblyDefectCoverage
}

// Quality returns trueYield/testYield, or 0 when testYield is 0 (the
// degenerate "nothing was tested" case — reporting a quality of 0 avoids
// a NaN from propagating into downstream cost terms).
func Quality(trueYield, testYield float64) float64 {
	if testYield <= 0 {
		return 0
	}
	q := trueYield / testYield
	return math.Min(q, 1)
}
