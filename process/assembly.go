package process

import "math"

// Assembly describes the die-to-package assembly process: materials,
// pick-and-place and bonding machine economics, and the defect/yield model
// for the bonds it creates.
type Assembly struct {
	lc lifecycle

	name string

	materialsCostPerMM2 float64

	bbCostPerSecond                 *float64 // optional black-box override
	picknplaceTime                  float64
	picknplaceGroup                 int
	picknplaceMachineCost           float64
	picknplaceMachineLifetime       float64
	picknplaceMachineUptime         float64
	picknplaceTechnicianCostPerYear float64

	bondingTime                  float64
	bondingGroup                 int
	bondingMachineCost           float64
	bondingMachineLifetime       float64
	bondingMachineUptime         float64
	bondingTechnicianCostPerYear float64

	dieSeparation               float64
	edgeExclusion               float64
	maxPadCurrentDensity        float64
	bondingPitch                float64
	alignmentYield              float64
	bondingYield                float64
	dielectricBondDefectDensity float64
}

const secondsPerYear = 365.25 * 24 * 3600

var assemblyRequired = []string{
	"name", "materials_cost_per_mm2",
	"picknplace_time", "picknplace_group", "picknplace_machine_cost",
	"picknplace_machine_lifetime", "picknplace_machine_uptime", "picknplace_technician_cost_per_year",
	"bonding_time", "bonding_group", "bonding_machine_cost",
	"bonding_machine_lifetime", "bonding_machine_uptime", "bonding_technician_cost_per_year",
	"die_separation", "edge_exclusion", "max_pad_current_density", "bonding_pitch",
	"alignment_yield", "bonding_yield", "dielectric_bond_defect_density",
}

// NewAssembly returns an unset, unfrozen Assembly record.
func NewAssembly() *Assembly {
	return &Assembly{lc: newLifecycle()}
}

func (a *Assembly) SetName(v string) error {
	if err := a.lc.checkMutable("name"); err != nil {
		return err
	}
	a.name = v
	a.lc.mark("name")
	return nil
}

func (a *Assembly) Name() string { return a.name }

func (a *Assembly) SetMaterialsCostPerMM2(v float64) error {
	if err := a.lc.checkMutable("materials_cost_per_mm2"); err != nil {
		return err
	}
	if err := nonNegative("materials_cost_per_mm2", v); err != nil {
		return err
	}
	a.materialsCostPerMM2 = v
	a.lc.mark("materials_cost_per_mm2")
	return nil
}

// SetBBCostPerSecond installs a black-box override for assembly cost per
// second; when set, it is used in place of the derived
// PicknplaceCostPerSecond/BondingCostPerSecond computation.
func (a *Assembly) SetBBCostPerSecond(v float64) error {
	if err := a.lc.checkMutable("bb_cost_per_second"); err != nil {
		return err
	}
	if err := nonNegative("bb_cost_per_second", v); err != nil {
		return err
	}
	a.bbCostPerSecond = &v
	return nil
}

func simpleSetter(lc *lifecycle, field string, target *float64, v float64, check func(string, float64) error) error {
	if err := lc.checkMutable(field); err != nil {
		return err
	}
	if check != nil {
		if err := check(field, v); err != nil {
			return err
		}
	}
	*target = v
	lc.mark(field)
	return nil
}

func (a *Assembly) SetPicknplaceTime(v float64) error {
	return simpleSetter(&a.lc, "picknplace_time", &a.picknplaceTime, v, nonNegative)
}

func (a *Assembly) SetPicknplaceGroup(v int) error {
	if err := a.lc.checkMutable("picknplace_group"); err != nil {
		return err
	}
	if v < 1 {
		return rangeErr("picknplace_group", float64(v), ">= 1")
	}
	a.picknplaceGroup = v
	a.lc.mark("picknplace_group")
	return nil
}

func (a *Assembly) SetPicknplaceMachineCost(v float64) error {
	return simpleSetter(&a.lc, "picknplace_machine_cost", &a.picknplaceMachineCost, v, nonNegative)
}

func (a *Assembly) SetPicknplaceMachineLifetime(v float64) error {
	return simpleSetter(&a.lc, "picknplace_machine_lifetime", &a.picknplaceMachineLifetime, v, nonNegative)
}

func (a *Assembly) SetPicknplaceMachineUptime(v float64) error {
	return simpleSetter(&a.lc, "picknplace_machine_uptime", &a.picknplaceMachineUptime, v, unitInterval)
}

func (a *Assembly) SetPicknplaceTechnicianCostPerYear(v float64) error {
	return simpleSetter(&a.lc, "picknplace_technician_cost_per_year", &a.picknplaceTechnicianCostPerYear, v, nonNegative)
}

func (a *Assembly) SetBondingTime(v float64) error {
	return simpleSetter(&a.lc, "bonding_time", &a.bondingTime, v, nonNegative)
}

func (a *Assembly) SetBondingGroup(v int) error {
	if err := a.lc.checkMutable("bonding_group"); err != nil {
		return err
	}
	if v < 1 {
		return rangeErr("bonding_group", float64(v), ">= 1")
	}
	a.bondingGroup = v
	a.lc.mark("bonding_group")
	return nil
}

func (a *Assembly) SetBondingMachineCost(v float64) error {
	return simpleSetter(&a.lc, "bonding_machine_cost", &a.bondingMachineCost, v, nonNegative)
}

func (a *Assembly) SetBondingMachineLifetime(v float64) error {
	return simpleSetter(&a.lc, "bonding_machine_lifetime", &a.bondingMachineLifetime, v, nonNegative)
}

func (a *Assembly) SetBondingMachineUptime(v float64) error {
	return simpleSetter(&a.lc, "bonding_machine_uptime", &a.bondingMachineUptime, v, unitInterval)
}

func (a *Assembly) SetBondingTechnicianCostPerYear(v float64) error {
	return simpleSetter(&a.lc, "bonding_technician_cost_per_year", &a.bondingTechnicianCostPerYear, v, nonNegative)
}

func (a *Assembly) SetDieSeparation(v float64) error {
	return simpleSetter(&a.lc, "die_separation", &a.dieSeparation, v, nonNegative)
}

func (a *Assembly) SetEdgeExclusion(v float64) error {
	return simpleSetter(&a.lc, "edge_exclusion", &a.edgeExclusion, v, nonNegative)
}

func (a *Assembly) SetMaxPadCurrentDensity(v float64) error {
	return simpleSetter(&a.lc, "max_pad_current_density", &a.maxPadCurrentDensity, v, nonNegative)
}

func (a *Assembly) SetBondingPitch(v float64) error {
	return simpleSetter(&a.lc, "bonding_pitch", &a.bondingPitch, v, nonNegative)
}

func (a *Assembly) SetAlignmentYield(v float64) error {
	return simpleSetter(&a.lc, "alignment_yield", &a.alignmentYield, v, unitInterval)
}

func (a *Assembly) SetBondingYield(v float64) error {
	return simpleSetter(&a.lc, "bonding_yield", &a.bondingYield, v, unitInterval)
}

func (a *Assembly) SetDielectricBondDefectDensity(v float64) error {
	return simpleSetter(&a.lc, "dielectric_bond_defect_density", &a.dielectricBondDefectDensity, v, nonNegative)
}

func (a *Assembly) DieSeparation() float64        { return a.dieSeparation }
func (a *Assembly) EdgeExclusion() float64        { return a.edgeExclusion }
func (a *Assembly) BondingPitch() float64         { return a.bondingPitch }
func (a *Assembly) MaxPadCurrentDensity() float64 { return a.maxPadCurrentDensity }

// IsFullyDefined reports whether every required field has been set.
func (a *Assembly) IsFullyDefined() bool {
	return len(a.lc.missing(assemblyRequired)) == 0
}

// Freeze locks the record against further mutation.
func (a *Assembly) Freeze() error {
	return a.lc.freeze(assemblyRequired)
}

func (a *Assembly) Frozen() bool { return a.lc.Frozen() }

// PicknplaceCostPerSecond is the amortized machine + labor cost of running
// the pick-and-place step for one second, unless a black-box override was
// supplied.
func (a *Assembly) PicknplaceCostPerSecond() float64 {
	if a.bbCostPerSecond != nil {
		return *a.bbCostPerSecond
	}
	return ((a.picknplaceMachineCost/a.picknplaceMachineLifetime + a.picknplaceTechnicianCostPerYear) / secondsPerYear) * a.picknplaceMachineUptime
}

// BondingCostPerSecond mirrors PicknplaceCostPerSecond for the bonding step.
func (a *Assembly) BondingCostPerSecond() float64 {
	if a.bbCostPerSecond != nil {
		return *a.bbCostPerSecond
	}
	return ((a.bondingMachineCost/a.bondingMachineLifetime + a.bondingTechnicianCostPerYear) / secondsPerYear) * a.bondingMachineUptime
}

// PicknplaceTimeFor returns the total pick-and-place time for n dies.
func (a *Assembly) PicknplaceTimeFor(n int) float64 {
	groups := math.Ceil(float64(n) / float64(a.picknplaceGroup))
	return a.picknplaceTime * groups
}

// BondingTimeFor returns the total bonding time for n bonds.
func (a *Assembly) BondingTimeFor(n int) float64 {
	groups := math.Ceil(float64(n) / float64(a.bondingGroup))
	return a.bondingTime * groups
}

// AssemblyTimeFor is the sum of pick-and-place and bonding time for n
// dies/bonds.
func (a *Assembly) AssemblyTimeFor(n int) float64 {
	return a.PicknplaceTimeFor(n) + a.BondingTimeFor(n)
}

// Cost returns the total assembly cost for n dies occupying the given
// total area.
func (a *Assembly) Cost(n int, area float64) float64 {
	pnpTime := a.PicknplaceTimeFor(n)
	bondTime := a.BondingTimeFor(n)
	return a.PicknplaceCostPerSecond()*pnpTime + a.BondingCostPerSecond()*bondTime + a.materialsCostPerMM2*area
}

// Yield computes the assembly yield for nChips dies joined by nBonds bonds
// over the given total area. Exponentiation is carried out at extended
// precision (see powBig) since nBonds routinely reaches into the thousands
// and alignment/bonding yields are very close to 1 — a plain float64
// math.Pow loses significant digits exactly in this regime.
func (a *Assembly) Yield(nChips, nBonds int, area float64) float64 {
	alignPart := powBig(a.alignmentYield, nChips)
	bondPart := powBig(a.bondingYield, nBonds)
	return alignPart * bondPart / (1 + a.dielectricBondDefectDensity*area)
}

// PowerPerPad returns the power dissipation capacity of a single bonding
// pad at the given core voltage: Vcore * Imax * pi * (pitch/4)^2.
func (a *Assembly) PowerPerPad(coreVoltage float64) float64 {
	radius := a.bondingPitch / 4
	return coreVoltage * a.maxPadCurrentDensity * math.Pi * radius * radius
}
