package process

import "github.com/ABKGroup/chipletpart/cherr"

// WaferProcess describes the fabrication process characteristics of a
// single wafer run: its geometry, yield, reticle dimensions, and
// front-end/back-end NRE cost per square millimeter for each of the three
// block kinds the cost model distinguishes.
type WaferProcess struct {
	lc lifecycle

	name string

	waferDiameter  float64
	edgeExclusion  float64
	waferYield     float64
	dicingDistance float64
	reticleX       float64
	reticleY       float64
	gridFill       bool

	nreFrontEndCostPerMM2 map[string]float64
	nreBackEndCostPerMM2  map[string]float64
}

// waferProcessKinds are the three block kinds NRE cost is broken out by.
var waferProcessKinds = []string{"memory", "logic", "analog"}

var waferProcessRequired = []string{
	"name", "wafer_diameter", "edge_exclusion", "wafer_yield", "dicing_distance",
	"reticle_x", "reticle_y", "grid_fill",
	"nre_front_end_cost_per_mm2.memory", "nre_front_end_cost_per_mm2.logic", "nre_front_end_cost_per_mm2.analog",
	"nre_back_end_cost_per_mm2.memory", "nre_back_end_cost_per_mm2.logic", "nre_back_end_cost_per_mm2.analog",
}

// NewWaferProcess returns an unset, unfrozen WaferProcess record.
func NewWaferProcess() *WaferProcess {
	return &WaferProcess{
		lc:                    newLifecycle(),
		nreFrontEndCostPerMM2: make(map[string]float64),
		nreBackEndCostPerMM2:  make(map[string]float64),
	}
}

func (w *WaferProcess) SetName(v string) error {
	if err := w.lc.checkMutable("name"); err != nil {
		return err
	}
	w.name = v
	w.lc.mark("name")
	return nil
}

func (w *WaferProcess) Name() string { return w.name }

// wafer geometry bounds (edge_exclusion, dicing_distance, reticle_x,
// reticle_y) are each required to be <= wafer_diameter/2; since
// wafer_diameter may be set after these, the bound is re-checked whenever
// either side changes.

func (w *WaferProcess) SetWaferDiameter(v float64) error {
	if err := w.lc.checkMutable("wafer_diameter"); err != nil {
		return err
	}
	if err := nonNegative("wafer_diameter", v); err != nil {
		return err
	}
	w.waferDiameter = v
	w.lc.mark("wafer_diameter")
	return w.checkHalfDiameterBounds()
}

func (w *WaferProcess) checkHalfDiameterBounds() error {
	half := w.waferDiameter / 2
	for _, pair := range []struct {
		field string
		v     float64
	}{
		{"edge_exclusion", w.edgeExclusion},
		{"dicing_distance", w.dicingDistance},
		{"reticle_x", w.reticleX},
		{"reticle_y", w.reticleY},
	} {
		if w.lc.set[pair.field] && pair.v > half {
			return rangeErr(pair.field, pair.v, "<= wafer_diameter/2")
		}
	}
	return nil
}

func (w *WaferProcess) SetEdgeExclusion(v float64) error {
	if err := w.lc.checkMutable("edge_exclusion"); err != nil {
		return err
	}
	if err := nonNegative("edge_exclusion", v); err != nil {
		return err
	}
	w.edgeExclusion = v
	w.lc.mark("edge_exclusion")
	return w.checkHalfDiameterBounds()
}

func (w *WaferProcess) SetWaferYield(v float64) error {
	if err := w.lc.checkMutable("wafer_yield"); err != nil {
		return err
	}
	if err := unitInterval("wafer_yield", v); err != nil {
		return err
	}
	w.waferYield = v
	w.lc.mark("wafer_yield")
	return nil
}

func (w *WaferProcess) SetDicingDistance(v float64) error {
	if err := w.lc.checkMutable("dicing_distance"); err != nil {
		return err
	}
	if err := nonNegative("dicing_distance", v); err != nil {
		return err
	}
	w.dicingDistance = v
	w.lc.mark("dicing_distance")
	return w.checkHalfDiameterBounds()
}

func (w *WaferProcess) SetReticleX(v float64) error {
	if err := w.lc.checkMutable("reticle_x"); err != nil {
		return err
	}
	if err := nonNegative("reticle_x", v); err != nil {
		return err
	}
	w.reticleX = v
	w.lc.mark("reticle_x")
	return w.checkHalfDiameterBounds()
}

func (w *WaferProcess) SetReticleY(v float64) error {
	if err := w.lc.checkMutable("reticle_y"); err != nil {
		return err
	}
	if err := nonNegative("reticle_y", v); err != nil {
		return err
	}
	w.reticleY = v
	w.lc.mark("reticle_y")
	return w.checkHalfDiameterBounds()
}

func (w *WaferProcess) SetGridFill(v bool) error {
	if err := w.lc.checkMutable("grid_fill"); err != nil {
		return err
	}
	w.gridFill = v
	w.lc.mark("grid_fill")
	return nil
}

func validKind(kind string) bool {
	for _, k := range waferProcessKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (w *WaferProcess) SetNreFrontEndCostPerMM2(kind string, v float64) error {
	field := "nre_front_end_cost_per_mm2." + kind
	if err := w.lc.checkMutable(field); err != nil {
		return err
	}
	if !validKind(kind) {
		return &cherr.RangeViolation{Field: "kind", Value: 0, Bound: "one of memory, logic, analog"}
	}
	if err := nonNegative(field, v); err != nil {
		return err
	}
	w.nreFrontEndCostPerMM2[kind] = v
	w.lc.mark(field)
	return nil
}

func (w *WaferProcess) SetNreBackEndCostPerMM2(kind string, v float64) error {
	field := "nre_back_end_cost_per_mm2." + kind
	if err := w.lc.checkMutable(field); err != nil {
		return err
	}
	if !validKind(kind) {
		return &cherr.RangeViolation{Field: "kind", Value: 0, Bound: "one of memory, logic, analog"}
	}
	if err := nonNegative(field, v); err != nil {
		return err
	}
	w.nreBackEndCostPerMM2[kind] = v
	w.lc.mark(field)
	return nil
}

func (w *WaferProcess) WaferDiameter() float64  { return w.waferDiameter }
func (w *WaferProcess) EdgeExclusion() float64  { return w.edgeExclusion }
func (w *WaferProcess) WaferYield() float64     { return w.waferYield }
func (w *WaferProcess) DicingDistance() float64 { return w.dicingDistance }
func (w *WaferProcess) ReticleX() float64       { return w.reticleX }
func (w *WaferProcess) ReticleY() float64       { return w.reticleY }
func (w *WaferProcess) GridFill() bool          { return w.gridFill }

func (w *WaferProcess) NreFrontEndCostPerMM2(kind string) float64 { return w.nreFrontEndCostPerMM2[kind] }
func (w *WaferProcess) NreBackEndCostPerMM2(kind string) float64  { return w.nreBackEndCostPerMM2[kind] }

// IsFullyDefined reports whether every required field has been set.
func (w *WaferProcess) IsFullyDefined() bool {
	return len(w.lc.missing(waferProcessRequired)) == 0
}

// Freeze locks the record against further mutation. Fails with
// Underspecified if any required field is unset.
func (w *WaferProcess) Freeze() error {
	return w.lc.freeze(waferProcessRequired)
}

func (w *WaferProcess) Frozen() bool { return w.lc.Frozen() }

// UsableDiameter returns the wafer diameter minus twice the edge
// exclusion — the diameter within which dies may actually be placed.
func (w *WaferProcess) UsableDiameter() float64 {
	return w.waferDiameter - 2*w.edgeExclusion
}
