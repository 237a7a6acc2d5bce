package process

import "math"

// Layer describes one layer of a chiplet's stackup: its process cost,
// defect characteristics, and litho/reticle economics. A Layer may be
// inactive (a passive/interposer layer contributing no active-device
// yield loss).
type Layer struct {
	lc lifecycle

	name string

	active              bool
	costPerMM2          float64
	transistorDensity   float64 // million transistors / mm^2
	defectDensity       float64
	criticalAreaRatio   float64
	clusteringFactor    float64
	lithoPercent        float64
	maskCost            float64
	stitchingYield      float64
	approx              bool
}

var layerRequired = []string{
	"name", "active", "cost_per_mm2", "transistor_density", "defect_density",
	"critical_area_ratio", "clustering_factor", "litho_percent", "mask_cost", "stitching_yield",
}

// NewLayer returns an unset, unfrozen Layer record.
func NewLayer() *Layer {
	return &Layer{lc: newLifecycle()}
}

func (l *Layer) SetName(v string) error {
	if err := l.lc.checkMutable("name"); err != nil {
		return err
	}
	l.name = v
	l.lc.mark("name")
	return nil
}

func (l *Layer) Name() string { return l.name }

func (l *Layer) SetActive(v bool) error {
	if err := l.lc.checkMutable("active"); err != nil {
		return err
	}
	l.active = v
	l.lc.mark("active")
	return nil
}

func (l *Layer) Active() bool { return l.active }

func (l *Layer) SetCostPerMM2(v float64) error {
	return simpleSetter(&l.lc, "cost_per_mm2", &l.costPerMM2, v, nonNegative)
}

func (l *Layer) SetTransistorDensity(v float64) error {
	return simpleSetter(&l.lc, "transistor_density", &l.transistorDensity, v, nonNegative)
}

func (l *Layer) SetDefectDensity(v float64) error {
	return simpleSetter(&l.lc, "defect_density", &l.defectDensity, v, nonNegative)
}

func (l *Layer) SetCriticalAreaRatio(v float64) error {
	return simpleSetter(&l.lc, "critical_area_ratio", &l.criticalAreaRatio, v, nonNegative)
}

func (l *Layer) SetClusteringFactor(v float64) error {
	return simpleSetter(&l.lc, "clustering_factor", &l.clusteringFactor, v, nonNegative)
}

func (l *Layer) SetLithoPercent(v float64) error {
	return simpleSetter(&l.lc, "litho_percent", &l.lithoPercent, v, unitInterval)
}

func (l *Layer) SetMaskCost(v float64) error {
	return simpleSetter(&l.lc, "mask_cost", &l.maskCost, v, nonNegative)
}

func (l *Layer) SetStitchingYield(v float64) error {
	return simpleSetter(&l.lc, "stitching_yield", &l.stitchingYield, v, unitInterval)
}

// SetApprox toggles the fast closed-form dies_per_wafer estimate. Not a
// required field: its zero value (false, exact computation) is a valid
// default.
func (l *Layer) SetApprox(v bool) error {
	if err := l.lc.checkMutable("approx"); err != nil {
		return err
	}
	l.approx = v
	return nil
}

func (l *Layer) Approx() bool { return l.approx }

func (l *Layer) TransistorDensity() float64 { return l.transistorDensity }
func (l *Layer) CostPerMM2() float64        { return l.costPerMM2 }
func (l *Layer) MaskCost() float64          { return l.maskCost }

// IsFullyDefined reports whether every required field has been set.
func (l *Layer) IsFullyDefined() bool {
	return len(l.lc.missing(layerRequired)) == 0
}

// Freeze locks the record against further mutation.
func (l *Layer) Freeze() error {
	return l.lc.freeze(layerRequired)
}

func (l *Layer) Frozen() bool { return l.lc.Frozen() }

// Yield returns the layer's true yield for a die of the given core+IO
// area. numStitches is always 0 in this model (dies are never stitched
// across reticle boundaries by the components that call this), so the
// stitching_yield term evaluates to 1 and only the Murphy-style defect
// term varies with area.
func (l *Layer) Yield(area float64) float64 {
	const numStitches = 0
	stitchPart := powBig(l.stitchingYield, numStitches)
	defectTerm := 1 + l.defectDensity*area*l.criticalAreaRatio/l.clusteringFactor
	return stitchPart * math.Pow(defectTerm, -l.clusteringFactor)
}

// ReticleUtilization expands the reticle field (rx*ry) to the smallest
// integer multiple that covers area, and returns the fraction of that
// expanded field actually used by die copies tiled within it.
func (l *Layer) ReticleUtilization(area, reticleX, reticleY float64) float64 {
	reticleArea := reticleX * reticleY
	if reticleArea <= 0 || area <= 0 {
		return 0
	}
	multiple := math.Ceil(area / reticleArea)
	expanded := multiple * reticleArea
	return (math.Floor(expanded/area) * area) / expanded
}

// approxDiesPerWafer is the closed-form estimate used when Approx is set,
// matching the grid-mode fast path: floor(d*pi*(term1-term2)).
func approxDiesPerWafer(x, y, usableDiam, dicing float64) int {
	common := dicing + math.Sqrt(x*y)
	term1 := usableDiam / (4 * common * common)
	term2 := 1 / math.Sqrt(2*common*common)
	return int(math.Floor(usableDiam * math.Pi * (term1 - term2)))
}

// GridDiesPerWafer exhaustively searches, over every possible left-column
// height (number of dies flush against the wafer's left edge), a tiling of
// the usable circle by (x+dicing)x(y+dicing) cells, and returns the
// maximum die count found. approx short-circuits to the closed-form
// estimate.
func GridDiesPerWafer(x, y, usableDiam, dicing float64, approx bool) int {
	if approx {
		return approxDiesPerWafer(x, y, usableDiam, dicing)
	}
	if x <= 0 || y <= 0 || usableDiam <= 0 {
		return 0
	}

	r := usableDiam * 0.5
	rSquared := r * r
	xEff := x + dicing
	yEff := y + dicing
	halfXEff := xEff * 0.5
	halfYEff := yEff * 0.5
	halfDicing := dicing * 0.5

	crossoverHeight := math.Sqrt(rSquared-math.Pow(halfXEff-halfDicing, 2)) * 2
	maxLeftColumn := int(math.Ceil(crossoverHeight/halfYEff)) + 1

	best := 0
	if maxLeftColumn > 0 && x >= usableDiam*0.25 {
		best = int(3.14159 * rSquared / (xEff * yEff))
	}

	for leftColumnHeight := 1; leftColumnHeight < maxLeftColumn; leftColumnHeight++ {
		if leftColumnHeight == 1 && x >= usableDiam*0.25 {
			continue
		}

		rowChordHeight := float64(leftColumnHeight)*halfYEff - halfDicing
		if rowChordHeight >= r {
			continue
		}

		chordLength := 2.0 * math.Sqrt(rSquared-rowChordHeight*rowChordHeight)
		numDiesInRow := int((chordLength + dicing) / xEff)
		if numDiesInRow <= 0 {
			continue
		}

		count := numDiesInRow * leftColumnHeight

		nextRowChordHeight := rowChordHeight + yEff
		halfChordLength := chordLength * 0.5
		endOfRows := float64(numDiesInRow)*xEff - halfChordLength
		endPlusEff := endOfRows + xEff
		endPlusEffSquared := endPlusEff * endPlusEff

		for i := 0; i < leftColumnHeight; i++ {
			yPos := yEff*float64(i) - nextRowChordHeight + yEff
			ySquared := yPos * yPos
			if endPlusEffSquared+ySquared > rSquared {
				continue
			}
			yPlus := yPos + yEff
			yPlusSquared := yPlus * yPlus
			if endPlusEffSquared+yPlusSquared <= rSquared {
				count++
			}
		}

		currentRowChordHeight := nextRowChordHeight
		startingDistanceFromLeft := (usableDiam - chordLength) * 0.5

		for currentRowChordHeight < r {
			currentSquared := currentRowChordHeight * currentRowChordHeight
			if currentSquared >= rSquared {
				break
			}
			currentChordLength := 2.0 * math.Sqrt(rSquared-currentSquared)
			locationOfFirstFit := (usableDiam - currentChordLength) * 0.5
			diff := locationOfFirstFit - startingDistanceFromLeft
			startingLocation := math.Ceil(diff/xEff)*xEff + startingDistanceFromLeft
			effectiveCordLength := currentChordLength - (startingLocation - locationOfFirstFit)
			if effectiveCordLength <= 0 {
				currentRowChordHeight += yEff
				continue
			}
			diesPerRow := int(effectiveCordLength / xEff)
			count += 2 * diesPerRow
			currentRowChordHeight += yEff
		}

		if count > best {
			best = count
		}
	}

	return best
}

// NogridDiesPerWafer computes the larger of two centered-row tilings: rows
// centered on the wafer diameter, versus rows flanking but never crossing
// the diameter.
func NogridDiesPerWafer(x, y, usableDiam, dicing float64) int {
	if x <= 0 || y <= 0 || usableDiam <= 0 {
		return 0
	}

	xEff := x + dicing
	yEff := y + dicing
	r := usableDiam * 0.5
	rSquared := r * r
	halfDicing := dicing * 0.5

	// Case 1: a row of dies straddling (centered on) the diameter line.
	rowChordHeight := yEff * 0.5
	if rowChordHeight-halfDicing >= r {
		return 0
	}
	chordLength := math.Sqrt(rSquared-math.Pow(rowChordHeight-halfDicing, 2))*2 + dicing
	case1 := int(math.Floor(chordLength / xEff))

	rowChordHeight += yEff
	for rowChordHeight < r {
		if rowChordHeight-halfDicing >= r {
			break
		}
		cur := math.Sqrt(rSquared-math.Pow(rowChordHeight-halfDicing, 2))*2 + dicing
		case1 += 2 * int(math.Floor(cur/xEff))
		rowChordHeight += yEff
	}

	// Case 2: rows flanking but not crossing the diameter.
	rowChordHeight = yEff
	if rowChordHeight-halfDicing >= r {
		return case1
	}
	initialChord := math.Sqrt(rSquared-math.Pow(rowChordHeight-halfDicing, 2))*2 + dicing
	case2 := 2 * int(math.Floor(initialChord/xEff))

	rowChordHeight += yEff
	for rowChordHeight < r {
		if rowChordHeight-halfDicing >= r {
			break
		}
		cur := math.Sqrt(rSquared-math.Pow(rowChordHeight-halfDicing, 2))*2 + dicing
		case2 += 2 * int(math.Floor(cur/xEff))
		rowChordHeight += yEff
	}

	if case1 > case2 {
		return case1
	}
	return case2
}

// ComputeDiesPerWafer dispatches to the grid or no-grid algorithm,
// honoring Approx, and applying the oversize-die boundary contract.
func (l *Layer) ComputeDiesPerWafer(x, y, usableDiam, dicing float64, gridFill bool) int {
	if x <= 0 || y <= 0 || usableDiam <= 0 {
		return 0
	}
	if x*y > math.Pi*(usableDiam/2)*(usableDiam/2) {
		return 0
	}
	if gridFill {
		return GridDiesPerWafer(x, y, usableDiam, dicing, l.approx)
	}
	return NogridDiesPerWafer(x, y, usableDiam, dicing)
}

// Cost returns the per-mm^2 manufacturing cost of this layer for a die of
// the given area and aspect ratio on the given wafer process: base cost
// scaled by wafer-area utilization efficiency, split between a
// litho-independent share and a reticle-utilization-amortized litho share.
func (l *Layer) Cost(area, aspectRatio float64, usableDiam, dicing, reticleX, reticleY, waferDiameter float64, gridFill bool) float64 {
	if area <= 0 {
		return 0
	}
	x := math.Sqrt(area * aspectRatio)
	y := math.Sqrt(area / aspectRatio)

	dies := l.ComputeDiesPerWafer(x, y, usableDiam, dicing, gridFill)
	if dies == 0 {
		return math.Inf(1)
	}

	usedArea := float64(dies) * area
	circleArea := math.Pi * (waferDiameter / 2) * (waferDiameter / 2)
	effectiveCostPerMM2 := l.costPerMM2 * circleArea / usedArea

	reticleUtil := l.ReticleUtilization(area, reticleX, reticleY)
	nonLithoShare := (1 - l.lithoPercent) * effectiveCostPerMM2
	var lithoShare float64
	if reticleUtil > 0 {
		lithoShare = (l.lithoPercent * effectiveCostPerMM2) / reticleUtil
	}
	return nonLithoShare + lithoShare
}
