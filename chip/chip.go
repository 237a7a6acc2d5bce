package chip

import (
	"math"

	"github.com/ABKGroup/chipletpart/netlist"
	"github.com/ABKGroup/chipletpart/process"
)

// Spec is the non-derived configuration of one chip-tree node, as parsed
// from a design description or materialized by the cost evaluator. It
// mirrors §3.2's Chip entity minus the fields that are purely derived.
type Spec struct {
	Name string

	WaferProcess string
	Assembly     string
	Test         string
	// Stackup is a "count:layer_name,count:layer_name,..." specifier, one
	// term per run of identical layers in stack order (ordering is
	// semantic: the sequence is read in stackup order, not as a set).
	Stackup string

	CoreArea    float64
	AspectRatio float64
	X, Y        float64

	BBArea    *float64
	BBCost    *float64
	BBQuality *float64
	BBPower   *float64

	FractionMemory float64
	FractionLogic  float64
	FractionAnalog float64

	GateFlopRatio float64
	ReticleShare  float64
	Buried        bool
	CoreVoltage   float64
	Power         float64
	Quantity      int

	Children []*Spec
}

// Chip is one built node of the chip tree: local configuration plus every
// field §3.2 calls derived, already recomputed bottom-up by Build.
type Chip struct {
	Name     string
	parent   *Chip // weak backreference: informational only, never owning
	children []*Chip

	Wafer    *process.WaferProcess
	Assembly *process.Assembly
	Test     *process.Test
	Stackup  []*process.Layer

	ioList []*process.IO // shared across the whole tree
	graph  *netlist.ConnectivityGraph

	CoreArea    float64
	AspectRatio float64
	X, Y        float64

	bbArea    *float64
	bbCost    *float64
	bbQuality *float64
	bbPower   *float64

	FractionMemory float64
	FractionLogic  float64
	FractionAnalog float64

	GateFlopRatio float64
	ReticleShare  float64
	Buried        bool
	CoreVoltage   float64
	Power         float64
	Quantity      int

	// Derived fields, populated by Build/recompute.
	Area          float64
	StackPower    float64
	IOPower       float64
	TotalPower    float64
	NreDesignCost float64
	SelfTrueYield float64
	SelfTestYield float64
	SelfQuality   float64
	ChipTrueYield float64
	ChipTestYield float64
	Quality       float64
	SelfCost      float64
	Cost          float64
}

// Parent returns the weak back-reference to the owning chip, or nil at
// the root.
func (c *Chip) Parent() *Chip { return c.parent }

// Children returns the owned child chips, in stackup order.
func (c *Chip) Children() []*Chip { return c.children }

func quantityOrOne(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// expandedArea implements §4.3's expanded_area(A, m, r) = (sqrt(A*r)+2m) *
// (sqrt(A/r)+2m): the footprint of an area-A, aspect-ratio-r rectangle
// after growing its margin by m on every side.
func expandedArea(area, margin, aspectRatio float64) float64 {
	if area <= 0 {
		return 0
	}
	x := math.Sqrt(area*aspectRatio) + 2*margin
	y := math.Sqrt(area/aspectRatio) + 2*margin
	return x * y
}

// NumberOfReticles returns the reticle count R covering area and the
// stitch count S between adjacent reticles, per §4.3: R =
// ceil(area/(rx*ry)); L = floor(sqrt(R)); S = L*(L-1)*2 + 2*(R-L^2) -
// ceil((R-L^2)/L).
func NumberOfReticles(area, reticleX, reticleY float64) (int, int) {
	reticleArea := reticleX * reticleY
	if reticleArea <= 0 {
		return 0, 0
	}
	r := int(math.Ceil(area / reticleArea))
	if r <= 0 {
		return 0, 0
	}
	l := int(math.Sqrt(float64(r)))
	if l < 1 {
		l = 1
	}
	rem := r - l*l
	s := l*(l-1)*2 + 2*rem - int(math.Ceil(float64(rem)/float64(l)))
	return r, s
}
