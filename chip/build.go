package chip

import (
	"strconv"
	"strings"

	"github.com/ABKGroup/chipletpart/cherr"
	"github.com/ABKGroup/chipletpart/netlist"
	"github.com/ABKGroup/chipletpart/process"
)

// parseStackup expands a "count:layer_name,count:layer_name,..." specifier
// into an ordered slice of layer names (repeated count times each),
// preserving stackup order: the sequence is semantic, not a set.
func parseStackup(spec string, lib *Library) ([]string, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	var names []string
	for _, term := range strings.Split(spec, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		parts := strings.SplitN(term, ":", 2)
		if len(parts) != 2 {
			return nil, &cherr.InvalidPartition{Reason: "malformed stackup term " + term}
		}
		count, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || count < 0 {
			return nil, &cherr.InvalidPartition{Reason: "malformed stackup count in " + term}
		}
		layerName := strings.TrimSpace(parts[1])
		if _, err := lib.layer(layerName); err != nil {
			return nil, err
		}
		for i := 0; i < count; i++ {
			names = append(names, layerName)
		}
	}
	return names, nil
}

// Build resolves spec's library references, recursively builds its
// children (wiring their weak parent backreference to the returned node),
// and computes every derived field bottom-up. ioList and graph are shared
// by reference across the whole tree built from one call tree.
func Build(spec *Spec, lib *Library, ioList []*process.IO, graph *netlist.ConnectivityGraph) (*Chip, error) {
	return buildNode(spec, lib, ioList, graph, nil)
}

func buildNode(spec *Spec, lib *Library, ioList []*process.IO, graph *netlist.ConnectivityGraph, parent *Chip) (*Chip, error) {
	c := &Chip{
		Name:           spec.Name,
		parent:         parent,
		ioList:         ioList,
		graph:          graph,
		CoreArea:       spec.CoreArea,
		AspectRatio:    spec.AspectRatio,
		X:              spec.X,
		Y:              spec.Y,
		bbArea:         spec.BBArea,
		bbCost:         spec.BBCost,
		bbQuality:      spec.BBQuality,
		bbPower:        spec.BBPower,
		FractionMemory: spec.FractionMemory,
		FractionLogic:  spec.FractionLogic,
		FractionAnalog: spec.FractionAnalog,
		GateFlopRatio:  spec.GateFlopRatio,
		ReticleShare:   spec.ReticleShare,
		Buried:         spec.Buried,
		CoreVoltage:    spec.CoreVoltage,
		Power:          spec.Power,
		Quantity:       quantityOrOne(spec.Quantity),
	}
	if c.AspectRatio == 0 {
		c.AspectRatio = 1
	}
	if c.ReticleShare == 0 {
		c.ReticleShare = 1
	}

	if spec.WaferProcess != "" {
		w, err := lib.wafer(spec.WaferProcess)
		if err != nil {
			return nil, err
		}
		c.Wafer = w
	}
	if spec.Assembly != "" {
		a, err := lib.assembly(spec.Assembly)
		if err != nil {
			return nil, err
		}
		c.Assembly = a
	}
	if spec.Test != "" {
		t, err := lib.test(spec.Test)
		if err != nil {
			return nil, err
		}
		c.Test = t
	}
	layerNames, err := parseStackup(spec.Stackup, lib)
	if err != nil {
		return nil, err
	}
	for _, ln := range layerNames {
		ly, _ := lib.layer(ln) // already validated by parseStackup
		c.Stackup = append(c.Stackup, ly)
	}

	// Phase 2 of §4.3: children are constructed with a back-reference to
	// self, bottom-up, before this node's derived fields are computed (a
	// child's derived fields must exist to fold into its parent's).
	for _, childSpec := range spec.Children {
		child, err := buildNode(childSpec, lib, ioList, graph, c)
		if err != nil {
			return nil, err
		}
		c.children = append(c.children, child)
	}

	c.recompute()
	return c, nil
}

// Rebuild recomputes every derived field of c and its subtree from
// scratch, without re-resolving library references or reconstructing the
// tree shape. Used by the cost evaluator's single-block-move variant,
// where only a handful of leaf areas/powers change between evaluations.
func (c *Chip) Rebuild() {
	for _, child := range c.children {
		child.Rebuild()
	}
	c.recompute()
}
