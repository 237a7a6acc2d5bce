// Package chip implements the C4 Chip Tree: a hierarchical tree of
// chiplets whose derived area/power/yield/cost fields are recomputed
// bottom-up from a set of non-derived configuration fields and the
// process-library records each node references.
package chip

import (
	"sort"

	"github.com/ABKGroup/chipletpart/cherr"
	"github.com/ABKGroup/chipletpart/process"
)

// Library collects the named process records a chip tree resolves its
// WaferProcess/Assembly/Test/Layer/IO references against. All records are
// expected to be frozen before a Library is used to build a tree.
type Library struct {
	Wafers     map[string]*process.WaferProcess
	Assemblies map[string]*process.Assembly
	Tests      map[string]*process.Test
	Layers     map[string]*process.Layer
	IOs        map[string]*process.IO
}

// NewLibrary returns an empty Library with initialized maps.
func NewLibrary() *Library {
	return &Library{
		Wafers:     make(map[string]*process.WaferProcess),
		Assemblies: make(map[string]*process.Assembly),
		Tests:      make(map[string]*process.Test),
		Layers:     make(map[string]*process.Layer),
		IOs:        make(map[string]*process.IO),
	}
}

func (l *Library) wafer(name string) (*process.WaferProcess, error) {
	w, ok := l.Wafers[name]
	if !ok {
		return nil, &cherr.UnknownTechNode{Name: name}
	}
	return w, nil
}

func (l *Library) assembly(name string) (*process.Assembly, error) {
	a, ok := l.Assemblies[name]
	if !ok {
		return nil, &cherr.UnknownTechNode{Name: name}
	}
	return a, nil
}

func (l *Library) test(name string) (*process.Test, error) {
	t, ok := l.Tests[name]
	if !ok {
		return nil, &cherr.UnknownTechNode{Name: name}
	}
	return t, nil
}

func (l *Library) layer(name string) (*process.Layer, error) {
	ly, ok := l.Layers[name]
	if !ok {
		return nil, &cherr.UnknownTechNode{Name: name}
	}
	return ly, nil
}

// IOList returns the library's IO records in a stable, name-sorted order.
// The chip tree shares this slice by reference across every node built
// from the same Library.
func (l *Library) IOList() []*process.IO {
	names := make([]string, 0, len(l.IOs))
	for n := range l.IOs {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*process.IO, len(names))
	for i, n := range names {
		out[i] = l.IOs[n]
	}
	return out
}
