// Package process implements the C1 process-library records: WaferProcess,
// Assembly, Test, Layer, and IO. Each is built with zero-value-then-setters,
// validated field-by-field as it is set, and finally frozen; once frozen a
// record rejects further mutation and may be shared by reference across an
// arbitrarily large chip tree.
package process

import "github.com/ABKGroup/chipletpart/cherr"

// lifecycle is the Unset -> Partially-Specified -> Defined -> Frozen state
// machine shared by every record kind. It tracks only the frozen bit plus a
// bitset of which required fields have been set; "Partially-Specified" vs
// "Defined" is a derived read (all required bits set), never stored.
type lifecycle struct {
	frozen bool
	set    map[string]bool
}

func newLifecycle() lifecycle {
	return lifecycle{set: make(map[string]bool)}
}

// mark records that field has been assigned a value.
func (l *lifecycle) mark(field string) {
	l.set[field] = true
}

// checkMutable returns FrozenMutation if the record has already been
// frozen; callers invoke this at the top of every setter.
func (l *lifecycle) checkMutable(field string) error {
	if l.frozen {
		return &cherr.FrozenMutation{Field: field}
	}
	return nil
}

// missing returns the subset of required that has not yet been set, in
// the order given.
func (l *lifecycle) missing(required []string) []string {
	var out []string
	for _, f := range required {
		if !l.set[f] {
			out = append(out, f)
		}
	}
	return out
}

// freeze validates that all of required has been set and, if so, marks the
// record frozen. Returns Underspecified otherwise.
func (l *lifecycle) freeze(required []string) error {
	if missing := l.missing(required); len(missing) > 0 {
		return &cherr.Underspecified{Fields: missing}
	}
	l.frozen = true
	return nil
}

// Frozen reports whether the record has been frozen.
func (l *lifecycle) Frozen() bool {
	return l.frozen
}

func rangeErr(field string, value float64, bound string) error {
	return &cherr.RangeViolation{Field: field, Value: value, Bound: bound}
}

func nonNegative(field string, v float64) error {
	if v < 0 {
		return rangeErr(field, v, ">= 0")
	}
	return nil
}

func unitInterval(field string, v float64) error {
	if v < 0 || v > 1 {
		return rangeErr(field, v, "in [0, 1]")
	}
	return nil
}
