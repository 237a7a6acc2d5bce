// Package ioformat implements §6.1/§6.2's external interfaces: the
// whitespace-ish text file formats the process library, blocks, and
// netlist are loaded from, and the three sibling output files a
// completed optimization run writes. File-level reading/writing is
// explicitly out of spec.md's core scope (§1); this package is the thin
// "external collaborator" that satisfies it so the rest of the module
// stays pure.
package ioformat

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/ABKGroup/chipletpart/cherr"
)

// record is one whitespace-delimited "field value..." block: consecutive
// non-blank lines, each line's first token is the field name and the
// remaining tokens are its value(s) (more than one token supports
// map-valued fields like "nre_front_end_cost_per_mm2 memory=0.1
// logic=0.2 analog=0.15"). Records are separated by one or more blank
// lines, mirroring the teacher's line-oriented trace/log parsing style.
type record map[string][]string

// parseRecords splits r into records on blank lines.
func parseRecords(r io.Reader) ([]record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var records []record
	cur := record{}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			if len(cur) > 0 {
				records = append(records, cur)
				cur = record{}
			}
			continue
		}
		fields := strings.Fields(line)
		cur[fields[0]] = fields[1:]
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(cur) > 0 {
		records = append(records, cur)
	}
	return records, nil
}

func (rec record) str(field string) (string, bool) {
	v, ok := rec[field]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

func (rec record) requireStr(field string) (string, error) {
	v, ok := rec.str(field)
	if !ok {
		return "", &cherr.Underspecified{Fields: []string{field}}
	}
	return v, nil
}

func (rec record) requireFloat(field string) (float64, error) {
	s, err := rec.requireStr(field)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}

func (rec record) requireInt(field string) (int, error) {
	s, err := rec.requireStr(field)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

func (rec record) requireBool(field string) (bool, error) {
	s, err := rec.requireStr(field)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(s)
}

func parseFloatStr(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
func parseIntStr(s string) (int, error)       { return strconv.Atoi(s) }
func parseBoolStr(s string) (bool, error)     { return strconv.ParseBool(s) }

// kv parses a field's tokens as "key=value" pairs, for the three-way
// memory/logic/analog NRE cost fields.
func (rec record) kv(field string) (map[string]float64, error) {
	tokens, ok := rec[field]
	if !ok {
		return nil, &cherr.Underspecified{Fields: []string{field}}
	}
	out := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		parts := strings.SplitN(tok, "=", 2)
		if len(parts) != 2 {
			continue
		}
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, err
		}
		out[parts[0]] = v
	}
	return out, nil
}
