package ioformat

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ABKGroup/chipletpart/netlist"
	"gonum.org/v1/gonum/mat"
)

// LoadNetlist parses §6.1's netlist file into the
// (adjacency_map, utilization_map, block_names) triple via a
// ConnectivityGraph. Format:
//
//	blocks <name> <name> ...
//	io <io_type>
//	adjacency
//	<row of N ints/floats, one per block, N rows>
//	utilization
//	<row of N floats, one per block, N rows>
//	io <io_type>
//	...
//
// "io" sections repeat for every IO type present in the netlist.
func LoadNetlist(r io.Reader) (*netlist.ConnectivityGraph, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var blockNames []string
	var graph *netlist.ConnectivityGraph
	var curIO string
	var curSection string
	var rowIdx int

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "blocks":
			blockNames = fields[1:]
		case "io":
			if graph == nil {
				if len(blockNames) == 0 {
					return nil, fmt.Errorf("netlist file: io section before blocks line")
				}
				graph = netlist.NewConnectivityGraph(blockNames, nil)
			}
			curIO = fields[1]
			if _, ok := graph.Adjacency[curIO]; !ok {
				graph.Adjacency[curIO] = mat.NewDense(len(blockNames), len(blockNames), nil)
				graph.Utilization[curIO] = mat.NewDense(len(blockNames), len(blockNames), nil)
			}
			curSection = ""
			rowIdx = 0
		case "adjacency", "utilization":
			curSection = fields[0]
			rowIdx = 0
		default:
			if curIO == "" || curSection == "" {
				return nil, fmt.Errorf("netlist file: data row outside an io/adjacency/utilization section")
			}
			if rowIdx >= len(blockNames) {
				return nil, fmt.Errorf("netlist file: too many rows for io type %q section %q", curIO, curSection)
			}
			var target *mat.Dense
			if curSection == "adjacency" {
				target = graph.Adjacency[curIO]
			} else {
				target = graph.Utilization[curIO]
			}
			if len(fields) != len(blockNames) {
				return nil, fmt.Errorf("netlist file: row %d of io %q section %q has %d fields, want %d", rowIdx, curIO, curSection, len(fields), len(blockNames))
			}
			for col, tok := range fields {
				v, err := strconv.ParseFloat(tok, 64)
				if err != nil {
					return nil, err
				}
				target.Set(rowIdx, col, v)
			}
			rowIdx++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if graph == nil {
		return nil, fmt.Errorf("netlist file: no blocks/io data found")
	}
	if err := graph.Validate(); err != nil {
		return nil, err
	}
	return graph, nil
}

// WriteNetlist is LoadNetlist's inverse.
func WriteNetlist(w io.Writer, g *netlist.ConnectivityGraph) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "blocks %s\n", strings.Join(g.BlockNames, " ")); err != nil {
		return err
	}
	n := len(g.BlockNames)
	for _, ioType := range g.IoTypes() {
		if _, err := fmt.Fprintf(bw, "io %s\n", ioType); err != nil {
			return err
		}
		if err := writeMatrix(bw, "adjacency", g.Adjacency[ioType], n); err != nil {
			return err
		}
		if err := writeMatrix(bw, "utilization", g.Utilization[ioType], n); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeMatrix(w *bufio.Writer, label string, m *mat.Dense, n int) error {
	if _, err := fmt.Fprintln(w, label); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		row := make([]string, n)
		for j := 0; j < n; j++ {
			row[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if _, err := fmt.Fprintln(w, strings.Join(row, " ")); err != nil {
			return err
		}
	}
	return nil
}
