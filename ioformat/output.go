package ioformat

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WritePartition writes §6.2's `<prefix>.parts.<K>` file: one integer
// partition ID per vertex, one per line.
func WritePartition(w io.Writer, partitionIDs []int) error {
	bw := bufio.NewWriter(w)
	for _, p := range partitionIDs {
		if _, err := fmt.Fprintln(bw, p); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadPartition is WritePartition's inverse: reading back a file it wrote
// yields an identical partition vector, per §8's round-trip law.
func ReadPartition(r io.Reader) ([]int, error) {
	scanner := bufio.NewScanner(r)
	var out []int
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.Atoi(line)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteTechs writes §6.2's `<prefix>.techs.<K>` file: one tech-node tag
// per partition, in partition-ID order.
func WriteTechs(w io.Writer, techPerPartition []string) error {
	bw := bufio.NewWriter(w)
	for _, t := range techPerPartition {
		if _, err := fmt.Fprintln(bw, t); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadTechs is WriteTechs's inverse.
func ReadTechs(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	var out []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary is the data §6.2's `<prefix>.summary.txt` reports.
type Summary struct {
	NumPartitions    int
	Cost             float64
	Valid            bool
	TechPerPartition []string
	// PartitionCounts[p] is the number of vertices assigned to partition p.
	PartitionCounts []int
}

// WriteSummary writes §6.2's `<prefix>.summary.txt`.
func WriteSummary(w io.Writer, s Summary) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "Number of Partitions: %d\n", s.NumPartitions); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "Cost: %g\n", s.Cost); err != nil {
		return err
	}
	validStr := "No"
	if s.Valid {
		validStr = "Yes"
	}
	if _, err := fmt.Fprintf(bw, "Valid: %s\n", validStr); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(bw, "Technology Assignment:"); err != nil {
		return err
	}
	for p, tech := range s.TechPerPartition {
		if _, err := fmt.Fprintf(bw, "  partition %d: %s\n", p, tech); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(bw, "Partition Statistics:"); err != nil {
		return err
	}
	total := 0
	for _, c := range s.PartitionCounts {
		total += c
	}
	for p, c := range s.PartitionCounts {
		pct := 0.0
		if total > 0 {
			pct = 100 * float64(c) / float64(total)
		}
		if _, err := fmt.Fprintf(bw, "  partition %d: %d vertices (%.2f%%)\n", p, c, pct); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// PartitionCounts derives the per-partition vertex count vector Summary
// expects from a raw partition-ID vector.
func PartitionCounts(partitionIDs []int, numPartitions int) []int {
	out := make([]int, numPartitions)
	for _, p := range partitionIDs {
		if p >= 0 && p < numPartitions {
			out[p]++
		}
	}
	return out
}
