// Command chipletpart partitions a chiplet netlist across process
// technology nodes, minimizing the C5 cost evaluator's scalar fitness
// via the C6 canonical or C7 hybrid genetic search.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
