package main

import (
	"fmt"
	"os"

	"github.com/ABKGroup/chipletpart/cherr"
	"github.com/ABKGroup/chipletpart/cost"
	"github.com/ABKGroup/chipletpart/ioformat"
	"github.com/spf13/cobra"
)

var runFlags inputFlags

var (
	runPartsPath string
	runTechsPath string
)

// runCmd is §6.3's one-shot get_cost_from_scratch exposed as a CLI verb:
// given an already-chosen partition and tech assignment, it scores it
// once and prints the result, without running any GA search.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate the cost of a fixed partition/tech assignment",
	RunE:  runEvaluate,
}

func init() {
	runFlags.register(runCmd.Flags())
	runCmd.Flags().StringVar(&runPartsPath, "parts", "", "Path to a .parts.<K> partition assignment file (required)")
	runCmd.Flags().StringVar(&runTechsPath, "techs", "", "Path to a .techs.<K> tech assignment file (required)")
	runCmd.Flags().StringVar(&rootName, "root-name", "root", "Name of the synthesized root chip")
	runCmd.Flags().StringVar(&rootWafer, "root-wafer", "root", "Wafer process record backing the root chip")
	runCmd.Flags().StringVar(&rootAssembly, "root-assembly", "root", "Assembly process record backing the root chip")
	runCmd.Flags().StringVar(&rootTest, "root-test", "root", "Test process record backing the root chip")
	runCmd.Flags().Float64Var(&costCoeff, "cost-coeff", 1.0, "Cost coefficient in cost_coeff*chip.cost + power_coeff*chip.total_power")
	runCmd.Flags().Float64Var(&powerCoeff, "power-coeff", 0.0, "Power coefficient in cost_coeff*chip.cost + power_coeff*chip.total_power")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	blocks, graph, err := loadBlocksAndNetlist(runFlags)
	if err != nil {
		return fmt.Errorf("loading blocks/netlist: %w", err)
	}
	library, err := loadLibrary(runFlags)
	if err != nil {
		return fmt.Errorf("loading process library: %w", err)
	}

	partsFile, err := os.Open(runPartsPath)
	if err != nil {
		return err
	}
	defer partsFile.Close()
	partition, err := ioformat.ReadPartition(partsFile)
	if err != nil {
		return err
	}

	techsFile, err := os.Open(runTechsPath)
	if err != nil {
		return err
	}
	defer techsFile.Close()
	tech, err := ioformat.ReadTechs(techsFile)
	if err != nil {
		return err
	}

	req := cost.Request{
		PartitionIDs:     partition,
		TechPerPartition: tech,
		Blocks:           blocks,
		Graph:            graph,
		Library:          library,
		RootName:         rootName,
		RootWafer:        rootWafer,
		RootAssembly:     rootAssembly,
		RootTest:         rootTest,
		CostCoeff:        costCoeff,
		PowerCoeff:       powerCoeff,
	}
	c, err := cost.EvaluateErr(req)
	if err != nil {
		return err
	}
	fmt.Printf("cost: %g\n", c)
	if c >= cherr.MaxFiniteCost {
		fmt.Println("warning: cost pinned at the max-finite sentinel; assignment is likely invalid")
	}
	return nil
}
