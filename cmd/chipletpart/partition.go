package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/ABKGroup/chipletpart/cherr"
	"github.com/ABKGroup/chipletpart/chip"
	"github.com/ABKGroup/chipletpart/cost"
	"github.com/ABKGroup/chipletpart/ga"
	"github.com/ABKGroup/chipletpart/ioformat"
	"github.com/ABKGroup/chipletpart/netlist"
	"github.com/ABKGroup/chipletpart/refine"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var partitionFlags inputFlags

var (
	gaConfigPath string
	outputPrefix string
	rootName     string
	rootWafer    string
	rootAssembly string
	rootTest     string
	costCoeff    float64
	powerCoeff   float64
)

var partitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Partition a netlist across tech nodes, minimizing cost",
	RunE:  runPartition,
}

func init() {
	partitionFlags.register(partitionCmd.Flags())
	partitionCmd.Flags().StringVar(&gaConfigPath, "config", "", "Path to a GA hyperparameter YAML file (optional; defaults apply otherwise)")
	partitionCmd.Flags().StringVar(&outputPrefix, "out", "partition", "Prefix for the .parts.<K>/.techs.<K>/.summary.txt output files")
	partitionCmd.Flags().StringVar(&rootName, "root-name", "root", "Name of the synthesized root chip")
	partitionCmd.Flags().StringVar(&rootWafer, "root-wafer", "root", "Wafer process record backing the root chip")
	partitionCmd.Flags().StringVar(&rootAssembly, "root-assembly", "root", "Assembly process record backing the root chip")
	partitionCmd.Flags().StringVar(&rootTest, "root-test", "root", "Test process record backing the root chip")
	partitionCmd.Flags().Float64Var(&costCoeff, "cost-coeff", 1.0, "Cost coefficient in cost_coeff*chip.cost + power_coeff*chip.total_power")
	partitionCmd.Flags().Float64Var(&powerCoeff, "power-coeff", 0.0, "Power coefficient in cost_coeff*chip.cost + power_coeff*chip.total_power")
}

func runPartition(cmd *cobra.Command, args []string) error {
	blocks, graph, err := loadBlocksAndNetlist(partitionFlags)
	if err != nil {
		return fmt.Errorf("loading blocks/netlist: %w", err)
	}
	library, err := loadLibrary(partitionFlags)
	if err != nil {
		return fmt.Errorf("loading process library: %w", err)
	}

	var gaCfg GAConfig
	if gaConfigPath != "" {
		gaCfg, err = LoadGAConfig(gaConfigPath)
		if err != nil {
			return fmt.Errorf("loading GA config: %w", err)
		}
	}
	if len(gaCfg.TechNodes) == 0 {
		gaCfg.TechNodes = defaultTechNodes(library)
	}

	reqTemplate := cost.Request{
		Blocks:       blocks,
		Graph:        graph,
		Library:      library,
		RootName:     rootName,
		RootWafer:    rootWafer,
		RootAssembly: rootAssembly,
		RootTest:     rootTest,
		CostCoeff:    costCoeff,
		PowerCoeff:   powerCoeff,
	}

	hypergraph := refine.BuildHypergraph(blocks, graph)
	partitioner := refine.RoundRobinPartitioner{}

	var (
		finalPartition []int
		finalTech      []string
		finalCost      float64
	)

	switch gaCfg.Variant {
	case "hybrid":
		hgCfg := ga.HybridGAConfig{
			AvailableTechNodes: gaCfg.TechNodes,
			Seed:               gaCfg.Seed,
			Population:         gaCfg.Population,
			Generations:        gaCfg.Generations,
			CrossoverRate:      gaCfg.CrossoverRate,
			MutationRate:       gaCfg.MutationRate,
			TournamentSize:     gaCfg.TournamentSize,
			MinPartitions:      gaCfg.MinPartitions,
			MaxPartitions:      gaCfg.MaxPartitions,
			UbFactor:           gaCfg.UbFactor,
			FloorplanIters:     gaCfg.FloorplanIters,
			Threads:            gaCfg.Threads,
		}
		hg := ga.NewHybridGA(hgCfg, hypergraph, refine.GreedyFloorplanner{}, refine.FMLiteRefiner{}, partitioner, reqTemplate)
		best := hg.Run()
		finalPartition, finalTech, finalCost = best.Partition, best.Tech, best.Cost
	default:
		cgCfg := ga.CanonicalGAConfig{
			AvailableTechNodes: gaCfg.TechNodes,
			Seed:               gaCfg.Seed,
			Population:         gaCfg.Population,
			Generations:        gaCfg.Generations,
			CrossoverRate:      gaCfg.CrossoverRate,
			MutationRate:       gaCfg.MutationRate,
			TournamentSize:     gaCfg.TournamentSize,
			EliteCount:         gaCfg.EliteCount,
			MinPartitions:      gaCfg.MinPartitions,
			MaxPartitions:      gaCfg.MaxPartitions,
			Threads:            gaCfg.Threads,
		}
		oracle := canonicalOracle(partitioner, hypergraph, reqTemplate)
		cg := ga.NewCanonicalGA(cgCfg, oracle)
		best := cg.Run()
		finalPartition, finalTech, finalCost = best.Partition, best.TechNodes, best.Cost
	}

	return writeResult(outputPrefix, finalPartition, finalTech, finalCost)
}

// canonicalOracle implements C6's fitness oracle: a tech vector of
// length k selects a k-way partition via the round-robin/METIS-style
// partitioner, and the cost evaluator scores the pair. Per §7, any
// evaluator error is mapped to cherr.MaxFiniteCost rather than
// propagated, and a structured log line records the suppression.
func canonicalOracle(partitioner refine.Partitioner, hypergraph *refine.Hypergraph, reqTemplate cost.Request) ga.FitnessOracle {
	return func(techVector []string) (float64, []int) {
		k := len(techVector)
		if k == 0 {
			return cherr.MaxFiniteCost, nil
		}
		partition := partitioner.METISPart(hypergraph, k)
		compact, compactK := netlist.Compact(partition)
		tech := techVector
		if len(tech) != compactK {
			tech = trimOrExtendTech(tech, compactK)
		}
		req := reqTemplate
		req.PartitionIDs = compact
		req.TechPerPartition = tech
		c, err := cost.EvaluateErr(req)
		if err != nil {
			logrus.WithError(err).Warn("canonical GA fitness oracle suppressed evaluator error")
			return cherr.MaxFiniteCost, compact
		}
		return c, compact
	}
}

func trimOrExtendTech(tech []string, k int) []string {
	out := make([]string, k)
	for i := range out {
		if i < len(tech) {
			out[i] = tech[i]
		} else if len(tech) > 0 {
			out[i] = tech[i%len(tech)]
		}
	}
	return out
}

func writeResult(prefix string, partition []int, tech []string, c float64) error {
	k := netlist.NumPartitions(partition)

	partsFile, err := os.Create(fmt.Sprintf("%s.parts.%d", prefix, k))
	if err != nil {
		return err
	}
	defer partsFile.Close()
	if err := ioformat.WritePartition(partsFile, partition); err != nil {
		return err
	}

	techsFile, err := os.Create(fmt.Sprintf("%s.techs.%d", prefix, k))
	if err != nil {
		return err
	}
	defer techsFile.Close()
	if err := ioformat.WriteTechs(techsFile, tech); err != nil {
		return err
	}

	summaryFile, err := os.Create(prefix + ".summary.txt")
	if err != nil {
		return err
	}
	defer summaryFile.Close()
	summary := ioformat.Summary{
		NumPartitions:    k,
		Cost:             c,
		Valid:            c < cherr.MaxFiniteCost,
		TechPerPartition: tech,
		PartitionCounts:  ioformat.PartitionCounts(partition, k),
	}
	if err := ioformat.WriteSummary(summaryFile, summary); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"partitions": k, "cost": c}).Info("partitioning complete")
	return nil
}

// defaultTechNodes falls back to every wafer-process record name in the
// library when a GA config doesn't list AvailableTechNodes explicitly.
func defaultTechNodes(library *chip.Library) []string {
	names := make([]string, 0, len(library.Wafers))
	for name := range library.Wafers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
