package main

import (
	"os"

	"github.com/ABKGroup/chipletpart/chip"
	"github.com/ABKGroup/chipletpart/netlist"
	"github.com/ABKGroup/chipletpart/ioformat"
)

// inputFlags names the §6.1 input files every subcommand that builds a
// cost.Request needs: the blocks/netlist describing the design, and the
// five process-library record files.
type inputFlags struct {
	blocksPath   string
	netlistPath  string
	waferPath    string
	assemblyPath string
	testPath     string
	layerPath    string
	ioPath       string
}

func (f *inputFlags) register(flags flagSet) {
	flags.StringVar(&f.blocksPath, "blocks", "", "Path to the blocks file (required)")
	flags.StringVar(&f.netlistPath, "netlist", "", "Path to the netlist file (required)")
	flags.StringVar(&f.waferPath, "wafers", "", "Path to the wafer process library file (required)")
	flags.StringVar(&f.assemblyPath, "assemblies", "", "Path to the assembly process library file (required)")
	flags.StringVar(&f.testPath, "tests", "", "Path to the test process library file (required)")
	flags.StringVar(&f.layerPath, "layers", "", "Path to the layer process library file (required)")
	flags.StringVar(&f.ioPath, "ios", "", "Path to the IO process library file (required)")
}

// flagSet is the subset of *pflag.FlagSet cobra commands expose that
// register needs; declared narrowly so callers can pass either
// cmd.Flags() or cmd.PersistentFlags().
type flagSet interface {
	StringVar(p *string, name string, value string, usage string)
}

func loadBlocksAndNetlist(f inputFlags) ([]netlist.Block, *netlist.ConnectivityGraph, error) {
	blocksFile, err := os.Open(f.blocksPath)
	if err != nil {
		return nil, nil, err
	}
	defer blocksFile.Close()
	blocks, err := ioformat.LoadBlocks(blocksFile)
	if err != nil {
		return nil, nil, err
	}

	netlistFile, err := os.Open(f.netlistPath)
	if err != nil {
		return nil, nil, err
	}
	defer netlistFile.Close()
	graph, err := ioformat.LoadNetlist(netlistFile)
	if err != nil {
		return nil, nil, err
	}
	return blocks, graph, nil
}

func loadLibrary(f inputFlags) (*chip.Library, error) {
	waferFile, err := os.Open(f.waferPath)
	if err != nil {
		return nil, err
	}
	defer waferFile.Close()
	assemblyFile, err := os.Open(f.assemblyPath)
	if err != nil {
		return nil, err
	}
	defer assemblyFile.Close()
	testFile, err := os.Open(f.testPath)
	if err != nil {
		return nil, err
	}
	defer testFile.Close()
	layerFile, err := os.Open(f.layerPath)
	if err != nil {
		return nil, err
	}
	defer layerFile.Close()
	ioFile, err := os.Open(f.ioPath)
	if err != nil {
		return nil, err
	}
	defer ioFile.Close()

	return ioformat.LoadLibrary(ioformat.LoadLibrarySources{
		Wafer:    waferFile,
		Assembly: assemblyFile,
		Test:     testFile,
		Layer:    layerFile,
		IO:       ioFile,
	})
}
