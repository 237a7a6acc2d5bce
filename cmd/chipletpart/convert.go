package main

import (
	"os"

	"github.com/ABKGroup/chipletpart/ioformat"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// convertCmd normalizes §6.1 input files to their canonical textual
// form on stdout, mirroring the teacher's convert.go "parse one format,
// re-emit the canonical one" shape. Useful both as a standalone utility
// and to exercise the §8 round-trip law (ReadX(WriteX(x)) == x) outside
// of tests.

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Normalize a blocks or netlist file to its canonical form",
}

var convertBlocksPath string

var convertBlocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Re-emit a blocks file in canonical form",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(convertBlocksPath)
		if err != nil {
			return err
		}
		defer f.Close()
		blocks, err := ioformat.LoadBlocks(f)
		if err != nil {
			return err
		}
		logrus.WithField("blocks", len(blocks)).Info("normalized blocks file")
		return ioformat.WriteBlocks(os.Stdout, blocks)
	},
}

var convertNetlistPath string

var convertNetlistCmd = &cobra.Command{
	Use:   "netlist",
	Short: "Re-emit a netlist file in canonical form",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(convertNetlistPath)
		if err != nil {
			return err
		}
		defer f.Close()
		graph, err := ioformat.LoadNetlist(f)
		if err != nil {
			return err
		}
		logrus.WithField("blocks", len(graph.BlockNames)).Info("normalized netlist file")
		return ioformat.WriteNetlist(os.Stdout, graph)
	},
}

func init() {
	convertBlocksCmd.Flags().StringVar(&convertBlocksPath, "file", "", "Path to the blocks file")
	_ = convertBlocksCmd.MarkFlagRequired("file")

	convertNetlistCmd.Flags().StringVar(&convertNetlistPath, "file", "", "Path to the netlist file")
	_ = convertNetlistCmd.MarkFlagRequired("file")

	convertCmd.AddCommand(convertBlocksCmd)
	convertCmd.AddCommand(convertNetlistCmd)
}
