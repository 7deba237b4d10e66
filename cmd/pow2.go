package main

import (
	"fmt"
	"strconv"

	"github.com/cwbudde/hzgenerator/internal/sizing"
	"github.com/spf13/cobra"
)

var pow2Cmd = &cobra.Command{
	Use:   "pow2 N [N...]",
	Short: "Print GPU buffer capacities for element counts",
	Long:  `Rounds each element count up to the next power of two, with a minimum of 8.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPow2,
}

func init() {
	rootCmd.AddCommand(pow2Cmd)
}

func runPow2(cmd *cobra.Command, args []string) error {
	counts, err := parseCounts(args)
	if err != nil {
		return err
	}
	for _, n := range counts {
		fmt.Fprintf(cmd.OutOrStdout(), "%d -> %d\n", n, sizing.NextPow2(n))
	}
	return nil
}

func parseCounts(args []string) ([]int, error) {
	counts := make([]int, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid count %q: %w", arg, err)
		}
		if n < 1 {
			return nil, fmt.Errorf("count must be positive, got %d", n)
		}
		counts = append(counts, n)
	}
	return counts, nil
}
