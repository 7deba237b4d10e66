package main

import (
	"fmt"
	"strconv"

	"github.com/cwbudde/hzgenerator/internal/opencl"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List OpenCL platforms and devices",
	Long:  `Lists every platform and device reported by the OpenCL driver. init always uses the first entry.`,
	Args:  cobra.NoArgs,
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	drv, err := newDriver()
	if err != nil {
		return err
	}

	platforms, err := opencl.EnumeratePlatforms(drv)
	if err != nil {
		return fmt.Errorf("failed to enumerate platforms: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(platforms) == 0 {
		fmt.Fprintln(out, "No OpenCL platforms found.")
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "Platform", "Device", "Type", "Vendor", "Version", "Compute Units"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, p := range platforms {
		if len(p.Devices) == 0 {
			table.Append([]string{strconv.Itoa(i), p.Name, "-", "-", p.Vendor, p.Version, "-"})
			continue
		}
		for _, d := range p.Devices {
			table.Append([]string{
				strconv.Itoa(i),
				p.Name,
				d.Name,
				string(d.Type),
				d.Vendor,
				d.Version,
				strconv.FormatUint(uint64(d.MaxComputeUnits), 10),
			})
		}
	}
	table.Render()
	return nil
}
