package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/cwbudde/hzgenerator/internal/manifest"
	"github.com/cwbudde/hzgenerator/internal/opencl"
	"github.com/cwbudde/hzgenerator/internal/report"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	settingsPath    string
	requiredKernels []string
	reportDir       string
)

// newDriver is swapped in tests.
var newDriver = opencl.NewDriver

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize OpenCL and compile the configured kernels",
	Long: `Selects platform 0 and device 0, creates a context and command queue,
compiles the sources listed in the settings file and lists the resulting
kernels. The build log is always written to the log output.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&settingsPath, "settings", manifest.DefaultFileName, "Path to the OpenCL settings file")
	initCmd.Flags().StringSliceVar(&requiredKernels, "require", nil, "Kernel names that must be present (repeatable)")
	initCmd.Flags().StringVar(&reportDir, "report-dir", "", "Directory to persist the initialization report (disabled if empty)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	drv, err := newDriver()
	if err != nil {
		return err
	}

	rt, initErr := opencl.Initialize(drv, settingsPath)
	defer rt.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Runtime %s on %s / %s\n", rt.ID, rt.Platform.Name, rt.Device.Name)
	renderStages(out, rt.Report())

	if reportDir != "" {
		if err := saveReport(rt); err != nil {
			slog.Error("Failed to save report", "dir", reportDir, "error", err)
		}
	}

	if initErr != nil {
		return fmt.Errorf("initialization failed (status %d): %w", int32(rt.Status()), initErr)
	}

	renderKernels(out, rt)
	return rt.Require(requiredKernels...)
}

func saveReport(rt *opencl.Runtime) error {
	store, err := report.NewFSStore(reportDir)
	if err != nil {
		return err
	}
	return store.Save(report.FromRuntime(rt, settingsPath))
}

func renderStages(w io.Writer, r *opencl.Report) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Stage", "Status", "Error"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, o := range r.Outcomes {
		table.Append([]string{string(o.Stage), o.Status.Name(), o.Error})
	}
	table.Render()
}

func renderKernels(w io.Writer, rt *opencl.Runtime) {
	names := rt.Kernels().Names()
	if len(names) == 0 {
		fmt.Fprintln(w, "No kernels compiled.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Kernel", "Handle"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, name := range names {
		k, _ := rt.Kernels().Lookup(name)
		table.Append([]string{name, fmt.Sprintf("%#x", uint64(k))})
	}
	table.Render()
	fmt.Fprintf(w, "Total kernels: %d\n", len(names))
}
