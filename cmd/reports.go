package main

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cwbudde/hzgenerator/internal/report"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	reportsDataDir string
	keepLast       int
	olderThanDays  int
	forceClean     bool
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Manage saved initialization reports",
	Long: `Manage reports written by 'init --report-dir', including listing,
showing and cleaning old reports.`,
}

var listReportsCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved reports",
	RunE:  runListReports,
}

var showReportCmd = &cobra.Command{
	Use:   "show [runtime-id]",
	Short: "Show the stages, kernels and build log of a report",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowReport,
}

var cleanReportsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete old reports",
	Long:  `Delete reports by count (--keep-last) or by age (--older-than).`,
	RunE:  runCleanReports,
}

func init() {
	rootCmd.AddCommand(reportsCmd)

	reportsCmd.AddCommand(listReportsCmd)
	reportsCmd.AddCommand(showReportCmd)
	reportsCmd.AddCommand(cleanReportsCmd)

	reportsCmd.PersistentFlags().StringVar(&reportsDataDir, "data-dir", "./reports", "Directory containing saved reports")

	cleanReportsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the newest N reports (0 = keep all)")
	cleanReportsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete reports older than N days (0 = no age limit)")
	cleanReportsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func runListReports(cmd *cobra.Command, args []string) error {
	store, err := report.NewFSStore(reportsDataDir)
	if err != nil {
		return fmt.Errorf("failed to open report store: %w", err)
	}

	infos, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No reports found.")
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Runtime ID", "Timestamp", "Device", "OK", "Kernels"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, info := range infos {
		table.Append([]string{
			info.RuntimeID,
			info.Timestamp.Format("2006-01-02 15:04:05"),
			info.Device,
			fmt.Sprintf("%t", info.OK),
			fmt.Sprintf("%d", info.Kernels),
		})
	}
	table.Render()

	fmt.Fprintf(out, "\nTotal reports: %d\n", len(infos))
	return nil
}

func runShowReport(cmd *cobra.Command, args []string) error {
	store, err := report.NewFSStore(reportsDataDir)
	if err != nil {
		return fmt.Errorf("failed to open report store: %w", err)
	}

	record, err := store.Load(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Runtime:  %s\n", record.RuntimeID)
	fmt.Fprintf(out, "Settings: %s\n", record.Settings)
	fmt.Fprintf(out, "Time:     %s\n", record.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(out, "Platform: %s (%s)\n", record.Platform.Name, record.Platform.Version)
	fmt.Fprintf(out, "Device:   %s [%s]\n", record.Device.Name, record.Device.Type)
	fmt.Fprintf(out, "Status:   %d (%s)\n\n", int32(record.Status), record.Status.Name())

	renderStages(out, &record.Stages)

	if len(record.Kernels) > 0 {
		fmt.Fprintln(out, "\nKernels:")
		for _, name := range record.Kernels {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}
	if record.BuildLog != "" {
		fmt.Fprintf(out, "\nBuild log:\n%s\n", record.BuildLog)
	}
	return nil
}

func runCleanReports(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	store, err := report.NewFSStore(reportsDataDir)
	if err != nil {
		return fmt.Errorf("failed to open report store: %w", err)
	}

	infos, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}

	out := cmd.OutOrStdout()
	toDelete := selectReportsForDeletion(infos, keepLast, olderThanDays, time.Now())
	if len(toDelete) == 0 {
		fmt.Fprintln(out, "No reports match deletion criteria.")
		return nil
	}

	fmt.Fprintf(out, "Found %d report(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Fprintf(out, "  - %s (%s)\n", info.RuntimeID, info.Timestamp.Format("2006-01-02 15:04:05"))
	}

	if !forceClean {
		fmt.Fprint(out, "\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Fscanln(cmd.InOrStdin(), &response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	deleted, failed := 0, 0
	for _, info := range toDelete {
		if err := store.Delete(info.RuntimeID); err != nil {
			slog.Error("Failed to delete report", "runtime", info.RuntimeID, "error", err)
			failed++
			continue
		}
		slog.Info("Deleted report", "runtime", info.RuntimeID)
		deleted++
	}

	fmt.Fprintf(out, "\nDeleted %d report(s), %d failed.\n", deleted, failed)
	return nil
}

// selectReportsForDeletion applies the age and count retention rules. A
// report matching both rules is returned once.
func selectReportsForDeletion(infos []report.Info, keepLast, olderThanDays int, now time.Time) []report.Info {
	var toDelete []report.Info
	selected := make(map[string]bool)

	if olderThanDays > 0 {
		cutoff := now.AddDate(0, 0, -olderThanDays)
		for _, info := range infos {
			if info.Timestamp.Before(cutoff) {
				toDelete = append(toDelete, info)
				selected[info.RuntimeID] = true
			}
		}
	}

	if keepLast > 0 && len(infos) > keepLast {
		sorted := append([]report.Info(nil), infos...)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		})
		for _, info := range sorted[:len(sorted)-keepLast] {
			if !selected[info.RuntimeID] {
				toDelete = append(toDelete, info)
				selected[info.RuntimeID] = true
			}
		}
	}

	return toDelete
}
