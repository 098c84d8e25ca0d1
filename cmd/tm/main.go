package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"timemachine/internal/app"
	"timemachine/internal/model"
	"timemachine/internal/tm"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
)

// newApp resolves the repository root and creates an App. The caller must
// defer a.Close(). operation identifies the CLI command being run.
func newApp(operation string) (*app.App, error) {
	root, err := app.DefaultRoot()
	if err != nil {
		return nil, err
	}

	a, err := app.NewApp(root, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// parseSnapshotID converts a CLI argument to a snapshot id.
func parseSnapshotID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid snapshot id %q: expected a positive integer", arg)
	}
	return id, nil
}

func humanSize(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

var rootCmd = &cobra.Command{
	Use:   "tm",
	Short: "Directory-level version control",
	Long:  "tm snapshots the files of a directory, diffs snapshots, and restores earlier states.",
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize version tracking in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Init")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Init(); err != nil {
			return fmt.Errorf("initializing repository: %w", err)
		}

		fmt.Printf("Initialized repository at %s\n", a.Root())
		return nil
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Record the current directory state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Snapshot")
		if err != nil {
			return err
		}
		defer a.Close()

		snap, err := a.Snapshot()
		if err != nil {
			return fmt.Errorf("taking snapshot: %w", err)
		}

		fmt.Printf("Created snapshot %d (%d files)\n", snap.ID, snap.Changes)
		return nil
	},
}

var listDetailed bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("List")
		if err != nil {
			return err
		}
		defer a.Close()

		infos, err := a.List(listDetailed)
		if err != nil {
			return err
		}

		if len(infos) == 0 {
			fmt.Println("No snapshots recorded.")
			return nil
		}

		for _, info := range infos {
			if listDetailed {
				fmt.Printf("%4d  %s  %4d files  %s\n", info.ID, info.Timestamp, info.Changes, humanSize(info.TotalSize))
			} else {
				fmt.Printf("%4d  %s  %4d files\n", info.ID, info.Timestamp, info.Changes)
			}
		}
		return nil
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff SNAPSHOT_A SNAPSHOT_B",
	Short: "Compare two snapshots",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		idA, err := parseSnapshotID(args[0])
		if err != nil {
			return err
		}
		idB, err := parseSnapshotID(args[1])
		if err != nil {
			return err
		}

		a, err := newApp("Diff")
		if err != nil {
			return err
		}
		defer a.Close()

		cmp, err := a.Diff(idA, idB)
		if err != nil {
			return err
		}

		printComparison(idA, idB, cmp)
		return nil
	},
}

func printComparison(idA, idB int, cmp *model.SnapshotComparison) {
	if len(cmp.NewFiles) == 0 && len(cmp.ModifiedFiles) == 0 && len(cmp.DeletedFiles) == 0 {
		fmt.Printf("Snapshots %d and %d are identical.\n", idA, idB)
		return
	}

	for _, path := range cmp.NewFiles {
		green.Printf("A  %s\n", path)
	}
	for _, d := range cmp.ModifiedFiles {
		yellow.Printf("M  %s", d.Path)
		fmt.Printf("  (%s -> %s)\n", humanSize(d.OldSize), humanSize(d.NewSize))
	}
	for _, path := range cmp.DeletedFiles {
		red.Printf("D  %s\n", path)
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show changes since the latest snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Status")
		if err != nil {
			return err
		}
		defer a.Close()

		status, err := a.Status()
		if err != nil {
			return err
		}

		if status.LatestSnapshotID == 0 {
			fmt.Println("No snapshots yet.")
		} else {
			fmt.Printf("Latest snapshot: %d\n", status.LatestSnapshotID)
		}

		if !status.HasUncommittedChanges {
			fmt.Println("Directory matches the latest snapshot.")
		} else {
			for _, path := range status.NewFiles {
				green.Printf("A  %s\n", path)
			}
			for _, path := range status.ModifiedFiles {
				yellow.Printf("M  %s\n", path)
			}
			for _, path := range status.DeletedFiles {
				red.Printf("D  %s\n", path)
			}
		}

		fmt.Printf("Available space: %s\n", humanSize(status.AvailableSpace))
		return nil
	},
}

var (
	restoreDryRun bool
	restoreForce  bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore SNAPSHOT",
	Short: "Restore the directory to a snapshot's state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSnapshotID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("Restore")
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Restore(id, tm.RestoreOptions{DryRun: restoreDryRun, Force: restoreForce})
		if err != nil {
			if tm.IsKind(err, tm.KindUncommittedChanges) {
				return fmt.Errorf("%w\nRun 'tm snapshot' first, or pass --force to back up and proceed", err)
			}
			return err
		}

		if result.BackupSnapshotID != 0 {
			fmt.Printf("Backed up current state as snapshot %d\n", result.BackupSnapshotID)
		}

		printRestoreReport(result.Report, result.DryRun)
		return nil
	},
}

func printRestoreReport(report *model.RestoreReport, dryRun bool) {
	if report.Empty() {
		fmt.Println("Directory already matches the snapshot.")
		return
	}

	verb := "Restored"
	if dryRun {
		fmt.Println("Dry run; no files were changed.")
		verb = "Would restore"
	}

	for _, path := range report.Added {
		green.Printf("A  %s\n", path)
	}
	for _, path := range report.Modified {
		yellow.Printf("M  %s\n", path)
	}
	for _, path := range report.Deleted {
		red.Printf("D  %s\n", path)
	}
	fmt.Printf("%s %d file(s), %d unchanged\n", verb,
		len(report.Added)+len(report.Modified)+len(report.Deleted), len(report.Unchanged))
}

var deleteCleanup bool

var deleteCmd = &cobra.Command{
	Use:   "delete SNAPSHOT",
	Short: "Delete a snapshot from history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSnapshotID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("Delete")
		if err != nil {
			return err
		}
		defer a.Close()

		reclaimed, err := a.Delete(id, deleteCleanup)
		if err != nil {
			return err
		}

		fmt.Printf("Deleted snapshot %d\n", id)
		if reclaimed > 0 {
			fmt.Printf("Reclaimed %s of content\n", humanSize(reclaimed))
		}
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete content no snapshot references",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Cleanup")
		if err != nil {
			return err
		}
		defer a.Close()

		reclaimed, err := a.Cleanup()
		if err != nil {
			return err
		}

		if reclaimed == 0 {
			fmt.Println("No orphaned content.")
		} else {
			fmt.Printf("Reclaimed %s\n", humanSize(reclaimed))
		}
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check stored content for corruption",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Verify")
		if err != nil {
			return err
		}
		defer a.Close()

		checked, corrupt, err := a.Verify()
		if err != nil {
			return err
		}

		if len(corrupt) == 0 {
			fmt.Printf("Verified %d blob(s), all intact.\n", checked)
			return nil
		}

		for _, h := range corrupt {
			red.Printf("corrupt: %s\n", h)
		}
		return fmt.Errorf("%d of %d blob(s) failed verification", len(corrupt), checked)
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listDetailed, "detailed", "d", false, "Include total size per snapshot")

	restoreCmd.Flags().BoolVar(&restoreDryRun, "dry-run", false, "Show what would change without modifying files")
	restoreCmd.Flags().BoolVarP(&restoreForce, "force", "f", false, "Back up uncommitted changes and proceed")

	deleteCmd.Flags().BoolVar(&deleteCleanup, "cleanup", false, "Also delete content orphaned by the removal")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(verifyCmd)
}
