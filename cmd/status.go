package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d-royes/tasksync/internal/config"
	"github.com/d-royes/tasksync/internal/output"
	"github.com/d-royes/tasksync/internal/store"
)

var (
	statusLimit     int
	statusConflicts bool
	statusJSON      bool
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show recent sync cycles and surfaced conflicts",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()

		cfg, err := config.Load(baseDir)
		if err != nil {
			return err
		}
		if cfg.Tenant == "" {
			return fmt.Errorf("no tenant configured: run 'tasksync init' first")
		}

		st, err := store.Open(baseDir)
		if err != nil {
			return err
		}
		defer st.Close()

		if statusConflicts {
			return showConflicts(cmd, st, cfg.Tenant)
		}
		return showHistory(cmd, st, cfg.Tenant)
	},
}

func showHistory(cmd *cobra.Command, st *store.Store, tenant string) error {
	cycles, err := st.HistoryTail(cmd.Context(), tenant, statusLimit)
	if err != nil {
		return err
	}
	if statusJSON {
		return output.JSON(cycles)
	}
	if len(cycles) == 0 {
		output.Info("No sync cycles recorded yet.")
		return nil
	}

	fmt.Print(output.SectionHeader("recent cycles"))
	for _, c := range cycles {
		line := fmt.Sprintf("  %s  %-8s  +%d  ~%d local  ~%d remote",
			c.FinishedAt.Local().Format("2006-01-02 15:04"),
			c.Domain, c.Created, c.UpdatedLocal, c.UpdatedRemote)
		if c.ConflictsSkipped > 0 {
			line += fmt.Sprintf("  !%d conflicts", c.ConflictsSkipped)
		}
		if c.DuplicatesCreated > 0 {
			line += fmt.Sprintf("  ?%d ambiguous", c.DuplicatesCreated)
		}
		if c.Error != "" {
			line += "  FAILED: " + output.Truncate(c.Error, 40)
		}
		output.Info("%s", line)
	}
	return nil
}

func showConflicts(cmd *cobra.Command, st *store.Store, tenant string) error {
	conflicts, err := st.RecentConflicts(cmd.Context(), tenant, statusLimit, nil)
	if err != nil {
		return err
	}
	if statusJSON {
		return output.JSON(conflicts)
	}
	if len(conflicts) == 0 {
		output.Success("No conflicts recorded.")
		return nil
	}

	fmt.Print(output.SectionHeader("held conflicts"))
	width := output.TerminalWidth()
	for _, c := range conflicts {
		output.Warning("%s", output.Truncate(fmt.Sprintf("  %s %s/%s: ours=%q sheet=%q (%s)",
			c.TaskID, c.Domain, c.Field, c.Canonical, c.Remote,
			output.FormatTimeAgo(c.RecordedAt)), width))
	}
	output.Info("")
	output.Info("Protected fields are never overwritten; resolve these on the sheet or in the store.")
	return nil
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "number of entries to show")
	statusCmd.Flags().BoolVar(&statusConflicts, "conflicts", false, "show surfaced conflicts instead of cycle history")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "emit JSON")
	rootCmd.AddCommand(statusCmd)
}
