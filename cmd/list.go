package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d-royes/tasksync/internal/config"
	"github.com/d-royes/tasksync/internal/models"
	"github.com/d-royes/tasksync/internal/output"
	"github.com/d-royes/tasksync/internal/store"
)

var (
	listDomain     string
	listSyncStatus string
	listJSON       bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List canonical tasks",
	GroupID: "tasks",
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

		domains := []models.Domain{models.DomainPersonal, models.DomainChurch, models.DomainWork}
		if listDomain != "" {
			d, err := parseDomain(listDomain)
			if err != nil {
				return err
			}
			domains = []models.Domain{d}
		}

		var filter models.SyncStatus
		if listSyncStatus != "" {
			filter = models.SyncStatus(listSyncStatus)
			if !models.IsValidSyncStatus(filter) {
				return fmt.Errorf("unknown sync status %q", listSyncStatus)
			}
		}

		var tasks []models.CanonicalTask
		for _, d := range domains {
			scoped, err := st.ListTasks(cmd.Context(), cfg.Tenant, d)
			if err != nil {
				return err
			}
			for _, t := range scoped {
				if filter != "" && t.SyncStatus != filter {
					continue
				}
				tasks = append(tasks, t)
			}
		}

		if listJSON {
			return output.JSON(tasks)
		}
		if len(tasks) == 0 {
			output.Info("No tasks.")
			return nil
		}
		for i := range tasks {
			output.Info("%s", output.FormatTaskShort(&tasks[i]))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listDomain, "domain", "", "restrict to one domain")
	listCmd.Flags().StringVar(&listSyncStatus, "sync-status", "", "filter by sync status (local_only, pending, synced, conflict)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "emit JSON")
	rootCmd.AddCommand(listCmd)
}
