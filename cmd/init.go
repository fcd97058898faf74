package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/d-royes/tasksync/internal/config"
	"github.com/d-royes/tasksync/internal/output"
	"github.com/d-royes/tasksync/internal/store"
	"github.com/d-royes/tasksync/internal/vocab"
)

var (
	initTenant   string
	initTimezone string
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Initialize the local task store and configuration",
	Long:    `Creates the local .tasksync directory, the SQLite task store, the default vocabulary file, and config.json.`,
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()

		if _, err := os.Stat(filepath.Join(baseDir, ".tasksync")); err == nil {
			output.Warning(".tasksync/ already exists")
			return nil
		}

		st, err := store.Initialize(baseDir)
		if err != nil {
			output.Error("failed to initialize task store: %v", err)
			return err
		}
		defer st.Close()

		// Default vocabulary goes on disk so per-domain labels are editable
		// without a rebuild.
		vocabPath := filepath.Join(dataDir(), "vocab.yaml")
		if err := os.WriteFile(vocabPath, []byte(vocab.DefaultYAML), 0644); err != nil {
			output.Error("failed to write vocabulary file: %v", err)
			return err
		}

		cfg := &config.Config{
			Tenant:    initTenant,
			Timezone:  initTimezone,
			VocabPath: filepath.Join(".tasksync", "vocab.yaml"),
		}
		if _, err := cfg.Location(); err != nil {
			return err
		}
		if err := config.Save(baseDir, cfg); err != nil {
			output.Error("failed to write config: %v", err)
			return err
		}

		fmt.Println("INITIALIZED .tasksync/")
		fmt.Printf("Tenant: %s\n", cfg.Tenant)
		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Printf("  1. Place your OAuth client file at %s\n", filepath.Join(dataDir(), "credentials.json"))
		fmt.Println("  2. Configure a sheet per domain in .tasksync/config.json, e.g.")
		fmt.Println(`       "sheets": {"personal": "<spreadsheetID>/Tasks"}`)
		fmt.Println("  3. Run 'tasksync sync --all'")

		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initTenant, "tenant", "default", "tenant namespace for stored tasks")
	initCmd.Flags().StringVar(&initTimezone, "timezone", "", "IANA timezone for spreadsheet dates (default: system)")
	rootCmd.AddCommand(initCmd)
}
