// Package cmd implements the tasksync CLI.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/d-royes/tasksync/internal/config"
	"github.com/d-royes/tasksync/internal/models"
	"github.com/d-royes/tasksync/internal/vocab"
)

var (
	version string
	baseDir string
)

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "tasksync",
	Short: "Bidirectional task synchronization between spreadsheets and a local task store",
	Long: `tasksync - Reconciles per-domain spreadsheet task trackers with a local
canonical task store: matches rows to tasks, resolves field-level differences
by last-modified time, and holds recurrence-managed fields out of the flow.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initBaseDir)

	rootCmd.AddGroup(
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "tasks", Title: "Task Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")
}

func initBaseDir() {
	if dir := os.Getenv("TASKSYNC_DIR"); dir != "" {
		baseDir = dir
		return
	}
	var err error
	baseDir, err = os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot determine working directory: %v\n", err)
		os.Exit(1)
	}
}

// getBaseDir returns the base directory for the project
func getBaseDir() string {
	return baseDir
}

// dataDir returns the .tasksync directory under the base directory.
func dataDir() string {
	return filepath.Join(getBaseDir(), ".tasksync")
}

// loadVocabSet resolves the configured vocabulary file, falling back to the
// built-in vocabularies.
func loadVocabSet(cfg *config.Config) (*vocab.Set, error) {
	if cfg.VocabPath == "" {
		return vocab.DefaultSet(), nil
	}
	path := cfg.VocabPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(getBaseDir(), path)
	}
	return vocab.Load(path)
}

// parseDomain validates a domain argument.
func parseDomain(arg string) (models.Domain, error) {
	d := models.Domain(arg)
	if !models.IsValidDomain(d) {
		return "", fmt.Errorf("unknown domain %q (want personal, church, or work)", arg)
	}
	return d, nil
}
