package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d-royes/tasksync/internal/config"
	"github.com/d-royes/tasksync/internal/engine"
	"github.com/d-royes/tasksync/internal/gauth"
	"github.com/d-royes/tasksync/internal/models"
	"github.com/d-royes/tasksync/internal/output"
	"github.com/d-royes/tasksync/internal/sheets"
	"github.com/d-royes/tasksync/internal/store"
)

var (
	syncDomains []string
	syncAll     bool
	syncDryRun  bool
	syncJSON    bool
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Run a reconciliation cycle against the configured sheets",
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

		domains, err := resolveDomains(cfg)
		if err != nil {
			return err
		}

		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		set, err := loadVocabSet(cfg)
		if err != nil {
			return err
		}

		st, err := store.Open(baseDir)
		if err != nil {
			return err
		}
		defer st.Close()

		httpClient, err := gauth.Client(cmd.Context(), dataDir())
		if err != nil {
			return err
		}

		results := make(map[string]engine.SyncSummary, len(domains))
		var failed bool
		for _, domain := range domains {
			voc, err := set.ForDomain(domain)
			if err != nil {
				return err
			}
			source, err := sheets.NewClient(cmd.Context(), httpClient, voc.Columns.Modified, loc)
			if err != nil {
				return err
			}

			eng := engine.New(engine.Options{
				Source:        source,
				Tasks:         st,
				Vocab:         set,
				Recorder:      st,
				Location:      loc,
				BaseDir:       baseDir,
				SheetIDs:      cfg.SheetIDs(),
				DateTolerance: cfg.DateTolerance(),
				DryRun:        syncDryRun,
			})

			summary, err := eng.RunSync(cmd.Context(), engine.Scope{Tenant: cfg.Tenant, Domain: domain})
			results[string(domain)] = summary
			if err != nil {
				failed = true
				if !syncJSON {
					reportSyncError(domain, err)
				}
				continue
			}
			if !syncJSON {
				if syncDryRun {
					output.Info("%s (dry run):", domain)
				} else {
					output.Info("%s:", domain)
				}
				output.Info("%s", output.FormatSummary(summary))
			}
		}

		if syncJSON {
			if err := output.JSON(results); err != nil {
				return err
			}
		}
		if failed {
			return fmt.Errorf("sync incomplete")
		}
		return nil
	},
}

// resolveDomains picks which domains this run covers: explicit --domain flags,
// or every configured domain with --all (also the default).
func resolveDomains(cfg *config.Config) ([]models.Domain, error) {
	if len(syncDomains) > 0 {
		out := make([]models.Domain, 0, len(syncDomains))
		for _, arg := range syncDomains {
			d, err := parseDomain(arg)
			if err != nil {
				return nil, err
			}
			if _, ok := cfg.SheetFor(d); !ok {
				return nil, fmt.Errorf("domain %q has no sheet configured", d)
			}
			out = append(out, d)
		}
		return out, nil
	}

	var out []models.Domain
	for _, d := range []models.Domain{models.DomainPersonal, models.DomainChurch, models.DomainWork} {
		if _, ok := cfg.SheetFor(d); ok {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no sheets configured: add them to .tasksync/config.json")
	}
	return out, nil
}

func reportSyncError(domain models.Domain, err error) {
	switch {
	case errors.Is(err, engine.ErrScopeLocked):
		output.Warning("%s: another sync is already running, skipped", domain)
	case engine.IsConnectivity(err):
		output.Error("%s: %v", domain, err)
	default:
		output.Error("%s: sync failed: %v", domain, err)
	}
}

func init() {
	syncCmd.Flags().StringSliceVar(&syncDomains, "domain", nil, "domain to sync (repeatable; default: all configured)")
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "sync every configured domain")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "compute the cycle without writing to either side")
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "emit per-domain summaries as JSON")
	rootCmd.AddCommand(syncCmd)
}
