package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/d-royes/tasksync/internal/config"
	"github.com/d-royes/tasksync/internal/models"
	"github.com/d-royes/tasksync/internal/output"
	"github.com/d-royes/tasksync/internal/vocab"
)

var vocabCmd = &cobra.Command{
	Use:     "vocab",
	Short:   "Inspect and validate domain vocabularies",
	GroupID: "system",
}

var vocabShowCmd = &cobra.Command{
	Use:   "show [domain]",
	Short: "Show the column and label mappings for a domain",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(getBaseDir())
		if err != nil {
			return err
		}
		set, err := loadVocabSet(cfg)
		if err != nil {
			return err
		}

		domains := set.Domains()
		sort.Slice(domains, func(i, j int) bool { return domains[i] < domains[j] })
		if len(args) == 1 {
			d, err := parseDomain(args[0])
			if err != nil {
				return err
			}
			domains = []models.Domain{d}
		}

		for _, d := range domains {
			voc, err := set.ForDomain(d)
			if err != nil {
				return err
			}
			fmt.Print(output.SectionHeader(string(d)))
			c := voc.Columns
			output.Info("  columns: title=%q priority=%q status=%q planned=%q done=%q link=%q",
				c.Title, c.Priority, c.Status, c.Planned, c.Done, c.Link)
			if c.Modified != "" {
				output.Info("  modified column: %q", c.Modified)
			} else {
				output.Warning("  no modified column: sheet edits lose ties against local edits")
			}
			for _, p := range []models.Priority{models.PriorityUrgent, models.PriorityHigh, models.PriorityMedium, models.PriorityLow, models.PriorityNone} {
				label, _ := voc.PriorityToRemote(p)
				output.Info("  priority %-7s -> %q", p, label)
			}
			for _, s := range []models.Status{models.StatusNotStarted, models.StatusInProgress, models.StatusWaiting, models.StatusDone} {
				label, _ := voc.StatusToRemote(s)
				output.Info("  status %-12s -> %q", s, label)
			}
		}
		return nil
	},
}

var vocabCheckCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Validate a vocabulary file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			set *vocab.Set
			err error
		)
		if len(args) == 1 {
			set, err = vocab.Load(args[0])
		} else {
			cfg, cerr := config.Load(getBaseDir())
			if cerr != nil {
				return cerr
			}
			set, err = loadVocabSet(cfg)
		}
		if err != nil {
			output.Error("vocabulary invalid: %v", err)
			return err
		}
		output.Success("Vocabulary OK (version %d, %d domains)", set.Version, len(set.Domains()))
		return nil
	},
}

func init() {
	vocabCmd.AddCommand(vocabShowCmd)
	vocabCmd.AddCommand(vocabCheckCmd)
	rootCmd.AddCommand(vocabCmd)
}
