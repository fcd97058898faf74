package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d-royes/tasksync/internal/config"
	"github.com/d-royes/tasksync/internal/gauth"
	"github.com/d-royes/tasksync/internal/models"
	"github.com/d-royes/tasksync/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	Short:   "Run diagnostic checks for sync setup",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		runDoctor()
		return nil
	},
}

func runDoctor() {
	baseDir := getBaseDir()

	// 1. Config
	cfg, err := config.Load(baseDir)
	cfgOK := err == nil && cfg.Tenant != ""
	if cfgOK {
		fmt.Printf("Config ................. OK (tenant %s)\n", cfg.Tenant)
	} else if err != nil {
		fmt.Printf("Config ................. FAIL (%v)\n", err)
	} else {
		fmt.Printf("Config ................. FAIL (no tenant, run 'tasksync init')\n")
	}

	// 2. Timezone
	if !cfgOK {
		fmt.Printf("Timezone ............... SKIP\n")
	} else if loc, err := cfg.Location(); err != nil {
		fmt.Printf("Timezone ............... FAIL (%v)\n", err)
	} else {
		fmt.Printf("Timezone ............... OK (%s)\n", loc)
	}

	// 3. Vocabulary
	var domainsCovered map[models.Domain]bool
	if !cfgOK {
		fmt.Printf("Vocabulary ............. SKIP\n")
	} else if set, err := loadVocabSet(cfg); err != nil {
		fmt.Printf("Vocabulary ............. FAIL (%v)\n", err)
	} else {
		domainsCovered = make(map[models.Domain]bool)
		for _, d := range set.Domains() {
			domainsCovered[d] = true
		}
		fmt.Printf("Vocabulary ............. OK (%d domains)\n", len(domainsCovered))
	}

	// 4. Sheets configured
	if !cfgOK {
		fmt.Printf("Sheets configured ...... SKIP\n")
	} else {
		configured := 0
		for _, d := range []models.Domain{models.DomainPersonal, models.DomainChurch, models.DomainWork} {
			if _, ok := cfg.SheetFor(d); !ok {
				continue
			}
			configured++
			if domainsCovered != nil && !domainsCovered[d] {
				fmt.Printf("Sheets configured ...... WARN (domain %s has a sheet but no vocabulary)\n", d)
			}
		}
		if configured == 0 {
			fmt.Printf("Sheets configured ...... WARN (none)\n")
		} else {
			fmt.Printf("Sheets configured ...... OK (%d)\n", configured)
		}
	}

	// 5. Credentials and cached token
	if gauth.HasCredentials(dataDir()) {
		fmt.Printf("Credentials ............ OK\n")
	} else {
		fmt.Printf("Credentials ............ FAIL (missing %s/credentials.json)\n", dataDir())
	}
	if gauth.HasToken(dataDir()) {
		fmt.Printf("Auth token ............. OK\n")
	} else {
		fmt.Printf("Auth token ............. WARN (first sync will prompt for authorization)\n")
	}

	// 6. Local store
	st, err := store.Open(baseDir)
	if err != nil {
		fmt.Printf("Local store ............ FAIL (%v)\n", err)
		return
	}
	defer st.Close()
	fmt.Printf("Local store ............ OK\n")
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
