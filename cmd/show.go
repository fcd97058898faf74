package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d-royes/tasksync/internal/output"
	"github.com/d-royes/tasksync/internal/store"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:     "show <task-id>",
	Short:   "Show one task in full",
	GroupID: "tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(getBaseDir())
		if err != nil {
			return err
		}
		defer st.Close()

		task, err := st.GetTask(cmd.Context(), args[0])
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				if showJSON {
					output.JSONError(output.ErrCodeNotFound, fmt.Sprintf("task %s not found", args[0]))
					return nil
				}
				return fmt.Errorf("task %s not found", args[0])
			}
			return err
		}

		if showJSON {
			return output.JSON(task)
		}
		fmt.Print(output.FormatTaskLong(task))
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "emit JSON")
	rootCmd.AddCommand(showCmd)
}
