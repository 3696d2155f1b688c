package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simon/lst/internal/mux"
	"github.com/simon/lst/internal/state"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List running lst sessions and recent roots",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := mux.New().List()
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No running sessions.")
		}
		for _, s := range sessions {
			root := s.Root
			if root == "" {
				root = "(unknown root)"
			}
			fmt.Printf("%-12s %s\n", s.Socket, root)
		}

		store, err := state.Open()
		if err != nil {
			return nil
		}
		defer store.Close()

		recent, err := store.ListRecent(10)
		if err != nil || len(recent) == 0 {
			return nil
		}
		fmt.Println("\nRecent roots:")
		for _, r := range recent {
			if r.LastPath != "" && r.LastPath != r.Root {
				fmt.Printf("  %s (last: %s)\n", r.Root, r.LastPath)
			} else {
				fmt.Printf("  %s\n", r.Root)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
