package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/simon/lst/internal/config"
	"github.com/simon/lst/internal/mux"
	"github.com/simon/lst/internal/state"
	"github.com/simon/lst/internal/tui"
)

func SetVersionInfo(version, commit string) {
	rootCmd.Version = fmt.Sprintf("%s (%s)", version, commit)
}

var noTmux bool

var rootCmd = &cobra.Command{
	Use:   "lst [path]",
	Short: "Browse a directory tree with an embedded terminal",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		root, err = filepath.Abs(root)
		if err != nil {
			return err
		}
		if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
			return fmt.Errorf("%s is not a directory", root)
		}

		// Wrap the whole run in a per-root tmux session so it survives
		// terminal disconnects. Ensure execs away and never returns on
		// success; from here down we are the inner process.
		m := mux.New()
		if !noTmux && !cfg.NoTmux && m.ShouldWrap() {
			if err := m.Ensure(root, os.Args); err == nil {
				return nil
			}
			// tmux failed; run directly
		}

		store, err := state.Open()
		if err != nil {
			// State is a convenience, not a requirement
			store = nil
		}

		startPath := ""
		if store != nil {
			startPath, _ = store.LoadPath(root)
		}

		model := tui.NewModel(root, startPath, cfg, store)
		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}

		// Quitting the inner process tears down its wrapper session
		m.Teardown()
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&noTmux, "no-tmux", false, "Run without the tmux wrapper")
}
