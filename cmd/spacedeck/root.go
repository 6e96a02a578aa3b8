package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/glabrego/spacedeck/internal/config"
	"github.com/glabrego/spacedeck/internal/tui"
	"github.com/glabrego/spacedeck/internal/tui/state"
	"github.com/glabrego/spacedeck/internal/tui/view"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig string
	flagView   string
	flagDirect bool
)

var rootCmd = &cobra.Command{
	Use:          "spacedeck",
	Short:        "Terminal dashboard for space news, rover photos and research papers",
	Long:         "spacedeck aggregates NASA, ESA and ISRO updates, Mars rover photos and Crossref papers into a tabbed terminal UI with an assistant chat.",
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVar(&flagDirect, "direct", false, "call upstream APIs directly instead of the proxy")
	rootCmd.Flags().StringVar(&flagView, "view", "", "start in view: home, research, papers or assistant")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cardsCmd)
	rootCmd.AddCommand(papersCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "spacedeck %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	var initial state.View
	if flagView != "" {
		v, err := state.ParseView(flagView)
		if err != nil {
			return err
		}
		initial = v
	}

	rt, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	model := tui.NewModel(rt.service, rt.logger)

	if rt.repo != nil {
		prefCtx, prefCancel := context.WithTimeout(context.Background(), 5*time.Second)
		prefs, err := rt.service.LoadUIPreferences(prefCtx)
		prefCancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not load UI preferences (%v), using defaults\n", err)
		} else {
			model.ApplyPreferences(prefs)
		}
		model.EnablePreferencePersistence()
	}
	if flagView != "" {
		model.SetInitialView(initial)
	}
	if view.InlineImagePreviewEnabled() {
		model.SetImageRenderer(view.NewImagePreviewer(nil).Render)
	}

	rt.logger.Info("starting tui", "mode", rt.cfg.Mode, "view", flagView)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
