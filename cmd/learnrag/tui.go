package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"learnrag/internal/retrieval"
	"learnrag/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Search the index interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		index, closeIndex, err := openIndex(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeIndex()

		n, err := index.Count(ctx)
		if err != nil {
			return err
		}
		summary := fmt.Sprintf("%d resources indexed from %d sources", n, len(cfg.Sources))
		m := tui.New(retrieval.NewEngine(index, logger), summary)
		_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
