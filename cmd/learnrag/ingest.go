package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"learnrag/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch every configured list and rebuild the index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, false)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Back up the current index, then rebuild it from fresh sources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, true)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(updateCmd)
}

func runIngest(cmd *cobra.Command, backup bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.VectorStore.Type == "memory" {
		logger.Warn("memory vector store does not persist; the index is discarded on exit")
	}
	if backup && cfg.VectorStore.Type == "sqlite" {
		path, err := ingest.BackupDir(cfg.VectorStore.Path)
		if err != nil {
			return err
		}
		if path != "" {
			logger.Info("backed up index", zap.String("backup", path))
		}
	}

	fetcher, err := newFetcher(ctx, cfg)
	if err != nil {
		return err
	}
	index, closeIndex, err := openIndex(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeIndex()

	pipeline := ingest.NewPipeline(fetcher, index, logger)
	report, err := pipeline.Rebuild(ctx, cfg.Sources)
	if err != nil {
		return err
	}
	if cfg.Ingest.ExportCSV != "" {
		if err := ingest.ExportCSV(cfg.Ingest.ExportCSV, report.Records); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
		logger.Info("exported raw records", zap.String("path", cfg.Ingest.ExportCSV))
	}

	summary := struct {
		Records int `json:"records"`
		*ingest.Report
	}{Records: len(report.Records), Report: report}
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
