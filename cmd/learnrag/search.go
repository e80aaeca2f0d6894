package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"learnrag/internal/domain"
	"learnrag/internal/retrieval"
)

var (
	searchMode     string
	searchPlatform string
	searchTopK     int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Query the index and print matching resources as JSON",
	Long: `Runs one of three modes against the index:
  text      free-text similarity search (default)
  topic     resources for a topic, one per url
  platform  resources hosted on --platform, optionally narrowed by query`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchMode, "mode", "text", "search mode: text, topic or platform")
	searchCmd.Flags().StringVar(&searchPlatform, "platform", "", "platform for --mode platform (YouTube, GitHub, Coursera, Udemy, Website)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 5, "maximum number of results")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	ctx := context.Background()

	index, closeIndex, err := openIndex(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeIndex()
	engine := retrieval.NewEngine(index, logger)

	var res []domain.Resource
	switch searchMode {
	case "text":
		if query == "" {
			return errors.New("a query is required")
		}
		res, err = engine.SearchResources(ctx, query, searchTopK)
	case "topic":
		if query == "" {
			return errors.New("a topic is required")
		}
		res, err = engine.SearchByTopic(ctx, query, searchTopK)
	case "platform":
		if searchPlatform == "" {
			return errors.New("--platform is required for platform mode")
		}
		res, err = engine.SearchByPlatform(ctx, searchPlatform, query, searchTopK)
	default:
		return fmt.Errorf("unknown mode %q", searchMode)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
