// Package ingest collects resource lists from their sources, parses them and
// rebuilds the vector index from the result.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"learnrag/internal/config"
	"learnrag/internal/domain"
	"learnrag/internal/parser"
)

// Builder is the part of the vector index the pipeline needs.
type Builder interface {
	Build(ctx context.Context, docs []domain.IndexedDocument) error
}

// FileStat counts the records parsed from one source file.
type FileStat struct {
	Repo    string `json:"repo"`
	Path    string `json:"path"`
	Records int    `json:"records"`
}

// Report is the outcome of one collection run.
type Report struct {
	Records  []domain.Resource `json:"-"`
	Files    []FileStat        `json:"files"`
	Failures []domain.Failure  `json:"failures"`
}

// Documents renders every record as an IndexedDocument, in order.
func (r *Report) Documents() []domain.IndexedDocument {
	docs := make([]domain.IndexedDocument, len(r.Records))
	for i, rec := range r.Records {
		docs[i] = domain.NewIndexedDocument(rec)
	}
	return docs
}

// Pipeline fetches, parses and indexes resource lists.
type Pipeline struct {
	fetcher domain.Fetcher
	index   Builder
	logger  *zap.Logger
}

func NewPipeline(fetcher domain.Fetcher, index Builder, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{fetcher: fetcher, index: index, logger: logger}
}

// Collect fetches and parses every file of every source in order. A file
// that cannot be fetched is recorded as a failure and skipped.
func (p *Pipeline) Collect(ctx context.Context, sources []config.Source) *Report {
	report := &Report{Records: []domain.Resource{}, Failures: []domain.Failure{}}
	for _, src := range sources {
		for _, path := range src.Files {
			if err := ctx.Err(); err != nil {
				report.Failures = append(report.Failures, domain.Failure{Repo: src.Repo, Path: path, Reason: err.Error()})
				continue
			}
			text, err := p.fetcher.Fetch(ctx, src.Repo, path)
			if err != nil {
				p.logger.Warn("skipping source file",
					zap.String("repo", src.Repo),
					zap.String("path", path),
					zap.Error(err))
				report.Failures = append(report.Failures, domain.Failure{Repo: src.Repo, Path: path, Reason: err.Error()})
				continue
			}
			records := parser.Parse(text, src.Repo)
			report.Records = append(report.Records, records...)
			report.Files = append(report.Files, FileStat{Repo: src.Repo, Path: path, Records: len(records)})
			p.logger.Info("parsed source file",
				zap.String("repo", src.Repo),
				zap.String("path", path),
				zap.Int("records", len(records)))
		}
	}
	return report
}

// Rebuild collects all sources and replaces the index content with the
// result in a single build.
func (p *Pipeline) Rebuild(ctx context.Context, sources []config.Source) (*Report, error) {
	report := p.Collect(ctx, sources)
	if err := p.index.Build(ctx, report.Documents()); err != nil {
		return report, fmt.Errorf("build index: %w", err)
	}
	p.logger.Info("index rebuilt",
		zap.Int("records", len(report.Records)),
		zap.Int("files", len(report.Files)),
		zap.Int("failures", len(report.Failures)))
	return report, nil
}

// BackupSuffix is appended to the index directory name by BackupDir.
const BackupSuffix = "_backup"

// BackupDir moves dir to dir+BackupSuffix, replacing any previous backup.
// A missing dir is not an error and returns an empty path.
func BackupDir(dir string) (string, error) {
	clean := filepath.Clean(dir)
	if _, err := os.Stat(clean); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	backup := clean + BackupSuffix
	if err := os.RemoveAll(backup); err != nil {
		return "", fmt.Errorf("remove old backup: %w", err)
	}
	if err := os.Rename(clean, backup); err != nil {
		return "", fmt.Errorf("backup %s: %w", clean, err)
	}
	return backup, nil
}

var csvHeader = []string{"source_repo", "topic", "subtopic", "name", "url", "description", "platform"}

// ExportCSV writes records to path, creating parent directories.
func ExportCSV(path string, records []domain.Resource) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, csvHeader)
	for _, r := range records {
		rows = append(rows, []string{r.SourceRepo, r.Topic, r.Subtopic, r.Name, r.URL, r.Description, string(r.Platform)})
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}
