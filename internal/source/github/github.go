package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"learnrag/internal/domain"
	"learnrag/internal/source"
)

var _ domain.Fetcher = (*Fetcher)(nil)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRate keeps unauthenticated use well under GitHub's hourly quota.
	DefaultRate = 1.0
)

type Config struct {
	// Token authenticates requests when non-empty.
	Token string
	// BaseURL overrides the API endpoint (GitHub Enterprise, tests).
	BaseURL        string
	Branches       []string
	Timeout        time.Duration
	RequestsPerSec float64
}

// Fetcher reads files through the GitHub repository contents API.
type Fetcher struct {
	gh       *gh.Client
	branches []string
	limiter  *rate.Limiter
}

func NewFetcher(ctx context.Context, cfg Config) (*Fetcher, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(ctx, ts)
		httpClient.Timeout = timeout
	}
	client := gh.NewClient(httpClient)
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		client.BaseURL = u
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = DefaultRate
	}
	return &Fetcher{
		gh:       client,
		branches: source.Branches(cfg.Branches),
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// Fetch returns the decoded content of path in repo, trying each branch as
// the ref. Only a 404 moves on to the next branch.
func (f *Fetcher) Fetch(ctx context.Context, repo, path string) (string, error) {
	owner, name, err := source.SplitRepo(repo)
	if err != nil {
		return "", err
	}
	var lastErr error
	for _, branch := range f.branches {
		text, notFound, err := f.get(ctx, owner, name, path, branch)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !notFound {
			break
		}
	}
	return "", fmt.Errorf("%s/%s: %w: %v", repo, path, domain.ErrSourceUnavailable, lastErr)
}

func (f *Fetcher) get(ctx context.Context, owner, repo, path, ref string) (string, bool, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", false, fmt.Errorf("rate limit wait: %w", err)
	}
	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	file, _, resp, err := f.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		var ghErr *gh.ErrorResponse
		notFound := errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
		if !notFound && resp != nil {
			notFound = resp.StatusCode == http.StatusNotFound
		}
		return "", notFound, fmt.Errorf("get contents %s@%s: %w", path, ref, err)
	}
	if file == nil {
		return "", false, fmt.Errorf("%s is a directory, not a file", path)
	}
	text, err := file.GetContent()
	if err != nil {
		return "", false, fmt.Errorf("decode content: %w", err)
	}
	return text, false, nil
}
