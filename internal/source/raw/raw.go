package raw

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"learnrag/internal/domain"
	"learnrag/internal/source"
)

// DefaultBaseURL serves raw file contents for public GitHub repositories.
const DefaultBaseURL = "https://raw.githubusercontent.com"

var _ domain.Fetcher = (*Fetcher)(nil)

var errNotFound = errors.New("not found")

type Config struct {
	BaseURL        string
	Branches       []string
	Timeout        time.Duration
	RequestsPerSec float64
}

// Fetcher downloads files over plain HTTP, trying each branch in turn.
type Fetcher struct {
	baseURL  string
	branches []string
	client   *http.Client
	limiter  *rate.Limiter
}

func NewFetcher(cfg Config) *Fetcher {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	return &Fetcher{
		baseURL:  base,
		branches: source.Branches(cfg.Branches),
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Fetch returns the text of path in repo. A 404 moves on to the next
// branch; anything else, or running out of branches, is ErrSourceUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, repo, path string) (string, error) {
	if _, _, err := source.SplitRepo(repo); err != nil {
		return "", err
	}
	var lastErr error
	for _, branch := range f.branches {
		text, err := f.get(ctx, fmt.Sprintf("%s/%s/%s/%s", f.baseURL, repo, branch, strings.TrimLeft(path, "/")))
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !errors.Is(err, errNotFound) {
			break
		}
	}
	return "", fmt.Errorf("%s/%s: %w: %v", repo, path, domain.ErrSourceUnavailable, lastErr)
}

func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("GET %s: %w", url, errNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
