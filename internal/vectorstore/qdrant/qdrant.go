package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"learnrag/internal/domain"
	"learnrag/internal/vectorstore"
)

var _ vectorstore.Storage = (*Storage)(nil)

const defaultBatchSize = 256

// errNotFound marks a 404 from Qdrant, which for this store means the
// alias has not been created yet.
var errNotFound = errors.New("qdrant: not found")

// Storage is a minimal REST client to Qdrant.
// It assumes cosine distance. The configured collection name is an alias
// that Replace moves to a freshly built collection.
type Storage struct {
	url        string
	apiKey     string
	collection string
	batchSize  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
	BatchSize  int
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		batchSize:  batch,
		client:     &http.Client{Timeout: timeout},
	}
}

type payload struct {
	Seq         int    `json:"seq"`
	Name        string `json:"name"`
	Topic       string `json:"topic"`
	Subtopic    string `json:"subtopic"`
	URL         string `json:"url"`
	Platform    string `json:"platform"`
	Description string `json:"description"`
	SourceRepo  string `json:"source_repo"`
	Text        string `json:"text"`
}

type point struct {
	ID      int       `json:"id"`
	Vector  []float64 `json:"vector"`
	Payload payload   `json:"payload"`
}

// Replace builds entries into a fresh collection and then points the alias
// at it in one alias update, so searches see either the old or the new set.
// The previous backing collection is dropped afterwards.
func (s *Storage) Replace(ctx context.Context, entries []vectorstore.Entry) error {
	dim := 0
	for _, e := range entries {
		if dim == 0 {
			dim = len(e.Vector)
		}
		if len(e.Vector) != dim {
			return domain.ErrDimensionMismatch
		}
	}
	previous, aliased, err := s.backingCollection(ctx)
	if err != nil {
		return err
	}

	var actions []map[string]any
	if aliased {
		actions = append(actions, map[string]any{"delete_alias": map[string]any{"alias_name": s.collection}})
	}
	next := ""
	if len(entries) > 0 {
		next = s.collection + "_" + uuid.NewString()
		if err := s.build(ctx, next, dim, entries); err != nil {
			if dropErr := s.drop(ctx, next); dropErr != nil {
				err = errors.Join(err, dropErr)
			}
			return err
		}
		actions = append(actions, map[string]any{"create_alias": map[string]any{
			"collection_name": next,
			"alias_name":      s.collection,
		}})
	}
	if !aliased {
		// a plain collection under the alias name blocks the alias
		if err := s.drop(ctx, s.collection); err != nil {
			return err
		}
	}
	if len(actions) > 0 {
		if err := s.do(ctx, http.MethodPost, s.url+"/collections/aliases", map[string]any{"actions": actions}, nil); err != nil {
			err = fmt.Errorf("switch alias: %w", err)
			if next != "" {
				if dropErr := s.drop(ctx, next); dropErr != nil {
					err = errors.Join(err, dropErr)
				}
			}
			return err
		}
	}
	if aliased && previous != next {
		if err := s.drop(ctx, previous); err != nil {
			return fmt.Errorf("new index is live: %w", err)
		}
	}
	return nil
}

// backingCollection reports which collection the alias currently points to.
func (s *Storage) backingCollection(ctx context.Context) (string, bool, error) {
	var resp struct {
		Result struct {
			Aliases []struct {
				AliasName      string `json:"alias_name"`
				CollectionName string `json:"collection_name"`
			} `json:"aliases"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodGet, s.url+"/aliases", nil, &resp); err != nil {
		return "", false, fmt.Errorf("list aliases: %w", err)
	}
	for _, a := range resp.Result.Aliases {
		if a.AliasName == s.collection {
			return a.CollectionName, true, nil
		}
	}
	return "", false, nil
}

func (s *Storage) build(ctx context.Context, name string, dim int, entries []vectorstore.Entry) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Cosine",
		},
	}
	if err := s.do(ctx, http.MethodPut, s.collectionURL(name, ""), body, nil); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	for start := 0; start < len(entries); start += s.batchSize {
		end := min(start+s.batchSize, len(entries))
		points := make([]point, 0, end-start)
		for i := start; i < end; i++ {
			r := entries[i].Document.Resource
			points = append(points, point{
				ID:     i,
				Vector: entries[i].Vector,
				Payload: payload{
					Seq:         i,
					Name:        r.Name,
					Topic:       r.Topic,
					Subtopic:    r.Subtopic,
					URL:         r.URL,
					Platform:    string(r.Platform),
					Description: r.Description,
					SourceRepo:  r.SourceRepo,
					Text:        entries[i].Document.Text,
				},
			})
		}
		if err := s.do(ctx, http.MethodPut, s.collectionURL(name, "/points?wait=true"), map[string]any{"points": points}, nil); err != nil {
			return fmt.Errorf("upsert points %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func (s *Storage) drop(ctx context.Context, name string) error {
	err := s.do(ctx, http.MethodDelete, s.collectionURL(name, ""), nil, nil)
	if err != nil && !errors.Is(err, errNotFound) {
		return fmt.Errorf("drop collection %s: %w", name, err)
	}
	return nil
}

type hit struct {
	Score   float64 `json:"score"`
	Payload payload `json:"payload"`
}

// Search returns the topK best hits. Equal scores keep insertion order, also
// across the cutoff: when the last kept hit ties with the first dropped one,
// every hit with that score is fetched before truncating.
func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		return nil, domain.ErrInvalidK
	}
	hits, err := s.search(ctx, vector, topK+1, nil)
	if errors.Is(err, errNotFound) {
		return []domain.SearchResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	sortHits(hits)
	if len(hits) > topK && hits[topK].Score == hits[topK-1].Score {
		threshold := hits[topK-1].Score
		for limit := 2 * (topK + 1); ; limit *= 2 {
			tied, err := s.search(ctx, vector, limit, &threshold)
			if err != nil {
				return nil, err
			}
			if len(tied) >= len(hits) {
				hits = tied
			}
			if len(tied) < limit {
				break
			}
		}
		sortHits(hits)
	}
	if len(hits) > topK {
		hits = hits[:topK]
	}
	results := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		p := h.Payload
		results = append(results, domain.SearchResult{
			Resource: domain.Resource{
				Name:        p.Name,
				Topic:       p.Topic,
				Subtopic:    p.Subtopic,
				URL:         p.URL,
				Platform:    domain.Platform(p.Platform),
				Description: p.Description,
				SourceRepo:  p.SourceRepo,
			},
			Score: h.Score,
		})
	}
	return results, nil
}

func (s *Storage) search(ctx context.Context, vector []float64, limit int, threshold *float64) ([]hit, error) {
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if threshold != nil {
		req["score_threshold"] = *threshold
	}
	var resp struct {
		Result []hit `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL(s.collection, "/points/search"), req, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// Qdrant does not order equal scores; fall back to insertion order.
func sortHits(hits []hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Payload.Seq < b.Payload.Seq
	})
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, s.collectionURL(s.collection, "/points/count"), map[string]any{"exact": true}, &resp)
	if errors.Is(err, errNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

func (s *Storage) collectionURL(name, suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, name, suffix)
}

func (s *Storage) do(ctx context.Context, method, url string, body, out any) error {
	var rdr *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(data)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
