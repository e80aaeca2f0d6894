package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"learnrag/internal/config"
	"learnrag/internal/domain"
)

type call struct {
	mode, platform, query string
	topK                  int
}

type fakeEngine struct {
	calls []call
	res   []domain.Resource
	err   error
}

func (f *fakeEngine) SearchResources(_ context.Context, query string, topK int) ([]domain.Resource, error) {
	f.calls = append(f.calls, call{mode: "search", query: query, topK: topK})
	return f.res, f.err
}

func (f *fakeEngine) SearchByTopic(_ context.Context, topic string, topK int) ([]domain.Resource, error) {
	f.calls = append(f.calls, call{mode: "topic", query: topic, topK: topK})
	return f.res, f.err
}

func (f *fakeEngine) SearchByPlatform(_ context.Context, platform, query string, topK int) ([]domain.Resource, error) {
	f.calls = append(f.calls, call{mode: "platform", platform: platform, query: query, topK: topK})
	return f.res, f.err
}

type fakeCounter struct {
	n   int
	err error
}

func (f fakeCounter) Count(context.Context) (int, error) { return f.n, f.err }

func newTestRouter(engine *fakeEngine) http.Handler {
	h := NewHandler(engine, fakeCounter{n: 42}, config.AppInfo{Name: "Learning Resource API", Version: "1.0.0"}, zap.NewNop())
	return NewRouter(h, RouterOptions{Logger: zap.NewNop()})
}

func do(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestRootAndHealth(t *testing.T) {
	router := newTestRouter(&fakeEngine{})

	w, body := do(t, router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Learning Resource API", body["message"])
	assert.Equal(t, "1.0.0", body["version"])

	w, body = do(t, router, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(42), body["indexed"])
}

func TestHealth_CountFailure(t *testing.T) {
	h := NewHandler(&fakeEngine{}, fakeCounter{err: errors.New("db gone")}, config.AppInfo{}, nil)
	w, body := do(t, NewRouter(h, RouterOptions{}), http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", body["error"])
}

func TestSearch(t *testing.T) {
	engine := &fakeEngine{res: []domain.Resource{{
		Name: "Tour", Topic: "Go", Subtopic: "Basics", URL: "https://go.dev/tour",
		Platform: domain.PlatformWebsite, SourceRepo: "a/b",
	}}}
	router := newTestRouter(engine)

	w, body := do(t, router, http.MethodPost, "/api/v1/search", `{"query":"  golang  "}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []call{{mode: "search", query: "golang", topK: 5}}, engine.calls)
	assert.Equal(t, "golang", body["query"])
	assert.Equal(t, float64(1), body["total_results"])
	resources := body["resources"].([]any)
	first := resources[0].(map[string]any)
	assert.Equal(t, "Tour", first["name"])
	assert.Equal(t, "a/b", first["source_repo"])
	assert.Equal(t, "Basics", first["subtopic"])
}

func TestSearch_TopKBounds(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"zero", `{"query":"go","top_k":0}`, http.StatusBadRequest},
		{"too large", `{"query":"go","top_k":100}`, http.StatusBadRequest},
		{"lower bound", `{"query":"go","top_k":1}`, http.StatusOK},
		{"upper bound", `{"query":"go","top_k":20}`, http.StatusOK},
		{"missing query", `{"top_k":3}`, http.StatusBadRequest},
		{"blank query", `{"query":"   "}`, http.StatusBadRequest},
		{"malformed", `{"query":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{}
			w, body := do(t, newTestRouter(engine), http.MethodPost, "/api/v1/search", tt.body)
			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusBadRequest {
				assert.Equal(t, "bad_request", body["error"])
				assert.Empty(t, engine.calls)
			}
		})
	}
}

func TestSearch_ValidationDetailsUseJSONNames(t *testing.T) {
	_, body := do(t, newTestRouter(&fakeEngine{}), http.MethodPost, "/api/v1/search", `{"query":"go","top_k":100}`)
	details := body["details"].(map[string]any)
	assert.Equal(t, "top_k must be at most 20", details["top_k"])
}

func TestSearchTopic(t *testing.T) {
	engine := &fakeEngine{res: []domain.Resource{}}
	router := newTestRouter(engine)

	w, body := do(t, router, http.MethodPost, "/api/v1/search/topic", `{"topic":"Machine Learning"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []call{{mode: "topic", query: "Machine Learning", topK: 10}}, engine.calls)
	assert.Equal(t, "Machine Learning", body["query"])
	assert.Equal(t, float64(0), body["total_results"])
	assert.Equal(t, []any{}, body["resources"])

	w, _ = do(t, router, http.MethodPost, "/api/v1/search/topic", `{"topic":"ML","top_k":50}`)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, router, http.MethodPost, "/api/v1/search/topic", `{"topic":"ML","top_k":51}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchPlatform(t *testing.T) {
	engine := &fakeEngine{res: []domain.Resource{{Name: "Vid", Topic: "Go", URL: "https://youtu.be/x", Platform: domain.PlatformYouTube}}}
	router := newTestRouter(engine)

	w, body := do(t, router, http.MethodPost, "/api/v1/search/platform", `{"platform":"YouTube","query":"python"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "python on YouTube", body["query"])
	first := body["resources"].([]any)[0].(map[string]any)
	assert.NotContains(t, first, "subtopic")
	assert.NotContains(t, first, "source_repo")

	w, body = do(t, router, http.MethodPost, "/api/v1/search/platform", `{"platform":"GitHub"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "GitHub", body["query"])

	assert.Equal(t, []call{
		{mode: "platform", platform: "YouTube", query: "python", topK: 5},
		{mode: "platform", platform: "GitHub", query: "", topK: 5},
	}, engine.calls)

	w, _ = do(t, router, http.MethodPost, "/api/v1/search/platform", `{"query":"python"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch_EngineFailure(t *testing.T) {
	router := newTestRouter(&fakeEngine{err: errors.New("POST http://qdrant.internal:6333/collections/x failed: 502 Bad Gateway")})

	w, body := do(t, router, http.MethodPost, "/api/v1/search", `{"query":"go"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", body["error"])
	assert.Equal(t, "Internal server error", body["message"])
	assert.NotContains(t, w.Body.String(), "qdrant.internal")
}

func TestNotFound(t *testing.T) {
	w, body := do(t, newTestRouter(&fakeEngine{}), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", body["error"])
}
