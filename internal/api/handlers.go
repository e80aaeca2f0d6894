// Package api exposes the recommendation modes over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"learnrag/internal/config"
	"learnrag/internal/domain"
)

const maxBodyBytes = 1 << 20

// Recommender is the retrieval surface served by the API.
type Recommender interface {
	SearchResources(ctx context.Context, query string, topK int) ([]domain.Resource, error)
	SearchByTopic(ctx context.Context, topic string, topK int) ([]domain.Resource, error)
	SearchByPlatform(ctx context.Context, platform, query string, topK int) ([]domain.Resource, error)
}

// Counter reports how many documents are indexed.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query string `json:"query" validate:"required"`
	TopK  int    `json:"top_k" validate:"min=1,max=20"`
}

// TopicRequest is the body of POST /search/topic.
type TopicRequest struct {
	Topic string `json:"topic" validate:"required"`
	TopK  int    `json:"top_k" validate:"min=1,max=50"`
}

// PlatformRequest is the body of POST /search/platform.
type PlatformRequest struct {
	Platform string `json:"platform" validate:"required"`
	Query    string `json:"query"`
	TopK     int    `json:"top_k" validate:"min=1,max=20"`
}

// ResourceResponse is returned by every search endpoint.
type ResourceResponse struct {
	Query        string            `json:"query"`
	TotalResults int               `json:"total_results"`
	Resources    []domain.Resource `json:"resources"`
}

// Handler serves the HTTP endpoints.
type Handler struct {
	engine Recommender
	index  Counter
	info   config.AppInfo
	logger *zap.Logger
}

func NewHandler(engine Recommender, index Counter, info config.AppInfo, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: engine, index: index, info: info, logger: logger}
}

// Root describes the service.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.write(w, http.StatusOK, map[string]string{
		"message": h.info.Name,
		"version": h.info.Version,
		"docs":    "/api/v1",
	})
}

// Health reports liveness and the indexed document count.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	n, err := h.index.Count(r.Context())
	if err != nil {
		h.logger.Error("count indexed documents", zap.Error(err))
		if err := WriteInternalServerError(w, ""); err != nil {
			h.logger.Error("failed to write internal error response", zap.Error(err))
		}
		return
	}
	h.write(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"message": "API is running",
		"indexed": n,
	})
}

// Search handles free-text search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	req := SearchRequest{TopK: 5}
	if !h.decode(w, r, &req) {
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if !h.valid(w, &req) {
		return
	}
	res, err := h.engine.SearchResources(r.Context(), req.Query, req.TopK)
	h.respond(w, req.Query, res, err)
}

// SearchTopic handles topic search.
func (h *Handler) SearchTopic(w http.ResponseWriter, r *http.Request) {
	req := TopicRequest{TopK: 10}
	if !h.decode(w, r, &req) {
		return
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if !h.valid(w, &req) {
		return
	}
	res, err := h.engine.SearchByTopic(r.Context(), req.Topic, req.TopK)
	h.respond(w, req.Topic, res, err)
}

// SearchPlatform handles platform-filtered search.
func (h *Handler) SearchPlatform(w http.ResponseWriter, r *http.Request) {
	req := PlatformRequest{TopK: 5}
	if !h.decode(w, r, &req) {
		return
	}
	req.Platform = strings.TrimSpace(req.Platform)
	req.Query = strings.TrimSpace(req.Query)
	if !h.valid(w, &req) {
		return
	}
	res, err := h.engine.SearchByPlatform(r.Context(), req.Platform, req.Query, req.TopK)
	label := req.Platform
	if req.Query != "" {
		label = req.Query + " on " + req.Platform
	}
	h.respond(w, label, res, err)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if err := WriteBadRequest(w, "Invalid JSON body", map[string]any{"body": err.Error()}); err != nil {
			h.logger.Error("failed to write bad request response", zap.Error(err))
		}
		return false
	}
	return true
}

func (h *Handler) valid(w http.ResponseWriter, req any) bool {
	err := ValidateStruct(req)
	if err == nil {
		return true
	}
	var vErr *ValidationError
	details := map[string]any{}
	if errors.As(err, &vErr) {
		details = vErr.Details()
	}
	if err := WriteBadRequest(w, err.Error(), details); err != nil {
		h.logger.Error("failed to write bad request response", zap.Error(err))
	}
	return false
}

func (h *Handler) respond(w http.ResponseWriter, query string, res []domain.Resource, err error) {
	if err != nil {
		if errors.Is(err, domain.ErrInvalidK) || errors.Is(err, domain.ErrInvalidInput) {
			if err := WriteBadRequest(w, err.Error(), nil); err != nil {
				h.logger.Error("failed to write bad request response", zap.Error(err))
			}
			return
		}
		h.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		if err := WriteInternalServerError(w, ""); err != nil {
			h.logger.Error("failed to write internal error response", zap.Error(err))
		}
		return
	}
	if res == nil {
		res = []domain.Resource{}
	}
	h.write(w, http.StatusOK, ResourceResponse{Query: query, TotalResults: len(res), Resources: res})
}

func (h *Handler) write(w http.ResponseWriter, status int, body any) {
	if err := WriteJSON(w, status, body); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
