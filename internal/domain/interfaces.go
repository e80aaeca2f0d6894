package domain

import (
	"context"
	"fmt"
)

// Platform is the hosting platform a resource URL points to.
type Platform string

const (
	PlatformYouTube  Platform = "YouTube"
	PlatformGitHub   Platform = "GitHub"
	PlatformCoursera Platform = "Coursera"
	PlatformUdemy    Platform = "Udemy"
	PlatformWebsite  Platform = "Website"
)

// Platforms lists every platform a resource can be classified as.
var Platforms = []Platform{PlatformYouTube, PlatformGitHub, PlatformCoursera, PlatformUdemy, PlatformWebsite}

// DefaultTopic is used for links that appear before any level-2 heading.
const DefaultTopic = "General"

// Resource is one learning resource extracted from a curated markdown list.
type Resource struct {
	Name        string   `json:"name"`
	Topic       string   `json:"topic"`
	Subtopic    string   `json:"subtopic,omitempty"`
	URL         string   `json:"url"`
	Platform    Platform `json:"platform"`
	Description string   `json:"description"`
	SourceRepo  string   `json:"source_repo,omitempty"`
}

// IndexedDocument is the embeddable form of a Resource.
// Text is what gets embedded; Resource travels with it as metadata.
type IndexedDocument struct {
	Text     string
	Resource Resource
}

// NewIndexedDocument renders the fixed document template for r.
func NewIndexedDocument(r Resource) IndexedDocument {
	text := fmt.Sprintf("Topic: %s\nSubtopic: %s\nResource: %s\nDescription: %s\nPlatform: %s\nURL: %s",
		r.Topic, r.Subtopic, r.Name, r.Description, r.Platform, r.URL)
	return IndexedDocument{Text: text, Resource: r}
}

// SearchResult represents a matching resource with a similarity score.
type SearchResult struct {
	Resource Resource
	Score    float64
}

// Failure records a source file that could not be ingested.
type Failure struct {
	Repo   string `json:"repo"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Embedder converts free text into a unit-length vector.
// Identical input must always produce the identical vector.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Fetcher retrieves the raw text of a file in a source repository.
// A missing or unreachable file is reported as ErrSourceUnavailable.
type Fetcher interface {
	Fetch(ctx context.Context, repo, path string) (string, error)
}
