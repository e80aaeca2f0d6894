package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIndexedDocument(t *testing.T) {
	r := Resource{
		Name:        "Go by Example",
		Topic:       "Go",
		Subtopic:    "Tutorials",
		URL:         "https://gobyexample.com",
		Platform:    PlatformWebsite,
		Description: "Hands-on introduction",
		SourceRepo:  "org/list",
	}

	doc := NewIndexedDocument(r)

	want := "Topic: Go\nSubtopic: Tutorials\nResource: Go by Example\nDescription: Hands-on introduction\nPlatform: Website\nURL: https://gobyexample.com"
	assert.Equal(t, want, doc.Text)
	assert.Equal(t, r, doc.Resource)
}

func TestResource_JSONOmitsEmptyOptionalFields(t *testing.T) {
	r := Resource{Name: "n", Topic: "t", URL: "https://u", Platform: PlatformGitHub}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.NotContains(t, out, "subtopic")
	assert.NotContains(t, out, "source_repo")
	assert.Equal(t, "GitHub", out["platform"])
	assert.Contains(t, out, "description")
}
