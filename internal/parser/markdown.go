// Package parser turns curated markdown resource lists into resource records.
//
// Parsing is a fold over the lines of a document. The accumulator tracks the
// nearest level-2 heading (topic) and level-3 heading (subtopic); every inline
// link on a line becomes one record tagged with the state in effect after that
// line's heading, if any, has been applied.
package parser

import (
	"regexp"
	"strings"

	"learnrag/internal/domain"
)

var (
	linkPattern     = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	inlineLinkStrip = regexp.MustCompile(`\[.*?\]\(.*?\)`)
	headingMarkup   = regexp.MustCompile("[#*`]")
)

const descriptionSeparator = " - "

// headings is the fold accumulator. An empty subtopic means "same as topic".
type headings struct {
	topic    string
	subtopic string
}

func initialHeadings() headings {
	return headings{topic: domain.DefaultTopic}
}

// advance returns the heading state after line.
func (h headings) advance(line string) headings {
	switch {
	case strings.HasPrefix(line, "## "):
		topic := cleanHeading(strings.TrimPrefix(line, "## "))
		if topic == "" {
			topic = domain.DefaultTopic
		}
		return headings{topic: topic}
	case strings.HasPrefix(line, "### "):
		return headings{topic: h.topic, subtopic: cleanHeading(strings.TrimPrefix(line, "### "))}
	}
	return h
}

func (h headings) effectiveSubtopic() string {
	if h.subtopic == "" {
		return h.topic
	}
	return h.subtopic
}

// Parse extracts every resource link from text. It never fails: lines that
// match neither a heading nor a link are skipped.
func Parse(text, sourceID string) []domain.Resource {
	resources := []domain.Resource{}
	state := initialHeadings()
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		state = state.advance(line)
		resources = append(resources, extract(line, state, sourceID)...)
	}
	return resources
}

// extract returns the records for the links on a single line.
func extract(line string, state headings, sourceID string) []domain.Resource {
	if !strings.Contains(line, "](") {
		return nil
	}
	matches := linkPattern.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return nil
	}
	description := extractDescription(line)
	var out []domain.Resource
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		url := strings.TrimSpace(m[2])
		if name == "" || url == "" || strings.HasPrefix(url, "#") {
			continue
		}
		out = append(out, domain.Resource{
			Name:        name,
			Topic:       state.topic,
			Subtopic:    state.effectiveSubtopic(),
			URL:         url,
			Platform:    ClassifyPlatform(url),
			Description: description,
			SourceRepo:  sourceID,
		})
	}
	return out
}

// extractDescription returns the text after the first " - " with links removed.
func extractDescription(line string) string {
	_, after, found := strings.Cut(line, descriptionSeparator)
	if !found {
		return ""
	}
	after = inlineLinkStrip.ReplaceAllString(strings.TrimSpace(after), "")
	return strings.TrimSpace(after)
}

// cleanHeading strips markup and collapses runs of whitespace left behind.
func cleanHeading(s string) string {
	return strings.Join(strings.Fields(headingMarkup.ReplaceAllString(s, "")), " ")
}
