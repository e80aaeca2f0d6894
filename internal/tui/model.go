package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"learnrag/internal/domain"
)

// Recommender is the TUI-facing subset of the retrieval engine.
type Recommender interface {
	SearchResources(ctx context.Context, query string, topK int) ([]domain.Resource, error)
	SearchByTopic(ctx context.Context, topic string, topK int) ([]domain.Resource, error)
	SearchByPlatform(ctx context.Context, platform, query string, topK int) ([]domain.Resource, error)
}

// Mode is the active search mode.
type Mode int

const (
	ModeSearch Mode = iota
	ModeTopic
	ModePlatform
)

func (m Mode) String() string {
	switch m {
	case ModeTopic:
		return "topic"
	case ModePlatform:
		return "platform"
	default:
		return "search"
	}
}

func (m Mode) placeholder() string {
	switch m {
	case ModeTopic:
		return "Topic, e.g. Machine Learning"
	case ModePlatform:
		return "Platform then optional query, e.g. YouTube python"
	default:
		return "Type query and press Enter"
	}
}

const topK = 10

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	engine    Recommender
	input     textinput.Model
	viewport  viewport.Model
	mode      Mode
	results   []domain.Resource
	summary   string
	status    string
	cursor    int
	ready     bool
	lastQuery string
}

// New creates a new TUI model instance.
func New(engine Recommender, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = ModeSearch.placeholder()
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{engine: engine, input: ti, viewport: vp, summary: summary, status: "Loaded. Type to search, Tab switches mode."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + summary
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := max(3, msg.Height-reserved)
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab":
			m.mode = (m.mode + 1) % 3
			m.input.Placeholder = m.mode.placeholder()
			m.status = "Mode: " + m.mode.String()
			return m, nil
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				res, err := m.run(q)
				if err != nil {
					m.status = "Error: " + err.Error()
					m.results = nil
				} else {
					m.status = fmt.Sprintf("%d %s results for %q", len(res), m.mode, q)
					m.results = res
					m.cursor = 0
					m.lastQuery = q
				}
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) run(q string) ([]domain.Resource, error) {
	ctx := context.Background()
	switch m.mode {
	case ModeTopic:
		return m.engine.SearchByTopic(ctx, q, topK)
	case ModePlatform:
		platform, rest, _ := strings.Cut(q, " ")
		return m.engine.SearchByPlatform(ctx, platform, strings.TrimSpace(rest), topK)
	default:
		return m.engine.SearchResources(ctx, q, topK)
	}
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Learning Resources") +
		modeStyle.Render(" ["+m.mode.String()+"]")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	var b strings.Builder
	fmt.Fprintf(&b, "Result %d/%d  [%s]\n\n", m.cursor+1, len(m.results), r.Platform)
	b.WriteString(titleStyle.Render(r.Name) + "\n")
	b.WriteString(r.URL + "\n")
	topic := r.Topic
	if r.Subtopic != "" && r.Subtopic != r.Topic {
		topic += " / " + r.Subtopic
	}
	b.WriteString(dimStyle.Render(topic))
	if r.SourceRepo != "" {
		b.WriteString(dimStyle.Render("  from " + r.SourceRepo))
	}
	if r.Description != "" {
		b.WriteString("\n\n" + highlightTerms(r.Description, m.lastQuery))
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	titleStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	modeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

// highlightTerms renders every word of text that also appears in query.
func highlightTerms(text, query string) string {
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 || strings.TrimSpace(text) == "" {
		return text
	}
	return unicodeWordRe.ReplaceAllStringFunc(text, func(w string) string {
		if _, ok := qTokens[strings.ToLower(w)]; ok {
			return highlightStyle.Render(w)
		}
		return w
	})
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}
