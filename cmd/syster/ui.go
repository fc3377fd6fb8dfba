package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mohammed-j-mahmoud/syster/internal/diag"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list        list.Model
	errors      int
	warnings    int
	generation  uint64
	fileCount   int
	symbolCount int
	lastUpdate  time.Time
}

type updateMsg struct {
	diagnostics []diag.Diagnostic
	generation  uint64
	fileCount   int
	symbolCount int
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case updateMsg:
		m.generation = msg.generation
		m.fileCount = msg.fileCount
		m.symbolCount = msg.symbolCount
		m.lastUpdate = time.Now()
		m.errors, m.warnings = diag.CountBySeverity(msg.diagnostics)

		items := make([]list.Item, 0, len(msg.diagnostics))
		for _, d := range msg.diagnostics {
			items = append(items, item{
				title: string(d.Kind),
				desc:  fmt.Sprintf("%s in %s:%d", d.Message, d.File, d.Span.Start.Line+1),
			})
		}
		m.list.SetItems(items)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | gen %d | %d files | %d symbols",
		m.lastUpdate.Format("15:04:05"), m.generation, m.fileCount, m.symbolCount))

	var summary string
	if m.errors == 0 && m.warnings == 0 {
		summary = successStyle.Render("✅ Model Clean")
	} else {
		summary = fmt.Sprintf("⚠️  %s | %s",
			errorStyle.Render(fmt.Sprintf("%d Errors", m.errors)),
			warningStyle.Render(fmt.Sprintf("%d Warnings", m.warnings)))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Model Diagnostics Monitor"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Diagnostics"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		lastUpdate: time.Now(),
	}
}
