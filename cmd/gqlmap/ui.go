package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gqlmap/internal/engine/analyzer"
	"gqlmap/internal/engine/graphql"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	unusedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
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
	unused      bool
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list       list.Model
	lastUpdate time.Time
	opCount    int
	usedCount  int
	fileCount  int64
}

type updateMsg struct {
	result *analyzer.Result
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
		m.lastUpdate = time.Now()
		m.opCount = len(msg.result.Operations)
		m.fileCount = msg.result.Coverage.FilesScanned
		m.usedCount = 0

		ops := append([]*graphql.Operation(nil), msg.result.Operations...)
		sort.Slice(ops, func(i, j int) bool {
			if used1, used2 := len(ops[i].UsedIn) > 0, len(ops[j].UsedIn) > 0; used1 != used2 {
				return !used1
			}
			return ops[i].Key() < ops[j].Key()
		})

		items := make([]list.Item, 0, len(ops))
		for _, op := range ops {
			used := len(op.UsedIn) > 0
			if used {
				m.usedCount++
			}
			items = append(items, item{
				title:  fmt.Sprintf("%s %s", op.Kind, op.Name),
				desc:   describeOperation(op),
				unused: !used,
			})
		}
		m.list.SetItems(items)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func describeOperation(op *graphql.Operation) string {
	where := op.DefinitionFile
	if op.Line > 0 {
		where = fmt.Sprintf("%s:%d", op.DefinitionFile, op.Line)
	}
	if len(op.UsedIn) == 0 {
		return fmt.Sprintf("no consumers | %s", where)
	}
	return fmt.Sprintf("%d consumers, %d aliases | %s", len(op.UsedIn), len(op.Aliases), where)
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d files scanned",
		m.lastUpdate.Format("15:04:05"), m.fileCount))

	unused := m.opCount - m.usedCount
	var summary string
	if m.opCount > 0 && unused == 0 {
		summary = successStyle.Render("✅ Every operation has a consumer")
	} else {
		summary = fmt.Sprintf("%s | %s",
			successStyle.Render(fmt.Sprintf("%d used", m.usedCount)),
			unusedStyle.Render(fmt.Sprintf("%d unused", unused)))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("GraphQL Operation Map"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Operations"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		lastUpdate: time.Now(),
	}
}
