// Package tui is the interactive trace viewer.
package tui

import (
	"context"
	"fmt"
	"strings"

	"jumbotrace/internal/display"
	"jumbotrace/internal/metrics"
	"jumbotrace/internal/traceview"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	panelStyle  = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderTop(true).PaddingLeft(1)
)

// chromeLines is the header plus the status bar.
const chromeLines = 3

// Model is the bubbletea model of one document.
type Model struct {
	doc     *display.Document
	title   string
	metrics *metrics.Metrics

	top      *display.Cursor
	selected *display.Cursor
	inspect  []string

	width  int
	height int
}

// New creates the viewer. m may be nil.
func New(doc *display.Document, title string, m *metrics.Metrics) Model {
	first := doc.First()
	return Model{doc: doc, title: title, metrics: m, top: first, selected: first, height: 24}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	if m.selected == nil {
		return m, nil
	}

	switch msg.String() {
	case "down", "j":
		if next, ok := m.doc.Next(m.selected); ok {
			m.selected = next
			for !m.visible(m.selected) {
				top, ok := m.doc.Next(m.top)
				if !ok {
					break
				}
				m.top = top
			}
		}
	case "up", "k":
		if prev, ok := m.doc.Prev(m.selected); ok {
			m.selected = prev
			if !m.visible(m.selected) {
				m.top = prev
			}
		}
	case "g", "home":
		m.top = m.doc.First()
		m.selected = m.top
	case "G", "end":
		m.selected = m.doc.Last()
		m.top = m.selected
		for i := 1; i < m.rows(); i++ {
			prev, ok := m.doc.Prev(m.top)
			if !ok {
				break
			}
			m.top = prev
		}
	case "enter", " ":
		id := m.selected.Element().Event.ID
		if m.doc.Toggle(id) {
			if m.metrics != nil {
				m.metrics.Recomputes.Inc()
			}
			m.selected = m.settle(m.selected)
			m.top = m.reveal(id)
		}
	case "i":
		if m.inspect != nil {
			m.inspect = nil
		} else {
			m.inspect = m.doc.Inspect(context.Background(), m.selected.Element())
			if len(m.inspect) == 0 {
				m.inspect = []string{"no references"}
			}
		}
	case "esc":
		m.inspect = nil
	}
	return m, nil
}

// reveal anchors the window at the first line of event id, so lines a toggle
// revealed above the selected statement line come into view.
func (m Model) reveal(id int64) *display.Cursor {
	top, ok := traceview.At(m.doc.Root, id, traceview.Start)
	if ok && !m.doc.Displayable(top.Element()) {
		top, ok = m.doc.Next(top)
	}
	if !ok {
		top = m.selected
	}
	m.top = top
	if !m.visible(m.selected) {
		if w := m.doc.WindowBefore(m.selected, m.rows()); len(w) > 0 {
			return w[0]
		}
	}
	return top
}

// settle moves c back to a displayable position after a toggle hid it.
func (m Model) settle(c *display.Cursor) *display.Cursor {
	if m.doc.Displayable(c.Element()) {
		return c
	}
	if prev, ok := m.doc.Prev(c); ok {
		return prev
	}
	return m.doc.First()
}

func (m Model) rows() int {
	n := m.height - chromeLines - len(m.inspect)
	if m.inspect != nil {
		n--
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (m Model) visible(c *display.Cursor) bool {
	for _, w := range m.doc.Window(m.top, m.rows()) {
		if w.Equal(c) {
			return true
		}
	}
	return false
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("jumbotrace " + m.title))
	b.WriteString("\n")

	if m.top == nil {
		b.WriteString(statusStyle.Render("(nothing to display)"))
		b.WriteString("\n")
	} else {
		for _, c := range m.doc.Window(m.top, m.rows()) {
			selected := c.Equal(m.selected)
			for _, l := range m.doc.Lines(c.Element()) {
				b.WriteString(m.doc.Renderer.Render(l, m.width, selected))
				b.WriteString("\n")
			}
		}
	}

	if m.inspect != nil {
		b.WriteString(panelStyle.Render(strings.Join(m.inspect, "\n")))
		b.WriteString("\n")
	}
	b.WriteString(m.status())
	return b.String()
}

func (m Model) status() string {
	pos := "-"
	if m.selected != nil {
		e := m.selected.Element()
		pos = fmt.Sprintf("event %d %s", e.Event.ID, e.Pos)
	}
	return statusStyle.Render(pos + "  j/k move  enter toggle  i inspect  g/G ends  q quit")
}
