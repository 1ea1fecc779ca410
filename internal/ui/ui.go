package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/sysmon/internal/model"
	"github.com/Dicklesworthstone/sysmon/internal/monitor"
)

const (
	detailRows   = 8
	maxCellWidth = 26
	sparkWidth   = 28
)

// Model renders engine snapshots. It holds no metric data of its own:
// every change event triggers a pull of the latest snapshot.
type Model struct {
	engine    *monitor.Engine
	selection *monitor.Controller
	changes   <-chan struct{}
	unsub     func()
	stop      func()

	snap   *model.Snapshot
	detail table.Model
	width  int
	height int
}

// New creates the dashboard model. stop is called when the user quits.
func New(e *monitor.Engine, c *monitor.Controller, stop func()) *Model {
	changes, unsub := e.Notifier().Subscribe()
	if stop == nil {
		stop = func() {}
	}
	m := &Model{
		engine:    e,
		selection: c,
		changes:   changes,
		unsub:     unsub,
		stop:      stop,
		detail: table.New(
			table.WithFocused(true),
			table.WithHeight(detailRows),
		),
		width:  120,
		height: 40,
	}
	m.detail.SetStyles(tableStyles())
	m.refresh()
	return m
}

// Messages
type changedMsg struct{}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m *Model) Init() tea.Cmd { return waitForChange(m.changes) }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.unsub()
			m.stop()
			return m, tea.Quit
		case "1", "c":
			m.selectFamily(model.FamilyCPU)
			return m, nil
		case "2", "m":
			m.selectFamily(model.FamilyMemory)
			return m, nil
		case "3", "g":
			m.selectFamily(model.FamilyGPU)
			return m, nil
		case "tab":
			m.selectFamily(m.step(1))
			return m, nil
		case "shift+tab":
			m.selectFamily(m.step(-1))
			return m, nil
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	case changedMsg:
		m.refresh()
		return m, waitForChange(m.changes)
	}
	return m, nil
}

// selectFamily switches the detail view and re-reads immediately.
func (m *Model) selectFamily(f model.Family) {
	if err := m.selection.Select(f); err == nil {
		m.refresh()
	}
}

func (m *Model) step(delta int) model.Family {
	fams := model.Selectable()
	cur := 0
	for i, f := range fams {
		if f == m.selection.Current() {
			cur = i
		}
	}
	return fams[(cur+delta+len(fams))%len(fams)]
}

// refresh pulls the latest snapshot and rebuilds the detail table.
func (m *Model) refresh() {
	m.snap = m.engine.Snapshot()
	rows := m.selection.CurrentRows().Newest()

	cols := make([]table.Column, len(rows.Columns))
	for i, title := range rows.Columns {
		w := len(title)
		for _, r := range rows.Rows {
			w = max(w, len(r[i]))
		}
		cols[i] = table.Column{Title: title, Width: min(w, maxCellWidth)}
	}
	trows := make([]table.Row, len(rows.Rows))
	for i, r := range rows.Rows {
		trows[i] = table.Row(r)
	}

	// Rows must never be wider than the columns while either is being replaced.
	cursor := m.detail.Cursor()
	m.detail.SetRows(nil)
	m.detail.SetColumns(cols)
	m.detail.SetRows(trows)
	m.detail.SetCursor(cursor)
}

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	lineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#39FF14"))
	staleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	blinkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Blink(true)
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
	selectedCardStyle = cardStyle.BorderForeground(lipgloss.Color("45"))
)

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("60")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	return s
}

func (m *Model) View() string {
	s := m.snap
	header := titleStyle.Render("System Monitor") + "  " +
		subtleStyle.Render(fmt.Sprintf("%s · cycle %d", s.State, s.Cycle))
	if !s.Taken.IsZero() {
		header += "  " + subtleStyle.Render(s.Taken.Format("Mon Jan 2 15:04:05 MST 2006"))
	}

	if s.Cycle == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, blinkStyle.Render("Loading..."))
	}

	cards := make([]string, 0, len(model.Charts))
	for _, c := range model.Charts {
		cards = append(cards, m.chartCard(c))
	}
	charts := lipgloss.JoinHorizontal(lipgloss.Top, cards...)

	current := m.selection.Current()
	detail := cardStyle.Render(
		labelStyle.Render("Selected detail: "+strings.ToUpper(current.String())) + "\n" +
			m.detailBody(current))

	help := subtleStyle.Render("1/c cpu · 2/m memory · 3/g gpu · tab next · ↑/↓ scroll · q quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, charts, calibrationLine(s.Calibration), detail, help)
}

func (m *Model) chartCard(c model.Chart) string {
	data := m.snap.ChartData(c)
	body := subtleStyle.Render("no data")
	if len(data) > 0 {
		body = lineStyle.Render(Sparkline(data, sparkWidth)) +
			fmt.Sprintf(" %6.1f", data[len(data)-1])
	}
	if msg, ok := m.snap.Errors[c.Family]; ok {
		body += "\n" + staleStyle.Render("stale: "+truncate(msg, sparkWidth+4))
	}
	style := cardStyle
	if c.Family == m.selection.Current() {
		style = selectedCardStyle
	}
	return style.Render(labelStyle.Render(c.Title) + "\n" + body)
}

func (m *Model) detailBody(f model.Family) string {
	if !m.snap.View(f).Schema.Ready() {
		return subtleStyle.Render("not yet available")
	}
	return m.detail.View() + "\n" +
		subtleStyle.Render(fmt.Sprintf("%d rows, newest first", len(m.detail.Rows())))
}

func calibrationLine(c model.Calibration) string {
	parts := make([]string, 0, 2)
	if c.CPU != nil {
		parts = append(parts, fmt.Sprintf("CPU high %.0f°C · critical %.0f°C", c.CPU.High, c.CPU.Critical))
	}
	if c.Memory != nil {
		parts = append(parts, fmt.Sprintf("RAM total %.2f MiB", c.Memory.TotalMiB))
	}
	if len(parts) == 0 {
		return subtleStyle.Render("uncalibrated")
	}
	return subtleStyle.Render(strings.Join(parts, "   "))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx is done.
func Run(ctx context.Context, m *Model) error {
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := prog.Run()
	return err
}
