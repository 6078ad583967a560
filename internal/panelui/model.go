// Package panelui provides the Bubble Tea analytics panel.
package panelui

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/usagechart/internal/analytics"
	"github.com/verte-zerg/usagechart/internal/chart"
)

const (
	plotHeight = 10
)

const (
	inputStart = iota
	inputEnd
	inputTarget
	inputColor
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	sectionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Bold(true)
	buttonStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	disabledStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea analytics panel.
type Model struct {
	panel  *analytics.Panel
	source string

	view     analytics.View
	errMsg   string
	viewport viewport.Model
	rows     table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a panel UI over an already configured panel.
func NewModel(panel *analytics.Panel, source string) *Model {
	m := &Model{
		panel:    panel,
		source:   source,
		viewport: viewport.New(0, 0),
	}
	m.initInputs()
	m.rows = buildRowsTable(nil)
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderContent()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.panel.MoveCategory(-1)
			m.setError("")
			m.refresh()
			return m, nil
		case "right", "l":
			m.panel.MoveCategory(1)
			m.setError("")
			m.refresh()
			return m, nil
		case "]", "n":
			m.panel.NextPage()
			m.refresh()
			return m, nil
		case "[", "p":
			m.panel.PrevPage()
			m.refresh()
			return m, nil
		case "x":
			m.panel.SetStartDate("")
			m.panel.SetEndDate("")
			m.refresh()
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			m.viewport.GotoTop()
			return m, nil
		case "G", "end":
			m.viewport.GotoBottom()
			return m, nil
		default:
			if idx, ok := categoryKey(msg.String()); ok {
				if err := m.panel.SelectCategory(idx); err != nil {
					m.setError(err.Error())
				} else {
					m.setError("")
				}
				m.refresh()
				return m, nil
			}
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Start date (YYYY-MM-DD): "),
		newFilterInput("End date (YYYY-MM-DD): "),
		newFilterInput("Target value: "),
		newFilterInput("Target color: "),
	}
	m.filterInputs[inputColor].Placeholder = "#RRGGBB"
	m.setInputsFromPanel()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromPanel() {
	rng := m.panel.Range()
	m.filterInputs[inputStart].SetValue(rng.Start)
	m.filterInputs[inputEnd].SetValue(rng.End)
	m.filterInputs[inputTarget].SetValue(strconv.FormatFloat(m.panel.Target(), 'f', -1, 64))
	m.filterInputs[inputColor].SetValue(m.panel.TargetColor())
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	m.viewport.Width = m.width
	m.viewport.Height = vpHeight
	m.rows.SetWidth(m.width)
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) setError(msg string) {
	if m.errMsg == msg {
		return
	}
	m.errMsg = msg
	m.updateLayout()
}

// refresh recomputes the view from panel state. The page index is clamped
// by the panel on every recompute.
func (m *Model) refresh() {
	m.view = m.panel.View()
	m.rows.SetRows(tableRows(m.view.Page))
	m.rows.SetHeight(maxInt(1, len(m.view.Page.Rows)+1))
	m.renderContent()
}

func (m *Model) renderContent() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewport.SetContent(renderPanel(m.view, m.rows, width))
}

func renderPanel(view analytics.View, rows table.Model, width int) string {
	if !view.HasSelection() {
		return "No category selected."
	}
	var buf bytes.Buffer
	if err := chart.RenderChart(&buf, view.Chart, chart.Options{Width: width, Height: plotHeight, ForceColor: true}); err != nil {
		return fmt.Sprintf("Failed to render chart: %v", err)
	}
	parts := []string{
		sectionStyle.Render("Chart"),
		strings.TrimRight(buf.String(), "\n"),
		"",
		sectionStyle.Render("Table"),
	}
	if len(view.Page.Rows) == 0 {
		parts = append(parts, "No rows match the current filters.")
	} else {
		parts = append(parts, tableMutedStyle.Render(rows.View()))
	}
	if view.Page.ShowPager {
		parts = append(parts, renderPager(view.Page))
	}
	return strings.Join(parts, "\n")
}

func renderPager(page analytics.Page) string {
	prev := buttonStyle.Render("‹ Previous")
	if !page.HasPrev {
		prev = disabledStyle.Render("‹ Previous")
	}
	next := buttonStyle.Render("Next ›")
	if !page.HasNext {
		next = disabledStyle.Render("Next ›")
	}
	return fmt.Sprintf("%s  %d/%d  %s", prev, page.Index+1, page.Count, next)
}

func buildRowsTable(rows []table.Row) table.Model {
	columns := []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Country", Width: 8},
		{Title: "App", Width: 14},
		{Title: "Platform", Width: 9},
		{Title: "Ad Network", Width: 12},
		{Title: "Daily Users", Width: 11},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, len(rows)+1)),
	)
	t.Blur()
	t.SetStyles(rowsTableStyles())
	return t
}

func tableRows(page analytics.Page) []table.Row {
	rows := make([]table.Row, 0, len(page.Rows))
	for _, p := range page.Rows {
		rows = append(rows, table.Row(chart.TableRow(p)))
	}
	return rows
}

func rowsTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	// Rows are not selectable.
	styles.Selected = styles.Cell
	return styles
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderCategories(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderCategories() string {
	if len(m.view.Categories) == 0 {
		return inactiveNavStyle.Render("no categories")
	}
	parts := make([]string, 0, len(m.view.Categories))
	for i, cat := range m.view.Categories {
		label := fmt.Sprintf("%d %s", i+1, cat)
		if i == m.view.Selected {
			parts = append(parts, activeNavStyle.Render(label))
		} else {
			parts = append(parts, inactiveNavStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderFilterSummary() string {
	start := m.view.Range.Start
	if start == "" {
		start = "any"
	}
	end := m.view.Range.End
	if end == "" {
		end = "any"
	}
	summary := fmt.Sprintf("Data: %s  start=%s  end=%s  target=%s  color=%s  rows=%d",
		m.source, start, end,
		strconv.FormatFloat(m.view.Chart.Target.Value, 'f', -1, 64),
		m.view.Chart.Target.Color, len(m.view.Series.Points))
	summary = truncateLine(summary, m.width)
	return headerStyle.Render(summary)
}

func (m *Model) renderHelp() string {
	return headerStyle.Render("Category: left/right/1-9  Page: [/]  Scroll: up/down  Filters: /  Clear dates: x  Quit: q")
}

func (m *Model) renderFilterHelp() string {
	return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return m.renderFilterHelp()
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filters (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody() string {
	if m.filterMode {
		return m.renderFilterForm()
	}
	return m.viewport.View()
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromPanel()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.setError("")
		m.refresh()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

// applyFilter validates only the target value. Dates are passed through as
// typed; a bound that does not parse filters everything out.
func (m *Model) applyFilter() error {
	target, err := analytics.ParseTarget(m.filterInputs[inputTarget].Value())
	if err != nil {
		return fmt.Errorf("invalid target value (use a number)")
	}
	if err := m.panel.SetTarget(target); err != nil {
		return err
	}
	m.panel.SetStartDate(strings.TrimSpace(m.filterInputs[inputStart].Value()))
	m.panel.SetEndDate(strings.TrimSpace(m.filterInputs[inputEnd].Value()))
	color := strings.TrimSpace(m.filterInputs[inputColor].Value())
	if color == "" {
		color = analytics.DefaultTargetColor
	}
	m.panel.SetTargetColor(color)
	return nil
}

// categoryKey maps the digit keys 1-9 to category indexes 0-8.
func categoryKey(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	return int(key[0] - '1'), true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
