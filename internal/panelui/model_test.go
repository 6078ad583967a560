package panelui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/usagechart/internal/analytics"
	"github.com/verte-zerg/usagechart/internal/model"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	records := make([]model.Record, 0, 30)
	for i := 0; i < 25; i++ {
		records = append(records, model.Record{
			Date:       fmt.Sprintf("%02d/01/2023", i+1),
			Country:    "US",
			App:        "Chatter",
			Platform:   "iOS",
			AdNetwork:  "Meta",
			DailyUsers: model.NewMetric(float64(100 + i)),
		})
	}
	for i := 0; i < 3; i++ {
		records = append(records, model.Record{
			Date:       fmt.Sprintf("%02d/01/2023", i+1),
			App:        "Mailer",
			DailyUsers: model.NewMetric(float64(10 + i)),
		})
	}
	m := NewModel(analytics.NewPanel(records), "test")
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 60})
	return m
}

func press(m *Model, key string) {
	switch key {
	case "enter":
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	case "right":
		m.Update(tea.KeyMsg{Type: tea.KeyRight})
	case "left":
		m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	default:
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	}
}

func TestViewRendersPanel(t *testing.T) {
	m := newTestModel(t)
	out := m.View()
	assert.Contains(t, out, "1 Chatter")
	assert.Contains(t, out, "2 Mailer")
	assert.Contains(t, out, "Daily User")
	assert.Contains(t, out, "Ad Network")
	assert.Contains(t, out, "1/3")
	assert.Contains(t, out, "rows=25")
}

func TestPagingKeys(t *testing.T) {
	m := newTestModel(t)
	press(m, "[")
	assert.Equal(t, 0, m.view.Page.Index)

	press(m, "]")
	press(m, "n")
	assert.Equal(t, 2, m.view.Page.Index)
	assert.Len(t, m.view.Page.Rows, 5)
	assert.False(t, m.view.Page.HasNext)

	press(m, "]")
	assert.Equal(t, 2, m.view.Page.Index)

	press(m, "p")
	assert.Equal(t, 1, m.view.Page.Index)
}

func TestCategoryKeysClampPage(t *testing.T) {
	m := newTestModel(t)
	press(m, "]")
	press(m, "]")
	press(m, "right")
	assert.Equal(t, "Mailer", m.view.Series.ID)
	assert.Equal(t, 0, m.view.Page.Index)
	assert.False(t, m.view.Page.ShowPager)

	press(m, "left")
	assert.Equal(t, "Chatter", m.view.Series.ID)

	press(m, "2")
	assert.Equal(t, "Mailer", m.view.Series.ID)
	assert.Empty(t, m.errMsg)

	press(m, "9")
	assert.False(t, m.view.HasSelection())
	assert.Contains(t, m.errMsg, "out of range")
	assert.Contains(t, m.View(), "No category selected.")

	press(m, "1")
	assert.Empty(t, m.errMsg)
	assert.Equal(t, "Chatter", m.view.Series.ID)
}

func TestFilterFormApplies(t *testing.T) {
	m := newTestModel(t)
	press(m, "/")
	require.True(t, m.filterMode)
	assert.Contains(t, m.View(), "Start date")

	m.filterInputs[inputStart].SetValue("2023-01-03")
	m.filterInputs[inputEnd].SetValue("2023-01-03")
	m.filterInputs[inputTarget].SetValue("110")
	m.filterInputs[inputColor].SetValue("#ff0000")
	press(m, "enter")

	require.False(t, m.filterMode)
	require.Len(t, m.view.Series.Points, 1)
	assert.Equal(t, "03/01/2023", m.view.Series.Points[0].X)
	assert.Equal(t, 110.0, m.view.Chart.Target.Value)
	assert.Equal(t, "#ff0000", m.view.Chart.Target.Color)

	press(m, "x")
	assert.Len(t, m.view.Series.Points, 25)
}

func TestFilterFormRejectsBadTarget(t *testing.T) {
	m := newTestModel(t)
	press(m, "/")
	m.filterInputs[inputTarget].SetValue("lots")
	press(m, "enter")
	assert.True(t, m.filterMode)
	assert.Contains(t, m.filterError, "invalid target value")
	assert.Equal(t, 0.0, m.panel.Target())

	press(m, "esc")
	assert.False(t, m.filterMode)
}

func TestReversedRangeShowsNoRows(t *testing.T) {
	m := newTestModel(t)
	press(m, "/")
	m.filterInputs[inputStart].SetValue("2023-01-10")
	m.filterInputs[inputEnd].SetValue("2023-01-01")
	press(m, "enter")
	assert.Empty(t, m.view.Series.Points)
	assert.True(t, strings.Contains(m.View(), "No data for Chatter."))
}

func TestCategoryKey(t *testing.T) {
	idx, ok := categoryKey("1")
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
	_, ok = categoryKey("0")
	assert.False(t, ok)
	_, ok = categoryKey("12")
	assert.False(t, ok)
}
