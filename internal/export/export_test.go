package export

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/usagechart/internal/analytics"
	"github.com/verte-zerg/usagechart/internal/model"
)

func testView(t *testing.T) analytics.View {
	t.Helper()
	p := analytics.NewPanel([]model.Record{
		{Date: "01/01/2023", Country: "US", App: "Chat", Platform: "iOS", AdNetwork: "Meta", DailyUsers: model.NewMetric(10)},
		{Date: "02/01/2023", Country: "US", App: "Chat", Platform: "iOS", AdNetwork: "Meta", DailyUsers: model.NewMetric(30)},
		{Date: "03/01/2023", Country: "US", App: "Chat", Platform: "iOS", AdNetwork: "Meta"},
		{Date: "04/01/2023", Country: "US", App: "Chat", Platform: "iOS", AdNetwork: "Meta", DailyUsers: model.NewMetric(20)},
		{Date: "01/01/2023", Country: "DE", App: "Mail", DailyUsers: model.NewMetric(3)},
	})
	require.NoError(t, p.SetTarget(25))
	p.SetTargetColor("#ff0000")
	return p.View()
}

func TestValidRunsBreakOnMissingValues(t *testing.T) {
	runs := validRuns(testView(t).Chart)
	require.Len(t, runs, 2)
	assert.Len(t, runs[0], 2)
	assert.Len(t, runs[1], 1)
	assert.Equal(t, 3.0, runs[1][0].X)
}

func TestBuildPlotSkipsNonFiniteValues(t *testing.T) {
	view := testView(t)
	view.Chart.Series.Points[1].Y = model.NewMetric(math.NaN())
	view.Chart.Series.Points[3].Y = model.NewMetric(math.Inf(-1))

	runs := validRuns(view.Chart)
	require.Len(t, runs, 1)
	assert.Len(t, runs[0], 1)

	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, view.Chart, "png", DefaultImageWidth, DefaultImageHeight))
}

func TestBuildPlotIncludesTarget(t *testing.T) {
	p, err := BuildPlot(testView(t).Chart)
	require.NoError(t, err)
	assert.Equal(t, "Daily User", p.Y.Label.Text)
	assert.Equal(t, "Date", p.X.Label.Text)
	assert.LessOrEqual(t, p.Y.Min, 10.0)
	assert.GreaterOrEqual(t, p.Y.Max, 30.0)

	view := testView(t)
	view.Chart.Target.Value = 500
	p, err = BuildPlot(view.Chart)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p.Y.Max, 500.0)
}

func TestWriteChartPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, testView(t).Chart, "png", DefaultImageWidth, DefaultImageHeight))
	require.Greater(t, buf.Len(), 8)
	assert.Equal(t, "\x89PNG", buf.String()[:4])
}

func TestSaveChartEmptySeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.svg")
	require.NoError(t, SaveChart(path, analytics.NewPanel(nil).View().Chart, DefaultImageWidth, DefaultImageHeight))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "<svg"))

	require.Error(t, SaveChart(filepath.Join(t.TempDir(), "noext"), testView(t).Chart, DefaultImageWidth, DefaultImageHeight))
}

func TestSaveWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.xlsx")
	require.NoError(t, SaveWorkbook(path, testView(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	rows, err := f.GetRows("Chat")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Date", "Country", "App", "Platform", "Ad Network", "Daily Users"}, rows[0])
	assert.Equal(t, []string{"01/01/2023", "US", "Chat", "iOS", "Meta", "10"}, rows[1])
	assert.Equal(t, []string{"03/01/2023", "US", "Chat", "iOS", "Meta"}, rows[3])

	filters, err := f.GetRows(filterSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Target color", "#ff0000"}, filters[4])
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, testView(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	assert.Equal(t, []string{"Chat", filterSheet}, f.GetSheetList())
	rows, err := f.GetRows("Chat")
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Series", sheetName(""))
	assert.Equal(t, "a_b_c", sheetName("a/b?c"))
	assert.Equal(t, "Series Filters", sheetName("Filters"))
	assert.Len(t, []rune(sheetName(strings.Repeat("x", 40))), maxSheetName)
}
