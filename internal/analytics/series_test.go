package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/usagechart/internal/model"
)

func rec(date, app string, users float64) model.Record {
	return model.Record{
		Date:       date,
		Country:    "US",
		App:        app,
		Platform:   "iOS",
		AdNetwork:  "Meta",
		DailyUsers: model.NewMetric(users),
	}
}

func sampleRecords() []model.Record {
	return []model.Record{
		rec("01/01/2023", "A", 10),
		rec("01/01/2023", "B", 20),
		rec("02/01/2023", "A", 11),
		rec("03/01/2023", "B", 21),
		rec("03/01/2023", "A", 12),
		rec("04/01/2023", "A", 13),
	}
}

func TestCategoriesFirstSeenOrder(t *testing.T) {
	records := []model.Record{
		rec("01/01/2023", "Zed", 1),
		rec("01/01/2023", "Alpha", 1),
		rec("02/01/2023", "Zed", 1),
		rec("02/01/2023", "Mid", 1),
	}
	assert.Equal(t, []string{"Zed", "Alpha", "Mid"}, Categories(records))
	assert.Empty(t, Categories(nil))
}

func TestBuildCategorySeriesKeepsOnlyCategoryInOrder(t *testing.T) {
	s := BuildCategorySeries(sampleRecords(), "A", DateRange{})
	require.Equal(t, "A", s.ID)
	require.Len(t, s.Points, 4)
	for i, want := range []string{"01/01/2023", "02/01/2023", "03/01/2023", "04/01/2023"} {
		assert.Equal(t, "A", s.Points[i].App)
		assert.Equal(t, want, s.Points[i].X)
	}
}

func TestBuildCategorySeriesSameDayRange(t *testing.T) {
	s := BuildCategorySeries(sampleRecords(), "A", DateRange{Start: "2023-01-03", End: "2023-01-03"})
	require.Len(t, s.Points, 1)
	assert.Equal(t, "03/01/2023", s.Points[0].Date)
	assert.Equal(t, 12.0, s.Points[0].Y.Value)
}

func TestBuildCategorySeriesInclusiveRange(t *testing.T) {
	s := BuildCategorySeries(sampleRecords(), "A", DateRange{Start: "02/01/2023", End: "2023-01-03"})
	require.Len(t, s.Points, 2)
	assert.Equal(t, "02/01/2023", s.Points[0].X)
	assert.Equal(t, "03/01/2023", s.Points[1].X)
}

func TestBuildCategorySeriesReversedRangeIsEmpty(t *testing.T) {
	s := BuildCategorySeries(sampleRecords(), "A", DateRange{Start: "2023-01-04", End: "2023-01-01"})
	assert.Equal(t, "A", s.ID)
	assert.Empty(t, s.Points)
}

func TestBuildCategorySeriesHalfRangeDoesNotFilter(t *testing.T) {
	s := BuildCategorySeries(sampleRecords(), "A", DateRange{Start: "2023-01-04"})
	assert.Len(t, s.Points, 4)
	s = BuildCategorySeries(sampleRecords(), "A", DateRange{End: "2023-01-01"})
	assert.Len(t, s.Points, 4)
}

func TestBuildCategorySeriesInvalidDates(t *testing.T) {
	records := append(sampleRecords(), rec("not a date", "A", 99))

	s := BuildCategorySeries(records, "A", DateRange{})
	assert.Len(t, s.Points, 5, "no filter keeps malformed rows")

	s = BuildCategorySeries(records, "A", DateRange{Start: "2023-01-01", End: "2023-12-31"})
	assert.Len(t, s.Points, 4, "active filter drops malformed rows")

	s = BuildCategorySeries(records, "A", DateRange{Start: "garbage", End: "2023-12-31"})
	assert.Empty(t, s.Points)
}

func allSeries(records []model.Record) []model.Series {
	var out []model.Series
	for _, cat := range Categories(records) {
		out = append(out, BuildCategorySeries(records, cat, DateRange{}))
	}
	return out
}

func TestBuildSeriesRoundTrip(t *testing.T) {
	records := sampleRecords()
	all := allSeries(records)
	require.Len(t, all, 2)

	seen := map[string]int{}
	total := 0
	for _, s := range all {
		for _, p := range s.Points {
			assert.Equal(t, s.ID, p.App)
			assert.Equal(t, p.Date, p.X)
			assert.Equal(t, p.DailyUsers, p.Y)
			seen[fmt.Sprintf("%s|%s", p.App, p.Date)]++
			total++
		}
	}
	assert.Equal(t, len(records), total)
	for _, r := range records {
		key := fmt.Sprintf("%s|%s", r.App, r.Date)
		assert.Equal(t, 1, seen[key], key)
	}

	// Fields survive unchanged.
	assert.Equal(t, records[1], all[1].Points[0].Record)
}

func TestParseDates(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		bound bool
		ok    bool
	}{
		{name: "record", in: "15/03/2023", ok: true},
		{name: "record single digits", in: "5/3/2023", ok: true},
		{name: "record feb 30", in: "30/02/2023", ok: false},
		{name: "record wrong sep", in: "2023-03-15", ok: false},
		{name: "record empty", in: "", ok: false},
		{name: "bound iso", in: "2023-03-15", bound: true, ok: true},
		{name: "bound dataset form", in: "15/03/2023", bound: true, ok: true},
		{name: "bound month 13", in: "2023-13-01", bound: true, ok: false},
		{name: "bound short year", in: "23-03-15", bound: true, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ok bool
			if tt.bound {
				_, ok = ParseBoundDate(tt.in)
			} else {
				_, ok = ParseRecordDate(tt.in)
			}
			assert.Equal(t, tt.ok, ok)
		})
	}

	a, ok := ParseRecordDate("15/03/2023")
	require.True(t, ok)
	b, ok := ParseBoundDate("2023-03-15")
	require.True(t, ok)
	assert.True(t, a.Equal(b))
}
