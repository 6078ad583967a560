package analytics

import (
	"time"

	"github.com/verte-zerg/usagechart/internal/model"
)

// DateRange is an inclusive filter. Filtering applies only when both
// bounds are non-empty.
type DateRange struct {
	Start string
	End   string
}

// Active reports whether the range filters anything.
func (r DateRange) Active() bool {
	return r.Start != "" && r.End != ""
}

// Categories returns the distinct App values in first-seen order.
func Categories(records []model.Record) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0)
	for _, rec := range records {
		if _, ok := seen[rec.App]; ok {
			continue
		}
		seen[rec.App] = struct{}{}
		out = append(out, rec.App)
	}
	return out
}

// BuildCategorySeries filters records for one category and date range and
// maps the survivors to plot points, preserving dataset order.
func BuildCategorySeries(records []model.Record, category string, rng DateRange) model.Series {
	keep := rangePredicate(rng)
	points := make([]model.PlotPoint, 0)
	for _, rec := range records {
		if rec.App != category {
			continue
		}
		if !keep(rec) {
			continue
		}
		points = append(points, ToPlotPoint(rec))
	}
	return model.Series{ID: category, Points: points}
}

// ToPlotPoint maps a record to its chart coordinates.
func ToPlotPoint(rec model.Record) model.PlotPoint {
	return model.PlotPoint{
		Record: rec,
		X:      rec.Date,
		Y:      rec.DailyUsers,
	}
}

func rangePredicate(rng DateRange) func(model.Record) bool {
	if !rng.Active() {
		return func(model.Record) bool { return true }
	}
	start, startOK := ParseBoundDate(rng.Start)
	end, endOK := ParseBoundDate(rng.End)
	if !startOK || !endOK {
		// An unparseable bound never compares true.
		return func(model.Record) bool { return false }
	}
	return func(rec model.Record) bool {
		day, ok := ParseRecordDate(rec.Date)
		if !ok {
			return false
		}
		return inRange(day, start, end)
	}
}

func inRange(day, start, end time.Time) bool {
	return !day.Before(start) && !day.After(end)
}
