// Package model defines shared data structures.
package model

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// Record is one row of the usage dataset.
type Record struct {
	Date       string `json:"Date"`
	Country    string `json:"Country"`
	App        string `json:"App"`
	Platform   string `json:"Platform"`
	AdNetwork  string `json:"Ad Network"`
	DailyUsers Metric `json:"Daily Users"`
}

// Metric is a numeric dataset value that may be missing or malformed.
type Metric struct {
	Value float64
	Valid bool
}

// NewMetric returns a valid metric.
func NewMetric(v float64) Metric {
	return Metric{Value: v, Valid: true}
}

// String formats the metric for display. Invalid metrics render blank.
func (m Metric) String() string {
	if !m.Valid {
		return ""
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}

// UnmarshalJSON accepts finite numbers and numeric strings. Anything else,
// including "NaN" and "Infinity", decodes to an invalid metric instead of
// failing the whole dataset.
func (m *Metric) UnmarshalJSON(data []byte) error {
	*m = Metric{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return nil
		}
		data = []byte(strings.TrimSpace(s))
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil || !isFinite(v) {
		return nil
	}
	*m = NewMetric(v)
	return nil
}

// MarshalJSON writes invalid and non-finite metrics as null.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid || !isFinite(m.Value) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(m.Value, 'g', -1, 64)), nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// PlotPoint is a record with its chart coordinates.
type PlotPoint struct {
	Record
	X string
	Y Metric
}

// Series is the per-category sequence of plot points.
type Series struct {
	ID     string
	Points []PlotPoint
}
