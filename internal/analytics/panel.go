package analytics

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/verte-zerg/usagechart/internal/model"
)

// NoSelection marks a panel without an active category.
const NoSelection = -1

const (
	// DefaultTargetColor is the initial target line color.
	DefaultTargetColor = "#000000"
	// LeftAxisLabel labels the metric axis.
	LeftAxisLabel = "Daily User"
	// BottomAxisLabel labels the date axis.
	BottomAxisLabel = "Date"
	// TargetWidthFrac is the share of the plot width the target line spans.
	TargetWidthFrac = 0.91
)

var (
	// ErrCategoryOutOfRange is returned for a category index outside the dataset.
	ErrCategoryOutOfRange = errors.New("category index out of range")
	// ErrUnknownCategory is returned when selecting a category name not in the dataset.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrInvalidTarget is returned for non-numeric or non-finite target values.
	ErrInvalidTarget = errors.New("invalid target value")
)

// TargetLine is the horizontal reference overlay.
type TargetLine struct {
	Value     float64
	Color     string
	WidthFrac float64
}

// ChartSpec is everything a line renderer needs for the selected series.
type ChartSpec struct {
	Series       model.Series
	LeftAxis     string
	BottomAxis   string
	PointMarkers bool
	Legend       bool
	Target       TargetLine
}

// View is the composed panel output for one render.
type View struct {
	Categories []string
	Selected   int
	Range      DateRange
	Series     model.Series
	Chart      ChartSpec
	Page       Page
}

// HasSelection reports whether a category is active.
func (v View) HasSelection() bool {
	return v.Selected != NoSelection
}

// Panel owns the panel state over an immutable dataset.
type Panel struct {
	records    []model.Record
	categories []string

	selected    int
	rng         DateRange
	target      float64
	targetColor string
	page        int
}

// NewPanel constructs a panel over records. The first category is selected
// when the dataset is non-empty.
func NewPanel(records []model.Record) *Panel {
	p := &Panel{
		records:     records,
		categories:  Categories(records),
		selected:    NoSelection,
		targetColor: DefaultTargetColor,
	}
	if len(p.categories) > 0 {
		p.selected = 0
	}
	return p
}

// Categories returns the category names in first-seen order.
func (p *Panel) Categories() []string {
	return append([]string(nil), p.categories...)
}

// Selected returns the selected category index or NoSelection.
func (p *Panel) Selected() int {
	return p.selected
}

// SelectCategory selects a category by index. An out-of-range index clears
// the selection and returns ErrCategoryOutOfRange.
func (p *Panel) SelectCategory(idx int) error {
	if idx < 0 || idx >= len(p.categories) {
		p.selected = NoSelection
		return fmt.Errorf("%w: %d (have %d)", ErrCategoryOutOfRange, idx, len(p.categories))
	}
	p.selected = idx
	return nil
}

// SelectCategoryName selects a category by its App value.
func (p *Panel) SelectCategoryName(name string) error {
	for i, cat := range p.categories {
		if cat == name {
			p.selected = i
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// MoveCategory shifts the selection by delta, wrapping at both ends.
func (p *Panel) MoveCategory(delta int) {
	count := len(p.categories)
	if count == 0 {
		return
	}
	next := p.selected + delta
	if p.selected == NoSelection {
		next = 0
	}
	next %= count
	if next < 0 {
		next += count
	}
	p.selected = next
}

// SetStartDate sets the range start. The value is not validated.
func (p *Panel) SetStartDate(s string) {
	p.rng.Start = s
}

// SetEndDate sets the range end. The value is not validated.
func (p *Panel) SetEndDate(s string) {
	p.rng.End = s
}

// Range returns the current date range.
func (p *Panel) Range() DateRange {
	return p.rng
}

// SetTarget sets the target line value. Non-finite values are rejected.
func (p *Panel) SetTarget(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrInvalidTarget
	}
	p.target = v
	return nil
}

// Target returns the target line value.
func (p *Panel) Target() float64 {
	return p.target
}

// SetTargetColor sets the target line color. Renderers interpret the value.
func (p *Panel) SetTargetColor(c string) {
	p.targetColor = c
}

// TargetColor returns the target line color.
func (p *Panel) TargetColor() string {
	return p.targetColor
}

// ParseTarget parses target input text. Empty input means 0.
func ParseTarget(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTarget, s)
	}
	return v, nil
}

// PageIndex returns the current table page.
func (p *Panel) PageIndex() int {
	return p.page
}

// SetPage jumps to a page; it is clamped on the next View.
func (p *Panel) SetPage(page int) {
	p.page = page
}

// NextPage advances one page unless already on the last one.
func (p *Panel) NextPage() bool {
	pg := Paginate(p.currentSeries().Points, p.page)
	if !pg.HasNext {
		p.page = pg.Index
		return false
	}
	p.page = pg.Index + 1
	return true
}

// PrevPage goes back one page unless already on the first one.
func (p *Panel) PrevPage() bool {
	pg := Paginate(p.currentSeries().Points, p.page)
	if !pg.HasPrev {
		p.page = pg.Index
		return false
	}
	p.page = pg.Index - 1
	return true
}

// View recomputes the selected series and composes the chart and table.
// The page index is clamped into the new series' range.
func (p *Panel) View() View {
	series := p.currentSeries()
	pg := Paginate(series.Points, p.page)
	p.page = pg.Index
	return View{
		Categories: p.Categories(),
		Selected:   p.selected,
		Range:      p.rng,
		Series:     series,
		Chart: ChartSpec{
			Series:       series,
			LeftAxis:     LeftAxisLabel,
			BottomAxis:   BottomAxisLabel,
			PointMarkers: true,
			Legend:       true,
			Target: TargetLine{
				Value:     p.target,
				Color:     p.targetColor,
				WidthFrac: TargetWidthFrac,
			},
		},
		Page: pg,
	}
}

func (p *Panel) currentSeries() model.Series {
	if p.selected == NoSelection || p.selected >= len(p.categories) {
		return model.Series{}
	}
	return BuildCategorySeries(p.records, p.categories[p.selected], p.rng)
}
