package analytics

import "github.com/verte-zerg/usagechart/internal/model"

// PageSize is the number of table rows per page.
const PageSize = 10

// pagerThreshold is the row count above which the pager is shown.
const pagerThreshold = 9

// Page is one table page of a series.
type Page struct {
	Index     int
	Count     int
	Rows      []model.PlotPoint
	HasPrev   bool
	HasNext   bool
	ShowPager bool
}

// PageCount returns ceil(n / PageSize).
func PageCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + PageSize - 1) / PageSize
}

// ClampPage moves page into [0, PageCount(n)-1], or 0 for an empty series.
func ClampPage(page, n int) int {
	count := PageCount(n)
	if page >= count {
		page = count - 1
	}
	if page < 0 {
		page = 0
	}
	return page
}

// Paginate slices points for the given page. The page is clamped first.
func Paginate(points []model.PlotPoint, page int) Page {
	page = ClampPage(page, len(points))
	count := PageCount(len(points))
	start := page * PageSize
	end := start + PageSize
	if start > len(points) {
		start = len(points)
	}
	if end > len(points) {
		end = len(points)
	}
	return Page{
		Index:     page,
		Count:     count,
		Rows:      points[start:end],
		HasPrev:   page > 0,
		HasNext:   page < count-1,
		ShowPager: len(points) > pagerThreshold,
	}
}
