package pagination

import "math"

// Defaults applied when a request does not specify page or limit.
const (
	DefaultPage  = 1
	DefaultLimit = 12
	MaxLimit     = 100
)

// Page is the pagination block returned with every paginated read.
type Page struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	Limit       int   `json:"limit"`
}

// MaxPage returns the largest page whose end offset still fits in an int.
func MaxPage(limit int) int {
	if limit < 1 {
		return math.MaxInt
	}
	return math.MaxInt / limit
}

// Offset returns the number of records to skip for a 1-based page. Pages
// beyond MaxPage saturate at math.MaxInt-limit, which is past any real
// result set.
func Offset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	if page > MaxPage(limit) {
		return math.MaxInt - limit
	}
	return (page - 1) * limit
}

// New builds the pagination block for the given page, limit and total count.
// page and limit must be positive.
func New(page, limit int, totalCount int64) Page {
	totalPages := int(totalCount / int64(limit))
	if totalCount%int64(limit) > 0 {
		totalPages++
	}

	return Page{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  totalCount,
		HasNextPage: page <= MaxPage(limit) && int64(page)*int64(limit) < totalCount,
		HasPrevPage: page > 1,
		Limit:       limit,
	}
}

// Window returns the [start, end) slice bounds of a page within total items.
// Bounds are clamped so a page past the end yields an empty window.
func Window(page, limit, total int) (start, end int) {
	start = Offset(page, limit)
	if start > total {
		start = total
	}
	end = start + limit
	if end > total {
		end = total
	}
	return start, end
}
