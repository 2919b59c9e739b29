package pagination

import (
	"strconv"

	"github.com/doug-martin/goqu/v9"
	"github.com/labstack/echo/v4"
)

const MaxLimit = 500

// TotalCountHeader carries the unpaged row count on list responses.
const TotalCountHeader = "X-Total-Count"

// Params holds optional pagination parameters extracted from a request.
// A zero Limit means the caller asked for every row.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts limit and offset query parameters from the echo
// context. Missing or malformed values fall back to an unbounded first page.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 0 {
		limit = 0
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// Bounded reports whether a limit was requested.
func (p Params) Bounded() bool {
	return p.Limit > 0
}

// Apply adds LIMIT and OFFSET to a goqu select when they were requested.
func (p Params) Apply(ds *goqu.SelectDataset) *goqu.SelectDataset {
	if p.Bounded() {
		ds = ds.Limit(uint(p.Limit))
	}
	if p.Offset > 0 {
		ds = ds.Offset(uint(p.Offset))
	}
	return ds
}

// Window slices an in-memory result the same way Apply bounds a query.
func Window[T any](items []T, p Params) []T {
	if p.Offset >= len(items) {
		return items[:0]
	}
	items = items[p.Offset:]
	if p.Bounded() && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

// SetTotal writes the unpaged count header.
func SetTotal(c echo.Context, total int) {
	c.Response().Header().Set(TotalCountHeader, strconv.Itoa(total))
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Bounded() && p.Offset+p.Limit < total
}
