package pagination

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
)

// Params holds pagination, search and sort parameters extracted from a request.
type Params struct {
	Page    int
	PerPage int
	Search  string
	// Sort is the requested sort field without its direction prefix.
	Sort string
	Desc bool
}

// FromContext extracts pagination parameters from the echo context.
// Accepts page/per_page plus the legacy limit alias, search, and sort
// ("name" ascending, "-name" descending).
func FromContext(c echo.Context) Params {
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	if perPage <= 0 {
		perPage, _ = strconv.Atoi(c.QueryParam("limit"))
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	p := Params{
		Page:    page,
		PerPage: perPage,
		Search:  strings.TrimSpace(c.QueryParam("search")),
	}

	sort := strings.TrimSpace(c.QueryParam("sort"))
	if strings.HasPrefix(sort, "-") {
		p.Desc = true
		sort = sort[1:]
	}
	p.Sort = sort
	return p
}

// Limit returns the SQL LIMIT value.
func (p Params) Limit() int {
	return p.PerPage
}

// Offset returns the SQL OFFSET value.
func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// SQL returns the LIMIT and OFFSET clause for SQL queries.
func (p Params) SQL() string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", p.Limit(), p.Offset())
}

// OrderBy maps the requested sort field through allowed (request field ->
// column) and returns an ORDER BY expression. Unknown fields fall back to
// fallback so that no client input reaches the SQL text.
func (p Params) OrderBy(allowed map[string]string, fallback string) string {
	col, ok := allowed[p.Sort]
	if !ok {
		return fallback
	}
	if p.Desc {
		return col + " DESC"
	}
	return col + " ASC"
}

// Page is the paginated payload placed inside the success envelope.
type Page[T any] struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
	Data        []T `json:"data"`
}

// NewPage builds a Page from a result slice and the total row count.
func NewPage[T any](data []T, total int, p Params) *Page[T] {
	if data == nil {
		data = []T{}
	}
	return &Page[T]{
		CurrentPage: p.Page,
		PerPage:     p.PerPage,
		Total:       total,
		LastPage:    LastPage(total, p.PerPage),
		Data:        data,
	}
}

// LastPage returns the number of the last page; an empty result has one page.
func LastPage(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}
