// Package tableview computes filtered, sorted and paginated views over an
// in-memory row collection.
//
// Resolve is a pure function of its inputs. View wraps it with the state
// transitions a data table needs (search, sort toggle, page change) and keeps
// the current page inside the result bounds.
package tableview

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultPageSize is used when Options.PageSize is not positive.
const DefaultPageSize = 10

// Row is one record in the table. ID is a stable display key only.
type Row struct {
	ID     string
	Fields map[string]any
}

// Map flattens the row into a JSON-friendly map, with the id under "id".
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		m[k] = v
	}
	if r.ID != "" {
		m["id"] = r.ID
	}
	return m
}

// Column describes how to extract, display and sort one field.
type Column struct {
	Key   string
	Label string
	// Accessor, when set, replaces the direct Fields[Key] lookup.
	Accessor func(Row) any
	// Render, when set, is used for display and search only. Sorting always
	// uses Value.
	Render      func(Row) any
	DisableSort bool
}

// Sortable reports whether the column can be used as a sort column.
func (c Column) Sortable() bool {
	return !c.DisableSort
}

// Value returns the column's raw value for r.
func (c Column) Value(r Row) any {
	if c.Accessor != nil {
		return c.Accessor(r)
	}
	return r.Fields[c.Key]
}

// Display returns the string shown (and searched) for r.
func (c Column) Display(r Row) string {
	var v any
	if c.Render != nil {
		v = c.Render(r)
	} else {
		v = c.Value(r)
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// ColumnByKey finds the column with the given key.
func ColumnByKey(columns []Column, key string) (Column, bool) {
	for _, c := range columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection maps "desc" (any case) to Desc and everything else to Asc.
func ParseDirection(s string) Direction {
	if strings.EqualFold(s, string(Desc)) {
		return Desc
	}
	return Asc
}

// State is the transient view state.
type State struct {
	SearchQuery   string
	SortColumn    *Column
	SortDirection Direction
	CurrentPage   int
}

// Options configure resolution.
type Options struct {
	PageSize      int
	DisableSearch bool
}

func (o Options) pageSize() int {
	if o.PageSize <= 0 {
		return DefaultPageSize
	}
	return o.PageSize
}

// Result is one resolved page.
type Result struct {
	Rows       []Row
	Total      int
	TotalPages int
	Page       int
	PageSize   int
}

// Resolve filters, sorts and paginates rows. It never modifies rows or
// columns.
func Resolve(rows []Row, columns []Column, state State, opts Options) Result {
	matched := filterRows(rows, columns, state.SearchQuery, opts.DisableSearch)
	ordered := sortRows(matched, state.SortColumn, state.SortDirection)
	return paginate(ordered, state.CurrentPage, opts.pageSize())
}

func filterRows(rows []Row, columns []Column, query string, disabled bool) []Row {
	if disabled || query == "" {
		return rows
	}
	needle := strings.ToLower(query)
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		for _, c := range columns {
			if strings.Contains(strings.ToLower(c.Display(r)), needle) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func sortRows(rows []Row, column *Column, dir Direction) []Row {
	if column == nil {
		return rows
	}
	out := slices.Clone(rows)
	col := *column
	slices.SortStableFunc(out, func(a, b Row) int {
		c := Compare(col.Value(a), col.Value(b))
		if dir == Desc {
			return -c
		}
		return c
	})
	return out
}

// TotalPages is ceil(total/pageSize) with a minimum of one page.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

func clampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

func paginate(rows []Row, page, pageSize int) Result {
	total := len(rows)
	pages := TotalPages(total, pageSize)
	page = clampPage(page, pages)

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	visible := []Row{}
	if start < end {
		visible = slices.Clone(rows[start:end])
	}
	return Result{
		Rows:       visible,
		Total:      total,
		TotalPages: pages,
		Page:       page,
		PageSize:   pageSize,
	}
}
