package tableview

import (
	"net/url"
	"strconv"
	"strings"
)

// View owns one table's rows, columns and state. It is not safe for
// concurrent use; build one per request or guard it externally.
type View struct {
	rows    []Row
	columns []Column
	opts    Options
	state   State
}

// New returns a view on page 1 with no search and no sort.
func New(rows []Row, columns []Column, opts Options) *View {
	return &View{
		rows:    rows,
		columns: columns,
		opts:    opts,
		state: State{
			SortDirection: Asc,
			CurrentPage:   1,
		},
	}
}

// State returns a copy of the current state.
func (v *View) State() State {
	s := v.state
	if s.SortColumn != nil {
		c := *s.SortColumn
		s.SortColumn = &c
	}
	return s
}

func (v *View) Columns() []Column {
	return v.columns
}

// SetSearchQuery updates the query and returns to the first page.
func (v *View) SetSearchQuery(q string) {
	v.state.SearchQuery = q
	v.state.CurrentPage = 1
}

// ToggleSort sorts by column ascending, or flips the direction if the view is
// already sorted by a column with the same key. Unsortable columns are ignored.
func (v *View) ToggleSort(column Column) {
	if !column.Sortable() {
		return
	}
	if v.state.SortColumn != nil && v.state.SortColumn.Key == column.Key {
		if v.state.SortDirection == Asc {
			v.state.SortDirection = Desc
		} else {
			v.state.SortDirection = Asc
		}
		return
	}
	c := column
	v.state.SortColumn = &c
	v.state.SortDirection = Asc
}

// SetPage moves to page n, clamped into [1, TotalPages].
func (v *View) SetPage(n int) {
	pages := v.Resolve().TotalPages
	v.state.CurrentPage = clampPage(n, pages)
}

// SetRows replaces the data and pulls the current page back in range.
func (v *View) SetRows(rows []Row) {
	v.rows = rows
	v.SetPage(v.state.CurrentPage)
}

// Resolve computes the visible page for the current state.
func (v *View) Resolve() Result {
	return Resolve(v.rows, v.columns, v.state, v.opts)
}

// Apply runs the transitions encoded in query parameters: q (search), sort
// (column key), dir (asc|desc) and page. Unknown or unsortable sort keys are
// ignored, and an unparsable page means page 1.
func (v *View) Apply(values url.Values) {
	if values.Has("q") {
		v.SetSearchQuery(strings.TrimSpace(values.Get("q")))
	}
	if key := values.Get("sort"); key != "" {
		if col, ok := ColumnByKey(v.columns, key); ok && col.Sortable() {
			if v.state.SortColumn == nil || v.state.SortColumn.Key != key {
				v.ToggleSort(col)
			}
			if ParseDirection(values.Get("dir")) != v.state.SortDirection {
				v.ToggleSort(col)
			}
		}
	}
	page := 1
	if p, err := strconv.Atoi(values.Get("page")); err == nil {
		page = p
	}
	v.SetPage(page)
}
