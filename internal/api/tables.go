package api

import (
	"net/http"

	"github.com/meur/equicenter/internal/models"
	"github.com/meur/equicenter/internal/tableview"
)

// tablePage resolves rows against the q/sort/dir/page query parameters
func (s *Server) tablePage(r *http.Request, rows []tableview.Row, columns []tableview.Column) models.TablePage {
	view := tableview.New(rows, columns, tableview.Options{PageSize: s.pageSize})
	view.Apply(r.URL.Query())
	res := view.Resolve()
	state := view.State()

	page := models.TablePage{
		Rows:       make([]map[string]any, len(res.Rows)),
		TotalCount: res.Total,
		TotalPages: res.TotalPages,
		Page:       res.Page,
		PageSize:   res.PageSize,
		Query:      state.SearchQuery,
	}
	for i, row := range res.Rows {
		page.Rows[i] = row.Map()
	}
	if state.SortColumn != nil {
		page.Sort = state.SortColumn.Key
		page.Dir = string(state.SortDirection)
	}
	return page
}
