package models

// TablePage is the envelope returned by the admin table endpoints
type TablePage struct {
	Rows       []map[string]any `json:"rows"`
	TotalCount int              `json:"total_count"`
	TotalPages int              `json:"total_pages"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	Sort       string           `json:"sort,omitempty"`
	Dir        string           `json:"dir,omitempty"`
	Query      string           `json:"query,omitempty"`
}
