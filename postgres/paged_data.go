package postgres

// PagedData is returned from the Paged method.
// It contains paged database records and pagination metadata.
//
// Page counts from 1.
type PagedData struct {
	Items      any   `json:"items"`
	Page       int64 `json:"page"`
	PerPage    int64 `json:"perPage"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int64 `json:"totalPages"`
}

// Next is the number of the page after this one, or nil on the last page.
func (pd PagedData) Next() *int64 {
	if pd.Page >= pd.TotalPages {
		return nil
	}

	n := pd.Page + 1
	return &n
}

// Previous is the number of the page before this one, or nil on the first page.
// Past the last page, Previous is the last page.
func (pd PagedData) Previous() *int64 {
	if pd.Page <= 1 || pd.TotalPages == 0 {
		return nil
	}

	p := min(pd.Page-1, pd.TotalPages)
	return &p
}
