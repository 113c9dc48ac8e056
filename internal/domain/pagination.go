package domain

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

type Pagination struct {
	Page     int
	PageSize int
}

// NewPagination fills in the defaults for the values the caller left out.
func NewPagination(page, pageSize *int) Pagination {
	p := Pagination{Page: DefaultPage, PageSize: DefaultPageSize}

	if page != nil {
		p.Page = *page
	}

	if pageSize != nil {
		p.PageSize = *pageSize
	}

	return p
}

func (p Pagination) Limit() int {
	return p.PageSize
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}
