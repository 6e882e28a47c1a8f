package domain

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type PageRequest struct {
	PageNumber int
	PageSize   int
	Search     string
}

// Normalize applies defaults to non-positive values and clamps the size.
func (r PageRequest) Normalize() PageRequest {
	if r.PageNumber < 1 {
		r.PageNumber = 1
	}
	if r.PageSize < 1 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
	return r
}

// Offset is the number of items preceding the requested page.
func (r PageRequest) Offset() int { return (r.PageNumber - 1) * r.PageSize }

type PageResult[T any] struct {
	Items      []T `json:"items"`
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
	TotalCount int `json:"totalCount"`
}

func (p PageResult[T]) HasPrevious() bool { return p.PageNumber > 1 }
func (p PageResult[T]) HasNext() bool     { return p.PageNumber < p.TotalPages }

// TotalPages is ceil(count/size); zero when there is nothing to show.
func TotalPages(count, size int) int {
	if count <= 0 || size <= 0 {
		return 0
	}
	return (count + size - 1) / size
}
