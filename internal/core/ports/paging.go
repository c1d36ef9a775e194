package ports

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPageNumber keeps Skip far from overflow; any page past it is empty.
	MaxPageNumber = 1_000_000
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Normalize applies the default size and the bounds on size and number.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Skip returns the number of rows preceding the page.
func (p Page) Skip() int64 {
	return int64(p.Number-1) * int64(p.Size)
}

// PageResult is one page of T plus the total row count.
type PageResult[T any] struct {
	Items      []T
	Total      int64
	Page       int
	Size       int
	TotalPages int
}

// NewPageResult builds a PageResult for a normalized page.
func NewPageResult[T any](items []T, total int64, p Page) *PageResult[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.Size > 0 {
		pages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}
	return &PageResult[T]{
		Items:      items,
		Total:      total,
		Page:       p.Number,
		Size:       p.Size,
		TotalPages: pages,
	}
}
