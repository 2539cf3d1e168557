package service

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page 页码从 1 开始
type Page struct {
	Page  int
	Limit int
}

func (p Page) normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 || p.Limit > MaxPageSize {
		p.Limit = DefaultPageSize
	}
	return p
}

func (p Page) offset() int { return (p.Page - 1) * p.Limit }

type Paged[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

func newPaged[T any](items []T, total int64, p Page) Paged[T] {
	if items == nil {
		items = []T{}
	}
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Paged[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit, TotalPages: pages}
}
