package search

import "nimli/internal/domain"

// Paginate returns items[offset : offset+limit] as a page. Negative bounds
// are treated as zero and the input is never aliased.
func Paginate[T any](items []T, offset, limit int) domain.Page[T] {
	total := len(items)
	offset = max(offset, 0)
	limit = max(limit, 0)

	if offset >= total {
		return domain.Page[T]{Items: []T{}, TotalCount: total}
	}
	end := min(offset+limit, total)
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return domain.Page[T]{
		Items:      out,
		TotalCount: total,
		HasMore:    end < total,
	}
}

// Truncate returns at most limit leading items.
func Truncate[T any](items []T, limit int) []T {
	limit = max(limit, 0)
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
