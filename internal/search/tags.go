package search

import (
	"slices"

	"nimli/internal/domain"
)

// FilterTags returns the tags matching k ordered by clickedCount descending.
// Ties keep collection order.
func FilterTags(tags []domain.Tag, k Keywords) []domain.Tag {
	m := newMatcher(k)
	out := make([]domain.Tag, 0, len(tags))
	for _, t := range tags {
		if k.Empty() || m.match(Fold(t.DisplayName), Fold(t.TagName)) {
			out = append(out, t)
		}
	}
	sortTagsByClicks(out)
	return out
}

// SearchTags filters and paginates tags.
func SearchTags(tags []domain.Tag, k Keywords, offset, limit int) domain.TagSearchResult {
	return Paginate(FilterTags(tags, k), offset, limit)
}

// PopularTags is an unfiltered search truncated to limit.
func PopularTags(tags []domain.Tag, limit int) []domain.Tag {
	return Truncate(FilterTags(tags, Keywords{}), limit)
}

// TagsByIDs returns the tags named by ids in request order. Unknown and
// repeated ids are skipped.
func TagsByIDs(tags []domain.Tag, ids []string) []domain.Tag {
	index := make(map[string]int, len(tags))
	for i, t := range tags {
		index[t.ID] = i
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]domain.Tag, 0, len(ids))
	for _, id := range ids {
		i, ok := index[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, tags[i])
	}
	return out
}

func sortTagsByClicks(tags []domain.Tag) {
	slices.SortStableFunc(tags, func(a, b domain.Tag) int {
		return b.ClickedCount - a.ClickedCount
	})
}
