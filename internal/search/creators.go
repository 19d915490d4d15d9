package search

import (
	"cmp"
	"slices"
	"strings"

	"nimli/internal/domain"
)

type scored struct {
	creator domain.Creator
	hits    int
}

// RankByTags returns active creators sharing at least one tag with tagIDs,
// ordered by the number of shared tags and then by viewCount, both
// descending. Remaining ties keep collection order.
func RankByTags(creators []domain.Creator, tagIDs []string) []domain.Creator {
	want := make(map[string]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		want[id] = struct{}{}
	}

	ranked := make([]scored, 0, len(creators))
	for _, c := range creators {
		if !c.IsActive {
			continue
		}
		if n := c.MatchingTagCount(want); n > 0 {
			ranked = append(ranked, scored{creator: c, hits: n})
		}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		if c := cmp.Compare(b.hits, a.hits); c != 0 {
			return c
		}
		return cmp.Compare(b.creator.ViewCount, a.creator.ViewCount)
	})

	out := make([]domain.Creator, len(ranked))
	for i, s := range ranked {
		out[i] = s.creator
	}
	return out
}

// SearchByTags ranks and paginates creators.
func SearchByTags(creators []domain.Creator, tagIDs []string, offset, limit int) domain.CreatorSearchResult {
	return Paginate(RankByTags(creators, tagIDs), offset, limit)
}

// PopularCreators returns active creators by viewCount descending,
// truncated to limit.
func PopularCreators(creators []domain.Creator, limit int) []domain.Creator {
	out := active(creators)
	slices.SortStableFunc(out, func(a, b domain.Creator) int {
		return cmp.Compare(b.ViewCount, a.ViewCount)
	})
	return Truncate(out, limit)
}

// SearchByName returns active creators whose name contains every query
// token, caseless, in collection order.
func SearchByName(creators []domain.Creator, tokens []string, offset, limit int) domain.CreatorSearchResult {
	m := newMatcher(Keywords{And: tokens})
	out := make([]domain.Creator, 0)
	for _, c := range creators {
		if c.IsActive && m.match(Fold(c.Name)) {
			out = append(out, c)
		}
	}
	return Paginate(out, offset, limit)
}

// Similar ranks the other active creators by tags shared with target.
func Similar(creators []domain.Creator, target domain.Creator, limit int) []domain.Creator {
	others := make([]domain.Creator, 0, len(creators))
	for _, c := range creators {
		if c.ID != target.ID {
			others = append(others, c)
		}
	}
	return Truncate(RankByTags(others, target.RelatedTag), limit)
}

// FindCreator looks up an active or inactive creator by id.
func FindCreator(creators []domain.Creator, id string) (domain.Creator, bool) {
	id = strings.TrimSpace(id)
	i := slices.IndexFunc(creators, func(c domain.Creator) bool { return c.ID == id })
	if i < 0 {
		return domain.Creator{}, false
	}
	return creators[i], true
}

func active(creators []domain.Creator) []domain.Creator {
	out := make([]domain.Creator, 0, len(creators))
	for _, c := range creators {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out
}
