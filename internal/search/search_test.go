package search_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nimli/internal/adapter/fixture"
	"nimli/internal/domain"
	"nimli/internal/search"
)

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}

func tagIDs(tags []domain.Tag) []string {
	return ids(tags, func(t domain.Tag) string { return t.ID })
}

func creatorIDs(cs []domain.Creator) []string {
	return ids(cs, func(c domain.Creator) string { return c.ID })
}

func TestPaginate_Invariant(t *testing.T) {
	for n := 0; n <= 7; n++ {
		items := make([]int, n)
		for i := range items {
			items[i] = i
		}
		for offset := 0; offset <= n+2; offset++ {
			for limit := 0; limit <= n+2; limit++ {
				t.Run(fmt.Sprintf("n%d_o%d_l%d", n, offset, limit), func(t *testing.T) {
					page := search.Paginate(items, offset, limit)

					want := max(0, min(limit, n-offset))
					assert.Len(t, page.Items, want)
					assert.Equal(t, n, page.TotalCount)
					assert.Equal(t, offset+len(page.Items) < n, page.HasMore)
					if want > 0 {
						assert.Equal(t, offset, page.Items[0])
					}
				})
			}
		}
	}
}

func TestPaginate_PastEnd(t *testing.T) {
	page := search.Paginate([]string{"a", "b"}, 5, 10)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
	assert.Equal(t, 2, page.TotalCount)
}

func TestPaginate_DoesNotAlias(t *testing.T) {
	src := []string{"a", "b", "c"}
	page := search.Paginate(src, 0, 2)
	page.Items[0] = "z"
	assert.Equal(t, "a", src[0])
}

func TestFilterTags_AndOr(t *testing.T) {
	tags := fixture.MustLoad().Tags()

	tests := []struct {
		name string
		k    search.Keywords
		want []string
	}{
		{"and only", search.Keywords{And: []string{"ゲーム"}}, []string{"tag_001"}},
		{"case insensitive", search.Keywords{And: []string{"Fps"}}, []string{"tag_002"}},
		{"display name upper", search.Keywords{And: []string{"valorant"}}, []string{"tag_003"}},
		{"or any", search.Keywords{Or: []string{"fps", "apex"}}, []string{"tag_002", "tag_004"}},
		{"and with or", search.Keywords{And: []string{"a"}, Or: []string{"legends", "valo"}}, []string{"tag_003", "tag_004"}},
		{"and all tokens", search.Keywords{And: []string{"apex", "legends"}}, []string{"tag_004"}},
		{"and misses", search.Keywords{And: []string{"apex", "valorant"}}, []string{}},
		{"substring of tag name", search.Keywords{And: []string{"craf"}}, []string{"tag_007"}},
		{"blank tokens ignored", search.Keywords{And: []string{" ", "rpg"}}, []string{"tag_012"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tagIDs(search.FilterTags(tags, tt.k)))
		})
	}
}

func TestFilterTags_Predicate(t *testing.T) {
	tags := fixture.MustLoad().Tags()
	and := []string{"e"}
	or := []string{"r", "ー"}

	got := make(map[string]bool)
	for _, tg := range search.FilterTags(tags, search.Keywords{And: and, Or: or}) {
		got[tg.ID] = true
	}

	contains := func(tg domain.Tag, tok string) bool {
		return strings.Contains(strings.ToLower(tg.DisplayName), tok) || strings.Contains(strings.ToLower(tg.TagName), tok)
	}
	for _, tg := range tags {
		wantAnd := contains(tg, "e")
		wantOr := contains(tg, "r") || contains(tg, "ー")
		assert.Equal(t, wantAnd && wantOr, got[tg.ID], tg.ID)
	}
}

func TestFilterTags_EmptyReturnsAllByClicks(t *testing.T) {
	tags := fixture.MustLoad().Tags()
	got := search.FilterTags(tags, search.Keywords{})

	require.Len(t, got, len(tags))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].ClickedCount, got[i].ClickedCount)
	}
	assert.Equal(t, []string{"tag_008", "tag_009"}, tagIDs(got[7:9]))
}

func TestSearchTags_NoFilterFirstPage(t *testing.T) {
	page := search.SearchTags(fixture.MustLoad().Tags(), search.Keywords{}, 0, 5)

	assert.Equal(t, []string{"tag_001", "tag_002", "tag_003", "tag_004", "tag_005"}, tagIDs(page.Items))
	assert.Equal(t, 14, page.TotalCount)
	assert.True(t, page.HasMore)
	assert.Equal(t, []int{1500, 1200, 980, 870, 760},
		[]int{page.Items[0].ClickedCount, page.Items[1].ClickedCount, page.Items[2].ClickedCount,
			page.Items[3].ClickedCount, page.Items[4].ClickedCount})
}

func TestSearchTags_LastPage(t *testing.T) {
	page := search.SearchTags(fixture.MustLoad().Tags(), search.Keywords{}, 10, 5)
	assert.Equal(t, []string{"tag_011", "tag_012", "tag_013", "tag_014"}, tagIDs(page.Items))
	assert.False(t, page.HasMore)
}

func TestPopularTags(t *testing.T) {
	tags := fixture.MustLoad().Tags()
	assert.Equal(t, []string{"tag_001", "tag_002", "tag_003"}, tagIDs(search.PopularTags(tags, 3)))
	assert.Len(t, search.PopularTags(tags, 100), 14)
	assert.Empty(t, search.PopularTags(tags, 0))
}

func TestTagsByIDs(t *testing.T) {
	tags := fixture.MustLoad().Tags()
	got := search.TagsByIDs(tags, []string{"tag_005", "missing", "tag_001", "tag_005"})
	assert.Equal(t, []string{"tag_005", "tag_001"}, tagIDs(got))
}

func TestRankByTags(t *testing.T) {
	creators := fixture.MustLoad().Creators()
	fps, valorant := "tag_002", "tag_003"

	got := search.RankByTags(creators, []string{fps, valorant})
	assert.Equal(t, []string{"c001", "c006", "c002", "c003"}, creatorIDs(got))

	want := map[string]struct{}{fps: {}, valorant: {}}
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1].MatchingTagCount(want), got[i].MatchingTagCount(want)
		assert.GreaterOrEqual(t, prev, cur)
		if prev == cur {
			assert.GreaterOrEqual(t, got[i-1].ViewCount, got[i].ViewCount)
		}
	}
	for _, c := range got {
		assert.True(t, c.IsActive, c.ID)
		assert.NotEqual(t, "c004", c.ID)
	}
}

func TestRankByTags_NoIntersection(t *testing.T) {
	creators := fixture.MustLoad().Creators()
	assert.Empty(t, search.RankByTags(creators, []string{"tag_014"}))
	assert.Empty(t, search.RankByTags(creators, nil))
}

func TestSearchByTags_Paginates(t *testing.T) {
	creators := fixture.MustLoad().Creators()
	page := search.SearchByTags(creators, []string{"tag_002", "tag_003"}, 1, 2)

	assert.Equal(t, []string{"c006", "c002"}, creatorIDs(page.Items))
	assert.Equal(t, 4, page.TotalCount)
	assert.True(t, page.HasMore)
}

func TestPopularCreators(t *testing.T) {
	creators := fixture.MustLoad().Creators()
	got := search.PopularCreators(creators, 3)
	assert.Equal(t, []string{"c002", "c001", "c005"}, creatorIDs(got))
}

func TestSearchByName(t *testing.T) {
	creators := fixture.MustLoad().Creators()

	page := search.SearchByName(creators, []string{"apex"}, 0, 10)
	assert.Equal(t, []string{"c002"}, creatorIDs(page.Items))

	page = search.SearchByName(creators, []string{"FPS"}, 0, 10)
	assert.Empty(t, page.Items, "inactive creators are excluded")
}

func TestSimilar(t *testing.T) {
	creators := fixture.MustLoad().Creators()
	target, ok := search.FindCreator(creators, "c001")
	require.True(t, ok)

	got := search.Similar(creators, target, 10)
	assert.Equal(t, []string{"c006", "c002", "c003"}, creatorIDs(got))

	_, ok = search.FindCreator(creators, "nope")
	assert.False(t, ok)
}
