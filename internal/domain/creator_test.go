package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCreator_MatchingTagCount(t *testing.T) {
	c := Creator{RelatedTag: []string{"tag_002", "tag_003", "tag_002", "tag_001"}}
	want := map[string]struct{}{"tag_002": {}, "tag_003": {}, "tag_009": {}}

	assert.Equal(t, 2, c.MatchingTagCount(want))
	assert.Zero(t, c.MatchingTagCount(nil))
	assert.True(t, c.HasTag("tag_001"))
	assert.False(t, c.HasTag("tag_009"))
}

func TestCreator_WithViewCountCopies(t *testing.T) {
	orig := Creator{
		ID:         "c001",
		ViewCount:  10,
		RelatedTag: []string{"tag_001"},
		Platform:   map[Platform]string{PlatformX: "https://x.com/a"},
	}
	at := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	got := orig.WithViewCount(11, at)
	got.RelatedTag[0] = "changed"
	got.Platform[PlatformX] = "changed"

	assert.Equal(t, 10, orig.ViewCount)
	assert.Equal(t, 11, got.ViewCount)
	assert.Equal(t, at, got.UpdatedAt)
	assert.Equal(t, "tag_001", orig.RelatedTag[0])
	assert.Equal(t, "https://x.com/a", orig.Platform[PlatformX])
}

func TestFieldType(t *testing.T) {
	assert.True(t, FieldWebsite.IsLink())
	assert.True(t, FieldYouTube.IsLink())
	assert.False(t, FieldName.IsLink())
	assert.True(t, FieldTags.Valid())
	assert.False(t, FieldType("phone").Valid())
	assert.True(t, ApplicationRemove.Valid())
	assert.False(t, ApplicationType("replace").Valid())
}
