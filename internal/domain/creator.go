// Package domain holds the catalogue entities shared by every layer.
package domain

import (
	"slices"
	"time"
)

// Platform identifies a streaming or social platform a creator is active on.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformTwitch    Platform = "twitch"
	PlatformNiconico  Platform = "niconico"
	PlatformX         Platform = "x"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{
	PlatformYouTube, PlatformTwitch, PlatformNiconico,
	PlatformX, PlatformInstagram, PlatformTikTok,
}

// Creator is a content producer in the catalogue. Values are immutable once
// built; use the With* helpers to derive updated copies.
type Creator struct {
	ID                   string               `json:"id" yaml:"id"`
	Name                 string               `json:"name" yaml:"name"`
	ThumbnailURL         string               `json:"thumbnailUrl" yaml:"thumbnailUrl"`
	ViewCount            int                  `json:"viewCount" yaml:"viewCount"`
	SocialLinkClickCount int                  `json:"socialLinkClickCount" yaml:"socialLinkClickCount"`
	PlatformClickRatio   map[Platform]float64 `json:"platformClickRatio,omitempty" yaml:"platformClickRatio"`
	RelatedTag           []string             `json:"relatedTag" yaml:"relatedTag"`
	Description          string               `json:"description,omitempty" yaml:"description"`
	Platform             map[Platform]string  `json:"platform,omitempty" yaml:"platform"`
	CreatedAt            time.Time            `json:"createdAt" yaml:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt" yaml:"updatedAt"`
	IsActive             bool                 `json:"isActive" yaml:"isActive"`
}

// HasTag reports whether the creator is related to tagID.
func (c Creator) HasTag(tagID string) bool {
	return slices.Contains(c.RelatedTag, tagID)
}

// MatchingTagCount returns how many of the given tag ids the creator carries.
// Duplicates in tagIDs are counted once.
func (c Creator) MatchingTagCount(tagIDs map[string]struct{}) int {
	n := 0
	seen := make(map[string]struct{}, len(c.RelatedTag))
	for _, id := range c.RelatedTag {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := tagIDs[id]; ok {
			n++
		}
	}
	return n
}

// WithViewCount returns a copy of the creator with a new view count.
func (c Creator) WithViewCount(n int, at time.Time) Creator {
	out := c.clone()
	out.ViewCount = n
	out.UpdatedAt = at
	return out
}

func (c Creator) clone() Creator {
	out := c
	out.RelatedTag = slices.Clone(c.RelatedTag)
	if c.PlatformClickRatio != nil {
		out.PlatformClickRatio = make(map[Platform]float64, len(c.PlatformClickRatio))
		for k, v := range c.PlatformClickRatio {
			out.PlatformClickRatio[k] = v
		}
	}
	if c.Platform != nil {
		out.Platform = make(map[Platform]string, len(c.Platform))
		for k, v := range c.Platform {
			out.Platform[k] = v
		}
	}
	return out
}
