// Package api adapts the backend REST service to the repository ports.
package api

import (
	"strings"
	"time"

	"nimli/internal/domain"
	"nimli/internal/search"
)

// envelope is the backend's list/detail wrapper.
type envelope[T any] struct {
	Data       T     `json:"data"`
	TotalCount *int  `json:"totalCount,omitempty"`
	HasMore    *bool `json:"hasMore,omitempty"`
}

// timestamp is the backend's serialized timestamp.
type timestamp struct {
	Seconds     int64 `json:"_seconds"`
	Nanoseconds int64 `json:"_nanoseconds"`
}

func (t timestamp) Time() time.Time {
	if t.Seconds == 0 && t.Nanoseconds == 0 {
		return time.Time{}
	}
	return time.Unix(t.Seconds, t.Nanoseconds).UTC()
}

func fromTime(t time.Time) timestamp {
	if t.IsZero() {
		return timestamp{}
	}
	return timestamp{Seconds: t.Unix(), Nanoseconds: int64(t.Nanosecond())}
}

type youtubeDTO struct {
	ChannelID string `json:"channelId,omitempty"`
	Username  string `json:"username,omitempty"`
}

type accountDTO struct {
	Username  string `json:"username,omitempty"`
	ChannelID string `json:"channelId,omitempty"`
}

type creatorDTO struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name"`
	ThumbnailURL         string             `json:"thumbnailUrl"`
	ViewCount            int                `json:"viewCount"`
	SocialLinkClickCount int                `json:"socialLinkClickCount"`
	PlatformClickRatio   map[string]float64 `json:"platformClickRatio"`
	RelatedTag           []string           `json:"relatedTag"`
	Description          string             `json:"description"`
	YouTube              *youtubeDTO        `json:"youtube"`
	Twitch               *accountDTO        `json:"twitch"`
	Niconico             *accountDTO        `json:"niconico"`
	X                    *accountDTO        `json:"x"`
	Instagram            *accountDTO        `json:"instagram"`
	TikTok               *accountDTO        `json:"tiktok"`
	CreatedAt            timestamp          `json:"createdAt"`
	UpdatedAt            timestamp          `json:"updatedAt"`
	IsActive             *bool              `json:"isActive"`
}

func handle(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "@")
}

// platformURLs builds profile links from account handles. Accounts without
// a usable handle are skipped.
func (d creatorDTO) platformURLs() map[domain.Platform]string {
	out := make(map[domain.Platform]string)
	if yt := d.YouTube; yt != nil {
		switch {
		case strings.TrimSpace(yt.ChannelID) != "":
			out[domain.PlatformYouTube] = "https://www.youtube.com/channel/" + strings.TrimSpace(yt.ChannelID)
		case handle(yt.Username) != "":
			out[domain.PlatformYouTube] = "https://www.youtube.com/@" + handle(yt.Username)
		}
	}
	add := func(p domain.Platform, a *accountDTO, prefix string, useChannel bool) {
		if a == nil {
			return
		}
		h := handle(a.Username)
		if useChannel && strings.TrimSpace(a.ChannelID) != "" {
			h = strings.TrimSpace(a.ChannelID)
		}
		if h != "" {
			out[p] = prefix + h
		}
	}
	add(domain.PlatformTwitch, d.Twitch, "https://www.twitch.tv/", false)
	add(domain.PlatformNiconico, d.Niconico, "https://www.nicovideo.jp/user/", true)
	add(domain.PlatformX, d.X, "https://x.com/", false)
	add(domain.PlatformInstagram, d.Instagram, "https://www.instagram.com/", false)
	add(domain.PlatformTikTok, d.TikTok, "https://www.tiktok.com/@", false)
	if len(out) == 0 {
		return nil
	}
	return out
}

func (d creatorDTO) toDomain() domain.Creator {
	var ratio map[domain.Platform]float64
	if len(d.PlatformClickRatio) > 0 {
		ratio = make(map[domain.Platform]float64, len(d.PlatformClickRatio))
		for k, v := range d.PlatformClickRatio {
			ratio[domain.Platform(k)] = v
		}
	}
	active := true
	if d.IsActive != nil {
		active = *d.IsActive
	}
	return domain.Creator{
		ID:                   d.ID,
		Name:                 d.Name,
		ThumbnailURL:         d.ThumbnailURL,
		ViewCount:            max(d.ViewCount, 0),
		SocialLinkClickCount: max(d.SocialLinkClickCount, 0),
		PlatformClickRatio:   ratio,
		RelatedTag:           d.RelatedTag,
		Description:          d.Description,
		Platform:             d.platformURLs(),
		CreatedAt:            d.CreatedAt.Time(),
		UpdatedAt:            d.UpdatedAt.Time(),
		IsActive:             active,
	}
}

type tagDTO struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"displayName"`
	TagName      string    `json:"tagName"`
	ClickedCount int       `json:"clickedCount"`
	CreatedAt    timestamp `json:"createdAt"`
	UpdatedAt    timestamp `json:"updatedAt"`
	ParentTagID  string    `json:"parentTagId"`
	ChildTagIDs  []string  `json:"childTagIds"`
}

func (d tagDTO) toDomain() domain.Tag {
	name := d.TagName
	if name == "" {
		name = strings.ToLower(d.DisplayName)
	}
	return domain.Tag{
		ID:           d.ID,
		DisplayName:  d.DisplayName,
		TagName:      name,
		ClickedCount: max(d.ClickedCount, 0),
		CreatedAt:    d.CreatedAt.Time(),
		UpdatedAt:    d.UpdatedAt.Time(),
		ParentTagID:  d.ParentTagID,
		ChildTagIDs:  d.ChildTagIDs,
	}
}

func mapSlice[D any, T any](in []D, f func(D) T) []T {
	out := make([]T, len(in))
	for i, d := range in {
		out[i] = f(d)
	}
	return out
}

// toPage maps a backend page, dropping items keep rejects and capping it at
// limit.
func toPage[D any, T any](env envelope[[]D], offset, limit int, f func(D) T, keep func(T) bool) domain.Page[T] {
	items := make([]T, 0, len(env.Data))
	dropped := 0
	for _, d := range env.Data {
		it := f(d)
		if keep != nil && !keep(it) {
			dropped++
			continue
		}
		items = append(items, it)
	}

	total := offset + len(items)
	if env.TotalCount != nil {
		total = max(*env.TotalCount-dropped, total)
	}
	items = search.Truncate(items, limit)

	p := domain.Page[T]{Items: items, TotalCount: total}
	p.HasMore = offset+len(items) < total
	if env.HasMore != nil {
		p.HasMore = p.HasMore || *env.HasMore
	}
	return p
}

func isActive(c domain.Creator) bool { return c.IsActive }

type tagApplicationDTO struct {
	ID              string    `json:"id,omitempty"`
	CreatorID       string    `json:"creatorId"`
	TagName         string    `json:"tagName"`
	ApplicationType string    `json:"applicationType"`
	Reason          string    `json:"reason,omitempty"`
	Status          string    `json:"status,omitempty"`
	RequestedBy     string    `json:"requestedBy,omitempty"`
	CreatedAt       timestamp `json:"createdAt"`
}

func fromTagApplication(a domain.TagApplication) tagApplicationDTO {
	return tagApplicationDTO{
		ID:              a.ID,
		CreatorID:       a.CreatorID,
		TagName:         a.TagName,
		ApplicationType: string(a.ApplicationType),
		Reason:          a.Reason,
		Status:          string(a.Status),
		RequestedBy:     a.RequestedBy,
		CreatedAt:       fromTime(a.CreatedAt),
	}
}

func (d tagApplicationDTO) toDomain() domain.TagApplication {
	return domain.TagApplication{
		ID:              d.ID,
		CreatorID:       d.CreatorID,
		TagName:         d.TagName,
		ApplicationType: domain.ApplicationType(d.ApplicationType),
		Reason:          d.Reason,
		Status:          domain.SubmissionStatus(d.Status),
		RequestedBy:     d.RequestedBy,
		CreatedAt:       d.CreatedAt.Time(),
	}
}

type correctionRequestDTO struct {
	ID           string                  `json:"id,omitempty"`
	CreatorID    string                  `json:"creatorId"`
	Items        []domain.CorrectionItem `json:"correctionItems"`
	Reason       string                  `json:"reason"`
	ReferenceURL string                  `json:"referenceUrl,omitempty"`
	Status       string                  `json:"status,omitempty"`
	RequestedBy  string                  `json:"requestedBy,omitempty"`
	CreatedAt    timestamp               `json:"createdAt"`
}

func fromCorrectionRequest(r domain.CorrectionRequest) correctionRequestDTO {
	return correctionRequestDTO{
		ID:           r.ID,
		CreatorID:    r.CreatorID,
		Items:        r.Items,
		Reason:       r.Reason,
		ReferenceURL: r.ReferenceURL,
		Status:       string(r.Status),
		RequestedBy:  r.RequestedBy,
		CreatedAt:    fromTime(r.CreatedAt),
	}
}

func (d correctionRequestDTO) toDomain() domain.CorrectionRequest {
	return domain.CorrectionRequest{
		ID:           d.ID,
		CreatorID:    d.CreatorID,
		Items:        d.Items,
		Reason:       d.Reason,
		ReferenceURL: d.ReferenceURL,
		Status:       domain.SubmissionStatus(d.Status),
		RequestedBy:  d.RequestedBy,
		CreatedAt:    d.CreatedAt.Time(),
	}
}
