// Package cache serves popular creator and tag lists from a snapshot that
// a scheduled job refreshes. Every other read passes straight through.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"nimli/internal/domain"
	"nimli/internal/repository"
	"nimli/internal/search"
)

// Lookups observes snapshot hits and misses.
type Lookups interface {
	CacheLookup(list string, hit bool)
}

type snapshot struct {
	creators []domain.Creator
	tags     []domain.Tag
	taken    time.Time
}

// PopularCache decorates a creator and a tag repository. Requests for at
// most Size entries are answered from the last successful snapshot; larger
// requests and requests before the first refresh go to the source.
type PopularCache struct {
	creators repository.CreatorRepository
	tags     repository.TagRepository
	size     int
	log      *slog.Logger
	lookups  Lookups
	now      func() time.Time
	snap     atomic.Pointer[snapshot]
}

// New creates an empty cache holding up to size entries per list.
func New(creators repository.CreatorRepository, tags repository.TagRepository, size int, log *slog.Logger, lookups Lookups) *PopularCache {
	return &PopularCache{creators: creators, tags: tags, size: size, log: log, lookups: lookups, now: time.Now}
}

// Refresh replaces the snapshot. When either source fails the previous
// snapshot stays in place.
func (c *PopularCache) Refresh(ctx context.Context) error {
	creators, cerr := c.creators.GetPopularCreators(ctx, c.size)
	tags, terr := c.tags.GetPopularTags(ctx, c.size)
	if err := errors.Join(cerr, terr); err != nil {
		c.log.Warn("popular snapshot refresh failed", "err", err)
		return err
	}
	c.snap.Store(&snapshot{creators: creators, tags: tags, taken: c.now()})
	c.log.Debug("popular snapshot refreshed", "creators", len(creators), "tags", len(tags))
	return nil
}

// Age is the time since the last successful refresh, false before the first.
func (c *PopularCache) Age() (time.Duration, bool) {
	s := c.snap.Load()
	if s == nil {
		return 0, false
	}
	return c.now().Sub(s.taken), true
}

// Creators returns the caching view of the creator repository.
func (c *PopularCache) Creators() repository.CreatorRepository { return creatorView{c.creators, c} }

// Tags returns the caching view of the tag repository.
func (c *PopularCache) Tags() repository.TagRepository { return tagView{c.tags, c} }

func (c *PopularCache) observe(list string, hit bool) {
	if c.lookups != nil {
		c.lookups.CacheLookup(list, hit)
	}
}

type creatorView struct {
	repository.CreatorRepository
	c *PopularCache
}

func (v creatorView) GetPopularCreators(ctx context.Context, limit int) ([]domain.Creator, error) {
	if s := v.c.snap.Load(); s != nil && limit <= v.c.size {
		v.c.observe("creators", true)
		return search.Truncate(s.creators, limit), nil
	}
	v.c.observe("creators", false)
	return v.CreatorRepository.GetPopularCreators(ctx, limit)
}

type tagView struct {
	repository.TagRepository
	c *PopularCache
}

func (v tagView) GetPopularTags(ctx context.Context, limit int) ([]domain.Tag, error) {
	if s := v.c.snap.Load(); s != nil && limit <= v.c.size {
		v.c.observe("tags", true)
		return search.Truncate(s.tags, limit), nil
	}
	v.c.observe("tags", false)
	return v.TagRepository.GetPopularTags(ctx, limit)
}
