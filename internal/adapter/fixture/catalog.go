// Package fixture serves the catalogue from embedded YAML collections,
// filtering and ranking them with the search package.
package fixture

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"slices"

	"gopkg.in/yaml.v3"

	"nimli/internal/domain"
	"nimli/internal/search"
	"nimli/internal/shared"
	"nimli/internal/validation"
)

//go:embed data/*.yaml
var data embed.FS

// Catalog is an immutable in-memory copy of the creator and tag collections.
// It is safe for concurrent reads.
type Catalog struct {
	creators []domain.Creator
	tags     []domain.Tag
}

// Load decodes the embedded collections.
func Load() (*Catalog, error) {
	var c Catalog
	if err := decode("data/creators.yaml", &c.creators); err != nil {
		return nil, err
	}
	if err := decode("data/tags.yaml", &c.tags); err != nil {
		return nil, err
	}
	return &c, nil
}

// MustLoad is Load for tests and static wiring.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// NewCatalog builds a catalog from caller-owned slices, which are copied.
func NewCatalog(creators []domain.Creator, tags []domain.Tag) *Catalog {
	return &Catalog{creators: slices.Clone(creators), tags: slices.Clone(tags)}
}

func decode(name string, out any) error {
	raw, err := data.ReadFile(name)
	if err != nil {
		return fmt.Errorf("fixture %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return shared.DecodingError(fmt.Errorf("fixture %s: %w", name, err))
	}
	return nil
}

// Creators returns a copy of the creator collection.
func (c *Catalog) Creators() []domain.Creator { return slices.Clone(c.creators) }

// Tags returns a copy of the tag collection.
func (c *Catalog) Tags() []domain.Tag { return slices.Clone(c.tags) }

// CreatorRepository serves creators from a Catalog.
type CreatorRepository struct {
	cat *Catalog
	log *slog.Logger
}

// NewCreatorRepository creates a fixture-backed creator repository.
func NewCreatorRepository(cat *Catalog, log *slog.Logger) *CreatorRepository {
	return &CreatorRepository{cat: cat, log: log}
}

func (r *CreatorRepository) GetPopularCreators(ctx context.Context, limit int) ([]domain.Creator, error) {
	if err := live(ctx); err != nil {
		return nil, err
	}
	return search.PopularCreators(r.cat.creators, limit), nil
}

func (r *CreatorRepository) GetCreatorByID(ctx context.Context, id string) (domain.Creator, error) {
	if err := live(ctx); err != nil {
		return domain.Creator{}, err
	}
	c, ok := search.FindCreator(r.cat.creators, id)
	if !ok {
		return domain.Creator{}, shared.NotFoundf("creator %s not found", id)
	}
	return c, nil
}

func (r *CreatorRepository) GetSimilarCreators(ctx context.Context, id string, limit int) ([]domain.Creator, error) {
	target, err := r.GetCreatorByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return search.Similar(r.cat.creators, target, limit), nil
}

func (r *CreatorRepository) GetCreatorsByIDs(ctx context.Context, ids []string) ([]domain.Creator, error) {
	if err := live(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.Creator, 0, len(ids))
	for _, id := range ids {
		if c, ok := search.FindCreator(r.cat.creators, id); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *CreatorRepository) SearchByTags(ctx context.Context, tagIDs []string, offset, limit int) (domain.CreatorSearchResult, error) {
	if err := live(ctx); err != nil {
		return domain.CreatorSearchResult{}, err
	}
	return search.SearchByTags(r.cat.creators, tagIDs, offset, limit), nil
}

func (r *CreatorRepository) SearchByName(ctx context.Context, query string, offset, limit int) (domain.CreatorSearchResult, error) {
	if err := live(ctx); err != nil {
		return domain.CreatorSearchResult{}, err
	}
	return search.SearchByName(r.cat.creators, validation.Tokenize(query), offset, limit), nil
}

// TagRepository serves tags from a Catalog.
type TagRepository struct {
	cat *Catalog
	log *slog.Logger
}

// NewTagRepository creates a fixture-backed tag repository.
func NewTagRepository(cat *Catalog, log *slog.Logger) *TagRepository {
	return &TagRepository{cat: cat, log: log}
}

func (r *TagRepository) GetPopularTags(ctx context.Context, limit int) ([]domain.Tag, error) {
	if err := live(ctx); err != nil {
		return nil, err
	}
	return search.PopularTags(r.cat.tags, limit), nil
}

func (r *TagRepository) GetTagListByIDList(ctx context.Context, ids []string) ([]domain.Tag, error) {
	if err := live(ctx); err != nil {
		return nil, err
	}
	tags := search.TagsByIDs(r.cat.tags, ids)
	r.log.Debug("tags by id", slog.Int("requested", len(ids)), slog.Int("found", len(tags)))
	return tags, nil
}

func (r *TagRepository) SearchByName(ctx context.Context, k search.Keywords, offset, limit int) (domain.TagSearchResult, error) {
	if err := live(ctx); err != nil {
		return domain.TagSearchResult{}, err
	}
	return search.SearchTags(r.cat.tags, k, offset, limit), nil
}

// live surfaces a finished context through the shared taxonomy.
func live(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return shared.MapError(err)
	}
	return nil
}
