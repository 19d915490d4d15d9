package usecase

import (
	"context"
	"log/slog"
	"strings"

	"nimli/internal/domain"
	"nimli/internal/repository"
	"nimli/internal/search"
	"nimli/internal/validation"
)

// MaxSimilarCreators bounds the similar list on a creator detail.
const MaxSimilarCreators = 10

// CatalogService answers read-only catalogue queries.
type CatalogService struct {
	creators repository.CreatorRepository
	tags     repository.TagRepository
	base
}

// NewCatalogService creates a catalogue service.
func NewCatalogService(creators repository.CreatorRepository, tags repository.TagRepository, log *slog.Logger, obs Observer) *CatalogService {
	return &CatalogService{creators: creators, tags: tags, base: newBase(log, obs, "catalog")}
}

// CreatorDetail is a creator with creators sharing its tags.
type CreatorDetail struct {
	Creator domain.Creator   `json:"creator"`
	Similar []domain.Creator `json:"similar"`
}

// PageRequest selects a window of an ordered result.
type PageRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// TagNameSearch is a tag search by two keyword strings. Both are optional;
// every And token must match and at least one Or token must match.
type TagNameSearch struct {
	And string `json:"and"`
	Or  string `json:"or"`
	PageRequest
}

// CreatorTagSearch ranks creators by how many of TagIDs they carry.
type CreatorTagSearch struct {
	TagIDs []string `json:"tagIds"`
	PageRequest
}

// CreatorNameSearch is a creator search by free text.
type CreatorNameSearch struct {
	Query string `json:"query"`
	PageRequest
}

func (s *CatalogService) GetPopularCreators(ctx context.Context, limit int) ([]domain.Creator, error) {
	return call(ctx, s.base, OpGetPopularCreators, func() ([]domain.Creator, error) {
		if err := validation.Limit(limit); err != nil {
			return nil, err
		}
		return s.creators.GetPopularCreators(ctx, limit)
	})
}

func (s *CatalogService) GetPopularTags(ctx context.Context, limit int) ([]domain.Tag, error) {
	return call(ctx, s.base, OpGetPopularTags, func() ([]domain.Tag, error) {
		if err := validation.Limit(limit); err != nil {
			return nil, err
		}
		return s.tags.GetPopularTags(ctx, limit)
	})
}

// GetCreatorDetail loads a creator and up to MaxSimilarCreators creators
// sharing its tags. A missing creator fails with KindCreatorNotFound.
func (s *CatalogService) GetCreatorDetail(ctx context.Context, id string) (CreatorDetail, error) {
	return call(ctx, s.base, OpGetCreatorDetail, func() (CreatorDetail, error) {
		if err := validation.CreatorID(id); err != nil {
			return CreatorDetail{}, err
		}
		c, err := s.creators.GetCreatorByID(ctx, id)
		if err != nil {
			return CreatorDetail{}, err
		}
		similar, err := s.creators.GetSimilarCreators(ctx, id, MaxSimilarCreators)
		if err != nil {
			return CreatorDetail{}, err
		}
		return CreatorDetail{Creator: c, Similar: similar}, nil
	})
}

func (s *CatalogService) SearchCreatorsByTags(ctx context.Context, req CreatorTagSearch) (domain.CreatorSearchResult, error) {
	return call(ctx, s.base, OpSearchCreatorsByTags, func() (domain.CreatorSearchResult, error) {
		if err := validation.CreatorTagSearch(req.TagIDs); err != nil {
			return domain.CreatorSearchResult{}, err
		}
		if err := validation.Page(req.Offset, req.Limit); err != nil {
			return domain.CreatorSearchResult{}, err
		}
		return s.creators.SearchByTags(ctx, req.TagIDs, req.Offset, req.Limit)
	})
}

// SearchCreatorsByName keeps whatever order the repository returns.
func (s *CatalogService) SearchCreatorsByName(ctx context.Context, req CreatorNameSearch) (domain.CreatorSearchResult, error) {
	return call(ctx, s.base, OpSearchCreatorsByName, func() (domain.CreatorSearchResult, error) {
		if err := validation.Query(req.Query); err != nil {
			return domain.CreatorSearchResult{}, err
		}
		if err := validation.Page(req.Offset, req.Limit); err != nil {
			return domain.CreatorSearchResult{}, err
		}
		return s.creators.SearchByName(ctx, strings.TrimSpace(req.Query), req.Offset, req.Limit)
	})
}

// SearchTagsByName returns every tag, most clicked first, when both keyword
// strings are blank.
func (s *CatalogService) SearchTagsByName(ctx context.Context, req TagNameSearch) (domain.TagSearchResult, error) {
	return call(ctx, s.base, OpSearchTagsByName, func() (domain.TagSearchResult, error) {
		if err := validation.OptionalQuery("and", req.And); err != nil {
			return domain.TagSearchResult{}, err
		}
		if err := validation.OptionalQuery("or", req.Or); err != nil {
			return domain.TagSearchResult{}, err
		}
		if err := validation.Page(req.Offset, req.Limit); err != nil {
			return domain.TagSearchResult{}, err
		}
		k := search.Keywords{
			And: validation.Tokenize(req.And),
			Or:  validation.Tokenize(req.Or),
		}
		return s.tags.SearchByName(ctx, k, req.Offset, req.Limit)
	})
}

// GetTagListByIDs returns the tags that exist among ids. Unknown ids are
// skipped rather than reported.
func (s *CatalogService) GetTagListByIDs(ctx context.Context, ids []string) ([]domain.Tag, error) {
	return call(ctx, s.base, OpGetTagListByIDs, func() ([]domain.Tag, error) {
		if err := validation.TagIDs(ids); err != nil {
			return nil, err
		}
		return s.tags.GetTagListByIDList(ctx, ids)
	})
}
