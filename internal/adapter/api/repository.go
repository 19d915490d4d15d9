package api

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"nimli/internal/domain"
	"nimli/internal/search"
)

// Transport is the JSON client the adapters depend on. Every error it
// returns is already a *shared.RepositoryError.
type Transport interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
	PostJSON(ctx context.Context, path string, in, out any, idempotent bool) error
}

// CreatorRepository reads creators from the backend.
type CreatorRepository struct{ t Transport }

// NewCreatorRepository creates a REST creator repository.
func NewCreatorRepository(t Transport) *CreatorRepository { return &CreatorRepository{t: t} }

func limitQuery(limit int) url.Values {
	return url.Values{"limit": {strconv.Itoa(limit)}}
}

func pageQuery(offset, limit int) url.Values {
	return url.Values{"offset": {strconv.Itoa(offset)}, "limit": {strconv.Itoa(limit)}}
}

func (r *CreatorRepository) GetPopularCreators(ctx context.Context, limit int) ([]domain.Creator, error) {
	var env envelope[[]creatorDTO]
	if err := r.t.GetJSON(ctx, "creators/popular", limitQuery(limit), &env); err != nil {
		return nil, err
	}
	return activeCreators(env.Data, limit), nil
}

func (r *CreatorRepository) GetCreatorByID(ctx context.Context, id string) (domain.Creator, error) {
	var env envelope[creatorDTO]
	if err := r.t.GetJSON(ctx, "creators/"+url.PathEscape(id), nil, &env); err != nil {
		return domain.Creator{}, err
	}
	return env.Data.toDomain(), nil
}

func (r *CreatorRepository) GetSimilarCreators(ctx context.Context, id string, limit int) ([]domain.Creator, error) {
	var env envelope[[]creatorDTO]
	if err := r.t.GetJSON(ctx, "creators/"+url.PathEscape(id)+"/similar", limitQuery(limit), &env); err != nil {
		return nil, err
	}
	return activeCreators(env.Data, limit), nil
}

func (r *CreatorRepository) GetCreatorsByIDs(ctx context.Context, ids []string) ([]domain.Creator, error) {
	var env envelope[[]creatorDTO]
	body := map[string][]string{"creatorIds": ids}
	if err := r.t.PostJSON(ctx, "creators/by-ids", body, &env, true); err != nil {
		return nil, err
	}
	return mapSlice(env.Data, creatorDTO.toDomain), nil
}

func (r *CreatorRepository) SearchByTags(ctx context.Context, tagIDs []string, offset, limit int) (domain.CreatorSearchResult, error) {
	var env envelope[[]creatorDTO]
	body := struct {
		TagIDs []string `json:"tagIds"`
		Offset int      `json:"offset"`
		Limit  int      `json:"limit"`
	}{tagIDs, offset, limit}
	if err := r.t.PostJSON(ctx, "creators/search-by-tags", body, &env, true); err != nil {
		return domain.CreatorSearchResult{}, err
	}
	return toPage(env, offset, limit, creatorDTO.toDomain, isActive), nil
}

func (r *CreatorRepository) SearchByName(ctx context.Context, query string, offset, limit int) (domain.CreatorSearchResult, error) {
	var env envelope[[]creatorDTO]
	q := pageQuery(offset, limit)
	q.Set("q", strings.TrimSpace(query))
	if err := r.t.GetJSON(ctx, "creators/search", q, &env); err != nil {
		return domain.CreatorSearchResult{}, err
	}
	return toPage(env, offset, limit, creatorDTO.toDomain, isActive), nil
}

// activeCreators drops inactive creators and keeps at most limit.
func activeCreators(in []creatorDTO, limit int) []domain.Creator {
	out := make([]domain.Creator, 0, len(in))
	for _, d := range in {
		if c := d.toDomain(); c.IsActive {
			out = append(out, c)
		}
	}
	return search.Truncate(out, limit)
}

// TagRepository reads tags from the backend.
type TagRepository struct{ t Transport }

// NewTagRepository creates a REST tag repository.
func NewTagRepository(t Transport) *TagRepository { return &TagRepository{t: t} }

func (r *TagRepository) GetPopularTags(ctx context.Context, limit int) ([]domain.Tag, error) {
	var env envelope[[]tagDTO]
	if err := r.t.GetJSON(ctx, "tags/popular", limitQuery(limit), &env); err != nil {
		return nil, err
	}
	return search.Truncate(mapSlice(env.Data, tagDTO.toDomain), limit), nil
}

func (r *TagRepository) GetTagListByIDList(ctx context.Context, ids []string) ([]domain.Tag, error) {
	var env envelope[[]tagDTO]
	body := map[string][]string{"tagIds": ids}
	if err := r.t.PostJSON(ctx, "tags/by-ids", body, &env, true); err != nil {
		return nil, err
	}
	return mapSlice(env.Data, tagDTO.toDomain), nil
}

func (r *TagRepository) SearchByName(ctx context.Context, k search.Keywords, offset, limit int) (domain.TagSearchResult, error) {
	var env envelope[[]tagDTO]
	q := pageQuery(offset, limit)
	if len(k.And) > 0 {
		q.Set("and", strings.Join(k.And, " "))
	}
	if len(k.Or) > 0 {
		q.Set("or", strings.Join(k.Or, " "))
	}
	if err := r.t.GetJSON(ctx, "tags/search", q, &env); err != nil {
		return domain.TagSearchResult{}, err
	}
	return toPage(env, offset, limit, tagDTO.toDomain, nil), nil
}

// SubmissionRepository sends tag applications and correction requests.
// Submissions are posted once; a failed post is never replayed.
type SubmissionRepository struct{ t Transport }

// NewSubmissionRepository creates a REST submission repository.
func NewSubmissionRepository(t Transport) *SubmissionRepository {
	return &SubmissionRepository{t: t}
}

func pendingQuery(creatorID string) url.Values {
	return url.Values{"creatorId": {creatorID}, "status": {string(domain.StatusPending)}}
}

func (r *SubmissionRepository) SubmitTagApplication(ctx context.Context, app domain.TagApplication) (domain.TagApplication, error) {
	var env envelope[tagApplicationDTO]
	if err := r.t.PostJSON(ctx, "tag-applications", fromTagApplication(app), &env, false); err != nil {
		return domain.TagApplication{}, err
	}
	return env.Data.toDomain(), nil
}

func (r *SubmissionRepository) PendingTagApplications(ctx context.Context, creatorID string) ([]domain.TagApplication, error) {
	var env envelope[[]tagApplicationDTO]
	if err := r.t.GetJSON(ctx, "tag-applications", pendingQuery(creatorID), &env); err != nil {
		return nil, err
	}
	return mapSlice(env.Data, tagApplicationDTO.toDomain), nil
}

func (r *SubmissionRepository) SubmitCorrectionRequest(ctx context.Context, req domain.CorrectionRequest) (domain.CorrectionRequest, error) {
	var env envelope[correctionRequestDTO]
	if err := r.t.PostJSON(ctx, "correction-requests", fromCorrectionRequest(req), &env, false); err != nil {
		return domain.CorrectionRequest{}, err
	}
	return env.Data.toDomain(), nil
}

func (r *SubmissionRepository) PendingCorrectionRequests(ctx context.Context, creatorID string) ([]domain.CorrectionRequest, error) {
	var env envelope[[]correctionRequestDTO]
	if err := r.t.GetJSON(ctx, "correction-requests", pendingQuery(creatorID), &env); err != nil {
		return nil, err
	}
	return mapSlice(env.Data, correctionRequestDTO.toDomain), nil
}
