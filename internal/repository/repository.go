// Package repository declares the data ports the use-cases depend on.
// Implementations live under internal/adapter and must return errors from
// the shared taxonomy, never raw transport errors.
package repository

import (
	"context"
	"errors"
	"strings"

	"nimli/internal/domain"
	"nimli/internal/search"
)

// ErrDuplicate marks a write rejected by the store because an equivalent
// pending submission already exists. It travels inside a RepositoryError.
var ErrDuplicate = errors.New("duplicate pending submission")

// TagKey is the caseless form of a tag name. Pending tag applications are
// unique on creator, TagKey and application type.
func TagKey(name string) string {
	return search.Fold(strings.TrimSpace(name))
}

// CreatorRepository reads the creator catalogue.
type CreatorRepository interface {
	GetPopularCreators(ctx context.Context, limit int) ([]domain.Creator, error)
	GetCreatorByID(ctx context.Context, id string) (domain.Creator, error)
	GetSimilarCreators(ctx context.Context, id string, limit int) ([]domain.Creator, error)
	GetCreatorsByIDs(ctx context.Context, ids []string) ([]domain.Creator, error)
	SearchByTags(ctx context.Context, tagIDs []string, offset, limit int) (domain.CreatorSearchResult, error)
	// SearchByName leaves ordering to the implementation.
	SearchByName(ctx context.Context, query string, offset, limit int) (domain.CreatorSearchResult, error)
}

// TagRepository reads the tag catalogue.
type TagRepository interface {
	GetPopularTags(ctx context.Context, limit int) ([]domain.Tag, error)
	GetTagListByIDList(ctx context.Context, ids []string) ([]domain.Tag, error)
	SearchByName(ctx context.Context, k search.Keywords, offset, limit int) (domain.TagSearchResult, error)
}

// FavoriteRepository stores favorite creator ids per user, newest first.
type FavoriteRepository interface {
	ListFavorites(ctx context.Context, userID string) ([]string, error)
	AddFavorite(ctx context.Context, userID, creatorID string) error
	RemoveFavorite(ctx context.Context, userID, creatorID string) error
	IsFavorite(ctx context.Context, userID, creatorID string) (bool, error)
}

// SearchHistoryRepository stores recent queries per user, newest first and
// bounded by domain.MaxSearchHistory.
type SearchHistoryRepository interface {
	SaveQuery(ctx context.Context, userID, query string) error
	ListQueries(ctx context.Context, userID string) ([]string, error)
	ClearQueries(ctx context.Context, userID string) error
}

// TagApplicationRepository persists tag applications.
type TagApplicationRepository interface {
	SubmitTagApplication(ctx context.Context, app domain.TagApplication) (domain.TagApplication, error)
	PendingTagApplications(ctx context.Context, creatorID string) ([]domain.TagApplication, error)
}

// CorrectionRequestRepository persists correction requests.
type CorrectionRequestRepository interface {
	SubmitCorrectionRequest(ctx context.Context, req domain.CorrectionRequest) (domain.CorrectionRequest, error)
	PendingCorrectionRequests(ctx context.Context, creatorID string) ([]domain.CorrectionRequest, error)
}

// PhoneAuthProvider is the external phone verification service.
type PhoneAuthProvider interface {
	// SendVerificationCode returns an opaque verification session id.
	SendVerificationCode(ctx context.Context, phoneE164 string) (string, error)
	// VerifyCode returns the authenticated user id.
	VerifyCode(ctx context.Context, verificationID, code string) (string, error)
}
