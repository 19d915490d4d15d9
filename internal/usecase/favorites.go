package usecase

import (
	"context"
	"log/slog"
	"strings"

	"nimli/internal/domain"
	"nimli/internal/repository"
	"nimli/internal/validation"
)

// FavoriteService manages a user's favorite creators.
type FavoriteService struct {
	favorites repository.FavoriteRepository
	creators  repository.CreatorRepository
	base
}

// NewFavoriteService creates a favorites service.
func NewFavoriteService(favorites repository.FavoriteRepository, creators repository.CreatorRepository, log *slog.Logger, obs Observer) *FavoriteService {
	return &FavoriteService{favorites: favorites, creators: creators, base: newBase(log, obs, "favorites")}
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return &Error{Kind: KindUnauthorized, Message: "sign-in required"}
	}
	return nil
}

// GetFavoriteCreators resolves the user's favorites, newest first. Ids the
// catalogue no longer knows are left out.
func (s *FavoriteService) GetFavoriteCreators(ctx context.Context, userID string) ([]domain.Creator, error) {
	return call(ctx, s.base, OpGetFavoriteCreators, func() ([]domain.Creator, error) {
		if err := requireUser(userID); err != nil {
			return nil, err
		}
		ids, err := s.favorites.ListFavorites(ctx, userID)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []domain.Creator{}, nil
		}
		found, err := s.creators.GetCreatorsByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]domain.Creator, len(found))
		for _, c := range found {
			byID[c.ID] = c
		}
		out := make([]domain.Creator, 0, len(ids))
		for _, id := range ids {
			if c, ok := byID[id]; ok {
				out = append(out, c)
			}
		}
		return out, nil
	})
}

// AddFavoriteCreator checks the creator exists before storing it. Adding a
// favorite twice is a no-op.
func (s *FavoriteService) AddFavoriteCreator(ctx context.Context, userID, creatorID string) error {
	return exec(ctx, s.base, OpAddFavoriteCreator, func() error {
		if err := requireUser(userID); err != nil {
			return err
		}
		if err := validation.CreatorID(creatorID); err != nil {
			return err
		}
		if _, err := s.creators.GetCreatorByID(ctx, creatorID); err != nil {
			return err
		}
		return s.favorites.AddFavorite(ctx, userID, creatorID)
	})
}

func (s *FavoriteService) RemoveFavoriteCreator(ctx context.Context, userID, creatorID string) error {
	return exec(ctx, s.base, OpRemoveFavoriteCreator, func() error {
		if err := requireUser(userID); err != nil {
			return err
		}
		if err := validation.CreatorID(creatorID); err != nil {
			return err
		}
		return s.favorites.RemoveFavorite(ctx, userID, creatorID)
	})
}

func (s *FavoriteService) CheckFavoriteStatus(ctx context.Context, userID, creatorID string) (bool, error) {
	return call(ctx, s.base, OpCheckFavoriteStatus, func() (bool, error) {
		if err := requireUser(userID); err != nil {
			return false, err
		}
		if err := validation.CreatorID(creatorID); err != nil {
			return false, err
		}
		return s.favorites.IsFavorite(ctx, userID, creatorID)
	})
}
