package usecase

import (
	"context"
	"log/slog"
	"strings"

	"nimli/internal/repository"
	"nimli/internal/validation"
)

// HistoryService keeps a user's recent search queries.
type HistoryService struct {
	history repository.SearchHistoryRepository
	base
}

// NewHistoryService creates a search history service.
func NewHistoryService(history repository.SearchHistoryRepository, log *slog.Logger, obs Observer) *HistoryService {
	return &HistoryService{history: history, base: newBase(log, obs, "history")}
}

// SaveSearchHistory records query as the most recent entry.
func (s *HistoryService) SaveSearchHistory(ctx context.Context, userID, query string) error {
	return exec(ctx, s.base, OpSaveSearchHistory, func() error {
		if err := requireUser(userID); err != nil {
			return err
		}
		if err := validation.SearchText(query); err != nil {
			return err
		}
		return s.history.SaveQuery(ctx, userID, strings.TrimSpace(query))
	})
}

// GetSearchHistory lists recent queries, newest first.
func (s *HistoryService) GetSearchHistory(ctx context.Context, userID string) ([]string, error) {
	return call(ctx, s.base, OpGetSearchHistory, func() ([]string, error) {
		if err := requireUser(userID); err != nil {
			return nil, err
		}
		q, err := s.history.ListQueries(ctx, userID)
		if err != nil {
			return nil, err
		}
		if q == nil {
			q = []string{}
		}
		return q, nil
	})
}

func (s *HistoryService) ClearSearchHistory(ctx context.Context, userID string) error {
	return exec(ctx, s.base, OpClearSearchHistory, func() error {
		if err := requireUser(userID); err != nil {
			return err
		}
		return s.history.ClearQueries(ctx, userID)
	})
}
