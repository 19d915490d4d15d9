package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nimli/internal/adapter/storage/kv"
	"nimli/internal/domain"
	"nimli/internal/validation"
)

func openKV(t *testing.T) *kv.Store {
	t.Helper()
	st, err := kv.Open("", quiet)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestFavorites_Flow(t *testing.T) {
	creators, _ := fixtureRepos()
	s := NewFavoriteService(openKV(t), creators, quiet, nil)
	ctx := context.Background()

	list, err := s.GetFavoriteCreators(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)

	require.NoError(t, s.AddFavoriteCreator(ctx, "u1", "c001"))
	require.NoError(t, s.AddFavoriteCreator(ctx, "u1", "c003"))
	require.NoError(t, s.AddFavoriteCreator(ctx, "u1", "c001"))

	list, err = s.GetFavoriteCreators(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c003", "c001"}, creatorIDs(list))

	ok, err := s.CheckFavoriteStatus(ctx, "u1", "c003")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.RemoveFavoriteCreator(ctx, "u1", "c003"))
	ok, err = s.CheckFavoriteStatus(ctx, "u1", "c003")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.CheckFavoriteStatus(ctx, "u2", "c001")
	require.NoError(t, err)
	assert.False(t, ok, "favorites are per user")
}

func TestFavorites_Rejections(t *testing.T) {
	creators, _ := fixtureRepos()
	s := NewFavoriteService(openKV(t), creators, quiet, nil)
	ctx := context.Background()

	assert.ErrorIs(t, s.AddFavoriteCreator(ctx, "", "c001"), ErrUnauthorized)
	assert.ErrorIs(t, s.AddFavoriteCreator(ctx, "u1", "c999"), ErrCreatorNotFound)
	assert.Equal(t, validation.ReasonEmptyCreatorID, validation.ReasonOf(s.AddFavoriteCreator(ctx, "u1", "")))

	_, err := s.GetFavoriteCreators(ctx, "  ")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, IsRetryable(err))
}

// staleFavorites remembers a creator the catalogue has dropped.
type staleFavorites struct{ *kv.Store }

func (s staleFavorites) ListFavorites(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.Store.ListFavorites(ctx, userID)
	return append([]string{"gone"}, ids...), err
}

func TestFavorites_SkipsUnknownCreators(t *testing.T) {
	creators, _ := fixtureRepos()
	st := openKV(t)
	s := NewFavoriteService(staleFavorites{st}, creators, quiet, nil)
	ctx := context.Background()

	require.NoError(t, st.AddFavorite(ctx, "u1", "c002"))
	list, err := s.GetFavoriteCreators(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c002"}, creatorIDs(list))
}

func TestHistory_Flow(t *testing.T) {
	s := NewHistoryService(openKV(t), quiet, nil)
	ctx := context.Background()

	for i := range domain.MaxSearchHistory + 2 {
		require.NoError(t, s.SaveSearchHistory(ctx, "u1", fmt.Sprintf("q%d", i)))
	}
	require.NoError(t, s.SaveSearchHistory(ctx, "u1", "  q5 "))

	got, err := s.GetSearchHistory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, domain.MaxSearchHistory)
	assert.Equal(t, []string{"q5", "q11", "q10", "q9"}, got[:4])

	require.NoError(t, s.ClearSearchHistory(ctx, "u1"))
	got, err = s.GetSearchHistory(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)
}

func TestHistory_Rejections(t *testing.T) {
	s := NewHistoryService(openKV(t), quiet, nil)
	ctx := context.Background()

	err := s.SaveSearchHistory(ctx, "u1", "   ")
	assert.Equal(t, KindValidationFailed, KindOf(err))
	assert.Equal(t, validation.ReasonEmptySearchText, validation.ReasonOf(err))

	assert.ErrorIs(t, s.ClearSearchHistory(ctx, ""), ErrUnauthorized)
}
