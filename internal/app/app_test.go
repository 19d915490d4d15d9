package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nimli/internal/config"
)

func testConfig(t *testing.T, vars map[string]string) config.Config {
	t.Helper()
	dir := t.TempDir()
	env := map[string]string{
		"ENV":         "dev",
		"SQLITE_PATH": filepath.Join(dir, "db", "nimli.db"),
		"BADGER_PATH": filepath.Join(dir, "badger"),
	}
	for k, v := range vars {
		env[k] = v
	}
	cfg, err := config.FromEnv(func(k string) string { return env[k] })
	require.NoError(t, err)
	return cfg
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNewWiresFixtureCatalog(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t, nil), quiet())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })

	svc := a.Services()
	creators, err := svc.Catalog.GetPopularCreators(ctx, 2)
	require.NoError(t, err)
	require.Len(t, creators, 2)
	assert.Equal(t, "c002", creators[0].ID)

	age, ok := a.popular.Age()
	assert.True(t, ok, "snapshot taken at startup")
	assert.GreaterOrEqual(t, age.Nanoseconds(), int64(0))

	require.NoError(t, svc.Favorites.AddFavoriteCreator(ctx, "u1", "c001"))
	fav, err := svc.Favorites.CheckFavoriteStatus(ctx, "u1", "c001")
	require.NoError(t, err)
	assert.True(t, fav)

	require.Contains(t, a.checks, "local")
	assert.NoError(t, a.checks["local"](ctx))
}

func TestSchedulerHealthCheck(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t, nil), quiet())
	require.NoError(t, err)

	check := a.checks["scheduler"]
	require.NotNil(t, check)
	assert.NoError(t, check(ctx))

	require.NoError(t, a.Close())
	assert.Error(t, check(ctx))
}

func TestNewWithBadgerStore(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t, map[string]string{"LOCAL_STORE": "badger"}), quiet())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })

	svc := a.Services()
	require.NoError(t, svc.History.SaveSearchHistory(ctx, "u1", "apex"))
	qs, err := svc.History.GetSearchHistory(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"apex"}, qs)
	assert.NotContains(t, a.checks, "local")
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(context.Background(), testConfig(t, map[string]string{"POPULAR_REFRESH_SCHEDULE": "whenever"}), quiet())
	assert.Error(t, err)
}

func TestServeNeedsSessionSecret(t *testing.T) {
	cfg := testConfig(t, nil)
	cfg.Session.Secret = ""
	a, err := New(context.Background(), cfg, quiet())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.ErrorContains(t, a.Serve(context.Background()), "SESSION_SECRET")
}

func TestRunBotNeedsToken(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, nil), quiet())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.ErrorContains(t, a.RunBot(context.Background()), "TELEGRAM_BOT_TOKEN")
}

func TestMigrateSQLiteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, nil)

	first, err := Migrate(ctx, cfg, quiet())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "sqlite", first[0].Store)
	assert.True(t, first[0].Applied)

	second, err := Migrate(ctx, cfg, quiet())
	require.NoError(t, err)
	assert.False(t, second[0].Applied)
	assert.Equal(t, first[0].ToVersion, second[0].ToVersion)
}
