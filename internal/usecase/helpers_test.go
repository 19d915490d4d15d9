package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"nimli/internal/adapter/fixture"
	"nimli/internal/domain"
	"nimli/internal/repository"
	"nimli/internal/search"
	"nimli/internal/shared"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type outcome struct{ name, outcome string }

type recordingObserver struct {
	mu   sync.Mutex
	seen []outcome
}

func (r *recordingObserver) UseCase(name, result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, outcome{name, result})
}

func (r *recordingObserver) last() outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seen) == 0 {
		return outcome{}
	}
	return r.seen[len(r.seen)-1]
}

// failingCatalog answers every read with err and counts calls.
type failingCatalog struct {
	err   error
	mu    sync.Mutex
	calls int
}

func (f *failingCatalog) hit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *failingCatalog) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *failingCatalog) GetPopularCreators(context.Context, int) ([]domain.Creator, error) {
	return nil, f.hit()
}

func (f *failingCatalog) GetCreatorByID(context.Context, string) (domain.Creator, error) {
	return domain.Creator{}, f.hit()
}

func (f *failingCatalog) GetSimilarCreators(context.Context, string, int) ([]domain.Creator, error) {
	return nil, f.hit()
}

func (f *failingCatalog) GetCreatorsByIDs(context.Context, []string) ([]domain.Creator, error) {
	return nil, f.hit()
}

func (f *failingCatalog) SearchByTags(context.Context, []string, int, int) (domain.CreatorSearchResult, error) {
	return domain.CreatorSearchResult{}, f.hit()
}

func (f *failingCatalog) SearchByName(context.Context, string, int, int) (domain.CreatorSearchResult, error) {
	return domain.CreatorSearchResult{}, f.hit()
}

func (f *failingCatalog) GetPopularTags(context.Context, int) ([]domain.Tag, error) {
	return nil, f.hit()
}

func (f *failingCatalog) GetTagListByIDList(context.Context, []string) ([]domain.Tag, error) {
	return nil, f.hit()
}

type failingTags struct{ *failingCatalog }

func (f failingTags) SearchByName(context.Context, search.Keywords, int, int) (domain.TagSearchResult, error) {
	return domain.TagSearchResult{}, f.hit()
}

var (
	_ repository.CreatorRepository = (*failingCatalog)(nil)
	_ repository.TagRepository     = failingTags{}
)

func fixtureRepos() (repository.CreatorRepository, repository.TagRepository) {
	cat := fixture.MustLoad()
	return fixture.NewCreatorRepository(cat, quiet), fixture.NewTagRepository(cat, quiet)
}

func creatorIDs(cs []domain.Creator) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func tagIDs(ts []domain.Tag) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

// similarFails loses the connection while loading similar creators.
type similarFails struct {
	repository.CreatorRepository
}

func (similarFails) GetSimilarCreators(context.Context, string, int) ([]domain.Creator, error) {
	return nil, shared.NetworkError(errors.New("connection reset"))
}
