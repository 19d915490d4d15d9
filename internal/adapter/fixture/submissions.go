package fixture

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"nimli/internal/domain"
	"nimli/internal/repository"
	"nimli/internal/shared"
)

// SubmissionStore keeps tag applications and correction requests in memory.
type SubmissionStore struct {
	mu           sync.RWMutex
	now          func() time.Time
	applications []domain.TagApplication
	corrections  []domain.CorrectionRequest
}

// NewSubmissionStore creates an empty store.
func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{now: time.Now}
}

// SubmitTagApplication assigns an id, pending status and timestamp. A
// pending application with the same creator, TagKey and type is rejected
// with repository.ErrDuplicate.
func (s *SubmissionStore) SubmitTagApplication(ctx context.Context, app domain.TagApplication) (domain.TagApplication, error) {
	if err := live(ctx); err != nil {
		return domain.TagApplication{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := repository.TagKey(app.TagName)
	for _, p := range s.applications {
		if p.Status == domain.StatusPending && p.CreatorID == app.CreatorID &&
			p.ApplicationType == app.ApplicationType && repository.TagKey(p.TagName) == key {
			return domain.TagApplication{}, shared.Unknown(shared.Wrap(repository.ErrDuplicate, "pending tag application "+p.ID))
		}
	}

	app.ID = uuid.NewString()
	app.Status = domain.StatusPending
	app.CreatedAt = s.now().UTC()
	s.applications = append(s.applications, app)
	return app, nil
}

// PendingTagApplications lists pending applications for a creator.
func (s *SubmissionStore) PendingTagApplications(ctx context.Context, creatorID string) ([]domain.TagApplication, error) {
	if err := live(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.TagApplication
	for _, a := range s.applications {
		if a.CreatorID == creatorID && a.Status == domain.StatusPending {
			out = append(out, a)
		}
	}
	return out, nil
}

// SubmitCorrectionRequest assigns an id, pending status and timestamp.
func (s *SubmissionStore) SubmitCorrectionRequest(ctx context.Context, req domain.CorrectionRequest) (domain.CorrectionRequest, error) {
	if err := live(ctx); err != nil {
		return domain.CorrectionRequest{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	req.ID = uuid.NewString()
	req.Status = domain.StatusPending
	req.CreatedAt = s.now().UTC()
	s.corrections = append(s.corrections, req)
	return req, nil
}

// PendingCorrectionRequests lists pending correction requests for a creator.
func (s *SubmissionStore) PendingCorrectionRequests(ctx context.Context, creatorID string) ([]domain.CorrectionRequest, error) {
	if err := live(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.CorrectionRequest
	for _, r := range s.corrections {
		if r.CreatorID == creatorID && r.Status == domain.StatusPending {
			out = append(out, r)
		}
	}
	return out, nil
}
