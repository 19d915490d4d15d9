package usecase

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"nimli/internal/domain"
	"nimli/internal/repository"
	"nimli/internal/search"
	"nimli/internal/validation"
)

// SubmissionService accepts tag applications and correction requests for
// review. Each write happens at most once per business key while pending.
type SubmissionService struct {
	creators     repository.CreatorRepository
	applications repository.TagApplicationRepository
	corrections  repository.CorrectionRequestRepository
	base
}

// NewSubmissionService creates a submission service.
func NewSubmissionService(
	creators repository.CreatorRepository,
	applications repository.TagApplicationRepository,
	corrections repository.CorrectionRequestRepository,
	log *slog.Logger,
	obs Observer,
) *SubmissionService {
	return &SubmissionService{
		creators:     creators,
		applications: applications,
		corrections:  corrections,
		base:         newBase(log, obs, "submissions"),
	}
}

// TagApplicationInput asks to attach or detach a tag on a creator.
type TagApplicationInput struct {
	CreatorID       string                 `json:"creatorId"`
	TagName         string                 `json:"tagName"`
	ApplicationType domain.ApplicationType `json:"applicationType"`
	Reason          string                 `json:"reason"`
	RequestedBy     string                 `json:"-"`
}

// CorrectionInput proposes edits to a creator's profile.
type CorrectionInput struct {
	CreatorID    string                  `json:"creatorId"`
	Items        []domain.CorrectionItem `json:"items"`
	Reason       string                  `json:"reason"`
	ReferenceURL string                  `json:"referenceUrl"`
	RequestedBy  string                  `json:"-"`
}

// SubmitTagApplication rejects an application whose creator, case-folded
// tag name and type match a pending one.
func (s *SubmissionService) SubmitTagApplication(ctx context.Context, in TagApplicationInput) (domain.TagApplication, error) {
	return call(ctx, s.base, OpSubmitTagApplication, func() (domain.TagApplication, error) {
		if err := validation.TagApplication(in.CreatorID, in.TagName, in.ApplicationType, in.Reason); err != nil {
			return domain.TagApplication{}, err
		}
		if _, err := s.creators.GetCreatorByID(ctx, in.CreatorID); err != nil {
			return domain.TagApplication{}, err
		}

		name := strings.TrimSpace(in.TagName)
		pending, err := s.applications.PendingTagApplications(ctx, in.CreatorID)
		if err != nil {
			return domain.TagApplication{}, err
		}
		key := repository.TagKey(name)
		for _, p := range pending {
			if p.Status == domain.StatusPending && p.ApplicationType == in.ApplicationType &&
				repository.TagKey(p.TagName) == key {
				return domain.TagApplication{}, &Error{
					Kind:    KindDuplicateApplication,
					Message: "an identical application is already pending",
				}
			}
		}

		saved, err := s.applications.SubmitTagApplication(ctx, domain.TagApplication{
			CreatorID:       in.CreatorID,
			TagName:         name,
			ApplicationType: in.ApplicationType,
			Reason:          strings.TrimSpace(in.Reason),
			RequestedBy:     in.RequestedBy,
		})
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.TagApplication{}, &Error{Kind: KindDuplicateApplication, Cause: err}
		}
		return saved, err
	})
}

// SubmitCorrectionRequest rejects a request when the same requester already
// has a pending one for the creator proposing the same values.
func (s *SubmissionService) SubmitCorrectionRequest(ctx context.Context, in CorrectionInput) (domain.CorrectionRequest, error) {
	return call(ctx, s.base, OpSubmitCorrectionRequest, func() (domain.CorrectionRequest, error) {
		err := validation.CorrectionRequest(validation.CorrectionInput{
			CreatorID:    in.CreatorID,
			Items:        in.Items,
			Reason:       in.Reason,
			ReferenceURL: in.ReferenceURL,
		})
		if err != nil {
			return domain.CorrectionRequest{}, err
		}
		if _, err := s.creators.GetCreatorByID(ctx, in.CreatorID); err != nil {
			return domain.CorrectionRequest{}, err
		}

		items := make([]domain.CorrectionItem, len(in.Items))
		for i, it := range in.Items {
			items[i] = domain.CorrectionItem{
				FieldType:      it.FieldType,
				CurrentValue:   strings.TrimSpace(it.CurrentValue),
				SuggestedValue: strings.TrimSpace(it.SuggestedValue),
			}
		}

		pending, err := s.corrections.PendingCorrectionRequests(ctx, in.CreatorID)
		if err != nil {
			return domain.CorrectionRequest{}, err
		}
		key := correctionKey(items)
		for _, p := range pending {
			if p.Status == domain.StatusPending && p.RequestedBy == in.RequestedBy &&
				slices.Equal(correctionKey(p.Items), key) {
				return domain.CorrectionRequest{}, &Error{
					Kind:    KindDuplicateRequest,
					Message: "an identical correction request is already pending",
				}
			}
		}

		saved, err := s.corrections.SubmitCorrectionRequest(ctx, domain.CorrectionRequest{
			CreatorID:    in.CreatorID,
			Items:        items,
			Reason:       strings.TrimSpace(in.Reason),
			ReferenceURL: strings.TrimSpace(in.ReferenceURL),
			RequestedBy:  in.RequestedBy,
		})
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.CorrectionRequest{}, &Error{Kind: KindDuplicateRequest, Cause: err}
		}
		return saved, err
	})
}

// correctionKey is the sorted multiset of field type and folded suggestion.
func correctionKey(items []domain.CorrectionItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = string(it.FieldType) + "\x00" + search.Fold(strings.TrimSpace(it.SuggestedValue))
	}
	slices.Sort(out)
	return out
}
