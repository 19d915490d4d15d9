package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nimli/internal/adapter/fixture"
	"nimli/internal/domain"
	"nimli/internal/repository"
	"nimli/internal/shared"
	"nimli/internal/validation"
)

func newSubmissions(t *testing.T) (*SubmissionService, *fixture.SubmissionStore) {
	t.Helper()
	creators, _ := fixtureRepos()
	st := fixture.NewSubmissionStore()
	return NewSubmissionService(creators, st, st, quiet, nil), st
}

func TestSubmitTagApplication_Duplicates(t *testing.T) {
	s, st := newSubmissions(t)
	ctx := context.Background()

	first, err := s.SubmitTagApplication(ctx, TagApplicationInput{
		CreatorID: "c001", TagName: " FPS ", ApplicationType: domain.ApplicationAdd, RequestedBy: "u1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "FPS", first.TagName)
	assert.Equal(t, domain.StatusPending, first.Status)

	_, err = s.SubmitTagApplication(ctx, TagApplicationInput{
		CreatorID: "c001", TagName: "fps", ApplicationType: domain.ApplicationAdd, RequestedBy: "u2",
	})
	assert.ErrorIs(t, err, ErrDuplicateApplication)
	assert.False(t, IsRetryable(err))

	_, err = s.SubmitTagApplication(ctx, TagApplicationInput{
		CreatorID: "c001", TagName: "fps", ApplicationType: domain.ApplicationRemove,
	})
	require.NoError(t, err, "another application type is a different key")

	_, err = s.SubmitTagApplication(ctx, TagApplicationInput{
		CreatorID: "c002", TagName: "fps", ApplicationType: domain.ApplicationAdd,
	})
	require.NoError(t, err, "another creator is a different key")

	pending, err := st.PendingTagApplications(ctx, "c001")
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestSubmitTagApplication_Rejections(t *testing.T) {
	s, _ := newSubmissions(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   TagApplicationInput
		want Kind
	}{
		{"unknown creator", TagApplicationInput{CreatorID: "c999", TagName: "x", ApplicationType: domain.ApplicationAdd}, KindCreatorNotFound},
		{"blank tag", TagApplicationInput{CreatorID: "c001", TagName: " ", ApplicationType: domain.ApplicationAdd}, KindValidationFailed},
		{"bad type", TagApplicationInput{CreatorID: "c001", TagName: "x", ApplicationType: "rename"}, KindValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SubmitTagApplication(ctx, tt.in)
			assert.Equal(t, tt.want, KindOf(err))
		})
	}
}

// racingApplications reports nothing pending but refuses the insert, as a
// store with a uniqueness constraint does when another writer won.
type racingApplications struct{}

func (racingApplications) SubmitTagApplication(context.Context, domain.TagApplication) (domain.TagApplication, error) {
	return domain.TagApplication{}, shared.Unknown(fmt.Errorf("tag_applications_pending_key: %w", repository.ErrDuplicate))
}

func (racingApplications) PendingTagApplications(context.Context, string) ([]domain.TagApplication, error) {
	return nil, nil
}

func TestSubmitTagApplication_StoreDuplicate(t *testing.T) {
	creators, _ := fixtureRepos()
	s := NewSubmissionService(creators, racingApplications{}, fixture.NewSubmissionStore(), quiet, nil)

	_, err := s.SubmitTagApplication(context.Background(), TagApplicationInput{
		CreatorID: "c001", TagName: "fps", ApplicationType: domain.ApplicationAdd,
	})
	assert.ErrorIs(t, err, ErrDuplicateApplication)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func correction(requester string, items ...domain.CorrectionItem) CorrectionInput {
	return CorrectionInput{
		CreatorID:    "c001",
		Items:        items,
		Reason:       "outdated profile",
		ReferenceURL: "https://example.com/profile",
		RequestedBy:  requester,
	}
}

func TestSubmitCorrectionRequest_Duplicates(t *testing.T) {
	s, _ := newSubmissions(t)
	ctx := context.Background()

	name := domain.CorrectionItem{FieldType: domain.FieldName, CurrentValue: "Old", SuggestedValue: "New Name"}
	site := domain.CorrectionItem{FieldType: domain.FieldWebsite, CurrentValue: "a", SuggestedValue: "https://new.example.com"}

	saved, err := s.SubmitCorrectionRequest(ctx, correction("u1", name, site))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Len(t, saved.Items, 2)

	reordered := domain.CorrectionItem{FieldType: domain.FieldName, CurrentValue: "Old", SuggestedValue: " new name "}
	_, err = s.SubmitCorrectionRequest(ctx, correction("u1", site, reordered))
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	_, err = s.SubmitCorrectionRequest(ctx, correction("u2", name, site))
	require.NoError(t, err, "another requester is a different key")

	_, err = s.SubmitCorrectionRequest(ctx, correction("u1", name))
	require.NoError(t, err, "a subset is a different request")
}

func TestSubmitCorrectionRequest_Rejections(t *testing.T) {
	s, _ := newSubmissions(t)
	ctx := context.Background()
	ok := domain.CorrectionItem{FieldType: domain.FieldName, CurrentValue: "a", SuggestedValue: "b"}

	in := correction("u1", ok)
	in.ReferenceURL = "not a url"
	_, err := s.SubmitCorrectionRequest(ctx, in)
	assert.Equal(t, validation.ReasonInvalidReferenceURL, validation.ReasonOf(err))

	_, err = s.SubmitCorrectionRequest(ctx, correction("u1"))
	assert.Equal(t, validation.ReasonNoCorrectionItems, validation.ReasonOf(err))

	in = correction("u1", ok)
	in.CreatorID = "c999"
	_, err = s.SubmitCorrectionRequest(ctx, in)
	assert.ErrorIs(t, err, ErrCreatorNotFound)
}
