package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"nimli/internal/domain"
)

const (
	MaxReasonLength  = 500
	MaxTagNameLength = 30
)

var validate = validator.New()

// MaxFieldLength returns the limit for current/suggested values of a field.
func MaxFieldLength(f domain.FieldType) int {
	switch {
	case f == domain.FieldName:
		return 50
	case f.IsLink():
		return 500
	case f == domain.FieldTags:
		return 200
	default:
		return 300
	}
}

// CorrectionInput is the user-supplied part of a correction request.
type CorrectionInput struct {
	CreatorID    string
	Items        []domain.CorrectionItem
	Reason       string
	ReferenceURL string
}

// CorrectionRequest checks creator id, items, reason and reference URL.
func CorrectionRequest(in CorrectionInput) error {
	if err := CreatorID(in.CreatorID); err != nil {
		return err
	}
	if len(in.Items) == 0 {
		return fail(ReasonNoCorrectionItems, "items", "at least one correction is required")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return fail(ReasonInvalidReason, "reason", "reason is required")
	}
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return fail(ReasonInvalidReason, "reason", "reason exceeds %d characters", MaxReasonLength)
	}
	for i, it := range in.Items {
		if err := correctionItem(i, it); err != nil {
			return err
		}
	}
	if u := strings.TrimSpace(in.ReferenceURL); u != "" {
		if err := validate.Var(u, "url"); err != nil {
			return fail(ReasonInvalidReferenceURL, "referenceUrl", "reference url is malformed")
		}
	}
	return nil
}

func correctionItem(i int, it domain.CorrectionItem) error {
	field := "items." + string(it.FieldType)
	if !it.FieldType.Valid() {
		return fail(ReasonInvalidCorrectionItem, field, "item %d has unknown field type %q", i, it.FieldType)
	}
	limit := MaxFieldLength(it.FieldType)
	for _, v := range []string{it.CurrentValue, it.SuggestedValue} {
		t := strings.TrimSpace(v)
		if t == "" {
			return fail(ReasonInvalidCorrectionItem, field, "item %d has an empty value", i)
		}
		if utf8.RuneCountInString(t) > limit {
			return fail(ReasonInvalidCorrectionItem, field, "item %d exceeds %d characters", i, limit)
		}
	}
	return nil
}

// TagApplication checks a tag add/remove request.
func TagApplication(creatorID, tagName string, typ domain.ApplicationType, reason string) error {
	if err := CreatorID(creatorID); err != nil {
		return err
	}
	n := utf8.RuneCountInString(strings.TrimSpace(tagName))
	if n == 0 || n > MaxTagNameLength {
		return fail(ReasonInvalidTagName, "tagName", "tag name must be 1-%d characters", MaxTagNameLength)
	}
	if !typ.Valid() {
		return fail(ReasonInvalidApplicationType, "applicationType", "unknown application type %q", typ)
	}
	if utf8.RuneCountInString(strings.TrimSpace(reason)) > MaxReasonLength {
		return fail(ReasonInvalidReason, "reason", "reason exceeds %d characters", MaxReasonLength)
	}
	return nil
}
