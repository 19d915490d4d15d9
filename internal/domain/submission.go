package domain

import "time"

// SubmissionStatus is the review state of a user submission.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// ApplicationType says whether a tag application asks to attach or detach a tag.
type ApplicationType string

const (
	ApplicationAdd    ApplicationType = "add"
	ApplicationRemove ApplicationType = "remove"
)

// Valid reports whether t is a known application type.
func (t ApplicationType) Valid() bool {
	return t == ApplicationAdd || t == ApplicationRemove
}

// TagApplication is a user request to add or remove a tag on a creator.
type TagApplication struct {
	ID              string           `json:"id"`
	CreatorID       string           `json:"creatorId"`
	TagName         string           `json:"tagName"`
	ApplicationType ApplicationType  `json:"applicationType"`
	Reason          string           `json:"reason,omitempty"`
	Status          SubmissionStatus `json:"status"`
	RequestedBy     string           `json:"requestedBy,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// FieldType names the creator attribute a correction item targets.
type FieldType string

const (
	FieldName        FieldType = "name"
	FieldDescription FieldType = "description"
	FieldYouTube     FieldType = "youtube"
	FieldTwitch      FieldType = "twitch"
	FieldNiconico    FieldType = "niconico"
	FieldX           FieldType = "x"
	FieldInstagram   FieldType = "instagram"
	FieldTikTok      FieldType = "tiktok"
	FieldWebsite     FieldType = "website"
	FieldTags        FieldType = "tags"
	FieldOther       FieldType = "other"
)

// IsLink reports whether the field holds a profile or site URL.
func (f FieldType) IsLink() bool {
	switch f {
	case FieldYouTube, FieldTwitch, FieldNiconico, FieldX, FieldInstagram, FieldTikTok, FieldWebsite:
		return true
	}
	return false
}

// Valid reports whether f is a known field type.
func (f FieldType) Valid() bool {
	switch f {
	case FieldName, FieldDescription, FieldTags, FieldOther:
		return true
	}
	return f.IsLink()
}

// CorrectionItem is one proposed change inside a correction request.
type CorrectionItem struct {
	FieldType      FieldType `json:"fieldType"`
	CurrentValue   string    `json:"currentValue"`
	SuggestedValue string    `json:"suggestedValue"`
}

// CorrectionRequest proposes edits to a creator's profile.
type CorrectionRequest struct {
	ID           string           `json:"id"`
	CreatorID    string           `json:"creatorId"`
	Items        []CorrectionItem `json:"items"`
	Reason       string           `json:"reason"`
	ReferenceURL string           `json:"referenceUrl,omitempty"`
	Status       SubmissionStatus `json:"status"`
	RequestedBy  string           `json:"requestedBy,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
}
