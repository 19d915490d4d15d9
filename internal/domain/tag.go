package domain

import "time"

// Tag is a categorical label attachable to creators. ParentTagID forms an
// optional shallow tree; it is a reference, not ownership.
type Tag struct {
	ID           string    `json:"id" yaml:"id"`
	DisplayName  string    `json:"displayName" yaml:"displayName"`
	TagName      string    `json:"tagName" yaml:"tagName"`
	ClickedCount int       `json:"clickedCount" yaml:"clickedCount"`
	CreatedAt    time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" yaml:"updatedAt"`
	ParentTagID  string    `json:"parentTagId,omitempty" yaml:"parentTagId"`
	ChildTagIDs  []string  `json:"childTagIds,omitempty" yaml:"childTagIds"`
}

// HasParent reports whether the tag references a parent.
func (t Tag) HasParent() bool { return t.ParentTagID != "" }
