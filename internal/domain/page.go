package domain

// Page is one slice of an ordered, filtered result set.
// TotalCount is the post-filter count before pagination.
type Page[T any] struct {
	Items      []T  `json:"items"`
	TotalCount int  `json:"totalCount"`
	HasMore    bool `json:"hasMore"`
}

// CreatorSearchResult is a page of creators.
type CreatorSearchResult = Page[Creator]

// TagSearchResult is a page of tags.
type TagSearchResult = Page[Tag]
