package validation

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxQueryLength  = 100
	MaxTagsPerQuery = 10
	MaxPageLimit    = 100
)

// Query requires a trimmed query of 1..MaxQueryLength characters.
func Query(q string) error {
	t := strings.TrimSpace(q)
	if t == "" {
		return fail(ReasonEmptyQuery, "query", "query is empty")
	}
	if utf8.RuneCountInString(t) > MaxQueryLength {
		return fail(ReasonInvalidQuery, "query", "query exceeds %d characters", MaxQueryLength)
	}
	return nil
}

// OptionalQuery accepts an empty query and otherwise applies the length limit.
func OptionalQuery(field, q string) error {
	if utf8.RuneCountInString(strings.TrimSpace(q)) > MaxQueryLength {
		return fail(ReasonInvalidQuery, field, "query exceeds %d characters", MaxQueryLength)
	}
	return nil
}

// Tokenize splits a query on whitespace, discarding empty tokens.
func Tokenize(q string) []string {
	return strings.Fields(q)
}

// TagIDs requires a non-empty list of non-blank ids for batch lookups.
func TagIDs(ids []string) error {
	if len(ids) == 0 {
		return fail(ReasonEmptyTagIDs, "tagIds", "at least one tag id is required")
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fail(ReasonEmptyTagIDs, "tagIds", "tag id must not be blank")
		}
	}
	return nil
}

// CreatorTagSearch applies TagIDs and caps the list at MaxTagsPerQuery.
func CreatorTagSearch(ids []string) error {
	if err := TagIDs(ids); err != nil {
		return err
	}
	if len(ids) > MaxTagsPerQuery {
		return fail(ReasonTooManyTags, "tagIds", "at most %d tags per search", MaxTagsPerQuery)
	}
	return nil
}

// Page checks an offset/limit pair.
func Page(offset, limit int) error {
	if offset < 0 {
		return fail(ReasonInvalidPagination, "offset", "offset must not be negative")
	}
	return Limit(limit)
}

// Limit checks a result size bound.
func Limit(limit int) error {
	if limit < 0 || limit > MaxPageLimit {
		return fail(ReasonInvalidPagination, "limit", "limit must be within 0..%d", MaxPageLimit)
	}
	return nil
}

// CreatorID requires a non-blank creator id.
func CreatorID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fail(ReasonEmptyCreatorID, "creatorId", "creator id is required")
	}
	return nil
}

// SearchText requires a non-blank history entry within the query limit.
func SearchText(s string) error {
	t := strings.TrimSpace(s)
	if t == "" {
		return fail(ReasonEmptySearchText, "query", "search text is empty")
	}
	if utf8.RuneCountInString(t) > MaxQueryLength {
		return fail(ReasonInvalidQuery, "query", "query exceeds %d characters", MaxQueryLength)
	}
	return nil
}
