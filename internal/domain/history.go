package domain

import "strings"

// MaxSearchHistory bounds the number of remembered queries.
const MaxSearchHistory = 10

// PushHistory puts q in front of entries. An exact duplicate is moved to the
// front instead of repeated and the result is cut to MaxSearchHistory.
func PushHistory(entries []string, q string) []string {
	q = strings.TrimSpace(q)
	out := make([]string, 0, min(len(entries)+1, MaxSearchHistory))
	out = append(out, q)
	for _, e := range entries {
		if len(out) == MaxSearchHistory {
			break
		}
		if e != q {
			out = append(out, e)
		}
	}
	return out
}
