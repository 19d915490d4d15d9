// Package search filters, ranks and paginates in-memory catalogue data.
// Fixture-backed repositories use it directly; it is also the reference
// behaviour the backend is expected to reproduce.
package search

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the caseless form of s used for every comparison.
// A Caser is stateful, so one is built per call.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Keywords is a tag name query: every And token must match and, when Or is
// non-empty, at least one Or token must match.
type Keywords struct {
	And []string
	Or  []string
}

// Empty reports whether the query carries no tokens.
func (k Keywords) Empty() bool {
	return len(k.And) == 0 && len(k.Or) == 0
}

type matcher struct {
	and []string
	or  []string
}

func newMatcher(k Keywords) matcher {
	return matcher{and: foldAll(k.And), or: foldAll(k.Or)}
}

func foldAll(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, Fold(t))
		}
	}
	return out
}

// match tests folded haystacks; a token matches when it is a substring of any.
func (m matcher) match(fields ...string) bool {
	hit := func(tok string) bool {
		for _, f := range fields {
			if strings.Contains(f, tok) {
				return true
			}
		}
		return false
	}
	for _, tok := range m.and {
		if !hit(tok) {
			return false
		}
	}
	if len(m.or) == 0 {
		return true
	}
	for _, tok := range m.or {
		if hit(tok) {
			return true
		}
	}
	return false
}
