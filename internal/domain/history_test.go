package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushHistory(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		q       string
		want    []string
	}{
		{"empty", nil, "fps", []string{"fps"}},
		{"prepend", []string{"a", "b"}, "c", []string{"c", "a", "b"}},
		{"promote duplicate", []string{"a", "b", "c"}, "c", []string{"c", "a", "b"}},
		{"trimmed", []string{"a"}, "  b ", []string{"b", "a"}},
		{"case sensitive", []string{"FPS"}, "fps", []string{"fps", "FPS"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PushHistory(tt.entries, tt.q))
		})
	}
}

func TestPushHistory_Bounded(t *testing.T) {
	var h []string
	for i := range 15 {
		h = PushHistory(h, fmt.Sprintf("q%d", i))
	}
	assert.Len(t, h, MaxSearchHistory)
	assert.Equal(t, "q14", h[0])
	assert.Equal(t, "q5", h[MaxSearchHistory-1])

	h = PushHistory(h, "q9")
	assert.Len(t, h, MaxSearchHistory)
	assert.Equal(t, "q9", h[0])
	assert.Equal(t, "q14", h[1])
}
