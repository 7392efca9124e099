package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloseMatch(t *testing.T) {
	titles := []string{"python course", "java course"}

	tests := []struct {
		name   string
		word   string
		want   string
		wantOK bool
	}{
		{"typo", "tell me about pythn course", "python course", true},
		{"exact", "java course", "java course", true},
		{"unrelated", "where is the office", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := closeMatch(tt.word, titles, 0.5)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCloseMatchTiePrefersGreaterCandidate(t *testing.T) {
	got, ok := closeMatch("ab", []string{"ac", "ad"}, 0.5)
	assert.True(t, ok)
	assert.Equal(t, "ad", got)
}

func TestCloseMatchMultibyte(t *testing.T) {
	got, ok := closeMatch("नमस्त", []string{"नमस्ते"}, 0.5)
	assert.True(t, ok)
	assert.Equal(t, "नमस्ते", got)
}
