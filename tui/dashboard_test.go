package tui

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exact", truncate("exact", 5))
	assert.Equal(t, "long…", truncate("longer than that", 5))
	assert.Equal(t, "one two", truncate("one\ntwo", 10))
}

func TestTruncateMultibyte(t *testing.T) {
	s := "héllo wörld, quite a lóng prompt"
	got := truncate(s, 10)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "héllo wör…", got)

	// Cutting right before a multibyte rune must not split it.
	got = truncate("aéb", 2)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "a…", got)
}
