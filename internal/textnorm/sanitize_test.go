package textnorm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeForFilename(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{name: "plain", in: "Maria Silva", maxLen: 100, want: "Maria Silva"},
		{name: "illegal characters", in: `Python: <Avançado> "2024" a/b\c|d?e*`, maxLen: 100, want: "Python Avançado 2024 abcde"},
		{name: "control characters", in: "Maria\x00\x1fSilva\x7f\u0085X", maxLen: 100, want: "Maria Silva X"},
		{name: "collapses whitespace", in: "  a \t\n b  ", maxLen: 100, want: "a b"},
		{name: "truncates by rune", in: "Programação", maxLen: 8, want: "Programa"},
		{name: "trims after truncation", in: "abc def", maxLen: 4, want: "abc"},
		{name: "no limit", in: strings.Repeat("x", 300), maxLen: 0, want: strings.Repeat("x", 300)},
		{name: "empty", in: "", maxLen: 10, want: "Unknown"},
		{name: "whitespace only", in: " \t\n", maxLen: 10, want: "Unknown"},
		{name: "only illegal", in: "???", maxLen: 10, want: "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeForFilename(tt.in, tt.maxLen))
		})
	}
}

func TestSanitizeForFilenameNeverReturnsIllegal(t *testing.T) {
	inputs := []string{`<>:"/\|?*`, "a<b>c", "C:\\Users\\x", "  ", "Curso: Go/Rust?", "\x01\x02"}
	for _, in := range inputs {
		got := SanitizeForFilename(in, 50)
		assert.NotEmpty(t, got)
		assert.False(t, strings.ContainsAny(got, illegalFilenameChars), "got %q", got)
		assert.LessOrEqual(t, utf8.RuneCountInString(got), 50)
	}
}

func TestCorrector(t *testing.T) {
	c := NewCorrector([]Correction{
		{From: "AJves", To: "Alves"},
		{From: "SiJva", To: "Silva"},
		{From: "", To: "ignored"},
	})
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "Maria Alves Silva", c.Apply("Maria AJves SiJva"))
	assert.Equal(t, "untouched", c.Apply("untouched"))

	var nilCorrector *Corrector
	assert.Equal(t, "x", nilCorrector.Apply("x"))
	assert.Equal(t, "x", NewCorrector(nil).Apply("x"))
}
