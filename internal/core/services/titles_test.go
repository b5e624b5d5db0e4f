package services

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct{ in, want string }{
		{`Title: "Bright Idea".`, "Bright Idea"},
		{"**Moss Power**", "Moss Power"},
		{"# Tidal Dreams\nextra chatter", "Tidal Dreams"},
		{"\n\n  “Quiet Engines”  ", "Quiet Engines"},
		{"title: kites over the sea.", "kites over the sea"},
		{"1. Numbered Title", "Numbered Title"},
		{`""`, ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanTitle(tt.in), "input %q", tt.in)
	}
}

func TestFallbackTitle(t *testing.T) {
	assert.Equal(t, "Short idea", FallbackTitle("Short idea\nwith a second line"))
	assert.Equal(t, "Untitled idea", FallbackTitle("  \n "))

	long := "Harvest energy from the daily temperature swing of desert sand using cheap materials"
	got := FallbackTitle(long)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), 48)
	assert.Equal(t, "Harvest energy from the daily temperature swing…", got)

	noSpaces := "Supercalifragilisticexpialidociouslyextraordinarilylong"
	got = FallbackTitle(noSpaces)
	assert.Equal(t, 48, utf8.RuneCountInString(got))
	assert.Equal(t, "…", string([]rune(got)[47:]))
}
