package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumberedList(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "simple list",
			text: "1. Alpha\n2. Beta\n3. Gamma",
			want: []string{"Alpha", "Beta", "Gamma"},
		},
		{
			name: "wrapped item",
			text: "1. Alpha\ncontinued\n2. Beta",
			want: []string{"Alpha continued", "Beta"},
		},
		{
			name: "preamble and blank lines",
			text: "Here are some ideas:\n\n1. Alpha\n\n2.   Beta  \n   more beta\n3. Gamma\n",
			want: []string{"Alpha", "Beta more beta", "Gamma"},
		},
		{
			name: "indented numbers over ten",
			text: "  9. Nine\n 10. Ten\n11.Eleven",
			want: []string{"Nine", "Ten", "Eleven"},
		},
		{
			name: "bare number yields empty item",
			text: "1.\n2. Beta\n3. Gamma",
			want: []string{"", "Beta", "Gamma"},
		},
		{
			name: "bare number continued by next line",
			text: "1.\nAlpha on its own line\n2. Beta",
			want: []string{"Alpha on its own line", "Beta"},
		},
		{
			name: "empty input",
			text: "",
			want: []string{},
		},
		{
			name: "whitespace only",
			text: " \n\t\n",
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumberedList(tt.text))
		})
	}
}

func TestParseNumberedList_DegradedFallback(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "sentences",
			text: "Alpha. Beta. Gamma.",
			want: []string{"Alpha.", "Beta.", "Gamma."},
		},
		{
			name: "mixed punctuation",
			text: "Really?! Yes. Go now!",
			want: []string{"Really?!", "Yes.", "Go now!"},
		},
		{
			name: "semicolons and bullets",
			text: "• solar kites; wind sails\n• tidal mills",
			want: []string{"solar kites", "wind sails", "tidal mills"},
		},
		{
			name: "decimals are not sentence ends",
			text: "Raise it by 2.5 percent. Then wait.",
			want: []string{"Raise it by 2.5 percent.", "Then wait."},
		},
		{
			name: "single numbered item is re-split",
			text: "1. Build a kite. Fly it at dawn.",
			want: []string{"Build a kite.", "Fly it at dawn."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNumberedList(tt.text)
			assert.Equal(t, tt.want, got)
			for _, item := range got {
				assert.NotEmpty(t, item)
			}
		})
	}
}

func TestCompactItems(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, CompactItems([]string{"", " a ", "  ", "b"}))
	assert.Empty(t, CompactItems(nil))
}
