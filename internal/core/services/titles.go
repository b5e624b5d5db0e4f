package services

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxFallbackTitle = 48
	maxTitle         = 80
	untitled         = "Untitled idea"
)

// FallbackTitle derives a title from text locally: its first non-blank line,
// cut to 48 characters on a word boundary. It never returns "".
func FallbackTitle(text string) string {
	line := stripDecoration(firstLine(text))
	if line == "" {
		return untitled
	}
	return shorten(line, maxFallbackTitle)
}

// CleanTitle strips the wrapping that models tend to add around a title:
// labels, quotes, markdown and a trailing period.
func CleanTitle(raw string) string {
	line := firstLine(raw)
	if idx := strings.Index(line, ":"); idx >= 0 && strings.EqualFold(strings.TrimSpace(line[:idx]), "title") {
		line = line[idx+1:]
	}
	line = stripDecoration(line)
	line = stripDecoration(strings.TrimRight(line, "."))
	if line == "" {
		return ""
	}
	return shorten(line, maxTitle)
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}

// stripDecoration removes list numbering, markdown emphasis and quotes.
func stripDecoration(s string) string {
	s = strings.TrimSpace(s)
	if m := numberedLine.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = strings.TrimLeft(s, "#-*> ")
	return strings.TrimSpace(strings.Trim(s, "\"'`*_“”‘’ "))
}

// shorten cuts s to at most n runes, preferring the last word boundary and
// marking the cut with an ellipsis.
func shorten(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := runes[:n-1]
	if !unicode.IsSpace(runes[n-1]) {
		for i := len(cut) - 1; i > n/2; i-- {
			if unicode.IsSpace(cut[i]) {
				cut = cut[:i]
				break
			}
		}
	}
	return strings.TrimRightFunc(string(cut), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) + "…"
}
