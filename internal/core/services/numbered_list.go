package services

import (
	"regexp"
	"strings"
	"unicode"
)

var numberedLine = regexp.MustCompile(`^\s*\d+\.\s*(.*)$`)

// ParseNumberedList turns generated text into list items.
//
// Lines starting with "N." open a new item; other non-blank lines are folded
// into the open item, so items wrapped across lines stay whole. Text before the
// first numbered line is preamble and is dropped. When this yields at most one
// item the backend most likely answered in prose, and the text is split into
// sentences instead.
//
// A bare "N." line produces an empty item; use CompactItems to drop those.
func ParseNumberedList(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	var (
		items   []string
		current string
		open    bool
	)
	for _, line := range strings.Split(text, "\n") {
		if m := numberedLine.FindStringSubmatch(line); m != nil {
			if open {
				items = append(items, current)
			}
			current = strings.TrimSpace(m[1])
			open = true
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" || !open {
			continue
		}
		if current == "" {
			current = line
		} else {
			current += " " + line
		}
	}
	if open && current != "" {
		items = append(items, current)
	}

	if len(items) <= 1 {
		if sentences := splitSentences(text); len(sentences) > 0 {
			return sentences
		}
	}
	if items == nil {
		return []string{}
	}
	return items
}

// CompactItems drops blank items, keeping order.
func CompactItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// splitSentences cuts text after sentence-ending punctuation followed by
// whitespace, and at semicolons and bullet characters (which are dropped).
// Pieces that are only list numbering ("1.", "2)") are discarded.
func splitSentences(text string) []string {
	runes := []rune(text)
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		s := strings.TrimSpace(cur.String())
		cur.Reset()
		if s != "" && !isNumbering(s) {
			out = append(out, s)
		}
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == ';' || isBullet(r):
			flush()
		case isSentenceEnd(r):
			cur.WriteRune(r)
			for i+1 < len(runes) && isSentenceEnd(runes[i+1]) {
				i++
				cur.WriteRune(runes[i])
			}
			if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				flush()
			}
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isBullet(r rune) bool {
	switch r {
	case '•', '·', '●', '▪':
		return true
	}
	return false
}

func isNumbering(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ')' {
			return false
		}
	}
	return true
}
