// Package meta derives note titles, tags and timestamps from conversations.
//
// Everything here is a pure function of its input: the same conversation
// always yields the same title and the same tag list.
package meta

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aretw0/tilth/pkg/core"
)

// MaxTitleLen bounds derived titles. Truncation happens at a word boundary
// and never appends an ellipsis.
const MaxTitleLen = 80

// CreatedFormat is the timestamp layout used in frontmatter.
const CreatedFormat = "2006-01-02 15:04:05"

var (
	titlePrefix = regexp.MustCompile(`(?i)^(prompted|asked|search)\s+`)
	wsRun       = regexp.MustCompile(`\s+`)
)

// Title derives a note title from a conversation. It uses the first user
// entry's rendered text; render converts entry markup to plain text.
func Title(conv *core.Conversation, render func(string) string) string {
	var text string
	for _, e := range conv.Entries {
		if e.Role == core.RoleUser {
			text = render(e.Markup)
			break
		}
	}

	text = titlePrefix.ReplaceAllString(text, "")
	text = wsRun.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if text == "" {
		return "Untitled conversation " + conv.CreatedAt.Format("2006-01-02")
	}
	return truncateAtWord(text, MaxTitleLen)
}

// truncateAtWord cuts s to at most max runes, never mid-word and never
// mid-rune. Scripts without space word boundaries get a hard rune cut.
func truncateAtWord(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	cut := string([]rune(s)[:max])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ")
}

// Created renders the conversation timestamp for frontmatter.
func Created(t time.Time) string {
	return t.Format(CreatedFormat)
}
