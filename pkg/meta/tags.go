package meta

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// BaseTag marks every converted note's provenance. It is always the first
// tag and is never duplicated by derived tags.
const BaseTag = "ai/gemini/export"

// DefaultMaxTags bounds the number of derived keyword tags per note.
const DefaultMaxTags = 5

// Tags derives keyword tags from the conversation's combined rendered text.
// The result is [BaseTag, derived...] with no duplicates. Derived tags are
// the max most frequent eligible tokens, frequency ties broken by first
// occurrence, so the output is stable for identical input.
func Tags(text string, max int) []string {
	if max <= 0 {
		max = DefaultMaxTags
	}

	type token struct {
		word  string
		count int
		first int
	}

	counts := map[string]*token{}
	var order []*token

	pos := 0
	for _, word := range tokenize(text) {
		pos++
		if len(word) < 3 || stopwords[word] || !alphabetic(word) {
			continue
		}
		if t, ok := counts[word]; ok {
			t.count++
			continue
		}
		t := &token{word: word, count: 1, first: pos}
		counts[word] = t
		order = append(order, t)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	tags := []string{BaseTag}
	seen := map[string]bool{BaseTag: true}
	for _, t := range order {
		if len(tags) > max {
			break
		}
		tag := SanitizeTag(t.word)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// tokenize lowercases the text and splits on non-alphanumeric boundaries.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func alphabetic(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

var (
	tagIllegal   = regexp.MustCompile(`[^a-z0-9\-_/]`)
	tagHyphenRun = regexp.MustCompile(`-{2,}`)
)

// SanitizeTag converts a token into a valid vault tag. Returns "" when
// nothing usable remains.
func SanitizeTag(s string) string {
	s = strings.ToLower(s)
	s = tagIllegal.ReplaceAllString(s, "")
	s = tagHyphenRun.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-/")
	if s == "" || unicode.IsDigit(rune(s[0])) {
		return ""
	}
	return s
}
