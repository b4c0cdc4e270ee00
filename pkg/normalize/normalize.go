// Package normalize maps raw export records onto the conversation domain.
//
// Records come off the stream loosely typed. Each one is validated against
// the known activity shape and turned into one or two conversation entries
// (the user prompt and, when present, the assistant reply). Records that do
// not match the shape are rejected with a RecordError so the run can skip
// them and move on.
package normalize

import (
	"encoding/json"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aretw0/tilth/pkg/core"
	"github.com/aretw0/tilth/pkg/stream"
)

// rawRecord mirrors the subset of the activity schema we care about.
// Unknown fields are ignored for forward compatibility.
type rawRecord struct {
	Header      string           `json:"header"`
	Title       string           `json:"title"`
	TitleURL    string           `json:"titleUrl"`
	Time        string           `json:"time"`
	Products    []string         `json:"products"`
	SafeHTML    json.RawMessage  `json:"safeHtmlItem"`
	Attachments []attachmentInfo `json:"attachmentInfo"`
}

type attachmentInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

// promptPrefix strips the activity labels the export prepends to prompts.
var promptPrefix = regexp.MustCompile(`(?i)^(prompted|asked|search)\s+`)

var timeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Turns validates a raw record and maps it to chronological entries.
// The second return value is the record's source URL, if any.
func Turns(rec stream.Record) ([]core.Entry, string, *core.RecordError) {
	var raw rawRecord
	if err := json.Unmarshal(rec.Raw, &raw); err != nil {
		return nil, "", &core.RecordError{Index: rec.Index, Reason: "unrecognized shape: " + err.Error()}
	}

	if !isChatRecord(raw) {
		return nil, "", &core.RecordError{Index: rec.Index, Reason: "not a chat activity record"}
	}

	ts, ok := parseTime(raw.Time)
	if !ok {
		return nil, "", &core.RecordError{Index: rec.Index, Reason: "unparseable timestamp " + clip(raw.Time)}
	}

	prompt := strings.TrimSpace(promptPrefix.ReplaceAllString(raw.Title, ""))
	response := responseMarkup(raw.SafeHTML)
	refs := attachmentRefs(raw.Attachments)

	if prompt == "" && response == "" && len(refs) == 0 {
		return nil, "", &core.RecordError{Index: rec.Index, Reason: "record has no content"}
	}

	var entries []core.Entry
	if prompt != "" || len(refs) > 0 {
		entries = append(entries, core.Entry{
			Role:        core.RoleUser,
			Markup:      prompt,
			Timestamp:   ts,
			Attachments: refs,
		})
	}
	if response != "" {
		entries = append(entries, core.Entry{
			Role:      core.RoleAssistant,
			Markup:    response,
			Timestamp: ts,
		})
	}

	return entries, raw.TitleURL, nil
}

func isChatRecord(raw rawRecord) bool {
	if strings.Contains(raw.Header, "Gemini Apps") {
		return true
	}
	for _, p := range raw.Products {
		if p == "Gemini" || p == "Bard" || p == "Gemini Apps" {
			return true
		}
	}
	return strings.Contains(raw.TitleURL, "gemini.google.com")
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, f := range timeFormats {
		if ts, err := time.Parse(f, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// responseMarkup extracts the reply markup. The export wraps it either as a
// plain string, an object with an "html" field, or a list of such objects.
func responseMarkup(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}

	type htmlItem struct {
		HTML string `json:"html"`
	}

	var one htmlItem
	if err := json.Unmarshal(raw, &one); err == nil && one.HTML != "" {
		return one.HTML
	}

	var many []htmlItem
	if err := json.Unmarshal(raw, &many); err == nil {
		var parts []string
		for _, it := range many {
			if it.HTML != "" {
				parts = append(parts, it.HTML)
			}
		}
		return strings.Join(parts, "\n")
	}

	return ""
}

// takeoutDownload extracts the file path embedded in an attachment URL.
var takeoutDownload = regexp.MustCompile(`takeout-download[^/]*/(.+)`)

func attachmentRefs(infos []attachmentInfo) []core.AttachmentRef {
	var refs []core.AttachmentRef
	for _, info := range infos {
		name := info.Path
		if name == "" {
			if m := takeoutDownload.FindStringSubmatch(info.URL); m != nil {
				name = m[1]
			}
		}
		if name == "" {
			name = info.Name
		}
		if name == "" {
			continue
		}
		refs = append(refs, core.AttachmentRef{
			Name: name,
			Kind: core.KindOf(path.Base(name)),
		})
	}
	return refs
}

func clip(s string) string {
	if utf8.RuneCountInString(s) > 40 {
		return string([]rune(s)[:40]) + "..."
	}
	return s
}
