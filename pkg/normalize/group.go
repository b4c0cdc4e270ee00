package normalize

import (
	"sort"
	"time"

	"github.com/aretw0/tilth/pkg/core"
)

// DefaultSessionGap is the idle time that starts a new conversation.
const DefaultSessionGap = 30 * time.Minute

// Grouper accumulates entries into conversations split on session gaps.
// It holds at most one conversation at a time, so grouping does not grow
// with input size. Entries are expected roughly in export order; each sealed
// conversation is re-sorted so its entries end up chronological even when
// the export interleaves slightly.
type Grouper struct {
	gap       time.Duration
	entries   []core.Entry
	sourceURL string
	last      time.Time
}

// NewGrouper creates a grouper with the given session gap.
// A zero or negative gap falls back to DefaultSessionGap.
func NewGrouper(gap time.Duration) *Grouper {
	if gap <= 0 {
		gap = DefaultSessionGap
	}
	return &Grouper{gap: gap}
}

// Add appends a record's entries. When the record falls outside the session
// gap, the pending conversation is sealed and returned; otherwise nil.
func (g *Grouper) Add(entries []core.Entry, sourceURL string) *core.Conversation {
	if len(entries) == 0 {
		return nil
	}

	var sealed *core.Conversation
	ts := entries[0].Timestamp
	if len(g.entries) > 0 && absGap(ts, g.last) > g.gap {
		sealed = g.seal()
	}

	if len(g.entries) == 0 {
		g.sourceURL = sourceURL
	}
	g.entries = append(g.entries, entries...)
	g.last = entries[len(entries)-1].Timestamp

	return sealed
}

// Flush seals and returns the pending conversation, or nil if empty.
func (g *Grouper) Flush() *core.Conversation {
	if len(g.entries) == 0 {
		return nil
	}
	return g.seal()
}

func (g *Grouper) seal() *core.Conversation {
	entries := g.entries
	g.entries = nil
	g.last = time.Time{}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	conv := &core.Conversation{
		Entries:   entries,
		SourceURL: g.sourceURL,
		CreatedAt: entries[0].Timestamp,
	}
	g.sourceURL = ""
	return conv
}

func absGap(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
