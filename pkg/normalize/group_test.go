package normalize

import (
	"testing"
	"time"

	"github.com/aretw0/tilth/pkg/core"
)

func entryAt(role core.Role, markup string, ts time.Time) core.Entry {
	return core.Entry{Role: role, Markup: markup, Timestamp: ts}
}

func TestGrouper(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Merges Records Within Gap", func(t *testing.T) {
		g := NewGrouper(30 * time.Minute)

		if conv := g.Add([]core.Entry{entryAt(core.RoleUser, "a", base)}, "url-1"); conv != nil {
			t.Fatal("First add should not seal")
		}
		if conv := g.Add([]core.Entry{entryAt(core.RoleUser, "b", base.Add(5*time.Minute))}, ""); conv != nil {
			t.Fatal("Add within gap should not seal")
		}

		conv := g.Flush()
		if conv == nil {
			t.Fatal("Flush returned nil")
		}
		if len(conv.Entries) != 2 {
			t.Errorf("Expected 2 entries, got %d", len(conv.Entries))
		}
		if conv.SourceURL != "url-1" {
			t.Errorf("Expected first record's source URL, got %q", conv.SourceURL)
		}
		if !conv.CreatedAt.Equal(base) {
			t.Errorf("CreatedAt should be first timestamp, got %v", conv.CreatedAt)
		}
	})

	t.Run("Splits On Session Gap", func(t *testing.T) {
		g := NewGrouper(30 * time.Minute)

		g.Add([]core.Entry{entryAt(core.RoleUser, "a", base)}, "")
		sealed := g.Add([]core.Entry{entryAt(core.RoleUser, "b", base.Add(31*time.Minute))}, "")
		if sealed == nil {
			t.Fatal("Expected a sealed conversation")
		}
		if len(sealed.Entries) != 1 || sealed.Entries[0].Markup != "a" {
			t.Errorf("Wrong sealed conversation: %+v", sealed.Entries)
		}

		rest := g.Flush()
		if rest == nil || len(rest.Entries) != 1 || rest.Entries[0].Markup != "b" {
			t.Errorf("Wrong pending conversation: %+v", rest)
		}
	})

	t.Run("Sorts Entries Chronologically", func(t *testing.T) {
		g := NewGrouper(30 * time.Minute)

		g.Add([]core.Entry{entryAt(core.RoleUser, "later", base.Add(time.Minute))}, "")
		g.Add([]core.Entry{entryAt(core.RoleUser, "earlier", base)}, "")

		conv := g.Flush()
		if conv.Entries[0].Markup != "earlier" || conv.Entries[1].Markup != "later" {
			t.Errorf("Entries not sorted: %+v", conv.Entries)
		}
		if !conv.CreatedAt.Equal(base) {
			t.Errorf("CreatedAt should be earliest timestamp, got %v", conv.CreatedAt)
		}
	})

	t.Run("Flush On Empty Returns Nil", func(t *testing.T) {
		g := NewGrouper(0)
		if conv := g.Flush(); conv != nil {
			t.Errorf("Expected nil, got %+v", conv)
		}
	})
}
