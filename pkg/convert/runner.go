// Package convert orchestrates the export-to-vault pipeline.
//
// The Runner drives one sequential pass: stream records, normalize and group
// them into conversations, then render, tag, resolve attachments and write a
// note per conversation. Each conversation sits inside its own failure
// boundary; only a broken export artifact aborts the run.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/tilth/pkg/attach"
	"github.com/aretw0/tilth/pkg/core"
	"github.com/aretw0/tilth/pkg/markup"
	"github.com/aretw0/tilth/pkg/meta"
	"github.com/aretw0/tilth/pkg/normalize"
	"github.com/aretw0/tilth/pkg/stream"
	"github.com/aretw0/tilth/pkg/vault"
)

// DefaultActivityPath is where the activity artifact sits inside an export.
const DefaultActivityPath = "My Activity/Gemini Apps/MyActivity.json"

// sourceLabel names the provenance in each note's footer.
const sourceLabel = "Google Takeout"

// Config holds the conversion configuration. It is immutable for the
// lifetime of a Runner.
type Config struct {
	ExportRoot     string
	ActivityPath   string   // relative to ExportRoot; defaults to DefaultActivityPath
	OutputRoot     string
	SearchDirs     []string // attachment source dirs; defaults to [ExportRoot]
	OrganizeByDate bool
	DryRun         bool
	SessionGap     time.Duration
	MaxTags        int
	Logger         *slog.Logger
	Now            func() time.Time // injectable clock for the import footer
}

// Runner executes a conversion run.
type Runner struct {
	cfg      Config
	resolver *attach.Resolver
	writer   *vault.Writer

	mu      sync.RWMutex
	stats   core.Stats
	running bool
}

// NewRunner creates a runner, applying config defaults.
func NewRunner(cfg Config) *Runner {
	if cfg.ActivityPath == "" {
		cfg.ActivityPath = DefaultActivityPath
	}
	if len(cfg.SearchDirs) == 0 {
		cfg.SearchDirs = []string{cfg.ExportRoot}
	}
	if cfg.SessionGap <= 0 {
		cfg.SessionGap = normalize.DefaultSessionGap
	}
	if cfg.MaxTags <= 0 {
		cfg.MaxTags = meta.DefaultMaxTags
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Runner{
		cfg: cfg,
		resolver: attach.NewResolver(attach.Config{
			SearchDirs: cfg.SearchDirs,
			OutDir:     filepath.Join(cfg.OutputRoot, attach.DirName),
			DryRun:     cfg.DryRun,
			Logger:     cfg.Logger,
		}),
		writer: &vault.Writer{
			Root:   cfg.OutputRoot,
			ByDate: cfg.OrganizeByDate,
			DryRun: cfg.DryRun,
			Logger: cfg.Logger,
		},
	}
}

// Run converts the export. It returns the run statistics; the error is
// non-nil only for the fatal input case.
func (r *Runner) Run(ctx context.Context) (core.Stats, error) {
	r.setRunning(true)
	defer r.setRunning(false)

	if r.cfg.DryRun && r.cfg.Logger != nil {
		r.cfg.Logger.Info("dry run enabled, no files will be written")
	}

	reader, err := stream.Open(filepath.Join(r.cfg.ExportRoot, filepath.FromSlash(r.cfg.ActivityPath)))
	if err != nil {
		return r.snapshot(), err
	}
	defer reader.Close()

	grouper := normalize.NewGrouper(r.cfg.SessionGap)

	for reader.Next() {
		select {
		case <-ctx.Done():
			return r.snapshot(), ctx.Err()
		default:
		}

		rec := reader.Record()
		r.bump(func(s *core.Stats) { s.RecordsRead++ })

		entries, sourceURL, recErr := normalize.Turns(rec)
		if recErr != nil {
			r.bump(func(s *core.Stats) { s.RecordsSkipped++ })
			if r.cfg.Logger != nil {
				r.cfg.Logger.Warn("record skipped", "index", recErr.Index, "reason", recErr.Reason)
			}
			continue
		}

		if conv := grouper.Add(entries, sourceURL); conv != nil {
			r.convert(conv)
		}
	}
	if err := reader.Err(); err != nil {
		return r.snapshot(), err
	}

	if conv := grouper.Flush(); conv != nil {
		r.convert(conv)
	}

	r.bump(func(s *core.Stats) { s.AttachmentsCopied = r.resolver.Copied() })

	stats := r.snapshot()
	r.summarize(stats)
	return stats, nil
}

// convert processes one conversation inside its failure boundary.
func (r *Runner) convert(conv *core.Conversation) {
	r.bump(func(s *core.Stats) { s.Conversations++ })

	note := r.buildNote(conv)
	path, err := r.writer.Write(note)
	if err != nil {
		r.bump(func(s *core.Stats) { s.Failures++ })
		if r.cfg.Logger != nil {
			r.cfg.Logger.Error("conversation failed",
				"title", note.Meta.Title,
				"created", conv.CreatedAt,
				"error", err,
			)
		}
		return
	}

	r.bump(func(s *core.Stats) { s.NotesWritten++ })
	if r.cfg.Logger != nil {
		r.cfg.Logger.Debug("conversation converted", "path", path, "entries", len(conv.Entries))
	}
}

// buildNote renders the conversation body and synthesizes its metadata.
func (r *Runner) buildNote(conv *core.Conversation) core.Note {
	title := meta.Title(conv, markup.Render)

	var sections []string
	var tagText strings.Builder

	for _, entry := range conv.Entries {
		rendered := markup.Render(entry.Markup)
		tagText.WriteString(rendered)
		tagText.WriteString(" ")

		var sb strings.Builder
		sb.WriteString("## ")
		sb.WriteString(roleLabel(entry.Role))
		sb.WriteString("\n\n")
		if rendered != "" {
			sb.WriteString(rendered)
			sb.WriteString("\n")
		}
		for _, ref := range entry.Attachments {
			sb.WriteString("\n")
			sb.WriteString(r.embed(ref))
			sb.WriteString("\n")
		}
		sections = append(sections, strings.TrimRight(sb.String(), "\n"))
	}

	var body strings.Builder
	body.WriteString("# ")
	body.WriteString(title)
	body.WriteString("\n\n")
	body.WriteString(strings.Join(sections, "\n\n---\n\n"))
	body.WriteString("\n\n---\n*Imported from ")
	body.WriteString(sourceLabel)
	body.WriteString(" on ")
	body.WriteString(r.cfg.Now().Format("2006-01-02"))
	body.WriteString("*")

	return core.Note{
		Meta: core.NoteMeta{
			Title:   title,
			Created: conv.CreatedAt,
			Source:  conv.SourceURL,
			Tags:    meta.Tags(tagText.String(), r.cfg.MaxTags),
		},
		Body: body.String(),
	}
}

// embed resolves one attachment reference to its body representation.
func (r *Runner) embed(ref core.AttachmentRef) string {
	name, err := r.resolver.Resolve(ref)
	if err != nil {
		if errors.Is(err, core.ErrAttachmentMissing) {
			r.bump(func(s *core.Stats) { s.AttachmentsMissing++ })
			return attach.Placeholder(ref.Name)
		}
		// Copy failures degrade like a miss, but are logged loudly.
		r.bump(func(s *core.Stats) { s.AttachmentsMissing++ })
		if r.cfg.Logger != nil {
			r.cfg.Logger.Error("attachment copy failed", "name", ref.Name, "error", err)
		}
		return attach.Placeholder(ref.Name)
	}
	return attach.Embed(ref.Kind, name)
}

func roleLabel(role core.Role) string {
	if role == core.RoleUser {
		return "You"
	}
	return "Gemini"
}

func (r *Runner) summarize(stats core.Stats) {
	if r.cfg.Logger != nil {
		r.cfg.Logger.Info("conversion complete",
			"records_read", stats.RecordsRead,
			"records_skipped", stats.RecordsSkipped,
			"conversations", stats.Conversations,
			"notes_written", stats.NotesWritten,
			"failures", stats.Failures,
			"attachments_copied", stats.AttachmentsCopied,
			"attachments_missing", stats.AttachmentsMissing,
			"dry_run", r.cfg.DryRun,
		)
	}

	fmt.Printf("\n=== Conversion Summary ===\n")
	fmt.Printf("Records read: %d\n", stats.RecordsRead)
	fmt.Printf("Records skipped: %d\n", stats.RecordsSkipped)
	fmt.Printf("Conversations: %d\n", stats.Conversations)
	fmt.Printf("Notes written: %d\n", stats.NotesWritten)
	fmt.Printf("Failures: %d\n", stats.Failures)
	fmt.Printf("Attachments copied: %d\n", stats.AttachmentsCopied)
	fmt.Printf("Attachments missing: %d\n", stats.AttachmentsMissing)
	if r.cfg.DryRun {
		fmt.Printf("Mode: DRY RUN (no files written)\n")
	}
}

func (r *Runner) bump(f func(*core.Stats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f(&r.stats)
}

func (r *Runner) snapshot() core.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

func (r *Runner) setRunning(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = v
}
