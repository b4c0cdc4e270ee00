// Package tilth converts a chat history export into a Markdown note vault.
//
// It ingests the export's activity artifact as a stream, groups the records
// into conversations, renders their markup to readable Markdown, synthesizes
// titles and keyword tags, resolves attachments into a shared folder, and
// emits one frontmatter note per conversation.
//
// Usage:
//
//	stats, err := tilth.Convert(ctx, tilth.Config{
//		ExportRoot: "/path/to/Takeout",
//		OutputRoot: "/path/to/Vault/Imports",
//		Logger:     slog.Default(),
//	})
package tilth

import (
	"context"

	"github.com/aretw0/tilth/pkg/convert"
	"github.com/aretw0/tilth/pkg/core"
)

// Version exposes the version of the library.
const Version = "0.1.0"

// --- Types ---

// Config is a public alias for the converter configuration.
type Config = convert.Config

// Runner is a public alias for the conversion runner.
type Runner = convert.Runner

// Stats is a public alias for the run statistics.
type Stats = core.Stats

// --- Factory ---

// NewRunner creates a conversion runner.
func NewRunner(cfg Config) *Runner {
	return convert.NewRunner(cfg)
}

// Convert runs a full conversion with the given configuration.
func Convert(ctx context.Context, cfg Config) (Stats, error) {
	return convert.NewRunner(cfg).Run(ctx)
}
