// Package attach locates attachment source files and copies them into the
// shared output attachments directory.
//
// Resolution tries an exact relative-path join against each search directory
// in order; only when every directory misses does it fall back to a
// recursive basename search. Copies are deduplicated process-wide by
// absolute source path; a name collision reuses the on-disk file when the
// bytes match and gets a numeric suffix otherwise, so nothing is ever
// overwritten and re-runs stay idempotent.
package attach

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/tilth/pkg/core"
)

// DirName is the attachments directory created under the output root.
const DirName = "_attachments"

// Config configures a Resolver.
type Config struct {
	SearchDirs []string // ordered candidate source directories
	OutDir     string   // shared output attachments directory
	DryRun     bool
	Logger     *slog.Logger
}

// Resolver copies referenced files into the output tree. It is safe for
// concurrent use; the memo table and name allocation are mutex-guarded.
type Resolver struct {
	cfg Config

	mu     sync.Mutex
	copied map[string]string // absolute source path -> output filename
	taken  map[string]bool   // output filenames already allocated
}

// NewResolver creates a resolver. The output directory is created lazily on
// the first real copy, so dry runs leave the filesystem untouched.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{
		cfg:    cfg,
		copied: make(map[string]string),
		taken:  make(map[string]bool),
	}
}

// Resolve locates ref and ensures a copy exists under the output directory.
// It returns the output filename (relative to the attachments directory).
// A miss returns core.ErrAttachmentMissing; the caller substitutes a
// placeholder and the conversation still succeeds.
func (r *Resolver) Resolve(ref core.AttachmentRef) (string, error) {
	src := r.locate(ref.Name)
	if src == "" {
		if r.cfg.Logger != nil {
			r.cfg.Logger.Warn("attachment not found", "name", ref.Name)
		}
		return "", fmt.Errorf("%w: %s", core.ErrAttachmentMissing, ref.Name)
	}

	abs, err := filepath.Abs(src)
	if err != nil {
		abs = src
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if name, ok := r.copied[abs]; ok {
		return name, nil
	}

	name, err := r.place(src)
	if err != nil {
		return "", fmt.Errorf("copy attachment %s: %w", ref.Name, err)
	}
	r.copied[abs] = name

	if r.cfg.Logger != nil {
		r.cfg.Logger.Debug("attachment resolved", "source", src, "name", name, "dry_run", r.cfg.DryRun)
	}
	return name, nil
}

// Copied reports how many distinct files have been resolved so far.
func (r *Resolver) Copied() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.copied)
}

// locate finds the source file for a reference. Exact joins win over the
// recursive fallback, and search directory order is significant in both
// passes.
func (r *Resolver) locate(name string) string {
	rel := filepath.FromSlash(name)
	for _, dir := range r.cfg.SearchDirs {
		candidate := filepath.Join(dir, rel)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}

	base := filepath.Base(rel)
	for _, dir := range r.cfg.SearchDirs {
		matches, err := doublestar.Glob(os.DirFS(dir), "**/"+base, doublestar.WithFilesOnly())
		if err != nil || len(matches) == 0 {
			continue
		}
		sort.Strings(matches)
		if r.cfg.Logger != nil {
			r.cfg.Logger.Debug("attachment found via search", "name", name, "dir", dir, "match", matches[0])
		}
		return filepath.Join(dir, filepath.FromSlash(matches[0]))
	}

	return ""
}

// place reserves an output filename and lands the copy there, suffixing _1,
// _2, ... past names claimed in this run. An on-disk file with identical
// bytes is reused as-is, so a later run over the same export does not fan
// out duplicate copies. Caller holds r.mu.
func (r *Resolver) place(src string) (string, error) {
	base := sanitizeName(filepath.Base(src))
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	var data []byte
	if !r.cfg.DryRun {
		var err error
		data, err = os.ReadFile(src)
		if err != nil {
			return "", fmt.Errorf("read source: %w", err)
		}
	}

	name := base
	for n := 1; ; n++ {
		if !r.taken[name] {
			if r.cfg.DryRun {
				r.taken[name] = true
				return name, nil
			}

			dst := filepath.Join(r.cfg.OutDir, name)
			existing, err := os.ReadFile(dst)
			if os.IsNotExist(err) {
				if err := writeFileAtomic(dst, data); err != nil {
					return "", err
				}
				r.taken[name] = true
				return name, nil
			}
			if err != nil {
				return "", fmt.Errorf("inspect %s: %w", dst, err)
			}
			if bytes.Equal(existing, data) {
				// Copied by an earlier run, nothing to do.
				r.taken[name] = true
				return name, nil
			}
		}
		name = fmt.Sprintf("%s_%d%s", stem, n, ext)
	}
}

// Embed renders the body reference for a resolved attachment. Media kinds
// embed inline; everything else links with the filename as label.
func Embed(kind core.AttachmentKind, name string) string {
	ref := DirName + "/" + name
	switch kind {
	case core.KindImage, core.KindAudio, core.KindVideo:
		return "![[" + ref + "]]"
	default:
		return "[[" + ref + "|" + name + "]]"
	}
}

// Placeholder is embedded in the note body when an attachment cannot be
// located, so the reader still sees what was referenced.
func Placeholder(name string) string {
	return "*[Attachment: " + name + " - file not found]*"
}

var illegalName = strings.NewReplacer(
	"\\", "", "/", "", "*", "", "?", "", ":", "", "\"", "", "<", "", ">", "", "|", "",
	"\n", " ", "\r", " ", "\t", " ",
)

func sanitizeName(name string) string {
	name = illegalName.Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	name = strings.Trim(name, " .")
	if name == "" {
		return "attachment"
	}
	return name
}

// writeFileAtomic lands data at dst via a temp file and rename, so a
// partially copied attachment is never visible at its final name.
func writeFileAtomic(dst string, data []byte) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create attachments dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "tilth-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", dst, err)
	}
	return nil
}
