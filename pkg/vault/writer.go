package vault

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/aretw0/tilth/pkg/core"
)

// NoteExt is the file extension of emitted notes.
const NoteExt = ".md"

// maxFilenameLen keeps sanitized titles within filesystem limits.
const maxFilenameLen = 150

// Writer places notes under the output root.
type Writer struct {
	Root   string
	ByDate bool // organize into year/month subfolders
	DryRun bool
	Logger *slog.Logger

	// taken tracks paths handed out during this run. It makes collision
	// suffixing work under dry-run, where no file ever lands on disk, and
	// guards the collision check if conversations are ever fanned out.
	mu    sync.Mutex
	taken map[string]bool
}

// Write serializes the note and places it at its computed path. On a path
// collision with identical content it is a no-op; differing content gets a
// numeric suffix until a free name is found. The chosen path is returned
// even under dry-run.
func (w *Writer) Write(n core.Note) (string, error) {
	data, err := Serialize(n)
	if err != nil {
		return "", err
	}

	dir := w.Root
	if w.ByDate {
		dir = filepath.Join(dir, n.Meta.Created.Format("2006"), n.Meta.Created.Format("01"))
	}

	base := SanitizeFilename(n.Meta.Title)
	path, exists, err := w.place(dir, base, data)
	if err != nil {
		return "", err
	}

	if w.DryRun || exists {
		if w.Logger != nil {
			w.Logger.Info("note resolved", "path", path, "dry_run", w.DryRun, "already_written", exists)
		}
		return path, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create note directory: %w", err)
	}
	if err := writeFileAtomic(path, data, 0644); err != nil {
		return "", err
	}

	if w.Logger != nil {
		w.Logger.Debug("note written", "path", path, "bytes", len(data))
	}
	return path, nil
}

// place picks the destination path. It reports exists=true when a file with
// identical content already sits at the chosen path.
func (w *Writer) place(dir, base string, data []byte) (path string, exists bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.taken == nil {
		w.taken = make(map[string]bool)
	}

	name := base + NoteExt
	for n := 1; ; n++ {
		path = filepath.Join(dir, name)

		if !w.taken[path] {
			existing, rerr := os.ReadFile(path)
			if os.IsNotExist(rerr) {
				w.taken[path] = true
				return path, false, nil
			}
			if rerr != nil {
				return "", false, fmt.Errorf("failed to inspect %s: %w", path, rerr)
			}
			if bytes.Equal(existing, data) {
				// Same note already on disk, nothing to do.
				return path, true, nil
			}
		}

		name = fmt.Sprintf("%s_%d%s", base, n, NoteExt)
	}
}

var (
	fsIllegal = regexp.MustCompile(`[\\/*?:"<>|]`)
	dotRun    = regexp.MustCompile(`\.{2,}`)
	ctrlChars = regexp.MustCompile("[\x00-\x1f\x7f]")
)

// SanitizeFilename strips characters that are invalid in filenames and
// normalizes whitespace. An empty result falls back to "untitled".
func SanitizeFilename(name string) string {
	name = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(name)
	name = ctrlChars.ReplaceAllString(name, "")
	name = fsIllegal.ReplaceAllString(name, "")
	name = dotRun.ReplaceAllString(name, ".")
	name = strings.Join(strings.Fields(name), " ")
	name = strings.Trim(name, " .")

	if utf8.RuneCountInString(name) > maxFilenameLen {
		name = strings.TrimRight(string([]rune(name)[:maxFilenameLen]), " .")
	}
	if name == "" {
		return "untitled"
	}
	return name
}
