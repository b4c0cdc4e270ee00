package attach

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/tilth/pkg/core"
)

func writeFixture(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func imageRef(name string) core.AttachmentRef {
	return core.AttachmentRef{Name: name, Kind: core.KindImage}
}

func TestResolver(t *testing.T) {
	t.Run("Resolves Exact Relative Path", func(t *testing.T) {
		src := t.TempDir()
		out := t.TempDir()
		writeFixture(t, src, "Gemini Apps/uploads/photo.png", "png-bytes")

		r := NewResolver(Config{SearchDirs: []string{src}, OutDir: out})
		name, err := r.Resolve(imageRef("Gemini Apps/uploads/photo.png"))
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if name != "photo.png" {
			t.Errorf("Expected photo.png, got %q", name)
		}

		data, err := os.ReadFile(filepath.Join(out, "photo.png"))
		if err != nil || string(data) != "png-bytes" {
			t.Errorf("Copy missing or wrong: %v %q", err, data)
		}
	})

	t.Run("Exact Match Wins Over Recursive Search", func(t *testing.T) {
		src := t.TempDir()
		out := t.TempDir()
		writeFixture(t, src, "photo.png", "at-root")
		writeFixture(t, src, "deep/nested/photo.png", "nested")

		r := NewResolver(Config{SearchDirs: []string{src}, OutDir: out})
		name, err := r.Resolve(imageRef("photo.png"))
		if err != nil {
			t.Fatal(err)
		}

		data, _ := os.ReadFile(filepath.Join(out, name))
		if string(data) != "at-root" {
			t.Errorf("Expected the root-level file, got %q", data)
		}
	})

	t.Run("Falls Back To Recursive Basename Search", func(t *testing.T) {
		src := t.TempDir()
		out := t.TempDir()
		writeFixture(t, src, "some/buried/dir/diagram.svg", "svg")

		r := NewResolver(Config{SearchDirs: []string{src}, OutDir: out})
		name, err := r.Resolve(imageRef("diagram.svg"))
		if err != nil {
			t.Fatalf("Recursive search failed: %v", err)
		}
		if name != "diagram.svg" {
			t.Errorf("Got %q", name)
		}
	})

	t.Run("Search Directory Order Is Significant", func(t *testing.T) {
		first := t.TempDir()
		second := t.TempDir()
		out := t.TempDir()
		writeFixture(t, first, "shared.txt", "from-first")
		writeFixture(t, second, "shared.txt", "from-second")

		r := NewResolver(Config{SearchDirs: []string{first, second}, OutDir: out})
		name, err := r.Resolve(core.AttachmentRef{Name: "shared.txt", Kind: core.KindDocument})
		if err != nil {
			t.Fatal(err)
		}

		data, _ := os.ReadFile(filepath.Join(out, name))
		if string(data) != "from-first" {
			t.Errorf("Expected first directory to win, got %q", data)
		}
	})

	t.Run("Deduplicates Repeated References", func(t *testing.T) {
		src := t.TempDir()
		out := t.TempDir()
		writeFixture(t, src, "photo.png", "once")

		r := NewResolver(Config{SearchDirs: []string{src}, OutDir: out})
		first, err := r.Resolve(imageRef("photo.png"))
		if err != nil {
			t.Fatal(err)
		}
		again, err := r.Resolve(imageRef("photo.png"))
		if err != nil {
			t.Fatal(err)
		}

		if first != again {
			t.Errorf("Same source should keep its name: %q vs %q", first, again)
		}
		if r.Copied() != 1 {
			t.Errorf("Expected 1 copy, got %d", r.Copied())
		}

		entries, _ := os.ReadDir(out)
		if len(entries) != 1 {
			t.Errorf("Expected 1 file in output, found %d", len(entries))
		}
	})

	t.Run("Distinct Files Same Basename Get Suffixed", func(t *testing.T) {
		src := t.TempDir()
		out := t.TempDir()
		writeFixture(t, src, "a/photo.png", "file-a")
		writeFixture(t, src, "b/photo.png", "file-b")

		r := NewResolver(Config{SearchDirs: []string{src}, OutDir: out})
		first, err := r.Resolve(imageRef("a/photo.png"))
		if err != nil {
			t.Fatal(err)
		}
		second, err := r.Resolve(imageRef("b/photo.png"))
		if err != nil {
			t.Fatal(err)
		}

		if first != "photo.png" || second != "photo_1.png" {
			t.Errorf("Expected photo.png and photo_1.png, got %q and %q", first, second)
		}
		if r.Copied() != 2 {
			t.Errorf("Expected 2 copies, got %d", r.Copied())
		}

		dataA, _ := os.ReadFile(filepath.Join(out, first))
		dataB, _ := os.ReadFile(filepath.Join(out, second))
		if string(dataA) != "file-a" || string(dataB) != "file-b" {
			t.Errorf("Copies scrambled: %q %q", dataA, dataB)
		}
	})

	t.Run("Rerun Reuses Identical Copies", func(t *testing.T) {
		src := t.TempDir()
		out := t.TempDir()
		writeFixture(t, src, "photo.png", "stable-bytes")
		cfg := Config{SearchDirs: []string{src}, OutDir: out}

		first, err := NewResolver(cfg).Resolve(imageRef("photo.png"))
		if err != nil {
			t.Fatal(err)
		}
		// A fresh resolver, as a watch-triggered re-run would build.
		again, err := NewResolver(cfg).Resolve(imageRef("photo.png"))
		if err != nil {
			t.Fatal(err)
		}

		if first != again {
			t.Errorf("Re-run renamed an unchanged attachment: %q vs %q", first, again)
		}
		entries, _ := os.ReadDir(out)
		if len(entries) != 1 {
			t.Errorf("Expected 1 file after re-run, found %d", len(entries))
		}
	})

	t.Run("Rerun Suffixes Changed Content", func(t *testing.T) {
		src := t.TempDir()
		out := t.TempDir()
		path := writeFixture(t, src, "photo.png", "old-bytes")
		cfg := Config{SearchDirs: []string{src}, OutDir: out}

		first, err := NewResolver(cfg).Resolve(imageRef("photo.png"))
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("new-bytes"), 0644); err != nil {
			t.Fatal(err)
		}
		second, err := NewResolver(cfg).Resolve(imageRef("photo.png"))
		if err != nil {
			t.Fatal(err)
		}

		if first == second {
			t.Errorf("Changed content must not reuse %q", first)
		}
		data, _ := os.ReadFile(filepath.Join(out, first))
		if string(data) != "old-bytes" {
			t.Errorf("Earlier copy overwritten: %q", data)
		}
		data, _ = os.ReadFile(filepath.Join(out, second))
		if string(data) != "new-bytes" {
			t.Errorf("New copy wrong: %q", data)
		}
	})

	t.Run("Missing File Returns Sentinel", func(t *testing.T) {
		r := NewResolver(Config{SearchDirs: []string{t.TempDir()}, OutDir: t.TempDir()})
		_, err := r.Resolve(imageRef("nowhere.png"))
		if !errors.Is(err, core.ErrAttachmentMissing) {
			t.Errorf("Expected ErrAttachmentMissing, got %v", err)
		}
	})

	t.Run("Dry Run Touches Nothing", func(t *testing.T) {
		src := t.TempDir()
		out := filepath.Join(t.TempDir(), "vault", DirName)
		writeFixture(t, src, "photo.png", "bytes")

		r := NewResolver(Config{SearchDirs: []string{src}, OutDir: out, DryRun: true})
		name, err := r.Resolve(imageRef("photo.png"))
		if err != nil {
			t.Fatal(err)
		}
		if name != "photo.png" {
			t.Errorf("Got %q", name)
		}
		if r.Copied() != 1 {
			t.Errorf("Dry run should still count, got %d", r.Copied())
		}
		if _, err := os.Stat(out); !os.IsNotExist(err) {
			t.Error("Dry run must not create the output directory")
		}
	})
}

func TestEmbed(t *testing.T) {
	cases := []struct {
		kind core.AttachmentKind
		want string
	}{
		{core.KindImage, "![[_attachments/f.png]]"},
		{core.KindAudio, "![[_attachments/f.png]]"},
		{core.KindVideo, "![[_attachments/f.png]]"},
		{core.KindDocument, "[[_attachments/f.png|f.png]]"},
		{core.KindUnknown, "[[_attachments/f.png|f.png]]"},
	}
	for _, tc := range cases {
		if got := Embed(tc.kind, "f.png"); got != tc.want {
			t.Errorf("Embed(%s) = %q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestPlaceholder(t *testing.T) {
	want := "*[Attachment: photo.png - file not found]*"
	if got := Placeholder("photo.png"); got != want {
		t.Errorf("Got %q", got)
	}
}
