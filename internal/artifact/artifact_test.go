package artifact

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStoreResolveIsDeterministic(t *testing.T) {
	store := NewStore("/runs/abc")
	first := store.Resolve(KindRawAudio)
	second := store.Resolve(KindRawAudio)
	if first != second {
		t.Fatalf("resolve not deterministic: %q vs %q", first, second)
	}
	if first != filepath.Join("/runs/abc", "source_audio.wav") {
		t.Fatalf("unexpected raw audio path: %q", first)
	}
}

func TestStoreResolveDistinctPerKind(t *testing.T) {
	store := NewStore(t.TempDir())
	seen := map[string]Kind{}
	for _, kind := range Kinds() {
		path := store.Resolve(kind)
		if other, dup := seen[path]; dup {
			t.Fatalf("kinds %s and %s collide on %q", kind, other, path)
		}
		seen[path] = kind
		if filepath.Dir(path) != store.RunDir() {
			t.Fatalf("path %q escapes run dir %q", path, store.RunDir())
		}
	}
	if len(seen) != 6 {
		t.Fatalf("expected six artifact paths, got %d", len(seen))
	}
}

func TestStoreEnsureDirIdempotent(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "run-1"))
	if err := store.EnsureDir(); err != nil {
		t.Fatalf("first EnsureDir: %v", err)
	}
	if err := store.EnsureDir(); err != nil {
		t.Fatalf("second EnsureDir: %v", err)
	}
	info, err := os.Stat(store.RunDir())
	if err != nil || !info.IsDir() {
		t.Fatalf("run dir missing after EnsureDir: %v", err)
	}
}

func TestArtifactReady(t *testing.T) {
	dir := t.TempDir()

	missing := Artifact{Kind: KindVideo, Path: filepath.Join(dir, "absent.mp4")}
	if missing.Ready() {
		t.Fatal("missing artifact reported ready")
	}
	if missing.SizeBytes() != 0 {
		t.Fatal("missing artifact reported size")
	}

	empty := Artifact{Kind: KindVideo, Path: filepath.Join(dir, "empty.mp4")}
	if err := os.WriteFile(empty.Path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if empty.Ready() {
		t.Fatal("empty artifact reported ready")
	}

	full := Artifact{Kind: KindVideo, Path: filepath.Join(dir, "video.mp4"), ProducedBy: "acquire"}
	if err := os.WriteFile(full.Path, []byte("frames"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !full.Ready() {
		t.Fatal("expected artifact ready")
	}
	if full.SizeBytes() != int64(len("frames")) {
		t.Fatalf("unexpected size: %d", full.SizeBytes())
	}
}
