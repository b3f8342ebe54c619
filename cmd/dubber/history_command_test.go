package main

import (
	"context"
	"testing"
	"time"

	"dubber/internal/runstore"
	"dubber/internal/testsupport"
)

func TestHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestHistoryListsRuns(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	store := testsupport.MustOpenStore(t, env.cfg)
	if err := store.StartRun(ctx, "abc12345", "https://example.com/a.mp4", "en", "tr"); err != nil {
		t.Fatalf("start run: %v", err)
	}
	if err := store.FailRun(ctx, "abc12345", "synthesize", "all engines failed"); err != nil {
		t.Fatalf("fail run: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "abc12345")
	requireContains(t, out, "failed (synthesize)")
	requireContains(t, out, "en -> tr")
}

func TestHistoryShowsEventTrail(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	store := testsupport.MustOpenStore(t, env.cfg)
	if err := store.StartRun(ctx, "abc12345", "https://example.com/a.mp4", "en", "tr"); err != nil {
		t.Fatalf("start run: %v", err)
	}
	event := runstore.Event{
		RunID:   "abc12345",
		Stage:   "acquire",
		Engine:  "yt-dlp",
		Outcome: "failed",
		Detail:  "exit status 1",
		Elapsed: 250 * time.Millisecond,
	}
	if err := store.RecordEvent(ctx, event); err != nil {
		t.Fatalf("record event: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "history", "--events", "abc12345")
	if err != nil {
		t.Fatalf("history --events: %v", err)
	}
	requireContains(t, out, "yt-dlp")
	requireContains(t, out, "exit status 1")
}
