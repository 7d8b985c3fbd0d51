package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"certprep/internal/app"
	"certprep/internal/domain"
)

func TestKVStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	store := NewKVStore(dir)

	if _, err := store.Get(ctx, "board"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := store.Set(ctx, "board", []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "board", []byte(`[{"runId":"r1"}]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := store.Get(ctx, "board")
	if err != nil || string(got) != `[{"runId":"r1"}]` {
		t.Fatalf("unexpected slot %q (%v)", got, err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != "board.json" {
		t.Fatalf("expected only the slot file, got %v", entries)
	}

	if err := store.Delete(ctx, "board"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "board"); err != nil {
		t.Fatalf("delete twice: %v", err)
	}
	if _, err := store.Get(ctx, "board"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected slot removed, got %v", err)
	}
}

func TestKVStoreRejectsPathKeys(t *testing.T) {
	store := NewKVStore(t.TempDir())
	for _, key := range []string{"", "../escape", `a\b`, ".."} {
		if err := store.Set(context.Background(), key, []byte("x")); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestKVStoreBacksLeaderboard(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	board := app.NewLeaderboard(NewKVStore(dir))
	if err := board.Append(ctx, domain.LeaderboardEntry{RunID: "r1", Correct: 3, TotalAnswered: 4, Accuracy: 75}); err != nil {
		t.Fatalf("append: %v", err)
	}

	reopened := app.NewLeaderboard(NewKVStore(dir)).List(ctx)
	if len(reopened) != 1 || reopened[0].RunID != "r1" {
		t.Fatalf("expected history to survive reopen, got %+v", reopened)
	}
}

func TestBankLoader(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	write(t, dir, "b.json", `[{"body":"two","options":["x","y"],"answer":"B"}]`)
	write(t, dir, "a.json", `{"questions":[{"body":"one"}]}`)
	write(t, dir, "broken.json", `{oops`)
	write(t, dir, "notes.txt", `ignore me`)

	loader := NewBankLoader(dir)

	names, err := loader.ListBanks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"a.json", "b.json", "broken.json"}) {
		t.Fatalf("unexpected bank names %v", names)
	}

	questions, err := loader.LoadBank(ctx, "b.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 1 || !reflect.DeepEqual(questions[0].CorrectAnswers, []string{"B"}) {
		t.Fatalf("unexpected questions %+v", questions)
	}

	if _, err := loader.LoadBank(ctx, "broken.json"); !errors.Is(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected invalid document, got %v", err)
	}
	if _, err := loader.LoadBank(ctx, "missing.json"); !errors.Is(err, domain.ErrRead) || !errors.Is(err, domain.ErrLoad) {
		t.Fatalf("expected read error, got %v", err)
	}
	if _, err := loader.LoadBank(ctx, "../a.json"); !errors.Is(err, domain.ErrRead) {
		t.Fatalf("expected traversal to be rejected, got %v", err)
	}
}

func TestBankLoaderWithoutDirUsesPaths(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "exam.json", `[{"question":"q"}]`)

	questions, err := NewBankLoader("").LoadBank(context.Background(), filepath.Join(dir, "exam.json"))
	if err != nil {
		t.Fatalf("load by path: %v", err)
	}
	if len(questions) != 1 || questions[0].Body != "q" {
		t.Fatalf("unexpected questions %+v", questions)
	}
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
