package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"certprep/internal/app"
	"certprep/internal/domain"
)

func TestKVStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "certprep.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if _, err := store.Get(ctx, "board"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := store.Set(ctx, "board", []byte(`[1]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "board", []byte(`[2]`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := store.Get(ctx, "board")
	if err != nil || string(got) != `[2]` {
		t.Fatalf("unexpected value %q (%v)", got, err)
	}
	if err := store.Delete(ctx, "board"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "board"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected slot removed, got %v", err)
	}
}

func TestKVStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "certprep.db")

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	board := app.NewLeaderboard(store)
	if err := board.Append(ctx, domain.LeaderboardEntry{RunID: "r1", Correct: 1, TotalAnswered: 2, Accuracy: 50}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got := app.NewLeaderboard(reopened).List(ctx)
	if len(got) != 1 || got[0].RunID != "r1" {
		t.Fatalf("expected persisted history, got %+v", got)
	}
}
