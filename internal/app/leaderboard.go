package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"certprep/internal/domain"
	"certprep/pkg/logger"
)

// DefaultLeaderboardKey is the storage slot used when none is configured.
const DefaultLeaderboardKey = "certprep_leaderboard_v1"

// KVStore is durable key-value storage holding whole blobs per key.
// Get returns domain.ErrKeyNotFound for a key that was never written.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Leaderboard is the append-only ranked history of finished sessions,
// persisted as one serialized array under a single key.
// At most one writer is expected at a time.
type Leaderboard struct {
	store KVStore
	key   string
	log   logger.Logger
}

// LeaderboardOption configures a Leaderboard.
type LeaderboardOption func(*Leaderboard)

// WithLeaderboardKey overrides the storage slot.
func WithLeaderboardKey(key string) LeaderboardOption {
	return func(l *Leaderboard) {
		if key != "" {
			l.key = key
		}
	}
}

// WithLeaderboardLogger sets the logger used for degraded reads.
func WithLeaderboardLogger(log logger.Logger) LeaderboardOption {
	return func(l *Leaderboard) {
		if log != nil {
			l.log = log
		}
	}
}

func NewLeaderboard(store KVStore, opts ...LeaderboardOption) *Leaderboard {
	l := &Leaderboard{
		store: store,
		key:   DefaultLeaderboardKey,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append adds entry to the persisted history and rewrites it ranked.
// A corrupt blob is replaced; a failed read aborts without writing.
func (l *Leaderboard) Append(ctx context.Context, entry domain.LeaderboardEntry) error {
	entries, err := l.read(ctx)
	if err != nil && !errors.Is(err, errCorruptHistory) {
		return err
	}
	if err != nil {
		l.log.Warn(ctx, "replacing unreadable leaderboard history", logger.String("key", l.key), logger.Error(err))
	}

	entries = append(entries, entry)
	SortEntries(entries)

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%w: encode leaderboard: %w", domain.ErrPersistence, err)
	}
	if err := l.store.Set(ctx, l.key, data); err != nil {
		return fmt.Errorf("%w: write leaderboard: %w", domain.ErrPersistence, err)
	}
	return nil
}

// List returns the ranked history. Missing or unreadable storage yields an
// empty list; the cause is logged only.
func (l *Leaderboard) List(ctx context.Context) []domain.LeaderboardEntry {
	entries, err := l.read(ctx)
	if err != nil {
		l.log.Warn(ctx, "leaderboard history unavailable", logger.String("key", l.key), logger.Error(err))
		return []domain.LeaderboardEntry{}
	}
	SortEntries(entries)
	return entries
}

// Clear removes all persisted entries.
func (l *Leaderboard) Clear(ctx context.Context) error {
	if err := l.store.Delete(ctx, l.key); err != nil && !errors.Is(err, domain.ErrKeyNotFound) {
		return fmt.Errorf("%w: clear leaderboard: %w", domain.ErrPersistence, err)
	}
	return nil
}

var errCorruptHistory = errors.New("corrupt leaderboard history")

func (l *Leaderboard) read(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	data, err := l.store.Get(ctx, l.key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return []domain.LeaderboardEntry{}, nil
	}
	if err != nil {
		return []domain.LeaderboardEntry{}, fmt.Errorf("%w: read leaderboard: %w", domain.ErrPersistence, err)
	}
	if len(data) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}
	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return []domain.LeaderboardEntry{}, fmt.Errorf("%w: %w", errCorruptHistory, err)
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return entries, nil
}

// SortEntries ranks by correct count, then accuracy, then most recent date.
func SortEntries(entries []domain.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Correct != b.Correct {
			return a.Correct > b.Correct
		}
		if a.Accuracy != b.Accuracy {
			return a.Accuracy > b.Accuracy
		}
		return a.Date.After(b.Date)
	})
}
