package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"certprep/internal/app"
	"certprep/internal/domain"
	"certprep/pkg/logger"
	"certprep/pkg/metrics"
)

// BankLoader reads question banks from disk and normalizes them.
// With an empty dir, bank names are used as paths.
type BankLoader struct {
	dir     string
	log     logger.Logger
	metrics *metrics.Recorder
}

// Option configures a BankLoader.
type Option func(*BankLoader)

func WithLogger(log logger.Logger) Option {
	return func(l *BankLoader) {
		if log != nil {
			l.log = log
		}
	}
}

func WithMetrics(rec *metrics.Recorder) Option {
	return func(l *BankLoader) { l.metrics = rec }
}

func NewBankLoader(dir string, opts ...Option) *BankLoader {
	l := &BankLoader{dir: dir, log: logger.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadBank implements app.BankLoader.
func (l *BankLoader) LoadBank(ctx context.Context, name string) ([]domain.Question, error) {
	path, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", domain.ErrLoad, domain.ErrRead, err)
	}
	l.log.Debug(ctx, "question file read", logger.String("path", path), logger.Int("bytes", len(data)))
	return app.Decode(ctx, data, l.log, l.metrics)
}

// ListBanks returns the .json files in the bank directory, sorted by name.
func (l *BankLoader) ListBanks(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRead, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (l *BankLoader) resolve(name string) (string, error) {
	if l.dir == "" {
		return name, nil
	}
	if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %w: invalid bank name %q", domain.ErrLoad, domain.ErrRead, name)
	}
	return filepath.Join(l.dir, name), nil
}
