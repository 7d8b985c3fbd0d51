package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"certprep/internal/domain"
	"certprep/internal/normalize"
	"certprep/pkg/logger"
	"certprep/pkg/metrics"
)

// BankLoader fetches a normalized question bank by name.
type BankLoader interface {
	LoadBank(ctx context.Context, name string) ([]domain.Question, error)
}

// Selection decides which questions of a bank a session draws. It runs once,
// before the session starts.
type Selection struct {
	// Limit caps the number of questions. Zero keeps them all.
	Limit int
	// Shuffle permutes the bank before the limit is applied.
	Shuffle bool
	// Seed fixes the shuffle. Zero seeds from the clock.
	Seed int64
}

// Apply returns the selected questions without modifying the input.
func (s Selection) Apply(questions []domain.Question) []domain.Question {
	out := append([]domain.Question(nil), questions...)
	if s.Shuffle {
		seed := s.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rnd := rand.New(rand.NewSource(seed))
		for i := len(out) - 1; i > 0; i-- {
			j := rnd.Intn(i + 1)
			out[i], out[j] = out[j], out[i]
		}
	}
	if s.Limit > 0 && s.Limit < len(out) {
		out = out[:s.Limit]
	}
	return out
}

// Decode normalizes raw file bytes, logging per-reason rejections and
// recording load metrics. rec may be nil.
func Decode(ctx context.Context, data []byte, log logger.Logger, rec *metrics.Recorder) ([]domain.Question, error) {
	questions, stats, err := normalize.Load(data)
	if log == nil {
		log = logger.Nop()
	}
	for reason, n := range stats.Rejected {
		log.Debug(ctx, "dropped question records", logger.String("reason", reason), logger.Int("count", n))
	}
	if err != nil {
		return nil, err
	}
	rec.QuestionsLoaded(stats.Kept, stats.Dropped())
	log.Info(ctx, "question bank loaded", logger.Int("kept", stats.Kept), logger.Int("dropped", stats.Dropped()))
	return questions, nil
}

// Loader prepares question lists for new quiz flows.
type Loader struct {
	banks     BankLoader
	selection Selection
	log       logger.Logger
	metrics   *metrics.Recorder
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

func WithLoaderLogger(log logger.Logger) LoaderOption {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

func WithLoaderMetrics(rec *metrics.Recorder) LoaderOption {
	return func(l *Loader) { l.metrics = rec }
}

// NewLoader builds a Loader. banks may be nil when only raw content is parsed.
func NewLoader(banks BankLoader, selection Selection, opts ...LoaderOption) *Loader {
	l := &Loader{banks: banks, selection: selection, log: logger.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches a named bank and applies the selection policy.
func (l *Loader) Load(ctx context.Context, name string) ([]domain.Question, error) {
	if l.banks == nil {
		return nil, fmt.Errorf("%w: %w: no bank source configured", domain.ErrLoad, domain.ErrRead)
	}
	questions, err := l.banks.LoadBank(ctx, name)
	if err != nil {
		return nil, err
	}
	return l.prepare(ctx, questions)
}

// Parse normalizes raw content and applies the selection policy.
func (l *Loader) Parse(ctx context.Context, data []byte) ([]domain.Question, error) {
	questions, err := Decode(ctx, data, l.log, l.metrics)
	if err != nil {
		return nil, err
	}
	return l.prepare(ctx, questions)
}

// prepare drops questions without options, which could never be submitted,
// then applies the selection policy.
func (l *Loader) prepare(ctx context.Context, questions []domain.Question) ([]domain.Question, error) {
	playable := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if len(q.Options) > 0 {
			playable = append(playable, q)
		}
	}
	if skipped := len(questions) - len(playable); skipped > 0 {
		l.log.Warn(ctx, "skipping questions without options", logger.Int("count", skipped))
	}
	if len(playable) == 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrLoad, domain.ErrNoValidQuestions)
	}
	return l.selection.Apply(playable), nil
}
