package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"certprep/internal/app"
	"certprep/internal/domain"
	"golang.org/x/sync/singleflight"
)

// BankRepository caches normalized banks with TTL to avoid re-reading and
// re-normalizing the same file for every connection.
type BankRepository struct {
	loader app.BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedBank
}

type cachedBank struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewBankRepository(loader app.BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

// LoadBank returns a copy of the cached bank, loading it at most once per
// expiry across concurrent callers.
func (r *BankRepository) LoadBank(ctx context.Context, name string) ([]domain.Question, error) {
	if questions, ok := r.lookup(name); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(name, func() (interface{}, error) {
		if questions, ok := r.lookup(name); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadBank(ctx, name)
		if err != nil {
			return nil, err
		}

		if ttl := r.ttlWithJitter(); ttl > 0 {
			r.mu.Lock()
			r.cache[name] = cachedBank{
				questions: questions,
				expiresAt: r.clock().Add(ttl),
			}
			r.mu.Unlock()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Question(nil), result.([]domain.Question)...), nil
}

func (r *BankRepository) lookup(name string) ([]domain.Question, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[name]; ok && entry.expiresAt.After(now) {
		return append([]domain.Question(nil), entry.questions...), true
	}
	return nil, false
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticBankLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticBankLoader struct {
	banks map[string][]domain.Question
}

func NewStaticBankLoader(banks map[string][]domain.Question) *StaticBankLoader {
	return &StaticBankLoader{banks: banks}
}

func (l *StaticBankLoader) LoadBank(_ context.Context, name string) ([]domain.Question, error) {
	if questions, ok := l.banks[name]; ok {
		return questions, nil
	}
	return nil, fmt.Errorf("%w: %w: unknown bank %q", domain.ErrLoad, domain.ErrRead, name)
}
