package service

import (
	"context"
	"time"

	"github.com/dori/gtdsync/internal/store"
)

// Option configures a service
type Option func(*base)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		if now != nil {
			b.now = now
		}
	}
}

// WithObserver receives an event for every mutating use case
func WithObserver(o UseCaseObserver) Option {
	return func(b *base) {
		if o != nil {
			b.observer = o
		}
	}
}

// base holds what every service shares: the store, a clock and an observer.
type base struct {
	store    *store.Store
	now      func() time.Time
	observer UseCaseObserver
}

func newBase(s *store.Store, opts []Option) base {
	b := base{store: s, now: time.Now, observer: NoopUseCaseObserver{}}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) nowMillis() int64 {
	return b.now().UnixMilli()
}

// observe reports a use case once the returned func runs; pass it the
// address of the named error result.
func (b *base) observe(ctx context.Context, name string, fields map[string]any) func(err *error) {
	startedAt := time.Now()
	return func(err *error) {
		b.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      name,
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   *err == nil,
			Err:       *err,
			Fields:    fields,
		})
	}
}

// dayStart returns local midnight of the day containing t
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
