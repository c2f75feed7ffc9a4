package entitystore

import (
	"context"
	"sync"
	"time"
)

// AutoRefresh reloads the collection every interval until the returned stop
// function is called. Load failures are already recorded in state, so the
// timer just keeps ticking. stop is idempotent: calling it more than once is
// a no-op.
func (s *Store[T]) AutoRefresh(ctx context.Context, interval time.Duration) (stop func()) {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = s.Load(ctx)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
