package rate

import (
	"context"
	"fmt"
	"time"
)

// Limiter gates repeated calls: outbound Telegram API traffic and operator
// control commands.
type Limiter interface {
	// Wait blocks until a token is available or the context is canceled.
	Wait(ctx context.Context) error

	// Allow takes a token without blocking, reporting whether one was
	// available. Control surfaces use this to reject abusive repetition
	// instead of queueing it.
	Allow() bool
}

// TokenBucket implements a simple fixed-rate token bucket limiter.
type TokenBucket struct {
	ticker   *time.Ticker
	tokens   chan struct{}
	quit     chan struct{}
	stopDone chan struct{}
}

// NewTokenBucket returns a limiter that releases n tokens per interval,
// with burst capacity n.
func NewTokenBucket(n int, interval time.Duration) *TokenBucket {
	if n <= 0 {
		n = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	tb := &TokenBucket{
		ticker:   time.NewTicker(interval / time.Duration(n)),
		tokens:   make(chan struct{}, n),
		quit:     make(chan struct{}),
		stopDone: make(chan struct{}),
	}
	// allow the first call to proceed immediately
	tb.tokens <- struct{}{}
	go tb.run()
	return tb
}

func (t *TokenBucket) run() {
	defer close(t.stopDone)
	for {
		select {
		case <-t.quit:
			return
		case <-t.ticker.C:
			select {
			case t.tokens <- struct{}{}:
			default:
			}
		}
	}
}

// Wait blocks until a token is available or the context is canceled.
func (t *TokenBucket) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate wait canceled: %w", ctx.Err())
	case <-t.tokens:
		return nil
	}
}

// Allow takes a token if one is immediately available.
func (t *TokenBucket) Allow() bool {
	select {
	case <-t.tokens:
		return true
	default:
		return false
	}
}

// Stop stops the refill goroutine and waits for it to exit. Stopping the
// ticker alone is not enough: it never closes its channel, so the goroutine
// is told to quit explicitly.
func (t *TokenBucket) Stop() {
	t.ticker.Stop()
	close(t.quit)
	<-t.stopDone
}

var _ Limiter = (*TokenBucket)(nil)
