package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
)

// RetryingCompleter retries a wrapped Completer with increasing backoff
// and an optional per-call timeout. The sleep between attempts grows
// linearly: backoff, then 2*backoff, and so on.
type RetryingCompleter struct {
	inner    Completer
	attempts int
	backoff  time.Duration
	timeout  time.Duration
}

// NewRetryingCompleter wraps inner. attempts below 1 is treated as 1;
// a zero timeout disables the per-call deadline.
func NewRetryingCompleter(inner Completer, attempts int, backoff, timeout time.Duration) *RetryingCompleter {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingCompleter{
		inner:    inner,
		attempts: attempts,
		backoff:  backoff,
		timeout:  timeout,
	}
}

func (r *RetryingCompleter) Complete(ctx context.Context, messages []*schema.Message) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		out, err := r.completeOnce(ctx, messages)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt < r.attempts {
			if err := sleepCtx(ctx, r.backoff*time.Duration(attempt)); err != nil {
				return "", err
			}
		}
	}
	return "", fmt.Errorf("completion failed after %d attempts: %w", r.attempts, lastErr)
}

func (r *RetryingCompleter) completeOnce(ctx context.Context, messages []*schema.Message) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.inner.Complete(ctx, messages)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
