package indexer

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
)

const (
	defaultRetryDelay = 100 * time.Millisecond
	maxRetryDelay     = 30 * time.Second
)

// JSON-RPC codes that will fail the same way on every attempt.
const (
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
)

// retryPolicy retries a call with exponential backoff capped at maxRetryDelay.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
}

func newRetryPolicy(maxRetries int, baseDelay time.Duration) retryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = defaultRetryDelay
	}
	return retryPolicy{maxRetries: maxRetries, baseDelay: baseDelay}
}

// do runs fn until it succeeds, fails permanently, runs out of retries or ctx
// is done. onRetry, when set, is called before each wait.
func (p retryPolicy) do(ctx context.Context, fn func(context.Context) error, onRetry func(attempt int, wait time.Duration, err error)) error {
	wait := p.baseDelay
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil || !retryable(err) || attempt > p.maxRetries {
			return err
		}
		if onRetry != nil {
			onRetry(attempt, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		wait = min(wait*2, maxRetryDelay)
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case rpcMethodNotFound, rpcInvalidParams:
			return false
		}
	}
	return true
}
