package generator

import (
	"context"
	"time"
)

// RetryPolicy は有限回のリトライ方針です。
// 初回に加えて最大 MaxRetries 回まで再試行し、n 回目の再試行前に Backoff(n) だけ待ちます。
type RetryPolicy struct {
	MaxRetries int
	Backoff    func(retry int) time.Duration
	// Permanent が true を返すエラーは再試行しません。
	Permanent func(error) bool
	// OnRetry は再試行の直前に呼ばれます。
	OnRetry func(retry int, err error)
}

// LinearBackoff は base, 2*base, 3*base ... と増える待ち時間を返します。
func LinearBackoff(base time.Duration) func(int) time.Duration {
	return func(retry int) time.Duration {
		return base * time.Duration(retry)
	}
}

// NewLinearRetryPolicy は線形バックオフのリトライ方針を作成します。
func NewLinearRetryPolicy(maxRetries int, base time.Duration, permanent func(error) bool) RetryPolicy {
	return RetryPolicy{
		MaxRetries: maxRetries,
		Backoff:    LinearBackoff(base),
		Permanent:  permanent,
	}
}

func (p RetryPolicy) isPermanent(err error) bool {
	return p.Permanent != nil && p.Permanent(err)
}

func (p RetryPolicy) delay(retry int) time.Duration {
	if p.Backoff == nil {
		return 0
	}
	return p.Backoff(retry)
}

// Retry は fn が成功するか、再試行回数を使い切るか、恒久的なエラーになるまで繰り返します。
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			if p.OnRetry != nil {
				p.OnRetry(attempt, lastErr)
			}
			if err := sleep(ctx, p.delay(attempt)); err != nil {
				return zero, err
			}
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if p.isPermanent(err) || ctx.Err() != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

// RetryOr は Retry を実行し、再試行を使い切った場合は fallback と最後のエラーを返します。
// 恒久的なエラーとコンテキストのキャンセルは fallback に置き換えません。
func RetryOr[T any](ctx context.Context, p RetryPolicy, fallback T, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := Retry(ctx, p, fn)
	if err == nil {
		return v, nil
	}
	if p.isPermanent(err) || ctx.Err() != nil {
		return v, err
	}
	return fallback, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
