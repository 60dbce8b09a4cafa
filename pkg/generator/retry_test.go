package generator

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestRetry(t *testing.T) {
	t.Run("途中で成功すれば値を返す", func(t *testing.T) {
		calls := 0
		var retries []int
		p := NewLinearRetryPolicy(2, 0, nil)
		p.OnRetry = func(retry int, err error) { retries = append(retries, retry) }

		got, err := Retry(context.Background(), p, func(ctx context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errBoom
			}
			return "ok", nil
		})
		if err != nil || got != "ok" {
			t.Fatalf("Retry() = %q, %v", got, err)
		}
		if calls != 3 {
			t.Errorf("呼び出し回数 = %d, want 3", calls)
		}
		if len(retries) != 2 || retries[0] != 1 || retries[1] != 2 {
			t.Errorf("OnRetry の引数が不正です: %v", retries)
		}
	})

	t.Run("初回を含めて MaxRetries+1 回で打ち切る", func(t *testing.T) {
		calls := 0
		_, err := Retry(context.Background(), NewLinearRetryPolicy(2, 0, nil), func(ctx context.Context) (int, error) {
			calls++
			return 0, errBoom
		})
		if !errors.Is(err, errBoom) {
			t.Errorf("最後のエラーが返るべきです: %v", err)
		}
		if calls != 3 {
			t.Errorf("呼び出し回数 = %d, want 3", calls)
		}
	})

	t.Run("恒久的なエラーは再試行しない", func(t *testing.T) {
		calls := 0
		p := NewLinearRetryPolicy(5, 0, func(err error) bool { return errors.Is(err, errBoom) })
		_, err := Retry(context.Background(), p, func(ctx context.Context) (int, error) {
			calls++
			return 0, errBoom
		})
		if !errors.Is(err, errBoom) || calls != 1 {
			t.Errorf("calls = %d, err = %v", calls, err)
		}
	})

	t.Run("待機中のキャンセルで中断する", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		p := NewLinearRetryPolicy(3, time.Hour, nil)
		p.OnRetry = func(int, error) { cancel() }

		_, err := Retry(ctx, p, func(ctx context.Context) (int, error) { return 0, errBoom })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("context.Canceled を期待しましたが %v", err)
		}
	})
}

func TestRetryOr(t *testing.T) {
	t.Run("使い切ったら fallback を返す", func(t *testing.T) {
		got, err := RetryOr(context.Background(), NewLinearRetryPolicy(1, 0, nil), "fallback", func(ctx context.Context) (string, error) {
			return "", errBoom
		})
		if got != "fallback" {
			t.Errorf("got = %q", got)
		}
		if !errors.Is(err, errBoom) {
			t.Errorf("最後のエラーも返るべきです: %v", err)
		}
	})

	t.Run("恒久的なエラーでは fallback を使わない", func(t *testing.T) {
		p := NewLinearRetryPolicy(1, 0, func(error) bool { return true })
		got, err := RetryOr(context.Background(), p, "fallback", func(ctx context.Context) (string, error) {
			return "", errBoom
		})
		if got != "" || err == nil {
			t.Errorf("got = %q, err = %v", got, err)
		}
	})
}

func TestLinearBackoff(t *testing.T) {
	b := LinearBackoff(time.Second)
	for retry, want := range map[int]time.Duration{1: time.Second, 2: 2 * time.Second, 3: 3 * time.Second} {
		if got := b(retry); got != want {
			t.Errorf("LinearBackoff(%d) = %v, want %v", retry, got, want)
		}
	}
}
