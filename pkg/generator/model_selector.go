package generator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shouni/go-comic-kit/pkg/gemini"
)

// ModelSelector は呼び出し失敗を共有カウンタで数え、閾値に達したら画像モデルを
// フォールバックへ恒久的に切り替える簡易サーキットブレーカーです。
// セッション中に主モデルへ戻ることはありません。
type ModelSelector struct {
	mu        sync.Mutex
	primary   string
	fallback  string
	threshold int
	failures  int
	switched  bool
}

// NewModelSelector は ModelSelector を初期化します。
func NewModelSelector(primary, fallback string, threshold int) *ModelSelector {
	if threshold <= 0 {
		threshold = 1
	}
	return &ModelSelector{
		primary:   primary,
		fallback:  fallback,
		threshold: threshold,
	}
}

// Current は次の呼び出しで使う画像モデルを返します。
func (s *ModelSelector) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *ModelSelector) currentLocked() string {
	if s.switched && s.fallback != "" {
		return s.fallback
	}
	return s.primary
}

// Failures は現在の連続失敗回数を返します。
func (s *ModelSelector) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

// Switched はフォールバックに切り替わったかどうかを返します。
func (s *ModelSelector) Switched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switched
}

// NoteSuccess は連続失敗回数をリセットします。モデルの選択は戻しません。
func (s *ModelSelector) NoteSuccess() {
	s.mu.Lock()
	s.failures = 0
	s.mu.Unlock()
}

// NoteFailure は失敗を記録し、閾値到達でフォールバックへ切り替えます。
func (s *ModelSelector) NoteFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
	if s.failures >= s.threshold && !s.switched && s.fallback != "" && s.fallback != s.primary {
		s.switched = true
		slog.Warn("連続失敗が閾値に達したため、フォールバックモデルに切り替えます",
			"failures", s.failures, "primary", s.primary, "fallback", s.fallback)
	}
}

// Reset はセッション開始時の状態に戻します。
func (s *ModelSelector) Reset() {
	s.mu.Lock()
	s.failures = 0
	s.switched = false
	s.mu.Unlock()
}

// Track はモデルを切り替えない呼び出し（テキスト生成）の成否を共有カウンタに記録します。
func (s *ModelSelector) Track(err error) error {
	if err == nil {
		s.NoteSuccess()
		return nil
	}
	s.NoteFailure()
	return err
}

// Do は現在の画像モデルで fn を実行します。
// 失敗によってフォールバックに切り替わった場合は、その場でフォールバックモデルでもう一度試します。
func (s *ModelSelector) Do(ctx context.Context, fn func(ctx context.Context, model string) error) error {
	active := s.Current()
	err := fn(ctx, active)
	if err == nil {
		s.NoteSuccess()
		return nil
	}
	s.NoteFailure()
	if gemini.IsCredentialError(err) {
		return err
	}

	next := s.Current()
	if next == active {
		return err
	}

	slog.InfoContext(ctx, "フォールバックモデルで即時再試行します", "model", next)
	if err := fn(ctx, next); err != nil {
		s.NoteFailure()
		return err
	}
	s.NoteSuccess()
	return nil
}
