package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/pkg/gemini"
	"github.com/shouni/go-comic-kit/pkg/sui"
	"github.com/shouni/go-comic-kit/pkg/workflow"
)

// BuildAppContext は設定から署名鍵とワークフローを組み立てます。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	signer, err := BuildSigner(cfg)
	if err != nil {
		return nil, err
	}

	args := workflow.ManagerArgs{
		Config:            cfg.Comic,
		Signer:            signer,
		OnCredentialError: logCredentialError,
	}
	mgr, err := workflow.New(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("ワークフローの初期化に失敗しました: %w", err)
	}

	appCtx := NewAppContext(cfg, signer, mgr)
	return &appCtx, nil
}

// BuildSigner は TEST_MODE のときだけ TEST_PRIVATE_KEY から Signer を作ります。
// それ以外では nil を返し、ミントはできません。
func BuildSigner(cfg *config.Config) (sui.Signer, error) {
	if !cfg.TestMode {
		return nil, nil
	}
	if cfg.TestPrivateKey == "" {
		return nil, errors.New("TEST_MODE では TEST_PRIVATE_KEY の設定が必須です")
	}
	signer, err := sui.ParsePrivateKey(cfg.TestPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("TEST_PRIVATE_KEY の解析に失敗しました: %w", err)
	}
	slog.Info("テスト用の鍵でミントします", "address", signer.Address().String())
	return signer, nil
}

func logCredentialError(err error) {
	if errors.Is(err, gemini.ErrCredentials) {
		slog.Error("Gemini API キーが無効です。GEMINI_API_KEY を確認してください", "error", err)
	}
}
