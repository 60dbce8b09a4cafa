package builder

import (
	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/pkg/sui"
	"github.com/shouni/go-comic-kit/pkg/workflow"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各 Execute 関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config   *config.Config         // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、チェーン設定など）。
	Options  config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です（ジャンル、出力先など）。
	Signer   sui.Signer             // Signerは、TEST_MODE のときにミントの送信者になる鍵です。nil ならミントできません。
	Workflow workflow.Workflow      // Workflowは、各工程の Runner を組み立てるワークフローです。
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(cfg *config.Config, signer sui.Signer, wf workflow.Workflow) AppContext {
	return AppContext{
		Config:   cfg,
		Options:  cfg.Options,
		Signer:   signer,
		Workflow: wf,
	}
}
