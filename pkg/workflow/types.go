package workflow

import (
	"github.com/shouni/go-comic-kit/pkg/config"
	"github.com/shouni/go-comic-kit/pkg/generator"
	"github.com/shouni/go-comic-kit/pkg/publisher"
	"github.com/shouni/go-comic-kit/pkg/runner"
	"github.com/shouni/go-comic-kit/pkg/sui"
)

// ManagerArgs は Manager の初期化に必要な依存関係です。
// nil の項目は Config から既定の実装を組み立てます。
type ManagerArgs struct {
	Config config.Config

	TextModel  generator.TextModel
	ImageModel generator.ImageModel
	Blobs      runner.BlobStore
	Chain      ChainClient
	Writer     publisher.OutputWriter

	// Signer はミント時の送信者です。nil ならミント系 Runner は作れません。
	Signer sui.Signer
	// Minter を指定すると Signer と Chain からの組み立てを省略します。
	Minter runner.Minter

	// OnCredentialError は API キーが無効なときに呼ばれます。
	OnCredentialError func(error)
}
