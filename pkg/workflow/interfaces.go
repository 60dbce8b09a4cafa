package workflow

import (
	"context"

	"github.com/shouni/go-comic-kit/pkg/collection"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/publisher"
	"github.com/shouni/go-comic-kit/pkg/runner"
	"github.com/shouni/go-comic-kit/pkg/sui"
)

// Workflow は、コミック制作ワークフローの各工程を担当する Runner を構築するためのインターフェースを定義します。
type Workflow interface {
	BuildPersonaRunner() (PersonaRunner, error)
	BuildStoryRunner() (StoryRunner, error)
	BuildMintHeroRunner() (MintHeroRunner, error)
	BuildMintComicRunner() (MintComicRunner, error)
	BuildCollectionRunner() (CollectionRunner, error)
	BuildExportRunner() (ExportRunner, error)
}

// PersonaRunner は、アップロード画像または説明文から Persona を作る責務を持ちます。
type PersonaRunner interface {
	FromImage(ctx context.Context, imageData []byte, description string) (*domain.Persona, error)
	Generate(ctx context.Context, description string, settings domain.StorySettings) (*domain.Persona, error)
}

// StoryRunner は、ヒーローと設定からストーリーセッションを最後まで進める責務を持ちます。
type StoryRunner interface {
	Run(ctx context.Context, req runner.StoryRequest) (domain.ComicFaces, error)
}

// MintHeroRunner は、ヒーロー画像を Blob ストアに保存してオンチェーンにミントする責務を持ちます。
type MintHeroRunner interface {
	Run(ctx context.Context, hero *domain.Persona, name string) (*runner.HeroMintResult, error)
}

// MintComicRunner は、完成したページのマニフェストと表紙を保存してコミックをミントする責務を持ちます。
type MintComicRunner interface {
	Run(ctx context.Context, req runner.ComicMintRequest) (*runner.ComicMintResult, error)
}

// CollectionRunner は、オーナーのコレクション一覧と各号のマニフェストを読み出す責務を持ちます。
type CollectionRunner interface {
	List(ctx context.Context, owner string) ([]domain.ComicSummary, error)
	LoadManifest(ctx context.Context, blobID string) (domain.ComicManifest, error)
}

// ExportRunner は、マニフェストを PDF などのファイルに書き出す責務を持ちます。
type ExportRunner interface {
	Run(ctx context.Context, manifest domain.ComicManifest, outputDir string) (publisher.PublishResult, error)
}

// ChainClient はミントとコレクション取得の両方に使うフルノードの契約です。sui.Client がこれを満たします。
type ChainClient interface {
	sui.ChainReader
	collection.ObjectReader
}
