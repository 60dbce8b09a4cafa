package runner

import (
	"context"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/generator"
	"github.com/shouni/go-comic-kit/pkg/sui"
	"github.com/shouni/go-comic-kit/pkg/walrus"
)

// BlobStore は Walrus の読み書きの契約です。walrus.Client がこれを満たします。
type BlobStore interface {
	Store(ctx context.Context, data []byte, opts walrus.StoreOptions) (walrus.BlobRef, error)
	Read(ctx context.Context, blobID string) ([]byte, error)
	BlobURL(blobID string) string
}

// HeroMinter はヒーローのミントの契約です。sui.Minter がこれを満たします。
type HeroMinter interface {
	MintHero(ctx context.Context, h sui.HeroMint) (*sui.MintResult, error)
}

// ComicMinter はコミックのミントの契約です。sui.Minter がこれを満たします。
type ComicMinter interface {
	MintComic(ctx context.Context, mode sui.MintMode, c sui.ComicMint) (*sui.MintResult, error)
}

// Minter はヒーローとコミックの両方をミントできる実装です。
type Minter interface {
	HeroMinter
	ComicMinter
}

// OrchestratorFactory はセッションごとに新しい Orchestrator を作ります。
type OrchestratorFactory func() (*generator.Orchestrator, error)

// ChoicePicker は選択肢ページでどの選択肢を選ぶかを決めます。
type ChoicePicker func(face domain.ComicFace) string

// FirstChoice は常に最初の選択肢を選ぶ ChoicePicker です。
func FirstChoice(face domain.ComicFace) string {
	choices := face.Choices()
	if len(choices) == 0 {
		return ""
	}
	return choices[0]
}

// StoryRequest はストーリーセッションの入力です。
type StoryRequest struct {
	Settings domain.StorySettings
	Hero     *domain.Persona
	CoStar   *domain.Persona
	// OriginMarkdown は原作モードで翻案する "## Page N" 区切りのテキストです。
	OriginMarkdown string
	// Pick が nil なら FirstChoice を使います。
	Pick ChoicePicker
	// Observer はページ列が変わるたびに呼ばれます。
	Observer generator.Observer
}

// HeroMintResult はヒーローのミント結果です。
type HeroMintResult struct {
	Blob   walrus.BlobRef
	HeroID string
	Digest string
}

// ComicMintRequest はコミックのミント入力です。
type ComicMintRequest struct {
	Title  string
	Genre  domain.Genre
	HeroID string
	Faces  domain.ComicFaces
	Mode   sui.MintMode
}

// ComicMintResult はコミックのミント結果です。
type ComicMintResult struct {
	Manifest walrus.BlobRef
	Cover    walrus.BlobRef
	IssueID  string
	SeriesID string
	Digest   string
	Pages    int
}
