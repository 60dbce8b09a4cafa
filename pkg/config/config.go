package config

import (
	"fmt"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// デフォルト値の定義
const (
	DefaultTextModel        = "gemini-2.5-flash"
	DefaultImageModel       = "gemini-3-pro-image-preview"
	DefaultFallbackModel    = "gemini-2.5-flash-image"
	DefaultFailureThreshold = 3
	DefaultMaxRetries       = 2
	DefaultRetryDelay       = 1 * time.Second
	DefaultRateInterval     = 2 * time.Second
	DefaultRequestTimeout   = 90 * time.Second
	DefaultBlobTimeout      = 60 * time.Second
	DefaultRPCTimeout       = 30 * time.Second

	DefaultSuiRPCURL           = "https://fullnode.testnet.sui.io:443"
	DefaultGasBudget           = 100_000_000
	DefaultMintPrice           = 1_000_000_000 // 1 SUI (MIST)
	DefaultWalrusPublisherURL  = "https://publisher.walrus-testnet.walrus.space"
	DefaultWalrusAggregatorURL = "https://aggregator.walrus-testnet.walrus.space"
	DefaultStorageEpochs       = 1
)

// Config は Go Comic Kit の各コンポーネントを動作させるための基本設定です。
type Config struct {
	// --- AI Model Settings ---
	GeminiAPIKey  string
	TextModel     string // ビート生成用
	ImageModel    string // ペルソナ・パネル画像用
	FallbackModel string // 連続失敗後に切り替える画像モデル

	// --- Retry & Fallback ---
	FailureThreshold int           // フォールバックに切り替える連続失敗回数
	MaxRetries       int           // 初回以降の追加試行回数
	RetryDelay       time.Duration // 線形バックオフの単位 (1s, 2s, ...)
	RateInterval     time.Duration

	// --- Timeouts ---
	RequestTimeout time.Duration
	BlobTimeout    time.Duration
	RPCTimeout     time.Duration

	// AllowPrivateNetwork はローカルネットの Sui ノードや Walrus への接続を許可します。
	AllowPrivateNetwork bool

	// --- Story ---
	Layout domain.StoryLayout

	Sui    SuiConfig
	Walrus WalrusConfig
}

// SuiConfig はオンチェーンパッケージの接続設定です。
type SuiConfig struct {
	RPCURL          string
	PackageID       string
	HeroPolicyID    string // TransferPolicy<HeroAsset>
	ComicPolicyID   string // TransferPolicy<ComicIssue>
	ProtocolStateID string
	GasBudget       uint64
	MintPrice       uint64 // ウォレットモードで支払う固定額 (MIST)
}

// WalrusConfig はブロブストアの接続設定です。
type WalrusConfig struct {
	PublisherURL  string
	AggregatorURL string
	Epochs        int
	Deletable     bool
	// SendTo はアップロードで作成された Blob オブジェクトの送り先です。空ならミントの署名者に送ります。
	SendTo string
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		TextModel:        DefaultTextModel,
		ImageModel:       DefaultImageModel,
		FallbackModel:    DefaultFallbackModel,
		FailureThreshold: DefaultFailureThreshold,
		MaxRetries:       DefaultMaxRetries,
		RetryDelay:       DefaultRetryDelay,
		RateInterval:     DefaultRateInterval,
		RequestTimeout:   DefaultRequestTimeout,
		BlobTimeout:      DefaultBlobTimeout,
		RPCTimeout:       DefaultRPCTimeout,
		Layout:           domain.DefaultStoryLayout(),
		Sui: SuiConfig{
			RPCURL:    DefaultSuiRPCURL,
			GasBudget: DefaultGasBudget,
			MintPrice: DefaultMintPrice,
		},
		Walrus: WalrusConfig{
			PublisherURL:  DefaultWalrusPublisherURL,
			AggregatorURL: DefaultWalrusAggregatorURL,
			Epochs:        DefaultStorageEpochs,
		},
	}
}

// Validate は生成処理に必要な設定が揃っているかを確認します。
func (c Config) Validate() error {
	if c.TextModel == "" || c.ImageModel == "" {
		return fmt.Errorf("テキストモデルと画像モデルの指定は必須です")
	}
	if c.FailureThreshold <= 0 {
		return fmt.Errorf("FailureThreshold は1以上である必要があります: %d", c.FailureThreshold)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MaxRetries は0以上である必要があります: %d", c.MaxRetries)
	}
	l := c.Layout
	if l.MaxStoryPages <= 0 || l.BackCoverPage <= l.MaxStoryPages {
		return fmt.Errorf("ページ構成が不正です (max=%d, back_cover=%d)", l.MaxStoryPages, l.BackCoverPage)
	}
	return nil
}

// ValidateChain は、ミントに必要なオンチェーン設定が揃っているかを確認します。
func (s SuiConfig) ValidateChain() error {
	if s.RPCURL == "" {
		return fmt.Errorf("SUI_RPC_URL は必須です")
	}
	if s.PackageID == "" {
		return fmt.Errorf("SUI_PACKAGE_ID は必須です")
	}
	return nil
}
