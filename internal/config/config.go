package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shouni/go-utils/envutil"

	comiccfg "github.com/shouni/go-comic-kit/pkg/config"
)

// デフォルト値の定義なのだ
const (
	DefaultOutputDir = "output"
	DefaultMintMode  = "free"
	DefaultTitle     = "Infinite Heroes"
)

// Config はアプリケーション全体の環境設定（APIキーやチェーン設定）を保持する構造体なのだ。
type Config struct {
	Comic comiccfg.Config

	// TestMode では TEST_PRIVATE_KEY の鍵でミントするのだ。
	TestMode       bool
	TestPrivateKey string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	c := comiccfg.DefaultConfig()

	c.GeminiAPIKey = envutil.GetEnv("GEMINI_API_KEY", "")
	c.TextModel = envutil.GetEnv("GEMINI_TEXT_MODEL", c.TextModel)
	c.ImageModel = envutil.GetEnv("GEMINI_IMAGE_MODEL", c.ImageModel)
	c.FallbackModel = envutil.GetEnv("GEMINI_FALLBACK_MODEL", c.FallbackModel)
	c.MaxRetries = envutil.GetEnvAsInt("GEMINI_MAX_RETRIES", c.MaxRetries)
	c.FailureThreshold = envutil.GetEnvAsInt("GEMINI_FAILURE_THRESHOLD", c.FailureThreshold)
	c.RetryDelay = envDuration("GEMINI_RETRY_DELAY", c.RetryDelay)
	c.RateInterval = envDuration("GEMINI_RATE_INTERVAL", c.RateInterval)
	c.RequestTimeout = envDuration("GEMINI_TIMEOUT", c.RequestTimeout)

	c.Sui.RPCURL = envutil.GetEnv("SUI_RPC_URL", c.Sui.RPCURL)
	c.Sui.PackageID = envutil.GetEnv("SUI_PACKAGE_ID", "")
	c.Sui.HeroPolicyID = envutil.GetEnv("SUI_HERO_POLICY_ID", "")
	c.Sui.ComicPolicyID = envutil.GetEnv("SUI_COMIC_POLICY_ID", "")
	c.Sui.ProtocolStateID = envutil.GetEnv("SUI_PROTOCOL_STATE_ID", "")
	c.Sui.GasBudget = envUint("SUI_GAS_BUDGET", c.Sui.GasBudget)
	c.Sui.MintPrice = envUint("SUI_MINT_PRICE", c.Sui.MintPrice)
	c.RPCTimeout = envDuration("SUI_RPC_TIMEOUT", c.RPCTimeout)

	c.Walrus.PublisherURL = envutil.GetEnv("WALRUS_PUBLISHER_URL", c.Walrus.PublisherURL)
	c.Walrus.AggregatorURL = envutil.GetEnv("WALRUS_AGGREGATOR_URL", c.Walrus.AggregatorURL)
	c.Walrus.Epochs = envutil.GetEnvAsInt("WALRUS_EPOCHS", c.Walrus.Epochs)
	c.Walrus.Deletable = envutil.GetEnvAsBool("WALRUS_DELETABLE", c.Walrus.Deletable)
	c.Walrus.SendTo = envutil.GetEnv("WALRUS_SEND_TO", "")
	c.BlobTimeout = envDuration("WALRUS_TIMEOUT", c.BlobTimeout)

	c.AllowPrivateNetwork = envutil.GetEnvAsBool("ALLOW_PRIVATE_NETWORK", false)

	return &Config{
		Comic:          c,
		TestMode:       envutil.GetEnvAsBool("TEST_MODE", false),
		TestPrivateKey: envutil.GetEnv("TEST_PRIVATE_KEY", ""),
	}
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// ストーリー設定
	Genre    string // --genre
	Tone     string // --tone
	Language string // --language
	Premise  string // --premise: Custom ジャンルの前提
	Rich     bool   // --rich

	// キャラクター
	HeroImage   string // --hero-image: アップロードするヒーロー画像
	HeroDesc    string // --hero-desc
	CoStarImage string // --costar-image
	CoStarDesc  string // --costar-desc
	OriginFile  string // --origin-file: 原作テキスト

	// 出力
	OutputDir string // --output-dir
	Title     string // --title

	// ミント
	Mint     bool   // --mint: 生成後にミントするか
	MintMode string // --mint-mode: free または wallet
	HeroID   string // --hero-id

	// AI挙動設定
	TextModel  string // --model
	ImageModel string // --image-model
}

// Apply は CLI で指定されたモデル名を生成設定に反映するのだ。
func (c *Config) Apply(opts GenerateOptions) {
	c.Options = opts
	if opts.TextModel != "" {
		c.Comic.TextModel = opts.TextModel
	}
	if opts.ImageModel != "" {
		c.Comic.ImageModel = opts.ImageModel
	}
}

// envUint と envDuration は envutil に無い型の読み込みなのだ。
func envUint(key string, def uint64) uint64 {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		warnInvalid(key, raw, err)
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		warnInvalid(key, raw, err)
		return def
	}
	return v
}

func warnInvalid(key, raw string, err error) {
	slog.Warn(fmt.Sprintf("環境変数 %s の値が不正なためデフォルト値を使うのだ", key), "value", raw, "error", err)
}
