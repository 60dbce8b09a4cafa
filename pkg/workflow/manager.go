package workflow

import (
	"context"
	"fmt"

	"github.com/shouni/go-http-kit/httpkit"

	"github.com/shouni/go-comic-kit/pkg/config"
	"github.com/shouni/go-comic-kit/pkg/gemini"
	"github.com/shouni/go-comic-kit/pkg/generator"
	"github.com/shouni/go-comic-kit/pkg/publisher"
	"github.com/shouni/go-comic-kit/pkg/runner"
	"github.com/shouni/go-comic-kit/pkg/sui"
	"github.com/shouni/go-comic-kit/pkg/walrus"
)

// Manager は、ワークフローの各工程を担う Runner 群を構築・管理します。
type Manager struct {
	cfg    config.Config
	text   generator.TextModel
	image  generator.ImageModel
	blobs  runner.BlobStore
	chain  ChainClient
	writer publisher.OutputWriter
	signer sui.Signer
	minter runner.Minter

	onCredentialError func(error)
}

var _ Workflow = (*Manager)(nil)

// New は、設定と依存関係を基に新しい Manager を初期化します。
// API キーがなければ生成モデルは作りません。コレクション取得とエクスポートはキーなしで使えます。
func New(ctx context.Context, args ManagerArgs) (*Manager, error) {
	cfg := args.Config

	blobs := args.Blobs
	if blobs == nil {
		c, err := walrus.NewClient(walrus.Config{
			PublisherURL:        cfg.Walrus.PublisherURL,
			AggregatorURL:       cfg.Walrus.AggregatorURL,
			Timeout:             cfg.BlobTimeout,
			AllowPrivateNetwork: cfg.AllowPrivateNetwork,
		})
		if err != nil {
			return nil, fmt.Errorf("Walrus クライアントの初期化に失敗しました: %w", err)
		}
		blobs = c
	}

	chain := args.Chain
	if chain == nil {
		if cfg.Sui.RPCURL == "" {
			return nil, fmt.Errorf("SUI_RPC_URL は必須です")
		}
		chain = sui.NewClient(cfg.Sui.RPCURL, cfg.RPCTimeout, httpkit.WithSkipNetworkValidation(cfg.AllowPrivateNetwork))
	}

	if cfg.Walrus.SendTo != "" {
		owner, err := sui.ParseAddress(cfg.Walrus.SendTo)
		if err != nil {
			return nil, fmt.Errorf("WALRUS_SEND_TO が不正です: %w", err)
		}
		cfg.Walrus.SendTo = owner.String()
	}

	writer := args.Writer
	if writer == nil {
		writer = publisher.LocalWriter{}
	}

	m := &Manager{
		cfg:               cfg,
		text:              args.TextModel,
		image:             args.ImageModel,
		blobs:             blobs,
		chain:             chain,
		writer:            writer,
		signer:            args.Signer,
		minter:            args.Minter,
		onCredentialError: args.OnCredentialError,
	}

	if (m.text == nil || m.image == nil) && cfg.GeminiAPIKey != "" {
		client, err := initializeAIClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if m.text == nil {
			m.text = client
		}
		if m.image == nil {
			m.image = client
		}
	}
	return m, nil
}

// initializeAIClient は gemini クライアントを初期化します。
func initializeAIClient(ctx context.Context, cfg config.Config) (*gemini.Client, error) {
	client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey,
		gemini.WithRateInterval(cfg.RateInterval),
		gemini.WithTimeout(cfg.RequestTimeout),
		gemini.WithRetryDelay(cfg.RetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return client, nil
}

// Config は Manager の設定を返します。
func (m *Manager) Config() config.Config { return m.cfg }

// newOrchestrator はセッションごとに新しい Orchestrator を作ります。
func (m *Manager) newOrchestrator(opts ...generator.Option) (*generator.Orchestrator, error) {
	if m.text == nil || m.image == nil {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY を設定してください", gemini.ErrCredentials)
	}
	if m.onCredentialError != nil {
		opts = append(opts, generator.WithCredentialHandler(m.onCredentialError))
	}
	return generator.New(m.cfg, m.text, m.image, opts...)
}

// mintClient は設定済みの Minter か、Signer と Chain から組み立てた sui.Minter を返します。
func (m *Manager) mintClient() (runner.Minter, error) {
	if m.minter != nil {
		return m.minter, nil
	}
	if m.signer == nil {
		return nil, fmt.Errorf("ミントには署名鍵が必要です (TEST_PRIVATE_KEY)")
	}
	minterCfg, err := minterConfig(m.cfg)
	if err != nil {
		return nil, err
	}
	minter, err := sui.NewMinter(m.chain, m.signer, minterCfg)
	if err != nil {
		return nil, err
	}
	return minter, nil
}

func (m *Manager) comicPackage() (sui.ComicPackage, error) {
	id, err := sui.ParseAddress(m.cfg.Sui.PackageID)
	if err != nil {
		return sui.ComicPackage{}, fmt.Errorf("SUI_PACKAGE_ID が不正です: %w", err)
	}
	return sui.NewComicPackage(id), nil
}

// minterConfig は Config のオブジェクト ID を解析して MinterConfig にします。空の ID はゼロ値のままです。
func minterConfig(cfg config.Config) (sui.MinterConfig, error) {
	if err := cfg.Sui.ValidateChain(); err != nil {
		return sui.MinterConfig{}, err
	}
	out := sui.MinterConfig{
		GasBudget: cfg.Sui.GasBudget,
		MintPrice: cfg.Sui.MintPrice,
		Timeout:   cfg.RPCTimeout,
	}
	fields := []struct {
		name string
		raw  string
		dst  *sui.Address
	}{
		{"SUI_PACKAGE_ID", cfg.Sui.PackageID, &out.PackageID},
		{"SUI_HERO_POLICY_ID", cfg.Sui.HeroPolicyID, &out.HeroPolicyID},
		{"SUI_COMIC_POLICY_ID", cfg.Sui.ComicPolicyID, &out.ComicPolicyID},
		{"SUI_PROTOCOL_STATE_ID", cfg.Sui.ProtocolStateID, &out.ProtocolStateID},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		a, err := sui.ParseAddress(f.raw)
		if err != nil {
			return sui.MinterConfig{}, fmt.Errorf("%s が不正です: %w", f.name, err)
		}
		*f.dst = a
	}
	return out, nil
}
