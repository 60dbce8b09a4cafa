package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/pkg/asset"
	"github.com/shouni/go-comic-kit/pkg/domain"
)

// ComicPersonaRunner はヒーロー/共演者のペルソナを用意する実行実体なのだ。
type ComicPersonaRunner struct {
	newOrchestrator OrchestratorFactory
}

// NewComicPersonaRunner は依存関係を注入して初期化します。
func NewComicPersonaRunner(newOrchestrator OrchestratorFactory) *ComicPersonaRunner {
	return &ComicPersonaRunner{newOrchestrator: newOrchestrator}
}

// FromImage はアップロードされた画像をアップロード用に縮小・再圧縮し、ペルソナにします。
func (r *ComicPersonaRunner) FromImage(ctx context.Context, imageData []byte, description string) (*domain.Persona, error) {
	if len(imageData) == 0 {
		return nil, fmt.Errorf("ヒーロー画像が空です")
	}
	compressed, err := asset.CompressForUpload(imageData)
	if err != nil {
		return nil, fmt.Errorf("ヒーロー画像の圧縮に失敗しました: %w", err)
	}
	slog.InfoContext(ctx, "ヒーロー画像を読み込みました", "original_bytes", len(imageData), "compressed_bytes", len(compressed))
	return domain.NewPersona(compressed, "image/jpeg", description), nil
}

// Generate は説明文から参照ポートレートを生成します。
func (r *ComicPersonaRunner) Generate(ctx context.Context, description string, settings domain.StorySettings) (*domain.Persona, error) {
	o, err := r.newOrchestrator()
	if err != nil {
		return nil, err
	}
	o.SetSettings(settings)
	return o.RequestPersona(ctx, description)
}
