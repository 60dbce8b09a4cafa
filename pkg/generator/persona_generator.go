package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/gemini"
	"github.com/shouni/go-comic-kit/pkg/prompts"
)

// PersonaGenerator は参照ポートレートを1枚生成します。
type PersonaGenerator struct {
	image    ImageModel
	prompt   prompts.ImagePrompt
	selector *ModelSelector
}

// NewPersonaGenerator は PersonaGenerator を初期化します。
func NewPersonaGenerator(image ImageModel, pb prompts.ImagePrompt, selector *ModelSelector) *PersonaGenerator {
	return &PersonaGenerator{image: image, prompt: pb, selector: selector}
}

// RequestPersona は説明文からポートレートを生成します。
// 失敗はそのまま返します。ペルソナが欠けると以降のページの一貫性が落ちるためです。
func (g *PersonaGenerator) RequestPersona(ctx context.Context, description string, genre domain.Genre) (*domain.Persona, error) {
	text := g.prompt.BuildPersona(description, genre)

	var img *gemini.ImageResponse
	start := time.Now()
	err := g.selector.Do(ctx, func(ctx context.Context, model string) error {
		resp, err := g.image.GenerateImage(ctx, gemini.ImageRequest{
			Model:       model,
			Parts:       []gemini.Part{gemini.TextPart(text)},
			AspectRatio: prompts.PersonaAspectRatio,
		})
		if err != nil {
			return err
		}
		img = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ペルソナの生成に失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "Persona generation completed", "description", description, "duration", time.Since(start).Round(time.Millisecond))
	return domain.NewPersona(img.Data, img.MimeType, description), nil
}
