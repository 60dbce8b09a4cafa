package generator

import (
	"context"
	"fmt"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/gemini"
	"github.com/shouni/go-comic-kit/pkg/prompts"
)

// PanelReferences は作画の一貫性に必要な参照キャラクターです。
type PanelReferences struct {
	Hero   *domain.Persona
	CoStar *domain.Persona
}

// PanelGenerator はビートとページ種別からページ画像を生成します。
type PanelGenerator struct {
	image    ImageModel
	prompt   prompts.ImagePrompt
	selector *ModelSelector
}

// NewPanelGenerator は PanelGenerator を初期化します。
func NewPanelGenerator(image ImageModel, pb prompts.ImagePrompt, selector *ModelSelector) *PanelGenerator {
	return &PanelGenerator{image: image, prompt: pb, selector: selector}
}

// RequestPanelImage は画像を1枚生成し、data URL を返します。失敗時は空文字とエラーを返します。
func (g *PanelGenerator) RequestPanelImage(ctx context.Context, beat domain.Beat, faceType domain.FaceType, refs PanelReferences, settings domain.StorySettings) (string, error) {
	parts := referenceParts(refs)
	parts = append(parts, gemini.TextPart(g.prompt.BuildPanel(prompts.PanelInput{
		Beat:     beat,
		FaceType: faceType,
		Settings: settings,
	})))

	var url string
	err := g.selector.Do(ctx, func(ctx context.Context, model string) error {
		resp, err := g.image.GenerateImage(ctx, gemini.ImageRequest{
			Model:       model,
			Parts:       parts,
			AspectRatio: prompts.PanelAspectRatio,
		})
		if err != nil {
			return err
		}
		url = resp.DataURL()
		if url == "" {
			return gemini.ErrNoImage
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s 画像の生成に失敗しました: %w", faceType, err)
	}
	return url, nil
}

func referenceParts(refs PanelReferences) []gemini.Part {
	var parts []gemini.Part
	if refs.Hero.HasImage() {
		parts = append(parts,
			gemini.TextPart(prompts.HeroReferenceLabel),
			gemini.ImagePart(refs.Hero.ImageData(), refs.Hero.MimeType()))
	}
	if refs.CoStar.HasImage() {
		parts = append(parts,
			gemini.TextPart(prompts.CoStarReferenceLabel),
			gemini.ImagePart(refs.CoStar.ImageData(), refs.CoStar.MimeType()))
	}
	return parts
}
