package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// PanelInput はページ画像1枚分のプロンプト入力です。
type PanelInput struct {
	Beat     domain.Beat
	FaceType domain.FaceType
	Settings domain.StorySettings
}

// ImagePromptBuilder は、ジャンルの画風とページ種別に応じて画像プロンプトを構築します。
type ImagePromptBuilder struct{}

// NewImagePromptBuilder は新しい ImagePromptBuilder を生成します。
func NewImagePromptBuilder() *ImagePromptBuilder {
	return &ImagePromptBuilder{}
}

// BuildPersona は参照ポートレート用のプロンプトを返します。
func (pb *ImagePromptBuilder) BuildPersona(description string, genre domain.Genre) string {
	return fmt.Sprintf("STYLE: Masterpiece %s, detailed ink, neutral background. FULL BODY. Character: %s",
		styleFor(genre).persona, description)
}

// BuildPanel はページ種別ごとのプロンプトを返します。
func (pb *ImagePromptBuilder) BuildPanel(in PanelInput) string {
	style := styleFor(in.Settings.Genre)

	var sb strings.Builder
	sb.WriteString(style.base)

	switch in.FaceType {
	case domain.FaceCover:
		title := DefaultComicTitle
		if in.Settings.Genre.IsOriginStory() {
			title = OriginComicTitle
		}
		sb.WriteString(fmt.Sprintf("\n  TYPE: %s Cover.\n", style.label))
		sb.WriteString(fmt.Sprintf("  TITLE: %q (OR TRANSLATION IN %s).\n", title, strings.ToUpper(in.Settings.LanguageName())))
		sb.WriteString("  Main visual: " + style.coverVisual + "\n")
	case domain.FaceBackCover:
		sb.WriteString(fmt.Sprintf("\n  TYPE: %s Back Cover.\n", style.label))
		sb.WriteString("  FULL PAGE VERTICAL ART.\n")
		sb.WriteString("  " + style.backTone + "\n")
	default:
		sb.WriteString(fmt.Sprintf("\n  TYPE: %s Panel Layout.\n", style.label))
		sb.WriteString("\n  LAYOUT REQUIREMENTS:\n  " + style.layout + "\n")
		sb.WriteString("\n  SCENE DESCRIPTION:\n  " + in.Beat.Scene + "\n")
		sb.WriteString(likenessInstructions + "\n")
		if in.Beat.Caption != "" {
			sb.WriteString(fmt.Sprintf("\n  CAPTION/NARRATION: %q (place in caption box at top or side of relevant panel).", in.Beat.Caption))
		}
		if in.Beat.Dialogue != "" {
			sb.WriteString(fmt.Sprintf("\n  DIALOGUE: %q (%s).", in.Beat.Dialogue, style.bubble))
		}
		sb.WriteString("\n\n  ART RULES: " + style.artRules + "\n")
	}

	if style.enhance {
		sb.WriteString(GlobalEnhance)
	}
	return sb.String()
}
