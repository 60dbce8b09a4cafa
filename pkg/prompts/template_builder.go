package prompts

import (
	"fmt"

	promptkit "github.com/shouni/go-prompt-kit/prompts"
	"github.com/shouni/go-prompt-kit/resource"
)

// TextPromptBuilder はビート生成プロンプトの構成を管理し、モード選択のロジックを内包します。
type TextPromptBuilder struct {
	builder *promptkit.Builder
}

// NewTextPromptBuilder は埋め込みテンプレートを読み込み、TextPromptBuilder を初期化します。
func NewTextPromptBuilder() (*TextPromptBuilder, error) {
	templates, err := resource.Load(templateFS, "templates", templatePrefix)
	if err != nil {
		return nil, fmt.Errorf("プロンプトテンプレートの読み込みに失敗しました: %w", err)
	}
	for _, mode := range []string{ModeStory, ModeOrigin} {
		if _, ok := templates[mode]; !ok {
			return nil, fmt.Errorf("プロンプトテンプレート '%s' が見つかりません", mode)
		}
	}

	b, err := promptkit.NewBuilder(templates)
	if err != nil {
		return nil, fmt.Errorf("プロンプトビルダーの初期化に失敗しました: %w", err)
	}
	return &TextPromptBuilder{builder: b}, nil
}

// Build は、要求されたモードに応じて適切なテンプレートを実行します。
func (b *TextPromptBuilder) Build(mode string, data BeatTemplateData) (string, error) {
	return b.builder.Build(mode, data)
}

// BuildBeat は、ページの状況からテンプレートデータを組み立ててプロンプトを返します。
func (b *TextPromptBuilder) BuildBeat(in BeatInput) (string, error) {
	if in.Settings.Genre.IsOriginStory() {
		return b.Build(ModeOrigin, originTemplateData(in))
	}
	return b.Build(ModeStory, storyTemplateData(in))
}
