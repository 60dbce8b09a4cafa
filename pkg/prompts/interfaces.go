package prompts

import "github.com/shouni/go-comic-kit/pkg/domain"

// BeatPrompt は、ビート生成用のプロンプトを構築する契約です。
type BeatPrompt interface {
	BuildBeat(in BeatInput) (string, error)
}

// ImagePrompt は、画像生成用のプロンプトを構築する契約です。
type ImagePrompt interface {
	// BuildPersona は参照ポートレート1枚分のプロンプトを返します。
	BuildPersona(description string, genre domain.Genre) string
	// BuildPanel は表紙・裏表紙・ストーリーパネルのプロンプトを返します。
	BuildPanel(in PanelInput) string
}
