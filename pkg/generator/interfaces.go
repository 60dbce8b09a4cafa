package generator

import (
	"context"

	"github.com/shouni/go-comic-kit/pkg/gemini"
)

// TextModel は JSON 形式のテキスト応答を返す生成サービスの契約です。
type TextModel interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
}

// ImageModel は画像を1枚返す生成サービスの契約です。
type ImageModel interface {
	GenerateImage(ctx context.Context, req gemini.ImageRequest) (*gemini.ImageResponse, error)
}
