package publisher

import (
	"fmt"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/director"
	"github.com/shouni/go-comic-kit/pkg/domain"
)

const placeholderImage = "placeholder.png"

// BuildScriptMarkdown は、タイトル、画像パス、各ページのビートをまとめた台本 Markdown を生成します。
// imagePaths は faces と同じ順序で、足りない分はプレースホルダーになります。
func BuildScriptMarkdown(title string, faces domain.ComicFaces, imagePaths []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	style := director.NewStyleManager()

	for i, f := range faces {
		img := placeholderImage
		if i < len(imagePaths) {
			img = imagePaths[i]
		}

		sb.WriteString(fmt.Sprintf("## Page %d (%s)\n", f.PageIndex, f.Type))
		sb.WriteString(fmt.Sprintf("![page %d](%s)\n\n", f.PageIndex, img))

		if f.Beat == nil {
			sb.WriteString("- type: none\n\n")
			continue
		}
		b := f.Beat
		if b.Caption != "" {
			sb.WriteString(fmt.Sprintf("- caption: %s\n", strings.TrimSpace(b.Caption)))
		}
		if b.Dialogue != "" {
			sb.WriteString(fmt.Sprintf("- speaker: %s\n", style.ResolveSpeakerID(b.FocusCharacter)))
			sb.WriteString(fmt.Sprintf("- style: %s\n", style.DetermineDialogueType(b.Dialogue)))
			sb.WriteString(fmt.Sprintf("- text: %s\n", style.StripTags(b.Dialogue)))
		}
		for _, c := range b.Choices {
			mark := " "
			if c == f.ResolvedChoice {
				mark = "x"
			}
			sb.WriteString(fmt.Sprintf("- [%s] %s\n", mark, c))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
