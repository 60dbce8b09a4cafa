package prompts

import (
	"fmt"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// genreStyle はジャンルごとの画風定義です。
type genreStyle struct {
	base        string // STYLE 行
	persona     string // 参照ポートレートの画風
	label       string // "Japanese Manga", "Korean Manhwa/Webtoon" など
	coverVisual string
	backTone    string
	layout      string // ストーリーパネルのレイアウト指示
	bubble      string // 台詞の配置指示
	artRules    string
	enhance     bool // GlobalEnhance を付与するか
}

var genreStyles = map[domain.Genre]genreStyle{
	domain.GenreManga: {
		base:        "STYLE: Japanese Manga (Colorful), vibrant colors, traditional manga art style, detailed linework, dramatic angles, expressive characters, manga speech bubbles, colorful manga aesthetics. ",
		persona:     "Japanese Manga (Colorful) character sheet",
		label:       "Japanese Manga (Colorful)",
		coverVisual: "Dynamic manga-style action shot of [HERO] using REFERENCE 1.\n  Colorful manga art with vibrant colors, detailed linework, dramatic lighting.",
		backTone:    "Dramatic teaser tone in manga style. Include small teaser text: \"NEXT ISSUE SOON\" in manga typography.",
		layout:      "- Create a manga page with multiple panels (3-4 rows, 2-3 panels per row).\n  - Break the scene into 6-12 smaller panels with varied sizes.\n  - Include close-ups, medium shots, and wide shots for variety.",
		bubble:      "place in manga speech bubble with tail pointing to speaker",
		artRules:    "Vibrant colorful manga art, no black and white. Expressive faces, action lines, sweat drops.",
	},
	domain.GenreManhwa: {
		base:        "STYLE: Korean Manhwa/Webtoon, vertical scroll format, vibrant colors, clean line art, modern digital art style, webtoon panel layout, expressive characters, Korean comic aesthetics. ",
		persona:     "Korean Manhwa/Webtoon character sheet",
		label:       "Korean Manhwa/Webtoon",
		coverVisual: "Dynamic webtoon-style action shot of [HERO] using REFERENCE 1.\n  Vibrant colors, clean digital art, vertical-oriented cover design.",
		backTone:    "Dramatic teaser tone in webtoon style. Include small teaser text: \"NEXT ISSUE SOON\" in webtoon typography.",
		layout:      "- Vertical scroll format with 2-4 panels stacked vertically.\n  - Use varied panel heights for visual rhythm.",
		bubble:      "place in webtoon speech bubble",
		artRules:    "Vibrant modern palette, clean digital line art, vertical scroll composition.",
	},
	domain.GenreManhua: {
		base:        "STYLE: Chinese Manhua, colorful detailed art, traditional Chinese comic style, intricate backgrounds, expressive character designs, vibrant palette, Chinese comic aesthetics. ",
		persona:     "Chinese Manhua character sheet",
		label:       "Chinese Manhua",
		coverVisual: "Dynamic manhua-style action shot of [HERO] using REFERENCE 1.\n  Colorful detailed art, intricate backgrounds, vibrant palette.",
		backTone:    "Dramatic teaser tone in manhua style. Include small teaser text: \"NEXT ISSUE SOON\" in Chinese comic typography.",
		layout:      "- Manhua-style page layout (multi-panel or a single large panel).\n  - Intricate backgrounds and flowing motion.",
		bubble:      "place in manhua speech bubble",
		artRules:    "Colorful detailed art, intricate backgrounds, traditional Chinese comic aesthetics.",
	},
	domain.GenreMarvelDC: {
		base:        "STYLE: Marvel/DC Superhero Comics, classic American comic book art, bold colors, dynamic action poses, dramatic lighting, superhero comic aesthetics, iconic superhero style. ",
		persona:     "Marvel/DC Superhero comic book character sheet",
		label:       "Marvel/DC Superhero Comic",
		coverVisual: "Dynamic superhero-style action shot of [HERO] using REFERENCE 1.\n  Classic American comic book art, bold colors, dramatic lighting.",
		backTone:    "Dramatic teaser tone in superhero comic style. Include small teaser text: \"NEXT ISSUE SOON\" in comic book typography.",
		layout:      "- Classic American comic page with 3-6 panels.\n  - Bold panel borders, dynamic action framing.",
		bubble:      "place in classic comic speech balloon",
		artRules:    "Bold colors, heavy inks, dynamic poses, iconic superhero aesthetics.",
	},
}

// styleFor はジャンルの画風を返します。定義のないジャンルは汎用スタイルになります。
func styleFor(g domain.Genre) genreStyle {
	if s, ok := genreStyles[g]; ok {
		return s
	}

	era := string(g)
	persona := fmt.Sprintf("%s comic", g)
	if g.UsesGraphicNovelStyle() {
		era = "Modern High-Fidelity Graphic Novel"
		persona = "Modern American comic book art"
	}
	return genreStyle{
		base:        fmt.Sprintf("STYLE: %s, high-detail line art, realistic anatomy, cinematic lighting, consistent color grading. ", era),
		persona:     persona,
		label:       "Comic Book",
		coverVisual: "Dynamic, high-impact action shot of [HERO] using REFERENCE 1.\n  Full detail, dramatic lighting, poster-quality composition.",
		backTone:    "Dramatic teaser tone. Include small teaser text: \"NEXT ISSUE SOON\".\n  Poster-like, emotional atmosphere.",
		layout:      "- Single vertical comic panel.",
		bubble:      "place in speech bubble",
		artRules:    "Clean composition, consistent lighting.",
		enhance:     true,
	}
}
