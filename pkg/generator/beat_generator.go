package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/prompts"
)

// BeatRequest はビート生成の入力です。
type BeatRequest struct {
	History        domain.ComicFaces
	PageNumber     int
	IsDecisionPage bool
	Settings       domain.StorySettings
	HasCoStar      bool
	FocusCoStar    bool
	OriginSegments []string
}

// BeatGenerator はテキストモデルを1回呼び出してビートを生成します。
type BeatGenerator struct {
	text     TextModel
	prompt   prompts.BeatPrompt
	selector *ModelSelector
	model    string
	layout   domain.StoryLayout
}

// NewBeatGenerator は BeatGenerator を初期化します。
func NewBeatGenerator(text TextModel, pb prompts.BeatPrompt, selector *ModelSelector, model string, layout domain.StoryLayout) *BeatGenerator {
	return &BeatGenerator{
		text:     text,
		prompt:   pb,
		selector: selector,
		model:    model,
		layout:   layout,
	}
}

// RequestBeat はプロンプトを組み立ててビートを1件生成します。
// 呼び出しや解析に失敗した場合はエラーを返し、代替ビートへの置き換えは呼び出し側が行います。
func (g *BeatGenerator) RequestBeat(ctx context.Context, req BeatRequest) (domain.Beat, error) {
	isFinal := g.layout.IsFinalPage(req.PageNumber)
	origin := req.Settings.Genre.IsOriginStory()
	isDecision := req.IsDecisionPage && !origin

	prompt, err := g.prompt.BuildBeat(prompts.BeatInput{
		History:        req.History,
		PageNumber:     req.PageNumber,
		MaxPages:       g.layout.MaxStoryPages,
		IsDecisionPage: isDecision,
		IsFinalPage:    isFinal,
		Settings:       req.Settings,
		HasCoStar:      req.HasCoStar,
		FocusCoStar:    req.FocusCoStar,
		OriginSegments: req.OriginSegments,
	})
	if err != nil {
		return domain.Beat{}, fmt.Errorf("ビートのプロンプト生成に失敗: %w", err)
	}

	slog.InfoContext(ctx, "BeatGenerator: Calling Gemini API", "model", g.model, "page", req.PageNumber, "decision", isDecision)
	raw, err := g.text.GenerateText(ctx, g.model, prompt)
	if err = g.selector.Track(err); err != nil {
		return domain.Beat{}, fmt.Errorf("page %d のビート生成に失敗: %w", req.PageNumber, err)
	}

	var previous *domain.Beat
	if n := len(req.History); n > 0 {
		previous = req.History[n-1].Beat
	}
	return parseBeat(raw, beatRules{
		PageNumber:     req.PageNumber,
		IsDecisionPage: isDecision,
		IsFinalPage:    isFinal,
		OriginStory:    origin,
		PreviousBeat:   previous,
	})
}

// FallbackBeat は、再試行を使い切ったときにページへ入れる代替ビートを返します。
func FallbackBeat(req BeatRequest) domain.Beat {
	if req.Settings.Genre.IsOriginStory() {
		seg := prompts.OriginSegment(req.OriginSegments, req.PageNumber)
		return domain.Beat{
			Caption:        clipRunes(seg, 100) + "...",
			Scene:          "Abstract digital landscape.",
			FocusCharacter: domain.FocusOther,
			Choices:        []string{},
		}
	}
	return domain.PlaceholderBeat(req.PageNumber)
}

func clipRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
