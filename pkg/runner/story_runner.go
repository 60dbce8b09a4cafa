package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/generator"
)

// ComicStoryRunner は、1つのストーリーセッションを表紙から裏表紙まで進める実行実体なのだ。
// 選択肢ページでは ChoicePicker の選んだ選択肢で続きを生成します。
type ComicStoryRunner struct {
	newOrchestrator OrchestratorFactory
}

// NewComicStoryRunner は依存関係を注入して初期化します。
func NewComicStoryRunner(newOrchestrator OrchestratorFactory) *ComicStoryRunner {
	return &ComicStoryRunner{newOrchestrator: newOrchestrator}
}

// Run はセッションを開始し、裏表紙が生成されるか進まなくなるまで続きを生成します。
func (r *ComicStoryRunner) Run(ctx context.Context, req StoryRequest) (domain.ComicFaces, error) {
	if req.Hero == nil {
		return nil, generator.ErrNoHero
	}
	o, err := r.newOrchestrator()
	if err != nil {
		return nil, err
	}
	pick := req.Pick
	if pick == nil {
		pick = FirstChoice
	}

	o.SetSettings(req.Settings)
	if req.Settings.Genre.IsOriginStory() {
		o.SetOriginStory(req.OriginMarkdown)
	}
	o.SetHero(req.Hero)
	if req.CoStar != nil {
		o.SetCoStar(req.CoStar)
	}
	if req.Observer != nil {
		unsubscribe := o.Subscribe(req.Observer)
		defer unsubscribe()
	}

	start := time.Now()
	slog.InfoContext(ctx, "ストーリーを開始します", "genre", req.Settings.Genre, "language", req.Settings.LanguageName())
	if err := o.Launch(ctx); err != nil {
		return o.Snapshot(), fmt.Errorf("ストーリーの開始に失敗しました: %w", err)
	}

	layout := o.Layout()
	for step := 0; step <= layout.BackCoverPage; step++ {
		faces := o.Snapshot()
		if pending, ok := pendingDecision(faces); ok {
			choice := pick(pending)
			if choice == "" {
				choice = FirstChoice(pending)
			}
			if err := o.ResolveChoice(ctx, pending.PageIndex, choice); err != nil {
				return o.Snapshot(), err
			}
			continue
		}

		last := faces.MaxPageIndex()
		if last >= layout.BackCoverPage {
			break
		}
		if err := o.Continue(ctx); err != nil {
			return o.Snapshot(), err
		}
		if o.Snapshot().MaxPageIndex() == last {
			slog.WarnContext(ctx, "ページが進まないため生成を打ち切ります", "page", last)
			break
		}
	}

	faces := o.Snapshot()
	slog.InfoContext(ctx, "ストーリーの生成が完了しました",
		"pages", len(faces),
		"resolved", len(faces.Resolved()),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return faces, nil
}

// pendingDecision は、選択肢が出ているのにまだ選ばれていない最初のページを返します。
func pendingDecision(faces domain.ComicFaces) (domain.ComicFace, bool) {
	for _, f := range faces.SortedByPage() {
		if f.IsDecisionPage && f.Beat != nil && f.Beat.HasChoices() && f.ResolvedChoice == "" {
			return f, true
		}
	}
	return domain.ComicFace{}, false
}
