package runner

import (
	"context"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/publisher"
)

// ComicExportRunner は pkg/publisher を利用した標準実装なのだ。
type ComicExportRunner struct {
	layout    domain.StoryLayout
	publisher *publisher.ComicPublisher
}

func NewComicExportRunner(layout domain.StoryLayout, pub *publisher.ComicPublisher) *ComicExportRunner {
	return &ComicExportRunner{
		layout:    layout,
		publisher: pub,
	}
}

func (er *ComicExportRunner) Run(ctx context.Context, manifest domain.ComicManifest, outputDir string) (publisher.PublishResult, error) {
	opts := publisher.Options{
		OutputDir: outputDir,
	}
	return er.publisher.Publish(ctx, manifest, er.layout, opts)
}
