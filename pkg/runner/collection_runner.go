package runner

import (
	"context"
	"fmt"

	"github.com/shouni/go-comic-kit/pkg/collection"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/publisher"
)

// ComicCollectionRunner はコレクション一覧の取得と、各号のマニフェスト読み込みを担当します。
type ComicCollectionRunner struct {
	query *collection.Query
	blobs BlobStore
}

// NewComicCollectionRunner は依存関係を注入して初期化します。
func NewComicCollectionRunner(query *collection.Query, blobs BlobStore) *ComicCollectionRunner {
	return &ComicCollectionRunner{query: query, blobs: blobs}
}

// List は owner が Kiosk に保管しているコミックを返します。
func (r *ComicCollectionRunner) List(ctx context.Context, owner string) ([]domain.ComicSummary, error) {
	return r.query.ListComics(ctx, owner)
}

// LoadManifest はアグリゲーターからマニフェストを取得して解析します。
func (r *ComicCollectionRunner) LoadManifest(ctx context.Context, blobID string) (domain.ComicManifest, error) {
	data, err := r.blobs.Read(ctx, blobID)
	if err != nil {
		return domain.ComicManifest{}, fmt.Errorf("マニフェスト %s の取得に失敗しました: %w", blobID, err)
	}
	return publisher.DecodeManifest(data)
}
