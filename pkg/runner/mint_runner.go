package runner

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/shouni/go-comic-kit/pkg/asset"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/publisher"
	"github.com/shouni/go-comic-kit/pkg/sui"
	"github.com/shouni/go-comic-kit/pkg/walrus"
)

// HeroMintRunner は、ヒーロー画像を圧縮して Walrus に保存し、HeroAsset としてミントする実行実体なのだ。
type HeroMintRunner struct {
	blobs  BlobStore
	minter HeroMinter
	pkg    sui.ComicPackage
	store  walrus.StoreOptions
}

// NewHeroMintRunner は依存関係を注入して初期化します。
func NewHeroMintRunner(blobs BlobStore, minter HeroMinter, pkg sui.ComicPackage, store walrus.StoreOptions) *HeroMintRunner {
	return &HeroMintRunner{blobs: blobs, minter: minter, pkg: pkg, store: store}
}

// Run はヒーローをミントし、作成された HeroAsset の ID を返します。
func (r *HeroMintRunner) Run(ctx context.Context, hero *domain.Persona, name string) (*HeroMintResult, error) {
	if !hero.HasImage() {
		return nil, fmt.Errorf("ヒーロー画像がありません")
	}
	compressed, err := asset.CompressForUpload(hero.ImageData())
	if err != nil {
		return nil, fmt.Errorf("ヒーロー画像の圧縮に失敗しました: %w", err)
	}

	ref, blobID, err := storeBlob(ctx, r.blobs, compressed, r.store)
	if err != nil {
		return nil, fmt.Errorf("ヒーロー画像の保存に失敗しました: %w", err)
	}

	res, err := r.minter.MintHero(ctx, sui.HeroMint{Name: name, BlobID: blobID, MetadataURL: ref.URL})
	if err != nil {
		return nil, err
	}

	out := &HeroMintResult{Blob: ref, Digest: res.Digest}
	if ids := res.CreatedOfType(r.pkg.HeroAssetType()); len(ids) > 0 {
		out.HeroID = ids[0]
	}
	slog.InfoContext(ctx, "ヒーローをミントしました", "hero_id", out.HeroID, "blob_id", ref.BlobID, "digest", res.Digest)
	return out, nil
}

// ComicMintRunner は、完成したページをマニフェストにまとめて Walrus に保存し、ComicIssue としてミントする実行実体なのだ。
type ComicMintRunner struct {
	blobs  BlobStore
	minter ComicMinter
	pkg    sui.ComicPackage
	store  walrus.StoreOptions
	now    func() time.Time
}

// NewComicMintRunner は依存関係を注入して初期化します。
func NewComicMintRunner(blobs BlobStore, minter ComicMinter, pkg sui.ComicPackage, store walrus.StoreOptions) *ComicMintRunner {
	return &ComicMintRunner{blobs: blobs, minter: minter, pkg: pkg, store: store, now: time.Now}
}

// Run はマニフェストと表紙を保存してから、指定された経路でコミックをミントします。
// ミントの失敗は再試行せずに返します。
func (r *ComicMintRunner) Run(ctx context.Context, req ComicMintRequest) (*ComicMintResult, error) {
	resolved := req.Faces.Resolved()
	if len(resolved) == 0 {
		return nil, publisher.ErrNoPages
	}

	var heroID *sui.ObjectID
	if req.HeroID != "" {
		id, err := sui.ParseAddress(req.HeroID)
		if err != nil {
			return nil, fmt.Errorf("ヒーロー ID が不正です: %w", err)
		}
		heroID = &id
	}
	if req.Mode == sui.MintModeWallet && heroID == nil {
		return nil, fmt.Errorf("ウォレット経路のミントにはヒーロー ID が必要です")
	}

	// 1. ページ画像を圧縮したマニフェストの保存
	manifest, err := publisher.BuildManifest(req.Title, req.Genre, req.HeroID, resolved, r.now(), compressDataURL)
	if err != nil {
		return nil, err
	}
	data, err := publisher.EncodeManifest(manifest)
	if err != nil {
		return nil, err
	}
	manifestRef, manifestBlobID, err := storeBlob(ctx, r.blobs, data, r.store)
	if err != nil {
		return nil, fmt.Errorf("マニフェストの保存に失敗しました: %w", err)
	}

	// 2. 表紙の保存
	cover := coverFace(resolved)
	coverData, err := asset.CompressDataURL(cover.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("表紙の圧縮に失敗しました: %w", err)
	}
	coverRef, _, err := storeBlob(ctx, r.blobs, coverData, r.store)
	if err != nil {
		return nil, fmt.Errorf("表紙の保存に失敗しました: %w", err)
	}

	// 3. ミント
	res, err := r.minter.MintComic(ctx, req.Mode, sui.ComicMint{
		Title:    req.Title,
		Genre:    string(req.Genre),
		CoverURL: coverRef.URL,
		BlobID:   manifestBlobID,
		HeroID:   heroID,
		Mode:     sui.DefaultIssueMode,
	})
	if err != nil {
		return nil, err
	}

	out := &ComicMintResult{
		Manifest: manifestRef,
		Cover:    coverRef,
		Digest:   res.Digest,
		Pages:    len(manifest.Pages),
	}
	if ids := res.CreatedOfType(r.pkg.ComicIssueType()); len(ids) > 0 {
		out.IssueID = ids[0]
	}
	if ids := res.CreatedOfType(r.pkg.ComicSeriesType()); len(ids) > 0 {
		out.SeriesID = ids[0]
	}
	slog.InfoContext(ctx, "コミックをミントしました",
		"mode", req.Mode,
		"issue_id", out.IssueID,
		"manifest_blob", manifestRef.BlobID,
		"pages", out.Pages,
		"digest", res.Digest,
	)
	return out, nil
}

// storeBlob はデータを保存し、オンチェーンに載せる u256 形式の Blob ID も返します。
func storeBlob(ctx context.Context, blobs BlobStore, data []byte, opts walrus.StoreOptions) (walrus.BlobRef, *big.Int, error) {
	ref, err := blobs.Store(ctx, data, opts)
	if err != nil {
		return walrus.BlobRef{}, nil, err
	}
	id, err := walrus.BlobIDToU256(ref.BlobID)
	if err != nil {
		return walrus.BlobRef{}, nil, err
	}
	return ref, id, nil
}

func compressDataURL(dataURL string) (string, error) {
	data, err := asset.CompressDataURL(dataURL)
	if err != nil {
		return "", err
	}
	return asset.EncodeDataURL(data, "image/jpeg"), nil
}

// coverFace は表紙 (ページ 0) を返します。表紙がなければ最初のページを使います。
func coverFace(resolved domain.ComicFaces) domain.ComicFace {
	if f, ok := resolved.FindByPage(0); ok {
		return f
	}
	return resolved[0]
}
