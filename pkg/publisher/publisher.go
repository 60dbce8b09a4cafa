package publisher

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/shouni/go-comic-kit/pkg/asset"
	"github.com/shouni/go-comic-kit/pkg/domain"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir    string
	PDFFileName  string // 空なら asset.DefaultPDFFileName
	SkipImages   bool   // ページ画像と台本を書き出さない
	SkipManifest bool
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	PDFPath      string
	ManifestPath string
	MarkdownPath string
	ImagePaths   []string
	PageCount    int
}

const (
	defaultScriptName   = "comic_script.md"
	defaultImageDirName = "images"
)

// ComicPublisher は完成したコミックを PDF・マニフェスト・台本として書き出します。
type ComicPublisher struct {
	writer OutputWriter
}

// NewComicPublisher は ComicPublisher を作成します。
func NewComicPublisher(writer OutputWriter) *ComicPublisher {
	return &ComicPublisher{writer: writer}
}

// Publish は manifest のページを PageIndex 順に書き出し、生成されたファイル情報を返却するのだ！
func (p *ComicPublisher) Publish(ctx context.Context, manifest domain.ComicManifest, layout domain.StoryLayout, opts Options) (PublishResult, error) {
	var result PublishResult
	faces := Faces(manifest, layout).Resolved()

	pdfName := opts.PDFFileName
	if pdfName == "" {
		pdfName = asset.DefaultPDFFileName
	}
	pdfPath, err := asset.ResolveOutputPath(opts.OutputDir, pdfName)
	if err != nil {
		return result, err
	}

	var buf bytes.Buffer
	n, err := ExportPDF(&buf, faces)
	if err != nil {
		return result, err
	}
	if err := p.writer.Write(ctx, pdfPath, buf.Bytes()); err != nil {
		return result, fmt.Errorf("PDF の書き込みに失敗しました: %w", err)
	}
	result.PDFPath = pdfPath
	result.PageCount = n

	if !opts.SkipManifest {
		manifestPath, err := asset.ResolveOutputPath(opts.OutputDir, asset.DefaultManifestFileName)
		if err != nil {
			return result, err
		}
		data, err := EncodeManifest(manifest)
		if err != nil {
			return result, err
		}
		if err := p.writer.Write(ctx, manifestPath, data); err != nil {
			return result, fmt.Errorf("マニフェストの書き込みに失敗しました: %w", err)
		}
		result.ManifestPath = manifestPath
	}

	if opts.SkipImages {
		return result, nil
	}

	imgDir, err := asset.ResolveOutputPath(opts.OutputDir, defaultImageDirName)
	if err != nil {
		return result, err
	}
	saved, err := p.saveImages(ctx, faces, imgDir)
	if err != nil {
		return result, err
	}
	result.ImagePaths = saved

	relative := make([]string, 0, len(faces))
	for _, f := range faces {
		relative = append(relative, path.Join(defaultImageDirName, pageFileName(f.PageIndex)))
	}
	scriptPath, err := asset.ResolveOutputPath(opts.OutputDir, defaultScriptName)
	if err != nil {
		return result, err
	}
	script := BuildScriptMarkdown(manifest.Title, faces, relative)
	if err := p.writer.Write(ctx, scriptPath, []byte(script)); err != nil {
		return result, fmt.Errorf("台本の書き込みに失敗しました: %w", err)
	}
	result.MarkdownPath = scriptPath

	slog.InfoContext(ctx, "コミックを書き出しました", "title", manifest.Title, "pages", n, "pdf", pdfPath)
	return result, nil
}

func (p *ComicPublisher) saveImages(ctx context.Context, faces domain.ComicFaces, baseDir string) ([]string, error) {
	var paths []string
	for _, f := range faces {
		data, _, err := asset.DecodeDataURL(f.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("ページ %d の画像を読み込めません: %w", f.PageIndex, err)
		}
		fullPath, err := asset.ResolveOutputPath(baseDir, pageFileName(f.PageIndex))
		if err != nil {
			return nil, fmt.Errorf("出力パスの解決に失敗しました: %w", err)
		}
		if err := p.writer.Write(ctx, fullPath, data); err != nil {
			return nil, fmt.Errorf("画像の書き込みに失敗しました %s: %w", fullPath, err)
		}
		paths = append(paths, fullPath)
	}
	return paths, nil
}

func pageFileName(pageIndex int) string {
	return fmt.Sprintf("page_%02d.jpg", pageIndex)
}
