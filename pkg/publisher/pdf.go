package publisher

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/webp"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/shouni/go-comic-kit/pkg/asset"
	"github.com/shouni/go-comic-kit/pkg/domain"
)

// PDF の1ページの大きさ (pt)
const (
	PageWidth  = 480
	PageHeight = 720
)

// ErrNoPages は書き出せるページが1枚もないことを表します。
var ErrNoPages = errors.New("publisher: 画像の揃ったページがありません")

// ErrInvalidImage は PDF に埋め込めない画像データを表します。
var ErrInvalidImage = errors.New("publisher: 画像として読み込めません")

// PageImage は PDF に埋め込む1ページ分の画像です。
type PageImage struct {
	PageIndex int
	Data      []byte
}

// PageImages は、画像の揃ったページを PageIndex の昇順に並べ、data URL をデコードして返します。
// 読み込み中や画像のないページは含めません。
func PageImages(faces domain.ComicFaces) ([]PageImage, error) {
	var out []PageImage
	for _, f := range faces.Resolved() {
		data, _, err := asset.DecodeDataURL(f.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("ページ %d の画像を読み込めません: %w", f.PageIndex, err)
		}
		out = append(out, PageImage{PageIndex: f.PageIndex, Data: data})
	}
	return out, nil
}

// WritePDF は pages を1ページ1画像の PDF として w に書き出します。
// pages は呼び出し側で並べ替え済みであることを前提とします。
func WritePDF(w io.Writer, pages []PageImage) error {
	if len(pages) == 0 {
		return ErrNoPages
	}

	readers := make([]io.Reader, 0, len(pages))
	for _, p := range pages {
		if _, _, err := image.DecodeConfig(bytes.NewReader(p.Data)); err != nil {
			return fmt.Errorf("ページ %d: %w: %v", p.PageIndex, ErrInvalidImage, err)
		}
		readers = append(readers, bytes.NewReader(p.Data))
	}

	imp := pdfcpu.DefaultImportConfig()
	imp.PageDim = &types.Dim{Width: PageWidth, Height: PageHeight}
	imp.PageSize = ""
	imp.UserDim = true
	// 固定サイズのページに縦横比を保って収めるのだ
	imp.Pos = types.Center
	imp.Scale = 1.0
	imp.ScaleAbs = false

	conf := model.NewDefaultConfiguration()
	if err := api.ImportImages(nil, w, readers, imp, conf); err != nil {
		return fmt.Errorf("PDF の生成に失敗しました: %w", err)
	}
	return nil
}

// ExportPDF は faces のうち画像の揃ったページを PageIndex 順に PDF へ書き出します。
func ExportPDF(w io.Writer, faces domain.ComicFaces) (int, error) {
	pages, err := PageImages(faces)
	if err != nil {
		return 0, err
	}
	if err := WritePDF(w, pages); err != nil {
		return 0, err
	}
	return len(pages), nil
}
