package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// ImageTransform はマニフェストに載せる前にページ画像を変換する関数です (圧縮など)。
type ImageTransform func(dataURL string) (string, error)

// BuildManifest は画像の揃ったページから ComicManifest を組み立てます。
// transform が nil なら画像 URL はそのまま使います。
func BuildManifest(title string, genre domain.Genre, heroID string, faces domain.ComicFaces, now time.Time, transform ImageTransform) (domain.ComicManifest, error) {
	m := domain.ComicManifest{
		Title:     title,
		Genre:     genre,
		HeroID:    heroID,
		Pages:     []domain.ManifestPage{},
		Timestamp: now.UnixMilli(),
	}
	for _, f := range faces.Resolved() {
		url := f.ImageURL
		if transform != nil {
			var err error
			if url, err = transform(url); err != nil {
				return domain.ComicManifest{}, fmt.Errorf("ページ %d の画像変換に失敗しました: %w", f.PageIndex, err)
			}
		}
		page := domain.ManifestPage{PageIndex: f.PageIndex, ImageURL: url}
		if f.Beat != nil {
			b := f.Beat.Clone()
			page.Narrative = &b
		}
		m.Pages = append(m.Pages, page)
	}
	return m, nil
}

// EncodeManifest はマニフェストを JSON にします。
func EncodeManifest(m domain.ComicManifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("マニフェストの JSON 変換に失敗しました: %w", err)
	}
	return data, nil
}

// DecodeManifest は JSON からマニフェストを復元します。
func DecodeManifest(data []byte) (domain.ComicManifest, error) {
	var m domain.ComicManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.ComicManifest{}, fmt.Errorf("マニフェストの解析に失敗しました: %w", err)
	}
	return m, nil
}

// Faces はマニフェストのページを ComicFace に戻します。エクスポートの入力に使います。
func Faces(m domain.ComicManifest, layout domain.StoryLayout) domain.ComicFaces {
	out := make(domain.ComicFaces, 0, len(m.Pages))
	for _, p := range m.Pages {
		f := domain.ComicFace{
			ID:        fmt.Sprintf("manifest-%d", p.PageIndex),
			PageIndex: p.PageIndex,
			Type:      layout.FaceTypeFor(p.PageIndex),
			ImageURL:  p.ImageURL,
			Status:    domain.StatusReady,
		}
		if p.Narrative != nil {
			b := p.Narrative.Clone()
			f.Beat = &b
		}
		out = append(out, f)
	}
	return out
}
