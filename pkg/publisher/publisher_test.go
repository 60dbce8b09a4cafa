package publisher

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/shouni/go-comic-kit/pkg/asset"
	"github.com/shouni/go-comic-kit/pkg/domain"
)

type memWriter struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (m *memWriter) Write(_ context.Context, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[path] = append([]byte(nil), data...)
	return nil
}

func jpegDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatal(err)
	}
	return asset.EncodeDataURL(buf.Bytes(), "image/jpeg")
}

func readyFace(t *testing.T, page int) domain.ComicFace {
	t.Helper()
	b := domain.Beat{Caption: "caption", Dialogue: "[sfx] Hello!", FocusCharacter: domain.FocusHero}
	return domain.ComicFace{
		ID:        "f",
		PageIndex: page,
		Type:      domain.FaceStory,
		Beat:      &b,
		ImageURL:  jpegDataURL(t, 32+page, 48),
		Status:    domain.StatusReady,
	}
}

func TestPageImages(t *testing.T) {
	t.Run("PageIndex の昇順に並べ、読み込み中のページを除く", func(t *testing.T) {
		loading := domain.NewQueuedFace("x", 3, domain.FaceStory)
		faces := domain.ComicFaces{readyFace(t, 0), readyFace(t, 2), readyFace(t, 1), loading}

		pages, err := PageImages(faces)
		if err != nil {
			t.Fatal(err)
		}
		if len(pages) != 3 {
			t.Fatalf("len = %d, want 3", len(pages))
		}
		for i, p := range pages {
			if p.PageIndex != i {
				t.Errorf("pages[%d].PageIndex = %d", i, p.PageIndex)
			}
		}
	})

	t.Run("data URL でない画像はエラー", func(t *testing.T) {
		f := readyFace(t, 1)
		f.ImageURL = "https://example.com/a.png"
		if _, err := PageImages(domain.ComicFaces{f}); !errors.Is(err, asset.ErrInvalidDataURL) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestExportPDF(t *testing.T) {
	t.Run("1ページ1画像で書き出す", func(t *testing.T) {
		faces := domain.ComicFaces{readyFace(t, 0), readyFace(t, 2), readyFace(t, 1)}
		var buf bytes.Buffer
		n, err := ExportPDF(&buf, faces)
		if err != nil {
			t.Fatalf("ExportPDF: %v", err)
		}
		if n != 3 {
			t.Errorf("n = %d", n)
		}
		count, err := api.PageCount(bytes.NewReader(buf.Bytes()), model.NewDefaultConfiguration())
		if err != nil {
			t.Fatalf("PageCount: %v", err)
		}
		if count != 3 {
			t.Errorf("PDF のページ数 = %d, want 3", count)
		}

		dims, err := api.PageDims(bytes.NewReader(buf.Bytes()), model.NewDefaultConfiguration())
		if err != nil {
			t.Fatalf("PageDims: %v", err)
		}
		for i, d := range dims {
			if d.Width != PageWidth || d.Height != PageHeight {
				t.Errorf("ページ %d の大きさ = %.0fx%.0f, want %dx%d", i, d.Width, d.Height, PageWidth, PageHeight)
			}
		}
	})

	t.Run("画像のないコミックは ErrNoPages", func(t *testing.T) {
		var buf bytes.Buffer
		if _, err := ExportPDF(&buf, domain.ComicFaces{domain.NewQueuedFace("x", 1, domain.FaceStory)}); !errors.Is(err, ErrNoPages) {
			t.Errorf("err = %v", err)
		}
	})
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestWritePDF(t *testing.T) {
	t.Run("PNG も固定サイズのページに収める", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WritePDF(&buf, []PageImage{{PageIndex: 0, Data: pngBytes(t, 100, 40)}}); err != nil {
			t.Fatalf("WritePDF: %v", err)
		}
		dims, err := api.PageDims(bytes.NewReader(buf.Bytes()), model.NewDefaultConfiguration())
		if err != nil {
			t.Fatalf("PageDims: %v", err)
		}
		if len(dims) != 1 || dims[0].Width != PageWidth || dims[0].Height != PageHeight {
			t.Errorf("dims = %v", dims)
		}
	})

	t.Run("壊れた画像は ErrInvalidImage", func(t *testing.T) {
		var buf bytes.Buffer
		err := WritePDF(&buf, []PageImage{{PageIndex: 4, Data: []byte("not an image")}})
		if !errors.Is(err, ErrInvalidImage) {
			t.Fatalf("err = %v", err)
		}
		if !strings.Contains(err.Error(), "ページ 4") {
			t.Errorf("ページ番号が含まれていません: %v", err)
		}
	})

	t.Run("空の入力は ErrNoPages", func(t *testing.T) {
		if err := WritePDF(&bytes.Buffer{}, nil); !errors.Is(err, ErrNoPages) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestBuildManifest(t *testing.T) {
	faces := domain.ComicFaces{readyFace(t, 1), readyFace(t, 0), domain.NewQueuedFace("x", 2, domain.FaceStory)}
	now := time.UnixMilli(1700000000000)

	t.Run("画像の揃ったページを順に載せ、変換関数を適用する", func(t *testing.T) {
		m, err := BuildManifest("Issue #1", domain.GenreSuperhero, "0xhero", faces, now, func(string) (string, error) {
			return "data:image/jpeg;base64,AA==", nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(m.Pages) != 2 || m.Pages[0].PageIndex != 0 || m.Pages[1].PageIndex != 1 {
			t.Fatalf("Pages = %+v", m.Pages)
		}
		if m.Pages[0].ImageURL != "data:image/jpeg;base64,AA==" {
			t.Errorf("ImageURL = %q", m.Pages[0].ImageURL)
		}
		if m.Timestamp != 1700000000000 || m.HeroID != "0xhero" {
			t.Errorf("manifest = %+v", m)
		}

		data, err := EncodeManifest(m)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), `"pageIndex": 1`) || !strings.Contains(string(data), `"heroId": "0xhero"`) {
			t.Errorf("JSON = %s", data)
		}
	})

	t.Run("変換の失敗はページ番号付きで返す", func(t *testing.T) {
		_, err := BuildManifest("t", domain.GenreTeenDrama, "", faces, now, func(string) (string, error) {
			return "", errors.New("boom")
		})
		if err == nil || !strings.Contains(err.Error(), "ページ 0") {
			t.Errorf("err = %v", err)
		}
	})
}

func TestPublish(t *testing.T) {
	m := domain.ComicManifest{
		Title: "Infinite Heroes",
		Pages: []domain.ManifestPage{
			{PageIndex: 1, ImageURL: jpegDataURL(t, 40, 60), Narrative: &domain.Beat{Caption: "Later", Choices: []string{"Trust", "Doubt"}}},
			{PageIndex: 0, ImageURL: jpegDataURL(t, 40, 60)},
		},
	}

	w := &memWriter{}
	res, err := NewComicPublisher(w).Publish(context.Background(), m, domain.DefaultStoryLayout(), Options{OutputDir: "out"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if res.PageCount != 2 {
		t.Errorf("PageCount = %d", res.PageCount)
	}
	for _, p := range []string{res.PDFPath, res.ManifestPath, res.MarkdownPath} {
		if _, ok := w.files[p]; !ok {
			t.Errorf("%s が書き込まれていません", p)
		}
	}
	if len(res.ImagePaths) != 2 || !strings.HasSuffix(res.ImagePaths[0], "page_00.jpg") {
		t.Errorf("ImagePaths = %v", res.ImagePaths)
	}

	script := string(w.files[res.MarkdownPath])
	if !strings.HasPrefix(script, "# Infinite Heroes") {
		t.Errorf("script = %q", script)
	}
	if strings.Index(script, "## Page 0 (cover)") > strings.Index(script, "## Page 1 (story)") {
		t.Errorf("ページ順が不正です:\n%s", script)
	}
	if !strings.Contains(script, "- [ ] Trust") {
		t.Errorf("選択肢が出力されていません:\n%s", script)
	}
}

func TestBuildScriptMarkdown(t *testing.T) {
	f := readyFace(t, 3)
	f.Beat.Choices = []string{"Forgive", "Avenge"}
	f.ResolvedChoice = "Avenge"

	md := BuildScriptMarkdown("T", domain.ComicFaces{f}, nil)
	if !strings.Contains(md, "![page 3](placeholder.png)") {
		t.Errorf("プレースホルダーが使われていません:\n%s", md)
	}
	if !strings.Contains(md, "- text: Hello!") {
		t.Errorf("タグが除去されていません:\n%s", md)
	}
	if !strings.Contains(md, "- style: sfx") {
		t.Errorf("吹き出しの種類が出力されていません:\n%s", md)
	}
	if !strings.Contains(md, "- [x] Avenge") || !strings.Contains(md, "- [ ] Forgive") {
		t.Errorf("選択結果が反映されていません:\n%s", md)
	}
}
