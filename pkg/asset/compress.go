package asset

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxUploadWidth はアップロード前に縮小する最大幅 (px) です。
	MaxUploadWidth = 1024
	// UploadJPEGQuality はアップロード用 JPEG の品質です。
	UploadJPEGQuality = 70
)

// Compress は画像を最大幅 maxWidth に縮小し、指定品質の JPEG に再エンコードします。
// 縦横比は保ち、maxWidth 以下の画像は拡大しません。
func Compress(data []byte, maxWidth, quality int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxWidth > 0 && w > maxWidth {
		h = max(1, h*maxWidth/w)
		w = maxWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("JPEG エンコードに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}

// CompressForUpload はアップロード用の既定値で Compress を実行します。
func CompressForUpload(data []byte) ([]byte, error) {
	return Compress(data, MaxUploadWidth, UploadJPEGQuality)
}

// CompressDataURL は data URL の画像を圧縮します。
func CompressDataURL(dataURL string) ([]byte, error) {
	data, _, err := DecodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	return CompressForUpload(data)
}
