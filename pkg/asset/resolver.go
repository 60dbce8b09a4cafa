package asset

import (
	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultPDFFileName はエクスポートする PDF のデフォルトファイル名です。
	DefaultPDFFileName = "Infinite-Heroes-Issue.pdf"
	// DefaultManifestFileName はコミックマニフェストのデフォルトファイル名です。
	DefaultManifestFileName = "comic_manifest.json"
	// DefaultPersonaFileName はペルソナ画像のデフォルトファイル名です。
	DefaultPersonaFileName = "persona.jpg"
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolvePath(baseDir, fileName)
}
