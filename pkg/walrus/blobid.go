package walrus

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
)

// blobIDSize は Walrus の Blob ID のバイト長です。
const blobIDSize = 32

// BlobIDToU256 は base64url の Blob ID を、オンチェーンで保持する u256 (ビッグエンディアン) に変換します。
func BlobIDToU256(blobID string) (*big.Int, error) {
	raw := strings.TrimRight(blobID, "=")
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("Blob ID のデコードに失敗しました (%q): %w", blobID, err)
	}
	if len(b) > blobIDSize {
		return nil, fmt.Errorf("Blob ID が %d バイトを超えています: %d", blobIDSize, len(b))
	}
	return new(big.Int).SetBytes(b), nil
}

// U256ToBlobID は BlobIDToU256 の逆変換です。
func U256ToBlobID(v *big.Int) (string, error) {
	if v == nil || v.Sign() < 0 || v.BitLen() > blobIDSize*8 {
		return "", fmt.Errorf("u256 の範囲外の値です: %v", v)
	}
	buf := make([]byte, blobIDSize)
	v.FillBytes(buf)
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
