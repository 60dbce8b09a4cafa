package sui

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// AddressLength は Sui アドレスおよびオブジェクト ID のバイト長です。
const AddressLength = 32

// Address は Sui のアカウントアドレスまたはオブジェクト ID です。
type Address [AddressLength]byte

// ObjectID はオブジェクトの ID です。表現はアドレスと同じです。
type ObjectID = Address

// FrameworkAddress は Sui Framework (0x2) のアドレスです。
var FrameworkAddress = MustParseAddress("0x2")

// ParseAddress は 0x 付きの16進表記を解釈します。"0x2" のような短縮形は左詰めでゼロ埋めします。
func ParseAddress(s string) (Address, error) {
	var a Address
	h := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if h == "" || len(h) > AddressLength*2 {
		return a, fmt.Errorf("アドレスの形式が不正です: %q", s)
	}
	if len(h)%2 == 1 {
		h = "0" + h
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return a, fmt.Errorf("アドレスの形式が不正です: %q: %w", s, err)
	}
	copy(a[AddressLength-len(b):], b)
	return a, nil
}

// MustParseAddress は ParseAddress の失敗時に panic します。定数の初期化用です。
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String は 0x 付き64桁の16進表記を返します。
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero はゼロアドレスかどうかを返します。
func (a Address) IsZero() bool {
	return a == Address{}
}

// Digest はオブジェクトやトランザクションの 32 バイトダイジェストです。
type Digest [32]byte

// ParseDigest は base58 表記のダイジェストを解釈します。
func ParseDigest(s string) (Digest, error) {
	var d Digest
	b, err := base58.Decode(s)
	if err != nil {
		return d, fmt.Errorf("ダイジェストの形式が不正です: %q: %w", s, err)
	}
	if len(b) != len(d) {
		return d, fmt.Errorf("ダイジェストの長さが不正です: %d", len(b))
	}
	copy(d[:], b)
	return d, nil
}

// String は base58 表記を返します。
func (d Digest) String() string {
	return base58.Encode(d[:])
}
