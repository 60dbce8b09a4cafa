package sui

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/blake2b"
)

const (
	// privateKeyHRP は Sui 秘密鍵の bech32 プレフィックスです。
	privateKeyHRP = "suiprivkey"
	// ed25519Flag は署名スキームのフラグです。
	ed25519Flag byte = 0x00
)

// transactionIntent は TransactionData 署名用の intent (scope=0, version=0, app=Sui) です。
var transactionIntent = []byte{0, 0, 0}

// ErrInvalidKey は秘密鍵として解釈できない入力を表します。
var ErrInvalidKey = errors.New("sui: 秘密鍵の形式が不正です")

// Signer はトランザクションに署名するアカウントです。
// 保存料の支払いとトランザクションの送信で別々の Signer を使えるよう、アドレスと署名だけを要求します。
type Signer interface {
	Address() Address
	SignTransaction(txBytes []byte) (string, error)
}

// KeypairSigner は Ed25519 鍵ペアによる Signer です。
type KeypairSigner struct {
	priv ed25519.PrivateKey
	addr Address
}

// NewKeypairSigner は 32 バイトのシードから KeypairSigner を作成します。
func NewKeypairSigner(seed []byte) (*KeypairSigner, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: シードは %d バイトである必要があります (got %d)", ErrInvalidKey, ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &KeypairSigner{priv: priv, addr: DeriveAddress(pub)}, nil
}

// ParsePrivateKey は suiprivkey1... (bech32)、または 32 バイトの16進/base64 から Signer を作成します。
func ParsePrivateKey(s string) (*KeypairSigner, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, fmt.Errorf("%w: 空です", ErrInvalidKey)
	case strings.HasPrefix(s, privateKeyHRP+"1"):
		hrp, data, err := bech32.DecodeToBase256(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		if hrp != privateKeyHRP || len(data) != 1+ed25519.SeedSize {
			return nil, fmt.Errorf("%w: 想定外の bech32 データです", ErrInvalidKey)
		}
		if data[0] != ed25519Flag {
			return nil, fmt.Errorf("%w: Ed25519 以外の鍵には対応していません (flag=%d)", ErrInvalidKey, data[0])
		}
		return NewKeypairSigner(data[1:])
	}

	if b, err := hex.DecodeString(strings.TrimPrefix(s, "0x")); err == nil {
		return NewKeypairSigner(b)
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		// 先頭にフラグ付きの 33 バイト形式も受け付ける
		if len(b) == 1+ed25519.SeedSize && b[0] == ed25519Flag {
			b = b[1:]
		}
		return NewKeypairSigner(b)
	}
	return nil, fmt.Errorf("%w: bech32/16進/base64 のいずれでもありません", ErrInvalidKey)
}

// EncodePrivateKey はシードを suiprivkey1... 形式に変換します。
func EncodePrivateKey(seed []byte) (string, error) {
	conv, err := bech32.ConvertBits(append([]byte{ed25519Flag}, seed...), 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(privateKeyHRP, conv)
}

// DeriveAddress は Ed25519 公開鍵から Sui アドレスを導出します。
func DeriveAddress(pub ed25519.PublicKey) Address {
	h, _ := blake2b.New256(nil)
	h.Write([]byte{ed25519Flag})
	h.Write(pub)
	var a Address
	copy(a[:], h.Sum(nil))
	return a
}

// Address は署名者のアドレスを返します。
func (s *KeypairSigner) Address() Address { return s.addr }

// PublicKey は公開鍵を返します。
func (s *KeypairSigner) PublicKey() ed25519.PublicKey {
	return s.priv.Public().(ed25519.PublicKey)
}

// SignTransaction は intent 付きのトランザクションのダイジェストに署名し、
// flag || signature || pubkey を base64 で返します。
func (s *KeypairSigner) SignTransaction(txBytes []byte) (string, error) {
	digest := SigningDigest(txBytes)
	sig := ed25519.Sign(s.priv, digest[:])

	out := make([]byte, 0, 1+ed25519.SignatureSize+ed25519.PublicKeySize)
	out = append(out, ed25519Flag)
	out = append(out, sig...)
	out = append(out, s.PublicKey()...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// SigningDigest は署名対象となる blake2b-256(intent || txBytes) を返します。
func SigningDigest(txBytes []byte) [32]byte {
	msg := make([]byte, 0, len(transactionIntent)+len(txBytes))
	msg = append(msg, transactionIntent...)
	msg = append(msg, txBytes...)
	return blake2b.Sum256(msg)
}
