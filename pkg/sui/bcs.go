package sui

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// bcsWriter は Binary Canonical Serialization のエンコーダです。
// 整数はリトルエンディアン、可変長の長さは ULEB128 で書き込みます。
type bcsWriter struct {
	buf []byte
}

func (w *bcsWriter) Bytes() []byte { return w.buf }

func (w *bcsWriter) uleb128(v uint64) {
	for v >= 0x80 {
		w.buf = append(w.buf, byte(v)|0x80)
		v >>= 7
	}
	w.buf = append(w.buf, byte(v))
}

func (w *bcsWriter) u8(v uint8) { w.buf = append(w.buf, v) }

func (w *bcsWriter) u16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

func (w *bcsWriter) u64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *bcsWriter) bool(v bool) {
	if v {
		w.u8(1)
		return
	}
	w.u8(0)
}

// bytes は長さ付きのバイト列 (vector<u8>) を書き込みます。
func (w *bcsWriter) bytes(b []byte) {
	w.uleb128(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *bcsWriter) string(s string) { w.bytes([]byte(s)) }

// fixed は長さを付けずにバイト列を書き込みます。
func (w *bcsWriter) fixed(b []byte) { w.buf = append(w.buf, b...) }

func (w *bcsWriter) address(a Address) { w.fixed(a[:]) }

// encodeU256 は u256 を 32 バイトのリトルエンディアンで返します。
func encodeU256(v *big.Int) ([]byte, error) {
	if v == nil || v.Sign() < 0 || v.BitLen() > 256 {
		return nil, fmt.Errorf("u256 の範囲外の値です: %v", v)
	}
	be := make([]byte, 32)
	v.FillBytes(be)
	le := make([]byte, 32)
	for i := range be {
		le[i] = be[31-i]
	}
	return le, nil
}

// BCS でエンコードした Pure 引数の値です。
func bcsString(s string) []byte {
	var w bcsWriter
	w.string(s)
	return w.Bytes()
}

func bcsU64(v uint64) []byte {
	var w bcsWriter
	w.u64(v)
	return w.Bytes()
}

func bcsAddress(a Address) []byte {
	return append([]byte(nil), a[:]...)
}

// bcsOptionID は Option<ID> を返します。nil なら None です。
func bcsOptionID(id *Address) []byte {
	if id == nil {
		return []byte{0}
	}
	return append([]byte{1}, id[:]...)
}
