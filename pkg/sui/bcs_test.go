package sui

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBCSWriter_ULEB128(t *testing.T) {
	tests := []struct {
		in   uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
		{16384, []byte{0x80, 0x80, 0x01}},
	}
	for _, tt := range tests {
		var w bcsWriter
		w.uleb128(tt.in)
		assert.Equal(t, tt.want, w.Bytes(), "uleb128(%d)", tt.in)
	}
}

func TestBCSValues(t *testing.T) {
	assert.Equal(t, []byte{3, 'a', 'b', 'c'}, bcsString("abc"))
	assert.Equal(t, []byte{0x00, 0xca, 0x9a, 0x3b, 0, 0, 0, 0}, bcsU64(1_000_000_000))
	assert.Equal(t, []byte{0}, bcsOptionID(nil))

	id := MustParseAddress("0x5")
	some := bcsOptionID(&id)
	require.Len(t, some, 33)
	assert.Equal(t, byte(1), some[0])
	assert.Equal(t, byte(5), some[32])

	var w bcsWriter
	w.bool(true)
	w.bool(false)
	w.u16(0x0102)
	assert.Equal(t, []byte{1, 0, 0x02, 0x01}, w.Bytes())
}

func TestEncodeU256(t *testing.T) {
	t.Run("リトルエンディアン32バイト", func(t *testing.T) {
		got, err := encodeU256(big.NewInt(0x0102))
		require.NoError(t, err)
		require.Len(t, got, 32)
		assert.Equal(t, byte(0x02), got[0])
		assert.Equal(t, byte(0x01), got[1])
		assert.Equal(t, byte(0x00), got[31])
	})

	t.Run("最大値", func(t *testing.T) {
		max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
		got, err := encodeU256(max)
		require.NoError(t, err)
		for _, b := range got {
			assert.Equal(t, byte(0xff), b)
		}
	})

	t.Run("範囲外", func(t *testing.T) {
		_, err := encodeU256(new(big.Int).Lsh(big.NewInt(1), 256))
		assert.Error(t, err)
		_, err = encodeU256(big.NewInt(-1))
		assert.Error(t, err)
		_, err = encodeU256(nil)
		assert.Error(t, err)
	})
}

func TestAddress(t *testing.T) {
	a, err := ParseAddress("0x2")
	require.NoError(t, err)
	assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000002", a.String())
	assert.Equal(t, FrameworkAddress, a)

	_, err = ParseAddress("0xzz")
	assert.Error(t, err)
	_, err = ParseAddress("")
	assert.Error(t, err)

	assert.Equal(t, "0x2::kiosk::Kiosk", KioskType.String())
	assert.True(t, SameType("0x0000000000000000000000000000000000000000000000000000000000000002::kiosk::Kiosk", "0x2::kiosk::Kiosk"))
	assert.False(t, SameType("0x2::kiosk::Item", "0x2::kiosk::Kiosk"))
}

func TestDigest(t *testing.T) {
	var d Digest
	for i := range d {
		d[i] = byte(i)
	}
	parsed, err := ParseDigest(d.String())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)

	_, err = ParseDigest("abc")
	assert.Error(t, err)
	_, err = ParseDigest("0OIl")
	assert.Error(t, err)
}
