package scale

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactVectors(t *testing.T) {
	testCases := []struct {
		value   uint64
		encoded string
	}{
		{0, "00"},
		{1, "04"},
		{42, "a8"},
		{63, "fc"},
		{64, "0101"},
		{16383, "fdff"},
		{16384, "02000100"},
		{1073741823, "feffffff"},
		{1073741824, "0300000040"},
		{10_000_000_000_000, "0b00a0724e1809"},
		{1<<64 - 1, "13ffffffffffffffff"},
	}

	for _, tc := range testCases {
		enc := NewEncoder().Compact(tc.value)
		assert.Equal(t, tc.encoded, hex.EncodeToString(enc.Bytes()), "encode %d", tc.value)

		raw, err := hex.DecodeString(tc.encoded)
		require.NoError(t, err)
		dec := NewDecoder(raw)
		v, err := dec.Compact()
		require.NoError(t, err)
		assert.Equal(t, tc.value, v, "decode %s", tc.encoded)
		assert.Zero(t, dec.Remaining())
	}
}

func TestCompactBigMatchesCompact(t *testing.T) {
	v := big.NewInt(10_000_000_000_000)
	assert.Equal(t, NewEncoder().Compact(v.Uint64()).Bytes(), NewEncoder().CompactBig(v).Bytes())

	huge := new(big.Int).Lsh(big.NewInt(1), 100)
	enc := NewEncoder().CompactBig(huge).Bytes()
	got, err := NewDecoder(enc).CompactBig()
	require.NoError(t, err)
	assert.Equal(t, 0, huge.Cmp(got))

	_, err = NewDecoder(enc).Compact()
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestU128(t *testing.T) {
	enc := NewEncoder().U128(big.NewInt(10_000_000_000_000)).Bytes()
	assert.Equal(t, "00a0724e180900000000000000000000", hex.EncodeToString(enc))

	v, err := NewDecoder(enc).U128()
	require.NoError(t, err)
	assert.Equal(t, "10000000000000", v.String())

	assert.Panics(t, func() { NewEncoder().U128(big.NewInt(-1)) })
}

func TestFixedWidthAndVectors(t *testing.T) {
	enc := NewEncoder().
		U8(7).
		U16(0x0102).
		U32(2000).
		U64(1).
		Bool(true).
		ByteVec([]byte{0xde, 0xad}).
		String("para").
		None().
		Some().U32(5)

	dec := NewDecoder(enc.Bytes())

	u8, err := dec.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(7), u8)

	u16, err := dec.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), u16)

	u32, err := dec.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(2000), u32)

	u64, err := dec.U64()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), u64)

	b, err := dec.Bool()
	require.NoError(t, err)
	assert.True(t, b)

	vec, err := dec.ByteVec()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad}, vec)

	s, err := dec.String()
	require.NoError(t, err)
	assert.Equal(t, "para", s)

	some, err := dec.Option()
	require.NoError(t, err)
	assert.False(t, some)

	some, err = dec.Option()
	require.NoError(t, err)
	assert.True(t, some)
	u32, err = dec.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), u32)

	assert.Zero(t, dec.Remaining())
}

func TestDecoderErrors(t *testing.T) {
	_, err := NewDecoder([]byte{0x01}).U32()
	assert.ErrorIs(t, err, ErrUnexpectedEOF)

	// declares four bytes of content but carries one
	_, err = NewDecoder([]byte{0x10, 0xaa}).ByteVec()
	assert.ErrorIs(t, err, ErrUnexpectedEOF)

	_, err = NewDecoder([]byte{0x02}).Bool()
	assert.Error(t, err)

	_, err = NewDecoder([]byte{0x02}).Option()
	assert.Error(t, err)

	// four-byte compact mode with two bytes present
	_, err = NewDecoder([]byte{0x02, 0x00}).Compact()
	assert.ErrorIs(t, err, ErrUnexpectedEOF)

	// vector length far beyond the input
	_, err = NewDecoder([]byte{0x03, 0xff, 0xff, 0xff, 0xff, 0x00}).ByteVec()
	assert.ErrorIs(t, err, ErrUnexpectedEOF)

	_, err = NewDecoder(nil).CompactBig()
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestDecoderOffsets(t *testing.T) {
	dec := NewDecoder(NewEncoder().Compact(1 << 20).U16(9).ByteVec(nil).Bytes())
	_, err := dec.Compact()
	require.NoError(t, err)
	assert.Equal(t, 4, dec.Offset())
	assert.Equal(t, 3, dec.Remaining())

	_, err = dec.U16()
	require.NoError(t, err)
	empty, err := dec.ByteVec()
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Zero(t, dec.Remaining())

	// zero-length reads succeed at the end of input
	b, err := dec.Read(0)
	require.NoError(t, err)
	assert.Empty(t, b)
}
