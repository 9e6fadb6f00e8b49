// Package scale adapts the go-substrate-rpc-client SCALE codec to the
// chainable, bounds-checked form used to talk to Substrate runtimes:
// fixed-width little-endian integers, compact integers, length-prefixed byte
// vectors and strings, options and booleans.
//
// Lengths read from the input are checked against the bytes left before
// anything is allocated for them.
package scale

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

var (
	// ErrUnexpectedEOF is returned when the input ends before a value is complete.
	ErrUnexpectedEOF = errors.New("scale: unexpected end of input")

	// ErrOverflow is returned when a compact value does not fit the requested width.
	ErrOverflow = errors.New("scale: value overflows target type")
)

// Encoder appends SCALE-encoded values to an internal buffer.
type Encoder struct {
	buf bytes.Buffer
	enc *gsrpc.Encoder
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	e := &Encoder{}
	e.enc = gsrpc.NewEncoder(&e.buf)
	return e
}

// Bytes returns the encoded output.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// encode panics on values the codec refuses. Writes to the buffer never fail.
func (e *Encoder) encode(v any) *Encoder {
	if err := e.enc.Encode(v); err != nil {
		panic(fmt.Sprintf("scale: encode %T: %v", v, err))
	}
	return e
}

// Raw appends b without a length prefix.
func (e *Encoder) Raw(b []byte) *Encoder {
	e.buf.Write(b)
	return e
}

func (e *Encoder) U8(v uint8) *Encoder {
	e.buf.WriteByte(v)
	return e
}

func (e *Encoder) Bool(v bool) *Encoder { return e.encode(v) }

func (e *Encoder) U16(v uint16) *Encoder { return e.encode(v) }

func (e *Encoder) U32(v uint32) *Encoder { return e.encode(v) }

func (e *Encoder) U64(v uint64) *Encoder { return e.encode(v) }

// String appends s as a length-prefixed UTF-8 byte vector.
func (e *Encoder) String(s string) *Encoder { return e.encode(s) }

// U128 appends v as a 16-byte little-endian integer. Negative or oversized values panic.
func (e *Encoder) U128(v *big.Int) *Encoder {
	if v == nil {
		v = new(big.Int)
	}
	return e.encode(types.NewU128(*v))
}

// Compact appends v in compact encoding.
func (e *Encoder) Compact(v uint64) *Encoder {
	return e.CompactBig(new(big.Int).SetUint64(v))
}

// CompactBig appends an arbitrary non-negative integer (up to 2^536) in compact encoding.
func (e *Encoder) CompactBig(v *big.Int) *Encoder {
	if v == nil {
		v = new(big.Int)
	}
	if v.Sign() < 0 {
		panic("scale: negative compact value")
	}
	if err := e.enc.EncodeUintCompact(*v); err != nil {
		panic(fmt.Sprintf("scale: compact %s: %v", v, err))
	}
	return e
}

// ByteVec appends b with a compact length prefix (Vec<u8>).
func (e *Encoder) ByteVec(b []byte) *Encoder {
	return e.Compact(uint64(len(b))).Raw(b)
}

// None appends an empty Option.
func (e *Encoder) None() *Encoder {
	return e.U8(0)
}

// Some appends the Some marker; the caller appends the value.
func (e *Encoder) Some() *Encoder {
	return e.U8(1)
}

// Decoder reads SCALE-encoded values from a byte slice.
type Decoder struct {
	size   int
	reader *bytes.Reader
	dec    *gsrpc.Decoder
}

// NewDecoder returns a decoder over data.
func NewDecoder(data []byte) *Decoder {
	r := bytes.NewReader(data)
	return &Decoder{size: len(data), reader: r, dec: gsrpc.NewDecoder(r)}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return d.reader.Len()
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int {
	return d.size - d.reader.Len()
}

func (d *Decoder) need(n int) error {
	if n < 0 || d.Remaining() < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrUnexpectedEOF, n, d.Offset(), d.Remaining())
	}
	return nil
}

// decode reads a fixed-width value of width bytes into target.
func (d *Decoder) decode(width int, target any) error {
	if err := d.need(width); err != nil {
		return err
	}
	if err := d.dec.Decode(target); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedEOF, err)
	}
	return nil
}

// Read returns the next n bytes.
func (d *Decoder) Read(n int) ([]byte, error) {
	if err := d.need(n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if n == 0 {
		return b, nil
	}
	if err := d.dec.Read(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedEOF, err)
	}
	return b, nil
}

func (d *Decoder) U8() (uint8, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	return d.dec.ReadOneByte()
}

// flag reads a byte that must be 0 or 1.
func (d *Decoder) flag(what string) (bool, error) {
	b, err := d.U8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("scale: invalid %s byte 0x%02x", what, b)
	}
}

func (d *Decoder) Bool() (bool, error) {
	return d.flag("bool")
}

func (d *Decoder) U16() (v uint16, err error) {
	err = d.decode(2, &v)
	return v, err
}

func (d *Decoder) U32() (v uint32, err error) {
	err = d.decode(4, &v)
	return v, err
}

func (d *Decoder) U64() (v uint64, err error) {
	err = d.decode(8, &v)
	return v, err
}

// U128 reads a 16-byte little-endian integer.
func (d *Decoder) U128() (*big.Int, error) {
	var v types.U128
	if err := d.decode(16, &v); err != nil {
		return nil, err
	}
	return v.Int, nil
}

// compactWidth is the encoded size of a compact integer given its first byte.
func compactWidth(first byte) int {
	switch first & 0b11 {
	case 0b00:
		return 1
	case 0b01:
		return 2
	case 0b10:
		return 4
	default:
		return int(first>>2) + 5
	}
}

// CompactBig reads a compact integer of any width.
func (d *Decoder) CompactBig() (*big.Int, error) {
	if err := d.need(1); err != nil {
		return nil, err
	}
	first, _ := d.reader.ReadByte()
	_ = d.reader.UnreadByte()

	if err := d.need(compactWidth(first)); err != nil {
		return nil, err
	}
	v, err := d.dec.DecodeUintCompact()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedEOF, err)
	}
	return v, nil
}

// Compact reads a compact integer that must fit in 64 bits.
func (d *Decoder) Compact() (uint64, error) {
	v, err := d.CompactBig()
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, ErrOverflow
	}
	return v.Uint64(), nil
}

// CompactU32 reads a compact integer that must fit in 32 bits.
func (d *Decoder) CompactU32() (uint32, error) {
	v, err := d.Compact()
	if err != nil {
		return 0, err
	}
	if v > 0xffffffff {
		return 0, ErrOverflow
	}
	return uint32(v), nil
}

// ByteVec reads a length-prefixed byte vector.
func (d *Decoder) ByteVec() ([]byte, error) {
	n, err := d.CompactU32()
	if err != nil {
		return nil, err
	}
	return d.Read(int(n))
}

// String reads a length-prefixed UTF-8 string.
func (d *Decoder) String() (string, error) {
	b, err := d.ByteVec()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Option reads the Option marker and reports whether a value follows.
func (d *Decoder) Option() (bool, error) {
	return d.flag("option")
}

// LittleEndianToBig interprets b as an unsigned little-endian integer.
func LittleEndianToBig(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i := range b {
		be[len(b)-1-i] = b[i]
	}
	return new(big.Int).SetBytes(be)
}
