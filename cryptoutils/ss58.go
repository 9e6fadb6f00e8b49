package cryptoutils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/paritytech/subport/interfaces"
	"golang.org/x/crypto/blake2b"
)

var ss58Prefix = []byte("SS58PRE")

const checksumLen = 2

// MaxSS58Format is the largest network format the two-byte prefix can carry.
const MaxSS58Format = 16383

var (
	ErrBadChecksum = errors.New("ss58: checksum mismatch")
	ErrBadFormat   = errors.New("ss58: unsupported address format")
)

func ss58Checksum(data []byte) []byte {
	h := blake2b.Sum512(append(append([]byte{}, ss58Prefix...), data...))
	return h[:checksumLen]
}

func encodeFormat(format uint16) []byte {
	if format < 64 {
		return []byte{byte(format)}
	}
	first := byte((format&0b1111_1100)>>2) | 0b0100_0000
	second := byte(format>>8) | byte((format&0b11)<<6)
	return []byte{first, second}
}

// SS58Encode renders an account for the given network format.
func SS58Encode(account interfaces.AccountID, format uint16) (string, error) {
	if format > MaxSS58Format {
		return "", fmt.Errorf("%w: format %d out of range", ErrBadFormat, format)
	}
	data := append(encodeFormat(format), account[:]...)
	return base58.Encode(append(data, ss58Checksum(data)...)), nil
}

// SS58Decode parses an address, verifying its checksum, and returns the
// account with its network format.
func SS58Decode(address string) (interfaces.AccountID, uint16, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return interfaces.AccountID{}, 0, fmt.Errorf("%w: %v", interfaces.ErrInvalidKeyMaterial, err)
	}
	if len(raw) < 2 {
		return interfaces.AccountID{}, 0, fmt.Errorf("%w: address too short", interfaces.ErrInvalidKeyMaterial)
	}

	var prefixLen int
	var format uint16
	switch {
	case raw[0] < 64:
		prefixLen, format = 1, uint16(raw[0])
	case raw[0] < 128:
		lower := (raw[0] << 2) | (raw[1] >> 6)
		upper := raw[1] & 0b0011_1111
		prefixLen, format = 2, uint16(lower)|uint16(upper)<<8
	default:
		return interfaces.AccountID{}, 0, ErrBadFormat
	}

	if len(raw) != prefixLen+32+checksumLen {
		return interfaces.AccountID{}, 0, fmt.Errorf("%w: unexpected address length %d", interfaces.ErrInvalidKeyMaterial, len(raw))
	}

	body := raw[:prefixLen+32]
	if !bytes.Equal(ss58Checksum(body), raw[prefixLen+32:]) {
		return interfaces.AccountID{}, 0, ErrBadChecksum
	}

	account, err := interfaces.NewAccountIDFromBytes(body[prefixLen:])
	return account, format, err
}

// ParseAccount accepts either an SS58 address (any network format) or a
// 0x-prefixed 32-byte hex public key.
func ParseAccount(s string) (interfaces.AccountID, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") {
		return interfaces.NewAccountIDFromHex(s)
	}
	account, _, err := SS58Decode(s)
	return account, err
}
