package interfaces

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParaID(t *testing.T) {
	id, err := ParseParaID(" 2000 ")
	require.NoError(t, err)
	assert.Equal(t, ParaID(2000), id)
	assert.Equal(t, "2000", id.String())

	_, err = ParseParaID("4294967296")
	assert.Error(t, err)
	_, err = ParseParaID("-1")
	assert.Error(t, err)
}

func TestAccountIDFromHex(t *testing.T) {
	acc, err := NewAccountIDFromHex("0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d")
	require.NoError(t, err)
	assert.Equal(t, byte(0xd4), acc[0])
	assert.Equal(t, "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d", acc.String())
	assert.False(t, acc.IsZero())

	_, err = NewAccountIDFromHex("0x1234")
	assert.True(t, errors.Is(err, ErrInvalidKeyMaterial))

	_, err = NewAccountIDFromHex("0xzz3593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d")
	assert.True(t, errors.Is(err, ErrInvalidHex))

	_, err = NewAccountIDFromBytes(make([]byte, 31))
	assert.True(t, errors.Is(err, ErrInvalidKeyMaterial))
}

func TestLifecycleFromIndex(t *testing.T) {
	l, err := LifecycleFromIndex(0)
	require.NoError(t, err)
	assert.Equal(t, LifecycleOnboarding, l)
	assert.True(t, l.IsRegistered())

	l, err = LifecycleFromIndex(6)
	require.NoError(t, err)
	assert.Equal(t, LifecycleOffboardingParachain, l)

	_, err = LifecycleFromIndex(7)
	assert.Error(t, err)

	assert.False(t, Unregistered.IsRegistered())
	assert.Equal(t, "unregistered", Unregistered.String())
}

func TestParseBalance(t *testing.T) {
	b, err := ParseBalance("10_000_000_000_000")
	require.NoError(t, err)
	assert.Equal(t, "10000000000000", b.String())

	_, err = ParseBalance("-5")
	assert.Error(t, err)
	_, err = ParseBalance("ten")
	assert.Error(t, err)
}

func TestNewContentLocation(t *testing.T) {
	testCases := []struct {
		name   string
		ref    string
		scheme string
		host   string
		path   string
		err    bool
	}{
		{name: "inline hex", ref: "0x1234", scheme: "inline"},
		{name: "bare path", ref: "./genesis-state", scheme: "file", path: "./genesis-state"},
		{name: "file uri", ref: "file:///tmp/code.wasm", scheme: "file", path: "/tmp/code.wasm"},
		{name: "s3", ref: "s3://bucket/paras/2000/genesis?region=eu-west-1", scheme: "s3", host: "bucket", path: "/paras/2000/genesis"},
		{name: "https", ref: "https://example.com/code.wasm", scheme: "https", host: "example.com", path: "/code.wasm"},
		{name: "unsupported", ref: "ftp://example.com/x", err: true},
		{name: "empty", ref: "  ", err: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			loc, err := NewContentLocation(tc.ref)
			if tc.err {
				assert.True(t, errors.Is(err, ErrInvalidLocationURI))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.scheme, loc.Scheme)
			assert.Equal(t, tc.host, loc.Host)
			assert.Equal(t, tc.path, loc.Path)
		})
	}

	loc, err := NewContentLocation("s3://bucket/key?region=eu-west-1&ssl=true")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", loc.GetParam("region"))
	assert.True(t, loc.GetParamBool("ssl"))
}
