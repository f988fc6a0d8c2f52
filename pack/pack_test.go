package pack_test

import (
	"bytes"
	"testing"

	"bsvm/pack"
)

func assert(t *testing.T, cond bool, format string, args ...interface{}) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	data := []byte{0x00, 0x01, 0x7F, 0x80, 0xFF, 0x10, 0x20, 0x30}
	packed := pack.Pack(data)
	assert(t, len(packed)%3 == 0, "packed length %d not a multiple of 3", len(packed))

	got, err := pack.Unpack(packed)
	assert(t, err == nil, "unpack: %v", err)
	assert(t, bytes.Equal(got, data), "round trip mismatch: got % X, want % X", got, data)
}

func TestPackOddLengthZeroPadded(t *testing.T) {
	data := []byte{0xAB, 0xCD, 0xEF}
	packed := pack.Pack(data)

	got, err := pack.Unpack(packed)
	assert(t, err == nil, "unpack: %v", err)
	want := append(append([]byte{}, data...), 0)
	assert(t, bytes.Equal(got, want), "got % X, want % X (zero-padded)", got, want)
}

func TestPackUsesPrintableAlphabet(t *testing.T) {
	data := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	packed := pack.Pack(data)
	for _, c := range []byte(packed) {
		assert(t, c >= 0x28 && c <= 0x67, "packed byte 0x%02X outside the printable alphabet", c)
	}
}

func TestUnpackRejectsBadLength(t *testing.T) {
	_, err := pack.Unpack("ab")
	assert(t, err != nil, "expected a length error for a non-multiple-of-3 string")
}

func TestHexPackRoundTrip(t *testing.T) {
	data := []byte{0x00, 0x01, 0xFE, 0xFF, 0x42}
	hex := pack.PackHex(data)
	assert(t, len(hex) == len(data)*2, "hex length %d, want %d", len(hex), len(data)*2)

	got, err := pack.UnpackHex(hex)
	assert(t, err == nil, "unpackhex: %v", err)
	assert(t, bytes.Equal(got, data), "round trip mismatch: got % X, want % X", got, data)
}

func TestUnpackHexRejectsOddLength(t *testing.T) {
	_, err := pack.UnpackHex("abc")
	assert(t, err != nil, "expected an odd-length error")
}
