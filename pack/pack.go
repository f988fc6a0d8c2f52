// Package pack implements the packed-string transport of spec.md §6:
// a way to embed a raw bytecode image inside a text host by encoding
// every two bytes as three printable characters (or, in hex mode, two
// bytes as four hex digits). It is grounded on
// original_source/bin2str.py, the Python origin of this format.
package pack

import "github.com/pkg/errors"

// alphabetOffset is the ASCII code of the first character of the
// 3-char alphabet; the alphabet is 64 consecutive printable characters
// starting there ("()*+,-./0-9:;<=>?@A-Z[\]^_`a-g"), per §6.
const alphabetOffset = 40
const alphabetSize = 64

var errBadChar = errors.New("character outside packed alphabet")
var errBadLength = errors.New("packed string has invalid length")

func bin(v byte) byte { return alphabetOffset + v }

func unbin(c byte) (byte, error) {
	if c < alphabetOffset || int(c) >= alphabetOffset+alphabetSize {
		return 0, errors.Wrapf(errBadChar, "%q", c)
	}
	return c - alphabetOffset, nil
}

// Pack encodes a byte sequence using 3 printable characters per 2
// bytes. If the input length is odd, a trailing zero byte is appended
// before packing (§6, §8 "round-trip packing").
func Pack(data []byte) string {
	if len(data)%2 != 0 {
		data = append(append([]byte{}, data...), 0)
	}

	out := make([]byte, 0, len(data)/2*3)
	for i := 0; i < len(data); i += 2 {
		b1, b2 := data[i], data[i+1]
		out = append(out,
			bin(b1>>2),
			bin(((b1&3)<<3)|(b2>>5)),
			bin(b2&31),
		)
	}
	return string(out)
}

// Unpack decodes a Pack-encoded string back into bytes.
func Unpack(s string) ([]byte, error) {
	if len(s)%3 != 0 {
		return nil, errors.Wrapf(errBadLength, "length %d not a multiple of 3", len(s))
	}

	out := make([]byte, 0, len(s)/3*2)
	for i := 0; i < len(s); i += 3 {
		v1, err := unbin(s[i])
		if err != nil {
			return nil, err
		}
		v2, err := unbin(s[i+1])
		if err != nil {
			return nil, err
		}
		v3, err := unbin(s[i+2])
		if err != nil {
			return nil, err
		}
		b1 := (v1 << 2) | (v2 >> 3)
		b2 := ((v2 & 7) << 5) | v3
		out = append(out, b1, b2)
	}
	return out, nil
}

const hexDigits = "0123456789ABCDEF"

// PackHex encodes a byte sequence as two hex digits per byte, for
// hosts where the 3-char alphabet contains awkward characters (§6).
func PackHex(data []byte) string {
	out := make([]byte, 0, len(data)*2)
	for _, b := range data {
		out = append(out, hexDigits[b>>4], hexDigits[b&0xF])
	}
	return string(out)
}

func hexVal(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	}
	return 0, errors.Wrapf(errBadChar, "%q", c)
}

// UnpackHex decodes a PackHex-encoded string back into bytes; it is a
// strict byte-to-two-chars bijection (§8), unlike the 3-char mode's
// odd-length padding.
func UnpackHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, errors.Wrapf(errBadLength, "length %d not even", len(s))
	}
	out := make([]byte, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		hi, err := hexVal(s[i])
		if err != nil {
			return nil, err
		}
		lo, err := hexVal(s[i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, hi<<4|lo)
	}
	return out, nil
}
