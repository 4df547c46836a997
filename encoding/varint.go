package encoding

import (
	"errors"
	"io"
)

// Remaining Length field per MQTT 3.1.1 section 2.2.3: a base-128 integer of
// one to four bytes, least significant group first, with bit 7 of each byte
// flagging a following byte.

const (
	// MaxRemainingLength is the largest encodable value (268,435,455)
	MaxRemainingLength uint32 = 1<<28 - 1

	// maxRemainingLengthBytes bounds the field at four bytes
	maxRemainingLengthBytes = 4
)

// SizeRemainingLength returns the encoded size of value in bytes, or 0 when
// the value cannot be encoded.
func SizeRemainingLength(value uint32) int {
	switch {
	case value > MaxRemainingLength:
		return 0
	case value < 1<<7:
		return 1
	case value < 1<<14:
		return 2
	case value < 1<<21:
		return 3
	default:
		return 4
	}
}

// putRemainingLength writes the size-byte encoding of value at the start of
// dst. The caller has already sized dst and validated value.
func putRemainingLength(dst []byte, value uint32, size int) {
	for i := 0; i < size; i++ {
		b := byte(value & 0x7F)
		value >>= 7
		if i < size-1 {
			b |= 0x80
		}
		dst[i] = b
	}
}

// EncodeRemainingLength encodes value as an MQTT Remaining Length field.
//
// The encoded size follows the value's band: one byte through 127, two
// through 16,383, three through 2,097,151, four through 268,435,455. Larger
// values are rejected.
func EncodeRemainingLength(value uint32) ([]byte, error) {
	size := SizeRemainingLength(value)
	if size == 0 {
		return nil, ErrRemainingLengthTooLarge
	}

	buf := make([]byte, size)
	putRemainingLength(buf, value, size)
	return buf, nil
}

// EncodeRemainingLengthTo encodes value into buf starting at offset and
// returns the number of bytes written. The buffer is checked up front; on
// error nothing is written.
func EncodeRemainingLengthTo(buf []byte, offset int, value uint32) (int, error) {
	size := SizeRemainingLength(value)
	if size == 0 {
		return 0, ErrRemainingLengthTooLarge
	}
	if offset < 0 || len(buf)-offset < size {
		return 0, ErrBufferTooSmall
	}

	putRemainingLength(buf[offset:], value, size)
	return size, nil
}

// DecodeRemainingLengthFromBytes decodes a Remaining Length field from the
// start of data. Returns the value and the number of bytes consumed.
//
// The two failure modes stay distinct: a field whose terminator has not
// arrived yet is ErrUnexpectedEOF, so a streaming caller can wait for more
// bytes, while a field that would need a fifth byte is
// ErrMalformedRemainingLength.
func DecodeRemainingLengthFromBytes(data []byte) (uint32, int, error) {
	var value uint32
	for i, b := range data {
		if i == maxRemainingLengthBytes {
			return 0, 0, ErrMalformedRemainingLength
		}

		value |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
	}

	if len(data) >= maxRemainingLengthBytes {
		return 0, 0, ErrMalformedRemainingLength
	}
	return 0, 0, ErrUnexpectedEOF
}

// DecodeRemainingLength decodes a Remaining Length field from a reader.
//
// Bytes are pulled one at a time until a terminator arrives, then handed to
// the byte-slice decoder, so both entry points share one decoding path.
func DecodeRemainingLength(r io.Reader) (uint32, error) {
	var scratch [maxRemainingLengthBytes]byte

	for n := 0; n < len(scratch); n++ {
		if _, err := io.ReadFull(r, scratch[n:n+1]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return 0, ErrUnexpectedEOF
			}
			return 0, err
		}

		if scratch[n]&0x80 == 0 {
			value, _, err := DecodeRemainingLengthFromBytes(scratch[:n+1])
			return value, err
		}
	}

	// Four continuation bits with no terminator in sight
	return 0, ErrMalformedRemainingLength
}
