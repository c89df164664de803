package protocol

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"strings"
)

// FrameSize is the number of bytes one frame occupies on the stream.
const FrameSize = 16

// RawFrame is the 128-bit container of one bus frame. Hi holds the most
// significant 64 bits, Lo the least significant ones.
type RawFrame struct {
	Hi uint64
	Lo uint64
}

// FromBytes interprets a 16-byte block as a big-endian 128-bit integer.
func FromBytes(b []byte) (RawFrame, error) {
	if len(b) != FrameSize {
		return RawFrame{}, fmt.Errorf("frame must be %d bytes, got %d", FrameSize, len(b))
	}
	return RawFrame{
		Hi: binary.BigEndian.Uint64(b[:8]),
		Lo: binary.BigEndian.Uint64(b[8:]),
	}, nil
}

// ParseHex parses a frame written as hex digits, with or without a 0x prefix.
func ParseHex(s string) (RawFrame, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if s == "" || len(s) > 2*FrameSize {
		return RawFrame{}, fmt.Errorf("invalid frame hex length: %d", len(s))
	}
	var r RawFrame
	for _, c := range s {
		var v uint64
		switch {
		case c >= '0' && c <= '9':
			v = uint64(c - '0')
		case c >= 'a' && c <= 'f':
			v = uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v = uint64(c-'A') + 10
		default:
			return RawFrame{}, fmt.Errorf("invalid hex digit %q", c)
		}
		r = r.Lsh(4)
		r.Lo |= v
	}
	return r, nil
}

// Bytes returns the big-endian wire representation of the frame.
func (r RawFrame) Bytes() []byte {
	b := make([]byte, FrameSize)
	binary.BigEndian.PutUint64(b[:8], r.Hi)
	binary.BigEndian.PutUint64(b[8:], r.Lo)
	return b
}

// BitLen returns the 1-based index of the most significant set bit, or 0 for
// an empty frame.
func (r RawFrame) BitLen() int {
	if r.Hi != 0 {
		return 64 + bits.Len64(r.Hi)
	}
	return bits.Len64(r.Lo)
}

// Rsh shifts the frame right by n bits.
func (r RawFrame) Rsh(n uint) RawFrame {
	switch {
	case n == 0:
		return r
	case n >= 128:
		return RawFrame{}
	case n >= 64:
		return RawFrame{Lo: r.Hi >> (n - 64)}
	default:
		return RawFrame{Hi: r.Hi >> n, Lo: r.Lo>>n | r.Hi<<(64-n)}
	}
}

// Lsh shifts the frame left by n bits, dropping bits past the 128th.
func (r RawFrame) Lsh(n uint) RawFrame {
	switch {
	case n == 0:
		return r
	case n >= 128:
		return RawFrame{}
	case n >= 64:
		return RawFrame{Hi: r.Lo << (n - 64)}
	default:
		return RawFrame{Hi: r.Hi<<n | r.Lo>>(64-n), Lo: r.Lo << n}
	}
}

// field extracts width bits whose lowest bit sits at offset.
func (r RawFrame) field(offset, width uint) uint64 {
	return r.Rsh(offset).Lo & (1<<width - 1)
}

// Hex renders the frame as lowercase hex without leading zeros.
func (r RawFrame) Hex() string {
	if r.Hi == 0 {
		return fmt.Sprintf("%x", r.Lo)
	}
	return fmt.Sprintf("%x%016x", r.Hi, r.Lo)
}

func (r RawFrame) String() string {
	return "0x" + r.Hex()
}

// DecodedFrame is the typed view of a successfully decoded frame.
type DecodedFrame struct {
	ID      uint16
	Length  uint8
	Payload []byte
}
