package protocol

import (
	"bytes"
	"errors"
	"testing"
)

// pack builds a frame bit by bit without Encode's validation, so tests can
// produce out-of-range DLCs and foreign identifiers.
func pack(id uint16, dlc uint64, payload []byte) RawFrame {
	frame := RawFrame{Lo: 1}
	frame = frame.Lsh(IDLen)
	frame.Lo |= uint64(id)
	frame = frame.Lsh(ControlLen)
	frame.Lo |= controlBits
	frame = frame.Lsh(DLCLen)
	frame.Lo |= dlc
	for _, b := range payload {
		frame = frame.Lsh(ByteLen)
		frame.Lo |= uint64(b)
	}
	frame = frame.Lsh(TrailerLen)
	frame.Lo |= trailerBits
	return frame
}

func TestDecode_KnownFrame(t *testing.T) {
	raw, err := ParseHex("0x900e6020407ffffff")
	if err != nil {
		t.Fatalf("ParseHex failed: %v", err)
	}
	frame, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if frame.ID != FirstIdentifier {
		t.Errorf("Expected ID 0x100, got 0x%x", frame.ID)
	}
	if frame.Length != 3 {
		t.Errorf("Expected length 3, got %d", frame.Length)
	}
	if !bytes.Equal(frame.Payload, []byte{1, 2, 3}) {
		t.Errorf("Expected payload [1 2 3], got %v", frame.Payload)
	}
}

func TestDecode_UnalignedStartBit(t *testing.T) {
	for bitLen := 0; bitLen <= 128; bitLen++ {
		var raw RawFrame
		if bitLen > 0 {
			raw = RawFrame{Lo: 1}.Lsh(uint(bitLen - 1))
		}
		_, err := Decode(raw)
		if LegalStartBit(bitLen) {
			if errors.Is(err, ErrUnalignedStartBit) {
				t.Errorf("start bit %d is legal but was rejected as unaligned", bitLen)
			}
			continue
		}
		if !errors.Is(err, ErrUnalignedStartBit) {
			t.Errorf("start bit %d: expected ErrUnalignedStartBit, got %v", bitLen, err)
		}
	}
}

func TestDecode_LegalStartBits(t *testing.T) {
	want := map[int]bool{108: true, 100: true, 92: true, 84: true, 76: true, 68: true, 60: true, 52: true, 44: true}
	for bitLen := 0; bitLen <= 128; bitLen++ {
		if LegalStartBit(bitLen) != want[bitLen] {
			t.Errorf("LegalStartBit(%d) = %v, want %v", bitLen, LegalStartBit(bitLen), want[bitLen])
		}
	}
}

func TestDecode_LengthOutOfRange(t *testing.T) {
	for dlc := uint64(9); dlc <= 15; dlc++ {
		raw := pack(SecondIdentifier, dlc, []byte{1, 2, 3, 4, 5, 6, 7, 8})
		_, err := Decode(raw)
		if !errors.Is(err, ErrLengthOutOfRange) {
			t.Errorf("dlc %d: expected ErrLengthOutOfRange, got %v", dlc, err)
		}
		var fe *FormatError
		if !errors.As(err, &fe) || fe.Kind != LengthOutOfRange || fe.Raw != raw {
			t.Errorf("dlc %d: expected *FormatError of kind LengthOutOfRange, got %#v", dlc, err)
		}
	}
}

func TestDecode_UnknownIdentifier(t *testing.T) {
	for _, id := range []uint16{0x000, 0x001, 0x0FF, 0x101, 0x123, 0x400, 0x7FF} {
		_, err := Decode(pack(id, 2, []byte{0xAA, 0xBB}))
		if !errors.Is(err, ErrUnknownIdentifier) {
			t.Errorf("id 0x%x: expected ErrUnknownIdentifier, got %v", id, err)
		}
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	for _, id := range AllowedIdentifiers {
		for length := 0; length <= MaxPayloadLen; length++ {
			payload := make([]byte, length)
			for i := range payload {
				payload[i] = byte(0x10*i + length)
			}
			raw, err := Encode(id, payload)
			if err != nil {
				t.Fatalf("Encode(0x%x, %v) failed: %v", id, payload, err)
			}
			if got, want := raw.BitLen(), MaxFrameBitLen-ByteLen*(MaxPayloadLen-length); got != want {
				t.Errorf("id 0x%x len %d: start bit %d, want %d", id, length, got, want)
			}
			frame, err := Decode(raw)
			if err != nil {
				t.Fatalf("Decode(%s) failed: %v", raw, err)
			}
			if frame.ID != id || int(frame.Length) != length || !bytes.Equal(frame.Payload, payload) {
				t.Errorf("round trip mismatch: sent (0x%x, %d, %v), got (0x%x, %d, %v)",
					id, length, payload, frame.ID, frame.Length, frame.Payload)
			}
		}
	}
}

func TestDecode_Idempotent(t *testing.T) {
	raw := pack(ThirdIdentifier, 4, []byte{9, 8, 7, 6})
	first, err1 := Decode(raw)
	second, err2 := Decode(raw)
	if err1 != nil || err2 != nil {
		t.Fatalf("Decode failed: %v / %v", err1, err2)
	}
	if first.ID != second.ID || first.Length != second.Length || !bytes.Equal(first.Payload, second.Payload) {
		t.Errorf("decoding twice gave different frames: %+v vs %+v", first, second)
	}
}

func TestEncode_Rejects(t *testing.T) {
	if _, err := Encode(0x800, nil); err == nil {
		t.Error("expected error for 12-bit identifier")
	}
	if _, err := Encode(FirstIdentifier, make([]byte, 9)); err == nil {
		t.Error("expected error for 9-byte payload")
	}
}

func TestRawFrame_BytesRoundTrip(t *testing.T) {
	raw := pack(FirstIdentifier, 8, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	back, err := FromBytes(raw.Bytes())
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}
	if back != raw {
		t.Errorf("expected %s, got %s", raw, back)
	}
	if _, err := FromBytes(make([]byte, 15)); err == nil {
		t.Error("expected error for short block")
	}
	parsed, err := ParseHex(raw.String())
	if err != nil || parsed != raw {
		t.Errorf("ParseHex(%s) = %s, %v", raw, parsed, err)
	}
}
