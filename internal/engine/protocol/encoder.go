package protocol

import "fmt"

const (
	controlBits = 0b111
	trailerBits = 1<<TrailerLen - 1
)

// Encode packs an identifier and payload into the generator's frame layout.
// The DLC is taken from len(payload).
func Encode(id uint16, payload []byte) (RawFrame, error) {
	if id >= 1<<IDLen {
		return RawFrame{}, fmt.Errorf("identifier 0x%x exceeds %d bits", id, IDLen)
	}
	if len(payload) > MaxPayloadLen {
		return RawFrame{}, fmt.Errorf("payload of %d bytes exceeds %d", len(payload), MaxPayloadLen)
	}

	frame := RawFrame{Lo: 1}
	frame = frame.Lsh(IDLen)
	frame.Lo |= uint64(id)
	frame = frame.Lsh(ControlLen)
	frame.Lo |= controlBits
	frame = frame.Lsh(DLCLen)
	frame.Lo |= uint64(len(payload))
	for _, b := range payload {
		frame = frame.Lsh(ByteLen)
		frame.Lo |= uint64(b)
	}
	frame = frame.Lsh(TrailerLen)
	frame.Lo |= trailerBits
	return frame, nil
}
