package protocol

// Frame layout, most significant bit first:
//
//	[1 SOF][11 identifier][3 control][4 DLC][DLC x 8 payload][25 trailer]
const (
	IDLen          = 11
	ControlLen     = 3
	DLCLen         = 4
	ByteLen        = 8
	TrailerLen     = 25
	MaxPayloadLen  = 8
	MaxFrameBitLen = 1 + IDLen + ControlLen + DLCLen + MaxPayloadLen*ByteLen + TrailerLen
	MinFrameBitLen = MaxFrameBitLen - MaxPayloadLen*ByteLen

	bitsLeftToDLC = 1 + IDLen + ControlLen
	bitsLeftToID  = 1

	dlcMask  = 1<<DLCLen - 1
	byteMask = 1<<ByteLen - 1
)

// Recognized identifiers.
const (
	FirstIdentifier  uint16 = 0x100
	SecondIdentifier uint16 = 0x200
	ThirdIdentifier  uint16 = 0x300
)

// AllowedIdentifiers lists every identifier Decode accepts.
var AllowedIdentifiers = []uint16{FirstIdentifier, SecondIdentifier, ThirdIdentifier}

// IsAllowedIdentifier reports whether id is in the allow-list.
func IsAllowedIdentifier(id uint16) bool {
	for _, allowed := range AllowedIdentifiers {
		if id == allowed {
			return true
		}
	}
	return false
}

// LegalStartBit reports whether a start-of-frame bit at index start (1-based,
// counted from the least significant bit) matches one of the nine frame
// lengths for 0..8 payload bytes.
func LegalStartBit(start int) bool {
	return start >= MinFrameBitLen && start <= MaxFrameBitLen && (MaxFrameBitLen-start)%ByteLen == 0
}

// Decode parses a raw frame. It is pure: decoding the same frame twice yields
// equal results. Any structural violation is returned as a *FormatError.
func Decode(raw RawFrame) (DecodedFrame, error) {
	start := raw.BitLen()
	if !LegalStartBit(start) {
		return DecodedFrame{}, newFormatError(UnalignedStartBit, raw, "start bit at %d", start)
	}

	bitsRightToDLC := uint(start - bitsLeftToDLC - DLCLen)
	dlc := raw.field(bitsRightToDLC, DLCLen) & dlcMask
	if dlc > MaxPayloadLen {
		return DecodedFrame{}, newFormatError(LengthOutOfRange, raw, "dlc %d", dlc)
	}

	bitsRightToID := uint(start - (bitsLeftToID + IDLen))
	id := uint16(raw.field(bitsRightToID, IDLen))
	if !IsAllowedIdentifier(id) {
		return DecodedFrame{}, newFormatError(UnknownIdentifier, raw, "identifier 0x%x", id)
	}

	// Bytes come off the low end last-transmitted first.
	data := raw.Rsh(TrailerLen)
	payload := make([]byte, dlc)
	for i := int(dlc) - 1; i >= 0; i-- {
		payload[i] = byte(data.Lo & byteMask)
		data = data.Rsh(ByteLen)
	}

	return DecodedFrame{ID: id, Length: uint8(dlc), Payload: payload}, nil
}
