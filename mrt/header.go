package mrt

import (
	"encoding/binary"

	"github.com/route-beacon/mrtkit/internal/cursor"
)

// CommonHeader is the 12- (or 16-, for BGP4MP_ET) byte MRT record header.
type CommonHeader struct {
	TimestampSec   uint32
	Microseconds   *uint32 // non-nil only for BGP4MP_ET / ISIS_ET / OSPFv3_ET
	Type           EntryType
	Subtype        uint16
	Length         uint32 // payload length, excluding this header
}

// IsExtendedTimestamp reports whether the record carries a microsecond
// timestamp field (the _ET variant of its type).
func (t EntryType) IsExtendedTimestamp() bool {
	return t == TypeBGP4MPET || t == TypeISISET || t == TypeOSPFv3ET
}

// decodeCommonHeader reads the 12-byte base header, then the extra 4-byte
// microsecond field when Type is one of the _ET variants. Per RFC 6396 §3,
// the length field for _ET records includes those 4 extra bytes, so this
// subtracts them to leave Length holding only the inner-payload size.
func decodeCommonHeader(cur *cursor.Cursor) (CommonHeader, error) {
	ts, err := cur.ReadU32()
	if err != nil {
		return CommonHeader{}, err
	}
	typ, err := cur.ReadU16()
	if err != nil {
		return CommonHeader{}, err
	}
	subtype, err := cur.ReadU16()
	if err != nil {
		return CommonHeader{}, err
	}
	length, err := cur.ReadU32()
	if err != nil {
		return CommonHeader{}, err
	}

	h := CommonHeader{TimestampSec: ts, Type: EntryType(typ), Subtype: subtype, Length: length}
	if h.Type.IsExtendedTimestamp() {
		usec, err := cur.ReadU32()
		if err != nil {
			return CommonHeader{}, err
		}
		h.Microseconds = &usec
		h.Length -= 4
	}
	return h, nil
}

// Encode serializes the header, restoring the +4 length adjustment for
// extended-timestamp types.
func (h CommonHeader) Encode() []byte {
	out := make([]byte, 0, 16)
	out = binary.BigEndian.AppendUint32(out, h.TimestampSec)
	out = binary.BigEndian.AppendUint16(out, uint16(h.Type))
	out = binary.BigEndian.AppendUint16(out, h.Subtype)
	length := h.Length
	if h.Microseconds != nil {
		length += 4
	}
	out = binary.BigEndian.AppendUint32(out, length)
	if h.Microseconds != nil {
		out = binary.BigEndian.AppendUint32(out, *h.Microseconds)
	}
	return out
}

const baseHeaderSize = 12
const extTimestampHeaderSize = 16

func (h CommonHeader) wireSize() int {
	if h.Microseconds != nil {
		return extTimestampHeaderSize
	}
	return baseHeaderSize
}
