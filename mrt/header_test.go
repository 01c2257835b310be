package mrt

import (
	"encoding/binary"
	"testing"

	"github.com/route-beacon/mrtkit/internal/cursor"
)

func buildHeader(ts uint32, typ EntryType, subtype uint16, length uint32, usec *uint32) []byte {
	out := binary.BigEndian.AppendUint32(nil, ts)
	out = binary.BigEndian.AppendUint16(out, uint16(typ))
	out = binary.BigEndian.AppendUint16(out, subtype)
	l := length
	if usec != nil {
		l += 4
	}
	out = binary.BigEndian.AppendUint32(out, l)
	if usec != nil {
		out = binary.BigEndian.AppendUint32(out, *usec)
	}
	return out
}

func TestDecodeCommonHeaderPlain(t *testing.T) {
	raw := buildHeader(1000, TypeTableDumpV2, SubtypePeerIndexTable, 42, nil)
	h, err := decodeCommonHeader(cursor.New(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Length != 42 || h.Microseconds != nil {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestDecodeCommonHeaderExtendedTimestampAdjustsLength(t *testing.T) {
	usec := uint32(500)
	raw := buildHeader(1000, TypeBGP4MPET, SubtypeBgp4MpMessageAS4, 42, &usec)
	h, err := decodeCommonHeader(cursor.New(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Length != 42 {
		t.Fatalf("expected length 42 after -4 adjustment, got %d", h.Length)
	}
	if h.Microseconds == nil || *h.Microseconds != 500 {
		t.Fatalf("expected microseconds 500, got %v", h.Microseconds)
	}
}

func TestCommonHeaderEncodeRoundTrip(t *testing.T) {
	usec := uint32(123)
	h := CommonHeader{TimestampSec: 99, Type: TypeBGP4MPET, Subtype: SubtypeBgp4MpMessageAS4, Length: 10, Microseconds: &usec}
	encoded := h.Encode()
	decoded, err := decodeCommonHeader(cursor.New(encoded))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.Length != h.Length || *decoded.Microseconds != *h.Microseconds {
		t.Fatalf("round trip mismatch: got %+v", decoded)
	}
}
