package bgp

import (
	"bytes"
	"encoding/binary"
	"net/netip"
	"testing"
)

// buildAttr builds one attribute's wire bytes the same way the teacher's
// update_test.go helpers do: flags/type header, then a length field sized by
// the Extended Length flag, then the body.
func buildAttr(flags, typeCode byte, data []byte) []byte {
	out := []byte{flags, typeCode}
	if flags&byte(FlagExtendedLength) != 0 {
		out = binary.BigEndian.AppendUint16(out, uint16(len(data)))
	} else {
		out = append(out, byte(len(data)))
	}
	return append(out, data...)
}

func TestDecodeAttributesOriginAndNextHop(t *testing.T) {
	origin := buildAttr(0x40, byte(AttrOrigin), []byte{0x00})
	nh := buildAttr(0x40, byte(AttrNextHop), []byte{10, 0, 0, 1})
	data := append(append([]byte{}, origin...), nh...)

	attrs, err := DecodeAttributes(data, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attrs, got %d", len(attrs))
	}
	o, ok := attrs[0].Value.(OriginValue)
	if !ok || o != OriginIGP {
		t.Fatalf("expected OriginIGP, got %v", attrs[0].Value)
	}
	n, ok := attrs[1].Value.(NextHopValue)
	if !ok || n.Addr != netip.MustParseAddr("10.0.0.1") {
		t.Fatalf("expected next hop 10.0.0.1, got %v", attrs[1].Value)
	}
}

func TestDecodeAttributesDuplicateDiscardedNotFatal(t *testing.T) {
	a := buildAttr(0x40, byte(AttrOrigin), []byte{0x00})
	b := buildAttr(0x40, byte(AttrOrigin), []byte{0x01})
	nh := buildAttr(0x40, byte(AttrNextHop), []byte{10, 0, 0, 1})
	data := append(append(append([]byte{}, a...), b...), nh...)

	attrs, err := DecodeAttributes(data, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attrs) != 2 {
		t.Fatalf("expected the duplicate discarded and decoding to continue, got %d attrs", len(attrs))
	}
	o, ok := attrs[0].Value.(OriginValue)
	if !ok || o != OriginIGP {
		t.Fatalf("expected the first ORIGIN to win, got %v", attrs[0].Value)
	}
	if _, ok := attrs[1].Value.(NextHopValue); !ok {
		t.Fatalf("expected decoding to continue past the duplicate, got %v", attrs[1].Value)
	}
}

func TestDecodeAttributesMalformedDiscardedNotFatal(t *testing.T) {
	bad := buildAttr(0x40, byte(AttrOrigin), []byte{0x00, 0x01})
	nh := buildAttr(0x40, byte(AttrNextHop), []byte{10, 0, 0, 1})
	data := append(append([]byte{}, bad...), nh...)

	attrs, err := DecodeAttributes(data, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attrs) != 1 {
		t.Fatalf("expected the malformed ORIGIN discarded and decoding to continue, got %d attrs", len(attrs))
	}
	if _, ok := attrs[0].Value.(NextHopValue); !ok {
		t.Fatalf("expected decoding to continue past the malformed attribute, got %v", attrs[0].Value)
	}
}

func TestDecodeAttributesUnknownTypeIsOpaque(t *testing.T) {
	raw := []byte{0xAA, 0xBB, 0xCC}
	data := buildAttr(0xC0, 200, raw)

	attrs, err := DecodeAttributes(data, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, ok := attrs[0].Value.(UnknownValue)
	if !ok || !bytes.Equal(u.Raw, raw) {
		t.Fatalf("expected unknown value with raw bytes preserved, got %v", attrs[0].Value)
	}
}

func TestEncodeAttrRoundTripsCommunity(t *testing.T) {
	original := buildAttr(0x40, byte(AttrCommunity), []byte{0, 100, 0, 1, 0, 100, 0, 2})
	attrs, err := DecodeAttributes(original, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reencoded := EncodeAttr(attrs[0])
	if !bytes.Equal(reencoded, original) {
		t.Fatalf("round trip mismatch:\n got  %x\n want %x", reencoded, original)
	}
}

func TestEncodeAttrRoundTripsExtendedLengthFlag(t *testing.T) {
	body := make([]byte, 300) // forces the extended-length branch
	original := buildAttr(0xD0, 99, body)
	attrs, err := DecodeAttributes(original, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reencoded := EncodeAttr(attrs[0])
	if !bytes.Equal(reencoded, original) {
		t.Fatalf("round trip mismatch: lengths got %d want %d", len(reencoded), len(original))
	}
}

func TestDecodeMPReachIPv6WithLinkLocal(t *testing.T) {
	global := netip.MustParseAddr("2001:db8::1").As16()
	local := netip.MustParseAddr("fe80::1").As16()
	nh := append(append([]byte{}, global[:]...), local[:]...)

	body := []byte{0, 2, 1, byte(len(nh))} // afi=2 (ipv6), safi=1, nhlen
	body = append(body, nh...)
	body = append(body, 0) // snpa count
	body = append(body, 64, 0x20, 0x01, 0x0d, 0xb8, 0, 0, 0, 2) // 2001:db8:0:2::/64

	attrs, err := DecodeAttributes(buildAttr(0xC0, byte(AttrMPReachNLRI), body), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := attrs[0].Value.(MPReachValue)
	if !ok {
		t.Fatalf("expected MPReachValue, got %T", attrs[0].Value)
	}
	if v.NextHop.Global != netip.MustParseAddr("2001:db8::1") {
		t.Fatalf("unexpected global next hop: %v", v.NextHop.Global)
	}
	if v.NextHop.LinkLocal != netip.MustParseAddr("fe80::1") {
		t.Fatalf("unexpected link-local next hop: %v", v.NextHop.LinkLocal)
	}
	if len(v.Announced) != 1 || v.Announced[0].Length != 64 {
		t.Fatalf("unexpected announced prefixes: %v", v.Announced)
	}
}
