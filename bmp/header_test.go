package bmp

import (
	"net/netip"
	"testing"

	"github.com/route-beacon/mrtkit/bgp"
	"github.com/route-beacon/mrtkit/internal/cursor"
)

func TestDecodeCommonHeaderRejectsWrongVersion(t *testing.T) {
	raw := []byte{4, 0, 0, 0, 6, byte(MsgInitiation)}
	_, err := decodeCommonHeader(cursor.New(raw))
	pe, ok := err.(*bgp.ParseError)
	if !ok || pe.Kind != bgp.InvalidBmpVersion {
		t.Fatalf("expected InvalidBmpVersion, got %v", err)
	}
}

func TestPerPeerHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := PerPeerHeader{
		PeerType: PeerTypeGlobal, Flags: PeerFlagPostPolicy,
		Distinguisher: 0,
		Addr:          netip.MustParseAddr("192.0.2.1"),
		ASN:           bgp.NewASN4(64512),
		BGPID:         netip.MustParseAddr("192.0.2.254"),
		TimestampSec:  1000, TimestampUsec: 500,
	}
	encoded := h.Encode()
	if len(encoded) != PerPeerHeaderSize {
		t.Fatalf("expected %d bytes, got %d", PerPeerHeaderSize, len(encoded))
	}
	decoded, err := decodePerPeerHeader(cursor.New(encoded))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.Addr != h.Addr || !decoded.ASN.Equal(h.ASN) || decoded.BGPID != h.BGPID {
		t.Fatalf("round trip mismatch: got %+v", decoded)
	}
	if !decoded.IsPostPolicy() {
		t.Fatalf("expected post-policy flag to survive round trip")
	}
}

func TestPerPeerHeaderSixteenBitASN(t *testing.T) {
	raw := []byte{
		PeerTypeGlobal, PeerFlagASN16Bit,
		0, 0, 0, 0, 0, 0, 0, 0, // distinguisher
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 192, 0, 2, 1, // peer addr (ipv4-in-bmp)
		0, 0, 0xFC, 0x00, // peer asn: 2 zero bytes + 2-byte asn 64512
		192, 0, 2, 254, // bgp id
		0, 0, 3, 232, // ts sec
		0, 0, 0, 0, // ts usec
	}
	h, err := decodePerPeerHeader(cursor.New(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.ASN.Wide || h.ASN.Value != 64512 {
		t.Fatalf("expected narrow asn 64512, got %+v", h.ASN)
	}
	if h.FourOctetASN() {
		t.Fatalf("expected FourOctetASN false")
	}
}

func TestRouterIDFallsBackToBGPIDForLocRIB(t *testing.T) {
	h := PerPeerHeader{PeerType: PeerTypeLocRIB, BGPID: netip.MustParseAddr("192.0.2.254")}
	if h.RouterID() != h.BGPID {
		t.Fatalf("expected loc-rib router id to be bgp id")
	}
}
