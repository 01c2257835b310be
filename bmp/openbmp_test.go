package bmp

import (
	"net/netip"
	"testing"
)

func buildOpenBMPEnvelope(msgLen uint32, adminID, routerIP string, group string) []byte {
	out := append([]byte{}, openBMPMagic[:]...)
	out = append(out, 1, 7) // major, minor
	out = append(out, 0, 0) // header_len, not validated
	out = appendU32(out, msgLen)
	out = append(out, 0x80)                // flags: is_router_msg
	out = append(out, openBMPObjectType)   // object type
	out = appendU32(out, 1000)             // t_sec
	out = appendU32(out, 0)                // t_usec
	out = append(out, make([]byte, 16)...) // collector hash

	adminBytes := []byte(adminID)
	out = append(out, byte(len(adminBytes)>>8), byte(len(adminBytes)))
	out = append(out, adminBytes...)

	out = append(out, make([]byte, 16)...) // router hash

	ip := netip.MustParseAddr(routerIP).As4()
	out = append(out, ip[:]...)
	out = append(out, make([]byte, 12)...) // pad to 16 (ipv4-only path)

	groupBytes := []byte(group)
	out = append(out, byte(len(groupBytes)>>8), byte(len(groupBytes)))
	out = append(out, groupBytes...)

	out = appendU32(out, 1) // row count
	return out
}

func TestDecodeOpenBMPHeaderAndMessage(t *testing.T) {
	bmpMsg := buildBMPMessage(MsgInitiation, nil)
	envelope := buildOpenBMPEnvelope(uint32(len(bmpMsg)), "collector-1", "192.0.2.254", "")
	raw := append(envelope, bmpMsg...)

	hdr, msg, consumed, err := DecodeOpenBMPMessage(raw, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hdr.AdminID != "collector-1" {
		t.Fatalf("expected admin id collector-1, got %q", hdr.AdminID)
	}
	if consumed != len(raw) {
		t.Fatalf("expected to consume %d bytes, consumed %d", len(raw), consumed)
	}
	if _, ok := msg.(Initiation); !ok {
		t.Fatalf("expected Initiation, got %T", msg)
	}
}
