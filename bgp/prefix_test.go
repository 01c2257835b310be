package bgp

import (
	"net/netip"
	"testing"
)

func TestNewPrefixMasksHostBits(t *testing.T) {
	addr := netip.MustParseAddr("10.0.0.123")
	p, err := NewPrefix(addr, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.String() != "10.0.0.0/24" {
		t.Fatalf("expected masked prefix 10.0.0.0/24, got %s", p.String())
	}
}

func TestNewPrefixRejectsOversizeLength(t *testing.T) {
	addr := netip.MustParseAddr("10.0.0.1")
	if _, err := NewPrefix(addr, 33); err == nil {
		t.Fatalf("expected error for length > 32 on IPv4 address")
	}
}

func TestPrefixContains(t *testing.T) {
	super, _ := NewPrefix(netip.MustParseAddr("10.0.0.0"), 16)
	sub, _ := NewPrefix(netip.MustParseAddr("10.0.1.0"), 24)
	if !super.Contains(sub) {
		t.Fatalf("expected %s to contain %s", super, sub)
	}
	if sub.Contains(super) {
		t.Fatalf("did not expect %s to contain %s", sub, super)
	}
}

func TestPrefixWithPathID(t *testing.T) {
	p, _ := NewPrefix(netip.MustParseAddr("192.0.2.0"), 24)
	p = p.WithPathID(7)
	if p.PathID == nil || *p.PathID != 7 {
		t.Fatalf("expected path id 7, got %v", p.PathID)
	}
}
