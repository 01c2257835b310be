package mrt

import (
	"bytes"
	"net/netip"
	"testing"

	"github.com/route-beacon/mrtkit/bgp"
)

func TestRibWriterThenReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	peers := []Peer{
		{BGPID: netip.MustParseAddr("192.0.2.1"), Addr: netip.MustParseAddr("192.0.2.1"), ASN: bgp.NewASN4(64512)},
	}
	rw, err := NewRibWriter(&buf, 1000, netip.MustParseAddr("192.0.2.254"), "test", peers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prefix, _ := bgp.NewPrefix(netip.MustParseAddr("10.0.0.0"), 24)
	origin := bgp.PathAttribute{Flags: bgp.FlagTransitive, Type: bgp.AttrOrigin, Value: bgp.OriginIGP}
	err = rw.WriteEntry(1, prefix, []struct {
		PeerAddr       netip.Addr
		OriginatedTime uint32
		Attrs          []bgp.PathAttribute
	}{
		{PeerAddr: netip.MustParseAddr("192.0.2.1"), OriginatedTime: 5, Attrs: []bgp.PathAttribute{origin}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rd := NewReader(&buf, nil)
	first, err := rd.Next()
	if err != nil {
		t.Fatalf("unexpected error reading peer index table: %v", err)
	}
	pit, ok := first.(PeerIndexTable)
	if !ok || len(pit.Peers) != 1 {
		t.Fatalf("expected PeerIndexTable with 1 peer, got %v", first)
	}

	second, err := rd.Next()
	if err != nil {
		t.Fatalf("unexpected error reading rib entries: %v", err)
	}
	ribEntries, ok := second.(RibAfiEntries)
	if !ok || len(ribEntries.Entries) != 1 {
		t.Fatalf("expected RibAfiEntries with 1 entry, got %v", second)
	}
	if ribEntries.Prefix.String() != "10.0.0.0/24" {
		t.Fatalf("expected prefix 10.0.0.0/24, got %s", ribEntries.Prefix)
	}
	if ribEntries.Entries[0].PeerIndex != 0 {
		t.Fatalf("expected peer index 0, got %d", ribEntries.Entries[0].PeerIndex)
	}
}

func TestRibWriterRejectsUnknownPeer(t *testing.T) {
	var buf bytes.Buffer
	rw, err := NewRibWriter(&buf, 1000, netip.MustParseAddr("192.0.2.254"), "test", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prefix, _ := bgp.NewPrefix(netip.MustParseAddr("10.0.0.0"), 24)
	err = rw.WriteEntry(1, prefix, []struct {
		PeerAddr       netip.Addr
		OriginatedTime uint32
		Attrs          []bgp.PathAttribute
	}{
		{PeerAddr: netip.MustParseAddr("192.0.2.1"), OriginatedTime: 5},
	})
	pe, ok := err.(*bgp.ParseError)
	if !ok || pe.Kind != bgp.InvalidPeerIndex {
		t.Fatalf("expected InvalidPeerIndex error, got %v", err)
	}
}
