package elem

import (
	"net/netip"
	"testing"

	"github.com/route-beacon/mrtkit/bgp"
	"github.com/route-beacon/mrtkit/mrt"
)

func asPathAttr(asns ...uint32) bgp.PathAttribute {
	path := bgp.AsPath{Segments: []bgp.AsPathSegment{{Type: bgp.AsSequence}}}
	for _, a := range asns {
		path.Segments[0].ASNs = append(path.Segments[0].ASNs, bgp.NewASN4(a))
	}
	return bgp.PathAttribute{Flags: bgp.FlagTransitive, Type: bgp.AttrASPath, Value: bgp.AsPathValue{AsPath: path}}
}

func prefix(cidr string) bgp.NetworkPrefix {
	p := netip.MustParsePrefix(cidr)
	np, err := bgp.NewPrefix(p.Addr(), p.Bits())
	if err != nil {
		panic(err)
	}
	return np
}

func TestFromRecordAnnounceTwoPrefixesSharesAttributes(t *testing.T) {
	update := bgp.UpdateMessage{
		NLRI: []bgp.NetworkPrefix{prefix("10.250.0.0/24"), prefix("10.251.0.0/24")},
		Attributes: []bgp.PathAttribute{
			asPathAttr(65001, 65002, 65003),
			{Flags: bgp.FlagTransitive, Type: bgp.AttrNextHop, Value: bgp.NextHopValue{Addr: netip.MustParseAddr("10.0.0.254")}},
			{Flags: bgp.FlagTransitive | bgp.FlagOptional, Type: bgp.AttrCommunity, Value: bgp.CommunityValue{{ASN: 65001, Value: 100}}},
		},
	}
	rec := mrt.Bgp4MpMessage{
		PeerASN: bgp.NewASN4(65001), PeerAddr: netip.MustParseAddr("10.0.0.1"), Message: update,
	}

	var e Elementor
	elems := e.FromRecord(1634693400, rec)
	if len(elems) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(elems))
	}
	for _, el := range elems {
		if el.Type != Announce {
			t.Fatalf("expected announce, got %v", el.Type)
		}
		if el.AsPath == nil || el.AsPath.String() != "65001 65002 65003" {
			t.Fatalf("unexpected as path: %v", el.AsPath)
		}
		if len(el.OriginASNs) != 1 || el.OriginASNs[0].Value != 65003 {
			t.Fatalf("expected origin asn 65003, got %v", el.OriginASNs)
		}
		if el.NextHop == nil || el.NextHop.String() != "10.0.0.254" {
			t.Fatalf("unexpected next hop: %v", el.NextHop)
		}
	}
	if elems[0].Prefix.String() == elems[1].Prefix.String() {
		t.Fatalf("expected distinct prefixes, got %s twice", elems[0].Prefix)
	}
}

func TestFromRecordWithdrawClearsPathFields(t *testing.T) {
	update := bgp.UpdateMessage{
		Withdrawn: []bgp.NetworkPrefix{prefix("10.250.0.0/24")},
		Attributes: []bgp.PathAttribute{
			asPathAttr(65001), // ignored attributes: withdrawals carry no attrs in practice but guard anyway
		},
	}
	rec := mrt.Bgp4MpMessage{PeerASN: bgp.NewASN4(65001), PeerAddr: netip.MustParseAddr("10.0.0.1"), Message: update}

	var e Elementor
	elems := e.FromRecord(1000, rec)
	if len(elems) != 1 {
		t.Fatalf("expected 1 element, got %d", len(elems))
	}
	if elems[0].Type != Withdraw {
		t.Fatalf("expected withdraw, got %v", elems[0].Type)
	}
	if elems[0].AsPath != nil || elems[0].NextHop != nil {
		t.Fatalf("expected withdraw to clear as_path/next_hop, got %+v", elems[0])
	}
}

func TestFromRecordSuppressesEndOfRib(t *testing.T) {
	update := bgp.UpdateMessage{
		Attributes: []bgp.PathAttribute{
			{Flags: bgp.FlagOptional, Type: bgp.AttrMPUnreachNLRI, Value: bgp.MPUnreachValue{AFI: bgp.AFIIPv6, SAFI: 1}},
		},
	}
	rec := mrt.Bgp4MpMessage{PeerASN: bgp.NewASN4(65001), PeerAddr: netip.MustParseAddr("10.0.0.1"), Message: update}

	var e Elementor
	if elems := e.FromRecord(1000, rec); len(elems) != 0 {
		t.Fatalf("expected end-of-rib to be suppressed, got %v", elems)
	}

	e.IncludeEndOfRib = true
	if elems := e.FromRecord(1000, rec); len(elems) != 0 {
		t.Fatalf("end-of-rib marker carries no withdrawn prefixes even when opted in, got %v", elems)
	}
}

func TestFromRecordRibAfiEntriesResolvesPeerByIndex(t *testing.T) {
	peers := []mrt.Peer{
		{BGPID: netip.MustParseAddr("192.0.2.1"), Addr: netip.MustParseAddr("192.0.2.1"), ASN: bgp.NewASN4(64512)},
	}
	pit := mrt.PeerIndexTable{Peers: peers}

	entry := mrt.RibEntry{
		PeerIndex: 0,
		Attributes: []bgp.PathAttribute{
			{Flags: bgp.FlagTransitive, Type: bgp.AttrOrigin, Value: bgp.OriginIGP},
		},
	}
	rib := mrt.RibAfiEntries{Prefix: prefix("203.0.113.0/24"), Entries: []mrt.RibEntry{entry}}

	var e Elementor
	e.FromRecord(0, pit)
	elems := e.FromRecord(1000, rib)
	if len(elems) != 1 {
		t.Fatalf("expected 1 element, got %d", len(elems))
	}
	if elems[0].PeerASN.Value != 64512 {
		t.Fatalf("expected peer asn 64512, got %v", elems[0].PeerASN)
	}
	if elems[0].Origin == nil || *elems[0].Origin != bgp.OriginIGP {
		t.Fatalf("expected origin igp, got %v", elems[0].Origin)
	}
}

func TestFromRecordRibAfiEntriesUnresolvedPeerSkipped(t *testing.T) {
	pit := mrt.PeerIndexTable{}
	rib := mrt.RibAfiEntries{
		Prefix:  prefix("203.0.113.0/24"),
		Entries: []mrt.RibEntry{{PeerIndex: 3}},
	}

	var e Elementor
	e.FromRecord(0, pit)
	if elems := e.FromRecord(1000, rib); len(elems) != 0 {
		t.Fatalf("expected out-of-range peer index to be skipped, got %v", elems)
	}
}
