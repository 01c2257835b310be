package bmp

import (
	"bytes"
	"net/netip"
	"testing"

	"github.com/route-beacon/mrtkit/bgp"
)

func buildBMPMessage(typ uint8, body []byte) []byte {
	out := []byte{BMPVersion}
	out = appendU32(out, uint32(CommonHeaderSize+len(body)))
	out = append(out, typ)
	return append(out, body...)
}

func keepaliveBytes() []byte {
	out := bytes.Repeat([]byte{0xFF}, 16)
	out = append(out, 0, 19, byte(bgp.MsgKeepalive))
	return out
}

func globalPeerHeader() PerPeerHeader {
	return PerPeerHeader{
		PeerType: PeerTypeGlobal, Flags: 0,
		Addr: netip.MustParseAddr("192.0.2.1"), ASN: bgp.NewASN4(64512),
		BGPID: netip.MustParseAddr("192.0.2.254"),
	}
}

func TestDecodeMessageRouteMonitoring(t *testing.T) {
	peer := globalPeerHeader()
	body := append(peer.Encode(), keepaliveBytes()...)
	raw := buildBMPMessage(MsgRouteMonitoring, body)

	msg, err := DecodeMessage(raw, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rm, ok := msg.(RouteMonitoring)
	if !ok {
		t.Fatalf("expected RouteMonitoring, got %T", msg)
	}
	if _, ok := rm.Update.(bgp.KeepaliveMessage); !ok {
		t.Fatalf("expected KeepaliveMessage, got %T", rm.Update)
	}
}

func TestDecodeMessageRouteMonitoringLocRIBSplitsTableNameTLV(t *testing.T) {
	peer := PerPeerHeader{PeerType: PeerTypeLocRIB, BGPID: netip.MustParseAddr("192.0.2.254")}
	tlv := []byte{0, 0, 0, 4, 'r', 'i', 'b', '0'} // type 0, length 4, "rib0"
	body := append(peer.Encode(), keepaliveBytes()...)
	body = append(body, tlv...)
	raw := buildBMPMessage(MsgRouteMonitoring, body)

	msg, err := DecodeMessage(raw, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rm, ok := msg.(RouteMonitoring)
	if !ok {
		t.Fatalf("expected RouteMonitoring, got %T", msg)
	}
	if rm.TableName() != "rib0" {
		t.Fatalf("expected table name rib0, got %q", rm.TableName())
	}
}

func TestDecodeMessageInitiationTLVs(t *testing.T) {
	tlv := []byte{0, byte(TLVSysDescr), 0, 3, 'f', 'o', 'o'}
	raw := buildBMPMessage(MsgInitiation, tlv)

	msg, err := DecodeMessage(raw, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	init, ok := msg.(Initiation)
	if !ok || len(init.TLVs) != 1 || init.TLVs[0].String() != "foo" {
		t.Fatalf("unexpected initiation: %+v", init)
	}
}

func TestDecodeMessagePeerDownLocalNoNotification(t *testing.T) {
	peer := globalPeerHeader()
	body := append(peer.Encode(), PeerDownLocalNoNotification)
	body = append(body, 0, 6) // fsm code 6
	raw := buildBMPMessage(MsgPeerDown, body)

	msg, err := DecodeMessage(raw, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	down, ok := msg.(PeerDown)
	if !ok {
		t.Fatalf("expected PeerDown, got %T", msg)
	}
	if down.FSMCode == nil || *down.FSMCode != 6 {
		t.Fatalf("expected fsm code 6, got %v", down.FSMCode)
	}
}

func TestDecodeMessageStatisticsReport(t *testing.T) {
	peer := globalPeerHeader()
	body := peer.Encode()
	body = appendU32(body, 1) // 1 stat
	body = append(body, 0, byte(StatAdjRIBInRoutes))
	body = append(body, 0, 4)
	body = appendU32(body, 42)
	raw := buildBMPMessage(MsgStatisticsReport, body)

	msg, err := DecodeMessage(raw, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sr, ok := msg.(StatisticsReport)
	if !ok || len(sr.Stats) != 1 || sr.Stats[0].Value != 42 {
		t.Fatalf("unexpected statistics report: %+v", sr)
	}
}
