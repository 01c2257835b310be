package mrt

import (
	"bytes"
	"net/netip"
	"testing"

	"github.com/route-beacon/mrtkit/bgp"
)

func TestUpdatesWriterThenReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	uw := NewUpdatesWriter(&buf)

	nlri, _ := bgp.NewPrefix(netip.MustParseAddr("10.1.0.0"), 16)
	msg := bgp.UpdateMessage{
		NLRI: []bgp.NetworkPrefix{nlri},
		Attributes: []bgp.PathAttribute{
			{Flags: bgp.FlagTransitive, Type: bgp.AttrOrigin, Value: bgp.OriginIGP},
		},
	}

	err := uw.WriteUpdate(1000, 64512, netip.MustParseAddr("192.0.2.1"), 64513, netip.MustParseAddr("192.0.2.2"), msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rd := NewReader(&buf, nil)
	rec, err := rd.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bm, ok := rec.(Bgp4MpMessage)
	if !ok {
		t.Fatalf("expected Bgp4MpMessage, got %T", rec)
	}
	if bm.PeerASN.Value != 64512 || bm.LocalASN.Value != 64513 {
		t.Fatalf("unexpected asns: %+v", bm)
	}
	update, ok := bm.Message.(bgp.UpdateMessage)
	if !ok {
		t.Fatalf("expected UpdateMessage, got %T", bm.Message)
	}
	if len(update.NLRI) != 1 || update.NLRI[0].String() != "10.1.0.0/16" {
		t.Fatalf("unexpected nlri: %v", update.NLRI)
	}
}

func TestDecodeBgp4MpStateChange(t *testing.T) {
	body := []byte{
		0xFC, 0x00, // peer asn (2-byte, non-AS4 subtype)
		0xFC, 0x01, // local asn
		0, 0, // interface
		0, 1, // afi = ipv4
		192, 0, 2, 1, // peer addr
		192, 0, 2, 2, // local addr
		0, 1, // old state
		0, 6, // new state (Established)
	}
	rec, err := decodeBgp4Mp(body, SubtypeBgp4MpStateChange, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sc, ok := rec.(Bgp4MpStateChange)
	if !ok {
		t.Fatalf("expected Bgp4MpStateChange, got %T", rec)
	}
	if sc.NewState != 6 {
		t.Fatalf("expected new state 6, got %d", sc.NewState)
	}
}
