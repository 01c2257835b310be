package mrt

import (
	"net/netip"

	"github.com/route-beacon/mrtkit/bgp"
	"github.com/route-beacon/mrtkit/internal/cursor"
)

// Bgp4MpStateChange is an RFC 6396 §4.4.1 BGP4MP_STATE_CHANGE record: a peer
// FSM transition, carrying no routing information of its own.
type Bgp4MpStateChange struct {
	PeerASN   bgp.ASN
	LocalASN  bgp.ASN
	Interface uint16
	AFI       uint16
	PeerAddr  netip.Addr
	LocalAddr netip.Addr
	OldState  uint16
	NewState  uint16
}

func (Bgp4MpStateChange) isRecord() {}

// Bgp4MpMessage is an RFC 6396 §4.4.2 / RFC 8050 BGP4MP_MESSAGE* record: a
// raw BGP message exchanged between two peers, decoded into bgp.Message.
type Bgp4MpMessage struct {
	PeerASN   bgp.ASN
	LocalASN  bgp.ASN
	Interface uint16
	AFI       uint16
	PeerAddr  netip.Addr
	LocalAddr netip.Addr
	Message   bgp.Message
	AddPath   bool
}

func (Bgp4MpMessage) isRecord() {}

func decodeBgp4Mp(body []byte, subtype uint16, opts *Options) (Record, error) {
	cur := cursor.New(body)
	wide := bgp4mpSubtypeIsAS4(subtype)
	peerASN, err := cur.ReadASN(wide)
	if err != nil {
		return nil, headerErr("bgp4mp peer asn", err)
	}
	localASN, err := cur.ReadASN(wide)
	if err != nil {
		return nil, headerErr("bgp4mp local asn", err)
	}
	iface, err := cur.ReadU16()
	if err != nil {
		return nil, headerErr("bgp4mp interface index", err)
	}
	afi, err := cur.ReadU16()
	if err != nil {
		return nil, headerErr("bgp4mp afi", err)
	}

	var peerAddr, localAddr netip.Addr
	if afi == bgp.AFIIPv6 {
		peerAddr, err = cur.ReadIPv6()
		if err == nil {
			localAddr, err = cur.ReadIPv6()
		}
	} else {
		peerAddr, err = cur.ReadIPv4()
		if err == nil {
			localAddr, err = cur.ReadIPv4()
		}
	}
	if err != nil {
		return nil, headerErr("bgp4mp peer/local address", err)
	}

	if bgp4mpSubtypeIsStateChange(subtype) {
		oldState, err := cur.ReadU16()
		if err != nil {
			return nil, headerErr("bgp4mp old state", err)
		}
		newState, err := cur.ReadU16()
		if err != nil {
			return nil, headerErr("bgp4mp new state", err)
		}
		return Bgp4MpStateChange{
			PeerASN: bgp.ASN{Value: peerASN, Wide: wide}, LocalASN: bgp.ASN{Value: localASN, Wide: wide},
			Interface: iface, AFI: afi, PeerAddr: peerAddr, LocalAddr: localAddr,
			OldState: oldState, NewState: newState,
		}, nil
	}

	addPath := bgp4mpSubtypeIsAddPath(subtype)
	decodeOpts := &bgp.DecodeOptions{
		Logger:       opts.logger(),
		FourOctetASN: wide,
		AddPath:      func(uint16, uint8) bool { return addPath },
	}
	msg, err := bgp.DecodeMessage(cur.Bytes()[cur.Offset():], addPath, decodeOpts)
	if err != nil {
		return nil, err
	}

	return Bgp4MpMessage{
		PeerASN: bgp.ASN{Value: peerASN, Wide: wide}, LocalASN: bgp.ASN{Value: localASN, Wide: wide},
		Interface: iface, AFI: afi, PeerAddr: peerAddr, LocalAddr: localAddr,
		Message: msg, AddPath: addPath,
	}, nil
}
