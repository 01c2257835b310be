package mrt

import (
	"encoding/binary"
	"io"
	"net/netip"

	"github.com/route-beacon/mrtkit/bgp"
)

// encodeRecord concatenates a header and body the same way across every
// writer: header's Length is filled in from the body, mirroring
// CommonHeader.Encode's length-adjustment rule for _ET types.
func encodeRecord(h CommonHeader, body []byte) []byte {
	h.Length = uint32(len(body))
	return append(h.Encode(), body...)
}

// RibWriter emits a TABLE_DUMP_V2 snapshot: one PEER_INDEX_TABLE record
// followed by one RIB_IPV4_UNICAST/RIB_IPV6_UNICAST record per prefix. The
// peer table is written once, up front, and referenced by ordinal from
// every subsequent entry — authored as the mechanical inverse of
// decodePeerIndexTable/decodeRibAfiEntries, since RFC 6396 §4.3's layout is
// fully specified and symmetric.
type RibWriter struct {
	w            io.Writer
	timestampSec uint32
	peerOf       map[netip.Addr]uint16
	peers        []Peer
}

// NewRibWriter creates a writer that will emit records stamped with ts and
// whose PEER_INDEX_TABLE is built from peers (in the given order; their
// position in this slice becomes their ordinal).
func NewRibWriter(w io.Writer, ts uint32, collectorID netip.Addr, viewName string, peers []Peer) (*RibWriter, error) {
	rw := &RibWriter{w: w, timestampSec: ts, peerOf: make(map[netip.Addr]uint16, len(peers)), peers: peers}
	for i, p := range peers {
		rw.peerOf[p.Addr] = uint16(i)
	}
	body := encodePeerIndexTable(PeerIndexTable{CollectorBGPID: collectorID, ViewName: viewName, Peers: peers})
	h := CommonHeader{TimestampSec: ts, Type: TypeTableDumpV2, Subtype: SubtypePeerIndexTable}
	if _, err := w.Write(encodeRecord(h, body)); err != nil {
		return nil, err
	}
	return rw, nil
}

func encodePeerIndexTable(t PeerIndexTable) []byte {
	out := make([]byte, 0, 64)
	b := t.CollectorBGPID.As4()
	out = append(out, b[:]...)
	out = binary.BigEndian.AppendUint16(out, uint16(len(t.ViewName)))
	out = append(out, []byte(t.ViewName)...)
	out = binary.BigEndian.AppendUint16(out, uint16(len(t.Peers)))
	for _, p := range t.Peers {
		var peerType uint8
		if p.Addr.Is6() && !p.Addr.Is4In6() {
			peerType |= 0x01
		}
		if p.ASN.Wide {
			peerType |= 0x02
		}
		out = append(out, peerType)
		bid := p.BGPID.As4()
		out = append(out, bid[:]...)
		if peerType&0x01 != 0 {
			a := p.Addr.As16()
			out = append(out, a[:]...)
		} else {
			a := p.Addr.As4()
			out = append(out, a[:]...)
		}
		if p.ASN.Wide {
			out = binary.BigEndian.AppendUint32(out, p.ASN.Value)
		} else {
			out = binary.BigEndian.AppendUint16(out, uint16(p.ASN.Value))
		}
	}
	return out
}

// WriteEntry emits one RIB_IPV4_UNICAST or RIB_IPV6_UNICAST record for
// prefix, with one RibEntry per (peerAddr, attrs) pair in entries.
func (rw *RibWriter) WriteEntry(seqNum uint32, prefix bgp.NetworkPrefix, entries []struct {
	PeerAddr       netip.Addr
	OriginatedTime uint32
	Attrs          []bgp.PathAttribute
}) error {
	subtype := SubtypeRibIPv4Unicast
	if prefix.Addr.Is6() {
		subtype = SubtypeRibIPv6Unicast
	}

	body := binary.BigEndian.AppendUint32(nil, seqNum)
	body = append(body, encodeRibPrefix(prefix)...)
	body = binary.BigEndian.AppendUint16(body, uint16(len(entries)))
	for _, e := range entries {
		idx, ok := rw.peerOf[e.PeerAddr]
		if !ok {
			return &bgp.ParseError{Kind: bgp.InvalidPeerIndex, Context: e.PeerAddr.String()}
		}
		body = binary.BigEndian.AppendUint16(body, idx)
		body = binary.BigEndian.AppendUint32(body, e.OriginatedTime)
		var attrBytes []byte
		for _, a := range e.Attrs {
			attrBytes = append(attrBytes, bgp.EncodeAttr(a)...)
		}
		body = binary.BigEndian.AppendUint16(body, uint16(len(attrBytes)))
		body = append(body, attrBytes...)
	}

	h := CommonHeader{TimestampSec: rw.timestampSec, Type: TypeTableDumpV2, Subtype: subtype}
	_, err := rw.w.Write(encodeRecord(h, body))
	return err
}

func encodeRibPrefix(p bgp.NetworkPrefix) []byte {
	byteLen := (p.Length + 7) / 8
	out := []byte{uint8(p.Length)}
	if p.Addr.Is4() {
		b := p.Addr.As4()
		return append(out, b[:byteLen]...)
	}
	b := p.Addr.As16()
	return append(out, b[:byteLen]...)
}

// UpdatesWriter emits a BGP4MP_MESSAGE_AS4 record per call to WriteUpdate,
// the live-update counterpart to RibWriter.
type UpdatesWriter struct {
	w io.Writer
}

func NewUpdatesWriter(w io.Writer) *UpdatesWriter { return &UpdatesWriter{w: w} }

// WriteUpdate encodes msg as a full BGP message and wraps it in a
// BGP4MP_MESSAGE_AS4 record between peerASN/peerAddr and localASN/localAddr.
func (uw *UpdatesWriter) WriteUpdate(ts uint32, peerASN uint32, peerAddr netip.Addr, localASN uint32, localAddr netip.Addr, msg bgp.Message) error {
	afi := bgp.AFIIPv4
	if peerAddr.Is6() {
		afi = bgp.AFIIPv6
	}

	body := binary.BigEndian.AppendUint32(nil, peerASN)
	body = binary.BigEndian.AppendUint32(body, localASN)
	body = binary.BigEndian.AppendUint16(body, 0) // interface index
	body = binary.BigEndian.AppendUint16(body, afi)
	if afi == bgp.AFIIPv6 {
		pb, lb := peerAddr.As16(), localAddr.As16()
		body = append(body, pb[:]...)
		body = append(body, lb[:]...)
	} else {
		pb, lb := peerAddr.As4(), localAddr.As4()
		body = append(body, pb[:]...)
		body = append(body, lb[:]...)
	}
	body = append(body, bgp.Encode(msg)...)

	h := CommonHeader{TimestampSec: ts, Type: TypeBGP4MP, Subtype: SubtypeBgp4MpMessageAS4}
	_, err := uw.w.Write(encodeRecord(h, body))
	return err
}
