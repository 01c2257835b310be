package mrt

import (
	"math"
	"net/netip"

	"github.com/route-beacon/mrtkit/bgp"
	"github.com/route-beacon/mrtkit/internal/cursor"
)

func float32FromBits(bits uint32) float64 {
	return float64(math.Float32frombits(bits))
}

// Peer is one entry of a PeerIndexTable: its BGP Identifier, address, and
// ASN (2- or 4-byte, per the peer type octet).
type Peer struct {
	BGPID   netip.Addr
	Addr    netip.Addr
	ASN     bgp.ASN
}

// PeerIndexTable is the RFC 6396 §4.3.1 PEER_INDEX_TABLE record: it precedes
// a run of RIB entry records in a TABLE_DUMP_V2 stream and is referenced by
// ordinal from each RibEntry.PeerIndex.
type PeerIndexTable struct {
	CollectorBGPID netip.Addr
	ViewName       string
	Peers          []Peer
}

func (PeerIndexTable) isRecord() {}

// Peer returns the nth peer, or an InvalidPeerIndex error if idx is out of
// range — the error a RIB entry referencing a bad ordinal should surface.
func (t PeerIndexTable) Peer(idx uint16) (Peer, error) {
	if int(idx) >= len(t.Peers) {
		return Peer{}, &bgp.ParseError{Kind: bgp.InvalidPeerIndex, Code: int(idx)}
	}
	return t.Peers[idx], nil
}

func decodePeerIndexTable(cur *cursor.Cursor) (Record, error) {
	collectorID, err := cur.ReadIPv4()
	if err != nil {
		return nil, headerErr("peer index table collector id", err)
	}
	viewNameLen, err := cur.ReadU16()
	if err != nil {
		return nil, headerErr("peer index table view name length", err)
	}
	viewNameBytes, err := cur.ReadN(int(viewNameLen))
	if err != nil {
		return nil, headerErr("peer index table view name", err)
	}
	peerCount, err := cur.ReadU16()
	if err != nil {
		return nil, headerErr("peer index table peer count", err)
	}

	peers := make([]Peer, 0, peerCount)
	for i := 0; i < int(peerCount); i++ {
		peerType, err := cur.ReadU8()
		if err != nil {
			return nil, headerErr("peer type", err)
		}
		bgpID, err := cur.ReadIPv4()
		if err != nil {
			return nil, headerErr("peer bgp id", err)
		}
		isIPv6 := peerType&0x01 != 0
		isASN4 := peerType&0x02 != 0

		var addr netip.Addr
		if isIPv6 {
			addr, err = cur.ReadIPv6()
		} else {
			addr, err = cur.ReadIPv4()
		}
		if err != nil {
			return nil, headerErr("peer address", err)
		}
		asn, err := cur.ReadASN(isASN4)
		if err != nil {
			return nil, headerErr("peer asn", err)
		}

		peers = append(peers, Peer{BGPID: bgpID, Addr: addr, ASN: bgp.ASN{Value: asn, Wide: isASN4}})
	}

	return PeerIndexTable{CollectorBGPID: collectorID, ViewName: string(viewNameBytes), Peers: peers}, nil
}

// RibEntry is one peer's route for the prefix carried by its enclosing
// RibAfiEntries record.
type RibEntry struct {
	PeerIndex      uint16
	OriginatedTime uint32
	PathID         *uint32
	Attributes     []bgp.PathAttribute
}

// RibAfiEntries is an RFC 6396 §4.3.2 RIB_IPV4_UNICAST / RIB_IPV4_MULTICAST /
// RIB_IPV6_UNICAST / RIB_IPV6_MULTICAST record (and their ADD-PATH variants):
// one prefix, one entry per originating peer.
type RibAfiEntries struct {
	SequenceNumber uint32
	Prefix         bgp.NetworkPrefix
	Entries        []RibEntry
}

func (RibAfiEntries) isRecord() {}

func decodeTableDumpV2(body []byte, subtype uint16, peerTable *PeerIndexTable, opts *Options) (Record, error) {
	cur := cursor.New(body)
	switch subtype {
	case SubtypePeerIndexTable:
		return decodePeerIndexTable(cur)
	case SubtypeRibGeneric, SubtypeRibGenericAddPath:
		opts.warn("RIB_GENERIC entries are not decoded")
		return RawRecord{Payload: append([]byte{}, body...)}, nil
	case SubtypeGeoPeerTable:
		return decodeGeoPeerTable(cur)
	default:
		afi, maxBytes := ribAfiFor(subtype)
		return decodeRibAfiEntries(cur, afi, maxBytes, ribSubtypeHasAddPath(subtype), peerTable, opts)
	}
}

func ribAfiFor(subtype uint16) (afi uint16, maxBytes int) {
	switch subtype {
	case SubtypeRibIPv6Unicast, SubtypeRibIPv6Multicast, SubtypeRibIPv6UnicastAddPath, SubtypeRibIPv6MulticastAddPath:
		return 2, 16
	default:
		return 1, 4
	}
}

func decodeRibAfiEntries(cur *cursor.Cursor, afi uint16, maxBytes int, addPath bool, peerTable *PeerIndexTable, opts *Options) (Record, error) {
	seqNum, err := cur.ReadU32()
	if err != nil {
		return nil, headerErr("rib entries sequence number", err)
	}
	// RFC 6396 §4.3.2: the prefix here has no path_id field of its own —
	// ADD-PATH path_ids live per-RibEntry below, not on the shared prefix.
	addr, bits, err := cur.ReadPrefix(maxBytes)
	if err != nil {
		return nil, headerErr("rib entries prefix", err)
	}
	prefix, err := bgp.NewPrefix(addr, bits)
	if err != nil {
		return nil, err
	}

	entryCount, err := cur.ReadU16()
	if err != nil {
		return nil, headerErr("rib entries count", err)
	}

	decodeOpts := &bgp.DecodeOptions{Logger: opts.logger(), FourOctetASN: true}
	entries := make([]RibEntry, 0, entryCount)
	for i := 0; i < int(entryCount); i++ {
		entry, err := decodeRibEntry(cur, addPath, decodeOpts)
		if err != nil {
			// Grounded on the original parser's resilience: a malformed
			// entry ends this RIB record's entry list rather than aborting
			// the whole archive read.
			opts.warn("rib entry: " + err.Error())
			break
		}
		if peerTable != nil {
			if _, perr := peerTable.Peer(entry.PeerIndex); perr != nil {
				opts.warn("rib entry: " + perr.Error())
				break
			}
		}
		entries = append(entries, entry)
	}

	return RibAfiEntries{SequenceNumber: seqNum, Prefix: prefix, Entries: entries}, nil
}

func decodeRibEntry(cur *cursor.Cursor, addPath bool, decodeOpts *bgp.DecodeOptions) (RibEntry, error) {
	peerIdx, err := cur.ReadU16()
	if err != nil {
		return RibEntry{}, err
	}
	originatedTime, err := cur.ReadU32()
	if err != nil {
		return RibEntry{}, err
	}
	var pathID *uint32
	if addPath {
		v, err := cur.ReadU32()
		if err != nil {
			return RibEntry{}, err
		}
		pathID = &v
	}
	attrLen, err := cur.ReadU16()
	if err != nil {
		return RibEntry{}, err
	}
	attrBytes, err := cur.ReadN(int(attrLen))
	if err != nil {
		return RibEntry{}, err
	}
	attrs, err := bgp.DecodeAttributes(attrBytes, decodeOpts)
	if err != nil {
		return RibEntry{}, err
	}
	return RibEntry{PeerIndex: peerIdx, OriginatedTime: originatedTime, PathID: pathID, Attributes: attrs}, nil
}

// GeoPeerEntry is one entry of an RFC 6397 GEO_PEER_TABLE record.
type GeoPeerEntry struct {
	BGPID     netip.Addr
	Latitude  float64
	Longitude float64
}

// GeoPeerTable is an RFC 6397 GEO_PEER_TABLE record, a peer-index-table
// variant carrying collector geolocation instead of peer ASNs. NaN
// coordinates (an unlocated collector) are preserved untouched.
type GeoPeerTable struct {
	CollectorBGPID netip.Addr
	Entries        []GeoPeerEntry
}

func (GeoPeerTable) isRecord() {}

func decodeGeoPeerTable(cur *cursor.Cursor) (Record, error) {
	collectorID, err := cur.ReadIPv4()
	if err != nil {
		return nil, headerErr("geo peer table collector id", err)
	}
	count, err := cur.ReadU16()
	if err != nil {
		return nil, headerErr("geo peer table count", err)
	}
	entries := make([]GeoPeerEntry, 0, count)
	for i := 0; i < int(count); i++ {
		bgpID, err := cur.ReadIPv4()
		if err != nil {
			return nil, headerErr("geo peer table peer id", err)
		}
		latBits, err := cur.ReadU32()
		if err != nil {
			return nil, headerErr("geo peer table latitude", err)
		}
		lonBits, err := cur.ReadU32()
		if err != nil {
			return nil, headerErr("geo peer table longitude", err)
		}
		entries = append(entries, GeoPeerEntry{
			BGPID:     bgpID,
			Latitude:  float32FromBits(latBits),
			Longitude: float32FromBits(lonBits),
		})
	}
	return GeoPeerTable{CollectorBGPID: collectorID, Entries: entries}, nil
}
