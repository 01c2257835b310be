package mrt

import (
	"net/netip"

	"github.com/route-beacon/mrtkit/bgp"
	"github.com/route-beacon/mrtkit/internal/cursor"
)

// TableDumpRecord is a RFC 6396 §4.2 TABLE_DUMP (v1) RIB entry: one prefix,
// one peer, one set of attributes, using 2-byte ASNs and no ADD-PATH.
type TableDumpRecord struct {
	ViewNumber     uint16
	SequenceNumber uint16
	Prefix         bgp.NetworkPrefix
	Status         uint8
	OriginatedTime uint32
	PeerAddr       netip.Addr
	PeerASN        bgp.ASN
	Attributes     []bgp.PathAttribute
}

func (TableDumpRecord) isRecord() {}

func decodeTableDump(body []byte, subtype uint16, opts *Options) (Record, error) {
	afi := uint16(1)
	if subtype == 2 {
		afi = 2
	}
	maxBytes := 4
	if afi == 2 {
		maxBytes = 16
	}

	cur := cursor.New(body)
	viewNum, err := cur.ReadU16()
	if err != nil {
		return nil, headerErr("table_dump view number", err)
	}
	seqNum, err := cur.ReadU16()
	if err != nil {
		return nil, headerErr("table_dump sequence number", err)
	}

	var addr netip.Addr
	if maxBytes == 4 {
		addr, err = cur.ReadIPv4()
	} else {
		addr, err = cur.ReadIPv6()
	}
	if err != nil {
		return nil, headerErr("table_dump prefix address", err)
	}
	prefixLen, err := cur.ReadU8()
	if err != nil {
		return nil, headerErr("table_dump prefix length", err)
	}
	prefix, err := bgp.NewPrefix(addr, int(prefixLen))
	if err != nil {
		return nil, err
	}

	status, err := cur.ReadU8()
	if err != nil {
		return nil, headerErr("table_dump status", err)
	}
	originatedTime, err := cur.ReadU32()
	if err != nil {
		return nil, headerErr("table_dump originated time", err)
	}

	var peerAddr netip.Addr
	if maxBytes == 4 {
		peerAddr, err = cur.ReadIPv4()
	} else {
		peerAddr, err = cur.ReadIPv6()
	}
	if err != nil {
		return nil, headerErr("table_dump peer address", err)
	}
	peerASN, err := cur.ReadU16()
	if err != nil {
		return nil, headerErr("table_dump peer asn", err)
	}
	attrLen, err := cur.ReadU16()
	if err != nil {
		return nil, headerErr("table_dump attr length", err)
	}
	attrBytes, err := cur.ReadN(int(attrLen))
	if err != nil {
		return nil, headerErr("table_dump attrs", err)
	}

	decodeOpts := &bgp.DecodeOptions{Logger: opts.logger(), FourOctetASN: false}
	attrs, err := bgp.DecodeAttributes(attrBytes, decodeOpts)
	if err != nil {
		return nil, err
	}

	return TableDumpRecord{
		ViewNumber:     viewNum,
		SequenceNumber: seqNum,
		Prefix:         prefix,
		Status:         status,
		OriginatedTime: originatedTime,
		PeerAddr:       peerAddr,
		PeerASN:        bgp.NewASN2(peerASN),
		Attributes:     attrs,
	}, nil
}
