package mrt

import (
	"fmt"

	"github.com/route-beacon/mrtkit/bgp"
	"github.com/route-beacon/mrtkit/internal/cursor"
)

// Record is implemented by every decoded MRT record payload type:
// TableDumpRecord, PeerIndexTable, RibAfiEntries, GeoPeerTable,
// Bgp4MpStateChange, and Bgp4MpMessage, plus RawRecord for undecoded
// payloads.
type Record interface{ isRecord() }

// RawRecord is an undecoded record: the common header plus its payload
// bytes untouched. DecodeRaw returns this when a caller wants passthrough
// access (recompression, filtering by header fields only, re-framing)
// without paying for attribute decoding.
type RawRecord struct {
	Header  CommonHeader
	Payload []byte
}

func (RawRecord) isRecord() {}

func headerErr(context string, cause error) error {
	return &bgp.ParseError{Kind: bgp.TruncatedMessage, Context: fmt.Sprintf("mrt: %s", context), Cause: cause}
}

// decodeBody dispatches a single record's payload by (type, subtype). The
// peerTable argument threads the most recently seen PEER_INDEX_TABLE through
// a TABLE_DUMP_V2 stream, since RIB entry records reference peers by ordinal
// rather than repeating peer data.
func decodeBody(h CommonHeader, body []byte, peerTable *PeerIndexTable, opts *Options) (Record, error) {
	switch h.Type {
	case TypeTableDump:
		return decodeTableDump(body, h.Subtype, opts)
	case TypeTableDumpV2:
		return decodeTableDumpV2(body, h.Subtype, peerTable, opts)
	case TypeBGP4MP, TypeBGP4MPET:
		return decodeBgp4Mp(body, h.Subtype, opts)
	default:
		return nil, &bgp.ParseError{Kind: bgp.UnknownMrtType, Code: int(h.Type)}
	}
}

// DecodeOne decodes a single record (header + payload) from data, returning
// the record and the number of bytes consumed. peerTable is mutated in
// place when a PEER_INDEX_TABLE record is decoded so callers iterating a
// TABLE_DUMP_V2 stream can keep passing the same pointer forward.
func DecodeOne(data []byte, peerTable *PeerIndexTable, opts *Options) (Record, int, error) {
	cur := cursor.New(data)
	h, err := decodeCommonHeader(cur)
	if err != nil {
		return nil, 0, headerErr("common header", err)
	}
	body, err := cur.ReadN(int(h.Length))
	if err != nil {
		return nil, 0, headerErr("payload", err)
	}
	consumed := h.wireSize() + len(body)

	rec, err := decodeBody(h, body, peerTable, opts)
	if err != nil {
		return nil, consumed, err
	}
	if pit, ok := rec.(PeerIndexTable); ok {
		*peerTable = pit
	}
	return rec, consumed, nil
}

// DecodeRaw reads just the header and payload, without dispatching to a
// body decoder — the "raw" iteration mode for callers that want passthrough
// bytes (e.g. recompressing an archive unchanged).
func DecodeRaw(data []byte) (RawRecord, int, error) {
	cur := cursor.New(data)
	h, err := decodeCommonHeader(cur)
	if err != nil {
		return RawRecord{}, 0, headerErr("common header", err)
	}
	body, err := cur.ReadN(int(h.Length))
	if err != nil {
		return RawRecord{}, 0, headerErr("payload", err)
	}
	return RawRecord{Header: h, Payload: body}, h.wireSize() + len(body), nil
}
