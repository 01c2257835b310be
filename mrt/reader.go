package mrt

import (
	"bufio"
	"io"

	"github.com/route-beacon/mrtkit/internal/cursor"
)

// Reader streams MRT records from an io.Reader one at a time, carrying the
// PEER_INDEX_TABLE forward across calls the way a TABLE_DUMP_V2 archive
// requires.
type Reader struct {
	r          *bufio.Reader
	opts       *Options
	peerTable  PeerIndexTable
}

// NewReader wraps r. Callers feeding compressed archives should wrap r with
// this module's iox package first (or any compress/* reader) — Reader itself
// only understands the uncompressed MRT byte stream.
func NewReader(r io.Reader, opts *Options) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 64*1024), opts: opts}
}

// Next decodes the next record, returning io.EOF once the stream is
// exhausted cleanly. A truncated trailing record (fewer bytes than its
// header declares) is reported as a TruncatedMessage ParseError, not EOF.
func (rd *Reader) Next() (Record, error) {
	_, rec, err := rd.nextTimed()
	return rec, err
}

// NextTimed decodes the next record along with its common header, for
// callers that need the record's wire timestamp alongside its payload
// (elem.Elementor.FromRecord takes it as its ts argument).
func (rd *Reader) NextTimed() (CommonHeader, Record, error) {
	return rd.nextTimed()
}

func (rd *Reader) nextTimed() (CommonHeader, Record, error) {
	headerBytes := make([]byte, extTimestampHeaderSize)
	n, err := io.ReadFull(rd.r, headerBytes[:baseHeaderSize])
	if err == io.EOF && n == 0 {
		return CommonHeader{}, nil, io.EOF
	}
	if err != nil {
		return CommonHeader{}, nil, headerErr("common header", err)
	}
	headerLen := baseHeaderSize
	if EntryType(uint16(headerBytes[4])<<8 | uint16(headerBytes[5])).IsExtendedTimestamp() {
		if _, err := io.ReadFull(rd.r, headerBytes[baseHeaderSize:]); err != nil {
			return CommonHeader{}, nil, headerErr("microsecond timestamp", err)
		}
		headerLen = extTimestampHeaderSize
	}
	h, err := decodeCommonHeader(cursor.New(headerBytes[:headerLen]))
	if err != nil {
		return CommonHeader{}, nil, headerErr("common header", err)
	}

	body := make([]byte, h.Length)
	if _, err := io.ReadFull(rd.r, body); err != nil {
		return CommonHeader{}, nil, headerErr("payload", err)
	}

	rec, err := decodeBody(h, body, &rd.peerTable, rd.opts)
	if err != nil {
		return h, nil, err
	}
	if pit, ok := rec.(PeerIndexTable); ok {
		rd.peerTable = pit
	}
	return h, rec, nil
}

// Timestamp returns the record's wire timestamp as seconds since the epoch,
// with microsecond precision folded in when the record carries an extended
// timestamp (BGP4MP_ET).
func (h CommonHeader) Timestamp() float64 {
	ts := float64(h.TimestampSec)
	if h.Microseconds != nil {
		ts += float64(*h.Microseconds) / 1e6
	}
	return ts
}

// SkipErrors wraps a Reader's iteration so malformed records are logged and
// skipped instead of aborting the whole archive read — the "silent-skip"
// variant. It returns every successfully decoded record plus the count of
// records that were skipped. A header-level decode error (bad length field)
// leaves the stream desynchronized; this does not attempt byte-level resync
// and will likely fail on every subsequent read once that happens.
func SkipErrors(rd *Reader) ([]Record, int, error) {
	var out []Record
	skipped := 0
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			return out, skipped, nil
		}
		if err != nil {
			skipped++
			rd.opts.warn(err.Error())
			continue
		}
		out = append(out, rec)
	}
}

// ReadAll decodes every record, stopping and returning the error on the
// first malformed one — the "fallible" variant.
func ReadAll(rd *Reader) ([]Record, error) {
	var out []Record
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
