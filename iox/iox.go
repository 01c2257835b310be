// Package iox wraps compressed archive streams so mrt.NewReader can be
// pointed straight at a RouteViews .bz2 dump or a RIPE RIS .gz/.zst archive
// without the caller picking a decompressor by hand.
//
// Grounded on the teacher's internal/history/writer.go, which reaches for
// github.com/klauspost/compress/zstd to compress raw BMP payloads before a
// DB write; this package applies the same library to the read side, plus
// the two other archive formats RouteViews/RIPE RIS actually publish.
package iox

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte{'B', 'Z', 'h'}
	zstdMagic  = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Open sniffs r's leading bytes for a gzip, bzip2, or zstd magic number and
// wraps r with the matching decompressing reader. A reader whose leading
// bytes match none of the three is returned unwrapped (buffered), under the
// assumption its contents are already an uncompressed MRT byte stream.
//
// The returned ReadCloser's Close releases the decompressor's resources; it
// does not close r itself, since r's lifetime belongs to the caller.
func Open(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReaderSize(r, 4096)
	peek, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("iox: peek leading bytes: %w", err)
	}

	switch {
	case hasPrefix(peek, gzipMagic):
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("iox: gzip: %w", err)
		}
		return gr, nil
	case hasPrefix(peek, bzip2Magic):
		return io.NopCloser(bzip2.NewReader(br)), nil
	case hasPrefix(peek, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("iox: zstd: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return io.NopCloser(br), nil
	}
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		if b[i] != p {
			return false
		}
	}
	return true
}

// NewZstdWriter wraps w with a streaming zstd encoder, the write-side
// counterpart to Open's zstd branch — suited to mrt.RibWriter and
// mrt.UpdatesWriter's incremental output, unlike the teacher's one-shot
// zstdEncoder.EncodeAll over an already-assembled byte slice.
func NewZstdWriter(w io.Writer) (io.WriteCloser, error) {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("iox: zstd writer: %w", err)
	}
	return enc, nil
}
