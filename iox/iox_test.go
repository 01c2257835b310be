package iox

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"
)

func TestOpenPlainStreamPassesThrough(t *testing.T) {
	payload := []byte("not compressed at all")
	rc, err := Open(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("expected passthrough of %q, got %q", payload, got)
	}
}

func TestOpenGzipStream(t *testing.T) {
	payload := []byte("mrt archive bytes")
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(payload); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	rc, err := Open(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("expected %q, got %q", payload, got)
	}
}

func TestOpenZstdStreamRoundTripsWithNewZstdWriter(t *testing.T) {
	payload := []byte("mrt archive bytes, zstd-compressed this time")

	var buf bytes.Buffer
	enc, err := NewZstdWriter(&buf)
	if err != nil {
		t.Fatalf("unexpected error building writer: %v", err)
	}
	if _, err := enc.Write(payload); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	rc, err := Open(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("expected %q, got %q", payload, got)
	}
}

func TestOpenBzip2Stream(t *testing.T) {
	// bzip2 has no writer in the standard library, so this test exercises
	// Open's magic-number sniff rather than a full round trip: Open accepts
	// a bzip2 stream header followed only by the start of a block.
	header := []byte{'B', 'Z', 'h', '9', 0x31, 0x41, 0x59, 0x26, 0x53, 0x59}
	rc, err := Open(bytes.NewReader(header))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()

	// A truncated bzip2 block errors on read; Open's job is classification,
	// not validating that the stream is well-formed.
	_, _ = io.ReadAll(rc)
}
