// Package cursor implements bounds-checked, big-endian reading over an
// immutable byte slice, shared by the bgp, mrt, and bmp decoders.
package cursor

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

// ErrTruncated is returned whenever a read would run past the end of the
// cursor's view. Callers compare with errors.Is.
var ErrTruncated = fmt.Errorf("cursor: truncated")

// Cursor reads sequentially from an in-memory byte slice. It never panics:
// every read method returns an error instead of indexing out of bounds.
type Cursor struct {
	data []byte
	off  int
}

// New wraps data in a Cursor starting at offset 0.
func New(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Len returns the total length of the underlying view.
func (c *Cursor) Len() int { return len(c.data) }

// Offset returns the current read position.
func (c *Cursor) Offset() int { return c.off }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.data) - c.off }

// Bytes returns the full underlying slice, ignoring the current offset.
func (c *Cursor) Bytes() []byte { return c.data }

func (c *Cursor) need(n int) error {
	if n < 0 || c.Remaining() < n {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, n, c.Remaining())
	}
	return nil
}

// ReadU8 reads one byte.
func (c *Cursor) ReadU8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.data[c.off]
	c.off++
	return v, nil
}

// ReadU16 reads a big-endian uint16.
func (c *Cursor) ReadU16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(c.data[c.off:])
	c.off += 2
	return v, nil
}

// ReadU32 reads a big-endian uint32.
func (c *Cursor) ReadU32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.data[c.off:])
	c.off += 4
	return v, nil
}

// ReadU64 reads a big-endian uint64.
func (c *Cursor) ReadU64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(c.data[c.off:])
	c.off += 8
	return v, nil
}

// ReadN reads and returns a copy of the next n bytes.
func (c *Cursor) ReadN(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, c.data[c.off:c.off+n])
	c.off += n
	return out, nil
}

// PeekN returns the next n bytes without advancing the offset.
func (c *Cursor) PeekN(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	return c.data[c.off : c.off+n], nil
}

// Skip advances the offset by n bytes without copying.
func (c *Cursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.off += n
	return nil
}

// ReadIPv4 reads a 4-byte IPv4 address.
func (c *Cursor) ReadIPv4() (netip.Addr, error) {
	b, err := c.ReadN(4)
	if err != nil {
		return netip.Addr{}, err
	}
	return netip.AddrFrom4([4]byte(b)), nil
}

// ReadIPv6 reads a 16-byte IPv6 address.
func (c *Cursor) ReadIPv6() (netip.Addr, error) {
	b, err := c.ReadN(16)
	if err != nil {
		return netip.Addr{}, err
	}
	return netip.AddrFrom16([16]byte(b)), nil
}

// ReadASN reads a 2- or 4-byte ASN depending on wide.
func (c *Cursor) ReadASN(wide bool) (uint32, error) {
	if wide {
		return c.ReadU32()
	}
	v, err := c.ReadU16()
	return uint32(v), err
}

// ReadPrefix reads a bit-packed prefix: one length byte followed by
// ceil(length/8) value bytes, right-padded to maxBytes with zero. maxBytes
// is 4 for IPv4, 16 for IPv6.
func (c *Cursor) ReadPrefix(maxBytes int) (netip.Addr, int, error) {
	bitLen, err := c.ReadU8()
	if err != nil {
		return netip.Addr{}, 0, err
	}
	maxBits := maxBytes * 8
	if int(bitLen) > maxBits {
		return netip.Addr{}, 0, fmt.Errorf("cursor: prefix length %d exceeds max %d", bitLen, maxBits)
	}
	byteLen := (int(bitLen) + 7) / 8
	raw, err := c.ReadN(byteLen)
	if err != nil {
		return netip.Addr{}, 0, err
	}
	buf := make([]byte, maxBytes)
	copy(buf, raw)
	var addr netip.Addr
	if maxBytes == 4 {
		addr = netip.AddrFrom4([4]byte(buf))
	} else {
		addr = netip.AddrFrom16([16]byte(buf))
	}
	return addr, int(bitLen), nil
}

// Sub creates a child cursor over exactly n bytes starting at the current
// offset, and advances the parent past that subrange regardless of how much
// of it the child actually consumes (or whether Sub itself is later found to
// contain an error) — this lets outer iteration recover from a malformed
// nested field without losing its place in the parent stream.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	child := New(c.data[c.off : c.off+n])
	c.off += n
	return child, nil
}
