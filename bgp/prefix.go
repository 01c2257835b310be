package bgp

import (
	"fmt"
	"net/netip"
)

// NetworkPrefix is an IP prefix with an optional ADD-PATH path identifier.
// PathID is nil unless ADD-PATH applies to the enclosing (AFI, SAFI) or MRT
// subtype; per spec it is never encoded as 0 meaning "absent" — a path_id
// of 0 is a legitimate Some(0), stored as a non-nil pointer to zero.
type NetworkPrefix struct {
	Addr   netip.Addr // canonical: host bits beyond Length are zero
	Length int
	PathID *uint32
}

// NewPrefix canonicalizes addr/length (masking host bits) and builds a
// NetworkPrefix without a path_id. Host bits on the input addr need not be
// zero — canonicalization happens here, matching the invariant that
// non-zero host bits on the wire must still be accepted.
func NewPrefix(addr netip.Addr, length int) (NetworkPrefix, error) {
	p, err := addr.Prefix(length)
	if err != nil {
		return NetworkPrefix{}, newErr(InvalidPrefix, fmt.Sprintf("%s/%d", addr, length), err)
	}
	return NetworkPrefix{Addr: p.Addr(), Length: p.Bits()}, nil
}

// WithPathID returns a copy of p carrying the given ADD-PATH identifier.
func (p NetworkPrefix) WithPathID(id uint32) NetworkPrefix {
	v := id
	p.PathID = &v
	return p
}

func (p NetworkPrefix) String() string {
	return fmt.Sprintf("%s/%d", p.Addr, p.Length)
}

// Equal compares prefix and length only; path_id is not part of route
// identity for most purposes, so callers that care about ADD-PATH distinct
// routes should compare PathID explicitly.
func (p NetworkPrefix) Equal(o NetworkPrefix) bool {
	return p.Addr == o.Addr && p.Length == o.Length
}

// IsIPv4 reports whether the prefix address is an IPv4 address.
func (p NetworkPrefix) IsIPv4() bool { return p.Addr.Is4() }

// Contains reports whether p is a super-prefix of (or equal to) o.
func (p NetworkPrefix) Contains(o NetworkPrefix) bool {
	if p.Addr.Is4() != o.Addr.Is4() || o.Length < p.Length {
		return false
	}
	pp := netip.PrefixFrom(p.Addr, p.Length)
	return pp.Contains(o.Addr) || p.Equal(o)
}
