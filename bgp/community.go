package bgp

import "fmt"

// Community is a standard (RFC 1997) community: 2-byte ASN + 2-byte value,
// conventionally rendered "asn:value".
type Community struct {
	ASN   uint16
	Value uint16
}

func (c Community) String() string { return fmt.Sprintf("%d:%d", c.ASN, c.Value) }

// ExtCommunityType distinguishes the decoded shape of an 8-byte extended
// community's non-type-byte payload.
type ExtCommunityType int

const (
	ExtCommunityAS2      ExtCommunityType = iota // 2-byte global admin (ASN) + 4-byte local admin
	ExtCommunityIPv4                             // 4-byte IPv4 global admin + 2-byte local admin
	ExtCommunityAS4                              // 4-byte global admin (ASN) + 2-byte local admin
	ExtCommunityOpaque                           // 6 bytes, meaning not decoded
)

// ExtCommunity is one RFC 4360 extended community: the raw type/subtype
// octets plus a best-effort structured decode of the remaining 6 bytes.
// Grounded on the teacher's decodeExtCommunity, which decodes route-target
// and site-of-origin for the three well-known global-admin encodings and
// otherwise keeps the community opaque.
type ExtCommunity struct {
	Type    byte // high-order type octet exactly as read, authority and transitive bits included
	SubType byte
	Kind    ExtCommunityType
	ASN     uint32 // valid when Kind is ExtCommunityAS2 or ExtCommunityAS4
	IPv4    [4]byte
	Local   uint32 // local admin field, width depends on Kind
	Raw     [6]byte
}

func (e ExtCommunity) String() string {
	switch e.Kind {
	case ExtCommunityAS2, ExtCommunityAS4:
		return fmt.Sprintf("%d:%d", e.ASN, e.Local)
	case ExtCommunityIPv4:
		return fmt.Sprintf("%d.%d.%d.%d:%d", e.IPv4[0], e.IPv4[1], e.IPv4[2], e.IPv4[3], e.Local)
	default:
		return fmt.Sprintf("%02x%02x%x", e.Type, e.SubType, e.Raw)
	}
}

// Ipv6ExtCommunity is an RFC 5701 IPv6-address-specific extended community:
// type/subtype octets, a 16-byte IPv6 global admin, and a 2-byte local admin.
type Ipv6ExtCommunity struct {
	Type    byte
	SubType byte
	Addr    [16]byte
	Local   uint16
}

// LargeCommunity is an RFC 8092 large community: three 4-byte fields.
type LargeCommunity struct {
	GlobalAdmin uint32
	LocalData1  uint32
	LocalData2  uint32
}

func (l LargeCommunity) String() string {
	return fmt.Sprintf("%d:%d:%d", l.GlobalAdmin, l.LocalData1, l.LocalData2)
}
