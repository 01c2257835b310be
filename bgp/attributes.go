package bgp

import (
	"fmt"
	"net/netip"

	"go.uber.org/zap"

	"github.com/route-beacon/mrtkit/internal/cursor"
)

// AttrType is a BGP path attribute type code (RFC 4271 §5, plus extensions).
type AttrType uint8

const (
	AttrOrigin           AttrType = 1
	AttrASPath           AttrType = 2
	AttrNextHop          AttrType = 3
	AttrMultiExitDisc    AttrType = 4
	AttrLocalPref        AttrType = 5
	AttrAtomicAggregate  AttrType = 6
	AttrAggregator       AttrType = 7
	AttrCommunity        AttrType = 8
	AttrOriginatorID     AttrType = 9
	AttrClusterList      AttrType = 10
	AttrMPReachNLRI      AttrType = 14
	AttrMPUnreachNLRI    AttrType = 15
	AttrExtCommunity     AttrType = 16
	AttrAS4Path          AttrType = 17
	AttrAS4Aggregator    AttrType = 18
	AttrPMSITunnel       AttrType = 22
	AttrTunnelEncap      AttrType = 23
	AttrIpv6ExtCommunity AttrType = 25
	AttrBGPLS            AttrType = 29
	AttrLargeCommunity   AttrType = 32
	AttrOnlyToCustomer   AttrType = 35
	AttrAttrSet          AttrType = 128
)

// deprecated attribute type codes (RFC 6793 Appendix / assorted RFCs). These
// decode as opaque Unknown values but are flagged via DeprecatedAttribute
// diagnostics rather than treated as errors.
var deprecatedAttrTypes = map[AttrType]bool{
	11: true, // DPA
	12: true, // ADVERTISER
	13: true, // RCID_PATH / CLUSTER_ID
	19: true, // SAFI Specific Attribute (deprecated draft)
	20: true, // Connector Attribute (deprecated)
	21: true, // AS_PATHLIMIT (deprecated)
}

// AttrFlags carries the flag octet preceding an attribute's type code.
type AttrFlags uint8

const (
	FlagOptional       AttrFlags = 0x80
	FlagTransitive     AttrFlags = 0x40
	FlagPartial        AttrFlags = 0x20
	FlagExtendedLength AttrFlags = 0x10
)

func (f AttrFlags) Optional() bool       { return f&FlagOptional != 0 }
func (f AttrFlags) Transitive() bool     { return f&FlagTransitive != 0 }
func (f AttrFlags) Partial() bool        { return f&FlagPartial != 0 }
func (f AttrFlags) ExtendedLength() bool { return f&FlagExtendedLength != 0 }

// AttrValue is implemented by every decoded attribute payload type.
type AttrValue interface{ isAttrValue() }

type OriginValue uint8

const (
	OriginIGP        OriginValue = 0
	OriginEGP        OriginValue = 1
	OriginIncomplete OriginValue = 2
)

func (OriginValue) isAttrValue() {}

func (o OriginValue) String() string {
	switch o {
	case OriginIGP:
		return "IGP"
	case OriginEGP:
		return "EGP"
	case OriginIncomplete:
		return "INCOMPLETE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(o))
	}
}

type AsPathValue struct{ AsPath }

func (AsPathValue) isAttrValue() {}

type NextHopValue struct{ Addr netip.Addr }

func (NextHopValue) isAttrValue() {}

type MultiExitDiscValue uint32

func (MultiExitDiscValue) isAttrValue() {}

type LocalPrefValue uint32

func (LocalPrefValue) isAttrValue() {}

type AtomicAggregateValue struct{}

func (AtomicAggregateValue) isAttrValue() {}

type AggregatorValue struct {
	ASN  ASN
	Addr netip.Addr
}

func (AggregatorValue) isAttrValue() {}

type CommunityValue []Community

func (CommunityValue) isAttrValue() {}

type OriginatorIDValue struct{ ID netip.Addr }

func (OriginatorIDValue) isAttrValue() {}

type ClusterListValue []netip.Addr

func (ClusterListValue) isAttrValue() {}

// NextHopAddress carries the MP_REACH_NLRI next hop, including the RFC 2545
// IPv6 link-local address some peers append alongside the global address.
type NextHopAddress struct {
	Global    netip.Addr
	LinkLocal netip.Addr // zero value when absent
}

type MPReachValue struct {
	AFI       uint16
	SAFI      uint8
	NextHop   NextHopAddress
	Announced []NetworkPrefix
}

func (MPReachValue) isAttrValue() {}

type MPUnreachValue struct {
	AFI       uint16
	SAFI      uint8
	Withdrawn []NetworkPrefix
}

func (MPUnreachValue) isAttrValue() {}

type ExtCommunityValue []ExtCommunity

func (ExtCommunityValue) isAttrValue() {}

type Ipv6ExtCommunityValue []Ipv6ExtCommunity

func (Ipv6ExtCommunityValue) isAttrValue() {}

type AS4PathValue struct{ AsPath }

func (AS4PathValue) isAttrValue() {}

type AS4AggregatorValue struct {
	ASN  uint32
	Addr netip.Addr
}

func (AS4AggregatorValue) isAttrValue() {}

type LargeCommunityValue []LargeCommunity

func (LargeCommunityValue) isAttrValue() {}

type OnlyToCustomerValue uint32

func (OnlyToCustomerValue) isAttrValue() {}

// UnknownValue holds an attribute this decoder does not interpret: PMSI
// Tunnel, BGP Tunnel Encapsulation, BGP-LS, ATTR_SET, and any type code
// outside the known set. The raw body is preserved unmodified.
type UnknownValue struct {
	Type AttrType
	Raw  []byte
}

func (UnknownValue) isAttrValue() {}

// PathAttribute is one decoded BGP path attribute: flags, type, and value.
type PathAttribute struct {
	Flags AttrFlags
	Type  AttrType
	Value AttrValue
}

// AddPathPredicate reports whether ADD-PATH applies to the given AFI/SAFI, per a
// negotiated capability set. Options carries this as a plain lookup func so
// callers don't need to build a capability-negotiation state machine just to
// decode a message.
type AddPathPredicate func(afi uint16, safi uint8) bool

// DecodeOptions configures attribute and message decoding.
type DecodeOptions struct {
	Logger *zap.Logger
	// AddPath reports whether the ADD-PATH path_id field is present for a
	// given (AFI, SAFI). Nil means ADD-PATH is never present.
	AddPath AddPathPredicate
	// FourOctetASN indicates AS_PATH/AGGREGATOR carry 4-byte ASNs (RFC 6793).
	// A nil *DecodeOptions decodes 4-byte ASNs; a non-nil DecodeOptions
	// decodes 2-byte ASNs unless this field is set.
	FourOctetASN bool
	// ExtendedMessage reports whether both peers negotiated the RFC 8654
	// Extended Message capability for this session. It raises the
	// UPDATE/NOTIFICATION length ceiling to 65535 bytes; absent, the
	// standard 4096-byte ceiling applies regardless of whether Options
	// itself is nil.
	ExtendedMessage bool
}

func (o *DecodeOptions) logger() *zap.Logger {
	if o == nil || o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o *DecodeOptions) addPath(afi uint16, safi uint8) bool {
	if o == nil || o.AddPath == nil {
		return false
	}
	return o.AddPath(afi, safi)
}

func (o *DecodeOptions) asnWidth() bool {
	if o == nil {
		return true
	}
	return o.FourOctetASN
}

func (o *DecodeOptions) extendedMessage() bool {
	return o != nil && o.ExtendedMessage
}

// DecodeAttributes parses the path attribute section of a BGP UPDATE
// message. A malformed or duplicate attribute invalidates only that
// attribute: it is logged and skipped, and the remainder of the buffer
// continues to decode. Only a framing error (an attribute header or body
// that runs past the end of the buffer) aborts the whole loop, since at
// that point there is no declared length to resync on.
func DecodeAttributes(data []byte, opts *DecodeOptions) ([]PathAttribute, error) {
	cur := cursor.New(data)
	var seen [256]bool
	var attrs []PathAttribute

	for cur.Remaining() > 0 {
		flagsByte, err := cur.ReadU8()
		if err != nil {
			return attrs, wrapAttrErr("attr flags", err)
		}
		typeByte, err := cur.ReadU8()
		if err != nil {
			return attrs, wrapAttrErr("attr type", err)
		}
		flags := AttrFlags(flagsByte)
		typ := AttrType(typeByte)

		var length int
		if flags.ExtendedLength() {
			v, err := cur.ReadU16()
			if err != nil {
				return attrs, wrapAttrErr("extended attr length", err)
			}
			length = int(v)
		} else {
			v, err := cur.ReadU8()
			if err != nil {
				return attrs, wrapAttrErr("attr length", err)
			}
			length = int(v)
		}

		body, err := cur.ReadN(length)
		if err != nil {
			return attrs, newErrCode(MalformedAttribute, "attr body", int(typ), err)
		}

		if seen[typeByte] {
			opts.logger().Warn("duplicate path attribute discarded",
				zap.Uint8("type", typeByte))
			continue
		}
		seen[typeByte] = true

		value, err := decodeAttrValue(typ, body, opts)
		if err != nil {
			opts.logger().Warn("malformed path attribute discarded",
				zap.Uint8("type", typeByte), zap.Error(err))
			continue
		}
		attrs = append(attrs, PathAttribute{Flags: flags, Type: typ, Value: value})
	}
	return attrs, nil
}

func wrapAttrErr(context string, cause error) error {
	return newErr(TruncatedMessage, fmt.Sprintf("bgp: parse attrs: %s", context), cause)
}

func decodeAttrValue(typ AttrType, body []byte, opts *DecodeOptions) (AttrValue, error) {
	switch typ {
	case AttrOrigin:
		return decodeOrigin(body)
	case AttrASPath:
		return decodeASPath(body, opts.asnWidth())
	case AttrNextHop:
		return decodeNextHop(body)
	case AttrMultiExitDisc:
		return decodeMED(body)
	case AttrLocalPref:
		return decodeLocalPref(body)
	case AttrAtomicAggregate:
		return AtomicAggregateValue{}, nil
	case AttrAggregator:
		return decodeAggregator(body, opts.asnWidth())
	case AttrCommunity:
		return decodeCommunity(body)
	case AttrOriginatorID:
		return decodeOriginatorID(body)
	case AttrClusterList:
		return decodeClusterList(body)
	case AttrMPReachNLRI:
		return decodeMPReach(body, opts)
	case AttrMPUnreachNLRI:
		return decodeMPUnreach(body, opts)
	case AttrExtCommunity:
		return decodeExtCommunities(body)
	case AttrAS4Path:
		return decodeAS4Path(body)
	case AttrAS4Aggregator:
		return decodeAS4Aggregator(body)
	case AttrIpv6ExtCommunity:
		return decodeIpv6ExtCommunities(body)
	case AttrLargeCommunity:
		return decodeLargeCommunities(body)
	case AttrOnlyToCustomer:
		return decodeOTC(body)
	default:
		if deprecatedAttrTypes[typ] {
			opts.logger().Warn("deprecated path attribute", zap.Uint8("type", uint8(typ)))
		}
		raw := make([]byte, len(body))
		copy(raw, body)
		return UnknownValue{Type: typ, Raw: raw}, nil
	}
}

func decodeOrigin(body []byte) (AttrValue, error) {
	if len(body) != 1 {
		return nil, newErrCode(MalformedAttribute, "ORIGIN length", int(AttrOrigin), nil)
	}
	return OriginValue(body[0]), nil
}

func decodeASPath(body []byte, wide bool) (AttrValue, error) {
	cur := cursor.New(body)
	var segs []AsPathSegment
	for cur.Remaining() > 0 {
		segType, err := cur.ReadU8()
		if err != nil {
			return nil, newErrCode(MalformedAttribute, "AS_PATH segment type", int(AttrASPath), err)
		}
		segLen, err := cur.ReadU8()
		if err != nil {
			return nil, newErrCode(MalformedAttribute, "AS_PATH segment length", int(AttrASPath), err)
		}
		asns := make([]ASN, 0, segLen)
		for i := 0; i < int(segLen); i++ {
			v, err := cur.ReadASN(wide)
			if err != nil {
				return nil, newErrCode(MalformedAttribute, "AS_PATH segment ASN", int(AttrASPath), err)
			}
			asns = append(asns, ASN{Value: v, Wide: wide})
		}
		segs = append(segs, AsPathSegment{Type: AsPathSegmentType(segType), ASNs: asns})
	}
	return AsPathValue{AsPath{Segments: segs}}, nil
}

func decodeNextHop(body []byte) (AttrValue, error) {
	addr, ok := netip.AddrFromSlice(body)
	if !ok || (len(body) != 4 && len(body) != 16) {
		return nil, newErrCode(MalformedAttribute, "NEXT_HOP length", int(AttrNextHop), nil)
	}
	return NextHopValue{Addr: addr}, nil
}

func decodeMED(body []byte) (AttrValue, error) {
	cur := cursor.New(body)
	v, err := cur.ReadU32()
	if err != nil || cur.Remaining() != 0 {
		return nil, newErrCode(MalformedAttribute, "MULTI_EXIT_DISC length", int(AttrMultiExitDisc), err)
	}
	return MultiExitDiscValue(v), nil
}

func decodeLocalPref(body []byte) (AttrValue, error) {
	cur := cursor.New(body)
	v, err := cur.ReadU32()
	if err != nil || cur.Remaining() != 0 {
		return nil, newErrCode(MalformedAttribute, "LOCAL_PREF length", int(AttrLocalPref), err)
	}
	return LocalPrefValue(v), nil
}

func decodeAggregator(body []byte, wide bool) (AttrValue, error) {
	cur := cursor.New(body)
	asn, err := cur.ReadASN(wide)
	if err != nil {
		return nil, newErrCode(MalformedAttribute, "AGGREGATOR asn", int(AttrAggregator), err)
	}
	addr, err := cur.ReadIPv4()
	if err != nil {
		return nil, newErrCode(MalformedAttribute, "AGGREGATOR addr", int(AttrAggregator), err)
	}
	return AggregatorValue{ASN: ASN{Value: asn, Wide: wide}, Addr: addr}, nil
}

func decodeCommunity(body []byte) (AttrValue, error) {
	if len(body)%4 != 0 {
		return nil, newErrCode(MalformedAttribute, "COMMUNITY length", int(AttrCommunity), nil)
	}
	cur := cursor.New(body)
	var out CommunityValue
	for cur.Remaining() > 0 {
		asn, _ := cur.ReadU16()
		val, _ := cur.ReadU16()
		out = append(out, Community{ASN: asn, Value: val})
	}
	return out, nil
}

func decodeOriginatorID(body []byte) (AttrValue, error) {
	addr, err := cursor.New(body).ReadIPv4()
	if err != nil {
		return nil, newErrCode(MalformedAttribute, "ORIGINATOR_ID length", int(AttrOriginatorID), err)
	}
	return OriginatorIDValue{ID: addr}, nil
}

func decodeClusterList(body []byte) (AttrValue, error) {
	if len(body)%4 != 0 {
		return nil, newErrCode(MalformedAttribute, "CLUSTER_LIST length", int(AttrClusterList), nil)
	}
	cur := cursor.New(body)
	var out ClusterListValue
	for cur.Remaining() > 0 {
		addr, _ := cur.ReadIPv4()
		out = append(out, addr)
	}
	return out, nil
}

func decodeExtCommunities(body []byte) (AttrValue, error) {
	if len(body)%8 != 0 {
		return nil, newErrCode(MalformedAttribute, "EXTENDED_COMMUNITIES length", int(AttrExtCommunity), nil)
	}
	var out ExtCommunityValue
	for i := 0; i+8 <= len(body); i += 8 {
		out = append(out, decodeOneExtCommunity(body[i:i+8]))
	}
	return out, nil
}

func decodeOneExtCommunity(b []byte) ExtCommunity {
	typeHigh := b[0]
	subType := b[1]
	base := typeHigh & 0x3F
	ec := ExtCommunity{Type: typeHigh, SubType: subType}
	copy(ec.Raw[:], b[2:8])
	switch base {
	case 0x00:
		ec.Kind = ExtCommunityAS2
		ec.ASN = uint32(uint16(b[2])<<8 | uint16(b[3]))
		ec.Local = uint32(b[4])<<24 | uint32(b[5])<<16 | uint32(b[6])<<8 | uint32(b[7])
	case 0x01:
		ec.Kind = ExtCommunityIPv4
		copy(ec.IPv4[:], b[2:6])
		ec.Local = uint32(b[6])<<8 | uint32(b[7])
	case 0x02:
		ec.Kind = ExtCommunityAS4
		ec.ASN = uint32(b[2])<<24 | uint32(b[3])<<16 | uint32(b[4])<<8 | uint32(b[5])
		ec.Local = uint32(b[6])<<8 | uint32(b[7])
	default:
		ec.Kind = ExtCommunityOpaque
	}
	return ec
}

func decodeIpv6ExtCommunities(body []byte) (AttrValue, error) {
	if len(body)%20 != 0 {
		return nil, newErrCode(MalformedAttribute, "IPV6_EXTENDED_COMMUNITIES length", int(AttrIpv6ExtCommunity), nil)
	}
	var out Ipv6ExtCommunityValue
	for i := 0; i+20 <= len(body); i += 20 {
		var c Ipv6ExtCommunity
		c.Type = body[i]
		c.SubType = body[i+1]
		copy(c.Addr[:], body[i+2:i+18])
		c.Local = uint16(body[i+18])<<8 | uint16(body[i+19])
		out = append(out, c)
	}
	return out, nil
}

func decodeLargeCommunities(body []byte) (AttrValue, error) {
	if len(body)%12 != 0 {
		return nil, newErrCode(MalformedAttribute, "LARGE_COMMUNITY length", int(AttrLargeCommunity), nil)
	}
	cur := cursor.New(body)
	var out LargeCommunityValue
	for cur.Remaining() > 0 {
		g, _ := cur.ReadU32()
		l1, _ := cur.ReadU32()
		l2, _ := cur.ReadU32()
		out = append(out, LargeCommunity{GlobalAdmin: g, LocalData1: l1, LocalData2: l2})
	}
	return out, nil
}

func decodeAS4Path(body []byte) (AttrValue, error) {
	v, err := decodeASPath(body, true)
	if err != nil {
		return nil, err
	}
	return AS4PathValue{v.(AsPathValue).AsPath}, nil
}

func decodeAS4Aggregator(body []byte) (AttrValue, error) {
	cur := cursor.New(body)
	asn, err := cur.ReadU32()
	if err != nil {
		return nil, newErrCode(MalformedAttribute, "AS4_AGGREGATOR asn", int(AttrAS4Aggregator), err)
	}
	addr, err := cur.ReadIPv4()
	if err != nil {
		return nil, newErrCode(MalformedAttribute, "AS4_AGGREGATOR addr", int(AttrAS4Aggregator), err)
	}
	return AS4AggregatorValue{ASN: asn, Addr: addr}, nil
}

func decodeOTC(body []byte) (AttrValue, error) {
	cur := cursor.New(body)
	v, err := cur.ReadU32()
	if err != nil || cur.Remaining() != 0 {
		return nil, newErrCode(MalformedAttribute, "ONLY_TO_CUSTOMER length", int(AttrOnlyToCustomer), err)
	}
	return OnlyToCustomerValue(v), nil
}

// decodeMPReach parses MP_REACH_NLRI (RFC 4760), including the RFC 2545
// IPv6 link-local next hop and RFC 8950 VPN-labeled next hops (the label
// stack is not decoded here, only the address family length dispatch).
func decodeMPReach(body []byte, opts *DecodeOptions) (AttrValue, error) {
	cur := cursor.New(body)
	afi, err := cur.ReadU16()
	if err != nil {
		return nil, newErrCode(MalformedAttribute, "MP_REACH_NLRI afi", int(AttrMPReachNLRI), err)
	}
	safi, err := cur.ReadU8()
	if err != nil {
		return nil, newErrCode(MalformedAttribute, "MP_REACH_NLRI safi", int(AttrMPReachNLRI), err)
	}
	nhLen, err := cur.ReadU8()
	if err != nil {
		return nil, newErrCode(MalformedAttribute, "MP_REACH_NLRI nhlen", int(AttrMPReachNLRI), err)
	}
	nhBytes, err := cur.ReadN(int(nhLen))
	if err != nil {
		return nil, newErrCode(MalformedAttribute, "MP_REACH_NLRI nexthop", int(AttrMPReachNLRI), err)
	}
	nh, err := decodeMPNextHop(nhBytes)
	if err != nil {
		return nil, newErrCode(MalformedAttribute, "MP_REACH_NLRI nexthop", int(AttrMPReachNLRI), err)
	}

	snpaCount, err := cur.ReadU8()
	if err != nil {
		return nil, newErrCode(MalformedAttribute, "MP_REACH_NLRI snpa count", int(AttrMPReachNLRI), err)
	}
	for i := 0; i < int(snpaCount); i++ {
		l, err := cur.ReadU8()
		if err != nil {
			return nil, newErrCode(MalformedAttribute, "MP_REACH_NLRI snpa", int(AttrMPReachNLRI), err)
		}
		if err := cur.Skip((int(l) + 1) / 2); err != nil {
			return nil, newErrCode(MalformedAttribute, "MP_REACH_NLRI snpa", int(AttrMPReachNLRI), err)
		}
	}

	nlri, err := decodeNLRI(cur, afi, opts.addPath(afi, safi))
	if err != nil {
		return nil, err
	}
	return MPReachValue{AFI: afi, SAFI: safi, NextHop: nh, Announced: nlri}, nil
}

func decodeMPNextHop(b []byte) (NextHopAddress, error) {
	switch len(b) {
	case 4, 16:
		addr, ok := netip.AddrFromSlice(b)
		if !ok {
			return NextHopAddress{}, fmt.Errorf("bad next hop bytes")
		}
		return NextHopAddress{Global: addr}, nil
	case 32:
		global, ok1 := netip.AddrFromSlice(b[:16])
		local, ok2 := netip.AddrFromSlice(b[16:])
		if !ok1 || !ok2 {
			return NextHopAddress{}, fmt.Errorf("bad dual next hop bytes")
		}
		return NextHopAddress{Global: global, LinkLocal: local}, nil
	case 12, 24:
		// RFC 8950 VPN next hop: 8-byte RD prefix then 4 or 16 address bytes.
		addr, ok := netip.AddrFromSlice(b[8:])
		if !ok {
			return NextHopAddress{}, fmt.Errorf("bad vpn next hop bytes")
		}
		return NextHopAddress{Global: addr}, nil
	default:
		return NextHopAddress{}, fmt.Errorf("unsupported next hop length %d", len(b))
	}
}

func decodeMPUnreach(body []byte, opts *DecodeOptions) (AttrValue, error) {
	cur := cursor.New(body)
	afi, err := cur.ReadU16()
	if err != nil {
		return nil, newErrCode(MalformedAttribute, "MP_UNREACH_NLRI afi", int(AttrMPUnreachNLRI), err)
	}
	safi, err := cur.ReadU8()
	if err != nil {
		return nil, newErrCode(MalformedAttribute, "MP_UNREACH_NLRI safi", int(AttrMPUnreachNLRI), err)
	}
	nlri, err := decodeNLRI(cur, afi, opts.addPath(afi, safi))
	if err != nil {
		return nil, err
	}
	return MPUnreachValue{AFI: afi, SAFI: safi, Withdrawn: nlri}, nil
}

// decodeNLRI reads a run of length-prefixed prefixes (optionally preceded by
// a 4-byte ADD-PATH path_id each) until the cursor is exhausted.
func decodeNLRI(cur *cursor.Cursor, afi uint16, addPath bool) ([]NetworkPrefix, error) {
	maxBytes := 4
	if afi == 2 {
		maxBytes = 16
	}
	var out []NetworkPrefix
	for cur.Remaining() > 0 {
		var pathID *uint32
		if addPath {
			v, err := cur.ReadU32()
			if err != nil {
				return nil, newErr(InvalidPrefix, "add-path id", err)
			}
			pathID = &v
		}
		addr, bits, err := cur.ReadPrefix(maxBytes)
		if err != nil {
			return nil, newErr(InvalidPrefix, "nlri", err)
		}
		p, err := NewPrefix(addr, bits)
		if err != nil {
			return nil, err
		}
		p.PathID = pathID
		out = append(out, p)
	}
	return out, nil
}
