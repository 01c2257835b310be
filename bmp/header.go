package bmp

import (
	"net/netip"

	"github.com/route-beacon/mrtkit/bgp"
	"github.com/route-beacon/mrtkit/internal/cursor"
)

// CommonHeader is the fixed 6-byte BMP message header (RFC 7854 §4.1).
type CommonHeader struct {
	Version uint8
	Length  uint32 // total message length, including this header
	Type    uint8
}

func decodeCommonHeader(cur *cursor.Cursor) (CommonHeader, error) {
	version, err := cur.ReadU8()
	if err != nil {
		return CommonHeader{}, err
	}
	if version != BMPVersion {
		return CommonHeader{}, &bgp.ParseError{Kind: bgp.InvalidBmpVersion, Code: int(version)}
	}
	length, err := cur.ReadU32()
	if err != nil {
		return CommonHeader{}, err
	}
	typ, err := cur.ReadU8()
	if err != nil {
		return CommonHeader{}, err
	}
	return CommonHeader{Version: version, Length: length, Type: typ}, nil
}

// PerPeerHeader is the fixed 42-byte header preceding the body of Route
// Monitoring, Statistics Report, Peer Down, and Peer Up messages
// (RFC 7854 §4.2). For a Loc-RIB peer (RFC 9069), Addr and ASN are zero and
// the local router is instead identified by BGPID.
type PerPeerHeader struct {
	PeerType      uint8
	Flags         uint8
	Distinguisher uint64
	Addr          netip.Addr
	ASN           bgp.ASN
	BGPID         netip.Addr
	TimestampSec  uint32
	TimestampUsec uint32
}

func (h PerPeerHeader) IsLocRIB() bool       { return h.PeerType == PeerTypeLocRIB }
func (h PerPeerHeader) IsIPv6() bool         { return h.Flags&PeerFlagIPv6 != 0 }
func (h PerPeerHeader) IsPostPolicy() bool   { return h.Flags&PeerFlagPostPolicy != 0 }
func (h PerPeerHeader) IsAdjRIBOut() bool    { return h.Flags&PeerFlagAdjRIBOut != 0 }
func (h PerPeerHeader) IsLocRIBFiltered() bool { return h.IsLocRIB() && h.Flags&PeerFlagLocRIBFiltered != 0 }

// FourOctetASN reports whether ASN was encoded as a 4-byte field.
func (h PerPeerHeader) FourOctetASN() bool { return h.ASN.Wide }

// RouterID returns the identifier of the monitored router: the peer BGP ID
// for a Loc-RIB peer (whose Addr/ASN fields are zeroed per RFC 9069 §4.1),
// or the peer address otherwise.
func (h PerPeerHeader) RouterID() netip.Addr {
	if h.IsLocRIB() {
		return h.BGPID
	}
	return h.Addr
}

func decodePerPeerHeader(cur *cursor.Cursor) (PerPeerHeader, error) {
	peerType, err := cur.ReadU8()
	if err != nil {
		return PerPeerHeader{}, err
	}
	flags, err := cur.ReadU8()
	if err != nil {
		return PerPeerHeader{}, err
	}
	distinguisher, err := cur.ReadU64()
	if err != nil {
		return PerPeerHeader{}, err
	}
	addrBytes, err := cur.ReadN(16)
	if err != nil {
		return PerPeerHeader{}, err
	}
	addr := decodePeerAddr(addrBytes, flags&PeerFlagIPv6 != 0)
	asnRaw, err := cur.ReadU32()
	if err != nil {
		return PerPeerHeader{}, err
	}
	var asn bgp.ASN
	if flags&PeerFlagASN16Bit != 0 {
		asn = bgp.NewASN2(uint16(asnRaw))
	} else {
		asn = bgp.NewASN4(asnRaw)
	}
	bgpID, err := cur.ReadIPv4()
	if err != nil {
		return PerPeerHeader{}, err
	}
	tsSec, err := cur.ReadU32()
	if err != nil {
		return PerPeerHeader{}, err
	}
	tsUsec, err := cur.ReadU32()
	if err != nil {
		return PerPeerHeader{}, err
	}

	return PerPeerHeader{
		PeerType: peerType, Flags: flags, Distinguisher: distinguisher,
		Addr: addr, ASN: asn, BGPID: bgpID,
		TimestampSec: tsSec, TimestampUsec: tsUsec,
	}, nil
}

// decodePeerAddr decodes the 16-byte peer address field. With the V flag
// clear, the field holds IPv4 as 12 zero bytes followed by the address (the BMP
// convention, distinct from the ::ffff:-prefixed IPv4-in-IPv6 form).
func decodePeerAddr(b []byte, isIPv6 bool) netip.Addr {
	if isIPv6 {
		return netip.AddrFrom16([16]byte(b))
	}
	var v4 [4]byte
	copy(v4[:], b[12:16])
	return netip.AddrFrom4(v4)
}

// Encode serializes the common header.
func (h CommonHeader) Encode() []byte {
	out := make([]byte, 0, CommonHeaderSize)
	out = append(out, h.Version)
	out = appendU32(out, h.Length)
	out = append(out, h.Type)
	return out
}

// Encode serializes the per-peer header.
func (h PerPeerHeader) Encode() []byte {
	out := make([]byte, 0, PerPeerHeaderSize)
	out = append(out, h.PeerType, h.Flags)
	out = appendU64(out, h.Distinguisher)
	out = append(out, encodePeerAddr(h.Addr, h.Flags&PeerFlagIPv6 != 0)...)
	out = appendU32(out, h.ASN.Value)
	out = append(out, addrTo4(h.BGPID)...)
	out = appendU32(out, h.TimestampSec)
	out = appendU32(out, h.TimestampUsec)
	return out
}

func encodePeerAddr(addr netip.Addr, isIPv6 bool) []byte {
	if isIPv6 {
		if !addr.IsValid() {
			return make([]byte, 16)
		}
		b := addr.As16()
		return b[:]
	}
	out := make([]byte, 16)
	copy(out[12:], addrTo4(addr))
	return out
}

// addrTo4 returns the 4-byte form of addr, or four zero bytes for an
// invalid (unset) address.
func addrTo4(addr netip.Addr) []byte {
	if !addr.IsValid() {
		return make([]byte, 4)
	}
	b := addr.As4()
	return b[:]
}

func appendU32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendU64(b []byte, v uint64) []byte {
	for shift := 56; shift >= 0; shift -= 8 {
		b = append(b, byte(v>>shift))
	}
	return b
}
