package bmp

import (
	"net/netip"

	"github.com/route-beacon/mrtkit/bgp"
	"github.com/route-beacon/mrtkit/internal/cursor"
)

// openBMPMagic is the literal "OBMP" the envelope starts with.
var openBMPMagic = [4]byte{'O', 'B', 'M', 'P'}

// openBMPObjectType is the only object type this package decodes: a raw BMP
// message (OpenBMP calls this "bmp_raw").
const openBMPObjectType = 12

// OpenBMPHeader is the collector envelope some OpenBMP-speaking collectors
// wrap each BMP message in before publishing it to Kafka. It is distinct
// from the BMP common header: a full Kafka record is
// OpenBMPHeader + the raw BMP message bytes it announces via MsgLen.
type OpenBMPHeader struct {
	MajorVersion  uint8
	MinorVersion  uint8
	HeaderLen     uint16 // total bytes of this envelope, version field through RouterGroup
	MsgLen        uint32 // bytes of the BMP message following the envelope
	ObjectType    uint8
	TimestampSec  uint32
	TimestampUsec uint32
	AdminID       string
	RouterIP      netip.Addr
	RouterGroup   string
}

// DecodeOpenBMPHeader decodes one OpenBMP envelope from cur, leaving cur
// positioned at the start of the wrapped BMP message.
func DecodeOpenBMPHeader(cur *cursor.Cursor) (OpenBMPHeader, error) {
	magic, err := cur.ReadN(4)
	if err != nil {
		return OpenBMPHeader{}, err
	}
	if [4]byte(magic) != openBMPMagic {
		return OpenBMPHeader{}, &bgp.ParseError{Kind: bgp.UnknownTlvValue, Context: "openbmp magic"}
	}

	major, err := cur.ReadU8()
	if err != nil {
		return OpenBMPHeader{}, err
	}
	minor, err := cur.ReadU8()
	if err != nil {
		return OpenBMPHeader{}, err
	}
	if major != 1 || minor != 7 {
		return OpenBMPHeader{}, &bgp.ParseError{Kind: bgp.UnknownTlvValue, Context: "openbmp version", Code: int(major)<<8 | int(minor)}
	}

	headerLen, err := cur.ReadU16()
	if err != nil {
		return OpenBMPHeader{}, err
	}
	msgLen, err := cur.ReadU32()
	if err != nil {
		return OpenBMPHeader{}, err
	}

	flags, err := cur.ReadU8()
	if err != nil {
		return OpenBMPHeader{}, err
	}
	isRouterMsg := flags&0x80 != 0
	isRouterIPv6 := flags&0x40 != 0
	if !isRouterMsg {
		return OpenBMPHeader{}, &bgp.ParseError{Kind: bgp.UnknownTlvValue, Context: "openbmp: not a router message"}
	}

	objectType, err := cur.ReadU8()
	if err != nil {
		return OpenBMPHeader{}, err
	}
	if objectType != openBMPObjectType {
		return OpenBMPHeader{}, &bgp.ParseError{Kind: bgp.UnknownTlvValue, Context: "openbmp object type", Code: int(objectType)}
	}

	tSec, err := cur.ReadU32()
	if err != nil {
		return OpenBMPHeader{}, err
	}
	tUsec, err := cur.ReadU32()
	if err != nil {
		return OpenBMPHeader{}, err
	}

	if err := cur.Skip(16); err != nil { // collector hash, not surfaced
		return OpenBMPHeader{}, err
	}
	adminLen, err := cur.ReadU16()
	if err != nil {
		return OpenBMPHeader{}, err
	}
	if adminLen > 255 {
		adminLen = 255
	}
	adminRaw, err := cur.ReadN(int(adminLen))
	if err != nil {
		return OpenBMPHeader{}, err
	}

	if err := cur.Skip(16); err != nil { // router hash, not surfaced
		return OpenBMPHeader{}, err
	}
	var routerIP netip.Addr
	if isRouterIPv6 {
		routerIP, err = cur.ReadIPv6()
		if err != nil {
			return OpenBMPHeader{}, err
		}
	} else {
		routerIP, err = cur.ReadIPv4()
		if err != nil {
			return OpenBMPHeader{}, err
		}
		if err := cur.Skip(12); err != nil {
			return OpenBMPHeader{}, err
		}
	}

	groupLen, err := cur.ReadU16()
	if err != nil {
		return OpenBMPHeader{}, err
	}
	var group string
	if groupLen > 0 {
		groupRaw, err := cur.ReadN(int(groupLen))
		if err != nil {
			return OpenBMPHeader{}, err
		}
		group = string(groupRaw)
	}

	rowCount, err := cur.ReadU32()
	if err != nil {
		return OpenBMPHeader{}, err
	}
	if rowCount != 1 {
		return OpenBMPHeader{}, &bgp.ParseError{Kind: bgp.UnknownTlvValue, Context: "openbmp row count", Code: int(rowCount)}
	}

	return OpenBMPHeader{
		MajorVersion: major, MinorVersion: minor, HeaderLen: headerLen, MsgLen: msgLen,
		ObjectType: objectType, TimestampSec: tSec, TimestampUsec: tUsec,
		AdminID: string(adminRaw), RouterIP: routerIP, RouterGroup: group,
	}, nil
}

// DecodeOpenBMPMessage decodes one OpenBMP-wrapped BMP message from data,
// returning the envelope, the decoded message, and the total bytes
// consumed (envelope plus wrapped BMP message).
func DecodeOpenBMPMessage(data []byte, opts *Options) (OpenBMPHeader, Message, int, error) {
	cur := cursor.New(data)
	hdr, err := DecodeOpenBMPHeader(cur)
	if err != nil {
		return OpenBMPHeader{}, nil, 0, err
	}
	bmpBytes, err := cur.ReadN(int(hdr.MsgLen))
	if err != nil {
		return OpenBMPHeader{}, nil, 0, err
	}
	msg, err := DecodeMessage(bmpBytes, opts)
	if err != nil {
		return hdr, nil, cur.Offset(), err
	}
	return hdr, msg, cur.Offset(), nil
}
