package bgp

import (
	"bytes"
	"net/netip"

	"github.com/route-beacon/mrtkit/internal/cursor"
)

// Message is implemented by OpenMessage, UpdateMessage, NotificationMessage,
// and KeepaliveMessage.
type Message interface{ isMessage() }

// OpenMessage is a decoded BGP OPEN (RFC 4271 §4.2), including RFC 5492
// capabilities carried as optional parameters.
type OpenMessage struct {
	Version      uint8
	ASN          uint16 // the 2-byte "My Autonomous System" field; see FourOctetASN() for the real ASN
	HoldTime     uint16
	BGPID        netip.Addr
	Capabilities []Capability
}

func (OpenMessage) isMessage() {}

// FourOctetASN returns the negotiated 4-byte ASN from the capability set
// when present, else the plain 2-byte ASN field.
func (m OpenMessage) FourOctetASN() uint32 {
	for _, c := range m.Capabilities {
		if c.Code == CapFourOctetASN && len(c.Value) == 4 {
			return uint32(c.Value[0])<<24 | uint32(c.Value[1])<<16 | uint32(c.Value[2])<<8 | uint32(c.Value[3])
		}
	}
	return uint32(m.ASN)
}

// SupportsExtendedMessage reports the RFC 8654 Extended Message capability.
func (m OpenMessage) SupportsExtendedMessage() bool {
	for _, c := range m.Capabilities {
		if c.Code == CapExtendedMessage {
			return true
		}
	}
	return false
}

// Capability is one RFC 5492 capability TLV carried in an OPEN's Capabilities
// optional parameter.
type Capability struct {
	Code  uint8
	Value []byte
}

const (
	CapMultiProtocol   uint8 = 1
	CapRouteRefresh    uint8 = 2
	CapExtendedMessage uint8 = 6
	CapAddPath         uint8 = 69
	CapFourOctetASN    uint8 = 65
)

// MultiProtocolAFISAFI decodes a CapMultiProtocol value into its AFI/SAFI.
func (c Capability) MultiProtocolAFISAFI() (afi uint16, safi uint8, ok bool) {
	if c.Code != CapMultiProtocol || len(c.Value) != 4 {
		return 0, 0, false
	}
	return uint16(c.Value[0])<<8 | uint16(c.Value[1]), c.Value[3], true
}

// AddPathEntry is one (AFI, SAFI, send/receive) tuple from an RFC 7911
// ADD-PATH capability.
type AddPathEntry struct {
	AFI     uint16
	SAFI    uint8
	SendRx  uint8 // 1=receive, 2=send, 3=both
}

// AddPathEntries decodes a CapAddPath value into its entries.
func (c Capability) AddPathEntries() []AddPathEntry {
	if c.Code != CapAddPath {
		return nil
	}
	var out []AddPathEntry
	for i := 0; i+4 <= len(c.Value); i += 4 {
		out = append(out, AddPathEntry{
			AFI:    uint16(c.Value[i])<<8 | uint16(c.Value[i+1]),
			SAFI:   c.Value[i+2],
			SendRx: c.Value[i+3],
		})
	}
	return out
}

// UpdateMessage is a decoded BGP UPDATE (RFC 4271 §4.3).
type UpdateMessage struct {
	Withdrawn  []NetworkPrefix
	Attributes []PathAttribute
	NLRI       []NetworkPrefix
}

func (UpdateMessage) isMessage() {}

// NotificationMessage is a decoded BGP NOTIFICATION (RFC 4271 §4.5).
type NotificationMessage struct {
	Code    uint8
	Subcode uint8
	Data    []byte
}

func (NotificationMessage) isMessage() {}

// KeepaliveMessage is a decoded BGP KEEPALIVE (RFC 4271 §4.4); it carries no
// data beyond the common header.
type KeepaliveMessage struct{}

func (KeepaliveMessage) isMessage() {}

var allOnesMarker = bytes.Repeat([]byte{0xFF}, 16)

// DecodeMessage parses one full BGP message, including its 19-byte header.
// hasAddPath controls whether withdrawn-routes/NLRI fields carry a 4-byte
// ADD-PATH identifier; MP_REACH/MP_UNREACH ADD-PATH presence is controlled
// separately via DecodeOptions.AddPath, since RFC 7911 negotiates it per
// (AFI, SAFI).
func DecodeMessage(data []byte, hasAddPath bool, opts *DecodeOptions) (Message, error) {
	if len(data) < HeaderSize {
		return nil, newErr(TruncatedMessage, "bgp header", nil)
	}
	if !bytes.Equal(data[:16], allOnesMarker) {
		return nil, newErr(MarkerMismatch, "", nil)
	}
	cur := cursor.New(data[16:])
	length, err := cur.ReadU16()
	if err != nil {
		return nil, newErr(TruncatedMessage, "length field", err)
	}
	msgType, err := cur.ReadU8()
	if err != nil {
		return nil, newErr(TruncatedMessage, "type field", err)
	}
	maxLen := MaxMessageSize
	if opts.extendedMessage() {
		maxLen = ExtendedMaxMessageSize
	}
	if int(length) < HeaderSize || int(length) > maxLen || int(length) > len(data) {
		return nil, newErrCode(CorruptedBgpMessage, "length", int(length), nil)
	}
	body := data[HeaderSize:length]

	switch msgType {
	case MsgOpen:
		return decodeOpen(body)
	case MsgUpdate:
		return decodeUpdate(body, hasAddPath, opts)
	case MsgNotification:
		return decodeNotification(body)
	case MsgKeepalive:
		if len(body) != 0 {
			return nil, newErrCode(CorruptedBgpMessage, "keepalive body not empty", int(msgType), nil)
		}
		return KeepaliveMessage{}, nil
	default:
		return nil, newErrCode(UnknownBgpMessageType, "", int(msgType), nil)
	}
}

func decodeOpen(body []byte) (Message, error) {
	cur := cursor.New(body)
	version, err := cur.ReadU8()
	if err != nil {
		return nil, newErr(TruncatedMessage, "open version", err)
	}
	asn, err := cur.ReadU16()
	if err != nil {
		return nil, newErr(TruncatedMessage, "open asn", err)
	}
	holdTime, err := cur.ReadU16()
	if err != nil {
		return nil, newErr(TruncatedMessage, "open hold time", err)
	}
	bgpID, err := cur.ReadIPv4()
	if err != nil {
		return nil, newErr(TruncatedMessage, "open bgp id", err)
	}
	optLen, err := cur.ReadU8()
	if err != nil {
		return nil, newErr(TruncatedMessage, "open opt param len", err)
	}

	var paramsData []byte
	extended := false
	if optLen == 255 {
		// RFC 9072: a Non-Ext OP Length of 255 signals extended encoding.
		// The 1-byte Non-Ext OP Type that follows also carries the
		// sentinel value 255, then a 2-byte Extended Opt Parm Length, then
		// every parameter thereafter uses a 2-byte (not 1-byte) length
		// field.
		extType, err := cur.ReadU8()
		if err != nil {
			return nil, newErr(TruncatedMessage, "open non-ext op type", err)
		}
		if extType != 255 {
			return nil, newErrCode(CorruptedBgpMessage, "open non-ext op type", int(extType), nil)
		}
		extLen, err := cur.ReadU16()
		if err != nil {
			return nil, newErr(TruncatedMessage, "open ext opt param len", err)
		}
		paramsData, err = cur.ReadN(int(extLen))
		if err != nil {
			return nil, newErr(TruncatedMessage, "open ext opt params", err)
		}
		extended = true
	} else {
		paramsData, err = cur.ReadN(int(optLen))
		if err != nil {
			return nil, newErr(TruncatedMessage, "open opt params", err)
		}
	}

	caps, err := decodeOpenParams(paramsData, extended)
	if err != nil {
		return nil, err
	}
	return OpenMessage{Version: version, ASN: asn, HoldTime: holdTime, BGPID: bgpID, Capabilities: caps}, nil
}

func decodeOpenParams(data []byte, extended bool) ([]Capability, error) {
	cur := cursor.New(data)
	var caps []Capability
	for cur.Remaining() > 0 {
		typ, err := cur.ReadU8()
		if err != nil {
			return nil, newErr(TruncatedMessage, "open param type", err)
		}
		var length int
		if extended {
			v, err := cur.ReadU16()
			if err != nil {
				return nil, newErr(TruncatedMessage, "open ext param len", err)
			}
			length = int(v)
		} else {
			v, err := cur.ReadU8()
			if err != nil {
				return nil, newErr(TruncatedMessage, "open param len", err)
			}
			length = int(v)
		}
		value, err := cur.ReadN(length)
		if err != nil {
			return nil, newErr(TruncatedMessage, "open param value", err)
		}
		if typ != 2 { // only Capabilities (type 2) is interpreted; others pass through silently
			continue
		}
		sub := cursor.New(value)
		for sub.Remaining() > 0 {
			code, err := sub.ReadU8()
			if err != nil {
				return nil, newErr(TruncatedMessage, "capability code", err)
			}
			clen, err := sub.ReadU8()
			if err != nil {
				return nil, newErr(TruncatedMessage, "capability len", err)
			}
			cval, err := sub.ReadN(int(clen))
			if err != nil {
				return nil, newErr(TruncatedMessage, "capability value", err)
			}
			caps = append(caps, Capability{Code: code, Value: cval})
		}
	}
	return caps, nil
}

func decodeUpdate(body []byte, hasAddPath bool, opts *DecodeOptions) (Message, error) {
	cur := cursor.New(body)
	withdrawnLen, err := cur.ReadU16()
	if err != nil {
		return nil, newErr(TruncatedMessage, "update withdrawn len", err)
	}
	withdrawnBytes, err := cur.ReadN(int(withdrawnLen))
	if err != nil {
		return nil, newErr(TruncatedMessage, "update withdrawn", err)
	}
	withdrawn, err := decodeNLRI(cursor.New(withdrawnBytes), AFIIPv4, hasAddPath)
	if err != nil {
		return nil, err
	}

	attrLen, err := cur.ReadU16()
	if err != nil {
		return nil, newErr(TruncatedMessage, "update attr len", err)
	}
	attrBytes, err := cur.ReadN(int(attrLen))
	if err != nil {
		return nil, newErr(TruncatedMessage, "update attrs", err)
	}
	attrs, err := DecodeAttributes(attrBytes, opts)
	if err != nil {
		return nil, err
	}

	nlri, err := decodeNLRI(cur, AFIIPv4, hasAddPath)
	if err != nil {
		return nil, err
	}
	return UpdateMessage{Withdrawn: withdrawn, Attributes: attrs, NLRI: nlri}, nil
}

func decodeNotification(body []byte) (Message, error) {
	cur := cursor.New(body)
	code, err := cur.ReadU8()
	if err != nil {
		return nil, newErr(TruncatedMessage, "notification code", err)
	}
	sub, err := cur.ReadU8()
	if err != nil {
		return nil, newErr(TruncatedMessage, "notification subcode", err)
	}
	data, _ := cur.ReadN(cur.Remaining())
	return NotificationMessage{Code: code, Subcode: sub, Data: data}, nil
}

// Attr looks up the first attribute of the given type, mirroring how callers
// repeatedly need "the NEXT_HOP value, if any" without re-scanning by hand.
func (u UpdateMessage) Attr(t AttrType) (PathAttribute, bool) {
	for _, a := range u.Attributes {
		if a.Type == t {
			return a, true
		}
	}
	return PathAttribute{}, false
}
