package bgp

// AFI codes (IANA "Address Family Numbers").
const (
	AFIIPv4 uint16 = 1
	AFIIPv6 uint16 = 2
)

// SAFI codes (IANA "Subsequent Address Family Identifiers").
const (
	SAFIUnicast       uint8 = 1
	SAFIMulticast     uint8 = 2
	SAFIMplsLabel     uint8 = 4
	SAFIMplsVPN       uint8 = 128
	SAFIMplsVPNMulti  uint8 = 129
	SAFIRouteTarget   uint8 = 132
)

// BGP message type codes (RFC 4271 §4.1).
const (
	MsgOpen         uint8 = 1
	MsgUpdate       uint8 = 2
	MsgNotification uint8 = 3
	MsgKeepalive    uint8 = 4
	MsgRouteRefresh uint8 = 5
)

// HeaderSize is the fixed BGP message header: 16-byte marker + 2-byte
// length + 1-byte type.
const HeaderSize = 19

// MaxMessageSize is the classic RFC 4271 limit. RFC 8654 extended messages
// raise this when negotiated; see DecodeOptions.ExtendedMessage.
const MaxMessageSize = 4096

// ExtendedMaxMessageSize is the RFC 8654 limit when the Extended Message
// capability has been negotiated by both peers.
const ExtendedMaxMessageSize = 65535
