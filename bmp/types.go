// Package bmp decodes BGP Monitoring Protocol messages (RFC 7854, RFC 9069
// Local-RIB monitoring, RFC 8671 Route Mirroring) and the OpenBMP Kafka
// envelope some collectors wrap them in.
package bmp

// BMP message type codes (RFC 7854 §4.1).
const (
	MsgRouteMonitoring  uint8 = 0
	MsgStatisticsReport uint8 = 1
	MsgPeerDown         uint8 = 2
	MsgPeerUp           uint8 = 3
	MsgInitiation       uint8 = 4
	MsgTermination      uint8 = 5
	MsgRouteMirroring   uint8 = 6
)

// BMP peer types (RFC 7854 §4.2, RFC 9069 §4.1 for the Loc-RIB type).
const (
	PeerTypeGlobal uint8 = 0
	PeerTypeRD     uint8 = 1
	PeerTypeLocal  uint8 = 2
	PeerTypeLocRIB uint8 = 3
)

// Fixed-size sections.
const (
	CommonHeaderSize  = 6  // version(1) + length(4) + type(1)
	PerPeerHeaderSize = 42 // type(1) + flags(1) + distinguisher(8) + addr(16) + asn(4) + bgp_id(4) + ts_sec(4) + ts_usec(4)
)

// Per-peer header flag bits (RFC 7854 §4.2; O-bit per RFC 8671 §4). The
// AS_SIZE_16BIT bit is inverted from the others: when set, Peer AS is a
// 2-byte field; when clear (the default), it is 4 bytes.
const (
	PeerFlagIPv6       uint8 = 0x80
	PeerFlagPostPolicy uint8 = 0x40
	PeerFlagASN16Bit   uint8 = 0x20
	PeerFlagAdjRIBOut  uint8 = 0x10
)

// PeerFlagLocRIBFiltered is the sole Loc-RIB per-peer header flag (RFC 9069 §4.2); it
// reuses the same bit position as PeerFlagIPv6 but applies only when
// PeerType is PeerTypeLocRIB.
const PeerFlagLocRIBFiltered uint8 = 0x80

// BMPVersion is the only version this package decodes.
const BMPVersion uint8 = 3

// Initiation/Termination/Peer Up/Peer Down TLV information types
// (RFC 7854 §4.4, RFC 9069 §4.4/§5 for table name and VRF/table TLVs).
const (
	TLVString    uint16 = 0
	TLVSysDescr  uint16 = 1
	TLVSysName   uint16 = 2
	TLVVRFTable  uint16 = 3
	TLVAdminLabel uint16 = 4
	TLVTableName uint16 = 0 // RFC 9069 reuses information type 0 ("String") for the Loc-RIB table name on Route Monitoring/Peer Up/Peer Down
)

// Peer Down reason codes (RFC 7854 §4.9).
const (
	PeerDownLocalNotification   uint8 = 1
	PeerDownLocalNoNotification uint8 = 2
	PeerDownRemoteNotification  uint8 = 3
	PeerDownRemoteNoNotification uint8 = 4
	PeerDownPeerDeconfigured    uint8 = 5
)

// Statistics Report stat type codes (RFC 7854 §4.8, subset this package
// exposes typed counters for; unrecognized types still decode as raw TLVs).
const (
	StatPrefixesRejected      uint16 = 0
	StatDuplicatePrefix       uint16 = 1
	StatDuplicateWithdraw     uint16 = 2
	StatInvalidatedClusterList uint16 = 3
	StatInvalidatedASPathLoop  uint16 = 4
	StatInvalidatedOriginatorID uint16 = 5
	StatInvalidatedASConfedLoop uint16 = 6
	StatAdjRIBInRoutes         uint16 = 7
	StatLocRIBRoutes           uint16 = 8
)
