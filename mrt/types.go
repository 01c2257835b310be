// Package mrt decodes and encodes MRT archive records (RFC 6396, RFC 6397,
// RFC 8050): the common header, TABLE_DUMP and TABLE_DUMP_V2 RIB snapshots,
// and BGP4MP/BGP4MP_ET live-update captures.
package mrt

// EntryType is the MRT common header's Type field (RFC 6396 §3).
type EntryType uint16

const (
	TypeOSPFv2         EntryType = 11
	TypeTableDump      EntryType = 12
	TypeTableDumpV2    EntryType = 13
	TypeBGP4MP         EntryType = 16
	TypeBGP4MPET       EntryType = 17
	TypeISIS           EntryType = 32
	TypeISISET         EntryType = 33
	TypeOSPFv3         EntryType = 48
	TypeOSPFv3ET       EntryType = 49
)

// TableDumpV2 subtypes (RFC 6396 §4.3, RFC 8050 for the ADD-PATH variants).
const (
	SubtypePeerIndexTable            uint16 = 1
	SubtypeRibIPv4Unicast            uint16 = 2
	SubtypeRibIPv4Multicast          uint16 = 3
	SubtypeRibIPv6Unicast            uint16 = 4
	SubtypeRibIPv6Multicast          uint16 = 5
	SubtypeRibGeneric                uint16 = 6
	SubtypeGeoPeerTable              uint16 = 32
	SubtypeRibIPv4UnicastAddPath     uint16 = 8
	SubtypeRibIPv4MulticastAddPath   uint16 = 9
	SubtypeRibIPv6UnicastAddPath     uint16 = 10
	SubtypeRibIPv6MulticastAddPath   uint16 = 11
	SubtypeRibGenericAddPath         uint16 = 7
)

// BGP4MP subtypes (RFC 6396 §4.4, RFC 8050).
const (
	SubtypeBgp4MpStateChange           uint16 = 0
	SubtypeBgp4MpMessage               uint16 = 1
	SubtypeBgp4MpMessageAS4            uint16 = 4
	SubtypeBgp4MpStateChangeAS4        uint16 = 5
	SubtypeBgp4MpMessageLocal          uint16 = 6
	SubtypeBgp4MpMessageAS4Local       uint16 = 7
	SubtypeBgp4MpMessageAddPath        uint16 = 8
	SubtypeBgp4MpMessageAS4AddPath     uint16 = 9
	SubtypeBgp4MpMessageLocalAddPath   uint16 = 10
	SubtypeBgp4MpMessageAS4LocalAddPath uint16 = 11
)

func ribSubtypeHasAddPath(subtype uint16) bool {
	switch subtype {
	case SubtypeRibIPv4UnicastAddPath, SubtypeRibIPv4MulticastAddPath,
		SubtypeRibIPv6UnicastAddPath, SubtypeRibIPv6MulticastAddPath,
		SubtypeRibGenericAddPath:
		return true
	default:
		return false
	}
}

func bgp4mpSubtypeIsAS4(subtype uint16) bool {
	switch subtype {
	case SubtypeBgp4MpMessageAS4, SubtypeBgp4MpStateChangeAS4,
		SubtypeBgp4MpMessageAS4Local, SubtypeBgp4MpMessageAS4AddPath,
		SubtypeBgp4MpMessageAS4LocalAddPath:
		return true
	default:
		return false
	}
}

func bgp4mpSubtypeIsAddPath(subtype uint16) bool {
	switch subtype {
	case SubtypeBgp4MpMessageAddPath, SubtypeBgp4MpMessageAS4AddPath,
		SubtypeBgp4MpMessageLocalAddPath, SubtypeBgp4MpMessageAS4LocalAddPath:
		return true
	default:
		return false
	}
}

func bgp4mpSubtypeIsStateChange(subtype uint16) bool {
	return subtype == SubtypeBgp4MpStateChange || subtype == SubtypeBgp4MpStateChangeAS4
}
