package bmp

import (
	"bytes"
	"net/netip"

	"github.com/route-beacon/mrtkit/bgp"
	"github.com/route-beacon/mrtkit/internal/cursor"
)

// Message is implemented by every decoded BMP message body: RouteMonitoring,
// StatisticsReport, PeerDown, PeerUp, Initiation, Termination, and
// RouteMirroring.
type Message interface{ isMessage() }

// TLV is an Information TLV as used by Initiation, Termination, Peer Up,
// Peer Down, and RFC 9069 Loc-RIB Route Monitoring (type, length, value).
type TLV struct {
	Type  uint16
	Value []byte
}

func (t TLV) String() string { return string(t.Value) }

// RouteMonitoring carries a single BGP UPDATE as observed by the monitored
// router (RFC 7854 §4.6). TLVs is non-empty only for a Loc-RIB peer
// (RFC 9069 §4.3), which appends a table-name TLV after the BGP message.
type RouteMonitoring struct {
	Peer   PerPeerHeader
	Update bgp.Message
	TLVs   []TLV
}

func (RouteMonitoring) isMessage() {}

// TableName returns the RFC 9069 table-name TLV value, or "" if absent.
func (m RouteMonitoring) TableName() string { return tlvString(m.TLVs, TLVTableName) }

// Stat is one counter from a Statistics Report (RFC 7854 §4.8). Raw always
// holds the untouched value bytes; Value holds the decoded counter when the
// value is 4 or 8 bytes long, and is 0 otherwise, including for the
// (afi, safi, count) variants this package does not interpret.
type Stat struct {
	Type  uint16
	Value uint64
	Raw   []byte
}

// StatisticsReport is a periodic counter snapshot for one peer
// (RFC 7854 §4.8).
type StatisticsReport struct {
	Peer  PerPeerHeader
	Stats []Stat
}

func (StatisticsReport) isMessage() {}

// PeerDown reports a peer session going down (RFC 7854 §4.9). Notification
// is set for reasons 1 and 3 when the trailing NOTIFICATION decodes, and
// FSMCode for reason 2; other reasons leave both nil.
type PeerDown struct {
	Peer         PerPeerHeader
	Reason       uint8
	Notification *bgp.NotificationMessage
	FSMCode      *uint16
	Data         []byte // remaining reason-specific bytes not otherwise decoded
	TLVs         []TLV  // RFC 9069 §5: Loc-RIB Peer Down may carry trailing TLVs
}

func (PeerDown) isMessage() {}

// PeerUp reports a peer session coming up (RFC 7854 §4.10). For a Loc-RIB
// peer (RFC 9069 §4.4), SentOpen/ReceivedOpen are nil and TLVs follow the
// per-peer header directly.
type PeerUp struct {
	Peer         PerPeerHeader
	LocalAddr    netip.Addr
	LocalPort    uint16
	RemotePort   uint16
	SentOpen     bgp.Message
	ReceivedOpen bgp.Message
	TLVs         []TLV
}

func (PeerUp) isMessage() {}

// TableName returns the RFC 9069 table-name TLV value, or "" if absent.
func (m PeerUp) TableName() string { return tlvString(m.TLVs, TLVTableName) }

// Initiation opens a BMP session and describes the monitoring station
// (RFC 7854 §4.3). It has no per-peer header.
type Initiation struct{ TLVs []TLV }

func (Initiation) isMessage() {}

// Termination closes a BMP session, optionally explaining why
// (RFC 7854 §4.5).
type Termination struct{ TLVs []TLV }

func (Termination) isMessage() {}

// RouteMirroring replays a raw BGP message or an error code the monitored
// router could not otherwise represent (RFC 7854 §4.7, RFC 8671 clarifies
// its use alongside Adj-RIB-Out monitoring).
type RouteMirroring struct {
	Peer       PerPeerHeader
	BGPMessage bgp.Message // set when an Information TLV of type BGP Message is present
	TLVs       []TLV
}

func (RouteMirroring) isMessage() {}

func tlvString(tlvs []TLV, typ uint16) string {
	for _, t := range tlvs {
		if t.Type == typ {
			return t.String()
		}
	}
	return ""
}

// DecodeMessage parses one complete BMP message, including its 6-byte
// common header.
func DecodeMessage(data []byte, opts *Options) (Message, error) {
	cur := cursor.New(data)
	h, err := decodeCommonHeader(cur)
	if err != nil {
		return nil, err
	}
	if int(h.Length) < CommonHeaderSize || int(h.Length) > len(data) {
		return nil, &bgp.ParseError{Kind: bgp.CorruptedBgpMessage, Context: "bmp message length", Code: int(h.Length)}
	}
	body := data[CommonHeaderSize:h.Length]

	switch h.Type {
	case MsgRouteMonitoring:
		return decodeRouteMonitoring(body, opts)
	case MsgStatisticsReport:
		return decodeStatisticsReport(body, opts)
	case MsgPeerDown:
		return decodePeerDown(body, opts)
	case MsgPeerUp:
		return decodePeerUp(body, opts)
	case MsgInitiation:
		return Initiation{TLVs: decodeTLVs(body)}, nil
	case MsgTermination:
		return Termination{TLVs: decodeTLVs(body)}, nil
	case MsgRouteMirroring:
		return decodeRouteMirroring(body, opts)
	default:
		return nil, &bgp.ParseError{Kind: bgp.UnknownTlvType, Context: "bmp message type", Code: int(h.Type)}
	}
}

func decodeRouteMonitoring(body []byte, opts *Options) (Message, error) {
	cur := cursor.New(body)
	peer, err := decodePerPeerHeader(cur)
	if err != nil {
		return nil, err
	}
	rest := body[cur.Offset():]

	var bgpBytes, tlvBytes []byte
	if peer.IsLocRIB() {
		msgLen, err := bgpMessageLength(rest)
		if err != nil || msgLen > len(rest) {
			bgpBytes = rest
		} else {
			bgpBytes, tlvBytes = rest[:msgLen], rest[msgLen:]
		}
	} else {
		bgpBytes = rest
	}

	update, err := bgp.DecodeMessage(bgpBytes, false, bgpDecodeOptions(opts, peer))
	if err != nil {
		return nil, err
	}
	return RouteMonitoring{Peer: peer, Update: update, TLVs: decodeTLVs(tlvBytes)}, nil
}

func decodeStatisticsReport(body []byte, opts *Options) (Message, error) {
	cur := cursor.New(body)
	peer, err := decodePerPeerHeader(cur)
	if err != nil {
		return nil, err
	}
	count, err := cur.ReadU32()
	if err != nil {
		return nil, err
	}
	stats := make([]Stat, 0, count)
	for i := uint32(0); i < count; i++ {
		typ, err := cur.ReadU16()
		if err != nil {
			break
		}
		length, err := cur.ReadU16()
		if err != nil {
			break
		}
		raw, err := cur.ReadN(int(length))
		if err != nil {
			break
		}
		stat := Stat{Type: typ, Raw: raw}
		switch len(raw) {
		case 4:
			stat.Value = uint64(raw[0])<<24 | uint64(raw[1])<<16 | uint64(raw[2])<<8 | uint64(raw[3])
		case 8:
			stat.Value = uint64(raw[0])<<56 | uint64(raw[1])<<48 | uint64(raw[2])<<40 | uint64(raw[3])<<32 |
				uint64(raw[4])<<24 | uint64(raw[5])<<16 | uint64(raw[6])<<8 | uint64(raw[7])
		}
		stats = append(stats, stat)
	}
	return StatisticsReport{Peer: peer, Stats: stats}, nil
}

func decodePeerDown(body []byte, opts *Options) (Message, error) {
	cur := cursor.New(body)
	peer, err := decodePerPeerHeader(cur)
	if err != nil {
		return nil, err
	}
	reason, err := cur.ReadU8()
	if err != nil {
		return nil, err
	}
	rest := body[cur.Offset():]

	down := PeerDown{Peer: peer, Reason: reason}
	switch reason {
	case PeerDownLocalNotification, PeerDownRemoteNotification:
		if notifLen, lenErr := bgpMessageLength(rest); lenErr == nil && notifLen <= len(rest) {
			notifBytes := rest[:notifLen]
			rest = rest[notifLen:]
			if msg, err := bgp.DecodeMessage(notifBytes, false, bgpDecodeOptions(opts, peer)); err == nil {
				if notif, ok := msg.(bgp.NotificationMessage); ok {
					down.Notification = &notif
				}
			}
		} else {
			down.Data = rest
			rest = nil
		}
	case PeerDownLocalNoNotification:
		if len(rest) >= 2 {
			code := uint16(rest[0])<<8 | uint16(rest[1])
			down.FSMCode = &code
			rest = rest[2:]
		}
	default:
		down.Data = rest
		rest = nil
	}

	if peer.IsLocRIB() && len(rest) > 0 {
		down.TLVs = decodeTLVs(rest)
	}
	return down, nil
}

func decodePeerUp(body []byte, opts *Options) (Message, error) {
	cur := cursor.New(body)
	peer, err := decodePerPeerHeader(cur)
	if err != nil {
		return nil, err
	}

	if peer.IsLocRIB() {
		// RFC 9069 §4.4: Sent/Received OPEN are empty; TLVs follow directly.
		return PeerUp{Peer: peer, TLVs: decodeTLVs(body[cur.Offset():])}, nil
	}

	localAddrBytes, err := cur.ReadN(16)
	if err != nil {
		return nil, err
	}
	localAddr := decodePeerAddr(localAddrBytes, peer.IsIPv6())
	localPort, err := cur.ReadU16()
	if err != nil {
		return nil, err
	}
	remotePort, err := cur.ReadU16()
	if err != nil {
		return nil, err
	}

	opts2 := bgpDecodeOptions(opts, peer)
	sentLen, err := bgpMessageLength(body[cur.Offset():])
	if err != nil {
		return PeerUp{Peer: peer, LocalAddr: localAddr, LocalPort: localPort, RemotePort: remotePort}, nil
	}
	sentBytes := body[cur.Offset() : cur.Offset()+sentLen]
	sentOpen, err := bgp.DecodeMessage(sentBytes, false, opts2)
	if err != nil {
		return nil, err
	}
	if err := cur.Skip(sentLen); err != nil {
		return nil, err
	}

	recvLen, err := bgpMessageLength(body[cur.Offset():])
	if err != nil {
		return PeerUp{Peer: peer, LocalAddr: localAddr, LocalPort: localPort, RemotePort: remotePort, SentOpen: sentOpen}, nil
	}
	recvBytes := body[cur.Offset() : cur.Offset()+recvLen]
	receivedOpen, err := bgp.DecodeMessage(recvBytes, false, opts2)
	if err != nil {
		return nil, err
	}
	if err := cur.Skip(recvLen); err != nil {
		return nil, err
	}

	return PeerUp{
		Peer: peer, LocalAddr: localAddr, LocalPort: localPort, RemotePort: remotePort,
		SentOpen: sentOpen, ReceivedOpen: receivedOpen, TLVs: decodeTLVs(body[cur.Offset():]),
	}, nil
}

func decodeRouteMirroring(body []byte, opts *Options) (Message, error) {
	cur := cursor.New(body)
	peer, err := decodePerPeerHeader(cur)
	if err != nil {
		return nil, err
	}
	tlvs := decodeTLVs(body[cur.Offset():])
	mirror := RouteMirroring{Peer: peer, TLVs: tlvs}
	for _, t := range tlvs {
		if t.Type == 0 { // RFC 8671 §5: Information Type 0 carries a raw BGP message
			if msg, err := bgp.DecodeMessage(t.Value, false, bgpDecodeOptions(opts, peer)); err == nil {
				mirror.BGPMessage = msg
			}
			break
		}
	}
	return mirror, nil
}

func bgpDecodeOptions(opts *Options, peer PerPeerHeader) *bgp.DecodeOptions {
	return &bgp.DecodeOptions{Logger: opts.logger(), FourOctetASN: peer.FourOctetASN()}
}

// bgpMessageLength reads just enough of a BGP message to learn its declared
// length, without decoding the rest — used to split a Loc-RIB Route
// Monitoring body (BGP message + trailing TLVs) and a Peer Up body
// (Sent OPEN + Received OPEN).
func bgpMessageLength(data []byte) (int, error) {
	if len(data) < bgp.HeaderSize {
		return 0, &bgp.ParseError{Kind: bgp.TruncatedMessage, Context: "bgp message length probe"}
	}
	if !bytes.Equal(data[:16], bytes.Repeat([]byte{0xFF}, 16)) {
		return 0, &bgp.ParseError{Kind: bgp.MarkerMismatch, Context: "bgp message length probe"}
	}
	length := int(data[16])<<8 | int(data[17])
	if length < bgp.HeaderSize {
		return 0, &bgp.ParseError{Kind: bgp.CorruptedBgpMessage, Context: "bgp message length probe", Code: length}
	}
	return length, nil
}

func decodeTLVs(data []byte) []TLV {
	var tlvs []TLV
	cur := cursor.New(data)
	for cur.Remaining() >= 4 {
		typ, err := cur.ReadU16()
		if err != nil {
			break
		}
		length, err := cur.ReadU16()
		if err != nil {
			break
		}
		value, err := cur.ReadN(int(length))
		if err != nil {
			break
		}
		tlvs = append(tlvs, TLV{Type: typ, Value: value})
	}
	return tlvs
}
