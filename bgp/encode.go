package bgp

import (
	"encoding/binary"
)

// Encode serializes a full BGP message including its 19-byte header, the
// mechanical inverse of DecodeMessage. It is used by the mrt package's
// Updates writer to re-emit captured UPDATE messages byte-for-byte.
func Encode(m Message) []byte {
	var body []byte
	var typ uint8
	switch v := m.(type) {
	case OpenMessage:
		body = encodeOpen(v)
		typ = MsgOpen
	case UpdateMessage:
		body = encodeUpdateBody(v)
		typ = MsgUpdate
	case NotificationMessage:
		body = append([]byte{v.Code, v.Subcode}, v.Data...)
		typ = MsgNotification
	case KeepaliveMessage:
		typ = MsgKeepalive
	}
	out := make([]byte, 0, HeaderSize+len(body))
	out = append(out, allOnesMarker...)
	out = binary.BigEndian.AppendUint16(out, uint16(HeaderSize+len(body)))
	out = append(out, typ)
	out = append(out, body...)
	return out
}

func encodeOpen(m OpenMessage) []byte {
	var capBytes []byte
	for _, c := range m.Capabilities {
		capBytes = append(capBytes, c.Code, uint8(len(c.Value)))
		capBytes = append(capBytes, c.Value...)
	}
	var params []byte
	if len(capBytes) > 0 {
		params = append(params, 2, uint8(len(capBytes)))
		params = append(params, capBytes...)
	}

	out := make([]byte, 0, 10+len(params))
	out = append(out, m.Version)
	out = binary.BigEndian.AppendUint16(out, m.ASN)
	out = binary.BigEndian.AppendUint16(out, m.HoldTime)
	bgpid := m.BGPID.As4()
	out = append(out, bgpid[:]...)
	out = append(out, uint8(len(params)))
	out = append(out, params...)
	return out
}

func encodeUpdateBody(m UpdateMessage) []byte {
	withdrawn := encodeNLRIList(m.Withdrawn)
	var attrBytes []byte
	for _, a := range m.Attributes {
		attrBytes = append(attrBytes, EncodeAttr(a)...)
	}
	nlri := encodeNLRIList(m.NLRI)

	out := make([]byte, 0, 4+len(withdrawn)+len(attrBytes)+len(nlri))
	out = binary.BigEndian.AppendUint16(out, uint16(len(withdrawn)))
	out = append(out, withdrawn...)
	out = binary.BigEndian.AppendUint16(out, uint16(len(attrBytes)))
	out = append(out, attrBytes...)
	out = append(out, nlri...)
	return out
}

func encodeNLRIList(prefixes []NetworkPrefix) []byte {
	var out []byte
	for _, p := range prefixes {
		out = append(out, encodePrefixEntry(p)...)
	}
	return out
}

func encodePrefixEntry(p NetworkPrefix) []byte {
	var out []byte
	if p.PathID != nil {
		out = binary.BigEndian.AppendUint32(out, *p.PathID)
	}
	out = append(out, uint8(p.Length))
	byteLen := (p.Length + 7) / 8
	if p.Addr.Is4() {
		b := p.Addr.As4()
		out = append(out, b[:byteLen]...)
	} else {
		b := p.Addr.As16()
		out = append(out, b[:byteLen]...)
	}
	return out
}

// EncodeAttr serializes one path attribute, preserving the flag octet
// (including the Extended Length bit) exactly as decoded so that a
// decode-then-encode round trip reproduces the original bytes.
func EncodeAttr(a PathAttribute) []byte {
	body := encodeAttrValue(a.Type, a.Value)
	out := []byte{uint8(a.Flags), uint8(a.Type)}
	if a.Flags.ExtendedLength() {
		out = binary.BigEndian.AppendUint16(out, uint16(len(body)))
	} else {
		out = append(out, uint8(len(body)))
	}
	return append(out, body...)
}

func encodeAttrValue(typ AttrType, v AttrValue) []byte {
	switch val := v.(type) {
	case OriginValue:
		return []byte{uint8(val)}
	case AsPathValue:
		return encodeAsPath(val.AsPath)
	case NextHopValue:
		if val.Addr.Is4() {
			b := val.Addr.As4()
			return b[:]
		}
		b := val.Addr.As16()
		return b[:]
	case MultiExitDiscValue:
		return binary.BigEndian.AppendUint32(nil, uint32(val))
	case LocalPrefValue:
		return binary.BigEndian.AppendUint32(nil, uint32(val))
	case AtomicAggregateValue:
		return nil
	case AggregatorValue:
		out := encodeASN(val.ASN)
		b := val.Addr.As4()
		return append(out, b[:]...)
	case CommunityValue:
		var out []byte
		for _, c := range val {
			out = binary.BigEndian.AppendUint16(out, c.ASN)
			out = binary.BigEndian.AppendUint16(out, c.Value)
		}
		return out
	case OriginatorIDValue:
		b := val.ID.As4()
		return b[:]
	case ClusterListValue:
		var out []byte
		for _, id := range val {
			b := id.As4()
			out = append(out, b[:]...)
		}
		return out
	case MPReachValue:
		return encodeMPReach(val)
	case MPUnreachValue:
		return encodeMPUnreach(val)
	case ExtCommunityValue:
		var out []byte
		for _, c := range val {
			out = append(out, c.Type, c.SubType)
			out = append(out, c.Raw[:]...)
		}
		return out
	case Ipv6ExtCommunityValue:
		var out []byte
		for _, c := range val {
			out = append(out, c.Type, c.SubType)
			out = append(out, c.Addr[:]...)
			out = binary.BigEndian.AppendUint16(out, c.Local)
		}
		return out
	case AS4PathValue:
		return encodeAsPath(val.AsPath)
	case AS4AggregatorValue:
		out := binary.BigEndian.AppendUint32(nil, val.ASN)
		b := val.Addr.As4()
		return append(out, b[:]...)
	case LargeCommunityValue:
		var out []byte
		for _, c := range val {
			out = binary.BigEndian.AppendUint32(out, c.GlobalAdmin)
			out = binary.BigEndian.AppendUint32(out, c.LocalData1)
			out = binary.BigEndian.AppendUint32(out, c.LocalData2)
		}
		return out
	case OnlyToCustomerValue:
		return binary.BigEndian.AppendUint32(nil, uint32(val))
	case UnknownValue:
		return val.Raw
	default:
		return nil
	}
}

func encodeASN(a ASN) []byte {
	if a.Wide {
		return binary.BigEndian.AppendUint32(nil, a.Value)
	}
	return binary.BigEndian.AppendUint16(nil, uint16(a.Value))
}

func encodeAsPath(p AsPath) []byte {
	var out []byte
	for _, seg := range p.Segments {
		out = append(out, uint8(seg.Type), uint8(len(seg.ASNs)))
		for _, a := range seg.ASNs {
			out = append(out, encodeASN(a)...)
		}
	}
	return out
}

func encodeMPReach(v MPReachValue) []byte {
	var nh []byte
	if v.NextHop.LinkLocal.IsValid() {
		g, l := v.NextHop.Global.As16(), v.NextHop.LinkLocal.As16()
		nh = append(append([]byte{}, g[:]...), l[:]...)
	} else if v.NextHop.Global.Is4() {
		b := v.NextHop.Global.As4()
		nh = b[:]
	} else {
		b := v.NextHop.Global.As16()
		nh = b[:]
	}

	out := binary.BigEndian.AppendUint16(nil, v.AFI)
	out = append(out, v.SAFI, uint8(len(nh)))
	out = append(out, nh...)
	out = append(out, 0) // SNPA count, always 0 on encode
	out = append(out, encodeNLRIList(v.Announced)...)
	return out
}

func encodeMPUnreach(v MPUnreachValue) []byte {
	out := binary.BigEndian.AppendUint16(nil, v.AFI)
	out = append(out, v.SAFI)
	out = append(out, encodeNLRIList(v.Withdrawn)...)
	return out
}
