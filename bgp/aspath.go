package bgp

import "strings"

// AsPathSegmentType is the segment type octet from RFC 4271 §4.3.
type AsPathSegmentType uint8

const (
	AsSet      AsPathSegmentType = 1
	AsSequence AsPathSegmentType = 2
	ConfedSeq  AsPathSegmentType = 3
	ConfedSet  AsPathSegmentType = 4
)

func (t AsPathSegmentType) String() string {
	switch t {
	case AsSet:
		return "AS_SET"
	case AsSequence:
		return "AS_SEQUENCE"
	case ConfedSeq:
		return "AS_CONFED_SEQUENCE"
	case ConfedSet:
		return "AS_CONFED_SET"
	default:
		return "UNKNOWN"
	}
}

// AsPathSegment is one segment of an AS_PATH or AS4_PATH attribute: a type
// and an ordered run of ASNs sharing that type.
type AsPathSegment struct {
	Type AsPathSegmentType
	ASNs []ASN
}

func (s AsPathSegment) len() int { return len(s.ASNs) }

// AsPath is a sequence of segments, in wire order.
type AsPath struct {
	Segments []AsPathSegment
}

// RouteLen returns the number of ASNs that count toward path length per
// RFC 4271 §9.1.2.2 — AS_SET segments contribute at most one hop.
func (p AsPath) RouteLen() int {
	n := 0
	for _, seg := range p.Segments {
		switch seg.Type {
		case AsSet, ConfedSet:
			if seg.len() > 0 {
				n++
			}
		default:
			n += seg.len()
		}
	}
	return n
}

// String renders the path the way route-beacon's RouteEvent.ASPath does:
// space-separated ASNs, AS_SET segments wrapped in braces.
func (p AsPath) String() string {
	var b strings.Builder
	for i, seg := range p.Segments {
		if i > 0 {
			b.WriteByte(' ')
		}
		asns := make([]string, len(seg.ASNs))
		for j, a := range seg.ASNs {
			asns[j] = a.String()
		}
		switch seg.Type {
		case AsSet, ConfedSet:
			b.WriteByte('{')
			b.WriteString(strings.Join(asns, ","))
			b.WriteByte('}')
		default:
			b.WriteString(strings.Join(asns, " "))
		}
	}
	return b.String()
}

// OriginASN returns the path's single origin ASN, or nil when the path is
// empty or its final segment does not identify a unique origin (an AS_SET
// or AS_CONFED_SET with more than one member).
//
// Grounded on original_source's get_singular_origin: a trailing
// AS_SEQUENCE/AS_CONFED_SEQUENCE contributes its last ASN; a trailing
// AS_SET/AS_CONFED_SET contributes its only ASN when it has exactly one;
// anything else yields no origin.
func (p AsPath) OriginASN() *ASN {
	if len(p.Segments) == 0 {
		return nil
	}
	last := p.Segments[len(p.Segments)-1]
	switch last.Type {
	case AsSequence, ConfedSeq:
		if last.len() == 0 {
			return nil
		}
		a := last.ASNs[last.len()-1]
		return &a
	case AsSet, ConfedSet:
		if last.len() == 1 {
			a := last.ASNs[0]
			return &a
		}
		return nil
	default:
		return nil
	}
}

// OriginASNs returns the path's origin AS numbers: the last ASN of a
// trailing AS_SEQUENCE, or every member of a trailing AS_SET (including a
// single-member or empty one). A trailing AS_CONFED_SEQUENCE/AS_CONFED_SET,
// or an empty path, has no origin.
//
// Grounded on original_source's get_origin, which the MRT elementor calls
// to populate origin_asns: AsSequence contributes its last ASN, AsSet
// contributes the whole segment, and both confederation segment types fall
// through to None.
func (p AsPath) OriginASNs() []ASN {
	if len(p.Segments) == 0 {
		return nil
	}
	last := p.Segments[len(p.Segments)-1]
	switch last.Type {
	case AsSequence:
		if last.len() == 0 {
			return nil
		}
		return []ASN{last.ASNs[last.len()-1]}
	case AsSet:
		out := make([]ASN, len(last.ASNs))
		copy(out, last.ASNs)
		return out
	default:
		return nil
	}
}

// MergeAS4Path merges an AS_PATH built by a 2-byte-ASN speaker with the
// AS4_PATH attribute it carried alongside AS_TRANS placeholders, per
// RFC 6793 §4.2.3.
//
// Grounded on original_source's merge_aspath_as4path: when AS4_PATH is
// longer than AS_PATH (by RouteLen), AS_PATH is returned unchanged.
// Otherwise walk both segment lists from the front (not
// tail-aligned across the whole path). For a matching AS_SEQUENCE pair, keep
// the AS_PATH segment's leading (old_len - new_len) ASNs and append all of
// the AS4_PATH segment's ASNs. For any other pairing (AS_SET, mismatched
// types, or AS4_PATH exhausted) the AS4_PATH segment is used wholesale.
func MergeAS4Path(asPath, as4Path *AsPath) AsPath {
	if as4Path == nil || len(as4Path.Segments) == 0 {
		if asPath == nil {
			return AsPath{}
		}
		return *asPath
	}
	if asPath == nil {
		return AsPath{}
	}
	if asPath.RouteLen() < as4Path.RouteLen() {
		return *asPath
	}

	merged := make([]AsPathSegment, 0, len(asPath.Segments))
	for i, seg := range asPath.Segments {
		if i >= len(as4Path.Segments) {
			merged = append(merged, seg)
			continue
		}
		seg4 := as4Path.Segments[i]
		if seg.Type == AsSequence && seg4.Type == AsSequence {
			diff := seg.len() - seg4.len()
			if diff < 0 {
				diff = 0
			}
			combined := make([]ASN, 0, diff+seg4.len())
			combined = append(combined, seg.ASNs[:diff]...)
			combined = append(combined, seg4.ASNs...)
			merged = append(merged, AsPathSegment{Type: AsSequence, ASNs: combined})
		} else {
			merged = append(merged, seg4)
		}
	}
	// AS4_PATH segments beyond len(asPath.Segments) are appended as-is; the
	// RouteLen check above compares ASN counts, not segment counts, so it
	// does not rule them out.
	if len(as4Path.Segments) > len(asPath.Segments) {
		merged = append(merged, as4Path.Segments[len(asPath.Segments):]...)
	}
	return AsPath{Segments: merged}
}
