// Package elem projects decoded MRT records and BMP route monitoring
// messages into per-prefix BGP elements — the unit the filter engine and
// most consumers actually want, rather than a whole UPDATE's worth of
// NLRI sharing one attribute set.
//
// Grounded on bgpkit-parser's mrt_elem.rs: a single pass over a record's
// attributes collects the fields every element variant needs, then a
// per-record-type dispatch fans that out into one element per prefix.
package elem

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/route-beacon/mrtkit/bgp"
	"github.com/route-beacon/mrtkit/bmp"
	"github.com/route-beacon/mrtkit/mrt"
)

// ElemType distinguishes an announcement from a withdrawal.
type ElemType int

const (
	Announce ElemType = iota
	Withdraw
)

func (t ElemType) String() string {
	if t == Withdraw {
		return "WITHDRAW"
	}
	return "ANNOUNCE"
}

// BgpElem is one per-prefix view of a BGP route, derived from an UPDATE, a
// TABLE_DUMP(_V2) RIB entry, or a BMP Route Monitoring message.
type BgpElem struct {
	Timestamp  float64
	Type       ElemType
	PeerIP     netip.Addr
	PeerASN    bgp.ASN
	Prefix     bgp.NetworkPrefix
	NextHop    *netip.Addr
	AsPath     *bgp.AsPath
	OriginASNs []bgp.ASN
	Origin     *bgp.OriginValue
	LocalPref  *uint32
	MED        *uint32
	Communities []bgp.Community
	Atomic     bool
	AggrASN    *bgp.ASN
	AggrIP     *netip.Addr
}

// String renders the element the way route-beacon's RouteEvent prints one:
// a pipe-separated record, stable field order, empty string for unset
// optional fields.
func (e BgpElem) String() string {
	return strings.Join(e.fields(), "|")
}

// Header returns the column names matching String's field order.
func Header() string {
	return strings.Join([]string{
		"type", "timestamp", "peer_ip", "peer_asn", "prefix", "next_hop",
		"as_path", "origin_asns", "origin", "local_pref", "med", "communities",
		"atomic", "aggr_asn", "aggr_ip",
	}, "|")
}

func (e BgpElem) fields() []string {
	origins := make([]string, len(e.OriginASNs))
	for i, a := range e.OriginASNs {
		origins[i] = a.String()
	}
	comms := make([]string, len(e.Communities))
	for i, c := range e.Communities {
		comms[i] = c.String()
	}
	return []string{
		e.Type.String(),
		fmt.Sprintf("%.6f", e.Timestamp),
		addrString(e.PeerIP),
		e.PeerASN.String(),
		e.Prefix.String(),
		addrPtrString(e.NextHop),
		asPathString(e.AsPath),
		strings.Join(origins, ","),
		originString(e.Origin),
		uint32PtrString(e.LocalPref),
		uint32PtrString(e.MED),
		strings.Join(comms, ","),
		boolString(e.Atomic),
		asnPtrString(e.AggrASN),
		addrPtrString(e.AggrIP),
	}
}

func addrString(a netip.Addr) string {
	if !a.IsValid() {
		return ""
	}
	return a.String()
}

func addrPtrString(a *netip.Addr) string {
	if a == nil {
		return ""
	}
	return addrString(*a)
}

func asPathString(p *bgp.AsPath) string {
	if p == nil {
		return ""
	}
	return p.String()
}

func originString(o *bgp.OriginValue) string {
	if o == nil {
		return ""
	}
	return o.String()
}

func uint32PtrString(v *uint32) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func asnPtrString(a *bgp.ASN) string {
	if a == nil {
		return ""
	}
	return a.String()
}

func boolString(b bool) string {
	if b {
		return "AG"
	}
	return "NAG"
}

// relevantAttributes is the single-pass collection get_relevant_attributes
// performs in the original: a flat scan of a path-attribute set into named
// locals, since the elementor needs several of them together regardless of
// which record type is being fanned out.
type relevantAttributes struct {
	asPath      *bgp.AsPath
	as4Path     *bgp.AsPath
	origin      *bgp.OriginValue
	nextHop     *netip.Addr
	localPref   *uint32
	med         *uint32
	communities []bgp.Community
	atomic      bool
	aggrASN     *bgp.ASN
	aggrIP      *netip.Addr
	announced   *bgp.MPReachValue
	withdrawn   *bgp.MPUnreachValue
}

func collectAttributes(attrs []bgp.PathAttribute) relevantAttributes {
	var r relevantAttributes
	for _, a := range attrs {
		switch v := a.Value.(type) {
		case bgp.OriginValue:
			r.origin = &v
		case bgp.AsPathValue:
			p := v.AsPath
			r.asPath = &p
		case bgp.AS4PathValue:
			p := v.AsPath
			r.as4Path = &p
		case bgp.NextHopValue:
			addr := v.Addr
			r.nextHop = &addr
		case bgp.MultiExitDiscValue:
			med := uint32(v)
			r.med = &med
		case bgp.LocalPrefValue:
			lp := uint32(v)
			r.localPref = &lp
		case bgp.AtomicAggregateValue:
			r.atomic = true
		case bgp.AggregatorValue:
			asn := v.ASN
			ip := v.Addr
			r.aggrASN, r.aggrIP = &asn, &ip
		case bgp.AS4AggregatorValue:
			asn := bgp.NewASN4(v.ASN)
			ip := v.Addr
			r.aggrASN, r.aggrIP = &asn, &ip
		case bgp.CommunityValue:
			r.communities = []bgp.Community(v)
		case bgp.MPReachValue:
			r.announced = &v
		case bgp.MPUnreachValue:
			r.withdrawn = &v
		}
	}
	return r
}

// mergedPath combines AS_PATH and AS4_PATH the way the original's
// merge_aspath_as4path call site does: either alone is used as-is, both
// present triggers bgp.MergeAS4Path, neither yields no path at all.
func (r relevantAttributes) mergedPath() *bgp.AsPath {
	switch {
	case r.asPath == nil && r.as4Path == nil:
		return nil
	case r.asPath == nil:
		return r.as4Path
	case r.as4Path == nil:
		return r.asPath
	default:
		merged := bgp.MergeAS4Path(r.asPath, r.as4Path)
		return &merged
	}
}

func originASNs(p *bgp.AsPath) []bgp.ASN {
	if p == nil {
		return nil
	}
	return p.OriginASNs()
}

// Elementor converts MRT records and BMP messages into BgpElem values. It
// owns the most recently seen TABLE_DUMP_V2 peer index, so RIB entries that
// reference a peer by ordinal resolve across calls the way
// mrt.Reader.peerTable does for raw record decoding. The zero value is
// ready to use.
type Elementor struct {
	peerTable *mrt.PeerIndexTable

	// IncludeEndOfRib, when true, turns off end-of-RIB suppression: the
	// marker is fanned out like any other UPDATE. A marker carries no
	// prefixes, so it still yields no elements; no element signals the
	// end-of-RIB itself. Off by default.
	IncludeEndOfRib bool
}

// FromRecord fans an MRT record into its BgpElem values. ts is the record's
// wire timestamp (mrt.CommonHeader.Timestamp()); elements from a
// TABLE_DUMP_V2 RIB record carry each entry's originated time instead.
func (e *Elementor) FromRecord(ts float64, rec mrt.Record) []BgpElem {
	switch r := rec.(type) {
	case mrt.TableDumpRecord:
		return e.fromTableDump(ts, r)
	case mrt.PeerIndexTable:
		e.peerTable = &r
		return nil
	case mrt.RibAfiEntries:
		return e.fromRibAfiEntries(ts, r)
	case mrt.Bgp4MpMessage:
		return e.fromBgp4MpMessage(ts, r)
	case mrt.Bgp4MpStateChange:
		return nil
	default:
		return nil
	}
}

func (e *Elementor) fromTableDump(ts float64, r mrt.TableDumpRecord) []BgpElem {
	attrs := collectAttributes(r.Attributes)
	path := attrs.asPath // TABLE_DUMP v1 carries no AS4_PATH
	elem := BgpElem{
		Timestamp: ts, Type: Announce,
		PeerIP: r.PeerAddr, PeerASN: r.PeerASN, Prefix: r.Prefix,
		NextHop: attrs.nextHop, AsPath: path, OriginASNs: originASNs(path),
		Origin: attrs.origin, LocalPref: attrs.localPref, MED: attrs.med,
		Communities: attrs.communities, Atomic: attrs.atomic,
		AggrASN: attrs.aggrASN, AggrIP: attrs.aggrIP,
	}
	return []BgpElem{elem}
}

func (e *Elementor) fromRibAfiEntries(ts float64, r mrt.RibAfiEntries) []BgpElem {
	if e.peerTable == nil {
		return nil
	}
	elems := make([]BgpElem, 0, len(r.Entries))
	for _, entry := range r.Entries {
		peer, err := e.peerTable.Peer(entry.PeerIndex)
		if err != nil {
			continue
		}
		attrs := collectAttributes(entry.Attributes)
		path := attrs.mergedPath()
		nextHop := attrs.nextHop
		if nextHop == nil && attrs.announced != nil && attrs.announced.NextHop.Global.IsValid() {
			addr := attrs.announced.NextHop.Global
			nextHop = &addr
		}
		elems = append(elems, BgpElem{
			Timestamp: float64(entry.OriginatedTime), Type: Announce,
			PeerIP: peer.Addr, PeerASN: peer.ASN, Prefix: r.Prefix,
			NextHop: nextHop, AsPath: path, OriginASNs: originASNs(path),
			Origin: attrs.origin, LocalPref: attrs.localPref, MED: attrs.med,
			Communities: attrs.communities, Atomic: attrs.atomic,
			AggrASN: attrs.aggrASN, AggrIP: attrs.aggrIP,
		})
	}
	return elems
}

func (e *Elementor) fromBgp4MpMessage(ts float64, r mrt.Bgp4MpMessage) []BgpElem {
	update, ok := r.Message.(bgp.UpdateMessage)
	if !ok {
		return nil
	}
	if !e.IncludeEndOfRib && isEndOfRib(update) {
		return nil
	}

	attrs := collectAttributes(update.Attributes)
	path := attrs.mergedPath()
	origins := originASNs(path)

	var elems []BgpElem
	announce := func(prefix bgp.NetworkPrefix, nextHop *netip.Addr) BgpElem {
		return BgpElem{
			Timestamp: ts, Type: Announce,
			PeerIP: r.PeerAddr, PeerASN: r.PeerASN, Prefix: prefix,
			NextHop: nextHop, AsPath: path, OriginASNs: origins,
			Origin: attrs.origin, LocalPref: attrs.localPref, MED: attrs.med,
			Communities: attrs.communities, Atomic: attrs.atomic,
			AggrASN: attrs.aggrASN, AggrIP: attrs.aggrIP,
		}
	}
	for _, p := range update.NLRI {
		elems = append(elems, announce(p, attrs.nextHop))
	}
	if attrs.announced != nil {
		var mpNextHop *netip.Addr
		if attrs.announced.NextHop.Global.IsValid() {
			addr := attrs.announced.NextHop.Global
			mpNextHop = &addr
		}
		for _, p := range attrs.announced.Announced {
			elems = append(elems, announce(p, mpNextHop))
		}
	}

	withdraw := func(prefix bgp.NetworkPrefix) BgpElem {
		return BgpElem{Timestamp: ts, Type: Withdraw, PeerIP: r.PeerAddr, PeerASN: r.PeerASN, Prefix: prefix}
	}
	for _, p := range update.Withdrawn {
		elems = append(elems, withdraw(p))
	}
	if attrs.withdrawn != nil {
		for _, p := range attrs.withdrawn.Withdrawn {
			elems = append(elems, withdraw(p))
		}
	}
	return elems
}

// isEndOfRib reports whether update is an RFC 4724 end-of-RIB marker: no
// NLRI, no v1 withdrawn-routes, and an MP_UNREACH for some (AFI, SAFI)
// carrying zero withdrawn prefixes.
func isEndOfRib(update bgp.UpdateMessage) bool {
	if len(update.NLRI) != 0 || len(update.Withdrawn) != 0 {
		return false
	}
	for _, a := range update.Attributes {
		if v, ok := a.Value.(bgp.MPUnreachValue); ok && len(v.Withdrawn) == 0 {
			return true
		}
	}
	return false
}

// FromBMP fans a decoded BMP Route Monitoring message into BgpElem values.
// Other BMP message types (Peer Up/Down, Statistics, Initiation,
// Termination, Route Mirroring) carry no per-prefix routing information and
// yield nothing.
func (e *Elementor) FromBMP(ts float64, msg bmp.Message) []BgpElem {
	rm, ok := msg.(bmp.RouteMonitoring)
	if !ok {
		return nil
	}
	update, ok := rm.Update.(bgp.UpdateMessage)
	if !ok {
		return nil
	}
	if !e.IncludeEndOfRib && isEndOfRib(update) {
		return nil
	}

	synthetic := mrt.Bgp4MpMessage{
		PeerASN: rm.Peer.ASN, PeerAddr: rm.Peer.Addr, Message: update,
	}
	return e.fromBgp4MpMessage(ts, synthetic)
}
