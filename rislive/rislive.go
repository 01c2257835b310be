// Package rislive decodes RIPE RIS Live websocket JSON messages
// (https://ris-live.ripe.net/manual/) into BgpElem values.
//
// Grounded on the teacher's internal/state/parser.go DecodeUnicastPrefix: a
// defensive field-by-field extraction over a decoded map[string]any,
// generalized here from goBMP's JSON shape to RIS Live's ris_message
// envelope.
package rislive

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/route-beacon/mrtkit/bgp"
	"github.com/route-beacon/mrtkit/elem"
)

// envelope is the outer RIS Live frame: {"type": "...", "data": {...}}.
// ris_error and ris_subscribe_ok frames share the same outer shape but carry
// no routing data; only ris_message reaches the inner data object.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ParseMessage decodes one RIS Live websocket text frame. Non-ris_message
// envelopes and non-UPDATE data objects (OPEN, NOTIFICATION, KEEPALIVE,
// RIS_PEER_STATE) carry no per-prefix routing information and decode to a
// nil, nil result rather than an error.
func ParseMessage(raw []byte) ([]elem.BgpElem, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("rislive: invalid envelope: %w", err)
	}
	if env.Type != "ris_message" || len(env.Data) == 0 {
		return nil, nil
	}

	var data map[string]any
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("rislive: invalid data object: %w", err)
	}
	if stringField(data, "type") != "UPDATE" {
		return nil, nil
	}

	timestamp := floatField(data, "timestamp")

	peerIP, err := netip.ParseAddr(stringField(data, "peer"))
	if err != nil {
		return nil, fmt.Errorf("rislive: invalid peer address: %w", err)
	}
	peerASNValue, err := strconv.ParseUint(stringField(data, "peer_asn"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("rislive: invalid peer_asn: %w", err)
	}
	peerASN := bgp.NewASN4(uint32(peerASNValue))

	asPath := pathField(data, "path")
	origins := originASNs(asPath)

	origin, err := originField(data)
	if err != nil {
		return nil, err
	}
	med := uint32PtrField(data, "med")
	communities := communityField(data, "community")
	aggrASN, aggrIP, err := aggregatorField(data)
	if err != nil {
		return nil, err
	}

	var elems []elem.BgpElem

	for _, a := range arrayField(data, "announcements") {
		ann, ok := a.(map[string]any)
		if !ok {
			continue
		}
		nextHop, err := netip.ParseAddr(stringField(ann, "next_hop"))
		if err != nil {
			return nil, fmt.Errorf("rislive: invalid next_hop: %w", err)
		}
		for _, pv := range stringArrayField(ann, "prefixes") {
			prefix, err := parsePrefix(pv)
			if err != nil {
				return nil, err
			}
			nh := nextHop
			elems = append(elems, elem.BgpElem{
				Timestamp: timestamp, Type: elem.Announce,
				PeerIP: peerIP, PeerASN: peerASN, Prefix: prefix,
				NextHop: &nh, AsPath: asPath, OriginASNs: origins,
				Origin: origin, MED: med, Communities: communities,
				AggrASN: aggrASN, AggrIP: aggrIP,
			})
		}
	}

	for _, pv := range stringArrayField(data, "withdrawals") {
		prefix, err := parsePrefix(pv)
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem.BgpElem{
			Timestamp: timestamp, Type: elem.Withdraw,
			PeerIP: peerIP, PeerASN: peerASN, Prefix: prefix,
		})
	}

	return elems, nil
}

// pathField builds an AsPath from RIS Live's "path" array: plain numbers
// form one AS_SEQUENCE segment in order, and a nested array (at most one,
// per the RIS Live wire format) forms a trailing AS_SET segment.
func pathField(m map[string]any, key string) *bgp.AsPath {
	arr := arrayField(m, key)
	if arr == nil {
		return nil
	}
	var sequence, set []bgp.ASN
	for _, node := range arr {
		switch v := node.(type) {
		case float64:
			sequence = append(sequence, bgp.NewASN4(uint32(v)))
		case []any:
			set = nil
			for _, sv := range v {
				if n, ok := sv.(float64); ok {
					set = append(set, bgp.NewASN4(uint32(n)))
				}
			}
		}
	}
	segments := []bgp.AsPathSegment{{Type: bgp.AsSequence, ASNs: sequence}}
	if len(set) > 0 {
		segments = append(segments, bgp.AsPathSegment{Type: bgp.AsSet, ASNs: set})
	}
	path := bgp.AsPath{Segments: segments}
	return &path
}

func originASNs(p *bgp.AsPath) []bgp.ASN {
	if p == nil {
		return nil
	}
	return p.OriginASNs()
}

func originField(m map[string]any) (*bgp.OriginValue, error) {
	s := stringField(m, "origin")
	if s == "" {
		return nil, nil
	}
	var o bgp.OriginValue
	switch strings.ToLower(s) {
	case "igp":
		o = bgp.OriginIGP
	case "egp":
		o = bgp.OriginEGP
	case "incomplete":
		o = bgp.OriginIncomplete
	default:
		return nil, fmt.Errorf("rislive: unknown origin type %q", s)
	}
	return &o, nil
}

// communityField decodes "community": [[asn, value], ...] pairs. RIS Live's
// global-admin field is wider than the 2-byte field a standard community
// carries on the wire; values that don't fit are truncated rather than
// rejected, since this is a best-effort live-feed decode, not a wire decode.
func communityField(m map[string]any, key string) []bgp.Community {
	arr := arrayField(m, key)
	if arr == nil {
		return nil
	}
	comms := make([]bgp.Community, 0, len(arr))
	for _, item := range arr {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			continue
		}
		asn, ok1 := pair[0].(float64)
		val, ok2 := pair[1].(float64)
		if !ok1 || !ok2 {
			continue
		}
		comms = append(comms, bgp.Community{ASN: uint16(asn), Value: uint16(val)})
	}
	if len(comms) == 0 {
		return nil
	}
	return comms
}

// aggregatorField decodes the "asn:ip" form RIS Live uses for the
// AGGREGATOR attribute.
func aggregatorField(m map[string]any) (*bgp.ASN, *netip.Addr, error) {
	s := stringField(m, "aggregator")
	if s == "" {
		return nil, nil, nil
	}
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("rislive: malformed aggregator %q", s)
	}
	asnValue, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return nil, nil, fmt.Errorf("rislive: malformed aggregator asn: %w", err)
	}
	ip, err := netip.ParseAddr(parts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("rislive: malformed aggregator address: %w", err)
	}
	asn := bgp.NewASN4(uint32(asnValue))
	return &asn, &ip, nil
}

// parsePrefix rejects RIS Live's "eor" end-of-RIB sentinel the same way the
// original does: as an error, since it carries no real prefix to elementize.
func parsePrefix(s string) (bgp.NetworkPrefix, error) {
	if s == "eor" {
		return bgp.NetworkPrefix{}, fmt.Errorf("rislive: %q is an end-of-rib marker, not a prefix", s)
	}
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return bgp.NetworkPrefix{}, fmt.Errorf("rislive: invalid prefix %q: %w", s, err)
	}
	return bgp.NewPrefix(p.Addr(), p.Bits())
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func floatField(m map[string]any, key string) float64 {
	if v, ok := m[key]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return 0
}

func uint32PtrField(m map[string]any, key string) *uint32 {
	v, ok := m[key]
	if !ok {
		return nil
	}
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	u := uint32(f)
	return &u
}

func arrayField(m map[string]any, key string) []any {
	if v, ok := m[key]; ok {
		if a, ok := v.([]any); ok {
			return a
		}
	}
	return nil
}

func stringArrayField(m map[string]any, key string) []string {
	arr := arrayField(m, key)
	if arr == nil {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
