// Package filter implements the closed set of BgpElem predicates: a filter
// compiles once (surfacing bad CIDRs/regexes as an error at that point, not
// while iterating) and is then cheap to evaluate per element.
//
// Grounded on original_source's filter.rs: the same filter-type vocabulary
// (origin_asn(s), prefix(es) with _super/_sub/_super_sub modifiers,
// peer_ip(s), peer_asn(s), type, ts_start/ts_end, as_path, community,
// ip_version), the same single-value "!" negation convention (rejected for
// ts_start/ts_end, and rejected as double negation when doubled), and the
// same multi-value list convention (comma-separated, all-or-none negation).
package filter

import (
	"fmt"
	"net/netip"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/route-beacon/mrtkit/elem"
)

// Filter is a single compiled predicate over a BgpElem.
type Filter interface {
	Match(e elem.BgpElem) bool
}

// Set is an AND-combination of filters: an element matches only if every
// filter in the set matches.
type Set []Filter

func (s Set) Match(e elem.BgpElem) bool {
	for _, f := range s {
		if !f.Match(e) {
			return false
		}
	}
	return true
}

// Add compiles filterType/filterValue and appends it to s. Compilation
// errors are returned immediately rather than surfacing the first time an
// element is evaluated.
func (s *Set) Add(filterType, filterValue string) error {
	f, err := Compile(filterType, filterValue)
	if err != nil {
		return err
	}
	*s = append(*s, f)
	return nil
}

// MatchType controls how a prefix filter widens or narrows its match.
type MatchType int

const (
	Exact MatchType = iota
	IncludeSuper
	IncludeSub
	IncludeSuperSub
)

type negated struct{ inner Filter }

func (n negated) Match(e elem.BgpElem) bool { return !n.inner.Match(e) }

type originAsnFilter struct{ asns []uint32 }

func (f originAsnFilter) Match(e elem.BgpElem) bool {
	for _, origin := range e.OriginASNs {
		for _, want := range f.asns {
			if origin.Value == want {
				return true
			}
		}
	}
	return false
}

type peerAsnFilter struct{ asns []uint32 }

func (f peerAsnFilter) Match(e elem.BgpElem) bool {
	for _, want := range f.asns {
		if e.PeerASN.Value == want {
			return true
		}
	}
	return false
}

type peerIPFilter struct{ ips []netip.Addr }

func (f peerIPFilter) Match(e elem.BgpElem) bool {
	for _, ip := range f.ips {
		if e.PeerIP == ip {
			return true
		}
	}
	return false
}

type prefixFilter struct {
	prefixes []netip.Prefix
	matchT   MatchType
}

func (f prefixFilter) Match(e elem.BgpElem) bool {
	input := netip.PrefixFrom(e.Prefix.Addr, e.Prefix.Length)
	for _, p := range f.prefixes {
		if prefixMatches(p, input, f.matchT) {
			return true
		}
	}
	return false
}

// prefixMatches reports whether input satisfies t against filterPrefix, the
// CIDR given to the filter. IncludeSuper means input may be a super-prefix
// (wider, containing) filterPrefix; IncludeSub means input may be a
// sub-prefix (narrower, contained by) filterPrefix.
func prefixMatches(filterPrefix, input netip.Prefix, t MatchType) bool {
	if filterPrefix.Addr().Is4() != input.Addr().Is4() {
		return false
	}
	exact := input == filterPrefix
	switch t {
	case Exact:
		return exact
	case IncludeSuper:
		return exact || containsPrefix(input, filterPrefix)
	case IncludeSub:
		return exact || containsPrefix(filterPrefix, input)
	case IncludeSuperSub:
		return exact || containsPrefix(input, filterPrefix) || containsPrefix(filterPrefix, input)
	default:
		return exact
	}
}

// containsPrefix reports whether wider is a super-prefix of (or equal to) narrower.
func containsPrefix(wider, narrower netip.Prefix) bool {
	return wider.Bits() <= narrower.Bits() && wider.Contains(narrower.Addr())
}

type elemTypeFilter struct{ want elem.ElemType }

func (f elemTypeFilter) Match(e elem.BgpElem) bool { return e.Type == f.want }

type ipVersionFilter struct{ v4 bool }

func (f ipVersionFilter) Match(e elem.BgpElem) bool { return e.Prefix.Addr.Is4() == f.v4 }

type tsStartFilter struct{ ts float64 }

func (f tsStartFilter) Match(e elem.BgpElem) bool { return e.Timestamp >= f.ts }

type tsEndFilter struct{ ts float64 }

func (f tsEndFilter) Match(e elem.BgpElem) bool { return e.Timestamp <= f.ts }

type asPathFilter struct{ re *regexp.Regexp }

func (f asPathFilter) Match(e elem.BgpElem) bool {
	if e.AsPath == nil {
		return false
	}
	return f.re.MatchString(e.AsPath.String())
}

type communityFilter struct{ re *regexp.Regexp }

func (f communityFilter) Match(e elem.BgpElem) bool {
	for _, c := range e.Communities {
		if f.re.MatchString(c.String()) {
			return true
		}
	}
	return false
}

// Compile parses one (filterType, filterValue) pair into a Filter.
// Compilation errors (a bad CIDR, a bad regex, an unknown filter type) are
// returned here, at add-time — never deferred to the first Match call.
func Compile(filterType, filterValue string) (Filter, error) {
	switch filterType {
	case "origin_asns", "prefixes", "prefixes_super", "prefixes_sub", "prefixes_super_sub", "peer_ips", "peer_asns":
		return compileBase(filterType, filterValue)
	}

	if filterType == "ts_start" || filterType == "start_ts" || filterType == "ts_end" || filterType == "end_ts" {
		if strings.HasPrefix(filterValue, "!") {
			return nil, fmt.Errorf("filter: timestamp filter %q does not support negation", filterType)
		}
		return compileBase(filterType, filterValue)
	}

	neg, actual, err := splitNegation(filterValue)
	if err != nil {
		return nil, err
	}
	base, err := compileBase(filterType, actual)
	if err != nil {
		return nil, err
	}
	if neg {
		return negated{inner: base}, nil
	}
	return base, nil
}

func splitNegation(value string) (negatedFlag bool, actual string, err error) {
	if !strings.HasPrefix(value, "!") {
		return false, value, nil
	}
	rest := value[1:]
	if strings.HasPrefix(rest, "!") {
		return false, "", fmt.Errorf("filter: invalid filter value %q: double negation is not allowed", value)
	}
	return true, rest, nil
}

func compileBase(filterType, filterValue string) (Filter, error) {
	switch filterType {
	case "origin_asn":
		v, err := strconv.ParseUint(filterValue, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("filter: cannot parse origin asn from %q", filterValue)
		}
		return originAsnFilter{asns: []uint32{uint32(v)}}, nil
	case "origin_asns":
		asns, neg, err := parseASNList(filterValue)
		if err != nil {
			return nil, err
		}
		f := Filter(originAsnFilter{asns: asns})
		if neg {
			f = negated{inner: f}
		}
		return f, nil
	case "prefix", "prefix_super", "prefix_sub", "prefix_super_sub":
		p, err := netip.ParsePrefix(filterValue)
		if err != nil {
			return nil, fmt.Errorf("filter: cannot parse prefix from %q", filterValue)
		}
		return prefixFilter{prefixes: []netip.Prefix{p}, matchT: prefixMatchTypeFor(filterType)}, nil
	case "prefixes", "prefixes_super", "prefixes_sub", "prefixes_super_sub":
		prefixes, neg, err := parsePrefixList(filterValue)
		if err != nil {
			return nil, err
		}
		f := Filter(prefixFilter{prefixes: prefixes, matchT: prefixMatchTypeFor(singularPrefixType(filterType))})
		if neg {
			f = negated{inner: f}
		}
		return f, nil
	case "peer_ip":
		ip, err := netip.ParseAddr(filterValue)
		if err != nil {
			return nil, fmt.Errorf("filter: cannot parse peer ip from %q", filterValue)
		}
		return peerIPFilter{ips: []netip.Addr{ip}}, nil
	case "peer_ips":
		ips, neg, err := parseIPList(filterValue)
		if err != nil {
			return nil, err
		}
		f := Filter(peerIPFilter{ips: ips})
		if neg {
			f = negated{inner: f}
		}
		return f, nil
	case "peer_asn":
		v, err := strconv.ParseUint(filterValue, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("filter: cannot parse peer asn from %q", filterValue)
		}
		return peerAsnFilter{asns: []uint32{uint32(v)}}, nil
	case "peer_asns":
		asns, neg, err := parseASNList(filterValue)
		if err != nil {
			return nil, err
		}
		f := Filter(peerAsnFilter{asns: asns})
		if neg {
			f = negated{inner: f}
		}
		return f, nil
	case "type":
		switch filterValue {
		case "w", "withdraw", "withdrawal":
			return elemTypeFilter{want: elem.Withdraw}, nil
		case "a", "announce", "announcement":
			return elemTypeFilter{want: elem.Announce}, nil
		default:
			return nil, fmt.Errorf("filter: cannot parse elem type from %q", filterValue)
		}
	case "ts_start", "start_ts":
		ts, err := parseTimestamp(filterValue)
		if err != nil {
			return nil, fmt.Errorf("filter: cannot parse ts_start filter from %q", filterValue)
		}
		return tsStartFilter{ts: ts}, nil
	case "ts_end", "end_ts":
		ts, err := parseTimestamp(filterValue)
		if err != nil {
			return nil, fmt.Errorf("filter: cannot parse ts_end filter from %q", filterValue)
		}
		return tsEndFilter{ts: ts}, nil
	case "as_path":
		re, err := regexp.Compile(filterValue)
		if err != nil {
			return nil, fmt.Errorf("filter: cannot parse as_path regex from %q: %w", filterValue, err)
		}
		return asPathFilter{re: re}, nil
	case "community":
		re, err := regexp.Compile(filterValue)
		if err != nil {
			return nil, fmt.Errorf("filter: cannot parse community regex from %q: %w", filterValue, err)
		}
		return communityFilter{re: re}, nil
	case "ip_version", "ip":
		switch filterValue {
		case "4", "v4", "ipv4":
			return ipVersionFilter{v4: true}, nil
		case "6", "v6", "ipv6":
			return ipVersionFilter{v4: false}, nil
		default:
			return nil, fmt.Errorf("filter: cannot parse ip_version from %q", filterValue)
		}
	default:
		return nil, fmt.Errorf("filter: unknown filter type %q", filterType)
	}
}

func singularPrefixType(plural string) string {
	switch plural {
	case "prefixes":
		return "prefix"
	case "prefixes_super":
		return "prefix_super"
	case "prefixes_sub":
		return "prefix_sub"
	case "prefixes_super_sub":
		return "prefix_super_sub"
	default:
		return "prefix"
	}
}

func prefixMatchTypeFor(filterType string) MatchType {
	switch filterType {
	case "prefix_super":
		return IncludeSuper
	case "prefix_sub":
		return IncludeSub
	case "prefix_super_sub":
		return IncludeSuperSub
	default:
		return Exact
	}
}

func parseASNList(value string) (asns []uint32, negatedAll bool, err error) {
	var sawNegated, sawPositive bool
	for _, part := range strings.Split(strings.ReplaceAll(value, " ", ""), ",") {
		if part == "" {
			continue
		}
		neg, actual, err := splitNegation(part)
		if err != nil {
			return nil, false, err
		}
		if neg {
			sawNegated = true
		} else {
			sawPositive = true
		}
		if sawNegated && sawPositive {
			return nil, false, fmt.Errorf("filter: cannot mix positive and negative values in the same filter")
		}
		v, err := strconv.ParseUint(actual, 10, 32)
		if err != nil {
			return nil, false, fmt.Errorf("filter: cannot parse ASN from %q", actual)
		}
		asns = append(asns, uint32(v))
	}
	if len(asns) == 0 {
		return nil, false, fmt.Errorf("filter: ASN list filter requires at least one ASN")
	}
	return asns, sawNegated, nil
}

func parsePrefixList(value string) (prefixes []netip.Prefix, negatedAll bool, err error) {
	var sawNegated, sawPositive bool
	for _, part := range strings.Split(strings.ReplaceAll(value, " ", ""), ",") {
		if part == "" {
			continue
		}
		neg, actual, err := splitNegation(part)
		if err != nil {
			return nil, false, err
		}
		if neg {
			sawNegated = true
		} else {
			sawPositive = true
		}
		if sawNegated && sawPositive {
			return nil, false, fmt.Errorf("filter: cannot mix positive and negative values in the same filter")
		}
		p, err := netip.ParsePrefix(actual)
		if err != nil {
			return nil, false, fmt.Errorf("filter: cannot parse prefix from %q", actual)
		}
		prefixes = append(prefixes, p)
	}
	if len(prefixes) == 0 {
		return nil, false, fmt.Errorf("filter: prefix list filter requires at least one prefix")
	}
	return prefixes, sawNegated, nil
}

func parseIPList(value string) (ips []netip.Addr, negatedAll bool, err error) {
	var sawNegated, sawPositive bool
	for _, part := range strings.Split(strings.ReplaceAll(value, " ", ""), ",") {
		if part == "" {
			continue
		}
		neg, actual, err := splitNegation(part)
		if err != nil {
			return nil, false, err
		}
		if neg {
			sawNegated = true
		} else {
			sawPositive = true
		}
		if sawNegated && sawPositive {
			return nil, false, fmt.Errorf("filter: cannot mix positive and negative values in the same filter")
		}
		ip, err := netip.ParseAddr(actual)
		if err != nil {
			return nil, false, fmt.Errorf("filter: cannot parse IP address from %q", actual)
		}
		ips = append(ips, ip)
	}
	if len(ips) == 0 {
		return nil, false, fmt.Errorf("filter: IP list filter requires at least one IP address")
	}
	return ips, sawNegated, nil
}

func parseTimestamp(value string) (float64, error) {
	if v, err := strconv.ParseFloat(value, 64); err == nil {
		return v, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return float64(t.Unix()), nil
	}
	return 0, fmt.Errorf("cannot parse %q as a timestamp", value)
}
