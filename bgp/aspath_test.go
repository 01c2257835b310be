package bgp

import "testing"

func seq(asns ...uint32) AsPathSegment {
	out := make([]ASN, len(asns))
	for i, a := range asns {
		out[i] = NewASN4(a)
	}
	return AsPathSegment{Type: AsSequence, ASNs: out}
}

func TestAsPathOriginASNSequence(t *testing.T) {
	p := AsPath{Segments: []AsPathSegment{seq(100, 200, 300)}}
	origin := p.OriginASN()
	if origin == nil || origin.Value != 300 {
		t.Fatalf("expected origin 300, got %v", origin)
	}
}

func TestAsPathOriginASNAmbiguousSet(t *testing.T) {
	p := AsPath{Segments: []AsPathSegment{
		seq(100),
		{Type: AsSet, ASNs: []ASN{NewASN4(200), NewASN4(300)}},
	}}
	if origin := p.OriginASN(); origin != nil {
		t.Fatalf("expected nil origin for multi-member AS_SET, got %v", origin)
	}
}

func TestAsPathOriginASNSingularSet(t *testing.T) {
	p := AsPath{Segments: []AsPathSegment{
		seq(100),
		{Type: AsSet, ASNs: []ASN{NewASN4(200)}},
	}}
	origin := p.OriginASN()
	if origin == nil || origin.Value != 200 {
		t.Fatalf("expected origin 200, got %v", origin)
	}
}

func TestAsPathOriginASNsSequence(t *testing.T) {
	p := AsPath{Segments: []AsPathSegment{seq(1, 2, 3, 5)}}
	got := p.OriginASNs()
	if len(got) != 1 || got[0].Value != 5 {
		t.Fatalf("expected [5], got %v", got)
	}
}

func TestAsPathOriginASNsMultiMemberSet(t *testing.T) {
	p := AsPath{Segments: []AsPathSegment{
		seq(1, 2, 3, 5),
		{Type: AsSet, ASNs: []ASN{NewASN4(7), NewASN4(8)}},
	}}
	got := p.OriginASNs()
	if len(got) != 2 || got[0].Value != 7 || got[1].Value != 8 {
		t.Fatalf("expected [7 8], got %v", got)
	}
}

func TestAsPathOriginASNsConfedSetYieldsNone(t *testing.T) {
	p := AsPath{Segments: []AsPathSegment{
		seq(100),
		{Type: ConfedSet, ASNs: []ASN{NewASN4(200), NewASN4(300)}},
	}}
	if got := p.OriginASNs(); got != nil {
		t.Fatalf("expected no origin for trailing AS_CONFED_SET, got %v", got)
	}
}

func TestMergeAS4PathReplacesSequenceTail(t *testing.T) {
	asPath := AsPath{Segments: []AsPathSegment{seq(uint32(ASTrans), uint32(ASTrans), 300)}}
	as4Path := AsPath{Segments: []AsPathSegment{seq(64512, 64513)}}

	merged := MergeAS4Path(&asPath, &as4Path)
	if len(merged.Segments) != 1 {
		t.Fatalf("expected one segment, got %d", len(merged.Segments))
	}
	got := merged.Segments[0].ASNs
	want := []uint32{uint32(ASTrans), 64512, 64513}
	if len(got) != len(want) {
		t.Fatalf("expected %d ASNs, got %d: %v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Value != w {
			t.Fatalf("asn %d: expected %d, got %d", i, w, got[i].Value)
		}
	}
}

func TestMergeAS4PathLongerAs4PathIsIgnored(t *testing.T) {
	asPath := AsPath{Segments: []AsPathSegment{seq(100, 200)}}
	as4Path := AsPath{Segments: []AsPathSegment{seq(100, 200, 300)}}

	merged := MergeAS4Path(&asPath, &as4Path)
	if merged.RouteLen() != 2 {
		t.Fatalf("expected AS_PATH kept as-is (len 2), got len %d", merged.RouteLen())
	}
}

func TestMergeAS4PathNilAs4Path(t *testing.T) {
	asPath := AsPath{Segments: []AsPathSegment{seq(100, 200)}}
	merged := MergeAS4Path(&asPath, nil)
	if merged.RouteLen() != 2 {
		t.Fatalf("expected AS_PATH unchanged, got len %d", merged.RouteLen())
	}
}

func TestAsPathStringRendersSetBraces(t *testing.T) {
	p := AsPath{Segments: []AsPathSegment{
		seq(100, 200),
		{Type: AsSet, ASNs: []ASN{NewASN4(300), NewASN4(400)}},
	}}
	got := p.String()
	want := "100 200 {300,400}"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
