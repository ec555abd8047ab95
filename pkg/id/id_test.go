package id

import (
	"encoding/json"
	"testing"
)

func TestNextMonotonicSameMillisecond(t *testing.T) {
	orig := NowMs
	defer func() { NowMs = orig }()
	NowMs = func() int64 { return 1000 }

	g := NewGenerator()
	a := g.Next()
	b := g.Next()
	if a.Compare(b) >= 0 {
		t.Fatalf("ids not increasing within same ms: %s vs %s", a, b)
	}
}

func TestNextClockRegression(t *testing.T) {
	orig := NowMs
	defer func() { NowMs = orig }()
	now := int64(5000)
	NowMs = func() int64 { return now }

	g := NewGenerator()
	a := g.Next()
	now = 4000 // clock goes backwards
	b := g.Next()
	if a.Compare(b) >= 0 {
		t.Fatalf("ids regressed with clock: %s vs %s", a, b)
	}
}

func TestParseRoundTrip(t *testing.T) {
	g := NewGenerator()
	a := g.Next()
	s := a.String()
	if len(s) != 32 {
		t.Fatalf("hex length: %d", len(s))
	}
	back, err := Parse(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if back != a {
		t.Fatalf("round trip mismatch: %s vs %s", back, a)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "zz", "0123", string(make([]byte, 32))} {
		if _, err := Parse(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestIsZero(t *testing.T) {
	if !Zero.IsZero() {
		t.Fatalf("zero should be zero")
	}
	g := NewGenerator()
	if g.Next().IsZero() {
		t.Fatalf("generated id should not be zero")
	}
}

func TestJSONUsesHexForm(t *testing.T) {
	want := NewGenerator().Next()
	b, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"`+want.String()+`"` {
		t.Fatalf("marshaled form %s", b)
	}
	var got ID
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != want {
		t.Fatalf("round trip: got %s want %s", got, want)
	}
}
