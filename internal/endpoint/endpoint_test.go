package endpoint

import "testing"

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		"10.0.0.1:80",
		"255.255.255.255:65535",
		"0.0.0.0:1",
	}
	for _, s := range cases {
		e, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", s, err)
		}
		if got := e.String(); got != s {
			t.Fatalf("String() = %q, want %q", got, s)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"",
		"10.0.0.1",
		"not-an-address:80",
		"10.0.0.1:notaport",
		"2001:db8::1:80", // IPv6 rejected, endpoints are IPv4 only
		"010.0.0.1:80",   // leading zero
	}
	for _, s := range cases {
		if _, err := Parse(s); err == nil {
			t.Fatalf("Parse(%q): expected error, got none", s)
		}
	}
}

func TestEqual(t *testing.T) {
	a, _ := Parse("10.0.0.1:80")
	b, _ := Parse("10.0.0.1:80")
	c, _ := Parse("10.0.0.1:81")
	if !a.Equal(b) {
		t.Fatalf("expected %v == %v", a, b)
	}
	if a.Equal(c) {
		t.Fatalf("expected %v != %v", a, c)
	}
}

func TestLessTotalOrder(t *testing.T) {
	a, _ := Parse("10.0.0.1:80")
	b, _ := Parse("10.0.0.2:80")
	c, _ := Parse("10.0.0.1:81")

	if !a.Less(b) {
		t.Fatalf("expected %v < %v (address order)", a, b)
	}
	if b.Less(a) {
		t.Fatalf("expected %v !< %v", b, a)
	}
	if !a.Less(c) {
		t.Fatalf("expected %v < %v (port order, same address)", a, c)
	}
	if a.Less(a) {
		t.Fatalf("Less must be irreflexive")
	}
}

func TestIsZero(t *testing.T) {
	var z Endpoint
	if !z.IsZero() {
		t.Fatalf("zero value should report IsZero")
	}
	e, _ := Parse("10.0.0.1:80")
	if e.IsZero() {
		t.Fatalf("parsed endpoint should not be zero")
	}
}
