// Package endpoint implements the immutable, totally-ordered shard
// identifier contihash routes keys to: an IPv4 address plus a port.
//
// © 2025 contihash authors. MIT License.
package endpoint

import (
	"errors"
	"fmt"
	"net/netip"
)

// ErrInvalidAddress is returned by Parse when the input is not a well-formed
// "a.b.c.d:port" string.
var ErrInvalidAddress = errors.New("endpoint: invalid address")

// Endpoint identifies a backend shard by IPv4 address and port. Zero value
// is not a valid endpoint; always construct via Parse or New.
type Endpoint struct {
	addr [4]byte
	port uint16
}

// New builds an Endpoint from an already-parsed IPv4 address and port.
func New(addr netip.Addr, port uint16) Endpoint {
	return Endpoint{addr: addr.As4(), port: port}
}

// Parse parses "a.b.c.d:port" into an Endpoint. Leading zeroes and
// whitespace are rejected to keep canonical string round-trips exact.
func Parse(s string) (Endpoint, error) {
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, s, err)
	}
	if !ap.Addr().Is4() {
		return Endpoint{}, fmt.Errorf("%w: %s: not IPv4", ErrInvalidAddress, s)
	}
	e := Endpoint{addr: ap.Addr().As4(), port: ap.Port()}
	if e.String() != s {
		return Endpoint{}, fmt.Errorf("%w: %s: not in canonical form", ErrInvalidAddress, s)
	}
	return e, nil
}

// String renders the canonical "a.b.c.d:port" form.
func (e Endpoint) String() string {
	return fmt.Sprintf("%d.%d.%d.%d:%d", e.addr[0], e.addr[1], e.addr[2], e.addr[3], e.port)
}

// Equal reports field-wise equality.
func (e Endpoint) Equal(o Endpoint) bool {
	return e.addr == o.addr && e.port == o.port
}

// Less defines the total order used to keep the shard list sorted: address
// first, then port.
func (e Endpoint) Less(o Endpoint) bool {
	for i := range e.addr {
		if e.addr[i] != o.addr[i] {
			return e.addr[i] < o.addr[i]
		}
	}
	return e.port < o.port
}

// IsZero reports whether e is the zero value (never a valid endpoint).
func (e Endpoint) IsZero() bool {
	return e.addr == [4]byte{} && e.port == 0
}
