package rdapbootstrap

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

// Family is an IP address family.
type Family int

const (
	FamilyV4 Family = 4
	FamilyV6 Family = 6
)

func (f Family) String() string {
	switch f {
	case FamilyV4:
		return "ipv4"
	case FamilyV6:
		return "ipv6"
	default:
		return "unknown"
	}
}

// ParseError reports a handle or registry value that could not be parsed.
type ParseError struct {
	Kind  string
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Kind, e.Input, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Kind, e.Input)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Network is either a single IP address or a CIDR network. The zero value is
// not valid.
type Network struct {
	prefix netip.Prefix
	isNet  bool
}

// ParseNetwork parses s as a bare address or as addr/prefix. Host bits of a
// network are cleared and IPv4-mapped IPv6 input is reduced to IPv4.
func ParseNetwork(s string) (Network, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Network{}, &ParseError{Kind: "ip", Input: s, Err: errors.New("empty")}
	}
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return Network{}, &ParseError{Kind: "ip", Input: s, Err: err}
		}
		if p.Addr().Is4In6() && p.Bits() >= 96 {
			p = netip.PrefixFrom(p.Addr().Unmap(), p.Bits()-96)
		}
		return Network{prefix: p.Masked(), isNet: true}, nil
	}
	a, err := netip.ParseAddr(s)
	if err != nil {
		return Network{}, &ParseError{Kind: "ip", Input: s, Err: err}
	}
	if a.Zone() != "" {
		return Network{}, &ParseError{Kind: "ip", Input: s, Err: errors.New("zoned addresses are not supported")}
	}
	a = a.Unmap()
	return Network{prefix: netip.PrefixFrom(a, a.BitLen())}, nil
}

// ParseNetworkAsPrefix is ParseNetwork, except that a bare address becomes a
// full-length network. Registry values are always read this way.
func ParseNetworkAsPrefix(s string) (Network, error) {
	n, err := ParseNetwork(s)
	if err != nil {
		return Network{}, err
	}
	n.isNet = true
	return n, nil
}

func (n Network) IsValid() bool { return n.prefix.IsValid() }

// IsNetwork reports whether n was given with a prefix length.
func (n Network) IsNetwork() bool { return n.isNet }

func (n Network) Addr() netip.Addr { return n.prefix.Addr() }

func (n Network) Family() Family {
	if n.prefix.Addr().Is4() {
		return FamilyV4
	}
	return FamilyV6
}

// Bits is the width of the address family: 32 or 128.
func (n Network) Bits() int { return n.prefix.Addr().BitLen() }

// Prefix returns the prefix length of a network, or -1 for a bare address.
func (n Network) Prefix() int {
	if !n.isNet {
		return -1
	}
	return n.prefix.Bits()
}

// Equal reports whether n and o are the same address, or the same network
// with the same prefix length.
func (n Network) Equal(o Network) bool {
	return n.isNet == o.isNet && n.prefix == o.prefix
}

// Contains reports whether o lies entirely inside the network n. A bare
// address contains nothing.
func (n Network) Contains(o Network) bool {
	if !n.isNet || !o.IsValid() || n.Family() != o.Family() {
		return false
	}
	if o.prefix.Bits() < n.prefix.Bits() {
		return false
	}
	return n.prefix.Contains(o.prefix.Addr())
}

// Size is the number of host bits in the network: Bits() - Prefix().
func (n Network) Size() int {
	if !n.isNet {
		return 0
	}
	return n.Bits() - n.prefix.Bits()
}

func (n Network) String() string {
	if !n.prefix.IsValid() {
		return "invalid"
	}
	if n.isNet {
		return n.prefix.String()
	}
	return n.prefix.Addr().String()
}
