// lookup.go
package rdapbootstrap

import (
	"context"
	"net/netip"
	"regexp"
	"strings"
)

var reASN = regexp.MustCompile(`^(?i:AS)?\d+$`)

// DetectObjectType guesses the type of a bare query string.
func DetectObjectType(q string) ObjectType {
	s := strings.TrimSpace(q)

	// 1) ASN: "AS15169" or "15169"
	if reASN.MatchString(s) {
		return TypeAutnum
	}

	// 2) IP or CIDR
	if _, err := netip.ParsePrefix(s); err == nil {
		return TypeIP
	}
	if _, err := netip.ParseAddr(s); err == nil {
		return TypeIP
	}

	// 3) Entity handles carry a "-TAG" suffix and no dots (e.g. "ABC123-ARIN").
	if strings.Contains(s, "-") && !strings.Contains(s, ".") {
		return TypeEntity
	}

	// 4) Default: treat as a domain name
	return TypeDomain
}

// Lookup auto-detects the query type and resolves it.
func (r *Redirector) Lookup(ctx context.Context, q string) (*Resolution, error) {
	q = strings.TrimSpace(q)
	return r.Resolve(ctx, DetectObjectType(q), q)
}
