package rdapbootstrap

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// DefaultClientIPHeader is set by Cloudflare in front of the service.
const DefaultClientIPHeader = "CF-Connecting-IP"

// identityResolver derives the rate-limit identity of a request.
type identityResolver struct {
	// header is a proxy-supplied client address header that is trusted
	// outright; empty disables it.
	header string
	// v6Prefix aggregates IPv6 clients to this prefix length; 0 or 128
	// keeps full addresses.
	v6Prefix int
}

// identity picks, in order: the trusted header, the leftmost
// X-Forwarded-For entry, then the transport peer address.
func (r identityResolver) identity(req *http.Request) string {
	var id string
	if r.header != "" {
		id = strings.TrimSpace(req.Header.Get(r.header))
	}
	if id == "" {
		if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			id = strings.TrimSpace(first)
		}
	}
	if id == "" {
		id = req.RemoteAddr
		if host, _, err := net.SplitHostPort(id); err == nil {
			id = host
		}
	}
	return r.aggregate(id)
}

func (r identityResolver) aggregate(id string) string {
	addr, err := netip.ParseAddr(id)
	if err != nil {
		// not an address; use the string verbatim
		return id
	}
	addr = addr.Unmap().WithZone("")
	if addr.Is6() && r.v6Prefix > 0 && r.v6Prefix < 128 {
		return netip.PrefixFrom(addr, r.v6Prefix).Masked().String()
	}
	return addr.String()
}

// bearerToken extracts the token of an "Authorization: Bearer" header.
func bearerToken(req *http.Request) (string, bool) {
	auth := req.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
