package rdapbootstrap

import (
	"errors"
	"strconv"
	"strings"
)

type autnumRule struct{}

func (autnumRule) parse(raw string) (Handle, error) {
	s := strings.TrimSpace(raw)
	if len(s) > 2 && strings.EqualFold(s[:2], "AS") {
		s = s[2:]
	}
	n, err := parseASN(s)
	if err != nil {
		return Handle{}, &ParseError{Kind: "autnum", Input: raw, Err: err}
	}
	return Handle{ASN: n}, nil
}

func (autnumRule) document(Handle) string { return docASN }

// Single numbers are exact; "min-max" ranges weigh their width, so the
// narrowest range wins.
func (autnumRule) weigh(value string, h Handle) (uint64, bool) {
	lo, hi, isRange, ok := parseASNRange(value)
	if !ok {
		return 0, false
	}
	if !isRange {
		return 0, lo == h.ASN
	}
	if h.ASN < lo || h.ASN > hi {
		return 0, false
	}
	return uint64(hi - lo), true
}

func parseASN(s string) (uint32, error) {
	if s == "" {
		return 0, errors.New("empty")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, errors.New("not a decimal number")
		}
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// parseASNRange reads either a single number "12345" or a range "1-1876".
func parseASNRange(s string) (lo, hi uint32, isRange, ok bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '-'); i >= 0 {
		a, err1 := parseASN(strings.TrimSpace(s[:i]))
		b, err2 := parseASN(strings.TrimSpace(s[i+1:]))
		if err1 != nil || err2 != nil || b < a {
			return 0, 0, false, false
		}
		return a, b, true, true
	}
	x, err := parseASN(s)
	if err != nil {
		return 0, 0, false, false
	}
	return x, x, false, true
}
