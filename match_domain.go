package rdapbootstrap

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

var reLDHLabel = regexp.MustCompile(`^[a-z0-9-]+$`)

type domainRule struct{}

func (domainRule) parse(raw string) (Handle, error) {
	name := strings.TrimSuffix(strings.TrimSpace(raw), ".")
	if name == "" {
		return Handle{}, &ParseError{Kind: "domain", Input: raw, Err: errors.New("empty name")}
	}
	if !isASCII(name) {
		a, err := idna.Lookup.ToASCII(name)
		if err != nil {
			return Handle{}, &ParseError{Kind: "domain", Input: raw, Err: err}
		}
		name = a
	}
	name = lower(name)
	labels := strings.Split(name, ".")
	for _, l := range labels {
		if !reLDHLabel.MatchString(l) {
			return Handle{}, &ParseError{Kind: "domain", Input: raw, Err: errors.New("labels must be [a-z0-9-]")}
		}
	}
	return Handle{Domain: name, Parent: strings.Join(labels[1:], ".")}, nil
}

func (domainRule) document(Handle) string { return docDNS }

// An entry equal to the parent zone is exact. Any other ancestor matches
// with weight equal to the number of handle characters it leaves uncovered,
// so the longest matching suffix wins.
func (domainRule) weigh(value string, h Handle) (uint64, bool) {
	v := trimDotLower(strings.TrimSuffix(value, "."))
	if v == "" {
		return 0, false
	}
	if h.Parent != "" && v == h.Parent {
		return 0, true
	}
	if strings.HasSuffix(h.Domain, "."+v) {
		return uint64(len(h.Domain) - len(v)), true
	}
	return 0, false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
