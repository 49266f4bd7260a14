package rdapbootstrap

import (
	"fmt"
	"sort"
	"strings"
)

// Handle is a validated object handle. Only the fields for its Type are set.
type Handle struct {
	Type ObjectType
	// Raw is the handle exactly as it appeared in the request path.
	Raw string

	Domain string // domain: normalised A-label form
	Parent string // domain: Domain minus its first label
	Net    Network
	ASN    uint32
	Tag    string // entity: trailing "-" segment
}

// matchRule is the per-type strategy behind ParseHandle and BestMatch.
type matchRule interface {
	parse(raw string) (Handle, error)
	document(h Handle) string
	// weigh reports whether value covers h and how specifically. Zero is an
	// exact match.
	weigh(value string, h Handle) (weight uint64, ok bool)
}

var matchRules = map[ObjectType]matchRule{
	TypeDomain: domainRule{},
	TypeIP:     ipRule{},
	TypeAutnum: autnumRule{},
	TypeEntity: entityRule{},
}

func ruleFor(t ObjectType) (matchRule, error) {
	r, ok := matchRules[t]
	if !ok {
		return nil, badRequest(fmt.Sprintf("Bad Request: unsupported object type '%s'", t), nil)
	}
	return r, nil
}

// ParseHandle validates raw according to the rules of t.
func ParseHandle(t ObjectType, raw string) (Handle, error) {
	rule, err := ruleFor(t)
	if err != nil {
		return Handle{}, err
	}
	h, err := rule.parse(raw)
	if err != nil {
		return Handle{}, err
	}
	h.Type = t
	h.Raw = raw
	return h, nil
}

// DocumentURL returns the bootstrap document that covers h.
func (h Handle) DocumentURL(base string) string {
	rule, err := ruleFor(h.Type)
	if err != nil {
		return ""
	}
	return documentURL(base, rule.document(h))
}

// Match is the service entry chosen for a handle.
type Match struct {
	Weight  uint64
	Value   string
	Service int
	URLs    []string
}

// BestMatch scans r in document order and returns the most specific service
// covering h. The first weight-0 (exact) candidate ends the scan: nothing
// can sort ahead of it. Otherwise the lowest weight wins, ties going to the
// earliest service. Unparsable values are skipped.
func BestMatch(h Handle, r *Registry) (Match, error) {
	rule, err := ruleFor(h.Type)
	if err != nil {
		return Match{}, err
	}
	var candidates []Match
	for i, svc := range r.Services {
		for _, v := range svc.Values {
			w, ok := rule.weigh(v, h)
			if !ok {
				continue
			}
			m := Match{Weight: w, Value: v, Service: i, URLs: svc.URLs}
			if w == 0 {
				return m, nil
			}
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return Match{}, ErrNoMatch
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Weight < candidates[j].Weight
	})
	return candidates[0], nil
}

// PickBaseURL prefers the first https URL, falling back to the first URL of
// any scheme. The result always ends in "/".
func PickBaseURL(urls []string) string {
	var base string
	for _, u := range urls {
		if strings.HasPrefix(lower(u), "https:") {
			base = u
			break
		}
	}
	if base == "" && len(urls) > 0 {
		base = urls[0]
	}
	if base == "" {
		return ""
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

// RedirectURL builds <base><type>/<handle>[?query]. handle is copied
// verbatim, so callers pass it in its escaped form.
func RedirectURL(base string, t ObjectType, handle, rawQuery string) string {
	u := base + t.String() + "/" + handle
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	return u
}
