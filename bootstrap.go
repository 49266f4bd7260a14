package rdapbootstrap

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultBootstrapBase is where IANA publishes the RDAP bootstrap registries.
const DefaultBootstrapBase = "https://data.iana.org/rdap/"

// ObjectType selects the bootstrap document and the matching rule.
type ObjectType int

const (
	TypeDomain ObjectType = iota + 1
	TypeIP
	TypeAutnum
	TypeEntity
)

// ObjectTypes lists every supported type in path-segment order.
var ObjectTypes = []ObjectType{TypeDomain, TypeIP, TypeAutnum, TypeEntity}

func (t ObjectType) String() string {
	switch t {
	case TypeDomain:
		return "domain"
	case TypeIP:
		return "ip"
	case TypeAutnum:
		return "autnum"
	case TypeEntity:
		return "entity"
	default:
		return fmt.Sprintf("ObjectType(%d)", int(t))
	}
}

// ParseObjectType maps a path segment onto an ObjectType. Matching is exact.
func ParseObjectType(s string) (ObjectType, bool) {
	for _, t := range ObjectTypes {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}

// Bootstrap document file names, relative to the bootstrap base URL.
const (
	docDNS        = "dns.json"
	docIPv4       = "ipv4.json"
	docIPv6       = "ipv6.json"
	docASN        = "asn.json"
	docObjectTags = "object-tags.json"
)

// Documents lists all bootstrap documents the service mirrors.
var Documents = []string{docDNS, docIPv4, docIPv6, docASN, docObjectTags}

// documentURL joins base and name, tolerating a missing trailing slash.
func documentURL(base, name string) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + name
}

// Registry is one parsed IANA bootstrap document (RFC 9224).
type Registry struct {
	Version     string
	Publication string
	Description string
	Services    []Service
}

// Service is one entry of a registry's "services" array. Values may overlap
// across services; the matcher resolves that by weight.
type Service struct {
	// Registrants is only present in object-tags.json.
	Registrants []string
	Values      []string
	URLs        []string
}

type bootstrapDocument struct {
	Version     string `json:"version"`
	Publication string `json:"publication"`
	Description string `json:"description"`
	Services    []any  `json:"services"`
}

// DecodeRegistry parses a bootstrap document for t. Services with the wrong
// shape are dropped rather than failing the whole document.
func DecodeRegistry(t ObjectType, body []byte) (*Registry, error) {
	var doc bootstrapDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse bootstrap: %w", err)
	}
	if doc.Services == nil {
		return nil, fmt.Errorf("parse bootstrap: no services array")
	}

	// object-tags.json carries a leading registrant element.
	arity := 2
	if t == TypeEntity {
		arity = 3
	}

	r := &Registry{
		Version:     doc.Version,
		Publication: doc.Publication,
		Description: doc.Description,
		Services:    make([]Service, 0, len(doc.Services)),
	}
	for _, raw := range doc.Services {
		svc, ok := raw.([]any)
		if !ok || len(svc) != arity {
			continue
		}
		var s Service
		if arity == 3 {
			s.Registrants = toStringSlice(svc[0])
			svc = svc[1:]
		}
		s.Values = toStringSlice(svc[0])
		s.URLs = toStringSlice(svc[1])
		if len(s.URLs) == 0 {
			continue
		}
		r.Services = append(r.Services, s)
	}
	return r, nil
}
