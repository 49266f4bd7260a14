package rdapbootstrap

import (
	"errors"
	"regexp"
	"strings"
)

var reObjectTag = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

type entityRule struct{}

// Only the trailing "-" segment of an entity handle selects the registry.
func (entityRule) parse(raw string) (Handle, error) {
	parts := strings.Split(raw, "-")
	tag := parts[len(parts)-1]
	if !reObjectTag.MatchString(tag) {
		return Handle{}, &ParseError{Kind: "entity", Input: raw, Err: errors.New("missing or malformed object tag")}
	}
	return Handle{Tag: tag}, nil
}

func (entityRule) document(Handle) string { return docObjectTags }

func (entityRule) weigh(value string, h Handle) (uint64, bool) {
	return 0, value != "" && strings.EqualFold(value, h.Tag)
}
