package rdapbootstrap

type ipRule struct{}

func (ipRule) parse(raw string) (Handle, error) {
	n, err := ParseNetwork(raw)
	if err != nil {
		return Handle{}, err
	}
	return Handle{Net: n}, nil
}

func (ipRule) document(h Handle) string {
	if h.Net.Family() == FamilyV6 {
		return docIPv6
	}
	return docIPv4
}

// Weight is the number of host bits of the enclosing network, so the
// smallest network wins.
func (ipRule) weigh(value string, h Handle) (uint64, bool) {
	n, err := ParseNetworkAsPrefix(value)
	if err != nil {
		return 0, false
	}
	if n.Equal(h.Net) {
		return 0, true
	}
	if n.Contains(h.Net) {
		return uint64(n.Size()), true
	}
	return 0, false
}
