package rdapbootstrap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseNetwork(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		family  Family
		prefix  int
		network bool
	}{
		{in: "192.0.2.1", want: "192.0.2.1", family: FamilyV4, prefix: -1},
		{in: "10.1.2.3/8", want: "10.0.0.0/8", family: FamilyV4, prefix: 8, network: true},
		{in: " 2001:db8::1 ", want: "2001:db8::1", family: FamilyV6, prefix: -1},
		{in: "2001:db8:ffff::/32", want: "2001:db8::/32", family: FamilyV6, prefix: 32, network: true},
		{in: "::ffff:192.0.2.1", want: "192.0.2.1", family: FamilyV4, prefix: -1},
		{in: "::ffff:10.0.0.0/104", want: "10.0.0.0/8", family: FamilyV4, prefix: 8, network: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, err := ParseNetwork(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, n.String())
			require.Equal(t, tt.family, n.Family())
			require.Equal(t, tt.prefix, n.Prefix())
			require.Equal(t, tt.network, n.IsNetwork())
		})
	}
}

func TestParseNetwork_Invalid(t *testing.T) {
	for _, in := range []string{"", "10.0.0", "10.0.0.0/33", "fe80::1%eth0", "example.com", "::/129"} {
		_, err := ParseNetwork(in)
		var pe *ParseError
		require.Truef(t, errors.As(err, &pe), "%q: want *ParseError, got %v", in, err)
		require.Equal(t, "ip", pe.Kind)
	}
}

func TestNetwork_Bits(t *testing.T) {
	v4, _ := ParseNetwork("10.0.0.0/8")
	v6, _ := ParseNetwork("2001:db8::/32")
	require.Equal(t, 32, v4.Bits())
	require.Equal(t, 128, v6.Bits())
	require.Equal(t, 24, v4.Size())
	require.Equal(t, 96, v6.Size())
}

func TestNetwork_EqualAndContains(t *testing.T) {
	p := func(s string) Network {
		n, err := ParseNetworkAsPrefix(s)
		require.NoError(t, err)
		return n
	}
	a := func(s string) Network {
		n, err := ParseNetwork(s)
		require.NoError(t, err)
		return n
	}

	// equality needs the same kind and prefix
	require.True(t, a("10.0.0.0/8").Equal(p("10.0.0.0/8")))
	require.False(t, a("192.0.2.1").Equal(p("192.0.2.1")))
	require.True(t, a("192.0.2.1").Equal(a("192.0.2.1")))

	require.True(t, p("10.0.0.0/8").Contains(a("10.1.2.3")))
	require.True(t, p("10.0.0.0/8").Contains(a("10.1.0.0/16")))
	require.True(t, p("10.0.0.0/8").Contains(a("10.0.0.0/8")))
	require.False(t, p("10.1.0.0/16").Contains(a("10.0.0.0/8")))
	require.False(t, p("10.0.0.0/8").Contains(a("11.0.0.1")))
	require.True(t, p("2001:db8::/32").Contains(a("2001:db8:1::1")))

	// families never mix
	require.False(t, p("::/0").Contains(a("10.0.0.1")))
	require.False(t, p("0.0.0.0/0").Contains(a("2001:db8::1")))

	// a bare address contains nothing
	require.False(t, a("10.0.0.1").Contains(a("10.0.0.1")))
}
