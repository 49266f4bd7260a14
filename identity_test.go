package rdapbootstrap

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// ---------- identity ----------

func TestIdentity_Priority(t *testing.T) {
	r := identityResolver{header: DefaultClientIPHeader}

	req := httptest.NewRequest("GET", "/domain/example.com", nil)
	req.RemoteAddr = "198.51.100.7:4321"
	require.Equal(t, "198.51.100.7", r.identity(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	require.Equal(t, "203.0.113.9", r.identity(req))

	req.Header.Set("CF-Connecting-IP", "192.0.2.44")
	require.Equal(t, "192.0.2.44", r.identity(req))

	// without a trusted header only the forwarded-for chain is used
	r.header = ""
	require.Equal(t, "203.0.113.9", r.identity(req))
}

func TestIdentity_IPv6Aggregation(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "[2001:db8:1:2:3:4:5:6]:443"

	require.Equal(t, "2001:db8:1:2:3:4:5:6", identityResolver{}.identity(req))
	require.Equal(t, "2001:db8:1:2::/64", identityResolver{v6Prefix: 64}.identity(req))

	// IPv4 is never aggregated
	req.RemoteAddr = "192.0.2.1:1"
	require.Equal(t, "192.0.2.1", identityResolver{v6Prefix: 64}.identity(req))

	req.RemoteAddr = "[::ffff:192.0.2.1]:1"
	require.Equal(t, "192.0.2.1", identityResolver{v6Prefix: 64}.identity(req))
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	_, ok := bearerToken(req)
	require.False(t, ok)

	req.Header.Set("Authorization", "bearer  s3cret ")
	tok, ok := bearerToken(req)
	require.True(t, ok)
	require.Equal(t, "s3cret", tok)

	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	_, ok = bearerToken(req)
	require.False(t, ok)

	req.Header.Set("Authorization", "Bearer ")
	_, ok = bearerToken(req)
	require.False(t, ok)
}

// ---------- tokens ----------

func TestParseTokens(t *testing.T) {
	set, err := ParseTokens(strings.NewReader("# comment\n\n  alpha \nbeta\n#gamma\n"))
	require.NoError(t, err)
	require.Len(t, set, 2)
	require.True(t, set.Valid("alpha"))
	require.True(t, set.Valid("beta"))
	require.False(t, set.Valid("gamma"))
	require.False(t, set.Valid(""))
}

func TestTokenSource_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens")
	require.NoError(t, os.WriteFile(path, []byte("one\n"), 0o600))

	ts, err := NewTokenSource(path)
	require.NoError(t, err)
	require.True(t, ts.Valid("one"))
	require.False(t, ts.Valid("two"))

	require.NoError(t, os.WriteFile(path, []byte("two\nthree\n"), 0o600))
	require.NoError(t, ts.Reload())
	require.False(t, ts.Valid("one"))
	require.True(t, ts.Valid("two"))
	require.Equal(t, 2, ts.Len())

	// a failed reload keeps the previous set
	require.NoError(t, os.Remove(path))
	require.Error(t, ts.Reload())
	require.True(t, ts.Valid("three"))

	_, err = NewTokenSource(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
