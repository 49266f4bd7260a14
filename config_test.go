package rdapbootstrap

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Listen)
	require.Equal(t, DefaultClientIPHeader, cfg.Server.ClientIPHeader)
	require.Equal(t, DefaultAboutURL, cfg.Server.AboutURL)
	require.Equal(t, DefaultBootstrapBase, cfg.Bootstrap.Base)
	require.Equal(t, "memory", cfg.Store.Backend)
	require.Equal(t, DefaultMirrorTTL, cfg.TTL())
	require.Equal(t, DefaultFetchTimeout, cfg.Timeout())
	require.Equal(t, time.Duration(0), cfg.PrefetchInterval())
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout())

	anon, auth := cfg.Policies()
	require.Equal(t, DefaultAnonymousPolicy, anon)
	require.Equal(t, DefaultAuthenticatedPolicy, auth)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rdapd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  listen: ":9090"
  clientIPHeader: "-"
  ipv6Prefix: 64
bootstrap:
  ttl: 12h
  timeout: "3"
  prefetchInterval: 1h
store:
  backend: leveldb
  path: /var/lib/rdapd
ratelimit:
  anonymous:
    limit: 0
  authenticated:
    limit: 100
    window: 1m
log:
  level: debug
  format: text
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Server.Listen)
	require.Equal(t, "", cfg.Server.ClientIPHeader)
	require.Equal(t, 64, cfg.Server.IPv6Prefix)
	require.Equal(t, 12*time.Hour, cfg.TTL())
	require.Equal(t, 3*time.Second, cfg.Timeout())
	require.Equal(t, time.Hour, cfg.PrefetchInterval())
	require.Equal(t, "leveldb", cfg.Store.Backend)

	anon, auth := cfg.Policies()
	require.Equal(t, 0, anon.Limit)
	require.Equal(t, DefaultAnonymousPolicy.Window, anon.Window)
	require.Equal(t, Policy{Name: "authenticated", Limit: 100, Window: time.Minute}, auth)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("RDAPD_LISTEN", ":7000")
	t.Setenv("RDAPD_STORE", "redis")
	t.Setenv("RDAPD_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := ParseConfig([]byte("server:\n  listen: \":9090\"\n"))
	require.NoError(t, err)
	require.Equal(t, ":7000", cfg.Server.Listen)
	require.Equal(t, "redis", cfg.Store.Backend)
	require.Equal(t, "redis://localhost:6379/0", cfg.Store.RedisURL)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := map[string]string{
		"bootstrap.ttl":              "bootstrap:\n  ttl: soon\n",
		"bootstrap.prefetchInterval": "bootstrap:\n  prefetchInterval: y\n",
		"store.redisURL":             "store:\n  backend: redis\n",
		"store.path":                 "store:\n  backend: leveldb\n",
		"store.backend":              "store:\n  backend: etcd\n",
		"ratelimit.anonymous":        "ratelimit:\n  anonymous:\n    limit: -1\n",
		"ratelimit.authenticated":    "ratelimit:\n  authenticated:\n    window: 0s\n",
		"server.ipv6Prefix":          "server:\n  ipv6Prefix: 200\n",
		"server.shutdownTimeout":     "server:\n  shutdownTimeout: x\n",
	}
	for field, doc := range tests {
		_, err := ParseConfig([]byte(doc))
		require.Errorf(t, err, "%s should be rejected", field)
		require.Contains(t, err.Error(), field)
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestConfig_BuildRedis(t *testing.T) {
	mr, _ := newTestRedis(t)
	up := newUpstream(t)

	cfg, err := ParseConfig([]byte(`
bootstrap:
  base: ` + up.base() + `
store:
  backend: redis
  redisURL: redis://` + mr.Addr() + `/0
`))
	require.NoError(t, err)

	rd, tokens, err := cfg.Build(logr.Discard(), nil)
	require.NoError(t, err)
	require.Nil(t, tokens)

	rec := do(rd, http.MethodGet, "/domain/example.com")
	require.Equal(t, http.StatusFound, rec.Code)
	require.NotEmpty(t, mr.Keys())
	require.NoError(t, rd.Close())
}

func TestConfig_BuildLevelDBWithTokens(t *testing.T) {
	up := newUpstream(t)
	dir := t.TempDir()
	tokensFile := filepath.Join(dir, "tokens")
	require.NoError(t, os.WriteFile(tokensFile, []byte("t1\n"), 0o600))

	cfg, err := ParseConfig([]byte(`
bootstrap:
  base: ` + up.base() + `
store:
  backend: leveldb
  path: ` + filepath.Join(dir, "db") + `
ratelimit:
  tokensFile: ` + tokensFile + `
`))
	require.NoError(t, err)

	rd, tokens, err := cfg.Build(logr.Discard(), nil)
	require.NoError(t, err)
	require.NotNil(t, tokens)
	require.True(t, tokens.Valid("t1"))
	require.NoError(t, rd.Refresh(t.Context()))
	require.NoError(t, rd.Close())

	// the database lock was released
	st, err := OpenLevelDBStore(filepath.Join(dir, "db"))
	require.NoError(t, err)
	require.NoError(t, st.Close())
}

func TestConfig_BuildFailures(t *testing.T) {
	cfg, err := ParseConfig([]byte("store:\n  backend: redis\n  redisURL: redis://127.0.0.1:1/0\n"))
	require.NoError(t, err)
	_, _, err = cfg.Build(logr.Discard(), nil)
	require.Error(t, err)

	cfg, err = ParseConfig([]byte("ratelimit:\n  tokensFile: /nonexistent/tokens\n"))
	require.NoError(t, err)
	_, _, err = cfg.Build(logr.Discard(), nil)
	require.ErrorContains(t, err, "ratelimit.tokensFile")
}
