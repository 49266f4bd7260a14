package rdapbootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	redis "github.com/go-redis/redis/v7"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Listen string `yaml:"listen"`
		// ClientIPHeader is trusted for the client address. "-" disables it.
		ClientIPHeader  string `yaml:"clientIPHeader"`
		IPv6Prefix      int    `yaml:"ipv6Prefix"`
		AboutURL        string `yaml:"aboutURL"`
		ShutdownTimeout string `yaml:"shutdownTimeout"`
	} `yaml:"server"`

	Bootstrap struct {
		Base             string `yaml:"base"`
		TTL              string `yaml:"ttl"`
		Timeout          string `yaml:"timeout"`
		UserAgent        string `yaml:"userAgent"`
		PrefetchInterval string `yaml:"prefetchInterval"`
	} `yaml:"bootstrap"`

	Store struct {
		Backend  string `yaml:"backend"`
		RedisURL string `yaml:"redisURL"`
		Prefix   string `yaml:"prefix"`
		Path     string `yaml:"path"`
		Expire   string `yaml:"expire"`
	} `yaml:"store"`

	RateLimit struct {
		Anonymous     PolicyConfig `yaml:"anonymous"`
		Authenticated PolicyConfig `yaml:"authenticated"`
		TokensFile    string       `yaml:"tokensFile"`
	} `yaml:"ratelimit"`

	Metrics struct {
		Listen string `yaml:"listen"`
	} `yaml:"metrics"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	// compiled
	ttl           time.Duration
	timeout       time.Duration
	prefetch      time.Duration
	shutdown      time.Duration
	expire        time.Duration
	anonymous     Policy
	authenticated Policy
}

// PolicyConfig is a rate-limit policy. A nil Limit keeps the default; a
// Limit of 0 disables limiting for that policy.
type PolicyConfig struct {
	Limit  *int   `yaml:"limit"`
	Window string `yaml:"window"`
}

// LoadConfig reads a YAML file, applies RDAPD_* environment overrides and
// fills defaults. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	var b []byte
	if path != "" {
		var err error
		b, err = os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
	}
	return ParseConfig(b)
}

func ParseConfig(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	cfg.applyEnv()
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	env := map[string]*string{
		"RDAPD_LISTEN":           &c.Server.Listen,
		"RDAPD_CLIENT_IP_HEADER": &c.Server.ClientIPHeader,
		"RDAPD_ABOUT_URL":        &c.Server.AboutURL,
		"RDAPD_BOOTSTRAP_BASE":   &c.Bootstrap.Base,
		"RDAPD_STORE":            &c.Store.Backend,
		"RDAPD_REDIS_URL":        &c.Store.RedisURL,
		"RDAPD_LEVELDB_PATH":     &c.Store.Path,
		"RDAPD_TOKENS_FILE":      &c.RateLimit.TokensFile,
		"RDAPD_METRICS_LISTEN":   &c.Metrics.Listen,
		"RDAPD_LOG_LEVEL":        &c.Log.Level,
		"RDAPD_LOG_FORMAT":       &c.Log.Format,
	}
	for name, dst := range env {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}
}

func (c *Config) normalize() error {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	switch c.Server.ClientIPHeader {
	case "":
		c.Server.ClientIPHeader = DefaultClientIPHeader
	case "-":
		c.Server.ClientIPHeader = ""
	}
	if c.Server.IPv6Prefix < 0 || c.Server.IPv6Prefix > 128 {
		return fmt.Errorf("server.ipv6Prefix: %d out of range", c.Server.IPv6Prefix)
	}
	if c.Server.AboutURL == "" {
		c.Server.AboutURL = DefaultAboutURL
	}
	if c.Bootstrap.Base == "" {
		c.Bootstrap.Base = DefaultBootstrapBase
	}
	if c.Bootstrap.UserAgent == "" {
		c.Bootstrap.UserAgent = DefaultUserAgent
	}
	if c.Store.Backend == "" {
		c.Store.Backend = string(StoreBackendMemory)
	}
	if c.Store.Prefix == "" {
		c.Store.Prefix = "rdapd:"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	var err error
	if c.shutdown, err = parseDurationDefault(c.Server.ShutdownTimeout, 10*time.Second); err != nil {
		return fmt.Errorf("server.shutdownTimeout: %w", err)
	}
	if c.ttl, err = parseDurationDefault(c.Bootstrap.TTL, DefaultMirrorTTL); err != nil {
		return fmt.Errorf("bootstrap.ttl: %w", err)
	}
	if c.timeout, err = parseDurationDefault(c.Bootstrap.Timeout, DefaultFetchTimeout); err != nil {
		return fmt.Errorf("bootstrap.timeout: %w", err)
	}
	if c.prefetch, err = parseDurationDefault(c.Bootstrap.PrefetchInterval, 0); err != nil {
		return fmt.Errorf("bootstrap.prefetchInterval: %w", err)
	}
	if c.expire, err = parseDurationDefault(c.Store.Expire, 0); err != nil {
		return fmt.Errorf("store.expire: %w", err)
	}

	switch StoreBackend(c.Store.Backend) {
	case StoreBackendMemory:
	case StoreBackendRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.redisURL is required for the redis backend")
		}
	case StoreBackendLevelDB:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the leveldb backend")
		}
	default:
		return fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}

	if c.anonymous, err = c.RateLimit.Anonymous.policy(DefaultAnonymousPolicy); err != nil {
		return fmt.Errorf("ratelimit.anonymous.%w", err)
	}
	if c.authenticated, err = c.RateLimit.Authenticated.policy(DefaultAuthenticatedPolicy); err != nil {
		return fmt.Errorf("ratelimit.authenticated.%w", err)
	}
	return nil
}

func (pc PolicyConfig) policy(def Policy) (Policy, error) {
	p := def
	if pc.Limit != nil {
		if *pc.Limit < 0 {
			return Policy{}, fmt.Errorf("limit: must not be negative")
		}
		p.Limit = *pc.Limit
	}
	if pc.Window != "" {
		d, err := time.ParseDuration(pc.Window)
		if err != nil {
			return Policy{}, fmt.Errorf("window: %w", err)
		}
		if d <= 0 {
			return Policy{}, fmt.Errorf("window: must be positive")
		}
		p.Window = d
	}
	return p, nil
}

// parseDurationDefault accepts Go durations or a bare number of seconds.
func parseDurationDefault(s string, def time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func (c Config) TTL() time.Duration              { return c.ttl }
func (c Config) Timeout() time.Duration          { return c.timeout }
func (c Config) PrefetchInterval() time.Duration { return c.prefetch }
func (c Config) ShutdownTimeout() time.Duration  { return c.shutdown }
func (c Config) Policies() (anonymous, authenticated Policy) {
	return c.anonymous, c.authenticated
}

// Build wires a Redirector from c. The returned TokenSource is nil when no
// tokens file is configured. Closing the Redirector closes the store and
// any Redis connection Build opened.
func (c Config) Build(log logr.Logger, reg prometheus.Registerer) (*Redirector, *TokenSource, error) {
	opts := []Option{
		WithLogger(log),
		WithUserAgent(c.Bootstrap.UserAgent),
		WithTimeout(c.timeout),
		WithTTL(c.ttl),
		WithBootstrapBase(c.Bootstrap.Base),
		WithAboutURL(c.Server.AboutURL),
		WithClientIPHeader(c.Server.ClientIPHeader),
		WithIPv6Prefix(c.Server.IPv6Prefix),
		WithPolicies(c.anonymous, c.authenticated),
	}
	if reg != nil {
		opts = append(opts, WithMetrics(reg))
	}

	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	switch StoreBackend(c.Store.Backend) {
	case StoreBackendRedis:
		ro, err := redis.ParseURL(c.Store.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("store.redisURL: %w", err)
		}
		client := redis.NewClient(ro)
		if err := client.Ping().Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		closers = append(closers, client.Close)
		opts = append(opts,
			WithStore(NewRedisStore(client, c.Store.Prefix, c.expire)),
			WithLimiter(NewRedisLimiter(client, c.Store.Prefix)))
	case StoreBackendLevelDB:
		st, err := OpenLevelDBStore(c.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("store.path: %w", err)
		}
		closers = append(closers, st.Close)
		opts = append(opts, WithStore(st))
	}

	var tokens *TokenSource
	if c.RateLimit.TokensFile != "" {
		ts, err := NewTokenSource(c.RateLimit.TokensFile)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("ratelimit.tokensFile: %w", err)
		}
		tokens = ts
		opts = append(opts, WithTokens(ts))
	}

	opts = append(opts, withClosers(closers...))
	rd, err := New(opts...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return rd, tokens, nil
}
