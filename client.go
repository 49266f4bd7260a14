package rdapbootstrap

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"net/http"
	"time"

	"github.com/go-logr/logr"
)

// Doer is the minimal http.Client interface we depend on (handy for tests/mocks).
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// DefaultAboutURL is where "/" redirects and what error notices link to.
const DefaultAboutURL = "https://about.rdap.org/"

// Redirector resolves object handles to their authoritative RDAP service.
// It is safe for concurrent use and serves HTTP through ServeHTTP.
type Redirector struct {
	mirror    *Mirror
	store     Store
	ownsStore bool
	closers   []func() error
	limiter   Limiter
	tokens    TokenChecker

	anonymous     Policy
	authenticated Policy
	identity      identityResolver

	bootstrapBase string
	aboutURL      string

	// decoded registries keyed by document URL and body checksum
	registries *ttlCache[*Registry]

	log     logr.Logger
	metrics *metrics
	now     func() time.Time

	// staged until the Mirror is built
	hc          Doer
	ua          string
	ttl         time.Duration
	timeout     time.Duration
	headerExtra http.Header
}

// New returns a ready Redirector. Without WithStore and WithLimiter it keeps
// all state in process memory.
func New(opts ...Option) (*Redirector, error) {
	r := &Redirector{
		anonymous:     DefaultAnonymousPolicy,
		authenticated: DefaultAuthenticatedPolicy,
		identity:      identityResolver{header: DefaultClientIPHeader},
		bootstrapBase: DefaultBootstrapBase,
		aboutURL:      DefaultAboutURL,
		registries:    newTTLCache[*Registry](time.Hour, 32),
		log:           logr.Discard(),
		now:           time.Now,
		hc:            defaultHTTPClient(),
		ua:            DefaultUserAgent,
		ttl:           DefaultMirrorTTL,
		timeout:       DefaultFetchTimeout,
		headerExtra:   make(http.Header),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = NewMemoryStore()
		r.ownsStore = true
	}
	if r.limiter == nil {
		l := newMemoryLimiter()
		l.now = r.now
		r.limiter = l
	}

	m, err := NewMirror(r.store, r.hc)
	if err != nil {
		return nil, fmt.Errorf("mirror: %w", err)
	}
	m.ua = r.ua
	m.ttl = r.ttl
	m.timeout = r.timeout
	m.headerExtra = r.headerExtra
	m.log = r.log.WithName("mirror")
	m.metrics = r.metrics
	m.now = r.now
	r.mirror = m
	return r, nil
}

func defaultHTTPClient() *http.Client { return &http.Client{Timeout: 15 * time.Second} }

// Close releases the mirror and, when New created it, the store.
func (r *Redirector) Close() error {
	r.mirror.Close()
	var errs []error
	if r.ownsStore {
		errs = append(errs, r.store.Close())
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

// Resolution is the outcome of a successful Resolve.
type Resolution struct {
	Handle   Handle
	Document string // bootstrap document URL consulted
	Match    Match
	BaseURL  string
}

// Location is the redirect target for this resolution.
func (res *Resolution) Location(rawQuery string) string {
	return RedirectURL(res.BaseURL, res.Handle.Type, res.Handle.Raw, rawQuery)
}

// Resolve parses raw as a handle of type t and finds the service covering it.
// Failures are returned as *Error.
func (r *Redirector) Resolve(ctx context.Context, t ObjectType, raw string) (*Resolution, error) {
	h, err := ParseHandle(t, raw)
	if err != nil {
		return nil, asError(err)
	}
	doc := h.DocumentURL(r.bootstrapBase)
	reg, err := r.registry(ctx, t, doc)
	if err != nil {
		return nil, upstreamUnavailable(err)
	}
	m, err := BestMatch(h, reg)
	if errors.Is(err, ErrNoMatch) {
		return nil, notFound(fmt.Sprintf("%s %s not found in IANA bootstrap file", t, raw))
	}
	if err != nil {
		return nil, asError(err)
	}
	base := PickBaseURL(m.URLs)
	r.log.V(1).Info("resolved", "type", t.String(), "handle", raw, "match", m.Value, "base", base)
	return &Resolution{Handle: h, Document: doc, Match: m, BaseURL: base}, nil
}

// registry returns the decoded document at url. Decoding is skipped when the
// mirrored body has not changed since the last call.
func (r *Redirector) registry(ctx context.Context, t ObjectType, url string) (*Registry, error) {
	body, err := r.mirror.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s#%08x", url, crc32.ChecksumIEEE(body))
	if reg, ok := r.registries.Get(key); ok {
		return reg, nil
	}
	reg, err := DecodeRegistry(t, body)
	if err != nil {
		return nil, err
	}
	r.registries.Set(key, reg)
	return reg, nil
}

// DocumentURLs lists every bootstrap document under the configured base.
func (r *Redirector) DocumentURLs() []string {
	urls := make([]string, 0, len(Documents))
	for _, d := range Documents {
		urls = append(urls, documentURL(r.bootstrapBase, d))
	}
	return urls
}

// Refresh re-validates every bootstrap document now.
func (r *Redirector) Refresh(ctx context.Context) error {
	return r.mirror.Refresh(ctx, r.DocumentURLs()...)
}

// RunPrefetch refreshes all documents every interval until ctx is done.
func (r *Redirector) RunPrefetch(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	r.mirror.Run(ctx, every, r.DocumentURLs()...)
}
