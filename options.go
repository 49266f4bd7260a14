package rdapbootstrap

import (
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
)

type Option func(*Redirector)

func WithHTTPDoer(d Doer) Option            { return func(r *Redirector) { r.hc = d } }
func WithUserAgent(ua string) Option        { return func(r *Redirector) { r.ua = ua } }
func WithTimeout(d time.Duration) Option    { return func(r *Redirector) { r.timeout = d } }
func WithTTL(d time.Duration) Option        { return func(r *Redirector) { r.ttl = d } }
func WithBootstrapBase(u string) Option     { return func(r *Redirector) { r.bootstrapBase = u } }
func WithAboutURL(u string) Option          { return func(r *Redirector) { r.aboutURL = u } }
func WithStore(s Store) Option              { return func(r *Redirector) { r.store = s } }
func WithLimiter(l Limiter) Option          { return func(r *Redirector) { r.limiter = l } }
func WithTokens(t TokenChecker) Option      { return func(r *Redirector) { r.tokens = t } }
func WithLogger(l logr.Logger) Option       { return func(r *Redirector) { r.log = l } }
func WithClock(now func() time.Time) Option { return func(r *Redirector) { r.now = now } }
func WithHeader(k, v string) Option         { return func(r *Redirector) { r.headerExtra.Add(k, v) } }
func WithClientIPHeader(h string) Option    { return func(r *Redirector) { r.identity.header = h } }
func WithIPv6Prefix(bits int) Option        { return func(r *Redirector) { r.identity.v6Prefix = bits } }

// WithPolicies sets the anonymous and authenticated rate-limit policies.
func WithPolicies(anonymous, authenticated Policy) Option {
	return func(r *Redirector) {
		r.anonymous = anonymous
		r.authenticated = authenticated
	}
}

// WithMetrics registers the service's collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(r *Redirector) { r.metrics = newMetrics(reg) }
}

// withClosers registers resources the Redirector releases on Close.
func withClosers(fns ...func() error) Option {
	return func(r *Redirector) { r.closers = append(r.closers, fns...) }
}
