package rdapbootstrap

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/go-logr/logr"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultMirrorTTL     = 24 * time.Hour
	DefaultFetchTimeout  = 5 * time.Second
	DefaultUserAgent     = "rdapbootstrap/0.1 (+https://about.rdap.org)"
	maxBootstrapDocument = 4 << 20
)

// Mirror keeps a local copy of each bootstrap document in a Store. Once a
// copy exists, callers are never failed because IANA is unreachable.
type Mirror struct {
	hc          Doer
	store       Store
	ua          string
	ttl         time.Duration
	timeout     time.Duration
	headerExtra http.Header

	enc *zstd.Encoder
	dec *zstd.Decoder
	sf  singleflight.Group

	log     logr.Logger
	metrics *metrics
	now     func() time.Time
}

// NewMirror returns a Mirror over store. A nil hc uses a plain http.Client.
func NewMirror(store Store, hc Doer) (*Mirror, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	if hc == nil {
		hc = defaultHTTPClient()
	}
	return &Mirror{
		hc:          hc,
		store:       store,
		ua:          DefaultUserAgent,
		ttl:         DefaultMirrorTTL,
		timeout:     DefaultFetchTimeout,
		headerExtra: make(http.Header),
		enc:         enc,
		dec:         dec,
		log:         logr.Discard(),
		now:         time.Now,
	}, nil
}

// Close releases the decompressor. It does not close the Store.
func (m *Mirror) Close() {
	m.dec.Close()
	_ = m.enc.Close()
}

func mirrorKey(url string) string {
	sum := sha1.Sum([]byte(url))
	return "mirror:" + hex.EncodeToString(sum[:])
}

// Fetch returns the document at url. A copy younger than the TTL is served
// without contacting upstream; otherwise one conditional GET is made and
// the stale copy is served if it fails.
func (m *Mirror) Fetch(ctx context.Context, url string) ([]byte, error) {
	key := mirrorKey(url)
	if rec, ok := m.load(ctx, key); ok && m.fresh(rec) {
		m.metrics.mirrorFetch(url, "fresh")
		return rec.Value, nil
	}
	return m.revalidateShared(ctx, url, key, false)
}

// Refresh re-validates every url regardless of freshness.
func (m *Mirror) Refresh(ctx context.Context, urls ...string) error {
	var errs []error
	for _, u := range urls {
		if _, err := m.revalidateShared(ctx, u, mirrorKey(u), true); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
		}
	}
	return errors.Join(errs...)
}

// Run refreshes urls every interval until ctx is done.
func (m *Mirror) Run(ctx context.Context, every time.Duration, urls ...string) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := m.Refresh(ctx, urls...); err != nil {
				m.log.Error(err, "prefetch failed")
			}
		}
	}
}

func (m *Mirror) fresh(rec Record) bool {
	return m.now().Sub(rec.Modified) < m.ttl
}

// revalidateShared collapses concurrent revalidations of the same url. The
// fetch runs detached from the first caller's cancellation; the timeout
// still bounds it.
func (m *Mirror) revalidateShared(ctx context.Context, url, key string, force bool) ([]byte, error) {
	v, err, _ := m.sf.Do(key, func() (any, error) {
		return m.revalidate(context.WithoutCancel(ctx), url, key, force)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (m *Mirror) revalidate(ctx context.Context, url, key string, force bool) ([]byte, error) {
	rec, cached := m.load(ctx, key)
	if cached && !force && m.fresh(rec) {
		// another caller refreshed it while we waited
		m.metrics.mirrorFetch(url, "fresh")
		return rec.Value, nil
	}

	var since time.Time
	if cached {
		since = rec.Modified
	}
	status, body, err := m.get(ctx, url, since)
	switch {
	case err == nil && status == http.StatusNotModified && cached:
		m.touch(ctx, key)
		m.metrics.mirrorFetch(url, "not_modified")
		m.log.V(1).Info("bootstrap not modified", "url", url)
		return rec.Value, nil
	case err == nil && status == http.StatusOK:
		m.save(ctx, key, body)
		m.metrics.mirrorFetch(url, "updated")
		m.log.Info("bootstrap updated", "url", url, "bytes", len(body))
		return body, nil
	}

	if err == nil {
		err = fmt.Errorf("unexpected status %d", status)
	}
	if cached {
		m.touch(ctx, key)
		m.metrics.mirrorFetch(url, "stale")
		m.log.Info("bootstrap fetch failed, serving cached copy", "url", url, "error", err.Error(),
			"age", m.now().Sub(rec.Modified).String())
		return rec.Value, nil
	}
	m.metrics.mirrorFetch(url, "unavailable")
	m.log.Error(err, "bootstrap fetch failed with no cached copy", "url", url)
	return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
}

// load treats store errors and undecodable records as a miss.
func (m *Mirror) load(ctx context.Context, key string) (Record, bool) {
	rec, ok, err := m.store.Get(ctx, key)
	if err != nil {
		m.log.Error(err, "mirror store get failed", "key", key)
		return Record{}, false
	}
	if !ok {
		return Record{}, false
	}
	body, err := m.dec.DecodeAll(rec.Value, nil)
	if err != nil {
		m.log.Info("discarding corrupt mirror record", "key", key, "error", err.Error())
		return Record{}, false
	}
	rec.Value = body
	return rec, true
}

func (m *Mirror) save(ctx context.Context, key string, body []byte) {
	rec := Record{Value: m.enc.EncodeAll(body, nil), Modified: m.now()}
	if err := m.store.Set(ctx, key, rec); err != nil {
		m.log.Error(err, "mirror store set failed", "key", key)
	}
}

func (m *Mirror) touch(ctx context.Context, key string) {
	if err := m.store.Touch(ctx, key, m.now()); err != nil {
		m.log.Error(err, "mirror store touch failed", "key", key)
	}
}

func documentName(url string) string { return path.Base(url) }
