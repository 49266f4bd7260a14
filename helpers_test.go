package rdapbootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/go-redis/redis/v7"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

const (
	testDNS = `{"version":"1.0","publication":"2024-01-01T00:00:00Z","description":"test","services":[
		[["uk"],["http://x.example/","https://x.example/"]],
		[["co.uk"],["https://y.example"]],
		[["com","net"],["https://com.example/rdap/"]],
		[["broken"]],
		"not-a-service"
	]}`
	testIPv4 = `{"version":"1.0","services":[
		[["garbage/99","10.0.0.0/8"],["https://big.example/"]],
		[["10.1.0.0/16"],["https://small.example/"]],
		[["192.0.2.0/24"],["https://doc.example/"]]
	]}`
	testIPv6 = `{"version":"1.0","services":[
		[["2001:db8::/32"],["https://v6.example/"]]
	]}`
	testASN = `{"version":"1.0","services":[
		[["1-1000"],["https://wide.example/"]],
		[["x-y","500-600"],["https://narrow.example/"]],
		[["64512"],["https://exact.example/"]]
	]}`
	testObjectTags = `{"version":"1.0","services":[
		[["hostmaster@arin.net"],["ARIN"],["http://rdap.arin.net/registry/","https://rdap.arin.net/registry/"]],
		[["x"],["FRNIC"],["https://rdap.nic.fr/"]]
	]}`
)

// upstream is a stand-in for data.iana.org serving a fixed set of documents.
type upstream struct {
	*httptest.Server

	mu     sync.Mutex
	docs   map[string]string
	status map[string]int
	hits   map[string]int
	ims    map[string]string
	delay  time.Duration
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{
		docs: map[string]string{
			"/" + docDNS:        testDNS,
			"/" + docIPv4:       testIPv4,
			"/" + docIPv6:       testIPv6,
			"/" + docASN:        testASN,
			"/" + docObjectTags: testObjectTags,
		},
		status: map[string]int{},
		hits:   map[string]int{},
		ims:    map[string]string{},
	}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.hits[r.URL.Path]++
		u.ims[r.URL.Path] = r.Header.Get("If-Modified-Since")
		status := u.status[r.URL.Path]
		body, ok := u.docs[r.URL.Path]
		delay := u.delay
		u.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.Close)
	return u
}

func newStubServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func (u *upstream) base() string { return u.URL + "/" }

func (u *upstream) setStatus(doc string, code int) {
	u.mu.Lock()
	u.status["/"+doc] = code
	u.mu.Unlock()
}

func (u *upstream) setDelay(d time.Duration) {
	u.mu.Lock()
	u.delay = d
	u.mu.Unlock()
}

func (u *upstream) hitCount(doc string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits["/"+doc]
}

func (u *upstream) lastIMS(doc string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.ims["/"+doc]
}

func mustDecode(t *testing.T, typ ObjectType, doc string) *Registry {
	t.Helper()
	r, err := DecodeRegistry(typ, []byte(strings.TrimSpace(doc)))
	if err != nil {
		t.Fatalf("decode %s: %v", typ, err)
	}
	return r
}
