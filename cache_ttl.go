package rdapbootstrap

import (
	"container/list"
	"sync"
	"time"
)

// ttlCache is a small LRU whose entries also expire after ttl. It memoises
// decoded registries so the JSON is parsed once per document version.
type ttlCache[T any] struct {
	mu  sync.Mutex
	ll  *list.List
	tab map[string]*list.Element
	cap int
	ttl time.Duration
	now func() time.Time
}

type ttlItem[T any] struct {
	key     string
	val     T
	expires time.Time
}

func newTTLCache[T any](ttl time.Duration, capacity int) *ttlCache[T] {
	return &ttlCache[T]{
		ll:  list.New(),
		tab: make(map[string]*list.Element),
		cap: capacity,
		ttl: ttl,
		now: time.Now,
	}
}

func (c *ttlCache[T]) Get(k string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	el, ok := c.tab[k]
	if !ok {
		return zero, false
	}
	it := el.Value.(ttlItem[T])
	if !c.now().Before(it.expires) {
		delete(c.tab, k)
		c.ll.Remove(el)
		return zero, false
	}
	c.ll.MoveToFront(el)
	return it.val, true
}

func (c *ttlCache[T]) Set(k string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := ttlItem[T]{key: k, val: v, expires: c.now().Add(c.ttl)}
	if el, ok := c.tab[k]; ok {
		el.Value = it
		c.ll.MoveToFront(el)
		return
	}
	c.tab[k] = c.ll.PushFront(it)
	for c.ll.Len() > c.cap {
		back := c.ll.Back()
		delete(c.tab, back.Value.(ttlItem[T]).key)
		c.ll.Remove(back)
	}
}

func (c *ttlCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
