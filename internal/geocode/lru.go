package geocode

import (
	"container/list"
	"sync"
	"time"
)

// lru：进程内热点缓存；ttl 为 0 时条目不过期
type lru[V any] struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	now  func() time.Time
	lst  *list.List
	dict map[string]*list.Element
}

type lruItem[V any] struct {
	k   string
	v   V
	exp time.Time
}

func newLRU[V any](capacity int, ttl time.Duration) *lru[V] {
	return &lru[V]{cap: capacity, ttl: ttl, now: time.Now, lst: list.New(), dict: make(map[string]*list.Element)}
}

func (c *lru[V]) Get(k string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero V
	e, ok := c.dict[k]
	if !ok {
		return zero, false
	}
	it := e.Value.(lruItem[V])
	if c.ttl > 0 && !c.now().Before(it.exp) {
		c.lst.Remove(e)
		delete(c.dict, k)
		return zero, false
	}
	c.lst.MoveToFront(e)
	return it.v, true
}

func (c *lru[V]) Set(k string, v V) {
	if c.cap <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	it := lruItem[V]{k: k, v: v, exp: c.now().Add(c.ttl)}
	if e, ok := c.dict[k]; ok {
		e.Value = it
		c.lst.MoveToFront(e)
		return
	}
	c.dict[k] = c.lst.PushFront(it)
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		delete(c.dict, back.Value.(lruItem[V]).k)
		c.lst.Remove(back)
	}
}

func (c *lru[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}

// Purge：清空，配合 ClearAll 使用
func (c *lru[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lst.Init()
	c.dict = make(map[string]*list.Element)
}
