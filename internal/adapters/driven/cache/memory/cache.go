// Package memory provides the in-process response cache.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.ResponseCache = (*Cache)(nil)

// Defaults match the cache.* config keys.
const (
	DefaultTTL      = 30 * time.Minute
	DefaultCapacity = 256
)

type entry struct {
	key       string
	answer    domain.Answer
	createdAt time.Time
}

// Cache is a TTL cache with least-recently-used eviction.
// A single mutex serialises every operation. Expiry is checked lazily when
// an entry is read; an expired entry is removed and never returned again.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	now      func() time.Time
	order    *list.List // front = most recently used
	items    map[string]*list.Element
}

// Option configures the cache.
type Option func(*Cache)

// WithTTL sets the maximum entry age.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCapacity bounds the number of entries. Zero means unbounded.
func WithCapacity(n int) Option {
	return func(c *Cache) {
		if n >= 0 {
			c.capacity = n
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		ttl:      DefaultTTL,
		capacity: DefaultCapacity,
		now:      time.Now,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the answer cached for question if it is younger than the TTL.
func (c *Cache) Get(_ context.Context, question string) (domain.Answer, bool) {
	key := domain.NormalizeQuery(question)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return domain.Answer{}, false
	}
	e := el.Value.(*entry)
	if c.now().Sub(e.createdAt) > c.ttl {
		c.remove(el)
		return domain.Answer{}, false
	}

	c.order.MoveToFront(el)
	return e.answer.Clone(), true
}

// Set stores answer for question, replacing any previous entry and resetting its age.
// When full, the least recently used entry is evicted.
func (c *Cache) Set(_ context.Context, question string, answer domain.Answer) {
	key := domain.NormalizeQuery(question)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.remove(el)
	}

	c.items[key] = c.order.PushFront(&entry{
		key:       key,
		answer:    answer.Clone(),
		createdAt: c.now(),
	})

	for c.capacity > 0 && c.order.Len() > c.capacity {
		c.remove(c.order.Back())
	}
}

// Clear drops every entry.
func (c *Cache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// remove must be called with mu held.
func (c *Cache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
