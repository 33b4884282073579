package cache

import (
	"container/list"
	"sync"
	"time"
)

// Memo is a thread-safe LRU memoizer with lazy TTL expiration, used to
// reuse page payloads across requests with the same filter tuple. The
// filter space is small, so a modest capacity holds the whole working
// set.
type Memo struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List
	items    map[string]*list.Element
}

type entry struct {
	key       string
	value     any
	expiresAt time.Time
}

// New creates a Memo holding at most capacity entries, each valid for
// ttl. A zero or negative capacity disables caching entirely.
func New(capacity int, ttl time.Duration) *Memo {
	return &Memo{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get retrieves a value and marks it most recently used. Expired entries
// are deleted on access and reported as a miss.
func (m *Memo) Get(key string) (any, bool) {
	if m.capacity <= 0 {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if time.Now().After(e.expiresAt) {
		m.order.Remove(el)
		delete(m.items, key)
		return nil, false
	}
	m.order.MoveToFront(el)
	return e.value, true
}

// Set stores a value, evicting the least recently used entry when the
// cache is full.
func (m *Memo) Set(key string, value any) {
	if m.capacity <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.expiresAt = time.Now().Add(m.ttl)
		m.order.MoveToFront(el)
		return
	}

	if m.order.Len() >= m.capacity {
		oldest := m.order.Back()
		if oldest != nil {
			m.order.Remove(oldest)
			delete(m.items, oldest.Value.(*entry).key)
		}
	}
	m.items[key] = m.order.PushFront(&entry{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(m.ttl),
	})
}

// Len reports the number of live entries, counting any not yet lazily
// expired.
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// Clear drops every entry.
func (m *Memo) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order.Init()
	m.items = make(map[string]*list.Element)
}
