// Package sessions keeps conversation state for driving adapters that serve
// many clients, such as the HTTP API and the MCP server.
package sessions

import (
	"container/list"
	"sync"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

// DefaultCapacity bounds the number of live sessions.
const DefaultCapacity = 1024

// Registry stores sessions by ID, evicting the least recently used one
// when full. It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[string]*list.Element

	// locks serialises Update calls per session ID.
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewRegistry creates a registry. capacity <= 0 uses DefaultCapacity.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
		locks:    make(map[string]*sessionLock),
	}
}

// Get returns the session with id and marks it recently used.
func (r *Registry) Get(id string) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.items[id]
	if !ok {
		return domain.Session{}, false
	}
	r.order.MoveToFront(el)
	return el.Value.(domain.Session), true
}

// Put stores session under its ID, replacing any previous version.
func (r *Registry) Put(session domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if el, ok := r.items[session.ID]; ok {
		el.Value = session
		r.order.MoveToFront(el)
		return
	}

	r.items[session.ID] = r.order.PushFront(session)
	for r.order.Len() > r.capacity {
		oldest := r.order.Back()
		r.order.Remove(oldest)
		delete(r.items, oldest.Value.(domain.Session).ID)
	}
}

// Update runs fn on the session stored under id and stores the session it
// returns. Updates of the same id run one at a time, so a turn appended by
// one caller is visible to the next. When id is unknown, fn starts from
// create(). If fn fails nothing is stored and the starting session is
// returned with the error.
func (r *Registry) Update(
	id string,
	create func() domain.Session,
	fn func(domain.Session) (domain.Session, error),
) (domain.Session, error) {
	if id != "" {
		unlock := r.lock(id)
		defer unlock()
	}

	session, ok := r.Get(id)
	if !ok {
		session = create()
	}

	updated, err := fn(session)
	if err != nil {
		return session, err
	}
	r.Put(updated)
	return updated, nil
}

// lock acquires the per-session lock for id and returns its release func.
// Lock entries are dropped once no caller holds or waits on them.
func (r *Registry) lock(id string) func() {
	r.mu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &sessionLock{}
		r.locks[id] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, id)
		}
		r.mu.Unlock()
	}
}

// Delete forgets the session with id.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if el, ok := r.items[id]; ok {
		r.order.Remove(el)
		delete(r.items, id)
	}
}

// Len returns the number of stored sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order.Len()
}
