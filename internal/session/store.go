package session

import (
	"sync"
	"sync/atomic"
)

// Store holds the current session and notifies subscribers when it changes.
type Store struct {
	current atomic.Pointer[Session]

	mu     sync.Mutex
	nextID int
	subs   map[int]func(*Session)
}

// NewStore returns a signed-out store.
func NewStore() *Store {
	return &Store{subs: make(map[int]func(*Session))}
}

// Current returns the active session, or ErrNotSignedIn.
func (st *Store) Current() (*Session, error) {
	s := st.current.Load()
	if s == nil {
		return nil, ErrNotSignedIn
	}
	return s, nil
}

// SignIn replaces the active session.
func (st *Store) SignIn(s *Session) {
	st.current.Store(s)
	st.notify(s)
}

// SignOut clears the active session.
func (st *Store) SignOut() {
	st.current.Store(nil)
	st.notify(nil)
}

// Subscribe registers fn to be called after every sign-in or sign-out.
// The returned function removes the subscription.
func (st *Store) Subscribe(fn func(*Session)) func() {
	st.mu.Lock()
	id := st.nextID
	st.nextID++
	st.subs[id] = fn
	st.mu.Unlock()

	return func() {
		st.mu.Lock()
		delete(st.subs, id)
		st.mu.Unlock()
	}
}

func (st *Store) notify(s *Session) {
	st.mu.Lock()
	fns := make([]func(*Session), 0, len(st.subs))
	for _, fn := range st.subs {
		fns = append(fns, fn)
	}
	st.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
