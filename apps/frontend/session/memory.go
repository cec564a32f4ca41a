package session

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

var _ Store = (*memoryStore)(nil)

func NewMemoryStore() *memoryStore {
	return &memoryStore{sessions: make(map[string]Session)}
}

func (st *memoryStore) Get(_ context.Context, id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.expired(nowFunc().UTC()) {
		delete(st.sessions, id)
		return nil, ErrNotFound
	}
	s.Flashes = append([]Flash(nil), s.Flashes...)
	return &s, nil
}

func (st *memoryStore) Save(_ context.Context, s *Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	stored := *s
	stored.Flashes = append([]Flash(nil), s.Flashes...)
	st.sessions[s.ID] = stored
	return nil
}

func (st *memoryStore) Delete(_ context.Context, id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
	return nil
}
