package memory

import (
	"sync"

	"github.com/voyantlabs/voyant-agent/internal/app/session"
	"github.com/voyantlabs/voyant-agent/internal/domain"
)

// SessionStore is the volatile session registry. Sessions live in process
// memory for their whole lifetime; a real deployment would shard this by
// session id.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*session.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[domain.SessionID]*session.Session),
	}
}

func (s *SessionStore) Put(sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; exists {
		return domain.ErrSessionExists
	}

	s.sessions[sess.ID] = sess
	return nil
}

func (s *SessionStore) Get(id domain.SessionID) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(id domain.SessionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

func (s *SessionStore) List() []*session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}
