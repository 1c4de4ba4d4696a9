package web

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"user-management-app/internal/entity"
)

const sessionCookie = "um_session"

// Sessions keeps one UserList per browser. Idle sessions are dropped after
// ttl.
type Sessions struct {
	mu    sync.Mutex
	lists map[string]*session
	ttl   time.Duration
	now   func() time.Time
}

type session struct {
	list     *UserList
	lastSeen time.Time
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		lists: make(map[string]*session),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Reset replaces the list of id with freshly fetched users.
func (s *Sessions) Reset(id string, fetched []entity.User) *UserList {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()

	list := NewUserList(fetched)
	s.lists[id] = &session{list: list, lastSeen: s.now()}
	return list
}

// Get returns the list of id, creating an empty one if needed.
func (s *Sessions) Get(id string) *UserList {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.lists[id]
	if !ok {
		s.prune()
		sess = &session{list: NewUserList(nil)}
		s.lists[id] = sess
	}
	sess.lastSeen = s.now()
	return sess.list
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lists)
}

func (s *Sessions) prune() {
	cutoff := s.now().Add(-s.ttl)
	for id, sess := range s.lists {
		if sess.lastSeen.Before(cutoff) {
			delete(s.lists, id)
		}
	}
}

func newSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
