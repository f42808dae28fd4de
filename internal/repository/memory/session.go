package memory

import (
	"context"
	"sync"
	"time"

	"yatube/internal/repository"
)

type session struct {
	token    string
	expireAt time.Time
}

// SessionRepository mirrors the Redis session store with the same TTL semantics.
type SessionRepository struct {
	mu       sync.Mutex
	sessions map[uint64]session
	now      func() time.Time
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[uint64]session), now: time.Now}
}

func (r *SessionRepository) Save(_ context.Context, userID uint64, token string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = session{token: token, expireAt: r.now().Add(ttl)}
	return nil
}

func (r *SessionRepository) Get(_ context.Context, userID uint64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok || !r.now().Before(s.expireAt) {
		delete(r.sessions, userID)
		return "", repository.ErrNotFound
	}
	return s.token, nil
}

func (r *SessionRepository) Extend(_ context.Context, userID uint64, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[userID]; ok {
		s.expireAt = r.now().Add(ttl)
		r.sessions[userID] = s
	}
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, userID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
	return nil
}

var _ repository.SessionStore = (*SessionRepository)(nil)
