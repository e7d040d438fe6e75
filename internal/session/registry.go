package session

import (
	"chachat/backend/internal/models"
	"fmt"
	"sync"
	"time"
)

// Registry holds the live sessions, keyed by session id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[models.SessionID]models.Session

	newID func() (models.SessionID, error)
	now   func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithIDGenerator replaces the session id source.
func WithIDGenerator(gen func() (models.SessionID, error)) Option {
	return func(r *Registry) { r.newID = gen }
}

// WithNow replaces the registry's time source.
func WithNow(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[models.SessionID]models.Session),
		newID:    models.NewSessionID,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GenerateSession creates a session bound to connID.
func (r *Registry) GenerateSession(connID models.ConnectionID) (models.Session, error) {
	id, err := r.newID()
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: %w", models.ErrSessionGeneration, err)
	}

	s := models.Session{
		SessionID:    id,
		ConnectionID: connID,
		CreatedAt:    r.now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[id]; exists {
		return models.Session{}, fmt.Errorf("%w: duplicate session id %s", models.ErrSessionGeneration, id)
	}
	r.sessions[id] = s
	return s, nil
}

func (r *Registry) GetSession(id models.SessionID) (models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return models.Session{}, models.ErrSessionNotFound
	}
	return s, nil
}

// InvalidateSession removes the session. A second call for the same id fails with ErrSessionNotFound.
func (r *Registry) InvalidateSession(id models.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return models.ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// BindSocketToSession points an existing session at a new connection (reconnect).
func (r *Registry) BindSocketToSession(id models.SessionID, connID models.ConnectionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return models.ErrSessionNotFound
	}
	s.ConnectionID = connID
	r.sessions[id] = s
	return nil
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
