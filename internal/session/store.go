package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/okrd/internal/phase"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// Store is the persistence boundary for sessions. Implementations must
// treat Update as all-or-nothing: a failed write leaves the stored session
// unchanged.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, s *Session) error
}

// MemoryStore is an in-process Store used by the engine's tests and by
// deployments that delegate durability to the embedding application.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// New creates a fresh session in the discovery phase.
func New() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        "sess_" + uuid.NewString(),
		Phase:     phase.Discovery,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Create stores a new session.
func (m *MemoryStore) Create(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return nil
}

// Get returns a deep copy of the stored session.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

// Update replaces the stored session.
func (m *MemoryStore) Update(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return ErrNotFound
	}
	clone := s.Clone()
	clone.UpdatedAt = time.Now().UTC()
	m.sessions[s.ID] = clone
	return nil
}

var _ Store = (*MemoryStore)(nil)
