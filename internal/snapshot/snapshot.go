// Package snapshot captures immutable point-in-time session state before
// every transition attempt. Snapshots are append-only: nothing in the
// engine mutates or deletes one after capture, so a "last known good"
// state always exists for audit and rollback even when a transition fails.
package snapshot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/okrd/internal/phase"
	"github.com/fyrsmithlabs/okrd/internal/scoring"
	"github.com/fyrsmithlabs/okrd/internal/session"
)

const instrumentationName = "github.com/fyrsmithlabs/okrd/internal/snapshot"

// ErrNotFound is returned when a snapshot does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is an immutable capture of session state.
type Snapshot struct {
	ID           string                    `json:"id"`
	SessionID    string                    `json:"session_id"`
	Phase        phase.Phase               `json:"phase"`
	State        session.ConversationState `json:"state"`
	Scores       scoring.QualityScore      `json:"scores"`
	MessageCount int                       `json:"message_count"`
	Reason       string                    `json:"reason"`
	Metadata     map[string]string         `json:"metadata,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
}

// CaptureRequest describes one snapshot capture.
type CaptureRequest struct {
	SessionID    string
	Phase        phase.Phase
	State        session.ConversationState
	Scores       scoring.QualityScore
	MessageCount int
	Reason       string
	Metadata     map[string]string
}

// Store is the snapshot persistence boundary. Append-only by contract.
type Store interface {
	Append(ctx context.Context, snap *Snapshot) error
	List(ctx context.Context, sessionID string) ([]*Snapshot, error)
	Get(ctx context.Context, id string) (*Snapshot, error)
}

// Manager captures snapshots into a store.
type Manager struct {
	store  Store
	logger *zap.Logger

	meter          metric.Meter
	captureCounter metric.Int64Counter
}

// NewManager creates a snapshot manager.
func NewManager(store Store, logger *zap.Logger) (*Manager, error) {
	if store == nil {
		return nil, errors.New("snapshot store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		store:  store,
		logger: logger,
		meter:  otel.Meter(instrumentationName),
	}

	var err error
	m.captureCounter, err = m.meter.Int64Counter(
		"okrd.snapshot.captures_total",
		metric.WithDescription("Total snapshots captured, labeled by phase and reason"),
		metric.WithUnit("{capture}"),
	)
	if err != nil {
		logger.Warn("failed to create capture counter", zap.Error(err))
	}

	return m, nil
}

// Capture records a snapshot of the session state. The state and scores
// are deep-copied so later session mutation cannot reach the snapshot.
func (m *Manager) Capture(ctx context.Context, req CaptureRequest) (*Snapshot, error) {
	snap := &Snapshot{
		ID:           "snap_" + uuid.NewString(),
		SessionID:    req.SessionID,
		Phase:        req.Phase,
		State:        req.State.Clone(),
		Scores:       req.Scores.Clone(),
		MessageCount: req.MessageCount,
		Reason:       req.Reason,
		Metadata:     cloneMetadata(req.Metadata),
		CreatedAt:    time.Now().UTC(),
	}

	if err := m.store.Append(ctx, snap); err != nil {
		return nil, err
	}

	if m.captureCounter != nil {
		m.captureCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("phase", string(req.Phase)),
				attribute.String("reason", req.Reason),
			))
	}

	m.logger.Debug("snapshot captured",
		zap.String("snapshot_id", snap.ID),
		zap.String("session_id", snap.SessionID),
		zap.String("phase", string(snap.Phase)),
		zap.String("reason", snap.Reason),
	)

	return snap, nil
}

// List returns a session's snapshots in capture order.
func (m *Manager) List(ctx context.Context, sessionID string) ([]*Snapshot, error) {
	return m.store.List(ctx, sessionID)
}

// Get returns a snapshot by ID.
func (m *Manager) Get(ctx context.Context, id string) (*Snapshot, error) {
	return m.store.Get(ctx, id)
}

func cloneMetadata(md map[string]string) map[string]string {
	if md == nil {
		return nil
	}
	out := make(map[string]string, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}

// MemoryStore is an in-process append-only snapshot store.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots []*Snapshot
	byID      map[string]*Snapshot
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*Snapshot)}
}

// Append stores a snapshot. Existing snapshots are never modified.
func (m *MemoryStore) Append(ctx context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, snap)
	m.byID[snap.ID] = snap
	return nil
}

// List returns the session's snapshots in capture order.
func (m *MemoryStore) List(ctx context.Context, sessionID string) ([]*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Snapshot
	for _, snap := range m.snapshots {
		if snap.SessionID == sessionID {
			out = append(out, snap)
		}
	}
	return out, nil
}

// Get returns a snapshot by ID.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return snap, nil
}

var _ Store = (*MemoryStore)(nil)
