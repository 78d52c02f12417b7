// Package events implements the transition event bus. For one transition
// attempt at most one of {before -> after, failed} is emitted, and before
// always precedes after. Before-handlers are awaited (and may veto the
// commit by returning an error); after- and failed-handlers run
// asynchronously and are drained at shutdown.
//
// The bus is constructed explicitly and injected; there is no package
// level singleton.
package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/okrd/internal/phase"
	"github.com/fyrsmithlabs/okrd/internal/scoring"
)

// Kind is the event kind within a transition attempt.
type Kind string

const (
	// KindBefore is emitted once validation has passed, just before the
	// phase change is committed.
	KindBefore Kind = "before"
	// KindAfter is emitted once the phase change is durably applied.
	KindAfter Kind = "after"
	// KindFailed is emitted when validation rejects the transition.
	KindFailed Kind = "failed"
)

// Trigger names what caused a transition attempt.
type Trigger string

const (
	TriggerQualityThreshold   Trigger = "quality_threshold"
	TriggerFinalizationSignal Trigger = "finalization_signal"
	TriggerTimeout            Trigger = "timeout"
	TriggerForced             Trigger = "forced"
)

// Event describes one transition attempt.
type Event struct {
	SessionID    string               `json:"session_id"`
	FromPhase    phase.Phase          `json:"from_phase"`
	ToPhase      phase.Phase          `json:"to_phase"`
	Trigger      Trigger              `json:"trigger"`
	Reason       string               `json:"reason,omitempty"`
	Scores       scoring.QualityScore `json:"scores"`
	MessageCount int                  `json:"message_count"`
	TurnsInPhase int                  `json:"turns_in_phase"`
	Valid        bool                 `json:"valid"`
	Errors       []string             `json:"errors,omitempty"`
	Metadata     map[string]string    `json:"metadata,omitempty"`
	OccurredAt   time.Time            `json:"occurred_at"`
}

// Handler receives transition events. A before-handler returning an error
// vetoes the commit; errors from after/failed handlers are logged only.
type Handler func(ctx context.Context, ev Event) error

// Bus fans transition events out to subscribed handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewBus creates an event bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[Kind][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event kind.
func (b *Bus) Subscribe(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// EmitBefore invokes all before-handlers concurrently and waits for every
// one of them. The first handler error is returned so the orchestrator can
// abort the commit deterministically.
func (b *Bus) EmitBefore(ctx context.Context, ev Event) error {
	handlers := b.snapshotHandlers(KindBefore)
	if len(handlers) == 0 {
		return nil
	}

	errCh := make(chan error, len(handlers))
	var wg sync.WaitGroup
	for _, h := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			if err := h(ctx, ev); err != nil {
				errCh <- err
			}
		}(h)
	}
	wg.Wait()
	close(errCh)

	if err, ok := <-errCh; ok {
		return err
	}
	return nil
}

// EmitAfter dispatches the after event asynchronously.
func (b *Bus) EmitAfter(ctx context.Context, ev Event) {
	b.emitAsync(ctx, KindAfter, ev)
}

// EmitFailed dispatches the failed event asynchronously, carrying the
// validation error list.
func (b *Bus) EmitFailed(ctx context.Context, ev Event) {
	b.emitAsync(ctx, KindFailed, ev)
}

func (b *Bus) emitAsync(ctx context.Context, kind Kind, ev Event) {
	for _, h := range b.snapshotHandlers(kind) {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			if err := h(ctx, ev); err != nil {
				b.logger.Warn("event handler failed",
					zap.String("kind", string(kind)),
					zap.String("session_id", ev.SessionID),
					zap.Error(err),
				)
			}
		}(h)
	}
}

// Drain waits for all in-flight asynchronous handlers, or for the context
// to be cancelled.
func (b *Bus) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) snapshotHandlers(kind Kind) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Handler(nil), b.handlers[kind]...)
}
