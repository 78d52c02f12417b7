package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/okrd/internal/phase"
)

func TestEmitBefore_AwaitsAllHandlers(t *testing.T) {
	bus := NewBus(nil)

	var calls int32
	for i := 0; i < 3; i++ {
		bus.Subscribe(KindBefore, func(ctx context.Context, ev Event) error {
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&calls, 1)
			return nil
		})
	}

	err := bus.EmitBefore(context.Background(), Event{SessionID: "sess_1"})

	require.NoError(t, err)
	// All handlers must have completed before EmitBefore returned.
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestEmitBefore_HandlerVetoes(t *testing.T) {
	bus := NewBus(nil)

	veto := errors.New("draft not reviewed")
	bus.Subscribe(KindBefore, func(ctx context.Context, ev Event) error {
		return veto
	})

	err := bus.EmitBefore(context.Background(), Event{})
	assert.ErrorIs(t, err, veto)
}

func TestEmitBefore_NoHandlers(t *testing.T) {
	bus := NewBus(nil)
	assert.NoError(t, bus.EmitBefore(context.Background(), Event{}))
}

func TestEmitAfterAndFailed_AsyncWithDrain(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	var seen []Kind
	bus.Subscribe(KindAfter, func(ctx context.Context, ev Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, KindAfter)
		return nil
	})
	bus.Subscribe(KindFailed, func(ctx context.Context, ev Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, KindFailed)
		return nil
	})

	bus.EmitAfter(context.Background(), Event{FromPhase: phase.Discovery, ToPhase: phase.Refinement, Valid: true})
	bus.EmitFailed(context.Background(), Event{Errors: []string{"quality shortfall"}})

	require.NoError(t, bus.Drain(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 2)
}

func TestEmitFailed_HandlerErrorDoesNotPropagate(t *testing.T) {
	bus := NewBus(nil)
	bus.Subscribe(KindFailed, func(ctx context.Context, ev Event) error {
		return errors.New("listener broke")
	})

	bus.EmitFailed(context.Background(), Event{})
	assert.NoError(t, bus.Drain(context.Background()))
}

func TestDrain_RespectsContext(t *testing.T) {
	bus := NewBus(nil)

	release := make(chan struct{})
	bus.Subscribe(KindAfter, func(ctx context.Context, ev Event) error {
		<-release
		return nil
	})
	bus.EmitAfter(context.Background(), Event{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := bus.Drain(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, bus.Drain(context.Background()))
}
