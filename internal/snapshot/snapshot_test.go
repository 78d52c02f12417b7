package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/okrd/internal/phase"
	"github.com/fyrsmithlabs/okrd/internal/scoring"
	"github.com/fyrsmithlabs/okrd/internal/session"
)

func TestNewManager_RequiresStore(t *testing.T) {
	_, err := NewManager(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshot store is required")
}

func TestCapture_AppendOnly(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m, err := NewManager(store, nil)
	require.NoError(t, err)

	state := session.ConversationState{
		OKR: session.OKRData{Objective: "Double our revenue"},
	}

	first, err := m.Capture(ctx, CaptureRequest{
		SessionID:    "sess_1",
		Phase:        phase.Discovery,
		State:        state,
		Reason:       "transition_attempt",
		MessageCount: 4,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := m.Capture(ctx, CaptureRequest{
		SessionID: "sess_1",
		Phase:     phase.Refinement,
		State:     state,
		Reason:    "transition_attempt",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	snaps, err := m.List(ctx, "sess_1")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, phase.Discovery, snaps[0].Phase)
	assert.Equal(t, phase.Refinement, snaps[1].Phase)
}

func TestCapture_DeepCopiesState(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(NewMemoryStore(), nil)
	require.NoError(t, err)

	state := session.ConversationState{
		OKR: session.OKRData{KeyResults: []string{"Increase MAU from 10K to 20K by Q2 2030"}},
	}
	scores := scoring.QualityScore{
		Objective: &scoring.ObjectiveScore{Text: "X", Overall: 80},
	}

	snap, err := m.Capture(ctx, CaptureRequest{
		SessionID: "sess_1",
		Phase:     phase.KRDiscovery,
		State:     state,
		Scores:    scores,
	})
	require.NoError(t, err)

	// Mutating the originals must not reach the captured snapshot.
	state.OKR.KeyResults[0] = "mutated"
	scores.Objective.Overall = 1

	assert.Equal(t, "Increase MAU from 10K to 20K by Q2 2030", snap.State.OKR.KeyResults[0])
	assert.Equal(t, 80, snap.Scores.Objective.Overall)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(NewMemoryStore(), nil)
	require.NoError(t, err)

	snap, err := m.Capture(ctx, CaptureRequest{SessionID: "sess_1", Phase: phase.Discovery})
	require.NoError(t, err)

	got, err := m.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)

	_, err = m.Get(ctx, "snap_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_FiltersBySession(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(NewMemoryStore(), nil)
	require.NoError(t, err)

	_, err = m.Capture(ctx, CaptureRequest{SessionID: "sess_a", Phase: phase.Discovery})
	require.NoError(t, err)
	_, err = m.Capture(ctx, CaptureRequest{SessionID: "sess_b", Phase: phase.Discovery})
	require.NoError(t, err)

	snaps, err := m.List(ctx, "sess_a")
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}
