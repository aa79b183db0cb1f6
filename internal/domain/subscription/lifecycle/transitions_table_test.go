// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"errors"
	"testing"

	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStates = []model.SessionState{
	model.StatePending,
	model.StateActive,
	model.StateTerminating,
	model.StateClosed,
}

func TestTransitionTable_Coverage(t *testing.T) {
	allowed := map[model.SessionState]map[EventKind]struct{}{}
	for _, tr := range transitionsTable {
		if _, ok := allowed[tr.From]; !ok {
			allowed[tr.From] = map[EventKind]struct{}{}
		}
		if _, exists := allowed[tr.From][tr.Event]; exists {
			t.Fatalf("duplicate transition: %s + %v", tr.From, tr.Event)
		}
		allowed[tr.From][tr.Event] = struct{}{}
	}

	for _, state := range allStates {
		for _, ev := range AllEvents() {
			decision, ok := DecisionFor(state, ev)
			require.True(t, ok, "missing decision for %s + %v", state, ev)
			_, want := allowed[state][ev]
			require.Equal(t, want, decision.Allowed, "%s + %v", state, ev)
			if !decision.Allowed {
				require.NotEmpty(t, decision.Reason)
			}
		}
	}
}

func TestTransitionTable_ClosedIsAbsorbing(t *testing.T) {
	for _, tr := range transitionsTable {
		require.NotEqual(t, model.StateClosed, tr.From, "closed must have no outgoing edges")
	}
}

func TestTransitionTable_NoEdgeBackToPending(t *testing.T) {
	for _, tr := range transitionsTable {
		require.NotEqual(t, model.StatePending, tr.To, "%s + %v", tr.From, tr.Event)
	}
}

func TestTransitionTable_TerminatingNeverReturnsToActive(t *testing.T) {
	for _, tr := range transitionsTable {
		if tr.From == model.StateTerminating {
			require.NotEqual(t, model.StateActive, tr.To)
		}
	}
}

func TestDecisionFor_UnknownState(t *testing.T) {
	_, ok := DecisionFor(model.SessionState("bogus"), EvDelivered)
	assert.False(t, ok)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name       string
		from       model.SessionState
		current    model.ReasonCode
		ev         Event
		wantState  model.SessionState
		wantReason model.ReasonCode
		wantErr    error
	}{
		{
			name:      "handshake ack activates",
			from:      model.StatePending,
			ev:        Event{Kind: EvHandshakeAcked},
			wantState: model.StateActive,
		},
		{
			name:       "completion enters terminating",
			from:       model.StateActive,
			ev:         Event{Kind: EvStreamCompleted},
			wantState:  model.StateTerminating,
			wantReason: model.RCompleted,
		},
		{
			name:       "terminal ack keeps current reason",
			from:       model.StateTerminating,
			current:    model.RStreamError,
			ev:         Event{Kind: EvTerminalAcked},
			wantState:  model.StateClosed,
			wantReason: model.RStreamError,
		},
		{
			name:       "event reason overrides table",
			from:       model.StateActive,
			ev:         Event{Kind: EvTerminate, Reason: model.ROrphaned},
			wantState:  model.StateClosed,
			wantReason: model.ROrphaned,
		},
		{
			name:       "data after close is rejected",
			from:       model.StateClosed,
			current:    model.RCompleted,
			ev:         Event{Kind: EvDelivered},
			wantState:  model.StateClosed,
			wantReason: model.RCompleted,
			wantErr:    ErrSessionClosed,
		},
		{
			name:      "completion while pending is illegal",
			from:      model.StatePending,
			ev:        Event{Kind: EvStreamCompleted},
			wantState: model.StatePending,
			wantErr:   ErrIllegalTransition,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, reason, err := Apply(tt.from, tt.current, tt.ev)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantState, state)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestReasonErrorClass(t *testing.T) {
	assert.NoError(t, ReasonErrorClass(model.RCompleted))
	assert.NoError(t, ReasonErrorClass(model.RNone))
	assert.ErrorIs(t, ReasonErrorClass(model.RHandshakeFailed), ErrHandshakeFailed)
	assert.ErrorIs(t, ReasonErrorClass(model.RLivenessLost), ErrLivenessLost)
	assert.ErrorIs(t, ReasonErrorClass(model.RRouterGone), ErrRouterGone)
	assert.ErrorIs(t, ReasonErrorClass(model.RTerminated), ErrTerminated)
	assert.ErrorIs(t, ReasonErrorClass(model.RDeliveryFailed), ErrDeliveryFailed)
}
