// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClock struct {
	now time.Time
}

func (m *mockClock) Now() time.Time { return m.now }

var errBoom = errors.New("boom")

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestCircuitBreaker_TripsAtThreshold(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("router-a:443", 3, 30*time.Second, WithClock(clock))

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(fail, nil), errBoom)
	}
	assert.Equal(t, StateClosed, cb.State())

	assert.ErrorIs(t, cb.Execute(fail, nil), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil }, nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker("router-b", 2, time.Minute)
	_ = cb.Execute(fail, nil)
	require.NoError(t, cb.Execute(succeed, nil))
	_ = cb.Execute(fail, nil)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("router-c", 1, 10*time.Second, WithClock(clock))
	_ = cb.Execute(fail, nil)
	require.Equal(t, StateOpen, cb.State())

	clock.now = clock.now.Add(10 * time.Second)
	assert.ErrorIs(t, cb.Execute(fail, nil), errBoom)
	assert.Equal(t, StateOpen, cb.State(), "failed probe reopens")

	clock.now = clock.now.Add(10 * time.Second)
	require.NoError(t, cb.Execute(succeed, nil))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_IgnoredErrorsDoNotCount(t *testing.T) {
	cb := NewCircuitBreaker("router-d", 1, time.Minute)
	notCounted := func(error) bool { return false }

	assert.ErrorIs(t, cb.Execute(fail, notCounted), errBoom)
	assert.Equal(t, StateClosed, cb.State())
}

func TestHostBreakers_DisabledPassesThrough(t *testing.T) {
	h := NewHostBreakers(0, time.Second)
	assert.False(t, h.Enabled())
	assert.Nil(t, h.For("x"))
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, h.Execute("x", fail, nil), errBoom)
	}
}

func TestHostBreakers_IsolatesHosts(t *testing.T) {
	h := NewHostBreakers(1, time.Minute)
	_ = h.Execute("bad", fail, nil)

	assert.ErrorIs(t, h.Execute("bad", succeed, nil), ErrCircuitOpen)
	assert.NoError(t, h.Execute("good", succeed, nil))
	assert.Same(t, h.For("good"), h.For("good"))
}
