// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func collect(t *testing.T, ch <-chan Response) []Response {
	t.Helper()
	var out []Response
	timeout := time.After(5 * time.Second)
	for {
		select {
		case r, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, r)
		case <-timeout:
			t.Fatal("stream did not close")
		}
	}
}

func TestDemoExecuteQuery(t *testing.T) {
	d := NewDemo(time.Millisecond)
	resp, err := d.Execute(context.Background(), Request{
		Query:     `query R($id: ID!) { hello greeting: hello review(id: $id) { id body } }`,
		Variables: map[string]any{"id": "7"},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Errors)
	assert.Equal(t, "Hello World!", resp.Data["hello"])
	assert.Equal(t, "Hello World!", resp.Data["greeting"])
	assert.Equal(t, "Review 7", resp.Data["review"].(map[string]any)["body"])
}

func TestDemoExecuteUnknownField(t *testing.T) {
	resp, err := NewDemo(time.Millisecond).Execute(context.Background(), Request{Query: "{ nope }"})
	require.NoError(t, err)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0].Message, "nope")
}

func TestDemoExecuteRejectsSubscription(t *testing.T) {
	_, err := NewDemo(time.Millisecond).Execute(context.Background(), Request{Query: "subscription { counter }"})
	assert.Error(t, err)
}

func TestDemoCounter(t *testing.T) {
	defer goleak.VerifyNone(t)

	ch, err := NewDemo(time.Millisecond).Subscribe(context.Background(), Request{Query: "subscription { counter }"})
	require.NoError(t, err)

	got := collect(t, ch)
	require.Len(t, got, 3)
	for i, r := range got {
		assert.Equal(t, int64(i+1), r.Data["counter"])
	}
}

func TestDemoCounterWithVariable(t *testing.T) {
	ch, err := NewDemo(time.Millisecond).Subscribe(context.Background(), Request{
		Query:     "subscription C($to: Int) { n: counter(to: $to) }",
		Variables: map[string]any{"to": float64(5)},
	})
	require.NoError(t, err)
	got := collect(t, ch)
	require.Len(t, got, 5)
	assert.Equal(t, int64(5), got[4].Data["n"])
}

func TestDemoFlakyEndsWithError(t *testing.T) {
	ch, err := NewDemo(time.Millisecond).Subscribe(context.Background(), Request{Query: "subscription { flaky(after: 2) }"})
	require.NoError(t, err)
	got := collect(t, ch)
	require.Len(t, got, 3)
	assert.Empty(t, got[1].Errors)
	require.Len(t, got[2].Errors, 1)
}

func TestDemoReviewAddedStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := NewDemo(time.Millisecond).Subscribe(ctx, Request{Query: "subscription { reviewAdded { id } }"})
	require.NoError(t, err)

	first := <-ch
	assert.Equal(t, "1", first.Data["reviewAdded"].(map[string]any)["id"])
	cancel()
	collect(t, ch)
}

func TestDemoSubscribeErrors(t *testing.T) {
	d := NewDemo(time.Millisecond)
	for _, q := range []string{
		"{ hello }",
		"subscription { counter reviewAdded }",
		"subscription { unknown }",
		"subscription { counter(to: \"x\") }",
	} {
		_, err := d.Subscribe(context.Background(), Request{Query: q})
		assert.Error(t, err, q)
	}
}
