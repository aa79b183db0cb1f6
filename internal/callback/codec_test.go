// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package callback

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/ManuGH/subcallback/internal/domain/subscription/lifecycle"
	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
)

func seqPtr(n uint64) *uint64 { return &n }

func TestCodecSequencedBodies(t *testing.T) {
	c := Codec{Dialect: DialectSequenced}
	payload := map[string]any{"data": map[string]any{"temp": float64(20)}}

	tests := []struct {
		name string
		msg  model.Message
		want Body
	}{
		{
			name: "handshake",
			msg:  model.NewHandshake("sub-1"),
			want: Body{Kind: "check", ID: "sub-1", Verifier: "v", Seq: seqPtr(0)},
		},
		{
			name: "heartbeat echoes last seq",
			msg:  model.NewHeartbeat("sub-1", 7),
			want: Body{Kind: "check", ID: "sub-1", Verifier: "v", Seq: seqPtr(7)},
		},
		{
			name: "next",
			msg:  model.NewNext("sub-1", 1, payload),
			want: Body{Kind: "next", ID: "sub-1", Verifier: "v", Seq: seqPtr(1), Payload: payload},
		},
		{
			name: "complete",
			msg:  model.NewComplete("sub-1", 3),
			want: Body{Kind: "complete", ID: "sub-1", Verifier: "v", Seq: seqPtr(3)},
		},
		{
			name: "error",
			msg:  model.NewError("sub-1", 4, "boom"),
			want: Body{Kind: "error", ID: "sub-1", Verifier: "v", Seq: seqPtr(4), Errors: gqlerror.List{{Message: "boom"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := c.Encode(tt.msg, "v")
			require.NoError(t, err)
			got, err := Decode(data)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, cmpopts.IgnoreUnexported(gqlerror.Error{})); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.msg.Kind.WireKind(), got.WireKind())
		})
	}
}

func TestCodecApolloBodies(t *testing.T) {
	c := Codec{Dialect: DialectApollo}

	data, err := c.Encode(model.NewNext("s", 1, map[string]any{"data": "x"}), "ver")
	require.NoError(t, err)
	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "subscription", got.Kind)
	assert.Equal(t, "next", got.Action)
	assert.Nil(t, got.Seq, "apollo bodies carry no seq")
	assert.Equal(t, "ver", got.Verifier)

	data, err = c.Encode(model.NewError("s", 2, "bad"), "ver")
	require.NoError(t, err)
	got, err = Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "complete", got.Action)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, "bad", got.Errors[0].Message)
	assert.Equal(t, "error", got.WireKind())

	data, err = c.Encode(model.NewHandshake("s"), "ver")
	require.NoError(t, err)
	got, err = Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "check", got.Action)
}

func TestCodecEncodingFailure(t *testing.T) {
	c := Codec{Dialect: DialectSequenced}
	_, err := c.Encode(model.NewNext("s", 1, map[string]any{"v": math.NaN()}), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrEncodingFailed))

	_, err = c.Encode(model.NewNext("s", 1, map[string]any{"ch": make(chan int)}), "")
	assert.ErrorIs(t, err, lifecycle.ErrEncodingFailed)
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("")
	require.NoError(t, err)
	assert.Equal(t, DialectSequenced, d)

	d, err = ParseDialect("apollo")
	require.NoError(t, err)
	assert.Equal(t, DialectApollo, d)

	_, err = ParseDialect("graphql-ws")
	assert.Error(t, err)
}
