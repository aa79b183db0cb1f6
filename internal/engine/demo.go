// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Demo is a tiny fixed-schema executor for local runs and end-to-end tests:
//
//	type Query        { hello: String, review(id: ID!): Review }
//	type Subscription { counter(to: Int = 3): Int, reviewAdded: Review, flaky(after: Int = 1): Int }
//
// Subscriptions emit one event per tick.
type Demo struct {
	Tick time.Duration
}

// NewDemo returns a Demo emitting every tick.
func NewDemo(tick time.Duration) *Demo {
	if tick <= 0 {
		tick = time.Second
	}
	return &Demo{Tick: tick}
}

var _ Executor = (*Demo)(nil)

// Execute resolves query fields. Mutations are not supported.
func (d *Demo) Execute(_ context.Context, req Request) (*Response, error) {
	op, err := ParseOperation(req.Query, req.OperationName)
	if err != nil {
		return nil, err
	}
	if op.Operation != ast.Query {
		return nil, fmt.Errorf("demo engine does not support %s operations", op.Operation)
	}

	resp := &Response{Data: map[string]any{}}
	for _, f := range rootFields(op) {
		switch f.Name {
		case "__typename":
			resp.Data[responseKey(f)] = "Query"
		case "hello":
			resp.Data[responseKey(f)] = "Hello World!"
		case "review":
			id, err := argString(f, "id", req.Variables)
			if err != nil {
				resp.Errors = append(resp.Errors, gqlerror.ErrorPathf(ast.Path{ast.PathName(responseKey(f))}, "%s", err))
				resp.Data[responseKey(f)] = nil
				continue
			}
			resp.Data[responseKey(f)] = review(id)
		default:
			resp.Errors = append(resp.Errors, gqlerror.Errorf("Cannot query field %q on type \"Query\".", f.Name))
		}
	}
	return resp, nil
}

// Subscribe starts the stream for the single root subscription field.
func (d *Demo) Subscribe(ctx context.Context, req Request) (<-chan Response, error) {
	op, err := ParseOperation(req.Query, req.OperationName)
	if err != nil {
		return nil, err
	}
	if op.Operation != ast.Subscription {
		return nil, fmt.Errorf("operation is a %s, not a subscription", op.Operation)
	}
	fields := rootFields(op)
	if len(fields) != 1 {
		return nil, fmt.Errorf("subscriptions must select exactly one root field, got %d", len(fields))
	}
	f := fields[0]
	key := responseKey(f)

	var next func(i int64) (Response, bool)
	switch f.Name {
	case "counter":
		to, err := argInt(f, "to", req.Variables, 3)
		if err != nil {
			return nil, err
		}
		next = func(i int64) (Response, bool) {
			return Response{Data: map[string]any{key: i}}, i <= to
		}
	case "reviewAdded":
		next = func(i int64) (Response, bool) {
			return Response{Data: map[string]any{key: review(fmt.Sprint(i))}}, true
		}
	case "flaky":
		after, err := argInt(f, "after", req.Variables, 1)
		if err != nil {
			return nil, err
		}
		next = func(i int64) (Response, bool) {
			if i > after {
				return Response{Errors: gqlerror.List{gqlerror.Errorf("flaky source failed after %d events", after)}}, true
			}
			return Response{Data: map[string]any{key: i}}, true
		}
	default:
		return nil, fmt.Errorf("cannot query field %q on type Subscription", f.Name)
	}

	out := make(chan Response)
	go d.emit(ctx, out, next)
	return out, nil
}

func (d *Demo) emit(ctx context.Context, out chan<- Response, next func(int64) (Response, bool)) {
	defer close(out)
	ticker := time.NewTicker(d.Tick)
	defer ticker.Stop()

	for i := int64(1); ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		resp, ok := next(i)
		if !ok {
			return
		}
		select {
		case <-ctx.Done():
			return
		case out <- resp:
		}
		if len(resp.Errors) > 0 {
			return
		}
	}
}

func review(id string) map[string]any {
	return map[string]any{
		"__typename": "Review",
		"id":         id,
		"body":       "Review " + id,
	}
}
