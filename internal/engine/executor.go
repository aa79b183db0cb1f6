// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package engine is the execution-engine side of the callback protocol: it
// classifies GraphQL operations, executes them and pumps subscription streams
// into the subscription manager.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
)

// ErrUnknownOperation means the document has no operation matching the requested name.
var ErrUnknownOperation = errors.New("unknown operation")

// Request is a GraphQL-over-HTTP request body.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

// Response is one GraphQL result. Subscriptions yield one per event.
type Response struct {
	Data   map[string]any `json:"data"`
	Errors gqlerror.List  `json:"errors,omitempty"`
}

// Payload is the callback payload for a successful event.
func (r Response) Payload() map[string]any {
	return map[string]any{"data": r.Data}
}

// Executor runs GraphQL operations. Subscribe returns a stream that is closed
// when the source completes; it must stop producing once ctx is done.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Response, error)
	Subscribe(ctx context.Context, req Request) (<-chan Response, error)
}

// ParseOperation parses the document and selects the named operation.
func ParseOperation(document, operationName string) (*ast.OperationDefinition, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "request", Input: document})
	if err != nil {
		return nil, err
	}
	op := doc.Operations.ForName(operationName)
	if op == nil {
		if operationName == "" {
			return nil, fmt.Errorf("%w: operationName is required for documents with %d operations", ErrUnknownOperation, len(doc.Operations))
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, operationName)
	}
	return op, nil
}

// OperationType reports whether the selected operation is a query, mutation or subscription.
func OperationType(document, operationName string) (ast.Operation, error) {
	op, err := ParseOperation(document, operationName)
	if err != nil {
		return "", err
	}
	return op.Operation, nil
}

// rootFields returns the top-level fields of an operation.
func rootFields(op *ast.OperationDefinition) []*ast.Field {
	var out []*ast.Field
	for _, sel := range op.SelectionSet {
		if f, ok := sel.(*ast.Field); ok {
			out = append(out, f)
		}
	}
	return out
}

// responseKey is the alias when present, otherwise the field name.
func responseKey(f *ast.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// argInt reads an integer argument, resolving variables.
func argInt(f *ast.Field, name string, vars map[string]any, def int64) (int64, error) {
	arg := f.Arguments.ForName(name)
	if arg == nil {
		return def, nil
	}
	v, err := arg.Value.Value(vars)
	if err != nil {
		return 0, fmt.Errorf("argument %s: %w", name, err)
	}
	switch n := v.(type) {
	case nil:
		return def, nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	case int:
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("argument %s: %w", name, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("argument %s: expected Int, got %T", name, v)
	}
}

// argString reads a string or ID argument, resolving variables.
func argString(f *ast.Field, name string, vars map[string]any) (string, error) {
	arg := f.Arguments.ForName(name)
	if arg == nil {
		return "", fmt.Errorf("argument %s is required", name)
	}
	v, err := arg.Value.Value(vars)
	if err != nil {
		return "", fmt.Errorf("argument %s: %w", name, err)
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case int64:
		return fmt.Sprint(s), nil
	case float64:
		return fmt.Sprint(int64(s)), nil
	case json.Number:
		return s.String(), nil
	default:
		return "", fmt.Errorf("argument %s: expected ID, got %T", name, v)
	}
}
