// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"context"
	"testing"
	"time"
)

func TestWorkerGroupCloseAndWaitDrainsWorkers(t *testing.T) {
	g := &workerGroup{}

	done := make(chan struct{})
	if ok := g.Go(func() {
		<-done
	}); !ok {
		t.Fatal("expected worker to start")
	}

	close(done)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := g.CloseAndWait(ctx); err != nil {
		t.Fatalf("expected drain success, got %v", err)
	}
}

func TestWorkerGroupCloseAndWaitTimeout(t *testing.T) {
	g := &workerGroup{}

	block := make(chan struct{})
	if ok := g.Go(func() {
		<-block
	}); !ok {
		t.Fatal("expected worker to start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := g.CloseAndWait(ctx); err == nil {
		t.Fatal("expected timeout error")
	}
	close(block)
}

func TestWorkerGroupRejectsNewWorkersAfterClose(t *testing.T) {
	g := &workerGroup{}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := g.CloseAndWait(ctx); err != nil {
		t.Fatalf("expected close on empty group to succeed, got %v", err)
	}

	if ok := g.Go(func() {}); ok {
		t.Fatal("expected group to reject workers after close")
	}
}
