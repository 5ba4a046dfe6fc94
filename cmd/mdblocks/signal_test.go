package main

// Notes:
// - OS signal delivery is not exercised; cancellation goes through stop()
//   or the parent context.

import (
	"context"
	"os"
	"slices"
	"testing"
	"time"
)

func TestNotifyContext(t *testing.T) {
	t.Parallel()

	t.Run("stop cancels context", func(t *testing.T) {
		t.Parallel()

		ctx, stop := notifyContext(context.Background())
		if ctx.Err() != nil {
			t.Fatal("context should not be canceled initially")
		}
		stop()
		if ctx.Err() == nil {
			t.Error("context should be canceled after stop()")
		}
	})

	t.Run("parent cancellation propagates", func(t *testing.T) {
		t.Parallel()

		parent, cancel := context.WithCancel(context.Background())
		ctx, stop := notifyContext(parent)
		defer stop()

		cancel()
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Fatal("context not canceled after parent cancellation")
		}
	})

	t.Run("parent deadline kept", func(t *testing.T) {
		t.Parallel()

		parent, cancel := context.WithTimeout(context.Background(), time.Hour)
		defer cancel()
		ctx, stop := notifyContext(parent)
		defer stop()

		if _, ok := ctx.Deadline(); !ok {
			t.Error("derived context lost the parent deadline")
		}
	})
}

func TestShutdownSignals(t *testing.T) {
	t.Parallel()

	if !slices.Contains(shutdownSignals, os.Interrupt) {
		t.Errorf("shutdownSignals = %v, want os.Interrupt included", shutdownSignals)
	}
}
