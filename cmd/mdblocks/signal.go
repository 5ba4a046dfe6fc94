package main

import (
	"context"
	"os/signal"
)

// notifyContext derives a context canceled by the first shutdown signal.
// In-flight conversions observe it and the batch stops handing out files.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
