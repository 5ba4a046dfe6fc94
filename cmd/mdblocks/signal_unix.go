//go:build !windows

package main

import (
	"os"
	"syscall"
)

// SIGHUP is included so closing the terminal does not leave orphaned browsers.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}
