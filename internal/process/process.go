// Package process terminates browser process trees left behind by a renderer.
package process

import (
	"errors"
	"fmt"
)

// ErrInvalidPID is returned for pids that would target the caller's own group.
var ErrInvalidPID = errors.New("invalid pid")

// KillProcessGroup kills the process pid and all its children.
func KillProcessGroup(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	return killTree(pid)
}
