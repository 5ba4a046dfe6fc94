//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// killTree force-kills pid and its children (/T) with taskkill.
func killTree(pid int) error {
	return exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() // #nosec G204 -- pid is numeric
}
