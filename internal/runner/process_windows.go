//go:build windows

package runner

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}

// killProcessGroup terminates the child. Windows has no process groups
// in the unix sense; descendants spawned by the script are orphaned
// rather than killed.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}
