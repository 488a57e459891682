//go:build windows

package tools

import (
	"errors"
	"os"
	"os/exec"
	"strconv"
)

// configureProcessTreeKill uses taskkill so a timeout also ends child processes.
func configureProcessTreeKill(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		if cmd.Process == nil || cmd.Process.Pid <= 0 {
			return nil
		}
		_ = exec.Command("taskkill", "/PID", strconv.Itoa(cmd.Process.Pid), "/T", "/F").Run()
		if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return err
		}
		return nil
	}
}
