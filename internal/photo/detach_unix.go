//go:build unix

package photo

import (
	"os/exec"
	"syscall"
)

// detachedCommand builds a command that leads its own process group, so
// signals aimed at the server's group (Ctrl-C) do not reach it
func detachedCommand(name string, args ...string) *exec.Cmd {
	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	return cmd
}
