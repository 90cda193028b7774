//go:build !unix

package photo

import "os/exec"

func detachedCommand(name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...)
}
