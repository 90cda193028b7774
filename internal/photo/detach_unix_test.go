//go:build unix

package photo

import (
	"syscall"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("detachedCommand", func() {
	It("should start the child in a process group of its own", func() {
		cmd := detachedCommand("sh", "-c", "sleep 5")
		Expect(cmd.Start()).To(Succeed())
		DeferCleanup(func() {
			cmd.Process.Kill()
			cmd.Wait()
		})

		pgid, err := syscall.Getpgid(cmd.Process.Pid)
		Expect(err).NotTo(HaveOccurred())
		Expect(pgid).To(Equal(cmd.Process.Pid))
		Expect(pgid).NotTo(Equal(syscall.Getpgrp()))
	})
})
