package lifecycle

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// ParentProbe reports whether the process that started us is still alive.
// A changed parent pid means we were reparented, so the first parent is
// gone even if its pid was reused.
func ParentProbe() func() bool {
	ppid := os.Getppid()
	return func() bool {
		if os.Getppid() != ppid {
			return false
		}
		err := unix.Kill(ppid, 0)
		return err == nil || errors.Is(err, unix.EPERM)
	}
}
