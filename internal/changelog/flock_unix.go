//go:build !windows

package changelog

import (
	"fmt"
	"os"
	"syscall"

	"github.com/adstate-project/adstate/pkg/errclass"
)

// lockExclusive takes a non-blocking exclusive flock. A held lock means
// another session is appending; the caller retries under its bounded
// backoff policy.
func lockExclusive(f *os.File) error {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		if err == syscall.EWOULDBLOCK {
			return errclass.ErrWriteConflict.WithMessage("changelog locked by another writer")
		}
		return fmt.Errorf("flock changelog: %w", err)
	}
	return nil
}

func unlockExclusive(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
