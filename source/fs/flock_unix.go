//go:build unix

package fs

import (
	"errors"
	"syscall"
)

// flockExclusive blocks until fd holds an exclusive advisory lock.
func flockExclusive(fd int) error {
	return syscall.Flock(fd, syscall.LOCK_EX)
}

func flockUnlock(fd int) error {
	return syscall.Flock(fd, syscall.LOCK_UN)
}

// unsupportedLockErrors are returned by filesystems without flock support,
// typically network mounts. Saving proceeds unlocked on those.
var unsupportedLockErrors = []error{syscall.ENOTSUP, syscall.EOPNOTSUPP, syscall.ENOLCK}

func isLockNotSupportedError(err error) bool {
	for _, target := range unsupportedLockErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
