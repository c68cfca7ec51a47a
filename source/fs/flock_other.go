//go:build !unix

package fs

// flockExclusive is a no-op where flock is unavailable.
func flockExclusive(fd int) error {
	return nil
}

// flockUnlock is a no-op where flock is unavailable.
func flockUnlock(fd int) error {
	return nil
}

// isLockNotSupportedError always returns false
// since we don't attempt locking.
func isLockNotSupportedError(err error) bool {
	return false
}
