//go:build unix

package fs

import (
	"os"
	"syscall"
	"testing"
)

func TestFileLock_Unix(t *testing.T) {
	t.Run("regular file", func(t *testing.T) {
		f, err := os.CreateTemp(t.TempDir(), "lock-*")
		if err != nil {
			t.Fatalf("CreateTemp() error = %v", err)
		}
		defer f.Close()

		unlock, err := fileLock(int(f.Fd()))
		if err != nil {
			t.Fatalf("fileLock() error = %v", err)
		}
		unlock()
	})

	t.Run("invalid fd", func(t *testing.T) {
		if _, err := fileLock(-1); err == nil {
			t.Fatal("fileLock(-1) expected error, got nil")
		}
	})

	t.Run("not supported errors", func(t *testing.T) {
		for _, errno := range []syscall.Errno{syscall.ENOTSUP, syscall.EOPNOTSUPP, syscall.ENOLCK} {
			if !isLockNotSupportedError(errno) {
				t.Errorf("%v not recognized", errno)
			}
		}
		if isLockNotSupportedError(syscall.EBADF) {
			t.Error("EBADF incorrectly recognized")
		}
	})
}
