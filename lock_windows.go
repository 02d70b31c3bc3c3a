//go:build windows

package barrow

import "golang.org/x/sys/windows"

// fileLock enforces the single-writer invariant (§5) with a
// non-blocking exclusive lock on the data file itself, mirroring
// lock.go's unix implementation.
type fileLock struct {
	handle windows.Handle
	locked bool
}

func newFileLock(fd int) *fileLock { return &fileLock{handle: windows.Handle(fd)} }

// tryLock attempts to acquire the exclusive lock without blocking.
// Returns false (no error) if another process already holds it.
func (l *fileLock) tryLock() (bool, error) {
	var overlapped windows.Overlapped
	err := windows.LockFileEx(l.handle, windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY, 0, 1, 0, &overlapped)
	if err != nil {
		if err == windows.ERROR_LOCK_VIOLATION {
			return false, nil
		}
		return false, wrapErr("lock", ErrCodeIO, err)
	}
	l.locked = true
	return true, nil
}

// unlock releases the lock. Idempotent.
func (l *fileLock) unlock() error {
	if !l.locked {
		return nil
	}
	var overlapped windows.Overlapped
	if err := windows.UnlockFileEx(l.handle, 0, 1, 0, &overlapped); err != nil {
		return wrapErr("unlock", ErrCodeIO, err)
	}
	l.locked = false
	return nil
}
