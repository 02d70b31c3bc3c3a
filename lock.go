//go:build unix

package barrow

import "golang.org/x/sys/unix"

// fileLock enforces the single-writer invariant (§5) with a
// non-blocking exclusive OS-level lock on the data file itself. There
// is no separate lock file or reader-slot table: readers never
// coordinate with the writer beyond the meta chain they read, so the
// only thing that needs mutual exclusion is "at most one write
// transaction at a time," which a single flock on the data file fd
// gives for free.
type fileLock struct {
	fd     int
	locked bool
}

func newFileLock(fd int) *fileLock { return &fileLock{fd: fd} }

// tryLock attempts to acquire the exclusive lock without blocking.
// Returns false (no error) if another process already holds it.
func (l *fileLock) tryLock() (bool, error) {
	err := unix.Flock(l.fd, unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		if err == unix.EWOULDBLOCK {
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
	if err := unix.Flock(l.fd, unix.LOCK_UN); err != nil {
		return wrapErr("unlock", ErrCodeIO, err)
	}
	l.locked = false
	return nil
}
