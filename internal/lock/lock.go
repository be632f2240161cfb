package lock

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/bashhack/gitcheckpoint/internal/errors"
)

// maxAttempts bounds how often Acquire retries when the file it locked was
// replaced underneath it by a concurrent Release and Acquire.
const maxAttempts = 3

// Locker holds the per-repository monitor lock: an exclusive flock on a
// file that records the holder's PID.
type Locker struct {
	path string
	pid  int
	file *os.File
}

// New creates a Locker for the specified repository path. repoPath should
// already be absolute so every process derives the same lock file.
func New(repoPath string) (*Locker, error) {
	if runtime.GOOS == "windows" {
		return nil, errors.NewLockError("", 0,
			errors.Wrap(errors.ErrLockAcquisitionFailure,
				"gitcheckpoint monitor locking only supports Unix-like operating systems (Linux, macOS, BSD)"))
	}
	return &Locker{path: FilePath(repoPath), pid: os.Getpid()}, nil
}

// FilePath returns the lock file used for repoPath.
func FilePath(repoPath string) string {
	repoHash := fmt.Sprintf("%x", sha256.Sum256([]byte(repoPath)))[:16]
	return filepath.Join(os.TempDir(), fmt.Sprintf("gitcheckpoint-%s.lock", repoHash))
}

// Path returns the lock file location.
func (l *Locker) Path() string {
	return l.path
}

// Held reports whether this Locker currently owns the lock.
func (l *Locker) Held() bool {
	return l.file != nil
}

// Acquire takes the lock and records this process's PID in the file. A file
// left behind by a monitor that died is reused: its flock went with the
// process. When a live monitor holds the lock the error wraps
// errors.ErrAlreadyRunning and carries that monitor's PID.
func (l *Locker) Acquire() error {
	if l.file != nil {
		return nil
	}

	for range maxAttempts {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
		if err != nil {
			return errors.NewLockError(l.path, 0,
				errors.Join(errors.ErrLockAcquisitionFailure, errors.Wrap(err, "failed to open lock file")))
		}

		if err := tryLock(f); err != nil {
			_ = f.Close()
			if contended(err) {
				pid, _ := readPid(l.path)
				return errors.NewLockError(l.path, pid, errors.ErrAlreadyRunning)
			}
			return errors.NewLockError(l.path, 0,
				errors.Join(errors.ErrLockAcquisitionFailure, errors.Wrap(err, "failed to lock")))
		}

		// A holder that released between our open and our flock removed
		// the file we now lock; whoever creates the next one must not be
		// locking a different inode.
		if !samePath(f, l.path) {
			_ = f.Close()
			continue
		}

		if err := writePid(f, l.pid); err != nil {
			_ = f.Close()
			return errors.NewLockError(l.path, l.pid, err)
		}
		l.file = f
		return nil
	}

	return errors.NewLockError(l.path, 0,
		errors.Wrap(errors.ErrLockAcquisitionFailure, "lock file kept changing while acquiring it"))
}

// Release removes the lock file and drops the lock. Releasing an unheld
// Locker is a no-op.
func (l *Locker) Release() error {
	if l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil

	// Remove while still locked so no other process can lock the old inode
	// and believe it owns the path.
	var err error
	if rmErr := os.Remove(l.path); rmErr != nil && !os.IsNotExist(rmErr) {
		err = errors.NewLockError(l.path, l.pid, errors.Wrap(rmErr, "failed to remove lock file"))
	}
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = errors.NewLockError(l.path, l.pid, errors.Wrap(closeErr, "failed to close lock file"))
	}
	return err
}

// RunningOwner returns the PID of the monitor holding the lock for
// repoPath. The flock is the proof of life: a lock file nobody has locked
// is left over from a dead monitor, whatever process now owns its PID, and
// reports errors.ErrNotRunning like a missing file does.
func RunningOwner(repoPath string) (int, error) {
	path := FilePath(repoPath)

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return 0, errors.NewLockError(path, 0, errors.ErrNotRunning)
	}
	if err != nil {
		return 0, errors.NewLockError(path, 0, errors.Wrap(err, "failed to open lock file"))
	}
	defer func() {
		_ = f.Close()
	}()

	err = tryLock(f)
	if err == nil {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		pid, _ := readPid(path)
		return 0, errors.NewLockError(path, pid, errors.ErrNotRunning)
	}
	if !contended(err) {
		return 0, errors.NewLockError(path, 0, errors.Wrap(err, "failed to probe lock"))
	}

	pid, err := readPid(path)
	if err != nil {
		return 0, errors.NewLockError(path, 0,
			errors.Wrap(err, "a gitcheckpoint monitor holds the lock but its PID is unreadable"))
	}
	return pid, nil
}

func tryLock(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

// contended reports the flock error for a lock held elsewhere. Some Unix
// systems report EWOULDBLOCK, others EAGAIN.
func contended(err error) bool {
	return errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN)
}

func samePath(f *os.File, path string) bool {
	open, err := f.Stat()
	if err != nil {
		return false
	}
	onDisk, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(open, onDisk)
}

func writePid(f *os.File, pid int) error {
	if err := f.Truncate(0); err != nil {
		return errors.Wrap(err, "failed to truncate lock file")
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(pid)), 0); err != nil {
		return errors.Wrap(err, "failed to write PID to lock file")
	}
	return nil
}

func readPid(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read lock file")
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.Wrap(err, "invalid PID in lock file")
	}
	return pid, nil
}
