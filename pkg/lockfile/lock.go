package lockfile

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

const (
	lockTimeout     = 30 * time.Second
	lockRetryDelay  = 50 * time.Millisecond
	lockRetryJitter = 50 * time.Millisecond
)

// getJitteredDelay returns the base delay plus some random jitter to prevent thundering herd
func getJitteredDelay() time.Duration {
	jitter := time.Duration(rand.Int63n(int64(lockRetryJitter)))
	return lockRetryDelay + jitter
}

// fileLock is an advisory lock implemented with an O_EXCL sidecar file.
type fileLock struct {
	lockPath string
	lockFile *os.File
}

// acquireLock attempts to acquire a file lock with timeout and PID tracking
func acquireLock(filePath string) (*fileLock, error) {
	lockPath := filePath + ".lock"
	startTime := time.Now()

	for {
		lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			// Write PID for debugging stale locks
			fmt.Fprintf(lockFile, "%d\n", os.Getpid())

			return &fileLock{
				lockPath: lockPath,
				lockFile: lockFile,
			}, nil
		}

		if !os.IsExist(err) {
			return nil, errors.Wrap(err, "failed to create lock file")
		}

		if time.Since(startTime) > lockTimeout {
			return nil, errors.New("timeout waiting for lock")
		}

		time.Sleep(getJitteredDelay())
	}
}

// release releases the file lock
func (fl *fileLock) release() error {
	if fl.lockFile != nil {
		fl.lockFile.Close()
		fl.lockFile = nil
	}

	if fl.lockPath != "" {
		err := os.Remove(fl.lockPath)
		fl.lockPath = ""
		return err
	}

	return nil
}

// withLock executes a function while holding a file lock
func withLock(filePath string, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return errors.Wrap(err, "failed to create lock directory")
	}

	lock, err := acquireLock(filePath)
	if err != nil {
		return errors.Wrap(err, "failed to acquire lock")
	}
	defer lock.release()

	return fn()
}
