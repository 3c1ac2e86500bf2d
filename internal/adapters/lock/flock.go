package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/3-lines-studio/ogimage/internal/core"
)

// DirLocker takes an exclusive file lock per output directory so two
// builds never capture into the same tree at once.
type DirLocker struct {
	lockDir string
}

// NewDirLocker keeps lock files under lockDir, the system temp dir when
// empty.
func NewDirLocker(lockDir string) *DirLocker {
	if lockDir == "" {
		lockDir = os.TempDir()
	}
	return &DirLocker{lockDir: lockDir}
}

func (l *DirLocker) TryLock(dir string) (func() error, error) {
	path := filepath.Join(l.lockDir, core.LockFileName(dir))
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", core.ErrRunLocked, path)
	}

	return fl.Unlock, nil
}
