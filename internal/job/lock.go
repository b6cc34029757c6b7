package job

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// OnlyOne enables overlap prevention through a lock file in dir. An empty or
// non-directory dir falls back to the configured temp dir. A nil predicate
// never overrides an existing lock.
//
// The lock path is fixed by the first call; later calls only replace the
// predicate.
func (j *Job) OnlyOne(dir string, predicate OverlapFunc) *Job {
	j.overlap = predicate
	if j.lockPath != "" {
		return j
	}

	if !isDir(dir) {
		dir = j.cfg.TempDir
	}
	if strings.TrimSpace(dir) == "" {
		j.fail(fmt.Errorf("%w: no lock directory (set temp_dir)", ErrConfiguration))
		return j
	}
	j.lockPath = filepath.Join(dir, j.id+".lock")
	return j
}

// OverlapOlderThan overrides locks older than d, so a crashed run does not
// block the job forever.
func OverlapOlderThan(d time.Duration, now func() time.Time) OverlapFunc {
	if now == nil {
		now = time.Now
	}
	return func(lockedAt time.Time) bool {
		return now().Sub(lockedAt) > d
	}
}

// IsOverlapping reports whether a lock file exists and the predicate does not
// override it. The check is advisory; see the package doc.
func (j *Job) IsOverlapping() bool {
	if j.lockPath == "" {
		return false
	}
	fi, err := os.Stat(j.lockPath)
	if err != nil {
		return false
	}
	if j.overlap == nil {
		return true
	}
	return !j.overlap(fi.ModTime())
}

// CreateLock writes content (the job id when empty) to the lock file.
// Without OnlyOne it does nothing.
func (j *Job) CreateLock(content string) error {
	if j.lockPath == "" {
		return nil
	}
	if content == "" {
		content = j.id
	}
	if err := os.WriteFile(j.lockPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("create lock %s: %w", j.lockPath, err)
	}
	return nil
}

// RemoveLock deletes the lock file. A missing file is not an error.
func (j *Job) RemoveLock() error {
	if j.lockPath == "" {
		return nil
	}
	if err := os.Remove(j.lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove lock %s: %w", j.lockPath, err)
	}
	return nil
}

func isDir(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

const (
	osCreateTrunc  = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	osCreateAppend = os.O_CREATE | os.O_WRONLY | os.O_APPEND
)

func writeFile(path string, flags int, data string) error {
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
