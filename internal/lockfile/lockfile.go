// Package lockfile guards a Pondr state directory with an exclusive flock so
// that only one process writes the journal at a time.
//
// The lock is released by the kernel when the process exits, so a crash never
// leaves the directory locked; a leftover file is only informational.
package lockfile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// LockFileName is the lock file created inside the state directory.
const LockFileName = "pondr.lock"

// Lock is a held state directory lock.
type Lock struct {
	file *os.File
	path string
}

// Info is what a holder writes into the lock file.
type Info struct {
	PID       int
	Command   string
	StartedAt time.Time
}

func (i Info) String() string {
	return fmt.Sprintf("pid=%d\ncmd=%s\nstarted=%s\n", i.PID, i.Command, i.StartedAt.UTC().Format(time.RFC3339))
}

// Acquire takes the lock on stateDir without blocking. command is recorded in
// the lock file to explain a conflict to the next caller.
func Acquire(stateDir, command string) (*Lock, error) {
	lockPath := filepath.Join(stateDir, LockFileName)

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		slog.Error("lockfile state dir create failed", "error", err, "state_dir", stateDir)
		return nil, fmt.Errorf("failed to create state directory %s: %w", stateDir, err)
	}

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		slog.Error("lockfile open failed", "error", err, "lock_path", lockPath)
		return nil, fmt.Errorf("failed to open lock file %s: %w", lockPath, err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		holder := describeHolder(lockPath)
		slog.Debug("lockfile held by another process", "lock_path", lockPath, "holder", holder)
		return nil, &LockError{LockPath: lockPath, Holder: holder, Cause: err}
	}

	info := Info{PID: os.Getpid(), Command: command, StartedAt: time.Now()}
	if err := writeInfo(file, info); err != nil {
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		slog.Error("lockfile write failed", "error", err, "lock_path", lockPath)
		return nil, fmt.Errorf("failed to write lock information to %s: %w", lockPath, err)
	}

	slog.Debug("lockfile acquired", "lock_path", lockPath, "pid", info.PID, "cmd", command)
	return &Lock{file: file, path: lockPath}, nil
}

func writeInfo(f *os.File, info Info) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.WriteAt([]byte(info.String()), 0); err != nil {
		return err
	}
	return f.Sync()
}

// With runs fn while holding the lock on stateDir.
func With(stateDir, command string, fn func() error) error {
	lock, err := Acquire(stateDir, command)
	if err != nil {
		return err
	}
	defer lock.Release()
	return fn()
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release unlocks and removes the lock file. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		slog.Error("lockfile unlock failed", "error", err, "lock_path", l.path)
	}
	if err := l.file.Close(); err != nil {
		slog.Error("lockfile close failed", "error", err, "lock_path", l.path)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		slog.Error("lockfile remove failed", "error", err, "lock_path", l.path)
	}
	l.file = nil
	slog.Debug("lockfile released", "lock_path", l.path)
	return nil
}

// LockError reports a lock held by another process.
type LockError struct {
	LockPath string
	Holder   string
	Cause    error
}

func (e *LockError) Error() string {
	msg := "another pondr command is using this journal (" + e.LockPath + ")"
	if e.Holder != "" {
		msg += ": " + e.Holder
	}
	return msg
}

func (e *LockError) Unwrap() error { return e.Cause }

// describeHolder summarizes the lock file contents for an error message.
func describeHolder(lockPath string) string {
	data, err := os.ReadFile(lockPath)
	if err != nil || len(data) == 0 {
		return ""
	}
	info := ParseInfo(string(data))
	if info.PID <= 0 {
		return strings.TrimSpace(string(data))
	}
	state := "running"
	if !isProcessRunning(info.PID) {
		state = "not running"
	}
	if info.Command != "" {
		return fmt.Sprintf("pid %d (%s, %s)", info.PID, info.Command, state)
	}
	return fmt.Sprintf("pid %d (%s)", info.PID, state)
}

// ParseInfo reads the key=value lines written by Acquire. Unknown or
// malformed lines are ignored.
func ParseInfo(content string) Info {
	var info Info
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			if pid, err := strconv.Atoi(value); err == nil {
				info.PID = pid
			}
		case "cmd":
			info.Command = value
		case "started":
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				info.StartedAt = t
			}
		}
	}
	return info
}

// isProcessRunning sends signal 0 to pid.
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
