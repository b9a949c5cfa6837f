package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// InstanceLock marks a namespace as driven by one interactive client.
// Lock file: <data_dir>/locks/<namespace>.lock
// Content: PID of the owning process
type InstanceLock struct {
	path string
}

// LockedError reports the process currently holding a namespace.
type LockedError struct {
	Namespace string
	PID       int
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("instance %q is already open in another chatline process (PID %d)", e.Namespace, e.PID)
}

func NewInstanceLock(dataDir, namespace string) (*InstanceLock, error) {
	if err := ValidateNamespace(namespace); err != nil {
		return nil, err
	}

	lockDir := filepath.Join(dataDir, "locks")
	if err := os.MkdirAll(lockDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	return &InstanceLock{path: filepath.Join(lockDir, namespace+".lock")}, nil
}

// Check reports whether another live process holds the lock.
// Unreadable or stale lock files are removed and reported as unlocked.
func (l *InstanceLock) Check() (bool, int, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to read lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		_ = os.Remove(l.path)
		return false, 0, nil
	}

	if pid == os.Getpid() {
		return false, pid, nil
	}

	if !processAlive(pid) {
		_ = os.Remove(l.path)
		return false, 0, nil
	}

	return true, pid, nil
}

// Acquire takes the lock for this process or returns *LockedError.
func (l *InstanceLock) Acquire() error {
	locked, pid, err := l.Check()
	if err != nil {
		return err
	}
	if locked {
		ns := strings.TrimSuffix(filepath.Base(l.path), ".lock")
		return &LockedError{Namespace: ns, PID: pid}
	}

	return os.WriteFile(l.path, []byte(strconv.Itoa(os.Getpid())), 0600)
}

// Release removes the lock if this process owns it.
func (l *InstanceLock) Release() error {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	if pid, _ := strconv.Atoi(strings.TrimSpace(string(data))); pid != os.Getpid() {
		return nil
	}

	err = os.Remove(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// processAlive probes pid with signal 0. On Windows the probe always fails,
// so a leftover lock there is treated as stale.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = p.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// ForceRelease removes the lock file whoever owns it.
func (l *InstanceLock) ForceRelease() error {
	err := os.Remove(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
