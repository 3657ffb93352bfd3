package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
)

// managePIDFile writes the process ID to path, optionally holding an
// exclusive flock so a second server refuses to start. The returned cleanup
// releases the lock and removes the file.
func managePIDFile(path string, lock bool) (func(), error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if errors.Is(err, os.ErrExist) {
		if lock {
			if err := inspectExisting(path); err != nil {
				return nil, err
			}
		}
		file, err = os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0644)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open PID file: %w", err)
	}

	if lock {
		if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
			file.Close()
			if errors.Is(err, syscall.EWOULDBLOCK) {
				return nil, fmt.Errorf("cannot acquire lock: another halma server is running")
			}
			return nil, fmt.Errorf("lock failed: %w", err)
		}
	}

	discard := func() {
		file.Close()
		os.Remove(path)
	}

	if _, err := fmt.Fprintf(file, "%d\n", os.Getpid()); err != nil {
		discard()
		return nil, fmt.Errorf("cannot write PID: %w", err)
	}
	if err := file.Sync(); err != nil {
		discard()
		return nil, fmt.Errorf("cannot sync PID file: %w", err)
	}

	return func() {
		if lock {
			syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		}
		discard()
	}, nil
}

// inspectExisting decides whether a leftover PID file may be taken over.
// A file naming a live process that does not hold the lock is refused, as is
// one that cannot be parsed; a dead owner's file is reused.
func inspectExisting(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read existing PID file: %w", err)
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil
	}
	pid, err := strconv.Atoi(content)
	if err != nil {
		return fmt.Errorf("corrupted PID file (contains: %q)", content)
	}

	// FindProcess never fails on Unix; signal 0 probes for existence
	proc, _ := os.FindProcess(pid)
	err = proc.Signal(syscall.Signal(0))
	switch {
	case err == nil:
		return fmt.Errorf("PID file names running process %d", pid)
	case errors.Is(err, os.ErrProcessDone), errors.Is(err, syscall.ESRCH):
		log.Warn().Int("pid", pid).Msg("reusing stale PID file")
		return nil
	default:
		return fmt.Errorf("process %d exists but cannot verify ownership: %v", pid, err)
	}
}
