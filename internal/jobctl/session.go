package jobctl

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// NoJob is the foreground value when nothing is running in the foreground.
const NoJob = 0

// Session is the process-wide state of one interpreter. It is created once
// at startup and handed to every component that launches or signals jobs.
type Session struct {
	ID          string
	PID         int
	PGID        int
	Interactive bool

	tty   int
	modes *unix.Termios

	cwdMu sync.RWMutex
	cwd   string

	fg          atomic.Int64
	interrupted atomic.Int64
	suppress    atomic.Bool
}

// NewSession captures the current process ids and working directory.
// Terminal ownership is not touched until Init.
func NewSession() (*Session, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:   uuid.New().String(),
		PID:  unix.Getpid(),
		PGID: unix.Getpgrp(),
		tty:  -1,
		cwd:  wd,
	}, nil
}

// Cwd returns the working directory children are launched in.
func (s *Session) Cwd() string {
	s.cwdMu.RLock()
	defer s.cwdMu.RUnlock()
	return s.cwd
}

// Chdir changes the process working directory and records it.
func (s *Session) Chdir(dir string) error {
	s.cwdMu.Lock()
	defer s.cwdMu.Unlock()

	if err := os.Chdir(dir); err != nil {
		return err
	}
	wd, err := os.Getwd()
	if err != nil {
		wd = dir
	}
	s.cwd = wd
	return nil
}

// SetForeground records pid as the job interrupts are delivered to.
func (s *Session) SetForeground(pid int) {
	s.interrupted.Store(NoJob)
	s.fg.Store(int64(pid))
}

// Foreground returns the current foreground pid or NoJob.
func (s *Session) Foreground() int {
	return int(s.fg.Load())
}

// ClearForeground resets the foreground job if it is still pid.
func (s *Session) ClearForeground(pid int) {
	s.fg.CompareAndSwap(int64(pid), NoJob)
}

// MarkInterrupted records that pid was stopped by an interrupt. It returns
// true only for the first report about the current foreground job.
func (s *Session) MarkInterrupted(pid int) bool {
	return s.interrupted.Swap(int64(pid)) != int64(pid)
}

// SuppressPrompt skips the next prompt render.
func (s *Session) SuppressPrompt() {
	s.suppress.Store(true)
}

// ConsumePromptSuppression reports whether the prompt should be skipped
// and clears the request.
func (s *Session) ConsumePromptSuppression() bool {
	return s.suppress.Swap(false)
}
