package jobctl

import (
	"errors"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// Reaper collects background children once they terminate so they do not
// linger as zombies. Foreground children are waited on by their launcher and
// are never touched here.
type Reaper struct {
	log *slog.Logger

	mu   sync.Mutex
	jobs map[int]*os.Process
}

func NewReaper(log *slog.Logger) *Reaper {
	return &Reaper{
		log:  log,
		jobs: make(map[int]*os.Process),
	}
}

// Track registers a background process. The job may already have exited,
// so a sweep runs straight away.
func (r *Reaper) Track(p *os.Process) {
	r.mu.Lock()
	r.jobs[p.Pid] = p
	r.mu.Unlock()

	r.Reap()
}

// Reap waits, without blocking, on every tracked job and returns how many
// were collected.
func (r *Reaper) Reap() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	reaped := 0
	for pid, p := range r.jobs {
		var ws unix.WaitStatus
		wpid, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil)
		switch {
		case errors.Is(err, unix.ECHILD):
			// Collected elsewhere.
		case err != nil:
			r.log.Warn("reap background job", "pid", pid, "error", err)
			continue
		case wpid == 0:
			continue
		default:
			r.log.Debug("background job finished", "pid", pid, "exit_code", ws.ExitStatus(), "signaled", ws.Signaled())
		}
		delete(r.jobs, pid)
		_ = p.Release()
		reaped++
	}
	return reaped
}

// Pending returns the number of background jobs not yet reaped.
func (r *Reaper) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}
