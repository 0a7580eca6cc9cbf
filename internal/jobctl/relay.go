package jobctl

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
)

// Relay owns the shell's interrupt and child-exit signals. Both are
// delivered on a channel and handled on a single goroutine, so SIGINT never
// reaches its default disposition and reaping happens outside signal context.
type Relay struct {
	sess   *Session
	reaper *Reaper
	out    io.Writer
	log    *slog.Logger

	sigs     chan os.Signal
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewRelay(sess *Session, reaper *Reaper, out io.Writer, log *slog.Logger) *Relay {
	return &Relay{
		sess:   sess,
		reaper: reaper,
		out:    out,
		log:    log,
		sigs:   make(chan os.Signal, 8),
		done:   make(chan struct{}),
	}
}

// Start begins handling SIGINT and SIGCHLD. It must be called before the
// first child is launched.
func (r *Relay) Start() {
	signal.Notify(r.sigs, unix.SIGINT, unix.SIGCHLD)

	r.wg.Add(1)
	go r.loop()
}

// Stop releases the signals and waits for the handler goroutine to exit.
func (r *Relay) Stop() {
	r.stopOnce.Do(func() {
		signal.Stop(r.sigs)
		close(r.done)
		r.wg.Wait()
	})
}

func (r *Relay) loop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			return
		case sig := <-r.sigs:
			switch sig {
			case unix.SIGINT:
				r.Interrupt()
			case unix.SIGCHLD:
				r.reaper.Reap()
			}
		}
	}
}

// Interrupt terminates the foreground job. It reports whether a job was
// signalled; when nothing is running the interrupt is simply consumed.
func (r *Relay) Interrupt() bool {
	pid := r.sess.Foreground()
	if pid == NoJob {
		fmt.Fprintln(r.out)
		return false
	}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		r.log.Debug("interrupt not delivered", "pid", pid, "error", err)
		fmt.Fprintln(r.out)
		return false
	}

	r.Interrupted(pid)
	return true
}

// Interrupted announces that the foreground job pid was stopped by an
// interrupt and skips the next prompt. The relay and the launcher waiting
// on pid may both report the same interrupt; only the first one is shown.
func (r *Relay) Interrupted(pid int) {
	if !r.sess.MarkInterrupted(pid) {
		return
	}
	r.sess.SuppressPrompt()
	fmt.Fprintf(r.out, "\nProcess %d received a SIGINT signal\n", pid)
}
