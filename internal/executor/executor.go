package executor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"syscall"

	"gbsh/internal/jobctl"

	"golang.org/x/sys/unix"
)

// DefaultParentEnvKey names the variable that tells each child which
// directory it was launched from.
const DefaultParentEnvKey = "parent"

// Tracker takes background processes off the launcher's hands and reaps
// them once they exit.
type Tracker interface {
	Track(p *os.Process)
}

// Executor launches external programs for a session, either one at a time
// or as a pipeline.
type Executor struct {
	sess    *jobctl.Session
	tracker Tracker
	log     *slog.Logger

	ParentEnvKey string

	// Interrupted, when set, is told about a foreground job that ended on
	// SIGINT, such as a Ctrl+C the terminal delivered to the child directly.
	Interrupted func(pid int)

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func New(sess *jobctl.Session, tracker Tracker, log *slog.Logger) *Executor {
	return &Executor{
		sess:         sess,
		tracker:      tracker,
		log:          log,
		ParentEnvKey: DefaultParentEnvKey,
		Stdin:        os.Stdin,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
	}
}

// Result describes how one child ended.
type Result struct {
	Argv     []string
	PID      int
	ExitCode int
	Signal   os.Signal
	Err      error
}

// Success reports a normal exit with status zero.
func (r Result) Success() bool {
	return r.Err == nil && r.Signal == nil && r.ExitCode == 0
}

func (e *Executor) command(argv []string) *exec.Cmd {
	cwd := e.sess.Cwd()

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = cwd
	cmd.Env = append(os.Environ(), e.ParentEnvKey+"="+cwd)
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	return cmd
}

// startError reports a failed Start to the operator and classifies it.
func (e *Executor) startError(argv []string, err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission) || errors.Is(err, unix.ENOEXEC) {
		fmt.Fprintf(e.Stderr, "%s: Command not found\n", argv[0])
		return fmt.Errorf("%w: %s: %w", ErrExec, argv[0], err)
	}
	fmt.Fprintln(e.Stderr, "Child process could not be created")
	return fmt.Errorf("%w: %s: %w", ErrFork, argv[0], err)
}

func (e *Executor) reportInterrupt(pid int, results ...Result) {
	if e.Interrupted == nil {
		return
	}
	for _, r := range results {
		if r.Signal == unix.SIGINT {
			e.Interrupted(pid)
			return
		}
	}
}

func waitResult(argv []string, cmd *exec.Cmd, waitErr error) Result {
	r := Result{Argv: argv, PID: cmd.Process.Pid, ExitCode: -1}

	state := cmd.ProcessState
	if state == nil {
		r.Err = waitErr
		return r
	}
	r.ExitCode = state.ExitCode()
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		r.Signal = ws.Signal()
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		r.Err = waitErr
	}
	return r
}
