package executor

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Launch runs a single program. In the foreground it blocks until the child
// exits and is the target of interrupts meanwhile. In the background the
// child gets its own process group and no terminal input, its pid is
// printed and Launch returns at once.
func (e *Executor) Launch(argv []string, background bool) (Result, error) {
	if len(argv) == 0 {
		return Result{}, nil
	}

	cmd := e.command(argv)

	if background {
		// Background jobs should not read from terminal
		devNull, err := os.Open(os.DevNull)
		if err != nil {
			return Result{Argv: argv, ExitCode: -1, Err: err}, fmt.Errorf("open %s: %w", os.DevNull, err)
		}
		defer devNull.Close()
		cmd.Stdin = devNull
		cmd.SysProcAttr = &unix.SysProcAttr{
			Setpgid: true,
		}
	}

	if err := cmd.Start(); err != nil {
		return Result{Argv: argv, ExitCode: -1, Err: err}, e.startError(argv, err)
	}
	pid := cmd.Process.Pid

	if background {
		fmt.Fprintf(e.Stdout, "Process created with PID: %d\n", pid)
		e.log.Debug("background job started", "pid", pid, "argv", argv)
		e.tracker.Track(cmd.Process)
		return Result{Argv: argv, PID: pid, ExitCode: -1}, nil
	}

	e.sess.SetForeground(pid)
	result := waitResult(argv, cmd, cmd.Wait())
	e.reportInterrupt(pid, result)
	e.sess.ClearForeground(pid)

	return result, nil
}
