package executor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"gbsh/internal/parser"
)

// pipe is one connection between adjacent stages. Each end is closed at
// most once by the parent.
type pipe struct {
	r, w *os.File
}

func (p *pipe) closeRead() {
	if p.r != nil {
		p.r.Close()
		p.r = nil
	}
}

func (p *pipe) closeWrite() {
	if p.w != nil {
		p.w.Close()
		p.w = nil
	}
}

func openPipes(n int) ([]*pipe, error) {
	pipes := make([]*pipe, 0, n)
	for i := 0; i < n; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			closePipes(pipes)
			return nil, err
		}
		pipes = append(pipes, &pipe{r: r, w: w})
	}
	return pipes, nil
}

func closePipes(pipes []*pipe) {
	for _, p := range pipes {
		p.closeRead()
		p.closeWrite()
	}
}

// RunPipeline splits argv on the delimiter and runs the stages with the
// output of each stage feeding the input of the next. The first stage reads
// the executor's Stdin and the last writes its Stdout.
//
// All stages are started before any is waited on. Right after stage i
// starts, the parent closes its copy of the write end stage i uses and the
// read end stage i-1 produced, so every reader sees end-of-stream once its
// writer is gone. A stage that cannot be executed is reported and skipped
// without blocking its neighbours; a fork failure stops the remaining
// stages from starting.
func (e *Executor) RunPipeline(argv []string) ([]Result, error) {
	stages := parser.SplitStages(argv)
	if len(stages) == 0 {
		return nil, nil
	}

	pipes, err := openPipes(len(stages) - 1)
	if err != nil {
		fmt.Fprintln(e.Stderr, "pipe error:", err)
		return nil, fmt.Errorf("%w: open pipes: %w", ErrFork, err)
	}

	results := make([]Result, len(stages))
	cmds := make([]*exec.Cmd, len(stages))
	var errs []error
	aborted := false

	for i, stage := range stages {
		if aborted {
			results[i] = Result{Argv: stage, ExitCode: -1, Err: ErrFork}
			continue
		}

		cmd := e.command(stage)
		if i > 0 {
			cmd.Stdin = pipes[i-1].r
		}
		if i < len(pipes) {
			cmd.Stdout = pipes[i].w
		}

		if err := cmd.Start(); err != nil {
			results[i] = Result{Argv: stage, ExitCode: -1, Err: err}
			startErr := e.startError(stage, err)
			errs = append(errs, startErr)
			aborted = errors.Is(startErr, ErrFork)
		} else {
			cmds[i] = cmd
		}

		if i < len(pipes) {
			pipes[i].closeWrite()
		}
		if i > 0 {
			pipes[i-1].closeRead()
		}
	}
	closePipes(pipes)

	last := 0
	for _, cmd := range cmds {
		if cmd != nil {
			last = cmd.Process.Pid
		}
	}
	if last != 0 {
		e.sess.SetForeground(last)
	}

	for i, cmd := range cmds {
		if cmd == nil {
			continue
		}
		results[i] = waitResult(stages[i], cmd, cmd.Wait())
	}

	if last != 0 {
		e.reportInterrupt(last, results...)
		e.sess.ClearForeground(last)
	}

	for _, r := range results {
		e.log.Debug("pipeline stage finished", "argv", r.Argv, "pid", r.PID, "exit_code", r.ExitCode)
	}
	return results, errors.Join(errs...)
}
