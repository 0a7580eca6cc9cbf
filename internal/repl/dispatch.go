package repl

import (
	"io"
	"log/slog"

	"gbsh/internal/builtins"
	"gbsh/internal/executor"
	"gbsh/internal/jobctl"
	"gbsh/internal/parser"
)

// Runner starts external programs.
type Runner interface {
	Launch(argv []string, background bool) (executor.Result, error)
	RunPipeline(argv []string) ([]executor.Result, error)
}

// Dispatcher routes one tokenized command to a built-in, a single launch or
// a pipeline.
type Dispatcher struct {
	sess   *jobctl.Session
	runner Runner
	out    io.Writer
	log    *slog.Logger
}

func NewDispatcher(sess *jobctl.Session, runner Runner, out io.Writer, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sess:   sess,
		runner: runner,
		out:    out,
		log:    log,
	}
}

// Dispatch runs argv. Launch failures have already been reported to the
// operator when they are returned; only builtins.ErrQuit should end the
// command loop.
func (d *Dispatcher) Dispatch(argv []string, background bool) error {
	if len(argv) == 0 {
		return nil
	}

	if handled, err := builtins.Handle(d.sess, d.out, argv); handled {
		return err
	}

	if parser.HasDelimiter(argv) {
		if background {
			d.log.Warn("pipelines run in the foreground", "argv", argv)
		}
		results, err := d.runner.RunPipeline(argv)
		for _, r := range results {
			if !r.Success() {
				d.log.Info("pipeline stage failed", "argv", r.Argv, "exit_code", r.ExitCode, "signal", r.Signal)
			}
		}
		return err
	}

	result, err := d.runner.Launch(parser.TruncateAtDelimiter(argv), background)
	if err == nil && !background && !result.Success() {
		d.log.Info("command failed", "argv", result.Argv, "exit_code", result.ExitCode, "signal", result.Signal)
	}
	return err
}
