package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"gbsh/internal/builtins"
	"gbsh/internal/config"
	"gbsh/internal/jobctl"
	"gbsh/internal/parser"

	"github.com/abiosoft/readline"
	"github.com/spf13/afero"
)

// Shell is the command loop. It reads lines, tokenizes them and hands them
// to the Dispatcher.
type Shell struct {
	sess       *jobctl.Session
	dispatcher *Dispatcher
	out        io.Writer
	log        *slog.Logger
	host       string

	cfg atomic.Pointer[config.Config]
}

func New(sess *jobctl.Session, dispatcher *Dispatcher, cfg *config.Config, out io.Writer, log *slog.Logger) *Shell {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}

	s := &Shell{
		sess:       sess,
		dispatcher: dispatcher,
		out:        out,
		log:        log,
		host:       host,
	}
	s.cfg.Store(cfg)
	return s
}

// SetConfig swaps the configuration used for prompts.
func (s *Shell) SetConfig(cfg *config.Config) {
	s.cfg.Store(cfg)
}

// Host returns the hostname shown in the prompt and banner.
func (s *Shell) Host() string {
	return s.host
}

// Prompt renders the configured prompt for the current directory.
func (s *Shell) Prompt() string {
	return RenderPrompt(s.cfg.Load().Prompt, s.host, s.sess.Cwd())
}

// Execute runs one input line. It returns builtins.ErrQuit when the line
// asks the shell to stop; other failures are logged and swallowed.
func (s *Shell) Execute(line string) error {
	tokens, background := parser.ParseWithBackground(line)
	if len(tokens) == 0 {
		return nil
	}

	err := s.dispatcher.Dispatch(tokens, background)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, builtins.ErrQuit):
		return err
	default:
		s.log.Debug("command not run", "line", line, "error", err)
		return nil
	}
}

// Run reads commands from the terminal until EOF or quit.
func (s *Shell) Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.Prompt(),
		HistoryFile:     s.cfg.Load().HistoryPath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		Stdout:          s.out,
	})
	if err != nil {
		return fmt.Errorf("start line editor: %w", err)
	}
	defer rl.Close()

	for {
		if s.sess.ConsumePromptSuppression() {
			rl.SetPrompt("")
		} else {
			rl.SetPrompt(s.Prompt())
		}

		line, err := rl.Readline()
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, readline.ErrInterrupt):
			continue
		case err != nil:
			return fmt.Errorf("read line: %w", err)
		}

		if err := s.Execute(line); err != nil {
			return nil
		}
	}
}

// RunBatch executes every line of the file at path, then returns.
func (s *Shell) RunBatch(fsys afero.Fs, path string) error {
	f, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := s.Execute(scanner.Text()); err != nil {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read batch file: %w", err)
	}
	return nil
}
