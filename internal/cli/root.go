package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gbsh/internal/builtins"
	"gbsh/internal/config"
	"gbsh/internal/executor"
	"gbsh/internal/jobctl"
	"gbsh/internal/repl"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:   "gbsh [batchfile]",
		Short: "A small job control shell",
		Long: "gbsh runs commands in the foreground or background, chains them into " +
			"pipelines with ';' and relays Ctrl-C to the running job. Given a file " +
			"it runs each line in batch mode.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath(cfgPath)
			if err != nil {
				return err
			}
			var batch string
			if len(args) == 1 {
				batch = args[0]
			}
			return runShell(cmd, afero.NewOsFs(), os.Stdin, path, batch)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default $HOME/.config/gbsh/config.toml)")

	rootCmd.AddCommand(
		newInitCmd(&cfgPath),
		newVersionCmd(),
	)

	return rootCmd
}

func resolveConfigPath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return config.DefaultPath()
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func runShell(cmd *cobra.Command, fsys afero.Fs, tty *os.File, cfgPath, batch string) error {
	out := cmd.OutOrStdout()

	loader := config.NewLoader(fsys, cfgPath)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	sess, err := jobctl.NewSession()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	log := newLogger(cmd.ErrOrStderr(), cfg.LogLevel).With("session", sess.ID)

	reaper := jobctl.NewReaper(log)
	relay := jobctl.NewRelay(sess, reaper, out, log)
	defer relay.Stop()

	if err := jobctl.Init(sess, tty, relay.Start); err != nil {
		if errors.Is(err, jobctl.ErrNotInteractive) {
			cmd.SilenceErrors = true
			fmt.Fprintln(cmd.ErrOrStderr(), "Could not make the shell interactive.")
		}
		return err
	}
	defer func() {
		if err := sess.Restore(); err != nil {
			log.Warn("restore terminal modes", "error", err)
		}
	}()

	if err := os.Setenv(cfg.Env.ShellKey, sess.Cwd()); err != nil {
		log.Warn("export shell directory", "key", cfg.Env.ShellKey, "error", err)
	}

	launcher := executor.New(sess, reaper, log)
	launcher.ParentEnvKey = cfg.Env.ParentKey
	launcher.Interrupted = relay.Interrupted

	shell := repl.New(sess, repl.NewDispatcher(sess, launcher, out, log), cfg, out, log)

	if ok, _ := afero.Exists(fsys, loader.Path()); ok {
		loader.Watch(shell.SetConfig, func(err error) {
			log.Warn("config reload rejected", "path", loader.Path(), "error", err)
		})
	}

	if cfg.ClearScreen {
		fmt.Fprint(out, builtins.ClearSequence)
	}
	if cfg.Banner {
		repl.Banner(out, shell.Host(), batch != "")
	}
	log.Debug("shell ready", "pid", sess.PID, "pgid", sess.PGID, "cwd", sess.Cwd())

	if batch != "" {
		err = shell.RunBatch(fsys, batch)
	} else {
		err = shell.Run()
	}

	if cfg.ClearScreen {
		fmt.Fprint(out, builtins.ClearSequence)
	}
	if n := reaper.Pending(); n > 0 {
		log.Info("background jobs still running", "count", n)
	}
	return err
}
