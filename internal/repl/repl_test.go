package repl

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"gbsh/internal/builtins"
	"gbsh/internal/config"
	"gbsh/internal/executor"
	"gbsh/internal/jobctl"

	"github.com/fatih/color"
	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

type call struct {
	argv       []string
	background bool
	pipeline   bool
}

type fakeRunner struct {
	calls []call
	err   error
}

func (f *fakeRunner) Launch(argv []string, background bool) (executor.Result, error) {
	f.calls = append(f.calls, call{argv: argv, background: background})
	return executor.Result{Argv: argv}, f.err
}

func (f *fakeRunner) RunPipeline(argv []string) ([]executor.Result, error) {
	f.calls = append(f.calls, call{argv: argv, pipeline: true})
	return nil, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestShell(t *testing.T, runner Runner) (*Shell, *bytes.Buffer) {
	t.Helper()
	sess, err := jobctl.NewSession()
	require.NoError(t, err)

	var out bytes.Buffer
	d := NewDispatcher(sess, runner, &out, discardLogger())
	return New(sess, d, config.Default(), &out, discardLogger()), &out
}

func TestDispatchRouting(t *testing.T) {
	cases := map[string]struct {
		line     string
		expected []call
	}{
		"single":             {"ls -l", []call{{argv: []string{"ls", "-l"}}}},
		"background":         {"sleep 5 &", []call{{argv: []string{"sleep", "5"}, background: true}}},
		"pipeline":           {"ls ; wc -l", []call{{argv: []string{"ls", ";", "wc", "-l"}, pipeline: true}}},
		"pipeline ignores &": {"ls ; wc &", []call{{argv: []string{"ls", ";", "wc"}, pipeline: true}}},
		"empty":              {"   ", nil},
		"builtin":            {"clear", nil},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			runner := &fakeRunner{}
			shell, _ := newTestShell(t, runner)

			require.NoError(t, shell.Execute(tc.line))
			assert.Equal(t, tc.expected, runner.calls)
		})
	}
}

func TestExecuteSwallowsLaunchErrors(t *testing.T) {
	runner := &fakeRunner{err: errors.New("boom")}
	shell, _ := newTestShell(t, runner)

	assert.NoError(t, shell.Execute("missing-command"))
	assert.Len(t, runner.calls, 1)
}

func TestExecuteQuit(t *testing.T) {
	runner := &fakeRunner{}
	shell, _ := newTestShell(t, runner)

	assert.ErrorIs(t, shell.Execute("quit"), builtins.ErrQuit)
	assert.Empty(t, runner.calls)
}

func TestRunBatchStopsAtQuit(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/batch.txt", []byte("echo one\n\nls ; wc\nquit\necho never\n"), 0o644))

	runner := &fakeRunner{}
	shell, _ := newTestShell(t, runner)

	require.NoError(t, shell.RunBatch(fsys, "/batch.txt"))
	assert.Equal(t, []call{
		{argv: []string{"echo", "one"}},
		{argv: []string{"ls", ";", "wc"}, pipeline: true},
	}, runner.calls)
}

func TestRunBatchMissingFile(t *testing.T) {
	shell, _ := newTestShell(t, &fakeRunner{})
	assert.Error(t, shell.RunBatch(afero.NewMemMapFs(), "/nope.txt"))
}

func TestRunBatchWithProcesses(t *testing.T) {
	sess, err := jobctl.NewSession()
	require.NoError(t, err)

	var out bytes.Buffer
	ex := executor.New(sess, jobctl.NewReaper(discardLogger()), discardLogger())
	ex.Stdin = nil
	ex.Stdout = &out
	ex.Stderr = &out
	shell := New(sess, NewDispatcher(sess, ex, &out, discardLogger()), config.Default(), &out, discardLogger())

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/batch.txt", []byte("echo one\nprintf b\\na\\n ; sort\n"), 0o644))

	require.NoError(t, shell.RunBatch(fsys, "/batch.txt"))
	assert.Equal(t, "one\na\nb\n", out.String())
}

func TestPrompt(t *testing.T) {
	shell, _ := newTestShell(t, &fakeRunner{})

	assert.Equal(t, shell.Host()+" "+shell.sess.Cwd()+" >>>", shell.Prompt())

	shell.SetConfig(&config.Config{Prompt: "[{cwd}]$ "})
	assert.True(t, strings.HasPrefix(shell.Prompt(), "["+shell.sess.Cwd()))
}

func TestRenderPrompt(t *testing.T) {
	assert.Equal(t, "box /tmp >>>", RenderPrompt("{host} {cwd} >>>", "box", "/tmp"))
	assert.Equal(t, "plain", RenderPrompt("plain", "box", "/tmp"))
}

func TestBanner(t *testing.T) {
	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	for name, batch := range map[string]bool{"interactive": false, "batch": true} {
		var buf bytes.Buffer
		Banner(&buf, "testhost", batch)
		g.Assert(t, name, buf.Bytes())
	}
}
