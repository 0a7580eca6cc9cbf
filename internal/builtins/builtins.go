package builtins

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gbsh/internal/jobctl"
)

// ErrQuit asks the command loop to stop.
var ErrQuit = errors.New("quit")

// ClearSequence homes the cursor and erases the screen.
const ClearSequence = "\033[H\033[2J"

// Handle runs tokens as a built-in if it names one. It reports whether the
// command was consumed.
func Handle(sess *jobctl.Session, out io.Writer, tokens []string) (bool, error) {
	if len(tokens) == 0 {
		return true, nil
	}

	switch tokens[0] {
	case "cd":
		cd(sess, out, tokens)
		return true, nil
	case "clear":
		fmt.Fprint(out, ClearSequence)
		return true, nil
	case "quit", "exit":
		return true, ErrQuit
	default:
		return false, nil
	}
}

// cd is the only built-in allowed to move the session's directory.
func cd(sess *jobctl.Session, out io.Writer, tokens []string) {
	if len(tokens) < 2 {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(out, "cd:", err)
			return
		}
		chdir(sess, out, home)
		return
	}
	chdir(sess, out, tokens[1])
}

func chdir(sess *jobctl.Session, out io.Writer, dir string) {
	if err := sess.Chdir(dir); err != nil {
		fmt.Fprintf(out, " %s: no such directory\n", dir)
	}
}
