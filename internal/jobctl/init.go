package jobctl

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
)

// Init prepares the session for job control: it waits until the shell is
// in the terminal's foreground, calls arm so signal handling is in place
// before any child exists, makes the shell its own process group leader,
// claims the terminal and saves its attributes.
//
// Any error is unrecoverable for an interactive shell.
func Init(s *Session, tty *os.File, arm func()) error {
	if !isatty.IsTerminal(tty.Fd()) {
		return ErrNotInteractive
	}
	fd := int(tty.Fd())
	s.Interactive = true
	s.tty = fd

	for {
		fg, err := unix.IoctlGetInt(fd, unix.TIOCGPGRP)
		if err != nil {
			return fmt.Errorf("read terminal foreground group: %w", err)
		}
		s.PGID = unix.Getpgrp()
		if fg == s.PGID {
			break
		}
		if err := unix.Kill(s.PID, unix.SIGTTIN); err != nil {
			return fmt.Errorf("stop until foreground: %w", err)
		}
	}

	if arm != nil {
		arm()
	}

	// EPERM here means we already lead a session; the check below decides.
	setpgidErr := unix.Setpgid(0, 0)
	s.PGID = unix.Getpgrp()
	if s.PID != s.PGID {
		return fmt.Errorf("%w: pid %d, pgid %d (setpgid: %v)", ErrNotGroupLeader, s.PID, s.PGID, setpgidErr)
	}

	// Claiming the terminal from a group that is not yet foreground raises
	// SIGTTOU unless it is ignored.
	signal.Ignore(unix.SIGTTOU)
	defer signal.Reset(unix.SIGTTOU)
	if err := unix.IoctlSetPointerInt(fd, unix.TIOCSPGRP, s.PGID); err != nil {
		return fmt.Errorf("claim terminal: %w", err)
	}

	modes, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return fmt.Errorf("save terminal attributes: %w", err)
	}
	s.modes = modes
	return nil
}

// Restore writes back the terminal attributes saved by Init.
func (s *Session) Restore() error {
	if s.modes == nil {
		return nil
	}
	return unix.IoctlSetTermios(s.tty, ioctlWriteTermios, s.modes)
}
