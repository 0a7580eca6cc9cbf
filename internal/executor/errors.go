package executor

import "errors"

var (
	// ErrFork means the child process could not be created.
	ErrFork = errors.New("child process could not be created")
	// ErrExec means the program was not found or is not executable.
	ErrExec = errors.New("command not found")
)
