package jobctl

import "errors"

var (
	ErrNotInteractive = errors.New("standard input is not a terminal")
	ErrNotGroupLeader = errors.New("shell is not process group leader")
)
