package gitexec

import (
	"fmt"
	"strings"
)

// CmdError carries the failure of one git invocation, with the captured
// output of the command. Some git commands report the interesting part
// of a failure on stdout, so both streams are kept.
type CmdError struct {
	Args   []string
	Stdout string
	Stderr string
	Err    error
	_      struct{}
}

func (e *CmdError) Error() string {
	msg := fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap the process error, usually an exec.ExitError
func (e *CmdError) Unwrap() error {
	return e.Err
}

// OutputContains tells whether the captured output, on either stream,
// mentions any of the given fragments, case insensitively.
func (e *CmdError) OutputContains(fragments ...string) bool {
	lower := strings.ToLower(e.Stdout + "\n" + e.Stderr)
	for _, f := range fragments {
		if strings.Contains(lower, strings.ToLower(f)) {
			return true
		}
	}
	return false
}
