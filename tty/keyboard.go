package tty

import (
	"errors"
	"os"

	"github.com/mattn/go-isatty"
)

var ErrUnsupported = errors.New("keyboard polling not supported on this platform")

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
