package tty

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// A Keyboard reads single key presses from a terminal without waiting for a newline.
//
// The terminal is switched to cbreak mode: no line buffering and no echo,
// but Ctrl+C still raises SIGINT.
type Keyboard struct {
	f     *os.File
	fd    int
	state *term.State
	eof   bool
}

func Open(f *os.File) (*Keyboard, error) {
	k := &Keyboard{
		f:  f,
		fd: int(f.Fd()),
	}

	if !term.IsTerminal(k.fd) {
		return k, nil // e.g. piped input, already unbuffered
	}

	var err error
	k.state, err = term.GetState(k.fd)
	if err != nil {
		return nil, fmt.Errorf("tty: %w", err)
	}

	t, err := unix.IoctlGetTermios(k.fd, unix.TCGETS)
	if err != nil {
		return nil, fmt.Errorf("tty: get termios: %w", err)
	}
	t.Lflag &^= unix.ICANON | unix.ECHO
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(k.fd, unix.TCSETS, t); err != nil {
		return nil, fmt.Errorf("tty: set termios: %w", err)
	}

	return k, nil
}

// Ready reports whether a key press is pending, without blocking.
// Nothing is pending anymore once the end of input is reached.
func (k *Keyboard) Ready() (bool, error) {
	if k.eof {
		return false, nil
	}

	fds := []unix.PollFd{{Fd: int32(k.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, 0)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("tty: poll: %w", err)
		}

		return n > 0 && fds[0].Revents&unix.POLLIN != 0, nil
	}
}

func (k *Keyboard) ReadKey() (byte, error) {
	var b [1]byte
	if _, err := k.f.Read(b[:]); err != nil {
		k.eof = err == io.EOF
		return 0, fmt.Errorf("tty: read: %w", err)
	}

	return b[0], nil
}

// Close restores the terminal as it was before Open.
func (k *Keyboard) Close() error {
	if k.state == nil {
		return nil
	}

	return term.Restore(k.fd, k.state)
}
