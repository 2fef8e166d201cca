//go:build !linux

package tty

import "os"

type Keyboard struct{}

func Open(_ *os.File) (*Keyboard, error) {
	return nil, ErrUnsupported
}

func (k *Keyboard) Ready() (bool, error) {
	return false, ErrUnsupported
}

func (k *Keyboard) ReadKey() (byte, error) {
	return 0, ErrUnsupported
}

func (k *Keyboard) Close() error {
	return nil
}
