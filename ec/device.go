package ec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// KeyHostDebugFS overrides the debugfs mount point (e.g. when running in a container).
const KeyHostDebugFS = "HOST_DEBUGFS"

var (
	ErrInvalidOffset = errors.New("offset out of register space")
	ErrShortRead     = errors.New("short read")
)

// A Device gives access to the EC register space through the ec_sys debugfs file.
// The file is opened and closed on every operation.
type Device struct {
	sync sync.Mutex
	path string
}

// DefaultPath returns the ec_sys io file of the first EC.
func DefaultPath() string {
	root := os.Getenv(KeyHostDebugFS)
	if root == "" {
		root = "/sys/kernel/debug"
	}

	return filepath.Join(root, "ec", "ec0", "io")
}

func Open(path string) *Device {
	if path == "" {
		path = DefaultPath()
	}

	return &Device{path: path}
}

func (d *Device) Path() string {
	return d.path
}

func (d *Device) Read(offset int) (byte, error) {
	var b [1]byte
	if err := d.read(opRead, offset, b[:]); err != nil {
		return 0, err
	}

	return b[0], nil
}

// ReadWord reads a little-endian 16 bits value stored at offset and offset+1.
func (d *Device) ReadWord(offset int) (uint16, error) {
	var b [2]byte
	if err := d.read(opReadWord, offset, b[:]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(b[:]), nil
}

func (d *Device) Write(offset int, value byte) error {
	if err := check(offset, 1); err != nil {
		return fmt.Errorf("ec: %s 0x%02X: %w", opWrite, offset, err)
	}

	d.sync.Lock()
	defer d.sync.Unlock()

	f, err := os.OpenFile(d.path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("ec: %s 0x%02X: %w", opWrite, offset, err)
	}
	defer f.Close()

	_, err = f.WriteAt([]byte{value}, int64(offset))
	if err != nil {
		return fmt.Errorf("ec: %s 0x%02X: %w", opWrite, offset, err)
	}

	return nil
}

// Snapshot reads the whole register space at once.
// On a truncated file, the missing registers are zeroed and ErrShortRead is returned along with the data.
func (d *Device) Snapshot() ([]byte, error) {
	d.sync.Lock()
	defer d.sync.Unlock()

	data := make([]byte, Size)

	f, err := os.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("ec: %s: %w", opSnapshot, err)
	}
	defer f.Close()

	n, err := io.ReadFull(f, data)
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		return data, fmt.Errorf("ec: %s: %d of %d bytes: %w", opSnapshot, n, Size, ErrShortRead)
	case err != nil:
		return nil, fmt.Errorf("ec: %s: %w", opSnapshot, err)
	}

	return data, nil
}

func (d *Device) read(op string, offset int, buf []byte) error {
	if err := check(offset, len(buf)); err != nil {
		return fmt.Errorf("ec: %s 0x%02X: %w", op, offset, err)
	}

	d.sync.Lock()
	defer d.sync.Unlock()

	f, err := os.Open(d.path)
	if err != nil {
		return fmt.Errorf("ec: %s 0x%02X: %w", op, offset, err)
	}
	defer f.Close()

	n, err := f.ReadAt(buf, int64(offset))
	if n < len(buf) {
		if err == nil || err == io.EOF {
			err = ErrShortRead
		}
		return fmt.Errorf("ec: %s 0x%02X: %w", op, offset, err)
	}

	return nil
}

func check(offset, n int) error {
	if offset < 0 || offset+n > Size {
		return ErrInvalidOffset
	}
	return nil
}
