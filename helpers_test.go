package ecfan

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/mdouchement/logger"
)

func newTestLogger(t *testing.T) (logger.Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	h := logger.NewSlogTextHandler(buf, &logger.SlogTextOption{
		Level:            slog.LevelDebug,
		DisableTimestamp: true,
	})
	return logger.WrapSlogHandler(h), buf
}

func mustProfile(t *testing.T, name string) Config {
	t.Helper()
	var c Config
	if err := c.UseProfile(name); err != nil {
		t.Fatalf("UseProfile(%s) error: %v", name, err)
	}
	return c
}

// newTestController returns a controller over an in-memory EC initialized for the profile.
func newTestController(t *testing.T, profile string) (*Controller, *DummyEC, *bytes.Buffer) {
	t.Helper()
	fans := mustProfile(t, profile).Fans()
	regs := NewDummyECFor(fans)
	log, buf := newTestLogger(t)
	return New(regs, fans, log), regs, buf
}

// failingRegisters fails every write to the given offsets.
type failingRegisters struct {
	*DummyEC
	offsets map[int]bool
}

func (r *failingRegisters) Write(offset int, value byte) error {
	if r.offsets[offset] {
		return fmt.Errorf("write 0x%02X: permission denied", offset)
	}
	return r.DummyEC.Write(offset, value)
}

func mustRead(t *testing.T, regs Registers, offset int) byte {
	t.Helper()
	v, err := regs.Read(offset)
	if err != nil {
		t.Fatalf("Read(0x%02X) error: %v", offset, err)
	}
	return v
}
