package ecfan

import (
	"path/filepath"
	"testing"

	"github.com/mdouchement/ecfan/ec"
)

func TestSession_Clamp(t *testing.T) {
	ctrl, regs, _ := newTestController(t, "scan")
	regs.Write(0x07, 250)
	regs.Write(0x08, 5)

	s, err := NewSession(ctrl, 10)
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}

	for range 5 {
		v, err := s.Increase()
		if err != nil {
			t.Fatalf("Increase() error: %v", err)
		}
		if v != 255 {
			t.Fatalf("Increase()=%d want 255", v)
		}
	}
	if v := mustRead(t, regs, 0x07); v != 255 {
		t.Fatalf("0x07=%d want 255", v)
	}

	if !s.Select(1) {
		t.Fatal("Select(1) failed")
	}
	for range 5 {
		v, err := s.Decrease()
		if err != nil {
			t.Fatalf("Decrease() error: %v", err)
		}
		if v != 0 {
			t.Fatalf("Decrease()=%d want 0", v)
		}
	}
	if v := mustRead(t, regs, 0x08); v != 0 {
		t.Fatalf("0x08=%d want 0", v)
	}
}

func TestSession_Select(t *testing.T) {
	ctrl, _, _ := newTestController(t, "scan")
	s, _ := NewSession(ctrl, 10)

	if s.Selected() != 0 {
		t.Fatalf("Selected()=%d want 0", s.Selected())
	}
	if s.Select(7) {
		t.Fatal("Select(7) must fail on a 3 channels map")
	}
	if s.Selected() != 0 {
		t.Fatalf("Selected()=%d want 0", s.Selected())
	}
	if !s.Select(2) || s.Selected() != 2 {
		t.Fatalf("Selected()=%d want 2", s.Selected())
	}
}

func TestSession_RestoreOriginalValues(t *testing.T) {
	ctrl, regs, _ := newTestController(t, "scan")
	regs.Write(0x07, 100)
	regs.Write(0x08, 150)
	regs.Write(0x09, 200)

	s, err := NewSession(ctrl, 10)
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}

	for id := range 3 {
		s.Select(id)
		s.Increase()
		s.Increase()
		s.Decrease()
	}
	if v := mustRead(t, regs, 0x08); v != 160 {
		t.Fatalf("0x08=%d want 160", v)
	}

	if err := s.Restore(); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}

	for off, want := range map[int]byte{0x07: 100, 0x08: 150, 0x09: 200} {
		if v := mustRead(t, regs, off); v != want {
			t.Fatalf("0x%02X=%d want %d", off, v, want)
		}
	}
	for id, want := range []byte{100, 150, 200} {
		if s.PWM(id) != want {
			t.Fatalf("PWM(%d)=%d want %d", id, s.PWM(id), want)
		}
	}
}

func TestSession_MissingDevice(t *testing.T) {
	fans := mustProfile(t, "scan").Fans()
	log, _ := newTestLogger(t)
	ctrl := New(ec.Open(filepath.Join(t.TempDir(), "io")), fans, log)

	s, err := NewSession(ctrl, 10)
	if err == nil {
		t.Fatal("NewSession() expected an error")
	}
	if _, ok := s.Original(0); ok {
		t.Fatal("no original value can be captured")
	}

	if _, err := s.Increase(); err == nil {
		t.Fatal("Increase() expected an error")
	}
	if err := s.Restore(); err != nil {
		t.Fatalf("Restore() error: %v, nothing to restore", err)
	}
}
