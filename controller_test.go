package ecfan

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mdouchement/ecfan/ec"
)

func TestController_SetPercentage(t *testing.T) {
	ctrl, regs, _ := newTestController(t, "gmk")

	step, err := ctrl.SetPercentage(0, 45)
	if err != nil {
		t.Fatalf("SetPercentage() error: %v", err)
	}
	if step != (Step{Percent: 40, Value: 35}) {
		t.Fatalf("step=%+v want {40 35}", step)
	}

	want := []Write{{Offset: 0x23, Value: 33}, {Offset: 0x24, Value: 35}}
	if got := regs.Writes(); !reflect.DeepEqual(got, want) {
		t.Fatalf("writes=%v want %v (enable first)", got, want)
	}
}

func TestController_SetPercentageOutOfRange(t *testing.T) {
	ctrl, regs, _ := newTestController(t, "gmk")

	if _, err := ctrl.SetPercentage(2, 400); err != nil {
		t.Fatalf("SetPercentage() error: %v", err)
	}
	if v := mustRead(t, regs, 0x26); v != 54 {
		t.Fatalf("0x26=%d want 54", v)
	}

	if _, err := ctrl.SetPercentage(1, -10); err != nil {
		t.Fatalf("SetPercentage() error: %v", err)
	}
	if v := mustRead(t, regs, 0x22); v != 18 {
		t.Fatalf("0x22=%d want 18", v)
	}
}

func TestController_SetPercentageErrors(t *testing.T) {
	ctrl, _, _ := newTestController(t, "scan")
	if _, err := ctrl.SetPercentage(0, 50); !errors.Is(err, ErrNoDutyCycle) {
		t.Fatalf("error=%v want %v", err, ErrNoDutyCycle)
	}
	if _, err := ctrl.SetPercentage(5, 50); !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("error=%v want %v", err, ErrUnknownChannel)
	}
}

func TestController_SetAll(t *testing.T) {
	fans := mustProfile(t, "gmk").Fans()
	regs := &failingRegisters{DummyEC: NewDummyECFor(fans), offsets: map[int]bool{0x21: true}}
	log, _ := newTestLogger(t)
	ctrl := New(regs, fans, log)

	err := ctrl.SetAll(map[int]int{0: 20, 1: 40, 2: 100})
	if err == nil || !strings.Contains(err.Error(), "0x21") {
		t.Fatalf("error=%v want fan2 failure", err)
	}

	// fan2 failed but fan1 and fan3 were set.
	if v := mustRead(t, regs, 0x24); v != 34 {
		t.Fatalf("0x24=%d want 34", v)
	}
	if v := mustRead(t, regs, 0x26); v != 54 {
		t.Fatalf("0x26=%d want 54", v)
	}
}

func TestController_SetAuto(t *testing.T) {
	for _, prior := range []byte{0, 33, 0xFF} {
		ctrl, regs, _ := newTestController(t, "gmk")
		for _, off := range []int{0x21, 0x23, 0x25} {
			regs.Write(off, prior)
		}

		if err := ctrl.SetAuto(); err != nil {
			t.Fatalf("SetAuto() error: %v", err)
		}

		want := map[int]byte{0x23: 32, 0x21: 16, 0x25: 48}
		for off, v := range want {
			if got := mustRead(t, regs, off); got != v {
				t.Fatalf("prior=%d: 0x%02X=%d want %d", prior, off, got, v)
			}
		}
	}
}

func TestController_SetAutoWithoutEnableRegister(t *testing.T) {
	ctrl, _, _ := newTestController(t, "scan")
	if err := ctrl.SetAuto(); !errors.Is(err, ErrNoEnableRegister) {
		t.Fatalf("error=%v want %v", err, ErrNoEnableRegister)
	}
}

func TestController_Status(t *testing.T) {
	ctrl, _, _ := newTestController(t, "gmk")

	statuses, err := ctrl.Status()
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if len(statuses) != 3 {
		t.Fatalf("statuses=%d want 3", len(statuses))
	}
	for _, s := range statuses {
		if s.Percent != 60 || !s.Manual || s.RawRPM != 0x0B {
			t.Fatalf("status=%+v", s)
		}
	}
}

func TestController_MissingDevice(t *testing.T) {
	fans := mustProfile(t, "gmk").Fans()
	log, buf := newTestLogger(t)
	ctrl := New(ec.Open(filepath.Join(t.TempDir(), "io")), fans, log)

	if _, err := ctrl.Status(); err == nil {
		t.Fatal("Status() expected an error")
	}
	if _, err := ctrl.SetPercentage(0, 50); err == nil {
		t.Fatal("SetPercentage() expected an error")
	}
	if err := ctrl.SetAuto(); err == nil {
		t.Fatal("SetAuto() expected an error")
	}
	if _, err := ctrl.RPMs(); err == nil {
		t.Fatal("RPMs() expected an error")
	}

	for _, msg := range []string{
		"Could not read EC registers",
		"Could not enable manual control",
		"Could not disable manual control",
		"Could not read RPM",
	} {
		if !strings.Contains(buf.String(), msg) {
			t.Fatalf("log does not contain %q:\n%s", msg, buf.String())
		}
	}
}
