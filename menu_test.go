package ecfan

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mdouchement/ecfan/ec"
)

func newTestMenu(t *testing.T, ctrl *Controller, input string) (*Menu, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	log, _ := newTestLogger(t)

	m := NewMenu(ctrl, strings.NewReader(input), out, log)
	m.Pause = 0
	m.Refresh = time.Millisecond
	m.Interrupts = func() (<-chan os.Signal, func()) {
		return nil, func() {}
	}
	return m, out
}

// interruptAfter simulates a Ctrl+C after d.
func interruptAfter(d time.Duration) func() (<-chan os.Signal, func()) {
	return func() (<-chan os.Signal, func()) {
		c := make(chan os.Signal, 1)
		timer := time.AfterFunc(d, func() { c <- os.Interrupt })
		return c, func() { timer.Stop() }
	}
}

func TestMenu_SetPercentage(t *testing.T) {
	ctrl, regs, _ := newTestController(t, "gmk")
	m, out := newTestMenu(t, ctrl, "1\n45\nq\n")

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := []Write{{Offset: 0x23, Value: 33}, {Offset: 0x24, Value: 35}}
	if got := regs.Writes(); !reflect.DeepEqual(got, want) {
		t.Fatalf("writes=%v want %v", got, want)
	}

	output := out.String()
	for _, s := range []string{
		"=== Complete Fan Status ===",
		"1. Set Fan 1 percentage",
		"4. Set all fans",
		"5. Set auto mode (BIOS control)",
		"6. Monitor continuously",
		"q. Quit",
		"Enter Fan 1 percentage (20-100): ",
		"Set Fan 1 to 40% (0x24=35)",
	} {
		if !strings.Contains(output, s) {
			t.Fatalf("output does not contain %q:\n%s", s, output)
		}
	}
}

func TestMenu_SetAll(t *testing.T) {
	ctrl, regs, _ := newTestController(t, "gmk")
	m, _ := newTestMenu(t, ctrl, "4\n20\n60\n100\nq\n")

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	for off, want := range map[int]byte{0x24: 34, 0x22: 20, 0x26: 54, 0x23: 33, 0x21: 17, 0x25: 49} {
		if v := mustRead(t, regs, off); v != want {
			t.Fatalf("0x%02X=%d want %d", off, v, want)
		}
	}
}

func TestMenu_AutoMode(t *testing.T) {
	ctrl, regs, _ := newTestController(t, "gmk")
	m, out := newTestMenu(t, ctrl, "5\nq\n")

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := []Write{{Offset: 0x23, Value: 32}, {Offset: 0x21, Value: 16}, {Offset: 0x25, Value: 48}}
	if got := regs.Writes(); !reflect.DeepEqual(got, want) {
		t.Fatalf("writes=%v want %v", got, want)
	}
	if !strings.Contains(out.String(), "All fans set to auto mode") {
		t.Fatalf("output:\n%s", out.String())
	}
}

func TestMenu_InvalidInputsAreReported(t *testing.T) {
	ctrl, regs, _ := newTestController(t, "gmk")
	m, out := newTestMenu(t, ctrl, "abc\n42\n2\nfast\n2\n80\nq\n")

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	output := out.String()
	for _, s := range []string{
		`Error: invalid choice "abc"`,
		`Error: invalid choice "42"`,
		`Error: "fast": invalid percentage`,
		"Set Fan 2 to 80% (0x22=21)",
	} {
		if !strings.Contains(output, s) {
			t.Fatalf("output does not contain %q:\n%s", s, output)
		}
	}

	if v := mustRead(t, regs, 0x22); v != 21 {
		t.Fatalf("0x22=%d want 21", v)
	}
}

func TestMenu_EndOfInput(t *testing.T) {
	ctrl, _, _ := newTestController(t, "gmk")

	for _, input := range []string{"", "1\n", "4\n20\n"} {
		m, _ := newTestMenu(t, ctrl, input)
		if err := m.Run(context.Background()); err != nil {
			t.Fatalf("input %q: Run() error: %v", input, err)
		}
	}
}

func TestMenu_InterruptWhileWaitingForInput(t *testing.T) {
	ctrl, _, _ := newTestController(t, "gmk")

	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })

	out := &bytes.Buffer{}
	log, _ := newTestLogger(t)
	m := NewMenu(ctrl, r, out, log)
	m.Interrupts = interruptAfter(20 * time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- m.Run(context.Background())
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return on interrupt")
	}
}

func TestMenu_InterruptDuringErrorPause(t *testing.T) {
	ctrl, _, _ := newTestController(t, "gmk")

	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })

	out := &bytes.Buffer{}
	log, _ := newTestLogger(t)
	m := NewMenu(ctrl, r, out, log)
	m.Pause = time.Hour
	m.Interrupts = interruptAfter(50 * time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- m.Run(context.Background())
	}()

	if _, err := io.WriteString(w, "abc\n"); err != nil {
		t.Fatalf("WriteString() error: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return on interrupt")
	}

	if !strings.Contains(out.String(), `Error: invalid choice "abc"`) {
		t.Fatalf("output:\n%s", out.String())
	}
}

func TestMenu_Watch(t *testing.T) {
	ctrl, _, _ := newTestController(t, "gmk")
	m, out := newTestMenu(t, ctrl, "6\nq\n")

	var calls int
	m.Watch = func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	}
	m.Interrupts = interruptAfter(10 * time.Millisecond)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("watch calls=%d want 1", calls)
	}
	if !strings.Contains(out.String(), "Monitoring... Press Ctrl+C to return to menu") {
		t.Fatalf("output:\n%s", out.String())
	}
}

func TestMenu_DefaultWatchRefreshes(t *testing.T) {
	ctrl, _, _ := newTestController(t, "gmk")
	m, out := newTestMenu(t, ctrl, "")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := m.Watch(ctx); err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	if n := strings.Count(out.String(), "=== Complete Fan Status ==="); n < 2 {
		t.Fatalf("status printed %d times, want several refreshes", n)
	}
}

func TestMenu_MissingDevice(t *testing.T) {
	fans := mustProfile(t, "gmk").Fans()
	log, _ := newTestLogger(t)
	ctrl := New(ec.Open(filepath.Join(t.TempDir(), "io")), fans, log)

	m, out := newTestMenu(t, ctrl, "1\n50\n5\nq\n")
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	output := out.String()
	if !strings.Contains(output, "Cannot read EC data") {
		t.Fatalf("output does not report the unreadable EC:\n%s", output)
	}
	if strings.Count(output, "Error: ") != 2 {
		t.Fatalf("both actions should have been reported:\n%s", output)
	}
}

func TestMenu_WatchErrorIsReported(t *testing.T) {
	ctrl, _, _ := newTestController(t, "gmk")
	m, out := newTestMenu(t, ctrl, "6\nq\n")
	m.Watch = func(context.Context) error {
		return errors.New("no terminal")
	}

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !strings.Contains(out.String(), "Error: no terminal") {
		t.Fatalf("output:\n%s", out.String())
	}
}
