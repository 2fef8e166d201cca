package ecfan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mdouchement/logger"
)

// A Monitor polls the tachometers, renders them on a single line and adjusts
// the selected fan from single key presses.
//
// Keys: 1-9 select a fan, w raises and s lowers its PWM.
// The original PWM values are restored when the context is canceled.
type Monitor struct {
	ctrl     *Controller
	session  *Session
	input    Input
	out      io.Writer
	log      logger.Logger
	interval time.Duration
	closed   bool // input reached its end
}

func NewMonitor(ctrl *Controller, session *Session, input Input, out io.Writer, log logger.Logger, interval time.Duration) *Monitor {
	return &Monitor{
		ctrl:     ctrl,
		session:  session,
		input:    input,
		out:      out,
		log:      log,
		interval: interval,
	}
}

func (m *Monitor) Run(ctx context.Context) error {
	fans := m.ctrl.Fans()
	names := make([]string, 0, len(fans))
	for _, ch := range fans {
		names = append(names, ch.Label+": RPM")
	}

	fmt.Fprintf(m.out, "Monitoring EC fans. Press Ctrl+C to exit. Use %s to select fan, w/s to adjust PWM.\n", selectionKeys(fans))
	fmt.Fprintf(m.out, "Format: %s | PWM: val\n", strings.Join(names, " | "))

	for {
		m.render()

		if !sleep(ctx, m.interval) {
			break
		}

		m.poll()
		if ctx.Err() != nil {
			break
		}
	}

	fmt.Fprintln(m.out, "\nExiting, restoring original PWM values...")
	err := m.session.Restore()
	if err != nil {
		m.log.WithError(err).Error("Could not restore every PWM value")
	}
	return err
}

// selectionKeys lists the keys selecting a fan, e.g. "1-3" or "1,3".
func selectionKeys(fans []Channel) string {
	keys := make([]string, 0, len(fans))
	contiguous := true
	for i, ch := range fans {
		keys = append(keys, strconv.Itoa(ch.ID+1))
		contiguous = contiguous && ch.ID == i
	}

	if contiguous && len(keys) > 1 {
		return keys[0] + "-" + keys[len(keys)-1]
	}
	return strings.Join(keys, ",")
}

func (m *Monitor) render() {
	rpms, _ := m.ctrl.RPMs() // Failures are logged by the controller.

	var b strings.Builder
	b.WriteByte('\r')
	for _, ch := range m.ctrl.Fans() {
		rpm, ok := rpms[ch.ID]
		if ok {
			fmt.Fprintf(&b, "%s: %5d | ", ch.Label, rpm)
		} else {
			fmt.Fprintf(&b, "%s: %5s | ", ch.Label, "n/a")
		}
	}
	fmt.Fprintf(&b, "PWM: %3d ", m.session.PWM(m.session.Selected()))

	io.WriteString(m.out, b.String())
}

func (m *Monitor) poll() {
	if m.closed {
		return
	}

	ready, err := m.input.Ready()
	if err != nil {
		m.log.WithError(err).Error("Could not poll keyboard")
		return
	}
	if !ready {
		return
	}

	key, err := m.input.ReadKey()
	if errors.Is(err, io.EOF) {
		m.closed = true
		m.log.Info("Keyboard input closed, monitoring only")
		return
	}
	if err != nil {
		m.log.WithError(err).Error("Could not read keyboard")
		return
	}

	m.dispatch(key)
}

func (m *Monitor) dispatch(key byte) {
	switch {
	case key >= '1' && key <= '9':
		m.session.Select(int(key - '1'))
	case key == 'w':
		m.session.Increase() // Failures are logged by the controller.
	case key == 's':
		m.session.Decrease()
	}
}
