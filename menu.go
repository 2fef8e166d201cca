package ecfan

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mdouchement/logger"
)

// A Menu is the blocking command loop: full status, numbered actions, one line of input per action.
//
// With N channels: 1..N set a channel percentage, N+1 sets all of them, N+2 gives
// the control back to the BIOS, N+3 monitors continuously and q quits.
type Menu struct {
	ctrl *Controller
	in   *bufio.Reader
	out  io.Writer
	log  logger.Logger

	sync      sync.Mutex
	stopWatch context.CancelFunc

	// Clear the screen before each status print.
	Clear bool
	// Pause after a failed action.
	Pause time.Duration
	// Refresh is the status interval of the default Watch.
	Refresh time.Duration
	// Watch is the continuous monitoring action. It returns once its context is canceled.
	Watch func(ctx context.Context) error
	// Interrupts subscribes to the interrupts for the whole run.
	// An interrupt stops the running Watch, or ends the loop otherwise.
	Interrupts func() (<-chan os.Signal, func())
}

func NewMenu(ctrl *Controller, in io.Reader, out io.Writer, log logger.Logger) *Menu {
	m := &Menu{
		ctrl:    ctrl,
		in:      bufio.NewReader(in),
		out:     out,
		log:     log,
		Pause:   2 * time.Second,
		Refresh: 2 * time.Second,
		Interrupts: func() (<-chan os.Signal, func()) {
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt)
			return c, func() { signal.Stop(c) }
		},
	}
	m.Watch = m.watch

	return m
}

// Run loops until q, end of input or an interrupt outside of Watch.
// A failing action is reported and the loop goes on.
func (m *Menu) Run(ctx context.Context) error {
	fans := m.ctrl.Fans()
	n := len(fans)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupts, stop := m.Interrupts()
	defer stop()
	go m.route(ctx, interrupts, cancel)

	for {
		if ctx.Err() != nil {
			return nil
		}

		if m.Clear {
			io.WriteString(m.out, ClearScreen)
		}
		m.printStatus()
		m.printMenu(fans)

		choice, err := m.prompt(ctx, "Enter choice: ")
		if err != nil {
			return m.end(err)
		}

		choice = strings.TrimSpace(choice)
		if choice == "q" {
			return nil
		}

		err = m.dispatch(ctx, fans, n, choice)
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return m.end(err)
		}

		m.log.Debug(fmt.Sprintf("Menu action %s failed: %v", strconv.Quote(choice), err))
		fmt.Fprintf(m.out, "Error: %v\n", err)
		if !sleep(ctx, m.Pause) {
			return m.end(context.Canceled)
		}
	}
}

// route forwards each interrupt to the running Watch, or cancels the whole run.
func (m *Menu) route(ctx context.Context, interrupts <-chan os.Signal, cancel context.CancelFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-interrupts:
			m.sync.Lock()
			stopWatch := m.stopWatch
			m.sync.Unlock()

			if stopWatch != nil {
				stopWatch()
				continue
			}

			cancel()
			return
		}
	}
}

func (m *Menu) dispatch(ctx context.Context, fans []Channel, n int, choice string) error {
	action, err := strconv.Atoi(choice)
	if err != nil {
		return fmt.Errorf("invalid choice %s", strconv.Quote(choice))
	}

	switch {
	case action >= 1 && action <= n:
		ch := fans[action-1]
		pct, err := m.percentage(ctx, ch)
		if err != nil {
			return err
		}

		fmt.Fprintf(m.out, "Setting %s...\n", ch.Label)
		step, err := m.ctrl.SetPercentage(ch.ID, pct)
		if err != nil {
			return err
		}
		fmt.Fprintf(m.out, "Set %s to %d%% (0x%02X=%d)\n", ch.Label, step.Percent, ch.PWMRegister, step.Value)

	case action == n+1:
		pcts := make(map[int]int, n)
		for _, ch := range fans {
			pct, err := m.percentage(ctx, ch)
			if err != nil {
				return err
			}
			pcts[ch.ID] = pct
		}

		if err := m.ctrl.SetAll(pcts); err != nil {
			return err
		}
		fmt.Fprintln(m.out, "All fans set")

	case action == n+2:
		fmt.Fprintln(m.out, "Setting all fans to auto mode...")
		if err := m.ctrl.SetAuto(); err != nil {
			return err
		}
		fmt.Fprintln(m.out, "All fans set to auto mode")

	case action == n+3:
		fmt.Fprintln(m.out, "Monitoring... Press Ctrl+C to return to menu")

		wctx, stop := context.WithCancel(ctx)
		m.sync.Lock()
		m.stopWatch = stop
		m.sync.Unlock()

		err := m.Watch(wctx)

		m.sync.Lock()
		m.stopWatch = nil
		m.sync.Unlock()
		stop()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

	default:
		return fmt.Errorf("invalid choice %s", strconv.Quote(choice))
	}

	return nil
}

func (m *Menu) percentage(ctx context.Context, ch Channel) (int, error) {
	if len(ch.DutyCycle) == 0 {
		return 0, fmt.Errorf("%s: %w", ch.Name(), ErrNoDutyCycle)
	}

	lo, hi := ch.DutyCycle[0].Percent, ch.DutyCycle[0].Percent
	for _, s := range ch.DutyCycle {
		lo, hi = min(lo, s.Percent), max(hi, s.Percent)
	}

	input, err := m.prompt(ctx, fmt.Sprintf("Enter %s percentage (%d-%d): ", ch.Label, lo, hi))
	if err != nil {
		return 0, err
	}

	input = strings.TrimSpace(input)
	pct, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", strconv.Quote(input), ErrInvalidPercentage)
	}

	return pct, nil
}

// prompt waits for one line of input. An interrupt cancels the wait.
func (m *Menu) prompt(ctx context.Context, msg string) (string, error) {
	io.WriteString(m.out, msg)

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := m.in.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil // Last line without newline.
		}
		ch <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

func (m *Menu) end(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		fmt.Fprintln(m.out)
		return nil
	}
	return err
}

func (m *Menu) printStatus() {
	statuses, err := m.ctrl.Status()
	if statuses == nil {
		fmt.Fprintf(m.out, "Cannot read EC data: %v\n", err)
		return
	}

	WriteStatus(m.out, m.ctrl.Fans(), statuses)
	if err != nil {
		fmt.Fprintf(m.out, "Warning: %v\n", err)
	}
}

func (m *Menu) printMenu(fans []Channel) {
	n := len(fans)

	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, "=== Fan Control ===")
	for i, ch := range fans {
		fmt.Fprintf(m.out, "%d. Set %s percentage\n", i+1, ch.Label)
	}
	fmt.Fprintf(m.out, "%d. Set all fans\n", n+1)
	fmt.Fprintf(m.out, "%d. Set auto mode (BIOS control)\n", n+2)
	fmt.Fprintf(m.out, "%d. Monitor continuously\n", n+3)
	fmt.Fprintln(m.out, "q. Quit")
}

// watch redraws the status until ctx is canceled.
func (m *Menu) watch(ctx context.Context) error {
	for {
		if m.Clear {
			io.WriteString(m.out, ClearScreen)
		}
		m.printStatus()

		if !sleep(ctx, m.Refresh) {
			return nil
		}
	}
}
