package ecfan

import (
	"errors"
	"fmt"
)

// A Session holds the state of an interactive run: the selected channel,
// the PWM values found at start and the ones written since.
type Session struct {
	ctrl     *Controller
	step     int
	selected int
	original map[int]byte
	current  map[int]byte
}

// NewSession captures the PWM value of every channel.
// A channel whose capture failed is left out of the restoration.
func NewSession(ctrl *Controller, step int) (*Session, error) {
	s := &Session{
		ctrl:     ctrl,
		step:     step,
		original: make(map[int]byte),
		current:  make(map[int]byte),
	}

	var errs []error
	for _, ch := range ctrl.Fans() {
		v, err := ctrl.PWM(ch.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		s.original[ch.ID] = v
		s.current[ch.ID] = v
	}

	if fans := ctrl.Fans(); len(fans) > 0 {
		s.selected = fans[0].ID
	}

	return s, errors.Join(errs...)
}

func (s *Session) Selected() int {
	return s.selected
}

// Select changes the active channel. Unknown channels are ignored.
func (s *Session) Select(id int) bool {
	if _, err := s.ctrl.Channel(id); err != nil {
		return false
	}

	s.selected = id
	return true
}

func (s *Session) PWM(id int) byte {
	return s.current[id]
}

func (s *Session) Original(id int) (byte, bool) {
	v, ok := s.original[id]
	return v, ok
}

// Increase raises the selected channel's PWM by one step, saturating at 255.
func (s *Session) Increase() (byte, error) {
	return s.adjust(s.step)
}

// Decrease lowers the selected channel's PWM by one step, saturating at 0.
func (s *Session) Decrease() (byte, error) {
	return s.adjust(-s.step)
}

func (s *Session) adjust(delta int) (byte, error) {
	v := byte(min(max(int(s.current[s.selected])+delta, 0), 255))
	s.current[s.selected] = v

	return v, s.ctrl.SetPWM(s.selected, v)
}

// Restore rewrites the PWM values captured at the session start, whatever has been written since.
func (s *Session) Restore() error {
	var errs []error
	for _, ch := range s.ctrl.Fans() {
		v, ok := s.original[ch.ID]
		if !ok {
			continue
		}

		if err := s.ctrl.SetPWM(ch.ID, v); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", ch.Name(), err))
			continue
		}
		s.current[ch.ID] = v
	}

	return errors.Join(errs...)
}
