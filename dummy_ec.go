package ecfan

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// A DummyEC is an in-memory register space. It should only be used for dev & tests.
type DummyEC struct {
	sync sync.Mutex
	regs [256]byte
	log  []Write
	// Fail, when set, is returned by every operation.
	Fail error
}

func NewDummyEC() *DummyEC {
	return &DummyEC{}
}

// NewDummyECFor returns a register space where each channel runs in manual mode at its middle duty cycle step
// with a tachometer matching it.
func NewDummyECFor(fans []Channel) *DummyEC {
	d := NewDummyEC()
	for _, ch := range fans {
		pwm := byte(0x80)
		if len(ch.DutyCycle) > 0 {
			pwm = ch.DutyCycle[len(ch.DutyCycle)/2].Value
		}
		d.regs[ch.PWMRegister] = pwm

		if ch.Enable != nil {
			d.regs[ch.Enable.Register] = byte(ch.Enable.Manual)
		}

		raw := uint16(pwm)
		if len(ch.DutyCycle) > 0 {
			raw = 0x0B
		}
		if ch.RPM.Width == 2 {
			binary.LittleEndian.PutUint16(d.regs[ch.RPM.Register:], raw*16)
		} else {
			d.regs[ch.RPM.Register] = byte(raw)
		}
	}

	return d
}

func (d *DummyEC) Read(offset int) (byte, error) {
	d.sync.Lock()
	defer d.sync.Unlock()

	if err := d.check(offset, 1); err != nil {
		return 0, err
	}
	return d.regs[offset], nil
}

func (d *DummyEC) ReadWord(offset int) (uint16, error) {
	d.sync.Lock()
	defer d.sync.Unlock()

	if err := d.check(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(d.regs[offset:]), nil
}

func (d *DummyEC) Write(offset int, value byte) error {
	d.sync.Lock()
	defer d.sync.Unlock()

	if err := d.check(offset, 1); err != nil {
		return err
	}
	d.regs[offset] = value
	d.log = append(d.log, Write{Offset: offset, Value: value})
	return nil
}

// A Write is a register write recorded by the DummyEC.
type Write struct {
	Offset int
	Value  byte
}

// Writes returns the register writes in order.
func (d *DummyEC) Writes() []Write {
	d.sync.Lock()
	defer d.sync.Unlock()

	return append([]Write(nil), d.log...)
}

func (d *DummyEC) Snapshot() ([]byte, error) {
	d.sync.Lock()
	defer d.sync.Unlock()

	if d.Fail != nil {
		return nil, d.Fail
	}

	data := make([]byte, len(d.regs))
	copy(data, d.regs[:])
	return data, nil
}

func (d *DummyEC) check(offset, n int) error {
	if d.Fail != nil {
		return d.Fail
	}
	if offset < 0 || offset+n > len(d.regs) {
		return fmt.Errorf("dummy: 0x%02X: out of register space", offset)
	}
	return nil
}
