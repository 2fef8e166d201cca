package ecfan

import "fmt"

// A Channel is the register map of one fan.
type Channel struct {
	ID            int              `yaml:"-"`
	Label         string           `yaml:"label"`
	RPM           RPMRegister      `yaml:"rpm"`
	Enable        *EnableRegister  `yaml:"enable,omitempty"`
	PWMRegister   int              `yaml:"pwm_register"`
	DutyCycleYAML []map[string]int `yaml:"duty_cycle,omitempty"`
	DutyCycle     Table            `yaml:"-"`
}

// RPMRegister describes where the tachometer is read and how the raw value is turned into an approximate RPM.
// Divisor takes precedence over Scale when both are set.
type RPMRegister struct {
	Register int `yaml:"register"`
	Width    int `yaml:"width,omitempty"` // 1 or 2 (little-endian)
	Scale    int `yaml:"scale,omitempty"`
	Divisor  int `yaml:"divisor,omitempty"`
	// Reference raw values listed in the status as a raw to RPM cheat sheet.
	Reference []int `yaml:"reference,omitempty"`
}

// EnableRegister switches the fan between BIOS and manual control.
type EnableRegister struct {
	Register int `yaml:"register"`
	Manual   int `yaml:"manual"`
	Auto     int `yaml:"auto"`
}

func (c Channel) Name() string {
	return fmt.Sprintf("fan%d(%s)", c.ID+1, c.Label)
}

// Approximate RPM from the raw tachometer value. This is an empirical scaling, not a measurement.
func (c Channel) ToRPM(raw uint16) int {
	if c.RPM.Divisor > 0 {
		return int(raw) / c.RPM.Divisor
	}

	scale := c.RPM.Scale
	if scale == 0 {
		scale = 1
	}
	return int(raw) * scale
}

// ReadRawRPM reads the tachometer register directly.
func (c Channel) ReadRawRPM(regs Registers) (uint16, error) {
	if c.RPM.Width == 2 {
		return regs.ReadWord(c.RPM.Register)
	}

	b, err := regs.Read(c.RPM.Register)
	return uint16(b), err
}

// RawRPM extracts the tachometer value from a register snapshot. Out of range offsets read as 0.
func (c Channel) RawRPM(snapshot []byte) uint16 {
	lo := byteAt(snapshot, c.RPM.Register)
	if c.RPM.Width != 2 {
		return uint16(lo)
	}

	return uint16(lo) | uint16(byteAt(snapshot, c.RPM.Register+1))<<8
}

// Status decodes the channel from a register snapshot.
func (c Channel) Status(snapshot []byte) FanStatus {
	s := FanStatus{
		ID:     c.ID,
		Label:  c.Label,
		RawRPM: c.RawRPM(snapshot),
		PWM:    byteAt(snapshot, c.PWMRegister),
	}
	s.RPM = c.ToRPM(s.RawRPM)
	s.Percent, _ = c.DutyCycle.Percent(s.PWM)

	if c.Enable != nil {
		s.Enable = byteAt(snapshot, c.Enable.Register)
		s.Manual = s.Enable == byte(c.Enable.Manual)
	}

	return s
}

func byteAt(data []byte, offset int) byte {
	if offset < 0 || offset >= len(data) {
		return 0
	}
	return data[offset]
}
