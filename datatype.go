package ecfan

import "errors"

var (
	ErrUnknownChannel    = errors.New("unknown channel")
	ErrNoDutyCycle       = errors.New("no duty cycle table")
	ErrNoEnableRegister  = errors.New("no enable register")
	ErrInvalidPercentage = errors.New("invalid percentage")
)

// Registers is the EC register space as seen by the controller.
type Registers interface {
	Read(offset int) (byte, error)
	ReadWord(offset int) (uint16, error)
	Write(offset int, value byte) error
	Snapshot() ([]byte, error)
}

// Input is a source of single key presses that can be polled without blocking.
type Input interface {
	Ready() (bool, error)
	ReadKey() (byte, error)
}

// A FanStatus is the decoded state of a channel at the time of a snapshot.
type FanStatus struct {
	ID      int    `yaml:"id"`
	Label   string `yaml:"label"`
	RawRPM  uint16 `yaml:"raw_rpm"`
	RPM     int    `yaml:"rpm"`
	Enable  byte   `yaml:"enable"`
	Manual  bool   `yaml:"manual"`
	PWM     byte   `yaml:"pwm"`
	Percent int    `yaml:"percent"` // 0 when PWM is not part of the duty cycle table
}

func ToPtr[T any](v T) *T {
	return &v
}
