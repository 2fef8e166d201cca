package ecfan

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v4"
)

const (
	DefaultProfile = "gmk"
	MaxChannels    = 9 // Channels are selected with a single digit.
)

type Config struct {
	Debug           bool                `yaml:"debug"`
	Device          string              `yaml:"device"`
	Profile         string              `yaml:"profile"`
	PollInterval    Duration            `yaml:"poll_interval"`
	RefreshInterval Duration            `yaml:"refresh_interval"`
	ErrorPause      Duration            `yaml:"error_pause"`
	Step            int                 `yaml:"step"`
	Channels        map[string]*Channel `yaml:"channels"`
}

// Load reads the configuration at path.
// A missing file is not an error, the built-in profile is used instead.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Parse(strings.NewReader(""))
	}
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	return Parse(f)
}

func Parse(r io.Reader) (Config, error) {
	var c Config

	codec := yaml.NewDecoder(r)
	err := codec.Decode(&c)
	if err != nil && err != io.EOF {
		return c, err
	}

	//

	if c.PollInterval.Duration == 0 {
		c.PollInterval.Duration = 500 * time.Millisecond
	}
	if c.RefreshInterval.Duration == 0 {
		c.RefreshInterval.Duration = 2 * time.Second
	}
	if c.ErrorPause.Duration == 0 {
		c.ErrorPause.Duration = 2 * time.Second
	}
	if c.Step == 0 {
		c.Step = 10
	}
	if c.Step < 0 || c.Step > 255 {
		return c, fmt.Errorf("step: %d: must be in range [1,255]", c.Step)
	}

	if len(c.Channels) == 0 {
		if c.Profile == "" {
			c.Profile = DefaultProfile
		}
		return c, c.UseProfile(c.Profile)
	}

	if c.Profile == "" {
		c.Profile = "custom"
	}
	return c, c.resolveChannels()
}

// UseProfile replaces the register map with a built-in one.
func (c *Config) UseProfile(name string) error {
	raw, ok := profiles[name]
	if !ok {
		return fmt.Errorf("profile %s: unknown (available: %s)", strconv.Quote(name), strings.Join(Profiles(), ", "))
	}

	var p struct {
		Channels map[string]*Channel `yaml:"channels"`
	}
	if err := yaml.Unmarshal([]byte(raw), &p); err != nil {
		return fmt.Errorf("profile %s: %w", name, err) // Should not happen
	}

	c.Profile = name
	c.Channels = p.Channels
	return c.resolveChannels()
}

// Fans returns the channels ordered by ID.
func (c Config) Fans() []Channel {
	fans := make([]Channel, 0, len(c.Channels))
	for _, ch := range c.Channels {
		fans = append(fans, *ch)
	}

	slices.SortFunc(fans, func(a, b Channel) int {
		return a.ID - b.ID
	})
	return fans
}

func (c *Config) resolveChannels() error {
	reName := regexp.MustCompile(`^fan(\d+)$`)
	rePWM := regexp.MustCompile(`^\d+%$`)

	for _, fname := range slices.Sorted(maps.Keys(c.Channels)) {
		fan := c.Channels[fname]
		if fan == nil {
			return fmt.Errorf("%s: empty channel", fname)
		}

		match := reName.FindStringSubmatch(fname)
		if len(match) != 2 {
			return fmt.Errorf("%s: invalid name", fname)
		}
		id, err := strconv.ParseUint(match[1], 10, 8)
		if err != nil {
			return fmt.Errorf("%s: invalid number", fname) // Should not happen because of the regex check
		}
		if id < 1 || id > MaxChannels {
			return fmt.Errorf("%s: invalid number range", fname)
		}

		fan.ID = int(id - 1) // fan1 => 0, fan9 => 8
		if fan.Label == "" {
			fan.Label = fname
		}

		//

		if err = checkRegister(fan.RPM.Register); err != nil {
			return fmt.Errorf("%s: rpm.register: %w", fname, err)
		}
		switch fan.RPM.Width {
		case 0:
			fan.RPM.Width = 1
		case 1:
		case 2:
			if err = checkRegister(fan.RPM.Register + 1); err != nil {
				return fmt.Errorf("%s: rpm.register: word %w", fname, err)
			}
		default:
			return fmt.Errorf("%s: rpm.width: must be 1 or 2", fname)
		}
		if fan.RPM.Scale < 0 || fan.RPM.Divisor < 0 {
			return fmt.Errorf("%s: rpm: scale and divisor must be positive", fname)
		}
		for _, raw := range fan.RPM.Reference {
			if raw < 0 || raw >= 1<<(8*fan.RPM.Width) {
				return fmt.Errorf("%s: rpm.reference: 0x%X: out of range for width %d", fname, raw, fan.RPM.Width)
			}
		}

		if err = checkRegister(fan.PWMRegister); err != nil {
			return fmt.Errorf("%s: pwm_register: %w", fname, err)
		}

		if fan.Enable != nil {
			if err = checkRegister(fan.Enable.Register); err != nil {
				return fmt.Errorf("%s: enable.register: %w", fname, err)
			}
			if err = checkByte(fan.Enable.Manual); err != nil {
				return fmt.Errorf("%s: enable.manual: %w", fname, err)
			}
			if err = checkByte(fan.Enable.Auto); err != nil {
				return fmt.Errorf("%s: enable.auto: %w", fname, err)
			}
		}

		//

		fan.DutyCycle = make(Table, 0, len(fan.DutyCycleYAML))
		seen := map[int]bool{}
		for _, point := range fan.DutyCycleYAML {
			if len(point) != 1 {
				return fmt.Errorf("%s: duty_cycle: one percentage per entry expected", fname)
			}

			for pct, value := range point {
				if !rePWM.MatchString(pct) {
					return fmt.Errorf("%s: invalid duty_cycle format %s", fname, pct)
				}

				p, err := strconv.Atoi(strings.TrimRight(pct, "%"))
				if err != nil {
					return fmt.Errorf("%s: %s: %w", fname, pct, err)
				}
				if p < 0 || p > 100 {
					return fmt.Errorf("%s: %s: duty_cycle must in range [0,100]", fname, pct)
				}
				if seen[p] {
					return fmt.Errorf("%s: %s: duplicated duty_cycle", fname, pct)
				}
				seen[p] = true

				if err = checkByte(value); err != nil {
					return fmt.Errorf("%s: %s: %w", fname, pct, err)
				}

				fan.DutyCycle = append(fan.DutyCycle, Step{Percent: p, Value: byte(value)})
			}
		}
	}

	return nil
}

func checkRegister(offset int) error {
	if offset < 0 || offset > 0xFF {
		return fmt.Errorf("0x%X: out of register space", offset)
	}
	return nil
}

func checkByte(v int) error {
	if v < 0 || v > 0xFF {
		return fmt.Errorf("%d: must be in range [0,255]", v)
	}
	return nil
}
