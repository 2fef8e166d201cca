package ecfan

import (
	"errors"
	"fmt"

	"github.com/mdouchement/logger"
)

// A Controller maps the fan channels onto the EC registers.
// Register failures are logged and returned, they never stop the caller.
type Controller struct {
	regs Registers
	fans []Channel
	log  logger.Logger
}

func New(regs Registers, fans []Channel, log logger.Logger) *Controller {
	return &Controller{
		regs: regs,
		fans: fans,
		log:  log,
	}
}

func (c *Controller) Fans() []Channel {
	return c.fans
}

func (c *Controller) Channel(id int) (Channel, error) {
	for _, ch := range c.fans {
		if ch.ID == id {
			return ch, nil
		}
	}

	return Channel{}, fmt.Errorf("fan%d: %w", id+1, ErrUnknownChannel)
}

// Snapshot reads the whole register space.
// A truncated read still returns the available registers along with the error.
func (c *Controller) Snapshot() ([]byte, error) {
	data, err := c.regs.Snapshot()
	if err != nil {
		c.log.WithError(err).Error("Could not read EC registers")
	}

	return data, err
}

// Status decodes every channel from a single snapshot.
func (c *Controller) Status() ([]FanStatus, error) {
	data, err := c.Snapshot()
	if data == nil {
		return nil, err
	}

	statuses := make([]FanStatus, 0, len(c.fans))
	for _, ch := range c.fans {
		statuses = append(statuses, ch.Status(data))
	}

	return statuses, err
}

// RPMs reads the tachometer registers one by one.
func (c *Controller) RPMs() (map[int]int, error) {
	rpms := make(map[int]int, len(c.fans))
	var errs []error

	for _, ch := range c.fans {
		raw, err := ch.ReadRawRPM(c.regs)
		if err != nil {
			c.log.WithError(err).Errorf("Could not read RPM of %s", ch.Name())
			errs = append(errs, err)
			continue
		}

		rpms[ch.ID] = ch.ToRPM(raw)
	}

	return rpms, errors.Join(errs...)
}

// PWM reads the current duty cycle register of a channel.
func (c *Controller) PWM(id int) (byte, error) {
	ch, err := c.Channel(id)
	if err != nil {
		return 0, err
	}

	v, err := c.regs.Read(ch.PWMRegister)
	if err != nil {
		c.log.WithError(err).Errorf("Could not read PWM of %s", ch.Name())
		return 0, err
	}

	return v, nil
}

// SetPWM writes a raw duty cycle byte, without touching the enable register.
func (c *Controller) SetPWM(id int, value byte) error {
	ch, err := c.Channel(id)
	if err != nil {
		return err
	}

	c.log.Debug(fmt.Sprintf("Write PWM 0x%02X=%d for %s", ch.PWMRegister, value, ch.Name()))
	err = c.regs.Write(ch.PWMRegister, value)
	if err != nil {
		c.log.WithError(err).Errorf("Could not set PWM for %s", ch.Name())
		return err
	}

	return nil
}

// SetPercentage switches the channel to manual control then writes the duty cycle step the closest of pct.
func (c *Controller) SetPercentage(id, pct int) (Step, error) {
	ch, err := c.Channel(id)
	if err != nil {
		return Step{}, err
	}

	step, ok := ch.DutyCycle.Closest(pct)
	if !ok {
		return Step{}, fmt.Errorf("%s: %w", ch.Name(), ErrNoDutyCycle)
	}

	if ch.Enable != nil {
		err = c.regs.Write(ch.Enable.Register, byte(ch.Enable.Manual))
		if err != nil {
			c.log.WithError(err).Errorf("Could not enable manual control for %s", ch.Name())
			return Step{}, err
		}
	}

	err = c.regs.Write(ch.PWMRegister, step.Value)
	if err != nil {
		c.log.WithError(err).Errorf("Could not set PWM for %s", ch.Name())
		return Step{}, err
	}

	c.log.Infof("Set %s to %d%% (0x%02X=%d) for a requested %d%%", ch.Name(), step.Percent, ch.PWMRegister, step.Value, pct)
	return step, nil
}

// SetAll applies one percentage per channel, in channel order.
// A failing channel does not prevent the next ones from being set.
func (c *Controller) SetAll(pcts map[int]int) error {
	var errs []error
	for _, ch := range c.fans {
		pct, ok := pcts[ch.ID]
		if !ok {
			continue
		}

		if _, err := c.SetPercentage(ch.ID, pct); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// SetAuto gives the control of every fan back to the BIOS, whatever their current state.
func (c *Controller) SetAuto() error {
	var n int
	var errs []error
	for _, ch := range c.fans {
		if ch.Enable == nil {
			continue
		}
		n++

		err := c.regs.Write(ch.Enable.Register, byte(ch.Enable.Auto))
		if err != nil {
			c.log.WithError(err).Errorf("Could not disable manual control for %s", ch.Name())
			errs = append(errs, err)
			continue
		}

		c.log.Infof("Set %s to auto mode (0x%02X=%d)", ch.Name(), ch.Enable.Register, ch.Enable.Auto)
	}

	if n == 0 {
		return ErrNoEnableRegister
	}

	return errors.Join(errs...)
}
