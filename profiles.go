package ecfan

import (
	"maps"
	"slices"
)

// Register maps measured on real machines. They are kept as found and must not be merged:
// the same signals live at different offsets depending on the board/firmware.
var profiles = map[string]string{
	// GMK mini PC: dedicated enable register per fan, 5 known duty cycle steps.
	"gmk": `
channels:
  fan1:
    label: Fan 1
    rpm: {register: 0x37, scale: 267, reference: [0x0F, 0x0D, 0x0B, 0x09, 0x07]} # 0x0F => ~4000 RPM
    enable: {register: 0x23, manual: 33, auto: 32}
    pwm_register: 0x24
    duty_cycle:
      - 20%: 34
      - 40%: 35
      - 60%: 36
      - 80%: 37
      - 100%: 38
  fan2:
    label: Fan 2
    rpm: {register: 0x35, scale: 267, reference: [0x0F, 0x0D, 0x0B, 0x09, 0x07]}
    enable: {register: 0x21, manual: 17, auto: 16}
    pwm_register: 0x22
    duty_cycle:
      - 20%: 18
      - 40%: 19
      - 60%: 20
      - 80%: 21
      - 100%: 22
  fan3:
    label: Sysfan
    rpm: {register: 0x28, scale: 317, reference: [0x06, 0x05, 0x04, 0x03, 0x02]} # 0x06 => ~1900 RPM
    enable: {register: 0x25, manual: 49, auto: 48}
    pwm_register: 0x26
    duty_cycle:
      - 20%: 50
      - 40%: 51
      - 60%: 52
      - 80%: 53
      - 100%: 54
`,
	// Offsets found by scanning the register space: 16 bits tachometers and raw PWM bytes.
	"scan": `
channels:
  fan1:
    label: SysFan
    rpm: {register: 0x28, width: 2, divisor: 22}
    pwm_register: 0x07
  fan2:
    label: Fan1
    rpm: {register: 0x34, width: 2}
    pwm_register: 0x08
  fan3:
    label: Fan2
    rpm: {register: 0x36, width: 2}
    pwm_register: 0x09
`,
}

// Profiles lists the built-in register maps.
func Profiles() []string {
	return slices.Sorted(maps.Keys(profiles))
}
