package ecfan

import (
	"fmt"
	"io"
	"strings"
)

const ClearScreen = "\033[H\033[2J"

// WriteStatus prints the full status of the channels: decoded values, control registers and raw tachometers.
func WriteStatus(w io.Writer, fans []Channel, statuses []FanStatus) {
	byID := make(map[int]FanStatus, len(statuses))
	for _, s := range statuses {
		byID[s.ID] = s
	}

	width := 0
	for _, ch := range fans {
		width = max(width, len(ch.Label)+1)
	}

	fmt.Fprintln(w, "=== Complete Fan Status ===")
	for _, ch := range fans {
		s := byID[ch.ID]
		line := fmt.Sprintf("%-*s %5d RPM | PWM: %3d%% (0x%02X=%d)", width, ch.Label+":", s.RPM, s.Percent, ch.PWMRegister, s.PWM)
		if ch.Enable != nil {
			mode := "auto"
			if s.Manual {
				mode = "manual"
			}
			line += fmt.Sprintf(" [Enable: 0x%02X=%d %s]", ch.Enable.Register, s.Enable, mode)
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Fan Control System ===")
	for i, ch := range fans {
		fmt.Fprintf(w, "%d. %s: %s\n", i+1, ch.Label, controlSummary(ch))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== RPM Details ===")
	for _, ch := range fans {
		s := byID[ch.ID]
		digits := 2 * ch.RPM.Width
		fmt.Fprintf(w, "%s RPM: 0x%02X = %0*X = %d RPM (%s)\n", ch.Label, ch.RPM.Register, digits, s.RawRPM, s.RPM, rpmFormula(ch))
	}

	writeMappings(w, fans)
}

// writeMappings lists the RPM of the reference raw values, when the register map has some.
func writeMappings(w io.Writer, fans []Channel) {
	header := false
	for _, ch := range fans {
		if len(ch.RPM.Reference) == 0 {
			continue
		}
		if !header {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "=== RPM Mappings ===")
			header = true
		}

		points := make([]string, 0, len(ch.RPM.Reference))
		for _, raw := range ch.RPM.Reference {
			points = append(points, fmt.Sprintf("0x%0*X=%d RPM", 2*ch.RPM.Width, raw, ch.ToRPM(uint16(raw))))
		}
		fmt.Fprintf(w, "%s: %s\n", ch.Label, strings.Join(points, ", "))
	}
}

func controlSummary(ch Channel) string {
	var parts []string
	if ch.Enable != nil {
		parts = append(parts, fmt.Sprintf("0x%02X=%d (enable)", ch.Enable.Register, ch.Enable.Manual))
	}

	if len(ch.DutyCycle) == 0 {
		parts = append(parts, fmt.Sprintf("0x%02X=0-255 (raw)", ch.PWMRegister))
		return strings.Join(parts, " + ")
	}

	lo, hi := ch.DutyCycle[0], ch.DutyCycle[0]
	for _, s := range ch.DutyCycle {
		if s.Percent < lo.Percent {
			lo = s
		}
		if s.Percent > hi.Percent {
			hi = s
		}
	}
	parts = append(parts, fmt.Sprintf("0x%02X=%d-%d (%d-%d%%)", ch.PWMRegister, lo.Value, hi.Value, lo.Percent, hi.Percent))

	return strings.Join(parts, " + ")
}

func rpmFormula(ch Channel) string {
	if ch.RPM.Divisor > 0 {
		return fmt.Sprintf("raw/%d", ch.RPM.Divisor)
	}

	scale := ch.RPM.Scale
	if scale == 0 {
		scale = 1
	}
	return fmt.Sprintf("raw*%d", scale)
}

// WriteDump prints the register space as a 16x16 hexadecimal grid.
func WriteDump(w io.Writer, data []byte) {
	fmt.Fprint(w, "    ")
	for col := range 16 {
		fmt.Fprintf(w, " %X ", col)
	}
	fmt.Fprintln(w)

	for row := 0; row < len(data); row += 16 {
		fmt.Fprintf(w, "%02X: ", row)
		for col := range 16 {
			if row+col >= len(data) {
				break
			}
			fmt.Fprintf(w, "%02X ", data[row+col])
		}
		fmt.Fprintln(w)
	}
}
