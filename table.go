package ecfan

// A Step binds a duty cycle percentage to the byte the EC expects for it.
type Step struct {
	Percent int
	Value   byte
}

// A Table is the ordered list of the known duty cycle steps of a channel.
type Table []Step

// Closest returns the step whose percentage is the nearest of p.
// On a tie the first step in table order wins. p is not range checked.
func (t Table) Closest(p int) (Step, bool) {
	if len(t) == 0 {
		return Step{}, false
	}

	best := t[0]
	for _, s := range t[1:] {
		if abs(s.Percent-p) < abs(best.Percent-p) {
			best = s
		}
	}

	return best, true
}

// Percent is the reverse lookup of a register value.
func (t Table) Percent(v byte) (int, bool) {
	for _, s := range t {
		if s.Value == v {
			return s.Percent, true
		}
	}

	return 0, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
