// Package report carries the advisory findings produced by the parameter
// compilers. Warnings and conflicts never abort a derivation; the caller
// decides whether to proceed with emission.
package report

// Warning is a stable, display-facing advisory identifier attached to an
// otherwise successful derivation result.
type Warning string

const (
	// VcoOutOfRange: the PLL VCO frequency is outside the documented
	// 350-700 MHz operating band.
	VcoOutOfRange Warning = "vco_out_of_range"

	// SystemFrequencyExceeded: the system clock is above the device
	// absolute maximum (200 MHz).
	SystemFrequencyExceeded Warning = "system_frequency_exceeded"

	// SystemFrequencyHigh: the system clock is within the caution band
	// below the ceiling (above 180 MHz).
	SystemFrequencyHigh Warning = "system_frequency_high"

	// BusFrequencyHigh: a peripheral bus clock is above 100 MHz.
	BusFrequencyHigh Warning = "bus_frequency_high"

	// PeriodClamped: a timer period register value exceeded the register
	// width and was clamped to the maximum representable count.
	PeriodClamped Warning = "period_clamped"
)

// Conflict records one pin that failed validation and why.
type Conflict struct {
	Pin    string
	Reason string
}

// Conflicts is the full conflict report for a GPIO compile pass. An empty
// report means the configuration is emitable as requested.
type Conflicts []Conflict

// Empty reports whether no conflicts were recorded.
func (c Conflicts) Empty() bool { return len(c) == 0 }

// Pins returns the set of pin names with at least one conflict.
func (c Conflicts) Pins() map[string]bool {
	pins := make(map[string]bool, len(c))
	for _, conflict := range c {
		pins[conflict.Pin] = true
	}
	return pins
}
