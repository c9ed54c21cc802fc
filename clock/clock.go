// Package clock resolves the PIC32MZ oscillator/PLL/bus-divider configuration
// into concrete frequencies. Resolve is a pure function: it reads the
// configuration snapshot and returns a fresh Tree, never mutating its inputs.
package clock

import (
	"errors"
	"fmt"
	"math"

	"github.com/mcuforge/pic32forge/report"
)

// Documented PIC32MZ operating limits, in MHz.
const (
	VcoMinMHz       = 350
	VcoMaxMHz       = 700
	SystemMaxMHz    = 200
	SystemHighMHz   = 180
	BusHighMHz      = 100
	BusCount        = 7
	MaxDividerValue = 127
)

var ErrInvalidConfiguration = errors.New("invalid clock configuration")

// OscType selects the primary oscillator mode.
type OscType string

const (
	OscHS OscType = "HS" // high-speed crystal
	OscXT OscType = "XT" // standard crystal
	OscEC OscType = "EC" // external clock input
)

// Oscillator is the primary oscillator configuration.
type Oscillator struct {
	Type         OscType `yaml:"type"`
	InputFreqMHz float64 `yaml:"input_freq_mhz"`
}

// PLL is the system PLL configuration. Divider and multiplier values are the
// human-facing ratios, not register encodings.
type PLL struct {
	Enabled       bool `yaml:"enabled"`
	InputDivider  int  `yaml:"input_divider"`  // PLLIDIV, 1..8
	Multiplier    int  `yaml:"multiplier"`     // PLLMULT, 15..128
	OutputDivider int  `yaml:"output_divider"` // PLLODIV, one of 1,2,4,8,16,32
}

// Bus configures one peripheral bus clock. The hardware divisor is the
// register value plus one; DividerValue is the raw PBxDIV register value.
type Bus struct {
	Enabled      bool `yaml:"enabled"`
	DividerValue int  `yaml:"divider"` // 0..127
}

// Divisor returns the effective divisor applied to the system clock.
func (b Bus) Divisor() int { return b.DividerValue + 1 }

// DividerLabel renders the register value the way the configurator displays
// it, e.g. "0 = div 1".
func (b Bus) DividerLabel() string {
	return fmt.Sprintf("%d = ÷%d", b.DividerValue, b.Divisor())
}

// BusRole names what each PBCLK bus feeds on the PIC32MZ.
var BusRole = [BusCount]string{
	"CPU/System Bus",
	"UART/SPI/I2C",
	"Timer/PWM/IC/OC",
	"Ports/Change Notify",
	"Flash/Crypto",
	"USB/CAN/Ethernet",
	"CPU Trace/Debug",
}

// Tree is the resolved clock tree. It is recomputed from the configuration on
// every Resolve call and never persisted as a source of truth.
type Tree struct {
	// VcoFreqMHz is only meaningful when PLLEnabled is true.
	VcoFreqMHz    float64
	SystemFreqMHz float64
	// BusFreqMHz holds the per-bus frequency in MHz; 0 for a disabled bus.
	BusFreqMHz [BusCount]float64
	PLLEnabled bool
	Warnings   []report.Warning
}

// SystemFreqHz returns the system frequency in Hz, rounded to the nearest
// integer cycle.
func (t Tree) SystemFreqHz() int64 { return roundToInt64(t.SystemFreqMHz * 1e6) }

// BusFreqHz returns the frequency of bus (1-based, PBCLK1..PBCLK7) in Hz.
func (t Tree) BusFreqHz(bus int) int64 {
	if bus < 1 || bus > BusCount {
		return 0
	}
	return roundToInt64(t.BusFreqMHz[bus-1] * 1e6)
}

var validOutputDividers = map[int]bool{1: true, 2: true, 4: true, 8: true, 16: true, 32: true}

// Resolve derives the clock tree from the oscillator, PLL and bus divider
// configuration. Out-of-band frequencies are reported through Tree.Warnings;
// only inputs that would make the derivation undefined return an error.
func Resolve(osc Oscillator, pll PLL, buses [BusCount]Bus) (Tree, error) {
	if osc.InputFreqMHz <= 0 {
		return Tree{}, fmt.Errorf("%w: input frequency %v MHz", ErrInvalidConfiguration, osc.InputFreqMHz)
	}

	tree := Tree{PLLEnabled: pll.Enabled}

	if pll.Enabled {
		if pll.InputDivider < 1 || pll.InputDivider > 8 {
			return Tree{}, fmt.Errorf("%w: PLL input divider %d outside 1..8", ErrInvalidConfiguration, pll.InputDivider)
		}
		if pll.Multiplier < 15 || pll.Multiplier > 128 {
			return Tree{}, fmt.Errorf("%w: PLL multiplier %d outside 15..128", ErrInvalidConfiguration, pll.Multiplier)
		}
		if !validOutputDividers[pll.OutputDivider] {
			return Tree{}, fmt.Errorf("%w: PLL output divider %d not one of 1,2,4,8,16,32", ErrInvalidConfiguration, pll.OutputDivider)
		}

		tree.VcoFreqMHz = osc.InputFreqMHz / float64(pll.InputDivider) * float64(pll.Multiplier)
		tree.SystemFreqMHz = tree.VcoFreqMHz / float64(pll.OutputDivider)

		if tree.VcoFreqMHz < VcoMinMHz || tree.VcoFreqMHz > VcoMaxMHz {
			tree.warn(report.VcoOutOfRange)
		}
	} else {
		tree.SystemFreqMHz = osc.InputFreqMHz
	}

	if tree.SystemFreqMHz > SystemMaxMHz {
		tree.warn(report.SystemFrequencyExceeded)
	} else if tree.SystemFreqMHz > SystemHighMHz {
		tree.warn(report.SystemFrequencyHigh)
	}

	for i, bus := range buses {
		if !bus.Enabled {
			continue
		}
		if bus.DividerValue < 0 || bus.DividerValue > MaxDividerValue {
			return Tree{}, fmt.Errorf("%w: PBCLK%d divider register value %d outside 0..%d",
				ErrInvalidConfiguration, i+1, bus.DividerValue, MaxDividerValue)
		}
		tree.BusFreqMHz[i] = tree.SystemFreqMHz / float64(bus.Divisor())
		if tree.BusFreqMHz[i] > BusHighMHz {
			tree.warn(report.BusFrequencyHigh)
		}
	}

	return tree, nil
}

func (t *Tree) warn(w report.Warning) {
	for _, existing := range t.Warnings {
		if existing == w {
			return
		}
	}
	t.Warnings = append(t.Warnings, w)
}

// roundToInt64 rounds to the nearest integer with ties away from zero, the
// rounding contract used for every register-facing value in this tool.
func roundToInt64(v float64) int64 {
	return int64(math.Round(v))
}
