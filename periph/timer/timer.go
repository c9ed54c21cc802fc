// Package timer derives the period register and TxCON control bits for a
// PIC32MZ hardware timer from its configuration snapshot.
package timer

import (
	"errors"
	"fmt"
	"math"

	"github.com/mcuforge/pic32forge/report"
)

var ErrInvalidConfiguration = errors.New("invalid timer configuration")

// TxCON register bits and fields.
const (
	ControlOn         = 1 << 15 // ON
	ControlStopInIdle = 1 << 13 // SIDL
	ControlGate       = 1 << 7  // TGATE
	ControlT32        = 1 << 3  // T32 (even-numbered timer pairs)
	ControlExtClock   = 1 << 1  // TCS

	prescalerShift = 4 // TCKPS field position
)

// Register width ceilings for the two timer modes.
const (
	MaxPeriod16 = 0xFFFF
	MaxPeriod32 = 0xFFFFFFFF
)

// Mode selects 16-bit operation or a chained 32-bit timer pair.
type Mode string

const (
	Mode16 Mode = "16-bit"
	Mode32 Mode = "32-bit"
)

// PeriodSpec selects which field of Config carries the requested period.
type PeriodSpec string

const (
	SpecFrequency PeriodSpec = "Frequency"
	SpecPeriodMs  PeriodSpec = "PeriodMs"
	SpecPeriodUs  PeriodSpec = "PeriodUs"
	SpecCount     PeriodSpec = "Count"
)

// prescalerField maps each supported prescaler ratio to its TCKPS encoding.
var prescalerField = map[int]uint32{1: 0, 8: 1, 64: 2, 256: 3}

// Config is the user-facing timer configuration snapshot.
type Config struct {
	Module    int        `yaml:"module"` // TMR1..TMR9
	Mode      Mode       `yaml:"mode"`
	Prescaler int        `yaml:"prescaler"` // 1, 8, 64 or 256
	Spec      PeriodSpec `yaml:"period_mode"`

	FrequencyHz float64 `yaml:"frequency_hz"`
	PeriodMs    float64 `yaml:"period_ms"`
	PeriodUs    float64 `yaml:"period_us"`
	Count       uint32  `yaml:"count"`

	ClockSourceHz int64 `yaml:"clock_source_hz"`

	GateEnable    bool `yaml:"gate_enable"`
	ExternalClock bool `yaml:"external_clock"`
	StopInIdle    bool `yaml:"stop_in_idle"`

	InterruptEnabled  bool `yaml:"interrupt_enabled"`
	InterruptPriority int  `yaml:"interrupt_priority"`
	AutoStart         bool `yaml:"auto_start"`
}

// Derived holds the register parameters for one timer instance.
type Derived struct {
	// Period is the PRx register value.
	Period uint32
	// Control is the TxCON value without the ON bit; starting the timer is
	// the generated code's decision.
	Control uint32
	// AchievedFrequencyHz is recomputed from the final (possibly clamped)
	// period value, so it reflects what the hardware will actually do.
	AchievedFrequencyHz float64
	Warnings            []report.Warning
}

// Compile derives the timer register parameters. Period values that exceed
// the register width for the selected mode are clamped and reported through
// a PeriodClamped warning rather than failing.
func Compile(cfg Config) (Derived, error) {
	if cfg.ClockSourceHz <= 0 {
		return Derived{}, fmt.Errorf("%w: clock source %d Hz", ErrInvalidConfiguration, cfg.ClockSourceHz)
	}
	if _, ok := prescalerField[cfg.Prescaler]; !ok {
		return Derived{}, fmt.Errorf("%w: prescaler %d not one of 1,8,64,256", ErrInvalidConfiguration, cfg.Prescaler)
	}
	if cfg.Mode != Mode16 && cfg.Mode != Mode32 {
		return Derived{}, fmt.Errorf("%w: mode %q", ErrInvalidConfiguration, cfg.Mode)
	}

	maxPeriod := uint64(MaxPeriod16)
	if cfg.Mode == Mode32 {
		maxPeriod = MaxPeriod32
	}

	var (
		raw     int64
		clamped bool
	)
	switch cfg.Spec {
	case SpecCount:
		// Count mode bypasses the frequency derivation; the value is the
		// literal register count.
		raw = int64(cfg.Count)
	case SpecFrequency, SpecPeriodMs, SpecPeriodUs:
		target, err := targetFrequencyHz(cfg)
		if err != nil {
			return Derived{}, err
		}
		raw = int64(math.Round(float64(cfg.ClockSourceHz)/(float64(cfg.Prescaler)*target))) - 1
	default:
		return Derived{}, fmt.Errorf("%w: period mode %q", ErrInvalidConfiguration, cfg.Spec)
	}

	period := raw
	if period < 0 {
		period = 0
		clamped = true
	}
	if uint64(period) > maxPeriod {
		period = int64(maxPeriod)
		clamped = true
	}

	d := Derived{
		Period:  uint32(period),
		Control: controlBits(cfg),
	}
	d.AchievedFrequencyHz = float64(cfg.ClockSourceHz) / (float64(cfg.Prescaler) * float64(period+1))
	if clamped {
		d.Warnings = append(d.Warnings, report.PeriodClamped)
	}
	return d, nil
}

// targetFrequencyHz converts the active period specification to Hz.
func targetFrequencyHz(cfg Config) (float64, error) {
	switch cfg.Spec {
	case SpecFrequency:
		if cfg.FrequencyHz <= 0 {
			return 0, fmt.Errorf("%w: frequency %v Hz", ErrInvalidConfiguration, cfg.FrequencyHz)
		}
		return cfg.FrequencyHz, nil
	case SpecPeriodMs:
		if cfg.PeriodMs <= 0 {
			return 0, fmt.Errorf("%w: period %v ms", ErrInvalidConfiguration, cfg.PeriodMs)
		}
		return 1000 / cfg.PeriodMs, nil
	case SpecPeriodUs:
		if cfg.PeriodUs <= 0 {
			return 0, fmt.Errorf("%w: period %v us", ErrInvalidConfiguration, cfg.PeriodUs)
		}
		return 1_000_000 / cfg.PeriodUs, nil
	}
	return 0, fmt.Errorf("%w: period mode %q", ErrInvalidConfiguration, cfg.Spec)
}

// controlBits assembles TxCON from the configuration. Each feature maps to an
// independent bit; only the prescaler occupies a multi-bit field.
func controlBits(cfg Config) uint32 {
	var control uint32
	if cfg.Mode == Mode32 {
		control |= ControlT32
	}
	control |= prescalerField[cfg.Prescaler] << prescalerShift
	if cfg.GateEnable {
		control |= ControlGate
	}
	if cfg.ExternalClock {
		control |= ControlExtClock
	}
	if cfg.StopInIdle {
		control |= ControlStopInIdle
	}
	return control
}
