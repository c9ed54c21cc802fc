package timer

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mcuforge/pic32forge/report"
)

func baseConfig() Config {
	return Config{
		Module:        1,
		Mode:          Mode16,
		Prescaler:     1,
		Spec:          SpecFrequency,
		FrequencyHz:   1000,
		ClockSourceHz: 80_000_000,
	}
}

func TestCompile_ReferencePeriod(t *testing.T) {
	// 80 MHz, 1:1 prescale, 1 kHz: PR = 80000000/1000 - 1. Needs 32-bit
	// mode since 79999 does not fit 16 bits.
	cfg := baseConfig()
	cfg.Mode = Mode32
	d, err := Compile(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if d.Period != 79999 {
		t.Fatalf("period = %d, want 79999", d.Period)
	}
	if d.AchievedFrequencyHz != 1000 {
		t.Fatalf("achieved = %v Hz, want 1000", d.AchievedFrequencyHz)
	}
	if len(d.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", d.Warnings)
	}
}

func TestCompile_PeriodSpecConversions(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		period uint32
	}{
		{"1ms at 1:8", func(c *Config) {
			c.Spec = SpecPeriodMs
			c.PeriodMs = 1.0
			c.Prescaler = 8
		}, 9999}, // 80e6/(8*1000) - 1
		{"500us at 1:1", func(c *Config) {
			c.Mode = Mode32
			c.Spec = SpecPeriodUs
			c.PeriodUs = 500
		}, 39999}, // 80e6/(1*2000) - 1
		{"100Hz at 1:256", func(c *Config) {
			c.Spec = SpecFrequency
			c.FrequencyHz = 100
			c.Prescaler = 256
		}, 3124}, // 80e6/(256*100) = 3125 - 1
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			tc.mutate(&cfg)
			d, err := Compile(cfg)
			if err != nil {
				t.Fatal(err)
			}
			if d.Period != tc.period {
				t.Fatalf("period = %d, want %d", d.Period, tc.period)
			}
		})
	}
}

func TestCompile_CountModeUsesLiteralValue(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = Mode32
	cfg.Spec = SpecCount
	cfg.Count = 80000
	d, err := Compile(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if d.Period != 80000 {
		t.Fatalf("period = %d, want 80000", d.Period)
	}
	if len(d.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", d.Warnings)
	}
}

func TestCompile_Clamps16BitPeriod(t *testing.T) {
	// 1 kHz at 80 MHz wants PR=79999; in 16-bit mode that clamps to 65535
	// and the achieved frequency shifts accordingly.
	cfg := baseConfig()
	d, err := Compile(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if d.Period != MaxPeriod16 {
		t.Fatalf("period = %d, want %d", d.Period, MaxPeriod16)
	}
	if !hasWarning(d.Warnings, report.PeriodClamped) {
		t.Fatalf("warnings %v missing PeriodClamped", d.Warnings)
	}
	want := 80_000_000.0 / 65536.0
	if d.AchievedFrequencyHz != want {
		t.Fatalf("achieved = %v Hz, want %v", d.AchievedFrequencyHz, want)
	}
	if d.AchievedFrequencyHz == cfg.FrequencyHz {
		t.Fatal("achieved frequency should differ from the request after clamping")
	}
}

func TestCompile_CountModeClampsTo16Bits(t *testing.T) {
	cfg := baseConfig()
	cfg.Spec = SpecCount
	cfg.Count = 80000
	d, err := Compile(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if d.Period != MaxPeriod16 {
		t.Fatalf("period = %d, want %d", d.Period, MaxPeriod16)
	}
	if !hasWarning(d.Warnings, report.PeriodClamped) {
		t.Fatalf("warnings %v missing PeriodClamped", d.Warnings)
	}
}

func TestCompile_FastRequestClampsToZero(t *testing.T) {
	// Requesting more than the tick rate yields a negative PR; it floors at
	// zero with a clamp warning.
	cfg := baseConfig()
	cfg.FrequencyHz = 200_000_000
	d, err := Compile(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if d.Period != 0 {
		t.Fatalf("period = %d, want 0", d.Period)
	}
	if !hasWarning(d.Warnings, report.PeriodClamped) {
		t.Fatalf("warnings %v missing PeriodClamped", d.Warnings)
	}
}

func TestCompile_ControlBits(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   uint32
	}{
		{"16-bit 1:1", func(c *Config) {}, 0},
		{"32-bit", func(c *Config) { c.Mode = Mode32 }, ControlT32},
		{"1:8", func(c *Config) { c.Prescaler = 8 }, 1 << prescalerShift},
		{"1:64", func(c *Config) { c.Prescaler = 64 }, 2 << prescalerShift},
		{"1:256", func(c *Config) { c.Prescaler = 256 }, 3 << prescalerShift},
		{"gate", func(c *Config) { c.GateEnable = true }, ControlGate},
		{"external clock", func(c *Config) { c.ExternalClock = true }, ControlExtClock},
		{"stop in idle", func(c *Config) { c.StopInIdle = true }, ControlStopInIdle},
		{"combined", func(c *Config) {
			c.Mode = Mode32
			c.Prescaler = 256
			c.GateEnable = true
			c.StopInIdle = true
		}, ControlT32 | 3<<prescalerShift | ControlGate | ControlStopInIdle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.Spec = SpecCount
			cfg.Count = 100
			tc.mutate(&cfg)
			d, err := Compile(cfg)
			if err != nil {
				t.Fatal(err)
			}
			if d.Control != tc.want {
				t.Fatalf("control = %#x, want %#x", d.Control, tc.want)
			}
		})
	}
}

func TestCompile_InvalidInputs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero clock", func(c *Config) { c.ClockSourceHz = 0 }},
		{"negative clock", func(c *Config) { c.ClockSourceHz = -1 }},
		{"zero prescaler", func(c *Config) { c.Prescaler = 0 }},
		{"bad prescaler", func(c *Config) { c.Prescaler = 32 }},
		{"zero frequency", func(c *Config) { c.FrequencyHz = 0 }},
		{"negative frequency", func(c *Config) { c.FrequencyHz = -5 }},
		{"zero period ms", func(c *Config) { c.Spec = SpecPeriodMs; c.PeriodMs = 0 }},
		{"zero period us", func(c *Config) { c.Spec = SpecPeriodUs; c.PeriodUs = 0 }},
		{"bad mode", func(c *Config) { c.Mode = "24-bit" }},
		{"bad period spec", func(c *Config) { c.Spec = "Cycles" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			tc.mutate(&cfg)
			if _, err := Compile(cfg); !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestCompile_Idempotent(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = Mode32
	first, err := Compile(cfg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Compile(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ: %+v vs %+v", first, second)
	}
}

func hasWarning(ws []report.Warning, w report.Warning) bool {
	for _, have := range ws {
		if have == w {
			return true
		}
	}
	return false
}
