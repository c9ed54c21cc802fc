// Package project defines the configuration snapshot a generation pass runs
// from. The snapshot is one immutable value: the builder copies it in at the
// start of a pass, so later edits by the owner never produce a half-updated
// derivation.
package project

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mcuforge/pic32forge/clock"
	"github.com/mcuforge/pic32forge/periph/gpio"
	"github.com/mcuforge/pic32forge/periph/timer"
	"github.com/mcuforge/pic32forge/periph/uart"
)

var ErrBadConfigFile = errors.New("could not parse project configuration")

// Peripherals selects which peripheral modules are generated.
type Peripherals struct {
	Clock bool `yaml:"clock"`
	UART  bool `yaml:"uart"`
	Timer bool `yaml:"timer"`
	GPIO  bool `yaml:"gpio"`
	DMA   bool `yaml:"dma"`
	SPI   bool `yaml:"spi"`
	I2C   bool `yaml:"i2c"`
}

// ClockConfig groups the full clock tree configuration.
type ClockConfig struct {
	Oscillator clock.Oscillator          `yaml:"oscillator"`
	PLL        clock.PLL                 `yaml:"pll"`
	Buses      [clock.BusCount]clock.Bus `yaml:"buses"`
}

// Config is the whole project configuration snapshot.
type Config struct {
	Name        string      `yaml:"name"`
	Device      string      `yaml:"device"`
	MikroC      bool        `yaml:"mikroc_support"`
	Peripherals Peripherals `yaml:"peripherals"`

	Clock ClockConfig               `yaml:"clock"`
	UART  uart.Config               `yaml:"uart"`
	Timer timer.Config              `yaml:"timer"`
	GPIO  map[string]gpio.PinConfig `yaml:"gpio"`
}

// Default returns the stock configuration: 8 MHz HS crystal through the PLL
// to 80 MHz, PBCLK1-3 undivided, UART2 at 115200 8N1 and TMR1 at 1 kHz.
func Default() Config {
	cfg := Config{
		Name:   "MyProject",
		Device: "32MZ1024EFH064",
		MikroC: true,
		Peripherals: Peripherals{
			Clock: true,
			UART:  true,
			Timer: true,
			GPIO:  true,
		},
		Clock: ClockConfig{
			Oscillator: clock.Oscillator{Type: clock.OscHS, InputFreqMHz: 8.0},
			PLL:        clock.PLL{Enabled: true, InputDivider: 2, Multiplier: 20, OutputDivider: 1},
		},
		UART: uart.Config{
			Module:         2,
			BaudRate:       115200,
			DataBits:       8,
			Parity:         uart.ParityNone,
			StopBits:       1,
			RxInterrupt:    true,
			ErrorInterrupt: true,
			RxBufferSize:   128,
			TxBufferSize:   128,
			AddressMask:    0xFF,
		},
		Timer: timer.Config{
			Module:            1,
			Mode:              timer.Mode16,
			Prescaler:         8,
			Spec:              timer.SpecFrequency,
			FrequencyHz:       1000,
			InterruptEnabled:  true,
			InterruptPriority: 4,
			AutoStart:         true,
		},
		GPIO: map[string]gpio.PinConfig{},
	}
	for i := 0; i < 3; i++ {
		cfg.Clock.Buses[i] = clock.Bus{Enabled: true, DividerValue: 0}
	}
	return cfg
}

// Load reads a configuration snapshot from a YAML file.
func Load(path string) (Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrBadConfigFile, path, err)
	}
	return cfg, nil
}

// Save writes the configuration snapshot to a YAML file. Save then Load
// round-trips every field, so re-running the compilers on the reloaded
// snapshot yields identical derived parameters.
func Save(cfg Config, path string) error {
	buf, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}
