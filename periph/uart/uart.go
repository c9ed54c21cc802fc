// Package uart derives the baud-rate-generator and mode-register values for a
// PIC32MZ UART module from its configuration and source bus clock.
package uart

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidConfiguration = errors.New("invalid UART configuration")
	ErrBaudRateUnachievable = errors.New("baud rate not achievable from the source clock")
	errModuleOutOfRange     = errors.New("UART module number outside 1..6")
	errBadDataBits          = errors.New("data width must be 8 or 9 bits")
	errBadStopBits          = errors.New("stop bits must be 1 or 2")
)

// UxMODE register bits, as emitted into the generated plib sources.
const (
	ModeOn          = 0x8000 // ON
	ModeNine        = 0x0008 // PDSEL: 9-bit data, no parity
	ModeEvenParity  = 0x0002 // PDSEL: 8-bit data, even parity
	ModeOddParity   = 0x0004 // PDSEL: 8-bit data, odd parity
	ModeTwoStopBits = 0x0001 // STSEL
)

// MaxBRG is the largest value the 16-bit UxBRG register can hold.
const MaxBRG = 0xFFFF

// Parity selects the parity mode. It is ignored by the hardware encoding when
// 9-bit data width is selected.
type Parity string

const (
	ParityNone Parity = "None"
	ParityEven Parity = "Even"
	ParityOdd  Parity = "Odd"
)

// Config is the user-facing UART configuration snapshot.
type Config struct {
	Module   int    `yaml:"module"` // UART1..UART6
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"` // 8 or 9
	Parity   Parity `yaml:"parity"`
	StopBits int    `yaml:"stop_bits"` // 1 or 2

	RxInterrupt    bool `yaml:"rx_interrupt"`
	TxInterrupt    bool `yaml:"tx_interrupt"`
	ErrorInterrupt bool `yaml:"error_interrupt"`

	RxBufferSize int  `yaml:"rx_buffer_size"`
	TxBufferSize int  `yaml:"tx_buffer_size"`
	WakeOnStart  bool `yaml:"wake_on_start"`
	Loopback     bool `yaml:"loopback"`
	AutoAddress  bool `yaml:"auto_address"`
	AddressMask  int  `yaml:"address_mask"`
}

// Derived holds the register parameters the emitter substitutes into the
// generated UART sources.
type Derived struct {
	// BRG is the UxBRG register value.
	BRG int
	// Mode is the full UxMODE register value, ON bit included.
	Mode uint16
	// ActualBaud is the baud rate the hardware will actually generate with
	// the derived BRG value.
	ActualBaud float64
}

// Compile derives the UART register parameters for the given source clock in
// Hz (normally PBCLK2). The BRG formula assumes standard speed mode (16x).
func Compile(cfg Config, sourceClockHz int64) (Derived, error) {
	if cfg.Module < 1 || cfg.Module > 6 {
		return Derived{}, errors.Join(ErrInvalidConfiguration, errModuleOutOfRange)
	}
	if cfg.BaudRate <= 0 {
		return Derived{}, fmt.Errorf("%w: baud rate %d", ErrInvalidConfiguration, cfg.BaudRate)
	}
	if sourceClockHz <= 0 {
		return Derived{}, fmt.Errorf("%w: source clock %d Hz", ErrInvalidConfiguration, sourceClockHz)
	}
	if cfg.DataBits != 8 && cfg.DataBits != 9 {
		return Derived{}, errors.Join(ErrInvalidConfiguration, errBadDataBits)
	}
	if cfg.StopBits != 1 && cfg.StopBits != 2 {
		return Derived{}, errors.Join(ErrInvalidConfiguration, errBadStopBits)
	}

	brg := int(math.Round(float64(sourceClockHz)/(16*float64(cfg.BaudRate)))) - 1
	if brg < 0 {
		return Derived{}, fmt.Errorf("%w: %d baud needs a BRG below zero at %d Hz",
			ErrBaudRateUnachievable, cfg.BaudRate, sourceClockHz)
	}
	if brg > MaxBRG {
		return Derived{}, fmt.Errorf("%w: %d baud needs BRG=%d, above the 16-bit register limit",
			ErrBaudRateUnachievable, cfg.BaudRate, brg)
	}

	return Derived{
		BRG:        brg,
		Mode:       modeRegister(cfg),
		ActualBaud: float64(sourceClockHz) / (16 * float64(brg+1)),
	}, nil
}

// modeRegister assembles UxMODE. 9-bit data width forces the no-parity
// encoding regardless of the configured parity; this mirrors the hardware
// PDSEL encoding and is not an error.
func modeRegister(cfg Config) uint16 {
	mode := uint16(ModeOn)
	switch {
	case cfg.DataBits == 9:
		mode |= ModeNine
	case cfg.Parity == ParityEven:
		mode |= ModeEvenParity
	case cfg.Parity == ParityOdd:
		mode |= ModeOddParity
	}
	if cfg.StopBits == 2 {
		mode |= ModeTwoStopBits
	}
	return mode
}
