// Package gpio derives per-pin register assignments from the pin
// configuration map and validates it against the device pin database.
// Validation failures are reported as conflicts, never as errors: the caller
// decides whether a conflicted configuration is still worth emitting.
package gpio

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/mcuforge/pic32forge/pins"
	"github.com/mcuforge/pic32forge/report"
)

// Direction selects the pin data direction.
type Direction string

const (
	Input  Direction = "Input"
	Output Direction = "Output"
)

// Edge selects which input transitions raise a pin interrupt.
type Edge string

const (
	EdgeRising  Edge = "Rising"
	EdgeFalling Edge = "Falling"
	EdgeBoth    Edge = "Both"
)

// SlewRate selects the output edge rate.
type SlewRate string

const (
	SlewStandard SlewRate = "Standard"
	SlewFast     SlewRate = "Fast"
)

// DriveStrength selects the output drive strength.
type DriveStrength string

const (
	DriveStandard DriveStrength = "Standard"
	DriveHigh     DriveStrength = "High"
)

// PinConfig is the full configuration of one enabled pin.
type PinConfig struct {
	Enabled      bool      `yaml:"enabled"`
	Direction    Direction `yaml:"direction"`
	InitialState string    `yaml:"initial_state"` // "Low" or "High", outputs only

	AnalogEnabled bool     `yaml:"analog_enabled"`
	OpenDrain     bool     `yaml:"open_drain"`
	PullUp        bool     `yaml:"pull_up"`
	PullDown      bool     `yaml:"pull_down"`
	SlewRate      SlewRate `yaml:"slew_rate"`

	InterruptEnabled   bool `yaml:"interrupt_enabled"`
	InterruptEdge      Edge `yaml:"interrupt_edge"`
	ChangeNotification bool `yaml:"change_notification"`

	AltFunction       string `yaml:"alt_function"`       // "GPIO" or a descriptor function
	PeripheralMapping string `yaml:"peripheral_mapping"` // PPS routing, informational

	SchmittTrigger bool          `yaml:"schmitt_trigger"`
	DriveStrength  DriveStrength `yaml:"drive_strength"`
}

// RegisterOp is one atomic-set or atomic-clear write against a port register,
// e.g. {Register: "TRISB", Set: false, Mask: 1 << 8} meaning TRISBCLR.
type RegisterOp struct {
	Register string
	Set      bool
	Mask     uint32
}

// Target renders the SET/CLR register the generated code writes.
func (op RegisterOp) Target() string {
	if op.Set {
		return op.Register + "SET"
	}
	return op.Register + "CLR"
}

// PinAssignment is the ordered register write sequence for one pin, plus the
// descriptor it was validated against.
type PinAssignment struct {
	Name       string
	Descriptor pins.Descriptor
	Config     PinConfig
	Ops        []RegisterOp
}

// Assignments is the compiled register view of the whole GPIO configuration.
type Assignments struct {
	Pins []PinAssignment
}

// PortMask aggregates every op against a single register across all pins.
// Keys are register names ("TRISB"), split into set and clear masks.
func (a Assignments) PortMask() (set, clear map[string]uint32) {
	set = map[string]uint32{}
	clear = map[string]uint32{}
	for _, pin := range a.Pins {
		for _, op := range pin.Ops {
			if op.Set {
				set[op.Register] |= op.Mask
			} else {
				clear[op.Register] |= op.Mask
			}
		}
	}
	return set, clear
}

// Compile validates every enabled pin against the database and derives its
// register write sequence. The returned conflict report is advisory; compiled
// assignments are still produced for every pin that exists in the database.
func Compile(config map[string]PinConfig, db pins.Database) (Assignments, report.Conflicts) {
	var (
		asm       Assignments
		conflicts report.Conflicts
	)

	names := maps.Keys(config)
	slices.Sort(names)
	// Database order (port, then bit) keeps emission deterministic and
	// matches the datasheet layout; unknown pins stay alphabetical at the end.
	slices.SortStableFunc(names, func(a, b string) bool {
		da, aok := db.Lookup(a)
		dd, bok := db.Lookup(b)
		if aok != bok {
			return aok
		}
		if !aok {
			return false
		}
		if da.Port != dd.Port {
			return da.Port < dd.Port
		}
		return da.Bit < dd.Bit
	})

	for _, name := range names {
		cfg := config[name]
		if !cfg.Enabled {
			continue
		}

		desc, ok := db.Lookup(name)
		if !ok {
			conflicts = append(conflicts, report.Conflict{
				Pin:    name,
				Reason: fmt.Sprintf("pin not available on %s", db.Device),
			})
			continue
		}

		pinConflicts := validate(name, cfg, desc)
		conflicts = append(conflicts, pinConflicts...)

		asm.Pins = append(asm.Pins, PinAssignment{
			Name:       name,
			Descriptor: desc,
			Config:     cfg,
			Ops:        synthesize(cfg, desc),
		})
	}

	return asm, conflicts
}

func validate(name string, cfg PinConfig, desc pins.Descriptor) report.Conflicts {
	var conflicts report.Conflicts

	if cfg.AnalogEnabled && !desc.HasAnalog() {
		conflicts = append(conflicts, report.Conflict{
			Pin:    name,
			Reason: "analog function requested but the pin has no analog channel",
		})
	}
	if !desc.SupportsFunction(cfg.AltFunction) {
		conflicts = append(conflicts, report.Conflict{
			Pin:    name,
			Reason: fmt.Sprintf("alternate function %q not available on this pin", cfg.AltFunction),
		})
	}
	if cfg.PullUp && cfg.PullDown {
		conflicts = append(conflicts, report.Conflict{
			Pin:    name,
			Reason: "pull-up and pull-down both enabled",
		})
	}
	return conflicts
}

// synthesize builds the register write sequence for one pin. Writes follow
// the same order the hand-written init code uses: direction, latch, analog
// select, pulls, open drain, slew, interrupt enables.
func synthesize(cfg PinConfig, desc pins.Descriptor) []RegisterOp {
	port := desc.Port
	mask := uint32(1) << uint(desc.Bit)
	var ops []RegisterOp

	add := func(register string, set bool) {
		ops = append(ops, RegisterOp{Register: register, Set: set, Mask: mask})
	}

	if cfg.Direction == Output {
		add("TRIS"+port, false)
		add("LAT"+port, cfg.InitialState == "High")
	} else {
		add("TRIS"+port, true)
	}

	if cfg.AnalogEnabled && desc.HasAnalog() {
		add("ANSEL"+port, true)
	} else {
		// Digital, also when analog was requested on a pin without an
		// analog channel; the conflict report carries that case.
		add("ANSEL"+port, false)
	}

	// Contradictory pulls are reported, not guessed at; neither is engaged.
	bothPulls := cfg.PullUp && cfg.PullDown
	if cfg.PullUp && !bothPulls {
		add("CN"+port+"PUE", true)
	}
	if cfg.PullDown && !bothPulls {
		add("CN"+port+"PD", true)
	}

	if cfg.OpenDrain && cfg.Direction == Output {
		add("ODC"+port, true)
	}

	if cfg.SlewRate == SlewFast {
		add("SR"+port, false)
	} else {
		add("SR"+port, true)
	}

	if cfg.InterruptEnabled || cfg.ChangeNotification {
		add("CN"+port+"IE", true)
		switch cfg.InterruptEdge {
		case EdgeFalling:
			add("CNEN1", true)
		case EdgeBoth:
			add("CNEN0", true)
			add("CNEN1", true)
		default:
			add("CNEN0", true)
		}
	}

	return ops
}
