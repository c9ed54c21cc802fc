// Package pins holds the static per-device pin catalog. The catalog is a
// versioned artifact shipped with the tool; it is never computed at run time.
package pins

import (
	_ "embed"
	"errors"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

//go:embed pindb.yaml
var rawCatalog []byte

var catalog []deviceEntry

var ErrUnknownDevice = errors.New("device not present in the pin catalog")

// Descriptor describes one physical pin: its port register group, bit index,
// package pin label, analog channel (empty when the pin has no analog
// function) and the alternate functions it can be routed to.
type Descriptor struct {
	Name       string   `yaml:"name"`
	Port       string   `yaml:"port"`
	Bit        int      `yaml:"bit"`
	PackagePin string   `yaml:"package"`
	Analog     string   `yaml:"analog,omitempty"`
	Functions  []string `yaml:"functions"`
}

// HasAnalog reports whether the pin is multiplexed with an ADC channel.
func (d Descriptor) HasAnalog() bool { return d.Analog != "" }

// SupportsFunction reports whether fn is plain GPIO or one of the pin's
// alternate functions.
func (d Descriptor) SupportsFunction(fn string) bool {
	if fn == "" || fn == "GPIO" {
		return true
	}
	return slices.Contains(d.Functions, fn)
}

// Database is the pin catalog for a single device, keyed by pin name.
type Database struct {
	Device string
	pins   map[string]Descriptor
}

type deviceEntry struct {
	Device string       `yaml:"device"`
	Pins   []Descriptor `yaml:"pins"`
}

func init() {
	var db struct {
		Devices []deviceEntry `yaml:"devices"`
	}
	if err := yaml.Unmarshal(rawCatalog, &db); err != nil {
		panic(err)
	}
	catalog = db.Devices
}

// ByDevice returns the pin database for the named device.
func ByDevice(device string) (Database, error) {
	for _, entry := range catalog {
		if strings.EqualFold(entry.Device, device) {
			pins := make(map[string]Descriptor, len(entry.Pins))
			for _, p := range entry.Pins {
				pins[p.Name] = p
			}
			return Database{Device: entry.Device, pins: pins}, nil
		}
	}
	return Database{}, errors.Join(ErrUnknownDevice, errors.New(device))
}

// Devices lists the devices present in the catalog.
func Devices() []string {
	names := make([]string, len(catalog))
	for i, entry := range catalog {
		names[i] = entry.Device
	}
	slices.Sort(names)
	return names
}

// Lookup returns the descriptor for a pin name such as "RB8".
func (db Database) Lookup(name string) (Descriptor, bool) {
	d, ok := db.pins[name]
	return d, ok
}

// Names returns all pin names in the database, sorted by port then bit.
func (db Database) Names() []string {
	names := maps.Keys(db.pins)
	slices.SortFunc(names, func(a, b string) bool {
		pa, pb := db.pins[a], db.pins[b]
		if pa.Port != pb.Port {
			return pa.Port < pb.Port
		}
		return pa.Bit < pb.Bit
	})
	return names
}

// Ports returns the distinct port letters used by the device, sorted.
func (db Database) Ports() []string {
	seen := map[string]bool{}
	for _, d := range db.pins {
		seen[d.Port] = true
	}
	ports := maps.Keys(seen)
	slices.Sort(ports)
	return ports
}

// Len returns the number of pins in the database.
func (db Database) Len() int { return len(db.pins) }
