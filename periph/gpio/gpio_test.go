package gpio

import (
	"reflect"
	"strings"
	"testing"

	"github.com/mcuforge/pic32forge/pins"
)

func testDB(t *testing.T) pins.Database {
	t.Helper()
	db, err := pins.ByDevice("32MZ1024EFH064")
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func enabledPin(mutate func(*PinConfig)) PinConfig {
	cfg := PinConfig{
		Enabled:      true,
		Direction:    Input,
		InitialState: "Low",
		SlewRate:     SlewStandard,
		AltFunction:  "GPIO",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return cfg
}

func opsFor(t *testing.T, asm Assignments, pin string) []RegisterOp {
	t.Helper()
	for _, p := range asm.Pins {
		if p.Name == pin {
			return p.Ops
		}
	}
	t.Fatalf("pin %s not in assignments", pin)
	return nil
}

func hasOp(ops []RegisterOp, target string, mask uint32) bool {
	for _, op := range ops {
		if op.Target() == target && op.Mask&mask != 0 {
			return true
		}
	}
	return false
}

func TestCompile_OutputPinRegisterSequence(t *testing.T) {
	cfgs := map[string]PinConfig{
		"RB8": enabledPin(func(c *PinConfig) {
			c.Direction = Output
			c.InitialState = "High"
			c.OpenDrain = true
		}),
	}
	asm, conflicts := Compile(cfgs, testDB(t))
	if !conflicts.Empty() {
		t.Fatalf("unexpected conflicts: %v", conflicts)
	}
	ops := opsFor(t, asm, "RB8")
	mask := uint32(1) << 8
	for _, want := range []string{"TRISBCLR", "LATBSET", "ANSELBCLR", "ODCBSET", "SRBSET"} {
		if !hasOp(ops, want, mask) {
			t.Fatalf("missing %s in %v", want, ops)
		}
	}
}

func TestCompile_InputPinWithPullUpAndInterrupt(t *testing.T) {
	cfgs := map[string]PinConfig{
		"RD5": enabledPin(func(c *PinConfig) {
			c.PullUp = true
			c.InterruptEnabled = true
			c.InterruptEdge = EdgeFalling
		}),
	}
	asm, conflicts := Compile(cfgs, testDB(t))
	if !conflicts.Empty() {
		t.Fatalf("unexpected conflicts: %v", conflicts)
	}
	ops := opsFor(t, asm, "RD5")
	mask := uint32(1) << 5
	for _, want := range []string{"TRISDSET", "CNDPUESET", "CNDIESET", "CNEN1SET"} {
		if !hasOp(ops, want, mask) {
			t.Fatalf("missing %s in %v", want, ops)
		}
	}
	if hasOp(ops, "CNEN0SET", mask) {
		t.Fatal("falling edge must not enable CNEN0")
	}
}

func TestCompile_BothEdgesEnableBothCNRegisters(t *testing.T) {
	cfgs := map[string]PinConfig{
		"RC1": enabledPin(func(c *PinConfig) {
			c.ChangeNotification = true
			c.InterruptEdge = EdgeBoth
		}),
	}
	asm, conflicts := Compile(cfgs, testDB(t))
	if !conflicts.Empty() {
		t.Fatalf("unexpected conflicts: %v", conflicts)
	}
	ops := opsFor(t, asm, "RC1")
	mask := uint32(1) << 1
	if !hasOp(ops, "CNEN0SET", mask) || !hasOp(ops, "CNEN1SET", mask) {
		t.Fatalf("both-edge config needs CNEN0 and CNEN1, got %v", ops)
	}
}

func TestCompile_AnalogOnAnalogCapablePin(t *testing.T) {
	cfgs := map[string]PinConfig{
		"RB4": enabledPin(func(c *PinConfig) { c.AnalogEnabled = true }),
	}
	asm, conflicts := Compile(cfgs, testDB(t))
	if !conflicts.Empty() {
		t.Fatalf("unexpected conflicts: %v", conflicts)
	}
	if !hasOp(opsFor(t, asm, "RB4"), "ANSELBSET", 1<<4) {
		t.Fatal("analog-capable pin should select ANSEL")
	}
}

func TestCompile_AnalogOnDigitalOnlyPinConflicts(t *testing.T) {
	// RD0 has no analog channel; the request is recorded as a conflict and
	// the pin stays digital.
	cfgs := map[string]PinConfig{
		"RD0": enabledPin(func(c *PinConfig) { c.AnalogEnabled = true }),
	}
	asm, conflicts := Compile(cfgs, testDB(t))
	if conflicts.Empty() {
		t.Fatal("expected a conflict for analog on RD0")
	}
	if conflicts[0].Pin != "RD0" || !strings.Contains(conflicts[0].Reason, "analog") {
		t.Fatalf("conflict = %+v", conflicts[0])
	}
	if !hasOp(opsFor(t, asm, "RD0"), "ANSELDCLR", 1<<0) {
		t.Fatal("pin should fall back to digital")
	}
}

func TestCompile_UnknownPinConflicts(t *testing.T) {
	cfgs := map[string]PinConfig{
		"RZ9": enabledPin(nil),
	}
	asm, conflicts := Compile(cfgs, testDB(t))
	if len(conflicts) != 1 {
		t.Fatalf("conflicts = %v, want one entry", conflicts)
	}
	if conflicts[0].Pin != "RZ9" {
		t.Fatalf("conflict pin = %s", conflicts[0].Pin)
	}
	if len(asm.Pins) != 0 {
		t.Fatalf("unknown pin must not produce assignments, got %v", asm.Pins)
	}
}

func TestCompile_UnavailableAltFunctionConflicts(t *testing.T) {
	cfgs := map[string]PinConfig{
		"RB8": enabledPin(func(c *PinConfig) { c.AltFunction = "U3TX" }),
	}
	_, conflicts := Compile(cfgs, testDB(t))
	if len(conflicts) != 1 {
		t.Fatalf("conflicts = %v, want one entry", conflicts)
	}
	if !strings.Contains(conflicts[0].Reason, "U3TX") {
		t.Fatalf("reason = %q", conflicts[0].Reason)
	}

	// U6RX is listed for RB8 and passes.
	cfgs["RB8"] = enabledPin(func(c *PinConfig) { c.AltFunction = "U6RX" })
	_, conflicts = Compile(cfgs, testDB(t))
	if !conflicts.Empty() {
		t.Fatalf("unexpected conflicts: %v", conflicts)
	}
}

func TestCompile_BothPullsConflictAndEngageNeither(t *testing.T) {
	cfgs := map[string]PinConfig{
		"RD5": enabledPin(func(c *PinConfig) {
			c.PullUp = true
			c.PullDown = true
		}),
	}
	asm, conflicts := Compile(cfgs, testDB(t))
	if len(conflicts) != 1 {
		t.Fatalf("conflicts = %v, want one entry", conflicts)
	}
	ops := opsFor(t, asm, "RD5")
	mask := uint32(1) << 5
	if hasOp(ops, "CNDPUESET", mask) || hasOp(ops, "CNDPDSET", mask) {
		t.Fatalf("contradictory pulls must engage neither, got %v", ops)
	}
}

func TestCompile_DisabledPinsAreSkipped(t *testing.T) {
	cfgs := map[string]PinConfig{
		"RB8": {Direction: Input},
		"RB9": enabledPin(nil),
	}
	asm, conflicts := Compile(cfgs, testDB(t))
	if !conflicts.Empty() {
		t.Fatalf("unexpected conflicts: %v", conflicts)
	}
	if len(asm.Pins) != 1 || asm.Pins[0].Name != "RB9" {
		t.Fatalf("assignments = %+v, want only RB9", asm.Pins)
	}
}

func TestCompile_DeterministicPortBitOrder(t *testing.T) {
	cfgs := map[string]PinConfig{
		"RG1":  enabledPin(nil),
		"RA4":  enabledPin(nil),
		"RB10": enabledPin(nil),
		"RB2":  enabledPin(nil),
	}
	asm, _ := Compile(cfgs, testDB(t))
	var got []string
	for _, p := range asm.Pins {
		got = append(got, p.Name)
	}
	want := []string{"RA4", "RB2", "RB10", "RG1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestPortMaskAggregation(t *testing.T) {
	cfgs := map[string]PinConfig{
		"RE0": enabledPin(func(c *PinConfig) { c.Direction = Output }),
		"RE1": enabledPin(func(c *PinConfig) { c.Direction = Output }),
		"RE2": enabledPin(nil),
	}
	asm, conflicts := Compile(cfgs, testDB(t))
	if !conflicts.Empty() {
		t.Fatalf("unexpected conflicts: %v", conflicts)
	}
	set, clear := asm.PortMask()
	if clear["TRISE"] != 0b011 {
		t.Fatalf("TRISE clear mask = %#b, want 0b011", clear["TRISE"])
	}
	if set["TRISE"] != 0b100 {
		t.Fatalf("TRISE set mask = %#b, want 0b100", set["TRISE"])
	}
}

func TestCompile_Idempotent(t *testing.T) {
	cfgs := map[string]PinConfig{
		"RB8": enabledPin(func(c *PinConfig) { c.Direction = Output }),
		"RD0": enabledPin(func(c *PinConfig) { c.AnalogEnabled = true }),
	}
	db := testDB(t)
	asm1, con1 := Compile(cfgs, db)
	asm2, con2 := Compile(cfgs, db)
	if !reflect.DeepEqual(asm1, asm2) || !reflect.DeepEqual(con1, con2) {
		t.Fatal("repeated compiles differ")
	}
}
