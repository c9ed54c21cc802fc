package builder

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mcuforge/pic32forge/periph/gpio"
	"github.com/mcuforge/pic32forge/project"
)

func TestBuild_DefaultProject(t *testing.T) {
	out := t.TempDir()
	cfg := project.Default()

	result, err := Build(cfg, Options{OutputDir: out, SkipVendorSearch: true})
	if err != nil {
		t.Fatal(err)
	}

	if result.ProjectDir != filepath.Join(out, "MyProject") {
		t.Fatalf("project dir = %s", result.ProjectDir)
	}
	if result.Tree.SystemFreqMHz != 80.0 {
		t.Fatalf("system frequency = %v MHz, want 80", result.Tree.SystemFreqMHz)
	}
	if result.UART == nil || result.UART.BRG != 42 {
		t.Fatalf("UART derivation = %+v, want BRG 42", result.UART)
	}
	if result.Timer == nil || result.Timer.Period != 9999 {
		t.Fatalf("timer derivation = %+v, want period 9999", result.Timer)
	}
	if !result.Conflicts.Empty() {
		t.Fatalf("unexpected conflicts: %v", result.Conflicts)
	}
	if result.TotalSize <= 0 {
		t.Fatal("total size not reported")
	}

	for _, rel := range []string{
		"Makefile",
		"README.md",
		".gitignore",
		"project.yaml",
		filepath.Join("srcs", "main.c"),
		filepath.Join("srcs", "Makefile"),
		filepath.Join("srcs", "startup", "startup.S"),
		filepath.Join("incs", "device.h"),
		filepath.Join("incs", "peripheral", "clk", "plib_clk.h"),
		filepath.Join("srcs", "peripheral", "clk", "plib_clk.c"),
		filepath.Join("incs", "peripheral", "uart", "plib_uart2.h"),
		filepath.Join("srcs", "peripheral", "uart", "plib_uart2.c"),
		filepath.Join("incs", "peripheral", "tmr1", "plib_tmr1.h"),
		filepath.Join("srcs", "peripheral", "tmr1", "plib_tmr1.c"),
		filepath.Join("incs", "peripheral", "gpio", "plib_gpio.h"),
		filepath.Join("srcs", "peripheral", "gpio", "plib_gpio.c"),
	} {
		if _, err := os.Stat(filepath.Join(result.ProjectDir, rel)); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}

	for _, dir := range []string{"objs", "bins", "other", "docs"} {
		info, err := os.Stat(filepath.Join(result.ProjectDir, dir))
		if err != nil || !info.IsDir() {
			t.Errorf("missing directory %s", dir)
		}
	}
}

func TestBuild_SnapshotRoundTripsThroughProjectDir(t *testing.T) {
	out := t.TempDir()
	cfg := project.Default()
	cfg.Name = "roundtrip"

	result, err := Build(cfg, Options{OutputDir: out, SkipVendorSearch: true})
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := project.Load(filepath.Join(result.ProjectDir, "project.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	// The builder pins the timer source clock before saving; everything else
	// must match the input snapshot.
	if loaded.Name != cfg.Name || loaded.Device != cfg.Device {
		t.Fatalf("snapshot identity changed: %+v", loaded)
	}
	if loaded.Timer.ClockSourceHz != result.Tree.BusFreqHz(3) {
		t.Fatalf("timer clock source = %d, want %d", loaded.Timer.ClockSourceHz, result.Tree.BusFreqHz(3))
	}
	if loaded.UART != cfg.UART {
		t.Fatalf("UART config changed: %+v", loaded.UART)
	}
}

func TestBuild_ExistingProjectNeedsForce(t *testing.T) {
	out := t.TempDir()
	cfg := project.Default()
	opts := Options{OutputDir: out, SkipVendorSearch: true}

	if _, err := Build(cfg, opts); err != nil {
		t.Fatal(err)
	}
	if _, err := Build(cfg, opts); !errors.Is(err, ErrProjectExists) {
		t.Fatalf("err = %v, want ErrProjectExists", err)
	}

	opts.Force = true
	if _, err := Build(cfg, opts); err != nil {
		t.Fatalf("forced rebuild failed: %v", err)
	}
}

func TestBuild_RejectsInvalidProject(t *testing.T) {
	out := t.TempDir()
	opts := Options{OutputDir: out, SkipVendorSearch: true}

	cfg := project.Default()
	cfg.Name = ""
	if _, err := Build(cfg, opts); !errors.Is(err, ErrInvalidProject) {
		t.Fatalf("err = %v, want ErrInvalidProject", err)
	}

	cfg = project.Default()
	cfg.Device = "32MX795F512L"
	if _, err := Build(cfg, opts); !errors.Is(err, ErrInvalidProject) {
		t.Fatalf("err = %v, want ErrInvalidProject", err)
	}
}

func TestBuild_ReportsPinConflictsWithoutFailing(t *testing.T) {
	out := t.TempDir()
	cfg := project.Default()
	// RD0 has no analog channel, so requesting analog is a conflict.
	cfg.GPIO["RD0"] = gpio.PinConfig{
		Enabled:       true,
		Direction:     gpio.Input,
		AnalogEnabled: true,
		AltFunction:   "GPIO",
	}

	var lines []string
	opts := Options{
		OutputDir:        out,
		SkipVendorSearch: true,
		Log:              func(format string, args ...any) { lines = append(lines, format) },
	}
	result, err := Build(cfg, opts)
	if err != nil {
		t.Fatal(err)
	}
	if result.Conflicts.Empty() {
		t.Fatal("expected an analog conflict on RD0")
	}
	if len(lines) == 0 {
		t.Fatal("no progress output")
	}
}

func TestPlanUnits_ClockFirstScaffoldLast(t *testing.T) {
	cfg := project.Default()
	units, err := planUnits(cfg)
	if err != nil {
		t.Fatal(err)
	}

	idx := map[Unit]int{}
	for i, u := range units {
		idx[u] = i
	}
	for _, u := range []Unit{UnitClock, UnitUART, UnitTimer, UnitGPIO, UnitScaffold} {
		if _, ok := idx[u]; !ok {
			t.Fatalf("unit %s missing from plan %v", u, units)
		}
	}
	for _, u := range []Unit{UnitUART, UnitTimer, UnitGPIO} {
		if idx[UnitClock] >= idx[u] {
			t.Fatalf("clock ordered after %s: %v", u, units)
		}
		if idx[u] >= idx[UnitScaffold] {
			t.Fatalf("%s ordered after scaffold: %v", u, units)
		}
	}
}

func TestPlanUnits_VendorUnitOnlyWhenNeeded(t *testing.T) {
	cfg := project.Default()
	units, err := planUnits(cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range units {
		if u == UnitVendor {
			t.Fatal("vendor unit planned with no vendor peripherals")
		}
	}

	cfg.Peripherals.SPI = true
	units, err = planUnits(cfg)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, u := range units {
		if u == UnitVendor {
			found = true
		}
	}
	if !found {
		t.Fatalf("vendor unit missing from plan %v", units)
	}
}

func TestVerifyPlibDir(t *testing.T) {
	root := t.TempDir()
	if verifyPlibDir(root) {
		t.Fatal("empty directory verified")
	}
	os.Mkdir(filepath.Join(root, "uart"), 0750)
	if verifyPlibDir(root) {
		t.Fatal("single peripheral directory verified")
	}
	os.Mkdir(filepath.Join(root, "gpio"), 0750)
	if !verifyPlibDir(root) {
		t.Fatal("uart+gpio not verified")
	}
}

func TestCopyVendorPeripheral(t *testing.T) {
	plib := t.TempDir()
	spiDir := filepath.Join(plib, "spi", "templates")
	os.MkdirAll(spiDir, 0750)
	os.WriteFile(filepath.Join(spiDir, "plib_spi1.h"), []byte("/* spi */"), 0644)
	os.WriteFile(filepath.Join(spiDir, "plib_spi1.c"), []byte("/* spi */"), 0644)
	os.WriteFile(filepath.Join(spiDir, "plib_spi1.ftl"), []byte("template"), 0644)

	work := t.TempDir()
	incDir := filepath.Join(work, "incs")
	srcDir := filepath.Join(work, "srcs")

	n, err := copyVendorPeripheral(plib, "spi", incDir, srcDir)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("copied %d files, want 2 (.ftl skipped)", n)
	}
	if _, err := os.Stat(filepath.Join(incDir, "plib_spi1.h")); err != nil {
		t.Error("header not copied to incs")
	}
	if _, err := os.Stat(filepath.Join(srcDir, "plib_spi1.c")); err != nil {
		t.Error("source not copied to srcs")
	}
}
