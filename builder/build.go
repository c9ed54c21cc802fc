package builder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/inhies/go-bytesize"

	"github.com/mcuforge/pic32forge/builder/emit"
	"github.com/mcuforge/pic32forge/clock"
	"github.com/mcuforge/pic32forge/periph/gpio"
	"github.com/mcuforge/pic32forge/periph/timer"
	"github.com/mcuforge/pic32forge/periph/uart"
	"github.com/mcuforge/pic32forge/pins"
	"github.com/mcuforge/pic32forge/project"
	"github.com/mcuforge/pic32forge/report"
)

// projectDirs are created under the project root. Generated headers land in
// incs, generated sources in srcs; the remaining directories exist so the
// generated Makefile has somewhere to put build products.
var projectDirs = []string{"srcs", "incs", "objs", "bins", "other", "docs"}

// Result summarizes one generation pass.
type Result struct {
	ProjectDir string
	Tree       clock.Tree
	UART       *uart.Derived
	Timer      *timer.Derived
	GPIO       gpio.Assignments
	Conflicts  report.Conflicts
	Units      []Unit
	Files      []string
	TotalSize  bytesize.ByteSize
}

// Warnings collects the caution flags raised across the clock tree and the
// timer derivation.
func (r *Result) Warnings() []report.Warning {
	var out []report.Warning
	out = append(out, r.Tree.Warnings...)
	if r.Timer != nil {
		out = append(out, r.Timer.Warnings...)
	}
	return out
}

// Build derives every register value the project configuration implies and
// writes the firmware project skeleton under opts.OutputDir. Pin conflicts do
// not fail the pass; they are reported in the result and the conflicting
// options are left out of the generated initialization.
func Build(cfg project.Config, opts Options) (*Result, error) {
	if cfg.Name == "" {
		return nil, errors.Join(ErrInvalidProject, errors.New("project name is empty"))
	}
	db, err := pins.ByDevice(cfg.Device)
	if err != nil {
		return nil, errors.Join(ErrInvalidProject, err)
	}

	projectDir := filepath.Join(opts.OutputDir, cfg.Name)
	if _, err := os.Stat(projectDir); err == nil && !opts.Force {
		return nil, fmt.Errorf("%w: %s", ErrProjectExists, projectDir)
	}
	if err := createProjectDirs(projectDir, cfg.MikroC); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(projectDir, ".pic32forge.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, projectDir)
	}
	defer lock.Unlock()

	tree, err := clock.Resolve(cfg.Clock.Oscillator, cfg.Clock.PLL, cfg.Clock.Buses)
	if err != nil {
		return nil, err
	}
	for _, w := range tree.Warnings {
		opts.logf("clock: %s", w)
	}

	units, err := planUnits(cfg)
	if err != nil {
		return nil, err
	}
	opts.logf("emission order: %v", units)

	result := &Result{
		ProjectDir: projectDir,
		Tree:       tree,
		Units:      units,
	}

	var files []emit.File
	for _, unit := range units {
		switch unit {
		case UnitClock:
			files = append(files, emit.Clock(cfg, tree)...)
		case UnitUART:
			derived, err := uart.Compile(cfg.UART, tree.BusFreqHz(2))
			if err != nil {
				return nil, err
			}
			result.UART = &derived
			files = append(files, emit.UART(cfg.UART, derived)...)
		case UnitTimer:
			if !cfg.Timer.ExternalClock {
				cfg.Timer.ClockSourceHz = tree.BusFreqHz(3)
			}
			derived, err := timer.Compile(cfg.Timer)
			if err != nil {
				return nil, err
			}
			result.Timer = &derived
			for _, w := range derived.Warnings {
				opts.logf("timer %d: %s", cfg.Timer.Module, w)
			}
			files = append(files, emit.Timer(cfg.Timer, derived)...)
		case UnitGPIO:
			assignments, conflicts := gpio.Compile(cfg.GPIO, db)
			result.GPIO = assignments
			result.Conflicts = conflicts
			for _, c := range conflicts {
				opts.logf("pin %s: %s", c.Pin, c.Reason)
			}
			files = append(files, emit.GPIO(cfg, assignments)...)
		case UnitVendor:
			if err := copyVendorUnits(cfg, projectDir, opts); err != nil {
				return nil, err
			}
		case UnitScaffold:
			files = append(files, emit.Scaffold(cfg, tree)...)
		}
	}

	for _, f := range files {
		target := filepath.Join(projectDir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
			return nil, errors.Join(ErrEmissionFailed, err)
		}
		if err := os.WriteFile(target, f.Content, 0644); err != nil {
			return nil, errors.Join(ErrEmissionFailed, err)
		}
		opts.logf("wrote %s", f.Path)
		result.Files = append(result.Files, f.Path)
	}

	if err := project.Save(cfg, filepath.Join(projectDir, "project.yaml")); err != nil {
		return nil, errors.Join(ErrEmissionFailed, err)
	}

	total, err := dirSize(projectDir)
	if err != nil {
		return nil, err
	}
	result.TotalSize = bytesize.New(float64(total))
	opts.logf("project %s: %d files, %s", cfg.Name, len(result.Files), result.TotalSize)
	return result, nil
}

func createProjectDirs(projectDir string, mikroc bool) error {
	dirs := projectDirs
	if mikroc {
		dirs = append(dirs[:len(dirs):len(dirs)], filepath.Join("srcs", "startup"))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(projectDir, dir), 0750); err != nil {
			return err
		}
	}
	return nil
}

// copyVendorUnits pulls the vendor implementations for the peripherals that
// have no parameter compiler of their own. A missing vendor installation is
// logged and skipped rather than failing the pass.
func copyVendorUnits(cfg project.Config, projectDir string, opts Options) error {
	if opts.SkipVendorSearch {
		opts.logf("vendor library search disabled, skipping DMA/SPI/I2C sources")
		return nil
	}
	plibDir := opts.VendorPlibDir
	if plibDir == "" {
		var err error
		plibDir, err = FindPlibDir(opts.Log)
		if err != nil {
			opts.logf("vendor peripheral library not found, skipping DMA/SPI/I2C sources")
			return nil
		}
	}

	incDir := filepath.Join(projectDir, "incs")
	srcDir := filepath.Join(projectDir, "srcs")
	keywords := map[string]bool{
		"dmac": cfg.Peripherals.DMA,
		"spi":  cfg.Peripherals.SPI,
		"i2c":  cfg.Peripherals.I2C,
	}
	for keyword, wanted := range keywords {
		if !wanted {
			continue
		}
		n, err := copyVendorPeripheral(plibDir, keyword, incDir, srcDir)
		if err != nil {
			return err
		}
		opts.logf("copied %d vendor %s files", n, keyword)
	}
	return nil
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
