package builder

// LogFunc receives human-readable progress lines during a generation pass.
type LogFunc func(format string, args ...any)

// Options controls one generation pass.
type Options struct {
	// OutputDir is the directory the project directory is created under.
	OutputDir string
	// Force overwrites an existing project directory.
	Force bool
	// SkipVendorSearch disables vendor peripheral library discovery; every
	// peripheral file is generated instead of copied.
	SkipVendorSearch bool
	// VendorPlibDir pins the vendor peripheral library location instead of
	// searching the standard installation paths.
	VendorPlibDir string
	// Log receives progress output; nil discards it.
	Log LogFunc
}

func (o Options) logf(format string, args ...any) {
	if o.Log != nil {
		o.Log(format, args...)
	}
}
