package builder

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// FindPlibDir locates a vendor peripheral library installation. Harmony 3
// CSP content under the user's .mcc directory takes priority since that is
// where current MCC installations keep their templates; the classic MPLAB X
// and XC32 install roots are the fallback.
func FindPlibDir(log LogFunc) (string, error) {
	if dir := Environment().Value("PIC32FORGE_PLIB_DIR"); dir != "" {
		if verifyPlibDir(dir) {
			return dir, nil
		}
		if log != nil {
			log("PIC32FORGE_PLIB_DIR=%s does not look like a peripheral library, searching", dir)
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		cspRoot := filepath.Join(home, ".mcc", "harmony", "content", "csp")
		if dir := latestCspPeripheralDir(cspRoot); dir != "" {
			if log != nil {
				log("found Harmony 3 CSP peripheral library: %s", dir)
			}
			return dir, nil
		}
	}

	for _, root := range vendorSearchRoots() {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}
		if log != nil {
			log("checking %s", root)
		}
		found := ""
		filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil || found != "" {
				return filepath.SkipAll
			}
			if d.IsDir() {
				return nil
			}
			name := strings.ToLower(d.Name())
			if strings.HasPrefix(name, "plib_") || strings.Contains(name, "uart") {
				if verifyPlibDir(filepath.Dir(filepath.Dir(path))) {
					found = filepath.Dir(filepath.Dir(path))
					return filepath.SkipAll
				}
			}
			return nil
		})
		if found != "" {
			if log != nil {
				log("selected peripheral library location: %s", found)
			}
			return found, nil
		}
	}

	return "", ErrPlibNotFound
}

// latestCspPeripheralDir picks the highest vX.Y.Z version directory under a
// Harmony CSP content root and returns its peripheral directory.
func latestCspPeripheralDir(cspRoot string) string {
	entries, err := os.ReadDir(cspRoot)
	if err != nil {
		return ""
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "v") {
			versions = append(versions, e.Name())
		}
	}
	if len(versions) == 0 {
		return ""
	}
	slices.SortFunc(versions, func(a, b string) bool {
		return versionLess(a, b)
	})
	dir := filepath.Join(cspRoot, versions[len(versions)-1], "peripheral")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}

func versionLess(a, b string) bool {
	pa := strings.Split(strings.TrimPrefix(a, "v"), ".")
	pb := strings.Split(strings.TrimPrefix(b, "v"), ".")
	for i := 0; i < len(pa) && i < len(pb); i++ {
		na, _ := strconv.Atoi(pa[i])
		nb, _ := strconv.Atoi(pb[i])
		if na != nb {
			return na < nb
		}
	}
	return len(pa) < len(pb)
}

func vendorSearchRoots() []string {
	env := Environment()
	roots := []string{env.Value("DFP_DIR"), env.Value("XC32_DIR")}
	if runtime.GOOS == "windows" {
		return append(roots,
			`C:\Program Files\Microchip\MPLABX`,
			`C:\Program Files (x86)\Microchip\MPLABX`,
			`C:\Microchip\MPLABX`,
			`C:\Program Files\Microchip\xc32`,
			`C:\Program Files (x86)\Microchip\xc32`,
			`C:\microchip\harmony\v3`,
			`C:\harmony3`,
		)
	}
	return append(roots,
		"/opt/microchip/mplabx",
		"/opt/microchip/xc32",
		"/opt/microchip/harmony/v3",
		"/usr/local/microchip",
	)
}

// verifyPlibDir reports whether a directory looks like a peripheral library
// root: at least two of the expected peripheral subdirectories present.
func verifyPlibDir(path string) bool {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false
	}
	expected := []string{"uart", "gpio", "tmr", "clk", "sys"}
	found := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		for _, want := range expected {
			if strings.Contains(name, want) {
				found++
				break
			}
		}
	}
	return found >= 2
}

// copyVendorPeripheral copies the vendor .h/.c files whose names contain the
// peripheral keyword into the project's include and source directories. It
// returns the number of files copied.
func copyVendorPeripheral(plibDir, keyword, incDir, srcDir string) (int, error) {
	copied := 0
	err := filepath.WalkDir(plibDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		name := strings.ToLower(d.Name())
		if !strings.Contains(name, keyword) {
			return nil
		}
		var target string
		switch filepath.Ext(name) {
		case ".h":
			target = filepath.Join(incDir, d.Name())
		case ".c":
			target = filepath.Join(srcDir, d.Name())
		default:
			return nil
		}
		if err := copyFile(path, target); err != nil {
			return err
		}
		copied++
		return nil
	})
	return copied, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
