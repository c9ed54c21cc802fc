package builder

import (
	"fmt"
	"os"
	"path/filepath"
)

// Env is the tool-visible environment: the vendor toolchain and library
// locations a generation pass may consult.
type Env map[string]string

// Environment resolves the environment with PIC32FORGE_* variables taking
// priority over the standard install locations.
func Environment() Env {
	xc32 := "/opt/microchip/xc32/v4.60"
	mplabx := "/opt/microchip/mplabx/v6.25"
	if os.PathSeparator == '\\' {
		xc32 = `C:\Program Files\Microchip\xc32\v4.60`
		mplabx = `C:\Program Files\Microchip\MPLABX\v6.25`
	}

	return map[string]string{
		"PIC32FORGE_PLIB_DIR": getenv("PIC32FORGE_PLIB_DIR", ""),
		"XC32_DIR":            getenv("XC32_DIR", xc32),
		"DFP_DIR":             getenv("DFP_DIR", filepath.Join(mplabx, "packs")),
	}
}

func (e Env) Value(key string) string {
	if v, ok := e[key]; ok {
		return v
	}
	return ""
}

func (e Env) List() []string {
	var result []string
	for key, value := range e {
		result = append(result, fmt.Sprintf("%s=%s", key, value))
	}
	return result
}

func getenv(key, _default string) (value string) {
	value = os.Getenv(key)
	if len(value) == 0 {
		value = _default
	}
	return value
}
