package emit

import (
	"fmt"
	"strings"

	"github.com/mcuforge/pic32forge/clock"
	"github.com/mcuforge/pic32forge/project"
)

// Clock renders plib_clk.h and plib_clk.c from the resolved clock tree. The
// header carries the frequency constants every other generated file reads;
// the source provides the frequency query API.
func Clock(cfg project.Config, tree clock.Tree) []File {
	return []File{
		{Path: "incs/peripheral/clk/plib_clk.h", Content: []byte(clockHeader(cfg, tree))},
		{Path: "srcs/peripheral/clk/plib_clk.c", Content: []byte(clockSource(cfg, tree))},
	}
}

func clockHeader(cfg project.Config, tree clock.Tree) string {
	var w strings.Builder
	osc := cfg.Clock.Oscillator
	pll := cfg.Clock.PLL

	detail := []string{
		"Generated clock configuration:",
		fmt.Sprintf("- Primary Oscillator: %s (%g MHz)", osc.Type, osc.InputFreqMHz),
		fmt.Sprintf("- PLL: %s", enabledWord(pll.Enabled)),
		fmt.Sprintf("- System Frequency: %g MHz", tree.SystemFreqMHz),
	}
	fmt.Fprint(&w, banner("CLK Peripheral Library Interface Header File", "plib_clk.h",
		"CLK peripheral library interface.", detail...))

	guardOpen(&w, "PLIB_CLK_H")
	fmt.Fprint(&w, "\n#include <stdint.h>\n#include <stdbool.h>\n")
	externCOpen(&w)

	fmt.Fprint(&w, "\n// Clock configuration constants\n")
	fmt.Fprintf(&w, "#define CLK_SYSTEM_FREQUENCY    %dUL\n", tree.SystemFreqHz())
	fmt.Fprintf(&w, "#define CLK_INPUT_FREQUENCY     %dUL\n", int64(osc.InputFreqMHz*1e6))
	fmt.Fprintf(&w, "\n// Oscillator configuration\n")
	fmt.Fprintf(&w, "#define CLK_PRIMARY_OSC         \"%s\"\n", osc.Type)
	fmt.Fprintf(&w, "#define CLK_PLL_ENABLED         %d\n", onOff(pll.Enabled))
	if pll.Enabled {
		fmt.Fprintf(&w, "\n// PLL Configuration\n")
		fmt.Fprintf(&w, "#define CLK_PLL_INPUT_DIV       %d\n", pll.InputDivider)
		fmt.Fprintf(&w, "#define CLK_PLL_MULTIPLIER      %d\n", pll.Multiplier)
		fmt.Fprintf(&w, "#define CLK_PLL_OUTPUT_DIV      %d\n", pll.OutputDivider)
	}

	fmt.Fprint(&w, "\n// Peripheral Bus Clock Configuration\n")
	fmt.Fprint(&w, "// PIC32MZ PBCLK assignments:\n")
	for i, role := range clock.BusRole {
		fmt.Fprintf(&w, "//   PBCLK%d: %s\n", i+1, role)
	}
	for i, bus := range cfg.Clock.Buses {
		name := fmt.Sprintf("PBCLK%d", i+1)
		freq := tree.BusFreqHz(i + 1)
		fmt.Fprintf(&w, "#define CLK_%s_ENABLED       %d\n", name, onOff(bus.Enabled))
		fmt.Fprintf(&w, "#define CLK_%s_FREQUENCY     %dUL\n", name, freq)
		fmt.Fprintf(&w, "#define CLK_%s_DIVIDER_REG   %d\n", name, bus.DividerValue)
		fmt.Fprintf(&w, "#define CLK_%s_DIVIDER_VAL   %d\n", name, bus.Divisor())
	}

	fmt.Fprint(&w, "\n// Clock API\n")
	fmt.Fprint(&w, "void CLK_Initialize(void);\n")
	fmt.Fprint(&w, "uint32_t CLK_SystemFrequencyGet(void);\n")
	fmt.Fprint(&w, "uint32_t CLK_InputFrequencyGet(void);\n")
	fmt.Fprint(&w, "bool CLK_PLLIsEnabled(void);\n")
	fmt.Fprint(&w, "uint32_t CLK_PBCLKFrequencyGet(uint8_t pbclkNum);\n")
	fmt.Fprint(&w, "bool CLK_PBCLKIsEnabled(uint8_t pbclkNum);\n")

	externCClose(&w)
	guardClose(&w, "PLIB_CLK_H")
	return w.String()
}

func clockSource(cfg project.Config, tree clock.Tree) string {
	var w strings.Builder
	pll := cfg.Clock.PLL

	fmt.Fprint(&w, banner("CLK Peripheral Library Source File", "plib_clk.c",
		"CLK peripheral library implementation.",
		fmt.Sprintf("System Clock: %g MHz, PLL %s", tree.SystemFreqMHz, enabledWord(pll.Enabled))))

	fmt.Fprint(&w, "\n#include \"peripheral/clk/plib_clk.h\"\n")

	fmt.Fprint(&w, "\nvoid CLK_Initialize(void)\n{\n")
	fmt.Fprintf(&w, "    /* Primary Oscillator: %s @ %g MHz */\n", cfg.Clock.Oscillator.Type, cfg.Clock.Oscillator.InputFreqMHz)
	if pll.Enabled {
		fmt.Fprintf(&w, "    /* PLL: /%d x%d /%d -> %g MHz system clock */\n",
			pll.InputDivider, pll.Multiplier, pll.OutputDivider, tree.SystemFreqMHz)
	} else {
		fmt.Fprint(&w, "    /* PLL disabled, primary oscillator drives the system clock */\n")
	}
	fmt.Fprint(&w, "\n    /* The oscillator, SPLLCON and PBxDIV settings are applied through the\n")
	fmt.Fprint(&w, "     * device configuration words; at run time the clock tree is already\n")
	fmt.Fprint(&w, "     * producing the frequencies declared in plib_clk.h. */\n")
	fmt.Fprint(&w, "}\n")

	fmt.Fprint(&w, "\nuint32_t CLK_SystemFrequencyGet(void)\n{\n    return CLK_SYSTEM_FREQUENCY;\n}\n")
	fmt.Fprint(&w, "\nuint32_t CLK_InputFrequencyGet(void)\n{\n    return CLK_INPUT_FREQUENCY;\n}\n")
	fmt.Fprintf(&w, "\nbool CLK_PLLIsEnabled(void)\n{\n    return %t;\n}\n", pll.Enabled)

	fmt.Fprint(&w, "\nuint32_t CLK_PBCLKFrequencyGet(uint8_t pbclkNum)\n{\n    switch (pbclkNum)\n    {\n")
	for i := 1; i <= clock.BusCount; i++ {
		fmt.Fprintf(&w, "        case %d: return CLK_PBCLK%d_ENABLED ? CLK_PBCLK%d_FREQUENCY : 0;\n", i, i, i)
	}
	fmt.Fprint(&w, "        default: return 0;\n    }\n}\n")

	fmt.Fprint(&w, "\nbool CLK_PBCLKIsEnabled(uint8_t pbclkNum)\n{\n    switch (pbclkNum)\n    {\n")
	for i := 1; i <= clock.BusCount; i++ {
		fmt.Fprintf(&w, "        case %d: return CLK_PBCLK%d_ENABLED;\n", i, i)
	}
	fmt.Fprint(&w, "        default: return false;\n    }\n}\n")

	return w.String()
}

func enabledWord(v bool) string {
	if v {
		return "Enabled"
	}
	return "Disabled"
}
