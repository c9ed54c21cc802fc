package emit

import (
	"fmt"
	"strings"

	"github.com/mcuforge/pic32forge/periph/timer"
)

// Timer renders the plib_tmrN files for one timer instance.
func Timer(cfg timer.Config, d timer.Derived) []File {
	n := cfg.Module
	return []File{
		{Path: fmt.Sprintf("incs/peripheral/tmr%d/plib_tmr%d.h", n, n), Content: []byte(timerHeader(cfg, d))},
		{Path: fmt.Sprintf("srcs/peripheral/tmr%d/plib_tmr%d.c", n, n), Content: []byte(timerSource(cfg, d))},
	}
}

// periodType is the C type wide enough for the period register in the
// selected mode.
func periodType(cfg timer.Config) string {
	if cfg.Mode == timer.Mode32 {
		return "uint32_t"
	}
	return "uint16_t"
}

func timerHeader(cfg timer.Config, d timer.Derived) string {
	var w strings.Builder
	n := cfg.Module
	guard := fmt.Sprintf("PLIB_TMR%d_H", n)

	fmt.Fprint(&w, banner(
		fmt.Sprintf("TMR%d Peripheral Library Interface Header File", n),
		fmt.Sprintf("plib_tmr%d.h", n),
		fmt.Sprintf("TMR%d peripheral library interface.", n),
		fmt.Sprintf("Mode: %s", cfg.Mode),
		fmt.Sprintf("Prescaler: 1:%d", cfg.Prescaler),
		fmt.Sprintf("Period Value: %d", d.Period),
		fmt.Sprintf("Achieved Frequency: %.3f Hz", d.AchievedFrequencyHz)))

	guardOpen(&w, guard)
	fmt.Fprint(&w, "\n#include <stddef.h>\n#include <stdbool.h>\n#include <stdint.h>\n")
	fmt.Fprint(&w, "#include \"device.h\"\n")
	externCOpen(&w)

	pt := periodType(cfg)
	fmt.Fprintf(&w, "\ntypedef void (*TMR%d_CALLBACK)(uint32_t status, uintptr_t context);\n", n)
	fmt.Fprintf(&w, "\ntypedef struct\n{\n    TMR%d_CALLBACK callback;\n    uintptr_t context;\n} TMR%d_OBJECT;\n", n, n)

	fmt.Fprintf(&w, "\n// TMR%d API\n", n)
	fmt.Fprintf(&w, "void TMR%d_Initialize(void);\n", n)
	fmt.Fprintf(&w, "void TMR%d_Start(void);\n", n)
	fmt.Fprintf(&w, "void TMR%d_Stop(void);\n", n)
	fmt.Fprintf(&w, "void TMR%d_PeriodSet(%s period);\n", n, pt)
	fmt.Fprintf(&w, "%s TMR%d_PeriodGet(void);\n", pt, n)
	fmt.Fprintf(&w, "%s TMR%d_CounterGet(void);\n", pt, n)
	fmt.Fprintf(&w, "void TMR%d_CounterSet(%s count);\n", n, pt)
	fmt.Fprintf(&w, "uint32_t TMR%d_FrequencyGet(void);\n", n)
	fmt.Fprintf(&w, "bool TMR%d_CallbackRegister(TMR%d_CALLBACK callback, uintptr_t context);\n", n, n)
	fmt.Fprintf(&w, "void TMR%d_InterruptHandler(void);\n", n)

	externCClose(&w)
	guardClose(&w, guard)
	return w.String()
}

func timerSource(cfg timer.Config, d timer.Derived) string {
	var w strings.Builder
	n := cfg.Module
	pt := periodType(cfg)

	fmt.Fprint(&w, banner(
		fmt.Sprintf("TMR%d Peripheral Library Source File", n),
		fmt.Sprintf("plib_tmr%d.c", n),
		fmt.Sprintf("TMR%d peripheral library implementation.", n),
		fmt.Sprintf("Timer: TMR%d (%s)", n, cfg.Mode),
		"Clock Source: PBCLK3",
		fmt.Sprintf("Prescaler: 1:%d", cfg.Prescaler),
		fmt.Sprintf("Period Value: %d", d.Period),
		fmt.Sprintf("Achieved Frequency: %.3f Hz", d.AchievedFrequencyHz),
		fmt.Sprintf("Interrupt Priority: %d", cfg.InterruptPriority)))

	fmt.Fprintf(&w, "\n#include \"peripheral/tmr%d/plib_tmr%d.h\"\n", n, n)
	fmt.Fprintf(&w, "\nstatic TMR%d_OBJECT tmr%dObj;\n", n, n)

	fmt.Fprintf(&w, "\nvoid TMR%d_Initialize(void)\n{\n", n)
	fmt.Fprintf(&w, "    T%dCON = 0x0000;  /* Stop and reset timer */\n", n)
	fmt.Fprintf(&w, "    TMR%d = 0x0000;   /* Clear counter */\n", n)
	fmt.Fprintf(&w, "    PR%d = %d;\n", n, d.Period)
	fmt.Fprintf(&w, "\n    /* %s mode, prescaler 1:%d */\n", cfg.Mode, cfg.Prescaler)
	fmt.Fprintf(&w, "    T%dCON = 0x%04X;\n", n, d.Control)
	if cfg.InterruptEnabled {
		fmt.Fprint(&w, "\n    /* Configure timer interrupt */\n")
		fmt.Fprintf(&w, "    IPC1bits.T%dIP = %d;\n", n, cfg.InterruptPriority)
		fmt.Fprintf(&w, "    IFS0bits.T%dIF = 0;\n", n)
		fmt.Fprintf(&w, "    IEC0bits.T%dIE = 1;\n", n)
	}
	if cfg.AutoStart {
		fmt.Fprintf(&w, "\n    T%dCONbits.ON = 1;\n", n)
	}
	fmt.Fprint(&w, "}\n")

	fmt.Fprintf(&w, `
void TMR%[1]d_Start(void)
{
    T%[1]dCONbits.ON = 1;
}

void TMR%[1]d_Stop(void)
{
    T%[1]dCONbits.ON = 0;
}

void TMR%[1]d_PeriodSet(%[2]s period)
{
    PR%[1]d = period;
}

%[2]s TMR%[1]d_PeriodGet(void)
{
    return PR%[1]d;
}

%[2]s TMR%[1]d_CounterGet(void)
{
    return TMR%[1]d;
}

void TMR%[1]d_CounterSet(%[2]s count)
{
    TMR%[1]d = count;
}
`, n, pt)

	fmt.Fprintf(&w, `
uint32_t TMR%[1]d_FrequencyGet(void)
{
    /* Input_Clock / (Prescaler * (PR + 1)) */
    uint32_t prescaler_div = %[2]d;
    uint32_t period = PR%[1]d + 1;
    uint32_t input_clock = %[3]d;  /* PBCLK3 */

    return input_clock / (prescaler_div * period);
}

bool TMR%[1]d_CallbackRegister(TMR%[1]d_CALLBACK callback, uintptr_t context)
{
    tmr%[1]dObj.callback = callback;
    tmr%[1]dObj.context = context;
    return true;
}

void TMR%[1]d_InterruptHandler(void)
{
    IFS0bits.T%[1]dIF = 0;

    if (tmr%[1]dObj.callback != NULL)
    {
        tmr%[1]dObj.callback(0, tmr%[1]dObj.context);
    }
}
`, n, cfg.Prescaler, cfg.ClockSourceHz)

	return w.String()
}
