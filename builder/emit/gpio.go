package emit

import (
	"fmt"
	"strings"

	"github.com/mcuforge/pic32forge/periph/gpio"
	"github.com/mcuforge/pic32forge/project"
)

// GPIO renders plib_gpio.h and plib_gpio.c from the compiled pin assignments.
// The initialization sequence follows the compiled register ops verbatim, so
// conflicted options that were left out of the assignment never reach the
// generated code.
func GPIO(cfg project.Config, asg gpio.Assignments) []File {
	return []File{
		{Path: "incs/peripheral/gpio/plib_gpio.h", Content: []byte(gpioHeader(cfg, asg))},
		{Path: "srcs/peripheral/gpio/plib_gpio.c", Content: []byte(gpioSource(asg))},
	}
}

func gpioPorts(asg gpio.Assignments) []string {
	var ports []string
	seen := map[string]bool{}
	for _, pin := range asg.Pins {
		if !seen[pin.Descriptor.Port] {
			seen[pin.Descriptor.Port] = true
			ports = append(ports, pin.Descriptor.Port)
		}
	}
	return ports
}

func gpioHeader(cfg project.Config, asg gpio.Assignments) string {
	var w strings.Builder

	fmt.Fprint(&w, banner("GPIO Peripheral Library Interface Header File", "plib_gpio.h",
		"GPIO peripheral library interface.",
		fmt.Sprintf("Device: %s", cfg.Device),
		fmt.Sprintf("%d pins configured across ports %s", len(asg.Pins), strings.Join(gpioPorts(asg), ", "))))

	guardOpen(&w, "PLIB_GPIO_H")
	fmt.Fprint(&w, "\n#include <stdbool.h>\n#include <stdint.h>\n#include \"device.h\"\n")
	externCOpen(&w)

	fmt.Fprint(&w, "\n// Pin definitions for configured GPIO pins\n")
	for _, pin := range asg.Pins {
		fmt.Fprintf(&w, "#define GPIO_PIN_%s     (1U << %d)\n", pin.Name, pin.Descriptor.Bit)
	}

	fmt.Fprint(&w, "\n// GPIO Port enumeration\n")
	fmt.Fprint(&w, "typedef enum {\n")
	for i, port := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		fmt.Fprintf(&w, "    GPIO_PORT_%s = %d,\n", port, i)
	}
	fmt.Fprint(&w, "} GPIO_PORT;\n")

	fmt.Fprint(&w, `
void GPIO_Initialize(void);

void GPIO_PortWrite(GPIO_PORT port, uint32_t mask, uint32_t value);
uint32_t GPIO_PortRead(GPIO_PORT port);
uint32_t GPIO_PortLatchRead(GPIO_PORT port);
void GPIO_PortSet(GPIO_PORT port, uint32_t mask);
void GPIO_PortClear(GPIO_PORT port, uint32_t mask);
void GPIO_PortToggle(GPIO_PORT port, uint32_t mask);
void GPIO_PortInputEnable(GPIO_PORT port, uint32_t mask);
void GPIO_PortOutputEnable(GPIO_PORT port, uint32_t mask);
`)

	externCClose(&w)
	guardClose(&w, "PLIB_GPIO_H")
	return w.String()
}

func gpioSource(asg gpio.Assignments) string {
	var w strings.Builder

	fmt.Fprint(&w, banner("GPIO Peripheral Library Source File", "plib_gpio.c",
		"GPIO peripheral library implementation.",
		fmt.Sprintf("%d pins configured across ports %s", len(asg.Pins), strings.Join(gpioPorts(asg), ", "))))

	fmt.Fprint(&w, "\n#include \"peripheral/gpio/plib_gpio.h\"\n")

	fmt.Fprint(&w, `
static volatile uint32_t* const PORT_REGS[] = {
    &PORTA, &PORTB, &PORTC, &PORTD, &PORTE, &PORTF, &PORTG
};

static volatile uint32_t* const LAT_REGS[] = {
    &LATA, &LATB, &LATC, &LATD, &LATE, &LATF, &LATG
};

static volatile uint32_t* const TRIS_REGS[] = {
    &TRISA, &TRISB, &TRISC, &TRISD, &TRISE, &TRISF, &TRISG
};
`)

	fmt.Fprint(&w, "\nvoid GPIO_Initialize(void)\n{\n")
	for i, pin := range asg.Pins {
		if i > 0 {
			fmt.Fprint(&w, "\n")
		}
		fmt.Fprintf(&w, "    /* %s: %s */\n", pin.Name, pinSummary(pin.Config))
		for _, op := range pin.Ops {
			fmt.Fprintf(&w, "    %s = (1U << %d);\n", op.Target(), pin.Descriptor.Bit)
		}
		if pin.Config.AltFunction != "" && pin.Config.AltFunction != "GPIO" {
			fmt.Fprintf(&w, "    /* Alternate function: %s (PPS routing configured separately) */\n", pin.Config.AltFunction)
		}
	}
	fmt.Fprint(&w, "}\n")

	fmt.Fprint(&w, `
void GPIO_PortWrite(GPIO_PORT port, uint32_t mask, uint32_t value)
{
    *LAT_REGS[port] = (*LAT_REGS[port] & (~mask)) | (mask & value);
}

uint32_t GPIO_PortRead(GPIO_PORT port)
{
    return *PORT_REGS[port];
}

uint32_t GPIO_PortLatchRead(GPIO_PORT port)
{
    return *LAT_REGS[port];
}

void GPIO_PortSet(GPIO_PORT port, uint32_t mask)
{
    *LAT_REGS[port] |= mask;
}

void GPIO_PortClear(GPIO_PORT port, uint32_t mask)
{
    *LAT_REGS[port] &= ~mask;
}

void GPIO_PortToggle(GPIO_PORT port, uint32_t mask)
{
    *LAT_REGS[port] ^= mask;
}

void GPIO_PortInputEnable(GPIO_PORT port, uint32_t mask)
{
    *TRIS_REGS[port] |= mask;
}

void GPIO_PortOutputEnable(GPIO_PORT port, uint32_t mask)
{
    *TRIS_REGS[port] &= ~mask;
}
`)

	return w.String()
}

func pinSummary(cfg gpio.PinConfig) string {
	parts := []string{string(cfg.Direction)}
	if cfg.Direction == gpio.Output {
		parts = append(parts, "initial "+cfg.InitialState)
	}
	if cfg.AnalogEnabled {
		parts = append(parts, "analog")
	}
	if cfg.PullUp && !cfg.PullDown {
		parts = append(parts, "pull-up")
	}
	if cfg.PullDown && !cfg.PullUp {
		parts = append(parts, "pull-down")
	}
	if cfg.OpenDrain {
		parts = append(parts, "open drain")
	}
	if cfg.InterruptEnabled || cfg.ChangeNotification {
		edge := cfg.InterruptEdge
		if edge == "" {
			edge = gpio.EdgeRising
		}
		parts = append(parts, fmt.Sprintf("%s edge notify", strings.ToLower(string(edge))))
	}
	return strings.Join(parts, ", ")
}
