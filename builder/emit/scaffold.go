package emit

import (
	"fmt"
	"strings"

	"github.com/mcuforge/pic32forge/clock"
	"github.com/mcuforge/pic32forge/project"
)

// Scaffold renders the project skeleton around the generated peripheral
// libraries: main.c, the two Makefiles, device.h, README and .gitignore, plus
// the startup assembly when MikroC support is on.
func Scaffold(cfg project.Config, tree clock.Tree) []File {
	files := []File{
		{Path: "srcs/main.c", Content: []byte(mainSource(cfg))},
		{Path: "Makefile", Content: []byte(rootMakefile(cfg))},
		{Path: "srcs/Makefile", Content: []byte(srcsMakefile(cfg))},
		{Path: "incs/device.h", Content: []byte(deviceHeader(cfg))},
		{Path: "README.md", Content: []byte(readme(cfg, tree))},
		{Path: ".gitignore", Content: []byte(gitignore())},
	}
	if cfg.MikroC {
		files = append(files, File{Path: "srcs/startup/startup.S", Content: []byte(startupSource())})
	}
	return files
}

func mainSource(cfg project.Config) string {
	var w strings.Builder

	var enabled []string
	if cfg.Peripherals.UART {
		enabled = append(enabled, fmt.Sprintf("- UART%d (Serial Communication)", cfg.UART.Module))
	}
	if cfg.Peripherals.Timer {
		enabled = append(enabled, fmt.Sprintf("- Timer%d (Periodic Interrupt)", cfg.Timer.Module))
	}
	if cfg.Peripherals.GPIO {
		enabled = append(enabled, "- GPIO (Pin Control)")
	}
	if cfg.Peripherals.Clock {
		enabled = append(enabled, "- Clock System")
	}

	detail := append([]string{
		fmt.Sprintf("Device: %s", cfg.Device),
		"Enabled Peripherals:",
	}, enabled...)
	fmt.Fprint(&w, banner("Main Source File - "+cfg.Name, "main.c",
		fmt.Sprintf("This file contains the \"main\" function for %s.", cfg.Name), detail...))

	fmt.Fprint(&w, "\n#include <stddef.h>\n#include <stdbool.h>\n#include <stdlib.h>\n#include <stdint.h>\n")
	fmt.Fprint(&w, "#include \"device.h\"\n")
	fmt.Fprint(&w, "#include \"peripheral/clk/plib_clk.h\"\n")
	if cfg.Peripherals.UART {
		fmt.Fprintf(&w, "#include \"peripheral/uart/plib_uart%d.h\"\n", cfg.UART.Module)
	}
	if cfg.Peripherals.Timer {
		fmt.Fprintf(&w, "#include \"peripheral/tmr%d/plib_tmr%d.h\"\n", cfg.Timer.Module, cfg.Timer.Module)
	}
	if cfg.Peripherals.GPIO {
		fmt.Fprint(&w, "#include \"peripheral/gpio/plib_gpio.h\"\n")
	}

	if cfg.Peripherals.Timer {
		fmt.Fprintf(&w, `
static void timer_callback(uint32_t status, uintptr_t context)
{
    (void)status;
    (void)context;
    /* Timer%d interrupt occurred */
}
`, cfg.Timer.Module)
	}

	fmt.Fprint(&w, "\nint main(void)\n{\n")
	fmt.Fprint(&w, "    /* Initialize all modules */\n")
	fmt.Fprint(&w, "    CLK_Initialize();\n")
	if cfg.Peripherals.GPIO {
		fmt.Fprint(&w, "    GPIO_Initialize();\n")
	}
	if cfg.Peripherals.UART {
		fmt.Fprintf(&w, "    UART%d_Initialize();\n", cfg.UART.Module)
	}
	if cfg.Peripherals.Timer {
		fmt.Fprintf(&w, "    TMR%d_Initialize();\n", cfg.Timer.Module)
		fmt.Fprintf(&w, "\n    TMR%d_CallbackRegister(timer_callback, 0);\n", cfg.Timer.Module)
		if !cfg.Timer.AutoStart {
			fmt.Fprintf(&w, "    TMR%d_Start();\n", cfg.Timer.Module)
		}
	}
	if cfg.Peripherals.UART {
		msg := fmt.Sprintf("\r\n%s started\r\n", cfg.Name)
		escaped := fmt.Sprintf("\\r\\n%s started\\r\\n", cfg.Name)
		fmt.Fprintf(&w, "\n    UART%d_Write((uint8_t*)\"%s\", %d);\n", cfg.UART.Module, escaped, len(msg))
	}
	fmt.Fprint(&w, "\n    while (true)\n    {\n")
	if cfg.Peripherals.UART {
		fmt.Fprint(&w, "        /* UART processing can be added here */\n")
	}
	fmt.Fprint(&w, "        /* Add your main application code here */\n    }\n")
	fmt.Fprint(&w, "\n    /* Execution should not come here during normal operation */\n")
	fmt.Fprint(&w, "    return (EXIT_FAILURE);\n}\n")

	return w.String()
}

func rootMakefile(cfg project.Config) string {
	var w strings.Builder
	fmt.Fprintf(&w, "# Name of the project binary\nMODULE := %s\n\n", cfg.Name)
	fmt.Fprintf(&w, "# Device configuration\nDEVICE := %s\n\n", cfg.Device)
	fmt.Fprint(&w, `# Cross-platform compiler and DFP paths
ifeq ($(OS),Windows_NT)
    COMPILER_LOCATION := C:/Program Files/Microchip/xc32/v4.60/bin
    DFP_LOCATION := C:/Program Files/Microchip/MPLABX/v6.25/packs
else
    COMPILER_LOCATION := /opt/microchip/xc32/v4.60/bin
    DFP_LOCATION := /opt/microchip/mplabx/v6.25/packs
endif
DFP := $(DFP_LOCATION)/Microchip/PIC32MZ-EF_DFP/1.4.168

BUILD=make
CLEAN=make clean
BUILD_DIR=make build_dir

all:
`)
	fmt.Fprintf(&w, "\t@echo \"######  BUILDING %s FOR %s  ########\"\n",
		strings.ToUpper(cfg.Name), strings.ToUpper(cfg.Device))
	fmt.Fprint(&w, `	cd srcs && $(BUILD) COMPILER_LOCATION="$(COMPILER_LOCATION)" DFP_LOCATION="$(DFP_LOCATION)" DFP="$(DFP)" DEVICE=$(DEVICE) MODULE=$(MODULE)
	@echo "###### BIN TO HEX ########"
	cd bins && "$(COMPILER_LOCATION)/xc32-bin2hex" $(MODULE)
	@echo "######  BUILD COMPLETE   ########"

build_dir:
	@echo "####### BUILDING DIRECTORIES FOR OUTPUT BINARIES #######"
	cd srcs && $(BUILD_DIR)

clean:
	@echo "####### CLEANING OUTPUTS #######"
	cd srcs && $(CLEAN)

.PHONY: all build_dir clean
`)
	return w.String()
}

func srcsMakefile(cfg project.Config) string {
	var w strings.Builder
	fmt.Fprintf(&w, "# Makefile for %s\n", cfg.Name)
	w.WriteString(`DFP_DIR := $(DFP)
DFP_INCLUDE := $(DFP)/include

# Source files (current directory and peripheral subdirectories)
SRCS := $(wildcard *.c) $(wildcard peripheral/*/*.c)
OBJS := $(SRCS:%.c=../objs/%.o)
`)
	if cfg.MikroC {
		w.WriteString(`
# Assembly files in startup directory
ASM_SRCS := $(wildcard startup/*.S)
ASM_OBJS := $(ASM_SRCS:%.S=../objs/%.o)
OBJS += $(ASM_OBJS)
`)
	}

	device := cfg.Device
	linkerScript := fmt.Sprintf("p%s%s.ld", strings.ToLower(device[:3]), device[3:])
	fmt.Fprintf(&w, `
# Compiler and flags
CC := "$(COMPILER_LOCATION)/xc32-gcc"
MCU := -mprocessor=$(DEVICE)
FLAGS := -Werror -Wall -MP -MMD -g -O1 -ffunction-sections -fdata-sections -fno-common

# Include directories
INCS := -I"../incs" -I"$(DFP_INCLUDE)" -I"../incs/peripheral"

# Linker script
LINKER_SCRIPT := "$(DFP)/xc32/$(DEVICE)/%s"

# Default target
../bins/$(MODULE): $(OBJS)
	@echo "Linking $(MODULE) for $(DEVICE)"
	$(CC) $(MCU) -nostartfiles -DXPRJ_default=default -mdfp="$(DFP)" -Wl,--script=$(LINKER_SCRIPT) -Wl,--defsym=__MPLAB_BUILD=1 -Wl,-Map="../other/$(MODULE).map" -o $@ $^

# Compile C source files
../objs/%%.o: %%.c
	@echo "Compiling $< to $@"
	@mkdir -p $(dir $@)
	$(CC) -x c -c $(MCU) $(FLAGS) $(INCS) -DXPRJ_default=default -mdfp="$(DFP)" -MF $(@:.o=.d) $< -o $@
`, linkerScript)

	if cfg.MikroC {
		w.WriteString(`
# Compile assembly files
../objs/%.o: %.S
	@echo "Compiling assembly $< to $@"
	@mkdir -p $(dir $@)
	$(CC) $(MCU) -c -DXPRJ_default=default -Wa,--defsym=__MPLAB_BUILD=1,--gdwarf-2 -mdfp="$(DFP)" -MMD -MF $(@:.o=.d) $< -o $@
`)
	}

	fmt.Fprint(&w, `
build_dir:
	@mkdir -p ../objs ../bins ../other ../objs/peripheral ../objs/startup

clean:
	@rm -rf ../objs/* ../bins/* ../other/*

.PHONY: build_dir clean
`)
	return w.String()
}

func deviceHeader(cfg project.Config) string {
	var w strings.Builder
	fmt.Fprint(&w, banner("Device Definitions Header File", "device.h",
		"Device-wide definitions.",
		fmt.Sprintf("Device: %s", cfg.Device)))
	guardOpen(&w, "DEVICE_H")
	fmt.Fprint(&w, "\n#include <xc.h>\n")
	fmt.Fprintf(&w, "\n#define DEVICE_NAME \"%s\"\n", cfg.Device)
	guardClose(&w, "DEVICE_H")
	return w.String()
}

func readme(cfg project.Config, tree clock.Tree) string {
	var w strings.Builder
	fmt.Fprintf(&w, "# %s\n\nPIC32MZ embedded project.\n\n", cfg.Name)
	fmt.Fprint(&w, "## Project Details\n")
	fmt.Fprintf(&w, "- **Device**: %s\n", cfg.Device)
	fmt.Fprint(&w, "- **Compiler**: XC32 v4.60+\n")
	fmt.Fprint(&w, "- **Build System**: GNU Make\n")
	fmt.Fprintf(&w, "- **MikroC Support**: %s\n", enabledWord(cfg.MikroC))
	fmt.Fprintf(&w, "- **System Clock**: %g MHz\n\n", tree.SystemFreqMHz)

	fmt.Fprint(&w, "## Enabled Peripherals\n")
	any := false
	if cfg.Peripherals.UART {
		fmt.Fprintf(&w, "- **UART%d**: Serial communication (%d baud)\n", cfg.UART.Module, cfg.UART.BaudRate)
		any = true
	}
	if cfg.Peripherals.Timer {
		fmt.Fprintf(&w, "- **Timer%d**: Periodic interrupts\n", cfg.Timer.Module)
		any = true
	}
	if cfg.Peripherals.GPIO {
		fmt.Fprint(&w, "- **GPIO**: Pin control\n")
		any = true
	}
	if cfg.Peripherals.Clock {
		fmt.Fprintf(&w, "- **Clock**: System clock configuration (%g MHz)\n", tree.SystemFreqMHz)
		any = true
	}
	if cfg.Peripherals.DMA {
		fmt.Fprint(&w, "- **DMA**: Direct memory access (vendor library)\n")
		any = true
	}
	if cfg.Peripherals.SPI {
		fmt.Fprint(&w, "- **SPI**: Serial peripheral interface (vendor library)\n")
		any = true
	}
	if cfg.Peripherals.I2C {
		fmt.Fprint(&w, "- **I2C**: Inter-integrated circuit (vendor library)\n")
		any = true
	}
	if !any {
		fmt.Fprint(&w, "- Basic project template (no peripherals enabled)\n")
	}

	fmt.Fprintf(&w, `
## Building the Project

### Prerequisites
- XC32 Compiler v4.60 or later
- MPLAB X IDE v6.25 or later (for the device family pack)
- GNU Make

### Build Commands
`+"```bash"+`
# Create build directories
make build_dir

# Build the project
make

# Clean build outputs
make clean
`+"```"+`

### Build Output
- **Binary**: `+"`bins/%[1]s`"+`
- **Hex File**: `+"`bins/%[1]s.hex`"+`
- **Map File**: `+"`other/%[1]s.map`"+`

## Customization
- Modify `+"`srcs/main.c`"+` for your application logic
- Peripheral settings live in `+"`project.yaml`"+`; regenerate to apply changes
`, cfg.Name)
	return w.String()
}

func gitignore() string {
	return `# Build outputs
objs/
bins/
other/
*.o
*.d
*.hex
*.elf
*.map

# IDE files
*.X/
.generated_files/
nbproject/
.vs/

# System files
.DS_Store
Thumbs.db
*~

# Temporary files
*.tmp
*.bak
*.swp
`
}

func startupSource() string {
	return banner("System Startup File", "startup.S",
		"System startup code for PIC32MZ microcontrollers.",
		"Contains the reset vector and the jump into main.") + `
#include <xc.h>

    .section .vector_0,code, keep
    .equ __vector_spacing_0, 0x00000001
    .align 4
    .set nomips16
    .set noreorder
    .ent __vector_0
__vector_0:
    j  _startup
    nop
    .end __vector_0
    .size __vector_0, .-__vector_0

    .section .startup,code, keep
    .align 4
    .set nomips16
    .set noreorder
    .ent _startup
_startup:
    /* Initialize stack pointer */
    la   $sp, _stack

    /* Initialize global pointer */
    la   $gp, _gp

    /* Jump to main */
    la   $t0, main
    jr   $t0
    nop
    .end _startup
    .size _startup, .-_startup
`
}
