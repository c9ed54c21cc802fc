package emit

import (
	"fmt"
	"strings"

	"github.com/mcuforge/pic32forge/periph/uart"
)

// UART renders the per-module plib_uartN files plus the shared common header.
func UART(cfg uart.Config, d uart.Derived) []File {
	n := cfg.Module
	return []File{
		{Path: fmt.Sprintf("incs/peripheral/uart/plib_uart%d.h", n), Content: []byte(uartHeader(cfg))},
		{Path: "incs/peripheral/uart/plib_uart_common.h", Content: []byte(uartCommonHeader())},
		{Path: fmt.Sprintf("srcs/peripheral/uart/plib_uart%d.c", n), Content: []byte(uartSource(cfg, d))},
	}
}

func uartHeader(cfg uart.Config) string {
	var w strings.Builder
	n := cfg.Module
	guard := fmt.Sprintf("PLIB_UART%d_H", n)

	fmt.Fprint(&w, banner(
		fmt.Sprintf("UART%d Peripheral Library Interface Header File", n),
		fmt.Sprintf("plib_uart%d.h", n),
		fmt.Sprintf("UART%d peripheral library interface.", n),
		fmt.Sprintf("Baud Rate: %d", cfg.BaudRate),
		fmt.Sprintf("Data Bits: %d", cfg.DataBits),
		fmt.Sprintf("Parity: %s", cfg.Parity),
		fmt.Sprintf("Stop Bits: %d", cfg.StopBits)))

	guardOpen(&w, guard)
	fmt.Fprint(&w, "\n#include <stddef.h>\n#include <stdbool.h>\n#include <stdint.h>\n")
	fmt.Fprint(&w, "#include \"device.h\"\n#include \"plib_uart_common.h\"\n")
	externCOpen(&w)

	fmt.Fprintf(&w, "\n// UART%d API\n", n)
	fmt.Fprintf(&w, "void UART%d_Initialize(void);\n", n)
	fmt.Fprintf(&w, "bool UART%d_SerialSetup(UART_SERIAL_SETUP *setup, uint32_t srcClkFreq);\n", n)
	fmt.Fprintf(&w, "size_t UART%d_Read(uint8_t* buffer, const size_t size);\n", n)
	fmt.Fprintf(&w, "size_t UART%d_Write(uint8_t* buffer, const size_t size);\n", n)
	fmt.Fprintf(&w, "bool UART%d_WriteCallbackRegister(UART_CALLBACK callback, uintptr_t context);\n", n)
	fmt.Fprintf(&w, "bool UART%d_ReadCallbackRegister(UART_CALLBACK callback, uintptr_t context);\n", n)
	fmt.Fprintf(&w, "bool UART%d_TransmitComplete(void);\n", n)
	fmt.Fprintf(&w, "bool UART%d_ReceiverIsReady(void);\n", n)
	fmt.Fprintf(&w, "bool UART%d_TransmitBufferIsFull(void);\n", n)
	fmt.Fprintf(&w, "uint32_t UART%d_ErrorGet(void);\n", n)

	externCClose(&w)
	guardClose(&w, guard)
	return w.String()
}

func uartCommonHeader() string {
	var w strings.Builder
	guard := "PLIB_UART_COMMON_H"

	fmt.Fprint(&w, banner("UART Peripheral Library Common Header File", "plib_uart_common.h",
		"Types shared by all generated UART instances."))

	guardOpen(&w, guard)
	fmt.Fprint(&w, "\n#include <stdbool.h>\n#include <stdint.h>\n")
	externCOpen(&w)

	fmt.Fprint(&w, `
typedef void (*UART_CALLBACK)(uintptr_t context);

typedef struct
{
    uint32_t baudRate;
    uint32_t dataWidth;
    uint32_t parity;
    uint32_t stopBits;
} UART_SERIAL_SETUP;

typedef struct
{
    UART_CALLBACK txCallback;
    uintptr_t txContext;
    UART_CALLBACK rxCallback;
    uintptr_t rxContext;
    volatile bool rxBusyStatus;
    volatile bool txBusyStatus;
} UART_OBJECT;
`)

	externCClose(&w)
	guardClose(&w, guard)
	return w.String()
}

func uartSource(cfg uart.Config, d uart.Derived) string {
	var w strings.Builder
	n := cfg.Module

	fmt.Fprint(&w, banner(
		fmt.Sprintf("UART%d Peripheral Library Source File", n),
		fmt.Sprintf("plib_uart%d.c", n),
		fmt.Sprintf("UART%d peripheral library implementation.", n),
		fmt.Sprintf("Baud Rate: %d (actual %.1f)", cfg.BaudRate, d.ActualBaud),
		fmt.Sprintf("BRG Value: %d", d.BRG),
		fmt.Sprintf("Mode Register: 0x%04X", d.Mode)))

	fmt.Fprintf(&w, "\n#include \"peripheral/uart/plib_uart%d.h\"\n", n)

	fmt.Fprintf(&w, "\nstatic UART_OBJECT uart%dObj;\n", n)

	fmt.Fprintf(&w, "\nvoid UART%d_Initialize(void)\n{\n", n)
	fmt.Fprintf(&w, "    U%dMODE = 0x%04X;  /* ON, %d-bit data, %s parity, %d stop */\n",
		n, d.Mode, cfg.DataBits, strings.ToLower(string(cfg.Parity)), cfg.StopBits)
	fmt.Fprintf(&w, "    U%dSTA = 0x1400;   /* Enable TX and RX */\n", n)
	fmt.Fprintf(&w, "    U%dBRG = %d;      /* %d baud */\n", n, d.BRG, cfg.BaudRate)
	fmt.Fprintf(&w, "\n    uart%dObj.rxBusyStatus = false;\n", n)
	fmt.Fprintf(&w, "    uart%dObj.txBusyStatus = false;\n", n)
	if cfg.RxInterrupt || cfg.TxInterrupt || cfg.ErrorInterrupt {
		fmt.Fprint(&w, "\n    /* Configure interrupts */\n")
	}
	if cfg.RxInterrupt {
		fmt.Fprintf(&w, "    IFS0bits.U%dRXIF = 0;\n    IEC0bits.U%dRXIE = 1;\n", n, n)
	}
	if cfg.TxInterrupt {
		fmt.Fprintf(&w, "    IFS0bits.U%dTXIF = 0;\n    IEC0bits.U%dTXIE = 1;\n", n, n)
	}
	if cfg.ErrorInterrupt {
		fmt.Fprintf(&w, "    IFS0bits.U%dEIF = 0;\n    IEC0bits.U%dEIE = 1;\n", n, n)
	}
	fmt.Fprint(&w, "}\n")

	fmt.Fprintf(&w, `
bool UART%[1]d_SerialSetup(UART_SERIAL_SETUP *setup, uint32_t srcClkFreq)
{
    if (setup == NULL) return false;

    uint32_t brgValue = ((srcClkFreq / setup->baudRate) / 16) - 1;
    U%[1]dBRG = brgValue;

    return true;
}

size_t UART%[1]d_Read(uint8_t* buffer, const size_t size)
{
    size_t nBytesRead = 0;

    while (nBytesRead < size && U%[1]dSTAbits.URXDA)
    {
        buffer[nBytesRead++] = U%[1]dRXREG;
    }

    return nBytesRead;
}

size_t UART%[1]d_Write(uint8_t* buffer, const size_t size)
{
    size_t nBytesWritten = 0;

    while (nBytesWritten < size)
    {
        while (U%[1]dSTAbits.UTXBF);
        U%[1]dTXREG = buffer[nBytesWritten++];
    }

    return nBytesWritten;
}

bool UART%[1]d_WriteCallbackRegister(UART_CALLBACK callback, uintptr_t context)
{
    uart%[1]dObj.txCallback = callback;
    uart%[1]dObj.txContext = context;
    return true;
}

bool UART%[1]d_ReadCallbackRegister(UART_CALLBACK callback, uintptr_t context)
{
    uart%[1]dObj.rxCallback = callback;
    uart%[1]dObj.rxContext = context;
    return true;
}

bool UART%[1]d_TransmitComplete(void)
{
    return U%[1]dSTAbits.TRMT;
}

bool UART%[1]d_ReceiverIsReady(void)
{
    return U%[1]dSTAbits.URXDA;
}

bool UART%[1]d_TransmitBufferIsFull(void)
{
    return U%[1]dSTAbits.UTXBF;
}

uint32_t UART%[1]d_ErrorGet(void)
{
    return (U%[1]dSTA & (_U%[1]dSTA_OERR_MASK | _U%[1]dSTA_FERR_MASK | _U%[1]dSTA_PERR_MASK));
}
`, n)

	return w.String()
}
