package main

import (
	"fmt"

	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"

	"github.com/mcuforge/pic32forge/clock"
	"github.com/mcuforge/pic32forge/project"
	"github.com/mcuforge/pic32forge/report"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiDim    = "\x1b[2m"
)

var (
	clockConfigPath string

	clockCmd = &cobra.Command{
		Use:   "clock",
		Short: "Resolve and display the clock tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := project.Default()
			if clockConfigPath != "" {
				var err error
				cfg, err = project.Load(clockConfigPath)
				if err != nil {
					return err
				}
			}

			tree, err := clock.Resolve(cfg.Clock.Oscillator, cfg.Clock.PLL, cfg.Clock.Buses)
			if err != nil {
				return err
			}

			out := colorable.NewColorableStdout()
			osc := cfg.Clock.Oscillator
			fmt.Fprintf(out, "%s oscillator @ %g MHz\n", osc.Type, osc.InputFreqMHz)
			if tree.PLLEnabled {
				pll := cfg.Clock.PLL
				fmt.Fprintf(out, "  PLL /%d x%d -> VCO %s\n", pll.InputDivider, pll.Multiplier,
					freqColored(tree.VcoFreqMHz, tree.VcoFreqMHz < clock.VcoMinMHz || tree.VcoFreqMHz > clock.VcoMaxMHz))
				fmt.Fprintf(out, "  PLL /%d -> system %s\n", pll.OutputDivider,
					freqColored(tree.SystemFreqMHz, tree.SystemFreqMHz > clock.SystemMaxMHz))
			} else {
				fmt.Fprintf(out, "  direct -> system %s\n",
					freqColored(tree.SystemFreqMHz, tree.SystemFreqMHz > clock.SystemMaxMHz))
			}

			for i, bus := range cfg.Clock.Buses {
				role := clock.BusRole[i]
				if !bus.Enabled {
					fmt.Fprintf(out, "  PBCLK%d %s(disabled)%s  %s\n", i+1, ansiDim, ansiReset, role)
					continue
				}
				fmt.Fprintf(out, "  PBCLK%d %s (%s)  %s\n", i+1,
					freqColored(tree.BusFreqMHz[i], tree.BusFreqMHz[i] > clock.BusHighMHz),
					bus.DividerLabel(), role)
			}

			for _, w := range tree.Warnings {
				color := ansiYellow
				if w == report.SystemFrequencyExceeded || w == report.VcoOutOfRange {
					color = ansiRed
				}
				fmt.Fprintf(out, "%swarning:%s %s\n", color, ansiReset, w)
			}
			return nil
		},
	}
)

func freqColored(mhz float64, hot bool) string {
	color := ansiGreen
	if hot {
		color = ansiRed
	}
	return fmt.Sprintf("%s%g MHz%s", color, mhz, ansiReset)
}

func init() {
	clockCmd.Flags().StringVarP(&clockConfigPath, "config", "c", "", "project configuration YAML file")
}
