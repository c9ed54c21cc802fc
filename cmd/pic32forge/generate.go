package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"

	"github.com/mcuforge/pic32forge/builder"
	"github.com/mcuforge/pic32forge/project"
)

var (
	generateOpts = struct {
		config   string
		output   string
		force    bool
		noVendor bool
		plibDir  string
		quiet    bool
	}{}

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate a firmware project",
		Long: "Generate a firmware project from a YAML configuration snapshot. Without\n" +
			"--config the stock configuration is used (80 MHz, UART2, TMR1).",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := project.Default()
			if generateOpts.config != "" {
				var err error
				cfg, err = project.Load(generateOpts.config)
				if err != nil {
					return err
				}
			}

			out := colorable.NewColorableStdout()
			opts := builder.Options{
				OutputDir:        generateOpts.output,
				Force:            generateOpts.force,
				SkipVendorSearch: generateOpts.noVendor,
				VendorPlibDir:    generateOpts.plibDir,
			}
			if !generateOpts.quiet {
				opts.Log = func(format string, args ...any) {
					fmt.Fprintf(out, format+"\n", args...)
				}
			}

			result, err := builder.Build(cfg, opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\nProject %s generated at %s\n", cfg.Name, result.ProjectDir)
			fmt.Fprintf(out, "  System clock: %g MHz\n", result.Tree.SystemFreqMHz)
			if result.UART != nil {
				fmt.Fprintf(out, "  UART%d: BRG=%d (actual %.1f baud)\n",
					cfg.UART.Module, result.UART.BRG, result.UART.ActualBaud)
			}
			if result.Timer != nil {
				fmt.Fprintf(out, "  TMR%d: PR=%d (achieved %.3f Hz)\n",
					cfg.Timer.Module, result.Timer.Period, result.Timer.AchievedFrequencyHz)
			}
			fmt.Fprintf(out, "  %d files, %s\n", len(result.Files), result.TotalSize)

			for _, w := range result.Warnings() {
				fmt.Fprintf(out, "%swarning:%s %s\n", ansiYellow, ansiReset, w)
			}
			for _, c := range result.Conflicts {
				fmt.Fprintf(out, "%sconflict:%s pin %s: %s\n", ansiRed, ansiReset, c.Pin, c.Reason)
			}
			if !result.Conflicts.Empty() {
				os.Exit(2)
			}
			return nil
		},
	}
)

func init() {
	generateCmd.Flags().StringVarP(&generateOpts.config, "config", "c", "", "project configuration YAML file")
	generateCmd.Flags().StringVarP(&generateOpts.output, "output", "o", ".", "directory to create the project under")
	generateCmd.Flags().BoolVarP(&generateOpts.force, "force", "f", false, "overwrite an existing project directory")
	generateCmd.Flags().BoolVar(&generateOpts.noVendor, "no-vendor", false, "skip the vendor peripheral library search")
	generateCmd.Flags().StringVar(&generateOpts.plibDir, "plib-dir", "", "vendor peripheral library location")
	generateCmd.Flags().BoolVarP(&generateOpts.quiet, "quiet", "q", false, "suppress progress output")
}
