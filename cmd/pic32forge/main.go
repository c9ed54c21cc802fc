package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pic32forge",
	Short: "PIC32MZ firmware project generator",
	Long: "pic32forge derives register-level peripheral configuration from a project\n" +
		"description and generates a ready-to-build XC32 firmware project.",
}

func main() {
	rootCmd.AddCommand(generateCmd, clockCmd, pinsCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
