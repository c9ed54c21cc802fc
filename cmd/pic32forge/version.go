package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridden at link time on release builds.
var version = "0.1.0-dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pic32forge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("pic32forge", version)
	},
}
