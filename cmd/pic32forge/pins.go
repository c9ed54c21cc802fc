package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcuforge/pic32forge/pins"
)

var (
	pinsDevice string

	pinsCmd = &cobra.Command{
		Use:   "pins",
		Short: "List the pin database for a device",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pinsDevice == "" {
				fmt.Println("Supported devices:")
				for _, d := range pins.Devices() {
					fmt.Printf("  %s\n", d)
				}
				return nil
			}

			db, err := pins.ByDevice(pinsDevice)
			if err != nil {
				return err
			}

			fmt.Printf("%s: %d pins on ports %s\n\n", db.Device, db.Len(), strings.Join(db.Ports(), " "))
			fmt.Printf("%-6s %-4s %-6s %s\n", "PIN", "PKG", "ANALOG", "FUNCTIONS")
			for _, name := range db.Names() {
				d, _ := db.Lookup(name)
				analog := d.Analog
				if analog == "" {
					analog = "-"
				}
				fmt.Printf("%-6s %-4s %-6s %s\n", d.Name, d.PackagePin, analog, strings.Join(d.Functions, ", "))
			}
			return nil
		},
	}
)

func init() {
	pinsCmd.Flags().StringVarP(&pinsDevice, "device", "d", "", "device name, e.g. 32MZ1024EFH064")
}
