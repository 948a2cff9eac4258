// Command cfgfatctl builds and inspects cfgfat12 flash images from the
// host side: format a fresh image from a registry description file,
// dump the rendered CONFIG.TXT, or watch a live dashboard of dirty-page
// and registry state while an engine instance is exercised.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "cfgfatctl",
		Short: "Build and inspect cfgfat12 virtual FAT12 config-disk images",
	}

	root.AddCommand(newBuildCmd())
	root.AddCommand(newDumpCmd())
	root.AddCommand(newDashboardCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
