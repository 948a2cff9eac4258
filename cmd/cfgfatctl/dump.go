package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ardnew/cfgfat12/configfat"
	"github.com/ardnew/cfgfat12/configfat/flash"
)

func newDumpCmd() *cobra.Command {
	var registryPath string

	cmd := &cobra.Command{
		Use:   "dump <image-path>",
		Short: "Print the rendered CONFIG.TXT contents of an existing image",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runDump(args[0], registryPath)
		},
	}

	cmd.Flags().StringVarP(&registryPath, "registry", "r", "", "registry description file used to build the image (for defaults and entry names)")
	_ = cmd.MarkFlagRequired("registry")

	return cmd
}

func runDump(imagePath, registryPath string) error {
	descs, err := loadRegistryFile(registryPath)
	if err != nil {
		return fmt.Errorf("loading registry file: %w", err)
	}
	reg, err := buildRegistry(descs)
	if err != nil {
		return fmt.Errorf("building registry: %w", err)
	}

	if _, err := os.Stat(imagePath); err != nil {
		return fmt.Errorf("opening %s: %w", imagePath, err)
	}

	fs := afero.NewOsFs()
	fl, err := flash.NewAferoRegion(fs, imagePath, configfat.ImageSize)
	if err != nil {
		return fmt.Errorf("opening %s: %w", imagePath, err)
	}

	clk := configfat.NewSystemClock()
	disk := configfat.New(fl, reg, clk)

	// Init runs the same normalize-or-synthesize path the engine runs at
	// boot: whatever was on disk before is parsed and rebuilt against the
	// registry we just loaded, so what we print below is exactly what a
	// device would mount CONFIG.TXT as.
	disk.Init()

	os.Stdout.Write(configfat.Render(reg))
	return nil
}
