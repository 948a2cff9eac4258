package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ardnew/cfgfat12/configfat"
	"github.com/ardnew/cfgfat12/configfat/flash"
)

func newBuildCmd() *cobra.Command {
	var registryPath string

	cmd := &cobra.Command{
		Use:   "build <image-path>",
		Short: "Format a fresh flash image from a registry description file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runBuild(args[0], registryPath)
		},
	}

	cmd.Flags().StringVarP(&registryPath, "registry", "r", "", "registry description file (name|default[|comment] per line)")
	_ = cmd.MarkFlagRequired("registry")

	return cmd
}

func runBuild(imagePath, registryPath string) error {
	descs, err := loadRegistryFile(registryPath)
	if err != nil {
		return fmt.Errorf("loading registry file: %w", err)
	}
	reg, err := buildRegistry(descs)
	if err != nil {
		return fmt.Errorf("building registry: %w", err)
	}

	fs := afero.NewOsFs()
	fl, err := flash.NewAferoRegion(fs, imagePath, configfat.ImageSize)
	if err != nil {
		return fmt.Errorf("opening %s: %w", imagePath, err)
	}

	clk := configfat.NewSystemClock()
	disk := configfat.New(fl, reg, clk)
	disk.Init()
	if err := disk.Sync(); err != nil {
		return fmt.Errorf("flushing %s: %w", imagePath, err)
	}

	fmt.Printf("wrote %d-byte image to %s with %d registry entries\n", configfat.ImageSize, imagePath, reg.Len())
	return nil
}
