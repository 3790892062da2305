package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rentscan/tagview/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print tagview version",
	RunE: func(_ *cobra.Command, _ []string) error {
		fmt.Println(version.String())
		return nil
	},
}
