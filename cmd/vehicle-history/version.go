// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/vehicle-history/internal/parse"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of vehicle-history and its parsers",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vehicle-history %s\n", version)
		fmt.Printf("  %s\n  %s\n", parse.CarfaxParserVersion, parse.AutoCheckParserVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
