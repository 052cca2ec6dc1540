// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pdiddy/vehicle-history/internal/detect"
	"github.com/pdiddy/vehicle-history/pkg/types"
)

var detectCmd = &cobra.Command{
	Use:   "detect <file>...",
	Short: "Identify the provider and VIN of raw history documents",
	Long: `Detect reads each HTML document, reports which provider produced it
(with confidence and, for Carfax, the layout generation) and the VIN found
in its text. Documents no provider signature matches are reported as
undetected; the command fails if any file could not be read.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDetect,
}

// detectOutput is one line of detect output.
type detectOutput struct {
	Path      string          `json:"path"`
	Detection types.Detection `json:"detection"`
	VIN       string          `json:"vin,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func runDetect(cmd *cobra.Command, args []string) error {
	var (
		out      []detectOutput
		readErrs int
	)
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			readErrs++
			continue
		}
		doc := string(data)

		row := detectOutput{Path: path}
		d, err := detect.Detect(doc)
		if err != nil {
			row.Error = err.Error()
		}
		row.Detection = d
		if vin, ok := detect.ExtractVIN(doc); ok {
			row.VIN = vin
		}
		out = append(out, row)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		printDetections(out)
	}

	if readErrs > 0 {
		return eris.Errorf("%d file(s) could not be read", readErrs)
	}
	return nil
}

func printDetections(rows []detectOutput) {
	fmt.Fprintf(os.Stdout, "%-40s  %-10s  %-8s  %-5s  %s\n", "File", "Provider", "Layout", "Conf", "VIN")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, r := range rows {
		provider := string(r.Detection.Provider)
		if r.Error != "" {
			provider = "-"
		}
		path := r.Path
		if len(path) > 40 {
			path = "..." + path[len(path)-37:]
		}
		vin := r.VIN
		if vin == "" {
			vin = "-"
		}
		fmt.Fprintf(os.Stdout, "%-40s  %-10s  %-8s  %.2f   %s\n",
			path, provider, r.Detection.Subformat, r.Detection.Confidence, vin)
	}
}

func init() {
	detectCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(detectCmd)
}
