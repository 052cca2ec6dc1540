// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/vehicle-history/internal/ingest"
	"github.com/pdiddy/vehicle-history/internal/merge"
	"github.com/pdiddy/vehicle-history/internal/store"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [VIN]...",
	Short: "Merge parsed documents into canonical reports",
	Long: `Merge loads every successfully parsed document for each VIN from
documents/parsed/, deduplicates events across providers and stores the
resulting canonical report as a new version in the report store.

Pass one or more VINs, or --all to merge every VIN with parsed documents.
With --dry-run the canonical reports are printed as YAML instead of stored.`,
	RunE: runMerge,
}

func runMerge(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if len(args) == 0 && !all {
		return eris.New("provide at least one VIN or use --all")
	}

	groups, err := ingest.GroupByVIN(cfg.Ingest.DocumentsDir)
	if err != nil {
		return err
	}

	vins := args
	if all {
		vins = make([]string, 0, len(groups))
		for vin := range groups {
			vins = append(vins, vin)
		}
		sort.Strings(vins)
	}

	var s *store.Store
	if !dryRun {
		s, err = store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()
	}

	failed := 0
	for _, vin := range vins {
		sources, err := sourcesFor(groups, vin)
		if err != nil {
			zap.L().Error("no sources", zap.String("vin", vin), zap.Error(err))
			failed++
			continue
		}
		report, err := merge.MergeReports(sources)
		if err != nil {
			zap.L().Error("merge failed", zap.String("vin", vin), zap.Error(err))
			failed++
			continue
		}

		if dryRun {
			data, err := yaml.Marshal(report)
			if err != nil {
				return eris.Wrap(err, "marshaling canonical report")
			}
			fmt.Fprintf(os.Stdout, "---\n%s", data)
			continue
		}

		stored, err := s.SaveReport(cmd.Context(), report)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s: version %d (%d events from %d sources)\n",
			stored.VIN, stored.Version, len(report.Events), len(sources))
	}

	if failed > 0 {
		return eris.Errorf("%d VIN(s) could not be merged", failed)
	}
	return nil
}

// sourcesFor picks the merge sources for vin out of the loaded groups.
func sourcesFor(groups map[string][]merge.Source, vin string) ([]merge.Source, error) {
	sources := groups[strings.ToUpper(strings.TrimSpace(vin))]
	if len(sources) == 0 {
		return nil, eris.Wrapf(merge.ErrNoSources, "no parsed documents for VIN %s", vin)
	}
	return sources, nil
}

func init() {
	mergeCmd.Flags().Bool("all", false, "merge every VIN found in documents/parsed/")
	mergeCmd.Flags().Bool("dry-run", false, "print canonical reports instead of storing them")
	rootCmd.AddCommand(mergeCmd)
}
