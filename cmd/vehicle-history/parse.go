// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/vehicle-history/internal/ingest"
	"github.com/pdiddy/vehicle-history/internal/store"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]...",
	Short: "Parse raw history documents into structured source reports",
	Long: `Parse reads HTML documents from documents/raw/, detects the provider,
runs the matching parser and writes one YAML file per document to
documents/parsed/. Documents whose parsed output is newer than the raw file
are skipped unless --force is set. Parsed results are cached by content
hash in the report store so identical documents are parsed once.

With file arguments, the named documents are parsed and printed to stdout
without touching documents/parsed/.`,
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	in := ingest.New(s.ParseCache())

	if len(args) > 0 {
		return parseFiles(cmd, in, args)
	}

	summary, err := in.IngestAll(ctx, cfg.Ingest, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return eris.Errorf("%d document(s) failed to parse", summary.Failed)
	}
	return nil
}

func parseFiles(cmd *cobra.Command, in *ingest.Ingester, paths []string) error {
	opts := ingest.Options{ProviderHint: cfg.Ingest.ProviderHint, Force: cfg.Ingest.Force}
	failed := 0
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrapf(err, "reading %s", path)
		}
		doc, err := in.Ingest(cmd.Context(), content, opts)
		if err != nil {
			return err
		}
		doc.Path = path
		if !doc.Result.Success {
			failed++
		}

		data, err := yaml.Marshal(doc)
		if err != nil {
			return eris.Wrap(err, "marshaling parsed document")
		}
		fmt.Fprintf(os.Stdout, "---\n%s", data)
	}
	if failed > 0 {
		return eris.Errorf("%d document(s) failed to parse", failed)
	}
	return nil
}

func init() {
	f := parseCmd.Flags()
	f.Int("workers", 4, "number of documents parsed concurrently")
	f.String("provider", "", "skip detection and parse as this provider (carfax, autocheck)")
	f.Bool("force", false, "re-parse documents even when parsed output is up to date")

	_ = viper.BindPFlag("ingest.workers", f.Lookup("workers"))
	_ = viper.BindPFlag("ingest.provider_hint", f.Lookup("provider"))
	_ = viper.BindPFlag("ingest.force", f.Lookup("force"))

	rootCmd.AddCommand(parseCmd)
}
