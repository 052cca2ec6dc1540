// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/vehicle-history/internal/store"
	"github.com/pdiddy/vehicle-history/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Query the report store (show, history, retrieve, store, export)",
	Long: `Report manages the append-only SQLite store of canonical reports.
Every merge adds a new version per VIN; earlier versions are never changed.
Use subcommands to read reports, search their events, or export them.`,
}

// --- show subcommand ---

var reportShowCmd = &cobra.Command{
	Use:   "show <VIN>",
	Short: "Print a stored canonical report",
	Long: `Show prints the latest canonical report for a VIN as YAML, or the
version selected with --version.`,
	Args: cobra.ExactArgs(1),
	RunE: runReportShow,
}

func runReportShow(cmd *cobra.Command, args []string) error {
	version, _ := cmd.Flags().GetInt("version")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	var found *store.StoredReport
	if version <= 0 {
		found, err = s.Latest(cmd.Context(), args[0])
		if err != nil {
			return err
		}
	} else {
		history, err := s.History(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for i := range history {
			if history[i].Version == version {
				found = &history[i]
				break
			}
		}
		if found == nil {
			return eris.Wrapf(store.ErrNotFound, "version %d of %s", version, args[0])
		}
	}

	return printValue(found, jsonOutput)
}

// --- history subcommand ---

var reportHistoryCmd = &cobra.Command{
	Use:   "history <VIN>",
	Short: "List stored report versions for a VIN",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportHistory,
}

func runReportHistory(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	history, err := s.History(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%-7s  %-20s  %-6s  %-8s  %s\n", "Version", "Created", "Events", "Owners", "Providers")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 70))
	for _, r := range history {
		providers := make([]string, len(r.Report.SourceProviders))
		for i, p := range r.Report.SourceProviders {
			providers[i] = string(p)
		}
		fmt.Fprintf(os.Stdout, "%-7d  %-20s  %-6d  %-8d  %s\n",
			r.Version, r.CreatedAt.Format("2006-01-02 15:04:05"), len(r.Report.Events),
			r.Report.Summary.EstimatedOwners, strings.Join(providers, ","))
	}
	return nil
}

// --- retrieve subcommand ---

var reportRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Search stored events with full-text search and filters",
	Long: `Retrieve searches events of stored canonical reports using FTS5
full-text search over summaries and details, structured filters (VIN, type,
negative), or a combination of both. Only the latest version of each VIN is
searched unless --all-versions is set.`,
	RunE: runReportRetrieve,
}

func runReportRetrieve(cmd *cobra.Command, args []string) error {
	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return eris.New("query or filter required: provide a search query, --vin, --type, or --negative")
	}

	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []store.EventResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-17s  %-10s  %-14s  %-8s  %s\n",
		"Rank", "VIN", "Date", "Type", "Severity", "Summary")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for i, r := range results {
		summary := r.Summary
		if len(summary) > 50 {
			summary = summary[:47] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-17s  %-10s  %-14s  %-8s  %s\n",
			i+1, r.VIN, r.Date, r.EventType, r.Severity, summary)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- store subcommand ---

var reportStoreCmd = &cobra.Command{
	Use:   "store <report.yaml>...",
	Short: "Store canonical report files as new versions",
	Long: `Store reads canonical reports from YAML files (for example the output
of merge --dry-run) and appends each as a new version for its VIN.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReportStore,
}

func runReportStore(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrapf(err, "reading %s", path)
		}
		var report types.CanonicalReport
		if err := yaml.Unmarshal(data, &report); err != nil {
			return eris.Wrapf(err, "parsing %s", path)
		}
		stored, err := s.SaveReport(cmd.Context(), &report)
		if err != nil {
			return eris.Wrapf(err, "storing %s", path)
		}
		fmt.Fprintf(os.Stdout, "%s: version %d\n", stored.VIN, stored.Version)
	}
	return nil
}

// --- export subcommand ---

var reportExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored events to YAML or JSON",
	Long: `Export writes stored events (or a filtered subset) to
reports/index/export.yaml or export.json. Supports the same filter flags as
retrieve for partial exports.`,
	RunE: runReportExport,
}

func runReportExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	opts := queryOptsFromFlags(cmd, args)

	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	var path string
	switch format {
	case "yaml":
		path, err = s.ExportYAML(cmd.Context(), opts)
	case "json":
		path, err = s.ExportJSON(cmd.Context(), opts)
	default:
		return eris.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Exported to %s\n", path)
	return nil
}

// queryOptsFromFlags builds QueryOptions from the shared filter flags.
func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	vin, _ := cmd.Flags().GetString("vin")
	eventType, _ := cmd.Flags().GetString("type")
	negative, _ := cmd.Flags().GetBool("negative")
	allVersions, _ := cmd.Flags().GetBool("all-versions")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Query:        strings.Join(args, " "),
		VIN:          vin,
		Type:         types.EventType(strings.ToUpper(eventType)),
		NegativeOnly: negative,
		AllVersions:  allVersions,
		MaxResults:   limit,
	}
}

func printValue(v any, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "marshaling YAML")
	}
	_, err = os.Stdout.Write(data)
	return err
}

func addFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("vin", "", "restrict to one VIN")
	f.String("type", "", "filter by event type (e.g. ACCIDENT, TITLE, SERVICE)")
	f.Bool("negative", false, "only negative events")
	f.Bool("all-versions", false, "search every stored version, not only the latest")
}

func init() {
	reportShowCmd.Flags().Int("version", 0, "report version to show (default: latest)")
	reportShowCmd.Flags().Bool("json", false, "output as JSON")

	addFilterFlags(reportRetrieveCmd)
	reportRetrieveCmd.Flags().Int("limit", 0, "maximum results (default: store.max_results)")
	reportRetrieveCmd.Flags().Bool("json", false, "output as JSON")

	addFilterFlags(reportExportCmd)
	reportExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	reportCmd.AddCommand(reportShowCmd, reportHistoryCmd, reportRetrieveCmd, reportStoreCmd, reportExportCmd)
	rootCmd.AddCommand(reportCmd)
}
