// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"net/http"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/vehicle-history/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [url]...",
	Short: "Download history documents into documents/raw/",
	Long: `Fetch downloads report HTML from the given URLs (or from a file of
URLs, one per line, with --urls) into documents/raw/. Existing documents are
skipped. Requests to Carfax or AutoCheck hosts carry the API token found in
.secrets/carfax-api-token or .secrets/autocheck-api-token.`,
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	urls := args
	if list, _ := cmd.Flags().GetString("urls"); list != "" {
		more, err := readURLList(list)
		if err != nil {
			return err
		}
		urls = append(urls, more...)
	}
	if len(urls) == 0 {
		return eris.New("provide one or more URLs, or --urls <file>")
	}

	fc := cfg.Fetch
	fc.Tokens = fetch.Tokens(loadedSecrets)

	client := &http.Client{Timeout: fc.Timeout}
	result, err := fetch.FetchBatch(cmd.Context(), client, urls, fc, os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return eris.Errorf("%d document(s) failed to download", result.Failed)
	}
	return nil
}

// readURLList returns the non-blank, non-comment lines of path.
func readURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening URL list %s", path)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, eris.Wrapf(sc.Err(), "reading URL list %s", path)
}

func init() {
	f := fetchCmd.Flags()
	f.String("urls", "", "file with one URL per line")
	f.Duration("timeout", 0, "HTTP request timeout (default 30s)")
	f.Duration("delay", 0, "delay between consecutive downloads (default 1s)")

	_ = viper.BindPFlag("fetch.timeout", f.Lookup("timeout"))
	_ = viper.BindPFlag("fetch.download_delay", f.Lookup("delay"))

	rootCmd.AddCommand(fetchCmd)
}
