// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/vehicle-history/internal/merge"
	"github.com/pdiddy/vehicle-history/pkg/types"
)

// ReadParsed loads one ParsedDocument YAML file.
func ReadParsed(path string) (*types.ParsedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	var doc types.ParsedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(err, "ingest: decode %s", path)
	}
	return &doc, nil
}

// GroupByVIN reads every successful ParsedDocument under
// documentsDir/parsed/ and groups them into merge sources by VIN. Within a
// VIN, sources are ordered by file name.
func GroupByVIN(documentsDir string) (map[string][]merge.Source, error) {
	dir := filepath.Join(documentsDir, parsedDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read parsed directory %s", dir)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	groups := make(map[string][]merge.Source)
	for _, name := range names {
		doc, err := ReadParsed(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if !doc.Result.Success || doc.Result.Report == nil {
			continue
		}
		vin := strings.ToUpper(doc.Result.Report.Vehicle.VIN)
		groups[vin] = append(groups[vin], merge.Source{
			Report:   doc.Result.Report,
			SourceID: doc.SourceID,
		})
	}
	return groups, nil
}

// LoadParsed returns the merge sources recorded for one VIN.
func LoadParsed(documentsDir, vin string) ([]merge.Source, error) {
	groups, err := GroupByVIN(documentsDir)
	if err != nil {
		return nil, err
	}
	sources := groups[strings.ToUpper(strings.TrimSpace(vin))]
	if len(sources) == 0 {
		return nil, eris.Wrapf(merge.ErrNoSources, "ingest: no parsed documents for VIN %s", vin)
	}
	return sources, nil
}
