// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"
)

const exportLimit = 100000

// ExportYAML writes matching events to reports/index/export.yaml and
// returns the path. It supports the same filters as Retrieve.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	results, err := s.exportResults(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.reportsDir, indexDir, "export.yaml")
	data, err := yaml.Marshal(results)
	if err != nil {
		return "", eris.Wrap(err, "store: marshal YAML")
	}
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes matching events to reports/index/export.json and
// returns the path. It supports the same filters as Retrieve.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	results, err := s.exportResults(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.reportsDir, indexDir, "export.json")
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "store: marshal JSON")
	}
	return path, os.WriteFile(path, data, 0o644)
}

func (s *Store) exportResults(ctx context.Context, opts QueryOptions) ([]EventResult, error) {
	opts.MaxResults = exportLimit
	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, eris.Wrap(err, "store: query for export")
	}
	if results == nil {
		results = []EventResult{}
	}
	return results, nil
}
