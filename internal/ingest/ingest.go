// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest turns raw provider documents into parsed SourceReports on
// disk. It walks documents/raw/, parses changed documents in parallel and
// writes one documents/parsed/<stem>.yaml per document.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/vehicle-history/internal/parse"
	"github.com/pdiddy/vehicle-history/pkg/types"
)

const (
	rawDir    = "raw"
	parsedDir = "parsed"
)

// ContentHasher identifies raw document bytes for the parse cache.
type ContentHasher interface {
	Hash(content []byte) string
}

// SHA256Hasher is the default ContentHasher.
type SHA256Hasher struct{}

// Hash returns the hex SHA-256 of content.
func (SHA256Hasher) Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ParseCache stores successful parses by content hash so identical bytes
// are never parsed twice.
type ParseCache interface {
	Get(ctx context.Context, hash string) (*types.SourceReport, bool, error)
	Put(ctx context.Context, hash string, report *types.SourceReport) error
}

// BatchSummary holds counts from a batch ingestion run.
type BatchSummary struct {
	Parsed  int
	Cached  int
	Skipped int
	Failed  int
}

// Total returns the number of documents processed.
func (s BatchSummary) Total() int {
	return s.Parsed + s.Cached + s.Skipped + s.Failed
}

// HasFailures reports whether any document failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// Options control how a single document is parsed.
type Options struct {
	// ProviderHint skips detection when set to a known provider.
	ProviderHint types.Provider

	// Force bypasses the parse cache.
	Force bool
}

// Ingester parses documents with a hasher and an optional cache.
type Ingester struct {
	Hasher ContentHasher
	Cache  ParseCache
}

// New returns an Ingester with the default hasher. cache may be nil.
func New(cache ParseCache) *Ingester {
	return &Ingester{Hasher: SHA256Hasher{}, Cache: cache}
}

// IngestAll processes every .html document in cfg.DocumentsDir/raw/ and
// writes results to cfg.DocumentsDir/parsed/. Unchanged documents are
// skipped unless cfg.Force is set. Per-document failures are counted and
// logged; only setup errors and context cancellation abort the batch.
func (in *Ingester) IngestAll(ctx context.Context, cfg types.IngestConfig, w io.Writer) (BatchSummary, error) {
	srcDir := filepath.Join(cfg.DocumentsDir, rawDir)
	outDir := filepath.Join(cfg.DocumentsDir, parsedDir)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return BatchSummary{}, eris.Wrapf(err, "ingest: create output directory %s", outDir)
	}
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return BatchSummary{}, eris.Wrapf(err, "ingest: read raw directory %s", srcDir)
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		summary BatchSummary
	)
	report := func(update func(*BatchSummary), format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		update(&summary)
		fmt.Fprintf(w, format, args...)
	}

	opts := Options{ProviderHint: cfg.ProviderHint, Force: cfg.Force}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, entry := range entries {
		if entry.IsDir() || !isDocument(entry.Name()) {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		rawPath := filepath.Join(srcDir, entry.Name())
		outPath := filepath.Join(outDir, stem+".yaml")

		if !cfg.Force {
			changed, err := hasChanged(rawPath, outPath)
			if err != nil {
				report(func(s *BatchSummary) { s.Failed++ }, "failed  %s: %v\n", stem, err)
				continue
			}
			if !changed {
				report(func(s *BatchSummary) { s.Skipped++ }, "skipped %s\n", stem)
				continue
			}
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			log := zap.L().With(zap.String("document", stem))

			doc, err := in.IngestFile(gctx, rawPath, outPath, opts)
			if err != nil {
				log.Error("ingest failed", zap.Error(err))
				report(func(s *BatchSummary) { s.Failed++ }, "failed  %s: %v\n", stem, err)
				return nil
			}

			r := doc.Result.Report
			log.Info("ingested",
				zap.String("vin", r.Vehicle.VIN),
				zap.String("provider", string(r.Provider)),
				zap.Int("events", len(r.Events)),
				zap.Int("warnings", len(doc.Result.Warnings)),
				zap.Bool("cached", doc.Cached),
			)
			if doc.Cached {
				report(func(s *BatchSummary) { s.Cached++ }, "cached  %s (%s %s)\n", stem, r.Provider, r.Vehicle.VIN)
			} else {
				report(func(s *BatchSummary) { s.Parsed++ }, "parsed  %s (%s %s, %d events)\n", stem, r.Provider, r.Vehicle.VIN, len(r.Events))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, eris.Wrap(err, "ingest: batch")
	}
	return summary, nil
}

// IngestFile parses one raw document and writes its ParsedDocument to
// outPath. A parse failure is returned as an error and nothing is written,
// so the document is retried on the next run.
func (in *Ingester) IngestFile(ctx context.Context, rawPath, outPath string, opts Options) (*types.ParsedDocument, error) {
	content, err := os.ReadFile(rawPath)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", rawPath)
	}

	doc, err := in.Ingest(ctx, content, opts)
	if err != nil {
		return nil, err
	}
	doc.Path = rawPath
	doc.SourceID = sourceID(outPath, doc.ContentHash)

	if !doc.Result.Success {
		return nil, eris.Errorf("ingest: %s", strings.Join(doc.Result.Errors, "; "))
	}
	if err := writeParsed(outPath, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Ingest parses content, consulting the cache first unless opts.Force is
// set. A cached report is used only when its parser version is current and
// its provider agrees with any hint. The returned document has no Path or
// SourceID; IngestFile fills those.
func (in *Ingester) Ingest(ctx context.Context, content []byte, opts Options) (*types.ParsedDocument, error) {
	hash := in.Hasher.Hash(content)

	if in.Cache != nil && !opts.Force {
		cached, ok, err := in.Cache.Get(ctx, hash)
		if err != nil {
			return nil, eris.Wrap(err, "ingest: cache lookup")
		}
		if ok && usable(cached, opts.ProviderHint) {
			return &types.ParsedDocument{
				ContentHash: hash,
				Detection:   types.Detection{Provider: cached.Provider, Confidence: 1},
				Result: types.ParseResult{
					Success:  true,
					Report:   cached,
					Errors:   []string{},
					Warnings: []string{},
				},
				Cached: true,
			}, nil
		}
		if ok {
			zap.L().Debug("ignoring parse cache entry",
				zap.String("hash", hash),
				zap.String("provider", string(cached.Provider)),
				zap.String("parser_version", cached.ParserVersion),
			)
		}
	}

	result, detection := parse.ParseDocument(string(content), opts.ProviderHint)
	if result.Success && in.Cache != nil {
		if err := in.Cache.Put(ctx, hash, result.Report); err != nil {
			zap.L().Warn("parse cache write failed", zap.String("hash", hash), zap.Error(err))
		}
	}
	return &types.ParsedDocument{
		ContentHash: hash,
		Detection:   detection,
		Result:      result,
	}, nil
}

// usable reports whether a cached report can stand in for a fresh parse.
func usable(cached *types.SourceReport, hint types.Provider) bool {
	if cached == nil || cached.ParserVersion != parse.CurrentVersion(cached.Provider) {
		return false
	}
	return !hint.Valid() || hint == cached.Provider
}

func isDocument(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".html" || ext == ".htm"
}

// sourceID reuses the id recorded in an earlier parse of the same content,
// so re-ingesting an unchanged document keeps its provenance id.
func sourceID(outPath, hash string) string {
	if prev, err := ReadParsed(outPath); err == nil && prev.ContentHash == hash && prev.SourceID != "" {
		return prev.SourceID
	}
	return uuid.NewString()
}

// hasChanged reports whether the raw document is newer than its parsed
// output. Returns true if the output does not exist.
func hasChanged(rawPath, outPath string) (bool, error) {
	rawInfo, err := os.Stat(rawPath)
	if err != nil {
		return false, eris.Wrapf(err, "stat raw %s", rawPath)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, eris.Wrapf(err, "stat output %s", outPath)
	}

	return rawInfo.ModTime().After(outInfo.ModTime()), nil
}

// writeParsed marshals doc to a YAML file via a temp file and rename.
func writeParsed(path string, doc *types.ParsedDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return eris.Wrap(err, "ingest: marshal parsed document")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".parsed-*.tmp")
	if err != nil {
		return eris.Wrap(err, "ingest: create temp file")
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return eris.Wrap(err, "ingest: write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return eris.Wrap(err, "ingest: close temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return eris.Wrapf(err, "ingest: rename to %s", path)
	}
	return nil
}
