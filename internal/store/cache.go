// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/vehicle-history/pkg/types"
)

// ParseCache keeps parsed SourceReports by raw content hash in the parse_cache
// table. It satisfies ingest.ParseCache.
type ParseCache struct {
	s *Store
}

// ParseCache returns the cache view of the store.
func (s *Store) ParseCache() *ParseCache {
	return &ParseCache{s: s}
}

// Get returns the report cached for hash.
func (c *ParseCache) Get(ctx context.Context, hash string) (*types.SourceReport, bool, error) {
	var body string
	err := c.s.db.QueryRowContext(ctx,
		`SELECT report FROM parse_cache WHERE hash = ?`, hash,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "store: read parse cache")
	}

	var r types.SourceReport
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, false, eris.Wrapf(err, "store: decode cached report %s", hash)
	}
	return &r, true, nil
}

// Put records report under hash, replacing any earlier entry.
func (c *ParseCache) Put(ctx context.Context, hash string, report *types.SourceReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "store: marshal cached report")
	}
	_, err = c.s.db.ExecContext(ctx,
		`INSERT INTO parse_cache (hash, provider, report, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(hash) DO UPDATE SET provider=excluded.provider, report=excluded.report, created_at=excluded.created_at`,
		hash, string(report.Provider), string(body), c.s.now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return eris.Wrap(err, "store: write parse cache")
	}
	return nil
}
