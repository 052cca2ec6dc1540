// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/vehicle-history/pkg/types"
)

// QueryOptions holds parameters for event queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over summaries and details.
	Query string

	// VIN restricts results to one vehicle.
	VIN string

	// Type filters by EventType.
	Type types.EventType

	// NegativeOnly keeps only negative events.
	NegativeOnly bool

	// AllVersions searches every stored version instead of only the latest
	// version of each VIN.
	AllVersions bool

	// MaxResults limits result count. Zero uses store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.VIN == "" && q.Type == "" && !q.NegativeOnly
}

// EventResult is a stored event with the report version it belongs to.
type EventResult struct {
	types.NormalizedEvent `yaml:",inline"`

	VIN      string `json:"vin" yaml:"vin"`
	ReportID int64  `json:"report_id" yaml:"report_id"`
	Version  int    `json:"version" yaml:"version"`
}

// Retrieve queries stored events with optional full-text search and
// structured filters. Full-text results are ranked by relevance; others are
// ordered by VIN and date.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]EventResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT e.event, e.vin, r.id, r.version
			FROM events_fts
			JOIN events e ON e.rowid = events_fts.rowid
			JOIN reports r ON r.id = e.report_id
			WHERE events_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT e.event, e.vin, r.id, r.version
			FROM events e
			JOIN reports r ON r.id = e.report_id
			WHERE 1=1`)
	}

	if !opts.AllVersions {
		qb.WriteString(` AND r.version = (SELECT MAX(version) FROM reports WHERE vin = r.vin)`)
	}
	if opts.VIN != "" {
		qb.WriteString(` AND e.vin = ?`)
		args = append(args, strings.ToUpper(opts.VIN))
	}
	if opts.Type != "" {
		qb.WriteString(` AND e.type = ?`)
		args = append(args, string(opts.Type))
	}
	if opts.NegativeOnly {
		qb.WriteString(` AND e.negative = 1`)
	}

	if useFTS {
		qb.WriteString(` ORDER BY events_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY e.vin, r.version, e.date, e.rowid`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: query events")
	}
	defer rows.Close()

	var results []EventResult
	for rows.Next() {
		var (
			er     EventResult
			evJSON string
		)
		if err := rows.Scan(&evJSON, &er.VIN, &er.ReportID, &er.Version); err != nil {
			return nil, eris.Wrap(err, "store: scan event")
		}
		if err := json.Unmarshal([]byte(evJSON), &er.NormalizedEvent); err != nil {
			return nil, eris.Wrap(err, "store: decode event")
		}
		results = append(results, er)
	}

	return results, rows.Err()
}
