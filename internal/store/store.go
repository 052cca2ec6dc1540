// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists canonical reports in SQLite.
//
// Reports are append-only: every merge is stored as a new version for its
// VIN and earlier versions stay queryable. Each version's events are indexed
// with FTS5 for retrieval. The same database also backs the ingest parse
// cache.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/vehicle-history/pkg/types"
)

const (
	indexDir  = "index"
	mergedDir = "merged"
	dbFile    = "vehicle-history.db"
)

// ErrNotFound is returned when no report exists for a VIN.
var ErrNotFound = eris.New("store: report not found")

// Store manages the report database.
type Store struct {
	db         *sql.DB
	reportsDir string
	maxResults int
	now        func() time.Time
}

// StoredReport is one persisted version of a canonical report.
type StoredReport struct {
	ID        int64                  `json:"id" yaml:"id"`
	VIN       string                 `json:"vin" yaml:"vin"`
	Version   int                    `json:"version" yaml:"version"`
	CreatedAt time.Time              `json:"created_at" yaml:"created_at"`
	Report    *types.CanonicalReport `json:"report" yaml:"report"`
}

// NewStore opens or creates the database at reportsDir/index/vehicle-history.db
// and creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.ReportsDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "store: create index directory")
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, eris.Wrap(err, "store: open database")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		reportsDir: cfg.ReportsDir,
		maxResults: maxResults,
		now:        func() time.Time { return time.Now().UTC() },
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "store: create schema")
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			vin TEXT NOT NULL,
			version INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			source_ids TEXT,
			report TEXT NOT NULL,
			UNIQUE (vin, version)
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			report_id INTEGER NOT NULL REFERENCES reports(id),
			vin TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			type TEXT NOT NULL,
			date TEXT,
			state TEXT,
			severity TEXT,
			negative INTEGER NOT NULL DEFAULT 0,
			summary TEXT,
			details TEXT,
			event TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_report_id ON events(report_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_vin ON events(vin)`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(type)`,
		`CREATE TABLE IF NOT EXISTS parse_cache (
			hash TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			report TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return eris.Wrap(err, "executing schema statement")
		}
	}

	// Events are never updated or deleted, so only inserts feed the index.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='events_fts'`,
	).Scan(&ftsExists); err != nil {
		return eris.Wrap(err, "checking FTS table")
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE events_fts USING fts5(summary, details, content=events, content_rowid=rowid)`,
			`CREATE TRIGGER events_ai AFTER INSERT ON events BEGIN
				INSERT INTO events_fts(rowid, summary, details) VALUES (new.rowid, new.summary, new.details);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return eris.Wrap(err, "creating FTS infrastructure")
			}
		}
	}

	return nil
}

// SaveReport stores report as the next version for its VIN and writes it to
// reportsDir/merged/<VIN>.yaml. Existing versions are never modified.
func (s *Store) SaveReport(ctx context.Context, report *types.CanonicalReport) (*StoredReport, error) {
	if report == nil || report.VIN == "" {
		return nil, eris.New("store: report has no VIN")
	}
	vin := strings.ToUpper(report.VIN)

	body, err := json.Marshal(report)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal report")
	}
	sourceIDs, err := json.Marshal(report.SourceIDs)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal source ids")
	}
	createdAt := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "store: begin transaction")
	}
	defer tx.Rollback()

	var version int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM reports WHERE vin = ?`, vin,
	).Scan(&version); err != nil {
		return nil, eris.Wrap(err, "store: next version")
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO reports (vin, version, created_at, source_ids, report) VALUES (?, ?, ?, ?, ?)`,
		vin, version, createdAt.Format(time.RFC3339Nano), string(sourceIDs), string(body),
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: insert report")
	}
	reportID, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "store: report id")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (report_id, vin, fingerprint, type, date, state, severity, negative, summary, details, event)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, eris.Wrap(err, "store: prepare event insert")
	}
	defer stmt.Close()

	for _, ev := range report.Events {
		evJSON, err := json.Marshal(ev)
		if err != nil {
			return nil, eris.Wrapf(err, "store: marshal event %s", ev.Fingerprint)
		}
		if _, err := stmt.ExecContext(ctx,
			reportID, vin, ev.Fingerprint, string(ev.EventType), ev.Date, ev.State,
			string(ev.Severity), ev.IsNegative, ev.Summary, ev.Details, string(evJSON),
		); err != nil {
			return nil, eris.Wrapf(err, "store: insert event %s", ev.Fingerprint)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "store: commit")
	}

	stored := &StoredReport{ID: reportID, VIN: vin, Version: version, CreatedAt: createdAt, Report: report}
	if err := s.writeMerged(stored); err != nil {
		zap.L().Warn("merged report file not written", zap.String("vin", vin), zap.Error(err))
	}
	zap.L().Info("report stored",
		zap.String("vin", vin),
		zap.Int("version", version),
		zap.Int("events", len(report.Events)),
	)
	return stored, nil
}

// Latest returns the newest version stored for vin.
func (s *Store) Latest(ctx context.Context, vin string) (*StoredReport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, vin, version, created_at, report FROM reports
		 WHERE vin = ? ORDER BY version DESC LIMIT 1`, strings.ToUpper(vin))
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "store: no report for VIN %s", vin)
	}
	return r, err
}

// History returns every stored version for vin, oldest first.
func (s *Store) History(ctx context.Context, vin string) ([]StoredReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, vin, version, created_at, report FROM reports
		 WHERE vin = ? ORDER BY version`, strings.ToUpper(vin))
	if err != nil {
		return nil, eris.Wrap(err, "store: query history")
	}
	defer rows.Close()

	var out []StoredReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate history")
	}
	if len(out) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "store: no report for VIN %s", vin)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*StoredReport, error) {
	var (
		r         StoredReport
		createdAt string
		body      string
	)
	if err := row.Scan(&r.ID, &r.VIN, &r.Version, &createdAt, &body); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, eris.Wrap(err, "store: scan report")
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		r.CreatedAt = t
	}
	r.Report = &types.CanonicalReport{}
	if err := json.Unmarshal([]byte(body), r.Report); err != nil {
		return nil, eris.Wrapf(err, "store: decode report %d", r.ID)
	}
	return &r, nil
}

// writeMerged writes the stored report to reportsDir/merged/<VIN>.yaml.
func (s *Store) writeMerged(r *StoredReport) error {
	dir := filepath.Join(s.reportsDir, mergedDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "store: create merged directory")
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "store: marshal YAML")
	}
	return os.WriteFile(filepath.Join(dir, r.VIN+".yaml"), data, 0o644)
}
