// Package catalog keeps a sqlite snapshot of the repository after every
// run so consecutive runs can be compared.
package catalog

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"fluentgen/internal/model"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Run describes one scan, register and derive pass.
type Run struct {
	ID             string
	Started        time.Time
	Duration       time.Duration
	Declarations   int
	Derived        int
	Failures       int
	Trigger        string
	CatalogVersion string
}

// Record is one stored declaration.
type Record struct {
	FQN         string
	Kind        string
	Role        string
	Origin      string
	Placeholder bool
	Digest      string
	Payload     []byte
}

// Decode unmarshals the stored payload into a generic JSON tree.
func (r Record) Decode() (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(r.Payload, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.FQN, err)
	}
	return out, nil
}

// Diff lists names added, removed and changed between two runs.
type Diff struct {
	Added   []string
	Removed []string
	Changed []string
}

func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("catalog path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("catalog path %q is a directory, expected file", cleanPath)
	}
	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create catalog directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite catalog %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite catalog %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}
	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// NewRecord snapshots def.
func NewRecord(def *model.TypeDef) (Record, error) {
	payload, err := model.Snapshot(def)
	if err != nil {
		return Record{}, fmt.Errorf("snapshot %s: %w", def.FullyQualifiedName(), err)
	}
	sum := sha256.Sum256(payload)
	return Record{
		FQN:         def.FullyQualifiedName(),
		Kind:        def.Kind.String(),
		Role:        def.Attributes.String(model.AttrRole),
		Origin:      def.Origin(),
		Placeholder: def.Placeholder,
		Digest:      hex.EncodeToString(sum[:]),
		Payload:     payload,
	}, nil
}

// SaveRun stores run and a snapshot of defs in one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run, defs []*model.TypeDef) error {
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run id must not be empty")
	}
	records := make([]Record, 0, len(defs))
	for _, def := range defs {
		rec, err := NewRecord(def)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	if run.Started.IsZero() {
		run.Started = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withRetry("save run", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (run_id, started_utc, duration_ms, declarations, derived, failures, cause, catalog_version)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.Started.UTC().Format(time.RFC3339Nano),
			run.Duration.Milliseconds(),
			run.Declarations,
			run.Derived,
			run.Failures,
			run.Trigger,
			run.CatalogVersion,
		); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO declarations (run_id, fqn, kind, role, origin, placeholder, digest, payload)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, rec := range records {
			if _, err := stmt.ExecContext(ctx, run.ID, rec.FQN, rec.Kind, rec.Role, rec.Origin, rec.Placeholder, rec.Digest, rec.Payload); err != nil {
				return fmt.Errorf("insert %s: %w", rec.FQN, err)
			}
		}
		return tx.Commit()
	})
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `
SELECT run_id, started_utc, duration_ms, declarations, derived, failures, cause, catalog_version
FROM runs ORDER BY started_utc DESC, run_id DESC LIMIT ?`, limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run     Run
			started string
			ms      int64
		)
		if err := rows.Scan(&run.ID, &started, &ms, &run.Declarations, &run.Derived, &run.Failures, &run.Trigger, &run.CatalogVersion); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", started, err)
		}
		run.Started = ts.UTC()
		run.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return out, nil
}

// Declarations returns the records of a run sorted by name.
func (s *Store) Declarations(ctx context.Context, runID string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load declarations", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `
SELECT fqn, kind, role, origin, placeholder, digest, payload
FROM declarations WHERE run_id = ? ORDER BY fqn ASC`, runID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.FQN, &rec.Kind, &rec.Role, &rec.Origin, &rec.Placeholder, &rec.Digest, &rec.Payload); err != nil {
			return nil, fmt.Errorf("scan declaration row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate declaration rows: %w", err)
	}
	return out, nil
}

// Compare diffs the declarations of two runs by digest.
func (s *Store) Compare(ctx context.Context, fromRun, toRun string) (Diff, error) {
	from, err := s.Declarations(ctx, fromRun)
	if err != nil {
		return Diff{}, err
	}
	to, err := s.Declarations(ctx, toRun)
	if err != nil {
		return Diff{}, err
	}
	return diff(from, to), nil
}

func diff(from, to []Record) Diff {
	before := make(map[string]string, len(from))
	for _, rec := range from {
		before[rec.FQN] = rec.Digest
	}
	var d Diff
	for _, rec := range to {
		prev, ok := before[rec.FQN]
		switch {
		case !ok:
			d.Added = append(d.Added, rec.FQN)
		case prev != rec.Digest:
			d.Changed = append(d.Changed, rec.FQN)
		}
		delete(before, rec.FQN)
	}
	for name := range before {
		d.Removed = append(d.Removed, name)
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Changed)
	return d
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
