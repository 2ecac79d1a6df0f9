package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nodeadmin/hpo-parser/enricher"
	"github.com/nodeadmin/hpo-parser/sink/migrations"
)

// SQLiteSink stores one row per term plus its ancestor closure and
// annotations. All writes of a run share a single transaction.
type SQLiteSink struct {
	db      *sql.DB
	tx      *sql.Tx
	runID   string
	started time.Time
	count   int
	done    bool

	upsertTerm *sql.Stmt
	clearAnc   *sql.Stmt
	insertAnc  *sql.Stmt
	clearAnn   *sql.Stmt
	insertAnn  *sql.Stmt
}

// OpenSQLite opens or creates the database file at path and starts a run.
func OpenSQLite(path string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteSink{
		db:      db,
		runID:   uuid.NewString(),
		started: time.Now().UTC(),
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := s.begin(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// RunID identifies this export in the runs table.
func (s *SQLiteSink) RunID() string { return s.runID }

func (s *SQLiteSink) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

func (s *SQLiteSink) begin() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	s.tx = tx

	stmts := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.upsertTerm, `
			INSERT INTO terms (id, hp, name, run_id, document)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				hp = excluded.hp,
				name = excluded.name,
				run_id = excluded.run_id,
				document = excluded.document
		`},
		{&s.clearAnc, "DELETE FROM term_ancestors WHERE id = ?"},
		{&s.insertAnc, "INSERT OR IGNORE INTO term_ancestors (id, ancestor) VALUES (?, ?)"},
		{&s.clearAnn, "DELETE FROM term_annotations WHERE id = ?"},
		{&s.insertAnn, `
			INSERT INTO term_annotations (id, gene_id, gene_symbol, disease_id, source, source_info)
			VALUES (?, ?, ?, ?, ?, ?)
		`},
	}
	for _, st := range stmts {
		if *st.dst, err = tx.Prepare(st.query); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("preparing statement: %w", err)
		}
	}
	return nil
}

// Write upserts rec and replaces its ancestor and annotation rows.
func (s *SQLiteSink) Write(ctx context.Context, rec *enricher.Record) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", rec.ID, err)
	}

	name, _ := rec.Attributes["name"].(string)
	if _, err := s.upsertTerm.ExecContext(ctx, rec.ID, rec.HP, nullString(name), s.runID, string(doc)); err != nil {
		return fmt.Errorf("saving term %s: %w", rec.ID, err)
	}

	if _, err := s.clearAnc.ExecContext(ctx, rec.ID); err != nil {
		return fmt.Errorf("clearing ancestors of %s: %w", rec.ID, err)
	}
	for _, anc := range rec.Ancestors {
		if _, err := s.insertAnc.ExecContext(ctx, rec.ID, anc); err != nil {
			return fmt.Errorf("saving ancestor of %s: %w", rec.ID, err)
		}
	}

	if _, err := s.clearAnn.ExecContext(ctx, rec.ID); err != nil {
		return fmt.Errorf("clearing annotations of %s: %w", rec.ID, err)
	}
	for _, a := range rec.Annotations {
		_, err := s.insertAnn.ExecContext(ctx, rec.ID, a.Gene.ID, a.Gene.Symbol, a.DiseaseID, a.Source, nullString(a.SourceInfo))
		if err != nil {
			return fmt.Errorf("saving annotation of %s: %w", rec.ID, err)
		}
	}

	s.count++
	return nil
}

// Commit records the run and commits the transaction.
func (s *SQLiteSink) Commit() error {
	_, err := s.tx.Exec(`
		INSERT INTO runs (run_id, started_at, finished_at, term_count)
		VALUES (?, ?, ?, ?)
	`, s.runID, s.started, time.Now().UTC(), s.count)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	s.done = true
	return nil
}

// Close rolls back an uncommitted run and closes the database.
func (s *SQLiteSink) Close() error {
	if !s.done {
		_ = s.tx.Rollback()
	}
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
