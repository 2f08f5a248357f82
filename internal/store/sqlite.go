package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dgallion1/tutorkb/internal/knowledge"
)

// SQLiteFile is the database file name inside the data directory.
const SQLiteFile = "knowledge.db"

// SQLiteStore is the embedded backend. AUTOINCREMENT keeps fragment IDs
// strictly increasing even after rows are removed out of band.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates dir/knowledge.db.
func OpenSQLite(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &knowledge.PersistenceError{Op: "create data dir", Err: err}
	}

	dbPath := filepath.Join(dir, SQLiteFile)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, &knowledge.PersistenceError{Op: "open database", Err: err}
	}

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, &knowledge.PersistenceError{Op: "create schema", Err: err}
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS materials (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			registered_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS fragments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			material_id TEXT NOT NULL,
			source_name TEXT NOT NULL,
			position INTEGER NOT NULL,
			raw_text TEXT NOT NULL,
			digest TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fragments_material_id ON fragments(material_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) AddMaterial(ctx context.Context, m knowledge.Material) (knowledge.Material, error) {
	m = prepareMaterial(m)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO materials (id, name, kind, registered_at) VALUES (?, ?, ?, ?)`,
		m.ID, m.Name, m.Kind, m.RegisteredAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return knowledge.Material{}, &knowledge.PersistenceError{Op: "insert material", Err: err}
	}
	return m, nil
}

func (s *SQLiteStore) AddFragments(ctx context.Context, frags []knowledge.Fragment) ([]knowledge.Fragment, error) {
	added, err := s.insertFragments(ctx, frags)
	if err != nil {
		return nil, &knowledge.PersistenceError{Op: "insert fragments", Err: err}
	}
	return added, nil
}

func (s *SQLiteStore) insertFragments(ctx context.Context, frags []knowledge.Fragment) ([]knowledge.Fragment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO fragments (material_id, source_name, position, raw_text, digest)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	added := make([]knowledge.Fragment, len(frags))
	for i, f := range frags {
		res, err := stmt.ExecContext(ctx, f.MaterialID, f.SourceName, f.Position, f.RawText, f.Digest)
		if err != nil {
			return nil, fmt.Errorf("inserting fragment %d: %w", f.Position, err)
		}
		if f.ID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("reading fragment id: %w", err)
		}
		added[i] = f
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return added, nil
}

func (s *SQLiteStore) Fragments(ctx context.Context) ([]knowledge.Fragment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, material_id, source_name, position, raw_text, digest FROM fragments ORDER BY id`)
	if err != nil {
		return nil, &knowledge.PersistenceError{Op: "query fragments", Err: err}
	}
	defer rows.Close()

	frags := []knowledge.Fragment{}
	for rows.Next() {
		var f knowledge.Fragment
		if err := rows.Scan(&f.ID, &f.MaterialID, &f.SourceName, &f.Position, &f.RawText, &f.Digest); err != nil {
			return nil, &knowledge.PersistenceError{Op: "scan fragment", Err: err}
		}
		frags = append(frags, f)
	}
	if err := rows.Err(); err != nil {
		return nil, &knowledge.PersistenceError{Op: "query fragments", Err: err}
	}
	return frags, nil
}

func (s *SQLiteStore) materials(ctx context.Context) ([]knowledge.Material, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, kind, registered_at FROM materials ORDER BY seq`)
	if err != nil {
		return nil, &knowledge.PersistenceError{Op: "query materials", Err: err}
	}
	defer rows.Close()

	materials := []knowledge.Material{}
	for rows.Next() {
		var (
			m  knowledge.Material
			at string
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Kind, &at); err != nil {
			return nil, &knowledge.PersistenceError{Op: "scan material", Err: err}
		}
		// A bad timestamp is left zero rather than hiding the material.
		m.RegisteredAt, _ = time.Parse(time.RFC3339Nano, at)
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &knowledge.PersistenceError{Op: "query materials", Err: err}
	}
	return materials, nil
}

func (s *SQLiteStore) ListAll(ctx context.Context) (knowledge.Snapshot, error) {
	materials, err := s.materials(ctx)
	if err != nil {
		return knowledge.Snapshot{}, err
	}
	frags, err := s.Fragments(ctx)
	if err != nil {
		return knowledge.Snapshot{}, err
	}
	return knowledge.Snapshot{Materials: materials, KnowledgeBase: frags}, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
