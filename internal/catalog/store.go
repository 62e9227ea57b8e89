// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog keeps a SQLite record of every guideline this tool has
// downloaded. The catalog is informational: duplicate prevention is done
// by checking the filesystem, never this database.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/gpc-harvester/pkg/types"
)

const dbFile = "catalog.db"

// Entry is one downloaded guideline as recorded in the catalog.
type Entry struct {
	LocalName    string    `json:"local_name" yaml:"local_name"`
	GuideID      string    `json:"guide_id,omitempty" yaml:"guide_id,omitempty"`
	Title        string    `json:"title,omitempty" yaml:"title,omitempty"`
	SourceURL    string    `json:"source_url" yaml:"source_url"`
	FilePath     string    `json:"file_path" yaml:"file_path"`
	SizeBytes    int64     `json:"size_bytes" yaml:"size_bytes"`
	DownloadedAt time.Time `json:"downloaded_at" yaml:"downloaded_at"`
}

// Store manages the catalog SQLite database.
type Store struct {
	db  *sql.DB
	dir string
}

// NewStore opens or creates the catalog at cfg.Dir/catalog.db, creating
// the directory and schema as needed.
func NewStore(cfg types.CatalogConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	s := &Store{db: db, dir: cfg.Dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS guidelines (
		local_name TEXT PRIMARY KEY,
		guide_id TEXT,
		title TEXT,
		source_url TEXT NOT NULL,
		file_path TEXT NOT NULL,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		downloaded_at TEXT NOT NULL
	)`)
	return err
}

// Record upserts one entry, keyed by its local filename.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.DownloadedAt.IsZero() {
		e.DownloadedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO guidelines (local_name, guide_id, title, source_url, file_path, size_bytes, downloaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(local_name) DO UPDATE SET
			guide_id=excluded.guide_id, title=excluded.title,
			source_url=excluded.source_url, file_path=excluded.file_path,
			size_bytes=excluded.size_bytes, downloaded_at=excluded.downloaded_at`,
		e.LocalName, e.GuideID, e.Title, e.SourceURL, e.FilePath,
		e.SizeBytes, e.DownloadedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", e.LocalName, err)
	}
	return nil
}

// List returns all entries ordered by local filename.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT local_name, guide_id, title, source_url, file_path, size_bytes, downloaded_at
		 FROM guidelines ORDER BY local_name`)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var downloadedAt string
		if err := rows.Scan(&e.LocalName, &e.GuideID, &e.Title, &e.SourceURL,
			&e.FilePath, &e.SizeBytes, &downloadedAt); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339, downloadedAt); parseErr == nil {
			e.DownloadedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
