// Package store persists ingestion output: one document row per ingest
// plus the sheet-index and chunk record sets, in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// DocumentRecord is the persisted header for one ingested document.
type DocumentRecord struct {
	ID              string    `json:"document_id"`
	Filename        string    `json:"filename"`
	ContentHash     string    `json:"content_hash"`
	TotalPages      int       `json:"total_pages"`
	TotalChunks     int       `json:"total_chunks"`
	ImagesExtracted int       `json:"images_extracted"`
	AvgChunkTokens  int       `json:"average_chunk_size_tokens"`
	ImageDPI        int       `json:"image_dpi"`
	CreatedAt       time.Time `json:"created_at"`
}

// Store wraps the SQLite database holding all persisted rows.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "planchunk.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		document_id      TEXT PRIMARY KEY,
		filename         TEXT NOT NULL,
		content_hash     TEXT NOT NULL,
		total_pages      INTEGER NOT NULL,
		total_chunks     INTEGER NOT NULL,
		images_extracted INTEGER NOT NULL,
		avg_chunk_tokens INTEGER NOT NULL,
		image_dpi        INTEGER NOT NULL,
		created_at       DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sheet_index (
		document_id TEXT NOT NULL REFERENCES documents(document_id) ON DELETE CASCADE,
		sheet_id    TEXT NOT NULL,
		page_number INTEGER NOT NULL,
		entry       TEXT NOT NULL,
		PRIMARY KEY (document_id, sheet_id)
	);
	CREATE TABLE IF NOT EXISTS chunks (
		document_id TEXT NOT NULL REFERENCES documents(document_id) ON DELETE CASCADE,
		chunk_index INTEGER NOT NULL,
		chunk_id    TEXT NOT NULL,
		chunk       TEXT NOT NULL,
		PRIMARY KEY (document_id, chunk_index)
	);
	CREATE INDEX IF NOT EXISTS idx_sheet_index_page ON sheet_index(document_id, page_number);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveDocument inserts or replaces the document header row.
func (s *Store) SaveDocument(ctx context.Context, doc DocumentRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO documents
		(document_id, filename, content_hash, total_pages, total_chunks, images_extracted, avg_chunk_tokens, image_dpi, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, doc.ContentHash, doc.TotalPages, doc.TotalChunks,
		doc.ImagesExtracted, doc.AvgChunkTokens, doc.ImageDPI, doc.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// GetDocument returns one document header.
func (s *Store) GetDocument(ctx context.Context, docID string) (*DocumentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document_id, filename, content_hash, total_pages, total_chunks, images_extracted, avg_chunk_tokens, image_dpi, created_at
		FROM documents WHERE document_id = ?`, docID)
	var doc DocumentRecord
	err := row.Scan(&doc.ID, &doc.Filename, &doc.ContentHash, &doc.TotalPages, &doc.TotalChunks,
		&doc.ImagesExtracted, &doc.AvgChunkTokens, &doc.ImageDPI, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

// ListDocuments returns document headers, newest first.
func (s *Store) ListDocuments(ctx context.Context, limit int) ([]DocumentRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, filename, content_hash, total_pages, total_chunks, images_extracted, avg_chunk_tokens, image_dpi, created_at
		FROM documents ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentRecord
	for rows.Next() {
		var doc DocumentRecord
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.ContentHash, &doc.TotalPages, &doc.TotalChunks,
			&doc.ImagesExtracted, &doc.AvgChunkTokens, &doc.ImageDPI, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// FindByContentHash returns the id of an existing document with the same
// content hash, or "" when none exists.
func (s *Store) FindByContentHash(ctx context.Context, hash string) (string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT document_id FROM documents WHERE content_hash = ? LIMIT 1`, hash)
	var id string
	err := row.Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find by hash: %w", err)
	}
	return id, nil
}

// DeleteDocument removes a document and its sheet/chunk rows.
func (s *Store) DeleteDocument(ctx context.Context, docID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE document_id = ?`, docID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
