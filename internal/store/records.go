package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgallion1/planchunk/internal/plandoc"
)

// SaveResult persists the sheet index and chunks for a document in one
// transaction. Existing rows for the document are replaced.
func (s *Store) SaveResult(ctx context.Context, docID string, entries []plandoc.SheetIndexEntry, chunks []plandoc.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sheet_index WHERE document_id = ?`, docID); err != nil {
		return fmt.Errorf("clear sheet index: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, docID); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}

	sheetStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sheet_index (document_id, sheet_id, page_number, entry)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare sheet insert: %w", err)
	}
	defer sheetStmt.Close()

	for _, entry := range DisambiguateSheetIDs(entries) {
		payload, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encode sheet entry: %w", err)
		}
		if _, err := sheetStmt.ExecContext(ctx, docID, entry.SheetID, entry.PageNumber, string(payload)); err != nil {
			return fmt.Errorf("insert sheet %s: %w", entry.SheetID, err)
		}
	}

	chunkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (document_id, chunk_index, chunk_id, chunk)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer chunkStmt.Close()

	for _, c := range chunks {
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode chunk %d: %w", c.ChunkIndex, err)
		}
		if _, err := chunkStmt.ExecContext(ctx, docID, c.ChunkIndex, c.ChunkID, string(payload)); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit result: %w", err)
	}
	return nil
}

// DisambiguateSheetIDs makes sheet identifiers unique within a document.
// When the same identifier appears on more than one page, every occurrence
// after the first gets a "-P<page>" suffix. First occurrence keeps the
// original id, so references from chunk sheet subsets stay resolvable.
func DisambiguateSheetIDs(entries []plandoc.SheetIndexEntry) []plandoc.SheetIndexEntry {
	out := make([]plandoc.SheetIndexEntry, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, entry := range entries {
		if seen[entry.SheetID] {
			entry.SheetID = fmt.Sprintf("%s-P%d", entry.SheetID, entry.PageNumber)
		}
		seen[entry.SheetID] = true
		out[i] = entry
	}
	return out
}

// SheetIndex returns the persisted sheet-index entries in page order.
func (s *Store) SheetIndex(ctx context.Context, docID string) ([]plandoc.SheetIndexEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entry FROM sheet_index WHERE document_id = ? ORDER BY page_number`, docID)
	if err != nil {
		return nil, fmt.Errorf("query sheet index: %w", err)
	}
	defer rows.Close()

	var entries []plandoc.SheetIndexEntry
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan sheet entry: %w", err)
		}
		var entry plandoc.SheetIndexEntry
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			return nil, fmt.Errorf("decode sheet entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Chunks returns all chunks of a document in packing order.
func (s *Store) Chunks(ctx context.Context, docID string) ([]plandoc.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk FROM chunks WHERE document_id = ? ORDER BY chunk_index`, docID)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []plandoc.Chunk
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		var c plandoc.Chunk
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			return nil, fmt.Errorf("decode chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Chunk returns a single chunk by its index within the document.
func (s *Store) Chunk(ctx context.Context, docID string, index int) (*plandoc.Chunk, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT chunk FROM chunks WHERE document_id = ? AND chunk_index = ?`, docID, index)
	var payload string
	err := row.Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chunk: %w", err)
	}
	var c plandoc.Chunk
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, fmt.Errorf("decode chunk: %w", err)
	}
	return &c, nil
}
