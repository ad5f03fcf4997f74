package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"minuta/internal/models"
)

const blobColumns = "id, payload, mime_type, file_name, size_bytes, saved_at"

// PutBlob inserts or replaces one binary blob.
func (s *Store) PutBlob(ctx context.Context, blob *models.BinaryBlob) error {
	if blob == nil {
		return fmt.Errorf("blob is required")
	}
	if _, _, err := models.SplitBlobID(blob.ID); err != nil {
		return err
	}
	if !s.Available() {
		s.droppedWrite(DomainBlobs)
		return nil
	}

	if blob.SavedAt.IsZero() {
		blob.SavedAt = time.Now().UTC()
	}
	if blob.SizeBytes == 0 {
		blob.SizeBytes = int64(len(blob.Payload))
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO blobs (id, payload, mime_type, file_name, size_bytes, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		blob.ID,
		blob.Payload,
		nullIfEmpty(blob.MimeType),
		blob.FileName,
		blob.SizeBytes,
		formatTime(blob.SavedAt),
	)
	if err != nil {
		return err
	}

	s.notifyCommit(DomainBlobs)
	return nil
}

// GetBlob returns one blob by canonical id, or nil when absent.
func (s *Store) GetBlob(ctx context.Context, id string) (*models.BinaryBlob, error) {
	if !s.Available() {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+blobColumns+` FROM blobs WHERE id = ?`, id)
	return scanBlob(row)
}

// ListBlobs lists the blobs of one category via prefix scan on the id,
// oldest first.
func (s *Store) ListBlobs(ctx context.Context, category models.BlobCategory) ([]models.BinaryBlob, error) {
	if !s.Available() {
		return nil, nil
	}
	prefix := string(category) + ":"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+blobColumns+` FROM blobs WHERE id >= ? AND id < ? ORDER BY saved_at ASC, id ASC`,
		prefix, prefix+"\xff")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBlobs(rows)
}

// ListAllBlobs returns every stored blob, oldest first.
func (s *Store) ListAllBlobs(ctx context.Context) ([]models.BinaryBlob, error) {
	if !s.Available() {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+blobColumns+` FROM blobs ORDER BY saved_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBlobs(rows)
}

// DeleteBlob removes one blob. Missing ids are ignored.
func (s *Store) DeleteBlob(ctx context.Context, id string) error {
	if !s.Available() {
		s.droppedWrite(DomainBlobs)
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE id = ?`, id); err != nil {
		return err
	}
	s.notifyCommit(DomainBlobs)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlob(row rowScanner) (*models.BinaryBlob, error) {
	var (
		blob     models.BinaryBlob
		mimeType sql.NullString
		savedAt  string
	)
	err := row.Scan(&blob.ID, &blob.Payload, &mimeType, &blob.FileName, &blob.SizeBytes, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	blob.MimeType = stringOrEmpty(mimeType)
	blob.SavedAt = parseTime(savedAt)
	return &blob, nil
}

func collectBlobs(rows *sql.Rows) ([]models.BinaryBlob, error) {
	var blobs []models.BinaryBlob
	for rows.Next() {
		blob, err := scanBlob(rows)
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, *blob)
	}
	return blobs, rows.Err()
}
