package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"minuta/internal/models"
)

const textBlobColumns = "category, id, text, name, saved_at"

// PutTextBlob inserts or replaces one text blob for its (category, id) pair.
func (s *Store) PutTextBlob(ctx context.Context, blob *models.TextBlob) error {
	if blob == nil {
		return fmt.Errorf("text blob is required")
	}
	if blob.ID == "" {
		return fmt.Errorf("text blob id is required")
	}
	if _, err := models.ParseTextCategory(string(blob.Category)); err != nil {
		return err
	}
	if !s.Available() {
		s.droppedWrite(DomainTextBlobs)
		return nil
	}

	if blob.SavedAt.IsZero() {
		blob.SavedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO text_blobs (category, id, text, name, saved_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		string(blob.Category),
		blob.ID,
		blob.Text,
		nullIfEmpty(blob.Name),
		formatTime(blob.SavedAt),
	)
	if err != nil {
		return err
	}

	s.notifyCommit(DomainTextBlobs)
	return nil
}

// GetTextBlob returns one text blob, or nil when absent.
func (s *Store) GetTextBlob(ctx context.Context, category models.TextCategory, id string) (*models.TextBlob, error) {
	if !s.Available() {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+textBlobColumns+` FROM text_blobs WHERE category = ? AND id = ?`,
		string(category), id)
	return scanTextBlob(row)
}

// ListTextBlobs lists text blobs of one category, oldest first.
func (s *Store) ListTextBlobs(ctx context.Context, category models.TextCategory) ([]models.TextBlob, error) {
	if !s.Available() {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+textBlobColumns+` FROM text_blobs WHERE category = ? ORDER BY saved_at ASC, id ASC`,
		string(category))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blobs []models.TextBlob
	for rows.Next() {
		blob, err := scanTextBlob(rows)
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, *blob)
	}
	return blobs, rows.Err()
}

// DeleteTextBlob removes one text blob. Missing pairs are ignored.
func (s *Store) DeleteTextBlob(ctx context.Context, category models.TextCategory, id string) error {
	if !s.Available() {
		s.droppedWrite(DomainTextBlobs)
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM text_blobs WHERE category = ? AND id = ?`, string(category), id)
	if err != nil {
		return err
	}
	s.notifyCommit(DomainTextBlobs)
	return nil
}

func scanTextBlob(row rowScanner) (*models.TextBlob, error) {
	var (
		blob     models.TextBlob
		category string
		name     sql.NullString
		savedAt  string
	)
	err := row.Scan(&category, &blob.ID, &blob.Text, &name, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	blob.Category = models.TextCategory(category)
	blob.Name = stringOrEmpty(name)
	blob.SavedAt = parseTime(savedAt)
	return &blob, nil
}
