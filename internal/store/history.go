package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"minuta/internal/models"
)

const (
	// maxFieldVersions bounds the retained history per field key.
	maxFieldVersions = 10
	previewRunes     = 100
)

var markupTagRegex = regexp.MustCompile(`<[^>]*>`)

// SaveFieldVersion appends one version for a decision field. Content
// identical to the newest stored version is skipped. When the key already
// holds maxFieldVersions entries the oldest are deleted down to
// maxFieldVersions-1 before the insert.
//
// Returns the stored version, or nil when the save was skipped.
func (s *Store) SaveFieldVersion(ctx context.Context, fieldKey, content string) (_ *models.FieldVersion, err error) {
	if fieldKey == "" {
		return nil, fmt.Errorf("field key is required")
	}
	if !s.Available() {
		s.droppedWrite(DomainFieldVersions)
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var latest string
	err = tx.QueryRowContext(ctx,
		`SELECT content FROM field_versions WHERE field_key = ? ORDER BY seq DESC LIMIT 1`,
		fieldKey).Scan(&latest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err == nil && latest == content {
		// Consecutive identical content stays a single version.
		err = tx.Commit()
		return nil, err
	}
	err = nil

	var count int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM field_versions WHERE field_key = ?`, fieldKey).Scan(&count); err != nil {
		return nil, err
	}
	if count >= maxFieldVersions {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM field_versions WHERE field_key = ? AND seq IN (
				SELECT seq FROM field_versions WHERE field_key = ? ORDER BY seq ASC LIMIT ?
			)
		`, fieldKey, fieldKey, count-(maxFieldVersions-1))
		if err != nil {
			return nil, err
		}
	}

	version := &models.FieldVersion{
		ID:        uuid.NewString(),
		FieldKey:  fieldKey,
		Content:   content,
		Preview:   previewOf(content),
		CreatedAt: time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO field_versions (id, field_key, content, preview, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		version.ID,
		version.FieldKey,
		version.Content,
		version.Preview,
		formatTime(version.CreatedAt),
	)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	s.notifyCommit(DomainFieldVersions)
	return version, nil
}

// PutFieldVersion inserts one version record verbatim, preserving its id,
// preview, and timestamp. Snapshot import re-inflates history through this;
// the retention bound is enforced at save time, and a snapshot never carries
// more than the bound per key.
func (s *Store) PutFieldVersion(ctx context.Context, version *models.FieldVersion) error {
	if version == nil {
		return fmt.Errorf("field version is required")
	}
	if version.FieldKey == "" {
		return fmt.Errorf("field key is required")
	}
	if !s.Available() {
		s.droppedWrite(DomainFieldVersions)
		return nil
	}

	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	if version.Preview == "" {
		version.Preview = previewOf(version.Content)
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO field_versions (id, field_key, content, preview, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		version.ID,
		version.FieldKey,
		version.Content,
		version.Preview,
		formatTime(version.CreatedAt),
	)
	if err != nil {
		return err
	}

	s.notifyCommit(DomainFieldVersions)
	return nil
}

// FieldVersions returns the retained versions for a field key, newest first.
func (s *Store) FieldVersions(ctx context.Context, fieldKey string) ([]models.FieldVersion, error) {
	if !s.Available() {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, field_key, content, preview, created_at
		FROM field_versions WHERE field_key = ? ORDER BY seq DESC
	`, fieldKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []models.FieldVersion
	for rows.Next() {
		var (
			version   models.FieldVersion
			createdAt string
		)
		if err := rows.Scan(&version.ID, &version.FieldKey, &version.Content, &version.Preview, &createdAt); err != nil {
			return nil, err
		}
		version.CreatedAt = parseTime(createdAt)
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

// ListAllFieldVersions returns every retained version across all field keys,
// grouped by key and newest first within each key.
func (s *Store) ListAllFieldVersions(ctx context.Context) ([]models.FieldVersion, error) {
	if !s.Available() {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, field_key, content, preview, created_at
		FROM field_versions ORDER BY field_key ASC, seq DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []models.FieldVersion
	for rows.Next() {
		var (
			version   models.FieldVersion
			createdAt string
		)
		if err := rows.Scan(&version.ID, &version.FieldKey, &version.Content, &version.Preview, &createdAt); err != nil {
			return nil, err
		}
		version.CreatedAt = parseTime(createdAt)
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

// GetFieldVersion returns one version by id, or nil when absent.
func (s *Store) GetFieldVersion(ctx context.Context, id string) (*models.FieldVersion, error) {
	if !s.Available() {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, field_key, content, preview, created_at FROM field_versions WHERE id = ?`, id)

	var (
		version   models.FieldVersion
		createdAt string
	)
	err := row.Scan(&version.ID, &version.FieldKey, &version.Content, &version.Preview, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	version.CreatedAt = parseTime(createdAt)
	return &version, nil
}

// RestoreFieldVersion snapshots currentContent as a new version for fieldKey,
// then returns the historical content so the caller can apply it. Restoring
// never discards unsaved work.
func (s *Store) RestoreFieldVersion(ctx context.Context, versionID, currentContent, fieldKey string) (string, error) {
	version, err := s.GetFieldVersion(ctx, versionID)
	if err != nil {
		return "", err
	}
	if version == nil {
		return "", fmt.Errorf("field version not found: %s", versionID)
	}
	if _, err := s.SaveFieldVersion(ctx, fieldKey, currentContent); err != nil {
		return "", err
	}
	return version.Content, nil
}

// previewOf strips markup and collapses whitespace into a short preview.
func previewOf(content string) string {
	plain := markupTagRegex.ReplaceAllString(content, " ")
	plain = strings.Join(strings.Fields(plain), " ")
	runes := []rune(plain)
	if len(runes) <= previewRunes {
		return plain
	}
	return string(runes[:previewRunes])
}
