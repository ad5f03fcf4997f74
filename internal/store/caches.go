package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"minuta/internal/models"
)

// SaveFactsComparison stores one facts-comparison result. A second save for
// the same (topic title, source) replaces the first, never duplicates.
func (s *Store) SaveFactsComparison(ctx context.Context, entry *models.FactsComparison) error {
	if entry == nil {
		return fmt.Errorf("facts comparison entry is required")
	}
	if entry.TopicTitle == "" || entry.Source == "" {
		return fmt.Errorf("topic title and source are required")
	}
	if !s.Available() {
		s.droppedWrite(DomainFactsComparison)
		return nil
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO facts_comparison (topic_title, source, result, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(topic_title, source) DO UPDATE SET
			result = excluded.result,
			created_at = excluded.created_at
	`,
		entry.TopicTitle,
		entry.Source,
		entry.Result,
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return err
	}

	s.notifyCommit(DomainFactsComparison)
	return nil
}

// GetFactsComparison returns one entry, or nil when absent.
func (s *Store) GetFactsComparison(ctx context.Context, topicTitle, source string) (*models.FactsComparison, error) {
	if !s.Available() {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT topic_title, source, result, created_at FROM facts_comparison WHERE topic_title = ? AND source = ?`,
		topicTitle, source)

	var (
		entry     models.FactsComparison
		createdAt string
	)
	err := row.Scan(&entry.TopicTitle, &entry.Source, &entry.Result, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	entry.CreatedAt = parseTime(createdAt)
	return &entry, nil
}

// ListFactsComparisons returns every stored entry ordered by topic and source.
func (s *Store) ListFactsComparisons(ctx context.Context) ([]models.FactsComparison, error) {
	if !s.Available() {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT topic_title, source, result, created_at FROM facts_comparison ORDER BY topic_title ASC, source ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.FactsComparison
	for rows.Next() {
		var (
			entry     models.FactsComparison
			createdAt string
		)
		if err := rows.Scan(&entry.TopicTitle, &entry.Source, &entry.Result, &createdAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = parseTime(createdAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SaveSentenceReview stores one review result, keyed by scope. Saving the
// same scope again replaces.
func (s *Store) SaveSentenceReview(ctx context.Context, entry *models.SentenceReview) error {
	if entry == nil {
		return fmt.Errorf("sentence review entry is required")
	}
	if _, err := models.ParseReviewScope(string(entry.Scope)); err != nil {
		return err
	}
	if !s.Available() {
		s.droppedWrite(DomainSentenceReview)
		return nil
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sentence_review (scope, result, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET
			result = excluded.result,
			created_at = excluded.created_at
	`,
		string(entry.Scope),
		entry.Result,
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return err
	}

	s.notifyCommit(DomainSentenceReview)
	return nil
}

// ListSentenceReviews returns every stored review entry ordered by scope.
func (s *Store) ListSentenceReviews(ctx context.Context) ([]models.SentenceReview, error) {
	if !s.Available() {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT scope, result, created_at FROM sentence_review ORDER BY scope ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.SentenceReview
	for rows.Next() {
		var (
			entry     models.SentenceReview
			scope     string
			createdAt string
		)
		if err := rows.Scan(&scope, &entry.Result, &createdAt); err != nil {
			return nil, err
		}
		entry.Scope = models.ReviewScope(scope)
		entry.CreatedAt = parseTime(createdAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SaveChatHistory stores the chat thread of one topic. Saving again replaces
// messages and updated_at but keeps the original created_at.
func (s *Store) SaveChatHistory(ctx context.Context, entry *models.ChatHistory) error {
	if entry == nil {
		return fmt.Errorf("chat history entry is required")
	}
	if entry.TopicTitle == "" {
		return fmt.Errorf("topic title is required")
	}
	if !s.Available() {
		s.droppedWrite(DomainChatHistory)
		return nil
	}

	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}

	messages, err := json.Marshal(entry.Messages)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_history (topic_title, messages, include_main_docs, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(topic_title) DO UPDATE SET
			messages = excluded.messages,
			include_main_docs = excluded.include_main_docs,
			updated_at = excluded.updated_at
	`,
		entry.TopicTitle,
		string(messages),
		boolToInt(entry.IncludeMainDocs),
		formatTime(entry.CreatedAt),
		formatTime(entry.UpdatedAt),
	)
	if err != nil {
		return err
	}

	s.notifyCommit(DomainChatHistory)
	return nil
}

// GetChatHistory returns one topic's chat thread, or nil when absent.
func (s *Store) GetChatHistory(ctx context.Context, topicTitle string) (*models.ChatHistory, error) {
	if !s.Available() {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT topic_title, messages, include_main_docs, created_at, updated_at FROM chat_history WHERE topic_title = ?`,
		topicTitle)
	entry, err := scanChatHistory(row)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListChatHistories returns every stored chat thread ordered by topic title.
func (s *Store) ListChatHistories(ctx context.Context) ([]models.ChatHistory, error) {
	if !s.Available() {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT topic_title, messages, include_main_docs, created_at, updated_at FROM chat_history ORDER BY topic_title ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ChatHistory
	for rows.Next() {
		entry, err := scanChatHistory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanChatHistory(row rowScanner) (*models.ChatHistory, error) {
	var (
		entry           models.ChatHistory
		messages        string
		includeMainDocs int
		createdAt       string
		updatedAt       string
	)
	err := row.Scan(&entry.TopicTitle, &messages, &includeMainDocs, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(messages), &entry.Messages); err != nil {
		return nil, fmt.Errorf("decode chat messages for %s: %w", entry.TopicTitle, err)
	}
	entry.IncludeMainDocs = includeMainDocs != 0
	entry.CreatedAt = parseTime(createdAt)
	entry.UpdatedAt = parseTime(updatedAt)
	return &entry, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
