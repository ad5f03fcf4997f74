package models

import (
	"fmt"
	"strings"
	"time"
)

// FactsComparison is one cached facts-versus-allegations analysis result.
// At most one entry exists per (topic title, source); saving again replaces.
type FactsComparison struct {
	TopicTitle string    `json:"topic_title"`
	Source     string    `json:"source"`
	Result     string    `json:"result"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReviewScope names the portion of the decision a review run covered.
type ReviewScope string

const (
	ReviewScopeFull          ReviewScope = "full"
	ReviewScopeRelatorio     ReviewScope = "relatorio"
	ReviewScopeFundamentacao ReviewScope = "fundamentacao"
	ReviewScopeDispositivo   ReviewScope = "dispositivo"
)

var validReviewScopes = map[ReviewScope]struct{}{
	ReviewScopeFull:          {},
	ReviewScopeRelatorio:     {},
	ReviewScopeFundamentacao: {},
	ReviewScopeDispositivo:   {},
}

// ParseReviewScope validates a raw review scope value.
func ParseReviewScope(raw string) (ReviewScope, error) {
	value := ReviewScope(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("review scope is required")
	}
	if _, ok := validReviewScopes[value]; !ok {
		return "", fmt.Errorf("invalid review scope: %s", value)
	}
	return value, nil
}

// SentenceReview is one cached draft review result, keyed by scope.
type SentenceReview struct {
	Scope     ReviewScope `json:"scope"`
	Result    string      `json:"result"`
	CreatedAt time.Time   `json:"created_at"`
}

// ChatMessage is one turn of a topic chat thread.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatHistory is the stored chat thread for one topic. Saving again for the
// same topic replaces the messages but keeps the original created_at.
type ChatHistory struct {
	TopicTitle      string        `json:"topic_title"`
	Messages        []ChatMessage `json:"messages"`
	IncludeMainDocs bool          `json:"include_main_docs"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// FieldVersion is one retained edit of a decision field. At most ten are
// kept per field key.
type FieldVersion struct {
	ID        string    `json:"id"`
	FieldKey  string    `json:"field_key"`
	Content   string    `json:"content"`
	Preview   string    `json:"preview"`
	CreatedAt time.Time `json:"created_at"`
}
