// Package snapshot implements the portable project snapshot codec: full
// export with inlined binaries, and import with legacy-format migration.
package snapshot

import (
	"fmt"
	"strings"
	"time"

	"minuta/internal/models"
)

// DocumentVersion is the current snapshot format version. The version tag
// drives both acceptance and migration dispatch on import.
const DocumentVersion = 3

// InlineFile is one binary attachment inlined as base64 text.
type InlineFile struct {
	Name     string    `json:"name"`
	ID       string    `json:"id,omitempty"`
	FileData string    `json:"fileData"`
	MimeType string    `json:"mimeType,omitempty"`
	SavedAt  time.Time `json:"savedAt,omitempty"`
}

// InlineText is one large text body inlined into the snapshot.
type InlineText struct {
	Category string    `json:"category"`
	ID       string    `json:"id,omitempty"`
	Name     string    `json:"name,omitempty"`
	Text     string    `json:"text"`
	SavedAt  time.Time `json:"savedAt,omitempty"`
}

// FactsEntry is the flattened facts-comparison value, keyed by
// "{topicTitle}_{source}" in the document map.
type FactsEntry struct {
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReviewEntry is the flattened sentence-review value, keyed by scope.
type ReviewEntry struct {
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"createdAt"`
}

// VersionEntry is one flattened field-history version. Lists are newest
// first, matching the store's listing order.
type VersionEntry struct {
	ID        string    `json:"id,omitempty"`
	Content   string    `json:"content"`
	Preview   string    `json:"preview,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatEntry is the flattened chat thread value, keyed by topic title.
type ChatEntry struct {
	Messages        []models.ChatMessage `json:"messages"`
	IncludeMainDocs bool                 `json:"includeMainDocs"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// Document is the fully self-contained portable snapshot. The same shape
// travels over every transport (file download, remote storage).
type Document struct {
	Version         int                       `json:"version"`
	ExportedAt      time.Time                 `json:"exportedAt"`
	Case            models.CaseInfo           `json:"case"`
	Topics          []models.Topic            `json:"topics,omitempty"`
	ProcessingMode  string                    `json:"processingMode,omitempty"`
	DraftFields     map[string]string         `json:"draftFields,omitempty"`
	Attachments     []InlineFile              `json:"attachments,omitempty"`
	Texts           []InlineText              `json:"texts,omitempty"`
	FactsComparison map[string]FactsEntry     `json:"factsComparison,omitempty"`
	SentenceReview  map[string]ReviewEntry    `json:"sentenceReview,omitempty"`
	ChatHistory     map[string]ChatEntry      `json:"chatHistory,omitempty"`
	FieldVersions   map[string][]VersionEntry `json:"fieldVersions,omitempty"`
}

// FactsKey builds the composite map key for a facts-comparison entry.
// Sources contain no underscore, so the last one always splits correctly.
func FactsKey(topicTitle, source string) string {
	return topicTitle + "_" + source
}

// SplitFactsKey recovers (topicTitle, source) from a composite key.
func SplitFactsKey(key string) (string, string, error) {
	idx := strings.LastIndex(key, "_")
	if idx <= 0 || idx == len(key)-1 {
		return "", "", fmt.Errorf("invalid facts comparison key: %s", key)
	}
	return key[:idx], key[idx+1:], nil
}
