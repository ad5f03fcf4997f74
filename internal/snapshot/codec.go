package snapshot

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"minuta/internal/format"
	"minuta/internal/models"
	"minuta/internal/store"
)

// ErrMissingVersion rejects a snapshot lacking the version tag. Nothing is
// mutated before this check passes.
var ErrMissingVersion = errors.New("snapshot has no version tag")

// Codec builds and imports portable project snapshots.
type Codec struct {
	store *store.Store
	cache *EncodeCache
	log   *slog.Logger
}

// NewCodec wires the durable store and the shared encode cache.
func NewCodec(st *store.Store, cache *EncodeCache) *Codec {
	if cache == nil {
		cache = NewEncodeCache()
	}
	return &Codec{store: st, cache: cache, log: slog.With("component", "snapshot")}
}

// Build gathers the full project into a self-contained document: binaries
// inlined as base64, auxiliary domains flattened to composite-keyed maps.
// Provider credentials are always stripped before serialization.
func (c *Codec) Build(ctx context.Context, state *models.ProjectState) (*Document, error) {
	if state == nil {
		return nil, fmt.Errorf("project state is required")
	}

	caseInfo := state.Case
	caseInfo.APIKey = ""
	caseInfo.Credentials = ""

	doc := &Document{
		Version:        DocumentVersion,
		ExportedAt:     time.Now().UTC(),
		Case:           caseInfo,
		Topics:         state.Topics,
		ProcessingMode: string(state.ProcessingMode),
		DraftFields:    state.DraftFields,
	}

	for i := range state.Files {
		file := &state.Files[i]
		doc.Attachments = append(doc.Attachments, InlineFile{
			Name:     file.FileName,
			ID:       file.ID,
			FileData: c.cache.Convert(file),
			MimeType: file.MimeType,
			SavedAt:  file.SavedAt,
		})
	}

	for _, text := range state.Texts {
		doc.Texts = append(doc.Texts, InlineText{
			Category: string(text.Category),
			ID:       text.ID,
			Name:     text.Name,
			Text:     text.Text,
			SavedAt:  text.SavedAt,
		})
	}

	facts, err := c.store.ListFactsComparisons(ctx)
	if err != nil {
		return nil, err
	}
	if len(facts) > 0 {
		doc.FactsComparison = make(map[string]FactsEntry, len(facts))
		for _, entry := range facts {
			doc.FactsComparison[FactsKey(entry.TopicTitle, entry.Source)] = FactsEntry{
				Result:    entry.Result,
				CreatedAt: entry.CreatedAt,
			}
		}
	}

	reviews, err := c.store.ListSentenceReviews(ctx)
	if err != nil {
		return nil, err
	}
	if len(reviews) > 0 {
		doc.SentenceReview = make(map[string]ReviewEntry, len(reviews))
		for _, entry := range reviews {
			doc.SentenceReview[string(entry.Scope)] = ReviewEntry{
				Result:    entry.Result,
				CreatedAt: entry.CreatedAt,
			}
		}
	}

	chats, err := c.store.ListChatHistories(ctx)
	if err != nil {
		return nil, err
	}
	if len(chats) > 0 {
		doc.ChatHistory = make(map[string]ChatEntry, len(chats))
		for _, entry := range chats {
			doc.ChatHistory[entry.TopicTitle] = ChatEntry{
				Messages:        entry.Messages,
				IncludeMainDocs: entry.IncludeMainDocs,
				CreatedAt:       entry.CreatedAt,
				UpdatedAt:       entry.UpdatedAt,
			}
		}
	}

	versions, err := c.store.ListAllFieldVersions(ctx)
	if err != nil {
		return nil, err
	}
	if len(versions) > 0 {
		doc.FieldVersions = make(map[string][]VersionEntry)
		for _, v := range versions {
			doc.FieldVersions[v.FieldKey] = append(doc.FieldVersions[v.FieldKey], VersionEntry{
				ID:        v.ID,
				Content:   v.Content,
				Preview:   v.Preview,
				CreatedAt: v.CreatedAt,
			})
		}
	}

	return doc, nil
}

// Encode serializes a document to its UTF-8 wire form. Snapshots are
// indented so users can inspect what leaves their machine.
func (c *Codec) Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := (format.IndentedJSONFormatter{}).Write(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Import replaces the current project with the snapshot in data.
//
// The version gate runs before any mutation. Legacy shapes are migrated to
// the current format, the previous project's domains are wiped (import is a
// full replace, never a merge), inlined payloads are re-inflated into the
// store, and flattened maps are parsed back into structured records.
// Entities lacking an identifier gain one here, never at export.
//
// Returns the restored project state for the caller to adopt and autosave.
func (c *Codec) Import(ctx context.Context, data []byte) (*models.ProjectState, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if !hasVersionTag(raw) {
		return nil, ErrMissingVersion
	}
	normalizeVersionTag(raw)

	migrateToCurrent(raw)

	migrated, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(migrated, &doc); err != nil {
		return nil, fmt.Errorf("decode migrated snapshot: %w", err)
	}

	// Previous project is gone from here on; import is a full replace.
	c.store.PurgeAll(ctx)

	state := &models.ProjectState{
		Case:           doc.Case,
		Topics:         doc.Topics,
		ProcessingMode: models.NormalizeProcessingMode(doc.ProcessingMode),
		DraftFields:    doc.DraftFields,
	}

	for i := range state.Topics {
		if state.Topics[i].ID == "" {
			state.Topics[i].ID = uuid.NewString()
		}
	}

	for _, file := range doc.Attachments {
		payload, err := base64.StdEncoding.DecodeString(file.FileData)
		if err != nil {
			c.log.Warn("skipping undecodable attachment", "name", file.Name, "error", err)
			continue
		}
		blob := models.BinaryBlob{
			ID:       canonicalBlobID(file.ID),
			Payload:  payload,
			MimeType: file.MimeType,
			FileName: file.Name,
			SavedAt:  file.SavedAt,
		}
		if err := c.store.PutBlob(ctx, &blob); err != nil {
			return nil, fmt.Errorf("restore attachment %s: %w", file.Name, err)
		}
		state.Files = append(state.Files, blob)
	}

	for _, text := range doc.Texts {
		category, err := models.ParseTextCategory(text.Category)
		if err != nil {
			c.log.Warn("skipping text body with unknown category", "category", text.Category)
			continue
		}
		blob := models.TextBlob{
			ID:       text.ID,
			Category: category,
			Text:     text.Text,
			Name:     text.Name,
			SavedAt:  text.SavedAt,
		}
		if blob.ID == "" {
			blob.ID = uuid.NewString()
		}
		if err := c.store.PutTextBlob(ctx, &blob); err != nil {
			return nil, fmt.Errorf("restore text body %s: %w", blob.ID, err)
		}
		state.Texts = append(state.Texts, blob)
	}

	for key, entry := range doc.FactsComparison {
		topicTitle, source, err := SplitFactsKey(key)
		if err != nil {
			c.log.Warn("skipping malformed facts comparison key", "key", key)
			continue
		}
		record := models.FactsComparison{
			TopicTitle: topicTitle,
			Source:     source,
			Result:     entry.Result,
			CreatedAt:  entry.CreatedAt,
		}
		if err := c.store.SaveFactsComparison(ctx, &record); err != nil {
			return nil, fmt.Errorf("restore facts comparison %s: %w", key, err)
		}
	}

	for scope, entry := range doc.SentenceReview {
		record := models.SentenceReview{
			Scope:     models.ReviewScope(scope),
			Result:    entry.Result,
			CreatedAt: entry.CreatedAt,
		}
		if err := c.store.SaveSentenceReview(ctx, &record); err != nil {
			c.log.Warn("skipping sentence review entry", "scope", scope, "error", err)
		}
	}

	for topicTitle, entry := range doc.ChatHistory {
		record := models.ChatHistory{
			TopicTitle:      topicTitle,
			Messages:        entry.Messages,
			IncludeMainDocs: entry.IncludeMainDocs,
			CreatedAt:       entry.CreatedAt,
			UpdatedAt:       entry.UpdatedAt,
		}
		if err := c.store.SaveChatHistory(ctx, &record); err != nil {
			return nil, fmt.Errorf("restore chat history %s: %w", topicTitle, err)
		}
	}

	for fieldKey, entries := range doc.FieldVersions {
		// Entries are newest first; insert oldest first so the store's
		// insertion order reproduces the original listing order.
		for i := len(entries) - 1; i >= 0; i-- {
			entry := entries[i]
			record := models.FieldVersion{
				ID:        entry.ID,
				FieldKey:  fieldKey,
				Content:   entry.Content,
				Preview:   entry.Preview,
				CreatedAt: entry.CreatedAt,
			}
			if err := c.store.PutFieldVersion(ctx, &record); err != nil {
				return nil, fmt.Errorf("restore field history %s: %w", fieldKey, err)
			}
		}
	}

	return state, nil
}

// ClearCache drops the encode cache (project reset).
func (c *Codec) ClearCache() {
	c.cache.Clear()
}

func hasVersionTag(doc map[string]any) bool {
	value, ok := doc["version"]
	if !ok || value == nil {
		return false
	}
	if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
		return false
	}
	return true
}

// canonicalBlobID normalizes an imported blob id: missing ids are assigned,
// unprefixed legacy ids become uploads.
func canonicalBlobID(id string) string {
	if id == "" {
		return models.BlobID(models.BlobCategoryUpload, uuid.NewString())
	}
	if _, _, err := models.SplitBlobID(id); err != nil {
		return models.BlobID(models.BlobCategoryUpload, id)
	}
	return id
}

var fileNameSlugRegex = regexp.MustCompile(`[^a-z0-9]+`)

// FileName derives the snapshot download name from the case identifier and
// date.
func FileName(caseNumber string, now time.Time) string {
	slug := fileNameSlugRegex.ReplaceAllString(strings.ToLower(caseNumber), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "projeto"
	}
	return fmt.Sprintf("minuta-%s-%s.json", slug, now.UTC().Format("2006-01-02"))
}
