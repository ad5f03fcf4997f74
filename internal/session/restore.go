package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"minuta/internal/models"
)

// Callbacks receives one restored state slice each. Nil members are skipped.
type Callbacks struct {
	SetCase           func(models.CaseInfo)
	SetTopics         func([]models.Topic)
	SetProcessingMode func(models.ProcessingMode)
	SetDraftFields    func(map[string]string)
	SetTexts          func([]models.TextBlob)
	SetFiles          func([]models.BinaryBlob)
}

// legacySessionDocument is the pre-reference session shape: bodies inline.
type legacySessionDocument struct {
	Version        int                `json:"version"`
	Case           models.CaseInfo    `json:"case"`
	Topics         []models.Topic     `json:"topics"`
	ProcessingMode string             `json:"processing_mode"`
	DraftFields    map[string]string  `json:"draft_fields"`
	ExtractedText  string             `json:"extracted_text"`
	PastedText     string             `json:"pasted_text"`
	UploadedFiles  []legacyInlineFile `json:"uploaded_files"`
}

type legacyInlineFile struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Restore loads the session document, resolves every reference against the
// durable store, and invokes one callback per logical state slice.
// Unresolved references are treated as absent. Legacy inline-body documents
// are restored and immediately re-persisted in the reference shape.
//
// Returns false when no saved session exists.
func (a *Autosaver) Restore(ctx context.Context, cb Callbacks) (bool, error) {
	raw, err := a.slot.ReadRaw()
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}

	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false, fmt.Errorf("decode session document: %w", err)
	}

	if probe.Version < models.SessionDocumentVersion {
		return a.restoreLegacy(ctx, raw, cb)
	}

	var doc models.SessionDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false, fmt.Errorf("decode session document: %w", err)
	}

	state := &models.ProjectState{
		Case:           doc.Case,
		Topics:         doc.Topics,
		ProcessingMode: doc.ProcessingMode,
		DraftFields:    doc.DraftFields,
	}

	for _, ref := range doc.TextRefs {
		text, err := a.store.GetTextBlob(ctx, ref.Category, ref.ID)
		if err != nil {
			return false, err
		}
		if text == nil {
			continue
		}
		state.Texts = append(state.Texts, *text)
	}

	for _, id := range doc.BlobIDs {
		blob, err := a.store.GetBlob(ctx, id)
		if err != nil {
			return false, err
		}
		if blob == nil {
			continue
		}
		state.Files = append(state.Files, *blob)
	}

	applyCallbacks(state, cb)
	return true, nil
}

// restoreLegacy rebuilds state from an inline-body document, hands it to the
// callbacks, and re-persists it in the modern reference shape (lazy forward
// migration).
func (a *Autosaver) restoreLegacy(ctx context.Context, raw []byte, cb Callbacks) (bool, error) {
	var legacy legacySessionDocument
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return false, fmt.Errorf("decode legacy session document: %w", err)
	}

	state := &models.ProjectState{
		Case:           legacy.Case,
		Topics:         legacy.Topics,
		ProcessingMode: models.NormalizeProcessingMode(legacy.ProcessingMode),
		DraftFields:    legacy.DraftFields,
	}

	now := time.Now().UTC()
	if legacy.ExtractedText != "" {
		state.Texts = append(state.Texts, models.TextBlob{
			ID:       uuid.NewString(),
			Category: models.TextCategoryExtracted,
			Text:     legacy.ExtractedText,
			SavedAt:  now,
		})
	}
	if legacy.PastedText != "" {
		state.Texts = append(state.Texts, models.TextBlob{
			ID:       uuid.NewString(),
			Category: models.TextCategoryPasted,
			Text:     legacy.PastedText,
			SavedAt:  now,
		})
	}

	for _, file := range legacy.UploadedFiles {
		payload, err := base64.StdEncoding.DecodeString(file.Data)
		if err != nil {
			a.log.Warn("skipping undecodable legacy upload", "name", file.Name, "error", err)
			continue
		}
		state.Files = append(state.Files, models.BinaryBlob{
			ID:       models.BlobID(models.BlobCategoryUpload, uuid.NewString()),
			Payload:  payload,
			MimeType: file.MimeType,
			FileName: file.Name,
			SavedAt:  now,
		})
	}

	applyCallbacks(state, cb)

	if err := a.save(ctx, state); err != nil {
		// The restore itself succeeded; migration retries on the next save.
		a.log.Warn("legacy session re-persist failed", "error", err)
	}
	return true, nil
}

func applyCallbacks(state *models.ProjectState, cb Callbacks) {
	if cb.SetCase != nil {
		cb.SetCase(state.Case)
	}
	if cb.SetTopics != nil {
		cb.SetTopics(state.Topics)
	}
	if cb.SetProcessingMode != nil {
		cb.SetProcessingMode(state.ProcessingMode)
	}
	if cb.SetDraftFields != nil {
		cb.SetDraftFields(state.DraftFields)
	}
	if cb.SetTexts != nil {
		cb.SetTexts(state.Texts)
	}
	if cb.SetFiles != nil {
		cb.SetFiles(state.Files)
	}
}
