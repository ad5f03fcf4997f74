package store

import (
	"context"
	"testing"
	"time"

	"minuta/internal/models"
)

func TestSaveFactsComparisonReplacesNotDuplicates(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	first := &models.FactsComparison{
		TopicTitle: "horas extras",
		Source:     "peticao",
		Result:     "primeira analise",
	}
	if err := st.SaveFactsComparison(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	second := &models.FactsComparison{
		TopicTitle: "horas extras",
		Source:     "peticao",
		Result:     "analise revisada",
	}
	if err := st.SaveFactsComparison(ctx, second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	entries, err := st.ListFactsComparisons(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(entries))
	}
	if entries[0].Result != "analise revisada" {
		t.Fatalf("expected later call's content retained, got %q", entries[0].Result)
	}
}

func TestFactsComparisonKeyedByTopicAndSource(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	pairs := []struct{ topic, source string }{
		{"horas extras", "peticao"},
		{"horas extras", "contestacao"},
		{"dano moral", "peticao"},
	}
	for _, pair := range pairs {
		entry := &models.FactsComparison{TopicTitle: pair.topic, Source: pair.source, Result: "r"}
		if err := st.SaveFactsComparison(ctx, entry); err != nil {
			t.Fatalf("save %s/%s: %v", pair.topic, pair.source, err)
		}
	}

	entries, err := st.ListFactsComparisons(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 distinct entries, got %d", len(entries))
	}

	got, err := st.GetFactsComparison(ctx, "dano moral", "peticao")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.TopicTitle != "dano moral" {
		t.Fatalf("expected dano moral entry, got %+v", got)
	}
}

func TestSaveSentenceReviewValidatesScope(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.SaveSentenceReview(ctx, &models.SentenceReview{Scope: "preamble", Result: "x"}); err == nil {
		t.Fatal("expected invalid scope to be rejected")
	}

	if err := st.SaveSentenceReview(ctx, &models.SentenceReview{
		Scope:  models.ReviewScopeFundamentacao,
		Result: "revisao ok",
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.SaveSentenceReview(ctx, &models.SentenceReview{
		Scope:  models.ReviewScopeFundamentacao,
		Result: "revisao atualizada",
	}); err != nil {
		t.Fatalf("resave: %v", err)
	}

	entries, err := st.ListSentenceReviews(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Result != "revisao atualizada" {
		t.Fatalf("expected single replaced entry, got %+v", entries)
	}
}

func TestSaveChatHistoryPreservesCreatedAt(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := &models.ChatHistory{
		TopicTitle: "adicional noturno",
		Messages:   []models.ChatMessage{{Role: "user", Content: "resuma as provas"}},
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	if err := st.SaveChatHistory(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	second := &models.ChatHistory{
		TopicTitle: "adicional noturno",
		Messages: []models.ChatMessage{
			{Role: "user", Content: "resuma as provas"},
			{Role: "assistant", Content: "as provas indicam..."},
		},
		IncludeMainDocs: true,
		CreatedAt:       created.Add(24 * time.Hour),
		UpdatedAt:       created.Add(24 * time.Hour),
	}
	if err := st.SaveChatHistory(ctx, second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := st.GetChatHistory(ctx, "adicional noturno")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected chat history")
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected replaced messages, got %d", len(got.Messages))
	}
	if !got.IncludeMainDocs {
		t.Fatal("expected include_main_docs flag updated")
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("expected original created_at %v retained, got %v", created, got.CreatedAt)
	}
}
