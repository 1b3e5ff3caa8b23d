package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/halcyon-health/halcyon/internal/types"
)

func doc(id, text string, domain types.Domain, reliability float64) types.KnowledgeDocument {
	return types.KnowledgeDocument{
		ID:   id,
		Text: text,
		Metadata: types.DocumentMetadata{
			Source:      "test",
			Domain:      domain,
			Reliability: reliability,
		},
	}
}

func TestMemoryStoreSearchLexical(t *testing.T) {
	s := NewMemoryStore(nil, []types.KnowledgeDocument{
		doc("ldl", "LDL cholesterol above 130 mg/dL is considered borderline high", types.DomainLabInterpretation, 0.9),
		doc("gut", "the gut microbiome contains trillions of bacteria", types.DomainMicrobiome, 0.8),
	})
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}

	matches, err := s.Search(context.Background(), "what does high LDL cholesterol mean", SearchParams{TopK: 5, ScoreThreshold: 0.1})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	if matches[0].Document.ID != "ldl" {
		t.Errorf("expected ldl document first, got %s", matches[0].Document.ID)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Error("matches not ordered by descending score")
		}
	}
}

func TestMemoryStoreHighThresholdReturnsEmpty(t *testing.T) {
	s := NewMemoryStore(nil, []types.KnowledgeDocument{
		doc("a", "vitamin d supports bone health", types.DomainNutrition, 0.9),
		doc("b", "iron deficiency causes fatigue", types.DomainLabInterpretation, 0.9),
	})
	s.Initialize(context.Background())

	matches, err := s.Search(context.Background(), "completely unrelated quantum chromodynamics question", SearchParams{TopK: 5, ScoreThreshold: 0.99})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("expected empty result at threshold 0.99, got %d matches", len(matches))
	}
}

func TestMemoryStoreFilter(t *testing.T) {
	old := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	docs := []types.KnowledgeDocument{
		doc("reliable", "glucose levels in blood tests", types.DomainLabInterpretation, 0.95),
		doc("unreliable", "glucose levels in blood tests", types.DomainLabInterpretation, 0.3),
		doc("wrongdomain", "glucose levels in blood tests", types.DomainNutrition, 0.95),
	}
	docs[0].Metadata.PublishedAt = &recent
	docs[0].Metadata.Tags = []string{"labs", "glucose"}
	docs[1].Metadata.PublishedAt = &old

	s := NewMemoryStore(nil, docs)
	s.Initialize(context.Background())

	matches, err := s.Search(context.Background(), "glucose blood test", SearchParams{
		TopK:           10,
		ScoreThreshold: 0.1,
		Filter: &Filter{
			Domains:        []types.Domain{types.DomainLabInterpretation},
			MinReliability: 0.7,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Document.ID != "reliable" {
		t.Fatalf("expected only the reliable lab document, got %+v", matches)
	}

	// Tag intersection.
	matches, _ = s.Search(context.Background(), "glucose blood test", SearchParams{
		TopK: 10, ScoreThreshold: 0.1,
		Filter: &Filter{Tags: []string{"glucose"}},
	})
	if len(matches) != 1 || matches[0].Document.ID != "reliable" {
		t.Fatalf("tag filter failed: %+v", matches)
	}

	// Date range.
	cutoff := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	matches, _ = s.Search(context.Background(), "glucose blood test", SearchParams{
		TopK: 10, ScoreThreshold: 0.1,
		Filter: &Filter{After: &cutoff},
	})
	for _, m := range matches {
		if m.Document.ID == "unreliable" {
			t.Error("old document passed date filter")
		}
	}
}

func TestMemoryStoreTopK(t *testing.T) {
	var docs []types.KnowledgeDocument
	for _, id := range []string{"a", "b", "c", "d"} {
		docs = append(docs, doc(id, "magnesium supplement absorption", types.DomainNutrition, 0.9))
	}
	s := NewMemoryStore(nil, docs)
	s.Initialize(context.Background())

	matches, err := s.Search(context.Background(), "magnesium supplement", SearchParams{TopK: 2, ScoreThreshold: 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Errorf("expected topK=2 matches, got %d", len(matches))
	}
}

func TestMemoryStoreAddGetDelete(t *testing.T) {
	s := NewMemoryStore(nil, nil)
	ctx := context.Background()

	if err := s.AddDocuments(ctx, []types.KnowledgeDocument{doc("x", "text", types.DomainGeneral, 0.5)}); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetDocuments(ctx, []string{"x", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "x" {
		t.Fatalf("unexpected documents: %+v", got)
	}

	if err := s.DeleteDocuments(ctx, []string{"x"}); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetDocuments(ctx, []string{"x"})
	if len(got) != 0 {
		t.Error("document not deleted")
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	if got := cosineSimilarity(a, a); got < 0.999 {
		t.Errorf("identical vectors should score ~1, got %v", got)
	}
	if got := cosineSimilarity(a, []float32{0, 1, 0}); got != 0 {
		t.Errorf("orthogonal vectors should score 0, got %v", got)
	}
	if got := cosineSimilarity(a, []float32{1, 0}); got != 0 {
		t.Errorf("mismatched lengths should score 0, got %v", got)
	}
}
