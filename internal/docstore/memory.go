package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/halcyon-health/halcyon/internal/types"
)

// MemoryStore is an in-memory document store. Scoring uses cosine
// similarity when both an embedder and document embeddings are present,
// lexical term overlap otherwise.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]types.KnowledgeDocument
	embedder Embedder
	seed     []types.KnowledgeDocument
}

// NewMemoryStore creates a memory store. embedder may be nil; seed
// documents are loaded by Initialize.
func NewMemoryStore(embedder Embedder, seed []types.KnowledgeDocument) *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]types.KnowledgeDocument),
		embedder: embedder,
		seed:     seed,
	}
}

func (s *MemoryStore) Initialize(ctx context.Context) error {
	if len(s.seed) == 0 {
		return nil
	}
	return s.AddDocuments(ctx, s.seed)
}

func (s *MemoryStore) AddDocuments(ctx context.Context, docs []types.KnowledgeDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document with empty id")
		}
		if len(d.Embedding) == 0 && s.embedder != nil {
			emb, err := s.embedder.Embed(ctx, d.Text)
			if err != nil {
				return fmt.Errorf("embed document %s: %w", d.ID, err)
			}
			d.Embedding = emb
		}
		s.docs[d.ID] = d
	}
	return nil
}

func (s *MemoryStore) GetDocuments(_ context.Context, ids []string) ([]types.KnowledgeDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.KnowledgeDocument
	for _, id := range ids {
		if d, ok := s.docs[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *MemoryStore) DeleteDocuments(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.docs, id)
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, query string, params SearchParams) ([]types.RetrievalMatch, error) {
	var queryEmb []float32
	if s.embedder != nil {
		emb, err := s.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		queryEmb = emb
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []types.RetrievalMatch
	for _, d := range s.docs {
		if !params.Filter.Matches(d.Metadata) {
			continue
		}

		var score float64
		if len(queryEmb) > 0 && len(d.Embedding) > 0 {
			score = cosineSimilarity(queryEmb, d.Embedding)
		} else {
			score = lexicalSimilarity(query, d.Text)
		}

		if score < params.ScoreThreshold {
			continue
		}
		matches = append(matches, types.RetrievalMatch{
			Document: d,
			Score:    score,
			Distance: 1 - score,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Document.ID < matches[j].Document.ID
	})

	if params.TopK > 0 && len(matches) > params.TopK {
		matches = matches[:params.TopK]
	}
	return matches, nil
}
