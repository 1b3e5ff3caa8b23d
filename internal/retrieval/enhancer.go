// Package retrieval enriches prompts with knowledge retrieved from the
// document store before handing them to a completion provider.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/halcyon-health/halcyon/internal/config"
	"github.com/halcyon-health/halcyon/internal/docstore"
	"github.com/halcyon-health/halcyon/internal/provider"
	"github.com/halcyon-health/halcyon/internal/types"
)

type Enhancer struct {
	store  docstore.Store
	cfg    func() config.RetrievalConfig
	logger *slog.Logger
}

func NewEnhancer(store docstore.Store, cfg func() config.RetrievalConfig, logger *slog.Logger) *Enhancer {
	return &Enhancer{store: store, cfg: cfg, logger: logger}
}

// Retrieve searches the document store for the query, applies reranking, and
// returns the contributing sources in final order.
func (e *Enhancer) Retrieve(ctx context.Context, query string, domain types.Domain) ([]types.RetrievedSource, error) {
	cfg := e.cfg()

	params := docstore.SearchParams{
		TopK:           cfg.MaxDocuments,
		ScoreThreshold: cfg.MinRelevanceScore,
	}
	if domain != "" && domain != types.DomainGeneral {
		params.Filter = &docstore.Filter{
			Domains:        []types.Domain{domain},
			MinReliability: cfg.MinReliability,
		}
	}

	matches, err := e.store.Search(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("document search: %w", err)
	}

	if cfg.Rerank.Enabled {
		matches = rerank(matches, query, domain, cfg.Rerank)
	}

	sources := make([]types.RetrievedSource, 0, len(matches))
	for _, m := range matches {
		sources = append(sources, types.RetrievedSource{
			Text:     m.Document.Text,
			Metadata: m.Document.Metadata,
			Score:    m.Score,
			Citation: m.Document.Metadata.Citation,
		})
	}
	return sources, nil
}

// rerank recomputes a blended score per match and resorts descending:
// vectorWeight * (similarity * reliability * domainBoost-if-match) plus
// termWeight * (fraction of query terms found verbatim), clamped to [0,1].
func rerank(matches []types.RetrievalMatch, query string, domain types.Domain, cfg config.RerankConfig) []types.RetrievalMatch {
	for i, m := range matches {
		vector := m.Score * m.Document.Metadata.Reliability
		if domain != "" && domain != types.DomainGeneral && m.Document.Metadata.Domain == domain {
			vector *= cfg.DomainBoost
		}
		blended := cfg.VectorWeight*vector + cfg.TermWeight*termOverlap(query, m.Document.Text)
		if blended > 1 {
			blended = 1
		}
		if blended < 0 {
			blended = 0
		}
		matches[i].Score = blended
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// termOverlap is the fraction of distinct query terms appearing verbatim in
// the document text.
func termOverlap(query, text string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

// FormatContext renders retrieved sources as prompt context, one block per
// document with its citation (or source name) appended.
func FormatContext(sources []types.RetrievedSource) string {
	var blocks []string
	for _, s := range sources {
		ref := s.Citation
		if ref == "" {
			ref = s.Metadata.Source
		}
		if ref != "" {
			blocks = append(blocks, s.Text+" ["+ref+"]")
		} else {
			blocks = append(blocks, s.Text)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (e *Enhancer) buildPrompt(query string, domain types.Domain, extraContext string, sources []types.RetrievedSource) types.Prompt {
	ctx := FormatContext(sources)
	if extraContext != "" {
		if ctx != "" {
			ctx = extraContext + "\n\n" + ctx
		} else {
			ctx = extraContext
		}
	}
	return types.Prompt{
		Query:             query,
		Domain:            domain,
		Context:           ctx,
		IncludeDisclaimer: true,
	}
}

// EnhanceQuery retrieves relevant documents, builds an enriched prompt, and
// completes it through the given provider. When nothing clears the
// relevance bar the provider is called with the bare query and Applied is
// false.
func (e *Enhancer) EnhanceQuery(ctx context.Context, p provider.Provider, query string, domain types.Domain, extraContext string) (types.EnhancedAnswer, error) {
	sources, err := e.Retrieve(ctx, query, domain)
	if err != nil {
		return types.EnhancedAnswer{}, err
	}

	if len(sources) == 0 {
		res, err := p.Complete(ctx, types.Prompt{Query: query, Domain: domain, Context: extraContext, IncludeDisclaimer: true}, types.CompletionOptions{})
		if err != nil {
			return types.EnhancedAnswer{}, fmt.Errorf("completion without context: %w", err)
		}
		return types.EnhancedAnswer{Text: res.Text, Applied: false}, nil
	}

	res, err := p.Complete(ctx, e.buildPrompt(query, domain, extraContext, sources), types.CompletionOptions{})
	if err != nil {
		return types.EnhancedAnswer{}, fmt.Errorf("enhanced completion: %w", err)
	}

	e.logger.Debug("query enhanced", "domain", domain, "sources", len(sources))
	return types.EnhancedAnswer{Text: res.Text, Sources: sources, Applied: true}, nil
}

// StreamEnhancedResponse performs the same retrieval and prompt assembly,
// then streams through the provider. Retrieval failures surface as a single
// terminal error fragment instead of propagating into the caller's loop.
func (e *Enhancer) StreamEnhancedResponse(ctx context.Context, p provider.Provider, query string, domain types.Domain, extraContext string) <-chan types.StreamFragment {
	out := make(chan types.StreamFragment, 16)

	go func() {
		defer close(out)

		sources, err := e.Retrieve(ctx, query, domain)
		if err != nil {
			out <- types.StreamFragment{Done: true, Err: fmt.Errorf("document search: %w", err)}
			return
		}

		var prompt types.Prompt
		if len(sources) == 0 {
			prompt = types.Prompt{Query: query, Domain: domain, Context: extraContext, IncludeDisclaimer: true}
		} else {
			prompt = e.buildPrompt(query, domain, extraContext, sources)
		}

		stream, err := p.Stream(ctx, prompt, types.CompletionOptions{})
		if err != nil {
			out <- types.StreamFragment{Done: true, Err: err}
			return
		}
		for f := range stream {
			out <- f
			if f.Done {
				return
			}
		}
	}()

	return out
}
