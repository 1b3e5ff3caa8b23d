// Package docstore holds domain-knowledge documents and answers filtered
// similarity search over them. The in-memory store is the default; the
// postgres store backs real deployments.
package docstore

import (
	"context"
	"time"

	"github.com/halcyon-health/halcyon/internal/types"
)

// SearchParams bound one search call.
type SearchParams struct {
	TopK           int
	ScoreThreshold float64
	Filter         *Filter
}

// Filter restricts matches by document metadata. Zero-valued fields do not
// filter.
type Filter struct {
	Domains        []types.Domain
	MinReliability float64
	Sources        []string
	Tags           []string
	After          *time.Time
	Before         *time.Time
}

// Matches reports whether a document's metadata passes the filter.
func (f *Filter) Matches(md types.DocumentMetadata) bool {
	if f == nil {
		return true
	}
	if len(f.Domains) > 0 && !containsDomain(f.Domains, md.Domain) {
		return false
	}
	if md.Reliability < f.MinReliability {
		return false
	}
	if len(f.Sources) > 0 && !containsString(f.Sources, md.Source) {
		return false
	}
	if len(f.Tags) > 0 && !intersects(f.Tags, md.Tags) {
		return false
	}
	if f.After != nil && (md.PublishedAt == nil || md.PublishedAt.Before(*f.After)) {
		return false
	}
	if f.Before != nil && (md.PublishedAt == nil || md.PublishedAt.After(*f.Before)) {
		return false
	}
	return true
}

func containsDomain(ds []types.Domain, d types.Domain) bool {
	for _, x := range ds {
		if x == d {
			return true
		}
	}
	return false
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// Store is the document store contract. Results from Search are ordered by
// descending score, already thresholded and truncated to TopK.
type Store interface {
	Initialize(ctx context.Context) error
	Search(ctx context.Context, query string, params SearchParams) ([]types.RetrievalMatch, error)
	AddDocuments(ctx context.Context, docs []types.KnowledgeDocument) error
	GetDocuments(ctx context.Context, ids []string) ([]types.KnowledgeDocument, error)
	DeleteDocuments(ctx context.Context, ids []string) error
}
