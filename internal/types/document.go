package types

import "time"

// KnowledgeDocument is a unit of retrievable domain knowledge. Documents are
// seeded at store initialization or added by an ingestion collaborator; the
// core only reads them.
type KnowledgeDocument struct {
	ID        string           `json:"id"`
	Text      string           `json:"text"`
	Metadata  DocumentMetadata `json:"metadata"`
	Embedding []float32        `json:"embedding,omitempty"`
}

type DocumentMetadata struct {
	Source      string     `json:"source"`
	Domain      Domain     `json:"domain"`
	Reliability float64    `json:"reliability"` // 0-1
	Citation    string     `json:"citation,omitempty"`
	URL         string     `json:"url,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// RetrievalMatch is a scored retrieval hit. Produced per search call, not
// persisted.
type RetrievalMatch struct {
	Document KnowledgeDocument `json:"document"`
	Score    float64           `json:"score"`
	Distance float64           `json:"distance,omitempty"`
}

// RetrievedSource describes one document that contributed to an enhanced
// answer, as surfaced to callers.
type RetrievedSource struct {
	Text     string           `json:"text"`
	Metadata DocumentMetadata `json:"metadata"`
	Score    float64          `json:"score"`
	Citation string           `json:"citation,omitempty"`
}

// EnhancedAnswer is a retrieval-augmented completion: the final text plus
// the sources that shaped it. Applied is false when no documents cleared the
// relevance bar and the provider was called with the bare query.
type EnhancedAnswer struct {
	Text    string            `json:"text"`
	Sources []RetrievedSource `json:"sources"`
	Applied bool              `json:"applied"`
}
