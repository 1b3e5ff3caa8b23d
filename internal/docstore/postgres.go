package docstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/halcyon-health/halcyon/internal/types"
)

// PostgresStore backs the document store with pgvector. It requires an
// embedder: similarity is cosine distance over stored embeddings.
type PostgresStore struct {
	pool     *pgxpool.Pool
	embedder Embedder
}

func NewPostgresStore(pool *pgxpool.Pool, embedder Embedder) *PostgresStore {
	return &PostgresStore{pool: pool, embedder: embedder}
}

// Initialize verifies connectivity. Schema management is cmd/migrate's job.
func (s *PostgresStore) Initialize(ctx context.Context) error {
	if s.embedder == nil {
		return fmt.Errorf("postgres store requires an embedder")
	}
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) AddDocuments(ctx context.Context, docs []types.KnowledgeDocument) error {
	for _, d := range docs {
		emb := d.Embedding
		if len(emb) == 0 {
			var err error
			emb, err = s.embedder.Embed(ctx, d.Text)
			if err != nil {
				return fmt.Errorf("embed document %s: %w", d.ID, err)
			}
		}
		_, err := s.pool.Exec(ctx, `
			INSERT INTO knowledge_documents
				(id, body, source, domain, reliability, citation, url, tags, published_at, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::vector)
			ON CONFLICT (id) DO UPDATE SET
				body = EXCLUDED.body, source = EXCLUDED.source, domain = EXCLUDED.domain,
				reliability = EXCLUDED.reliability, citation = EXCLUDED.citation,
				url = EXCLUDED.url, tags = EXCLUDED.tags,
				published_at = EXCLUDED.published_at, embedding = EXCLUDED.embedding`,
			d.ID, d.Text, d.Metadata.Source, string(d.Metadata.Domain), d.Metadata.Reliability,
			d.Metadata.Citation, d.Metadata.URL, d.Metadata.Tags, d.Metadata.PublishedAt,
			vectorLiteral(emb),
		)
		if err != nil {
			return fmt.Errorf("insert document %s: %w", d.ID, err)
		}
	}
	return nil
}

func (s *PostgresStore) GetDocuments(ctx context.Context, ids []string) ([]types.KnowledgeDocument, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, body, source, domain, reliability, citation, url, tags, published_at
		FROM knowledge_documents WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []types.KnowledgeDocument
	for rows.Next() {
		var d types.KnowledgeDocument
		var domain string
		if err := rows.Scan(&d.ID, &d.Text, &d.Metadata.Source, &domain, &d.Metadata.Reliability,
			&d.Metadata.Citation, &d.Metadata.URL, &d.Metadata.Tags, &d.Metadata.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Metadata.Domain = types.Domain(domain)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteDocuments(ctx context.Context, ids []string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM knowledge_documents WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}

func (s *PostgresStore) Search(ctx context.Context, query string, params SearchParams) ([]types.RetrievalMatch, error) {
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	sql := strings.Builder{}
	sql.WriteString(`
		SELECT id, body, source, domain, reliability, citation, url, tags, published_at,
		       1 - (embedding <=> $1::vector) AS score
		FROM knowledge_documents`)

	args := []any{vectorLiteral(emb)}
	var where []string
	f := params.Filter
	if f != nil {
		if len(f.Domains) > 0 {
			ds := make([]string, len(f.Domains))
			for i, d := range f.Domains {
				ds[i] = string(d)
			}
			args = append(args, ds)
			where = append(where, fmt.Sprintf("domain = ANY($%d)", len(args)))
		}
		if f.MinReliability > 0 {
			args = append(args, f.MinReliability)
			where = append(where, fmt.Sprintf("reliability >= $%d", len(args)))
		}
		if len(f.Sources) > 0 {
			args = append(args, f.Sources)
			where = append(where, fmt.Sprintf("source = ANY($%d)", len(args)))
		}
		if len(f.Tags) > 0 {
			args = append(args, f.Tags)
			where = append(where, fmt.Sprintf("tags && $%d", len(args)))
		}
		if f.After != nil {
			args = append(args, *f.After)
			where = append(where, fmt.Sprintf("published_at >= $%d", len(args)))
		}
		if f.Before != nil {
			args = append(args, *f.Before)
			where = append(where, fmt.Sprintf("published_at <= $%d", len(args)))
		}
	}
	args = append(args, params.ScoreThreshold)
	where = append(where, fmt.Sprintf("1 - (embedding <=> $1::vector) >= $%d", len(args)))

	sql.WriteString(" WHERE " + strings.Join(where, " AND "))
	sql.WriteString(" ORDER BY embedding <=> $1::vector")
	if params.TopK > 0 {
		args = append(args, params.TopK)
		sql.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}

	rows, err := s.pool.Query(ctx, sql.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	var matches []types.RetrievalMatch
	for rows.Next() {
		var d types.KnowledgeDocument
		var domain string
		var score float64
		if err := rows.Scan(&d.ID, &d.Text, &d.Metadata.Source, &domain, &d.Metadata.Reliability,
			&d.Metadata.Citation, &d.Metadata.URL, &d.Metadata.Tags, &d.Metadata.PublishedAt, &score); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		d.Metadata.Domain = types.Domain(domain)
		matches = append(matches, types.RetrievalMatch{Document: d, Score: score, Distance: 1 - score})
	}
	return matches, rows.Err()
}

// vectorLiteral renders an embedding in pgvector's input syntax.
func vectorLiteral(emb []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range emb {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
