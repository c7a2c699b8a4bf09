package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresIndex implements VectorIndex using Postgres + pgvector.
type PostgresIndex struct {
	DB *pgxpool.Pool
}

// NewPostgresIndex connects to Postgres and returns a pgvector-backed index.
func NewPostgresIndex(ctx context.Context, connStr string) (*PostgresIndex, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return &PostgresIndex{DB: db}, nil
}

func (pi *PostgresIndex) Index(ctx context.Context, doc Document, embedding []float32) error {
	if pi == nil || pi.DB == nil {
		return nil
	}
	metaJSON, _ := json.Marshal(doc.Metadata)
	query := `
                INSERT INTO rag_documents (doc_id, content, metadata, embedding)
                VALUES ($1, $2, $3::jsonb, $4::vector)
                ON CONFLICT (doc_id) DO UPDATE
                SET content = EXCLUDED.content, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding;
        `
	_, err := pi.DB.Exec(ctx, query, doc.ID, doc.Text, string(metaJSON), pgVector(embedding))
	return err
}

func (pi *PostgresIndex) Search(ctx context.Context, queryEmbedding []float32, k int) ([]ScoredDocument, error) {
	if pi == nil || pi.DB == nil {
		return nil, nil
	}
	// pgvector's <=> is cosine distance; similarity = 1 - distance.
	rows, err := pi.DB.Query(ctx, `
        SELECT doc_id, content, metadata, 1 - (embedding <=> $1::vector) AS score
        FROM rag_documents
        ORDER BY embedding <=> $1::vector
        LIMIT $2;
        `, pgVector(queryEmbedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ScoredDocument
	for rows.Next() {
		var (
			doc      Document
			metaJSON string
			score    float64
		)
		if err := rows.Scan(&doc.ID, &doc.Text, &metaJSON, &score); err != nil {
			return nil, err
		}
		if metaJSON != "" {
			_ = json.Unmarshal([]byte(metaJSON), &doc.Metadata)
		}
		results = append(results, ScoredDocument{Document: doc, Score: score})
	}
	return results, rows.Err()
}

// CreateSchema ensures the pgvector extension and document table exist.
func (pi *PostgresIndex) CreateSchema(ctx context.Context, schemaPath string) error {
	if pi == nil || pi.DB == nil {
		return nil
	}
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	if _, err := pi.DB.Exec(ctx, string(data)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (pi *PostgresIndex) Close() error {
	if pi == nil || pi.DB == nil {
		return nil
	}
	pi.DB.Close()
	return nil
}

func pgVector(embedding []float32) string {
	jsonEmbed, _ := json.Marshal(embedding)
	return fmt.Sprintf("[%s]", strings.Trim(string(jsonEmbed), "[]"))
}
