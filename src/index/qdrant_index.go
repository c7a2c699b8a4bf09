package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// --- Qdrant types ---

type Distance string

const (
	DistanceCosine Distance = "Cosine"
	DistanceDot    Distance = "Dot"
	DistanceEuclid Distance = "Euclid"
)

// CreateCollectionRequest matches Qdrant's API; Vectors supports single or named vectors.
type CreateCollectionRequest struct {
	Vectors           json.RawMessage `json:"vectors"` // {"size":768,"distance":"Cosine"}
	ShardNumber       *int            `json:"shard_number,omitempty"`
	ReplicationFactor *int            `json:"replication_factor,omitempty"`
	OnDiskPayload     *bool           `json:"on_disk_payload,omitempty"`
}

// qdrantStatus supports both `status: "ok"` and `status: {"error":"..."}`.
type qdrantStatus struct {
	State string
	Error string
}

func (s *qdrantStatus) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		s.State = strings.ToLower(v)
		return nil
	}
	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if obj.Error != "" {
		s.State = "error"
		s.Error = obj.Error
	}
	return nil
}

type qdrantEnvelope[T any] struct {
	Status qdrantStatus `json:"status"`
	Time   float64      `json:"time"`
	Result T            `json:"result"`
}

type qdrantPointResult struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

// qdrantSchemaFile is the JSON format expected at schemaPath.
type qdrantSchemaFile struct {
	BaseURL    string                  `json:"base_url"`
	APIKey     string                  `json:"api_key"`
	Collection string                  `json:"collection"`
	Request    CreateCollectionRequest `json:"request"`
}

// QdrantIndex implements VectorIndex against Qdrant's HTTP API.
type QdrantIndex struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
}

func NewQdrantIndex(baseURL, collection, apiKey string) *QdrantIndex {
	if baseURL == "" {
		baseURL = "http://localhost:6333"
	}
	return &QdrantIndex{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		collection: collection,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (qi *QdrantIndex) Index(ctx context.Context, doc Document, embedding []float32) error {
	id := doc.ID
	if id == "" {
		id = uuid.NewString()
	}
	payload := map[string]any{"doc_id": id, "content": doc.Text}
	for k, v := range doc.Metadata {
		payload["meta_"+k] = v
	}
	body := map[string]any{
		"points": []map[string]any{{
			"id":      uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String(),
			"vector":  embedding,
			"payload": payload,
		}},
	}
	var out qdrantEnvelope[json.RawMessage]
	return qi.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", url.PathEscape(qi.collection)), body, &out)
}

func (qi *QdrantIndex) Search(ctx context.Context, queryEmbedding []float32, k int) ([]ScoredDocument, error) {
	if k <= 0 {
		return nil, nil
	}
	body := map[string]any{
		"vector":       queryEmbedding,
		"limit":        k,
		"with_payload": true,
	}
	var out qdrantEnvelope[[]qdrantPointResult]
	err := qi.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", url.PathEscape(qi.collection)), body, &out)
	if err != nil {
		return nil, err
	}
	results := make([]ScoredDocument, 0, len(out.Result))
	for _, p := range out.Result {
		doc := Document{}
		if v, ok := p.Payload["doc_id"].(string); ok {
			doc.ID = v
		}
		if v, ok := p.Payload["content"].(string); ok {
			doc.Text = v
		}
		for k, v := range p.Payload {
			if strings.HasPrefix(k, "meta_") {
				if s, ok := v.(string); ok {
					if doc.Metadata == nil {
						doc.Metadata = map[string]string{}
					}
					doc.Metadata[strings.TrimPrefix(k, "meta_")] = s
				}
			}
		}
		results = append(results, ScoredDocument{Document: doc, Score: p.Score})
	}
	return results, nil
}

// CreateSchema implements SchemaInitializer.
// schemaPath must point to a JSON file that matches qdrantSchemaFile.
func (qi *QdrantIndex) CreateSchema(ctx context.Context, schemaPath string) error {
	if schemaPath == "" {
		return errors.New("schemaPath is empty")
	}
	f, err := os.Open(schemaPath)
	if err != nil {
		return fmt.Errorf("open schema file: %w", err)
	}
	defer f.Close()

	// Limit read to 1 MiB for safety.
	data, err := io.ReadAll(io.LimitReader(f, 1<<20))
	if err != nil {
		return fmt.Errorf("read schema file: %w", err)
	}

	var cfg qdrantSchemaFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("unmarshal schema file (JSON): %w", err)
	}
	if cfg.Collection == "" {
		cfg.Collection = qi.collection
	}
	if cfg.Collection == "" {
		return errors.New("schema file missing 'collection'")
	}
	if len(cfg.Request.Vectors) == 0 {
		return errors.New("schema file 'request.vectors' is required")
	}
	if cfg.BaseURL != "" {
		qi.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.APIKey != "" {
		qi.apiKey = cfg.APIKey
	} else if qi.apiKey == "" {
		qi.apiKey = os.Getenv("QDRANT_API_KEY")
	}

	var out qdrantEnvelope[json.RawMessage]
	err = qi.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", url.PathEscape(cfg.Collection)), cfg.Request, &out)
	// Re-creating an existing collection is not an error; Qdrant reports conflicts distinctly.
	if err != nil && strings.Contains(err.Error(), "already exists") {
		return nil
	}
	return err
}

func (qi *QdrantIndex) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, qi.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "go-rag-qdrant/1.0")
	if qi.apiKey != "" {
		// Either header works; sending both covers deployments with either check.
		req.Header.Set("api-key", qi.apiKey)
		req.Header.Set("Authorization", "Bearer "+qi.apiKey)
	}

	resp, err := qi.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if env, ok := out.(interface{ statusError() error }); ok {
		return env.statusError()
	}
	return nil
}

func (e qdrantEnvelope[T]) statusError() error {
	if e.Status.State == "error" {
		return fmt.Errorf("qdrant error: %s", e.Status.Error)
	}
	return nil
}
