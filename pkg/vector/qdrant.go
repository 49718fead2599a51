package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// QdrantStore talks to Qdrant over its REST API.
type QdrantStore struct {
	baseURL    string
	collection string
	httpClient *http.Client
	logger     *zap.Logger

	// ready flips once the collection is known to exist; later
	// EnsureCollection calls return without a round trip.
	ready atomic.Bool
}

// Ensure QdrantStore satisfies Store at compile time.
var _ Store = (*QdrantStore)(nil)

// NewQdrantStore creates a store for the given Qdrant endpoint and collection.
func NewQdrantStore(baseURL, collection string, timeout time.Duration, logger *zap.Logger) *QdrantStore {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &QdrantStore{
		baseURL:    baseURL,
		collection: collection,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("vector"),
	}
}

// EnsureCollection creates the collection with cosine distance if it does not
// already exist. Idempotent; after the first success it is a no-op.
func (s *QdrantStore) EnsureCollection(ctx context.Context, dim int) error {
	if s.ready.Load() {
		return nil
	}

	status, _, err := s.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", s.collection), nil)
	if err != nil {
		return newIndexError("ensure", 0, err)
	}
	if status == http.StatusOK {
		s.ready.Store(true)
		return nil
	}
	if status != http.StatusNotFound {
		return newIndexError("ensure", status, fmt.Errorf("unexpected status checking collection"))
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Cosine",
		},
	}
	status, respBody, err := s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", s.collection), body)
	if err != nil {
		return newIndexError("ensure", 0, err)
	}
	if status < 200 || status >= 300 {
		return newIndexError("ensure", status, fmt.Errorf("create collection: %s", truncateBody(respBody)))
	}

	s.ready.Store(true)
	s.logger.Info("created vector collection",
		zap.String("collection", s.collection),
		zap.Int("dim", dim))
	return nil
}

// Upsert writes a vector and its payload under the given point ID.
func (s *QdrantStore) Upsert(ctx context.Context, id string, vec []float32, payload Payload) error {
	body := map[string]any{
		"points": []map[string]any{
			{
				"id":      id,
				"vector":  vec,
				"payload": payload,
			},
		},
	}

	status, respBody, err := s.do(ctx, http.MethodPut,
		fmt.Sprintf("/collections/%s/points?wait=true", s.collection), body)
	if err != nil {
		return newIndexError("upsert", 0, err)
	}
	if status < 200 || status >= 300 {
		return newIndexError("upsert", status, fmt.Errorf("upsert point: %s", truncateBody(respBody)))
	}
	return nil
}

// Delete removes the point with the given ID.
func (s *QdrantStore) Delete(ctx context.Context, id string) error {
	body := map[string]any{
		"points": []string{id},
	}

	status, respBody, err := s.do(ctx, http.MethodPost,
		fmt.Sprintf("/collections/%s/points/delete?wait=true", s.collection), body)
	if err != nil {
		return newIndexError("delete", 0, err)
	}
	if status < 200 || status >= 300 {
		return newIndexError("delete", status, fmt.Errorf("delete point: %s", truncateBody(respBody)))
	}
	return nil
}

// searchResponse mirrors Qdrant's search result envelope.
type searchResponse struct {
	Result []struct {
		ID    any     `json:"id"`
		Score float64 `json:"score"`
	} `json:"result"`
}

// Search returns the topK nearest points to vec, ordered by descending score.
func (s *QdrantStore) Search(ctx context.Context, vec []float32, topK int, knowledgeType string) ([]ScoredID, error) {
	body := map[string]any{
		"vector": vec,
		"limit":  topK,
	}
	if knowledgeType != "" {
		body["filter"] = map[string]any{
			"must": []map[string]any{
				{
					"key":   "knowledge_type",
					"match": map[string]any{"value": knowledgeType},
				},
			},
		}
	}

	status, respBody, err := s.do(ctx, http.MethodPost,
		fmt.Sprintf("/collections/%s/points/search", s.collection), body)
	if err != nil {
		return nil, newIndexError("search", 0, err)
	}
	if status < 200 || status >= 300 {
		return nil, newIndexError("search", status, fmt.Errorf("search points: %s", truncateBody(respBody)))
	}

	var parsed searchResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, newIndexError("search", status, fmt.Errorf("decode response: %w", err))
	}

	hits := make([]ScoredID, 0, len(parsed.Result))
	for _, r := range parsed.Result {
		hits = append(hits, ScoredID{ID: fmt.Sprintf("%v", r.ID), Score: r.Score})
	}
	return hits, nil
}

// do issues a JSON request and returns the status code and response body.
func (s *QdrantStore) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
