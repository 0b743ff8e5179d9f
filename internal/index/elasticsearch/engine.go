// Package elasticsearch implements the product search index on Elasticsearch.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/congquynguyen296/hq-shop/internal/domain"
	"github.com/congquynguyen296/hq-shop/internal/index"
	"github.com/congquynguyen296/hq-shop/internal/query"
)

// Config configures the Elasticsearch engine.
type Config struct {
	URL       string
	IndexName string

	// Transport, when set, replaces the client's default HTTP transport.
	Transport http.RoundTripper
}

// Engine is an Elasticsearch-backed index.Index.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

var (
	_ index.Index  = (*Engine)(nil)
	_ index.Pruner = (*Engine)(nil)
)

// fieldIndexedAt stamps each stored document with its last write time.
const fieldIndexedAt = "indexedAt"

// esSearchResponse is the structure used to decode Elasticsearch search responses.
type esSearchResponse struct {
	Took int `json:"took"`
	Hits *struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score  *float64       `json:"_score"`
			Source domain.Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// esBulkResponse is the structure used to decode Elasticsearch bulk responses.
type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

// New creates an Elasticsearch engine. The client never retries; a failed
// request is reported once and the caller decides what to do. If
// cfg.IndexName is empty, DefaultIndexName is used.
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{cfg.URL},
		Transport:    cfg.Transport,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	return &Engine{
		client:    client,
		indexName: cfg.IndexName,
		logger:    logger,
	}, nil
}

// IndexName returns the name of the index the engine reads and writes.
func (e *Engine) IndexName() string {
	return e.indexName
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return transportError("ping", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return statusError("ping", res)
	}
	return nil
}

// EnsureIndex creates the products index with its mapping if it does not exist.
func (e *Engine) EnsureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.indexName}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return transportError("check index exists", err)
	}
	_ = res.Body.Close()

	if res.StatusCode == http.StatusOK {
		e.logger.Info("elasticsearch index already exists", slog.String("index", e.indexName))
		return nil
	}

	res, err = e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(buildIndexMapping())),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return transportError("create index", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return statusError("create index", res)
	}

	e.logger.Info("elasticsearch index created", slog.String("index", e.indexName))
	return nil
}

// Search executes a compiled query and returns one page of matches.
func (e *Engine) Search(ctx context.Context, q *query.IndexQuery) (*index.Hits, error) {
	data, err := json.Marshal(q.DSL())
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, transportError("search", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, statusError("search", res)
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, malformed("search", err)
	}
	if esResp.Hits == nil {
		return nil, malformed("search", fmt.Errorf("missing hits"))
	}

	items := make([]domain.Product, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		p := hit.Source
		if hit.Score != nil {
			p.Score = *hit.Score
		}
		if p.Tags == nil {
			p.Tags = []string{}
		}
		items = append(items, p)
	}

	e.logger.DebugContext(ctx, "elasticsearch search",
		slog.Int("took_ms", esResp.Took),
		slog.Int64("total", esResp.Hits.Total.Value),
	)

	return &index.Hits{
		Total: esResp.Hits.Total.Value,
		Items: items,
	}, nil
}

// Index adds or updates a single product document.
func (e *Engine) Index(ctx context.Context, p *domain.Product) error {
	data, err := json.Marshal(document(p, time.Now()))
	if err != nil {
		return fmt.Errorf("elasticsearch index: marshal product: %w", err)
	}

	res, err := e.client.Index(
		e.indexName,
		bytes.NewReader(data),
		e.client.Index.WithDocumentID(p.ID),
		e.client.Index.WithRefresh("true"),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return transportError("index", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return statusError("index", res)
	}

	e.logger.DebugContext(ctx, "indexed product", slog.String("id", p.ID), slog.String("name", p.Name))
	return nil
}

// BulkIndex adds or updates many product documents in one bulk request.
func (e *Engine) BulkIndex(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	now := time.Now()
	for i := range products {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_index": e.indexName, "_id": products[i].ID},
		}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("elasticsearch bulk: encode action: %w", err)
		}
		if err := enc.Encode(document(&products[i], now)); err != nil {
			return fmt.Errorf("elasticsearch bulk: encode product %s: %w", products[i].ID, err)
		}
	}

	res, err := e.client.Bulk(
		bytes.NewReader(body.Bytes()),
		e.client.Bulk.WithIndex(e.indexName),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return transportError("bulk", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return statusError("bulk", res)
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return malformed("bulk", err)
	}
	if bulkResp.Errors {
		failed := 0
		var first string
		for _, item := range bulkResp.Items {
			if item.Index.Status >= 300 {
				if failed == 0 {
					first = fmt.Sprintf("%s: %s: %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason)
				}
				failed++
			}
		}
		return fmt.Errorf("elasticsearch bulk: %d of %d documents failed, first: %s", failed, len(products), first)
	}

	e.logger.DebugContext(ctx, "bulk indexed products", slog.Int("count", len(products)))
	return nil
}

// Delete removes a product document by id. A missing document is ignored.
func (e *Engine) Delete(ctx context.Context, id string) error {
	res, err := e.client.Delete(
		e.indexName,
		id,
		e.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return transportError("delete", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return statusError("delete", res)
	}

	e.logger.DebugContext(ctx, "deleted product", slog.String("id", id))
	return nil
}

// DeleteIndex removes the entire index. A missing index is treated as success.
func (e *Engine) DeleteIndex(ctx context.Context) error {
	res, err := e.client.Indices.Delete(
		[]string{e.indexName},
		e.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return transportError("delete index", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return statusError("delete index", res)
	}

	e.logger.Info("elasticsearch index deleted", slog.String("index", e.indexName))
	return nil
}

// storedDocument is the projection written to the index.
type storedDocument struct {
	domain.Product
	IndexedAt time.Time `json:"indexedAt"`
}

// document strips the per-query score and stamps the write time.
func document(p *domain.Product, at time.Time) storedDocument {
	doc := storedDocument{Product: *p, IndexedAt: at.UTC()}
	doc.Score = 0
	return doc
}

// PruneIndexedBefore deletes documents whose indexedAt is older than cutoff
// or missing, in one delete-by-query.
func (e *Engine) PruneIndexedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	body, err := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{"range": map[string]interface{}{
						fieldIndexedAt: map[string]interface{}{"lt": cutoff.UTC().Format(time.RFC3339Nano)},
					}},
					map[string]interface{}{"bool": map[string]interface{}{
						"must_not": map[string]interface{}{"exists": map[string]interface{}{"field": fieldIndexedAt}},
					}},
				},
				"minimum_should_match": 1,
			},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("elasticsearch prune: encode query: %w", err)
	}

	res, err := e.client.DeleteByQuery(
		[]string{e.indexName},
		bytes.NewReader(body),
		e.client.DeleteByQuery.WithConflicts("proceed"),
		e.client.DeleteByQuery.WithRefresh(true),
		e.client.DeleteByQuery.WithContext(ctx),
	)
	if err != nil {
		return 0, transportError("prune", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return 0, statusError("prune", res)
	}

	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, malformed("prune", err)
	}
	e.logger.DebugContext(ctx, "pruned stale products", slog.Int64("deleted", out.Deleted))
	return out.Deleted, nil
}
