package mockserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/samber/lo"

	"shopping-assistant/internal/common/database"
	"shopping-assistant/internal/common/errors"
	"shopping-assistant/pkg/catalog"
)

// Catalog answers product lookups for the responder and the cart endpoints.
type Catalog interface {
	Search(ctx context.Context, keyword string, limit int) ([]catalog.Product, error)
	Get(ctx context.Context, productID string) (catalog.Product, error)
}

// MemoryCatalog searches a seed catalog held in memory.
type MemoryCatalog struct {
	products []catalog.Product
	byID     map[string]catalog.Product
}

func NewMemoryCatalog(c *catalog.Catalog) *MemoryCatalog {
	return &MemoryCatalog{
		products: c.Products,
		byID:     lo.KeyBy(c.Products, func(p catalog.Product) string { return p.ProductID }),
	}
}

func (m *MemoryCatalog) Search(ctx context.Context, keyword string, limit int) ([]catalog.Product, error) {
	matches := lo.Filter(m.products, func(p catalog.Product, _ int) bool {
		return p.Matches(keyword)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *MemoryCatalog) Get(ctx context.Context, productID string) (catalog.Product, error) {
	p, ok := m.byID[productID]
	if !ok {
		return catalog.Product{}, errors.NewResourceNotFoundError("product", productID)
	}
	return p, nil
}

// ElasticsearchCatalog searches the products index of an Elasticsearch cluster.
type ElasticsearchCatalog struct {
	es *database.ElasticsearchClient
}

func NewElasticsearchCatalog(es *database.ElasticsearchClient) *ElasticsearchCatalog {
	return &ElasticsearchCatalog{es: es}
}

func (c *ElasticsearchCatalog) Search(ctx context.Context, keyword string, limit int) ([]catalog.Product, error) {
	if limit < 1 {
		limit = 10
	}
	body, err := json.Marshal(buildProductQuery(keyword))
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	from := 0
	req := esapi.SearchRequest{
		Index: []string{c.es.Index},
		Body:  bytes.NewReader(body),
		From:  &from,
		Size:  &limit,
	}
	res, err := req.Do(ctx, c.es.Client)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(c.es.Index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(c.es.Index, fmt.Errorf("search query failed: %s", res.String()))
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.NewSearchQueryFailedError(c.es.Index, err)
	}

	return lo.Map(r.Hits.Hits, func(h searchHit, _ int) catalog.Product {
		p := h.Source
		if p.ProductID == "" {
			p.ProductID = h.ID
		}
		return p
	}), nil
}

func (c *ElasticsearchCatalog) Get(ctx context.Context, productID string) (catalog.Product, error) {
	req := esapi.GetRequest{Index: c.es.Index, DocumentID: productID}
	res, err := req.Do(ctx, c.es.Client)
	if err != nil {
		return catalog.Product{}, errors.NewSearchQueryFailedError(c.es.Index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return catalog.Product{}, errors.NewResourceNotFoundError("product", productID)
	}
	if res.IsError() {
		return catalog.Product{}, errors.NewSearchQueryFailedError(c.es.Index, fmt.Errorf("get failed: %s", res.String()))
	}

	var doc searchHit
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return catalog.Product{}, errors.NewSearchQueryFailedError(c.es.Index, err)
	}
	if doc.Source.ProductID == "" {
		doc.Source.ProductID = productID
	}
	return doc.Source, nil
}

// Seed indexes every product of c under its product id.
func (c *ElasticsearchCatalog) Seed(ctx context.Context, products []catalog.Product) error {
	for _, p := range products {
		body, err := json.Marshal(p)
		if err != nil {
			return errors.NewInternalError(err)
		}
		req := esapi.IndexRequest{
			Index:      c.es.Index,
			DocumentID: p.ProductID,
			Body:       bytes.NewReader(body),
			Refresh:    "true",
		}
		res, err := req.Do(ctx, c.es.Client)
		if err != nil {
			return errors.NewSearchQueryFailedError(c.es.Index, err)
		}
		failed := res.IsError()
		status := res.String()
		res.Body.Close()
		if failed {
			return errors.NewSearchQueryFailedError(c.es.Index, fmt.Errorf("index %s: %s", p.ProductID, status))
		}
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

type searchHit struct {
	ID     string          `json:"_id"`
	Source catalog.Product `json:"_source"`
}

func buildProductQuery(keyword string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  strings.TrimSpace(keyword),
				"fields": []string{"name^3", "keywords^2", "category", "description"},
				"type":   "best_fields",
			},
		},
	}
}
