package mockserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopping-assistant/internal/common/config"
	"shopping-assistant/internal/common/database"
	"shopping-assistant/internal/common/errors"
	"shopping-assistant/pkg/catalog"
)

func seedCatalog() *catalog.Catalog {
	return &catalog.Catalog{Products: []catalog.Product{
		{ProductID: "p-1", Name: "린넨 셔츠", Category: "패션", Keywords: []string{"셔츠", "여름"}, Price: 39000},
		{ProductID: "p-2", Name: "옥스퍼드 셔츠", Category: "패션", Keywords: []string{"셔츠"}, Price: 29000},
		{ProductID: "p-3", Name: "무선 청소기", Category: "가전", Keywords: []string{"청소기"}, Price: 289000},
	}}
}

func TestMemoryCatalog(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCatalog(seedCatalog())

	found, err := c.Search(ctx, "셔츠", 0)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = c.Search(ctx, "셔츠", 1)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = c.Search(ctx, "자동차", 5)
	require.NoError(t, err)
	assert.Empty(t, found)

	p, err := c.Get(ctx, "p-3")
	require.NoError(t, err)
	assert.Equal(t, "무선 청소기", p.Name)

	_, err = c.Get(ctx, "p-404")
	assert.True(t, errors.HasCode(err, errors.ErrCodeResourceNotFound))
}

// fakeCluster answers the handful of Elasticsearch APIs the catalog uses.
func fakeCluster(t *testing.T) (*httptest.Server, *[]string) {
	var indexed []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasSuffix(r.URL.Path, "/_search"):
			body, _ := io.ReadAll(r.Body)
			assert.Contains(t, string(body), "multi_match")
			_, _ = io.WriteString(w, `{"hits":{"total":{"value":1},"hits":[
				{"_id":"p-1","_source":{"name":"린넨 셔츠","category":"패션","price":39000}}]}}`)
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/_doc/p-1"):
			_, _ = io.WriteString(w, `{"_id":"p-1","found":true,"_source":{"product_id":"p-1","name":"린넨 셔츠","price":39000}}`)
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/_doc/"):
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"found":false}`)
		case r.Method == http.MethodPut && strings.Contains(r.URL.Path, "/_doc/"):
			var p catalog.Product
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
			indexed = append(indexed, p.ProductID)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"result":"created"}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"unexpected request"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &indexed
}

func newESCatalog(t *testing.T, url string) *ElasticsearchCatalog {
	es, err := database.NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{url}, Index: "products"})
	require.NoError(t, err)
	return NewElasticsearchCatalog(es)
}

func TestElasticsearchCatalog_Search(t *testing.T) {
	srv, _ := fakeCluster(t)
	c := newESCatalog(t, srv.URL)

	found, err := c.Search(context.Background(), "셔츠", 3)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "p-1", found[0].ProductID, "falls back to the document id")
	assert.Equal(t, 39000, found[0].Price)
}

func TestElasticsearchCatalog_Get(t *testing.T) {
	srv, _ := fakeCluster(t)
	c := newESCatalog(t, srv.URL)

	p, err := c.Get(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "린넨 셔츠", p.Name)

	_, err = c.Get(context.Background(), "p-404")
	assert.True(t, errors.HasCode(err, errors.ErrCodeResourceNotFound))
}

func TestElasticsearchCatalog_Seed(t *testing.T) {
	srv, indexed := fakeCluster(t)
	c := newESCatalog(t, srv.URL)

	require.NoError(t, c.Seed(context.Background(), seedCatalog().Products))
	assert.Equal(t, []string{"p-1", "p-2", "p-3"}, *indexed)
}

func TestElasticsearchCatalog_ClusterError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"boom"}`)
	}))
	defer srv.Close()

	es, err := database.NewElasticsearchWithTransport(
		config.ElasticsearchConfig{Addresses: []string{srv.URL}},
		http.DefaultTransport,
	)
	require.NoError(t, err)

	_, err = NewElasticsearchCatalog(es).Search(context.Background(), "셔츠", 3)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSearchQueryFailed))
}
