package database

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"shopping-assistant/internal/common/config"
	"shopping-assistant/internal/common/errors"
)

// ElasticsearchClient wraps the client used by the product catalog.
type ElasticsearchClient struct {
	Client *elasticsearch.Client
	Index  string
}

func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	return newElasticsearch(cfg, nil)
}

// NewElasticsearchWithTransport is used by tests to route requests to a fake cluster.
func NewElasticsearchWithTransport(cfg config.ElasticsearchConfig, transport http.RoundTripper) (*ElasticsearchClient, error) {
	return newElasticsearch(cfg, transport)
}

func newElasticsearch(cfg config.ElasticsearchConfig, transport http.RoundTripper) (*ElasticsearchClient, error) {
	addresses := cfg.Addresses
	if len(addresses) == 0 && cfg.GetURL() != "" {
		addresses = []string{cfg.GetURL()}
	}
	esCfg := elasticsearch.Config{
		Addresses: addresses,
		Transport: transport,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	index := cfg.Index
	if index == "" {
		index = "products"
	}
	return &ElasticsearchClient{Client: es, Index: index}, nil
}

func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return errors.NewDatabaseConnectionFailedError(fmt.Errorf("elasticsearch ping failed: %w", err))
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewDatabaseConnectionFailedError(fmt.Errorf("elasticsearch ping error: %s", res.Status()))
	}
	return nil
}
