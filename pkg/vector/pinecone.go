// Package vector partitions resume embeddings across two Pinecone indexes,
// one per master category, with one namespace per job category.
package vector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/talentvec/talentvec/pkg/classify"
	"github.com/talentvec/talentvec/pkg/config"
	"github.com/talentvec/talentvec/pkg/logger"
)

const (
	indexReadyTimeout = 5 * time.Minute
	indexPollInterval = 5 * time.Second

	// placeholderValue seeds the first component of placeholder vectors.
	// Small and deterministic so it never wins a similarity query.
	placeholderValue = 0.0001
)

// Item is a vector ready to upsert.
type Item struct {
	ID       string
	Values   []float32
	Metadata map[string]interface{}
}

// Match is one scored query hit.
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]interface{}
}

// Client wraps the Pinecone SDK with the two-index, namespace-per-category
// partitioning scheme. All routing decisions live here so callers only deal
// in master categories and category labels.
type Client struct {
	pc        *pinecone.Client
	cfg       config.PineconeConfig
	dimension int
	log       *slog.Logger
}

func New(cfg config.PineconeConfig, dimension int) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone API key is required")
	}
	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone client: %w", err)
	}
	return &Client{
		pc:        pc,
		cfg:       cfg,
		dimension: dimension,
		log:       logger.GetLogger(),
	}, nil
}

// IndexFor maps a master category to its index name. Unknown or empty
// masters go to the non-IT index, matching where uncategorized resumes land.
func (c *Client) IndexFor(master string) string {
	if master == classify.MasterIT {
		return c.cfg.IndexName + "-it"
	}
	return c.cfg.IndexName + "-non-it"
}

// Indexes returns both index names, IT first.
func (c *Client) Indexes() []string {
	return []string{c.IndexFor(classify.MasterIT), c.IndexFor(classify.MasterNonIT)}
}

// EnsureIndexes creates both serverless indexes if missing and waits until
// they are ready to serve.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	for _, name := range c.Indexes() {
		if err := c.ensureIndex(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) ensureIndex(ctx context.Context, name string) error {
	idx, err := c.pc.DescribeIndex(ctx, name)
	if err == nil && idx != nil {
		return c.waitReady(ctx, name)
	}

	c.log.Info("Creating pinecone index", "index", name, "dimension", c.dimension)
	_, err = c.pc.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:      name,
		Dimension: int32(c.dimension),
		Metric:    pinecone.Cosine,
		Cloud:     pinecone.Cloud(c.cfg.Cloud),
		Region:    c.cfg.Region,
	})
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", name, err)
	}
	return c.waitReady(ctx, name)
}

func (c *Client) waitReady(ctx context.Context, name string) error {
	deadline := time.Now().Add(indexReadyTimeout)
	for {
		idx, err := c.pc.DescribeIndex(ctx, name)
		if err == nil && idx != nil && idx.Status != nil && idx.Status.Ready {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("index %s not ready after %s", name, indexReadyTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(indexPollInterval):
		}
	}
}

// conn opens a connection scoped to one index and namespace.
func (c *Client) conn(ctx context.Context, indexName, namespace string) (*pinecone.IndexConnection, error) {
	idx, err := c.pc.DescribeIndex(ctx, indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index %s: %w", indexName, err)
	}
	conn, err := c.pc.Index(pinecone.NewIndexConnParams{
		Host:      idx.Host,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to index %s: %w", indexName, err)
	}
	return conn, nil
}

// SeedNamespaces pre-creates every known category namespace in both indexes
// by upserting a single placeholder vector. Pinecone materializes a
// namespace only when it holds at least one vector, so a fresh deployment
// would otherwise return "namespace not found" for valid categories.
func (c *Client) SeedNamespaces(ctx context.Context) error {
	for _, master := range []string{classify.MasterIT, classify.MasterNonIT} {
		indexName := c.IndexFor(master)
		namespaces := []string{UncategorizedNamespace}
		for _, cat := range classify.CategoriesFor(master) {
			namespaces = append(namespaces, Namespace(cat))
		}
		for _, ns := range namespaces {
			if err := c.seedNamespace(ctx, indexName, ns); err != nil {
				return err
			}
		}
		c.log.Info("Seeded namespaces", "index", indexName, "count", len(namespaces))
	}
	return nil
}

func (c *Client) seedNamespace(ctx context.Context, indexName, namespace string) error {
	conn, err := c.conn(ctx, indexName, namespace)
	if err != nil {
		return err
	}
	defer conn.Close()

	values := make([]float32, c.dimension)
	values[0] = placeholderValue

	meta, err := structpb.NewStruct(map[string]interface{}{
		"type":      "namespace_placeholder",
		"namespace": namespace,
	})
	if err != nil {
		return fmt.Errorf("failed to build placeholder metadata: %w", err)
	}

	_, err = conn.UpsertVectors(ctx, []*pinecone.Vector{{
		Id:       PlaceholderID(namespace),
		Values:   values,
		Metadata: meta,
	}})
	if err != nil {
		return fmt.Errorf("failed to seed namespace %s/%s: %w", indexName, namespace, err)
	}
	return nil
}

// Upsert writes items into the namespace derived from the category, in the
// index matching the master category.
func (c *Client) Upsert(ctx context.Context, master, category string, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	namespace := Namespace(category)
	conn, err := c.conn(ctx, c.IndexFor(master), namespace)
	if err != nil {
		return err
	}
	defer conn.Close()

	vectors := make([]*pinecone.Vector, 0, len(items))
	for _, item := range items {
		var meta *pinecone.Metadata
		if len(item.Metadata) > 0 {
			meta, err = structpb.NewStruct(item.Metadata)
			if err != nil {
				return fmt.Errorf("failed to convert metadata for %s: %w", item.ID, err)
			}
		}
		vectors = append(vectors, &pinecone.Vector{
			Id:       item.ID,
			Values:   item.Values,
			Metadata: meta,
		})
	}

	if _, err := conn.UpsertVectors(ctx, vectors); err != nil {
		return fmt.Errorf("failed to upsert %d vectors into %s: %w", len(vectors), namespace, err)
	}
	c.log.Debug("Upserted vectors", "index", c.IndexFor(master), "namespace", namespace, "count", len(vectors))
	return nil
}

// Query runs a similarity search in exactly one index and namespace.
// Placeholder vectors are filtered out of the matches.
func (c *Client) Query(ctx context.Context, master, namespace string, vec []float32, topK int, filter map[string]interface{}) ([]Match, error) {
	conn, err := c.conn(ctx, c.IndexFor(master), namespace)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var metadataFilter *pinecone.MetadataFilter
	if len(filter) > 0 {
		metadataFilter, err = structpb.NewStruct(filter)
		if err != nil {
			return nil, fmt.Errorf("failed to convert filter: %w", err)
		}
	}

	resp, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vec,
		TopK:            uint32(topK),
		MetadataFilter:  metadataFilter,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("query failed in %s/%s: %w", c.IndexFor(master), namespace, err)
	}

	matches := make([]Match, 0, len(resp.Matches))
	for _, sv := range resp.Matches {
		if sv.Vector == nil || IsPlaceholderID(sv.Vector.Id) {
			continue
		}
		m := Match{ID: sv.Vector.Id, Score: sv.Score}
		if sv.Vector.Metadata != nil {
			m.Metadata = sv.Vector.Metadata.AsMap()
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Delete removes vectors by id from one namespace.
func (c *Client) Delete(ctx context.Context, master, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	conn, err := c.conn(ctx, c.IndexFor(master), namespace)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.DeleteVectorsById(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete %d vectors from %s: %w", len(ids), namespace, err)
	}
	return nil
}

// Healthy verifies both indexes are reachable and ready.
func (c *Client) Healthy(ctx context.Context) error {
	for _, name := range c.Indexes() {
		idx, err := c.pc.DescribeIndex(ctx, name)
		if err != nil {
			return fmt.Errorf("index %s unreachable: %w", name, err)
		}
		if idx == nil || idx.Status == nil || !idx.Status.Ready {
			return fmt.Errorf("index %s not ready", name)
		}
	}
	return nil
}

// ListNamespaces returns the sorted namespaces of one index, hiding
// initialization artifacts.
func (c *Client) ListNamespaces(ctx context.Context, master string) ([]string, error) {
	conn, err := c.conn(ctx, c.IndexFor(master), "")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	stats, err := conn.DescribeIndexStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index stats: %w", err)
	}

	var out []string
	for name := range stats.Namespaces {
		if IsPlaceholderNamespace(name) {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}
