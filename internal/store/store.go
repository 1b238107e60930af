// Package store provides the durable persistence layer for engram: a
// SQLite-backed implementation of every operation the memory-dynamics
// engine needs, with a full-text index over content+summary and an
// optional cosine-similarity vector search.
package store

import (
	"context"
	"time"

	"github.com/tonitangpotato/neuromemory-ai/internal/model"
)

// InsertParams holds the caller-supplied fields for a new memory. Zero
// values are filled in by Insert: an empty ID gets a generated ULID, a
// zero CreatedAt the current time, an empty Kind factual, and a zero
// Importance the kind's default importance. Every new entry starts in the
// working layer with working strength 1.0 and core strength 0.
type InsertParams struct {
	ID          string
	Content     string
	Summary     string
	Kind        model.Kind
	Importance  float64
	Source      string
	Tags        []string
	Contradicts string
	CreatedAt   time.Time
	Embedding   []float32
}

// FTSResult is a full-text search hit with its BM25 rank (lower is better,
// as SQLite's fts5 `rank` column reports it).
type FTSResult struct {
	ID   string
	Rank float64
}

// VectorResult is a vector-search hit with its cosine similarity.
type VectorResult struct {
	ID         string
	Similarity float64
}

// Store is the persistence interface the engine and its collaborating
// packages (hebbian, retrieval, consolidation) depend on.
type Store interface {
	Insert(ctx context.Context, p InsertParams) (*model.Memory, error)
	Get(ctx context.Context, id string) (*model.Memory, error)  // records an access
	Peek(ctx context.Context, id string) (*model.Memory, error) // does not record an access
	Update(ctx context.Context, m *model.Memory) error
	Delete(ctx context.Context, id string) error
	All(ctx context.Context) ([]*model.Memory, error)

	SearchFTS(ctx context.Context, query string, k int) ([]FTSResult, error)
	SearchByEntity(ctx context.Context, label string) ([]string, error)
	RelatedEntities(ctx context.Context, label string, hops int) ([]string, error)
	EntitiesForMemory(ctx context.Context, id string) ([]string, error)
	AddGraphLink(ctx context.Context, memoryID, entity, relation string) error
	VectorSearch(ctx context.Context, q []float32, k int, minSim float64) ([]VectorResult, error)
	VectorDims(ctx context.Context) (int, error)

	Export(ctx context.Context, path string) error

	Stats(ctx context.Context) (*Stats, error)

	Close() error
}

// Stats holds database-wide aggregates.
type Stats struct {
	DBPath         string           `json:"db_path"`
	DBSizeBytes    int64            `json:"db_size_bytes"`
	DBSizeHuman    string           `json:"db_size_human"`
	TotalMemories  int              `json:"total_memories"`
	ByKind         map[string]int   `json:"by_kind"`
	ByLayer        map[string]int   `json:"by_layer"`
	TotalAccesses  int              `json:"total_accesses"`
	PinnedCount    int              `json:"pinned_count"`
	HebbianLinks   int              `json:"hebbian_links"`
}
