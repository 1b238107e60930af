// Package model defines the core memory data types.
package model

import "time"

// Kind is the cognitive category of a memory entry.
type Kind string

const (
	KindFactual    Kind = "factual"
	KindEpisodic   Kind = "episodic"
	KindRelational Kind = "relational"
	KindEmotional  Kind = "emotional"
	KindProcedural Kind = "procedural"
	KindOpinion    Kind = "opinion"
)

// ValidKinds are the allowed memory kinds.
var ValidKinds = map[Kind]bool{
	KindFactual:    true,
	KindEpisodic:   true,
	KindRelational: true,
	KindEmotional:  true,
	KindProcedural: true,
	KindOpinion:    true,
}

// DefaultImportance gives each kind a sensible encoding strength when the
// caller does not supply one: emotional and relational content encodes
// stronger than routine episodic content.
var DefaultImportance = map[Kind]float64{
	KindFactual:    0.5,
	KindEpisodic:   0.3,
	KindRelational: 0.6,
	KindEmotional:  0.75,
	KindProcedural: 0.6,
	KindOpinion:    0.4,
}

// Layer is the coarse lifecycle bucket a memory currently occupies.
type Layer string

const (
	LayerCore    Layer = "core"
	LayerWorking Layer = "working"
	LayerArchive Layer = "archive"
)

// Memory is the primary stored record.
type Memory struct {
	ID                 string      `json:"id"`
	Content            string      `json:"content"`
	Summary            string      `json:"summary,omitempty"`
	Kind               Kind        `json:"kind"`
	Layer              Layer       `json:"layer"`
	CreatedAt          time.Time   `json:"created_at"`
	AccessTimes        []time.Time `json:"-"`
	WorkingStrength    float64     `json:"working_strength"`
	CoreStrength       float64     `json:"core_strength"`
	Importance         float64     `json:"importance"`
	Pinned             bool        `json:"pinned"`
	ConsolidationCount int         `json:"consolidation_count"`
	LastConsolidated   *time.Time  `json:"last_consolidated,omitempty"`
	Source             string      `json:"source,omitempty"`
	Contradicts        string      `json:"contradicts,omitempty"`
	ContradictedBy     string      `json:"contradicted_by,omitempty"`
	Tags               []string    `json:"tags,omitempty"`
	Embedding          []float32   `json:"-"`
}

// AgeDays returns the memory's age in fractional days as of now.
func (m *Memory) AgeDays(now time.Time) float64 {
	return now.Sub(m.CreatedAt).Hours() / 24.0
}

// LastAccess returns the most recent access timestamp, or CreatedAt if the
// access log is somehow empty (should not happen per invariant 3).
func (m *Memory) LastAccess() time.Time {
	if len(m.AccessTimes) == 0 {
		return m.CreatedAt
	}
	return m.AccessTimes[len(m.AccessTimes)-1]
}

// AccessLogEntry is an append-only (memory-id, timestamp) pair.
type AccessLogEntry struct {
	MemoryID string
	At       time.Time
}

// GraphLink associates a memory with a caller-supplied entity label under an
// optional relation label.
type GraphLink struct {
	MemoryID string
	Entity   string
	Relation string
}

// HebbianLink is a symmetric co-activation edge between two memories, stored
// under a canonical (min, max) id ordering.
type HebbianLink struct {
	A                 string
	B                 string
	Strength          float64
	CoactivationCount int
	CreatedAt         time.Time
}

// CanonicalPair orders an unordered pair so the same pair always produces
// the same key, per spec invariant 6 (symmetric, no self-loops).
func CanonicalPair(x, y string) (string, string) {
	if x < y {
		return x, y
	}
	return y, x
}
