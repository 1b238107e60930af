package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/tonitangpotato/neuromemory-ai/internal/model"
)

// SQLiteStore implements Store (and the narrower interfaces consumed by
// internal/hebbian and internal/retrieval) using SQLite + FTS5.
type SQLiteStore struct {
	db      *sql.DB
	path    string
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
// Use ":memory:" for a non-persistent, in-process store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		path:    dbPath,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id                   TEXT PRIMARY KEY,
		content              TEXT NOT NULL,
		content_index        TEXT NOT NULL DEFAULT '',
		summary              TEXT NOT NULL DEFAULT '',
		kind                 TEXT NOT NULL DEFAULT 'factual',
		layer                TEXT NOT NULL DEFAULT 'working',
		created_at           REAL NOT NULL,
		working_strength     REAL NOT NULL DEFAULT 1.0,
		core_strength        REAL NOT NULL DEFAULT 0.0,
		importance           REAL NOT NULL DEFAULT 0.3,
		pinned               INTEGER NOT NULL DEFAULT 0,
		consolidation_count  INTEGER NOT NULL DEFAULT 0,
		last_consolidated    REAL,
		source               TEXT NOT NULL DEFAULT '',
		contradicts          TEXT NOT NULL DEFAULT '',
		contradicted_by      TEXT NOT NULL DEFAULT '',
		tags                 TEXT,
		embedding            TEXT,
		embedding_dims       INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_memories_layer ON memories(layer);
	CREATE INDEX IF NOT EXISTS idx_memories_kind ON memories(kind);
	CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_contradicts ON memories(contradicts);

	CREATE TABLE IF NOT EXISTS access_log (
		memory_id  TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
		accessed_at REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_access_log_mid ON access_log(memory_id);

	CREATE TABLE IF NOT EXISTS graph_links (
		memory_id  TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
		entity     TEXT NOT NULL,
		relation   TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_graph_links_mid ON graph_links(memory_id);
	CREATE INDEX IF NOT EXISTS idx_graph_links_entity ON graph_links(entity);

	CREATE TABLE IF NOT EXISTS hebbian_links (
		a                   TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
		b                   TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
		strength            REAL NOT NULL DEFAULT 1.0,
		coactivation_count  INTEGER NOT NULL DEFAULT 0,
		created_at          REAL NOT NULL,
		PRIMARY KEY (a, b)
	);
	CREATE INDEX IF NOT EXISTS idx_hebbian_a ON hebbian_links(a);
	CREATE INDEX IF NOT EXISTS idx_hebbian_b ON hebbian_links(b);

	CREATE TABLE IF NOT EXISTS coactivations (
		a      TEXT NOT NULL,
		b      TEXT NOT NULL,
		count  INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (a, b)
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
		content, summary,
		content=memories, content_rowid=rowid
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Additive migration: add columns missing from older schema versions.
	s.db.Exec(`ALTER TABLE memories ADD COLUMN embedding TEXT`)
	s.db.Exec(`ALTER TABLE memories ADD COLUMN embedding_dims INTEGER NOT NULL DEFAULT 0`)
	s.db.Exec(`ALTER TABLE memories ADD COLUMN contradicts TEXT NOT NULL DEFAULT ''`)
	s.db.Exec(`ALTER TABLE memories ADD COLUMN contradicted_by TEXT NOT NULL DEFAULT ''`)
	s.db.Exec(`ALTER TABLE memories ADD COLUMN content_index TEXT NOT NULL DEFAULT ''`)
	s.db.Exec(`UPDATE memories SET content_index = content WHERE content_index = ''`)

	// The FTS index is built over content_index (a CJK-whitespace-expanded
	// copy of content) rather than content itself, so unicode61's
	// word-boundary tokenizer still yields usable tokens for CJK scripts;
	// the memories.content column stays untouched for display.
	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS memories_ai AFTER INSERT ON memories BEGIN
		INSERT INTO memories_fts(rowid, content, summary) VALUES (new.rowid, new.content_index, new.summary);
	END`)
	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS memories_ad AFTER DELETE ON memories BEGIN
		INSERT INTO memories_fts(memories_fts, rowid, content, summary) VALUES('delete', old.rowid, old.content_index, old.summary);
	END`)
	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS memories_au AFTER UPDATE ON memories BEGIN
		INSERT INTO memories_fts(memories_fts, rowid, content, summary) VALUES('delete', old.rowid, old.content_index, old.summary);
		INSERT INTO memories_fts(rowid, content, summary) VALUES (new.rowid, new.content_index, new.summary);
	END`)

	s.db.Exec(`INSERT OR IGNORE INTO memories_fts(rowid, content, summary) SELECT rowid, content_index, summary FROM memories`)

	return nil
}

func encodeTags(tags []string) sql.NullString {
	if len(tags) == 0 {
		return sql.NullString{}
	}
	b, _ := json.Marshal(tags)
	return sql.NullString{String: string(b), Valid: true}
}

func decodeTags(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	var tags []string
	json.Unmarshal([]byte(s.String), &tags)
	return tags
}

func encodeEmbedding(v []float32) (sql.NullString, int) {
	if len(v) == 0 {
		return sql.NullString{}, 0
	}
	b, _ := json.Marshal(v)
	return sql.NullString{String: string(b), Valid: true}, len(v)
}

func decodeEmbedding(s sql.NullString) []float32 {
	if !s.Valid || s.String == "" {
		return nil
	}
	var v []float32
	json.Unmarshal([]byte(s.String), &v)
	return v
}

func (s *SQLiteStore) Insert(ctx context.Context, p InsertParams) (*model.Memory, error) {
	id := p.ID
	if id == "" {
		id = s.newID()
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	kind := p.Kind
	if kind == "" {
		kind = model.KindFactual
	}
	importance := p.Importance
	if importance == 0 {
		if d, ok := model.DefaultImportance[kind]; ok {
			importance = d
		}
	}

	tagsVal := encodeTags(p.Tags)
	embVal, dims := encodeEmbedding(p.Embedding)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO memories (id, content, content_index, summary, kind, layer, created_at,
		    working_strength, core_strength, importance, pinned, consolidation_count,
		    last_consolidated, source, contradicts, contradicted_by, tags, embedding, embedding_dims)
		 VALUES (?, ?, ?, '', ?, 'working', ?, 1.0, 0.0, ?, 0, 0, NULL, ?, ?, '', ?, ?, ?)`,
		id, p.Content, cjkTokenize(p.Content), string(kind), timeToUnix(createdAt), importance, p.Source, p.Contradicts,
		tagsVal, embVal, dims,
	)
	if err != nil {
		return nil, fmt.Errorf("insert memory: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO access_log (memory_id, accessed_at) VALUES (?, ?)`,
		id, timeToUnix(createdAt))
	if err != nil {
		return nil, fmt.Errorf("insert access log: %w", err)
	}

	if p.Contradicts != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE memories SET contradicted_by = ? WHERE id = ?`, id, p.Contradicts); err != nil {
			return nil, fmt.Errorf("mark contradicted: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &model.Memory{
		ID:              id,
		Content:         p.Content,
		Kind:            kind,
		Layer:           model.LayerWorking,
		CreatedAt:       createdAt,
		AccessTimes:     []time.Time{createdAt},
		WorkingStrength: 1.0,
		CoreStrength:    0.0,
		Importance:      importance,
		Source:          p.Source,
		Contradicts:     p.Contradicts,
		Tags:            p.Tags,
		Embedding:       p.Embedding,
	}, nil
}

func timeToUnix(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func unixToTime(f float64) time.Time {
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMemory(row scanner) (*model.Memory, error) {
	var m model.Memory
	var createdAt float64
	var lastConsolidated sql.NullFloat64
	var pinned int
	var tags sql.NullString
	var embedding sql.NullString
	var dims int
	var kind, layer string

	err := row.Scan(
		&m.ID, &m.Content, &m.Summary, &kind, &layer, &createdAt,
		&m.WorkingStrength, &m.CoreStrength, &m.Importance, &pinned,
		&m.ConsolidationCount, &lastConsolidated, &m.Source,
		&m.Contradicts, &m.ContradictedBy, &tags, &embedding, &dims,
	)
	if err != nil {
		return nil, err
	}

	m.Kind = model.Kind(kind)
	m.Layer = model.Layer(layer)
	m.CreatedAt = unixToTime(createdAt)
	m.Pinned = pinned != 0
	m.Tags = decodeTags(tags)
	m.Embedding = decodeEmbedding(embedding)
	if lastConsolidated.Valid {
		t := unixToTime(lastConsolidated.Float64)
		m.LastConsolidated = &t
	}
	return &m, nil
}

const memoryColumns = `id, content, summary, kind, layer, created_at,
	working_strength, core_strength, importance, pinned, consolidation_count,
	last_consolidated, source, contradicts, contradicted_by, tags, embedding, embedding_dims`

func (s *SQLiteStore) fetch(ctx context.Context, id string) (*model.Memory, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	times, err := s.accessTimes(ctx, id)
	if err != nil {
		return nil, err
	}
	m.AccessTimes = times
	return m, nil
}

func (s *SQLiteStore) accessTimes(ctx context.Context, id string) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT accessed_at FROM access_log WHERE memory_id = ? ORDER BY accessed_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var times []time.Time
	for rows.Next() {
		var f float64
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		times = append(times, unixToTime(f))
	}
	return times, rows.Err()
}

// Get returns the entry with its access history and records a new access
// at the current wall-clock time — the single source of "recency".
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Memory, error) {
	m, err := s.fetch(ctx, id)
	if err != nil || m == nil {
		return m, err
	}
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO access_log (memory_id, accessed_at) VALUES (?, ?)`, id, timeToUnix(now)); err != nil {
		return nil, err
	}
	m.AccessTimes = append(m.AccessTimes, now)
	return m, nil
}

// Peek returns the entry without recording an access (internal maintenance).
func (s *SQLiteStore) Peek(ctx context.Context, id string) (*model.Memory, error) {
	return s.fetch(ctx, id)
}

func (s *SQLiteStore) Update(ctx context.Context, m *model.Memory) error {
	tagsVal := encodeTags(m.Tags)
	embVal, dims := encodeEmbedding(m.Embedding)
	var lastConsolidated sql.NullFloat64
	if m.LastConsolidated != nil {
		lastConsolidated = sql.NullFloat64{Float64: timeToUnix(*m.LastConsolidated), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE memories SET content=?, content_index=?, summary=?, kind=?, layer=?, working_strength=?, core_strength=?,
		    importance=?, pinned=?, consolidation_count=?, last_consolidated=?, source=?,
		    contradicts=?, contradicted_by=?, tags=?, embedding=?, embedding_dims=?
		 WHERE id=?`,
		m.Content, cjkTokenize(m.Content), m.Summary, string(m.Kind), string(m.Layer), m.WorkingStrength, m.CoreStrength,
		m.Importance, boolToInt(m.Pinned), m.ConsolidationCount, lastConsolidated, m.Source,
		m.Contradicts, m.ContradictedBy, tagsVal, embVal, dims, m.ID,
	)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) All(ctx context.Context) ([]*model.Memory, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+memoryColumns+` FROM memories ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, m := range out {
		times, err := s.accessTimes(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		m.AccessTimes = times
	}
	return out, nil
}

var ftsStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "to": true, "of": true, "in": true,
	"on": true, "at": true, "for": true, "with": true, "is": true, "was": true,
	"are": true, "were": true, "be": true, "been": true, "what": true, "where": true,
	"when": true, "who": true, "does": true, "do": true, "did": true, "go": true,
	"going": true, "went": true, "has": true, "have": true, "had": true, "this": true,
	"that": true, "these": true, "those": true,
}

// sanitizeFTSQuery strips punctuation and stop words so raw natural-language
// queries don't trip FTS5's MATCH syntax.
func sanitizeFTSQuery(q string) string {
	var b strings.Builder
	for _, r := range q {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r > 127 {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	fields := strings.Fields(b.String())
	var kept []string
	for _, w := range fields {
		lw := strings.ToLower(w)
		if len(lw) <= 2 || ftsStopWords[lw] {
			continue
		}
		kept = append(kept, `"`+lw+`"`)
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, " OR ")
}

// SearchFTS returns up to k entries matching a text query, ordered by BM25
// (best match first).
func (s *SQLiteStore) SearchFTS(ctx context.Context, query string, k int) ([]FTSResult, error) {
	sanitized := sanitizeFTSQuery(query)
	if sanitized == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, bm25(memories_fts) AS rank FROM memories m
		 JOIN memories_fts f ON m.rowid = f.rowid
		 WHERE memories_fts MATCH ?
		 ORDER BY rank LIMIT ?`, sanitized, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FTSResult
	for rows.Next() {
		var r FTSResult
		if err := rows.Scan(&r.ID, &r.Rank); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddGraphLink(ctx context.Context, memoryID, entity, relation string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO graph_links (memory_id, entity, relation) VALUES (?, ?, ?)`,
		memoryID, entity, relation)
	return err
}

func (s *SQLiteStore) SearchByEntity(ctx context.Context, label string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT memory_id FROM graph_links WHERE entity = ?`, label)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// RelatedEntities performs breadth-first expansion through the
// memory<->entity bipartite graph up to hops hops.
func (s *SQLiteStore) RelatedEntities(ctx context.Context, label string, hops int) ([]string, error) {
	visited := map[string]bool{label: true}
	frontier := []string{label}

	for h := 0; h < hops; h++ {
		if len(frontier) == 0 {
			break
		}
		memIDs, err := s.memoriesForEntities(ctx, frontier)
		if err != nil {
			return nil, err
		}
		if len(memIDs) == 0 {
			break
		}
		entities, err := s.entitiesForMemories(ctx, memIDs)
		if err != nil {
			return nil, err
		}
		var next []string
		for _, e := range entities {
			if !visited[e] {
				visited[e] = true
				next = append(next, e)
			}
		}
		frontier = next
	}

	delete(visited, label)
	out := make([]string, 0, len(visited))
	for e := range visited {
		out = append(out, e)
	}
	return out, nil
}

func (s *SQLiteStore) memoriesForEntities(ctx context.Context, entities []string) ([]string, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(entities)), ",")
	args := make([]interface{}, len(entities))
	for i, e := range entities {
		args[i] = e
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT memory_id FROM graph_links WHERE entity IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// EntitiesForMemory returns the graph-link entities attached to a single
// memory — the ground truth graph-expansion seeds, distinct from its tags.
func (s *SQLiteStore) EntitiesForMemory(ctx context.Context, id string) ([]string, error) {
	return s.entitiesForMemories(ctx, []string{id})
}

func (s *SQLiteStore) entitiesForMemories(ctx context.Context, ids []string) ([]string, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT entity FROM graph_links WHERE memory_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// VectorSearch performs a linear cosine-similarity scan over entries that
// have a stored embedding — adequate for the store sizes this engine
// targets (spec §4.1 explicitly allows a linear scan for small stores).
func (s *SQLiteStore) VectorSearch(ctx context.Context, q []float32, k int, minSim float64) ([]VectorResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, embedding FROM memories WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []VectorResult
	for rows.Next() {
		var id string
		var emb sql.NullString
		if err := rows.Scan(&id, &emb); err != nil {
			return nil, err
		}
		vec := decodeEmbedding(emb)
		if len(vec) == 0 {
			continue
		}
		sim := cosineSimilarity(q, vec)
		if sim >= minSim {
			results = append(results, VectorResult{ID: id, Similarity: sim})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortVectorResults(results)
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func sortVectorResults(r []VectorResult) {
	for i := 1; i < len(r); i++ {
		for j := i; j > 0 && r[j].Similarity > r[j-1].Similarity; j-- {
			r[j], r[j-1] = r[j-1], r[j]
		}
	}
}

// VectorDims returns the dimension of vectors already stored, or 0 if none.
// Invariant 8 forbids a store from mixing dimensions.
func (s *SQLiteStore) VectorDims(ctx context.Context) (int, error) {
	var dims int
	err := s.db.QueryRowContext(ctx,
		`SELECT embedding_dims FROM memories WHERE embedding_dims > 0 LIMIT 1`).Scan(&dims)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return dims, err
}

func (s *SQLiteStore) Export(ctx context.Context, path string) error {
	if s.path == ":memory:" {
		return copyViaExportImport(ctx, s, path)
	}
	s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`)
	return copyFile(s.path, path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// copyViaExportImport is the in-memory-store fallback: dump every memory
// through Insert against a freshly-opened destination store.
func copyViaExportImport(ctx context.Context, src *SQLiteStore, path string) error {
	dst, err := NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer dst.Close()

	entries, err := src.All(ctx)
	if err != nil {
		return err
	}
	for _, m := range entries {
		if _, err := dst.Insert(ctx, InsertParams{
			ID: m.ID, Content: m.Content, Summary: m.Summary, Kind: m.Kind,
			Importance: m.Importance, Source: m.Source, Tags: m.Tags,
			CreatedAt: m.CreatedAt, Embedding: m.Embedding,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{DBPath: s.path, ByKind: map[string]int{}, ByLayer: map[string]int{}}

	if s.path != ":memory:" {
		if info, err := os.Stat(s.path); err == nil {
			st.DBSizeBytes = info.Size()
			st.DBSizeHuman = humanize.Bytes(uint64(info.Size()))
		}
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&st.TotalMemories)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE pinned = 1`).Scan(&st.PinnedCount)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM access_log`).Scan(&st.TotalAccesses)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hebbian_links`).Scan(&st.HebbianLinks)

	if rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM memories GROUP BY kind`); err == nil {
		for rows.Next() {
			var k string
			var c int
			rows.Scan(&k, &c)
			st.ByKind[k] = c
		}
		rows.Close()
	}
	if rows, err := s.db.QueryContext(ctx, `SELECT layer, COUNT(*) FROM memories GROUP BY layer`); err == nil {
		for rows.Next() {
			var l string
			var c int
			rows.Scan(&l, &c)
			st.ByLayer[l] = c
		}
		rows.Close()
	}

	return st, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ── Hebbian persistence (internal/hebbian.Store) ──────────────────────

func (s *SQLiteStore) IncrementCoactivation(ctx context.Context, a, b string) (int, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO coactivations (a, b, count) VALUES (?, ?, 1)
		 ON CONFLICT(a, b) DO UPDATE SET count = count + 1`, a, b)
	if err != nil {
		return 0, err
	}
	var count int
	err = s.db.QueryRowContext(ctx, `SELECT count FROM coactivations WHERE a=? AND b=?`, a, b).Scan(&count)
	return count, err
}

func (s *SQLiteStore) UpsertHebbianLink(ctx context.Context, link model.HebbianLink) error {
	created := link.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO hebbian_links (a, b, strength, coactivation_count, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(a, b) DO UPDATE SET strength = excluded.strength, coactivation_count = excluded.coactivation_count`,
		link.A, link.B, link.Strength, link.CoactivationCount, timeToUnix(created))
	return err
}

func (s *SQLiteStore) GetHebbianLink(ctx context.Context, a, b string) (*model.HebbianLink, error) {
	var l model.HebbianLink
	var createdAt float64
	err := s.db.QueryRowContext(ctx,
		`SELECT a, b, strength, coactivation_count, created_at FROM hebbian_links WHERE a=? AND b=?`, a, b).
		Scan(&l.A, &l.B, &l.Strength, &l.CoactivationCount, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l.CreatedAt = unixToTime(createdAt)
	return &l, nil
}

func (s *SQLiteStore) Neighbors(ctx context.Context, id string) ([]model.HebbianLink, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a, b, strength, coactivation_count, created_at FROM hebbian_links WHERE a=? OR b=?`, id, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.HebbianLink
	for rows.Next() {
		var l model.HebbianLink
		var createdAt float64
		if err := rows.Scan(&l.A, &l.B, &l.Strength, &l.CoactivationCount, &createdAt); err != nil {
			return nil, err
		}
		l.CreatedAt = unixToTime(createdAt)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AllHebbianLinks(ctx context.Context) ([]model.HebbianLink, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a, b, strength, coactivation_count, created_at FROM hebbian_links`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.HebbianLink
	for rows.Next() {
		var l model.HebbianLink
		var createdAt float64
		if err := rows.Scan(&l.A, &l.B, &l.Strength, &l.CoactivationCount, &createdAt); err != nil {
			return nil, err
		}
		l.CreatedAt = unixToTime(createdAt)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteHebbianLink(ctx context.Context, a, b string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM hebbian_links WHERE a=? AND b=?`, a, b)
	return err
}
