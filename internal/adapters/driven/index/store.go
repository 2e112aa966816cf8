// Package index implements the persistent dual index: a flat dense
// vector index, a BM25 lexical index and a SQLite chunk metadata
// table, co-located under one storage root and kept in lockstep.
//
// Layout under the root:
//
//	vectors.bin   float32 LE matrix of L2-normalised embeddings
//	metadata.db   SQLite chunk rows, vector_id = dense slot
//	lexical.gob   BM25 statistics, derived from metadata
//
// The dense and metadata artifacts must agree in count at startup;
// on disagreement the store resets itself empty rather than serve
// results with scrambled attribution. A missing or stale lexical
// artifact alone is rebuilt from metadata.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/paperag/internal/adapters/driven/index/migrations"
	"github.com/custodia-labs/paperag/internal/core/domain"
	"github.com/custodia-labs/paperag/internal/core/ports/driven"
	"github.com/custodia-labs/paperag/internal/logger"
)

const (
	vectorsFile  = "vectors.bin"
	metadataFile = "metadata.db"
	lexicalFile  = "lexical.gob"
)

// Store is the on-disk dual index. One writer at a time; readers are
// served from an in-memory view swapped atomically on commit.
type Store struct {
	dir string
	db  *sql.DB

	// writeMu serialises Add and reset against each other.
	writeMu sync.Mutex

	// mu guards the reader view below.
	mu      sync.RWMutex
	chunks  []domain.Chunk
	dense   *denseIndex
	lexical *bm25Index
	closed  bool
}

var _ driven.IndexStore = (*Store)(nil)

// NewStore opens or creates the index under dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, metadataFile)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening metadata database: %w", err)
	}
	if err := migrate(db, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	s := &Store{dir: dataDir, db: db}
	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// load restores the in-memory view from the three artifacts,
// enforcing the vector/metadata parity invariant.
func (s *Store) load() error {
	chunks, err := loadChunks(context.Background(), s.db)
	if err != nil {
		return err
	}

	dense, err := loadVectors(s.vectorsPath())
	if err != nil {
		logger.Critical("index reset: unreadable vectors file (%v), discarding %d chunks", err, len(chunks))
		return s.reset()
	}
	if dense.count() != len(chunks) {
		logger.Critical("index reset: %d vectors vs %d metadata rows", dense.count(), len(chunks))
		return s.reset()
	}

	lexical, err := loadLexical(s.lexicalPath())
	if err != nil || lexical.count() != len(chunks) {
		logger.Warn("lexical index missing or stale, rebuilding from metadata")
		lexical = buildBM25(chunkTexts(chunks))
		if err := saveLexical(s.lexicalPath(), lexical); err != nil {
			logger.Warn("persisting rebuilt lexical index: %v", err)
		}
	}

	s.mu.Lock()
	s.chunks = chunks
	s.dense = dense
	s.lexical = lexical
	s.mu.Unlock()

	logger.Debug("index loaded: %d chunks", len(chunks))
	return nil
}

// reset discards all artifacts and leaves the store empty. Called
// when the artifacts contradict each other; papers must be
// re-ingested afterwards.
func (s *Store) reset() error {
	if err := deleteAllChunks(s.db); err != nil {
		return err
	}
	if err := os.Remove(s.vectorsPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing vectors file: %w", err)
	}
	if err := os.Remove(s.lexicalPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lexical file: %w", err)
	}

	s.mu.Lock()
	s.chunks = nil
	s.dense = &denseIndex{}
	s.lexical = buildBM25(nil)
	s.mu.Unlock()
	return nil
}

func (s *Store) vectorsPath() string { return filepath.Join(s.dir, vectorsFile) }
func (s *Store) lexicalPath() string { return filepath.Join(s.dir, lexicalFile) }

// Add appends chunks and vectors, rebuilds the lexical index over
// the whole corpus and persists all three artifacts. The SQLite
// commit is the durability point; the in-memory swap at the end is
// the visibility point for readers. On error before the commit the
// store is untouched.
func (s *Store) Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%d chunks with %d vectors: %w", len(chunks), len(vectors), domain.ErrInvalidInput)
	}
	if len(chunks) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return domain.ErrIndexClosed
	}
	curChunks := s.chunks
	curDense := s.dense
	s.mu.RUnlock()

	newDense, err := curDense.appendVectors(vectors)
	if err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}

	newChunks := make([]domain.Chunk, 0, len(curChunks)+len(chunks))
	newChunks = append(newChunks, curChunks...)
	newChunks = append(newChunks, chunks...)
	newLexical := buildBM25(chunkTexts(newChunks))

	vecTmp, err := writeVectorsTemp(s.vectorsPath(), newDense)
	if err != nil {
		return err
	}
	lexTmp, err := writeLexicalTemp(s.lexicalPath(), newLexical)
	if err != nil {
		os.Remove(vecTmp)
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		os.Remove(vecTmp)
		os.Remove(lexTmp)
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := insertChunks(ctx, tx, len(curChunks), chunks); err != nil {
		tx.Rollback()
		os.Remove(vecTmp)
		os.Remove(lexTmp)
		return err
	}
	if err := tx.Commit(); err != nil {
		os.Remove(vecTmp)
		os.Remove(lexTmp)
		return fmt.Errorf("committing metadata: %w", err)
	}

	if err := os.Rename(vecTmp, s.vectorsPath()); err != nil {
		os.Remove(vecTmp)
		os.Remove(lexTmp)
		logger.Critical("vectors file not replaced after metadata commit: %v", err)
		return fmt.Errorf("replacing vectors file: %w", err)
	}
	if err := os.Rename(lexTmp, s.lexicalPath()); err != nil {
		// Recoverable: the lexical index rebuilds from metadata at
		// next load.
		os.Remove(lexTmp)
		logger.Warn("lexical file not replaced: %v", err)
	}

	s.mu.Lock()
	s.chunks = newChunks
	s.dense = newDense
	s.lexical = newLexical
	s.mu.Unlock()

	logger.Debug("indexed %d chunks, corpus now %d", len(chunks), len(newChunks))
	return nil
}

// DenseSearch returns the top k chunks by inner product.
func (s *Store) DenseSearch(ctx context.Context, query []float32, k int, opts domain.QueryOptions) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrIndexClosed
	}

	hits := s.dense.search(query, k, s.paperFilter(opts))
	results := make([]domain.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		results = append(results, domain.ScoredChunk{
			Chunk:         s.chunks[h.slot],
			Score:         h.score,
			SemanticScore: h.score,
			SearchType:    "dense",
		})
	}
	return results, nil
}

// LexicalSearch returns the top k chunks by BM25 score.
func (s *Store) LexicalSearch(ctx context.Context, query string, k int, opts domain.QueryOptions) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrIndexClosed
	}

	hits := s.lexical.search(query, k, s.paperFilter(opts))
	results := make([]domain.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		results = append(results, domain.ScoredChunk{
			Chunk:        s.chunks[h.slot],
			Score:        h.score,
			LexicalScore: h.score,
			SearchType:   "lexical",
		})
	}
	return results, nil
}

// paperFilter builds a slot filter for the query options. Must be
// called with mu held.
func (s *Store) paperFilter(opts domain.QueryOptions) func(int) bool {
	if opts.PaperID == "" {
		return nil
	}
	chunks := s.chunks
	return func(slot int) bool {
		return chunks[slot].PaperID == opts.PaperID
	}
}

// ListChunks returns a paper's chunks ordered by chunk index.
func (s *Store) ListChunks(ctx context.Context, paperID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrIndexClosed
	}

	var out []domain.Chunk
	for _, c := range s.chunks {
		if c.PaperID == paperID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

// CountChunks reports how many chunks a paper has.
func (s *Store) CountChunks(ctx context.Context, paperID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, domain.ErrIndexClosed
	}

	count := 0
	for _, c := range s.chunks {
		if c.PaperID == paperID {
			count++
		}
	}
	return count, nil
}

// Stats summarises the index contents.
func (s *Store) Stats(ctx context.Context) (domain.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.IndexStats{}, domain.ErrIndexClosed
	}

	papers := make(map[string]struct{})
	sections := make(map[string]struct{})
	for _, c := range s.chunks {
		papers[c.PaperID] = struct{}{}
		if c.Section != "" {
			sections[c.Section] = struct{}{}
		}
	}
	return domain.IndexStats{
		TotalChunks:    len(s.chunks),
		VectorCount:    s.dense.count(),
		UniquePapers:   len(papers),
		UniqueSections: len(sections),
	}, nil
}

// Close releases the metadata database. The store must not be used
// afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.db.Close()
}

func chunkTexts(chunks []domain.Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}
