package knowledge

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/promptgate/internal/embeddings"
)

// Persistence artifacts under the knowledge base root. All three are
// regenerable from documentsFile alone; losing the other two only degrades
// search until the next rebuild.
const (
	documentsFile = "documents.json"
	vectorsFile   = "vectors.gob"
	indexFile     = "index.gob"
)

const (
	contextTopK      = 3
	contextMinScore  = 0.01
	truncationMarker = "..."
	// minTruncatedRoom is the smallest leftover budget worth filling with a
	// truncated block.
	minTruncatedRoom = 100
)

// ErrEmptyContent is returned by Add for documents with no content.
var ErrEmptyContent = errors.New("knowledge: document content cannot be empty")

// tierReporter is implemented by the tiered provider so stats can name the
// tier that actually served recent calls.
type tierReporter interface {
	ActiveTier() string
}

// Store owns the document set, the embedding matrix and the similarity
// index. Reads are frequent, writes are rare: every add rebuilds fresh
// vectors and index outside the lock, then swaps them in atomically so a
// concurrent search never observes a partial rebuild.
type Store struct {
	dir      string
	provider embeddings.Provider
	logger   *zap.Logger

	mu      sync.RWMutex
	docs    []Document
	vectors [][]float32
	index   *Index
}

// NewStore opens the knowledge base rooted at dir, loading any persisted
// artifacts. A missing or unreadable vectors or index artifact triggers an
// in-memory rebuild; a missing documents artifact means a fresh empty store.
func NewStore(ctx context.Context, dir string, provider embeddings.Provider, logger *zap.Logger) (*Store, error) {
	if provider == nil {
		return nil, errors.New("knowledge: embedding provider required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating knowledge dir: %w", err)
	}

	s := &Store{
		dir:      dir,
		provider: provider,
		logger:   logger,
	}
	s.load(ctx)
	return s, nil
}

// Add appends a document, rebuilds vectors and index, and persists all
// three artifacts. Rebuild and persistence failures are logged but do not
// lose the document.
func (s *Store) Add(ctx context.Context, content, title, category string, tags []string) (string, error) {
	if content == "" {
		return "", ErrEmptyContent
	}
	if tags == nil {
		tags = []string{}
	}

	s.mu.Lock()
	id := fmt.Sprintf("doc_%d_%s", len(s.docs), time.Now().Format("20060102_150405"))
	s.docs = append(s.docs, Document{
		ID:        id,
		Title:     title,
		Content:   content,
		Category:  category,
		Tags:      tags,
		CreatedAt: time.Now(),
	})
	s.mu.Unlock()

	if err := s.Rebuild(ctx); err != nil {
		s.logger.Warn("vector rebuild failed, lexical search will serve until next rebuild",
			zap.Error(err))
	}
	if err := s.save(); err != nil {
		s.logger.Error("failed to persist knowledge base", zap.Error(err))
	}

	return id, nil
}

// All returns a copy of the document list in insertion order.
func (s *Store) All() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Rebuild re-embeds every document and swaps in a fresh index. Embedding
// happens outside the lock; only the final swap takes the write lock.
func (s *Store) Rebuild(ctx context.Context) error {
	s.mu.RLock()
	texts := make([]string, len(s.docs))
	for i, doc := range s.docs {
		texts[i] = doc.Content
	}
	s.mu.RUnlock()

	if len(texts) == 0 {
		s.mu.Lock()
		s.vectors = nil
		s.index = nil
		s.mu.Unlock()
		return nil
	}

	vectors, err := s.provider.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding documents: %w", err)
	}

	index, err := NewIndex(vectors)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	s.mu.Lock()
	s.vectors = vectors
	s.index = index
	s.mu.Unlock()

	s.logger.Info("rebuilt vector index",
		zap.Int("documents", len(texts)),
		zap.Int("dimension", index.Dim))
	return nil
}

// Search returns up to topK documents ranked by relevance, filtered by
// minScore. Vector similarity is used when an index exists and the query
// embedding matches its dimensionality; any failure on that path falls back
// to lexical scoring, logged and never surfaced.
func (s *Store) Search(ctx context.Context, query string, topK int, minScore float64) ([]SearchResult, error) {
	s.mu.RLock()
	docs := s.docs
	index := s.index
	s.mu.RUnlock()

	if len(docs) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		return nil, nil
	}

	if index != nil {
		results, err := s.vectorSearch(ctx, docs, index, query, topK, minScore)
		if err == nil {
			return results, nil
		}
		s.logger.Warn("vector search failed, falling back to lexical scoring",
			zap.Error(err))
	}

	results := lexicalSearch(docs, query, topK)
	filtered := results[:0]
	for _, r := range results {
		if r.Score >= minScore {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func (s *Store) vectorSearch(ctx context.Context, docs []Document, index *Index, query string, topK int, minScore float64) ([]SearchResult, error) {
	vec, err := s.provider.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := index.Search(vec, topK, minScore)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		if h.pos >= len(docs) {
			return nil, fmt.Errorf("index position %d out of range", h.pos)
		}
		results = append(results, SearchResult{Document: docs[h.pos], Score: h.score})
	}
	return results, nil
}

// Context assembles a retrieval context for the query, bounded by maxLen
// runes. Blocks are "[title]\ncontent" joined by blank lines in ranked
// order; the first block that would overflow is truncated with a marker,
// reserving room for its title, and later blocks are dropped.
func (s *Store) Context(ctx context.Context, query string, maxLen int) (string, error) {
	results, err := s.Search(ctx, query, contextTopK, contextMinScore)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}

	var parts []string
	used := 0
	for _, r := range results {
		block := "[" + r.Document.Title + "]\n" + r.Document.Content
		blockLen := len([]rune(block))

		if used+blockLen <= maxLen {
			parts = append(parts, block)
			used += blockLen
			continue
		}

		remaining := maxLen - used
		if remaining > minTruncatedRoom {
			title := []rune(r.Document.Title)
			content := []rune(r.Document.Content)
			keep := remaining - len(title) - 10
			if keep > 0 {
				if keep > len(content) {
					keep = len(content)
				}
				parts = append(parts, "["+r.Document.Title+"]\n"+string(content[:keep])+truncationMarker)
			}
		}
		break
	}

	return strings.Join(parts, "\n\n"), nil
}

// Stats reports document counts, per-category breakdown, index presence and
// the serving embedding tier.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make(map[string]int)
	totalChars := 0
	for _, doc := range s.docs {
		category := doc.Category
		if category == "" {
			category = "uncategorized"
		}
		categories[category]++
		totalChars += len([]rune(doc.Content))
	}

	tier := s.provider.Name()
	if r, ok := s.provider.(tierReporter); ok {
		tier = r.ActiveTier()
	}

	return Stats{
		TotalDocuments:  len(s.docs),
		TotalCharacters: totalChars,
		Categories:      categories,
		HasVectorIndex:  s.index != nil,
		EncoderTier:     tier,
	}
}

// load reconstructs in-memory state from the persisted artifacts. Every
// failure here is non-fatal: a broken documents artifact means starting
// empty, broken vectors or index mean rebuilding them.
func (s *Store) load(ctx context.Context) {
	docsPath := filepath.Join(s.dir, documentsFile)
	data, err := os.ReadFile(docsPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Error("failed to read documents artifact, starting empty",
				zap.String("path", docsPath), zap.Error(err))
		}
		return
	}
	if err := json.Unmarshal(data, &s.docs); err != nil {
		s.logger.Error("failed to decode documents artifact, starting empty",
			zap.String("path", docsPath), zap.Error(err))
		s.docs = nil
		return
	}
	if len(s.docs) == 0 {
		return
	}

	vectors, verr := loadGob[[][]float32](filepath.Join(s.dir, vectorsFile))
	index, ierr := loadGob[*Index](filepath.Join(s.dir, indexFile))
	if verr == nil && ierr == nil && len(vectors) == len(s.docs) {
		s.vectors = vectors
		s.index = index
		s.logger.Info("loaded knowledge base",
			zap.Int("documents", len(s.docs)),
			zap.Int("dimension", index.Dim))
		return
	}

	s.logger.Warn("vector artifacts missing or stale, rebuilding index",
		zap.NamedError("vectors", verr),
		zap.NamedError("index", ierr))
	if err := s.Rebuild(ctx); err != nil {
		s.logger.Warn("startup rebuild failed, lexical search will serve",
			zap.Error(err))
	}
}

func (s *Store) save() error {
	s.mu.RLock()
	docs := s.docs
	vectors := s.vectors
	index := s.index
	s.mu.RUnlock()

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding documents: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, documentsFile), data, 0o644); err != nil {
		return fmt.Errorf("writing documents artifact: %w", err)
	}

	if vectors != nil {
		if err := saveGob(filepath.Join(s.dir, vectorsFile), vectors); err != nil {
			return fmt.Errorf("writing vectors artifact: %w", err)
		}
	}
	if index != nil {
		if err := saveGob(filepath.Join(s.dir, indexFile), index); err != nil {
			return fmt.Errorf("writing index artifact: %w", err)
		}
	}
	return nil
}

func saveGob(path string, value any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func loadGob[T any](path string) (T, error) {
	var value T
	data, err := os.ReadFile(path)
	if err != nil {
		return value, err
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&value); err != nil {
		return value, err
	}
	return value, nil
}
