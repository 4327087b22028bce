// Package knowledge implements the retrieval engine: document ingestion,
// sentence-boundary chunking, and ranked free-text search over the
// in-memory collection, with a durable snapshot behind every mutation.
package knowledge

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/outreach-engine/internal/config"
	"github.com/sells-group/outreach-engine/internal/model"
	"github.com/sells-group/outreach-engine/internal/store"
)

// ErrEmptyQuery is returned by Search for blank queries.
var ErrEmptyQuery = eris.New("knowledge: empty search query")

const (
	defaultCategory    = "general"
	defaultPriority    = "medium"
	defaultSearchLimit = 10
	previewLen         = 200
	recentWindow       = 7 * 24 * time.Hour

	// snapshotInstance keys the aggregate snapshot in the durable store.
	snapshotInstance = "knowledge"
)

// Engine is the knowledge retrieval engine. All operations are safe for
// concurrent use; mutations flush the full snapshot before returning.
type Engine struct {
	mu      sync.RWMutex
	records []model.KnowledgeRecord

	store        store.Store
	chunkSize    int
	minRelevance float64
	now          func() time.Time
}

// IngestFile is one file queued for batch ingestion.
type IngestFile struct {
	Path string
	Name string
	Meta model.KnowledgeMetadata
}

// ListItem is a collection listing entry with a content preview in place
// of the full document body.
type ListItem struct {
	ID       string                  `json:"id"`
	Filename string                  `json:"filename"`
	Preview  string                  `json:"content_preview"`
	Chunks   int                     `json:"chunks"`
	Metadata model.KnowledgeMetadata `json:"metadata"`
}

// NewEngine builds an engine and loads the durable snapshot.
func NewEngine(ctx context.Context, st store.Store, cfg config.KnowledgeConfig) (*Engine, error) {
	e := &Engine{
		store:        st,
		chunkSize:    cfg.ChunkSize,
		minRelevance: cfg.MinRelevance,
		now:          time.Now,
	}
	if e.chunkSize <= 0 {
		e.chunkSize = DefaultChunkSize
	}

	records, err := st.LoadKnowledge(ctx, snapshotInstance)
	if err != nil {
		return nil, eris.Wrap(err, "knowledge: load snapshot")
	}
	e.records = records
	zap.L().Info("knowledge engine ready", zap.Int("documents", len(records)))
	return e, nil
}

// Ingest extracts, chunks, and stores one document. It takes ownership of
// the file at path and removes it before returning, success or not.
func (e *Engine) Ingest(ctx context.Context, path, name string, meta model.KnowledgeMetadata) (*model.KnowledgeRecord, error) {
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			zap.L().Warn("failed to remove upload artifact", zap.String("path", path), zap.Error(err))
		}
	}()

	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}

	content, err := ExtractText(path, name)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, eris.Errorf("knowledge: no text content in %q", name)
	}

	if meta.Category == "" {
		meta.Category = defaultCategory
	}
	if meta.Priority == "" {
		meta.Priority = defaultPriority
	}
	if meta.Tags == nil {
		meta.Tags = []string{}
	}
	meta.UploadedAt = e.now()
	meta.FileSize = size
	meta.FileType = strings.ToLower(filepath.Ext(name))

	rec := model.KnowledgeRecord{
		ID:       uuid.NewString(),
		Filename: name,
		Content:  content,
		Chunks:   Chunk(content, e.chunkSize),
		Metadata: meta,
	}

	e.mu.Lock()
	e.records = append(e.records, rec)
	err = e.flushLocked(ctx)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	zap.L().Info("document ingested",
		zap.String("id", rec.ID),
		zap.String("filename", rec.Filename),
		zap.Int("chunks", len(rec.Chunks)),
		zap.String("category", meta.Category))
	return &rec, nil
}

// IngestBatch ingests each file independently; one file's failure never
// aborts its siblings.
func (e *Engine) IngestBatch(ctx context.Context, files []IngestFile) []model.IngestOutcome {
	outcomes := make([]model.IngestOutcome, 0, len(files))
	for _, f := range files {
		rec, err := e.Ingest(ctx, f.Path, f.Name, f.Meta)
		if err != nil {
			outcomes = append(outcomes, model.IngestOutcome{
				Filename: f.Name,
				Status:   "failed",
				Error:    err.Error(),
			})
			continue
		}
		outcomes = append(outcomes, model.IngestOutcome{
			Filename: rec.Filename,
			ID:       rec.ID,
			Chunks:   len(rec.Chunks),
			Category: rec.Metadata.Category,
			Status:   "success",
		})
	}
	return outcomes
}

// Search ranks the collection against a free-text query. Scores are term
// frequency densities in [0,1] with category and priority boosts; records
// under the relevance floor are dropped.
func (e *Engine) Search(query, category string, limit int) ([]model.KnowledgeSearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	tokens := strings.Fields(foldText(query))

	e.mu.RLock()
	defer e.mu.RUnlock()

	var results []model.KnowledgeSearchResult
	for i := range e.records {
		rec := e.records[i]
		if !categoryMatches(rec.Metadata.Category, category) {
			continue
		}
		score := relevance(rec, tokens)
		if score < e.minRelevance {
			continue
		}
		cp := rec
		results = append(results, model.KnowledgeSearchResult{Record: &cp, RelevanceScore: score})
	}

	// Ties keep insertion order.
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].RelevanceScore > results[b].RelevanceScore
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Snippets returns the top-n matching chunk texts for a query, used as
// generation context. Failures degrade to no snippets.
func (e *Engine) Snippets(query string, n int) []string {
	results, err := e.Search(query, "", n)
	if err != nil {
		return nil
	}
	snippets := make([]string, 0, n)
	for _, r := range results {
		if len(r.Record.Chunks) > 0 {
			snippets = append(snippets, r.Record.Chunks[0])
		}
	}
	return snippets
}

// Stats aggregates the collection on demand.
func (e *Engine) Stats() model.KnowledgeStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := model.KnowledgeStats{Categories: make(map[string]int)}
	cutoff := e.now().Add(-recentWindow)
	for _, rec := range e.records {
		stats.TotalDocuments++
		stats.TotalSizeBytes += rec.Metadata.FileSize
		stats.Categories[rec.Metadata.Category]++
		if rec.Metadata.UploadedAt.After(cutoff) {
			stats.RecentUploads++
		}
	}
	return stats
}

// List returns a filtered page of the collection with content previews.
func (e *Engine) List(category, search string, limit, offset int) []ListItem {
	e.mu.RLock()
	defer e.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(search))
	var items []ListItem
	for _, rec := range e.records {
		if !categoryMatches(rec.Metadata.Category, category) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(rec.Filename), needle) &&
			!strings.Contains(strings.ToLower(rec.Content), needle) {
			continue
		}
		items = append(items, ListItem{
			ID:       rec.ID,
			Filename: rec.Filename,
			Preview:  preview(rec.Content),
			Chunks:   len(rec.Chunks),
			Metadata: rec.Metadata,
		})
	}

	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// Delete removes a record by id and flushes. It reports whether the
// record existed.
func (e *Engine) Delete(ctx context.Context, id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, rec := range e.records {
		if rec.ID != id {
			continue
		}
		e.records = append(e.records[:i], e.records[i+1:]...)
		if err := e.flushLocked(ctx); err != nil {
			return true, err
		}
		zap.L().Info("document deleted", zap.String("id", id), zap.String("filename", rec.Filename))
		return true, nil
	}
	return false, nil
}

func (e *Engine) flushLocked(ctx context.Context) error {
	if err := e.store.SaveKnowledge(ctx, snapshotInstance, e.records); err != nil {
		return eris.Wrap(err, "knowledge: flush snapshot")
	}
	return nil
}

func categoryMatches(recorded, wanted string) bool {
	return wanted == "" || wanted == "all" || recorded == wanted
}

// relevance sums per-token term frequency density over the document body,
// applies category and priority boosts, and clamps to [0,1].
func relevance(rec model.KnowledgeRecord, tokens []string) float64 {
	text := foldText(rec.Content)
	if len(text) == 0 {
		return 0
	}

	var score float64
	for _, tok := range tokens {
		occurrences := strings.Count(text, tok)
		score += float64(occurrences) * 100 / float64(len(text))
	}
	if rec.Metadata.Category == "outreach_templates" {
		score *= 1.5
	}
	if rec.Metadata.Priority == "high" {
		score *= 1.3
	}
	return math.Min(score, 1)
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldText lower-cases and strips diacritics so "résumé" matches "resume".
func foldText(s string) string {
	folded, _, err := transform.String(foldTransformer, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

func preview(content string) string {
	r := []rune(content)
	if len(r) <= previewLen {
		return content
	}
	return string(r[:previewLen]) + "..."
}
