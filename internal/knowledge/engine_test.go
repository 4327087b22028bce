package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-engine/internal/config"
	"github.com/sells-group/outreach-engine/internal/model"
	"github.com/sells-group/outreach-engine/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	e, err := NewEngine(context.Background(), st, config.KnowledgeConfig{
		ChunkSize:    800,
		MinRelevance: 0.01,
	})
	require.NoError(t, err)
	return e, st
}

func ingestDoc(t *testing.T, e *Engine, name, content string, meta model.KnowledgeMetadata) *model.KnowledgeRecord {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload-artifact")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	rec, err := e.Ingest(context.Background(), path, name, meta)
	require.NoError(t, err)
	return rec
}

func TestIngestAppliesDefaults(t *testing.T) {
	e, _ := newTestEngine(t)

	rec := ingestDoc(t, e, "pitch.txt", "Automation pitch deck notes.", model.KnowledgeMetadata{})
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "general", rec.Metadata.Category)
	assert.Equal(t, "medium", rec.Metadata.Priority)
	assert.Equal(t, []string{}, rec.Metadata.Tags)
	assert.Equal(t, ".txt", rec.Metadata.FileType)
	assert.NotEmpty(t, rec.Chunks)
}

func TestIngestRemovesArtifact(t *testing.T) {
	e, _ := newTestEngine(t)
	path := filepath.Join(t.TempDir(), "artifact")
	require.NoError(t, os.WriteFile(path, []byte("some content."), 0o644))

	_, err := e.Ingest(context.Background(), path, "a.txt", model.KnowledgeMetadata{})
	require.NoError(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestIngestRemovesArtifactOnFailure(t *testing.T) {
	e, _ := newTestEngine(t)
	path := filepath.Join(t.TempDir(), "artifact")
	require.NoError(t, os.WriteFile(path, []byte("irrelevant"), 0o644))

	_, err := e.Ingest(context.Background(), path, "sheet.xlsx", model.KnowledgeMetadata{})
	assert.True(t, eris.Is(err, ErrUnsupportedFormat))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestIngestBatchPartialFailure(t *testing.T) {
	e, _ := newTestEngine(t)
	dir := t.TempDir()
	good := filepath.Join(dir, "good")
	bad := filepath.Join(dir, "bad")
	require.NoError(t, os.WriteFile(good, []byte("Useful content here."), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o644))

	outcomes := e.IngestBatch(context.Background(), []IngestFile{
		{Path: good, Name: "good.txt"},
		{Path: bad, Name: "bad.xlsx"},
	})

	require.Len(t, outcomes, 2)
	assert.Equal(t, "success", outcomes[0].Status)
	assert.Equal(t, "failed", outcomes[1].Status)
	assert.NotEmpty(t, outcomes[1].Error)
	assert.Equal(t, 1, e.Stats().TotalDocuments)
}

func TestSearchEmptyQuery(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Search("   ", "", 10)
	assert.True(t, eris.Is(err, ErrEmptyQuery))
}

func TestSearchCasingInvariant(t *testing.T) {
	e, _ := newTestEngine(t)
	ingestDoc(t, e, "a.txt", "Automation reduces manual helpdesk workload.", model.KnowledgeMetadata{})

	lower, err := e.Search("automation", "", 10)
	require.NoError(t, err)
	upper, err := e.Search("AUTOMATION", "", 10)
	require.NoError(t, err)

	require.Len(t, lower, 1)
	require.Len(t, upper, 1)
	assert.Equal(t, lower[0].RelevanceScore, upper[0].RelevanceScore)
}

func TestSearchDiacriticFolding(t *testing.T) {
	e, _ := newTestEngine(t)
	ingestDoc(t, e, "r.txt", "Attach your résumé before the call.", model.KnowledgeMetadata{})

	results, err := e.Search("resume", "", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchBoostsOrdering(t *testing.T) {
	e, _ := newTestEngine(t)
	// Long enough that the boosted score stays under the clamp.
	body := "Outreach automation talking points for the discovery call. " +
		"General positioning material and product background follows here, " +
		"covering the platform overview, deployment options, onboarding timelines, " +
		"integration coverage across common ticketing and chat systems, security and " +
		"compliance posture, reporting capabilities, typical rollout phasing, training " +
		"resources for admins and agents, and renewal economics over a three year horizon."
	ingestDoc(t, e, "plain.txt", body, model.KnowledgeMetadata{Category: "case_studies"})
	ingestDoc(t, e, "boosted.txt", body, model.KnowledgeMetadata{Category: "outreach_templates"})

	results, err := e.Search("outreach automation", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "boosted.txt", results[0].Record.Filename)
}

func TestSearchCategoryFilter(t *testing.T) {
	e, _ := newTestEngine(t)
	ingestDoc(t, e, "a.txt", "Pricing objections and answers.", model.KnowledgeMetadata{Category: "objections"})
	ingestDoc(t, e, "b.txt", "Pricing tiers overview.", model.KnowledgeMetadata{Category: "product"})

	results, err := e.Search("pricing", "objections", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.txt", results[0].Record.Filename)

	all, err := e.Search("pricing", "all", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSearchIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	ingestDoc(t, e, "a.txt", "Workflow automation guidance.", model.KnowledgeMetadata{})

	first, err := e.Search("workflow", "", 10)
	require.NoError(t, err)
	second, err := e.Search("workflow", "", 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSearchUnmatchedDropped(t *testing.T) {
	e, _ := newTestEngine(t)
	ingestDoc(t, e, "a.txt", "Nothing relevant lives in this document body.", model.KnowledgeMetadata{})

	results, err := e.Search("kubernetes", "", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStats(t *testing.T) {
	e, _ := newTestEngine(t)
	ingestDoc(t, e, "a.txt", "First document body.", model.KnowledgeMetadata{Category: "product"})
	ingestDoc(t, e, "b.txt", "Second document body.", model.KnowledgeMetadata{Category: "product"})
	ingestDoc(t, e, "c.txt", "Third document body.", model.KnowledgeMetadata{})

	stats := e.Stats()
	assert.Equal(t, 3, stats.TotalDocuments)
	assert.Equal(t, 2, stats.Categories["product"])
	assert.Equal(t, 1, stats.Categories["general"])
	assert.Equal(t, 3, stats.RecentUploads)
	assert.Greater(t, stats.TotalSizeBytes, int64(0))
}

func TestStatsRecentWindow(t *testing.T) {
	e, _ := newTestEngine(t)
	ingestDoc(t, e, "old.txt", "Old document body.", model.KnowledgeMetadata{})

	e.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	stats := e.Stats()
	assert.Equal(t, 1, stats.TotalDocuments)
	assert.Equal(t, 0, stats.RecentUploads)
}

func TestListFiltersAndPreviews(t *testing.T) {
	e, _ := newTestEngine(t)
	ingestDoc(t, e, "long.txt", "Prefix sentence. Handoff checklist for onboarding new accounts with many details repeated to exceed the preview length for this listing entry so the preview gets truncated with an ellipsis marker at the cutoff point, well past two hundred characters of content in total for certain.", model.KnowledgeMetadata{Category: "playbooks"})
	ingestDoc(t, e, "short.txt", "Short body.", model.KnowledgeMetadata{})

	items := e.List("playbooks", "", 0, 0)
	require.Len(t, items, 1)
	assert.Equal(t, "long.txt", items[0].Filename)
	assert.Contains(t, items[0].Preview, "...")

	items = e.List("", "short", 0, 0)
	require.Len(t, items, 1)
	assert.Equal(t, "Short body.", items[0].Preview)
}

func TestListPagination(t *testing.T) {
	e, _ := newTestEngine(t)
	ingestDoc(t, e, "a.txt", "Body one.", model.KnowledgeMetadata{})
	ingestDoc(t, e, "b.txt", "Body two.", model.KnowledgeMetadata{})
	ingestDoc(t, e, "c.txt", "Body three.", model.KnowledgeMetadata{})

	page := e.List("", "", 2, 1)
	require.Len(t, page, 2)
	assert.Equal(t, "b.txt", page[0].Filename)

	assert.Nil(t, e.List("", "", 2, 5))
}

func TestDelete(t *testing.T) {
	e, _ := newTestEngine(t)
	rec := ingestDoc(t, e, "a.txt", "Deletable body.", model.KnowledgeMetadata{})

	existed, err := e.Delete(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, 0, e.Stats().TotalDocuments)

	existed, err = e.Delete(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestSnapshotSurvivesRestart(t *testing.T) {
	e, st := newTestEngine(t)
	ingestDoc(t, e, "a.txt", "Persistent body content.", model.KnowledgeMetadata{Category: "product"})

	reloaded, err := NewEngine(context.Background(), st, config.KnowledgeConfig{ChunkSize: 800, MinRelevance: 0.01})
	require.NoError(t, err)

	results, err := reloaded.Search("persistent", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.txt", results[0].Record.Filename)
}
