// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/internal/enrich"
	"github.com/pdiddy/paper-digest/internal/rank"
	"github.com/pdiddy/paper-digest/internal/scout"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// --- fakes ---

type fakeIngester struct {
	ids []string
	err error
}

func (f *fakeIngester) IngestRecent(_ context.Context, _ []string, _ int, _ io.Writer) ([]string, scout.IngestSummary, error) {
	if f.err != nil {
		return nil, scout.IngestSummary{}, f.err
	}
	return f.ids, scout.IngestSummary{Created: len(f.ids)}, nil
}

type fakeEnricher struct {
	enriched int
	err      error
}

func (f *fakeEnricher) EnrichPending(_ context.Context, _ io.Writer) (enrich.BatchSummary, error) {
	if f.err != nil {
		return enrich.BatchSummary{}, f.err
	}
	return enrich.BatchSummary{Enriched: f.enriched}, nil
}

type fakePipelineStore struct {
	profiles    map[string]*types.Profile
	enriched    []*types.Paper
	enrichments map[string]*types.Enrichment
	scores      []*types.Score
	statuses    map[string]types.PaperStatus
	briefings   map[string]*types.Briefing
	listErr     error
}

func newFakePipelineStore() *fakePipelineStore {
	return &fakePipelineStore{
		profiles:    make(map[string]*types.Profile),
		enrichments: make(map[string]*types.Enrichment),
		statuses:    make(map[string]types.PaperStatus),
		briefings:   make(map[string]*types.Briefing),
	}
}

func (s *fakePipelineStore) GetProfile(_ context.Context, userID string) (*types.Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return nil, errors.New("profile not found")
	}
	return p, nil
}

func (s *fakePipelineStore) ListPapersByStatus(_ context.Context, status types.PaperStatus) ([]*types.Paper, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if status != types.StatusEnriched {
		return nil, nil
	}
	return s.enriched, nil
}

func (s *fakePipelineStore) GetEnrichment(_ context.Context, paperID string) (*types.Enrichment, error) {
	return s.enrichments[paperID], nil
}

func (s *fakePipelineStore) SetPaperStatus(_ context.Context, id string, status types.PaperStatus) error {
	s.statuses[id] = status
	return nil
}

func (s *fakePipelineStore) PutScores(_ context.Context, scores []*types.Score) error {
	s.scores = append(s.scores, scores...)
	return nil
}

func (s *fakePipelineStore) ListScores(_ context.Context, userID, runID string) ([]*types.Score, error) {
	var out []*types.Score
	for _, score := range s.scores {
		if score.UserID == userID && score.RunID == runID {
			out = append(out, score)
		}
	}
	return out, nil
}

func (s *fakePipelineStore) PutBriefing(_ context.Context, b *types.Briefing) error {
	s.briefings[b.UserID+"/"+b.Date] = b
	return nil
}

// --- helpers ---

func pipelineProfile() *types.Profile {
	p := types.DefaultProfile("user-1")
	p.InterestVector = []float32{1, 0}
	p.ExplorationRate = 0
	return p
}

func enrichedPaper(id string) *types.Paper {
	return &types.Paper{
		ID: id, Version: 1, Title: "Paper " + id, Abstract: "About agents.",
		Published: time.Now(), Status: types.StatusEnriched,
	}
}

func testPipeline(ing Ingester, enr Enricher, store Store) *Pipeline {
	p := New(ing, enr, rank.New(), store, types.PipelineConfig{})
	p.newRunID = func() string { return "run-test" }
	return p
}

// --- tests ---

func TestRunSequencesAllStages(t *testing.T) {
	store := newFakePipelineStore()
	store.profiles["user-1"] = pipelineProfile()
	store.enriched = []*types.Paper{enrichedPaper("2401.00001"), enrichedPaper("2401.00002")}
	store.enrichments["2401.00001"] = &types.Enrichment{PaperID: "2401.00001", Embedding: []float32{1, 0}}
	store.enrichments["2401.00002"] = &types.Enrichment{PaperID: "2401.00002", Embedding: []float32{0, 1}}

	p := testPipeline(&fakeIngester{ids: []string{"2401.00001", "2401.00002"}}, &fakeEnricher{enriched: 2}, store)

	var buf bytes.Buffer
	summary, err := p.Run(context.Background(), "user-1", &buf)
	require.NoError(t, err)

	assert.Equal(t, "run-test", summary.RunID)
	assert.Equal(t, 2, summary.Ingested)
	assert.Equal(t, 2, summary.Enriched)
	assert.Equal(t, 2, summary.Ranked)
	assert.Equal(t, 0, summary.Skipped)

	assert.Len(t, store.scores, 2)
	assert.Equal(t, types.StatusRanked, store.statuses["2401.00001"])
	assert.Equal(t, types.StatusRanked, store.statuses["2401.00002"])
	assert.Contains(t, buf.String(), "run run-test: ingested: 2, enriched: 2, ranked: 2")
}

func TestRunScoutFailureDoesNotBlockEnrichment(t *testing.T) {
	store := newFakePipelineStore()
	store.profiles["user-1"] = pipelineProfile()
	store.enriched = []*types.Paper{enrichedPaper("2401.00010")}
	store.enrichments["2401.00010"] = &types.Enrichment{PaperID: "2401.00010", Embedding: []float32{1, 0}}

	p := testPipeline(&fakeIngester{err: errors.New("feed unreachable")}, &fakeEnricher{enriched: 1}, store)

	var buf bytes.Buffer
	summary, err := p.Run(context.Background(), "user-1", &buf)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Ingested)
	assert.Equal(t, 1, summary.Enriched)
	assert.Equal(t, 1, summary.Ranked)
	assert.Contains(t, buf.String(), "scout stage failed")
}

func TestRunEnrichFailureDoesNotBlockRanking(t *testing.T) {
	store := newFakePipelineStore()
	store.profiles["user-1"] = pipelineProfile()
	store.enriched = []*types.Paper{enrichedPaper("2401.00020")}
	store.enrichments["2401.00020"] = &types.Enrichment{PaperID: "2401.00020", Embedding: []float32{1, 0}}

	p := testPipeline(&fakeIngester{}, &fakeEnricher{err: errors.New("provider down")}, store)

	var buf bytes.Buffer
	summary, err := p.Run(context.Background(), "user-1", &buf)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Enriched)
	assert.Equal(t, 1, summary.Ranked)
	assert.Contains(t, buf.String(), "enrich stage failed")
}

func TestRunRankFailureSurfacedAfterEarlierStages(t *testing.T) {
	store := newFakePipelineStore()
	store.profiles["user-1"] = pipelineProfile()
	store.listErr = errors.New("database locked")

	p := testPipeline(&fakeIngester{ids: []string{"2401.00030"}}, &fakeEnricher{enriched: 1}, store)

	var buf bytes.Buffer
	summary, err := p.Run(context.Background(), "user-1", &buf)
	require.Error(t, err)

	// Earlier stage counts stay truthful even when ranking aborts.
	assert.Equal(t, 1, summary.Ingested)
	assert.Equal(t, 1, summary.Enriched)
	assert.Equal(t, 0, summary.Ranked)
}

func TestRunReportsUnenrichedSkips(t *testing.T) {
	store := newFakePipelineStore()
	store.profiles["user-1"] = pipelineProfile()
	store.enriched = []*types.Paper{enrichedPaper("2401.00040"), enrichedPaper("2401.00041")}
	// Only one of the two has an enrichment record.
	store.enrichments["2401.00041"] = &types.Enrichment{PaperID: "2401.00041", Embedding: []float32{1, 0}}

	p := testPipeline(&fakeIngester{}, &fakeEnricher{}, store)

	var buf bytes.Buffer
	summary, err := p.Run(context.Background(), "user-1", &buf)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Ranked)
	assert.Equal(t, 1, summary.Skipped)
	assert.Contains(t, buf.String(), "skipped 2401.00040")
	assert.NotEqual(t, types.StatusRanked, store.statuses["2401.00040"])
}

func TestRunMissingProfile(t *testing.T) {
	p := testPipeline(&fakeIngester{}, &fakeEnricher{}, newFakePipelineStore())
	_, err := p.Run(context.Background(), "ghost", io.Discard)
	assert.Error(t, err)
}
