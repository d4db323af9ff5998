// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scout

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/internal/schedule"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// --- fakes ---

type fakeFeed struct {
	entries map[string][]Entry
	errs    map[string]error
}

func (f *fakeFeed) Categories(context.Context) ([]types.Category, error) {
	return []types.Category{{ID: "cs.AI", Name: "Artificial Intelligence"}}, nil
}

func (f *fakeFeed) Recent(_ context.Context, category string, _ int) ([]Entry, error) {
	if err := f.errs[category]; err != nil {
		return nil, err
	}
	return f.entries[category], nil
}

type fakeStore struct {
	papers     map[string]*types.Paper
	categories map[string]types.Category
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		papers:     make(map[string]*types.Paper),
		categories: make(map[string]types.Category),
	}
}

func (s *fakeStore) GetPaper(_ context.Context, id string) (*types.Paper, error) {
	p, ok := s.papers[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) UpsertPaper(_ context.Context, p *types.Paper) error {
	cp := *p
	s.papers[p.ID] = &cp
	return nil
}

func (s *fakeStore) UpsertCategory(_ context.Context, c types.Category) error {
	s.categories[c.ID] = c
	return nil
}

func testScout(t *testing.T, feed SourceFeed, store Store) *Scout {
	t.Helper()
	sched := schedule.NewScheduler(types.SchedulerConfig{
		MinInterval:       time.Millisecond,
		RefillPeriod:      10 * time.Second,
		TransientDelay:    time.Millisecond,
		ThrottleBaseDelay: time.Millisecond,
	})
	sched.Start()
	t.Cleanup(sched.Stop)
	return New(feed, store, sched, types.ScoutConfig{MaxPerCategory: 25})
}

func entryAt(id string, published time.Time) Entry {
	return Entry{
		IDURL:      "http://arxiv.org/abs/" + id,
		Title:      "Paper " + id,
		Abstract:   "An abstract.",
		Authors:    []string{"A. Author"},
		Categories: []string{"cs.AI"},
		Published:  published,
		Updated:    published,
	}
}

// --- tests ---

func TestIngestCreatesNewPaper(t *testing.T) {
	store := newFakeStore()
	feed := &fakeFeed{entries: map[string][]Entry{
		"cs.AI": {entryAt("2401.12345v1", time.Now())},
	}}
	s := testScout(t, feed, store)

	var buf bytes.Buffer
	ids, summary, err := s.IngestRecent(context.Background(), []string{"cs.AI"}, 10, &buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"2401.12345"}, ids)
	assert.Equal(t, 1, summary.Created)

	p := store.papers["2401.12345"]
	require.NotNil(t, p)
	assert.Equal(t, 1, p.Version)
	assert.Equal(t, types.StatusNew, p.Status)
}

func TestIngestSkipsSameOrLowerVersion(t *testing.T) {
	store := newFakeStore()
	feed := &fakeFeed{entries: map[string][]Entry{
		"cs.AI": {entryAt("2401.12345v1", time.Now())},
	}}
	s := testScout(t, feed, store)

	var buf bytes.Buffer
	_, _, err := s.IngestRecent(context.Background(), []string{"cs.AI"}, 10, &buf)
	require.NoError(t, err)

	// Mark enriched so we can observe that a skip does not touch the record.
	store.papers["2401.12345"].Status = types.StatusEnriched

	ids, summary, err := s.IngestRecent(context.Background(), []string{"cs.AI"}, 10, &buf)
	require.NoError(t, err)

	assert.Empty(t, ids)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Created+summary.Updated)
	assert.Equal(t, types.StatusEnriched, store.papers["2401.12345"].Status)
	assert.Equal(t, 1, store.papers["2401.12345"].Version)
}

func TestIngestUpgradesStrictlyGreaterVersion(t *testing.T) {
	store := newFakeStore()
	feed := &fakeFeed{entries: map[string][]Entry{
		"cs.AI": {entryAt("2401.12345v1", time.Now())},
	}}
	s := testScout(t, feed, store)

	var buf bytes.Buffer
	_, _, err := s.IngestRecent(context.Background(), []string{"cs.AI"}, 10, &buf)
	require.NoError(t, err)
	store.papers["2401.12345"].Status = types.StatusRanked

	feed.entries["cs.AI"] = []Entry{entryAt("2401.12345v2", time.Now())}
	ids, summary, err := s.IngestRecent(context.Background(), []string{"cs.AI"}, 10, &buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"2401.12345"}, ids)
	assert.Equal(t, 1, summary.Updated)

	p := store.papers["2401.12345"]
	assert.Equal(t, 2, p.Version)
	// The new content must be re-enriched and re-ranked.
	assert.Equal(t, types.StatusNew, p.Status)
}

func TestIngestMalformedEntryDoesNotAbortBatch(t *testing.T) {
	store := newFakeStore()
	feed := &fakeFeed{entries: map[string][]Entry{
		"cs.AI": {
			{IDURL: "http://example.com/not-arxiv"},
			entryAt("2401.00002v1", time.Now()),
		},
	}}
	s := testScout(t, feed, store)

	var buf bytes.Buffer
	ids, summary, err := s.IngestRecent(context.Background(), []string{"cs.AI"}, 10, &buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"2401.00002"}, ids)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Created)
	assert.Contains(t, buf.String(), "failed")
}

func TestIngestCategoryFailureContinues(t *testing.T) {
	store := newFakeStore()
	feed := &fakeFeed{
		entries: map[string][]Entry{
			"cs.LG": {entryAt("2401.00003v1", time.Now())},
		},
		errs: map[string]error{"cs.AI": errors.New("feed unreachable")},
	}
	s := testScout(t, feed, store)

	var buf bytes.Buffer
	ids, summary, err := s.IngestRecent(context.Background(), []string{"cs.AI", "cs.LG"}, 10, &buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"2401.00003"}, ids)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Created)
}

func TestSyncCategoriesUpserts(t *testing.T) {
	store := newFakeStore()
	s := testScout(t, &fakeFeed{}, store)

	cats, err := s.SyncCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Artificial Intelligence", store.categories["cs.AI"].Name)
}
