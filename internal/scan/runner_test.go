package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadhunt/ytleads/internal/checkpoint"
	"github.com/leadhunt/ytleads/internal/domain"
)

// fakeCollector serves scripted search pages and channel details.
type fakeCollector struct {
	mu sync.Mutex
	// pages is keyed by "keyword|pageToken".
	pages   map[string]domain.SearchPage
	details map[string]domain.ChannelInfo

	searchCalls  []string // the page keys requested, in order
	detailCalls  int
	uploadsCalls int
	uploadsErr   error
}

func (f *fakeCollector) SearchChannels(ctx context.Context, query, pageToken string, maxResults int64) (domain.SearchPage, error) {
	key := query + "|" + pageToken
	f.searchCalls = append(f.searchCalls, key)
	return f.pages[key], nil
}

func (f *fakeCollector) ChannelDetails(ctx context.Context, ids []string) ([]domain.ChannelInfo, error) {
	f.detailCalls++
	var infos []domain.ChannelInfo
	for _, id := range ids {
		if info, ok := f.details[id]; ok {
			infos = append(infos, info)
		}
	}
	return infos, nil
}

func (f *fakeCollector) ChannelUploads(ctx context.Context, id string) (string, error) {
	f.mu.Lock()
	f.uploadsCalls++
	f.mu.Unlock()
	if f.uploadsErr != nil {
		return "", f.uploadsErr
	}
	return "UU" + id, nil
}

// fakeSink records appended leads in memory.
type fakeSink struct {
	existing  []string
	appended  []domain.Lead
	appendErr error
}

func (f *fakeSink) Prepare(ctx context.Context) ([]string, error) {
	return f.existing, nil
}

func (f *fakeSink) AppendLeads(ctx context.Context, leads []domain.Lead) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, leads...)
	return nil
}

func (f *fakeSink) urls() []string {
	var urls []string
	for _, l := range f.appended {
		urls = append(urls, l.URL)
	}
	return urls
}

func goodChannel(id string, subs int64) domain.ChannelInfo {
	return domain.ChannelInfo{
		ID:          id,
		Title:       "Channel " + id,
		Description: "contact " + id + "@example.com",
		Country:     "US",
		Subscribers: subs,
	}
}

func newTestRunner(t *testing.T, coll domain.Collector, sink domain.Sink) *Runner {
	t.Helper()
	return &Runner{
		Collector: coll,
		Sink:      sink,
		Checkpoints: &checkpoint.Store{
			Path:   filepath.Join(t.TempDir(), "checkpoint.json"),
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
		Filters: domain.FilterConfig{
			MaxResultsPerPage:  50,
			MaxValidPerKeyword: 100,
		},
		Workers: 2,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func params(keywords ...string) domain.ScanParams {
	return domain.ScanParams{Keywords: keywords, MinSubs: 1000, MaxSubs: 100000}
}

func TestRunZeroHitsMarksKeywordExhausted(t *testing.T) {
	coll := &fakeCollector{pages: map[string]domain.SearchPage{}}
	sink := &fakeSink{}
	r := newTestRunner(t, coll, sink)

	require.NoError(t, r.Run(context.Background(), params("emptykw")))

	assert.Empty(t, sink.appended)
	cp := r.Checkpoints.Load()
	cursor, started := cp.Cursor("emptykw")
	assert.True(t, started)
	assert.Nil(t, cursor)
	assert.Equal(t, 0, cp.DoneCount("emptykw"))
}

func TestRunFiltersCandidates(t *testing.T) {
	coll := &fakeCollector{
		pages: map[string]domain.SearchPage{
			"kw|": {ChannelIDs: []string{"good", "toosmall", "toobig", "wrongcountry", "noemail", "dupe"}},
		},
		details: map[string]domain.ChannelInfo{
			"good":     goodChannel("good", 5000),
			"toosmall": goodChannel("toosmall", 10),
			"toobig":   goodChannel("toobig", 9000000),
			"wrongcountry": {
				ID: "wrongcountry", Title: "DE", Country: "DE",
				Description: "mail@example.com", Subscribers: 5000,
			},
			"noemail": {
				ID: "noemail", Title: "Quiet", Country: "US",
				Description: "no contact info here", Subscribers: 5000,
			},
			"dupe": goodChannel("dupe", 5000),
		},
	}
	sink := &fakeSink{existing: []string{domain.ChannelURL("dupe")}}
	r := newTestRunner(t, coll, sink)
	r.Filters.AllowedCountries = map[string]struct{}{"US": {}}

	require.NoError(t, r.Run(context.Background(), params("kw")))

	require.Len(t, sink.appended, 1)
	lead := sink.appended[0]
	assert.Equal(t, domain.ChannelURL("good"), lead.URL)
	assert.Equal(t, "kw", lead.Keyword)
	assert.Equal(t, []string{"good@example.com"}, lead.Emails)
	assert.Equal(t, "UUgood", lead.UploadsPlaylist)

	cp := r.Checkpoints.Load()
	assert.Equal(t, 1, cp.DoneCount("kw"))
	assert.Contains(t, cp.ProcessedChannels, domain.ChannelURL("good"))
}

func TestRunSkipsCompletedKeyword(t *testing.T) {
	coll := &fakeCollector{pages: map[string]domain.SearchPage{}}
	sink := &fakeSink{}
	r := newTestRunner(t, coll, sink)
	r.Filters.MaxValidPerKeyword = 5

	cp := checkpoint.New()
	cp.SetCursor("donekw", "SOME_TOKEN")
	cp.SetDoneCount("donekw", 5)
	require.NoError(t, r.Checkpoints.Save(cp))

	require.NoError(t, r.Run(context.Background(), params("donekw")))

	assert.Empty(t, coll.searchCalls)
	assert.Empty(t, sink.appended)
	// The cursor is untouched by the skip.
	cursor, started := r.Checkpoints.Load().Cursor("donekw")
	require.True(t, started)
	require.NotNil(t, cursor)
	assert.Equal(t, "SOME_TOKEN", *cursor)
}

func TestRunResumesFromSavedCursor(t *testing.T) {
	coll := &fakeCollector{
		pages: map[string]domain.SearchPage{
			"kw|TOKEN_2": {ChannelIDs: []string{"late"}},
		},
		details: map[string]domain.ChannelInfo{"late": goodChannel("late", 5000)},
	}
	sink := &fakeSink{}
	r := newTestRunner(t, coll, sink)

	cp := checkpoint.New()
	cp.SetCursor("kw", "TOKEN_2")
	cp.SetDoneCount("kw", 2)
	require.NoError(t, r.Checkpoints.Save(cp))

	require.NoError(t, r.Run(context.Background(), params("kw")))

	require.NotEmpty(t, coll.searchCalls)
	assert.Equal(t, "kw|TOKEN_2", coll.searchCalls[0])
	require.Len(t, sink.appended, 1)
	assert.Equal(t, 3, r.Checkpoints.Load().DoneCount("kw"))
}

func TestRunSkipsExhaustedKeywordBelowCap(t *testing.T) {
	coll := &fakeCollector{pages: map[string]domain.SearchPage{
		"kw|": {ChannelIDs: []string{"c1"}},
	}}
	sink := &fakeSink{}
	r := newTestRunner(t, coll, sink)

	cp := checkpoint.New()
	cp.MarkExhausted("kw")
	cp.SetDoneCount("kw", 1)
	require.NoError(t, r.Checkpoints.Save(cp))

	require.NoError(t, r.Run(context.Background(), params("kw")))

	// No restart from page one for an exhausted keyword.
	assert.Empty(t, coll.searchCalls)
	assert.Empty(t, sink.appended)
}

func TestRunDedupAcrossKeywords(t *testing.T) {
	coll := &fakeCollector{
		pages: map[string]domain.SearchPage{
			"kw1|": {ChannelIDs: []string{"shared"}},
			"kw2|": {ChannelIDs: []string{"shared", "fresh"}},
		},
		details: map[string]domain.ChannelInfo{
			"shared": goodChannel("shared", 5000),
			"fresh":  goodChannel("fresh", 5000),
		},
	}
	sink := &fakeSink{}
	r := newTestRunner(t, coll, sink)

	require.NoError(t, r.Run(context.Background(), params("kw1", "kw2")))

	urls := sink.urls()
	assert.ElementsMatch(t, []string{domain.ChannelURL("shared"), domain.ChannelURL("fresh")}, urls)
}

func TestRunHonorsPerKeywordCap(t *testing.T) {
	coll := &fakeCollector{
		pages: map[string]domain.SearchPage{
			"kw|": {ChannelIDs: []string{"c1", "c2", "c3", "c4"}},
		},
		details: map[string]domain.ChannelInfo{
			"c1": goodChannel("c1", 5000),
			"c2": goodChannel("c2", 5000),
			"c3": goodChannel("c3", 5000),
			"c4": goodChannel("c4", 5000),
		},
	}
	sink := &fakeSink{}
	r := newTestRunner(t, coll, sink)
	r.Filters.MaxValidPerKeyword = 2

	require.NoError(t, r.Run(context.Background(), params("kw")))

	assert.Len(t, sink.appended, 2)
	assert.Equal(t, 2, r.Checkpoints.Load().DoneCount("kw"))
}

func TestRunStopsBetweenKeywords(t *testing.T) {
	coll := &fakeCollector{
		pages: map[string]domain.SearchPage{
			"kw1|": {ChannelIDs: []string{"c1"}},
			"kw2|": {ChannelIDs: []string{"c2"}},
		},
		details: map[string]domain.ChannelInfo{
			"c1": goodChannel("c1", 5000),
			"c2": goodChannel("c2", 5000),
		},
	}
	sink := &fakeSink{}
	r := newTestRunner(t, coll, sink)

	// Stop as soon as the first keyword has produced a row.
	r.ShouldStop = func() bool { return len(sink.appended) > 0 }

	require.NoError(t, r.Run(context.Background(), params("kw1", "kw2")))

	// kw1 ran to completion, kw2 never started.
	assert.Equal(t, []string{domain.ChannelURL("c1")}, sink.urls())
}

func TestRunStopsImmediately(t *testing.T) {
	coll := &fakeCollector{pages: map[string]domain.SearchPage{}}
	sink := &fakeSink{}
	r := newTestRunner(t, coll, sink)
	r.ShouldStop = func() bool { return true }

	require.NoError(t, r.Run(context.Background(), params("kw1", "kw2")))

	assert.Empty(t, coll.searchCalls)
	assert.Empty(t, sink.appended)
}

func TestRunPageCap(t *testing.T) {
	// Every page points at another one; the hard page cap must cut the
	// keyword off.
	pages := map[string]domain.SearchPage{
		"kw|": {ChannelIDs: []string{"never-matches"}, NextPageToken: "T1"},
	}
	for i := 1; i <= 20; i++ {
		pages[fmt.Sprintf("kw|T%d", i)] = domain.SearchPage{
			ChannelIDs:    []string{"never-matches"},
			NextPageToken: fmt.Sprintf("T%d", i+1),
		}
	}
	coll := &fakeCollector{pages: pages, details: map[string]domain.ChannelInfo{}}
	sink := &fakeSink{}
	r := newTestRunner(t, coll, sink)

	require.NoError(t, r.Run(context.Background(), params("kw")))

	assert.LessOrEqual(t, len(coll.searchCalls), maxPagesPerKeyword)
}

func TestRunUploadsFailureKeepsLead(t *testing.T) {
	coll := &fakeCollector{
		pages: map[string]domain.SearchPage{
			"kw|": {ChannelIDs: []string{"c1"}},
		},
		details:    map[string]domain.ChannelInfo{"c1": goodChannel("c1", 5000)},
		uploadsErr: errors.New("uploads lookup boom"),
	}
	sink := &fakeSink{}
	r := newTestRunner(t, coll, sink)

	require.NoError(t, r.Run(context.Background(), params("kw")))

	require.Len(t, sink.appended, 1)
	assert.Empty(t, sink.appended[0].UploadsPlaylist)
}

func TestRunSinkErrorIsFatal(t *testing.T) {
	coll := &fakeCollector{
		pages: map[string]domain.SearchPage{
			"kw|": {ChannelIDs: []string{"c1"}},
		},
		details: map[string]domain.ChannelInfo{"c1": goodChannel("c1", 5000)},
	}
	sink := &fakeSink{appendErr: errors.New("sheet unavailable")}
	r := newTestRunner(t, coll, sink)

	err := r.Run(context.Background(), params("kw"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheet unavailable")
}

func TestRunSeedsDedupFromCheckpointSnapshot(t *testing.T) {
	coll := &fakeCollector{
		pages: map[string]domain.SearchPage{
			"kw|": {ChannelIDs: []string{"snapshotted", "fresh"}},
		},
		details: map[string]domain.ChannelInfo{
			"snapshotted": goodChannel("snapshotted", 5000),
			"fresh":       goodChannel("fresh", 5000),
		},
	}
	sink := &fakeSink{}
	r := newTestRunner(t, coll, sink)

	cp := checkpoint.New()
	cp.SnapshotDedup(map[string]struct{}{domain.ChannelURL("snapshotted"): {}})
	require.NoError(t, r.Checkpoints.Save(cp))

	require.NoError(t, r.Run(context.Background(), params("kw")))

	assert.Equal(t, []string{domain.ChannelURL("fresh")}, sink.urls())
}
