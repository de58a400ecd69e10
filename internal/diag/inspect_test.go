package diag

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/DreamCats/idxdiag/internal/searchsvc"
	"github.com/DreamCats/idxdiag/internal/store"
)

type fakeSearchAPI struct {
	stats    searchsvc.IndexStats
	statsErr error

	// Search responses keyed by request shape: wildcard vs vector.
	wildcardPage searchsvc.SearchPage
	wildcardErr  error
	vectorPage   searchsvc.SearchPage
	vectorErr    error

	wildcardReq searchsvc.SearchRequest
	vectorReq   searchsvc.SearchRequest
}

func (f *fakeSearchAPI) IndexStats(_ context.Context, _ string) (searchsvc.IndexStats, error) {
	return f.stats, f.statsErr
}

func (f *fakeSearchAPI) Search(_ context.Context, _ string, req searchsvc.SearchRequest) (searchsvc.SearchPage, error) {
	if len(req.VectorQueries) > 0 {
		f.vectorReq = req
		return f.vectorPage, f.vectorErr
	}
	f.wildcardReq = req
	return f.wildcardPage, f.wildcardErr
}

func runInspector(t *testing.T, api *fakeSearchAPI) (string, error) {
	t.Helper()
	var out bytes.Buffer
	in := NewInspector(api, InspectorConfig{
		Index:     "idx-test",
		ProbeText: "integration requirements",
	}, &out)
	err := in.Run(context.Background())
	return out.String(), err
}

func TestInspectorStatsOutput(t *testing.T) {
	api := &fakeSearchAPI{
		stats: searchsvc.IndexStats{DocumentCount: 42, StorageSize: 1000, VectorIndexSize: 200},
	}
	out, err := runInspector(t, api)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, want := range []string{
		"=== Index Statistics for idx-test ===",
		"Document Count: 42",
		"Storage Size: 1000 bytes",
		"Vector Index Size: 200 bytes",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestInspectorStatsFailureIsFatal(t *testing.T) {
	api := &fakeSearchAPI{
		statsErr: &searchsvc.StatusError{Code: http.StatusNotFound, Body: `{"error":"no such index"}`},
	}
	out, err := runInspector(t, api)
	if err == nil {
		t.Fatal("expected error when stats fetch fails")
	}

	if !strings.Contains(out, "Error getting stats: 404") {
		t.Errorf("output missing status code:\n%s", out)
	}
	if !strings.Contains(out, `{"error":"no such index"}`) {
		t.Errorf("output missing raw body:\n%s", out)
	}
	// No further sections after a fatal stats failure.
	if strings.Contains(out, "Sample Documents") || strings.Contains(out, "Vector Search") {
		t.Errorf("sections printed after fatal stats failure:\n%s", out)
	}

	// Callers suppress the already-printed code and body by matching
	// the underlying status error.
	var statusErr *searchsvc.StatusError
	if !errors.As(err, &statusErr) {
		t.Errorf("fatal stats error should wrap *StatusError, got %T: %v", err, err)
	} else if statusErr.Code != http.StatusNotFound {
		t.Errorf("wrapped status code = %d, want 404", statusErr.Code)
	}
}

func TestInspectorSampleDocuments(t *testing.T) {
	count := int64(120)
	api := &fakeSearchAPI{
		wildcardPage: searchsvc.SearchPage{
			Count: &count,
			Value: []searchsvc.Document{{
				"@search.score": 1.0,
				"title":         "Operator guide",
				"content":       strings.Repeat("c", 250),
				"tags":          []any{"alpha", "beta", "gamma"},
			}},
		},
	}
	out, err := runInspector(t, api)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.Contains(out, "Total documents in search: 120") {
		t.Errorf("server count not preferred:\n%s", out)
	}
	if !strings.Contains(out, "Document 1:") {
		t.Errorf("missing document header:\n%s", out)
	}
	if !strings.Contains(out, "Available fields: [@search.score content tags title]") {
		t.Errorf("missing field list:\n%s", out)
	}
	if !strings.Contains(out, "  title: Operator guide\n") {
		t.Errorf("missing plain string field:\n%s", out)
	}
	if !strings.Contains(out, "  content: "+strings.Repeat("c", 200)+"...") {
		t.Errorf("long string not truncated to 200 chars:\n%s", out)
	}
	if !strings.Contains(out, "  tags: [3 items] alpha...") {
		t.Errorf("sequence field not rendered:\n%s", out)
	}
	// Metadata values are never printed as fields.
	if strings.Contains(out, "  @search.score:") {
		t.Errorf("metadata field printed:\n%s", out)
	}
}

func TestInspectorSampleCountFallsBackToLength(t *testing.T) {
	api := &fakeSearchAPI{
		wildcardPage: searchsvc.SearchPage{
			Value: []searchsvc.Document{{"title": "a"}, {"title": "b"}},
		},
	}
	out, err := runInspector(t, api)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out, "Total documents in search: 2") {
		t.Errorf("length fallback missing:\n%s", out)
	}
}

func TestInspectorSearchFailureIsNonFatal(t *testing.T) {
	api := &fakeSearchAPI{
		wildcardErr: &searchsvc.StatusError{Code: http.StatusServiceUnavailable, Body: "down"},
	}
	out, err := runInspector(t, api)
	if err != nil {
		t.Fatalf("search failure should not abort the run: %v", err)
	}
	if !strings.Contains(out, "Error searching: 503") {
		t.Errorf("missing search error:\n%s", out)
	}
	// The vector section still runs.
	if !strings.Contains(out, "=== Vector Search Test ===") {
		t.Errorf("vector section skipped:\n%s", out)
	}
}

func TestInspectorVectorProbe(t *testing.T) {
	api := &fakeSearchAPI{
		vectorPage: searchsvc.SearchPage{
			Value: []searchsvc.Document{
				{"@search.score": 0.87, "title": "Integration notes", "source_url": "https://docs/int"},
				{"title": "No score doc"},
			},
		},
	}
	out, err := runInspector(t, api)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.Contains(out, "Vector search returned 2 results") {
		t.Errorf("missing result count:\n%s", out)
	}
	if !strings.Contains(out, "  Score: 0.87\n") {
		t.Errorf("missing score:\n%s", out)
	}
	if !strings.Contains(out, "  Source URL: https://docs/int\n") {
		t.Errorf("missing source url:\n%s", out)
	}
	// Absent score, title, url fall back to N/A.
	if !strings.Contains(out, "  Score: N/A\n") || !strings.Contains(out, "  Source URL: N/A\n") {
		t.Errorf("missing N/A fallbacks:\n%s", out)
	}
	if !strings.Contains(out, "✅ Vector embeddings are working correctly!") {
		t.Errorf("missing success confirmation:\n%s", out)
	}

	if api.vectorReq.VectorQueries[0].Kind != "text" || api.vectorReq.VectorQueries[0].K != 3 {
		t.Errorf("unexpected vector query: %+v", api.vectorReq.VectorQueries[0])
	}
	if api.vectorReq.Select != "title,source_url" {
		t.Errorf("unexpected select: %q", api.vectorReq.Select)
	}
}

func TestInspectorVectorFailureIsNonFatal(t *testing.T) {
	api := &fakeSearchAPI{
		vectorErr: &searchsvc.StatusError{Code: http.StatusBadRequest, Body: "bad probe"},
	}
	out, err := runInspector(t, api)
	if err != nil {
		t.Fatalf("vector failure should not abort the run: %v", err)
	}
	if !strings.Contains(out, "❌ Error with vector search: 400") {
		t.Errorf("missing failure line:\n%s", out)
	}
	if strings.Contains(out, "✅") {
		t.Errorf("success line printed on failure:\n%s", out)
	}
}

func TestInspectorFieldPatterns(t *testing.T) {
	api := &fakeSearchAPI{
		wildcardPage: searchsvc.SearchPage{
			Value: []searchsvc.Document{{
				"content":    "body text",
				"content_id": "c-1",
				"title":      "Hidden",
			}},
		},
	}
	var out bytes.Buffer
	in := NewInspector(api, InspectorConfig{
		Index:         "idx-test",
		FieldPatterns: []string{"content*"},
	}, &out)
	if err := in.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "  content: body text") || !strings.Contains(got, "  content_id: c-1") {
		t.Errorf("pattern-matched fields missing:\n%s", got)
	}
	if strings.Contains(got, "  title: Hidden") {
		t.Errorf("filtered field printed:\n%s", got)
	}
	// The field list still names everything.
	if !strings.Contains(got, "Available fields: [content content_id title]") {
		t.Errorf("field list should be unfiltered:\n%s", got)
	}
}

type fakeHistory struct {
	prev     store.Snapshot
	hasPrev  bool
	recorded []searchsvc.IndexStats
}

func (f *fakeHistory) Latest(_ context.Context, _ string) (store.Snapshot, bool, error) {
	return f.prev, f.hasPrev, nil
}

func (f *fakeHistory) Record(_ context.Context, _ string, stats searchsvc.IndexStats) error {
	f.recorded = append(f.recorded, stats)
	return nil
}

func TestInspectorHistoryDelta(t *testing.T) {
	api := &fakeSearchAPI{
		stats: searchsvc.IndexStats{DocumentCount: 42},
	}
	history := &fakeHistory{
		prev: store.Snapshot{
			DocumentCount: 30,
			TakenAt:       time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC),
		},
		hasPrev: true,
	}

	var out bytes.Buffer
	in := NewInspector(api, InspectorConfig{Index: "idx-test"}, &out)
	in.History = history
	if err := in.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.Contains(out.String(), "Change since 2026-08-30 09:15: +12 documents") {
		t.Errorf("missing delta line:\n%s", out.String())
	}
	if len(history.recorded) != 1 || history.recorded[0].DocumentCount != 42 {
		t.Errorf("current stats not recorded: %+v", history.recorded)
	}
}

func TestInspectorNoDeltaWithoutPriorSnapshot(t *testing.T) {
	api := &fakeSearchAPI{stats: searchsvc.IndexStats{DocumentCount: 5}}
	history := &fakeHistory{}

	var out bytes.Buffer
	in := NewInspector(api, InspectorConfig{Index: "idx-test"}, &out)
	in.History = history
	if err := in.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if strings.Contains(out.String(), "Change since") {
		t.Errorf("delta printed without a prior snapshot:\n%s", out.String())
	}
	if len(history.recorded) != 1 {
		t.Errorf("first reading should still be recorded, got %d", len(history.recorded))
	}
}
