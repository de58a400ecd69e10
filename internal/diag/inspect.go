package diag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/DreamCats/idxdiag/internal/searchsvc"
	"github.com/DreamCats/idxdiag/internal/store"
)

// SearchAPI is the slice of the service client the inspector needs.
type SearchAPI interface {
	IndexStats(ctx context.Context, index string) (searchsvc.IndexStats, error)
	Search(ctx context.Context, index string, req searchsvc.SearchRequest) (searchsvc.SearchPage, error)
}

// SnapshotHistory records stats readings and serves back the previous one.
type SnapshotHistory interface {
	Latest(ctx context.Context, index string) (store.Snapshot, bool, error)
	Record(ctx context.Context, index string, stats searchsvc.IndexStats) error
}

// InspectorConfig selects what the inspector probes and how results are
// rendered.
type InspectorConfig struct {
	Index         string
	SampleTop     int
	ProbeText     string
	VectorField   string
	ProbeK        int
	ProbeSelect   string
	FieldPatterns []string
	MaxFieldChars int
	MaxItemChars  int
}

// Inspector produces the index health report: statistics, sample
// documents, and a vector similarity probe, in that order. A stats
// failure aborts the run; the other two sections are reported but
// non-fatal.
type Inspector struct {
	api SearchAPI
	cfg InspectorConfig
	out io.Writer

	// Optional collaborators, nil disables them.
	History  SnapshotHistory
	Progress ProgressReporter
}

func NewInspector(api SearchAPI, cfg InspectorConfig, out io.Writer) *Inspector {
	if cfg.SampleTop <= 0 {
		cfg.SampleTop = 3
	}
	if cfg.ProbeK <= 0 {
		cfg.ProbeK = 3
	}
	if cfg.VectorField == "" {
		cfg.VectorField = "content_vector"
	}
	if cfg.ProbeSelect == "" {
		cfg.ProbeSelect = "title,source_url"
	}
	if cfg.MaxFieldChars <= 0 {
		cfg.MaxFieldChars = DefaultMaxFieldChars
	}
	if cfg.MaxItemChars <= 0 {
		cfg.MaxItemChars = DefaultMaxItemChars
	}
	return &Inspector{api: api, cfg: cfg, out: out}
}

// Run executes the three report sections. The returned error is non-nil
// only for failures that must abort the process: a failed stats fetch,
// transport errors, or undecodable responses.
func (in *Inspector) Run(ctx context.Context) error {
	if err := in.reportStats(ctx); err != nil {
		return err
	}
	if err := in.reportSampleDocuments(ctx); err != nil {
		return err
	}
	return in.reportVectorProbe(ctx)
}

func (in *Inspector) reportStats(ctx context.Context) error {
	fmt.Fprintf(in.out, "=== Index Statistics for %s ===\n\n", in.cfg.Index)

	in.startProgress("fetching stats")
	stats, err := in.api.IndexStats(ctx, in.cfg.Index)
	in.finishProgress()
	if err != nil {
		var statusErr *searchsvc.StatusError
		if errors.As(err, &statusErr) {
			fmt.Fprintf(in.out, "Error getting stats: %d\n", statusErr.Code)
			fmt.Fprintln(in.out, statusErr.Body)
		}
		return fmt.Errorf("index stats: %w", err)
	}

	fmt.Fprintf(in.out, "Document Count: %d\n", stats.DocumentCount)
	fmt.Fprintf(in.out, "Storage Size: %d bytes\n", stats.StorageSize)
	fmt.Fprintf(in.out, "Vector Index Size: %d bytes\n", stats.VectorIndexSize)
	in.reportStatsDelta(ctx, stats)
	fmt.Fprintln(in.out)
	return nil
}

// reportStatsDelta compares against the previous local snapshot and
// records the current reading. History failures are warnings only.
func (in *Inspector) reportStatsDelta(ctx context.Context, stats searchsvc.IndexStats) {
	if in.History == nil {
		return
	}
	prev, ok, err := in.History.Latest(ctx, in.cfg.Index)
	if err != nil {
		log.Printf("Warning: failed to read snapshot history: %v", err)
	} else if ok {
		fmt.Fprintf(in.out, "Change since %s: %+d documents\n",
			prev.TakenAt.Format("2006-01-02 15:04"),
			stats.DocumentCount-prev.DocumentCount)
	}
	if err := in.History.Record(ctx, in.cfg.Index, stats); err != nil {
		log.Printf("Warning: failed to record snapshot: %v", err)
	}
}

func (in *Inspector) reportSampleDocuments(ctx context.Context) error {
	fmt.Fprintf(in.out, "=== Sample Documents ===\n\n")

	in.startProgress("fetching sample documents")
	page, err := in.api.Search(ctx, in.cfg.Index, searchsvc.SearchRequest{
		Search: "*",
		Top:    in.cfg.SampleTop,
	})
	in.finishProgress()
	if err != nil {
		var statusErr *searchsvc.StatusError
		if errors.As(err, &statusErr) {
			fmt.Fprintf(in.out, "Error searching: %d\n", statusErr.Code)
			fmt.Fprintln(in.out, statusErr.Body)
			return nil
		}
		return fmt.Errorf("sample search: %w", err)
	}

	fmt.Fprintf(in.out, "Total documents in search: %d\n\n", page.TotalCount())
	for i, doc := range page.Value {
		fmt.Fprintf(in.out, "Document %d:\n", i+1)
		fmt.Fprintf(in.out, "  Available fields: %v\n\n", sortedKeys(doc))
		for _, key := range sortedKeys(doc) {
			if IsMetadataField(key) {
				continue
			}
			if !MatchesFieldPatterns(key, in.cfg.FieldPatterns) {
				continue
			}
			display := FormatFieldValue(doc[key], in.cfg.MaxFieldChars, in.cfg.MaxItemChars)
			fmt.Fprintf(in.out, "  %s: %s\n", key, display)
		}
		fmt.Fprintln(in.out)
	}
	return nil
}

func (in *Inspector) reportVectorProbe(ctx context.Context) error {
	fmt.Fprintf(in.out, "\n=== Vector Search Test ===\n\n")

	in.startProgress("running vector probe")
	page, err := in.api.Search(ctx, in.cfg.Index, searchsvc.SearchRequest{
		VectorQueries: []searchsvc.VectorQuery{{
			Kind:   "text",
			Text:   in.cfg.ProbeText,
			Fields: in.cfg.VectorField,
			K:      in.cfg.ProbeK,
		}},
		Select: in.cfg.ProbeSelect,
	})
	in.finishProgress()
	if err != nil {
		var statusErr *searchsvc.StatusError
		if errors.As(err, &statusErr) {
			fmt.Fprintf(in.out, "❌ Error with vector search: %d\n", statusErr.Code)
			fmt.Fprintln(in.out, statusErr.Body)
			return nil
		}
		return fmt.Errorf("vector probe: %w", err)
	}

	fmt.Fprintf(in.out, "Vector search returned %d results\n\n", len(page.Value))
	for i, doc := range page.Value {
		fmt.Fprintf(in.out, "Result %d:\n", i+1)
		fmt.Fprintf(in.out, "  Score: %v\n", fieldOrNA(doc, "@search.score"))
		fmt.Fprintf(in.out, "  Title: %v\n", fieldOrNA(doc, "title"))
		fmt.Fprintf(in.out, "  Source URL: %v\n", fieldOrNA(doc, "source_url"))
		fmt.Fprintln(in.out)
	}
	fmt.Fprintln(in.out, "✅ Vector embeddings are working correctly!")
	return nil
}

func (in *Inspector) startProgress(description string) {
	if in.Progress != nil {
		in.Progress.Start(description)
	}
}

func (in *Inspector) finishProgress() {
	if in.Progress != nil {
		in.Progress.Finish()
	}
}

func fieldOrNA(doc searchsvc.Document, key string) any {
	if v, ok := doc[key]; ok && v != nil {
		return v
	}
	return "N/A"
}

func sortedKeys(doc searchsvc.Document) []string {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
