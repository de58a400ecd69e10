package diag

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/DreamCats/idxdiag/internal/searchsvc"
)

const (
	maxReportedErrors         = 10
	maxReportedWarnings       = 20
	maxPriorRunWarningPreview = 5
)

// IndexerAPI is the slice of the service client the reporter needs.
type IndexerAPI interface {
	IndexerStatus(ctx context.Context, name string) (searchsvc.IndexerStatus, error)
}

// IndexerReporter renders one indexer's run status, errors, warnings,
// and a look at the prior run from the execution history.
type IndexerReporter struct {
	api IndexerAPI
	out io.Writer

	Progress ProgressReporter
}

func NewIndexerReporter(api IndexerAPI, out io.Writer) *IndexerReporter {
	return &IndexerReporter{api: api, out: out}
}

// Fetch retrieves the parsed status without rendering the report. A
// non-2xx response is reported with its code and raw body and yields a
// nil status without an error ("no report available").
func (r *IndexerReporter) Fetch(ctx context.Context, name string) (*searchsvc.IndexerStatus, error) {
	if r.Progress != nil {
		r.Progress.Start("fetching indexer status")
	}
	status, err := r.api.IndexerStatus(ctx, name)
	if r.Progress != nil {
		r.Progress.Finish()
	}
	if err != nil {
		var statusErr *searchsvc.StatusError
		if errors.As(err, &statusErr) {
			fmt.Fprintf(r.out, "Error: %d\n", statusErr.Code)
			fmt.Fprintln(r.out, statusErr.Body)
			return nil, nil
		}
		return nil, fmt.Errorf("indexer status: %w", err)
	}
	return &status, nil
}

// Run fetches and renders the status of the named indexer. The parsed
// payload is returned for programmatic reuse.
func (r *IndexerReporter) Run(ctx context.Context, name string) (*searchsvc.IndexerStatus, error) {
	status, err := r.Fetch(ctx, name)
	if err != nil || status == nil {
		return status, err
	}

	fmt.Fprintf(r.out, "\n=== Indexer: %s ===\n", name)
	fmt.Fprintf(r.out, "Status: %s\n", status.Status)

	if status.LastResult != nil {
		r.reportLastRun(status.LastResult)
	}
	r.reportPriorRun(status.ExecutionHistory)

	return status, nil
}

func (r *IndexerReporter) reportLastRun(run *searchsvc.ExecutionResult) {
	fmt.Fprintf(r.out, "\nLast Run:\n")
	fmt.Fprintf(r.out, "  Status: %s\n", run.Status)
	fmt.Fprintf(r.out, "  Items Processed: %d\n", run.ItemsProcessed)
	fmt.Fprintf(r.out, "  Items Failed: %d\n", run.ItemsFailed)

	if len(run.Errors) > 0 {
		fmt.Fprintf(r.out, "\n  ERRORS (%d):\n", len(run.Errors))
		for i, e := range run.Errors {
			if i >= maxReportedErrors {
				break
			}
			fmt.Fprintf(r.out, "    %d. %s\n", i+1, orDefault(e.Message, "Unknown error"))
			fmt.Fprintf(r.out, "       Key: %s\n", orDefault(e.Key, "N/A"))
			fmt.Fprintf(r.out, "       Name: %s\n", orDefault(e.Name, "N/A"))
		}
	}

	if len(run.Warnings) > 0 {
		fmt.Fprintf(r.out, "\n  WARNINGS (%d):\n", len(run.Warnings))
		for i, w := range run.Warnings {
			if i >= maxReportedWarnings {
				break
			}
			fmt.Fprintf(r.out, "    %d. %s\n", i+1, orDefault(w.Message, "Unknown warning"))
			fmt.Fprintf(r.out, "       Key: %s\n", orDefault(w.Key, "N/A"))
			fmt.Fprintf(r.out, "       Name: %s\n", orDefault(w.Name, "N/A"))
			fmt.Fprintf(r.out, "       Details: %s\n", orDefault(w.Details, "N/A"))
			fmt.Fprintln(r.out)
		}
	}
}

// reportPriorRun shows the run before the current one. The history is
// most-recent-first and its head duplicates lastResult, so the second
// entry is the interesting one.
func (r *IndexerReporter) reportPriorRun(history []searchsvc.ExecutionResult) {
	if len(history) < 2 {
		return
	}
	prior := history[1]
	fmt.Fprintf(r.out, "\n=== Recent Execution ===\n")
	fmt.Fprintf(r.out, "Status: %s\n", prior.Status)
	if len(prior.Warnings) > 0 {
		fmt.Fprintf(r.out, "Warnings in this run: %d\n", len(prior.Warnings))
		for i, w := range prior.Warnings {
			if i >= maxPriorRunWarningPreview {
				break
			}
			fmt.Fprintf(r.out, "  %d. %s\n", i+1, orDefault(w.Message, "Unknown"))
		}
	}
}
