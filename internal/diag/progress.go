package diag

import (
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

type ProgressReporter interface {
	Start(description string)
	Finish()
}

// FetchProgress shows a spinner on stderr while a remote call is in
// flight. The bar only renders on state change, so a ticker goroutine
// drives it until Finish. Report output itself always goes to stdout.
type FetchProgress struct {
	enabled bool
	out     io.Writer
	done    chan struct{}
}

func NewFetchProgress(enabled bool) ProgressReporter {
	if !enabled {
		return nil
	}
	return &FetchProgress{enabled: true, out: os.Stderr}
}

func (p *FetchProgress) Start(description string) {
	if !p.enabled || p.done != nil {
		return
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(10),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	p.done = done
	go func() {
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = bar.Add(1)
			case <-done:
				_ = bar.Finish()
				return
			}
		}
	}()
}

func (p *FetchProgress) Finish() {
	if p.done == nil {
		return
	}
	close(p.done)
	p.done = nil
}

func ShouldShowProgress() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
