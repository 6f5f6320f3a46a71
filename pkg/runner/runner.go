// Package runner is the execution coordinator: it fans one device
// session per inventory record out across a bounded worker pool,
// persists each transcript, and aggregates the run summary. One
// device's failure never aborts or alters any other device's session.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fleetcmd/fleetcmd/pkg/commandset"
	"github.com/fleetcmd/fleetcmd/pkg/inventory"
	"github.com/fleetcmd/fleetcmd/pkg/session"
	"github.com/fleetcmd/fleetcmd/pkg/transcript"
	"github.com/fleetcmd/fleetcmd/pkg/util"
)

// DefaultConcurrency is the worker-pool bound when the caller does not
// set one.
const DefaultConcurrency = 20

// Options configures one run. Dialer and Writer are shared read-only /
// internally synchronized across all workers.
type Options struct {
	Mode        commandset.Mode
	Concurrency int
	Dialer      session.Dialer
	Writer      *transcript.Writer

	Timeouts     session.Timeouts
	CommandDelay time.Duration
	Save         bool
}

// Run dispatches one session per record, at most Concurrency at a time,
// and blocks until every dispatched session has completed and had its
// transcript written. An empty inventory yields an empty summary. An
// empty command set fails before any connection is attempted.
func Run(ctx context.Context, records []inventory.Record, commands []string, opts Options) (*Summary, error) {
	if len(commands) == 0 {
		return nil, fmt.Errorf("pre-flight: %w", util.ErrEmptyCommandSet)
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Concurrency < 0 {
		return nil, fmt.Errorf("%w: concurrency must be at least 1, got %d", util.ErrInput, opts.Concurrency)
	}
	if opts.Dialer == nil {
		return nil, fmt.Errorf("%w: no dialer configured", util.ErrInput)
	}

	summary := newSummary(uuid.NewString(), len(records))
	log := util.WithRun(summary.RunID)
	log.Infof("starting run: %d devices, mode=%s, concurrency=%d", len(records), opts.Mode, opts.Concurrency)

	start := time.Now()
	sem := make(chan struct{}, opts.Concurrency)
	var wg sync.WaitGroup

	for _, rec := range records {
		// Cancellation is observed here, between dispatches: no new
		// session starts once the context is done. In-flight sessions
		// drain through their own disconnect.
		if ctx.Err() != nil {
			summary.recordSkipped(rec)
			continue
		}
		select {
		case <-ctx.Done():
			summary.recordSkipped(rec)
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(rec inventory.Record) {
			defer wg.Done()
			defer func() { <-sem }()
			runOne(ctx, rec, commands, opts, summary)
		}(rec)
	}
	wg.Wait()

	summary.finish(time.Since(start))
	log.Infof("run complete: %d succeeded, %d failed, %s",
		summary.Succeeded, len(summary.Failed), summary.Elapsed.Round(time.Millisecond))
	return summary, nil
}

// runOne executes a single device session and records its outcome. The
// transcript is written before the session counts as done; a writer
// error is recorded on the device result but does not disturb siblings.
func runOne(ctx context.Context, rec inventory.Record, commands []string, opts Options, summary *Summary) {
	s := session.New(session.Config{
		Record:       rec,
		Commands:     commands,
		Mode:         opts.Mode,
		Dialer:       opts.Dialer,
		Timeouts:     opts.Timeouts,
		CommandDelay: opts.CommandDelay,
		Save:         opts.Save,
	})
	tr := s.Run(ctx)

	var path string
	if opts.Writer != nil {
		var err error
		path, err = opts.Writer.Write(tr)
		if err != nil {
			util.WithDevice(rec.Label(), rec.Host).Errorf("write transcript: %v", err)
			summary.recordWriteFailure(rec, tr, err)
			return
		}
	}
	summary.record(rec, tr, path)
}
