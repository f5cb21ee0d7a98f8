// Package engine drives the OAI-PMH fetch loop and the per-record decision
// state machine that converges the target store to the source's state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dverbeek84/oaibridge/internal/harvester/store"
	"github.com/dverbeek84/oaibridge/internal/logging"
	"github.com/dverbeek84/oaibridge/internal/oaipmh"
)

// Fetcher is the remote source; satisfied by *oaipmh.Client.
type Fetcher interface {
	ListRecords(ctx context.Context, p oaipmh.Params) (*oaipmh.Page, error)
}

// Options tune the engine's caller-side fetch retry policy.
type Options struct {
	// FetchRetries is the number of re-attempts after a failed page fetch
	// before the run is aborted.
	FetchRetries int
	// RetryBase is the initial backoff interval between attempts.
	RetryBase time.Duration
}

// Engine reconciles the remote source against the target store, one run
// per call to Run.
type Engine struct {
	fetcher Fetcher
	store   store.TargetStore
	logger  logging.Logger
	opts    Options
}

// New constructs an Engine. Zero Options fields get conservative defaults.
func New(fetcher Fetcher, st store.TargetStore, logger logging.Logger, opts Options) *Engine {
	if opts.FetchRetries <= 0 {
		opts.FetchRetries = 3
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 500 * time.Millisecond
	}
	return &Engine{fetcher: fetcher, store: st, logger: logger, opts: opts}
}

// Run performs one full reconciliation pass: recompute the watermark from
// the target store, page through everything changed since, and apply one
// of four actions per record. The returned RunState carries the counters
// even when the run aborts early; a non-nil error means pagination could
// not complete and the next invocation should start over from the same
// watermark.
func (e *Engine) Run(ctx context.Context) (*RunState, error) {
	state := &RunState{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := e.logger.With("run_id", state.RunID)

	wm, err := e.store.LastWatermark(ctx)
	if err != nil {
		return state, fmt.Errorf("determining watermark: %w", err)
	}
	state.Watermark = wm
	log.Info(ctx, "starting harvest run", "watermark", wm.Format(time.RFC3339))

	// The first iteration runs unconditionally; afterwards the presence of
	// a resumption token is the sole continuation signal. A short page may
	// still be followed by a token, and the sentinel record says nothing
	// about continuation either way.
	first := true
	token := ""
	for first || token != "" {
		params := oaipmh.Params{}
		if first {
			params.From = wm
		} else {
			params.ResumptionToken = token
		}
		first = false

		page, err := e.fetchPage(ctx, log, params)
		if err != nil {
			// Run-fatal: pagination cannot continue without this page. The
			// watermark was never advanced, so the next run re-covers this
			// slice; already-applied records are re-skipped by the
			// date-equality check.
			return state, fmt.Errorf("page fetch: %w", err)
		}
		state.Fetches++

		for _, rec := range page.Records {
			if rec.IsSentinel() {
				continue
			}
			state.apply(e.processRecord(ctx, log, rec))
		}
		token = page.ResumptionToken
	}

	log.Info(ctx, "harvest run complete",
		"created", state.Created,
		"updated", state.Updated,
		"archived", state.Archived,
		"skipped_deleted", state.SkippedDeleted,
		"skipped_existing", state.SkippedExisting,
		"fetches", state.Fetches,
	)
	return state, nil
}

// fetchPage wraps a single protocol call in the retry policy. The fetcher
// itself never retries; transient failures are retried here with
// exponential backoff before the run is declared failed.
func (e *Engine) fetchPage(ctx context.Context, log logging.Logger, params oaipmh.Params) (*oaipmh.Page, error) {
	var page *oaipmh.Page

	backoff := retry.WithMaxRetries(uint64(e.opts.FetchRetries), retry.NewExponential(e.opts.RetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		p, err := e.fetcher.ListRecords(ctx, params)
		if err != nil {
			// Provider-reported protocol errors reject the request itself
			// (badResumptionToken, badArgument); reissuing cannot succeed,
			// so they fail the run immediately.
			var perr *oaipmh.ProtocolError
			if errors.As(err, &perr) {
				log.Error(ctx, "provider rejected request", "code", perr.Code, "error", err.Error())
				return err
			}
			log.Warn(ctx, "page fetch failed", "error", err.Error())
			return retry.RetryableError(err)
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}
