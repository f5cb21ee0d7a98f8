package engine

import (
	"context"
	"errors"

	"github.com/dverbeek84/oaibridge/internal/common"
	"github.com/dverbeek84/oaibridge/internal/harvester/store"
	"github.com/dverbeek84/oaibridge/internal/logging"
	"github.com/dverbeek84/oaibridge/internal/oaipmh"
)

// processRecord runs the decision state machine for one harvested record:
//
//	deleted + unknown            -> skip (expected steady state, not a fault)
//	deleted + known              -> archive the current version
//	active  + unknown            -> create
//	active  + known, same date   -> skip (date equality is the sole
//	                                change-detection signal; bytes are not diffed)
//	active  + known, other date  -> update, chaining versions
//	existence check failed       -> no-op, cause already logged by the store
//
// Store failures are recovered per record: logged with enough context to
// retry manually, then processing continues. They never abort the run.
func (e *Engine) processRecord(ctx context.Context, log logging.Logger, rec oaipmh.Record) Delta {
	if rec.ParseErr != nil {
		log.Error(ctx, "skipping unparsable record",
			"identifier", rec.Identifier, "error", rec.ParseErr.Error())
		return Delta{}
	}

	existence := e.store.Exists(ctx, rec.NativeID)

	switch rec.Status {
	case oaipmh.StatusDeleted:
		return e.processDeleted(ctx, log, rec, existence)
	default:
		return e.processActive(ctx, log, rec, existence)
	}
}

func (e *Engine) processDeleted(ctx context.Context, log logging.Logger, rec oaipmh.Record, existence store.Existence) Delta {
	switch existence.Kind {
	case store.ExistenceFound:
		if err := e.store.Archive(ctx, existence.CurrentVersionID); err != nil {
			log.Error(ctx, "archive failed",
				"series_id", rec.NativeID, "pid", existence.CurrentVersionID, "error", err.Error())
			return Delta{}
		}
		return Delta{Archived: 1}
	case store.ExistenceMissing:
		// Deleted-but-never-stored records are a side effect of the
		// provider's termination convention.
		return Delta{SkippedDeleted: 1}
	default:
		return Delta{}
	}
}

func (e *Engine) processActive(ctx context.Context, log logging.Logger, rec oaipmh.Record, existence store.Existence) Delta {
	switch existence.Kind {
	case store.ExistenceMissing:
		pid, err := e.store.Create(ctx, rec.NativeID, rec.Payload, rec.Datestamp)
		if err != nil {
			log.Error(ctx, "create failed", "series_id", rec.NativeID, "error", err.Error())
			return Delta{}
		}
		log.Debug(ctx, "created", "series_id", rec.NativeID, "pid", pid)
		return Delta{Created: 1}

	case store.ExistenceFound:
		if rec.Datestamp.Equal(existence.LastModified) {
			return Delta{SkippedExisting: 1}
		}
		pid, err := e.store.Update(ctx, rec.NativeID, rec.Payload, rec.Datestamp, existence.CurrentVersionID)
		if err != nil {
			if errors.Is(err, common.ErrorConsistency) {
				log.Error(ctx, "consistency violation on update",
					"series_id", rec.NativeID, "pid", existence.CurrentVersionID, "error", err.Error())
			} else {
				log.Error(ctx, "update failed",
					"series_id", rec.NativeID, "pid", existence.CurrentVersionID, "error", err.Error())
			}
			return Delta{}
		}
		log.Debug(ctx, "updated", "series_id", rec.NativeID, "pid", pid)
		return Delta{Updated: 1}

	default:
		return Delta{}
	}
}
