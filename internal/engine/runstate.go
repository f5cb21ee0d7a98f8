package engine

import "time"

// RunState accumulates the outcome of a single reconciliation run. It is a
// plain value owned by Run; per-record work contributes Deltas that are
// reduced into it, so nothing here needs locking even if record processing
// is ever parallelized across distinct identifiers.
type RunState struct {
	RunID     string
	StartedAt time.Time

	// Watermark is the lower bound the run queried from; it is recomputed
	// from target-store state at the start of every run and therefore only
	// moves forward once a run's writes land.
	Watermark time.Time

	// Pages and Fetches count protocol round-trips for operability.
	Fetches int

	Created         int
	Updated         int
	Archived        int
	SkippedDeleted  int
	SkippedExisting int
}

// Delta is one record's contribution to the run counters. Exactly one
// field is ever set to 1; a failed or unparsable record contributes the
// zero Delta.
type Delta struct {
	Created         int
	Updated         int
	Archived        int
	SkippedDeleted  int
	SkippedExisting int
}

func (s *RunState) apply(d Delta) {
	s.Created += d.Created
	s.Updated += d.Updated
	s.Archived += d.Archived
	s.SkippedDeleted += d.SkippedDeleted
	s.SkippedExisting += d.SkippedExisting
}
