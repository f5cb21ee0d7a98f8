package engine

import (
	"fmt"
	"time"

	"github.com/dverbeek84/oaibridge/internal/filex"
)

// trackingTimeLayout matches the historical tracking-log timestamp form.
const trackingTimeLayout = "2006-01-02_15:04:05"

// SummaryLine renders the one-line run summary. Downstream tooling parses
// this line, so field order and wording are frozen.
func (s *RunState) SummaryLine(now time.Time) string {
	return fmt.Sprintf("%s, New Records Loaded: %d, Records Updated: %d, Records archived: %d, Deleted skipped: %d, existing skipped: %d.",
		now.Format(trackingTimeLayout),
		s.Created, s.Updated, s.Archived, s.SkippedDeleted, s.SkippedExisting)
}

// WriteTrackingLog appends the run summary to the persistent tracking log.
func WriteTrackingLog(path string, s *RunState, now time.Time) error {
	return filex.AppendLine(path, s.SummaryLine(now))
}
