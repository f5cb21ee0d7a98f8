package versions

import (
	"context"
	"time"

	"github.com/dverbeek84/oaibridge/internal/harvester/models"
)

// Repository is the persistence contract for the versions catalog.
type Repository interface {
	// Current returns the current (non-archived, non-superseded) version of
	// a series, or common.ErrorNotFound when the series has none.
	Current(ctx context.Context, seriesID string) (*models.Version, error)

	// Get returns a version by PID, or common.ErrorNotFound.
	Get(ctx context.Context, pid string) (*models.Version, error)

	// Insert writes a new version row.
	Insert(ctx context.Context, v *models.Version) error

	// MarkObsoleted clears the current flag of pid and records byPID as its
	// successor. Returns common.ErrorConsistency when pid is not current
	// anymore at execution time.
	MarkObsoleted(ctx context.Context, pid, byPID string) error

	// MarkArchived retires a version. The bool reports whether this call
	// performed the transition; false means the version was already
	// archived. A missing pid is common.ErrorNotFound.
	MarkArchived(ctx context.Context, pid string) (bool, error)

	// MaxModified returns the greatest system-metadata modification time
	// over non-archived versions, or the zero time for an empty catalog.
	MaxModified(ctx context.Context) (time.Time, error)
}
