// Package store defines the target-store contract the reconciliation
// engine acts on, and the tagged existence outcome the decision logic
// matches over.
package store

import (
	"context"
	"time"
)

// ExistenceKind tags the outcome of an identifier lookup.
type ExistenceKind int

const (
	// ExistenceFound: the series has a current (non-archived) version.
	ExistenceFound ExistenceKind = iota
	// ExistenceMissing: the series has never been stored, or has no
	// current version.
	ExistenceMissing
	// ExistenceCheckFailed: the lookup itself failed; the store has
	// already logged the cause.
	ExistenceCheckFailed
)

// Existence is the target store's current knowledge of a logical record.
// CurrentVersionID and LastModified are meaningful only when Kind is
// ExistenceFound; Err only when Kind is ExistenceCheckFailed.
type Existence struct {
	Kind             ExistenceKind
	CurrentVersionID string
	LastModified     time.Time
	Err              error
}

// Found builds the Existence for a series with a current version.
func Found(versionID string, lastModified time.Time) Existence {
	return Existence{Kind: ExistenceFound, CurrentVersionID: versionID, LastModified: lastModified}
}

// Missing builds the Existence for an unknown series.
func Missing() Existence {
	return Existence{Kind: ExistenceMissing}
}

// CheckError builds the Existence for a failed lookup.
func CheckError(err error) Existence {
	return Existence{Kind: ExistenceCheckFailed, Err: err}
}

// TargetStore is the repository the engine converges toward the source.
// Implementations own the atomicity of update with respect to readers and
// must serialize mutations touching the same native identifier.
type TargetStore interface {
	// Exists reports the store's current knowledge of nativeID.
	Exists(ctx context.Context, nativeID string) Existence

	// Create stores the first version of a logical record and returns the
	// minted version identifier.
	Create(ctx context.Context, nativeID string, content []byte, ts time.Time) (string, error)

	// Update stores a new version superseding currentVersionID and retires
	// the old version's current status. If currentVersionID is no longer
	// current (archived or superseded out-of-band), the returned error
	// wraps common.ErrorConsistency.
	Update(ctx context.Context, nativeID string, content []byte, ts time.Time, currentVersionID string) (string, error)

	// Archive retires the given version without deleting content. Archiving
	// an already-archived version is a no-op.
	Archive(ctx context.Context, versionID string) error

	// LastWatermark returns the lower time bound for the next harvest
	// query, recomputed from stored state so it is monotonic across runs.
	LastWatermark(ctx context.Context) (time.Time, error)
}
