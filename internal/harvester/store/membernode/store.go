// Package membernode implements the target store as a member-node style
// repository: a PostgreSQL system-metadata catalog plus S3 payload storage.
// One logical record (series) maps to a chain of immutable versions, of
// which at most one is current.
package membernode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dverbeek84/oaibridge/internal/common"
	"github.com/dverbeek84/oaibridge/internal/dbx"
	"github.com/dverbeek84/oaibridge/internal/harvester/models"
	"github.com/dverbeek84/oaibridge/internal/harvester/objectstore"
	"github.com/dverbeek84/oaibridge/internal/harvester/repositories/versions"
	"github.com/dverbeek84/oaibridge/internal/harvester/store"
	"github.com/dverbeek84/oaibridge/internal/logging"
)

// ObjectStore is the payload backend; satisfied by *objectstore.S3Store.
type ObjectStore interface {
	Put(ctx context.Context, key string, content []byte) error
}

// Settings holds the fixed sysmeta provenance fields applied to every
// version, plus the watermark lower bound used for an empty catalog.
type Settings struct {
	Submitter        string
	RightsHolder     string
	AuthoritativeMN  string
	OriginMN         string
	FormatID         string
	DefaultWatermark time.Time
}

// Store implements store.TargetStore.
type Store struct {
	db       *sql.DB
	repo     func(dbx.DBTX) versions.Repository
	objects  ObjectStore
	clock    Clock
	settings Settings
	logger   logging.Logger
}

// New constructs a member-node store over an open database handle and a
// payload backend.
func New(db *sql.DB, objects ObjectStore, clock Clock, settings Settings, logger logging.Logger) *Store {
	return &Store{
		db: db,
		repo: func(tx dbx.DBTX) versions.Repository {
			return versions.NewPostgresRepository(tx)
		},
		objects:  objects,
		clock:    clock,
		settings: settings,
		logger:   logger,
	}
}

// Exists reports whether a current version is stored for nativeID. Lookup
// failures are logged here so the engine can treat them as no-ops.
func (s *Store) Exists(ctx context.Context, nativeID string) store.Existence {
	v, err := s.repo(s.db).Current(ctx, nativeID)
	if errors.Is(err, common.ErrorNotFound) {
		return store.Missing()
	}
	if err != nil {
		s.logger.Error(ctx, "existence check failed", "series_id", nativeID, "error", err.Error())
		return store.CheckError(err)
	}
	return store.Found(v.PID, v.DateSysMetadataModified)
}

// Create stores the first version of a logical record: payload to the
// object store first, then the catalog row. A crash between the two leaves
// an unreferenced object, which a later retry simply shadows with a new
// PID; the existence check prevents duplicate catalog rows across runs.
func (s *Store) Create(ctx context.Context, nativeID string, content []byte, ts time.Time) (string, error) {
	v := s.newSysmeta(nativeID, content, ts, s.clock.Now())

	if err := s.putPayload(ctx, v, content); err != nil {
		return "", err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repo(tx).Insert(ctx, v)
	})
	if err != nil {
		return "", fmt.Errorf("create %s: %w", nativeID, err)
	}
	return v.PID, nil
}

// Update writes a new version superseding currentVersionID. The supersede
// and insert happen in one transaction so readers never observe a series
// with zero or two current versions. If the old version vanished or was
// archived since the existence check, the error wraps
// common.ErrorConsistency.
func (s *Store) Update(ctx context.Context, nativeID string, content []byte, ts time.Time, currentVersionID string) (string, error) {
	v := s.newSysmeta(nativeID, content, ts, s.clock.Now())
	v.Obsoletes = currentVersionID

	if err := s.putPayload(ctx, v, content); err != nil {
		return "", err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)

		old, err := repo.Get(ctx, currentVersionID)
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("current version %s vanished: %w", currentVersionID, common.ErrorConsistency)
		}
		if err != nil {
			return err
		}
		if old.Archived || !old.Current {
			return fmt.Errorf("version %s is no longer current: %w", currentVersionID, common.ErrorConsistency)
		}

		if err := repo.MarkObsoleted(ctx, currentVersionID, v.PID); err != nil {
			return err
		}
		return repo.Insert(ctx, v)
	})
	if err != nil {
		return "", fmt.Errorf("update %s: %w", nativeID, err)
	}
	return v.PID, nil
}

// Archive retires a version without deleting content. Archiving twice is a
// no-op, not an error.
func (s *Store) Archive(ctx context.Context, versionID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		archived, err := s.repo(tx).MarkArchived(ctx, versionID)
		if err != nil {
			return fmt.Errorf("archive %s: %w", versionID, err)
		}
		if !archived {
			s.logger.Warn(ctx, "version already archived", "pid", versionID)
		}
		return nil
	})
}

// LastWatermark recomputes the harvest lower bound from stored state. An
// empty catalog falls back to the configured default so a first run
// harvests the full history.
func (s *Store) LastWatermark(ctx context.Context) (time.Time, error) {
	ts, err := s.repo(s.db).MaxModified(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("last watermark: %w", err)
	}
	if ts.IsZero() {
		return s.settings.DefaultWatermark, nil
	}
	return ts, nil
}

func (s *Store) putPayload(ctx context.Context, v *models.Version, content []byte) error {
	key := objectstore.Key(v.PID, v.DateUploaded)
	if err := s.objects.Put(ctx, key, content); err != nil {
		return fmt.Errorf("store payload for %s: %w", v.SeriesID, err)
	}
	return nil
}
