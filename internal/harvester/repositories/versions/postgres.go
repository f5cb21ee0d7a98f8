// Package versions provides the PostgreSQL-backed repository for the
// member-node versions catalog.
package versions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dverbeek84/oaibridge/internal/common"
	"github.com/dverbeek84/oaibridge/internal/dbx"
	"github.com/dverbeek84/oaibridge/internal/harvester/models"
)

// PostgresRepository implements Repository over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const versionColumns = `pid, series_id, format_id, checksum, checksum_algorithm, size,
		date_uploaded, date_sys_metadata_modified,
		submitter, rights_holder, authoritative_mn, origin_mn, access_policy,
		obsoletes, obsoleted_by, archived, is_current`

func scanVersion(row *sql.Row) (*models.Version, error) {
	var v models.Version
	err := row.Scan(
		&v.PID, &v.SeriesID, &v.FormatID, &v.Checksum, &v.ChecksumAlgorithm, &v.Size,
		&v.DateUploaded, &v.DateSysMetadataModified,
		&v.Submitter, &v.RightsHolder, &v.AuthoritativeMN, &v.OriginMN, &v.AccessPolicy,
		&v.Obsoletes, &v.ObsoletedBy, &v.Archived, &v.Current,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &v, nil
}

// Current returns the single current version of a series. The partial
// unique index on (series_id) WHERE is_current guarantees at most one row.
func (r *PostgresRepository) Current(ctx context.Context, seriesID string) (*models.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM versions WHERE series_id = $1 AND is_current`
	return scanVersion(r.db.QueryRowContext(ctx, query, seriesID))
}

// Get returns a version by PID.
func (r *PostgresRepository) Get(ctx context.Context, pid string) (*models.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM versions WHERE pid = $1`
	return scanVersion(r.db.QueryRowContext(ctx, query, pid))
}

// Insert writes a new version row.
func (r *PostgresRepository) Insert(ctx context.Context, v *models.Version) error {
	query := `
		INSERT INTO versions (` + versionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err := r.db.ExecContext(ctx, query,
		v.PID, v.SeriesID, v.FormatID, v.Checksum, v.ChecksumAlgorithm, v.Size,
		v.DateUploaded, v.DateSysMetadataModified,
		v.Submitter, v.RightsHolder, v.AuthoritativeMN, v.OriginMN, v.AccessPolicy,
		v.Obsoletes, v.ObsoletedBy, v.Archived, v.Current,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// MarkObsoleted retires pid as the current version and links its successor.
// The is_current guard makes the supersede race-safe: losing the race means
// someone else already retired this version, which is a consistency
// violation for the caller.
func (r *PostgresRepository) MarkObsoleted(ctx context.Context, pid, byPID string) error {
	query := `UPDATE versions SET is_current = FALSE, obsoleted_by = $2 WHERE pid = $1 AND is_current;`
	res, err := r.db.ExecContext(ctx, query, pid, byPID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("version %s is not current: %w", pid, common.ErrorConsistency)
	}
	return nil
}

// MarkArchived retires a version; repeated calls are no-ops.
func (r *PostgresRepository) MarkArchived(ctx context.Context, pid string) (bool, error) {
	query := `UPDATE versions SET archived = TRUE, is_current = FALSE WHERE pid = $1 AND NOT archived;`
	res, err := r.db.ExecContext(ctx, query, pid)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	if n == 1 {
		return true, nil
	}

	// No transition: either already archived or unknown PID.
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM versions WHERE pid = $1);`, pid).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return false, fmt.Errorf("version %s: %w", pid, common.ErrorNotFound)
	}
	return false, nil
}

// MaxModified computes the watermark source for the next harvest run.
// Archived rows count too: they keep the modification time they were
// harvested with, so including them keeps the bound from moving backward
// when the latest version of a series is archived.
func (r *PostgresRepository) MaxModified(ctx context.Context) (time.Time, error) {
	query := `SELECT MAX(date_sys_metadata_modified) FROM versions;`
	var ts sql.NullTime
	if err := r.db.QueryRowContext(ctx, query).Scan(&ts); err != nil {
		return time.Time{}, fmt.Errorf("db error: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return ts.Time.UTC(), nil
}
