package membernode

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/dverbeek84/oaibridge/internal/harvester/models"
)

const (
	checksumAlgorithm = "MD5"

	// Nanosecond resolution keeps PIDs for the same series distinct even
	// across rapid consecutive runs.
	pidTimeLayout = "20060102_150405.000000000"
)

// PublicReadAccessPolicy is the fixed access policy assigned to every
// version. Write access is governed upstream by the native repository, so
// objects mirrored here are uniformly world-readable.
const PublicReadAccessPolicy = `{"allow":[{"subject":"public","permission":"read"}]}`

// MintVersionPID derives a globally unique version identifier from the
// native identifier and the upload instant.
func MintVersionPID(nativeID string, now time.Time) string {
	return nativeID + "_" + now.UTC().Format(pidTimeLayout)
}

// newSysmeta builds the system-metadata envelope describing one stored
// version. Checksum and size derive from the payload bytes; provenance
// fields come from the node settings.
func (s *Store) newSysmeta(nativeID string, content []byte, ts time.Time, now time.Time) *models.Version {
	sum := md5.Sum(content)
	return &models.Version{
		PID:                     MintVersionPID(nativeID, now),
		SeriesID:                nativeID,
		FormatID:                s.settings.FormatID,
		Checksum:                hex.EncodeToString(sum[:]),
		ChecksumAlgorithm:       checksumAlgorithm,
		Size:                    int64(len(content)),
		DateUploaded:            now.UTC(),
		DateSysMetadataModified: ts.UTC(),
		Submitter:               s.settings.Submitter,
		RightsHolder:            s.settings.RightsHolder,
		AuthoritativeMN:         s.settings.AuthoritativeMN,
		OriginMN:                s.settings.OriginMN,
		AccessPolicy:            PublicReadAccessPolicy,
		Current:                 true,
	}
}
