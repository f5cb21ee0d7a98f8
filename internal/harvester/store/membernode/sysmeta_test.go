package membernode

import (
	"crypto/md5"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintVersionPID_Format(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 30, 15, 123456789, time.UTC)
	pid := MintVersionPID("doi:10.1594/PANGAEA.111", now)
	assert.Equal(t, "doi:10.1594/PANGAEA.111_20240501_093015.123456789", pid)
}

func TestMintVersionPID_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	local := time.Date(2024, 5, 1, 11, 30, 15, 0, loc)
	utc := time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC)

	assert.Equal(t, MintVersionPID("x", utc), MintVersionPID("x", local))
}

// Version ids for the same series must never collide, even when runs
// follow each other within the same minute.
func TestMintVersionPID_UniqueUnderSmallClockIncrements(t *testing.T) {
	base := time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC)

	seen := map[string]bool{}
	for i := 0; i < 10000; i++ {
		pid := MintVersionPID("doi:10.1594/PANGAEA.111", base.Add(time.Duration(i)*time.Nanosecond))
		require.False(t, seen[pid], "collision at increment %d: %s", i, pid)
		seen[pid] = true
	}
}

func TestNewSysmeta_Envelope(t *testing.T) {
	s := &Store{settings: Settings{
		Submitter:       "urn:node:PANGAEA",
		RightsHolder:    "urn:node:PANGAEA",
		AuthoritativeMN: "urn:node:mnTestPANGAEA",
		OriginMN:        "urn:node:PANGAEA",
		FormatID:        "http://www.isotc211.org/2005/gmd-pangaea",
	}}

	content := []byte("<MD_Metadata/>")
	ts := time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC)
	now := time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC)

	v := s.newSysmeta("doi:10.1594/PANGAEA.111", content, ts, now)

	assert.Equal(t, "doi:10.1594/PANGAEA.111", v.SeriesID)
	assert.Equal(t, MintVersionPID("doi:10.1594/PANGAEA.111", now), v.PID)
	assert.Equal(t, int64(len(content)), v.Size)

	sum := md5.Sum(content)
	assert.Equal(t, hex.EncodeToString(sum[:]), v.Checksum)
	assert.Equal(t, "MD5", v.ChecksumAlgorithm)

	assert.True(t, v.DateUploaded.Equal(now))
	assert.True(t, v.DateSysMetadataModified.Equal(ts))
	assert.Equal(t, "urn:node:PANGAEA", v.Submitter)
	assert.Equal(t, "http://www.isotc211.org/2005/gmd-pangaea", v.FormatID)
	assert.Equal(t, PublicReadAccessPolicy, v.AccessPolicy)
	assert.True(t, v.Current)
	assert.False(t, v.Archived)
	assert.Empty(t, v.Obsoletes)
	assert.Empty(t, v.ObsoletedBy)
}
