// Package models defines the persistence-layer types of the member-node
// catalog.
package models

import "time"

// Version is one immutable system-metadata snapshot stored for a logical
// record. The series identifier (the source repository's native id) is the
// stable cross-version key; the PID identifies this specific snapshot.
// Rows are never mutated after creation except for the current/archived
// flags and the obsoleted_by back-reference set when a newer version
// supersedes this one.
type Version struct {
	PID                     string
	SeriesID                string
	FormatID                string
	Checksum                string
	ChecksumAlgorithm       string
	Size                    int64
	DateUploaded            time.Time
	DateSysMetadataModified time.Time
	Submitter               string
	RightsHolder            string
	AuthoritativeMN         string
	OriginMN                string
	AccessPolicy            string
	Obsoletes               string // PID of the version this one supersedes, "" for first versions
	ObsoletedBy             string // PID of the superseding version, "" while current
	Archived                bool
	Current                 bool
}
