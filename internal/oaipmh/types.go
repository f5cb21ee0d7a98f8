// Package oaipmh implements a minimal OAI-PMH ListRecords client: one
// paginated request per call, stateless across calls. Pagination state
// (the resumption token) belongs to the caller.
package oaipmh

import (
	"encoding/xml"
	"time"
)

// SentinelSuffix is the reserved native identifier of the placeholder
// deleted record some providers append to terminate a result set. It is
// protocol plumbing, never a real logical record; the engine discards it.
const SentinelSuffix = "deleted.dummy"

// Status of a harvested record as reported by the provider.
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

// Params selects the query form for a single ListRecords call: either the
// initial time-sliced request (From) or a continuation (ResumptionToken).
// Tokens are only valid for the call immediately following the one that
// returned them and must not be cached across runs.
type Params struct {
	From            time.Time
	ResumptionToken string
}

// Page is the outcome of one ListRecords round-trip. ResumptionToken is
// empty when the provider returned none; token presence is the only
// continuation signal, independent of page length or sentinel presence.
type Page struct {
	Records         []Record
	ResumptionToken string
}

// Record is one harvested item, immutable after construction. ParseErr is
// set when the wire entry could not be fully decoded; such records still
// reach the engine so the failure is counted and logged per record instead
// of failing the page.
type Record struct {
	Identifier string // wire-form identifier as sent by the provider
	NativeID   string // identifier with the repository prefix stripped
	Status     Status
	Datestamp  time.Time // provider-reported last-modified, UTC
	Payload    []byte    // inner metadata document; nil when deleted
	ParseErr   error
}

// IsSentinel reports whether this record is the reserved termination
// placeholder rather than a real logical record.
func (r Record) IsSentinel() bool {
	return r.NativeID == SentinelSuffix
}

// Wire-level envelope structs. Namespaces are uniform across compliant
// providers, so local names are sufficient for decoding.

type envelope struct {
	XMLName     xml.Name       `xml:"OAI-PMH"`
	Error       *protocolError `xml:"error"`
	ListRecords *listRecords   `xml:"ListRecords"`
}

type protocolError struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

type listRecords struct {
	Records         []wireRecord `xml:"record"`
	ResumptionToken string       `xml:"resumptionToken"`
}

type wireRecord struct {
	Header   wireHeader    `xml:"header"`
	Metadata *wireMetadata `xml:"metadata"`
}

type wireHeader struct {
	Status     string `xml:"status,attr"`
	Identifier string `xml:"identifier"`
	Datestamp  string `xml:"datestamp"`
}

type wireMetadata struct {
	Inner []byte `xml:",innerxml"`
}
