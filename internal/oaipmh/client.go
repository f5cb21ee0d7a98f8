package oaipmh

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dverbeek84/oaibridge/internal/common"
)

const (
	datestampLayout = "2006-01-02T15:04:05Z"
	dateOnlyLayout  = "2006-01-02"

	// noRecordsMatch is a success outcome per the protocol: the query is
	// well-formed, it just selects nothing.
	errNoRecordsMatch = "noRecordsMatch"

	userAgent = "oaibridge OAI-PMH harvester"
)

// ProtocolError is a provider-reported OAI-PMH error code such as
// badResumptionToken or badArgument. These reject the request itself, so
// reissuing the same request can never succeed.
type ProtocolError struct {
	Code    string
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("provider error %s: %s", e.Code, e.Message)
}

// Client issues ListRecords requests against a single OAI-PMH provider.
type Client struct {
	baseURL          string
	metadataPrefix   string
	identifierPrefix string
	contact          string
	httpClient       *http.Client
}

// NewClient builds a Client. identifierPrefix is the provider's wire
// identifier prefix stripped to obtain native identifiers. contact is sent
// in the From header as harvesting etiquette and may be empty.
func NewClient(baseURL, metadataPrefix, identifierPrefix, contact string, timeout time.Duration) *Client {
	return &Client{
		baseURL:          baseURL,
		metadataPrefix:   metadataPrefix,
		identifierPrefix: identifierPrefix,
		contact:          contact,
		httpClient:       &http.Client{Timeout: timeout},
	}
}

// ListRecords performs exactly one network round-trip. A provider response
// of noRecordsMatch yields an empty page and nil error. Transport failures,
// non-200 statuses, and all other protocol error codes wrap
// common.ErrorFetchFailed; protocol error codes additionally wrap
// *ProtocolError so callers can tell a permanent rejection from a
// transient fault. The client never retries; retry policy belongs to the
// caller.
func (c *Client) ListRecords(ctx context.Context, p Params) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(p), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorFetchFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)
	if c.contact != "" {
		req.Header.Set("From", c.contact)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d from %s", common.ErrorFetchFailed, resp.StatusCode, c.baseURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", common.ErrorFetchFailed, err)
	}

	var env envelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", common.ErrorFetchFailed, err)
	}

	if env.Error != nil {
		if env.Error.Code == errNoRecordsMatch {
			return &Page{}, nil
		}
		return nil, fmt.Errorf("%w: %w", common.ErrorFetchFailed,
			&ProtocolError{Code: env.Error.Code, Message: strings.TrimSpace(env.Error.Message)})
	}

	if env.ListRecords == nil {
		return &Page{}, nil
	}

	page := &Page{ResumptionToken: strings.TrimSpace(env.ListRecords.ResumptionToken)}
	for _, w := range env.ListRecords.Records {
		page.Records = append(page.Records, c.decodeRecord(w))
	}
	return page, nil
}

func (c *Client) requestURL(p Params) string {
	q := url.Values{}
	q.Set("verb", "ListRecords")
	if p.ResumptionToken != "" {
		q.Set("resumptionToken", p.ResumptionToken)
	} else {
		q.Set("metadataPrefix", c.metadataPrefix)
		q.Set("from", p.From.UTC().Format(datestampLayout))
	}
	return c.baseURL + "?" + q.Encode()
}

func (c *Client) decodeRecord(w wireRecord) Record {
	rec := Record{Identifier: strings.TrimSpace(w.Header.Identifier)}
	rec.NativeID = NativeIDFromWire(c.identifierPrefix, rec.Identifier)

	if rec.Identifier == "" {
		rec.ParseErr = fmt.Errorf("%w: entry has no identifier", common.ErrorRecordParse)
		return rec
	}

	if w.Header.Status == string(StatusDeleted) {
		// Deleted entries carry no payload; the datestamp is not needed to
		// archive, so a malformed one is tolerated here.
		rec.Status = StatusDeleted
		if ts, err := parseDatestamp(w.Header.Datestamp); err == nil {
			rec.Datestamp = ts
		}
		return rec
	}

	rec.Status = StatusActive

	ts, err := parseDatestamp(w.Header.Datestamp)
	if err != nil {
		rec.ParseErr = fmt.Errorf("%w: datestamp %q: %v", common.ErrorRecordParse, w.Header.Datestamp, err)
		return rec
	}
	rec.Datestamp = ts

	if w.Metadata == nil {
		rec.ParseErr = fmt.Errorf("%w: active record without metadata element", common.ErrorRecordParse)
		return rec
	}
	payload := bytes.TrimSpace(w.Metadata.Inner)
	if len(payload) == 0 {
		rec.ParseErr = fmt.Errorf("%w: active record with empty metadata", common.ErrorRecordParse)
		return rec
	}
	rec.Payload = payload

	return rec
}

// parseDatestamp accepts the two datestamp granularities the protocol
// permits and normalizes the result to UTC.
func parseDatestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(datestampLayout, s); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse(dateOnlyLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}
