// Package source fetches the driver statistics sheet as CSV.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"f1insights/internal/engine"
)

// DefaultTimeout bounds a single fetch when the caller sets none.
const DefaultTimeout = 5 * time.Second

// maxBody caps the size of the document we are willing to parse.
const maxBody = 32 << 20

// SheetURL returns the CSV export URL of one sheet of a spreadsheet.
func SheetURL(host, sheetID, gid string) string {
	q := url.Values{}
	q.Set("format", "csv")
	q.Set("gid", gid)
	u := url.URL{
		Scheme:   "https",
		Host:     host,
		Path:     "/spreadsheets/d/" + sheetID + "/export",
		RawQuery: q.Encode(),
	}
	return u.String()
}

// FetchError is returned for every failure to obtain a table from the remote
// source: transport errors, timeouts, bad statuses and unparseable bodies.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client downloads and parses the sheet. It does not retry.
type Client struct {
	URL        string
	HTTPClient *http.Client
	Timeout    time.Duration
	Log        *logrus.Entry
}

// NewClient returns a client for url with the given per-fetch timeout.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		URL:        url,
		HTTPClient: &http.Client{},
		Timeout:    timeout,
		Log:        logrus.WithField("component", "source"),
	}
}

// Fetch performs one GET and parses the body into a ColumnStore.
func (c *Client) Fetch(ctx context.Context) (*engine.ColumnStore, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, &FetchError{URL: c.URL, Err: errors.Wrap(err, "building request")}
	}
	req.Header.Set("Accept", "text/csv")

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: c.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: c.URL, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}
	// A private or deleted sheet answers 200 with an HTML sign-in page.
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "text/html") {
		return nil, &FetchError{URL: c.URL, Status: resp.StatusCode, Err: errors.Errorf("unexpected content type %q", ct)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, &FetchError{URL: c.URL, Status: resp.StatusCode, Err: errors.Wrap(err, "reading body")}
	}
	if len(body) > maxBody {
		return nil, &FetchError{URL: c.URL, Status: resp.StatusCode, Err: errors.Errorf("body exceeds %d bytes", maxBody)}
	}

	store, err := engine.LoadCSV(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{URL: c.URL, Status: resp.StatusCode, Err: err}
	}

	c.Log.WithFields(logrus.Fields{
		"rows":    store.Rows,
		"bytes":   len(body),
		"elapsed": time.Since(start),
	}).Debug("sheet fetched")
	return store, nil
}
