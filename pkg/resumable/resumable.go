// Package resumable implements the session-based resumable upload wire
// protocol: a POST opens a session and returns its location, the client PUTs
// chunks directly against the session, and a zero-length PUT carrying
// "Content-Range: bytes */{total}" queries completion.
package resumable

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FileMeta describes the file a session is opened for.
type FileMeta struct {
	Name      string
	SizeBytes int64
	MimeType  string
}

// Status is the result of a completion query against an open session.
type Status struct {
	Complete      bool
	ReceivedBytes int64
}

// Client drives resumable upload sessions against any backend that honors the
// session protocol.
type Client struct {
	http   *http.Client
	logger zerolog.Logger
}

// NewClient constructs a resumable upload client.
func NewClient(logger zerolog.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger.With().Str("component", "resumable").Logger(),
	}
}

// NewClientWithHTTP constructs a client over a caller-supplied http.Client.
func NewClientWithHTTP(httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		http:   httpClient,
		logger: logger.With().Str("component", "resumable").Logger(),
	}
}

// Start opens an upload session and returns its location URI. The client is
// expected to PUT chunks directly against that URI out of band.
func (c *Client) Start(ctx context.Context, endpoint string, meta FileMeta) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build session request: %w", err)
	}
	req.Header.Set("X-Upload-Content-Type", meta.MimeType)
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(meta.SizeBytes, 10))
	req.Header.Set("Content-Length", "0")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to open upload session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d opening upload session", resp.StatusCode)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("upload session response carried no location")
	}

	c.logger.Debug().Str("file", meta.Name).Msg("upload session opened")

	return location, nil
}

// QueryStatus asks the session whether the upload has completed. The query is
// a zero-length PUT with "Content-Range: bytes */{total}"; 200/201 means the
// upload is complete, 308 means the session is still open and the Range header
// reports how many bytes have landed.
func (c *Client) QueryStatus(ctx context.Context, sessionURI string, totalBytes int64) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURI, nil)
	if err != nil {
		return Status{}, fmt.Errorf("failed to build status request: %w", err)
	}
	req.Header.Set("Content-Range", fmt.Sprintf("bytes */%d", totalBytes))
	req.Header.Set("Content-Length", "0")

	resp, err := c.http.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("failed to query upload status: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return Status{Complete: true, ReceivedBytes: totalBytes}, nil
	case http.StatusPermanentRedirect:
		return Status{ReceivedBytes: parseReceivedBytes(resp.Header.Get("Range"))}, nil
	default:
		return Status{}, fmt.Errorf("unexpected status %d querying upload session", resp.StatusCode)
	}
}

// parseReceivedBytes extracts the upper bound from a "bytes=0-N" range header.
// An absent or malformed header means no bytes have been received yet.
func parseReceivedBytes(header string) int64 {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	header = strings.TrimPrefix(header, "bytes=")
	parts := strings.SplitN(header, "-", 2)
	if len(parts) != 2 {
		return 0
	}
	upper, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0
	}
	return upper + 1
}
