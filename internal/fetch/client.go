// Package fetch downloads source documents from the storage collaborator
// via short-lived signed references.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// ErrTooLarge is returned when the document exceeds the size ceiling,
// detected from Content-Length when present or while reading otherwise.
var ErrTooLarge = errors.New("source document exceeds maximum size")

// ErrContentType is returned when the response content type is not an
// accepted document format.
var ErrContentType = errors.New("unexpected content type")

// acceptedTypes are the content types the pipeline can parse.
var acceptedTypes = map[string]string{
	"application/pdf": ".pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"text/csv":                 ".csv",
	"text/plain":               ".txt",
	"application/octet-stream": "", // deferred to the caller-supplied filename
}

// Client fetches source documents with bounded retries.
type Client struct {
	httpClient  *http.Client
	maxBytes    int64
	maxAttempts int
}

// NewClient builds a fetch client. maxBytes caps the downloaded size;
// maxAttempts bounds retries (backoff doubles from one second).
func NewClient(timeout time.Duration, maxBytes int64, maxAttempts int) *Client {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		maxBytes:    maxBytes,
		maxAttempts: maxAttempts,
	}
}

// Fetch downloads the document behind a signed URL. It retries transient
// failures with exponential backoff (1s, 2s, 4s), verifies the content
// type before returning bytes, and enforces the size ceiling. The second
// return value is the format extension implied by the content type, empty
// when the URL/filename must decide.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff(attempt - 1)):
			case <-ctx.Done():
				return nil, "", ctx.Err()
			}
		}

		data, ext, err := c.fetchOnce(ctx, url)
		if err == nil {
			return data, ext, nil
		}
		lastErr = err
		if !retryable(err) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("fetch failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", &transientError{err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("fetch status %d", resp.StatusCode)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, "", &transientError{err}
		}
		return nil, "", err
	}

	ext, err := checkContentType(resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, "", err
	}

	if c.maxBytes > 0 && resp.ContentLength > c.maxBytes {
		return nil, "", fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, resp.ContentLength, c.maxBytes)
	}

	limit := c.maxBytes
	if limit <= 0 {
		limit = 1 << 40
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, "", &transientError{fmt.Errorf("read body: %w", err)}
	}
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return nil, "", fmt.Errorf("%w: body exceeds %d bytes", ErrTooLarge, c.maxBytes)
	}
	return data, ext, nil
}

func checkContentType(header string) (string, error) {
	if header == "" {
		return "", nil
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrContentType, header)
	}
	ext, ok := acceptedTypes[strings.ToLower(mediaType)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrContentType, mediaType)
	}
	return ext, nil
}

// transientError marks failures worth retrying.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// backoff returns the delay before retry n (0-indexed): 1s, 2s, 4s.
func backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}
