// Package feedclient implements ports.FeedLoader over HTTP and over a local file.
package feedclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"klineChart/internal/domain"
	"klineChart/internal/feed"
	"klineChart/internal/ports"
)

// maxFeedBytes bounds how much of a response body is read.
const maxFeedBytes = 64 << 20

var (
	_ ports.FeedLoader = (*HTTPLoader)(nil)
	_ ports.FeedLoader = (*FileLoader)(nil)
)

// HTTPLoader fetches the feed with one unauthenticated GET. It never retries.
type HTTPLoader struct {
	url        string
	strict     bool
	httpClient *http.Client
}

// NewHTTPLoader creates a loader for url. When strict is set every record is
// validated before it is returned.
func NewHTTPLoader(url string, timeout time.Duration, strict bool) *HTTPLoader {
	return &HTTPLoader{
		url:        url,
		strict:     strict,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Load performs the GET and decodes the body.
func (l *HTTPLoader) Load(ctx context.Context) ([]domain.RawRecord, error) {
	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ports.ErrInvalidRequest, err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return nil, fmt.Errorf("%w: fetch %s: %v", ports.ErrContextCanceled, l.url, err)
		case errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("%w: fetch %s: %v", ports.ErrTimeout, l.url, err)
		}
		return nil, fmt.Errorf("%w: fetch %s: %v", ports.ErrFeedUnavailable, l.url, err)
	}
	defer resp.Body.Close()

	// Check HTTP status code
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: fetch %s: status %d: %s", ports.ErrFeedUnavailable, l.url, resp.StatusCode, snippet)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ports.ErrFeedUnavailable, l.url, err)
	}
	return decode(body, l.strict)
}

// FileLoader reads the feed document from disk.
type FileLoader struct {
	path   string
	strict bool
}

// NewFileLoader creates a loader for the document at path.
func NewFileLoader(path string, strict bool) *FileLoader {
	return &FileLoader{path: path, strict: strict}
}

func (l *FileLoader) Load(ctx context.Context) ([]domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrContextCanceled, err)
	}
	body, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %v", ports.ErrNotFound, l.path, err)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ports.ErrFeedUnavailable, l.path, err)
	}
	return decode(body, l.strict)
}

// New picks the HTTP loader when url is set and the file loader otherwise.
func New(url, path string, timeout time.Duration, strict bool) ports.FeedLoader {
	if url != "" {
		return NewHTTPLoader(url, timeout, strict)
	}
	return NewFileLoader(path, strict)
}

func decode(body []byte, strict bool) ([]domain.RawRecord, error) {
	records, err := feed.Decode(body)
	if err != nil {
		return nil, err
	}
	if strict {
		if err := feed.Validate(records); err != nil {
			return nil, err
		}
	}
	return records, nil
}
