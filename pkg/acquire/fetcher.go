// Package acquire turns an ingest job's source (inline text or URL) into raw
// text ready for structuring.
package acquire

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/markusmobius/go-trafilatura"
	"go.uber.org/zap"

	"github.com/abyssal-labs/archive-engine/pkg/apperrors"
	"github.com/abyssal-labs/archive-engine/pkg/models"
)

// FetchError represents a failure retrieving a source URL.
type FetchError struct {
	URL        string
	StatusCode int // 0 when the request never produced a response
	Cause      error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
func (e *FetchError) IsRetryable() bool {
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// Fetcher acquires raw text for ingest jobs. Inline text passes through
// unchanged; URLs are fetched, and HTML responses are reduced to readable text.
type Fetcher struct {
	httpClient   *http.Client
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewFetcher creates a fetcher with the given request timeout and body cap.
func NewFetcher(timeout time.Duration, maxBodyBytes int64, logger *zap.Logger) *Fetcher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if maxBodyBytes == 0 {
		maxBodyBytes = 5 << 20
	}
	return &Fetcher{
		httpClient:   &http.Client{Timeout: timeout},
		maxBodyBytes: maxBodyBytes,
		logger:       logger.Named("acquire"),
	}
}

// Acquire returns the raw text for a job. Inline source text wins over a URL
// when both are present.
func (f *Fetcher) Acquire(ctx context.Context, job *models.IngestJob) (string, error) {
	if job.SourceText != nil && strings.TrimSpace(*job.SourceText) != "" {
		return *job.SourceText, nil
	}
	if job.SourceURL == nil || strings.TrimSpace(*job.SourceURL) == "" {
		return "", fmt.Errorf("%w: job has neither source_text nor source_url", apperrors.ErrMissingSource)
	}
	return f.FetchURL(ctx, *job.SourceURL)
}

// FetchURL retrieves a URL and returns its textual content. HTML pages are
// reduced to their main text; anything else comes back as the raw body.
func (f *Fetcher) FetchURL(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("%w: invalid source URL %q", apperrors.ErrValidation, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &FetchError{URL: rawURL, Cause: err}
	}
	req.Header.Set("User-Agent", "archive-engine/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Warn("source fetch failed", zap.String("url", rawURL), zap.Error(err))
		return "", &FetchError{URL: rawURL, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return "", &FetchError{URL: rawURL, Cause: fmt.Errorf("read body: %w", err)}
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(strings.ToLower(contentType), "html") {
		return f.extractHTML(body, parsed), nil
	}

	return string(body), nil
}

// extractHTML pulls the readable text out of an HTML page. Trafilatura handles
// article-shaped pages well; when it finds nothing we fall back to stripping
// tags ourselves so a degenerate page still yields something.
func (f *Fetcher) extractHTML(body []byte, pageURL *url.URL) string {
	opts := trafilatura.Options{
		OriginalURL: pageURL,
	}

	result, err := trafilatura.Extract(bytes.NewReader(body), opts)
	if err == nil && result != nil && strings.TrimSpace(result.ContentText) != "" {
		return result.ContentText
	}

	if err != nil {
		f.logger.Debug("trafilatura extraction failed, falling back to tag stripping",
			zap.String("url", pageURL.String()),
			zap.Error(err))
	}

	return StripTags(bytes.NewReader(body))
}
