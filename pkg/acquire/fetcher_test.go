package acquire

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abyssal-labs/archive-engine/pkg/apperrors"
	"github.com/abyssal-labs/archive-engine/pkg/models"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	return NewFetcher(5*time.Second, 1<<20, zap.NewNop())
}

func strPtr(s string) *string { return &s }

func TestAcquireInlineTextWins(t *testing.T) {
	f := newTestFetcher(t)
	job := &models.IngestJob{
		SourceText: strPtr("raw notes about persistence"),
		SourceURL:  strPtr("http://unreachable.invalid/"),
	}

	got, err := f.Acquire(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "raw notes about persistence", got)
}

func TestAcquireNoSource(t *testing.T) {
	f := newTestFetcher(t)
	_, err := f.Acquire(context.Background(), &models.IngestJob{})
	assert.ErrorIs(t, err, apperrors.ErrMissingSource)
}

func TestAcquireBlankTextFallsThroughToURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("fetched body"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	job := &models.IngestJob{
		SourceText: strPtr("   "),
		SourceURL:  &srv.URL,
	}

	got, err := f.Acquire(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "fetched body", got)
}

func TestFetchURLPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("# Writeup\nplain markdown content"))
	}))
	defer srv.Close()

	got, err := newTestFetcher(t).FetchURL(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "# Writeup\nplain markdown content", got)
}

func TestFetchURLStripsHTML(t *testing.T) {
	page := `<html><head><title>t</title><style>body{}</style></head>
<body>
<nav>Home | About</nav>
<script>alert(1)</script>
<p>First paragraph about SSRF.</p>
<p>Second paragraph.</p>
<footer>copyright</footer>
</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	got, err := newTestFetcher(t).FetchURL(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, got, "First paragraph about SSRF.")
	assert.Contains(t, got, "Second paragraph.")
	assert.NotContains(t, got, "alert(1)")
	assert.NotContains(t, got, "body{}")
	assert.NotContains(t, got, "Home | About")
	assert.NotContains(t, got, "copyright")
}

func TestFetchURLFollowsRedirects(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, srv.URL+"/final", http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("landed"))
	}))
	defer srv.Close()

	got, err := newTestFetcher(t).FetchURL(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	assert.Equal(t, "landed", got)
}

func TestFetchURLNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher(t).FetchURL(context.Background(), srv.URL)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.False(t, fetchErr.IsRetryable())
}

func TestFetchURLServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestFetcher(t).FetchURL(context.Background(), srv.URL)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.True(t, fetchErr.IsRetryable())
}

func TestFetchURLInvalidScheme(t *testing.T) {
	_, err := newTestFetcher(t).FetchURL(context.Background(), "ftp://example.com/file")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestFetchURLRespectsBodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 1024, zap.NewNop())
	got, err := f.FetchURL(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, got, 1024)
}

func TestStripTagsMalformedHTML(t *testing.T) {
	got := StripTags(strings.NewReader("<p>unclosed paragraph <b>bold"))
	assert.Contains(t, got, "unclosed paragraph")
	assert.Contains(t, got, "bold")
}
