package fetcher

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verbalis/voicedetect-go/internal/conf"
	"github.com/verbalis/voicedetect-go/internal/errors"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	f := New(&conf.AudioSettings{
		ScratchDir:      t.TempDir(),
		MaxDownloadMB:   1,
		DownloadTimeout: 5,
	})
	httpmock.ActivateNonDefault(f.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return f
}

func TestFetchSuccess(t *testing.T) {
	f := newTestFetcher(t)
	body := strings.Repeat("a", 1024)
	httpmock.RegisterResponder(http.MethodGet, "https://example.com/audio_en.mp3",
		httpmock.NewStringResponder(http.StatusOK, body))

	path, err := f.Fetch(context.Background(), "https://example.com/audio_en.mp3")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(path) })

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
	assert.Equal(t, f.scratchDir, filepath.Dir(path))
}

func TestFetchRejectsBadScheme(t *testing.T) {
	f := newTestFetcher(t)

	_, err := f.Fetch(context.Background(), "ftp://example.com/audio.mp3")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryDownload))
}

func TestFetchHTTPError(t *testing.T) {
	f := newTestFetcher(t)
	httpmock.RegisterResponder(http.MethodGet, "https://example.com/missing.mp3",
		httpmock.NewStringResponder(http.StatusNotFound, "not found"))

	_, err := f.Fetch(context.Background(), "https://example.com/missing.mp3")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryDownload))
	assert.Contains(t, err.Error(), "unexpected status")
}

func TestFetchEmptyBody(t *testing.T) {
	f := newTestFetcher(t)
	httpmock.RegisterResponder(http.MethodGet, "https://example.com/empty.mp3",
		httpmock.NewStringResponder(http.StatusOK, ""))

	_, err := f.Fetch(context.Background(), "https://example.com/empty.mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
	assertNoScratchFiles(t, f.scratchDir)
}

func TestFetchTooLarge(t *testing.T) {
	f := newTestFetcher(t)
	// 1MB cap, serve 1MB + 1 byte.
	oversized := strings.Repeat("x", 1024*1024+1)
	httpmock.RegisterResponder(http.MethodGet, "https://example.com/huge.mp3",
		httpmock.NewStringResponder(http.StatusOK, oversized))

	_, err := f.Fetch(context.Background(), "https://example.com/huge.mp3")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryDownload))
	assert.Contains(t, err.Error(), "file too large")
	assertNoScratchFiles(t, f.scratchDir)
}

func TestFetchNetworkFailure(t *testing.T) {
	f := newTestFetcher(t)
	httpmock.RegisterResponder(http.MethodGet, "https://example.com/flaky.mp3",
		httpmock.NewErrorResponder(assert.AnError))

	_, err := f.Fetch(context.Background(), "https://example.com/flaky.mp3")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))
}

func TestScratchPathUnique(t *testing.T) {
	f := newTestFetcher(t)

	first := f.scratchPath("https://example.com/a.mp3")
	second := f.scratchPath("https://example.com/a.mp3")
	assert.NotEqual(t, first, second, "concurrent fetches of one URL must not collide")
}

// assertNoScratchFiles verifies failed downloads leave nothing behind.
func assertNoScratchFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch dir should be empty after a failed fetch")
}

func TestLooksLikeAudio(t *testing.T) {
	assert.True(t, looksLikeAudio("audio/mpeg"))
	assert.True(t, looksLikeAudio("application/octet-stream"))
	assert.False(t, looksLikeAudio("text/html"))
}
