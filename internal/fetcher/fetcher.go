// Package fetcher downloads remote audio resources into uniquely named
// scratch files under strict size and time limits. The fetched file is owned
// by the caller for exactly one inference and must be removed on every exit
// path.
package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verbalis/voicedetect-go/internal/conf"
	"github.com/verbalis/voicedetect-go/internal/errors"
	"github.com/verbalis/voicedetect-go/internal/logging"
)

const (
	userAgent = "voicedetect/1.0"

	// copyChunkSize is the read granularity of the streaming size check.
	copyChunkSize = 8192

	// Connection pool settings, shared by all fetches in the process.
	maxIdleConns        = 100
	maxIdleConnsPerHost = 10
	idleConnTimeout     = 90 * time.Second
)

// Fetcher downloads audio resources over HTTP(S). Safe for concurrent use.
type Fetcher struct {
	client     *http.Client
	scratchDir string
	maxBytes   int64
	logger     *slog.Logger
}

// New creates a Fetcher from the audio settings.
func New(settings *conf.AudioSettings) *Fetcher {
	timeout := time.Duration(settings.DownloadTimeout) * time.Second
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          maxIdleConns,
		MaxIdleConnsPerHost:   maxIdleConnsPerHost,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		scratchDir: settings.ScratchDir,
		maxBytes:   int64(settings.MaxDownloadMB) * 1024 * 1024,
		logger:     logging.ForService("fetcher"),
	}
}

// Fetch downloads url into a scratch file and returns its path. The caller
// owns the file and is responsible for removing it.
//
// The size limit is enforced while streaming: the download is aborted and the
// partial file removed the moment the cumulative byte count exceeds the cap,
// so an abusive resource never occupies more than the cap on disk and only
// one chunk in memory.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", errors.Newf("invalid URL: must use http or https protocol").
			Component("fetcher").
			Category(errors.CategoryDownload).
			Build()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", errors.New(fmt.Errorf("building request: %w", err)).
			Component("fetcher").
			Category(errors.CategoryDownload).
			Build()
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", errors.New(fmt.Errorf("download failed: %w", err)).
			Component("fetcher").
			Category(errors.CategoryNetwork).
			Build()
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Debug("closing response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.Newf("download failed: unexpected status %s", resp.Status).
			Component("fetcher").
			Category(errors.CategoryDownload).
			Context("status_code", resp.StatusCode).
			Build()
	}

	// Content-type from third-party servers is unreliable, so an unexpected
	// value is logged but never fatal. Format validity is decided at decode.
	if ct := resp.Header.Get("Content-Type"); ct != "" && !looksLikeAudio(ct) {
		f.logger.Debug("unexpected content type, deferring to decoder", "content_type", ct)
	}

	tempPath := f.scratchPath(url)
	out, err := os.Create(tempPath)
	if err != nil {
		return "", errors.New(fmt.Errorf("creating scratch file: %w", err)).
			Component("fetcher").
			Category(errors.CategoryFileIO).
			Build()
	}

	written, err := f.copyCapped(out, resp.Body)
	if closeErr := out.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		f.removeScratch(tempPath)
		return "", err
	}

	if written == 0 {
		f.removeScratch(tempPath)
		return "", errors.Newf("downloaded file is empty").
			Component("fetcher").
			Category(errors.CategoryDownload).
			Build()
	}

	f.logger.Debug("audio resource fetched", "bytes", written)
	return tempPath, nil
}

// copyCapped streams src into dst, failing as soon as the cumulative count
// exceeds the configured cap.
func (f *Fetcher) copyCapped(dst io.Writer, src io.Reader) (int64, error) {
	var written int64
	buf := make([]byte, copyChunkSize)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			written += int64(n)
			if written > f.maxBytes {
				return written, errors.Newf("file too large: exceeds %dMB limit", f.maxBytes/(1024*1024)).
					Component("fetcher").
					Category(errors.CategoryDownload).
					Context("limit_bytes", f.maxBytes).
					Build()
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, errors.New(fmt.Errorf("writing scratch file: %w", err)).
					Component("fetcher").
					Category(errors.CategoryFileIO).
					Build()
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, errors.New(fmt.Errorf("download failed: %w", readErr)).
				Component("fetcher").
				Category(errors.CategoryNetwork).
				Build()
		}
	}
}

// scratchPath derives a collision-resistant scratch file name from the URL
// and a high-resolution timestamp, so concurrent fetches of the same URL
// never share a file.
func (f *Fetcher) scratchPath(url string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s%d", url, time.Now().UnixNano())))
	name := fmt.Sprintf("voicedetect-%s.tmp", hex.EncodeToString(sum[:8]))
	return filepath.Join(f.scratchDir, name)
}

// removeScratch deletes a scratch file, logging but never escalating failure.
func (f *Fetcher) removeScratch(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		f.logger.Warn("failed to remove scratch file", "path", path, "error", err)
	}
}

func looksLikeAudio(contentType string) bool {
	ct := strings.ToLower(contentType)
	for _, marker := range []string{"audio", "mpeg", "wav", "ogg", "flac", "octet-stream"} {
		if strings.Contains(ct, marker) {
			return true
		}
	}
	return false
}
