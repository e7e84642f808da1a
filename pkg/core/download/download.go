package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// Timeout bounds the whole download, connection setup included.
	Timeout = 30 * time.Second

	copyChunkSize = 8192
)

// ErrEmptyURL is returned when Fetch is called without a URL; no
// network request is attempted in that case.
var ErrEmptyURL = errors.New("poster URL is empty")

// browserHeaders mimic a real Chrome image fetch. Douban in particular
// rejects bare client requests, so the Referer stays pinned to
// movie.douban.com even when the image lives on another host.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36",
	"Accept":          "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9,zh-CN;q=0.8,zh-TW;q=0.7,zh;q=0.6",
	"Referer":         "https://movie.douban.com/",
	"Cache-Control":   "no-cache",
	"Pragma":          "no-cache",
	"Sec-Fetch-Dest":  "image",
	"Sec-Fetch-Mode":  "no-cors",
	"Sec-Fetch-Site":  "cross-site",
}

// Fetcher downloads poster images over plain HTTP GET.
type Fetcher struct {
	httpClient *http.Client
	logger     *log.Logger
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client used for downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// NewFetcher creates a Fetcher with the fixed download timeout.
func NewFetcher(logger *log.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		logger = log.New()
		logger.SetOutput(os.Stdout)
		logger.SetLevel(log.InfoLevel)
	}
	f := &Fetcher{
		httpClient: &http.Client{Timeout: Timeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads posterURL into destPath, creating parent directories
// as needed and streaming the body in chunks. Every failure mode is
// converted to a descriptive error; nothing panics past this function.
func (f *Fetcher) Fetch(ctx context.Context, posterURL, destPath string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()

	if posterURL == "" {
		return ErrEmptyURL
	}

	f.logger.Infof("Starting poster download from: %s", posterURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, posterURL, nil)
	if err != nil {
		return fmt.Errorf("poster download request error: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			f.logger.Warn("Poster download timeout")
			return fmt.Errorf("poster download timeout (%s)", Timeout)
		}
		return fmt.Errorf("poster download request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download poster, status code: %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to save poster file: %w", err)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to save poster file: %w", err)
	}
	defer out.Close()

	if _, err := io.CopyBuffer(out, resp.Body, make([]byte, copyChunkSize)); err != nil {
		return copyError(err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to save poster file: %w", err)
	}

	f.logger.Infof("Poster downloaded successfully to: %s", destPath)
	return nil
}

// copyError classifies a streaming failure: writes surface as local I/O
// errors, reads as network errors, deadline expiry as a timeout.
func copyError(err error) error {
	var pathErr *fs.PathError
	switch {
	case isTimeout(err):
		return fmt.Errorf("poster download timeout (%s)", Timeout)
	case errors.As(err, &pathErr):
		return fmt.Errorf("failed to save poster file: %w", err)
	default:
		return fmt.Errorf("poster download request error: %w", err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
