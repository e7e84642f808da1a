package poster_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelospk/posterbed/pkg/core/download"
	"github.com/angelospk/posterbed/pkg/core/poster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fakes ---

// fakeFetcher simulates a successful download by writing bytes to destPath.
type fakeFetcher struct {
	content  []byte
	lastURL  string
	lastDest string
	err      error
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL, destPath string) error {
	f.lastURL = rawURL
	f.lastDest = destPath
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(destPath, f.content, 0o644)
}

// fakeUploader returns a canned result and records what it saw.
type fakeUploader struct {
	result       string
	err          error
	panicMsg     string
	lastPath     string
	fileExisted  bool
	uploadedSize int64
}

func (u *fakeUploader) Upload(ctx context.Context, filePath string) (string, error) {
	u.lastPath = filePath
	if info, err := os.Stat(filePath); err == nil {
		u.fileExisted = true
		u.uploadedSize = info.Size()
	}
	if u.panicMsg != "" {
		panic(u.panicMsg)
	}
	return u.result, u.err
}

// --- Tests ---

func TestProcess_SuccessUnwrapsBBCode(t *testing.T) {
	tempDir := t.TempDir()
	fetcher := &fakeFetcher{content: []byte("image bytes")}
	uploader := &fakeUploader{result: "[img]https://host/x.png[/img]"}

	proc := poster.NewProcessor(fetcher, uploader, tempDir, nil)
	hostedURL, err := proc.Process(context.Background(), "https://img.example/p.jpg")

	require.NoError(t, err)
	assert.Equal(t, "https://host/x.png", hostedURL)

	// The uploader must have seen the downloaded temp file...
	assert.True(t, uploader.fileExisted)
	assert.Equal(t, int64(len("image bytes")), uploader.uploadedSize)
	assert.Equal(t, fetcher.lastDest, uploader.lastPath)

	// ...inside the configured temp dir, with the poster_ naming scheme...
	assert.Equal(t, tempDir, filepath.Dir(fetcher.lastDest))
	base := filepath.Base(fetcher.lastDest)
	assert.True(t, strings.HasPrefix(base, "poster_"), "unexpected temp name %q", base)
	assert.True(t, strings.HasSuffix(base, ".jpg"), "unexpected temp name %q", base)

	// ...and the temp file must be gone afterwards.
	assert.NoFileExists(t, fetcher.lastDest)
}

func TestProcess_UniqueTempNames(t *testing.T) {
	tempDir := t.TempDir()
	fetcher := &fakeFetcher{content: []byte("x")}
	uploader := &fakeUploader{result: "https://host/x.png"}
	proc := poster.NewProcessor(fetcher, uploader, tempDir, nil)

	_, err := proc.Process(context.Background(), "https://img.example/p.jpg")
	require.NoError(t, err)
	first := fetcher.lastDest

	_, err = proc.Process(context.Background(), "https://img.example/p.jpg")
	require.NoError(t, err)

	assert.NotEqual(t, first, fetcher.lastDest, "temp filenames must differ across calls for the same URL")
}

func TestProcess_PassthroughWithoutMarkup(t *testing.T) {
	fetcher := &fakeFetcher{content: []byte("x")}
	uploader := &fakeUploader{result: "https://host/plain.png"}

	proc := poster.NewProcessor(fetcher, uploader, t.TempDir(), nil)
	hostedURL, err := proc.Process(context.Background(), "https://img.example/p.jpg")

	require.NoError(t, err)
	assert.Equal(t, "https://host/plain.png", hostedURL)
}

func TestProcess_DownloadFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("poster download timeout (30s)")}
	uploader := &fakeUploader{result: "unused"}

	proc := poster.NewProcessor(fetcher, uploader, t.TempDir(), nil)
	_, err := proc.Process(context.Background(), "https://img.example/p.jpg")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to download poster")
	assert.Contains(t, err.Error(), "timeout")
	assert.Empty(t, uploader.lastPath, "uploader must not run after a failed download")
}

func TestProcess_UploadFailureStillCleansUp(t *testing.T) {
	fetcher := &fakeFetcher{content: []byte("image bytes")}
	uploader := &fakeUploader{err: errors.New("quota exceeded")}

	proc := poster.NewProcessor(fetcher, uploader, t.TempDir(), nil)
	_, err := proc.Process(context.Background(), "https://img.example/p.jpg")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload poster")
	assert.NoFileExists(t, fetcher.lastDest)
}

func TestProcess_PanicRecoveredAndCleanedUp(t *testing.T) {
	fetcher := &fakeFetcher{content: []byte("image bytes")}
	uploader := &fakeUploader{panicMsg: "boom"}

	proc := poster.NewProcessor(fetcher, uploader, t.TempDir(), nil)
	hostedURL, err := proc.Process(context.Background(), "https://img.example/p.jpg")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "error during poster processing")
	assert.Empty(t, hostedURL)
	assert.NoFileExists(t, fetcher.lastDest)
}

func TestFromMetadata_NoPosterURL(t *testing.T) {
	fetcher := &fakeFetcher{}
	uploader := &fakeUploader{}

	proc := poster.NewProcessor(fetcher, uploader, t.TempDir(), nil)
	_, err := proc.FromMetadata(context.Background(), map[string]any{"title": "No Art"})

	require.Error(t, err)
	assert.ErrorIs(t, err, poster.ErrNoPosterURL)
	assert.Empty(t, fetcher.lastURL, "pipeline must short-circuit before downloading")
}

func TestFromMetadata_EndToEnd(t *testing.T) {
	imageBytes := []byte("poster payload")
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(imageBytes)
	}))
	defer imageServer.Close()

	uploader := &fakeUploader{result: "[img]http://cdn/x.jpg[/img]"}
	fetcher := download.NewFetcher(nil)

	tempDir := t.TempDir()
	proc := poster.NewProcessor(fetcher, uploader, tempDir, nil)

	data := map[string]any{
		"data": map[string]any{"cover": imageServer.URL + "/b.jpg"},
	}
	hostedURL, err := proc.FromMetadata(context.Background(), data)

	require.NoError(t, err)
	assert.Equal(t, "http://cdn/x.jpg", hostedURL)

	assert.True(t, uploader.fileExisted)
	assert.Equal(t, int64(len(imageBytes)), uploader.uploadedSize)
	assert.NoFileExists(t, uploader.lastPath)

	// No stray files may remain in the temp dir either.
	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
