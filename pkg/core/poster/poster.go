package poster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/angelospk/posterbed/pkg/core/picturebed"
	"github.com/angelospk/posterbed/pkg/core/ptgen"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	bbcodePrefix = "[img]"
	bbcodeSuffix = "[/img]"
)

// ErrNoPosterURL is returned by FromMetadata when the response carries
// no poster field anywhere.
var ErrNoPosterURL = errors.New("no poster URL found in metadata response")

// Fetcher downloads a URL into a local file.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, destPath string) error
}

// Processor runs the download → upload → cleanup pipeline for a single
// poster. Each call owns its own temp file; the file never survives a
// run, whichever way the run ends.
type Processor struct {
	fetcher  Fetcher
	uploader picturebed.Uploader
	tempDir  string // empty means os.TempDir()
	logger   *log.Logger
}

// NewProcessor creates a Processor. tempDir may be empty to use the
// system default temp directory.
func NewProcessor(fetcher Fetcher, uploader picturebed.Uploader, tempDir string, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.New()
		logger.SetOutput(os.Stdout)
		logger.SetLevel(log.InfoLevel)
	}
	return &Processor{
		fetcher:  fetcher,
		uploader: uploader,
		tempDir:  tempDir,
		logger:   logger,
	}
}

// Process downloads the poster at posterURL to a uniquely named temp
// file, uploads it to the picture-bed, and returns the bare hosted URL
// (BBCode markup stripped). The temp file is deleted on every exit
// path; a failed deletion is logged and does not fail the run.
func (p *Processor) Process(ctx context.Context, posterURL string) (hostedURL string, err error) {
	tempPath := filepath.Join(p.resolveTempDir(), fmt.Sprintf("poster_%s.jpg", uuid.NewString()))

	defer p.cleanup(tempPath)
	defer func() {
		if r := recover(); r != nil {
			hostedURL = ""
			err = fmt.Errorf("error during poster processing: %v", r)
		}
	}()

	p.logger.Infof("Processing poster: %s (temp file: %s)", posterURL, tempPath)

	if err := p.fetcher.Fetch(ctx, posterURL, tempPath); err != nil {
		return "", fmt.Errorf("failed to download poster: %w", err)
	}

	p.logger.Info("Uploading poster to image hosting service...")
	uploadResult, err := p.uploader.Upload(ctx, tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to upload poster: %w", err)
	}
	p.logger.Infof("Poster uploaded successfully: %s", uploadResult)

	return unwrapBBCode(uploadResult), nil
}

// FromMetadata extracts the poster URL from a PT-Gen response map and
// processes it. An empty extraction short-circuits with ErrNoPosterURL.
func (p *Processor) FromMetadata(ctx context.Context, data map[string]any) (string, error) {
	posterURL := ptgen.PosterURLFromData(data)
	if posterURL == "" {
		return "", ErrNoPosterURL
	}
	return p.Process(ctx, posterURL)
}

func (p *Processor) resolveTempDir() string {
	if p.tempDir != "" {
		return p.tempDir
	}
	return os.TempDir()
}

// cleanup removes the temp file if it was created. Deletion failure is
// a warning only, never a pipeline failure.
func (p *Processor) cleanup(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := os.Remove(path); err != nil {
		p.logger.Warnf("Failed to delete temporary poster file %s: %v", path, err)
		return
	}
	p.logger.Infof("Temporary poster file deleted: %s", path)
}

// unwrapBBCode strips an exact [img]...[/img] wrapper; anything else
// passes through unchanged.
func unwrapBBCode(s string) string {
	if strings.HasPrefix(s, bbcodePrefix) && strings.HasSuffix(s, bbcodeSuffix) && len(s) >= len(bbcodePrefix)+len(bbcodeSuffix) {
		return s[len(bbcodePrefix) : len(s)-len(bbcodeSuffix)]
	}
	return s
}
