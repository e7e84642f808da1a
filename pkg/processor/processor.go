package processor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/angelospk/posterbed/pkg/core/poster"
	log "github.com/sirupsen/logrus"
)

// Rehoster runs the poster pipeline for one metadata response.
type Rehoster interface {
	FromMetadata(ctx context.Context, data map[string]any) (string, error)
}

// Ensure the core pipeline satisfies the interface.
var _ Rehoster = (*poster.Processor)(nil)

// Result records the outcome for one metadata dump file.
type Result struct {
	File      string
	HostedURL string
	Err       error
}

// Processor walks directories of PT-Gen JSON dump files and rehosts the
// poster referenced by each one.
type Processor struct {
	rehoster Rehoster
	logger   *log.Logger
}

// NewProcessor creates a batch Processor.
func NewProcessor(rehoster Rehoster, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.New()
		logger.SetFormatter(&log.TextFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(log.InfoLevel)
	}
	return &Processor{
		rehoster: rehoster,
		logger:   logger,
	}
}

// ScanDirectory lists the .json metadata dumps under rootPath.
func (p *Processor) ScanDirectory(ctx context.Context, rootPath string, recursive bool) ([]string, error) {
	var files []string

	err := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			p.logger.Warnf("Error accessing path %q: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			p.logger.Info("Context cancelled during directory scan")
			return ctx.Err()
		}

		if d.IsDir() {
			if path != rootPath && !recursive {
				p.logger.Debugf("Skipping directory (not recursive): %s", path)
				return filepath.SkipDir
			}
			return nil
		}

		if strings.ToLower(filepath.Ext(path)) == ".json" {
			files = append(files, path)
		}
		return nil
	})

	if err != nil && err != context.Canceled && err != context.DeadlineExceeded {
		p.logger.Errorf("Error walking directory %q: %v", rootPath, err)
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	p.logger.Infof("Scan complete. Found %d metadata dumps in %s (Recursive: %t)", len(files), rootPath, recursive)
	return files, nil
}

// RehostDirectory scans rootPath for metadata dumps and runs the poster
// pipeline for each. Per-file failures are recorded in the results, not
// returned; only scan-level failures abort the batch.
func (p *Processor) RehostDirectory(ctx context.Context, rootPath string, recursive bool) ([]Result, error) {
	files, err := p.ScanDirectory(ctx, rootPath, recursive)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(files))
	for _, file := range files {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		p.logger.Infof("Processing metadata dump: %s", filepath.Base(file))
		hostedURL, err := p.rehostFile(ctx, file)
		if err != nil {
			p.logger.Warnf("  Rehost failed for %s: %v", filepath.Base(file), err)
		} else {
			p.logger.Infof("  Poster rehosted: %s", hostedURL)
		}
		results = append(results, Result{File: file, HostedURL: hostedURL, Err: err})
	}

	p.logger.Infof("Batch complete. %d dumps processed.", len(results))
	return results, nil
}

func (p *Processor) rehostFile(ctx context.Context, path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", err
	}
	return p.rehoster.FromMetadata(ctx, data)
}
