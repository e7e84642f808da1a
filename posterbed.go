package posterbed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/angelospk/posterbed/pkg/core/download"
	"github.com/angelospk/posterbed/pkg/core/picturebed"
	"github.com/angelospk/posterbed/pkg/core/poster"
	"github.com/angelospk/posterbed/pkg/core/ptgen"
	ptn "github.com/razsteinmetz/go-ptn"
	log "github.com/sirupsen/logrus"
)

// Config holds the configuration for a posterbed Client.
type Config struct {
	PictureBedURL   string // image hosting upload endpoint (required)
	PictureBedToken string // image hosting API token (required)
	PTGenURL        string // optional: override the default PT-Gen deployment
	TempDir         string // optional: override the system temp directory
	Logger          *log.Logger
}

// Client bundles the PT-Gen lookup client with the poster rehosting
// pipeline behind one entry point.
type Client struct {
	ptgen     *ptgen.Client
	processor *poster.Processor
}

// NewClient creates a posterbed Client.
func NewClient(config Config) (*Client, error) {
	if config.PictureBedURL == "" {
		return nil, errors.New("picture-bed URL is required")
	}
	if _, err := url.ParseRequestURI(config.PictureBedURL); err != nil {
		return nil, errors.New("picture-bed URL is not a valid URL")
	}
	if config.PictureBedToken == "" {
		return nil, errors.New("picture-bed API token is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = log.New()
		logger.SetOutput(os.Stdout)
		logger.SetLevel(log.InfoLevel)
	}

	fetcher := download.NewFetcher(logger)
	uploader := picturebed.NewClient(config.PictureBedURL, config.PictureBedToken)

	return &Client{
		ptgen:     ptgen.NewClient(config.PTGenURL),
		processor: poster.NewProcessor(fetcher, uploader, config.TempDir, logger),
	}, nil
}

// PTGen exposes the underlying metadata client.
func (c *Client) PTGen() *ptgen.Client {
	return c.ptgen
}

// Processor exposes the underlying poster pipeline.
func (c *Client) Processor() *poster.Processor {
	return c.processor
}

// Rehost looks up the given Douban/IMDb resource URL on PT-Gen,
// extracts the poster URL from the response, and runs the rehosting
// pipeline. Returns the hosted image URL.
func (c *Client) Rehost(ctx context.Context, resourceURL string) (string, error) {
	data, err := c.ptgen.Lookup(ctx, resourceURL)
	if err != nil {
		return "", err
	}
	return c.processor.FromMetadata(ctx, data)
}

// RehostPoster runs the pipeline for an already-known poster URL.
func (c *Client) RehostPoster(ctx context.Context, posterURL string) (string, error) {
	return c.processor.Process(ctx, posterURL)
}

// RehostFromMetadata runs the pipeline against an already-fetched
// PT-Gen response map.
func (c *Client) RehostFromMetadata(ctx context.Context, data map[string]any) (string, error) {
	return c.processor.FromMetadata(ctx, data)
}

// RehostRelease parses a release filename (scene naming), searches
// PT-Gen for the title, and rehosts the poster of the first match.
func (c *Client) RehostRelease(ctx context.Context, releaseName string) (string, error) {
	parsed, err := ptn.Parse(releaseName)
	if err != nil {
		return "", errors.New("could not parse release name: " + releaseName)
	}
	query := parsed.Title
	if parsed.Year != 0 {
		query = fmt.Sprintf("%s %d", parsed.Title, parsed.Year)
	}

	results, err := c.ptgen.Search(ctx, query, "douban")
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", errors.New("no PT-Gen results for query: " + query)
	}
	link, _ := results[0]["link"].(string)
	if link == "" {
		return "", errors.New("first PT-Gen result carries no resource link")
	}
	return c.Rehost(ctx, link)
}
