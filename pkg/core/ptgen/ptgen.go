package ptgen

import (
	"context"
	"errors"

	"github.com/angelospk/posterbed/internal/constants"
	"github.com/angelospk/posterbed/internal/httpclient"
)

// PT-Gen aggregates movie metadata (Douban, IMDb, Bangumi...) behind a
// single JSON endpoint. Deployments differ in the exact fields they
// emit, so responses are handled as untyped maps.

// posterFields lists the response keys that may carry a poster URL,
// in priority order. Earlier keys win when several are present.
var posterFields = []string{"poster", "img", "image", "cover", "posterUrl"}

// PosterURLFromData extracts a poster URL from a PT-Gen response map.
// Top-level fields are checked first; if none hold a usable value the
// same fields are checked one level down under "data". Returns "" when
// nothing is found — absence is a normal outcome, not an error.
func PosterURLFromData(data map[string]any) string {
	if url := posterFromFields(data); url != "" {
		return url
	}
	if nested, ok := data["data"].(map[string]any); ok {
		return posterFromFields(nested)
	}
	return ""
}

func posterFromFields(m map[string]any) string {
	for _, field := range posterFields {
		// Only non-empty strings count as a match; PT-Gen occasionally
		// emits null or empty placeholders for missing artwork.
		if s, ok := m[field].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// --- Lookup client ---

// LookupParams are the query parameters for a resource lookup.
type LookupParams struct {
	URL string `url:"url"`
}

// SearchParams are the query parameters for a title search.
type SearchParams struct {
	Search string `url:"search"`
	Source string `url:"source,omitempty"` // douban, imdb, bangumi; empty lets PT-Gen pick
}

// Client queries a PT-Gen deployment.
type Client struct {
	httpClient *httpclient.Client
}

// NewClient creates a PT-Gen client. An empty baseURL falls back to the
// default public deployment.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = constants.DefaultPTGenURL
	}
	return &Client{
		httpClient: httpclient.New(baseURL, constants.DefaultUserAgent),
	}
}

// Lookup fetches the metadata record for a Douban/IMDb resource URL.
func (c *Client) Lookup(ctx context.Context, resourceURL string) (map[string]any, error) {
	if resourceURL == "" {
		return nil, errors.New("resource URL is required")
	}
	var response map[string]any
	if err := c.httpClient.Get(ctx, "", LookupParams{URL: resourceURL}, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// Search queries PT-Gen for titles matching the given text and returns
// the raw result list. Callers typically feed the first hit's resource
// link back into Lookup.
func (c *Client) Search(ctx context.Context, text, source string) ([]map[string]any, error) {
	if text == "" {
		return nil, errors.New("search text is required")
	}
	var response struct {
		Data []map[string]any `json:"data"`
	}
	if err := c.httpClient.Get(ctx, "", SearchParams{Search: text, Source: source}, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}
