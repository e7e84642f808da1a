package picturebed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	pberrors "github.com/angelospk/posterbed/pkg/core/errors"
)

const uploadTimeout = 60 * time.Second

// Uploader is the contract the poster pipeline consumes: take a local
// file, return the hosted URL (possibly wrapped in BBCode [img] markup).
type Uploader interface {
	Upload(ctx context.Context, filePath string) (string, error)
}

// Client uploads files to a picture-bed (image hosting) endpoint using
// a multipart POST authenticated with a bearer token.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

var _ Uploader = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for uploads.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// NewClient constructs a picture-bed client for the given endpoint and
// API token.
func NewClient(endpoint, token string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		token:    strings.TrimSpace(token),
		http:     &http.Client{Timeout: uploadTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// uploadResponse mirrors the common picture-bed reply shape. Some
// deployments nest the payload under "data", some inline it.
type uploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url"`
	BBCode  string `json:"bbcode"`
	Data    struct {
		URL    string `json:"url"`
		BBCode string `json:"bbcode"`
	} `json:"data"`
}

// result prefers the BBCode form when the service provides one, since
// tracker descriptions consume it directly.
func (r *uploadResponse) result() string {
	for _, candidate := range []string{r.BBCode, r.Data.BBCode, r.URL, r.Data.URL} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// Upload posts the file at filePath to the picture-bed and returns the
// hosted URL or its [img]...[/img] BBCode form.
func (c *Client) Upload(ctx context.Context, filePath string) (string, error) {
	if c.endpoint == "" {
		return "", fmt.Errorf("picturebed: endpoint is not configured")
	}
	if c.token == "" {
		return "", fmt.Errorf("picturebed: API token is not configured")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("picturebed: open file: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	field, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return "", fmt.Errorf("picturebed: create file field: %w", err)
	}
	if _, err := io.Copy(field, file); err != nil {
		return "", fmt.Errorf("picturebed: copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("picturebed: close multipart writer: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("picturebed: build request: %w", err)
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.Header.Set("Authorization", "Bearer "+c.token)
	request.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(request)
	if err != nil {
		return "", fmt.Errorf("picturebed: http request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("picturebed: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError(resp.StatusCode, payload)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("picturebed: decode response: %w", err)
	}
	if !parsed.Success && parsed.Message != "" {
		return "", fmt.Errorf("picturebed: upload rejected: %s", parsed.Message)
	}

	hosted := parsed.result()
	if hosted == "" {
		return "", fmt.Errorf("picturebed: response carried no image URL")
	}
	return hosted, nil
}

// statusError maps well-known HTTP statuses onto sentinel errors so
// callers can distinguish credential problems from transient ones.
func statusError(status int, payload []byte) error {
	body := strings.TrimSpace(string(payload))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("upload failed with status %d: %s: %w", status, body, pberrors.ErrUnauthorized)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("upload failed with status %d: %s: %w", status, body, pberrors.ErrQuotaExceeded)
	case status >= 500:
		return fmt.Errorf("upload failed with status %d: %s: %w", status, body, pberrors.ErrServiceUnavailable)
	default:
		return fmt.Errorf("picturebed: unexpected status %d: %s", status, body)
	}
}
