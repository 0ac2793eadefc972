package figma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Nate-Bowman/UnityFigmaBridge/internal/logging"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/retry"
)

// Client talks to the Figma REST API with retry and token auth.
type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	retryConfig retry.Config
}

// ClientConfig holds client configuration.
type ClientConfig struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration
	RetryConfig retry.Config
}

// NewClient creates a new Figma API client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.figma.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RetryConfig.MaxAttempts == 0 {
		cfg.RetryConfig = retry.DefaultConfig()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		retryConfig: cfg.RetryConfig,
	}
}

// get performs an authenticated GET with retry on transient failures.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	return retry.DoWithResult(ctx, c.retryConfig, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		if c.token != "" {
			req.Header.Set("X-Figma-Token", c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, retry.Retryable(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, retry.Retryable(err)
		}

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
			if retry.RetryableStatus(resp.StatusCode) {
				return nil, retry.Retryable(err)
			}
			return nil, err
		}

		return body, nil
	})
}

// GetFile fetches and parses a Figma file, including geometry.
func (c *Client) GetFile(ctx context.Context, fileKey string) (*File, error) {
	u := fmt.Sprintf("%s/v1/files/%s?geometry=paths", c.baseURL, url.PathEscape(fileKey))

	logging.Debug("fetching figma file", zap.String("file_key", fileKey))
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", fileKey, err)
	}
	return ParseFile(body)
}

// imagesResponse is the /v1/images payload.
type imagesResponse struct {
	Err    string            `json:"err,omitempty"`
	Images map[string]string `json:"images"`
}

// GetRenderedImages asks the server to rasterize the given nodes and
// returns a node id to download URL map. Nodes the server could not
// render map to an empty URL and are dropped.
func (c *Client) GetRenderedImages(ctx context.Context, fileKey string, nodeIDs []string, scale float64, format string) (map[string]string, error) {
	if len(nodeIDs) == 0 {
		return map[string]string{}, nil
	}

	q := url.Values{}
	q.Set("ids", strings.Join(nodeIDs, ","))
	q.Set("scale", fmt.Sprintf("%g", scale))
	q.Set("format", format)
	u := fmt.Sprintf("%s/v1/images/%s?%s", c.baseURL, url.PathEscape(fileKey), q.Encode())

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("render images for %s: %w", fileKey, err)
	}

	var resp imagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse images response: %w", err)
	}
	if resp.Err != "" {
		return nil, fmt.Errorf("render images for %s: %s", fileKey, resp.Err)
	}

	out := make(map[string]string, len(resp.Images))
	for id, u := range resp.Images {
		if u == "" {
			logging.Warn("server could not render node", zap.String("node_id", id))
			continue
		}
		out[id] = u
	}
	return out, nil
}

// imageFillsResponse is the /v1/files/:key/images payload.
type imageFillsResponse struct {
	Meta struct {
		Images map[string]string `json:"images"`
	} `json:"meta"`
}

// GetImageFills returns the imageRef to download URL map for all image
// fills used in the file.
func (c *Client) GetImageFills(ctx context.Context, fileKey string) (map[string]string, error) {
	u := fmt.Sprintf("%s/v1/files/%s/images", c.baseURL, url.PathEscape(fileKey))

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("get image fills for %s: %w", fileKey, err)
	}

	var resp imageFillsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse image fills response: %w", err)
	}
	return resp.Meta.Images, nil
}

// Download fetches raw bytes from an image URL (S3-signed, no auth
// header needed).
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	return retry.DoWithResult(ctx, c.retryConfig, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, retry.Retryable(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("download %s: status %d", rawURL, resp.StatusCode)
			if retry.RetryableStatus(resp.StatusCode) {
				return nil, retry.Retryable(err)
			}
			return nil, err
		}

		return io.ReadAll(resp.Body)
	})
}
