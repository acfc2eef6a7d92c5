package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// RateLimitError is returned when the server responds with HTTP 429.
type RateLimitError struct {
	Message string
}

func (r *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %s", r.Message)
}

// Credentials for the pinning API: either a JWT bearer token, or the legacy
// api-key/secret header pair. Both empty means no credential is configured
// and the client operates in degraded mode.
type Credentials struct {
	JWT       string
	APIKey    string
	APISecret string
}

func (c Credentials) Configured() bool {
	return c.JWT != "" || c.APIKey != ""
}

// Client manages communication with the Pinata pinning API.
type Client struct {
	BaseURL      *url.URL
	Credentials  Credentials
	GatewayBase  string
	HTTPClient   *http.Client
	MaxRetries   int           // how many times to retry on 429
	RetryInitial time.Duration // initial backoff
}

const defaultBaseURL = "https://api.pinata.cloud"

// NewClient initializes a pinning client. An empty baseURL defaults to the
// public Pinata endpoint; an empty gatewayBase defaults to Pinata's gateway.
func NewClient(creds Credentials, baseURL, gatewayBase string, maxRetries int, retryInitial time.Duration) (*Client, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid baseURL: %w", err)
	}
	if gatewayBase == "" {
		gatewayBase = DefaultGatewayBase
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if retryInitial <= 0 {
		retryInitial = 1 * time.Second
	}

	return &Client{
		BaseURL:      parsed,
		Credentials:  creds,
		GatewayBase:  gatewayBase,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		MaxRetries:   maxRetries,
		RetryInitial: retryInitial,
	}, nil
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// doRequest executes a request with minimal backoff for 429.
func (c *Client) doRequest(ctx context.Context, reqPath, contentType string, body []byte, out any) error {
	var attempt int
	var backoff = c.RetryInitial

	for {
		err := c.doOnce(ctx, reqPath, contentType, body, out)
		if err == nil {
			return nil
		}

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			if attempt < c.MaxRetries {
				attempt++
				time.Sleep(backoff)
				backoff *= 2
				continue
			}
			return err
		}
		// Other errors are not auto-retried: the mint flow must abort
		// rather than write a record against a rejected upload.
		return err
	}
}

// doOnce performs a single HTTP request attempt (no retries).
func (c *Client) doOnce(ctx context.Context, reqPath, contentType string, body []byte, out any) error {
	u := *c.BaseURL
	u.Path = path.Join(c.BaseURL.Path, reqPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleHTTPError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.Credentials.JWT != "" {
		req.Header.Set("Authorization", "Bearer "+c.Credentials.JWT)
		return
	}
	if c.Credentials.APIKey != "" {
		req.Header.Set("pinata_api_key", c.Credentials.APIKey)
		req.Header.Set("pinata_secret_api_key", c.Credentials.APISecret)
	}
}

func (c *Client) handleHTTPError(resp *http.Response) error {
	status := resp.StatusCode
	bodyBytes, _ := io.ReadAll(resp.Body)

	var apiErr errorResponse
	if err := json.Unmarshal(bodyBytes, &apiErr); err != nil {
		apiErr.Error = strings.TrimSpace(string(bodyBytes))
	}

	switch status {
	case 401:
		return fmt.Errorf("unauthorized (401): %s", apiErr.Error)
	case 403:
		return fmt.Errorf("forbidden (403): %s", apiErr.Error)
	case 429:
		return &RateLimitError{Message: apiErr.Error}
	default:
		return fmt.Errorf("http error (%d): %s", status, apiErr.Error)
	}
}

// multipartFile builds the pinFileToIPFS request body.
func multipartFile(name string, r io.Reader) (string, []byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", nil, err
	}
	if err := w.Close(); err != nil {
		return "", nil, err
	}
	return w.FormDataContentType(), buf.Bytes(), nil
}
