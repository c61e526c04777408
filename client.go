package phosphene

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aixiera/phosphene-web/models"
	"github.com/aixiera/phosphene-web/services"
)

// DefaultBaseURL is the loopback address the simulation backend listens on in development
const DefaultBaseURL = "http://127.0.0.1:8000"

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// Client talks to the phosphene simulation backend.
// After creation, the client is immutable and safe for concurrent use
type Client struct {
	baseURL    string
	httpClient *http.Client

	// Custom headers to include in all requests
	headers map[string]string

	timeout     time.Duration
	retryConfig *RetryConfig

	// Service groups
	Simulator *services.SimulatorService
}

// RetryConfig configures retry behavior for failed requests.
// Simulation requests are not retried unless MaxRetries is raised explicitly
type RetryConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

// NewClient creates a new Client with the given options
func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		baseURL: DefaultBaseURL,
		headers: make(map[string]string),
		// no timeout: a simulation runs as long as the backend needs
		httpClient: &http.Client{},
		retryConfig: &RetryConfig{
			MaxRetries: 0,
			RetryDelay: time.Second,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	client.Simulator = services.NewSimulatorService(client)

	return client
}

// WithBaseURL sets a custom base URL for the client
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithTimeout sets the HTTP client timeout. Zero disables it
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
		c.httpClient.Timeout = timeout
	}
}

// WithRetryConfig sets the retry configuration
func WithRetryConfig(config *RetryConfig) ClientOption {
	return func(c *Client) {
		c.retryConfig = config
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader adds a custom header that will be included in all requests
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithHeaders adds multiple custom headers that will be included in all requests
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// GetBaseURL returns the configured base URL
func (c *Client) GetBaseURL() string {
	return c.baseURL
}

// GetTimeout returns the configured request timeout
func (c *Client) GetTimeout() time.Duration {
	return c.timeout
}

// NewRequest creates a new HTTP request against the base URL with the custom headers applied.
// Callers that send a body set its Content-Type themselves
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := fmt.Sprintf("%s%s", c.baseURL, path)

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

// Do executes an HTTP request. Transport failures come back as *models.NetworkError.
// 5xx responses are retried only when the retry config allows it and the body can be replayed
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.httpClient.Do(req)

		// Success or non-retryable error
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		if attempt >= c.retryConfig.MaxRetries || !replayable(req) {
			if err != nil {
				return nil, &models.NetworkError{Err: err}
			}
			return resp, nil
		}

		if resp != nil {
			resp.Body.Close()
		}

		select {
		case <-req.Context().Done():
			return nil, &models.NetworkError{Err: req.Context().Err()}
		case <-time.After(c.retryConfig.RetryDelay * time.Duration(attempt+1)):
		}

		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, &models.NetworkError{Err: err}
			}
			req.Body = body
		}
	}
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}
