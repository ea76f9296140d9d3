package integrations

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/npmreg/pkg/errors"
	"github.com/matzehuels/npmreg/pkg/observability"
)

// Getter performs a GET request and returns the raw response body.
// Implementations fail on transport errors and on non-success statuses.
type Getter interface {
	Get(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

// Client is the HTTP transport shared by registry API clients.
// It applies default request headers and maps response statuses to coded
// errors. It performs no caching and no retries.
type Client struct {
	http    *http.Client
	headers map[string]string
}

// NewClient creates a Client using httpClient and default headers.
// Headers are applied to all requests made through this client.
// A nil httpClient is replaced by [NewHTTPClient]; nil headers are allowed.
func NewClient(httpClient *http.Client, headers map[string]string) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	return &Client{
		http:    httpClient,
		headers: headers,
	}
}

// Get performs an HTTP GET with headers merged over the client defaults and
// returns the full response body. Request-specific headers override client
// defaults for the same key.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	body, err := c.doRequest(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, fmt.Errorf("%w: %w", errors.ErrNetwork, err), "read body of %s", url)
	}
	return data, nil
}

func (c *Client) doRequest(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidURL, err, "build request for %s", url)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, errors.Wrap(errors.ErrCodeNetwork, fmt.Errorf("%w: %w", errors.ErrNetwork, err), "GET %s", url)
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(url, resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(url string, code int) error {
	if code >= 200 && code < 300 {
		return nil
	}
	statusErr := &errors.StatusError{URL: url, StatusCode: code}
	msg := strings.ToLower(http.StatusText(code))
	if msg == "" {
		msg = "unexpected status"
	}
	if code == http.StatusNotFound {
		return errors.Wrap(errors.ErrCodeNotFound, statusErr, "%s", msg)
	}
	return errors.Wrap(errors.ErrCodeNetwork, statusErr, "%s", msg)
}

var _ Getter = (*Client)(nil)
