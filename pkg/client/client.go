package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wms-platform/carrier-selection/pkg/resilience"
)

// Config holds the carrier-selection service location
type Config struct {
	BaseURL string
	Timeout time.Duration
	Retry   *resilience.RetryConfig
}

// Client calls the carrier-selection HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      *resilience.RetryConfig
}

// StatusError is returned for 4xx and 5xx responses
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("request failed with status %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// New creates a new Client
func New(config *Config) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retry := resilience.DefaultRetryConfig()
	if config.Retry != nil {
		*retry = *config.Retry
	}
	retry.RetryableErrors = isRetryable

	return &Client{
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
	}
}

// isRetryable retries transport failures and 5xx answers
func isRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	return resilience.Retry(ctx, c.retry, func() error {
		return c.send(ctx, method, path, payload, result)
	})
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, result interface{}) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil {
			statusErr.Code = apiErr.Code
			statusErr.Message = apiErr.Message
		}
		return statusErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// SelectCarriers runs carrier selection for one picking
func (c *Client) SelectCarriers(ctx context.Context, pickingID string) (*SelectionResult, error) {
	var result SelectionResult
	if err := c.doRequest(ctx, http.MethodPost, "/api/carrier-selection/select", map[string]string{"picking_id": pickingID}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BatchSelect runs carrier selection for several pickings in order
func (c *Client) BatchSelect(ctx context.Context, pickingIDs []string) (*BatchResult, error) {
	var result BatchResult
	if err := c.doRequest(ctx, http.MethodPost, "/api/carrier-selection/batch-select", map[string][]string{"picking_ids": pickingIDs}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StartBatch starts the asynchronous batch workflow
func (c *Client) StartBatch(ctx context.Context, pickingIDs []string) (*BatchRun, error) {
	var result BatchRun
	if err := c.doRequest(ctx, http.MethodPost, "/api/carrier-selection/batch-select/async", map[string][]string{"picking_ids": pickingIDs}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListPickings returns one page of the picking browse list
func (c *Client) ListPickings(ctx context.Context, opts ListOptions) (*PickingPage, error) {
	q := url.Values{}
	if opts.Skip > 0 {
		q.Set("skip", strconv.Itoa(opts.Skip))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Query != "" {
		q.Set("query", opts.Query)
	}
	if opts.UnassignedOnly {
		q.Set("unassigned_only", "true")
	}

	path := "/api/pickings/"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result PickingPage
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
