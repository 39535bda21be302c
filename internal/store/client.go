package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client talks to the shared store over its REST contract:
// GET path -> value|null, PUT path -> full replace, PATCH path -> partial
// merge, POST path -> log append returning the generated key.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a store client for baseURL (e.g. "http://host:8080").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: RequestTimeout},
	}
}

// NewClientWithHTTP creates a client with a caller-supplied http.Client
// (testing, custom transports).
func NewClientWithHTTP(baseURL string, httpc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpc: httpc}
}

func (c *Client) url(path string) string {
	return c.baseURL + "/v1/store/" + strings.TrimLeft(path, "/")
}

// Get fetches the value at path. A missing or explicitly null node yields
// (nil, nil).
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if isNull(body) {
		return nil, nil
	}
	return body, nil
}

// GetInto fetches the value at path and unmarshals it into dst. Returns
// (false, nil) without touching dst when the node is null/absent.
func (c *Client) GetInto(ctx context.Context, path string, dst interface{}) (bool, error) {
	raw, err := c.Get(ctx, path)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf(ErrFmtRequestFailed, http.MethodGet, path, err)
	}
	return true, nil
}

// Put fully replaces the value at path.
func (c *Client) Put(ctx context.Context, path string, value interface{}) error {
	_, err := c.do(ctx, http.MethodPut, path, value)
	return err
}

// Patch merges fields into the value at path.
func (c *Client) Patch(ctx context.Context, path string, fields interface{}) error {
	_, err := c.do(ctx, http.MethodPatch, path, fields)
	return err
}

// Post appends value to the log node at path and returns the generated key.
// Keys are server-assigned and sort lexicographically in append order.
func (c *Client) Post(ctx context.Context, path string, value interface{}) (string, error) {
	body, err := c.do(ctx, http.MethodPost, path, value)
	if err != nil {
		return "", err
	}
	var result PostResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf(ErrFmtRequestFailed, http.MethodPost, path, err)
	}
	return result.Name, nil
}

func (c *Client) do(ctx context.Context, method, path string, value interface{}) (json.RawMessage, error) {
	var reqBody io.Reader
	if value != nil {
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf(ErrFmtRequestFailed, method, path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reqBody)
	if err != nil {
		return nil, fmt.Errorf(ErrFmtRequestFailed, method, path, err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf(ErrFmtRequestFailed, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(ErrFmtStatusCode, method, path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf(ErrFmtRequestFailed, method, path, err)
	}
	return body, nil
}

func isNull(body []byte) bool {
	return len(bytes.TrimSpace(body)) == 0 || bytes.Equal(bytes.TrimSpace(body), []byte("null"))
}
