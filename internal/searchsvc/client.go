package searchsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultAPIVersion = "2024-07-01"

// StatusError is a non-2xx response from the service. Code and Body are
// kept verbatim so callers can report them as-is.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search service status %d: %s", e.Code, strings.TrimSpace(e.Body))
}

type Client struct {
	endpoint   string
	apiKey     string
	apiVersion string
	client     *http.Client
}

type ClientConfig struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	Timeout    time.Duration
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("search endpoint is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("search api key is required")
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		apiVersion: apiVersion,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// IndexStats fetches document count and storage sizes for one index.
func (c *Client) IndexStats(ctx context.Context, index string) (IndexStats, error) {
	var stats IndexStats
	data, err := c.doRequest(ctx, http.MethodGet, "/indexes/"+url.PathEscape(index)+"/stats", nil)
	if err != nil {
		return IndexStats{}, err
	}
	if err := json.Unmarshal(data, &stats); err != nil {
		return IndexStats{}, fmt.Errorf("decode stats response: %w", err)
	}
	return stats, nil
}

// Search runs a full-text or vector query against one index.
func (c *Client) Search(ctx context.Context, index string, req SearchRequest) (SearchPage, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/indexes/"+url.PathEscape(index)+"/docs/search", req)
	if err != nil {
		return SearchPage{}, err
	}
	var page SearchPage
	if err := json.Unmarshal(data, &page); err != nil {
		return SearchPage{}, fmt.Errorf("decode search response: %w", err)
	}
	return page, nil
}

// IndexerStatus fetches the run status and execution history of one indexer.
func (c *Client) IndexerStatus(ctx context.Context, name string) (IndexerStatus, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/indexers/"+url.PathEscape(name)+"/status", nil)
	if err != nil {
		return IndexerStatus{}, err
	}
	var status IndexerStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return IndexerStatus{}, fmt.Errorf("decode indexer status response: %w", err)
	}
	return status, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		buf = bytes.NewBuffer(data)
	}
	reqURL := c.endpoint + path + "?api-version=" + url.QueryEscape(c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, method, reqURL, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
