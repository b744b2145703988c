package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ocpinode/internal/core"
	"ocpinode/internal/version"
)

// Client makes the node's outbound calls to partner nodes. Every call is
// bounded by the HTTP client timeout; partners with unbounded latency must
// not stall a push batch or a command delivery.
type Client struct {
	HTTP *http.Client
}

func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{HTTP: &http.Client{Timeout: timeout}}
}

// Result is the raw outcome of one outbound request.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (c *Client) do(ctx context.Context, method, url, authHeader string, body []byte) (*Result, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Result{StatusCode: resp.StatusCode, Header: resp.Header}, err
	}
	return &Result{StatusCode: resp.StatusCode, Header: resp.Header, Body: b}, nil
}

// Get issues a bare GET with the given Authorization header.
func (c *Client) Get(ctx context.Context, url, authHeader string) (*Result, error) {
	return c.do(ctx, http.MethodGet, url, authHeader, nil)
}

// SendJSON marshals v and sends it with the given method.
func (c *Client) SendJSON(ctx context.Context, method, url, authHeader string, v any) (*Result, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, method, url, authHeader, body)
}

// Discovery is the decoded response of a partner's versions URL. Conformant
// nodes answer with a versions list; some answer with a bare VersionDetail.
// Exactly one of the two fields is set.
type Discovery struct {
	Versions []version.Version
	Detail   *version.VersionDetail
}

// DecodeDiscovery sniffs which of the two shapes the envelope data carries.
func DecodeDiscovery(data json.RawMessage) (*Discovery, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty discovery response")
	}
	if trimmed[0] == '[' {
		var versions []version.Version
		if err := json.Unmarshal(data, &versions); err != nil {
			return nil, err
		}
		return &Discovery{Versions: versions}, nil
	}
	var detail version.VersionDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, err
	}
	return &Discovery{Detail: &detail}, nil
}

func unwrap(body []byte) (json.RawMessage, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// Endpoints fetches a partner's endpoint list for one version, tolerating
// both discovery response shapes. endpointsURL is the partner's versions URL
// (or, for non-conformant nodes, directly its details URL).
func (c *Client) Endpoints(ctx context.Context, endpointsURL, authHeader string, v core.VersionNumber) ([]version.Endpoint, error) {
	res, err := c.Get(ctx, endpointsURL, authHeader)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("discovery %s: status %d", endpointsURL, res.StatusCode)
	}
	data, err := unwrap(res.Body)
	if err != nil {
		return nil, err
	}
	disc, err := DecodeDiscovery(data)
	if err != nil {
		return nil, err
	}
	if disc.Detail != nil {
		return disc.Detail.Endpoints, nil
	}

	var detailsURL string
	for _, entry := range disc.Versions {
		if entry.Version == v {
			detailsURL = entry.URL
			break
		}
	}
	if detailsURL == "" {
		return nil, fmt.Errorf("version %s not offered by %s", v, endpointsURL)
	}

	res, err = c.Get(ctx, detailsURL, authHeader)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("version details %s: status %d", detailsURL, res.StatusCode)
	}
	data, err = unwrap(res.Body)
	if err != nil {
		return nil, err
	}
	var detail version.VersionDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, err
	}
	return detail.Endpoints, nil
}
