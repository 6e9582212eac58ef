package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"hubert.dev/hubert/arid"
	"hubert.dev/hubert/backend"
	"hubert.dev/hubert/envelope"
	"hubert.dev/hubert/internal/backoff"
)

// Client implements backend.KV against a Server over HTTP. The wire format
// is two fixed routes and a three-line text body, not a general API
// surface, so this talks net/http directly rather than reaching for one of
// the pack's RPC stacks.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient builds a Client against baseURL (e.g. "http://localhost:45678").
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTP: http.DefaultClient}
}

var _ backend.KV = (*Client)(nil)

func (c *Client) Put(ctx context.Context, id arid.ARID, env *envelope.Envelope, opts backend.PutOptions) (backend.Receipt, error) {
	ttlSeconds := int64(opts.TTL / time.Second)
	body, err := putBody(id, env, ttlSeconds)
	if err != nil {
		return backend.Receipt{}, fmt.Errorf("server: encode put body: %w", err)
	}

	putCtx, cancel := context.WithTimeout(ctx, backend.DefaultTimeout)
	defer cancel()

	resp, err := c.do(putCtx, "/put", body)
	if err != nil {
		return backend.Receipt{}, fmt.Errorf("server: %w", combineNetworkErr(err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return backend.Receipt{Backend: "server", Detail: c.BaseURL}, nil
	case http.StatusConflict:
		return backend.Receipt{}, backend.ErrAlreadyExists
	case http.StatusBadRequest:
		return backend.Receipt{}, fmt.Errorf("server: %w: %s", backend.ErrInvalidARID, readErrBody(resp))
	default:
		return backend.Receipt{}, fmt.Errorf("server: %w: unexpected status %d", backend.ErrNetwork, resp.StatusCode)
	}
}

func (c *Client) Get(ctx context.Context, id arid.ARID, opts backend.GetOptions) (*envelope.Envelope, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = backend.DefaultTimeout
	}
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var env *envelope.Envelope
	err := backoff.Poll(pollCtx, 200*time.Millisecond, 3*time.Second, func(ctx context.Context) (bool, error) {
		resp, err := c.do(ctx, "/get", id.String())
		if err != nil {
			return false, nil // dropped request or connection hiccup, retry
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return false, nil // body read failed mid-stream, retry
			}
			got, err := decodeEnvelope(string(b))
			if err != nil {
				return false, fmt.Errorf("%w: %v", backend.ErrDecode, err)
			}
			env = got
			return true, nil
		case http.StatusNotFound:
			return false, nil
		case http.StatusBadRequest:
			return false, fmt.Errorf("%w: %s", backend.ErrInvalidARID, readErrBody(resp))
		default:
			return false, nil // unexpected status, treat as a transient server hiccup and retry
		}
	})
	if err != nil {
		if pollCtx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("server: %w", err)
	}
	return env, nil
}

func (c *Client) Exists(ctx context.Context, id arid.ARID) (bool, error) {
	resp, err := c.do(ctx, "/get", id.String())
	if err != nil {
		return false, fmt.Errorf("server: %w: %v", backend.ErrNetwork, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

// Check performs a GET / health check against the server, without touching
// the write-once store.
func (c *Client) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("server: %w: %v", backend.ErrNetwork, err)
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("server: %w", combineNetworkErr(err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server: %w: unexpected status %d", backend.ErrNetwork, resp.StatusCode)
	}
	return nil
}

var _ backend.Checker = (*Client)(nil)

func (c *Client) do(ctx context.Context, path, body string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader([]byte(body)))
	if err != nil {
		return nil, err
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	return client.Do(req)
}

func readErrBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(bytes.TrimSpace(b))
}

func combineNetworkErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", backend.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", backend.ErrNetwork, err)
}
