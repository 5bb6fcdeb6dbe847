// Package overpass forwards nearby-facility searches to an Overpass API
// interpreter and hands back its raw response.
package overpass

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Response is the upstream reply, relayed as is.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client queries an Overpass interpreter.
type Client struct {
	url       string
	timeout   time.Duration
	amenities []string
	maxBytes  int64
	http      *http.Client
}

// NewClient creates a client with defaults overridden by opts.
func NewClient(opts ...Option) *Client {
	c := &Client{
		url:       DefaultURL,
		timeout:   DefaultTimeout,
		amenities: append([]string(nil), DefaultAmenities...),
		maxBytes:  DefaultMaxResponseBytes,
		http:      &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the interpreter endpoint.
func (c *Client) URL() string { return c.url }

// QueryNearby posts the nearby query and returns the upstream status and
// body unchanged. Non-2xx statuses are not errors; only transport failures,
// timeouts and body read failures are, and those wrap ErrUpstream.
func (c *Client) QueryNearby(ctx context.Context, lat, lon float64, radiusMeters int) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := BuildQuery(lat, lon, radiusMeters, c.amenities, c.timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(query))
	if err != nil {
		return Response{}, fmt.Errorf("%w: build request: %w", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return Response{}, fmt.Errorf("%w: read body: %w", ErrUpstream, err)
	}
	if int64(len(body)) > c.maxBytes {
		return Response{}, fmt.Errorf("%w: response exceeds %d bytes", ErrUpstream, c.maxBytes)
	}

	return Response{StatusCode: resp.StatusCode, Body: body}, nil
}
