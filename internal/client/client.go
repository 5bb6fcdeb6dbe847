// Package client is a typed HTTP client for the medtracker API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/okian/medtracker/internal/domain/model"
)

// Client talks to a running medtracker server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Place is one facility extracted from an Overpass result.
type Place struct {
	Type    string  `json:"type"`
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Amenity string  `json:"amenity"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// NearbyResult is the relayed Overpass body plus the facilities parsed from it.
type NearbyResult struct {
	Raw    json.RawMessage
	Places []Place
}

// New creates a Client with defaults applied.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server root requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// Predict scores symptoms on the server.
func (c *Client) Predict(ctx context.Context, symptoms []string) (model.Prediction, error) {
	var out model.Prediction
	err := c.do(ctx, http.MethodPost, "/api/predict", map[string][]string{"symptoms": symptoms}, &out)
	return out, err
}

// Conditions lists the server's knowledge base.
func (c *Client) Conditions(ctx context.Context) ([]model.Condition, error) {
	var out struct {
		Conditions []model.Condition `json:"conditions"`
	}
	err := c.do(ctx, http.MethodGet, "/api/conditions", nil, &out)
	return out.Conditions, err
}

// History fetches recent entries, newest first. limit <= 0 uses the server default.
func (c *Client) History(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	path := "/api/history"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	var out struct {
		History []model.HistoryEntry `json:"history"`
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.History, err
}

// AppendHistory records one entry.
func (c *Client) AppendHistory(ctx context.Context, entry model.HistoryEntry) error {
	return c.do(ctx, http.MethodPost, "/api/history", entry, nil)
}

// Nearby searches for care facilities around a point. radiusMeters <= 0 uses
// the server default.
func (c *Client) Nearby(ctx context.Context, lat, lon float64, radiusMeters int) (NearbyResult, error) {
	req := map[string]any{"lat": lat, "lon": lon}
	if radiusMeters > 0 {
		req["radiusMeters"] = radiusMeters
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/nearby", req, &raw); err != nil {
		return NearbyResult{}, err
	}
	places, err := parsePlaces(raw)
	if err != nil {
		return NearbyResult{}, err
	}
	return NearbyResult{Raw: raw, Places: places}, nil
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center"`
	Tags map[string]string `json:"tags"`
}

func parsePlaces(raw []byte) ([]Place, error) {
	var body struct {
		Elements []overpassElement `json:"elements"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: decode overpass result: %w", ErrResponse, err)
	}

	places := make([]Place, 0, len(body.Elements))
	for _, el := range body.Elements {
		p := Place{Type: el.Type, ID: el.ID, Lat: el.Lat, Lon: el.Lon}
		// Ways and relations carry their position in center.
		if el.Center != nil {
			p.Lat, p.Lon = el.Center.Lat, el.Center.Lon
		}
		p.Name = el.Tags["name"]
		p.Amenity = el.Tags["amenity"]
		places = append(places, p)
	}
	return places, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: marshal request body: %w", ErrRequest, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: create request: %w", ErrRequest, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrRequest, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrResponse, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Detail  string `json:"detail"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Code != "" {
			apiErr.Code, apiErr.Message, apiErr.Detail = payload.Code, payload.Message, payload.Detail
		} else {
			apiErr.Code = http.StatusText(resp.StatusCode)
			apiErr.Message = string(bytes.TrimSpace(raw))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if rm, ok := out.(*json.RawMessage); ok {
		*rm = append((*rm)[:0], raw...)
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrResponse, path, err)
	}
	return nil
}
