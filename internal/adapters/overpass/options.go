package overpass

import (
	"net/http"
	"time"
)

// Defaults used when no option overrides them.
const (
	DefaultURL              = "https://overpass-api.de/api/interpreter"
	DefaultTimeout          = 25 * time.Second
	DefaultMaxResponseBytes = 16 << 20
)

// DefaultAmenities are the amenity tags a nearby search matches.
var DefaultAmenities = []string{"clinic", "doctors", "hospital", "pharmacy"}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithURL sets the interpreter endpoint.
func WithURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.url = url
		}
	}
}

// WithTimeout bounds each upstream call, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithAmenities replaces the matched amenity tags.
func WithAmenities(amenities []string) Option {
	return func(c *Client) {
		if len(amenities) > 0 {
			c.amenities = append([]string(nil), amenities...)
		}
	}
}

// WithMaxResponseBytes caps the relayed body size.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithHTTPClient replaces the transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}
