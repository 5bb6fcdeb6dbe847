package overpass

import "errors"

// ErrUpstream is wrapped by every failure to obtain a response from Overpass.
var ErrUpstream = errors.New("overpass request failed")
