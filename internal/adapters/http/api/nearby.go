package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/okian/medtracker/internal/adapters/overpass"
)

// NearbyDependencies defines the interface for nearby facility searches.
type NearbyDependencies interface {
	Nearby(ctx context.Context, lat, lon float64, radiusMeters int) (overpass.Response, error)
}

// NearbyHandler handles nearby search requests.
type NearbyHandler struct {
	deps          NearbyDependencies
	defaultRadius int
	maxRadius     int
}

// NewNearbyHandler creates a new nearby handler.
func NewNearbyHandler(deps NearbyDependencies, defaultRadius, maxRadius int) *NearbyHandler {
	return &NearbyHandler{deps: deps, defaultRadius: defaultRadius, maxRadius: maxRadius}
}

// nearbyRequest mirrors the OpenAPI schema for POST /api/nearby.
// Pointers distinguish a missing coordinate from zero.
type nearbyRequest struct {
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	RadiusMeters *float64 `json:"radiusMeters"`
}

// upstreamFailureMessage is the message of every 502 from this handler.
const upstreamFailureMessage = "Overpass API failed"

func (n nearbyRequest) validate(defaultRadius, maxRadius int) (lat, lon float64, radius int, err error) {
	switch {
	case n.Lat == nil || n.Lon == nil:
		return 0, 0, 0, errors.New("provide lat, lon")
	case math.IsNaN(*n.Lat) || *n.Lat < -90 || *n.Lat > 90:
		return 0, 0, 0, errors.New("lat must be between -90 and 90")
	case math.IsNaN(*n.Lon) || *n.Lon < -180 || *n.Lon > 180:
		return 0, 0, 0, errors.New("lon must be between -180 and 180")
	}

	radius = defaultRadius
	if n.RadiusMeters != nil {
		if math.IsNaN(*n.RadiusMeters) || *n.RadiusMeters < 1 || *n.RadiusMeters > float64(maxRadius) {
			return 0, 0, 0, fmt.Errorf("radiusMeters must be between 1 and %d", maxRadius)
		}
		radius = int(*n.RadiusMeters)
	}
	return *n.Lat, *n.Lon, radius, nil
}

// HandleNearby handles POST /api/nearby requests. The upstream body and
// status are relayed unchanged.
func (h *NearbyHandler) HandleNearby(w http.ResponseWriter, r *http.Request) {
	const op = "api.nearby"
	if !allowMethods(w, r, op, http.MethodPost) {
		return
	}

	var req nearbyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	lat, lon, radius, err := req.validate(h.defaultRadius, h.maxRadius)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	resp, err := h.deps.Nearby(r.Context(), lat, lon, radius)
	if err != nil {
		writeErrorDetail(w, WrapKind(op, ErrUpstream, err), upstreamFailureMessage)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}
