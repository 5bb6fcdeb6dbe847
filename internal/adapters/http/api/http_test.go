package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/medtracker/internal/adapters/http/api"
	"github.com/okian/medtracker/internal/adapters/overpass"
	repository "github.com/okian/medtracker/internal/adapters/repository"
	"github.com/okian/medtracker/internal/domain/model"
	"github.com/okian/medtracker/internal/domain/scoring"
	"github.com/okian/medtracker/pkg/logger"
	"github.com/okian/medtracker/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
}

// Mock implementations for testing
type mockDependencies struct {
	scorer *scoring.Scorer

	history    []model.HistoryEntry
	historyErr error
	lastLimit  int

	nearbyResp overpass.Response
	nearbyErr  error
	lastLat    float64
	lastLon    float64
	lastRadius int
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{
		scorer: scoring.NewScorer([]model.Condition{
			{ID: "influenza", Name: "Influenza (Flu)", Symptoms: []string{"fever", "body ache", "chills", "headache", "cough", "fatigue"}},
			{ID: "asthma", Name: "Asthma", Symptoms: []string{"wheezing", "shortness of breath", "chest tightness", "cough"}},
		}),
		nearbyResp: overpass.Response{StatusCode: http.StatusOK, Body: []byte(`{"elements":[]}`)},
	}
}

func (m *mockDependencies) Predict(_ context.Context, items []any) model.Prediction {
	return m.scorer.Predict(items)
}

func (m *mockDependencies) Conditions(_ context.Context) []model.Condition {
	return []model.Condition{{ID: "influenza", Name: "Influenza (Flu)"}}
}

func (m *mockDependencies) AppendHistory(_ context.Context, e model.HistoryEntry) error {
	if m.historyErr != nil {
		return m.historyErr
	}
	m.history = append(m.history, e)
	return nil
}

func (m *mockDependencies) RecentHistory(_ context.Context, limit int) ([]model.HistoryEntry, error) {
	m.lastLimit = limit
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	out := make([]model.HistoryEntry, 0, len(m.history))
	for i := len(m.history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.history[i])
	}
	return out, nil
}

func (m *mockDependencies) Nearby(_ context.Context, lat, lon float64, radius int) (overpass.Response, error) {
	m.lastLat, m.lastLon, m.lastRadius = lat, lon, radius
	return m.nearbyResp, m.nearbyErr
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDependencies) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}})
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(newMockDependencies())

		Convey("Then health serves Prometheus metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then stats serves JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then unknown API paths return a JSON 404", func() {
			w := do(mux, http.MethodGet, "/api/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w)["code"], ShouldEqual, "not_found")
		})

		Convey("Then a wrong method returns 405 with Allow", func() {
			w := do(mux, http.MethodGet, "/api/predict", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, "POST")
			So(decodeError(w)["code"], ShouldEqual, "method_not_allowed")

			w = do(mux, http.MethodDelete, "/api/history", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, "GET, POST")
		})

		Convey("Then registering on a nil mux panics", func() {
			server := api.NewServer(newMockDependencies(), &mockStatsProvider{})
			So(func() { server.Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}

func TestPredictHandler(t *testing.T) {
	Convey("Given the predict endpoint", t, func() {
		mux := newMux(newMockDependencies())

		Convey("When posting fever and cough with noise", func() {
			w := do(mux, http.MethodPost, "/api/predict", `{"symptoms":["Fever!","Cough","",123]}`)

			Convey("Then normalized input and ranked conditions are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")

				var p model.Prediction
				So(json.Unmarshal(w.Body.Bytes(), &p), ShouldBeNil)
				So(p.Input, ShouldResemble, []string{"fever", "cough"})
				So(p.Scored[0].ID, ShouldEqual, "influenza")
				So(p.Scored[0].Score, ShouldEqual, 0.33)
				So(p.Scored[0].MatchCount, ShouldEqual, 2)
			})
		})

		Convey("When every symptom is dropped by normalization", func() {
			w := do(mux, http.MethodPost, "/api/predict", `{"symptoms":[123, "!!"]}`)

			Convey("Then it still succeeds with zero scores", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"input":[]`)
			})
		})

		badBodies := []struct{ name, body string }{
			{"an empty list", `{"symptoms":[]}`},
			{"a missing field", `{}`},
			{"a null field", `{"symptoms":null}`},
			{"a string", `{"symptoms":"fever"}`},
			{"an object", `{"symptoms":{"a":1}}`},
			{"invalid JSON", `{"symptoms":[`},
			{"a non-object body", `["fever"]`},
			{"trailing JSON value", `{"symptoms":["fever"]} {}`},
		}
		for _, tc := range badBodies {
			Convey("When posting "+tc.name, func() {
				w := do(mux, http.MethodPost, "/api/predict", tc.body)

				Convey("Then a bad request is returned", func() {
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(decodeError(w)["code"], ShouldEqual, "bad_request")
				})
			})
		}

		Convey("When posting more symptoms than allowed", func() {
			items := make([]string, 101)
			for i := range items {
				items[i] = fmt.Sprintf("%q", "s")
			}
			w := do(mux, http.MethodPost, "/api/predict", `{"symptoms":[`+strings.Join(items, ",")+`]}`)

			Convey("Then a bad request is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["message"], ShouldContainSubstring, "too many symptoms")
			})
		})
	})
}

func TestHistoryHandler(t *testing.T) {
	Convey("Given the history endpoint", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps)

		Convey("When posting a valid entry", func() {
			w := do(mux, http.MethodPost, "/api/history", `{"query":"fever, cough","top":"Influenza (Flu)"}`)

			Convey("Then ok is returned and the entry is stored", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"ok":true}`)
				So(deps.history, ShouldResemble, []model.HistoryEntry{{Query: "fever, cough", Top: "Influenza (Flu)"}})
			})

			Convey("And listing returns it", func() {
				w := do(mux, http.MethodGet, "/api/history", "")
				So(w.Code, ShouldEqual, http.StatusOK)

				var body struct {
					History []model.HistoryEntry `json:"history"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(len(body.History), ShouldEqual, 1)
				So(body.History[0].Query, ShouldEqual, "fever, cough")
				So(deps.lastLimit, ShouldEqual, 50)
			})
		})

		Convey("When the history is empty", func() {
			w := do(mux, http.MethodGet, "/api/history", "")

			Convey("Then an empty list is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"history":[]}`)
			})
		})

		Convey("When the limit exceeds the cap", func() {
			_ = do(mux, http.MethodGet, "/api/history?limit=500", "")

			Convey("Then it is clamped", func() {
				So(deps.lastLimit, ShouldEqual, 50)
			})
		})

		Convey("When a smaller limit is requested", func() {
			_ = do(mux, http.MethodGet, "/api/history?limit=7", "")

			Convey("Then it is honoured", func() {
				So(deps.lastLimit, ShouldEqual, 7)
			})
		})

		for _, bad := range []string{"0", "-3", "abc"} {
			Convey("When the limit is "+bad, func() {
				w := do(mux, http.MethodGet, "/api/history?limit="+bad, "")

				Convey("Then a bad request is returned", func() {
					So(w.Code, ShouldEqual, http.StatusBadRequest)
				})
			})
		}

		badBodies := []struct{ name, body string }{
			{"no query", `{"top":"x"}`},
			{"a blank query", `{"query":"   "}`},
			{"a long query", `{"query":"` + strings.Repeat("a", 513) + `"}`},
			{"a long when", `{"query":"fever","when":"` + strings.Repeat("9", 65) + `"}`},
			{"a long top", `{"query":"fever","top":"` + strings.Repeat("x", 256) + `"}`},
			{"invalid JSON", `{"query":`},
			{"a numeric query", `{"query":42}`},
		}
		for _, tc := range badBodies {
			Convey("When posting "+tc.name, func() {
				w := do(mux, http.MethodPost, "/api/history", tc.body)

				Convey("Then a bad request is returned and nothing is stored", func() {
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(deps.history, ShouldBeEmpty)
				})
			})
		}

		Convey("When when and top fill their columns with multi-byte characters", func() {
			when := strings.Repeat("é", 64)
			top := strings.Repeat("ü", 255)
			w := do(mux, http.MethodPost, "/api/history", `{"query":"fever","when":"`+when+`","top":"`+top+`"}`)

			Convey("Then the entry is accepted since length counts characters", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.history, ShouldHaveLength, 1)
				So(deps.history[0].When, ShouldEqual, when)
			})
		})

		Convey("When top is one character too long", func() {
			w := do(mux, http.MethodPost, "/api/history", `{"query":"fever","top":"`+strings.Repeat("x", 256)+`"}`)

			Convey("Then the error names the limit", func() {
				So(w.Body.String(), ShouldContainSubstring, "top longer than 255 characters")
			})
		})

		Convey("When the store fails", func() {
			deps.historyErr = fmt.Errorf("%w: connection refused", repository.ErrStore)

			Convey("Then listing returns a store error", func() {
				w := do(mux, http.MethodGet, "/api/history", "")
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				body := decodeError(w)
				So(body["code"], ShouldEqual, "store_error")
				So(body["message"], ShouldContainSubstring, "connection refused")
			})

			Convey("Then appending returns a store error", func() {
				w := do(mux, http.MethodPost, "/api/history", `{"query":"q"}`)
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(w)["code"], ShouldEqual, "store_error")
			})
		})
	})
}

func TestNearbyHandler(t *testing.T) {
	Convey("Given the nearby endpoint", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps)

		Convey("When posting a location without radius", func() {
			w := do(mux, http.MethodPost, "/api/nearby", `{"lat":12.97,"lon":77.59}`)

			Convey("Then the default radius is used and the body relayed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json")
				So(w.Body.String(), ShouldEqual, `{"elements":[]}`)
				So(deps.lastRadius, ShouldEqual, 5000)
				So(deps.lastLat, ShouldEqual, 12.97)
				So(deps.lastLon, ShouldEqual, 77.59)
			})
		})

		Convey("When posting the equator and prime meridian", func() {
			w := do(mux, http.MethodPost, "/api/nearby", `{"lat":0,"lon":0,"radiusMeters":1500.9}`)

			Convey("Then zero coordinates are accepted and radius truncated", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastRadius, ShouldEqual, 1500)
			})
		})

		Convey("When the upstream answers with an error status", func() {
			deps.nearbyResp = overpass.Response{StatusCode: http.StatusGatewayTimeout, Body: []byte("timeout")}
			w := do(mux, http.MethodPost, "/api/nearby", `{"lat":1,"lon":2}`)

			Convey("Then the status and body are relayed unchanged", func() {
				So(w.Code, ShouldEqual, http.StatusGatewayTimeout)
				So(w.Body.String(), ShouldEqual, "timeout")
			})
		})

		Convey("When Overpass throttles the search", func() {
			metrics.Configure()
			deps.nearbyResp = overpass.Response{StatusCode: http.StatusTooManyRequests, Body: []byte("rate limited")}
			w := do(mux, http.MethodPost, "/api/nearby", `{"lat":1,"lon":2}`)

			Convey("Then the 429 is relayed and counted as a rate_limit error", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(rateLimitErrors(), ShouldEqual, 1)
			})
		})

		Convey("When the upstream is unreachable", func() {
			deps.nearbyErr = fmt.Errorf("%w: dial tcp: connection refused", overpass.ErrUpstream)
			w := do(mux, http.MethodPost, "/api/nearby", `{"lat":1,"lon":2}`)

			Convey("Then a 502 with detail is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				body := decodeError(w)
				So(body["code"], ShouldEqual, "upstream_error")
				So(body["message"], ShouldEqual, "Overpass API failed")
				So(body["detail"], ShouldContainSubstring, "connection refused")
			})
		})

		badBodies := []struct{ name, body string }{
			{"no coordinates", `{}`},
			{"no lon", `{"lat":1}`},
			{"lat out of range", `{"lat":91,"lon":0}`},
			{"lon out of range", `{"lat":0,"lon":-181}`},
			{"zero radius", `{"lat":0,"lon":0,"radiusMeters":0}`},
			{"a huge radius", `{"lat":0,"lon":0,"radiusMeters":50001}`},
			{"string lat", `{"lat":"12.9","lon":0}`},
			{"malformed JSON", `{"lat":`},
		}
		for _, tc := range badBodies {
			Convey("When posting "+tc.name, func() {
				w := do(mux, http.MethodPost, "/api/nearby", tc.body)

				Convey("Then a bad request is returned without calling upstream", func() {
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(deps.lastRadius, ShouldEqual, 0)
				})
			})
		}
	})
}

func rateLimitErrors() float64 {
	families, err := metrics.GetRegistry().Gather()
	So(err, ShouldBeNil)
	for _, f := range families {
		if f.GetName() != "medtracker_api_errors_by_type_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "error_type" && l.GetValue() == "rate_limit" {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestConditionsHandler(t *testing.T) {
	Convey("Given the conditions endpoint", t, func() {
		mux := newMux(newMockDependencies())

		Convey("Then it lists the knowledge base", func() {
			w := do(mux, http.MethodGet, "/api/conditions", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"id":"influenza"`)
		})
	})
}

func TestServer_Handler(t *testing.T) {
	Convey("Given the fully wrapped handler", t, func() {
		server := api.NewServer(newMockDependencies(), &mockStatsProvider{})
		mux := http.NewServeMux()
		server.Register(context.Background(), mux)
		h := server.Handler(mux, []string{"https://medtracker.example"})

		Convey("When no request id is sent", func() {
			w := do(h, http.MethodGet, "/api/conditions", "")

			Convey("Then one is generated", func() {
				So(len(w.Header().Get(api.RequestIDHeader)), ShouldEqual, 36)
			})
		})

		Convey("When a request id is sent", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/conditions", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it is echoed", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
			})
		})

		Convey("When an allowed origin sends a preflight", func() {
			req := httptest.NewRequest(http.MethodOptions, "/api/predict", http.NoBody)
			req.Header.Set("Origin", "https://medtracker.example")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then CORS headers allow it", func() {
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://medtracker.example")
			})
		})

		Convey("When another origin calls", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/conditions", http.NoBody)
			req.Header.Set("Origin", "https://evil.example")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then no CORS grant is made", func() {
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
			})
		})
	})
}

func TestError(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("boom")
		err := api.WrapKind("api.test", api.ErrStore, cause)

		Convey("Then both kind and cause are matched", func() {
			So(errors.Is(err, api.ErrStore), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "boom")

			var apiErr *api.Error
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.Op, ShouldEqual, "api.test")
		})

		Convey("Then a kind-only error prints the kind", func() {
			So(api.NewKind("api.test", api.ErrNotFound).Error(), ShouldEqual, "not found")
		})

		Convey("Then Wrap of nil is nil", func() {
			So(api.Wrap("api.test", nil), ShouldBeNil)
		})
	})
}
