package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/medtracker/internal/client"
	"github.com/okian/medtracker/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

type recorded struct {
	method string
	path   string
	query  string
	body   string
}

func newServer(status int, reply string, got *recorded) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		*got = recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, body: string(raw)}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
}

func TestClient(t *testing.T) {
	convey.Convey("Given a client pointed at a stub server", t, func() {
		ctx := context.Background()
		var got recorded

		convey.Convey("When predicting", func() {
			ts := newServer(http.StatusOK, `{"input":["fever"],"scored":[{"id":"influenza","name":"Influenza","score":0.17,"matchCount":1}]}`, &got)
			defer ts.Close()

			p, err := client.New(client.WithBaseURL(ts.URL+"/")).Predict(ctx, []string{"Fever"})

			convey.Convey("Then it posts the symptoms and decodes the prediction", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.method, convey.ShouldEqual, http.MethodPost)
				convey.So(got.path, convey.ShouldEqual, "/api/predict")
				convey.So(got.body, convey.ShouldEqual, `{"symptoms":["Fever"]}`)
				convey.So(p.Input, convey.ShouldResemble, []string{"fever"})
				convey.So(p.Scored[0].ID, convey.ShouldEqual, "influenza")
				convey.So(p.Scored[0].MatchCount, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When listing conditions", func() {
			ts := newServer(http.StatusOK, `{"conditions":[{"id":"asthma","name":"Asthma"}]}`, &got)
			defer ts.Close()

			conds, err := client.New(client.WithBaseURL(ts.URL)).Conditions(ctx)

			convey.Convey("Then it decodes the list", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.method, convey.ShouldEqual, http.MethodGet)
				convey.So(conds, convey.ShouldHaveLength, 1)
				convey.So(conds[0].Name, convey.ShouldEqual, "Asthma")
			})
		})

		convey.Convey("When fetching history with a limit", func() {
			ts := newServer(http.StatusOK, `{"history":[{"query":"fever","when":"2024-03-09 08:35:07","top":"Influenza"}]}`, &got)
			defer ts.Close()

			hist, err := client.New(client.WithBaseURL(ts.URL)).History(ctx, 10)

			convey.Convey("Then it sends the limit and decodes entries", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.query, convey.ShouldEqual, "limit=10")
				convey.So(hist, convey.ShouldResemble, []model.HistoryEntry{{Query: "fever", When: "2024-03-09 08:35:07", Top: "Influenza"}})
			})
		})

		convey.Convey("When fetching history without a limit", func() {
			ts := newServer(http.StatusOK, `{"history":[]}`, &got)
			defer ts.Close()

			hist, err := client.New(client.WithBaseURL(ts.URL)).History(ctx, 0)

			convey.Convey("Then no query string is sent", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.query, convey.ShouldBeEmpty)
				convey.So(hist, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When appending history", func() {
			ts := newServer(http.StatusOK, `{"ok":true}`, &got)
			defer ts.Close()

			err := client.New(client.WithBaseURL(ts.URL)).AppendHistory(ctx, model.HistoryEntry{Query: "cough", Top: "Asthma"})

			convey.Convey("Then it posts the entry", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.path, convey.ShouldEqual, "/api/history")
				convey.So(got.body, convey.ShouldEqual, `{"query":"cough","when":"","top":"Asthma"}`)
			})
		})

		convey.Convey("When searching nearby", func() {
			reply := `{"elements":[
				{"type":"node","id":1,"lat":51.5,"lon":-0.1,"tags":{"name":"City Pharmacy","amenity":"pharmacy"}},
				{"type":"way","id":2,"center":{"lat":51.6,"lon":-0.2},"tags":{"amenity":"hospital"}}
			]}`
			ts := newServer(http.StatusOK, reply, &got)
			defer ts.Close()

			res, err := client.New(client.WithBaseURL(ts.URL)).Nearby(ctx, 51.5, -0.1, 1000)

			convey.Convey("Then it posts coordinates and parses places", func() {
				convey.So(err, convey.ShouldBeNil)
				var sent map[string]float64
				convey.So(json.Unmarshal([]byte(got.body), &sent), convey.ShouldBeNil)
				convey.So(sent, convey.ShouldResemble, map[string]float64{"lat": 51.5, "lon": -0.1, "radiusMeters": 1000})
				convey.So(res.Places, convey.ShouldHaveLength, 2)
				convey.So(res.Places[0].Name, convey.ShouldEqual, "City Pharmacy")
				convey.So(res.Places[1].Lat, convey.ShouldEqual, 51.6)
				convey.So(res.Places[1].Amenity, convey.ShouldEqual, "hospital")
				convey.So(string(res.Raw), convey.ShouldEqual, reply)
			})
		})

		convey.Convey("When the server returns an API error", func() {
			ts := newServer(http.StatusBadGateway, `{"code":"upstream_error","message":"Overpass API failed","detail":"timeout"}`, &got)
			defer ts.Close()

			_, err := client.New(client.WithBaseURL(ts.URL)).Nearby(ctx, 0, 0, 0)

			convey.Convey("Then an APIError carries the decoded fields", func() {
				var apiErr *client.APIError
				convey.So(errors.As(err, &apiErr), convey.ShouldBeTrue)
				convey.So(apiErr.Status, convey.ShouldEqual, http.StatusBadGateway)
				convey.So(apiErr.Code, convey.ShouldEqual, "upstream_error")
				convey.So(apiErr.Error(), convey.ShouldContainSubstring, "Overpass API failed (timeout)")
				convey.So(got.body, convey.ShouldEqual, `{"lat":0,"lon":0}`)
			})
		})

		convey.Convey("When the server returns a non-JSON error", func() {
			ts := newServer(http.StatusTooManyRequests, "rate limited\n", &got)
			defer ts.Close()

			_, err := client.New(client.WithBaseURL(ts.URL)).Conditions(ctx)

			convey.Convey("Then the raw body becomes the message", func() {
				var apiErr *client.APIError
				convey.So(errors.As(err, &apiErr), convey.ShouldBeTrue)
				convey.So(apiErr.Code, convey.ShouldEqual, "Too Many Requests")
				convey.So(apiErr.Message, convey.ShouldEqual, "rate limited")
			})
		})

		convey.Convey("When the response is not valid JSON", func() {
			ts := newServer(http.StatusOK, `not json`, &got)
			defer ts.Close()

			_, err := client.New(client.WithBaseURL(ts.URL)).Predict(ctx, []string{"x"})

			convey.Convey("Then ErrResponse is returned", func() {
				convey.So(errors.Is(err, client.ErrResponse), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the server is unreachable", func() {
			c := client.New(client.WithBaseURL("http://127.0.0.1:1"), client.WithTimeout(time.Second))
			_, err := c.Conditions(ctx)

			convey.Convey("Then ErrRequest is returned", func() {
				convey.So(errors.Is(err, client.ErrRequest), convey.ShouldBeTrue)
			})
		})
	})
}

func TestClientDefaults(t *testing.T) {
	convey.Convey("Given a client with no options", t, func() {
		c := client.New(client.WithBaseURL("  "))

		convey.Convey("Then it targets the local default server", func() {
			convey.So(c.BaseURL(), convey.ShouldEqual, client.DefaultBaseURL)
		})
	})
}
