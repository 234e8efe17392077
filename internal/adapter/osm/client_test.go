package osm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
)

const testUserAgent = "propintel-test/1.0"

func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

type osmStub struct {
	nominatim http.HandlerFunc
	overpass  http.HandlerFunc
}

func testClient(t *testing.T, stub osmStub) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", stub.nominatim)
	mux.HandleFunc("POST /interpreter", stub.overpass)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &Client{
		httpClient:   &http.Client{},
		nominatimURL: srv.URL,
		overpassURL:  srv.URL + "/interpreter",
		userAgent:    testUserAgent,
		limiter:      newTestLimiter(),
		timeout:      5 * time.Second,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func nominatimOK(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"lat": "38.8487", "lon": "-77.5636", "display_name": "Dunigan Court, Catharpin"}]`)
	}
}

func overpassWith(t *testing.T, tags ...map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.PostForm.Get("data"), "around:1000,38.848700,-77.563600")

		resp := overpassResponse{}
		for i, tg := range tags {
			resp.Elements = append(resp.Elements, overpassElement{Type: "node", ID: int64(i), Tags: tg})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}
}

func repeat(n int, tags map[string]string) []map[string]string {
	out := make([]map[string]string, n)
	for i := range out {
		out[i] = tags
	}
	return out
}

func TestClient_Fetch_Success(t *testing.T) {
	var tags []map[string]string
	tags = append(tags, repeat(6, map[string]string{"amenity": "restaurant"})...)
	tags = append(tags, repeat(2, map[string]string{"amenity": "school"})...)
	tags = append(tags, map[string]string{"amenity": "pharmacy"})
	tags = append(tags, map[string]string{"shop": "supermarket"}, map[string]string{"amenity": "bank"})
	tags = append(tags, map[string]string{"public_transport": "platform"})
	tags = append(tags, map[string]string{"leisure": "park"})
	tags = append(tags, map[string]string{"amenity": "library"})

	c := testClient(t, osmStub{nominatim: nominatimOK(t), overpass: overpassWith(t, tags...)})

	res := c.Fetch(context.Background(), domain.Request{Address: "3650 Dunigan Ct, Catharpin, VA 20143"})
	require.Equal(t, domain.StatusSuccess, res.Status, res.Reason)
	assert.Equal(t, Source, res.Source)

	am := res.Payload.(domain.Amenities)
	require.NotNil(t, am.Counts)
	assert.Equal(t, domain.AmenityCounts{Restaurants: 6, Schools: 2, Healthcare: 1, Services: 2, Transit: 1, Recreation: 1}, *am.Counts)
	assert.Equal(t, domain.Coordinates{Lat: 38.8487, Lon: -77.5636}, am.Coordinates)

	// walkability: 18 + 4 + 10 + 5 + 3 + 2 = 42
	assert.Equal(t, 4.2, am.Walkability)
	assert.Equal(t, 6.0, am.Transit)
	// lifestyle: min(9*2, 60) + min(2*5, 40) = 28
	assert.Equal(t, 2.8, am.Lifestyle)
	// overall: (42 + 60 + 28) / 3 = 43.3
	assert.Equal(t, 4.3, am.Overall)
	assert.Contains(t, am.Highlights, "Good dining options with 6 restaurants")
}

func TestClient_Fetch_NominatimNotFound(t *testing.T) {
	overpassCalled := false
	c := testClient(t, osmStub{
		nominatim: func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `[]`)
		},
		overpass: func(http.ResponseWriter, *http.Request) { overpassCalled = true },
	})

	res := c.Fetch(context.Background(), domain.Request{Address: "nowhere"})
	assert.Equal(t, domain.StatusUnavailable, res.Status)
	assert.Equal(t, reasonNotFound, res.Reason)
	assert.False(t, overpassCalled)
}

type nearbyStub struct {
	amenities domain.Amenities
	err       error
	got       domain.Coordinates
	calls     int
}

func (n *nearbyStub) AreaAmenities(_ context.Context, coords domain.Coordinates) (domain.Amenities, error) {
	n.calls++
	n.got = coords
	return n.amenities, n.err
}

func (n *nearbyStub) AmenitySource() string { return "Google Places API (nearby search)" }

func notFound(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, `[]`) }

func TestClient_Fetch_NotFoundUsesNearbySearch(t *testing.T) {
	geocoded := domain.Coordinates{Lat: 38.8487, Lon: -77.5636}
	nearby := &nearbyStub{amenities: domain.Amenities{Coordinates: geocoded, Overall: 6, Density: "Moderate"}}
	c := testClient(t, osmStub{nominatim: notFound, overpass: overpassWith(t)}).WithFallback(nearby)

	res := c.Fetch(context.Background(), domain.Request{Address: "12 New Build Ln, Catharpin, VA", Coordinates: geocoded})

	assert.Equal(t, domain.StatusDegraded, res.Status)
	assert.Equal(t, "Google Places API (nearby search)", res.Source)
	assert.Equal(t, "nominatim: "+reasonNotFound, res.Reason)
	assert.Equal(t, geocoded, nearby.got)
	am, ok := res.Payload.(domain.Amenities)
	require.True(t, ok)
	assert.Equal(t, "Moderate", am.Density)
}

func TestClient_Fetch_NearbySearchNeedsCoordinates(t *testing.T) {
	nearby := &nearbyStub{}
	c := testClient(t, osmStub{nominatim: notFound, overpass: overpassWith(t)}).WithFallback(nearby)

	res := c.Fetch(context.Background(), domain.Request{Address: "nowhere"})

	assert.Equal(t, domain.StatusUnavailable, res.Status)
	assert.Zero(t, nearby.calls)
}

func TestClient_Fetch_NearbySearchFailureKeepsNominatimReason(t *testing.T) {
	nearby := &nearbyStub{err: errors.New("google: places status OVER_QUERY_LIMIT")}
	c := testClient(t, osmStub{nominatim: notFound, overpass: overpassWith(t)}).WithFallback(nearby)

	res := c.Fetch(context.Background(), domain.Request{Address: "nowhere", Coordinates: domain.Coordinates{Lat: 38.8, Lon: -77.5}})

	assert.Equal(t, domain.StatusUnavailable, res.Status)
	assert.Equal(t, reasonNotFound, res.Reason)
	assert.Equal(t, 1, nearby.calls)
}

func TestClient_Fetch_OverpassFailureSkipsNearbySearch(t *testing.T) {
	nearby := &nearbyStub{}
	c := testClient(t, osmStub{
		nominatim: nominatimOK(t),
		overpass:  func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusGatewayTimeout) },
	}).WithFallback(nearby)

	res := c.Fetch(context.Background(), domain.Request{Address: "3650 Dunigan Ct", Coordinates: domain.Coordinates{Lat: 38.8, Lon: -77.5}})

	assert.Equal(t, domain.StatusUnavailable, res.Status)
	assert.Zero(t, nearby.calls)
}

func TestClient_Fetch_OverpassFailure(t *testing.T) {
	c := testClient(t, osmStub{
		nominatim: nominatimOK(t),
		overpass: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, "rate_limited")
		},
	})

	res := c.Fetch(context.Background(), domain.Request{Address: "3650 Dunigan Ct"})
	assert.Equal(t, domain.StatusUnavailable, res.Status)
	assert.Contains(t, res.Reason, "429")
}

func TestClient_Fetch_BadCoordinates(t *testing.T) {
	c := testClient(t, osmStub{
		nominatim: func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `[{"lat": "north", "lon": "-77.5"}]`)
		},
		overpass: overpassWith(t),
	})

	res := c.Fetch(context.Background(), domain.Request{Address: "3650 Dunigan Ct"})
	assert.Equal(t, domain.StatusUnavailable, res.Status)
	assert.Contains(t, res.Reason, "bad coordinates")
}

func TestClient_Fetch_Timeout(t *testing.T) {
	c := testClient(t, osmStub{
		nominatim: nominatimOK(t),
		overpass: func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(500 * time.Millisecond):
			}
			w.WriteHeader(http.StatusOK)
		},
	})
	c.timeout = 50 * time.Millisecond

	res := c.Fetch(context.Background(), domain.Request{Address: "3650 Dunigan Ct"})
	assert.Equal(t, domain.StatusUnavailable, res.Status)
	assert.Equal(t, domain.ReasonTimeout, res.Reason)
}

func TestClient_Identity(t *testing.T) {
	c := NewClient(testUserAgent, time.Second, slog.Default())
	assert.Equal(t, domain.ProviderPointsOfInterest, c.Name())
	assert.Equal(t, domain.Optional, c.Criticality())
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		tags map[string]string
		want domain.AmenityCounts
	}{
		{map[string]string{"amenity": "cafe"}, domain.AmenityCounts{Restaurants: 1}},
		{map[string]string{"amenity": "university"}, domain.AmenityCounts{Schools: 1}},
		{map[string]string{"amenity": "clinic"}, domain.AmenityCounts{Healthcare: 1}},
		{map[string]string{"shop": "department_store"}, domain.AmenityCounts{Services: 1}},
		{map[string]string{"amenity": "atm"}, domain.AmenityCounts{Services: 1}},
		{map[string]string{"public_transport": "stop_position"}, domain.AmenityCounts{Transit: 1}},
		{map[string]string{"amenity": "fuel"}, domain.AmenityCounts{Transit: 1}},
		{map[string]string{"leisure": "playground"}, domain.AmenityCounts{Recreation: 1}},
		{map[string]string{"amenity": "park"}, domain.AmenityCounts{Recreation: 1}},
		{map[string]string{"amenity": "gym"}, domain.AmenityCounts{}},
		{nil, domain.AmenityCounts{}},
	}
	for _, tt := range tests {
		var got domain.AmenityCounts
		categorize(&got, tt.tags)
		assert.Equal(t, tt.want, got, "tags %v", tt.tags)
	}
}
