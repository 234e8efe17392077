package google

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
)

// placesBody returns a nearby search page with n results.
func placesBody(n int) string {
	results := make([]string, n)
	for i := range results {
		results[i] = fmt.Sprintf(`{"name": "place %d", "place_id": "p%d"}`, i, i)
	}
	status := "OK"
	if n == 0 {
		status = "ZERO_RESULTS"
	}
	return fmt.Sprintf(`{"status": %q, "results": [%s]}`, status, strings.Join(results, ","))
}

func TestClient_AreaAmenities(t *testing.T) {
	perType := map[string]int{"restaurant": 25, "school": 4, "hospital": 3, "shopping_mall": 10}
	var mu sync.Mutex
	radii := map[string]string{}

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "38.8487,-77.5636", q.Get("location"))
		mu.Lock()
		radii[q.Get("type")] = q.Get("radius")
		mu.Unlock()
		respond(placesBody(perType[q.Get("type")]))(w, r)
	})

	coords := domain.Coordinates{Lat: 38.8487, Lon: -77.5636}
	am, err := c.AreaAmenities(context.Background(), coords)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"restaurant": "800", "school": "1500", "hospital": "2000", "shopping_mall": "1500"}, radii)
	require.NotNil(t, am.Counts)
	assert.Equal(t, 20, am.Counts.Restaurants, "one result page at most")
	assert.Equal(t, 10, am.Counts.Services)
	// 3.0 + 1.2 + 1.2 + 2.5 = 7.9
	assert.Equal(t, 8.0, am.Overall)
	assert.Equal(t, "High", am.Density)
	assert.Equal(t, coords, am.Coordinates)
	assert.Equal(t, PlacesSource, c.AmenitySource())
}

func TestClient_AreaAmenities_StatusError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("type") == "hospital" {
			respond(`{"status": "REQUEST_DENIED", "error_message": "API key not authorized", "results": []}`)(w, r)
			return
		}
		respond(placesBody(1))(w, r)
	})

	_, err := c.AreaAmenities(context.Background(), domain.Coordinates{Lat: 38.8, Lon: -77.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not authorized")
}

func TestClient_AreaAmenities_NoCredential(t *testing.T) {
	c := testClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("unexpected request without a credential")
	})
	c.apiKey = ""

	_, err := c.AreaAmenities(context.Background(), domain.Coordinates{Lat: 38.8, Lon: -77.5})
	assert.Error(t, err)
}

func TestAreaScore(t *testing.T) {
	tests := []struct {
		name    string
		counts  domain.AmenityCounts
		score   float64
		density string
	}{
		{"nothing nearby scores the minimum", domain.AmenityCounts{}, 1, "Low"},
		{"every category capped", domain.AmenityCounts{Restaurants: 20, Schools: 20, Healthcare: 20, Services: 20}, 10, "High"},
		{"dining and schools only", domain.AmenityCounts{Restaurants: 10, Schools: 3, Healthcare: 1}, 3, "Low"},
		{"suburban", domain.AmenityCounts{Restaurants: 15, Schools: 4, Healthcare: 1, Services: 1}, 5, "Moderate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			am := AreaScore(domain.Coordinates{}, tt.counts)
			assert.Equal(t, tt.score, am.Overall)
			assert.Equal(t, tt.density, am.Density)
		})
	}
}
