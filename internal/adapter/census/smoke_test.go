//go:build live

package census

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
)

// Hits the real Census API; requires CENSUS_API_KEY.
// Run with: go test -tags=live ./internal/adapter/census/ -v -count=1

func TestSmoke_PrinceWilliam(t *testing.T) {
	key := os.Getenv("CENSUS_API_KEY")
	if key == "" {
		t.Skip("CENSUS_API_KEY not set")
	}
	c := NewClient(key, 2022, 15*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	counties, err := c.ListCounties(ctx, "51")
	require.NoError(t, err)
	county, err := domain.MatchCounty(counties, "prince william")
	require.NoError(t, err)
	assert.Equal(t, "153", county.FIPS)

	countyRes := c.Fetch(ctx, domain.Request{Jurisdiction: domain.JurisdictionMatch{StateFIPS: "51", CountyFIPS: "153"}})
	stateRes := c.Fetch(ctx, domain.Request{Jurisdiction: domain.JurisdictionMatch{StateFIPS: "51"}})
	require.Equal(t, domain.StatusSuccess, countyRes.Status, countyRes.Reason)
	require.Equal(t, domain.StatusSuccess, stateRes.Status, stateRes.Reason)
	assert.Less(t,
		countyRes.Payload.(domain.Demographics).Population,
		stateRes.Payload.(domain.Demographics).Population,
	)
}
