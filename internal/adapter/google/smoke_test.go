//go:build live

package google

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

// Hits the real Google Geocoding API; requires GOOGLE_MAPS_API_KEY.
// Run with: go test -tags=live ./internal/adapter/google/ -v -count=1

func TestSmoke_Catharpin(t *testing.T) {
	key := os.Getenv("GOOGLE_MAPS_API_KEY")
	if key == "" {
		t.Skip("GOOGLE_MAPS_API_KEY not set")
	}
	c := NewClient(key, 10*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	res := c.Fetch(context.Background(), domain.Request{Address: "3650 Dunigan Ct, Catharpin, VA 20143"})
	require.Equal(t, domain.StatusSuccess, res.Status, res.Reason)

	loc := res.Payload.(domain.Location)
	assert.Equal(t, "Virginia", loc.Components.Get(domain.ComponentAdminLevel1))
	assert.Equal(t, "Prince William County", loc.Components.Get(domain.ComponentAdminLevel2))
}
