package verification

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	var seq atomic.Int64
	engine, err := NewEngine(DefaultConfig(), zap.NewNop(),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return fmt.Sprintf("VER-TEST-%d", seq.Add(1)) }),
	)
	require.NoError(t, err)
	return engine
}

// mangroveSubmission is a plausible Mumbai mangrove project with two
// geotagged photos an hour apart and two water quality readings.
func mangroveSubmission() RawSubmission {
	return RawSubmission{
		"project_id":     "proj-mumbai-01",
		"project_name":   "Mumbai Mangrove Revival",
		"ecosystem_type": "mangrove",
		"area_hectares":  10.0,
		"location":       map[string]any{"lat": 19.07, "lng": 72.88},
		"field_measurements": map[string]any{
			"water_quality": map[string]any{"ph_level": 7.2, "salinity": 35.0},
		},
		"media_files": map[string]any{
			"photos": []any{
				map[string]any{
					"name":      "site-north.jpg",
					"location":  map[string]any{"lat": 19.07, "lng": 72.88},
					"timestamp": "2024-03-01T10:00:00Z",
				},
				map[string]any{
					"name":      "site-south.jpg",
					"location":  map[string]any{"lat": 19.07, "lng": 72.88},
					"timestamp": "2024-03-01T11:00:00Z",
				},
			},
		},
	}
}

func photos(n int, geotagged bool) []any {
	items := make([]any, n)
	for i := range items {
		item := map[string]any{
			"name":      fmt.Sprintf("photo-%02d.jpg", i),
			"timestamp": fixedNow.Add(-time.Duration(n-i) * 37 * time.Minute).Format(time.RFC3339),
		}
		if geotagged {
			item["location"] = map[string]any{"lat": 19.07, "lng": 72.88}
		}
		items[i] = item
	}
	return items
}

func containsSubstring(items []string, sub string) bool {
	for _, item := range items {
		if strings.Contains(item, sub) {
			return true
		}
	}
	return false
}
