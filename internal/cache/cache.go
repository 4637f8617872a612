// Package cache stores upstream responses keyed by rounded coordinates so
// repeated dashboard loads near the same spot do not hit the data providers.
package cache

import (
	"context"
	"fmt"
	"math"
	"time"
)

// DefaultTTL matches how often the air-quality models refresh.
const DefaultTTL = 3 * time.Hour

// Cache stores JSON-encodable values with a TTL.
type Cache interface {
	// Get decodes the value stored at key into dst. It reports false on a
	// miss or an expired entry.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Ping(ctx context.Context) error
}

// CoordKey builds "prefix:lat:lon" with both coordinates rounded to four
// decimal places (about 11 m of latitude).
func CoordKey(prefix string, lat, lon float64) string {
	return fmt.Sprintf("%s:%.4f:%.4f", prefix, round4(lat), round4(lon))
}

func round4(v float64) float64 {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		// Avoid distinct "-0.0000" and "0.0000" keys.
		return 0
	}
	return r
}
