package cache

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Instrumented counts Get outcomes (hit, miss or error) per key prefix.
type Instrumented struct {
	Cache
	lookups *prometheus.CounterVec
}

// NewInstrumented wraps c. lookups must carry the labels "prefix" and
// "result".
func NewInstrumented(c Cache, lookups *prometheus.CounterVec) *Instrumented {
	return &Instrumented{Cache: c, lookups: lookups}
}

func (i *Instrumented) Get(ctx context.Context, key string, dst any) (bool, error) {
	hit, err := i.Cache.Get(ctx, key, dst)
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case hit:
		result = "hit"
	}
	prefix, _, _ := strings.Cut(key, ":")
	i.lookups.WithLabelValues(prefix, result).Inc()
	return hit, err
}
