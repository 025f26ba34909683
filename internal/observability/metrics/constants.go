// Package metrics provides the Prometheus collectors of the roulette client.
package metrics

import "time"

// Namespace prefixes every metric name.
const Namespace = "roulette_client"

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Histogram bucket configuration.
const (
	// BucketStart1ms covers 1ms to ~16s with BucketCount15 doublings.
	BucketStart1ms = 0.001
	// BucketStart64B covers 64B to ~32KB with BucketCount10 doublings.
	BucketStart64B = 64.0

	BucketFactor2 = 2

	BucketCount10 = 10
	BucketCount15 = 15
)

// ShutdownTimeout bounds graceful shutdown of the metrics endpoint.
const ShutdownTimeout = 5 * time.Second
