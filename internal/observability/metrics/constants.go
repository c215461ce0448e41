// Package metrics provides Prometheus collectors for the scan pipeline.
package metrics

import "time"

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Histogram bucket configuration.
const (
	// BucketStart1ms is the first bucket of 1ms histograms.
	BucketStart1ms = 0.001
	// BucketStart10ms is the first bucket of 10ms histograms.
	BucketStart10ms = 0.01
	// BucketStart64 is the first bucket of count histograms.
	BucketStart64 = 64.0

	BucketFactor2 = 2

	BucketCount10 = 10
	BucketCount12 = 12
	BucketCount15 = 15
)

// ShutdownTimeout bounds the graceful shutdown of the metrics endpoint.
const ShutdownTimeout = 5 * time.Second
