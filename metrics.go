package iqdb

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational
// metrics. Implement this interface to integrate with monitoring systems
// like Prometheus.
type MetricsCollector interface {
	// RecordAddImage is called after each AddImage operation. duration is
	// the total time taken, err is nil if successful.
	RecordAddImage(duration time.Duration, err error)

	// RecordRemoveImage is called after each RemoveImage operation.
	RecordRemoveImage(duration time.Duration, err error)

	// RecordQuery is called after each query operation. numColors is the
	// number of channels the query signature used (1 or 3), found is the
	// number of results returned.
	RecordQuery(numColors, found int, duration time.Duration, err error)

	// RecordRebuild is called after a full bucket index rebuild from the
	// Catalog. imagesLoaded is the number of rows replayed.
	RecordRebuild(imagesLoaded int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector. Use
// this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAddImage(time.Duration, error)                 {}
func (NoopMetricsCollector) RecordRemoveImage(time.Duration, error)              {}
func (NoopMetricsCollector) RecordQuery(int, int, time.Duration, error)          {}
func (NoopMetricsCollector) RecordRebuild(int, time.Duration, error)             {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddImageCount      atomic.Int64
	AddImageErrors     atomic.Int64
	AddImageTotalNanos atomic.Int64

	RemoveImageCount  atomic.Int64
	RemoveImageErrors atomic.Int64

	QueryCount      atomic.Int64
	QueryErrors     atomic.Int64
	QueryTotalNanos atomic.Int64
	QueryResults    atomic.Int64

	RebuildCount        atomic.Int64
	RebuildImagesLoaded atomic.Int64
}

// RecordAddImage implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAddImage(duration time.Duration, err error) {
	b.AddImageCount.Add(1)
	b.AddImageTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AddImageErrors.Add(1)
	}
}

// RecordRemoveImage implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemoveImage(_ time.Duration, err error) {
	b.RemoveImageCount.Add(1)
	if err != nil {
		b.RemoveImageErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(_, found int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	b.QueryResults.Add(int64(found))
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordRebuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRebuild(imagesLoaded int, _ time.Duration, err error) {
	b.RebuildCount.Add(1)
	b.RebuildImagesLoaded.Add(int64(imagesLoaded))
	_ = err
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddImageCount:    b.AddImageCount.Load(),
		AddImageErrors:   b.AddImageErrors.Load(),
		AddImageAvgNanos: b.getAvgAddImageNanos(),
		RemoveImageCount:  b.RemoveImageCount.Load(),
		RemoveImageErrors: b.RemoveImageErrors.Load(),
		QueryCount:       b.QueryCount.Load(),
		QueryErrors:      b.QueryErrors.Load(),
		QueryAvgNanos:    b.getAvgQueryNanos(),
		RebuildCount:        b.RebuildCount.Load(),
		RebuildImagesLoaded: b.RebuildImagesLoaded.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgAddImageNanos() int64 {
	count := b.AddImageCount.Load()
	if count == 0 {
		return 0
	}
	return b.AddImageTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgQueryNanos() int64 {
	count := b.QueryCount.Load()
	if count == 0 {
		return 0
	}
	return b.QueryTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddImageCount    int64
	AddImageErrors   int64
	AddImageAvgNanos int64

	RemoveImageCount  int64
	RemoveImageErrors int64

	QueryCount    int64
	QueryErrors   int64
	QueryAvgNanos int64

	RebuildCount        int64
	RebuildImagesLoaded int64
}
