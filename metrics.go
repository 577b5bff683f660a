package palmvec

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/palmvec/embedding"
)

// MetricsCollector receives operational metrics from an Engine.
// Implement it to integrate with a monitoring system.
type MetricsCollector interface {
	// RecordNormalize is called after each decode or normalization.
	// rep carries the repairs applied; err is nil on success.
	RecordNormalize(rep embedding.Report, duration time.Duration, err error)

	// RecordBatch is called after each NormalizeBatch call.
	RecordBatch(count, failed int, duration time.Duration)

	// RecordIdentify is called after each identification or duplicate scan.
	// scanned is the candidate population size.
	RecordIdentify(scanned int, matched bool, duration time.Duration, err error)

	// RecordCache is called on every decode cache lookup.
	RecordCache(hit bool)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordNormalize(embedding.Report, time.Duration, error) {}
func (NoopMetricsCollector) RecordBatch(int, int, time.Duration)                   {}
func (NoopMetricsCollector) RecordIdentify(int, bool, time.Duration, error)        {}
func (NoopMetricsCollector) RecordCache(bool)                                      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	NormalizeCount      atomic.Int64
	NormalizeErrors     atomic.Int64
	NormalizeTotalNanos atomic.Int64
	Truncations         atomic.Int64
	Paddings            atomic.Int64
	OddByteTrims        atomic.Int64
	Sanitized           atomic.Int64
	BatchCount          atomic.Int64
	BatchItems          atomic.Int64
	BatchFailed         atomic.Int64
	IdentifyCount       atomic.Int64
	IdentifyMatches     atomic.Int64
	IdentifyErrors      atomic.Int64
	IdentifyScanned     atomic.Int64
	IdentifyTotalNanos  atomic.Int64
	CacheHits           atomic.Int64
	CacheMisses         atomic.Int64
}

// RecordNormalize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordNormalize(rep embedding.Report, duration time.Duration, err error) {
	b.NormalizeCount.Add(1)
	b.NormalizeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.NormalizeErrors.Add(1)
		return
	}
	if rep.Truncated {
		b.Truncations.Add(1)
	}
	if rep.Padded {
		b.Paddings.Add(1)
	}
	if rep.OddByteTrimmed {
		b.OddByteTrims.Add(1)
	}
	b.Sanitized.Add(int64(rep.Sanitized))
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(count, failed int, _ time.Duration) {
	b.BatchCount.Add(1)
	b.BatchItems.Add(int64(count))
	b.BatchFailed.Add(int64(failed))
}

// RecordIdentify implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIdentify(scanned int, matched bool, duration time.Duration, err error) {
	b.IdentifyCount.Add(1)
	b.IdentifyScanned.Add(int64(scanned))
	b.IdentifyTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.IdentifyErrors.Add(1)
		return
	}
	if matched {
		b.IdentifyMatches.Add(1)
	}
}

// RecordCache implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCache(hit bool) {
	if hit {
		b.CacheHits.Add(1)
	} else {
		b.CacheMisses.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		NormalizeCount:    b.NormalizeCount.Load(),
		NormalizeErrors:   b.NormalizeErrors.Load(),
		NormalizeAvgNanos: avg(b.NormalizeTotalNanos.Load(), b.NormalizeCount.Load()),
		Truncations:       b.Truncations.Load(),
		Paddings:          b.Paddings.Load(),
		OddByteTrims:      b.OddByteTrims.Load(),
		Sanitized:         b.Sanitized.Load(),
		BatchCount:        b.BatchCount.Load(),
		BatchItems:        b.BatchItems.Load(),
		BatchFailed:       b.BatchFailed.Load(),
		IdentifyCount:     b.IdentifyCount.Load(),
		IdentifyMatches:   b.IdentifyMatches.Load(),
		IdentifyErrors:    b.IdentifyErrors.Load(),
		IdentifyScanned:   b.IdentifyScanned.Load(),
		IdentifyAvgNanos:  avg(b.IdentifyTotalNanos.Load(), b.IdentifyCount.Load()),
		CacheHits:         b.CacheHits.Load(),
		CacheMisses:       b.CacheMisses.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	NormalizeCount    int64
	NormalizeErrors   int64
	NormalizeAvgNanos int64
	Truncations       int64
	Paddings          int64
	OddByteTrims      int64
	Sanitized         int64
	BatchCount        int64
	BatchItems        int64
	BatchFailed       int64
	IdentifyCount     int64
	IdentifyMatches   int64
	IdentifyErrors    int64
	IdentifyScanned   int64
	IdentifyAvgNanos  int64
	CacheHits         int64
	CacheMisses       int64
}
