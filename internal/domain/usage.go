package domain

import "time"

type Stats struct {
	SourceBytes  int
	ResultBytes  int
	CompressRate float64
	Duration     time.Duration
}

// NewStats summarizes r. CompressRate is the result size as a percentage of
// the source size.
func NewStats(r Result, duration time.Duration) Stats {
	stats := Stats{
		SourceBytes: len(r.Source.Blob.Data),
		ResultBytes: len(r.Result.Blob.Data),
		Duration:    duration,
	}
	if stats.SourceBytes > 0 {
		stats.CompressRate = float64(stats.ResultBytes) / float64(stats.SourceBytes) * 100
	}
	return stats
}

// BytesSaved never goes below zero.
func (s Stats) BytesSaved() int {
	return max(0, s.SourceBytes-s.ResultBytes)
}
