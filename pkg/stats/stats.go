// Segment statistics for arc compression runs
//
// Tracks how source and target motion lengths distribute over a fixed set of
// length buckets, plus running totals, and renders the comparison table shown
// at the end of a run.
//
// Copyright (C) 2026 Arc Welder Go Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package stats

import (
	"fmt"
	"strings"
)

// SegmentLengths are the bucket upper bounds in millimetres. Lengths at or
// above the final bound fall into an overflow bucket.
var SegmentLengths = []float64{0.002, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 20.0, 50.0, 100.0}

// Bucket is one length range with its source and target segment counts.
// The overflow bucket has MaxMM < 0.
type Bucket struct {
	MinMM       float64 `json:"min_mm"`
	MaxMM       float64 `json:"max_mm"`
	SourceCount int     `json:"source_count"`
	TargetCount int     `json:"target_count"`
}

// SegmentStatistics accumulates segment length distributions for the source
// file and the generated target.
type SegmentStatistics struct {
	Buckets []Bucket `json:"buckets"`

	TotalLengthSource float64 `json:"total_length_source_mm"`
	TotalLengthTarget float64 `json:"total_length_target_mm"`
	TotalCountSource  int     `json:"total_count_source"`
	TotalCountTarget  int     `json:"total_count_target"`
}

// New creates statistics over the standard SegmentLengths buckets.
func New() *SegmentStatistics {
	buckets := make([]Bucket, 0, len(SegmentLengths)+1)
	min := 0.0
	for _, max := range SegmentLengths {
		buckets = append(buckets, Bucket{MinMM: min, MaxMM: max})
		min = max
	}
	buckets = append(buckets, Bucket{MinMM: min, MaxMM: -1})
	return &SegmentStatistics{Buckets: buckets}
}

// UpdateSource records one source motion segment length.
func (s *SegmentStatistics) UpdateSource(length float64) {
	s.update(length, true)
}

// UpdateTarget records one emitted motion length (chord for straight moves,
// arc length for arcs).
func (s *SegmentStatistics) UpdateTarget(length float64) {
	s.update(length, false)
}

func (s *SegmentStatistics) update(length float64, source bool) {
	if length <= 0 {
		return
	}
	if source {
		s.TotalCountSource++
		s.TotalLengthSource += length
	} else {
		s.TotalCountTarget++
		s.TotalLengthTarget += length
	}
	for i := range s.Buckets {
		b := &s.Buckets[i]
		if (b.MinMM <= length && length < b.MaxMM) || i == len(s.Buckets)-1 {
			if source {
				b.SourceCount++
			} else {
				b.TargetCount++
			}
			return
		}
	}
}

// Clone returns an independent copy, for snapshotting mid-run.
func (s *SegmentStatistics) Clone() *SegmentStatistics {
	c := *s
	c.Buckets = make([]Bucket, len(s.Buckets))
	copy(c.Buckets, s.Buckets)
	return &c
}

// percentChange renders the relative count change between source and target.
func percentChange(source, target int) string {
	if source == 0 {
		if target == 0 {
			return "0.0%"
		}
		return "100.0%"
	}
	change := (float64(target) - float64(source)) / float64(source) * 100
	return fmt.Sprintf("%.1f%%", change)
}

// String renders the comparison table: one row per bucket with source and
// target counts and the percent change, followed by totals.
func (s *SegmentStatistics) String() string {
	const (
		mmCol      = 10
		labelCol   = 4
		countCol   = 8
		percentCol = 9
		totalLabel = 22
	)
	tableWidth := mmCol + labelCol + mmCol + countCol + countCol + percentCol

	var sb strings.Builder
	sb.WriteString(center("Min", mmCol))
	sb.WriteString(strings.Repeat(" ", labelCol))
	sb.WriteString(center("Max", mmCol))
	fmt.Fprintf(&sb, "%*s%*s%*s\n", countCol, "Source", countCol, "Target", percentCol, "Change")
	sb.WriteString(strings.Repeat("-", tableWidth))
	sb.WriteByte('\n')

	for i, b := range s.Buckets {
		if i == len(s.Buckets)-1 {
			// The overflow bucket counts everything at or above the
			// last bound; there is no upper edge to print.
			fmt.Fprintf(&sb, "%*s%*s%*s", mmCol, "", labelCol, " >= ", mmCol, fmt.Sprintf("%.3fmm", b.MinMM))
		} else {
			fmt.Fprintf(&sb, "%*s%*s%*s", mmCol, fmt.Sprintf("%.3fmm", b.MinMM), labelCol, " to ", mmCol, fmt.Sprintf("%.3fmm", b.MaxMM))
		}
		fmt.Fprintf(&sb, "%*d%*d%*s\n", countCol, b.SourceCount, countCol, b.TargetCount, percentCol, percentChange(b.SourceCount, b.TargetCount))
	}

	sb.WriteString(strings.Repeat("-", tableWidth))
	sb.WriteByte('\n')

	dotFill := func(label, value string) {
		sb.WriteString(fmt.Sprintf("%*s", totalLabel, label))
		pad := tableWidth - totalLabel - len(value)
		if pad > 0 {
			sb.WriteString(strings.Repeat(".", pad))
		}
		sb.WriteString(value)
		sb.WriteByte('\n')
	}

	if diff := s.TotalLengthSource - s.TotalLengthTarget; diff < 0.001 && diff > -0.001 {
		dotFill("Total distance:", fmt.Sprintf("%.3fmm", s.TotalLengthSource))
	} else {
		dotFill("Total distance source:", fmt.Sprintf("%.3fmm", s.TotalLengthSource))
		dotFill("Total distance target:", fmt.Sprintf("%.3fmm", s.TotalLengthTarget))
	}
	dotFill("Total count source:", fmt.Sprintf("%d", s.TotalCountSource))
	dotFill("Total count target:", fmt.Sprintf("%d", s.TotalCountTarget))
	dotFill("Total percent change:", percentChange(s.TotalCountSource, s.TotalCountTarget))

	return sb.String()
}

// center pads s to width, splitting the padding on both sides.
func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	right := width - len(s) - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}
