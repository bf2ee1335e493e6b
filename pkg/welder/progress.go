package welder

import (
	"fmt"

	"arcwelder-go/pkg/stats"
)

// Progress is a point-in-time snapshot of a welding run. The welder hands it
// to the progress callback and embeds the final snapshot in the Results.
type Progress struct {
	PercentComplete  float64 `json:"percent_complete"`
	SecondsElapsed   float64 `json:"seconds_elapsed"`
	SecondsRemaining float64 `json:"seconds_remaining"`

	GcodesProcessed  int `json:"gcodes_processed"`
	LinesProcessed   int `json:"lines_processed"`
	PointsCompressed int `json:"points_compressed"`
	ArcsCreated      int `json:"arcs_created"`

	SourceFilePosition int64 `json:"source_file_position"`
	SourceFileSize     int64 `json:"source_file_size"`
	TargetFileSize     int64 `json:"target_file_size"`

	CompressionRatio   float64 `json:"compression_ratio"`
	CompressionPercent float64 `json:"compression_percent"`

	Statistics *stats.SegmentStatistics `json:"statistics,omitempty"`
}

// String renders the one-line progress summary.
func (p Progress) String() string {
	return fmt.Sprintf(
		"%.2f%% complete in %.2f seconds with %.2f seconds remaining."+
			" Gcodes Processed: %d, Current Line: %d, Points Compressed: %d, Arcs Created: %d,"+
			" Compression Ratio: %.2f, Size Reduction: %.2f%%",
		p.PercentComplete, p.SecondsElapsed, p.SecondsRemaining,
		p.GcodesProcessed, p.LinesProcessed, p.PointsCompressed, p.ArcsCreated,
		p.CompressionRatio, p.CompressionPercent)
}

// DetailString renders the summary plus the segment statistics table.
func (p Progress) DetailString() string {
	if p.Statistics == nil {
		return p.String()
	}
	return p.String() + "\n\nSegment Statistics\n" + p.Statistics.String()
}

// Callback receives progress snapshots during a run. Returning false cancels
// the run; the welder stops at a clean boundary and keeps the partial output.
type Callback func(Progress) bool

// Results is the outcome of one Process call.
type Results struct {
	// Success is false for invalid settings and fatal I/O failures. A
	// cancelled run is still successful.
	Success bool

	// Cancelled is set when the progress callback stopped the run.
	Cancelled bool

	// Message is a human-readable summary of the outcome.
	Message string

	// Progress is the final snapshot, including statistics.
	Progress Progress
}
