// Package arcfit maintains an online arc candidate over a growing run of
// linear extrusion moves. Points are offered one at a time; the candidate
// either absorbs them while a single circular arc can still represent the
// polyline within tolerance, or rejects them and leaves its state untouched.
package arcfit

import (
	"math"

	"arcwelder-go/pkg/geometry"
)

// Result is the outcome of offering a point to the candidate.
type Result int

const (
	// Rejected means the point would break an invariant; the candidate is
	// unchanged and the caller decides whether to commit or flush.
	Rejected Result = iota

	// Accepted means the point extended the candidate.
	Accepted
)

func (r Result) String() string {
	if r == Accepted {
		return "accepted"
	}
	return "rejected"
}

const (
	// DefaultMinPoints is the smallest vertex run worth replacing with an
	// arc. Three vertices are the minimum that defines a circle at all.
	DefaultMinPoints = 3

	// extrusionRateTolerance is the allowed fractional drift of a
	// segment's extrusion per millimetre from the running mean.
	extrusionRateTolerance = 0.05

	// maxSweptAngle keeps candidates away from full-circle wrap-around,
	// where the endpoint angles become numerically ambiguous.
	maxSweptAngle = 2 * math.Pi * 0.99

	// arcLengthTolerance is the allowed fractional mismatch between the
	// arc length and the summed chord lengths. Vertex deviation alone
	// cannot catch an arc that bulges far away between two distant
	// vertices; the length comparison does.
	arcLengthTolerance = 0.05

	// minChordLength rejects degenerate zero-length segments.
	minChordLength = 1e-9
)

// FittedArc is a committed arc together with the extrusion and feedrate it
// must carry when emitted.
type FittedArc struct {
	geometry.Arc

	// TotalERelative is the summed filament advance across the span.
	TotalERelative float64

	// Feedrate is the constant feedrate of the absorbed segments, mm/min.
	Feedrate float64

	// PointCount is the number of polyline vertices the arc absorbed,
	// including the start point.
	PointCount int
}

// SegmentedArc is the online candidate. The zero value is not usable; create
// one with New.
type SegmentedArc struct {
	resolution float64
	maxRadius  float64
	minPoints  int

	points      []geometry.Point
	totalE      float64
	totalLength float64
	extruding   bool
	feedrate    float64

	arc    geometry.Arc
	hasArc bool
}

// New creates an empty candidate. resolution is the maximum allowed deviation
// of any vertex from the fitted arc; maxRadius bounds the fit (larger arcs
// are indistinguishable from straight lines at print scale).
func New(resolution, maxRadius float64) *SegmentedArc {
	return &SegmentedArc{
		resolution: resolution,
		maxRadius:  maxRadius,
		minPoints:  DefaultMinPoints,
		points:     make([]geometry.Point, 0, 16),
	}
}

// SetMinPoints overrides the minimum vertex count for a committable arc.
// Values below DefaultMinPoints are ignored.
func (s *SegmentedArc) SetMinPoints(n int) {
	if n >= DefaultMinPoints {
		s.minPoints = n
	}
}

// PointCount returns the number of buffered vertices.
func (s *SegmentedArc) PointCount() int {
	return len(s.points)
}

// IsShape reports whether the candidate currently describes a committable
// arc: enough vertices and a valid fit.
func (s *SegmentedArc) IsShape() bool {
	return s.hasArc && len(s.points) >= s.minPoints
}

// Abort discards the candidate.
func (s *SegmentedArc) Abort() {
	s.points = s.points[:0]
	s.totalE = 0
	s.totalLength = 0
	s.extruding = false
	s.feedrate = 0
	s.hasArc = false
}

// PopArc returns the current fitted arc and resets the candidate. It must
// only be called when IsShape is true.
func (s *SegmentedArc) PopArc() FittedArc {
	fitted := FittedArc{
		Arc:            s.arc,
		TotalERelative: s.totalE,
		Feedrate:       s.feedrate,
		PointCount:     len(s.points),
	}
	s.Abort()
	return fitted
}

// TryAddPoint offers the next polyline vertex. eRelative is the filament
// advance of the segment ending at p. On rejection the candidate state is
// exactly as before the call.
func (s *SegmentedArc) TryAddPoint(p geometry.Point, eRelative float64) Result {
	if len(s.points) == 0 {
		// The first point is the start position; it has no segment.
		s.points = append(s.points, p)
		return Accepted
	}

	last := s.points[len(s.points)-1]

	// Plane gate: all vertices share the Z of the start point.
	if math.Abs(p.Z-s.points[0].Z) > geometry.ZTolerance {
		return Rejected
	}

	chord := last.XYDistance(p)
	if chord < minChordLength {
		return Rejected
	}

	// Extrusion gate: the whole span either extrudes or travels.
	if eRelative < 0 {
		return Rejected
	}
	extruding := eRelative > 0
	if len(s.points) > 1 && extruding != s.extruding {
		return Rejected
	}
	if extruding && s.totalLength > 0 {
		mean := s.totalE / s.totalLength
		rate := eRelative / chord
		if math.Abs(rate-mean) > extrusionRateTolerance*mean {
			return Rejected
		}
	}

	// Feedrate gate: every segment in the span runs at one feedrate, so a
	// single F word can represent it. The first segment establishes it.
	if len(s.points) > 1 && p.F != s.feedrate {
		return Rejected
	}

	if len(s.points) == 1 {
		// Two points cannot be fit yet; buffer and wait for the third.
		s.points = append(s.points, p)
		s.totalE += eRelative
		s.totalLength += chord
		s.extruding = extruding
		s.feedrate = p.F
		return Accepted
	}

	arc, ok := s.fit(p, s.totalLength+chord)
	if !ok {
		return Rejected
	}

	s.points = append(s.points, p)
	s.totalE += eRelative
	s.totalLength += chord
	s.arc = arc
	s.hasArc = true
	return Accepted
}

// fit computes the circle through the first, middle, and new point, then
// validates every buffered vertex against the resulting arc. chordTotal is
// the polyline length including the segment ending at p.
func (s *SegmentedArc) fit(p geometry.Point, chordTotal float64) (geometry.Arc, bool) {
	first := s.points[0]
	middle := s.points[len(s.points)/2]

	circle, ok := geometry.CircleFromPoints(first, middle, p, s.maxRadius)
	if !ok {
		return geometry.Arc{}, false
	}

	// Winding of the three fit points determines the arc direction; the
	// traversal check below verifies the rest of the span agrees.
	area := geometry.SignedArea2(first, middle, p)
	dir := geometry.Clockwise
	if area > 0 {
		dir = geometry.CounterClockwise
	}

	arc, ok := geometry.ArcFromPoints(circle, first, p, dir)
	if !ok || arc.SweptAngle > maxSweptAngle {
		return geometry.Arc{}, false
	}

	if math.Abs(arc.Length()-chordTotal) > arcLengthTolerance*chordTotal {
		return geometry.Arc{}, false
	}

	// Every vertex must sit on the arc within resolution, and the span
	// must be traversed monotonically in the chosen direction. The fit
	// shifts as points arrive, so all prior vertices are re-checked.
	prevAngle := 0.0
	for _, q := range s.points[1:] {
		angle := arc.AngleOf(q)
		if angle > arc.SweptAngle+geometry.AngleEpsilon {
			return geometry.Arc{}, false
		}
		if angle < prevAngle-geometry.AngleEpsilon {
			return geometry.Arc{}, false
		}
		prevAngle = angle
	}
	for _, q := range s.points {
		if circle.Deviation(q) > s.resolution {
			return geometry.Arc{}, false
		}
	}

	return arc, true
}
