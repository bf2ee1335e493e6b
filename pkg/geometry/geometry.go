// Package geometry provides the planar primitives used by arc compression:
// printer points carrying extruder and feedrate state, circle fitting through
// three points, and arc deviation measurement.
package geometry

import (
	"fmt"
	"math"
)

// Tolerances for geometric comparisons. All values are in millimetres or
// radians; coordinates arriving from G-code files rarely carry more than five
// decimals, so these sit well below the input precision.
const (
	// FitEpsilon is the smallest perpendicular-bisector denominator that
	// still yields a usable circle. Below this the points are collinear.
	FitEpsilon = 1e-8

	// ZTolerance is the maximum Z difference between coplanar points.
	ZTolerance = 1e-6

	// AngleEpsilon pads angular containment checks against atan2 rounding.
	AngleEpsilon = 1e-9
)

// Point is a single machine position: Cartesian XYZ in millimetres, absolute
// extruder position E in millimetres of filament, and feedrate F in mm/min.
type Point struct {
	X float64
	Y float64
	Z float64
	E float64
	F float64
}

// XYDistance returns the planar distance between two points.
func (p Point) XYDistance(o Point) float64 {
	return math.Hypot(o.X-p.X, o.Y-p.Y)
}

// Distance returns the Cartesian distance between two points.
func (p Point) Distance(o Point) float64 {
	dx := o.X - p.X
	dy := o.Y - p.Y
	dz := o.Z - p.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func (p Point) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", p.X, p.Y, p.Z)
}

// Direction is the traversal sense of an arc on the XY plane.
type Direction int

const (
	// Clockwise arcs are emitted as G2.
	Clockwise Direction = iota + 1
	// CounterClockwise arcs are emitted as G3.
	CounterClockwise
)

func (d Direction) String() string {
	switch d {
	case Clockwise:
		return "CW"
	case CounterClockwise:
		return "CCW"
	}
	return "unknown"
}

// SignedArea2 returns twice the signed area of triangle abc on the XY plane.
// Positive means counter-clockwise winding.
func SignedArea2(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// Circle is a circle on the XY plane.
type Circle struct {
	CenterX float64
	CenterY float64
	Radius  float64
}

// CircleFromPoints fits the circle through three points by solving the linear
// system formed by the perpendicular bisectors of ab and bc. It fails when
// the points are collinear within FitEpsilon or the resulting radius exceeds
// maxRadius.
func CircleFromPoints(a, b, c Point, maxRadius float64) (Circle, bool) {
	asq := a.X*a.X + a.Y*a.Y
	bsq := b.X*b.X + b.Y*b.Y
	csq := c.X*c.X + c.Y*c.Y

	denom := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(denom) < FitEpsilon {
		return Circle{}, false
	}

	cx := (asq*(b.Y-c.Y) + bsq*(c.Y-a.Y) + csq*(a.Y-b.Y)) / denom
	cy := (asq*(c.X-b.X) + bsq*(a.X-c.X) + csq*(b.X-a.X)) / denom
	r := math.Hypot(a.X-cx, a.Y-cy)

	if r > maxRadius {
		return Circle{}, false
	}
	return Circle{CenterX: cx, CenterY: cy, Radius: r}, true
}

// DistanceFromCenter returns the planar distance from the circle center to p.
func (c Circle) DistanceFromCenter(p Point) float64 {
	return math.Hypot(p.X-c.CenterX, p.Y-c.CenterY)
}

// Deviation returns how far p sits off the circle itself.
func (c Circle) Deviation(p Point) float64 {
	return math.Abs(c.DistanceFromCenter(p) - c.Radius)
}

// PolarAngle returns the angle of p around the circle center in [0, 2π).
func (c Circle) PolarAngle(p Point) float64 {
	theta := math.Atan2(p.Y-c.CenterY, p.X-c.CenterX)
	if theta < 0 {
		theta += 2 * math.Pi
	}
	return theta
}

// Arc is a fitted circular arc: a circle, the traversed span from Start to
// End in Direction, and the swept angle normalised into (0, 2π).
type Arc struct {
	Circle
	Start      Point
	End        Point
	Direction  Direction
	SweptAngle float64
}

// ArcFromPoints builds the arc on circle c running from start to end in the
// given direction. The swept angle is the atan2-based signed delta between
// the endpoint polar angles, normalised into (0, 2π); a zero delta is
// reported as not-an-arc rather than a full circle.
func ArcFromPoints(c Circle, start, end Point, dir Direction) (Arc, bool) {
	delta := sweep(c.PolarAngle(start), c.PolarAngle(end), dir)
	if delta <= 0 || delta >= 2*math.Pi {
		return Arc{}, false
	}
	return Arc{
		Circle:     c,
		Start:      start,
		End:        end,
		Direction:  dir,
		SweptAngle: delta,
	}, true
}

// sweep returns the angle travelled from angle a to angle b moving in dir,
// normalised into [0, 2π).
func sweep(a, b float64, dir Direction) float64 {
	var delta float64
	if dir == CounterClockwise {
		delta = b - a
	} else {
		delta = a - b
	}
	for delta < 0 {
		delta += 2 * math.Pi
	}
	for delta >= 2*math.Pi {
		delta -= 2 * math.Pi
	}
	return delta
}

// Length returns the arc length r·|swept angle|.
func (a Arc) Length() float64 {
	return a.Radius * a.SweptAngle
}

// AngleOf returns how far around the arc, in the arc's direction, the polar
// angle of p lies from the start point. The result is in [0, 2π).
func (a Arc) AngleOf(p Point) float64 {
	return sweep(a.PolarAngle(a.Start), a.PolarAngle(p), a.Direction)
}

// Contains reports whether p projects onto the used span of the arc rather
// than the unused remainder of the circle.
func (a Arc) Contains(p Point) bool {
	return a.AngleOf(p) <= a.SweptAngle+AngleEpsilon
}

// Deviation returns the shortest distance from p to the arc. Points whose
// projection falls on the used span measure against the circle; points
// beyond either endpoint measure against the nearer endpoint.
func (a Arc) Deviation(p Point) float64 {
	if a.Contains(p) {
		return a.Circle.Deviation(p)
	}
	return math.Min(p.XYDistance(a.Start), p.XYDistance(a.End))
}

// CenterOffset returns the I/J words for the arc: the center relative to the
// start point, per standard G-code center-offset arc semantics.
func (a Arc) CenterOffset() (i, j float64) {
	return a.CenterX - a.Start.X, a.CenterY - a.Start.Y
}
