package geometry

import (
	"math"
	"testing"
)

func TestCircleFromPoints(t *testing.T) {
	a := Point{X: 1, Y: 0}
	b := Point{X: 0, Y: 1}
	c := Point{X: -1, Y: 0}

	circle, ok := CircleFromPoints(a, b, c, 1000)
	if !ok {
		t.Fatal("expected a circle through three points of the unit circle")
	}
	if math.Abs(circle.CenterX) > 1e-9 || math.Abs(circle.CenterY) > 1e-9 {
		t.Errorf("expected center (0,0), got (%f,%f)", circle.CenterX, circle.CenterY)
	}
	if math.Abs(circle.Radius-1) > 1e-9 {
		t.Errorf("expected radius 1, got %f", circle.Radius)
	}
}

func TestCircleFromPointsOffsetCenter(t *testing.T) {
	// Points on a circle of radius 5 centered at (10, -3).
	angles := []float64{0.3, 1.1, 2.4}
	pts := make([]Point, 3)
	for i, theta := range angles {
		pts[i] = Point{X: 10 + 5*math.Cos(theta), Y: -3 + 5*math.Sin(theta)}
	}

	circle, ok := CircleFromPoints(pts[0], pts[1], pts[2], 1000)
	if !ok {
		t.Fatal("expected fit to succeed")
	}
	if math.Abs(circle.CenterX-10) > 1e-9 || math.Abs(circle.CenterY+3) > 1e-9 {
		t.Errorf("wrong center: (%f,%f)", circle.CenterX, circle.CenterY)
	}
	if math.Abs(circle.Radius-5) > 1e-9 {
		t.Errorf("wrong radius: %f", circle.Radius)
	}
}

func TestCircleFromPointsCollinear(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 1, Y: 1}
	c := Point{X: 2, Y: 2}

	if _, ok := CircleFromPoints(a, b, c, 1000); ok {
		t.Error("expected collinear points to fail the fit")
	}
}

func TestCircleFromPointsRadiusLimit(t *testing.T) {
	// Nearly collinear points produce a huge radius.
	a := Point{X: 0, Y: 0}
	b := Point{X: 50, Y: 0.001}
	c := Point{X: 100, Y: 0}

	if _, ok := CircleFromPoints(a, b, c, 1000); ok {
		t.Error("expected radius above the limit to be rejected")
	}
	if _, ok := CircleFromPoints(a, b, c, 1e9); !ok {
		t.Error("expected fit to succeed with a generous radius limit")
	}
}

func TestSignedArea2(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 1, Y: 0}
	c := Point{X: 1, Y: 1}

	if SignedArea2(a, b, c) <= 0 {
		t.Error("expected positive area for counter-clockwise winding")
	}
	if SignedArea2(a, c, b) >= 0 {
		t.Error("expected negative area for clockwise winding")
	}
}

func TestArcSweep(t *testing.T) {
	circle := Circle{CenterX: 0, CenterY: 0, Radius: 10}
	start := Point{X: 10, Y: 0}
	end := Point{X: 0, Y: 10}

	ccw, ok := ArcFromPoints(circle, start, end, CounterClockwise)
	if !ok {
		t.Fatal("expected CCW arc")
	}
	if math.Abs(ccw.SweptAngle-math.Pi/2) > 1e-9 {
		t.Errorf("expected quarter sweep CCW, got %f", ccw.SweptAngle)
	}

	cw, ok := ArcFromPoints(circle, start, end, Clockwise)
	if !ok {
		t.Fatal("expected CW arc")
	}
	if math.Abs(cw.SweptAngle-3*math.Pi/2) > 1e-9 {
		t.Errorf("expected three-quarter sweep CW, got %f", cw.SweptAngle)
	}
}

func TestArcFromPointsDegenerate(t *testing.T) {
	circle := Circle{CenterX: 0, CenterY: 0, Radius: 10}
	p := Point{X: 10, Y: 0}
	if _, ok := ArcFromPoints(circle, p, p, CounterClockwise); ok {
		t.Error("expected a zero sweep to be rejected")
	}
}

func TestArcContains(t *testing.T) {
	circle := Circle{CenterX: 0, CenterY: 0, Radius: 10}
	start := Point{X: 10, Y: 0}
	end := Point{X: -10, Y: 0}

	arc, ok := ArcFromPoints(circle, start, end, CounterClockwise)
	if !ok {
		t.Fatal("expected half-circle arc")
	}

	top := Point{X: 0, Y: 10}
	bottom := Point{X: 0, Y: -10}
	if !arc.Contains(top) {
		t.Error("expected the upper half point to be on the used span")
	}
	if arc.Contains(bottom) {
		t.Error("expected the lower half point to be off the used span")
	}
}

func TestArcDeviation(t *testing.T) {
	circle := Circle{CenterX: 0, CenterY: 0, Radius: 10}
	arc, ok := ArcFromPoints(circle, Point{X: 10, Y: 0}, Point{X: 0, Y: 10}, CounterClockwise)
	if !ok {
		t.Fatal("expected arc")
	}

	onSpan := Point{X: 10.5 * math.Cos(0.5), Y: 10.5 * math.Sin(0.5)}
	if dev := arc.Deviation(onSpan); math.Abs(dev-0.5) > 1e-9 {
		t.Errorf("expected deviation 0.5 for a point over the span, got %f", dev)
	}

	// A point on the circle but outside the span measures to the endpoint.
	offSpan := Point{X: 0, Y: -10}
	want := offSpan.XYDistance(Point{X: 10, Y: 0})
	if dev := arc.Deviation(offSpan); math.Abs(dev-want) > 1e-9 {
		t.Errorf("expected endpoint distance %f, got %f", want, dev)
	}
}

func TestArcLengthAndOffset(t *testing.T) {
	circle := Circle{CenterX: 2, CenterY: 3, Radius: 4}
	start := Point{X: 6, Y: 3}
	end := Point{X: 2, Y: 7}
	arc, ok := ArcFromPoints(circle, start, end, CounterClockwise)
	if !ok {
		t.Fatal("expected arc")
	}

	if math.Abs(arc.Length()-4*math.Pi/2) > 1e-9 {
		t.Errorf("wrong arc length: %f", arc.Length())
	}

	i, j := arc.CenterOffset()
	if math.Abs(i+4) > 1e-9 || math.Abs(j) > 1e-9 {
		t.Errorf("expected center offset (-4,0), got (%f,%f)", i, j)
	}
}
