// Package position maintains authoritative machine state while G-code
// commands are consumed: the current XYZE position, feedrate, coordinate and
// extruder modes, and units.
package position

import (
	"arcwelder-go/pkg/gcode"
	"arcwelder-go/pkg/geometry"
)

// InchesToMM converts G20 inch parameters to the internal millimetre
// representation.
const InchesToMM = 25.4

// Snapshot describes the machine state transition caused by one command.
type Snapshot struct {
	// Point is the position after the command was applied.
	Point geometry.Point

	// Previous is the position before the command.
	Previous geometry.Point

	// ERelative is the extruder advance of this command in millimetres of
	// filament, regardless of the active extruder mode.
	ERelative float64

	// IsMotion is set for G0/G1/G2/G3.
	IsMotion bool

	// IsLinear is set for G0/G1 only.
	IsLinear bool

	// XYZModeChanged is set when G90/G91 switched the coordinate mode.
	XYZModeChanged bool

	// EModeChanged is set when M82/M83 (or G90/G91 when configured to
	// influence the extruder) switched the extruder mode.
	EModeChanged bool

	// UnitsChanged is set by G20/G21.
	UnitsChanged bool

	// PositionSet is set when G92 redefined one or more axes.
	PositionSet bool
}

// ModeChanged reports whether the command altered any interpretation state.
func (s Snapshot) ModeChanged() bool {
	return s.XYZModeChanged || s.EModeChanged || s.UnitsChanged || s.PositionSet
}

// Tracker interprets commands and tracks machine state. State starts at the
// origin in absolute millimetre mode with an absolute extruder, matching what
// slicers emit after their start G-code.
type Tracker struct {
	current geometry.Point

	absoluteXYZ bool
	absoluteE   bool
	millimetres bool

	// g90InfluencesExtruder makes G90/G91 also switch the extruder mode,
	// the way Marlin-family firmware behaves.
	g90InfluencesExtruder bool
}

// NewTracker creates a tracker in the default state.
func NewTracker(g90InfluencesExtruder bool) *Tracker {
	return &Tracker{
		absoluteXYZ:           true,
		absoluteE:             true,
		millimetres:           true,
		g90InfluencesExtruder: g90InfluencesExtruder,
	}
}

// Position returns the current point.
func (t *Tracker) Position() geometry.Point {
	return t.current
}

// ExtruderRelative reports whether the extruder is in relative mode.
func (t *Tracker) ExtruderRelative() bool {
	return !t.absoluteE
}

// Feedrate returns the most recent commanded feedrate in mm/min.
func (t *Tracker) Feedrate() float64 {
	return t.current.F
}

// scale converts a parameter value into millimetres under the active units.
func (t *Tracker) scale(v float64) float64 {
	if t.millimetres {
		return v
	}
	return v * InchesToMM
}

// Apply interprets one command and returns the resulting state transition.
// Unknown commands and text-only lines leave state untouched.
func (t *Tracker) Apply(cmd *gcode.Command) Snapshot {
	snap := Snapshot{Point: t.current, Previous: t.current}
	if cmd.TextOnly {
		return snap
	}

	switch {
	case cmd.Letter == 'G' && (cmd.Number == 0 || cmd.Number == 1 || cmd.Number == 2 || cmd.Number == 3):
		snap = t.applyMove(cmd)
	case cmd.Is('G', 90):
		snap.XYZModeChanged = !t.absoluteXYZ
		t.absoluteXYZ = true
		if t.g90InfluencesExtruder {
			snap.EModeChanged = !t.absoluteE
			t.absoluteE = true
		}
	case cmd.Is('G', 91):
		snap.XYZModeChanged = t.absoluteXYZ
		t.absoluteXYZ = false
		if t.g90InfluencesExtruder {
			snap.EModeChanged = t.absoluteE
			t.absoluteE = false
		}
	case cmd.Is('M', 82):
		snap.EModeChanged = !t.absoluteE
		t.absoluteE = true
	case cmd.Is('M', 83):
		snap.EModeChanged = t.absoluteE
		t.absoluteE = false
	case cmd.Is('G', 92):
		snap = t.applySetPosition(cmd)
	case cmd.Is('G', 20):
		snap.UnitsChanged = t.millimetres
		t.millimetres = false
	case cmd.Is('G', 21):
		snap.UnitsChanged = !t.millimetres
		t.millimetres = true
	}

	snap.Point = t.current
	return snap
}

// applyMove handles G0/G1/G2/G3. Arc moves in the input update position from
// their endpoint words only; their path is not interpreted.
func (t *Tracker) applyMove(cmd *gcode.Command) Snapshot {
	prev := t.current
	next := t.current

	if v, ok := cmd.Param('X'); ok {
		if t.absoluteXYZ {
			next.X = t.scale(v)
		} else {
			next.X += t.scale(v)
		}
	}
	if v, ok := cmd.Param('Y'); ok {
		if t.absoluteXYZ {
			next.Y = t.scale(v)
		} else {
			next.Y += t.scale(v)
		}
	}
	if v, ok := cmd.Param('Z'); ok {
		if t.absoluteXYZ {
			next.Z = t.scale(v)
		} else {
			next.Z += t.scale(v)
		}
	}
	if v, ok := cmd.Param('E'); ok {
		if t.absoluteE {
			next.E = t.scale(v)
		} else {
			next.E += t.scale(v)
		}
	}
	if v, ok := cmd.Param('F'); ok {
		next.F = t.scale(v)
	}

	t.current = next
	return Snapshot{
		Point:     next,
		Previous:  prev,
		ERelative: next.E - prev.E,
		IsMotion:  true,
		IsLinear:  cmd.Number == 0 || cmd.Number == 1,
	}
}

// applySetPosition handles G92: named axes are redefined without motion.
// A bare G92 resets all four axes to zero.
func (t *Tracker) applySetPosition(cmd *gcode.Command) Snapshot {
	prev := t.current

	if len(cmd.Params) == 0 {
		t.current.X = 0
		t.current.Y = 0
		t.current.Z = 0
		t.current.E = 0
		return Snapshot{Point: t.current, Previous: prev, PositionSet: true}
	}

	if v, ok := cmd.Param('X'); ok {
		t.current.X = t.scale(v)
	}
	if v, ok := cmd.Param('Y'); ok {
		t.current.Y = t.scale(v)
	}
	if v, ok := cmd.Param('Z'); ok {
		t.current.Z = t.scale(v)
	}
	if v, ok := cmd.Param('E'); ok {
		t.current.E = t.scale(v)
	}
	return Snapshot{Point: t.current, Previous: prev, PositionSet: true}
}
