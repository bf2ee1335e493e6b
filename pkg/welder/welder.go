// Package welder drives arc compression: it reads a G-code file line by
// line, routes motions through the position tracker into the online arc
// candidate, and writes either fitted G2/G3 arcs or the original lines.
package welder

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"arcwelder-go/pkg/arcfit"
	"arcwelder-go/pkg/config"
	"arcwelder-go/pkg/errors"
	"arcwelder-go/pkg/gcode"
	"arcwelder-go/pkg/geometry"
	"arcwelder-go/pkg/log"
	"arcwelder-go/pkg/pool"
	"arcwelder-go/pkg/position"
	"arcwelder-go/pkg/stats"
)

const ioBufferSize = 64 * 1024

// Welder holds the configuration of a welding run. One Welder can run
// multiple files sequentially; per-run state is reset on each Process call.
type Welder struct {
	settings config.Settings
	logger   *log.Logger
	callback Callback

	// Per-run state.
	tracker   *position.Tracker
	arc       *arcfit.SegmentedArc
	unwritten *unwrittenBuffer
	out       *bufio.Writer
	segStats  *stats.SegmentStatistics

	sourceName string

	lastFeedrate     float64
	gcodesProcessed  int
	linesProcessed   int
	pointsCompressed int
	arcsCreated      int

	sourceSize  int64
	sourcePos   int64
	targetBytes int64

	startTime  time.Time
	nextNotify time.Time
	cancelled  bool
	writeErr   error
}

// New creates a welder. logger may be nil for silent operation; callback may
// be nil when no progress reporting is wanted.
func New(settings config.Settings, logger *log.Logger, callback Callback) *Welder {
	if logger == nil {
		logger = log.Discard()
	}
	return &Welder{settings: settings, logger: logger, callback: callback}
}

// Process welds sourcePath into targetPath. All fatal outcomes are reported
// through the Results record, not returned as errors. A failed run removes
// the partial target unless KeepPartialTarget is set; a cancelled run keeps
// it.
func (w *Welder) Process(sourcePath, targetPath string) Results {
	if err := w.settings.Validate(); err != nil {
		return w.failure(err)
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return w.failure(errors.SourceOpenError(sourcePath, err))
	}
	defer src.Close()

	var size int64
	if fi, err := src.Stat(); err == nil {
		size = fi.Size()
	}

	tgt, err := os.Create(targetPath)
	if err != nil {
		return w.failure(errors.TargetOpenError(targetPath, err))
	}

	w.sourceName = sourcePath
	res := w.ProcessStream(src, tgt, size)

	if cerr := tgt.Close(); cerr != nil && res.Success {
		res = w.failure(errors.TargetWriteError(targetPath, cerr))
	}
	if !res.Success && !w.settings.KeepPartialTarget {
		os.Remove(targetPath)
	}
	return res
}

// ProcessStream welds from r into out. sourceSize may be zero when unknown;
// it only affects percent-complete reporting.
func (w *Welder) ProcessStream(r io.Reader, out io.Writer, sourceSize int64) Results {
	if err := w.settings.Validate(); err != nil {
		return w.failure(err)
	}
	w.reset(out, sourceSize)
	w.writeHeader()

	reader := bufio.NewReaderSize(r, ioBufferSize)
	for {
		raw, err := reader.ReadString('\n')
		if len(raw) > 0 {
			w.sourcePos += int64(len(raw))
			w.processLine(raw)
		}
		if w.writeErr != nil {
			return w.failure(errors.TargetWriteError("target", w.writeErr))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return w.failure(errors.SourceReadError(w.sourceName, err))
		}
		w.maybeNotify()
		if w.cancelled {
			break
		}
	}

	// End of input (or cancellation): settle the open candidate.
	w.commitOrFlush(w.tracker.ExtruderRelative())
	if err := w.out.Flush(); err != nil {
		return w.failure(errors.TargetWriteError("target", err))
	}
	if w.writeErr != nil {
		return w.failure(errors.TargetWriteError("target", w.writeErr))
	}

	final := w.snapshot()
	if w.cancelled {
		w.logger.InfoFields("run cancelled by callback", log.Fields{"line": w.linesProcessed})
		return Results{Success: true, Cancelled: true, Message: "Process cancelled.", Progress: final}
	}
	w.logger.InfoFields("run complete", log.Fields{
		"lines":  w.linesProcessed,
		"arcs":   w.arcsCreated,
		"points": w.pointsCompressed,
	})
	return Results{Success: true, Message: "Process completed successfully.", Progress: final}
}

func (w *Welder) reset(out io.Writer, sourceSize int64) {
	w.tracker = position.NewTracker(w.settings.G90G91InfluencesExtruder)
	w.arc = arcfit.New(w.settings.ResolutionMM, w.settings.MaxRadiusMM)
	w.unwritten = newUnwrittenBuffer(w.settings.BufferSize)
	w.out = bufio.NewWriterSize(out, ioBufferSize)
	w.segStats = stats.New()
	if w.sourceName == "" {
		w.sourceName = "source"
	}

	w.lastFeedrate = 0
	w.gcodesProcessed = 0
	w.linesProcessed = 0
	w.pointsCompressed = 0
	w.arcsCreated = 0
	w.sourceSize = sourceSize
	w.sourcePos = 0
	w.targetBytes = 0
	w.startTime = time.Now()
	w.nextNotify = w.startTime.Add(w.notifyPeriod())
	w.cancelled = false
	w.writeErr = nil
}

func (w *Welder) notifyPeriod() time.Duration {
	return time.Duration(w.settings.NotificationPeriodSeconds * float64(time.Second))
}

// writeHeader prepends the tool banner to the target.
func (w *Welder) writeHeader() {
	w.writeLine("; Postprocessed by arcwelder-go")
	w.writeLine(fmt.Sprintf("; resolution_mm=%s max_radius_mm=%s",
		gcode.FormatFloat(w.settings.ResolutionMM, 3),
		gcode.FormatFloat(w.settings.MaxRadiusMM, 3)))
}

// processLine runs one source line through the parse → track → decide chain.
func (w *Welder) processLine(raw string) {
	w.linesProcessed++
	cmd := gcode.Parse(raw)
	if !cmd.TextOnly {
		w.gcodesProcessed++
	} else if isMalformed(cmd.Text) {
		w.logger.WarnFields("passing through unparseable line",
			log.Fields{"line": w.linesProcessed, "text": cmd.Text})
	}

	extRelBefore := w.tracker.ExtruderRelative()
	snap := w.tracker.Apply(cmd)
	if snap.IsMotion {
		w.segStats.UpdateSource(snap.Previous.Distance(snap.Point))
	}

	switch {
	case isCandidateMove(cmd, snap):
		w.processCandidateMove(cmd, snap, extRelBefore)
	case cmd.TextOnly:
		// Comments and blanks are held while an arc is forming so they
		// come out ahead of the arc in original order.
		if w.unwritten.len() > 0 || w.arc.PointCount() > 0 {
			w.unwritten.append(unwrittenCommand{text: cmd.Text})
		} else {
			w.writeLine(cmd.Text)
		}
	default:
		// Every other command interrupts the candidate: mode and unit
		// switches, G92, arcs already present in the input, retraction
		// and feedrate-only moves, temperature and fan codes, tool
		// changes. Settle the candidate, then write it through.
		w.commitOrFlush(extRelBefore)
		w.writeThrough(cmd.Text, snap)
	}

	gcode.Recycle(cmd)
}

// isCandidateMove reports whether the command is a linear move that can feed
// the arc candidate: G0/G1 carrying an X or Y word. Everything else,
// including E-only retractions and bare feedrate changes, takes the
// interrupt path.
func isCandidateMove(cmd *gcode.Command, snap position.Snapshot) bool {
	return snap.IsLinear && (cmd.HasParam('X') || cmd.HasParam('Y'))
}

// isMalformed reports whether a text-only line is something other than a
// comment or blank, i.e. a line the parser gave up on.
func isMalformed(text string) bool {
	s := strings.TrimSpace(text)
	return s != "" && s[0] != ';' && s[0] != '('
}

// processCandidateMove offers the move to the candidate, committing or
// flushing first when the candidate rejects it.
func (w *Welder) processCandidateMove(cmd *gcode.Command, snap position.Snapshot, extRelBefore bool) {
	length := snap.Previous.Distance(snap.Point)
	entry := unwrittenCommand{
		text:     cmd.Text,
		isMotion: true,
		length:   length,
		feedrate: snap.Point.F,
	}

	if w.tryAdd(snap) {
		w.unwritten.append(entry)
		return
	}

	// The candidate cannot take this point. Settle it, then retry the
	// move on a fresh candidate seeded at the pre-move position.
	w.commitOrFlush(extRelBefore)
	if w.tryAdd(snap) {
		w.unwritten.append(entry)
		return
	}

	// Still unacceptable (Z change, retraction, zero-length chord):
	// the move cannot start a run either, so it passes through.
	w.arc.Abort()
	w.writeThrough(cmd.Text, snap)
}

// tryAdd seeds an empty candidate with the pre-move position and offers the
// post-move point.
func (w *Welder) tryAdd(snap position.Snapshot) bool {
	if w.arc.PointCount() == 0 {
		w.arc.TryAddPoint(snap.Previous, 0)
	}
	return w.arc.TryAddPoint(snap.Point, snap.ERelative) == arcfit.Accepted
}

// commitOrFlush settles the open candidate: a committable arc is written (with
// buffered comments ahead of it), anything less is flushed verbatim.
func (w *Welder) commitOrFlush(extruderRelative bool) {
	if !w.arc.IsShape() {
		w.flushUnwritten()
		w.arc.Abort()
		return
	}

	fitted := w.arc.PopArc()
	for _, e := range w.unwritten.entries {
		if !e.isMotion {
			w.writeLine(e.text)
		}
	}
	w.unwritten.reset()

	w.writeLine(w.renderArc(fitted, extruderRelative))
	w.segStats.UpdateTarget(fitted.Length())
	w.arcsCreated++
	w.pointsCompressed += fitted.PointCount - 1
	if fitted.Feedrate > 0 {
		w.lastFeedrate = fitted.Feedrate
	}

	w.logger.DebugFields("arc committed", log.Fields{
		"direction": fitted.Direction.String(),
		"radius":    fitted.Radius,
		"points":    fitted.PointCount,
	})
}

// flushUnwritten writes every pending line verbatim, in original order.
func (w *Welder) flushUnwritten() {
	for _, e := range w.unwritten.entries {
		w.writeLine(e.text)
		if e.isMotion {
			w.segStats.UpdateTarget(e.length)
			if e.feedrate > 0 {
				w.lastFeedrate = e.feedrate
			}
		}
	}
	w.unwritten.reset()
}

// writeThrough writes the current command's source text verbatim and accounts
// for it when it was a motion.
func (w *Welder) writeThrough(text string, snap position.Snapshot) {
	w.writeLine(text)
	if snap.IsMotion {
		w.segStats.UpdateTarget(snap.Previous.Distance(snap.Point))
		if snap.Point.F > 0 {
			w.lastFeedrate = snap.Point.F
		}
	}
}

// renderArc builds the G2/G3 line for a fitted arc. X/Y/I/J carry three
// decimals, E five; F appears only when the feedrate differs from the last
// written one.
func (w *Welder) renderArc(f arcfit.FittedArc, extruderRelative bool) string {
	b := pool.GetBuilder()
	defer pool.PutBuilder(b)

	if f.Direction == geometry.Clockwise {
		b.WriteString("G2")
	} else {
		b.WriteString("G3")
	}

	i, j := f.CenterOffset()
	b.WriteString(" X")
	b.WriteString(gcode.FormatFloat(f.End.X, 3))
	b.WriteString(" Y")
	b.WriteString(gcode.FormatFloat(f.End.Y, 3))
	b.WriteString(" I")
	b.WriteString(gcode.FormatFloat(i, 3))
	b.WriteString(" J")
	b.WriteString(gcode.FormatFloat(j, 3))

	if f.TotalERelative != 0 {
		b.WriteString(" E")
		if extruderRelative {
			b.WriteString(gcode.FormatFloat(f.TotalERelative, 5))
		} else {
			b.WriteString(gcode.FormatFloat(f.End.E, 5))
		}
	}

	if f.Feedrate > 0 && f.Feedrate != w.lastFeedrate {
		b.WriteString(" F")
		b.WriteString(gcode.FormatFloat(f.Feedrate, 3))
	}

	if w.settings.ArcComments {
		fmt.Fprintf(b, " ; %d segments", f.PointCount-1)
	}
	return b.String()
}

// writeLine writes one output line. Write errors are latched and surfaced by
// the main loop.
func (w *Welder) writeLine(text string) {
	if w.writeErr != nil {
		return
	}
	n, err := w.out.WriteString(text)
	w.targetBytes += int64(n)
	if err != nil {
		w.writeErr = err
		return
	}
	if err := w.out.WriteByte('\n'); err != nil {
		w.writeErr = err
		return
	}
	w.targetBytes++
}

// maybeNotify invokes the progress callback when the notification period has
// passed. The callback's return value is the only cancellation channel.
func (w *Welder) maybeNotify() {
	if w.callback == nil || w.cancelled {
		return
	}
	now := time.Now()
	if now.Before(w.nextNotify) {
		return
	}
	w.nextNotify = now.Add(w.notifyPeriod())
	if !w.callback(w.snapshot()) {
		w.cancelled = true
	}
}

// snapshot builds a progress record from the current counters.
func (w *Welder) snapshot() Progress {
	elapsed := time.Since(w.startTime).Seconds()
	p := Progress{
		SecondsElapsed:     elapsed,
		GcodesProcessed:    w.gcodesProcessed,
		LinesProcessed:     w.linesProcessed,
		PointsCompressed:   w.pointsCompressed,
		ArcsCreated:        w.arcsCreated,
		SourceFilePosition: w.sourcePos,
		SourceFileSize:     w.sourceSize,
		TargetFileSize:     w.targetBytes,
	}
	if w.sourceSize > 0 {
		p.PercentComplete = float64(w.sourcePos) / float64(w.sourceSize) * 100
	}
	if p.PercentComplete > 0 {
		p.SecondsRemaining = elapsed * (100 - p.PercentComplete) / p.PercentComplete
	}
	if w.targetBytes > 0 && w.sourcePos > 0 {
		p.CompressionRatio = float64(w.sourcePos) / float64(w.targetBytes)
		p.CompressionPercent = (1 - float64(w.targetBytes)/float64(w.sourcePos)) * 100
	}
	if w.segStats != nil {
		p.Statistics = w.segStats.Clone()
	}
	return p
}

// failure builds a failed Results record around err.
func (w *Welder) failure(err error) Results {
	w.logger.Error("%v", err)
	res := Results{Message: err.Error()}
	if w.segStats != nil {
		res.Progress = w.snapshot()
	}
	return res
}
