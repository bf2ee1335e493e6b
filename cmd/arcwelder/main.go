// arcwelder compresses 3D-printer G-code: runs of short linear moves that
// trace a circular path are replaced with single G2/G3 arc commands, staying
// within a configured resolution of the original toolpath.
//
// Usage:
//
//	arcwelder [options] source.gcode target.gcode
//
// Options:
//
//	-resolution float  Maximum deviation from the source path in mm (default 0.05)
//	-max-radius float  Maximum arc radius in mm (default 1000000)
//	-g90-influences-extruder
//	                   G90/G91 also switch the extruder mode
//	-buffer-size int   Unwritten command buffer capacity hint (default 50)
//	-arc-comments      Append a segment-count comment to each arc
//	-keep-partial      Keep the partial target file when a run fails
//	-profile string    Read settings from the [arcwelder] section of an INI file
//	-monitor string    Serve progress over WebSocket on this address (e.g. :8910)
//	-progress          Log progress once per second
//	-stats             Print the segment statistics table on completion (default true)
//	-log-level string  DEBUG, INFO, WARN or ERROR (default INFO)
//
// Examples:
//
//	# Default 0.05 mm resolution
//	arcwelder model.gcode model.aw.gcode
//
//	# Looser tolerance, live progress for a frontend
//	arcwelder -resolution 0.1 -monitor :8910 model.gcode model.aw.gcode
package main

import (
	"flag"
	"fmt"
	"os"

	"arcwelder-go/pkg/config"
	"arcwelder-go/pkg/log"
	"arcwelder-go/pkg/monitor"
	"arcwelder-go/pkg/welder"
)

func main() {
	resolution := flag.Float64("resolution", config.DefaultResolutionMM, "maximum deviation from the source path in mm")
	maxRadius := flag.Float64("max-radius", config.DefaultMaxRadiusMM, "maximum arc radius in mm")
	g90Influences := flag.Bool("g90-influences-extruder", false, "G90/G91 also switch the extruder mode")
	bufferSize := flag.Int("buffer-size", config.DefaultBufferSize, "unwritten command buffer capacity hint")
	arcComments := flag.Bool("arc-comments", false, "append a segment-count comment to each arc")
	keepPartial := flag.Bool("keep-partial", false, "keep the partial target file when a run fails")
	profile := flag.String("profile", "", "read settings from the [arcwelder] section of an INI file")
	monitorAddr := flag.String("monitor", "", "serve progress over WebSocket on this address")
	showProgress := flag.Bool("progress", false, "log progress once per second")
	showStats := flag.Bool("stats", true, "print the segment statistics table on completion")
	logLevel := flag.String("log-level", "", "DEBUG, INFO, WARN or ERROR")

	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] source.gcode target.gcode\n", os.Args[0])
		flag.Usage()
		os.Exit(2)
	}
	sourcePath := flag.Arg(0)
	targetPath := flag.Arg(1)

	logger := log.New("arcwelder")
	if *logLevel != "" {
		logger.SetLevel(log.ParseLevel(*logLevel))
	}

	settings := config.Default()
	if *profile != "" {
		loaded, err := config.LoadProfile(*profile)
		if err != nil {
			logger.Error("loading profile: %v", err)
			os.Exit(1)
		}
		settings = loaded
	}

	// Explicit flags override the profile.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "resolution":
			settings.ResolutionMM = *resolution
		case "max-radius":
			settings.MaxRadiusMM = *maxRadius
		case "g90-influences-extruder":
			settings.G90G91InfluencesExtruder = *g90Influences
		case "buffer-size":
			settings.BufferSize = *bufferSize
		case "arc-comments":
			settings.ArcComments = *arcComments
		case "keep-partial":
			settings.KeepPartialTarget = *keepPartial
		}
	})

	if err := settings.Validate(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	var callback welder.Callback
	if *showProgress {
		callback = func(p welder.Progress) bool {
			logger.Info("%s", p.String())
			return true
		}
	}

	if *monitorAddr != "" {
		m := monitor.New(*monitorAddr, logger.WithPrefix("monitor"))
		m.Start()
		defer m.Stop()
		callback = m.Callback(callback)
	}

	logger.InfoFields("welding", log.Fields{
		"source":     sourcePath,
		"target":     targetPath,
		"resolution": settings.ResolutionMM,
	})

	w := welder.New(settings, logger.WithPrefix("welder"), callback)
	res := w.Process(sourcePath, targetPath)

	if !res.Success {
		logger.Error("%s", res.Message)
		os.Exit(1)
	}
	if res.Cancelled {
		logger.Warn("%s", res.Message)
	}

	p := res.Progress
	logger.InfoFields("done", log.Fields{
		"arcs":              p.ArcsCreated,
		"points_compressed": p.PointsCompressed,
		"size_reduction":    fmt.Sprintf("%.1f%%", p.CompressionPercent),
	})
	if *showStats {
		fmt.Println(p.DetailString())
	}
}
