// Package config holds the arc welder settings and a small INI-style profile
// reader so settings can be kept in a file next to the printer configuration.
package config

import (
	"arcwelder-go/pkg/errors"
)

// Default values for Settings.
const (
	DefaultResolutionMM              = 0.05
	DefaultMaxRadiusMM               = 1000000
	DefaultBufferSize                = 50
	DefaultNotificationPeriodSeconds = 1.0
)

// Settings controls one welding run. Settings are passed explicitly; there is
// no global configuration state.
type Settings struct {
	// ResolutionMM is the maximum allowed deviation between the fitted
	// arc and any original polyline vertex.
	ResolutionMM float64

	// MaxRadiusMM is the upper bound on fitted arc radius. Larger arcs
	// are rejected as indistinguishable from straight lines.
	MaxRadiusMM float64

	// G90G91InfluencesExtruder makes G90/G91 also switch the extruder
	// mode, matching Marlin-family firmware.
	G90G91InfluencesExtruder bool

	// BufferSize is the capacity hint for the unwritten command buffer.
	BufferSize int

	// NotificationPeriodSeconds is the minimum interval between progress
	// callbacks.
	NotificationPeriodSeconds float64

	// ArcComments appends a comment to each emitted arc describing how
	// many segments it absorbed.
	ArcComments bool

	// KeepPartialTarget leaves the partially written target file on disk
	// when a run fails. By default failed runs remove it.
	KeepPartialTarget bool
}

// Default returns the standard settings.
func Default() Settings {
	return Settings{
		ResolutionMM:              DefaultResolutionMM,
		MaxRadiusMM:               DefaultMaxRadiusMM,
		BufferSize:                DefaultBufferSize,
		NotificationPeriodSeconds: DefaultNotificationPeriodSeconds,
	}
}

// Validate checks the settings for values the pipeline cannot run with.
func (s Settings) Validate() error {
	if s.ResolutionMM <= 0 {
		return errors.SettingsError("resolution_mm", "must be positive")
	}
	if s.MaxRadiusMM <= 0 {
		return errors.SettingsError("max_radius_mm", "must be positive")
	}
	if s.BufferSize < 0 {
		return errors.SettingsError("buffer_size", "must not be negative")
	}
	if s.NotificationPeriodSeconds < 0 {
		return errors.SettingsError("notification_period_seconds", "must not be negative")
	}
	return nil
}

// FromSection fills settings from an [arcwelder] profile section, using
// defaults for absent options.
func FromSection(sec *Section) (Settings, error) {
	s := Default()
	var err error

	if s.ResolutionMM, err = sec.GetFloat("resolution_mm", s.ResolutionMM); err != nil {
		return s, err
	}
	if s.MaxRadiusMM, err = sec.GetFloat("max_radius_mm", s.MaxRadiusMM); err != nil {
		return s, err
	}
	if s.G90G91InfluencesExtruder, err = sec.GetBool("g90_g91_influences_extruder", s.G90G91InfluencesExtruder); err != nil {
		return s, err
	}
	if s.BufferSize, err = sec.GetInt("buffer_size", s.BufferSize); err != nil {
		return s, err
	}
	if s.NotificationPeriodSeconds, err = sec.GetFloat("notification_period_seconds", s.NotificationPeriodSeconds); err != nil {
		return s, err
	}
	if s.ArcComments, err = sec.GetBool("arc_comments", s.ArcComments); err != nil {
		return s, err
	}
	return s, s.Validate()
}

// LoadProfile reads settings from the [arcwelder] section of an INI file.
// A missing section yields the defaults.
func LoadProfile(path string) (Settings, error) {
	profile, err := Load(path)
	if err != nil {
		return Default(), err
	}
	sec := profile.SectionOptional("arcwelder")
	if sec == nil {
		return Default(), nil
	}
	return FromSection(sec)
}
