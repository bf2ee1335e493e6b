package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	s := Default()
	if s.ResolutionMM != 0.05 {
		t.Errorf("expected default resolution 0.05, got %f", s.ResolutionMM)
	}
	if s.MaxRadiusMM != 1000000 {
		t.Errorf("expected default max radius 1000000, got %f", s.MaxRadiusMM)
	}
	if s.G90G91InfluencesExtruder {
		t.Error("expected g90_g91_influences_extruder off by default")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("expected defaults to validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero resolution", func(s *Settings) { s.ResolutionMM = 0 }},
		{"negative resolution", func(s *Settings) { s.ResolutionMM = -0.1 }},
		{"zero max radius", func(s *Settings) { s.MaxRadiusMM = 0 }},
		{"negative buffer", func(s *Settings) { s.BufferSize = -1 }},
		{"negative period", func(s *Settings) { s.NotificationPeriodSeconds = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Default()
			tc.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoadString(t *testing.T) {
	p := LoadString(`
# welder profile
[arcwelder]
resolution_mm: 0.1
max_radius_mm = 5000
g90_g91_influences_extruder: true
buffer_size: 100
arc_comments: yes
`)

	sec := p.SectionOptional("arcwelder")
	if sec == nil {
		t.Fatal("expected [arcwelder] section")
	}

	s, err := FromSection(sec)
	if err != nil {
		t.Fatalf("FromSection failed: %v", err)
	}
	if s.ResolutionMM != 0.1 {
		t.Errorf("expected resolution 0.1, got %f", s.ResolutionMM)
	}
	if s.MaxRadiusMM != 5000 {
		t.Errorf("expected max radius 5000, got %f", s.MaxRadiusMM)
	}
	if !s.G90G91InfluencesExtruder {
		t.Error("expected extruder influence enabled")
	}
	if s.BufferSize != 100 {
		t.Errorf("expected buffer size 100, got %d", s.BufferSize)
	}
	if !s.ArcComments {
		t.Error("expected arc comments enabled")
	}
	// Absent options keep their defaults.
	if s.NotificationPeriodSeconds != DefaultNotificationPeriodSeconds {
		t.Errorf("expected default notification period, got %f", s.NotificationPeriodSeconds)
	}
}

func TestLoadStringBadValues(t *testing.T) {
	p := LoadString("[arcwelder]\nresolution_mm: fast\n")
	if _, err := FromSection(p.SectionOptional("arcwelder")); err == nil {
		t.Error("expected an error for a non-numeric resolution")
	}

	p = LoadString("[arcwelder]\narc_comments: maybe\n")
	if _, err := FromSection(p.SectionOptional("arcwelder")); err == nil {
		t.Error("expected an error for a bad boolean")
	}
}

func TestLoadProfileFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arcwelder.cfg")
	data := "[arcwelder]\nresolution_mm: 0.025  ; tight\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile failed: %v", err)
	}
	if s.ResolutionMM != 0.025 {
		t.Errorf("expected resolution 0.025, got %f", s.ResolutionMM)
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "nope.cfg")); err == nil {
		t.Error("expected an error for a missing profile")
	}
}

func TestLoadProfileNoSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "printer.cfg")
	if err := os.WriteFile(path, []byte("[printer]\nkinematics: corexy\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("expected defaults for a missing section: %v", err)
	}
	if s.ResolutionMM != DefaultResolutionMM {
		t.Errorf("expected defaults, got %+v", s)
	}
}

func TestSectionNamesOrdered(t *testing.T) {
	p := LoadString("[b]\nx: 1\n[a]\ny: 2\n")
	names := p.SectionNames()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("expected file order, got %v", names)
	}
}
