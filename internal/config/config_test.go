package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrDefaultFallsBackWhenMissing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.Schedule.UserTimezone != "UTC" {
		t.Errorf("UserTimezone = %q, want UTC", cfg.Schedule.UserTimezone)
	}
	if cfg.Proactivity != 3 {
		t.Errorf("Proactivity = %d, want 3", cfg.Proactivity)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "schedule:\n  user_timezone: \"America/New_York\"\n  morning_briefing_hour: 7\nproactivity_level: 5\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Schedule.UserTimezone != "America/New_York" {
		t.Errorf("UserTimezone = %q, want America/New_York", cfg.Schedule.UserTimezone)
	}
	if cfg.Schedule.MorningBriefingHour != 7 {
		t.Errorf("MorningBriefingHour = %d, want 7", cfg.Schedule.MorningBriefingHour)
	}
	if cfg.Proactivity != 5 {
		t.Errorf("Proactivity = %d, want 5", cfg.Proactivity)
	}
	// Fields the override file did not mention keep their defaults.
	if cfg.Schedule.EveningReviewHour != 21 {
		t.Errorf("EveningReviewHour = %d, want 21 (default)", cfg.Schedule.EveningReviewHour)
	}
}

func TestDiffDetectsScheduleChange(t *testing.T) {
	old := defaultConfig()
	next := defaultConfig()
	next.Schedule.CalendarScanIntervalMin = 5

	changes := Diff(old, next)
	if len(changes) != 1 {
		t.Fatalf("Diff returned %d changes, want 1: %v", len(changes), changes)
	}
}

func TestDiffNoChanges(t *testing.T) {
	old := defaultConfig()
	next := defaultConfig()
	if changes := Diff(old, next); len(changes) != 0 {
		t.Fatalf("Diff returned %d changes, want 0: %v", len(changes), changes)
	}
}
