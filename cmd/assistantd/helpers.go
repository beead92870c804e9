package main

import (
	"log/slog"
	"path/filepath"
	"time"
)

func timeNow() time.Time { return time.Now() }

func timeSunday() time.Weekday { return time.Sunday }

func durationMinutes(n int) time.Duration { return time.Duration(n) * time.Minute }

func durationHours(n int) time.Duration { return time.Duration(n) * time.Hour }

// loadLocation validates the configured timezone the same way
// scheduler.New does, so the Context Manager's TimeSource and the
// Scheduler always agree on which wall clock they're reading.
func loadLocation(tz string, logger *slog.Logger) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		logger.Warn("invalid user timezone, falling back to UTC", "timezone", tz, "error", err)
		return time.UTC
	}
	return loc
}

func parentDir(path string) string {
	return filepath.Dir(path)
}

// parentJoin builds a sibling path next to an existing file path, e.g.
// turning ".../assistant.db" into ".../insights.db".
func parentJoin(path, name string) string {
	return filepath.Join(filepath.Dir(path), name)
}
