// Package screenlog implements the SQLite-backed, append-only
// Screen-Observation Log: inserts back-fill the previous row's
// duration in the same transaction, and DailySummary/WeeklySummary
// aggregate totals and focus streaks, ported from
// original_source's screen_repository.py.
package screenlog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/assistantd/assistantd/internal/contextmodel"
	_ "github.com/mattn/go-sqlite3"
)

// Observation is one row of the Screen-Observation Log.
type Observation struct {
	ID              string
	Timestamp       time.Time
	AppName         string
	WindowTitle     string
	ActivityType    contextmodel.ActivityType
	Project         string
	Summary         string
	Details         []string
	Blocked         bool
	DurationSeconds *int
}

// Log is the SQLite-backed Screen-Observation Log.
type Log struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if necessary) the SQLite database at path.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open screen log db: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS screen_observation (
	id TEXT PRIMARY KEY,
	timestamp TIMESTAMP NOT NULL,
	app_name TEXT NOT NULL,
	window_title TEXT NOT NULL,
	activity_type TEXT NOT NULL,
	project TEXT,
	summary TEXT,
	details_json TEXT,
	blocked INTEGER NOT NULL,
	duration_seconds INTEGER
);
CREATE INDEX IF NOT EXISTS idx_screen_observation_ts ON screen_observation(timestamp);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create screen_observation schema: %w", err)
	}

	return &Log{db: db, now: time.Now}, nil
}

func (l *Log) Close() error {
	return l.db.Close()
}

// Insert records a new observation, back-filling the previous
// still-open row's duration in the same transaction.
func (l *Log) Insert(o Observation) (Observation, error) {
	o.ID = uuid.NewString()
	if o.Timestamp.IsZero() {
		o.Timestamp = l.now()
	}
	o.Timestamp = o.Timestamp.UTC()

	tx, err := l.db.Begin()
	if err != nil {
		return Observation{}, fmt.Errorf("begin insert transaction: %w", err)
	}
	defer tx.Rollback()

	var prevID string
	var prevTS time.Time
	row := tx.QueryRow(
		`SELECT id, timestamp FROM screen_observation WHERE duration_seconds IS NULL AND timestamp < ? ORDER BY timestamp DESC LIMIT 1`,
		o.Timestamp,
	)
	switch err := row.Scan(&prevID, &prevTS); err {
	case nil:
		delta := int(o.Timestamp.Sub(prevTS.UTC()).Seconds())
		if _, err := tx.Exec(`UPDATE screen_observation SET duration_seconds = ? WHERE id = ?`, delta, prevID); err != nil {
			return Observation{}, fmt.Errorf("backfill previous duration: %w", err)
		}
	case sql.ErrNoRows:
	default:
		return Observation{}, fmt.Errorf("find previous open observation: %w", err)
	}

	var detailsJSON sql.NullString
	if len(o.Details) > 0 {
		b, err := json.Marshal(o.Details)
		if err != nil {
			return Observation{}, fmt.Errorf("marshal details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err = tx.Exec(
		`INSERT INTO screen_observation (id, timestamp, app_name, window_title, activity_type, project, summary, details_json, blocked, duration_seconds) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		o.ID, o.Timestamp, o.AppName, o.WindowTitle, o.ActivityType.String(), nullIfEmpty(o.Project), nullIfEmpty(o.Summary), detailsJSON, boolToInt(o.Blocked),
	)
	if err != nil {
		return Observation{}, fmt.Errorf("insert observation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Observation{}, fmt.Errorf("commit insert transaction: %w", err)
	}

	return o, nil
}

// CleanupOld deletes observations older than retentionDays and returns
// the count removed.
func (l *Log) CleanupOld(retentionDays int) (int, error) {
	cutoff := l.now().UTC().AddDate(0, 0, -retentionDays)
	res, err := l.db.Exec(`DELETE FROM screen_observation WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup old observations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleaned rows: %w", err)
	}
	return int(n), nil
}

// DailySummary aggregates non-blocked observations for the UTC day
// (midnight to midnight UTC) carrying day's calendar date as read in
// day's own location.
func (l *Log) DailySummary(day time.Time) (DailySummaryResult, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	rows, err := l.db.Query(
		`SELECT timestamp, app_name, activity_type, project, duration_seconds FROM screen_observation WHERE timestamp >= ? AND timestamp < ? AND blocked = 0 ORDER BY timestamp`,
		start, end,
	)
	if err != nil {
		return DailySummaryResult{}, fmt.Errorf("query daily observations: %w", err)
	}
	defer rows.Close()

	var obs []lightObservation
	for rows.Next() {
		var o lightObservation
		var activity string
		var project sql.NullString
		var duration sql.NullInt64
		if err := rows.Scan(&o.Timestamp, &o.AppName, &activity, &project, &duration); err != nil {
			return DailySummaryResult{}, fmt.Errorf("scan daily observation: %w", err)
		}
		o.ActivityType = activity
		if project.Valid {
			o.Project = project.String
		}
		if duration.Valid {
			d := int(duration.Int64)
			o.DurationSeconds = &d
		}
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		return DailySummaryResult{}, err
	}

	return summarize(start, obs), nil
}

// WeeklySummary aggregates seven calendar days starting weekStart.
func (l *Log) WeeklySummary(weekStart time.Time) (WeeklySummaryResult, error) {
	result := WeeklySummaryResult{
		WeekStart:      truncateToDate(weekStart),
		WeekEnd:        truncateToDate(weekStart).AddDate(0, 0, 6),
		ByActivitySecs: map[string]int{},
		ByProjectSecs:  map[string]int{},
	}

	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		daily, err := l.DailySummary(day)
		if err != nil {
			return WeeklySummaryResult{}, err
		}
		result.TotalObservations += daily.TotalObservations
		result.TotalTrackedMinutes += daily.TotalTrackedMinutes
		for k, v := range daily.ByActivitySecs {
			result.ByActivitySecs[k] += v
		}
		for k, v := range daily.ByProjectSecs {
			result.ByProjectSecs[k] += v
		}
		result.DailyBreakdown = append(result.DailyBreakdown, DayBreakdown{
			Date:           truncateToDate(day),
			Observations:   daily.TotalObservations,
			TrackedMinutes: daily.TotalTrackedMinutes,
		})
	}

	return result, nil
}

type lightObservation struct {
	Timestamp       time.Time
	AppName         string
	ActivityType    string
	Project         string
	DurationSeconds *int
}

// DailySummaryResult is the aggregated output of DailySummary.
type DailySummaryResult struct {
	Date                time.Time
	TotalObservations   int
	TotalTrackedMinutes int
	SwitchCount         int
	ByActivitySecs      map[string]int
	ByProjectSecs       map[string]int
	ByAppSecs           map[string]int
	LongestStreaks      []Streak
}

// Streak is a run of consecutive observations sharing an activity type.
type Streak struct {
	Activity       string
	DurationMin    int
	StartedAt      time.Time
}

// DayBreakdown is one day's row within a WeeklySummaryResult.
type DayBreakdown struct {
	Date           time.Time
	Observations   int
	TrackedMinutes int
}

// WeeklySummaryResult is the aggregated output of WeeklySummary.
type WeeklySummaryResult struct {
	WeekStart           time.Time
	WeekEnd             time.Time
	TotalObservations   int
	TotalTrackedMinutes int
	ByActivitySecs      map[string]int
	ByProjectSecs       map[string]int
	DailyBreakdown      []DayBreakdown
}

func summarize(day time.Time, obs []lightObservation) DailySummaryResult {
	result := DailySummaryResult{
		Date:           day,
		ByActivitySecs: map[string]int{},
		ByProjectSecs:  map[string]int{},
		ByAppSecs:      map[string]int{},
	}
	if len(obs) == 0 {
		return result
	}

	result.TotalObservations = len(obs)
	result.SwitchCount = len(obs)

	totalSecs := 0
	for _, o := range obs {
		dur := 0
		if o.DurationSeconds != nil {
			dur = *o.DurationSeconds
		}
		totalSecs += dur
		result.ByActivitySecs[o.ActivityType] += dur
		if o.Project != "" {
			result.ByProjectSecs[o.Project] += dur
		}
		result.ByAppSecs[o.AppName] += dur
	}
	result.TotalTrackedMinutes = totalSecs / 60

	streaks := computeStreaks(obs)
	if len(streaks) > 3 {
		streaks = streaks[:3]
	}
	result.LongestStreaks = streaks

	return result
}

// computeStreaks collapses consecutive same-activity observations into
// runs, then sorts longest-first.
func computeStreaks(obs []lightObservation) []Streak {
	if len(obs) == 0 {
		return nil
	}

	var streaks []Streak
	currentActivity := obs[0].ActivityType
	streakStart := obs[0].Timestamp
	streakDuration := durOf(obs[0])

	for _, o := range obs[1:] {
		if o.ActivityType == currentActivity {
			streakDuration += durOf(o)
			continue
		}
		if streakDuration > 0 {
			streaks = append(streaks, Streak{Activity: currentActivity, DurationMin: streakDuration / 60, StartedAt: streakStart})
		}
		currentActivity = o.ActivityType
		streakStart = o.Timestamp
		streakDuration = durOf(o)
	}
	if streakDuration > 0 {
		streaks = append(streaks, Streak{Activity: currentActivity, DurationMin: streakDuration / 60, StartedAt: streakStart})
	}

	sort.SliceStable(streaks, func(i, j int) bool { return streaks[i].DurationMin > streaks[j].DurationMin })
	return streaks
}

func durOf(o lightObservation) int {
	if o.DurationSeconds == nil {
		return 0
	}
	return *o.DurationSeconds
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
