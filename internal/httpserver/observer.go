package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/assistantd/assistantd/internal/contextmodel"
	"github.com/assistantd/assistantd/internal/contextsource"
)

// observerStateResponse mirrors the published Snapshot, reshaped for the
// HTTP surface the way ws.Server's session payloads reshape session.State
// in the teacher.
type observerStateResponse struct {
	TimeOfDay                string                       `json:"time_of_day"`
	DayOfWeek                string                       `json:"day_of_week"`
	IsWorkingHours           bool                         `json:"is_working_hours"`
	UpcomingEvents           []contextmodel.CalendarEvent `json:"upcoming_events,omitempty"`
	CurrentEvent             string                       `json:"current_event,omitempty"`
	RecentActivity           []contextmodel.VCSActivity   `json:"recent_activity,omitempty"`
	ActiveGoalsSummary       string                       `json:"active_goals_summary,omitempty"`
	UserState                string                       `json:"user_state"`
	PreviousUserState        string                       `json:"previous_user_state"`
	InterruptionMode         string                       `json:"interruption_mode"`
	AttentionBudgetRemaining int                          `json:"attention_budget_remaining"`
	ActiveWindow             string                       `json:"active_window,omitempty"`
	ScreenContext            string                       `json:"screen_context,omitempty"`
	CaptureMode              string                       `json:"capture_mode"`
	DataQuality              string                       `json:"data_quality"`
}

func toObserverState(s *contextmodel.Snapshot) observerStateResponse {
	return observerStateResponse{
		TimeOfDay:                s.TimeOfDay.String(),
		DayOfWeek:                s.DayOfWeek.String(),
		IsWorkingHours:           s.IsWorkingHours,
		UpcomingEvents:           s.UpcomingEvents,
		CurrentEvent:             s.CurrentEvent,
		RecentActivity:           s.RecentActivity,
		ActiveGoalsSummary:       s.ActiveGoalsSummary,
		UserState:                s.UserState.String(),
		PreviousUserState:        s.PreviousUserState.String(),
		InterruptionMode:         s.InterruptionMode.String(),
		AttentionBudgetRemaining: s.AttentionBudgetRemaining,
		ActiveWindow:             s.ActiveWindow,
		ScreenContext:            s.ScreenContext,
		CaptureMode:              s.CaptureMode.String(),
		DataQuality:              s.DataQuality.String(),
	}
}

// handleObserverState returns a copy of the published snapshot -- the
// HTTP analog of contextmanager.Manager.Get, and like it, waits for an
// in-progress refresh to publish.
func (s *Server) handleObserverState(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, toObserverState(s.ctx.Get()))
}

// handleObserverRefresh forces a synchronous rebuild, exposing
// contextmanager.Manager.Refresh for manual/debug triggering rather than
// waiting for the next scheduled job.
func (s *Server) handleObserverRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	reqCtx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	writeJSON(w, http.StatusOK, toObserverState(s.ctx.Refresh(reqCtx)))
}

// sensorHeartbeatWindow is how recent the last Sensor post must be for
// the daemon to count as connected.
const sensorHeartbeatWindow = 30 * time.Second

type daemonStatusResponse struct {
	Connected        bool                     `json:"connected"`
	LastSensorPost   *time.Time               `json:"last_sensor_post,omitempty"`
	ActiveWindow     string                   `json:"active_window,omitempty"`
	HasScreenContext bool                     `json:"has_screen_context"`
	Sources          []contextsource.Snapshot `json:"sources,omitempty"`
}

// handleDaemonStatus reports whether the external Sensor has posted
// recently, so the UI can show a "sensor disconnected" indicator; it
// never reaches into the Sensor process itself, only the timestamp the
// Context Manager already tracks. Per-source gather health rides along
// for the same indicator panel.
func (s *Server) handleDaemonStatus(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	snap := s.ctx.Get()
	resp := daemonStatusResponse{
		LastSensorPost:   snap.LastSensorPost,
		ActiveWindow:     snap.ActiveWindow,
		HasScreenContext: snap.ScreenContext != "",
		Sources:          s.ctx.SourceHealth(),
	}
	if snap.LastSensorPost != nil {
		resp.Connected = time.Since(*snap.LastSensorPost) < sensorHeartbeatWindow
	}
	writeJSON(w, http.StatusOK, resp)
}

// profileUpdate describes the subset of UserProfile fields a settings
// mutation wants persisted; nil fields are left as the store already has
// them. This mirrors the partial-update idiom contextmodel.SensorPatch
// uses for the sensor contract, applied here to the settings surface.
type profileUpdate struct {
	InterruptionMode *contextmodel.InterruptionMode
	CaptureMode      *contextmodel.CaptureMode
}

// persistProfile loads the current profile, applies fn's partial update,
// and saves it back. Persistence failures are logged, not surfaced: the
// in-memory context has already been updated by the caller, so a profile
// write failure only risks losing the setting across a restart, not the
// current session's behavior.
func (s *Server) persistProfile(fn func(*profileUpdate)) {
	if s.profile == nil {
		return
	}
	var u profileUpdate
	fn(&u)

	p, err := s.profile.Load()
	if err != nil {
		s.logger.Error("failed to load profile for settings update", "error", err)
		return
	}
	if u.InterruptionMode != nil {
		p.InterruptionMode = *u.InterruptionMode
	}
	if u.CaptureMode != nil {
		p.CaptureMode = *u.CaptureMode
	}
	if err := s.profile.Save(p); err != nil {
		s.logger.Error("failed to persist profile settings update", "error", err)
	}
}
